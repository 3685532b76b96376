// api/store/session_store.go
package store

import (
	"context"
	"errors"
	"time"

	"earlyjobs/api/models"
)

var ErrSessionNotFound = errors.New("session not found")

// CreationFields carries everything a new session record is populated from.
// Attribution values are captured as supplied; Referrer defaults to "direct"
// when empty. An InitialAction, when present, is embedded as the first
// interaction without bumping the visit counter.
type CreationFields struct {
	UserID        string
	Platform      string
	UserAgent     string
	Referrer      string
	UTMSource     string
	UTMMedium     string
	UTMCampaign   string
	UTMTerm       string
	UTMContent    string
	IPAddress     string
	InitialAction string
	InitialData   map[string]interface{}
}

// AttributionFields carries a refresh of the referrer/UTM set. Empty values
// mean "keep what is stored" (last-non-empty-wins).
type AttributionFields struct {
	Referrer    string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	UTMTerm     string
	UTMContent  string
}

// SessionStore is the persistence contract for marketing sessions.
//
// Resolve is the find-or-create entry point: a non-empty candidateID that
// matches an existing record returns it unchanged with isNew=false; any other
// case (absent or unknown candidate) creates a record under a freshly
// generated identifier and returns it with isNew=true. An unknown client
// identifier is never adopted, so creation races cannot collide.
//
// The three mutators are each atomic with respect to other mutations on the
// same session: concurrent calls must not lose updates. Mutations on
// different sessions are independent.
type SessionStore interface {
	Resolve(ctx context.Context, candidateID string, fields CreationFields) (*models.Session, bool, error)
	FindBySessionID(ctx context.Context, sessionID string) (*models.Session, error)

	AddInteraction(ctx context.Context, sessionID, action string, additionalData map[string]interface{}) (*models.Session, error)
	MarkDownloadClicked(ctx context.Context, sessionID, downloadURL string) (*models.Session, error)
	RefreshAttribution(ctx context.Context, sessionID string, fields AttributionFields) (*models.Session, error)

	TotalVisits(ctx context.Context) (int64, error)
	PlatformBreakdown(ctx context.Context) ([]models.PlatformCount, error)
	DownloadBreakdown(ctx context.Context) ([]models.DownloadCount, error)
	TopReferrers(ctx context.Context, limit int64) ([]models.ReferrerCount, error)
	ListSessions(ctx context.Context, page, limit int64) ([]models.Session, int64, error)
}

// newSession builds a fresh record with the creation-time defaults shared by
// every SessionStore implementation: visitCount starts at 1 regardless of
// whether an initial interaction is embedded.
func newSession(sessionID string, now time.Time, fields CreationFields) *models.Session {
	referrer := fields.Referrer
	if referrer == "" {
		referrer = "direct"
	}

	session := &models.Session{
		SessionID:    sessionID,
		UserID:       fields.UserID,
		Platform:     fields.Platform,
		UserAgent:    fields.UserAgent,
		Referrer:     referrer,
		UTMSource:    fields.UTMSource,
		UTMMedium:    fields.UTMMedium,
		UTMCampaign:  fields.UTMCampaign,
		UTMTerm:      fields.UTMTerm,
		UTMContent:   fields.UTMContent,
		FirstVisit:   now,
		LastVisit:    now,
		VisitCount:   1,
		Interactions: []models.Interaction{},
		IPAddress:    fields.IPAddress,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if fields.InitialAction != "" {
		session.Interactions = append(session.Interactions, models.Interaction{
			Action:         fields.InitialAction,
			Timestamp:      now,
			AdditionalData: fields.InitialData,
		})
	}

	return session
}
