// api/models/session.go
package models

import "time"

// Known platform values. The classifier never emits anything else.
const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
	PlatformWeb     = "web"
)

// Interaction is a single timestamped user action within a session.
// Insertion order in Session.Interactions is chronological and significant.
type Interaction struct {
	Action         string                 `bson:"action" json:"action"`
	Timestamp      time.Time              `bson:"timestamp" json:"timestamp"`
	AdditionalData map[string]interface{} `bson:"additionalData,omitempty" json:"additionalData,omitempty"`
}

// Session is one marketing record per distinct visitor session, keyed by
// SessionID. Platform, UserAgent and IPAddress are set at creation and never
// overwritten; attribution fields follow last-non-empty-wins.
type Session struct {
	SessionID         string                 `bson:"sessionId" json:"sessionId"`
	UserID            string                 `bson:"userId,omitempty" json:"userId,omitempty"`
	Platform          string                 `bson:"platform" json:"platform"`
	UserAgent         string                 `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	Referrer          string                 `bson:"referrer" json:"referrer"`
	UTMSource         string                 `bson:"utm_source,omitempty" json:"utm_source,omitempty"`
	UTMMedium         string                 `bson:"utm_medium,omitempty" json:"utm_medium,omitempty"`
	UTMCampaign       string                 `bson:"utm_campaign,omitempty" json:"utm_campaign,omitempty"`
	UTMTerm           string                 `bson:"utm_term,omitempty" json:"utm_term,omitempty"`
	UTMContent        string                 `bson:"utm_content,omitempty" json:"utm_content,omitempty"`
	FirstVisit        time.Time              `bson:"firstVisit" json:"firstVisit"`
	LastVisit         time.Time              `bson:"lastVisit" json:"lastVisit"`
	VisitCount        int64                  `bson:"visitCount" json:"visitCount"`
	Interactions      []Interaction          `bson:"interactions" json:"interactions"`
	DownloadClicked   bool                   `bson:"downloadClicked" json:"downloadClicked"`
	DownloadURL       string                 `bson:"downloadUrl,omitempty" json:"downloadUrl,omitempty"`
	DownloadTimestamp *time.Time             `bson:"downloadTimestamp,omitempty" json:"downloadTimestamp,omitempty"`
	IPAddress         string                 `bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	Metadata          map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt         time.Time              `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time              `bson:"updatedAt" json:"updatedAt"`
}

// TrackRequest is the body of POST /api/marketing/track. Every field is
// optional from the transport's point of view; the handler validates what a
// creation actually needs.
type TrackRequest struct {
	SessionID      string                 `json:"sessionId"`
	UserID         string                 `json:"userId"`
	Platform       string                 `json:"platform"`
	UserAgent      string                 `json:"userAgent"`
	Referrer       string                 `json:"referrer"`
	UTMSource      string                 `json:"utm_source"`
	UTMMedium      string                 `json:"utm_medium"`
	UTMCampaign    string                 `json:"utm_campaign"`
	UTMTerm        string                 `json:"utm_term"`
	UTMContent     string                 `json:"utm_content"`
	Action         string                 `json:"action"`
	AdditionalData map[string]interface{} `json:"additionalData"`
	DownloadURL    string                 `json:"downloadUrl"`
}

// PlatformCount is one bucket of the platform breakdown aggregation.
type PlatformCount struct {
	Platform string `bson:"_id" json:"platform"`
	Count    int64  `bson:"count" json:"count"`
}

// DownloadCount is one bucket of the download-clicked breakdown aggregation.
type DownloadCount struct {
	DownloadClicked bool  `bson:"_id" json:"downloadClicked"`
	Count           int64 `bson:"count" json:"count"`
}

// ReferrerCount is one row of the top-referrers aggregation.
type ReferrerCount struct {
	Referrer string `bson:"_id" json:"referrer"`
	Count    int64  `bson:"count" json:"count"`
}

// AnalyticsSummary is the payload of GET /api/marketing/analytics.
type AnalyticsSummary struct {
	TotalVisits   int64           `json:"totalVisits"`
	PlatformStats []PlatformCount `json:"platformStats"`
	DownloadStats []DownloadCount `json:"downloadStats"`
	TopReferrers  []ReferrerCount `json:"topReferrers"`
}

// Pagination describes one page of the session listing.
type Pagination struct {
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}
