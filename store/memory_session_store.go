// api/store/memory_session_store.go
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"earlyjobs/api/models"
)

// MemorySessionStore keeps sessions in a process-local map. It backs local
// development when no MongoDB is configured, and the test suite.
//
// The map itself is guarded by an RWMutex; each session carries its own
// mutex, so concurrent mutations of different sessions never block each
// other. Returned sessions are deep copies, callers can't reach the stored
// record.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
	order    []string // sessionIDs in creation order, oldest first
}

type memorySession struct {
	mu      sync.Mutex
	session models.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*memorySession),
	}
}

func cloneSession(src *models.Session) *models.Session {
	dst := *src
	dst.Interactions = make([]models.Interaction, len(src.Interactions))
	copy(dst.Interactions, src.Interactions)
	if src.DownloadTimestamp != nil {
		t := *src.DownloadTimestamp
		dst.DownloadTimestamp = &t
	}
	if src.Metadata != nil {
		dst.Metadata = make(map[string]interface{}, len(src.Metadata))
		for k, v := range src.Metadata {
			dst.Metadata[k] = v
		}
	}
	return &dst
}

func (s *MemorySessionStore) get(sessionID string) (*memorySession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[sessionID]
	return entry, ok
}

func (s *MemorySessionStore) Resolve(ctx context.Context, candidateID string, fields CreationFields) (*models.Session, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	if candidateID != "" {
		if entry, ok := s.get(candidateID); ok {
			entry.mu.Lock()
			defer entry.mu.Unlock()
			return cloneSession(&entry.session), false, nil
		}
		// Unknown candidate: create under a fresh identifier instead.
	}

	session := newSession(uuid.New().String(), time.Now().UTC(), fields)

	s.mu.Lock()
	s.sessions[session.SessionID] = &memorySession{session: *cloneSession(session)}
	s.order = append(s.order, session.SessionID)
	s.mu.Unlock()

	return session, true, nil
}

func (s *MemorySessionStore) FindBySessionID(ctx context.Context, sessionID string) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry, ok := s.get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return cloneSession(&entry.session), nil
}

func (s *MemorySessionStore) AddInteraction(ctx context.Context, sessionID, action string, additionalData map[string]interface{}) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry, ok := s.get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now().UTC()
	entry.session.Interactions = append(entry.session.Interactions, models.Interaction{
		Action:         action,
		Timestamp:      now,
		AdditionalData: additionalData,
	})
	entry.session.LastVisit = now
	entry.session.VisitCount++
	entry.session.UpdatedAt = now

	return cloneSession(&entry.session), nil
}

func (s *MemorySessionStore) MarkDownloadClicked(ctx context.Context, sessionID, downloadURL string) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry, ok := s.get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now().UTC()
	entry.session.DownloadClicked = true
	entry.session.DownloadURL = downloadURL
	entry.session.DownloadTimestamp = &now
	entry.session.UpdatedAt = now

	return cloneSession(&entry.session), nil
}

func (s *MemorySessionStore) RefreshAttribution(ctx context.Context, sessionID string, fields AttributionFields) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry, ok := s.get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	changed := false
	apply := func(dst *string, incoming string) {
		if incoming != "" && incoming != *dst {
			*dst = incoming
			changed = true
		}
	}
	apply(&entry.session.Referrer, fields.Referrer)
	apply(&entry.session.UTMSource, fields.UTMSource)
	apply(&entry.session.UTMMedium, fields.UTMMedium)
	apply(&entry.session.UTMCampaign, fields.UTMCampaign)
	apply(&entry.session.UTMTerm, fields.UTMTerm)
	apply(&entry.session.UTMContent, fields.UTMContent)

	if changed {
		entry.session.UpdatedAt = time.Now().UTC()
	}

	return cloneSession(&entry.session), nil
}

// snapshot returns the current entries without holding the map lock during
// per-entry reads.
func (s *MemorySessionStore) snapshot() []*memorySession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]*memorySession, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, s.sessions[id])
	}
	return entries
}

func (s *MemorySessionStore) TotalVisits(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.sessions)), nil
}

func (s *MemorySessionStore) PlatformBreakdown(ctx context.Context) ([]models.PlatformCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, entry := range s.snapshot() {
		entry.mu.Lock()
		counts[entry.session.Platform]++
		entry.mu.Unlock()
	}

	results := make([]models.PlatformCount, 0, len(counts))
	for platform, count := range counts {
		results = append(results, models.PlatformCount{Platform: platform, Count: count})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Platform < results[j].Platform })
	return results, nil
}

func (s *MemorySessionStore) DownloadBreakdown(ctx context.Context) ([]models.DownloadCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counts := make(map[bool]int64)
	for _, entry := range s.snapshot() {
		entry.mu.Lock()
		counts[entry.session.DownloadClicked]++
		entry.mu.Unlock()
	}

	results := make([]models.DownloadCount, 0, len(counts))
	for clicked, count := range counts {
		results = append(results, models.DownloadCount{DownloadClicked: clicked, Count: count})
	}
	sort.Slice(results, func(i, j int) bool { return !results[i].DownloadClicked && results[j].DownloadClicked })
	return results, nil
}

func (s *MemorySessionStore) TopReferrers(ctx context.Context, limit int64) ([]models.ReferrerCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	counts := make(map[string]int64)
	for _, entry := range s.snapshot() {
		entry.mu.Lock()
		counts[entry.session.Referrer]++
		entry.mu.Unlock()
	}

	results := make([]models.ReferrerCount, 0, len(counts))
	for referrer, count := range counts {
		results = append(results, models.ReferrerCount{Referrer: referrer, Count: count})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Count != results[j].Count {
			return results[i].Count > results[j].Count
		}
		return results[i].Referrer < results[j].Referrer
	})

	if int64(len(results)) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *MemorySessionStore) ListSessions(ctx context.Context, page, limit int64) ([]models.Session, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	entries := s.snapshot()
	total := int64(len(entries))

	// Creation order ascending, listing is newest first.
	start := (page - 1) * limit
	sessions := []models.Session{}
	for i := total - 1 - start; i >= 0 && int64(len(sessions)) < limit; i-- {
		entry := entries[i]
		entry.mu.Lock()
		sessions = append(sessions, *cloneSession(&entry.session))
		entry.mu.Unlock()
	}

	return sessions, total, nil
}
