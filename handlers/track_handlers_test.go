package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earlyjobs/api/models"
	"earlyjobs/api/store"
)

type trackResponse struct {
	Success   bool           `json:"success"`
	Data      models.Session `json:"data"`
	SessionID string         `json:"sessionId"`
	Error     string         `json:"error"`
	Message   string         `json:"message"`
}

type analyticsResponse struct {
	Success bool                    `json:"success"`
	Data    models.AnalyticsSummary `json:"data"`
}

type listResponse struct {
	Success    bool              `json:"success"`
	Data       []models.Session  `json:"data"`
	Pagination models.Pagination `json:"pagination"`
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := NewTrackingHandlers(store.NewMemorySessionStore())

	r := gin.New()
	marketing := r.Group("/api/marketing")
	marketing.POST("/track", h.Track)
	marketing.GET("/session/:sessionId", h.GetSession)
	marketing.GET("/download-url", h.GetDownloadURL)
	marketing.GET("/analytics", h.GetAnalytics)
	marketing.GET("/all", h.ListSessions)

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:54321"

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeTrack(t *testing.T, w *httptest.ResponseRecorder) trackResponse {
	t.Helper()
	var resp trackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestTrackCreatesNewSession(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodPost, "/api/marketing/track", gin.H{
		"platform": "android",
		"action":   "page_visited",
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeTrack(t, w)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, resp.SessionID, resp.Data.SessionID)
	assert.Equal(t, models.PlatformAndroid, resp.Data.Platform)
	assert.Equal(t, int64(1), resp.Data.VisitCount)
	require.Len(t, resp.Data.Interactions, 1)
	assert.Equal(t, "page_visited", resp.Data.Interactions[0].Action)
	assert.Equal(t, "192.0.2.10", resp.Data.IPAddress)
}

func TestTrackSecondCallRecordsDownloadClick(t *testing.T) {
	r := newTestRouter()

	first := decodeTrack(t, doJSON(t, r, http.MethodPost, "/api/marketing/track", gin.H{
		"platform": "android",
		"action":   "page_visited",
	}))

	w := doJSON(t, r, http.MethodPost, "/api/marketing/track", gin.H{
		"sessionId":   first.SessionID,
		"platform":    "android",
		"action":      "download_clicked",
		"downloadUrl": "https://play.google.com/store/apps/details?id=com.victaman.earlyjobs",
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeTrack(t, w)
	assert.Equal(t, first.SessionID, resp.SessionID)
	assert.True(t, resp.Data.DownloadClicked)
	assert.Equal(t, "https://play.google.com/store/apps/details?id=com.victaman.earlyjobs", resp.Data.DownloadURL)
	require.NotNil(t, resp.Data.DownloadTimestamp)
	assert.Len(t, resp.Data.Interactions, 2)
	assert.Equal(t, int64(2), resp.Data.VisitCount)
}

func TestTrackUnknownSessionIDCreatesFreshSession(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodPost, "/api/marketing/track", gin.H{
		"sessionId": "ghost-123",
		"platform":  "web",
		"action":    "page_visited",
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeTrack(t, w)
	assert.NotEqual(t, "ghost-123", resp.SessionID, "stale client identifiers trigger creation, not adoption")

	// The ghost identifier must not have been created as a side effect.
	lookup := doJSON(t, r, http.MethodGet, "/api/marketing/session/ghost-123", nil)
	assert.Equal(t, http.StatusNotFound, lookup.Code)
}

func TestTrackRefreshesAttributionOnExistingSession(t *testing.T) {
	r := newTestRouter()

	first := decodeTrack(t, doJSON(t, r, http.MethodPost, "/api/marketing/track", gin.H{
		"platform":   "web",
		"referrer":   "google",
		"utm_source": "newsletter",
	}))

	w := doJSON(t, r, http.MethodPost, "/api/marketing/track", gin.H{
		"sessionId":    first.SessionID,
		"platform":     "web",
		"referrer":     "twitter",
		"utm_campaign": "launch",
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeTrack(t, w)
	assert.Equal(t, "twitter", resp.Data.Referrer)
	assert.Equal(t, "launch", resp.Data.UTMCampaign)
	assert.Equal(t, "newsletter", resp.Data.UTMSource, "empty incoming values keep stored attribution")
	assert.Equal(t, int64(1), resp.Data.VisitCount, "attribution refresh does not count as an interaction")
}

func TestTrackPlatformIsImmutable(t *testing.T) {
	r := newTestRouter()

	first := decodeTrack(t, doJSON(t, r, http.MethodPost, "/api/marketing/track", gin.H{
		"platform": "android",
	}))

	w := doJSON(t, r, http.MethodPost, "/api/marketing/track", gin.H{
		"sessionId": first.SessionID,
		"platform":  "ios",
		"action":    "page_visited",
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeTrack(t, w)
	assert.Equal(t, models.PlatformAndroid, resp.Data.Platform)
}

func TestTrackClassifiesPlatformFromUserAgent(t *testing.T) {
	r := newTestRouter()

	raw, err := json.Marshal(gin.H{"action": "page_visited"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/marketing/track", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 16_5 like Mac OS X) AppleWebKit/605.1.15")
	req.RemoteAddr = "192.0.2.10:54321"

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeTrack(t, w)
	assert.Equal(t, models.PlatformIOS, resp.Data.Platform)
}

func TestTrackValidation(t *testing.T) {
	r := newTestRouter()

	t.Run("invalid platform value", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/marketing/track", gin.H{"platform": "blackberry"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no platform and no user agent", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/marketing/track", gin.H{"action": "page_visited"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/marketing/track", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation failure leaves no record behind", func(t *testing.T) {
		analytics := doJSON(t, r, http.MethodGet, "/api/marketing/analytics", nil)
		require.Equal(t, http.StatusOK, analytics.Code)
		var resp analyticsResponse
		require.NoError(t, json.Unmarshal(analytics.Body.Bytes(), &resp))
		assert.Equal(t, int64(0), resp.Data.TotalVisits)
	})
}

func TestGetSessionNotFound(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodGet, "/api/marketing/session/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp trackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Marketing data not found", resp.Message)
}

func TestGetSessionReturnsRecord(t *testing.T) {
	r := newTestRouter()

	created := decodeTrack(t, doJSON(t, r, http.MethodPost, "/api/marketing/track", gin.H{
		"platform": "ios",
		"action":   "page_visited",
	}))

	w := doJSON(t, r, http.MethodGet, "/api/marketing/session/"+created.SessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeTrack(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, created.SessionID, resp.Data.SessionID)
	assert.Equal(t, models.PlatformIOS, resp.Data.Platform)
}

func TestGetAnalyticsSummary(t *testing.T) {
	r := newTestRouter()

	seed := []gin.H{
		{"platform": "android", "referrer": "google"},
		{"platform": "android", "referrer": "google"},
		{"platform": "ios", "referrer": "twitter", "downloadUrl": "https://apps.apple.com/app/id1"},
		{"platform": "web"},
	}
	for _, body := range seed {
		w := doJSON(t, r, http.MethodPost, "/api/marketing/track", body)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/marketing/analytics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp analyticsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(4), resp.Data.TotalVisits)

	var platformSum int64
	for _, p := range resp.Data.PlatformStats {
		platformSum += p.Count
	}
	assert.Equal(t, resp.Data.TotalVisits, platformSum)

	assert.Equal(t, []models.DownloadCount{
		{DownloadClicked: false, Count: 3},
		{DownloadClicked: true, Count: 1},
	}, resp.Data.DownloadStats)

	require.NotEmpty(t, resp.Data.TopReferrers)
	assert.Equal(t, models.ReferrerCount{Referrer: "google", Count: 2}, resp.Data.TopReferrers[0])
	assert.LessOrEqual(t, len(resp.Data.TopReferrers), 10)
}

func TestListSessionsPaginated(t *testing.T) {
	r := newTestRouter()

	for i := 0; i < 5; i++ {
		w := doJSON(t, r, http.MethodPost, "/api/marketing/track", gin.H{"platform": "web"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/marketing/all?page=2&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, models.Pagination{Page: 2, Limit: 2, Total: 5, Pages: 3}, resp.Pagination)

	t.Run("invalid page parameter", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/marketing/all?page=zero", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid limit parameter", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/marketing/all?limit=-3", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetDownloadURL(t *testing.T) {
	r := newTestRouter()

	t.Run("explicit platform", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/marketing/download-url?platform=android", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "android", resp["platform"])
		assert.Contains(t, resp["downloadUrl"], "play.google.com")
	})

	t.Run("classified from user agent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/marketing/download-url", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 16_5 like Mac OS X)")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ios", resp["platform"])
		assert.Contains(t, resp["downloadUrl"], "apps.apple.com")
	})

	t.Run("invalid platform rejected", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/marketing/download-url?platform=symbian", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestVisitCountAfterNSequentialTracks(t *testing.T) {
	r := newTestRouter()

	created := decodeTrack(t, doJSON(t, r, http.MethodPost, "/api/marketing/track", gin.H{
		"platform": "web",
		"action":   "page_visited",
	}))

	const n = 4
	var last trackResponse
	for i := 0; i < n; i++ {
		w := doJSON(t, r, http.MethodPost, "/api/marketing/track", gin.H{
			"sessionId": created.SessionID,
			"platform":  "web",
			"action":    fmt.Sprintf("scroll_%d", i),
		})
		require.Equal(t, http.StatusOK, w.Code)
		last = decodeTrack(t, w)
	}

	assert.Equal(t, int64(1+n), last.Data.VisitCount)
	assert.Len(t, last.Data.Interactions, 1+n)
}
