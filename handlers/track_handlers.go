// api/handlers/track_handlers.go
package handlers

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"earlyjobs/api/models"
	"earlyjobs/api/store"
	"earlyjobs/api/utils"
)

type TrackingHandlers struct {
	Sessions store.SessionStore
}

func NewTrackingHandlers(s store.SessionStore) *TrackingHandlers {
	return &TrackingHandlers{
		Sessions: s,
	}
}

// respondStoreError maps a store failure to an HTTP response. A cancelled
// client (navigated away mid-request) is normal behavior and answered with
// 204, everything else is logged internally and reported generically.
func respondStoreError(c *gin.Context, op string, err error) {
	if errors.Is(err, context.Canceled) {
		c.Status(http.StatusNoContent)
		return
	}
	log.Printf("Error during %s: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to record tracking data"})
}

// Track resolves the session (find-or-create), then applies whatever the
// event carries: an interaction, a download click, an attribution refresh.
// The response always echoes the canonical sessionId; clients must persist
// it and resend it on every subsequent call, since an unknown identifier
// creates a brand-new session rather than failing.
func (h *TrackingHandlers) Track(c *gin.Context) {
	var req models.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = c.GetHeader("User-Agent")
	}

	platform := req.Platform
	if platform == "" {
		if userAgent == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "platform is required when no user agent is available"})
			return
		}
		platform = utils.DetectPlatform(userAgent)
	} else if !utils.IsValidPlatform(platform) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "platform must be one of android, ios or web"})
		return
	}

	// Client already gone before any write was issued: skip the mutation
	// entirely, this is not an error.
	if err := c.Request.Context().Err(); err != nil {
		c.Status(http.StatusNoContent)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	fields := store.CreationFields{
		UserID:        req.UserID,
		Platform:      platform,
		UserAgent:     userAgent,
		Referrer:      req.Referrer,
		UTMSource:     req.UTMSource,
		UTMMedium:     req.UTMMedium,
		UTMCampaign:   req.UTMCampaign,
		UTMTerm:       req.UTMTerm,
		UTMContent:    req.UTMContent,
		IPAddress:     utils.ClientIP(c.Request),
		InitialAction: req.Action,
		InitialData:   req.AdditionalData,
	}

	session, isNew, err := h.Sessions.Resolve(ctx, req.SessionID, fields)
	if err != nil {
		respondStoreError(c, "session resolve", err)
		return
	}

	if !isNew {
		// A brand-new session already carries the initial interaction and
		// attribution from its creation fields.
		if req.Action != "" {
			session, err = h.Sessions.AddInteraction(ctx, session.SessionID, req.Action, req.AdditionalData)
			if err != nil {
				respondStoreError(c, "interaction record", err)
				return
			}
		}

		if req.Referrer != "" || req.UTMSource != "" {
			session, err = h.Sessions.RefreshAttribution(ctx, session.SessionID, store.AttributionFields{
				Referrer:    req.Referrer,
				UTMSource:   req.UTMSource,
				UTMMedium:   req.UTMMedium,
				UTMCampaign: req.UTMCampaign,
				UTMTerm:     req.UTMTerm,
				UTMContent:  req.UTMContent,
			})
			if err != nil {
				respondStoreError(c, "attribution refresh", err)
				return
			}
		}
	}

	if req.DownloadURL != "" {
		session, err = h.Sessions.MarkDownloadClicked(ctx, session.SessionID, req.DownloadURL)
		if err != nil {
			respondStoreError(c, "download click record", err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      session,
		"sessionId": session.SessionID,
	})
}

// GetSession returns the session record by id. A miss is a plain 404; it
// never creates anything as a side effect.
func (h *TrackingHandlers) GetSession(c *gin.Context) {
	sessionID := c.Param("sessionId")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	session, err := h.Sessions.FindBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Marketing data not found"})
			return
		}
		log.Printf("Error fetching session %s: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to retrieve session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": session})
}

// GetAnalytics summarizes the full session collection: total sessions,
// platform and download breakdowns, top referrers.
func (h *TrackingHandlers) GetAnalytics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	totalVisits, err := h.Sessions.TotalVisits(ctx)
	if err != nil {
		log.Printf("Error getting total visits: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to retrieve analytics"})
		return
	}

	platformStats, err := h.Sessions.PlatformBreakdown(ctx)
	if err != nil {
		log.Printf("Error getting platform breakdown: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to retrieve analytics"})
		return
	}

	downloadStats, err := h.Sessions.DownloadBreakdown(ctx)
	if err != nil {
		log.Printf("Error getting download breakdown: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to retrieve analytics"})
		return
	}

	topReferrers, err := h.Sessions.TopReferrers(ctx, 10)
	if err != nil {
		log.Printf("Error getting top referrers: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to retrieve analytics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": models.AnalyticsSummary{
			TotalVisits:   totalVisits,
			PlatformStats: platformStats,
			DownloadStats: downloadStats,
			TopReferrers:  topReferrers,
		},
	})
}

// ListSessions returns sessions newest first with pagination metadata.
func (h *TrackingHandlers) ListSessions(c *gin.Context) {
	page := int64(1)
	if pageParam := c.Query("page"); pageParam != "" {
		parsed, err := strconv.ParseInt(pageParam, 10, 64)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid 'page' parameter. Must be a positive integer."})
			return
		}
		page = parsed
	}

	limit := int64(10)
	if limitParam := c.Query("limit"); limitParam != "" {
		parsed, err := strconv.ParseInt(limitParam, 10, 64)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid 'limit' parameter. Must be a positive integer."})
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	sessions, total, err := h.Sessions.ListSessions(ctx, page, limit)
	if err != nil {
		log.Printf("Error listing sessions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to retrieve sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    sessions,
		"pagination": models.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: int64(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

// GetDownloadURL classifies the caller and returns the matching store URL,
// so the landing page can render one download button for every visitor.
func (h *TrackingHandlers) GetDownloadURL(c *gin.Context) {
	platform := c.Query("platform")
	if platform == "" {
		platform = utils.DetectPlatform(c.GetHeader("User-Agent"))
	} else if !utils.IsValidPlatform(platform) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "platform must be one of android, ios or web"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"platform":    platform,
		"downloadUrl": utils.DownloadURLForPlatform(platform),
	})
}
