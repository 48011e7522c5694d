package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/audio-extract-go/internal/domain"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// SessionHandler serves the session history
type SessionHandler struct {
	service DownloadService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(service DownloadService) *SessionHandler {
	return &SessionHandler{service: service}
}

// ListSessions handles GET /api/v1/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	filters := make(map[string]interface{})

	if b := c.Query("backend"); b != "" {
		kind, err := domain.ParseBackend(b)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filters["backend"] = string(kind)
	}
	if outcome := c.Query("outcome"); outcome != "" {
		switch domain.Outcome(outcome) {
		case domain.OutcomeCompleted, domain.OutcomeStopped, domain.OutcomeFailed, domain.OutcomeTimedOut:
			filters["outcome"] = outcome
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid outcome"})
			return
		}
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	sessions, err := h.service.History(filters, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession handles GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.service.Session(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// GetStats handles GET /api/v1/sessions/stats
func (h *SessionHandler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
