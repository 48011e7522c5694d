package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/audio-extract-go/internal/domain"
)

// Version is reported by the health endpoint
var Version = "dev"

// HealthHandler handles health check requests
type HealthHandler struct {
	service DownloadService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service DownloadService) *HealthHandler {
	return &HealthHandler{
		service: service,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Session struct {
		State string `json:"state"`
	} `json:"session"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: Version,
	}
	response.Session.State = string(h.service.Status().State)

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready. The server is ready when at least one
// downloader executable answers.
func (h *HealthHandler) Ready(c *gin.Context) {
	backends := gin.H{}
	ready := false
	for _, kind := range []domain.BackendKind{domain.BackendSpotify, domain.BackendYouTube} {
		status, err := h.service.CheckBackendAvailable(c.Request.Context(), kind)
		available := err == nil && status.Available
		backends[string(kind)] = available
		ready = ready || available
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "not ready",
			"reason":   "no downloader executable available",
			"backends": backends,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready", "backends": backends})
}
