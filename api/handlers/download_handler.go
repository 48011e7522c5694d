package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/audio-extract-go/internal/domain"
	"go.uber.org/zap"
)

// DownloadHandler handles download-related HTTP requests
type DownloadHandler struct {
	service DownloadService
	logger  *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(service DownloadService, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		service: service,
		logger:  logger,
	}
}

// StartDownloadRequest represents a request to start a download
type StartDownloadRequest struct {
	URL          string `json:"url" binding:"required"`
	OutputFolder string `json:"output_folder,omitempty"`
}

// StartMusic handles POST /api/v1/downloads/music
func (h *DownloadHandler) StartMusic(c *gin.Context) {
	h.start(c, domain.BackendSpotify)
}

// StartYoutube handles POST /api/v1/downloads/youtube
func (h *DownloadHandler) StartYoutube(c *gin.Context) {
	h.start(c, domain.BackendYouTube)
}

func (h *DownloadHandler) start(c *gin.Context, kind domain.BackendKind) {
	var req StartDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.service.StartDownload(kind, req.URL, req.OutputFolder)
	if err != nil {
		h.logger.Warn("Failed to start download",
			zap.String("backend", string(kind)),
			zap.String("url", req.URL),
			zap.Error(err))
		abortWithError(c, err)
		return
	}

	h.logger.Info("Download started",
		zap.String("session_id", session.ID),
		zap.String("backend", string(kind)))
	c.JSON(http.StatusAccepted, session)
}

// Stop handles POST /api/v1/downloads/stop
func (h *DownloadHandler) Stop(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.StopDownload())
}

// Status handles GET /api/v1/downloads/status
func (h *DownloadHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Status())
}
