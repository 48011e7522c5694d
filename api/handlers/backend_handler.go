package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/audio-extract-go/internal/domain"
)

// BackendHandler reports downloader availability
type BackendHandler struct {
	service DownloadService
}

// NewBackendHandler creates a new backend handler
func NewBackendHandler(service DownloadService) *BackendHandler {
	return &BackendHandler{service: service}
}

// Check handles GET /api/v1/backends/:backend
func (h *BackendHandler) Check(c *gin.Context) {
	kind, err := domain.ParseBackend(c.Param("backend"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	status, err := h.service.CheckBackendAvailable(c.Request.Context(), kind)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// FolderHandler opens the native folder picker on the server host
type FolderHandler struct {
	service DownloadService
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(service DownloadService) *FolderHandler {
	return &FolderHandler{service: service}
}

// Select handles POST /api/v1/folder. A cancelled dialog yields an empty path.
func (h *FolderHandler) Select(c *gin.Context) {
	path, err := h.service.SelectOutputFolder(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"path":      path,
		"cancelled": path == "",
	})
}
