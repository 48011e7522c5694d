package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/audio-extract-go/internal/app"
	"github.com/yourusername/audio-extract-go/internal/domain"
	"github.com/yourusername/audio-extract-go/internal/infrastructure"
)

// DownloadService is the part of app.Service the HTTP layer drives
type DownloadService interface {
	StartDownload(kind domain.BackendKind, url, outputFolder string) (*domain.Session, error)
	StopDownload() domain.StopResult
	Status() domain.SessionStatus
	CheckBackendAvailable(ctx context.Context, kind domain.BackendKind) (*app.BackendStatus, error)
	SelectOutputFolder(ctx context.Context) (string, error)
	History(filters map[string]interface{}, limit int) ([]*domain.Session, error)
	Session(id string) (*domain.Session, error)
	Stats() (*domain.SessionStats, error)
}

var _ DownloadService = (*app.Service)(nil)

// errorStatus maps a service error onto an HTTP status code
func errorStatus(err error) int {
	var spawnErr *domain.SpawnError
	switch {
	case errors.Is(err, domain.ErrInvalidURL), errors.Is(err, domain.ErrMissingInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionActive):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownBackend), errors.Is(err, infrastructure.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, infrastructure.ErrPickerUnsupported):
		return http.StatusNotImplemented
	case errors.As(err, &spawnErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(errorStatus(err), gin.H{"error": err.Error()})
}
