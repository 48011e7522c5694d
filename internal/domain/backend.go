package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/audio-extract-go/internal/parser"
)

// BackendKind identifies which external downloader drives a session
type BackendKind string

const (
	BackendSpotify BackendKind = "spotify" // spotdl
	BackendYouTube BackendKind = "youtube" // yt-dlp
)

// Backend describes one external downloader: how to validate its URLs,
// how to invoke it and how to read its output.
type Backend interface {
	// Kind returns the backend this descriptor handles
	Kind() BackendKind

	// Binary returns the resolved path of the downloader executable
	Binary() string

	// Validate validates if the backend can handle the given URL
	Validate(url string) error

	// BuildArgs builds the argument vector for downloading url into outputDir
	BuildArgs(url, outputDir string) []string

	// Rules returns the output parser rules for this backend's stdout
	Rules() *parser.Rules

	// Timeout returns the maximum run time of a single session
	Timeout() time.Duration
}

// ProgressSink receives progress events for a running session
type ProgressSink func(event ProgressEvent)

// ParseBackend converts a user supplied name into a BackendKind
func ParseBackend(name string) (BackendKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "spotify", "spotdl", "music":
		return BackendSpotify, nil
	case "youtube", "yt-dlp", "ytdlp":
		return BackendYouTube, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
}

// ValidateBackend checks if a backend kind is known
func ValidateBackend(kind BackendKind) bool {
	return kind == BackendSpotify || kind == BackendYouTube
}
