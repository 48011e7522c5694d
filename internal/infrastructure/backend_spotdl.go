package infrastructure

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/audio-extract-go/internal/domain"
	"github.com/yourusername/audio-extract-go/internal/parser"
)

// SpotDLBackend implements domain.Backend for Spotify links downloaded with spotdl
type SpotDLBackend struct {
	config *domain.SpotifyConfig
	binary string
	ffmpeg string
}

// NewSpotDLBackend creates a spotdl descriptor. ffmpeg may be empty, in which
// case spotdl looks it up itself.
func NewSpotDLBackend(config *domain.SpotifyConfig, binary, ffmpeg string) *SpotDLBackend {
	return &SpotDLBackend{
		config: config,
		binary: binary,
		ffmpeg: ffmpeg,
	}
}

// Kind returns the backend this descriptor handles
func (b *SpotDLBackend) Kind() domain.BackendKind {
	return domain.BackendSpotify
}

// Binary returns the spotdl executable
func (b *SpotDLBackend) Binary() string {
	return b.binary
}

// Validate accepts open.spotify.com links and spotify: URIs
func (b *SpotDLBackend) Validate(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("%w: URL is required", domain.ErrMissingInput)
	}
	lower := strings.ToLower(url)
	if strings.Contains(lower, "spotify.com/") || strings.HasPrefix(lower, "spotify:") {
		return nil
	}
	return fmt.Errorf("%w: not a Spotify URL: %s", domain.ErrInvalidURL, url)
}

// BuildArgs builds the spotdl argument vector
func (b *SpotDLBackend) BuildArgs(url, outputDir string) []string {
	args := []string{
		"download", url,
		"--output", filepath.Join(outputDir, "{artists} - {title}.{output-ext}"),
		"--format", b.config.Format,
		"--bitrate", b.config.Bitrate,
		"--threads", strconv.Itoa(b.config.Threads),
		"--max-retries", strconv.Itoa(b.config.MaxRetries),
	}
	if b.ffmpeg != "" {
		args = append(args, "--ffmpeg", b.ffmpeg)
	}
	return args
}

// Rules returns the parser rules for spotdl output
func (b *SpotDLBackend) Rules() *parser.Rules {
	return parser.SpotDLRules
}

// Timeout returns the per-session time budget
func (b *SpotDLBackend) Timeout() time.Duration {
	return b.config.Timeout
}
