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

// youtubeHosts are the URL fragments accepted by the yt-dlp backend
var youtubeHosts = []string{
	"youtube.com/",
	"youtu.be/",
	"music.youtube.com/",
	"youtube-nocookie.com/",
}

// YTDLPBackend implements domain.Backend for YouTube links downloaded with yt-dlp
type YTDLPBackend struct {
	config *domain.YouTubeConfig
	binary string
	ffmpeg string
}

// NewYTDLPBackend creates a yt-dlp descriptor
func NewYTDLPBackend(config *domain.YouTubeConfig, binary, ffmpeg string) *YTDLPBackend {
	return &YTDLPBackend{
		config: config,
		binary: binary,
		ffmpeg: ffmpeg,
	}
}

// Kind returns the backend this descriptor handles
func (b *YTDLPBackend) Kind() domain.BackendKind {
	return domain.BackendYouTube
}

// Binary returns the yt-dlp executable
func (b *YTDLPBackend) Binary() string {
	return b.binary
}

// Validate accepts youtube.com, youtu.be and YouTube Music links
func (b *YTDLPBackend) Validate(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("%w: URL is required", domain.ErrMissingInput)
	}
	lower := strings.ToLower(url)
	for _, host := range youtubeHosts {
		if strings.Contains(lower, host) {
			return nil
		}
	}
	return fmt.Errorf("%w: not a YouTube URL: %s", domain.ErrInvalidURL, url)
}

// BuildArgs builds the yt-dlp argument vector. --newline keeps one progress
// update per line so the percent parser sees whole lines.
func (b *YTDLPBackend) BuildArgs(url, outputDir string) []string {
	args := []string{
		"--extract-audio",
		"--audio-format", b.config.AudioFormat,
		"--audio-quality", b.config.AudioQuality,
		"--newline",
		"--yes-playlist",
		"--retries", strconv.Itoa(b.config.Retries),
		"-o", filepath.Join(outputDir, "%(title)s.%(ext)s"),
	}
	if b.ffmpeg != "" {
		args = append(args, "--ffmpeg-location", b.ffmpeg)
	}
	return append(args, url)
}

// Rules returns the parser rules for yt-dlp output
func (b *YTDLPBackend) Rules() *parser.Rules {
	return parser.YTDLPRules
}

// Timeout returns the per-session time budget
func (b *YTDLPBackend) Timeout() time.Duration {
	return b.config.Timeout
}
