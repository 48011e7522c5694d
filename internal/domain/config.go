package domain

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`
	Download     DownloadConfig     `mapstructure:"download" yaml:"download"`
	Spotify      SpotifyConfig      `mapstructure:"spotify" yaml:"spotify"`
	YouTube      YouTubeConfig      `mapstructure:"youtube" yaml:"youtube"`
	FFmpeg       FFmpegConfig       `mapstructure:"ffmpeg" yaml:"ffmpeg"`
	Tracker      TrackerConfig      `mapstructure:"tracker" yaml:"tracker"`
	History      HistoryConfig      `mapstructure:"history" yaml:"history"`
	Notification NotificationConfig `mapstructure:"notification" yaml:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host" validate:"required"`
	Port int    `mapstructure:"port" yaml:"port" validate:"min=1,max=65535"`
}

// DownloadConfig contains settings shared by all backends
type DownloadConfig struct {
	BaseDir          string        `mapstructure:"base_dir" yaml:"base_dir" validate:"required"`
	BinariesDir      string        `mapstructure:"binaries_dir" yaml:"binaries_dir"`
	DefaultOutputDir string        `mapstructure:"default_output_dir" yaml:"default_output_dir"`
	KillGrace        time.Duration `mapstructure:"kill_grace" yaml:"kill_grace" validate:"gt=0"`
	VersionTimeout   time.Duration `mapstructure:"version_timeout" yaml:"version_timeout" validate:"gt=0"`
}

// LogsDir returns the directory for session and error logs
func (c DownloadConfig) LogsDir() string {
	return filepath.Join(c.BaseDir, "logs")
}

// OutputDir returns the default output directory for downloads
func (c DownloadConfig) OutputDir() string {
	if c.DefaultOutputDir != "" {
		return c.DefaultOutputDir
	}
	return filepath.Join(c.BaseDir, "music")
}

// SpotifyConfig contains spotdl-specific configuration
type SpotifyConfig struct {
	Binary     string        `mapstructure:"binary" yaml:"binary"`
	Format     string        `mapstructure:"format" yaml:"format" validate:"required"`
	Bitrate    string        `mapstructure:"bitrate" yaml:"bitrate" validate:"required"`
	Threads    int           `mapstructure:"threads" yaml:"threads" validate:"min=1"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries" validate:"min=0"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
}

// YouTubeConfig contains yt-dlp-specific configuration
type YouTubeConfig struct {
	Binary       string        `mapstructure:"binary" yaml:"binary"`
	AudioFormat  string        `mapstructure:"audio_format" yaml:"audio_format" validate:"required"`
	AudioQuality string        `mapstructure:"audio_quality" yaml:"audio_quality" validate:"required"`
	Retries      int           `mapstructure:"retries" yaml:"retries" validate:"min=0"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
}

// FFmpegConfig contains the media transcoding tool location
type FFmpegConfig struct {
	Binary string `mapstructure:"binary" yaml:"binary"` // empty: bundled binary, then system PATH
}

// TrackerConfig contains progress tracker tuning
type TrackerConfig struct {
	BatchThreshold int           `mapstructure:"batch_threshold" yaml:"batch_threshold" validate:"min=1"`
	SecondsPerItem time.Duration `mapstructure:"seconds_per_item" yaml:"seconds_per_item" validate:"gt=0"`
}

// HistoryConfig contains session history persistence settings
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	DatabasePath string `mapstructure:"database_path" yaml:"database_path" validate:"required_if=Enabled true"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Sound   bool   `mapstructure:"sound" yaml:"sound"`
	Method  string `mapstructure:"method" yaml:"method" validate:"omitempty,oneof=osascript notify-send"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=json console"`
	OutputPath string `mapstructure:"output_path" yaml:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Download: DownloadConfig{
			BaseDir:        "$HOME/.audio-extract",
			BinariesDir:    "$HOME/.audio-extract/binaries",
			KillGrace:      5 * time.Second,
			VersionTimeout: 10 * time.Second,
		},
		Spotify: SpotifyConfig{
			Format:     "mp3",
			Bitrate:    "320k",
			Threads:    1,
			MaxRetries: 3,
			Timeout:    30 * time.Minute,
		},
		YouTube: YouTubeConfig{
			AudioFormat:  "mp3",
			AudioQuality: "0",
			Retries:      3,
			Timeout:      30 * time.Minute,
		},
		Tracker: TrackerConfig{
			BatchThreshold: 50,
			SecondsPerItem: 3 * time.Second,
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "$HOME/.audio-extract/history.db",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Sound:   true,
			Method:  "osascript",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}

var configValidator = validator.New()

// Validate checks struct constraints on the configuration
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
