package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/audio-extract-go/internal/domain"
)

// EnvPrefix is the prefix of environment overrides, e.g. AUDIOEXTRACT_SERVER_PORT
const EnvPrefix = "AUDIOEXTRACT"

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.audio-extract")
		v.AddConfigPath("/etc/audio-extract")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// bindEnvKeys registers every key so AutomaticEnv applies to Unmarshal even
// when no config file sets it
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"server.host", "server.port",
		"download.base_dir", "download.binaries_dir", "download.default_output_dir",
		"download.kill_grace", "download.version_timeout",
		"spotify.binary", "spotify.format", "spotify.bitrate", "spotify.threads",
		"spotify.max_retries", "spotify.timeout",
		"youtube.binary", "youtube.audio_format", "youtube.audio_quality",
		"youtube.retries", "youtube.timeout",
		"ffmpeg.binary",
		"tracker.batch_threshold", "tracker.seconds_per_item",
		"history.enabled", "history.database_path",
		"notification.enabled", "notification.sound", "notification.method",
		"logging.level", "logging.format", "logging.output_path",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) {
	config.Download.BaseDir = expandPath(config.Download.BaseDir)
	config.Download.BinariesDir = expandPath(config.Download.BinariesDir)
	config.Download.DefaultOutputDir = expandPath(config.Download.DefaultOutputDir)
	config.Spotify.Binary = expandPath(config.Spotify.Binary)
	config.YouTube.Binary = expandPath(config.YouTube.Binary)
	config.FFmpeg.Binary = expandPath(config.FFmpeg.Binary)
	config.History.DatabasePath = expandPath(config.History.DatabasePath)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}

	return os.Expand(path, func(key string) string {
		if key == "HOME" {
			if home, err := os.UserHomeDir(); err == nil {
				return home
			}
		}
		return os.Getenv(key)
	})
}

// validateConfig runs the struct tag checks plus cross-field rules
func validateConfig(config *domain.Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	if config.Download.KillGrace >= config.Spotify.Timeout || config.Download.KillGrace >= config.YouTube.Timeout {
		return fmt.Errorf("invalid configuration: kill_grace (%v) must be shorter than the download timeouts", config.Download.KillGrace)
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("server", config.Server)
	v.Set("download", config.Download)
	v.Set("spotify", config.Spotify)
	v.Set("youtube", config.YouTube)
	v.Set("ffmpeg", config.FFmpeg)
	v.Set("tracker", config.Tracker)
	v.Set("history", config.History)
	v.Set("notification", config.Notification)
	v.Set("logging", config.Logging)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
