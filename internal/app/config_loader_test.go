package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9999
download:
  base_dir: `+dir+`
  default_output_dir: ~/Music/extract
  kill_grace: 2s
spotify:
  bitrate: 256k
  timeout: 45m
youtube:
  audio_format: opus
tracker:
  batch_threshold: 10
history:
  database_path: $HOME/history.db
`), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host, "defaults survive a partial file")
	assert.Equal(t, dir, config.Download.BaseDir)
	assert.Equal(t, filepath.Join(home, "Music/extract"), config.Download.DefaultOutputDir)
	assert.Equal(t, 2*time.Second, config.Download.KillGrace)
	assert.Equal(t, "256k", config.Spotify.Bitrate)
	assert.Equal(t, "mp3", config.Spotify.Format)
	assert.Equal(t, 45*time.Minute, config.Spotify.Timeout)
	assert.Equal(t, "opus", config.YouTube.AudioFormat)
	assert.Equal(t, 10, config.Tracker.BatchThreshold)
	assert.Equal(t, filepath.Join(home, "history.db"), config.History.DatabasePath)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0644))

	t.Setenv("AUDIOEXTRACT_SERVER_PORT", "9100")
	t.Setenv("AUDIOEXTRACT_SPOTIFY_THREADS", "4")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, config.Server.Port)
	assert.Equal(t, 4, config.Spotify.Threads)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad port", "server:\n  port: 70000\n"},
		{"bad notification method", "notification:\n  method: pager\n"},
		{"grace longer than timeout", "download:\n  kill_grace: 1h\n"},
		{"zero threads", "spotify:\n  threads: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "configs", "config.yaml")

	original, err := LoadConfig(writeMinimalConfig(t, dir))
	require.NoError(t, err)
	original.Spotify.Bitrate = "192k"
	original.Tracker.SecondsPerItem = 5 * time.Second

	require.NoError(t, SaveConfig(original, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "192k", loaded.Spotify.Bitrate)
	assert.Equal(t, 5*time.Second, loaded.Tracker.SecondsPerItem)
	assert.Equal(t, original.Download.BaseDir, loaded.Download.BaseDir)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("AUDIO_TEST_DIR", "/srv/audio")

	assert.Equal(t, "", expandPath(""))
	assert.Equal(t, filepath.Join(home, "x"), expandPath("~/x"))
	assert.Equal(t, home+"/y", expandPath("$HOME/y"))
	assert.Equal(t, "/srv/audio/z", expandPath("${AUDIO_TEST_DIR}/z"))
	assert.Equal(t, "/plain", expandPath("/plain"))
}

func writeMinimalConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("download:\n  base_dir: "+dir+"\n"), 0644))
	return path
}
