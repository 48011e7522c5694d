package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExecutable(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
}

func TestBundledToolPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("/bin-dir", "spotdl", "darwin-arm64", "spotdl"),
		BundledToolPath("/bin-dir", "spotdl", "darwin", "arm64"))
	assert.Equal(t,
		filepath.Join("/bin-dir", "yt-dlp", "windows-amd64", "yt-dlp.exe"),
		BundledToolPath("/bin-dir", "yt-dlp", "windows", "amd64"))
}

func TestResolveTool(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses shell scripts")
	}
	dir := t.TempDir()

	configured := filepath.Join(dir, "custom", "spotdl")
	writeExecutable(t, configured, "exit 0")

	bundled := BundledToolPath(filepath.Join(dir, "binaries"), "spotdl", runtime.GOOS, runtime.GOARCH)
	writeExecutable(t, bundled, "exit 0")

	t.Run("configured path wins", func(t *testing.T) {
		path, err := ResolveTool("spotdl", configured, filepath.Join(dir, "binaries"))
		require.NoError(t, err)
		assert.Equal(t, configured, path)
	})

	t.Run("bundled copy", func(t *testing.T) {
		path, err := ResolveTool("spotdl", "", filepath.Join(dir, "binaries"))
		require.NoError(t, err)
		assert.Equal(t, bundled, path)
	})

	t.Run("missing everywhere", func(t *testing.T) {
		_, err := ResolveTool("audio-extract-no-such-tool", filepath.Join(dir, "nope"), dir)
		var notFound *ToolNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Len(t, notFound.Tried, 3)
		assert.Contains(t, err.Error(), "audio-extract-no-such-tool not found")
	})
}

func TestCheckBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses shell scripts")
	}
	dir := t.TempDir()

	ok := filepath.Join(dir, "ok")
	writeExecutable(t, ok, `echo "spotdl 4.2.5"; echo "extra"`)
	version, err := CheckBinary(context.Background(), ok, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "spotdl 4.2.5", version)

	failing := filepath.Join(dir, "failing")
	writeExecutable(t, failing, "exit 2")
	_, err = CheckBinary(context.Background(), failing, 5*time.Second)
	assert.Error(t, err)

	slow := filepath.Join(dir, "slow")
	writeExecutable(t, slow, "exec sleep 10")
	_, err = CheckBinary(context.Background(), slow, 200*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")

	_, err = CheckBinary(context.Background(), filepath.Join(dir, "missing"), time.Second)
	assert.Error(t, err)
}
