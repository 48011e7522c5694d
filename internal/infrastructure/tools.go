package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// ToolNotFoundError is returned when an executable cannot be located
type ToolNotFoundError struct {
	Name  string
	Tried []string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("%s not found (tried %s)", e.Name, strings.Join(e.Tried, ", "))
}

// ResolveTool locates an executable. An explicitly configured path wins, then
// the bundled copy under <binariesDir>/<name>/<GOOS>-<GOARCH>/, then PATH.
func ResolveTool(name, configured, binariesDir string) (string, error) {
	var tried []string

	if configured != "" {
		if fileExists(configured) {
			return configured, nil
		}
		// a bare name is looked up on PATH
		if !strings.ContainsRune(configured, filepath.Separator) {
			if path, err := exec.LookPath(configured); err == nil {
				return path, nil
			}
		}
		tried = append(tried, configured)
	}

	if binariesDir != "" {
		bundled := BundledToolPath(binariesDir, name, runtime.GOOS, runtime.GOARCH)
		if fileExists(bundled) {
			return bundled, nil
		}
		tried = append(tried, bundled)
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}
	tried = append(tried, "PATH")

	return "", &ToolNotFoundError{Name: name, Tried: tried}
}

// BundledToolPath returns where a bundled executable lives for an OS/arch pair
func BundledToolPath(binariesDir, name, goos, goarch string) string {
	file := name
	if goos == "windows" {
		file += ".exe"
	}
	return filepath.Join(binariesDir, name, goos+"-"+goarch, file)
}

// CheckBinary runs "<binary> --version" and succeeds only on a clean exit
// within the timeout. The first line of output is returned as the version.
func CheckBinary(ctx context.Context, binary string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, "--version")
	output, err := cmd.Output()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%s --version timed out after %v", binary, timeout)
	}
	if err != nil {
		return "", fmt.Errorf("%s --version failed: %w", binary, err)
	}

	version := strings.TrimSpace(string(output))
	if idx := strings.IndexByte(version, '\n'); idx >= 0 {
		version = strings.TrimSpace(version[:idx])
	}
	return version, nil
}

// fileExists checks if a regular file exists
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
