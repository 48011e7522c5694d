package main

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

const (
	serverBinaryName   = "audio-extract-server"
	serverStartTimeout = 10 * time.Second
	serverPollInterval = 200 * time.Millisecond
)

// isServerRunning checks if the server answers its health endpoint
func isServerRunning() bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// serverBinaryCandidates lists where the server binary may live, in lookup
// order: next to the CLI, then common install locations. PATH is checked
// separately.
func serverBinaryCandidates(execPath, home, goos string) []string {
	name := serverBinaryName
	if goos == "windows" {
		name += ".exe"
	}

	var candidates []string
	if execPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), name))
	}
	if goos != "windows" {
		candidates = append(candidates,
			filepath.Join("/usr/local/bin", name),
			filepath.Join("/usr/bin", name))
	}
	if home != "" {
		candidates = append(candidates,
			filepath.Join(home, "go", "bin", name),
			filepath.Join(home, ".local", "bin", name))
	}
	return candidates
}

// findServerBinary locates the server binary
func findServerBinary() (string, error) {
	execPath, _ := os.Executable()
	home, _ := os.UserHomeDir()
	candidates := serverBinaryCandidates(execPath, home, runtime.GOOS)

	// The directory of the CLI wins over PATH
	if len(candidates) > 0 && execPath != "" {
		if _, err := os.Stat(candidates[0]); err == nil {
			return candidates[0], nil
		}
		candidates = candidates[1:]
	}

	if path, err := exec.LookPath(serverBinaryName); err == nil {
		return path, nil
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%s binary not found", serverBinaryName)
}

// startServerBackground starts the server as a detached background process
func startServerBackground() error {
	serverPath, err := findServerBinary()
	if err != nil {
		return err
	}

	// The CLI detaches the child itself, so the server must not fork again
	cmd := exec.Command(serverPath, "-foreground")
	setSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	// Reap the child if it exits while the CLI is still running
	go cmd.Wait()

	return nil
}

// waitForServerReady polls the server until it answers or the timeout passes
func waitForServerReady() error {
	deadline := time.Now().Add(serverStartTimeout)

	for time.Now().Before(deadline) {
		if isServerRunning() {
			return nil
		}
		time.Sleep(serverPollInterval)
	}

	return fmt.Errorf("server did not start within %v", serverStartTimeout)
}

// ensureServerRunning checks if server is running, starts it if not
func ensureServerRunning() error {
	if isServerRunning() {
		return nil
	}

	fmt.Fprintln(os.Stderr, "Server not running, starting...")

	if err := startServerBackground(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	if err := waitForServerReady(); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "Server started successfully")
	return nil
}
