package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidURL is returned when a URL does not match the backend's URL grammar
	ErrInvalidURL = errors.New("invalid URL")

	// ErrMissingInput is returned when a required argument is empty
	ErrMissingInput = errors.New("missing input")

	// ErrSessionActive is returned when a download is started while another one is running
	ErrSessionActive = errors.New("a download is already in progress")

	// ErrNoActiveProcess is returned when stopping while nothing is running
	ErrNoActiveProcess = errors.New("no active download process")

	// ErrTimeout is returned when a session exceeds its time budget
	ErrTimeout = errors.New("download timed out")

	// ErrUnknownBackend is returned for an unsupported backend name
	ErrUnknownBackend = errors.New("unknown backend")
)

// SpawnError is returned when the downloader executable cannot be started
type SpawnError struct {
	Binary string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Binary, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ProcessError is returned when the downloader exits with a non-zero code
type ProcessError struct {
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("download failed with exit code %d", e.ExitCode)
	}
	return msg
}

// PostProcessError is returned when the download itself succeeded but the
// bookkeeping afterwards (listing the output directory) failed.
type PostProcessError struct {
	Err error
}

func (e *PostProcessError) Error() string {
	return fmt.Sprintf("download completed but output files could not be listed: %v", e.Err)
}

func (e *PostProcessError) Unwrap() error {
	return e.Err
}
