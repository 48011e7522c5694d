package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SessionState represents the lifecycle state of a download session
type SessionState string

const (
	StateIdle     SessionState = "idle"
	StateRunning  SessionState = "running"
	StateStopping SessionState = "stopping"
	StateSettled  SessionState = "settled"
)

// Outcome represents how a settled session terminated
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeStopped   Outcome = "stopped"
	OutcomeFailed    Outcome = "failed"
	OutcomeTimedOut  Outcome = "timed_out"
)

// Session represents a single download session driven by one backend
type Session struct {
	ID              string       `json:"id" gorm:"primaryKey"`
	Backend         BackendKind  `json:"backend" gorm:"not null;index"`
	SourceURL       string       `json:"source_url" gorm:"not null"`
	OutputDirectory string       `json:"output_directory" gorm:"not null"`
	State           SessionState `json:"state" gorm:"not null"`
	Outcome         Outcome      `json:"outcome,omitempty" gorm:"index"`
	TrackCount      *int         `json:"track_count,omitempty"`
	CompletedCount  int          `json:"completed_count" gorm:"default:0"`
	CurrentTrack    string       `json:"current_track,omitempty" gorm:"-"`
	StopRequested   bool         `json:"stop_requested" gorm:"default:false"`
	Files           string       `json:"files,omitempty" gorm:"type:text"` // JSON array of file paths
	ErrorMessage    string       `json:"error_message,omitempty" gorm:"type:text"`
	StartedAt       time.Time    `json:"started_at"`
	SettledAt       *time.Time   `json:"settled_at,omitempty"`
}

// NewSession creates a new session for the given backend
func NewSession(backend BackendKind, sourceURL, outputDirectory string) *Session {
	return &Session{
		ID:              uuid.New().String(),
		Backend:         backend,
		SourceURL:       sourceURL,
		OutputDirectory: outputDirectory,
		State:           StateIdle,
		StartedAt:       time.Now(),
	}
}

// MarkRunning marks the session as running
func (s *Session) MarkRunning() {
	s.State = StateRunning
	s.StartedAt = time.Now()
}

// Settle records the terminal outcome of the session. Settling twice is a no-op.
func (s *Session) Settle(outcome Outcome, err error) {
	if s.State == StateSettled {
		return
	}
	s.State = StateSettled
	s.Outcome = outcome
	if err != nil {
		s.ErrorMessage = tail(err.Error(), maxErrorMessage)
	}
	now := time.Now()
	s.SettledAt = &now
}

// IsSettled checks if the session reached its terminal state
func (s *Session) IsSettled() bool {
	return s.State == StateSettled
}

// SetFiles stores the output file list
func (s *Session) SetFiles(files []string) {
	if len(files) == 0 {
		s.Files = ""
		return
	}
	data, err := json.Marshal(files)
	if err != nil {
		return
	}
	s.Files = string(data)
}

// FileList returns the stored output file list
func (s *Session) FileList() []string {
	if s.Files == "" {
		return nil
	}
	var files []string
	if err := json.Unmarshal([]byte(s.Files), &files); err != nil {
		return nil
	}
	return files
}

// DownloadResult is the terminal result returned to the caller of a download
type DownloadResult struct {
	SessionID string   `json:"session_id"`
	Success   bool     `json:"success"`
	Stopped   bool     `json:"stopped,omitempty"`
	Files     []string `json:"files"`
	Output    string   `json:"output"`
}

// StopResult reports the outcome of a stop request
type StopResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SessionStatus describes the currently active session, if any
type SessionStatus struct {
	State          SessionState `json:"state"`
	SessionID      string       `json:"session_id,omitempty"`
	Backend        BackendKind  `json:"backend,omitempty"`
	TrackCount     *int         `json:"track_count,omitempty"`
	CompletedCount int          `json:"completed_count"`
	CurrentTrack   string       `json:"current_track,omitempty"`
}

const maxErrorMessage = 4096

// tail keeps the last n bytes of s
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
