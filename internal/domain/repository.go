package domain

// SessionRepository defines the interface for session history persistence
type SessionRepository interface {
	// Create stores a new session
	Create(session *Session) error

	// Update updates an existing session
	Update(session *Session) error

	// FindByID finds a session by ID
	FindByID(id string) (*Session, error)

	// FindAll finds sessions with optional filters, newest first
	FindAll(filters map[string]interface{}, limit int) ([]*Session, error)

	// GetStats returns session statistics
	GetStats() (*SessionStats, error)
}

// SessionStats represents session history statistics
type SessionStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Stopped   int64 `json:"stopped"`
	Failed    int64 `json:"failed"`
	TimedOut  int64 `json:"timed_out"`
}
