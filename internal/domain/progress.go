package domain

// EventKind classifies a progress event
type EventKind string

const (
	EventMessage       EventKind = "message"
	EventTrackCount    EventKind = "track_count"
	EventTrackStarted  EventKind = "track_started"
	EventTrackFinished EventKind = "track_finished"
	EventPercent       EventKind = "percent"
	EventStderr        EventKind = "stderr"
	EventAdvisory      EventKind = "advisory"
	EventSettled       EventKind = "settled"
)

// ProgressEvent is a single progress update delivered to a ProgressSink.
// Message always carries the human-readable line.
type ProgressEvent struct {
	Kind      EventKind   `json:"kind"`
	Message   string      `json:"message"`
	SessionID string      `json:"session_id,omitempty"`
	Backend   BackendKind `json:"backend,omitempty"`
	Track     string      `json:"track,omitempty"`
	Completed int         `json:"completed,omitempty"`
	Total     int         `json:"total,omitempty"`
	Percent   float64     `json:"percent,omitempty"`
	Outcome   Outcome     `json:"outcome,omitempty"`
}
