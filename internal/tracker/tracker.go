// Package tracker accumulates parsed output events into per-session counters
// and formats the progress messages sent to callers.
package tracker

import (
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/audio-extract-go/internal/domain"
)

// Snapshot is a copy of the tracker counters
type Snapshot struct {
	TrackCount     *int
	CompletedCount int
	CurrentTrack   string
}

// Tracker holds the counters of the running session
type Tracker struct {
	config domain.TrackerConfig

	mu             sync.Mutex
	trackCount     *int
	completedCount int
	currentTrack   string
}

// New creates a tracker. Zero values in config fall back to the defaults.
func New(config domain.TrackerConfig) *Tracker {
	defaults := domain.DefaultConfig().Tracker
	if config.BatchThreshold <= 0 {
		config.BatchThreshold = defaults.BatchThreshold
	}
	if config.SecondsPerItem <= 0 {
		config.SecondsPerItem = defaults.SecondsPerItem
	}
	return &Tracker{config: config}
}

// OnTrackCount records the number of items the backend reported. Only the
// first count of a session is kept; later ones yield no events.
func (t *Tracker) OnTrackCount(n int) []domain.ProgressEvent {
	t.mu.Lock()
	if t.trackCount != nil {
		t.mu.Unlock()
		return nil
	}
	count := n
	t.trackCount = &count
	t.mu.Unlock()

	events := []domain.ProgressEvent{{
		Kind:    domain.EventTrackCount,
		Message: fmt.Sprintf("Detected %d tracks", n),
		Total:   n,
	}}

	if n > t.config.BatchThreshold {
		estimate := time.Duration(n) * t.config.SecondsPerItem
		events = append(events,
			domain.ProgressEvent{
				Kind:    domain.EventAdvisory,
				Message: fmt.Sprintf("Large batch: estimated time about %s", formatDuration(estimate)),
				Total:   n,
			},
			domain.ProgressEvent{
				Kind:    domain.EventAdvisory,
				Message: "Tracks are processed one at a time, progress will appear as each one finishes",
				Total:   n,
			},
		)
	}

	return events
}

// OnStarted records the track currently downloading
func (t *Tracker) OnStarted(label string) domain.ProgressEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.currentTrack = label
	return domain.ProgressEvent{
		Kind:      domain.EventTrackStarted,
		Message:   fmt.Sprintf("Downloading: %s%s", t.ratio(t.completedCount+1), label),
		Track:     label,
		Completed: t.completedCount,
		Total:     t.total(),
	}
}

// OnCompleted counts a finished track. An empty label refers to the current track.
func (t *Tracker) OnCompleted(label string) domain.ProgressEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	if label == "" {
		label = t.currentTrack
	}
	t.completedCount++
	t.currentTrack = ""

	return domain.ProgressEvent{
		Kind:      domain.EventTrackFinished,
		Message:   fmt.Sprintf("✓ Finished: %s%s", t.ratio(t.completedCount), label),
		Track:     label,
		Completed: t.completedCount,
		Total:     t.total(),
	}
}

// Reset clears all counters
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.trackCount = nil
	t.completedCount = 0
	t.currentTrack = ""
}

// Snapshot returns a copy of the counters
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		CompletedCount: t.completedCount,
		CurrentTrack:   t.currentTrack,
	}
	if t.trackCount != nil {
		count := *t.trackCount
		snap.TrackCount = &count
	}
	return snap
}

// ratio formats "(i/n) " and is empty while the total is unknown
func (t *Tracker) ratio(i int) string {
	if t.trackCount == nil {
		return ""
	}
	return fmt.Sprintf("(%d/%d) ", i, *t.trackCount)
}

func (t *Tracker) total() int {
	if t.trackCount == nil {
		return 0
	}
	return *t.trackCount
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	minutes := int(d / time.Minute)
	seconds := int((d % time.Minute) / time.Second)
	if minutes == 0 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
