package tracker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/audio-extract-go/internal/domain"
)

func newTestTracker() *Tracker {
	return New(domain.TrackerConfig{BatchThreshold: 50, SecondsPerItem: 3 * time.Second})
}

func TestTracker_TrackCount(t *testing.T) {
	tr := newTestTracker()

	events := tr.OnTrackCount(12)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTrackCount, events[0].Kind)
	assert.Equal(t, "Detected 12 tracks", events[0].Message)

	snap := tr.Snapshot()
	require.NotNil(t, snap.TrackCount)
	assert.Equal(t, 12, *snap.TrackCount)
}

func TestTracker_FirstCountWins(t *testing.T) {
	tr := newTestTracker()

	require.Len(t, tr.OnTrackCount(3), 1)
	assert.Empty(t, tr.OnTrackCount(120), "a later count announces nothing")

	snap := tr.Snapshot()
	require.NotNil(t, snap.TrackCount)
	assert.Equal(t, 3, *snap.TrackCount)
	assert.Equal(t, "Downloading: (1/3) Song", tr.OnStarted("Song").Message)

	tr.Reset()
	events := tr.OnTrackCount(120)
	require.Len(t, events, 3)
	assert.Equal(t, "Detected 120 tracks", events[0].Message)
}

func TestTracker_LargeBatchAdvisories(t *testing.T) {
	tr := newTestTracker()

	events := tr.OnTrackCount(50)
	assert.Len(t, events, 1, "threshold itself is not a large batch")

	tr.Reset()
	events = tr.OnTrackCount(100)
	require.Len(t, events, 3)
	assert.Equal(t, "Detected 100 tracks", events[0].Message)
	assert.Equal(t, domain.EventAdvisory, events[1].Kind)
	assert.Contains(t, events[1].Message, "5m 0s")
	assert.Equal(t, domain.EventAdvisory, events[2].Kind)
}

func TestTracker_StartAndFinish(t *testing.T) {
	tr := newTestTracker()
	tr.OnTrackCount(3)

	started := tr.OnStarted("Song A")
	assert.Equal(t, "Downloading: (1/3) Song A", started.Message)
	assert.Equal(t, "Song A", tr.Snapshot().CurrentTrack)

	finished := tr.OnCompleted("Song A")
	assert.Equal(t, "✓ Finished: (1/3) Song A", finished.Message)
	assert.Equal(t, 1, finished.Completed)
	assert.Equal(t, 3, finished.Total)

	snap := tr.Snapshot()
	assert.Equal(t, 1, snap.CompletedCount)
	assert.Empty(t, snap.CurrentTrack)
}

func TestTracker_UnknownTotal(t *testing.T) {
	tr := newTestTracker()

	assert.Equal(t, "Downloading: Song", tr.OnStarted("Song").Message)
	assert.Equal(t, "✓ Finished: Song", tr.OnCompleted("").Message, "empty label falls back to the current track")
}

func TestTracker_RatioIsNotAGate(t *testing.T) {
	tr := newTestTracker()
	tr.OnTrackCount(1)
	tr.OnCompleted("one")

	event := tr.OnCompleted("two")
	assert.Equal(t, "✓ Finished: (2/1) two", event.Message)
	assert.Equal(t, 2, tr.Snapshot().CompletedCount)
}

func TestTracker_Reset(t *testing.T) {
	tr := newTestTracker()
	tr.OnTrackCount(5)
	tr.OnStarted("x")
	tr.OnCompleted("x")
	tr.OnStarted("y")

	tr.Reset()

	assert.Equal(t, Snapshot{}, tr.Snapshot())
	assert.Equal(t, "Downloading: z", tr.OnStarted("z").Message)
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	tr := newTestTracker()
	tr.OnTrackCount(100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				tr.OnStarted("t")
				tr.OnCompleted("t")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				tr.Snapshot()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, tr.Snapshot().CompletedCount)
}

func TestNew_Defaults(t *testing.T) {
	tr := New(domain.TrackerConfig{})
	assert.Equal(t, 50, tr.config.BatchThreshold)
	assert.Equal(t, 3*time.Second, tr.config.SecondsPerItem)
}
