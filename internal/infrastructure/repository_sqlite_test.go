package infrastructure

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/audio-extract-go/internal/domain"
)

func setupTestRepo(t *testing.T) *SQLiteSessionRepository {
	t.Helper()
	repo, err := NewSQLiteSessionRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func settledSession(backend domain.BackendKind, url string, outcome domain.Outcome, startedAt time.Time) *domain.Session {
	s := domain.NewSession(backend, url, "/music")
	s.StartedAt = startedAt
	s.State = domain.StateRunning
	s.Settle(outcome, nil)
	return s
}

func TestSessionRepository_CreateAndFind(t *testing.T) {
	repo := setupTestRepo(t)

	s := domain.NewSession(domain.BackendSpotify, "https://open.spotify.com/album/1", "/music")
	s.MarkRunning()
	require.NoError(t, repo.Create(s))

	count := 3
	s.TrackCount = &count
	s.CompletedCount = 3
	s.SetFiles([]string{"/music/a.mp3"})
	s.Settle(domain.OutcomeCompleted, nil)
	require.NoError(t, repo.Update(s))

	found, err := repo.FindByID(s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateSettled, found.State)
	assert.Equal(t, domain.OutcomeCompleted, found.Outcome)
	require.NotNil(t, found.TrackCount)
	assert.Equal(t, 3, *found.TrackCount)
	assert.Equal(t, []string{"/music/a.mp3"}, found.FileList())
	assert.NotNil(t, found.SettledAt)
}

func TestSessionRepository_FindByIDMissing(t *testing.T) {
	repo := setupTestRepo(t)

	found, err := repo.FindByID("does-not-exist")
	assert.Nil(t, found)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestSessionRepository_FindAll(t *testing.T) {
	repo := setupTestRepo(t)
	now := time.Now()

	older := settledSession(domain.BackendSpotify, "https://open.spotify.com/track/1", domain.OutcomeCompleted, now.Add(-2*time.Hour))
	newer := settledSession(domain.BackendYouTube, "https://youtu.be/a", domain.OutcomeFailed, now.Add(-time.Hour))
	newest := settledSession(domain.BackendSpotify, "https://open.spotify.com/track/2", domain.OutcomeStopped, now)
	for _, s := range []*domain.Session{older, newer, newest} {
		require.NoError(t, repo.Create(s))
	}

	all, err := repo.FindAll(nil, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, newest.ID, all[0].ID, "newest first")
	assert.Equal(t, older.ID, all[2].ID)

	limited, err := repo.FindAll(nil, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	spotify, err := repo.FindAll(map[string]interface{}{"backend": domain.BackendSpotify}, 0)
	require.NoError(t, err)
	assert.Len(t, spotify, 2)

	_, err = repo.FindAll(map[string]interface{}{"1=1; drop table sessions; --": 1}, 0)
	assert.Error(t, err)
}

func TestSessionRepository_GetStats(t *testing.T) {
	repo := setupTestRepo(t)
	now := time.Now()

	outcomes := []domain.Outcome{
		domain.OutcomeCompleted,
		domain.OutcomeCompleted,
		domain.OutcomeStopped,
		domain.OutcomeFailed,
		domain.OutcomeTimedOut,
	}
	for i, outcome := range outcomes {
		s := settledSession(domain.BackendYouTube, "https://youtu.be/x", outcome, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, repo.Create(s))
	}
	running := domain.NewSession(domain.BackendYouTube, "https://youtu.be/y", "/music")
	running.MarkRunning()
	require.NoError(t, repo.Create(running))

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.Total)
	assert.Equal(t, int64(2), stats.Completed)
	assert.Equal(t, int64(1), stats.Stopped)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.TimedOut)
}
