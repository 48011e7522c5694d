package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/audio-extract-go/internal/domain"
	"github.com/yourusername/audio-extract-go/internal/infrastructure"
	"go.uber.org/zap"
)

type fakePicker struct {
	path string
	err  error
}

func (p *fakePicker) PickFolder(ctx context.Context, prompt string) (string, error) {
	return p.path, p.err
}

func newTestService(t *testing.T, spotifyScript, youtubeScript string, deps ServiceDeps) *Service {
	t.Helper()
	config := domain.DefaultConfig()
	config.Download.KillGrace = 300 * time.Millisecond
	config.Download.VersionTimeout = 2 * time.Second
	config.Download.DefaultOutputDir = filepath.Join(t.TempDir(), "default")

	backends := []domain.Backend{
		newFakeBackend(domain.BackendSpotify, spotifyScript),
		newFakeBackend(domain.BackendYouTube, youtubeScript),
	}
	return NewService(config, backends, deps)
}

func TestService_RejectsSecondSessionForEveryBackendPair(t *testing.T) {
	slow := writeScript(t, `
echo "Found 1 songs"
while true; do sleep 0.1; done`)

	pairs := []struct {
		name   string
		first  domain.BackendKind
		second domain.BackendKind
	}{
		{"spotify while spotify", domain.BackendSpotify, domain.BackendSpotify},
		{"youtube while spotify", domain.BackendSpotify, domain.BackendYouTube},
		{"spotify while youtube", domain.BackendYouTube, domain.BackendSpotify},
		{"youtube while youtube", domain.BackendYouTube, domain.BackendYouTube},
	}

	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, slow, slow, ServiceDeps{})

			session, err := s.StartDownload(tt.first, "fake://first", t.TempDir())
			require.NoError(t, err)
			require.Eventually(t, func() bool {
				return s.Status().SessionID == session.ID
			}, 5*time.Second, 20*time.Millisecond)

			status := s.Status()
			assert.Equal(t, domain.StateRunning, status.State)
			assert.Equal(t, tt.first, status.Backend)

			_, err = s.Download(context.Background(), tt.second, "fake://second", t.TempDir(), nil)
			assert.ErrorIs(t, err, domain.ErrSessionActive)

			_, err = s.StartDownload(tt.second, "fake://second", t.TempDir())
			assert.ErrorIs(t, err, domain.ErrSessionActive)

			result := s.StopDownload()
			assert.True(t, result.Success)
			require.Eventually(t, func() bool {
				return s.Status().State == domain.StateIdle
			}, 10*time.Second, 20*time.Millisecond)
		})
	}
}

func TestService_ConcurrentStartsConflictSynchronously(t *testing.T) {
	slow := writeScript(t, `while true; do sleep 0.1; done`)
	published := &eventRecorder{}
	s := newTestService(t, slow, slow, ServiceDeps{Publish: published.sink})

	const starts = 8
	var wg sync.WaitGroup
	sessions := make(chan *domain.Session, starts)
	errs := make(chan error, starts)
	for i := 0; i < starts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := s.StartDownload(domain.BackendSpotify, "fake://album", t.TempDir())
			if err != nil {
				errs <- err
				return
			}
			sessions <- session
		}()
	}
	wg.Wait()
	close(sessions)
	close(errs)

	require.Len(t, sessions, 1, "exactly one start wins the slot")
	winner := <-sessions
	assert.Equal(t, domain.StateRunning, winner.State)
	for err := range errs {
		assert.ErrorIs(t, err, domain.ErrSessionActive)
	}

	// the winner already holds the slot when StartDownload returns
	assert.Equal(t, winner.ID, s.Status().SessionID)

	require.True(t, s.StopDownload().Success)
	require.Eventually(t, func() bool {
		return s.Status().State == domain.StateIdle
	}, 10*time.Second, 20*time.Millisecond)
}

func TestService_StartDownloadSpawnFailure(t *testing.T) {
	published := &eventRecorder{}
	missing := filepath.Join(t.TempDir(), "no-such-downloader")
	s := newTestService(t, missing, missing, ServiceDeps{Publish: published.sink})

	session, err := s.StartDownload(domain.BackendYouTube, "fake://video", t.TempDir())
	assert.Nil(t, session)
	var spawnErr *domain.SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, missing, spawnErr.Binary)

	assert.Equal(t, domain.StateIdle, s.Status().State)
	settled := published.ofKind(domain.EventSettled)
	require.Len(t, settled, 1)
	assert.Equal(t, domain.OutcomeFailed, settled[0].Outcome)
}

func TestService_StopWithoutSession(t *testing.T) {
	s := newTestService(t, "/bin/true", "/bin/true", ServiceDeps{})

	result := s.StopDownload()
	assert.False(t, result.Success)
	assert.Equal(t, "No active download process", result.Message)
	assert.Equal(t, domain.SessionStatus{State: domain.StateIdle}, s.Status())
}

func TestService_DownloadMusicPublishes(t *testing.T) {
	script := writeScript(t, threeSongsScript)
	published := &eventRecorder{}
	caller := &eventRecorder{}
	repo := newMockSessionRepo()

	s := newTestService(t, script, script, ServiceDeps{Repo: repo, Publish: published.sink})

	result, err := s.DownloadMusic(context.Background(), "fake://album", "", caller.sink)
	require.NoError(t, err)
	assert.Len(t, result.Files, 3)
	assert.Equal(t, s.config.Download.DefaultOutputDir, filepath.Dir(result.Files[0]), "empty folder falls back to the default")

	assert.Equal(t, caller.messages(), published.messages())

	history, err := s.History(nil, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, result.SessionID, history[0].ID)

	session, err := s.Session(result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCompleted, session.Outcome)

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Completed)
}

func TestService_DownloadYoutubeInvalidURL(t *testing.T) {
	s := newTestService(t, "/bin/true", "/bin/true", ServiceDeps{})

	_, err := s.DownloadYoutube(context.Background(), "https://example.com", t.TempDir(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidURL)
}

func TestService_UnknownBackend(t *testing.T) {
	s := newTestService(t, "/bin/true", "/bin/true", ServiceDeps{})

	_, err := s.Download(context.Background(), "soundcloud", "fake://x", t.TempDir(), nil)
	assert.ErrorIs(t, err, domain.ErrUnknownBackend)

	_, err = s.CheckBackendAvailable(context.Background(), "soundcloud")
	assert.ErrorIs(t, err, domain.ErrUnknownBackend)
}

func TestService_CheckBackendAvailable(t *testing.T) {
	ok := writeScript(t, `echo "2024.08.06"`)
	broken := writeScript(t, `exit 1`)
	s := newTestService(t, ok, broken, ServiceDeps{})

	status, err := s.CheckBackendAvailable(context.Background(), domain.BackendSpotify)
	require.NoError(t, err)
	assert.True(t, status.Available)
	assert.Equal(t, "2024.08.06", status.Version)

	status, err = s.CheckBackendAvailable(context.Background(), domain.BackendYouTube)
	require.NoError(t, err)
	assert.False(t, status.Available)
	assert.NotEmpty(t, status.Error)
}

func TestService_SelectOutputFolder(t *testing.T) {
	s := newTestService(t, "/bin/true", "/bin/true", ServiceDeps{Picker: &fakePicker{path: "/music/picked"}})
	path, err := s.SelectOutputFolder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/music/picked", path)

	s = newTestService(t, "/bin/true", "/bin/true", ServiceDeps{Picker: &fakePicker{err: errors.New("no display")}})
	_, err = s.SelectOutputFolder(context.Background())
	assert.EqualError(t, err, "no display")

	s = newTestService(t, "/bin/true", "/bin/true", ServiceDeps{})
	_, err = s.SelectOutputFolder(context.Background())
	assert.ErrorIs(t, err, infrastructure.ErrPickerUnsupported)
}

func TestService_HistoryWithoutRepo(t *testing.T) {
	s := newTestService(t, "/bin/true", "/bin/true", ServiceDeps{})

	history, err := s.History(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = s.Session("x")
	assert.ErrorIs(t, err, infrastructure.ErrSessionNotFound)
}

func TestNewBackends(t *testing.T) {
	config := domain.DefaultConfig()
	config.Download.BinariesDir = t.TempDir()
	config.Spotify.Binary = "/definitely/missing/spotdl"

	backends := NewBackends(config, zap.NewNop())
	require.Len(t, backends, 2)
	assert.Equal(t, domain.BackendSpotify, backends[0].Kind())
	assert.NotEmpty(t, backends[0].Binary())
	assert.Equal(t, domain.BackendYouTube, backends[1].Kind())
}
