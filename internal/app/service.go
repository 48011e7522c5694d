package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/audio-extract-go/internal/domain"
	"github.com/yourusername/audio-extract-go/internal/infrastructure"
	"github.com/yourusername/audio-extract-go/internal/supervisor"
	"github.com/yourusername/audio-extract-go/internal/tracker"
	"github.com/yourusername/audio-extract-go/pkg/logger"
	"go.uber.org/zap"
)

// FolderPicker shows a native directory chooser. An empty path means the
// user cancelled.
type FolderPicker interface {
	PickFolder(ctx context.Context, prompt string) (string, error)
}

// BackendStatus reports whether a backend executable is usable
type BackendStatus struct {
	Backend   domain.BackendKind `json:"backend"`
	Available bool               `json:"available"`
	Binary    string             `json:"binary"`
	Version   string             `json:"version,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// ServiceDeps are the optional collaborators of the service
type ServiceDeps struct {
	Repo        domain.SessionRepository
	Notifier    *infrastructure.NotificationService
	EventLogger *logger.MultiLogger
	Picker      FolderPicker
	Publish     domain.ProgressSink // receives every event of asynchronous downloads
	Logger      *zap.Logger
}

// Service is the command surface over the coordinators. It owns the single
// supervisor and tracker every backend shares.
type Service struct {
	config       *domain.Config
	supervisor   *supervisor.Supervisor
	tracker      *tracker.Tracker
	coordinators map[domain.BackendKind]*Coordinator
	current      *currentSession
	deps         ServiceDeps
	logger       *zap.Logger
}

// NewService creates a service for the given backends
func NewService(config *domain.Config, backends []domain.Backend, deps ServiceDeps) *Service {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Service{
		config: config,
		supervisor: supervisor.New(supervisor.Config{
			KillGrace:      config.Download.KillGrace,
			DefaultTimeout: config.Spotify.Timeout,
		}, log.Named("supervisor")),
		tracker:      tracker.New(config.Tracker),
		coordinators: make(map[domain.BackendKind]*Coordinator),
		current:      &currentSession{},
		deps:         deps,
		logger:       log,
	}

	logsDir := ""
	if deps.EventLogger != nil {
		logsDir = deps.EventLogger.LogsDir()
	}

	for _, backend := range backends {
		c := NewCoordinator(backend, CoordinatorDeps{
			Supervisor:  s.supervisor,
			Tracker:     s.tracker,
			Repo:        deps.Repo,
			Notifier:    deps.Notifier,
			EventLogger: deps.EventLogger,
			LogsDir:     logsDir,
			Logger:      log,
		})
		c.current = s.current
		s.coordinators[backend.Kind()] = c
	}

	return s
}

// NewBackends resolves the downloader executables and builds both descriptors.
// An executable that cannot be found is kept by name so that availability
// checks and spawn errors report it.
func NewBackends(config *domain.Config, log *zap.Logger) []domain.Backend {
	binariesDir := config.Download.BinariesDir
	resolve := func(name, configured string) string {
		path, err := infrastructure.ResolveTool(name, configured, binariesDir)
		if err != nil {
			log.Warn("Executable not found", zap.String("tool", name), zap.Error(err))
			if configured != "" {
				return configured
			}
			return name
		}
		return path
	}

	ffmpeg, err := infrastructure.ResolveTool("ffmpeg", config.FFmpeg.Binary, binariesDir)
	if err != nil {
		log.Warn("ffmpeg not found, backends will look it up themselves", zap.Error(err))
		ffmpeg = ""
	}

	return []domain.Backend{
		infrastructure.NewSpotDLBackend(&config.Spotify, resolve("spotdl", config.Spotify.Binary), ffmpeg),
		infrastructure.NewYTDLPBackend(&config.YouTube, resolve("yt-dlp", config.YouTube.Binary), ffmpeg),
	}
}

// Coordinator returns the coordinator of a backend
func (s *Service) Coordinator(kind domain.BackendKind) (*Coordinator, error) {
	c, ok := s.coordinators[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownBackend, kind)
	}
	return c, nil
}

// DownloadMusic downloads a Spotify link with spotdl and blocks until it settles
func (s *Service) DownloadMusic(ctx context.Context, url, outputFolder string, sink domain.ProgressSink) (*domain.DownloadResult, error) {
	return s.Download(ctx, domain.BackendSpotify, url, outputFolder, sink)
}

// DownloadYoutube downloads a YouTube link with yt-dlp and blocks until it settles
func (s *Service) DownloadYoutube(ctx context.Context, url, outputFolder string, sink domain.ProgressSink) (*domain.DownloadResult, error) {
	return s.Download(ctx, domain.BackendYouTube, url, outputFolder, sink)
}

// Download runs a download on the given backend and blocks until it settles
func (s *Service) Download(ctx context.Context, kind domain.BackendKind, url, outputFolder string, sink domain.ProgressSink) (*domain.DownloadResult, error) {
	c, err := s.Coordinator(kind)
	if err != nil {
		return nil, err
	}
	return c.Download(ctx, url, s.outputFolder(outputFolder), s.fanOut(sink))
}

// StartDownload validates and prepares a session, then runs it in the
// background. It returns once the backend process holds the session slot, so
// a conflicting start fails here with ErrSessionActive. Progress goes to the
// Publish sink.
func (s *Service) StartDownload(kind domain.BackendKind, url, outputFolder string) (*domain.Session, error) {
	c, err := s.Coordinator(kind)
	if err != nil {
		return nil, err
	}

	session, err := c.Prepare(url, s.outputFolder(outputFolder))
	if err != nil {
		return nil, err
	}

	return c.Start(context.Background(), session, s.fanOut(nil))
}

// StopDownload stops the active download. Having nothing to stop is reported
// in the result, not as an error.
func (s *Service) StopDownload() domain.StopResult {
	if err := s.supervisor.Stop(); err != nil {
		if errors.Is(err, domain.ErrNoActiveProcess) {
			return domain.StopResult{Success: false, Message: "No active download process"}
		}
		return domain.StopResult{Success: false, Message: err.Error()}
	}
	return domain.StopResult{Success: true, Message: "Stop signal sent"}
}

// CheckBackendAvailable runs the backend executable with --version
func (s *Service) CheckBackendAvailable(ctx context.Context, kind domain.BackendKind) (*BackendStatus, error) {
	c, err := s.Coordinator(kind)
	if err != nil {
		return nil, err
	}

	binary := c.Backend().Binary()
	status := &BackendStatus{Backend: kind, Binary: binary}

	version, err := infrastructure.CheckBinary(ctx, binary, s.config.Download.VersionTimeout)
	if err != nil {
		status.Error = err.Error()
		return status, nil
	}
	status.Available = true
	status.Version = version
	return status, nil
}

// SelectOutputFolder asks the user for a directory
func (s *Service) SelectOutputFolder(ctx context.Context) (string, error) {
	if s.deps.Picker == nil {
		return "", infrastructure.ErrPickerUnsupported
	}
	return s.deps.Picker.PickFolder(ctx, "Select output folder")
}

// Status describes the active session, if any
func (s *Service) Status() domain.SessionStatus {
	state := s.supervisor.State()
	if state == supervisor.StateIdle {
		return domain.SessionStatus{State: domain.StateIdle}
	}

	status := domain.SessionStatus{State: domain.StateRunning}
	if state == supervisor.StateStopping {
		status.State = domain.StateStopping
	}

	snap := s.tracker.Snapshot()
	status.TrackCount = snap.TrackCount
	status.CompletedCount = snap.CompletedCount
	status.CurrentTrack = snap.CurrentTrack

	if session := s.current.get(); session != nil {
		status.SessionID = session.ID
		status.Backend = session.Backend
	}
	return status
}

// History lists recorded sessions, newest first
func (s *Service) History(filters map[string]interface{}, limit int) ([]*domain.Session, error) {
	if s.deps.Repo == nil {
		return []*domain.Session{}, nil
	}
	return s.deps.Repo.FindAll(filters, limit)
}

// Session returns one recorded session
func (s *Service) Session(id string) (*domain.Session, error) {
	if s.deps.Repo == nil {
		return nil, fmt.Errorf("%w: %s", infrastructure.ErrSessionNotFound, id)
	}
	return s.deps.Repo.FindByID(id)
}

// Stats returns outcome counts over the history
func (s *Service) Stats() (*domain.SessionStats, error) {
	if s.deps.Repo == nil {
		return &domain.SessionStats{}, nil
	}
	return s.deps.Repo.GetStats()
}

func (s *Service) outputFolder(folder string) string {
	if folder == "" {
		return s.config.Download.OutputDir()
	}
	return folder
}

// fanOut delivers events to the caller's sink and the Publish sink
func (s *Service) fanOut(sink domain.ProgressSink) domain.ProgressSink {
	publish := s.deps.Publish
	switch {
	case sink == nil:
		return publish
	case publish == nil:
		return sink
	}
	return func(event domain.ProgressEvent) {
		sink(event)
		publish(event)
	}
}
