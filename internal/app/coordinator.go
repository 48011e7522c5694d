package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/yourusername/audio-extract-go/internal/domain"
	"github.com/yourusername/audio-extract-go/internal/infrastructure"
	"github.com/yourusername/audio-extract-go/internal/parser"
	"github.com/yourusername/audio-extract-go/internal/supervisor"
	"github.com/yourusername/audio-extract-go/internal/tracker"
	"github.com/yourusername/audio-extract-go/pkg/logger"
	"go.uber.org/zap"
)

// audioExtensions are the file types reported back after a successful download
var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".opus": true,
	".ogg":  true,
	".wav":  true,
	".aac":  true,
}

// CoordinatorDeps are the collaborators shared by every coordinator. Only
// Supervisor and Tracker are required.
type CoordinatorDeps struct {
	Supervisor  *supervisor.Supervisor
	Tracker     *tracker.Tracker
	Repo        domain.SessionRepository            // session history, optional
	Notifier    *infrastructure.NotificationService // optional
	EventLogger *logger.MultiLogger                 // optional
	LogsDir     string                              // raw session logs, empty disables
	Logger      *zap.Logger
}

// Coordinator runs download sessions for one backend
type Coordinator struct {
	backend domain.Backend
	deps    CoordinatorDeps
	logger  *zap.Logger
	current *currentSession
}

// NewCoordinator creates a coordinator for a backend descriptor
func NewCoordinator(backend domain.Backend, deps CoordinatorDeps) *Coordinator {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		backend: backend,
		deps:    deps,
		logger:  log.With(zap.String("backend", string(backend.Kind()))),
		current: &currentSession{},
	}
}

// Backend returns the descriptor this coordinator drives
func (c *Coordinator) Backend() domain.Backend {
	return c.backend
}

// Download validates the request, runs the backend to completion and maps
// the settlement to a result. A stop always yields a successful, stopped result.
func (c *Coordinator) Download(ctx context.Context, url, outputFolder string, sink domain.ProgressSink) (*domain.DownloadResult, error) {
	session, err := c.Prepare(url, outputFolder)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, session, sink)
}

// Prepare validates the input, fails fast when a session is active and
// creates the output directory. It returns the session to Execute.
func (c *Coordinator) Prepare(url, outputFolder string) (*domain.Session, error) {
	url = strings.TrimSpace(url)
	outputFolder = strings.TrimSpace(outputFolder)

	if err := c.backend.Validate(url); err != nil {
		return nil, err
	}
	if outputFolder == "" {
		return nil, fmt.Errorf("%w: output folder is required", domain.ErrMissingInput)
	}
	if c.deps.Supervisor.Busy() {
		return nil, domain.ErrSessionActive
	}

	dir, err := filepath.Abs(outputFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output folder: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output folder: %w", err)
	}

	return domain.NewSession(c.backend.Kind(), url, dir), nil
}

// Execute spawns the backend for a prepared session and blocks until it settles
func (c *Coordinator) Execute(ctx context.Context, session *domain.Session, sink domain.ProgressSink) (*domain.DownloadResult, error) {
	return c.execute(ctx, session, sink, nil)
}

// Start runs a prepared session in the background. It returns a copy of the
// running session once the backend is spawned, or the error that kept it from
// spawning (ErrSessionActive, SpawnError). The settlement is reported to sink.
func (c *Coordinator) Start(ctx context.Context, session *domain.Session, sink domain.ProgressSink) (*domain.Session, error) {
	spawned := make(chan domain.Session, 1)
	done := make(chan error, 1)

	go func() {
		_, err := c.execute(ctx, session, sink, spawned)
		if err != nil {
			c.logger.Info("Background download ended with error",
				zap.String("session_id", session.ID),
				zap.Error(err))
		}
		done <- err
	}()

	select {
	case running := <-spawned:
		return &running, nil
	case err := <-done:
		// onSpawn sends before the run can finish
		select {
		case running := <-spawned:
			return &running, nil
		default:
		}
		return nil, err
	}
}

func (c *Coordinator) execute(ctx context.Context, session *domain.Session, sink domain.ProgressSink, spawned chan<- domain.Session) (*domain.DownloadResult, error) {
	run := &sessionRun{
		coordinator: c,
		session:     session,
		sink:        sink,
		rules:       c.backend.Rules(),
		spawned:     spawned,
	}

	args := c.backend.BuildArgs(session.SourceURL, session.OutputDirectory)
	c.logger.Info("Starting download",
		zap.String("session_id", session.ID),
		zap.String("url", session.SourceURL),
		zap.String("output", session.OutputDirectory))

	if c.deps.LogsDir != "" {
		cmdLine := infrastructure.FormatCommandLine(c.backend.Binary(), args...)
		raw, err := infrastructure.OpenSessionLog(c.deps.LogsDir, session.ID, cmdLine)
		if err != nil {
			c.logger.Warn("Failed to open session log", zap.Error(err))
		}
		run.raw = raw
	}

	result, err := c.deps.Supervisor.Run(ctx, supervisor.Spec{
		Binary:   c.backend.Binary(),
		Args:     args,
		Dir:      session.OutputDirectory,
		Timeout:  c.backend.Timeout(),
		OnStdout: run.onStdout,
		OnStderr: run.onStderr,
		OnSpawn:  run.onSpawn,
		OnSettle: run.onSettle,
	})

	if errors.Is(err, domain.ErrSessionActive) {
		// lost the race for the slot after Prepare, nothing was spawned
		run.raw.Close("REJECTED", err.Error())
		return nil, err
	}

	return run.finish(result, err)
}

// sessionRun carries the per-call state of one Execute
type sessionRun struct {
	coordinator *Coordinator
	session     *domain.Session
	sink        domain.ProgressSink
	rules       *parser.Rules
	raw         *infrastructure.SessionLog
	spawned     chan<- domain.Session
}

func (r *sessionRun) emit(event domain.ProgressEvent) {
	if r.sink == nil {
		return
	}
	event.SessionID = r.session.ID
	event.Backend = r.session.Backend
	r.sink(event)
}

// onSpawn runs with the slot held and before any output is dispatched, so
// the tracker belongs to this session from here on
func (r *sessionRun) onSpawn(pid int) {
	c := r.coordinator

	c.deps.Tracker.Reset()
	r.session.MarkRunning()
	c.current.set(r.session)
	if r.spawned != nil {
		r.spawned <- *r.session
	}

	if c.deps.Repo != nil {
		if err := c.deps.Repo.Create(r.session); err != nil {
			c.logger.Warn("Failed to record session", zap.Error(err))
		}
	}
	if c.deps.EventLogger != nil {
		c.deps.EventLogger.LogSessionEvent("Session started",
			zap.String("session_id", r.session.ID),
			zap.String("backend", string(r.session.Backend)),
			zap.String("url", r.session.SourceURL),
			zap.Int("pid", pid))
	}
}

// onStdout classifies one line; unclassified lines pass through verbatim
func (r *sessionRun) onStdout(line string) {
	r.raw.Stdout(line)

	tr := r.coordinator.deps.Tracker
	events := r.rules.Classify(line)
	if len(events) == 0 {
		r.emit(domain.ProgressEvent{Kind: domain.EventMessage, Message: line})
		return
	}

	for _, event := range events {
		switch event.Type {
		case parser.EventTrackCount:
			for _, progress := range tr.OnTrackCount(event.Count) {
				r.emit(progress)
			}
		case parser.EventStarted:
			r.emit(tr.OnStarted(event.Label))
		case parser.EventCompleted:
			r.emit(tr.OnCompleted(event.Label))
		case parser.EventPercent:
			r.emit(domain.ProgressEvent{
				Kind:    domain.EventPercent,
				Message: line,
				Track:   tr.Snapshot().CurrentTrack,
				Percent: event.Percent,
			})
		}
	}
}

func (r *sessionRun) onStderr(text string) {
	r.raw.Stderr(text)
	r.emit(domain.ProgressEvent{Kind: domain.EventStderr, Message: text})
}

// onSettle copies the counters into the session and resets the tracker
// while the slot is still held
func (r *sessionRun) onSettle(*supervisor.Result, error) {
	c := r.coordinator
	snap := c.deps.Tracker.Snapshot()
	r.session.TrackCount = snap.TrackCount
	r.session.CompletedCount = snap.CompletedCount
	c.deps.Tracker.Reset()
	c.current.clear(r.session)
}

// finish maps a settlement to the caller's result and records it
func (r *sessionRun) finish(result *supervisor.Result, runErr error) (*domain.DownloadResult, error) {
	output := ""
	if result != nil {
		output = result.Output
		r.session.StopRequested = result.StopRequested
	}

	switch {
	case errors.Is(runErr, domain.ErrTimeout):
		err := fmt.Errorf("%w after %v", domain.ErrTimeout, r.coordinator.backend.Timeout())
		r.settle(domain.OutcomeTimedOut, err, nil)
		return nil, err

	case runErr != nil:
		r.settle(domain.OutcomeFailed, runErr, nil)
		return nil, runErr

	case result.StopRequested:
		r.settle(domain.OutcomeStopped, nil, nil)
		return &domain.DownloadResult{
			SessionID: r.session.ID,
			Success:   true,
			Stopped:   true,
			Files:     []string{},
			Output:    output,
		}, nil

	case result.ExitCode != 0:
		err := &domain.ProcessError{ExitCode: result.ExitCode, Stderr: result.ErrorOutput}
		r.settle(domain.OutcomeFailed, err, nil)
		return nil, err
	}

	files, err := listAudioFiles(r.session.OutputDirectory)
	if err != nil {
		postErr := &domain.PostProcessError{Err: err}
		r.settle(domain.OutcomeCompleted, postErr, nil)
		return nil, postErr
	}

	r.settle(domain.OutcomeCompleted, nil, files)
	return &domain.DownloadResult{
		SessionID: r.session.ID,
		Success:   true,
		Files:     files,
		Output:    output,
	}, nil
}

// settle records the outcome. Every step is best-effort.
func (r *sessionRun) settle(outcome domain.Outcome, err error, files []string) {
	c := r.coordinator
	r.session.Settle(outcome, err)
	r.session.SetFiles(files)

	fields := []zap.Field{
		zap.String("session_id", r.session.ID),
		zap.String("outcome", string(outcome)),
		zap.Int("completed", r.session.CompletedCount),
		zap.Int("files", len(files)),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
		c.logger.Warn("Download settled", fields...)
	} else {
		c.logger.Info("Download settled", fields...)
	}

	status, message := "SUCCESS", fmt.Sprintf("%d files", len(files))
	switch {
	case outcome == domain.OutcomeStopped:
		status, message = "STOPPED", "stopped by user"
	case err != nil:
		status, message = "FAILED", err.Error()
	}
	if closeErr := r.raw.Close(status, message); closeErr != nil {
		c.logger.Debug("Failed to close session log", zap.Error(closeErr))
	}

	if c.deps.Repo != nil {
		if repoErr := c.deps.Repo.Update(r.session); repoErr != nil {
			c.logger.Warn("Failed to save session", zap.Error(repoErr))
			if c.deps.EventLogger != nil {
				c.deps.EventLogger.LogAppError("Failed to save session",
					zap.String("session_id", r.session.ID), zap.Error(repoErr))
			}
		}
	}

	if c.deps.EventLogger != nil {
		c.deps.EventLogger.LogSessionEvent("Session settled", fields...)
		if err != nil && outcome != domain.OutcomeCompleted {
			c.deps.EventLogger.LogAppError("Download failed", fields...)
		}
	}

	if c.deps.Notifier != nil {
		c.deps.Notifier.NotifySessionSettled(r.session, len(files))
	}

	summary := fmt.Sprintf("Download %s", outcome)
	if err != nil {
		summary = fmt.Sprintf("Download %s: %v", outcome, err)
	}
	r.emit(domain.ProgressEvent{
		Kind:      domain.EventSettled,
		Message:   summary,
		Completed: r.session.CompletedCount,
		Outcome:   outcome,
	})
}

// listAudioFiles returns the audio files directly inside dir, sorted
func listAudioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if audioExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// currentSession is the session holding the supervisor slot, for status queries
type currentSession struct {
	mu      sync.RWMutex
	session *domain.Session
}

func (c *currentSession) set(s *domain.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

func (c *currentSession) clear(s *domain.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == s {
		c.session = nil
	}
}

func (c *currentSession) get() *domain.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}
