package app

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yourusername/audio-extract-go/internal/domain"
	"github.com/yourusername/audio-extract-go/internal/parser"
	"github.com/yourusername/audio-extract-go/internal/supervisor"
	"github.com/yourusername/audio-extract-go/internal/tracker"
)

// fakeBackend runs a shell script in place of a real downloader
type fakeBackend struct {
	kind    domain.BackendKind
	binary  string
	timeout time.Duration
	rules   *parser.Rules
}

func (b *fakeBackend) Kind() domain.BackendKind { return b.kind }
func (b *fakeBackend) Binary() string           { return b.binary }
func (b *fakeBackend) Rules() *parser.Rules     { return b.rules }
func (b *fakeBackend) Timeout() time.Duration   { return b.timeout }

func (b *fakeBackend) Validate(url string) error {
	if url == "" {
		return fmt.Errorf("%w: URL is required", domain.ErrMissingInput)
	}
	if !strings.HasPrefix(url, "fake://") {
		return fmt.Errorf("%w: %s", domain.ErrInvalidURL, url)
	}
	return nil
}

func (b *fakeBackend) BuildArgs(url, outputDir string) []string {
	return []string{url, outputDir}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake downloaders are shell scripts")
	}
	path := filepath.Join(t.TempDir(), "fake-downloader.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func newFakeBackend(kind domain.BackendKind, script string) *fakeBackend {
	rules := parser.SpotDLRules
	if kind == domain.BackendYouTube {
		rules = parser.YTDLPRules
	}
	return &fakeBackend{kind: kind, binary: script, timeout: 10 * time.Second, rules: rules}
}

func newTestCoordinatorDeps(repo domain.SessionRepository) CoordinatorDeps {
	return CoordinatorDeps{
		Supervisor: supervisor.New(supervisor.Config{KillGrace: 300 * time.Millisecond}, nil),
		Tracker:    tracker.New(domain.TrackerConfig{}),
		Repo:       repo,
	}
}

// eventRecorder is a ProgressSink that keeps every event
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.ProgressEvent
}

func (r *eventRecorder) sink(event domain.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Message)
	}
	return out
}

func (r *eventRecorder) ofKind(kind domain.EventKind) []domain.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ProgressEvent
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// mockSessionRepo implements domain.SessionRepository in memory
type mockSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	order    []string
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]domain.Session)}
}

func (m *mockSessionRepo) Create(session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[session.ID]; !ok {
		m.order = append(m.order, session.ID)
	}
	m.sessions[session.ID] = *session
	return nil
}

func (m *mockSessionRepo) Update(session *domain.Session) error {
	return m.Create(session)
}

func (m *mockSessionRepo) FindByID(id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	return &s, nil
}

func (m *mockSessionRepo) FindAll(filters map[string]interface{}, limit int) ([]*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Session
	for i := len(m.order) - 1; i >= 0; i-- {
		s := m.sessions[m.order[i]]
		if backend, ok := filters["backend"]; ok && backend != s.Backend {
			continue
		}
		out = append(out, &s)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockSessionRepo) GetStats() (*domain.SessionStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &domain.SessionStats{Total: int64(len(m.sessions))}
	for _, s := range m.sessions {
		if s.Outcome == domain.OutcomeCompleted {
			stats.Completed++
		}
	}
	return stats, nil
}
