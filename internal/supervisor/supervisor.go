// Package supervisor runs at most one external downloader process at a time
// and settles every run exactly once.
package supervisor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yourusername/audio-extract-go/internal/domain"
	"github.com/yourusername/audio-extract-go/internal/parser"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const readBufferSize = 32 * 1024

// Config contains supervisor timing
type Config struct {
	KillGrace      time.Duration // between the graceful signal and the forced kill
	DefaultTimeout time.Duration // used when a Spec carries no timeout
}

// Spec describes one process run
type Spec struct {
	Binary  string
	Args    []string
	Dir     string
	Env     []string // appended to the current environment
	Timeout time.Duration

	OnStdout func(line string) // one call per complete, trimmed, non-empty line
	OnStderr func(text string) // one call per chunk, trimmed, non-empty
	OnSpawn  func(pid int)
	OnSettle func(result *Result, err error) // runs before the slot is released
}

// Result is the terminal state of a run
type Result struct {
	ExitCode      int
	Output        string
	ErrorOutput   string
	StopRequested bool
	Duration      time.Duration
}

// State is the externally visible supervisor state
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// Supervisor owns the single active-process slot
type Supervisor struct {
	config Config
	logger *zap.Logger

	mu     sync.Mutex
	active *process
}

// New creates a supervisor
func New(config Config, logger *zap.Logger) *Supervisor {
	if config.KillGrace <= 0 {
		config.KillGrace = 5 * time.Second
	}
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{config: config, logger: logger}
}

type settlement struct {
	result *Result
	err    error
}

// process is the record of one run; it never outlives its settlement in the slot
type process struct {
	spec      Spec
	startedAt time.Time

	mu  sync.Mutex
	cmd *exec.Cmd

	stopRequested atomic.Bool
	exited        chan struct{}

	cbMu    sync.Mutex
	settled bool

	bufMu  sync.Mutex
	output bytes.Buffer
	errout bytes.Buffer

	once   sync.Once
	timer  *time.Timer
	result chan settlement
}

// Busy reports whether a process currently holds the slot
func (s *Supervisor) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

// State returns idle, running or stopping
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.active == nil:
		return StateIdle
	case s.active.stopRequested.Load():
		return StateStopping
	default:
		return StateRunning
	}
}

// Run spawns the process described by spec and blocks until the run settles.
// It fails with domain.ErrSessionActive without spawning when the slot is taken.
// A non-zero exit is not an error here; callers inspect Result.ExitCode.
// Cancelling ctx has the same effect as Stop.
func (s *Supervisor) Run(ctx context.Context, spec Spec) (*Result, error) {
	p := &process{
		spec:   spec,
		exited: make(chan struct{}),
		result: make(chan settlement, 1),
	}

	s.mu.Lock()
	if s.active != nil {
		s.mu.Unlock()
		return nil, domain.ErrSessionActive
	}
	s.active = p
	s.mu.Unlock()

	if err := s.start(p); err != nil {
		s.logger.Error("Failed to spawn process",
			zap.String("binary", spec.Binary),
			zap.Error(err))
		s.settle(p, nil, &domain.SpawnError{Binary: spec.Binary, Err: err})
		out := <-p.result
		return out.result, out.err
	}

	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				s.logger.Info("Context cancelled, stopping process", zap.Error(ctx.Err()))
				s.stop(p)
			case <-p.exited:
			}
		}()
	}

	out := <-p.result
	return out.result, out.err
}

// start spawns the process, the stream pumps and the reaper
func (s *Supervisor) start(p *process) error {
	spec := p.spec
	cmd := exec.Command(spec.Binary, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	p.mu.Lock()
	if err := cmd.Start(); err != nil {
		p.mu.Unlock()
		return err
	}
	p.cmd = cmd
	p.startedAt = time.Now()
	p.mu.Unlock()

	s.logger.Info("Process started",
		zap.String("binary", spec.Binary),
		zap.Strings("args", spec.Args),
		zap.Int("pid", cmd.Process.Pid))

	if spec.OnSpawn != nil {
		spec.OnSpawn(cmd.Process.Pid)
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = s.config.DefaultTimeout
	}
	p.timer = time.AfterFunc(timeout, func() { s.onTimeout(p, timeout) })

	// a stop that arrived between slot acquisition and spawn
	if p.stopRequested.Load() {
		s.signal(p)
	}

	go s.reap(p, stdout, stderr)
	return nil
}

// reap pumps both streams to EOF, waits for the exit and settles
func (s *Supervisor) reap(p *process, stdout, stderr io.Reader) {
	var splitter parser.LineSplitter

	var g errgroup.Group
	g.Go(func() error {
		return pump(stdout, func(chunk []byte) {
			p.bufMu.Lock()
			p.output.Write(chunk)
			p.bufMu.Unlock()
			for _, line := range splitter.Write(chunk) {
				p.dispatchStdout(line)
			}
		})
	})
	g.Go(func() error {
		return pump(stderr, func(chunk []byte) {
			p.bufMu.Lock()
			p.errout.Write(chunk)
			p.bufMu.Unlock()
			if text := string(bytes.TrimSpace(chunk)); text != "" {
				p.dispatchStderr(text)
			}
		})
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("Stream read failed", zap.Error(err))
	}
	for _, line := range splitter.Flush() {
		p.dispatchStdout(line)
	}

	waitErr := p.cmd.Wait()
	close(p.exited)

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	s.logger.Info("Process exited",
		zap.Int("exit_code", exitCode),
		zap.Bool("stop_requested", p.stopRequested.Load()),
		zap.Duration("duration", time.Since(p.startedAt)))

	s.settle(p, p.snapshot(exitCode), nil)
}

func pump(r io.Reader, handle func([]byte)) error {
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			handle(buf[:n])
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Supervisor) onTimeout(p *process, timeout time.Duration) {
	select {
	case <-p.exited:
		return
	default:
	}

	s.logger.Warn("Process timed out, terminating", zap.Duration("timeout", timeout))
	s.signal(p)
	s.settle(p, p.snapshot(-1), domain.ErrTimeout)
}

// Stop requests graceful termination of the active process and schedules a
// forced kill after the grace window.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	p := s.active
	s.mu.Unlock()

	if p == nil {
		return domain.ErrNoActiveProcess
	}
	s.stop(p)
	return nil
}

func (s *Supervisor) stop(p *process) {
	if !p.stopRequested.CompareAndSwap(false, true) {
		return
	}
	s.logger.Info("Stop requested")
	s.signal(p)
}

// signal sends the graceful signal and arms the forced kill
func (s *Supervisor) signal(p *process) {
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return
	}

	if err := interruptProcess(cmd.Process); err != nil {
		s.logger.Debug("Interrupt failed", zap.Error(err))
	}

	time.AfterFunc(s.config.KillGrace, func() {
		select {
		case <-p.exited:
			return
		default:
		}
		s.logger.Warn("Process did not exit after grace period, killing",
			zap.Duration("grace", s.config.KillGrace))
		if err := killProcess(cmd.Process); err != nil {
			s.logger.Debug("Kill failed", zap.Error(err))
		}
	})
}

// settle is the single-use latch: the first caller wins, later calls are no-ops
func (s *Supervisor) settle(p *process, result *Result, err error) {
	p.once.Do(func() {
		if p.timer != nil {
			p.timer.Stop()
		}

		p.cbMu.Lock()
		p.settled = true
		p.cbMu.Unlock()

		if p.spec.OnSettle != nil {
			p.spec.OnSettle(result, err)
		}

		s.mu.Lock()
		if s.active == p {
			s.active = nil
		}
		s.mu.Unlock()

		p.result <- settlement{result: result, err: err}
	})
}

func (p *process) snapshot(exitCode int) *Result {
	p.bufMu.Lock()
	defer p.bufMu.Unlock()

	result := &Result{
		ExitCode:      exitCode,
		Output:        p.output.String(),
		ErrorOutput:   p.errout.String(),
		StopRequested: p.stopRequested.Load(),
	}
	if !p.startedAt.IsZero() {
		result.Duration = time.Since(p.startedAt)
	}
	return result
}

func (p *process) dispatchStdout(line string) {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	if p.settled || p.spec.OnStdout == nil {
		return
	}
	p.spec.OnStdout(line)
}

func (p *process) dispatchStderr(text string) {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	if p.settled || p.spec.OnStderr == nil {
		return
	}
	p.spec.OnStderr(text)
}
