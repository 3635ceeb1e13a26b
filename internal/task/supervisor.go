package task

import (
	"context"
	"sync"
	"time"
)

// defaultRestartDelay is the pause before restarting a panicked task.
const defaultRestartDelay = 5 * time.Second

// Logger defines the logging interface used by the Supervisor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Supervisor runs background tasks with panic recovery and restart.
//
// All methods are safe for concurrent use.
type Supervisor struct {
	logger       Logger
	restartDelay time.Duration
	wg           sync.WaitGroup
}

// NewSupervisor creates a supervisor with the default restart delay.
func NewSupervisor() *Supervisor {
	return &Supervisor{
		logger:       noopLogger{},
		restartDelay: defaultRestartDelay,
	}
}

// SetLogger sets the logger for the supervisor.
func (s *Supervisor) SetLogger(logger Logger) {
	s.logger = logger
}

// SetRestartDelay overrides the pause before restarting a panicked task.
func (s *Supervisor) SetRestartDelay(d time.Duration) {
	s.restartDelay = d
}

// Go starts fn as a supervised goroutine.
//
// If fn panics, the panic is logged and fn is restarted after the
// restart delay, until ctx is cancelled. If fn returns normally the
// task is considered finished and is not restarted.
func (s *Supervisor) Go(ctx context.Context, name string, fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		for {
			if finished := s.runOnce(ctx, name, fn); finished {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(s.restartDelay):
				s.logger.Info("restarting task", "task", name)
			}
		}
	}()
}

// runOnce executes one incarnation of the task. Returns true when the
// task completed normally or the context is done, false after a panic.
func (s *Supervisor) runOnce(ctx context.Context, name string, fn func(ctx context.Context)) (finished bool) {
	defer func() {
		if r := recover(); r != nil {
			finished = false
			s.logger.Error("task panicked", "task", name, "panic", r)
		}
	}()

	if ctx.Err() != nil {
		return true
	}

	s.logger.Debug("task started", "task", name)
	fn(ctx)
	s.logger.Debug("task finished", "task", name)
	return true
}

// Wait blocks until every supervised task has returned. Call after
// cancelling the shared context during shutdown.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
