package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestGoRunsTask(t *testing.T) {
	s := NewSupervisor()
	var ran atomic.Bool

	s.Go(context.Background(), "once", func(_ context.Context) {
		ran.Store(true)
	})
	s.Wait()

	if !ran.Load() {
		t.Error("task never ran")
	}
}

func TestPanickedTaskRestarts(t *testing.T) {
	s := NewSupervisor()
	s.SetRestartDelay(time.Millisecond)

	var runs atomic.Int32
	done := make(chan struct{})

	s.Go(context.Background(), "flaky", func(_ context.Context) {
		if runs.Add(1) < 3 {
			panic("boom")
		}
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task was not restarted after panicking")
	}
	s.Wait()

	if got := runs.Load(); got != 3 {
		t.Errorf("runs = %d, want 3", got)
	}
}

func TestNoRestartAfterCancel(t *testing.T) {
	s := NewSupervisor()
	s.SetRestartDelay(time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32

	s.Go(ctx, "cancelled", func(_ context.Context) {
		runs.Add(1)
		cancel()
		panic("boom")
	})
	s.Wait()

	if got := runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1 (no restart after cancel)", got)
	}
}

func TestNormalReturnNotRestarted(t *testing.T) {
	s := NewSupervisor()
	s.SetRestartDelay(time.Millisecond)

	var runs atomic.Int32
	s.Go(context.Background(), "clean", func(_ context.Context) {
		runs.Add(1)
	})
	s.Wait()

	// Give a would-be restart a chance to fire.
	time.Sleep(10 * time.Millisecond)
	if got := runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}
}

func TestWaitBlocksUntilTasksExit(t *testing.T) {
	s := NewSupervisor()
	ctx, cancel := context.WithCancel(context.Background())

	s.Go(ctx, "loop", func(ctx context.Context) {
		<-ctx.Done()
	})

	waited := make(chan struct{})
	go func() {
		s.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("Wait returned while the task was still running")
	case <-time.After(10 * time.Millisecond):
	}

	cancel()
	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after cancellation")
	}
}
