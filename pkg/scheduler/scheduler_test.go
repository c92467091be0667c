package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func noop(ctx context.Context) error { return nil }

func TestTryEnqueue_SingleSlot(t *testing.T) {
	s := New(time.Hour, PolicyBlock)
	job := Job{Name: "pipeline", Run: noop}

	if !s.TryEnqueue(job) {
		t.Fatal("first enqueue should succeed")
	}
	if s.TryEnqueue(job) {
		t.Fatal("second enqueue should be refused while a run is pending")
	}
	if got := s.Status().Pending; got != 1 {
		t.Errorf("pending: got %d, want 1", got)
	}
}

func TestEnqueue_BlocksUntilSlotFrees(t *testing.T) {
	s := New(time.Hour, PolicyBlock)
	job := Job{Name: "pipeline", Run: noop}
	s.TryEnqueue(job)

	done := make(chan error, 1)
	go func() { done <- s.Enqueue(context.Background(), job) }()

	select {
	case <-done:
		t.Fatal("Enqueue returned while the slot was occupied")
	case <-time.After(50 * time.Millisecond):
	}

	<-s.queue
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Enqueue did not return after the slot freed")
	}
}

func TestEnqueue_ContextCancelled(t *testing.T) {
	s := New(time.Hour, PolicyBlock)
	s.TryEnqueue(Job{Name: "pipeline", Run: noop})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Enqueue(ctx, Job{Name: "pipeline", Run: noop}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTick_SkipPolicyDoesNotBlock(t *testing.T) {
	s := New(time.Hour, PolicySkip)
	job := Job{Name: "pipeline", Run: noop}
	s.TryEnqueue(job)

	returned := make(chan struct{})
	go func() {
		s.tick(context.Background(), job)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("tick blocked under skip policy")
	}
	if got := s.Status().Pending; got != 1 {
		t.Errorf("pending: got %d, want 1", got)
	}
}

func TestStart_InitialRunIsImmediate(t *testing.T) {
	s := New(time.Hour, PolicyBlock)
	ran := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		s.Start(ctx, Job{Name: "pipeline", Run: func(ctx context.Context) error {
			select {
			case ran <- struct{}{}:
			default:
			}
			return nil
		}})
		close(stopped)
	}()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("initial run did not start before the first interval")
	}
	cancel()
	<-stopped
}

func TestStart_RunsNeverOverlap(t *testing.T) {
	s := New(2*time.Millisecond, PolicyBlock)
	var active, maxActive, runs int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job := Job{Name: "pipeline", Run: func(ctx context.Context) error {
		n := atomic.AddInt32(&active, 1)
		for {
			m := atomic.LoadInt32(&maxActive)
			if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		if atomic.AddInt32(&runs, 1) >= 4 {
			cancel()
		}
		return nil
	}}

	done := make(chan struct{})
	go func() {
		s.Start(ctx, job)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}

	if got := atomic.LoadInt32(&maxActive); got != 1 {
		t.Errorf("max concurrent runs: got %d, want 1", got)
	}
	if got := s.Status().Runs; got < 4 {
		t.Errorf("runs: got %d, want >= 4", got)
	}
}

func TestStart_StartedRunIsNotCancelled(t *testing.T) {
	s := New(time.Hour, PolicyBlock)
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})
	var jobCtxErr atomic.Value

	go func() {
		<-started
		cancel()
		close(release)
	}()

	s.Start(ctx, Job{Name: "pipeline", Run: func(jobCtx context.Context) error {
		close(started)
		<-release
		if err := jobCtx.Err(); err != nil {
			jobCtxErr.Store(err)
		}
		return nil
	}})

	if v := jobCtxErr.Load(); v != nil {
		t.Errorf("run context was cancelled: %v", v)
	}
	if st := s.Status(); st.Runs != 1 || st.Running {
		t.Errorf("status after shutdown: %+v", st)
	}
}

func TestExecute_RecordsFailureAndRunID(t *testing.T) {
	s := New(time.Hour, PolicyBlock)
	var sawID atomic.Bool
	s.execute(context.Background(), Job{Name: "pipeline", Run: func(ctx context.Context) error {
		_, ok := RunID(ctx)
		sawID.Store(ok)
		return errors.New("folder unreadable")
	}})

	if !sawID.Load() {
		t.Error("run id missing from job context")
	}
	st := s.Status()
	if st.LastRun == nil || st.LastRun.Error != "folder unreadable" || st.LastRun.FinishedAt == nil {
		t.Errorf("last run: %+v", st.LastRun)
	}
}

func TestExecute_RecoversPanic(t *testing.T) {
	s := New(time.Hour, PolicyBlock)
	s.execute(context.Background(), Job{Name: "pipeline", Run: func(ctx context.Context) error {
		panic("boom")
	}})
	if st := s.Status(); st.LastRun == nil || st.LastRun.Error == "" {
		t.Errorf("panic not recorded: %+v", st.LastRun)
	}
}
