// Package scheduler runs jobs one at a time from a single-slot queue that is
// fed by a periodic trigger.
//
// The queue holds at most one pending job. The worker removes a job from the
// slot when it starts it, so while a run is executing one more run can be
// pending. With PolicyBlock a tick that finds the slot occupied blocks until
// the worker picks the pending job up; the ticker drops ticks while blocked,
// so a slow run delays or skips later triggers instead of stacking them.
// PolicySkip logs and discards that tick instead. In both cases two jobs never
// execute concurrently.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Policy string

const (
	PolicyBlock Policy = "block"
	PolicySkip  Policy = "skip"
)

type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

type RunInfo struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

type Status struct {
	Running bool     `json:"running"`
	Pending int      `json:"pending"`
	Runs    int      `json:"runs"`
	LastRun *RunInfo `json:"last_run,omitempty"`
}

type Scheduler struct {
	queue    chan Job
	interval time.Duration
	policy   Policy

	mu     sync.Mutex
	status Status
}

type runIDKey struct{}

// RunID returns the id of the run executing with ctx.
func RunID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(runIDKey{}).(uuid.UUID)
	return id, ok
}

func New(interval time.Duration, policy Policy) *Scheduler {
	if policy == "" {
		policy = PolicyBlock
	}
	return &Scheduler{
		queue:    make(chan Job, 1),
		interval: interval,
		policy:   policy,
	}
}

// Enqueue places job in the pending slot, blocking while it is occupied.
func (s *Scheduler) Enqueue(ctx context.Context, job Job) error {
	select {
	case s.queue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryEnqueue places job in the pending slot if it is free.
func (s *Scheduler) TryEnqueue(job Job) bool {
	select {
	case s.queue <- job:
		return true
	default:
		return false
	}
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	if st.LastRun != nil {
		last := *st.LastRun
		st.LastRun = &last
	}
	st.Pending = len(s.queue)
	return st
}

// Start enqueues job immediately, then re-enqueues it every interval while a
// single worker drains the queue. It returns once ctx is done and the run in
// progress, if any, has finished.
func (s *Scheduler) Start(ctx context.Context, job Job) {
	if err := s.Enqueue(ctx, job); err != nil {
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.Work(ctx)
	}()
	go func() {
		defer wg.Done()
		s.trigger(ctx, job)
	}()
	wg.Wait()
	zerolog.Ctx(ctx).Info().Msg("scheduler stopped")
}

// Work executes queued jobs sequentially until ctx is done. A started job
// runs to completion: it receives a context that is never cancelled.
func (s *Scheduler) Work(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case job := <-s.queue:
			s.execute(context.WithoutCancel(ctx), job)
		}
	}
}

func (s *Scheduler) trigger(ctx context.Context, job Job) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, job)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, job Job) {
	log := zerolog.Ctx(ctx)
	if s.policy == PolicySkip {
		if !s.TryEnqueue(job) {
			log.Warn().Str("job", job.Name).Msg("run already pending, skipping trigger")
		}
		return
	}

	if s.TryEnqueue(job) {
		return
	}
	log.Warn().Str("job", job.Name).Msg("run already pending, waiting for the slot")
	if err := s.Enqueue(ctx, job); err != nil {
		log.Info().Err(err).Str("job", job.Name).Msg("pending trigger dropped")
	}
}

func (s *Scheduler) execute(ctx context.Context, job Job) {
	id := uuid.New()
	logger := zerolog.Ctx(ctx).With().Str("run_id", id.String()).Str("job", job.Name).Logger()
	ctx = context.WithValue(logger.WithContext(ctx), runIDKey{}, id)

	info := RunInfo{ID: id, Name: job.Name, StartedAt: time.Now()}
	s.mu.Lock()
	s.status.Running = true
	s.status.LastRun = &info
	s.mu.Unlock()

	logger.Info().Msg("run started")
	err := runSafely(ctx, job)

	finished := time.Now()
	s.mu.Lock()
	s.status.Running = false
	s.status.Runs++
	s.status.LastRun.FinishedAt = &finished
	if err != nil {
		s.status.LastRun.Error = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		logger.Error().Err(err).Dur("elapsed", finished.Sub(info.StartedAt)).Msg("run failed")
		return
	}
	logger.Info().Dur("elapsed", finished.Sub(info.StartedAt)).Msg("run completed")
}

func runSafely(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()
	return job.Run(ctx)
}
