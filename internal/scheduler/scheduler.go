// Package scheduler periodically drains pending matches through the scan
// runner, one match at a time.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/footwatch/internal/models"
)

type Store interface {
	ListPendingMatches(ctx context.Context, limit int) ([]models.Match, error)
}

type Runner interface {
	Run(ctx context.Context, matchID uuid.UUID) bool
}

type Options struct {
	BatchSize    int
	Interval     time.Duration
	ErrorBackoff time.Duration
}

type Scheduler struct {
	store  Store
	runner Runner
	opts   Options

	trigger chan struct{}
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(store Store, runner Runner, opts Options) *Scheduler {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.ErrorBackoff <= 0 {
		opts.ErrorBackoff = 60 * time.Second
	}
	return &Scheduler{
		store:   store,
		runner:  runner,
		opts:    opts,
		trigger: make(chan struct{}, 1),
	}
}

// Start launches the loop in its own goroutine. Calling Start on a running
// scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, s.done)
	slog.Info("scheduler started", "batch_size", s.opts.BatchSize, "interval", s.opts.Interval)
}

// Stop cancels the loop and waits for it to exit. A match being scanned is
// interrupted: it keeps a partial result when it has detections and goes back
// to pending otherwise.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	slog.Info("scheduler stopped")
}

// Trigger wakes the loop for an immediate cycle. Triggers that arrive while a
// cycle is running collapse into one.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		wait := s.opts.Interval
		if _, err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("scheduler cycle failed", "error", err, "backoff", s.opts.ErrorBackoff)
			wait = s.opts.ErrorBackoff
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.trigger:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// RunCycle processes one batch of pending matches and returns how many
// completed. A panic inside the cycle is returned as an error.
func (s *Scheduler) RunCycle(ctx context.Context) (completed int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("scheduler cycle panic: %v", rec)
		}
	}()

	matches, err := s.store.ListPendingMatches(ctx, s.opts.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending matches: %w", err)
	}
	if len(matches) == 0 {
		return 0, nil
	}

	slog.Info("processing pending matches", "count", len(matches))
	for _, m := range matches {
		if ctx.Err() != nil {
			return completed, ctx.Err()
		}
		if s.runner.Run(ctx, m.ID) {
			completed++
		}
	}
	slog.Info("scheduler cycle finished", "matches", len(matches), "completed", completed)
	return completed, nil
}
