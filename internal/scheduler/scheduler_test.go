package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/footwatch/internal/models"
)

type fakeStore struct {
	mu      sync.Mutex
	pending []models.Match
	errs    []error
	calls   int
	limits  []int
}

func (s *fakeStore) ListPendingMatches(_ context.Context, limit int) ([]models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.limits = append(s.limits, limit)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	n := min(limit, len(s.pending))
	batch := s.pending[:n]
	s.pending = s.pending[n:]
	return batch, nil
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeRunner struct {
	mu      sync.Mutex
	ran     []uuid.UUID
	fail    map[uuid.UUID]bool
	panicOn uuid.UUID
}

func (r *fakeRunner) Run(_ context.Context, id uuid.UUID) bool {
	if id == r.panicOn {
		panic("boom")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ran = append(r.ran, id)
	return !r.fail[id]
}

func pending(n int) []models.Match {
	out := make([]models.Match, n)
	for i := range out {
		out[i] = models.Match{ID: uuid.New(), Status: models.MatchStatusPending}
	}
	return out
}

func TestRunCycle(t *testing.T) {
	matches := pending(7)
	store := &fakeStore{pending: matches}
	runner := &fakeRunner{fail: map[uuid.UUID]bool{matches[1].ID: true}}
	s := New(store, runner, Options{BatchSize: 5})

	completed, err := s.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completed != 4 {
		t.Errorf("expected 4 completed, got %d", completed)
	}
	if len(runner.ran) != 5 {
		t.Fatalf("expected 5 runs, got %d", len(runner.ran))
	}
	for i, id := range runner.ran {
		if id != matches[i].ID {
			t.Errorf("run %d: expected match %s, got %s", i, matches[i].ID, id)
		}
	}
	if store.limits[0] != 5 {
		t.Errorf("expected batch limit 5, got %d", store.limits[0])
	}
}

func TestRunCycleStoreError(t *testing.T) {
	store := &fakeStore{errs: []error{errors.New("db down")}}
	s := New(store, &fakeRunner{}, Options{})

	if _, err := s.RunCycle(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestRunCyclePanic(t *testing.T) {
	matches := pending(1)
	store := &fakeStore{pending: matches}
	s := New(store, &fakeRunner{panicOn: matches[0].ID}, Options{})

	if _, err := s.RunCycle(context.Background()); err == nil {
		t.Error("expected panic to surface as error")
	}
}

func TestDefaults(t *testing.T) {
	s := New(&fakeStore{}, &fakeRunner{}, Options{})
	if s.opts.BatchSize != 5 {
		t.Errorf("expected batch size 5, got %d", s.opts.BatchSize)
	}
	if s.opts.Interval != 30*time.Second {
		t.Errorf("expected interval 30s, got %v", s.opts.Interval)
	}
	if s.opts.ErrorBackoff != 60*time.Second {
		t.Errorf("expected backoff 60s, got %v", s.opts.ErrorBackoff)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestTriggerWakesLoop(t *testing.T) {
	store := &fakeStore{}
	s := New(store, &fakeRunner{}, Options{Interval: time.Hour, ErrorBackoff: time.Hour})

	s.Start(context.Background())
	defer s.Stop()

	waitFor(t, func() bool { return store.callCount() == 1 })
	s.Trigger()
	waitFor(t, func() bool { return store.callCount() == 2 })
}

func TestErrorBackoff(t *testing.T) {
	store := &fakeStore{errs: []error{errors.New("db down")}}
	s := New(store, &fakeRunner{}, Options{Interval: time.Hour, ErrorBackoff: 20 * time.Millisecond})

	s.Start(context.Background())
	defer s.Stop()

	// The failed first cycle sleeps only the short backoff before retrying.
	waitFor(t, func() bool { return store.callCount() >= 2 })
}

func TestStopEndsLoop(t *testing.T) {
	store := &fakeStore{}
	s := New(store, &fakeRunner{}, Options{Interval: 10 * time.Millisecond})

	s.Start(context.Background())
	waitFor(t, func() bool { return store.callCount() >= 1 })
	s.Stop()

	after := store.callCount()
	time.Sleep(50 * time.Millisecond)
	if got := store.callCount(); got != after {
		t.Errorf("expected no cycles after Stop, got %d more", got-after)
	}

	// Stop on a stopped scheduler is a no-op.
	s.Stop()
}

func TestContextCancelEndsLoop(t *testing.T) {
	store := &fakeStore{}
	s := New(store, &fakeRunner{}, Options{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	waitFor(t, func() bool { return store.callCount() >= 1 })
	cancel()

	done := s.done
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected loop to exit after context cancel")
	}
}
