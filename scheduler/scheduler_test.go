package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goflare.io/loyalty/clock"
	"goflare.io/loyalty/models"
	"goflare.io/loyalty/models/enum"
)

type memoryStore struct {
	mu   sync.Mutex
	runs map[string]*models.JobRun
}

func newMemoryStore() *memoryStore {
	return &memoryStore{runs: make(map[string]*models.JobRun)}
}

func (s *memoryStore) Upsert(_ context.Context, run *models.JobRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.runs[run.Name]; ok {
		existing.Schedule = run.Schedule
		existing.NextRunAt = run.NextRunAt
		return nil
	}
	cp := *run
	s.runs[run.Name] = &cp
	return nil
}

func (s *memoryStore) List(_ context.Context) ([]*models.JobRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := make([]*models.JobRun, 0, len(s.runs))
	for _, run := range s.runs {
		cp := *run
		runs = append(runs, &cp)
	}
	return runs, nil
}

func (s *memoryStore) MarkRunning(_ context.Context, name string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[name]
	if !ok {
		return errors.New("unknown job")
	}
	run.LastStartAt = &at
	run.LastOutcome = enum.JobOutcomeRunning
	return nil
}

func (s *memoryStore) MarkFinished(_ context.Context, name string, outcome enum.JobOutcome, nextRunAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[name]
	if !ok {
		return errors.New("unknown job")
	}
	run.LastOutcome = outcome
	run.NextRunAt = nextRunAt
	return nil
}

func (s *memoryStore) get(name string) models.JobRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.runs[name]
}

func newTestManager(store Store) *Manager {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	return NewManager(store, NewMemoryLocker(), clock.Fixed(now), zap.NewNop(),
		WithTickInterval(50*time.Millisecond),
		WithLockLease(time.Minute),
	)
}

func TestAddOrUpdateIsIdempotentByName(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(store)
	ctx := context.Background()

	noop := func(context.Context) error { return nil }

	require.NoError(t, m.AddOrUpdate(ctx, "sync", "@hourly", noop))
	require.NoError(t, m.AddOrUpdate(ctx, "sync", "30 7 * * 3", noop))

	runs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "30 7 * * 3", runs[0].Schedule)
}

func TestAddOrUpdateRejectsBadSchedule(t *testing.T) {
	m := newTestManager(newMemoryStore())

	err := m.AddOrUpdate(context.Background(), "sync", "not-a-cron", func(context.Context) error { return nil })
	require.Error(t, err)
}

func TestConcurrentTriggerRunsExactlyOnce(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(store)
	ctx := context.Background()

	var executions int32
	started := make(chan struct{})
	release := make(chan struct{})

	err := m.AddOrUpdate(ctx, "sync", "@hourly", func(context.Context) error {
		atomic.AddInt32(&executions, 1)
		close(started)
		<-release
		return nil
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		require.NoError(t, m.Trigger(ctx, "sync"))
	}()

	// Wait for the first firing to hold the lock, then attempt a second.
	<-started
	require.NoError(t, m.Trigger(ctx, "sync"))
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&executions))
	assert.Equal(t, enum.JobOutcomeSuccess, store.get("sync").LastOutcome)
}

func TestFailedRunRecordsOutcomeAndReleasesLock(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(store)
	ctx := context.Background()

	calls := 0
	err := m.AddOrUpdate(ctx, "sync", "@hourly", func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("dwh unreachable")
		}
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, m.Trigger(ctx, "sync"))
	assert.Equal(t, enum.JobOutcomeFailed, store.get("sync").LastOutcome)

	// The lock was released, so the next firing runs again.
	require.NoError(t, m.Trigger(ctx, "sync"))
	assert.Equal(t, enum.JobOutcomeSuccess, store.get("sync").LastOutcome)
	assert.Equal(t, 2, calls)
}

func TestPanickingJobIsAbsorbed(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(store)
	ctx := context.Background()

	err := m.AddOrUpdate(ctx, "sync", "@hourly", func(context.Context) error {
		panic("boom")
	})
	require.NoError(t, err)

	require.NoError(t, m.Trigger(ctx, "sync"))
	assert.Equal(t, enum.JobOutcomeFailed, store.get("sync").LastOutcome)
}

func TestTriggerUnknownJob(t *testing.T) {
	m := newTestManager(newMemoryStore())
	require.Error(t, m.Trigger(context.Background(), "nope"))
}

func TestTickFiresDueJobs(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(store)
	ctx := context.Background()

	var executions int32
	require.NoError(t, m.AddOrUpdate(ctx, "sync", "@hourly", func(context.Context) error {
		atomic.AddInt32(&executions, 1)
		return nil
	}))

	// Not due yet: registration computed the next hourly boundary.
	m.tick(ctx)
	assert.Equal(t, int32(0), atomic.LoadInt32(&executions))

	// Force the entry due and tick again.
	store.mu.Lock()
	store.runs["sync"].NextRunAt = time.Date(2024, 5, 15, 11, 0, 0, 0, time.UTC)
	store.mu.Unlock()

	m.tick(ctx)
	assert.Equal(t, int32(1), atomic.LoadInt32(&executions))

	// The fire advanced NextRunAt past the fixed clock, so a second tick
	// performs no work.
	m.tick(ctx)
	assert.Equal(t, int32(1), atomic.LoadInt32(&executions))
}
