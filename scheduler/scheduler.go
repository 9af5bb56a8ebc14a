// Package scheduler owns the registry of named recurring jobs and fires
// them on cron schedules with at most one running instance per job name
// across all worker processes.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"goflare.io/loyalty/clock"
	"goflare.io/loyalty/models"
	"goflare.io/loyalty/models/enum"
)

// Job is the body of a recurring job. Bodies must be safe to interrupt and
// re-run from their persisted cursor or ledger: the lease may expire and
// another worker may reclaim the run.
type Job func(ctx context.Context) error

// cronParser supports standard 5-field cron and descriptors like "@hourly".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

type registration struct {
	schedule cronlib.Schedule
	run      Job
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTickInterval sets how often the poller checks for due jobs.
func WithTickInterval(d time.Duration) ManagerOption {
	return func(m *Manager) { m.tickInterval = d }
}

// WithLockLease sets the lease on per-job locks. The lease is renewed at
// half-life while the job body runs.
func WithLockLease(d time.Duration) ManagerOption {
	return func(m *Manager) { m.lockLease = d }
}

// Manager polls the shared job registry and fires due jobs behind a
// distributed lock. Every worker process runs its own Manager against the
// same Store and Locker.
type Manager struct {
	store  Store
	locker Locker
	clock  clock.Clock
	logger *zap.Logger

	tickInterval time.Duration
	lockLease    time.Duration

	mu   sync.RWMutex
	jobs map[string]registration

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewManager(store Store, locker Locker, clk clock.Clock, logger *zap.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:        store,
		locker:       locker,
		clock:        clk,
		logger:       logger,
		tickInterval: 15 * time.Second,
		lockLease:    5 * time.Minute,
		jobs:         make(map[string]registration),
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddOrUpdate registers a named job. Re-registering an existing name updates
// the schedule without duplicating the registry entry or losing its history.
func (m *Manager) AddOrUpdate(ctx context.Context, name, cronExpr string, job Job) error {

	sched, err := cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("failed to parse schedule %q: %w", cronExpr, err)
	}

	m.mu.Lock()
	m.jobs[name] = registration{schedule: sched, run: job}
	m.mu.Unlock()

	run := &models.JobRun{
		Name:        name,
		Schedule:    cronExpr,
		LastOutcome: enum.JobOutcomeNone,
		NextRunAt:   sched.Next(m.clock.Now().UTC()),
	}

	if err = m.store.Upsert(ctx, run); err != nil {
		return fmt.Errorf("failed to register job %q: %w", name, err)
	}

	m.logger.Info("job registered",
		zap.String("job", name),
		zap.String("schedule", cronExpr),
		zap.Time("next_run_at", run.NextRunAt))

	return nil
}

// Start launches the poll loop.
func (m *Manager) Start() {
	m.wg.Add(1)
	go m.tickLoop()
	m.logger.Info("job scheduler started",
		zap.Duration("tick_interval", m.tickInterval),
		zap.Duration("lock_lease", m.lockLease))
}

// Stop signals the poll loop to stop and waits for in-flight work.
func (m *Manager) Stop() {
	close(m.stopCh)
	m.wg.Wait()
	m.logger.Info("job scheduler stopped")
}

// Trigger fires a registered job immediately, subject to the same locking
// discipline as a scheduled firing.
func (m *Manager) Trigger(ctx context.Context, name string) error {

	m.mu.RLock()
	reg, ok := m.jobs[name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}

	m.fire(ctx, name, reg)
	return nil
}

func (m *Manager) tickLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.tick(context.Background())
		}
	}
}

func (m *Manager) tick(ctx context.Context) {

	runs, err := m.store.List(ctx)
	if err != nil {
		m.logger.Error("failed to list job runs", zap.Error(err))
		return
	}

	now := m.clock.Now().UTC()
	for _, run := range runs {
		m.mu.RLock()
		reg, ok := m.jobs[run.Name]
		m.mu.RUnlock()
		if !ok {
			// Registered by another binary; not ours to run.
			continue
		}
		if run.NextRunAt.After(now) {
			continue
		}
		m.fire(ctx, run.Name, reg)
	}
}

func (m *Manager) fire(ctx context.Context, name string, reg registration) {

	token, acquired, err := m.locker.TryAcquire(ctx, name, m.lockLease)
	if err != nil {
		m.logger.Error("failed to acquire job lock",
			zap.String("job", name),
			zap.Error(err))
		return
	}
	if !acquired {
		// Another worker is running this job; skip the firing.
		return
	}

	startedAt := m.clock.Now().UTC()
	if err = m.store.MarkRunning(ctx, name, startedAt); err != nil {
		m.logger.Error("failed to mark job running",
			zap.String("job", name),
			zap.Error(err))
	}

	renewDone := make(chan struct{})
	go m.renewLoop(name, token, renewDone)

	runErr := m.runJob(ctx, reg.run)
	close(renewDone)

	outcome := enum.JobOutcomeSuccess
	if runErr != nil {
		outcome = enum.JobOutcomeFailed
		m.logger.Error("job run failed",
			zap.String("job", name),
			zap.Error(runErr))
	} else {
		m.logger.Info("job run succeeded",
			zap.String("job", name),
			zap.Duration("elapsed", m.clock.Now().UTC().Sub(startedAt)))
	}

	// Failures wait for the next natural schedule tick, never a tight loop.
	next := reg.schedule.Next(m.clock.Now().UTC())
	if err = m.store.MarkFinished(ctx, name, outcome, next); err != nil {
		m.logger.Error("failed to mark job finished",
			zap.String("job", name),
			zap.Error(err))
	}

	if err = m.locker.Release(ctx, name, token); err != nil {
		m.logger.Error("failed to release job lock",
			zap.String("job", name),
			zap.Error(err))
	}
}

// renewLoop extends the lock lease at half-life until the job body returns.
func (m *Manager) renewLoop(name, token string, done <-chan struct{}) {

	ticker := time.NewTicker(m.lockLease / 2)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := m.locker.Renew(context.Background(), name, token, m.lockLease); err != nil {
				m.logger.Warn("failed to renew job lock",
					zap.String("job", name),
					zap.Error(err))
			}
		}
	}
}

func (m *Manager) runJob(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job(ctx)
}
