// Package scheduler runs cron-driven background syncs per account.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tempvault/tempvault/internal/config"
)

// SyncFunc performs one sync pass for an account and reports how many new
// messages it inserted.
type SyncFunc func(ctx context.Context, email string) (int, error)

// NotifyFunc is called after a scheduled pass that inserted new messages.
type NotifyFunc func(email string, inserted int)

// jobState is the bookkeeping for one scheduled account.
type jobState struct {
	entryID  cron.EntryID
	schedule string
	running  bool
	lastRun  time.Time
	lastErr  error
}

// AccountStatus is a snapshot of one scheduled account.
type AccountStatus struct {
	Email     string    `json:"email"`
	Running   bool      `json:"running"`
	LastRun   time.Time `json:"last_run,omitempty"`
	NextRun   time.Time `json:"next_run"`
	Schedule  string    `json:"schedule"`
	LastError string    `json:"last_error,omitempty"`
}

// Scheduler fires sync passes on standard 5-field cron expressions. A pass
// still running when its next trigger fires is skipped for that account, so
// at most one sync per account is in flight at a time.
type Scheduler struct {
	cron     *cron.Cron
	syncFunc SyncFunc
	notify   NotifyFunc
	logger   *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*jobState

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped bool
}

func cronParser() cron.Parser {
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
}

// New creates a Scheduler calling syncFunc on each trigger. notify may be
// nil.
func New(syncFunc SyncFunc, notify NotifyFunc, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     cron.New(cron.WithParser(cronParser())),
		syncFunc: syncFunc,
		notify:   notify,
		logger:   logger,
		jobs:     make(map[string]*jobState),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// AddAccount schedules an account under a cron expression, replacing any
// existing schedule for the same email.
func (s *Scheduler) AddAccount(email, cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[email]; ok {
		s.cron.Remove(job.entryID)
		delete(s.jobs, email)
	}

	entryID, err := s.cron.AddFunc(cronExpr, func() {
		s.mu.Lock()
		job := s.jobs[email]
		if s.stopped || job == nil || job.running {
			s.mu.Unlock()
			return
		}
		job.running = true
		s.wg.Add(1)
		s.mu.Unlock()
		s.runSync(email)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	s.jobs[email] = &jobState{entryID: entryID, schedule: cronExpr}
	s.logger.Info("scheduled sync",
		"email", email,
		"schedule", cronExpr,
		"next_run", s.cron.Entry(entryID).Next)
	return nil
}

// AddFromConfig schedules every enabled account in the config. Returns how
// many were scheduled, plus one error per rejected expression.
func (s *Scheduler) AddFromConfig(cfg *config.Config) (int, []error) {
	var errs []error
	scheduled := 0
	for _, acc := range cfg.ScheduledAccounts() {
		if err := s.AddAccount(acc.Email, acc.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", acc.Email, err))
			continue
		}
		scheduled++
	}
	return scheduled, errs
}

// RemoveAccount drops an account's schedule. Unknown emails are a no-op.
func (s *Scheduler) RemoveAccount(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[email]; ok {
		s.cron.Remove(job.entryID)
		delete(s.jobs, email)
		s.logger.Info("removed schedule", "email", email)
	}
}

// IsScheduled reports whether the account has a schedule.
func (s *Scheduler) IsScheduled(email string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.jobs[email]
	return ok
}

// Start begins firing schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.mu.RLock()
	n := len(s.jobs)
	s.mu.RUnlock()
	s.logger.Info("scheduler started", "jobs", n)
}

// Stop cancels in-flight syncs and returns a context that is done once all
// of them have finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("scheduler stopping")

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	cronCtx := s.cron.Stop()
	s.cancel()

	ctx, done := context.WithCancel(context.Background())
	go func() {
		<-cronCtx.Done()
		s.wg.Wait()
		done()
	}()
	return ctx
}

// TriggerSync runs an account's sync now, outside its schedule.
func (s *Scheduler) TriggerSync(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return fmt.Errorf("scheduler is stopped")
	}
	job, ok := s.jobs[email]
	if !ok {
		return fmt.Errorf("account %s is not scheduled", email)
	}
	if job.running {
		return fmt.Errorf("sync already running for %s", email)
	}

	job.running = true
	s.wg.Add(1)
	go s.runSync(email)
	return nil
}

// runSync executes one pass. The caller has already set running and bumped
// the wait group.
func (s *Scheduler) runSync(email string) {
	defer s.wg.Done()

	start := time.Now()
	s.logger.Info("starting scheduled sync", "email", email)

	inserted, err := s.syncFunc(s.ctx, email)

	s.mu.Lock()
	if job, ok := s.jobs[email]; ok {
		job.running = false
		job.lastErr = err
		if err == nil {
			job.lastRun = time.Now()
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled sync failed",
			"email", email, "duration", time.Since(start), "error", err)
		return
	}
	s.logger.Info("scheduled sync completed",
		"email", email, "duration", time.Since(start), "inserted", inserted)
	if inserted > 0 && s.notify != nil {
		s.notify(email, inserted)
	}
}

// Status snapshots every scheduled account.
func (s *Scheduler) Status() []AccountStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []AccountStatus
	for email, job := range s.jobs {
		st := AccountStatus{
			Email:    email,
			Running:  job.running,
			LastRun:  job.lastRun,
			NextRun:  s.cron.Entry(job.entryID).Next,
			Schedule: job.schedule,
		}
		if job.lastErr != nil {
			st.LastError = job.lastErr.Error()
		}
		out = append(out, st)
	}
	return out
}

// ValidateCronExpr checks a 5-field cron expression without scheduling it.
func ValidateCronExpr(expr string) error {
	if _, err := cronParser().Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}
