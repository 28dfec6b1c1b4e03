package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/tempvault/tempvault/internal/fault"
)

// EmailFunc resolves the account to sync on each tick.
type EmailFunc func() (string, error)

// NotifyFunc is called after a tick that inserted new messages.
type NotifyFunc func(inserted int)

// Poller drives unsolicited periodic refreshes of the inbox.
//
// The ticker is wall-clock-driven: a slow fetch may overlap the next tick.
// That is tolerated by the syncer's idempotence rather than prevented by
// locking out the timer. Failures never stop the loop; timeouts are logged
// at debug level only.
type Poller struct {
	syncer   *Syncer
	interval time.Duration
	email    EmailFunc
	notify   NotifyFunc
	logger   *slog.Logger
}

// NewPoller creates a poller firing every interval.
func NewPoller(syncer *Syncer, interval time.Duration, email EmailFunc, notify NotifyFunc, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{syncer: syncer, interval: interval, email: email, notify: notify, logger: logger}
}

// Run blocks until ctx is done, syncing on every tick.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("poller started", "interval", p.interval)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return
		case <-ticker.C:
			go p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	email, err := p.email()
	if err != nil {
		p.logger.Warn("resolve current account", "error", err)
		return
	}
	if email == "" {
		return
	}

	n, err := p.syncer.Sync(ctx, email)
	if err != nil {
		if fault.IsTimeout(err) {
			// Transient by definition; the next tick retries.
			p.logger.Debug("sync timed out", "email", email)
		} else {
			p.logger.Warn("sync failed", "email", email, "error", err)
		}
		return
	}
	if n > 0 && p.notify != nil {
		p.notify(n)
	}
}
