// Package sync mirrors the remote inbox into the local message cache.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	gosync "sync"

	"golang.org/x/sync/errgroup"

	"github.com/tempvault/tempvault/internal/model"
	"github.com/tempvault/tempvault/internal/remote"
	"github.com/tempvault/tempvault/internal/store"
)

// Placeholder text stamped onto entries the provider reports without a
// subject or body.
const (
	placeholderSubject = "(no subject)"
	placeholderBody    = "(empty message)"
)

// Inbox is the provider surface the syncer needs.
type Inbox interface {
	FetchInbox(ctx context.Context, email string) ([]remote.InboxEntry, error)
}

// Syncer performs the fetch-merge-dedup loop against the provider.
//
// Overlapping invocations are safe without locking: the message id is a
// deterministic function of entry content, so re-persisting an already-seen
// entry is an idempotent upsert.
type Syncer struct {
	client Inbox
	store  *store.Store
	logger *slog.Logger
}

// New creates a Syncer.
func New(client Inbox, st *store.Store, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{client: client, store: st, logger: logger}
}

// Sync fetches the remote snapshot for email and persists entries not
// already in the store. Entries missing a sender or timestamp are skipped.
// Returns the count of newly inserted messages.
//
// On fetch failure nothing is mutated and the typed failure is returned;
// retry is the poll timer's job, not this function's.
func (s *Syncer) Sync(ctx context.Context, email string) (int, error) {
	entries, err := s.client.FetchInbox(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("sync %s: %w", email, err)
	}

	existing, err := s.store.ExistingIDs()
	if err != nil {
		return 0, fmt.Errorf("sync %s: %w", email, err)
	}

	inserted := 0
	seenNew := make(map[string]struct{})
	for _, e := range entries {
		if e.From == "" || e.CreatedAt == "" {
			s.logger.Debug("skipping entry with missing fields", "from", e.From, "createdAt", e.CreatedAt)
			continue
		}

		id := model.MessageID(e.CreatedAt, e.From)
		if _, ok := existing[id]; ok {
			continue
		}

		subject := e.Subject
		if subject == "" {
			subject = placeholderSubject
		}
		body := e.Body
		if body == "" {
			body = placeholderBody
		}

		// Colliding ids within one snapshot are persisted in order, so the
		// later entry wins the upsert; the count still reflects distinct ids.
		if _, err := s.store.Put(model.Message{
			ID:        id,
			From:      e.From,
			Subject:   subject,
			Body:      body,
			CreatedAt: e.CreatedAt,
			IsRead:    false,
			Starred:   false,
		}); err != nil {
			return inserted, fmt.Errorf("sync %s: %w", email, err)
		}
		if _, dup := seenNew[id]; !dup {
			seenNew[id] = struct{}{}
			inserted++
		}
	}

	s.logger.Info("sync completed", "email", email, "fetched", len(entries), "inserted", inserted)
	return inserted, nil
}

// SyncAll syncs every known account, at most concurrency at a time, and
// returns the total of newly inserted messages. One account's failure does
// not stop the others; the first error is returned after all finish.
func (s *Syncer) SyncAll(ctx context.Context, concurrency int) (int, error) {
	accounts, err := s.store.Accounts()
	if err != nil {
		return 0, err
	}
	if concurrency < 1 {
		concurrency = 1
	}

	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	var mu gosync.Mutex
	total := 0
	for _, acc := range accounts {
		acc := acc
		g.Go(func() error {
			n, err := s.Sync(ctx, acc.Email)
			mu.Lock()
			total += n
			mu.Unlock()
			return err
		})
	}
	return total, g.Wait()
}
