// Package view holds the per-view session state: current account, section
// filters, windowed lists and the search index, kept in step with peer views
// through the broadcast bus.
package view

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/tempvault/tempvault/internal/broadcast"
	"github.com/tempvault/tempvault/internal/fault"
	"github.com/tempvault/tempvault/internal/filter"
	"github.com/tempvault/tempvault/internal/model"
	"github.com/tempvault/tempvault/internal/scroll"
	"github.com/tempvault/tempvault/internal/searchidx"
	"github.com/tempvault/tempvault/internal/store"
)

// sections lists the two rendered partitions: read is the inbox, unread is
// the updates feed.
var sections = []model.Section{model.SectionRead, model.SectionUnread}

// Context is one view's session. Mutations go through the store first, then
// notify peers over the bus; peers converge by re-reading the store, so the
// store stays the single source of truth.
type Context struct {
	store  *store.Store
	sub    *broadcast.Subscriber
	index  *searchidx.Index
	logger *slog.Logger

	mu       sync.Mutex
	email    string
	darkMode bool
	filters  map[model.Section]*filter.State
	lists    map[model.Section]*scroll.List
}

// sectionPager adapts the store's filtered paging to one section, reading
// the section's live filter on every call so filter changes take effect on
// the next refresh without rebuilding the list.
type sectionPager struct {
	v       *Context
	section model.Section
}

func (p sectionPager) Count() (int, error) {
	return p.v.store.Count(p.v.FilterState(p.section), p.section)
}

func (p sectionPager) Page(limit, offset int) ([]model.Message, error) {
	return p.v.store.Page(limit, offset, p.v.FilterState(p.section), p.section)
}

// New attaches a view to the store and bus, loads the persisted session
// state, builds the search index and loads the first page of each section.
func New(st *store.Store, bus *broadcast.Bus, cfg scroll.Config, logger *slog.Logger) (*Context, error) {
	if logger == nil {
		logger = slog.Default()
	}

	email, err := st.CurrentAccount()
	if err != nil {
		return nil, err
	}
	dark, err := st.DarkMode()
	if err != nil {
		return nil, err
	}

	v := &Context{
		store:    st,
		sub:      bus.Subscribe(),
		index:    searchidx.New(),
		logger:   logger,
		email:    email,
		darkMode: dark,
		filters:  make(map[model.Section]*filter.State),
		lists:    make(map[model.Section]*scroll.List),
	}
	for _, sec := range sections {
		f := &filter.State{Status: filter.StatusAll}
		v.filters[sec] = f
		v.lists[sec] = scroll.NewList(sectionPager{v: v, section: sec}, cfg)
	}

	if err := v.Refresh(); err != nil {
		v.sub.Close()
		return nil, err
	}
	return v, nil
}

// Close detaches the view from the bus.
func (v *Context) Close() { v.sub.Close() }

// Email returns the account this view renders.
func (v *Context) Email() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.email
}

// DarkMode returns the view's current theme flag.
func (v *Context) DarkMode() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.darkMode
}

// List returns the windowed list for a section.
func (v *Context) List(section model.Section) *scroll.List {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lists[section]
}

// FilterState returns a copy of the section's filter.
func (v *Context) FilterState(section model.Section) filter.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	if f, ok := v.filters[section]; ok {
		return *f
	}
	return filter.State{Status: filter.StatusAll}
}

// SetFilter replaces the section's filter and reloads the section. The
// filter is session state; it survives refreshes until ResetFilter.
func (v *Context) SetFilter(section model.Section, f filter.State) error {
	f.Active = !f.IsEmpty()
	v.mu.Lock()
	if existing, ok := v.filters[section]; ok {
		*existing = f
	}
	l := v.lists[section]
	v.mu.Unlock()
	if l == nil {
		return fault.Errorf(fault.Validation, "unknown section %q", section)
	}
	return l.Refresh()
}

// ResetFilter clears the section's filter and reloads the section.
func (v *Context) ResetFilter(section model.Section) error {
	return v.SetFilter(section, filter.State{Status: filter.StatusAll})
}

// Refresh rebuilds the search index from the store and reloads every
// section list.
func (v *Context) Refresh() error {
	if err := v.rebuildIndex(); err != nil {
		return err
	}
	return v.refreshLists()
}

func (v *Context) rebuildIndex() error {
	msgs, err := v.store.GetAll()
	if err != nil {
		return fmt.Errorf("rebuild search index: %w", err)
	}
	v.index.Build(msgs)
	return nil
}

func (v *Context) refreshLists() error {
	v.mu.Lock()
	lists := make([]*scroll.List, 0, len(v.lists))
	for _, l := range v.lists {
		lists = append(lists, l)
	}
	v.mu.Unlock()
	for _, l := range lists {
		if err := l.Refresh(); err != nil {
			return err
		}
	}
	return nil
}

// OpenMessage marks a message read and returns it. Opening an already-read
// message is a no-op beyond the lookup; peers are notified only when state
// actually changed.
func (v *Context) OpenMessage(id string) (*model.Message, error) {
	m, err := v.store.Get(id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fault.Errorf(fault.Validation, "open message: no message %q", id)
	}
	if m.IsRead {
		return m, nil
	}

	if err := v.store.MarkRead(id); err != nil {
		return nil, err
	}
	m.IsRead = true
	if err := v.store.RecordActivity("read", m.Subject); err != nil {
		v.logger.Warn("record activity", "error", err)
	}
	if err := v.refreshLists(); err != nil {
		return nil, err
	}
	v.sub.Publish(broadcast.MessagesUpdated, id)
	return m, nil
}

// ToggleStar flips the starred flag and returns the new value.
func (v *Context) ToggleStar(id string) (bool, error) {
	m, err := v.store.Get(id)
	if err != nil {
		return false, err
	}
	if m == nil {
		return false, fault.Errorf(fault.Validation, "toggle star: no message %q", id)
	}

	starred := !m.Starred
	if err := v.store.SetStarred(id, starred); err != nil {
		return false, err
	}
	kind := "unstar"
	if starred {
		kind = "star"
	}
	if err := v.store.RecordActivity(kind, m.Subject); err != nil {
		v.logger.Warn("record activity", "error", err)
	}
	if err := v.refreshLists(); err != nil {
		return starred, err
	}
	v.sub.Publish(broadcast.MessagesUpdated, id)
	return starred, nil
}

// MarkAllRead transitions every unread message to read and returns the
// count. Nothing is published when nothing changed.
func (v *Context) MarkAllRead() (int, error) {
	n, err := v.store.MarkAllRead()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if err := v.store.RecordActivity("read", fmt.Sprintf("marked %d messages read", n)); err != nil {
		v.logger.Warn("record activity", "error", err)
	}
	if err := v.refreshLists(); err != nil {
		return n, err
	}
	v.sub.Publish(broadcast.MessagesUpdated, "")
	return n, nil
}

// ClearRead deletes every read message and returns the count. Unread
// messages are never touched.
func (v *Context) ClearRead() (int, error) {
	n, err := v.store.DeleteRead()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if err := v.store.RecordActivity("clear", fmt.Sprintf("removed %d read messages", n)); err != nil {
		v.logger.Warn("record activity", "error", err)
	}
	if err := v.Refresh(); err != nil {
		return n, err
	}
	v.sub.Publish(broadcast.MessagesUpdated, "")
	return n, nil
}

// SetDarkMode persists the theme flag and notifies peers.
func (v *Context) SetDarkMode(on bool) error {
	if err := v.store.SetDarkMode(on); err != nil {
		return err
	}
	v.mu.Lock()
	v.darkMode = on
	v.mu.Unlock()
	payload := "false"
	if on {
		payload = "true"
	}
	v.sub.Publish(broadcast.DarkModeToggled, payload)
	return nil
}

// SwitchAccount makes email the current account, reloads the view and
// notifies peers.
func (v *Context) SwitchAccount(email string) error {
	if email == "" {
		return fault.Errorf(fault.Validation, "switch account: empty email")
	}
	if err := v.store.SetCurrentAccount(email); err != nil {
		return err
	}
	v.mu.Lock()
	v.email = email
	v.mu.Unlock()
	if err := v.store.RecordActivity("account", email); err != nil {
		v.logger.Warn("record activity", "error", err)
	}
	if err := v.Refresh(); err != nil {
		return err
	}
	v.sub.Publish(broadcast.AccountSwitched, email)
	return nil
}

// Search runs a query against the in-process index and returns the matching
// messages, newest first.
func (v *Context) Search(query string) ([]model.Message, error) {
	ids := v.index.Query(query)
	out := make([]model.Message, 0, len(ids))
	for id := range ids {
		m, err := v.store.Get(id)
		if err != nil {
			return nil, err
		}
		if m == nil {
			// Indexed but deleted since the last rebuild; skip.
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, oki := model.ParseCreatedAt(out[i].CreatedAt)
		tj, okj := model.ParseCreatedAt(out[j].CreatedAt)
		if !oki || !okj {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return tj.Before(ti)
	})
	return out, nil
}

// NotifyNewMessages folds freshly synced messages into the view and tells
// peers to do the same.
func (v *Context) NotifyNewMessages(count int) error {
	if count <= 0 {
		return nil
	}
	if err := v.store.RecordActivity("received", fmt.Sprintf("%d new messages", count)); err != nil {
		v.logger.Warn("record activity", "error", err)
	}
	if err := v.Refresh(); err != nil {
		return err
	}
	v.sub.Publish(broadcast.MessagesUpdated, "")
	return nil
}

// Stats reads the store's aggregate counters.
func (v *Context) Stats() (*store.Stats, error) { return v.store.GetStats() }

// RecentActivity returns the n latest usage events, newest first.
func (v *Context) RecentActivity(n int) ([]store.Activity, error) {
	return v.store.RecentActivity(n)
}

// HandleEvent applies one broadcast event from a peer. The view's own
// events come back over the bus and are skipped by the echo check; every
// handler re-reads the store, so applying the same event twice is harmless.
func (v *Context) HandleEvent(evt broadcast.Event) error {
	if v.sub.IsEcho(evt) {
		return nil
	}
	switch evt.Type {
	case broadcast.MessagesUpdated:
		return v.Refresh()
	case broadcast.AccountSwitched:
		v.mu.Lock()
		v.email = evt.Payload
		v.mu.Unlock()
		return v.Refresh()
	case broadcast.DarkModeToggled:
		v.mu.Lock()
		v.darkMode = evt.Payload == "true"
		v.mu.Unlock()
		return nil
	default:
		v.logger.Debug("ignoring unknown event", "type", evt.Type)
		return nil
	}
}

// Run pumps broadcast events into HandleEvent until ctx is done or the
// subscription closes. Handler errors are logged, never fatal; the next
// event retries convergence.
func (v *Context) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-v.sub.Events():
			if !ok {
				return
			}
			if err := v.HandleEvent(evt); err != nil {
				v.logger.Warn("apply broadcast event", "type", evt.Type, "error", err)
			}
		}
	}
}
