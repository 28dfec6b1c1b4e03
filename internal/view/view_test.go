package view

import (
	"context"
	"testing"
	"time"

	"github.com/tempvault/tempvault/internal/broadcast"
	"github.com/tempvault/tempvault/internal/fault"
	"github.com/tempvault/tempvault/internal/filter"
	"github.com/tempvault/tempvault/internal/model"
	"github.com/tempvault/tempvault/internal/scroll"
	"github.com/tempvault/tempvault/internal/store"
	"github.com/tempvault/tempvault/internal/testutil"
)

func testCfg() scroll.Config {
	return scroll.Config{PageSize: 10, ItemHeight: 72, ViewportHeight: 576, Buffer: 3}
}

func seed(t *testing.T, st *store.Store, msgs ...model.Message) {
	t.Helper()
	for _, m := range msgs {
		_, err := st.Put(m)
		testutil.MustNoErr(t, err, "seed message")
	}
}

func newView(t *testing.T, st *store.Store, bus *broadcast.Bus) *Context {
	t.Helper()
	v, err := New(st, bus, testCfg(), nil)
	testutil.MustNoErr(t, err, "new view")
	t.Cleanup(v.Close)
	return v
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestPeerViewConvergesAfterOpenMessage(t *testing.T) {
	st := testutil.NewStore(t)
	seed(t, st,
		model.Message{ID: "m1", From: "a@b.com", Subject: "one", CreatedAt: "2024-01-01 10:00:00"},
		model.Message{ID: "m2", From: "a@b.com", Subject: "two", CreatedAt: "2024-01-01 11:00:00"},
	)

	bus := broadcast.NewBus("inbox", nil)
	a := newView(t, st, bus)
	b := newView(t, st, bus)

	if got := b.List(model.SectionUnread).Total(); got != 2 {
		t.Fatalf("peer unread total = %d before open, want 2", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	m, err := a.OpenMessage("m1")
	testutil.MustNoErr(t, err, "open message")
	if !m.IsRead {
		t.Error("opened message not marked read")
	}

	// The peer converges from the broadcast alone, with no direct call.
	eventually(t, func() bool {
		return b.List(model.SectionUnread).Total() == 1 &&
			b.List(model.SectionRead).Total() == 1
	}, "peer view did not converge after open")
}

func TestOpenMessageAlreadyReadPublishesNothing(t *testing.T) {
	st := testutil.NewStore(t)
	seed(t, st, model.Message{ID: "m1", From: "a@b.com", IsRead: true, CreatedAt: "2024-01-01 10:00:00"})

	bus := broadcast.NewBus("inbox", nil)
	a := newView(t, st, bus)
	witness := bus.Subscribe()
	defer witness.Close()

	if _, err := a.OpenMessage("m1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	select {
	case evt := <-witness.Events():
		t.Errorf("unexpected broadcast %+v for a no-op open", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestOpenMessageUnknownIDIsValidationFailure(t *testing.T) {
	st := testutil.NewStore(t)
	bus := broadcast.NewBus("inbox", nil)
	a := newView(t, st, bus)

	_, err := a.OpenMessage("missing")
	if !fault.IsValidation(err) {
		t.Errorf("error = %v, want validation failure", err)
	}
}

func TestToggleStarFlipsAndNotifies(t *testing.T) {
	st := testutil.NewStore(t)
	seed(t, st, model.Message{ID: "m1", From: "a@b.com", CreatedAt: "2024-01-01 10:00:00"})

	bus := broadcast.NewBus("inbox", nil)
	a := newView(t, st, bus)

	starred, err := a.ToggleStar("m1")
	testutil.MustNoErr(t, err, "toggle")
	if !starred {
		t.Error("first toggle should star")
	}
	starred, err = a.ToggleStar("m1")
	testutil.MustNoErr(t, err, "toggle")
	if starred {
		t.Error("second toggle should unstar")
	}
}

func TestDarkModeSyncsAcrossViews(t *testing.T) {
	st := testutil.NewStore(t)
	bus := broadcast.NewBus("inbox", nil)
	a := newView(t, st, bus)
	b := newView(t, st, bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	testutil.MustNoErr(t, a.SetDarkMode(true), "set dark mode")
	eventually(t, b.DarkMode, "peer did not pick up dark mode")

	// The flag also persisted, so a fresh view starts dark.
	c := newView(t, st, bus)
	if !c.DarkMode() {
		t.Error("fresh view ignored persisted dark mode")
	}
}

func TestSwitchAccountPropagates(t *testing.T) {
	st := testutil.NewStore(t)
	bus := broadcast.NewBus("inbox", nil)
	a := newView(t, st, bus)
	b := newView(t, st, bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	testutil.MustNoErr(t, a.SwitchAccount("fresh@tempmail.example"), "switch")
	if a.Email() != "fresh@tempmail.example" {
		t.Errorf("own email = %q", a.Email())
	}
	eventually(t, func() bool {
		return b.Email() == "fresh@tempmail.example"
	}, "peer did not follow the account switch")

	accounts, err := st.Accounts()
	testutil.MustNoErr(t, err, "accounts")
	if len(accounts) != 1 || accounts[0].Email != "fresh@tempmail.example" {
		t.Errorf("accounts = %+v", accounts)
	}
}

func TestFilterRestrictsSectionAndPersists(t *testing.T) {
	st := testutil.NewStore(t)
	seed(t, st,
		model.Message{ID: "m1", From: "alice@x.com", CreatedAt: "2024-01-01 10:00:00"},
		model.Message{ID: "m2", From: "bob@x.com", CreatedAt: "2024-01-01 11:00:00"},
		model.Message{ID: "m3", From: "alice@x.com", CreatedAt: "2024-01-01 12:00:00"},
	)

	bus := broadcast.NewBus("inbox", nil)
	v := newView(t, st, bus)

	err := v.SetFilter(model.SectionUnread, filter.State{Sender: "alice"})
	testutil.MustNoErr(t, err, "set filter")
	if got := v.List(model.SectionUnread).Total(); got != 2 {
		t.Errorf("filtered total = %d, want 2", got)
	}

	// A plain refresh must not clear the filter.
	testutil.MustNoErr(t, v.Refresh(), "refresh")
	if got := v.List(model.SectionUnread).Total(); got != 2 {
		t.Errorf("total after refresh = %d, filter was lost", got)
	}
	if f := v.FilterState(model.SectionUnread); !f.Active || f.Sender != "alice" {
		t.Errorf("filter state = %+v", f)
	}

	testutil.MustNoErr(t, v.ResetFilter(model.SectionUnread), "reset")
	if got := v.List(model.SectionUnread).Total(); got != 3 {
		t.Errorf("total after reset = %d, want 3", got)
	}
}

func TestSearchReturnsNewestFirst(t *testing.T) {
	st := testutil.NewStore(t)
	seed(t, st,
		model.Message{ID: "m1", From: "a@b.com", Subject: "invoice january", CreatedAt: "2024-01-01 10:00:00"},
		model.Message{ID: "m2", From: "a@b.com", Subject: "weather", CreatedAt: "2024-01-02 10:00:00"},
		model.Message{ID: "m3", From: "a@b.com", Subject: "invoice february", CreatedAt: "2024-02-01 10:00:00"},
	)

	bus := broadcast.NewBus("inbox", nil)
	v := newView(t, st, bus)

	got, err := v.Search("invoice")
	testutil.MustNoErr(t, err, "search")
	if len(got) != 2 || got[0].ID != "m3" || got[1].ID != "m1" {
		t.Errorf("search results = %+v, want m3 then m1", got)
	}
}

func TestSearchSeesMessagesAddedAfterRefresh(t *testing.T) {
	st := testutil.NewStore(t)
	bus := broadcast.NewBus("inbox", nil)
	v := newView(t, st, bus)

	seed(t, st, model.Message{ID: "m1", From: "a@b.com", Subject: "receipt", CreatedAt: "2024-01-01 10:00:00"})

	// Not yet indexed.
	got, err := v.Search("receipt")
	testutil.MustNoErr(t, err, "search")
	if len(got) != 0 {
		t.Fatalf("unindexed message surfaced: %+v", got)
	}

	testutil.MustNoErr(t, v.Refresh(), "refresh")
	got, err = v.Search("receipt")
	testutil.MustNoErr(t, err, "search")
	if len(got) != 1 {
		t.Errorf("results = %d after refresh, want 1", len(got))
	}
}

func TestClearReadRemovesOnlyReadMessages(t *testing.T) {
	st := testutil.NewStore(t)
	seed(t, st,
		model.Message{ID: "m1", From: "a@b.com", IsRead: true, CreatedAt: "2024-01-01 10:00:00"},
		model.Message{ID: "m2", From: "a@b.com", CreatedAt: "2024-01-01 11:00:00"},
		model.Message{ID: "m3", From: "a@b.com", IsRead: true, CreatedAt: "2024-01-01 12:00:00"},
	)

	bus := broadcast.NewBus("inbox", nil)
	v := newView(t, st, bus)

	n, err := v.ClearRead()
	testutil.MustNoErr(t, err, "clear")
	if n != 2 {
		t.Errorf("cleared = %d, want 2", n)
	}
	if got := v.List(model.SectionUnread).Total(); got != 1 {
		t.Errorf("unread total = %d after clear, want 1", got)
	}
	if got := v.List(model.SectionRead).Total(); got != 0 {
		t.Errorf("read total = %d after clear, want 0", got)
	}
}

func TestMarkAllRead(t *testing.T) {
	st := testutil.NewStore(t)
	seed(t, st,
		model.Message{ID: "m1", From: "a@b.com", CreatedAt: "2024-01-01 10:00:00"},
		model.Message{ID: "m2", From: "a@b.com", CreatedAt: "2024-01-01 11:00:00"},
	)

	bus := broadcast.NewBus("inbox", nil)
	v := newView(t, st, bus)

	n, err := v.MarkAllRead()
	testutil.MustNoErr(t, err, "mark all")
	if n != 2 {
		t.Errorf("transitioned = %d, want 2", n)
	}
	if got := v.List(model.SectionRead).Total(); got != 2 {
		t.Errorf("read total = %d, want 2", got)
	}

	// Second pass has nothing to do.
	n, err = v.MarkAllRead()
	testutil.MustNoErr(t, err, "mark all")
	if n != 0 {
		t.Errorf("second pass transitioned %d", n)
	}
}
