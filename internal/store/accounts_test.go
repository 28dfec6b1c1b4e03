package store_test

import (
	"fmt"
	"testing"

	"github.com/tempvault/tempvault/internal/testutil"
)

func TestAccountsInsertionOrderAndUniqueness(t *testing.T) {
	s := newStore(t)

	for _, email := range []string{"a@x.test", "b@x.test", "a@x.test", "c@x.test"} {
		testutil.MustNoErr(t, s.AddAccount(email), "add account")
	}

	accounts, err := s.Accounts()
	testutil.MustNoErr(t, err, "list accounts")

	var emails []string
	for _, a := range accounts {
		emails = append(emails, a.Email)
	}
	testutil.AssertEqualSlices(t, emails, "a@x.test", "b@x.test", "c@x.test")
}

func TestRemoveCurrentAccountPromotesFirstRemaining(t *testing.T) {
	s := newStore(t)
	testutil.MustNoErr(t, s.AddAccount("first@x.test"), "add")
	testutil.MustNoErr(t, s.SetCurrentAccount("second@x.test"), "set current")

	testutil.MustNoErr(t, s.RemoveAccount("second@x.test"), "remove current")

	current, err := s.CurrentAccount()
	testutil.MustNoErr(t, err, "current")
	if current != "first@x.test" {
		t.Errorf("current = %q, want promoted first@x.test", current)
	}

	testutil.MustNoErr(t, s.RemoveAccount("first@x.test"), "remove last")
	current, err = s.CurrentAccount()
	testutil.MustNoErr(t, err, "current after removing all")
	if current != "" {
		t.Errorf("current = %q, want none", current)
	}
}

func TestRemoveNonCurrentAccountKeepsCurrent(t *testing.T) {
	s := newStore(t)
	testutil.MustNoErr(t, s.SetCurrentAccount("keep@x.test"), "set current")
	testutil.MustNoErr(t, s.AddAccount("other@x.test"), "add")

	testutil.MustNoErr(t, s.RemoveAccount("other@x.test"), "remove other")

	current, _ := s.CurrentAccount()
	if current != "keep@x.test" {
		t.Errorf("current = %q, want keep@x.test", current)
	}
}

func TestDarkModePref(t *testing.T) {
	s := newStore(t)

	on, err := s.DarkMode()
	testutil.MustNoErr(t, err, "default dark mode")
	if on {
		t.Error("dark mode should default off")
	}

	testutil.MustNoErr(t, s.SetDarkMode(true), "set dark mode")
	on, _ = s.DarkMode()
	if !on {
		t.Error("dark mode not persisted")
	}
}

func TestActivityRingEvictsOldest(t *testing.T) {
	s := newStore(t)

	for i := 0; i < 60; i++ {
		testutil.MustNoErr(t, s.RecordActivity("open", fmt.Sprintf("msg-%d", i)), "record")
	}

	recent, err := s.RecentActivity(100)
	testutil.MustNoErr(t, err, "recent")
	if len(recent) != 50 {
		t.Fatalf("ring holds %d events, want 50", len(recent))
	}
	if recent[0].Detail != "msg-59" {
		t.Errorf("newest first: got %q", recent[0].Detail)
	}
	if recent[len(recent)-1].Detail != "msg-10" {
		t.Errorf("oldest surviving should be msg-10, got %q", recent[len(recent)-1].Detail)
	}
}
