// Package testutil provides shared helpers for tempvault tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/tempvault/tempvault/internal/store"
)

// MakeSet builds a map[T]struct{} from the given items.
func MakeSet[T comparable](items ...T) map[T]struct{} {
	m := make(map[T]struct{}, len(items))
	for _, item := range items {
		m[item] = struct{}{}
	}
	return m
}

// AssertEqualSlices compares two slices element-by-element.
func AssertEqualSlices[T comparable](t *testing.T, got []T, want ...T) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("got len %d, want %d: %v", len(got), len(want), got)
		return
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("at index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

// MustNoErr fails the test immediately if err is non-nil.
// Use this for setup operations where failure means the test cannot proceed.
func MustNoErr(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// NewStore returns a Store backed by a database in a test temp directory,
// closed automatically when the test finishes.
func NewStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(filepath.Join(t.TempDir(), "tempvault.db"))
	t.Cleanup(func() { _ = st.Close() })
	return st
}
