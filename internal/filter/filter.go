// Package filter evaluates message filter predicates.
//
// Matches is pure and total: every clause that is absent or empty never
// excludes, and all present clauses are AND-combined. The store applies the
// same predicate while iterating rows, so pagination through the store and
// in-memory filtering always agree.
package filter

import (
	"strings"
	"time"

	"github.com/tempvault/tempvault/internal/model"
)

// Status is the mutually exclusive category clause of a filter.
type Status string

const (
	StatusAll         Status = "all"
	StatusRead        Status = "read"
	StatusUnread      Status = "unread"
	StatusStarred     Status = "starred"
	StatusUnstarred   Status = "unstarred"
	StatusAttachments Status = "attachments"
)

// State is one logical section's filter. It persists across renders within a
// session and is cleared only by an explicit Reset.
type State struct {
	Status   Status `json:"status"`
	DateFrom string `json:"dateFrom"` // inclusive, day granularity
	DateTo   string `json:"dateTo"`   // inclusive, day granularity
	Sender   string `json:"sender"`   // case-insensitive substring
	Keyword  string `json:"keyword"`  // case-insensitive substring over subject+body
	Active   bool   `json:"active"`
}

// Reset clears every clause.
func (s *State) Reset() {
	*s = State{Status: StatusAll}
}

// IsEmpty reports whether no clause restricts anything.
func (s State) IsEmpty() bool {
	return (s.Status == "" || s.Status == StatusAll) &&
		s.DateFrom == "" && s.DateTo == "" && s.Sender == "" && s.Keyword == ""
}

// Matches reports whether m passes every clause of f.
func Matches(m model.Message, f State) bool {
	if !matchStatus(m, f.Status) {
		return false
	}
	if !matchDateRange(m.CreatedAt, f.DateFrom, f.DateTo) {
		return false
	}
	if f.Sender != "" && !containsFold(m.From, f.Sender) {
		return false
	}
	if f.Keyword != "" && !containsFold(m.Subject+" "+m.Body, f.Keyword) {
		return false
	}
	return true
}

func matchStatus(m model.Message, status Status) bool {
	switch status {
	case StatusRead:
		return m.IsRead
	case StatusUnread:
		return !m.IsRead
	case StatusStarred:
		return m.Starred
	case StatusUnstarred:
		return !m.Starred
	case StatusAttachments:
		return m.HasAttachments
	default:
		// "", "all" and unknown values do not exclude
		return true
	}
}

// matchDateRange compares at day granularity. Invalid dates fail open: a
// bound or message timestamp that does not parse is treated as non-excluding.
func matchDateRange(createdAt, from, to string) bool {
	if from == "" && to == "" {
		return true
	}
	created, ok := parseDay(createdAt)
	if !ok {
		return true
	}
	if from != "" {
		if lo, ok := parseDay(from); ok && created.Before(lo) {
			return false
		}
	}
	if to != "" {
		if hi, ok := parseDay(to); ok && created.After(hi) {
			return false
		}
	}
	return true
}

func parseDay(s string) (time.Time, bool) {
	t, ok := model.ParseCreatedAt(s)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
