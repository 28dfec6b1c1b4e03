// Package model defines the core data types shared across tempvault.
package model

import (
	"strings"
	"time"
)

// Message is one cached inbox entry. The store is the only owner of message
// lifetime; everything else holds transient, derived copies.
//
// HasAttachments and UpdatedAt are stamped by the store on every save and
// must never be set directly by callers.
type Message struct {
	ID             string `json:"id"`
	From           string `json:"from"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	CreatedAt      string `json:"createdAt"`
	IsRead         bool   `json:"isRead"`
	Starred        bool   `json:"starred"`
	HasAttachments bool   `json:"hasAttachments"`
	UpdatedAt      string `json:"updatedAt"`
}

// Account is one known disposable address. Accounts form a small
// insertion-ordered set with one designated current account.
type Account struct {
	Email string `json:"email"`
}

// Section partitions messages by read state: "read" is the inbox view,
// "unread" is the updates view. The empty section places no restriction.
type Section string

const (
	SectionAll    Section = ""
	SectionRead   Section = "read"
	SectionUnread Section = "unread"
)

// TimeLayout is the canonical timestamp format used in stored messages.
const TimeLayout = "2006-01-02 15:04:05"

var createdAtLayouts = []string{
	TimeLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// MessageID derives the dedup key for a message from its creation time and
// sender. The id is a deterministic function of content, not server-assigned:
// re-fetching an already-seen entry is a no-op upsert. The flip side is that
// two genuinely distinct messages sharing sender and timestamp collapse into
// one record, a known limitation of content-derived keys.
//
// When createdAt parses under a known layout it is normalized to
// 2006-01-02T15:04:05; otherwise whitespace is stripped as-is.
func MessageID(createdAt, from string) string {
	ts := stripSpace(createdAt)
	trimmed := strings.TrimSpace(createdAt)
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			ts = t.Format("2006-01-02T15:04:05")
			break
		}
	}
	return ts + "_" + stripSpace(from)
}

// ParseCreatedAt parses a message timestamp under the known layouts.
// The boolean is false when no layout matches.
func ParseCreatedAt(s string) (time.Time, bool) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
