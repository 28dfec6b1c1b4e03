// Package searchidx maintains the in-process inverted index over the message
// store.
//
// The index is never persisted. It is rebuilt wholesale whenever the store's
// contents change; a rebuild constructs the new token map aside and swaps it
// in atomically, so concurrent queries see either the previous or the new
// snapshot, never a partially built one.
package searchidx

import (
	"regexp"
	"strings"
	"sync"

	"github.com/tempvault/tempvault/internal/model"
)

// Index maps lowercase tokens to the set of message ids containing them.
type Index struct {
	mu     sync.RWMutex
	tokens map[string]map[string]struct{}
}

// minIndexTokenLen drops short tokens at build time; queries keep tokens one
// character shorter, relying on substring matching to reach long indexed
// words. The asymmetry is deliberate: a two-character search term still
// matches, even though it would never become an index key itself.
const (
	minIndexTokenLen = 3
	minQueryTokenLen = 2
)

var nonWord = regexp.MustCompile(`\W+`)

// New returns an empty index.
func New() *Index {
	return &Index{tokens: make(map[string]map[string]struct{})}
}

// Build replaces the entire index with one derived from msgs. Each message is
// indexed under the tokens of its sender, subject and body.
func (ix *Index) Build(msgs []model.Message) {
	next := make(map[string]map[string]struct{})
	for _, m := range msgs {
		for _, tok := range tokenize(m.From+" "+m.Subject+" "+m.Body, minIndexTokenLen) {
			ids, ok := next[tok]
			if !ok {
				ids = make(map[string]struct{})
				next[tok] = ids
			}
			ids[m.ID] = struct{}{}
		}
	}

	ix.mu.Lock()
	ix.tokens = next
	ix.mu.Unlock()
}

// Query returns the union of message ids matching any token of text. A query
// token matches an index key exactly or as a substring of it, so short terms
// reach longer indexed words.
func (ix *Index) Query(text string) map[string]struct{} {
	result := make(map[string]struct{})
	queryTokens := tokenize(text, minQueryTokenLen)
	if len(queryTokens) == 0 {
		return result
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for _, q := range queryTokens {
		for key, ids := range ix.tokens {
			if key == q || strings.Contains(key, q) {
				for id := range ids {
					result[id] = struct{}{}
				}
			}
		}
	}
	return result
}

// TokenCount returns the number of distinct indexed tokens.
func (ix *Index) TokenCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.tokens)
}

// tokenize lowercases text, splits on non-word runs and drops tokens shorter
// than minLen.
func tokenize(text string, minLen int) []string {
	var out []string
	for _, tok := range nonWord.Split(strings.ToLower(text), -1) {
		if len(tok) >= minLen {
			out = append(out, tok)
		}
	}
	return out
}
