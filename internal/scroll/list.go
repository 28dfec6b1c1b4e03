package scroll

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tempvault/tempvault/internal/model"
)

// SortOrder orders rows by message timestamp.
type SortOrder string

const (
	SortNewestFirst SortOrder = "desc"
	SortOldestFirst SortOrder = "asc"
)

// Pager supplies row counts and fixed-size pages of an ordered message list.
type Pager interface {
	Count() (int, error)
	Page(limit, offset int) ([]model.Message, error)
}

// Config sizes the window geometry and page loads.
type Config struct {
	PageSize       int
	ItemHeight     int
	ViewportHeight int
	Buffer         int
}

// Row is one materialized list entry with its canvas position.
type Row struct {
	Index int
	Top   int
	Msg   model.Message
}

// List combines paged loading with window materialization for one section.
//
// Pages append in the pager's order; the sort order reorders rows within each
// loaded page only, never across pages. A generation counter serializes
// competing refreshes: whichever call observes a newer generation discards
// its own fetch, so the most recent request wins. The loading latch keeps at
// most one page fetch in flight.
type List struct {
	pager Pager
	cfg   Config

	mu           sync.Mutex
	items        []model.Message
	total        int
	scrollOffset int
	sortOrder    SortOrder
	loading      bool
	gen          uint64
}

// NewList creates an empty list; call Refresh to load the first page.
func NewList(p Pager, cfg Config) *List {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	return &List{pager: p, cfg: cfg, sortOrder: SortNewestFirst}
}

// Refresh drops all loaded rows, re-reads the count, and loads the first
// page. Concurrent refreshes may overlap; only the latest one's result is
// kept.
func (l *List) Refresh() error {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.mu.Unlock()

	total, err := l.pager.Count()
	if err != nil {
		return fmt.Errorf("refresh list: %w", err)
	}
	page, err := l.pager.Page(l.cfg.PageSize, 0)
	if err != nil {
		return fmt.Errorf("refresh list: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != gen {
		// A newer refresh started while we were fetching.
		return nil
	}
	l.total = total
	l.items = l.sortPage(page)
	l.scrollOffset = 0
	return nil
}

// SetScroll records the new scroll position, loads the next page when the
// window is approaching the end of loaded rows, and returns the row range to
// materialize. A fetch already in flight is never duplicated; the movement
// that follows it triggers the next load.
func (l *List) SetScroll(offset int) (Range, error) {
	l.mu.Lock()
	if offset < 0 {
		offset = 0
	}
	l.scrollOffset = offset
	r := l.window()

	needMore := r.End+l.cfg.PageSize > len(l.items) && len(l.items) < l.total && !l.loading
	if !needMore {
		l.mu.Unlock()
		return r, nil
	}
	l.loading = true
	gen := l.gen
	loaded := len(l.items)
	l.mu.Unlock()

	page, err := l.pager.Page(l.cfg.PageSize, loaded)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
	if err != nil {
		return l.window(), fmt.Errorf("load page at %d: %w", loaded, err)
	}
	if l.gen != gen || len(l.items) != loaded {
		// The list was refreshed underneath this fetch, either before or
		// after the generation was captured. The page was fetched at an
		// offset that no longer lines up with the loaded rows, so it is
		// dropped; the next scroll movement reloads from the right offset.
		return l.window(), nil
	}
	l.items = append(l.items, l.sortPage(page)...)
	return l.window(), nil
}

// SetSortOrder changes the per-page ordering for subsequently loaded pages.
// Callers refresh afterward to re-sort what is already loaded.
func (l *List) SetSortOrder(o SortOrder) {
	l.mu.Lock()
	l.sortOrder = o
	l.mu.Unlock()
}

// SortOrder returns the current per-page ordering.
func (l *List) SortOrder() SortOrder {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sortOrder
}

// Visible returns the rows inside the current window that are loaded.
func (l *List) Visible() []Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.window()
	rows := make([]Row, 0, r.Len())
	for i := r.Start; i < r.End && i < len(l.items); i++ {
		rows = append(rows, Row{
			Index: i,
			Top:   RowTop(i, l.cfg.ItemHeight),
			Msg:   l.items[i],
		})
	}
	return rows
}

// Total returns the section's full row count, loaded or not.
func (l *List) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Loaded returns how many rows are materialized so far.
func (l *List) Loaded() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// ScrollOffset returns the last recorded scroll position.
func (l *List) ScrollOffset() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scrollOffset
}

// Height returns the canvas height covering every row.
func (l *List) Height() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return CanvasHeight(l.total, l.cfg.ItemHeight)
}

func (l *List) window() Range {
	return Window(l.scrollOffset, l.cfg.ViewportHeight, l.cfg.ItemHeight, l.cfg.Buffer, l.total)
}

func (l *List) sortPage(page []model.Message) []model.Message {
	asc := l.sortOrder == SortOldestFirst
	sort.SliceStable(page, func(i, j int) bool {
		ti, oki := model.ParseCreatedAt(page[i].CreatedAt)
		tj, okj := model.ParseCreatedAt(page[j].CreatedAt)
		if !oki || !okj {
			if asc {
				return page[i].CreatedAt < page[j].CreatedAt
			}
			return page[i].CreatedAt > page[j].CreatedAt
		}
		if asc {
			return ti.Before(tj)
		}
		return tj.Before(ti)
	})
	return page
}
