// Package scroll renders a large message list through a small moving window.
//
// The window calculation is pure arithmetic over scroll offset and fixed row
// height; the List around it owns the paged loading that keeps the window
// backed by data.
package scroll

// Range is a half-open [Start, End) slice of row indexes to materialize.
type Range struct {
	Start int
	End   int
}

// Len returns the number of rows in the range.
func (r Range) Len() int { return r.End - r.Start }

// Window computes the row range worth materializing for the given scroll
// position. buffer extra rows are included on each side so small scroll
// movements stay inside already-materialized rows. The result is clamped to
// [0, total).
func Window(scrollOffset, viewportHeight, itemHeight, buffer, total int) Range {
	if itemHeight <= 0 || total <= 0 {
		return Range{}
	}
	if scrollOffset < 0 {
		scrollOffset = 0
	}

	start := scrollOffset/itemHeight - buffer
	if start < 0 {
		start = 0
	}

	bottom := scrollOffset + viewportHeight
	end := bottom/itemHeight + buffer
	if bottom%itemHeight != 0 {
		end++
	}
	if end > total {
		end = total
	}
	if start > end {
		start = end
	}
	return Range{Start: start, End: end}
}

// RowTop returns the pixel offset of the row at index, for absolute
// positioning inside the full-height canvas.
func RowTop(index, itemHeight int) int { return index * itemHeight }

// CanvasHeight returns the total pixel height the list occupies, so the
// scrollbar reflects every row including unmaterialized ones.
func CanvasHeight(total, itemHeight int) int { return total * itemHeight }
