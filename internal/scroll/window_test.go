package scroll

import "testing"

func TestWindow(t *testing.T) {
	cases := []struct {
		name     string
		offset   int
		viewport int
		item     int
		buffer   int
		total    int
		want     Range
	}{
		{"top of list", 0, 576, 72, 3, 100, Range{0, 11}},
		{"mid list includes both buffers", 720, 576, 72, 3, 100, Range{7, 21}},
		{"partial row at bottom rounds up", 30, 576, 72, 3, 100, Range{0, 12}},
		{"clamped at end", 7000, 576, 72, 3, 100, Range{94, 100}},
		{"total smaller than viewport", 0, 576, 72, 3, 4, Range{0, 4}},
		{"empty list", 0, 576, 72, 3, 0, Range{0, 0}},
		{"negative offset treated as top", -50, 576, 72, 3, 100, Range{0, 11}},
		{"zero buffer", 144, 576, 72, 0, 100, Range{2, 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Window(tc.offset, tc.viewport, tc.item, tc.buffer, tc.total)
			if got != tc.want {
				t.Errorf("Window(%d, %d, %d, %d, %d) = %+v, want %+v",
					tc.offset, tc.viewport, tc.item, tc.buffer, tc.total, got, tc.want)
			}
		})
	}
}

func TestWindowNeverExceedsBounds(t *testing.T) {
	for offset := 0; offset < 10000; offset += 37 {
		r := Window(offset, 576, 72, 3, 53)
		if r.Start < 0 || r.End > 53 || r.Start > r.End {
			t.Fatalf("offset %d produced out-of-bounds range %+v", offset, r)
		}
	}
}

func TestCanvasHeight(t *testing.T) {
	if got := CanvasHeight(100, 72); got != 7200 {
		t.Errorf("CanvasHeight = %d, want 7200", got)
	}
	if got := RowTop(5, 72); got != 360 {
		t.Errorf("RowTop = %d, want 360", got)
	}
}
