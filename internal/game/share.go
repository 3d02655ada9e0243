// internal/game/share.go
//
// Share text for a finished grid:
//   - the bounding box of filled cells, one line per row
//   - elapsed time as m:ss
//   - the number of words on the board

package game

import (
	"fmt"
	"strings"
	"time"
)

// EmptyGlyph stands in for an empty cell inside the shared bounding box.
const EmptyGlyph = "⬜"

// FormatShare renders the filled part of g as a compact text block followed
// by the elapsed time between start and end and the number of words.
func FormatShare(g Grid, start, end time.Time) string {
	return formatShare(g, end.Sub(start))
}

// ShareText renders s for sharing using its pause-adjusted elapsed time.
// For a session still in progress the clock is read at now.
func (s State) ShareText(now time.Time) string {
	return formatShare(s.Grid, s.Elapsed(now))
}

func formatShare(g Grid, elapsed time.Duration) string {
	var b strings.Builder
	if lo, hi, ok := g.Bounds(); ok {
		for r := lo.Row; r <= hi.Row; r++ {
			for c := lo.Col; c <= hi.Col; c++ {
				if cell := g.Cells[r][c]; cell.Empty() {
					b.WriteString(EmptyGlyph)
				} else {
					b.WriteString(cell.Letter)
				}
			}
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Time: %s\n", FormatClock(elapsed))
	fmt.Fprintf(&b, "Words: %d", len(ExtractWords(g)))
	return b.String()
}

// FormatClock renders d as minutes:seconds with zero-padded seconds.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
