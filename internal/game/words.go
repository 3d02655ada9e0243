// internal/game/words.go
//
// Word extraction from a grid: maximal runs of filled cells, across rows
// first and then down columns.

package game

import "strings"

// MinWordLen is the shortest run of letters that counts as a word.
const MinWordLen = 2

// Word is a maximal run of filled cells along one direction.
type Word struct {
	Text      string    `json:"text"`
	Start     Position  `json:"start"`
	Direction Direction `json:"direction"`
}

// ExtractWords returns every maximal horizontal run (rows left to right,
// top to bottom) followed by every maximal vertical run (columns top to
// bottom, left to right) of at least MinWordLen letters.
func ExtractWords(g Grid) []Word {
	var out []Word
	for r := 0; r < g.Rows; r++ {
		out = collectRuns(out, g.Cols, Across, func(i int) Position { return Position{Row: r, Col: i} }, g)
	}
	for c := 0; c < g.Cols; c++ {
		out = collectRuns(out, g.Rows, Down, func(i int) Position { return Position{Row: i, Col: c} }, g)
	}
	return out
}

// collectRuns scans one line of length n, addressing cells through at.
func collectRuns(out []Word, n int, dir Direction, at func(int) Position, g Grid) []Word {
	var sb strings.Builder
	start := 0
	flush := func() {
		if sb.Len() >= MinWordLen {
			out = append(out, Word{Text: sb.String(), Start: at(start), Direction: dir})
		}
		sb.Reset()
	}
	for i := 0; i < n; i++ {
		c := g.At(at(i))
		if c.Empty() {
			flush()
			start = i + 1
			continue
		}
		sb.WriteString(c.Letter)
	}
	flush()
	return out
}

// WordTexts is a convenience that returns only the text of each word.
func WordTexts(words []Word) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Text
	}
	return out
}
