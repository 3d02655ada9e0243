package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

// gridFromRows builds a grid from strings, '.' or ' ' marking empty cells.
// Rows shorter than the widest one are padded with empty cells.
func gridFromRows(rows ...string) Grid {
	cols := 1
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	g := NewGrid(len(rows), cols)
	for r, line := range rows {
		for c := 0; c < len(line); c++ {
			if line[c] == '.' || line[c] == ' ' {
				continue
			}
			g = g.With(Position{Row: r, Col: c}, Cell{Letter: string(line[c])})
		}
	}
	return g
}

// started returns a random-mode session dealt letters, started at t0.
func started(t *testing.T, letters ...string) State {
	t.Helper()
	s := Apply(NewState(), Start{Mode: PhaseRandom, Letters: letters, At: t0})
	require.Equal(t, PhaseRandom, s.Phase)
	require.NoError(t, s.Validate())
	return s
}

func tileIDs(tiles []Tile) []TileID {
	out := make([]TileID, len(tiles))
	for i, t := range tiles {
		out[i] = t.ID
	}
	return out
}

func split(word string) []string {
	out := make([]string, len(word))
	for i := range word {
		out[i] = word[i : i+1]
	}
	return out
}
