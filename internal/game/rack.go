// internal/game/rack.go
//
// Tile rack helpers. Every helper returns a new slice; the input rack is
// never written. Any mutation clears the Fresh marker on existing tiles.

package game

import (
	"strings"

	"github.com/samber/lo"
)

// normalizeLetter upper-cases a single A–Z letter; anything else yields "".
func normalizeLetter(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 1 || s[0] < 'A' || s[0] > 'Z' {
		return ""
	}
	return s
}

// mintTiles creates one unplaced tile per letter with ids starting at next.
// Invalid letters are skipped. It returns the tiles and the next free id.
func mintTiles(letters []string, next TileID, fresh bool) ([]Tile, TileID) {
	out := make([]Tile, 0, len(letters))
	for _, l := range letters {
		if l = normalizeLetter(l); l == "" {
			continue
		}
		out = append(out, Tile{ID: next, Letter: l, Fresh: fresh})
		next++
	}
	return out, next
}

// settle copies the rack with every Fresh marker cleared.
func settle(tiles []Tile) []Tile {
	return lo.Map(tiles, func(t Tile, _ int) Tile {
		t.Fresh = false
		return t
	})
}

// findTile returns the index of the first tile (scan order) with letter and
// the given placed flag, or -1.
func findTile(tiles []Tile, letter string, placed bool) int {
	_, i, ok := lo.FindIndexOf(tiles, func(t Tile) bool {
		return t.Letter == letter && t.Placed == placed
	})
	if !ok {
		return -1
	}
	return i
}

// setPlaced returns a settled copy of tiles with tiles[i].Placed = placed.
func setPlaced(tiles []Tile, i int, placed bool) []Tile {
	out := settle(tiles)
	out[i].Placed = placed
	return out
}

// returnTile marks the tile backing a cleared cell as unplaced.
// It prefers the exact id recorded on the cell and falls back to the first
// placed tile carrying the same letter.
func returnTile(tiles []Tile, c Cell) []Tile {
	if c.Empty() {
		return tiles
	}
	_, i, ok := lo.FindIndexOf(tiles, func(t Tile) bool {
		return t.ID == c.Tile && t.Placed && t.Letter == c.Letter
	})
	if !ok {
		if i = findTile(tiles, c.Letter, true); i < 0 {
			return settle(tiles)
		}
	}
	return setPlaced(tiles, i, false)
}

// Available lists the letters of unplaced tiles in rack order.
func (s State) Available() []string {
	return lo.FilterMap(s.Tiles, func(t Tile, _ int) (string, bool) {
		return t.Letter, !t.Placed
	})
}

// Remaining counts unplaced tiles.
func (s State) Remaining() int {
	return lo.CountBy(s.Tiles, func(t Tile) bool { return !t.Placed })
}

// HasLetter reports whether an unplaced tile with letter exists.
func (s State) HasLetter(letter string) bool {
	return findTile(s.Tiles, normalizeLetter(letter), false) >= 0
}
