// internal/game/engine.go
//
// Core state machine for a single letter-grid session.
// Responsibilities:
//   - Start sessions with a dealt rack and an empty grid.
//   - Move the cursor, growing the grid when a move would leave it.
//   - Place and clear letters, keeping the tile rack in sync.
//   - Run the trade ("peel") exchange and the pause/end lifecycle.
//
// Notes:
//   - Apply is pure: it never writes into its input and returns the input
//     unchanged for unknown actions or actions whose preconditions fail.
//   - Arrow moves, backspace and the post-placement advance all reuse the
//     same expand-then-step helpers rather than re-dispatching actions.
package game

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultGridSize is the side of the grid a session starts with.
	DefaultGridSize = 10
	// RackSize is how many letters a session is dealt.
	RackSize = 16
	// TradeSize is how many tiles a completed trade mints.
	TradeSize = 3
)

// NewState returns a fresh not-started session.
func NewState() State {
	return State{
		Grid:      NewGrid(DefaultGridSize, DefaultGridSize),
		Tiles:     []Tile{},
		Cursor:    center(DefaultGridSize, DefaultGridSize),
		Direction: Across,
		Phase:     PhaseNotStarted,
	}
}

// Apply returns the state that results from applying a to s.
func Apply(s State, a Action) State {
	switch a := a.(type) {
	case Start:
		return s.start(a)
	case SelectCell:
		return s.moveTo(a.Pos)
	case MoveCursor:
		return s.moveTo(a.Pos)
	case ToggleDirection:
		s.Direction = s.Direction.Flip()
		return s
	case ArrowMove:
		return s.arrow(a.Heading)
	case PlaceLetter:
		return s.place(a.Letter)
	case ClearLetter:
		return s.clear(a.Pos)
	case Backspace:
		return s.backspace()
	case Expand:
		if !s.active() {
			return s
		}
		return s.expand(a.Edge)
	case UseTile:
		return s.flipTile(a.Letter, false)
	case ReturnTile:
		return s.flipTile(a.Letter, true)
	case BeginTrade:
		if !s.active() || s.Trading {
			return s
		}
		s.Trading = true
		return s
	case CancelTrade:
		s.Trading = false
		return s
	case CompleteTrade:
		return s.trade(a)
	case End:
		return s.end(a)
	case TogglePause:
		return s.togglePause(a.At)
	case Reset:
		return NewState()
	default:
		return s
	}
}

// ApplyAll folds actions over s in order.
func ApplyAll(s State, actions ...Action) State {
	for _, a := range actions {
		s = Apply(s, a)
	}
	return s
}

// active reports whether player input should be accepted.
func (s State) active() bool {
	return s.Phase.Playable() && !s.Paused && !s.Ended
}

// editable reports whether the grid accepts letter edits.
// Trade mode captures letter input, so edits wait until it ends.
func (s State) editable() bool {
	return s.active() && !s.Trading
}

func center(rows, cols int) Position {
	return Position{Row: (rows - 1) / 2, Col: (cols - 1) / 2}
}

// Startable reports whether a Start action would take effect: before the
// first session, or while the current one is paused or over.
func (s State) Startable() bool {
	return s.Phase == PhaseNotStarted || s.Paused || s.Ended
}

func (s State) start(a Start) State {
	if !s.Startable() || !a.Mode.Playable() {
		return s
	}
	rows, cols := a.Rows, a.Cols
	if rows <= 0 {
		rows = DefaultGridSize
	}
	if cols <= 0 {
		cols = DefaultGridSize
	}
	tiles, next := mintTiles(a.Letters, 0, false)
	return State{
		Grid:       NewGrid(rows, cols),
		Tiles:      tiles,
		NextTileID: next,
		Cursor:     center(rows, cols),
		Direction:  Across,
		Phase:      a.Mode,
		StartTime:  a.At,
	}
}

func (s State) moveTo(p Position) State {
	if !s.active() || !s.Grid.InBounds(p) {
		return s
	}
	s.Cursor = p
	return s
}

// expand grows the grid on e and re-offsets the cursor so it keeps
// pointing at the same logical cell.
func (s State) expand(e Edge) State {
	g, off := s.Grid.Expand(e)
	if g.Rows == s.Grid.Rows && g.Cols == s.Grid.Cols {
		return s
	}
	s.Grid = g
	s.Cursor = Position{Row: s.Cursor.Row + off.Row, Col: s.Cursor.Col + off.Col}
	return s
}

// step moves the cursor by d. When that would leave the grid, the grid is
// first expanded on edge so the cursor always ends up one step further.
func (s State) step(d Position, edge Edge) State {
	next := Position{Row: s.Cursor.Row + d.Row, Col: s.Cursor.Col + d.Col}
	if !s.Grid.InBounds(next) {
		s = s.expand(edge)
		next = Position{Row: s.Cursor.Row + d.Row, Col: s.Cursor.Col + d.Col}
	}
	return s.moveTo(next)
}

func headingStep(h Heading) (Position, Edge, bool) {
	switch h {
	case HeadingUp:
		return Position{Row: -1}, EdgeTop, true
	case HeadingDown:
		return Position{Row: 1}, EdgeBottom, true
	case HeadingLeft:
		return Position{Col: -1}, EdgeLeft, true
	case HeadingRight:
		return Position{Col: 1}, EdgeRight, true
	}
	return Position{}, "", false
}

// forward returns the unit step and end edge for direction d.
func forward(d Direction) (Position, Edge) {
	if d == Down {
		return Position{Row: 1}, EdgeBottom
	}
	return Position{Col: 1}, EdgeRight
}

// backward returns the unit step and start edge for direction d.
func backward(d Direction) (Position, Edge) {
	if d == Down {
		return Position{Row: -1}, EdgeTop
	}
	return Position{Col: -1}, EdgeLeft
}

func (s State) arrow(h Heading) State {
	d, edge, ok := headingStep(h)
	if !ok || !s.active() {
		return s
	}
	return s.step(d, edge)
}

// advance moves the cursor to the first empty cell after it in the current
// direction. A line with no empty cell left is extended by one at its end
// and the cursor lands in the new cell.
func (s State) advance() State {
	d, edge := forward(s.Direction)
	p := Position{Row: s.Cursor.Row + d.Row, Col: s.Cursor.Col + d.Col}
	for ; s.Grid.InBounds(p); p = (Position{Row: p.Row + d.Row, Col: p.Col + d.Col}) {
		if s.Grid.At(p).Empty() {
			s.Cursor = p
			return s
		}
	}
	s = s.expand(edge)
	if s.Direction == Down {
		s.Cursor.Row = s.Grid.Rows - 1
	} else {
		s.Cursor.Col = s.Grid.Cols - 1
	}
	return s
}

func (s State) place(letter string) State {
	if !s.editable() {
		return s
	}
	l := normalizeLetter(letter)
	if l == "" {
		return s
	}
	tiles := s.Tiles
	if cur := s.Grid.At(s.Cursor); !cur.Empty() {
		tiles = returnTile(tiles, cur)
	}
	i := findTile(tiles, l, false)
	if i < 0 {
		return s
	}
	tiles = setPlaced(tiles, i, true)
	s.Tiles = tiles
	s.Grid = s.Grid.With(s.Cursor, Cell{Letter: l, Tile: tiles[i].ID})
	return s.advance()
}

func (s State) clear(p Position) State {
	if !s.editable() || !s.Grid.InBounds(p) {
		return s
	}
	c := s.Grid.At(p)
	if c.Empty() {
		return s
	}
	s.Tiles = returnTile(s.Tiles, c)
	s.Grid = s.Grid.With(p, Cell{})
	return s
}

// backspace clears the cursor cell and steps back against the current
// direction. At the start edge of that direction the grid grows there and
// the cursor moves into the new cell, mirroring the forward advance.
func (s State) backspace() State {
	if !s.editable() {
		return s
	}
	s = s.clear(s.Cursor)
	d, edge := backward(s.Direction)
	return s.step(d, edge)
}

// flipTile toggles the first tile with letter whose Placed flag equals
// placed.
func (s State) flipTile(letter string, placed bool) State {
	i := findTile(s.Tiles, normalizeLetter(letter), placed)
	if i < 0 {
		return s
	}
	s.Tiles = setPlaced(s.Tiles, i, !placed)
	return s
}

// CanTrade reports whether a CompleteTrade for letter would take effect,
// given a valid draw. Callers use it before taking letters from a bag.
func (s State) CanTrade(letter string) bool {
	return s.Trading && s.active() && findTile(s.Tiles, normalizeLetter(letter), false) >= 0
}

func (s State) trade(a CompleteTrade) State {
	if !s.CanTrade(a.Letter) || len(a.Drawn) != TradeSize {
		return s
	}
	i := findTile(s.Tiles, normalizeLetter(a.Letter), false)
	minted, next := mintTiles(a.Drawn, s.NextTileID, true)
	if len(minted) != TradeSize {
		return s
	}
	kept := settle(s.Tiles)
	tiles := make([]Tile, 0, len(kept)-1+len(minted))
	tiles = append(tiles, kept[:i]...)
	tiles = append(tiles, kept[i+1:]...)
	s.Tiles = append(tiles, minted...)
	s.NextTileID = next
	s.Trading = false
	return s
}

func (s State) end(a End) State {
	if !s.Phase.Playable() || s.Ended {
		return s
	}
	at := a.At
	if at.Before(s.StartTime) {
		at = s.StartTime
	}
	if s.Paused {
		s = s.togglePause(at)
	}
	s.Ended = true
	s.EndTime = &at
	s.Won = a.Won
	s.Trading = false
	return s
}

func (s State) togglePause(at time.Time) State {
	if !s.Phase.Playable() || s.Ended {
		return s
	}
	if s.Paused {
		if d := at.Sub(*s.PausedAt); d > 0 {
			s.PausedFor += d
		}
		s.PausedAt = nil
		s.Paused = false
		return s
	}
	s.PausedAt = &at
	s.Paused = true
	return s
}

// Elapsed reports play time at now, excluding time spent paused.
// The clock stops at EndTime once the session has ended.
func (s State) Elapsed(now time.Time) time.Duration {
	if !s.Phase.Playable() {
		return 0
	}
	switch {
	case s.Ended:
		now = *s.EndTime
	case s.Paused:
		now = *s.PausedAt
	}
	d := now.Sub(s.StartTime) - s.PausedFor
	if d < 0 {
		return 0
	}
	return d
}

// Validate checks the structural invariants of s. A non-nil error means a
// programming bug, never a player mistake.
func (s State) Validate() error {
	g := s.Grid
	if g.Rows < 1 || g.Cols < 1 || len(g.Cells) != g.Rows {
		return fmt.Errorf("grid: %dx%d with %d rows", g.Rows, g.Cols, len(g.Cells))
	}
	for r, row := range g.Cells {
		if len(row) != g.Cols {
			return fmt.Errorf("grid: row %d has %d cells, want %d", r, len(row), g.Cols)
		}
	}
	if !g.InBounds(s.Cursor) {
		return fmt.Errorf("cursor %+v outside %dx%d", s.Cursor, g.Rows, g.Cols)
	}
	seen := make(map[TileID]struct{}, len(s.Tiles))
	for _, t := range s.Tiles {
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("tile id %d duplicated", t.ID)
		}
		if t.ID >= s.NextTileID {
			return fmt.Errorf("tile id %d not below next id %d", t.ID, s.NextTileID)
		}
		seen[t.ID] = struct{}{}
	}
	if (s.EndTime != nil) != s.Ended {
		return errors.New("end time set without ended flag (or the reverse)")
	}
	if (s.PausedAt != nil) != s.Paused {
		return errors.New("pause time set without paused flag (or the reverse)")
	}
	return nil
}
