// internal/game/types.go
//
// Core type definitions for the letter-grid game engine.
// Defines:
//   - Direction / Heading / Edge: orientation enums used by the cursor and grid.
//   - Phase: session lifecycle (not started, tutorial, daily, random).
//   - Tile: one inventory unit of the rack.
//   - State: the complete value threaded through Apply.

package game

import "time"

// Direction controls where the cursor advances after a placement.
type Direction string

const (
	Across Direction = "across"
	Down   Direction = "down"
)

// Flip returns the other direction.
func (d Direction) Flip() Direction {
	if d == Down {
		return Across
	}
	return Down
}

// Heading is a compass step used by arrow moves.
type Heading string

const (
	HeadingUp    Heading = "up"
	HeadingDown  Heading = "down"
	HeadingLeft  Heading = "left"
	HeadingRight Heading = "right"
)

// Phase is the session lifecycle.
// A started session is in one of tutorial, daily or random.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseTutorial   Phase = "tutorial"
	PhaseDaily      Phase = "daily"
	PhaseRandom     Phase = "random"
)

// Playable reports whether p is a mode a session can be started in.
func (p Phase) Playable() bool {
	return p == PhaseTutorial || p == PhaseDaily || p == PhaseRandom
}

// TileID identifies a tile for the lifetime of a session.
type TileID int

// Tile is a letter in the player's rack.
type Tile struct {
	ID     TileID `json:"id"`
	Letter string `json:"letter"` // single uppercase A–Z
	Placed bool   `json:"placed"` // true while the tile sits on the grid
	Fresh  bool   `json:"fresh,omitempty"`
}

// Position is a (row, col) coordinate on the grid.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// State holds everything a single session knows.
// Values are treated as immutable: Apply always builds a new State.
type State struct {
	Grid       Grid      `json:"grid"`
	Tiles      []Tile    `json:"tiles"`
	NextTileID TileID    `json:"nextTileId"`
	Cursor     Position  `json:"cursor"`
	Direction  Direction `json:"direction"`

	Phase   Phase `json:"phase"`
	Paused  bool  `json:"paused"`
	Ended   bool  `json:"ended"`
	Won     bool  `json:"won"`
	Trading bool  `json:"trading"`

	StartTime time.Time     `json:"startTime"`
	EndTime   *time.Time    `json:"endTime,omitempty"`  // non-nil iff Ended
	PausedAt  *time.Time    `json:"pausedAt,omitempty"` // non-nil iff Paused
	PausedFor time.Duration `json:"pausedFor"`
}
