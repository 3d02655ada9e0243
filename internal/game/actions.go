// internal/game/actions.go
//
// The action vocabulary accepted by Apply. An input layer (keyboard, HTTP,
// websocket) decides which action to dispatch; Apply decides what happens.
// Actions carry every external input they need (clock readings, dealt or
// drawn letters) so the transition stays deterministic.

package game

import "time"

// Action is any value Apply understands. Unknown values are ignored.
type Action interface{}

type (
	// Start begins a session in Mode with a freshly dealt rack.
	// Rows/Cols default to DefaultGridSize when zero.
	Start struct {
		Mode    Phase
		Letters []string
		Rows    int
		Cols    int
		At      time.Time
	}

	// SelectCell moves the cursor to a clicked cell.
	SelectCell struct{ Pos Position }

	// MoveCursor moves the cursor programmatically.
	MoveCursor struct{ Pos Position }

	// ToggleDirection flips across/down.
	ToggleDirection struct{}

	// ArrowMove steps the cursor, growing the grid at an edge.
	ArrowMove struct{ Heading Heading }

	// PlaceLetter writes Letter at the cursor and advances.
	PlaceLetter struct{ Letter string }

	// ClearLetter erases the cell at Pos and returns its tile.
	ClearLetter struct{ Pos Position }

	// Backspace clears the cursor cell and steps backwards.
	Backspace struct{}

	// Expand grows the grid by one row or column on Edge.
	Expand struct{ Edge Edge }

	// UseTile marks the first unplaced tile with Letter as placed.
	UseTile struct{ Letter string }

	// ReturnTile marks the first placed tile with Letter as unplaced.
	ReturnTile struct{ Letter string }

	// BeginTrade enters trade-input mode.
	BeginTrade struct{}

	// CancelTrade leaves trade mode without touching the rack.
	CancelTrade struct{}

	// CompleteTrade swaps one unplaced Letter tile for the three Drawn letters.
	CompleteTrade struct {
		Letter string
		Drawn  []string
	}

	// End finishes the session.
	End struct {
		Won bool
		At  time.Time
	}

	// TogglePause pauses or resumes the clock.
	TogglePause struct{ At time.Time }

	// Reset returns to a fresh not-started state.
	Reset struct{}
)
