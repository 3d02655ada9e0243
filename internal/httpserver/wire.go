// internal/httpserver/wire.go
//
// JSON form of player actions, shared by POST /game/{id}/action and the
// websocket stream. decode maps the plain actions onto the reducer; start,
// trade_complete and submit need server state and are handled by apply.

package httpserver

import (
	"errors"
	"time"

	"github.com/robalobadob/lettergrid/apps/go-server/internal/game"
)

var errUnknownAction = errors.New("unknown_action")

// wireAction is the JSON form of a player action, shared by the action
// endpoint and the websocket stream. Only the fields the type needs are read.
type wireAction struct {
	Type    string `json:"type"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Letter  string `json:"letter"`
	Heading string `json:"heading"`
	Edge    string `json:"edge"`
}

// decode maps a wire action to a reducer action. Actions that need the
// server (start deals letters, trade_complete draws from the bag, submit
// validates words) are handled by the caller and return nil here.
func (a wireAction) decode(now time.Time) (game.Action, error) {
	pos := game.Position{Row: a.Row, Col: a.Col}
	switch a.Type {
	case "select":
		return game.SelectCell{Pos: pos}, nil
	case "move":
		return game.MoveCursor{Pos: pos}, nil
	case "toggle_direction":
		return game.ToggleDirection{}, nil
	case "arrow":
		return game.ArrowMove{Heading: game.Heading(a.Heading)}, nil
	case "place":
		return game.PlaceLetter{Letter: a.Letter}, nil
	case "clear":
		return game.ClearLetter{Pos: pos}, nil
	case "backspace":
		return game.Backspace{}, nil
	case "expand":
		return game.Expand{Edge: game.Edge(a.Edge)}, nil
	case "use_tile":
		return game.UseTile{Letter: a.Letter}, nil
	case "return_tile":
		return game.ReturnTile{Letter: a.Letter}, nil
	case "trade_begin":
		return game.BeginTrade{}, nil
	case "trade_cancel":
		return game.CancelTrade{}, nil
	case "end":
		// Giving up is always a loss; only a submission can win.
		return game.End{At: now}, nil
	case "pause":
		return game.TogglePause{At: now}, nil
	case "reset":
		return game.Reset{}, nil
	case "start", "trade_complete", "submit":
		return nil, nil
	default:
		return nil, errUnknownAction
	}
}
