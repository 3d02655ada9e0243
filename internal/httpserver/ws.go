// internal/httpserver/ws.go
//
// Websocket action stream at GET /game/{id}/ws. Each text frame carries one
// wire action; each reply carries the resulting snapshot, a verdict for
// submissions, or an error code.

package httpserver

import (
	"net/http"
	"os"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/lettergrid/apps/go-server/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// checkOrigin accepts same-host requests, non-browser clients without an
// Origin header, and the configured CLIENT_ORIGIN.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host {
		return true
	}
	allowed := os.Getenv("CLIENT_ORIGIN")
	if allowed == "" {
		allowed = "http://localhost:5173"
	}
	return origin == allowed
}

// wsReply answers one frame of the action stream.
type wsReply struct {
	Game    *snapshot     `json:"game,omitempty"`
	Verdict *game.Verdict `json:"verdict,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// handleWS streams actions for one session: each text frame is a wire
// action, each reply the resulting snapshot. The first reply is sent on
// connect.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		writeErr(w, err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	logger := log.With().Str("gameId", sess.ID).Logger()
	logger.Debug().Msg("ws connected")
	defer func() { logger.Debug().Msg("ws closed") }()

	snap := s.snapshot(sess)
	if err := conn.WriteJSON(wsReply{Game: &snap}); err != nil {
		return
	}
	for {
		var a wireAction
		if err := conn.ReadJSON(&a); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug().Err(err).Msg("ws read")
			}
			return
		}
		var reply wsReply
		out, verdict, err := s.update(r.Context(), sess.ID, a)
		if err != nil {
			_, reply.Error = errorCode(err)
		} else {
			snap := s.snapshot(out)
			reply.Game, reply.Verdict = &snap, verdict
		}
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}
