// internal/httpserver/routes_game.go
//
// Game session endpoints:
//   - POST /game/new            → deal letters and start a session
//   - GET  /game/{id}           → current snapshot
//   - POST /game/{id}/action    → apply one action, return the snapshot
//   - POST /game/{id}/submit    → validate the grid, maybe end as a win
//   - GET  /game/{id}/share     → plain-text shareable result
//
// Sessions belong to the caller that created them (user id, or the guest
// cookie); other callers get 404. Every change goes through store.Update so
// concurrent requests for one session apply in order.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/lettergrid/apps/go-server/internal/daily"
	"github.com/robalobadob/lettergrid/apps/go-server/internal/game"
	"github.com/robalobadob/lettergrid/apps/go-server/internal/letters"
	"github.com/robalobadob/lettergrid/apps/go-server/internal/store"
)

func (s *Server) mountGame(r chi.Router) {
	r.Post("/game/new", s.handleNewGame)
	r.Get("/game/{id}", s.handleGetGame)
	r.Post("/game/{id}/action", s.handleAction)
	r.Post("/game/{id}/submit", s.handleSubmit)
	r.Get("/game/{id}/share", s.handleShare)
}

// snapshot is what clients render.
type snapshot struct {
	GameID    string     `json:"gameId"`
	Mode      game.Phase `json:"mode"`
	Date      string     `json:"date,omitempty"`
	Played    bool       `json:"played,omitempty"` // daily already finished today
	State     game.State `json:"state"`
	Available []string   `json:"available"`
	Remaining int        `json:"remaining"`
	BagLeft   int        `json:"bagLeft"`
	ElapsedMs int64      `json:"elapsedMs"`
}

func (s *Server) snapshot(sess store.Session) snapshot {
	avail := sess.State.Available()
	if avail == nil {
		avail = []string{}
	}
	snap := snapshot{
		GameID:    sess.ID,
		Mode:      sess.Mode,
		Date:      sess.Date,
		State:     sess.State,
		Available: avail,
		Remaining: sess.State.Remaining(),
		ElapsedMs: sess.State.Elapsed(s.now()).Milliseconds(),
	}
	if sess.Bag != nil {
		snap.BagLeft = sess.Bag.Left()
	}
	return snap
}

// errorCode maps a failure to a status and a JSON error code.
func errorCode(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, errUnknownAction):
		return http.StatusBadRequest, "unknown_action"
	case errors.Is(err, letters.ErrBagEmpty):
		return http.StatusConflict, "bag_empty"
	case errors.Is(err, game.ErrNotActive):
		return http.StatusConflict, "not_active"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

func writeErr(w http.ResponseWriter, err error) {
	status, code := errorCode(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("game request")
	}
	writeError(w, status, code)
}

// ------------------------------- new ---------------------------------------

type newGameReq struct {
	Mode string `json:"mode"` // "tutorial" | "daily" | "random" (default)
}

// handleNewGame creates a session and records an owner row in the games
// table. A daily session already in progress today is resumed instead.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	// An empty body asks for the default mode.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	mode := game.Phase(req.Mode)
	if req.Mode == "" {
		mode = game.PhaseRandom
	}
	if !mode.Playable() {
		writeError(w, http.StatusBadRequest, "bad_mode")
		return
	}

	ctx := r.Context()
	now := s.now()
	userID, anonID := s.owner(w, r)
	owner := userID + anonID

	sess := &store.Session{ID: genID(), UserID: userID, AnonID: anonID, Mode: mode}
	if mode == game.PhaseDaily {
		sess.Date = daily.DateKey(now)
		played, err := s.daily.AlreadyPlayed(ctx, owner, sess.Date)
		if err != nil {
			log.Warn().Err(err).Msg("daily already played")
		}
		if played {
			_ = json.NewEncoder(w).Encode(snapshot{Mode: mode, Date: sess.Date, Played: true, State: game.NewState(), Available: []string{}})
			return
		}
		if prev, err := s.store.Daily(ctx, owner, sess.Date); err == nil && !prev.State.Ended {
			_ = json.NewEncoder(w).Encode(s.snapshot(prev))
			return
		}
	}

	s.deal(sess, now)
	if err := s.store.Save(ctx, sess); err != nil {
		log.Error().Err(err).Msg("save game")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}

	// Persist owner row; guests are tracked by their anon cookie
	var uid, aid any
	if userID != "" {
		uid = userID
	} else {
		aid = anonID
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO games (id, user_id, anonymous_id, mode, started_at, status)
		VALUES (?,?,?,?,?,'playing')`, sess.ID, uid, aid, string(mode), now.UTC().Format(time.RFC3339)); err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("insert game row")
	}

	log.Info().Str("gameId", sess.ID).Str("mode", string(mode)).Msg("game started")
	_ = json.NewEncoder(w).Encode(s.snapshot(*sess))
}

// deal gives sess a fresh bag and starts its state with the first rack.
// Daily sessions are dealt from their own date so a restart replays the
// same letters.
func (s *Server) deal(sess *store.Session, now time.Time) {
	at := now
	if sess.Mode == game.PhaseDaily {
		if d, err := time.Parse("2006-01-02", sess.Date); err == nil {
			at = d
		}
	}
	rack, bag := letters.Deal(sess.Mode, at, s.salt)
	st := sess.State
	if st.Grid.Cells == nil {
		st = game.NewState()
	}
	sess.State = game.Apply(st, game.Start{
		Mode:    sess.Mode,
		Letters: rack,
		Rows:    s.gridSize,
		Cols:    s.gridSize,
		At:      now,
	})
	sess.Bag = bag
}

// ------------------------------ lookup -------------------------------------

// session loads the {id} session and checks it belongs to the caller.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (store.Session, error) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return store.Session{}, err
	}
	userID, anonID := s.owner(w, r)
	if sess.Owner() != userID+anonID {
		return store.Session{}, store.ErrNotFound
	}
	return sess, nil
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(s.snapshot(sess))
}

// ------------------------------ actions ------------------------------------

// apply runs one wire action against sess. It returns a verdict for
// submissions and nil otherwise. Actions the reducer ignores are not errors.
func (s *Server) apply(ctx context.Context, sess *store.Session, a wireAction) (*game.Verdict, error) {
	now := s.now()
	wasEnded := sess.State.Ended
	var verdict *game.Verdict

	switch a.Type {
	case "start":
		if sess.State.Startable() {
			s.deal(sess, now)
		}
	case "trade_complete":
		if !sess.State.CanTrade(a.Letter) {
			break
		}
		if sess.Bag == nil {
			return nil, letters.ErrBagEmpty
		}
		drawn, err := sess.Bag.Draw(game.TradeSize)
		if err != nil {
			return nil, err
		}
		sess.State = game.Apply(sess.State, game.CompleteTrade{Letter: a.Letter, Drawn: drawn})
	case "submit":
		out, v, err := game.Submit(ctx, sess.State, s.validator, now)
		if err != nil {
			return nil, err
		}
		sess.State = out
		verdict = &v
	default:
		act, err := a.decode(now)
		if err != nil {
			return nil, err
		}
		sess.State = game.Apply(sess.State, act)
	}

	if !wasEnded && sess.State.Ended {
		s.recordFinish(ctx, *sess, now)
	}
	return verdict, nil
}

// update applies a to the {id} session under the store's per-session lock.
func (s *Server) update(ctx context.Context, id string, a wireAction) (store.Session, *game.Verdict, error) {
	var out store.Session
	var verdict *game.Verdict
	err := s.store.Update(ctx, id, func(sess *store.Session) error {
		v, err := s.apply(ctx, sess, a)
		if err != nil {
			return err
		}
		out, verdict = *sess, v
		return nil
	})
	return out, verdict, err
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var a wireAction
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if a.Type == "submit" {
		s.submit(w, r, sess.ID)
		return
	}
	out, _, err := s.update(r.Context(), sess.ID, a)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(s.snapshot(out))
}

// ------------------------------ submit -------------------------------------

type submitRes struct {
	Verdict game.Verdict `json:"verdict"`
	Game    snapshot     `json:"game"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	s.submit(w, r, sess.ID)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request, id string) {
	out, verdict, err := s.update(r.Context(), id, wireAction{Type: "submit"})
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(submitRes{Verdict: *verdict, Game: s.snapshot(out)})
}

// recordFinish updates the games row and user stats, and stores the daily
// result for a won daily session. Failures are logged, never returned: the
// game itself has already ended.
func (s *Server) recordFinish(ctx context.Context, sess store.Session, now time.Time) {
	status := "lost"
	if sess.State.Won {
		status = "won"
	}
	nWords := len(game.ExtractWords(sess.State.Grid))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("begin finish tx")
		return
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `UPDATE games SET status=?, finished_at=?, words=? WHERE id=?`,
		status, now.UTC().Format(time.RFC3339), nWords, sess.ID); err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("finish game")
	}
	if sess.UserID != "" {
		if err := bumpStats(ctx, tx, sess.UserID, sess.State.Won); err != nil {
			log.Warn().Err(err).Str("user", sess.UserID).Msg("bump stats")
		}
	}
	if err := tx.Commit(); err != nil {
		log.Warn().Err(err).Msg("commit finish tx")
	}

	if sess.Mode == game.PhaseDaily && sess.State.Won {
		err := s.daily.InsertResult(ctx, daily.Result{
			UserID:    sess.Owner(),
			Date:      sess.Date,
			ElapsedMs: sess.State.Elapsed(now).Milliseconds(),
			Words:     nWords,
			Share:     sess.State.ShareText(now),
		})
		if err != nil {
			log.Warn().Err(err).Str("gameId", sess.ID).Msg("insert daily result")
		}
	}
	log.Info().Str("gameId", sess.ID).Str("status", status).Int("words", nWords).Msg("game finished")
}

// ------------------------------- share -------------------------------------

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(sess.State.ShareText(s.now())))
}
