// internal/httpserver/routes_daily.go
//
// Daily challenge surface. Daily sessions are created through POST /game/new
// with mode "daily"; every player gets the same letters for a UTC date and
// can finish once per day. A won daily session stores its time, word count
// and share text in daily_results, which feeds:
//   - GET /daily/leaderboard?date=YYYY-MM-DD&limit=N (date defaults to today)

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/lettergrid/apps/go-server/internal/daily"
)

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for ?date= (default today).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(s.now())
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := s.daily.Leaderboard(r.Context(), date, limit)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
