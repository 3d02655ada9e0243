// internal/httpserver/server.go
//
// HTTP server wiring for the lettergrid backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     access log).
//   - Public endpoints: "/", "/health".
//   - Game endpoints (optional auth): /game/new, /game/{id}, /game/{id}/action,
//     /game/{id}/submit, /game/{id}/share, /game/{id}/ws.
//   - Daily leaderboard: GET /daily/leaderboard.
//   - Auth + profile/stat endpoints: /auth/*, /stats/me, /games/mine.
//
// Notes:
//   - Sessions live in a store.Store; finished games and daily results are
//     recorded in sqlite.
//   - The websocket route is mounted outside the Timeout middleware so a
//     long-lived connection is not cut after ten seconds.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/robalobadob/lettergrid/apps/go-server/internal/daily"
	"github.com/robalobadob/lettergrid/apps/go-server/internal/game"
	"github.com/robalobadob/lettergrid/apps/go-server/internal/store"
	"github.com/robalobadob/lettergrid/apps/go-server/internal/words"
)

// Config carries the server's collaborators and knobs.
type Config struct {
	Store     store.Store
	DB        *sql.DB
	Validator game.Validator   // defaults to words.Local
	DailySalt string           // defaults to DAILY_SALT or "local_dev_salt"
	GridSize  int              // defaults to game.DefaultGridSize
	Now       func() time.Time // defaults to time.Now
}

// Server bundles router, session store, DB handle and game settings.
type Server struct {
	r         *chi.Mux
	store     store.Store
	db        *sql.DB
	daily     *daily.Store
	validator game.Validator
	salt      string
	gridSize  int
	now       func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg Config) *Server {
	s := &Server{
		r:         chi.NewRouter(),
		store:     cfg.Store,
		db:        cfg.DB,
		daily:     daily.NewStore(cfg.DB),
		validator: cfg.Validator,
		salt:      cfg.DailySalt,
		gridSize:  cfg.GridSize,
		now:       cfg.Now,
	}
	if s.validator == nil {
		s.validator = words.Local{}
	}
	if s.salt == "" {
		s.salt = getEnv("DAILY_SALT", "local_dev_salt")
	}
	if s.gridSize <= 0 {
		s.gridSize = game.DefaultGridSize
	}
	if s.now == nil {
		s.now = time.Now
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(accessLog)       // one zerolog line per request
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(corsFromEnv)     // credentials-friendly CORS

	// Long-lived action stream, no handler timeout.
	s.r.With(s.withOptionalAuth()).Get("/game/{id}/ws", s.handleWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"lettergrid-go","endpoints":["/health","POST /game/new","POST /game/{id}/action","POST /game/{id}/submit","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]int{"words": words.Stats()})
		})

		// Game endpoints, OPTIONAL AUTH (guests can play)
		s.mountGame(r.With(s.withOptionalAuth()))

		// Daily leaderboard is public
		r.Get("/daily/leaderboard", s.handleLeaderboard)

		// Auth + profile/stats
		s.mountAuthRoutes(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// writeError writes a JSON {"error": code} body with status.
func writeError(w http.ResponseWriter, status int, code string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
