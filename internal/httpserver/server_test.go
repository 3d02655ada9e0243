package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/lettergrid/apps/go-server/internal/db"
	"github.com/robalobadob/lettergrid/apps/go-server/internal/game"
	"github.com/robalobadob/lettergrid/apps/go-server/internal/letters"
	"github.com/robalobadob/lettergrid/apps/go-server/internal/store"
	"github.com/robalobadob/lettergrid/apps/go-server/internal/words"
)

var t0 = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

var approveAll = game.ValidatorFunc(func(context.Context, string) (bool, error) { return true, nil })

type fixture struct {
	ts  *httptest.Server
	srv *Server
}

// newFixture starts a server on a temp sqlite file. Its clock starts at t0
// and moves one second per reading.
func newFixture(t *testing.T, v game.Validator) *fixture {
	t.Helper()
	sqlDB, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(sqlDB))
	t.Cleanup(func() { _ = sqlDB.Close() })

	var ticks atomic.Int64
	srv := New(Config{
		Store:     store.NewMemoryStore(),
		DB:        sqlDB,
		Validator: v,
		DailySalt: "test_salt",
		Now:       func() time.Time { return t0.Add(time.Duration(ticks.Add(1)) * time.Second) },
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &fixture{ts: ts, srv: srv}
}

func (f *fixture) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func do(t *testing.T, c *http.Client, method, url string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func (f *fixture) newGame(t *testing.T, c *http.Client, mode string) snapshot {
	t.Helper()
	code, body := do(t, c, http.MethodPost, f.ts.URL+"/game/new", map[string]string{"mode": mode})
	require.Equal(t, http.StatusOK, code, string(body))
	return decode[snapshot](t, body)
}

func (f *fixture) act(t *testing.T, c *http.Client, id string, a wireAction) snapshot {
	t.Helper()
	code, body := do(t, c, http.MethodPost, f.ts.URL+"/game/"+id+"/action", a)
	require.Equal(t, http.StatusOK, code, string(body))
	return decode[snapshot](t, body)
}

// typeWord selects (row, 0) and places each letter of w across.
func (f *fixture) typeWord(t *testing.T, c *http.Client, id string, row int, w string) snapshot {
	t.Helper()
	snap := f.act(t, c, id, wireAction{Type: "select", Row: row, Col: 0})
	for _, r := range w {
		snap = f.act(t, c, id, wireAction{Type: "place", Letter: string(r)})
	}
	return snap
}

func TestHealthAndNotFound(t *testing.T) {
	f := newFixture(t, approveAll)
	c := f.client(t)

	code, body := do(t, c, http.MethodGet, f.ts.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"ok":true}`, string(body))

	code, body = do(t, c, http.MethodGet, f.ts.URL+"/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, `{"error":"not_found"}`, string(body))
}

func TestNewGame_Modes(t *testing.T) {
	f := newFixture(t, approveAll)
	c := f.client(t)

	snap := f.newGame(t, c, "tutorial")
	assert.NotEmpty(t, snap.GameID)
	assert.Equal(t, game.PhaseTutorial, snap.State.Phase)
	assert.Equal(t, letters.Tutorial, snap.Available)
	assert.Equal(t, game.RackSize, snap.Remaining)
	assert.Equal(t, game.Position{Row: 4, Col: 4}, snap.State.Cursor)

	snap = f.newGame(t, c, "")
	assert.Equal(t, game.PhaseRandom, snap.Mode)
	assert.Equal(t, 144-game.RackSize, snap.BagLeft)

	code, body := do(t, c, http.MethodPost, f.ts.URL+"/game/new", map[string]string{"mode": "not_started"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, `{"error":"bad_mode"}`, string(body))
}

func TestTutorialRoundTrip(t *testing.T) {
	require.NoError(t, words.Init())
	f := newFixture(t, words.Local{})
	c := f.client(t)
	id := f.newGame(t, c, "tutorial").GameID

	// Submitting early is rejected with the count of unplaced tiles.
	code, body := do(t, c, http.MethodPost, f.ts.URL+"/game/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, code)
	res := decode[submitRes](t, body)
	assert.False(t, res.Verdict.Accepted)
	assert.Equal(t, game.ReasonTilesRemaining, res.Verdict.Reason)
	assert.Equal(t, game.RackSize, res.Verdict.Remaining)

	f.typeWord(t, c, id, 0, "GAME")
	f.typeWord(t, c, id, 2, "WORD")
	f.typeWord(t, c, id, 4, "TILES")
	snap := f.typeWord(t, c, id, 6, "PLY")
	require.Zero(t, snap.Remaining)
	require.NoError(t, snap.State.Validate())

	code, body = do(t, c, http.MethodPost, f.ts.URL+"/game/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, code, string(body))
	res = decode[submitRes](t, body)
	assert.True(t, res.Verdict.Accepted)
	assert.Equal(t, []string{"GAME", "WORD", "TILES", "PLY"}, res.Verdict.Words)
	assert.True(t, res.Game.State.Ended)
	assert.True(t, res.Game.State.Won)

	// Once ended, input is ignored and submission is refused.
	snap = f.act(t, c, id, wireAction{Type: "place", Letter: "A"})
	assert.Equal(t, res.Game.State.Grid, snap.State.Grid)
	code, body = do(t, c, http.MethodPost, f.ts.URL+"/game/"+id+"/submit", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.JSONEq(t, `{"error":"not_active"}`, string(body))

	req, _ := http.NewRequest(http.MethodGet, f.ts.URL+"/game/"+id+"/share", nil)
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	text, _ := io.ReadAll(resp.Body)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	lines := strings.Split(string(text), "\n")
	assert.Equal(t, "⬜", string([]rune(lines[1])[0]), "gap row between words")
	assert.Contains(t, string(text), "Words: 4")
}

func TestSubmit_InvalidWords(t *testing.T) {
	reject := game.ValidatorFunc(func(_ context.Context, w string) (bool, error) { return w != "ply", nil })
	f := newFixture(t, reject)
	c := f.client(t)
	id := f.newGame(t, c, "tutorial").GameID

	f.typeWord(t, c, id, 0, "GAME")
	f.typeWord(t, c, id, 2, "WORD")
	f.typeWord(t, c, id, 4, "TILES")
	f.typeWord(t, c, id, 6, "PLY")

	code, body := do(t, c, http.MethodPost, f.ts.URL+"/game/"+id+"/action", wireAction{Type: "submit"})
	require.Equal(t, http.StatusOK, code)
	res := decode[submitRes](t, body)
	assert.False(t, res.Verdict.Accepted)
	assert.Equal(t, game.ReasonInvalidWords, res.Verdict.Reason)
	assert.Equal(t, []string{"PLY"}, res.Verdict.Invalid)
	assert.False(t, res.Game.State.Ended)
}

func TestActions(t *testing.T) {
	f := newFixture(t, approveAll)
	c := f.client(t)
	id := f.newGame(t, c, "random").GameID

	snap := f.act(t, c, id, wireAction{Type: "expand", Edge: "top"})
	assert.Equal(t, 11, snap.State.Grid.Rows)
	assert.Equal(t, 5, snap.State.Cursor.Row, "cursor keeps its cell")

	snap = f.act(t, c, id, wireAction{Type: "toggle_direction"})
	assert.Equal(t, game.Down, snap.State.Direction)

	snap = f.act(t, c, id, wireAction{Type: "arrow", Heading: "left"})
	assert.Equal(t, 3, snap.State.Cursor.Col)

	first := snap.Available[0]
	snap = f.act(t, c, id, wireAction{Type: "place", Letter: first})
	assert.Equal(t, game.RackSize-1, snap.Remaining)
	snap = f.act(t, c, id, wireAction{Type: "backspace"})
	assert.Equal(t, game.RackSize-1, snap.Remaining, "backspace clears the cursor cell, which is empty")
	snap = f.act(t, c, id, wireAction{Type: "clear", Row: 5, Col: 3})
	assert.Equal(t, game.RackSize, snap.Remaining)

	snap = f.act(t, c, id, wireAction{Type: "pause"})
	assert.True(t, snap.State.Paused)
	before := snap.State
	snap = f.act(t, c, id, wireAction{Type: "place", Letter: first})
	assert.Equal(t, before.Tiles, snap.State.Tiles, "paused sessions ignore input")
	snap = f.act(t, c, id, wireAction{Type: "pause"})
	assert.False(t, snap.State.Paused)

	code, body := do(t, c, http.MethodPost, f.ts.URL+"/game/"+id+"/action", wireAction{Type: "fly"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, `{"error":"unknown_action"}`, string(body))

	code, _ = do(t, c, http.MethodPost, f.ts.URL+"/game/"+id+"/action", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTradeDrawsFromBag(t *testing.T) {
	f := newFixture(t, approveAll)
	c := f.client(t)
	snap := f.newGame(t, c, "random")
	id := snap.GameID
	letter := snap.Available[0]

	// Without trade mode the completion is ignored and the bag is untouched.
	snap = f.act(t, c, id, wireAction{Type: "trade_complete", Letter: letter})
	assert.Equal(t, 144-game.RackSize, snap.BagLeft)

	snap = f.act(t, c, id, wireAction{Type: "trade_begin"})
	assert.True(t, snap.State.Trading)
	snap = f.act(t, c, id, wireAction{Type: "trade_complete", Letter: letter})
	assert.False(t, snap.State.Trading)
	assert.Equal(t, game.RackSize-1+game.TradeSize, snap.Remaining)
	assert.Equal(t, 144-game.RackSize-game.TradeSize, snap.BagLeft)

	fresh := 0
	for _, tile := range snap.State.Tiles {
		if tile.Fresh {
			fresh++
		}
	}
	assert.Equal(t, game.TradeSize, fresh)
}

func TestDailyLeaderboard(t *testing.T) {
	f := newFixture(t, approveAll)
	c := f.client(t)

	snap := f.newGame(t, c, "daily")
	id := snap.GameID
	assert.Equal(t, "2026-10-18", snap.Date)

	again := f.newGame(t, c, "daily")
	assert.Equal(t, id, again.GameID, "daily session is resumed")
	assert.Equal(t, snap.Available, again.Available)

	other := f.newGame(t, f.client(t), "daily")
	assert.NotEqual(t, id, other.GameID)
	assert.Equal(t, snap.Available, other.Available, "everyone gets the same daily letters")

	for _, l := range snap.Available {
		snap = f.act(t, c, id, wireAction{Type: "place", Letter: l})
	}
	require.Zero(t, snap.Remaining)
	code, body := do(t, c, http.MethodPost, f.ts.URL+"/game/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, code)
	require.True(t, decode[submitRes](t, body).Verdict.Accepted)

	code, body = do(t, c, http.MethodGet, f.ts.URL+"/daily/leaderboard?date=2026-10-18", nil)
	require.Equal(t, http.StatusOK, code)
	lb := decode[lbRes](t, body)
	require.Len(t, lb.Top, 1)
	assert.Equal(t, 1, lb.Top[0].Words)
	assert.Positive(t, lb.Top[0].ElapsedMs)

	played := f.newGame(t, c, "daily")
	assert.True(t, played.Played)
	assert.Empty(t, played.GameID)
}

func TestSessionsArePrivate(t *testing.T) {
	f := newFixture(t, approveAll)
	id := f.newGame(t, f.client(t), "random").GameID

	stranger := f.client(t)
	code, body := do(t, stranger, http.MethodGet, f.ts.URL+"/game/"+id, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, `{"error":"not_found"}`, string(body))

	code, _ = do(t, stranger, http.MethodPost, f.ts.URL+"/game/"+id+"/action", wireAction{Type: "reset"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAuthAndStats(t *testing.T) {
	f := newFixture(t, approveAll)
	c := f.client(t)

	code, _ := do(t, c, http.MethodGet, f.ts.URL+"/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	creds := credentials{Username: "tiler", Password: "correct horse"}
	code, body := do(t, c, http.MethodPost, f.ts.URL+"/auth/signup", creds)
	require.Equal(t, http.StatusOK, code, string(body))

	code, _ = do(t, f.client(t), http.MethodPost, f.ts.URL+"/auth/signup", creds)
	assert.Equal(t, http.StatusConflict, code)

	code, body = do(t, c, http.MethodGet, f.ts.URL+"/auth/me", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "tiler", decode[authUser](t, body).Username)

	id := f.newGame(t, c, "random").GameID
	snap := f.act(t, c, id, wireAction{Type: "end"})
	assert.True(t, snap.State.Ended)

	code, body = do(t, c, http.MethodGet, f.ts.URL+"/stats/me", nil)
	require.Equal(t, http.StatusOK, code)
	stats := decode[map[string]any](t, body)
	assert.EqualValues(t, 1, stats["gamesPlayed"])
	assert.EqualValues(t, 0, stats["wins"])

	code, body = do(t, c, http.MethodGet, f.ts.URL+"/games/mine", nil)
	require.Equal(t, http.StatusOK, code)
	mine := decode[[]map[string]any](t, body)
	require.Len(t, mine, 1)
	assert.Equal(t, "lost", mine[0]["status"])

	fresh := f.client(t)
	code, _ = do(t, fresh, http.MethodPost, f.ts.URL+"/auth/login", credentials{Username: "TILER", Password: "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = do(t, fresh, http.MethodPost, f.ts.URL+"/auth/login", credentials{Username: "TILER", Password: "correct horse"})
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, fresh, http.MethodGet, f.ts.URL+"/game/"+id, nil)
	assert.Equal(t, http.StatusOK, code, "sessions follow the account")

	code, _ = do(t, fresh, http.MethodPost, f.ts.URL+"/auth/logout", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, fresh, http.MethodGet, f.ts.URL+"/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestWebSocketStream(t *testing.T) {
	f := newFixture(t, approveAll)
	c := f.client(t)
	snap := f.newGame(t, c, "tutorial")

	u, err := url.Parse(f.ts.URL)
	require.NoError(t, err)
	header := http.Header{}
	for _, ck := range c.Jar.Cookies(u) {
		header.Add("Cookie", ck.String())
	}
	wsURL := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/game/" + snap.GameID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	var hello wsReply
	require.NoError(t, conn.ReadJSON(&hello))
	require.NotNil(t, hello.Game)
	assert.Equal(t, snap.GameID, hello.Game.GameID)

	require.NoError(t, conn.WriteJSON(wireAction{Type: "place", Letter: "G"}))
	var reply wsReply
	require.NoError(t, conn.ReadJSON(&reply))
	require.NotNil(t, reply.Game)
	assert.Equal(t, "G", reply.Game.State.Grid.Cells[4][4].Letter)
	assert.Equal(t, game.Position{Row: 4, Col: 5}, reply.Game.State.Cursor)

	require.NoError(t, conn.WriteJSON(wireAction{Type: "submit"}))
	reply = wsReply{}
	require.NoError(t, conn.ReadJSON(&reply))
	require.NotNil(t, reply.Verdict)
	assert.Equal(t, game.ReasonTilesRemaining, reply.Verdict.Reason)

	require.NoError(t, conn.WriteJSON(wireAction{Type: "warp"}))
	reply = wsReply{}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "unknown_action", reply.Error)

	// Strangers cannot attach.
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEndIsAlwaysALoss(t *testing.T) {
	f := newFixture(t, approveAll)
	c := f.client(t)
	id := f.newGame(t, c, "daily").GameID

	code, body := do(t, c, http.MethodPost, f.ts.URL+"/game/"+id+"/action", map[string]any{"type": "end", "won": true})
	require.Equal(t, http.StatusOK, code, string(body))
	snap := decode[snapshot](t, body)
	assert.True(t, snap.State.Ended)
	assert.False(t, snap.State.Won)

	code, body = do(t, c, http.MethodGet, f.ts.URL+"/daily/leaderboard?date=2026-10-18", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[lbRes](t, body).Top)
}

func TestNewGame_BadJSON(t *testing.T) {
	f := newFixture(t, approveAll)
	c := f.client(t)

	post := func(body string) (int, []byte) {
		req, err := http.NewRequest(http.MethodPost, f.ts.URL+"/game/new", strings.NewReader(body))
		require.NoError(t, err)
		resp, err := c.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		out, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, out
	}

	code, body := post("{bad")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, `{"error":"bad_json"}`, string(body))

	code, body = post("")
	require.Equal(t, http.StatusOK, code, string(body))
	assert.Equal(t, game.PhaseRandom, decode[snapshot](t, body).Mode)
}

func TestAuth_DatabaseErrors(t *testing.T) {
	f := newFixture(t, approveAll)
	c := f.client(t)

	code, body := do(t, c, http.MethodPost, f.ts.URL+"/auth/signup", credentials{Username: "tiler", Password: "correct horse"})
	require.Equal(t, http.StatusOK, code, string(body))
	code, body = do(t, c, http.MethodGet, f.ts.URL+"/auth/me", nil)
	require.Equal(t, http.StatusOK, code)
	me := decode[authUser](t, body)

	// A row whose word count is not a number cannot be scanned.
	_, err := f.srv.db.Exec(`INSERT INTO games (id, user_id, mode, started_at, words) VALUES ('g1', ?, 'random', '2026-10-18T09:00:00Z', 'many')`, me.ID)
	require.NoError(t, err)
	code, body = do(t, c, http.MethodGet, f.ts.URL+"/games/mine", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.JSONEq(t, `{"error":"db_error"}`, string(body))

	_, err = f.srv.db.Exec(`DROP TABLE games`)
	require.NoError(t, err)
	code, body = do(t, c, http.MethodGet, f.ts.URL+"/games/mine", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.JSONEq(t, `{"error":"db_error"}`, string(body))

	// Signup must not treat a failed lookup as a free username.
	_, err = f.srv.db.Exec(`ALTER TABLE users RENAME TO users_gone`)
	require.NoError(t, err)
	code, body = do(t, f.client(t), http.MethodPost, f.ts.URL+"/auth/signup", credentials{Username: "other", Password: "correct horse"})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.JSONEq(t, `{"error":"db_error"}`, string(body))
}
