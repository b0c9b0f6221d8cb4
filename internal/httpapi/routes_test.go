package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/sketchparty-backend/internal/engine"
	"github.com/DoyleJ11/sketchparty-backend/internal/hub"
	"github.com/DoyleJ11/sketchparty-backend/internal/storage"
)

type fakeHistory struct {
	limit int
	games []storage.GameResult
	err   error
}

func (f *fakeHistory) RecentGames(_ context.Context, limit int) ([]storage.GameResult, error) {
	f.limit = limit
	return f.games, f.err
}

func newTestHub(t *testing.T) *hub.Hub {
	t.Helper()
	h := hub.NewHub(engine.New(nil))
	_, err := h.Create("open", "ann", "s1", engine.DefaultConfig(), "")
	require.NoError(t, err)
	private := engine.DefaultConfig()
	private.Private = true
	_, err = h.Create("hidden", "ben", "s2", private, "")
	require.NoError(t, err)
	return h
}

func do(t *testing.T, h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(t, SetupRoutes(Deps{Hub: newTestHub(t)}), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListLobbies_OnlyPublicJoinable(t *testing.T) {
	rec := do(t, SetupRoutes(Deps{Hub: newTestHub(t)}), http.MethodGet, "/api/lobby/list", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var views []engine.RoomView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "open", views[0].RoomID)
	assert.Equal(t, engine.PhaseLobby, views[0].Phase)
}

func TestRoomState(t *testing.T) {
	routes := SetupRoutes(Deps{Hub: newTestHub(t)})

	rec := do(t, routes, http.MethodGet, "/api/room/hidden/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view engine.RoomView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "hidden", view.RoomID)
	require.Len(t, view.Players, 1)
	assert.Equal(t, "ben", view.Players[0].Username)

	rec = do(t, routes, http.MethodGet, "/api/room/missing/state", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewRoomCode(t *testing.T) {
	h := newTestHub(t)
	rec := do(t, SetupRoutes(Deps{Hub: h}), http.MethodPost, "/api/rooms/code", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		RoomID string `json:"roomId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.RoomID, 6)
	_, taken := h.Get(body.RoomID)
	assert.False(t, taken)
}

func TestRecentGames(t *testing.T) {
	t.Run("not mounted without a store", func(t *testing.T) {
		rec := do(t, SetupRoutes(Deps{Hub: newTestHub(t)}), http.MethodGet, "/api/games/recent", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("passes the limit through", func(t *testing.T) {
		games := &fakeHistory{games: []storage.GameResult{{RoomID: "r1", Winner: "ann"}}}
		rec := do(t, SetupRoutes(Deps{Hub: newTestHub(t), Games: games}), http.MethodGet, "/api/games/recent?limit=5", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 5, games.limit)

		var out []storage.GameResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out, 1)
		assert.Equal(t, "ann", out[0].Winner)
	})

	t.Run("rejects a bad limit", func(t *testing.T) {
		rec := do(t, SetupRoutes(Deps{Hub: newTestHub(t), Games: &fakeHistory{}}), http.MethodGet, "/api/games/recent?limit=-2", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		games := &fakeHistory{err: errors.New("db down")}
		rec := do(t, SetupRoutes(Deps{Hub: newTestHub(t), Games: games}), http.MethodGet, "/api/games/recent", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestCORS(t *testing.T) {
	routes := SetupRoutes(Deps{Hub: newTestHub(t), AllowedOrigins: []string{"https://play.example.com"}})

	rec := do(t, routes, http.MethodOptions, "/api/lobby/list", http.Header{"Origin": {"https://play.example.com"}})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://play.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, routes, http.MethodGet, "/api/lobby/list", http.Header{"Origin": {"https://evil.example.com"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for range 50 {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Regexp(t, `^[A-HJ-NP-Z2-9]{6}$`, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}
