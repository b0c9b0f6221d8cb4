package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/sketchparty-backend/internal/engine"
	"github.com/DoyleJ11/sketchparty-backend/internal/hub"
	"github.com/DoyleJ11/sketchparty-backend/internal/storage"
)

// GameHistory lists finished games.
type GameHistory interface {
	RecentGames(ctx context.Context, limit int) ([]storage.GameResult, error)
}

const codeAttempts = 10

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	code := make([]byte, 6)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// NewRoomCode hands out a room id no live room uses. The client then creates
// the room over the websocket with it.
func NewRoomCode(h *hub.Hub, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for range codeAttempts {
			code, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			if _, taken := h.Get(code); taken {
				logger.Debug("room code collision, regenerating", zap.String("code", code))
				continue
			}
			writeJSON(w, http.StatusCreated, struct {
				RoomID string `json:"roomId"`
			}{RoomID: code})
			return
		}
		http.Error(w, "failed to generate code", http.StatusServiceUnavailable)
	}
}

func ListLobbies(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms := h.ListPublicJoinable()
		views := make([]engine.RoomView, 0, len(rooms))
		for _, room := range rooms {
			views = append(views, room.View())
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func RoomState(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, ok := h.Get(chi.URLParam(r, "roomId"))
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, room.View())
	}
}

func RecentGames(games GameHistory, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		out, err := games.RecentGames(r.Context(), limit)
		if err != nil {
			logger.Error("recent games failed", zap.Error(err))
			http.Error(w, "failed to load games", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
