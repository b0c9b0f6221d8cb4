package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/sketchparty-backend/internal/engine"
	"github.com/DoyleJ11/sketchparty-backend/internal/game"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, ErrDuplicate},
		{"connection failure", &pgconn.PgError{Code: "08006"}, ErrUnavailable},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, ErrUnavailable},
		{"other pg error", &pgconn.PgError{Code: "42P01"}, ErrUnexpected},
		{"wrapped pg error", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), ErrDuplicate},
		{"deadline", context.DeadlineExceeded, context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err, "cause stays in the chain")
		})
	}

	assert.NoError(t, classify(nil))
	plain := errors.New("boom")
	assert.Same(t, plain, classify(plain))
}

// openTestStore connects to SCRIBBLE_TEST_DATABASE_URL, skipping when unset.
func openTestStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := os.Getenv("SCRIBBLE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SCRIBBLE_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Open(ctx, dsn, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		s.db.Exec("DELETE FROM player_results")
		s.db.Exec("DELETE FROM game_results")
		_ = s.Close()
	})
	return s
}

func TestGormStore_RecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)

	for i, room := range []string{"older", "newer"} {
		require.NoError(t, s.RecordGame(ctx, game.GameRecord{
			RoomID:      room,
			Language:    "English",
			ScoringMode: "Normal",
			Rounds:      3,
			Standings: []engine.Player{
				{Username: "ann", Score: 400 + i},
				{Username: "ben", Score: 250},
			},
			FinishedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	games, err := s.RecentGames(ctx, 10)
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, "newer", games[0].RoomID)
	assert.Equal(t, "ann", games[0].Winner)
	assert.Equal(t, 401, games[0].WinnerScore)
	require.Len(t, games[0].Players, 2)
	assert.Equal(t, 1, games[0].Players[0].Rank)
	assert.Equal(t, "ben", games[0].Players[1].Username)

	limited, err := s.RecentGames(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGormStore_RecordWithoutPlayers(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.RecordGame(context.Background(), game.GameRecord{
		RoomID:     "empty",
		FinishedAt: time.Now().UTC(),
	}))

	games, err := s.RecentGames(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Empty(t, games[0].Winner)
	assert.Empty(t, games[0].Players)
}
