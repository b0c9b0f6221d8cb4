// Package storage persists finished games to Postgres.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/DoyleJ11/sketchparty-backend/internal/game"
)

var (
	ErrDuplicate   = errors.New("duplicate record")
	ErrUnavailable = errors.New("database unavailable")
	ErrUnexpected  = errors.New("unexpected database error")
)

const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 100
)

type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to dsn and migrates the schema.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", classify(err))
	}
	s := &GormStore{db: db, logger: logger}

	if err := db.WithContext(ctx).AutoMigrate(&GameResult{}, &PlayerResult{}); err != nil {
		return nil, multierr.Append(fmt.Errorf("migrate: %w", classify(err)), s.Close())
	}
	return s, nil
}

// RecordGame stores a finished game with its standings, ranked in order.
func (s *GormStore) RecordGame(ctx context.Context, rec game.GameRecord) error {
	row := GameResult{
		RoomID:      rec.RoomID,
		LobbyName:   rec.LobbyName,
		Language:    rec.Language,
		ScoringMode: rec.ScoringMode,
		Rounds:      rec.Rounds,
		FinishedAt:  rec.FinishedAt,
	}
	for i, p := range rec.Standings {
		row.Players = append(row.Players, PlayerResult{Rank: i + 1, Username: p.Username, Score: p.Score})
	}
	if len(rec.Standings) > 0 {
		row.Winner = rec.Standings[0].Username
		row.WinnerScore = rec.Standings[0].Score
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record game %s: %w", rec.RoomID, classify(err))
	}
	s.logger.Info("game recorded", zap.String("room", rec.RoomID), zap.Uint("id", row.ID))
	return nil
}

// RecentGames returns the latest finished games, newest first.
func (s *GormStore) RecentGames(ctx context.Context, limit int) ([]GameResult, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	limit = min(limit, MaxRecentLimit)

	var out []GameResult
	err := s.db.WithContext(ctx).
		Preload("Players", func(db *gorm.DB) *gorm.DB { return db.Order("rank ASC") }).
		Order("finished_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("recent games: %w", classify(err))
	}
	return out, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// classify maps driver errors onto the package's sentinels, keeping the
// underlying error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return fmt.Errorf("%w: %w", ErrDuplicate, err)
		case len(pgErr.Code) >= 2 && (pgErr.Code[:2] == "08" || pgErr.Code[:2] == "57"):
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return fmt.Errorf("%w: %w", ErrUnexpected, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
