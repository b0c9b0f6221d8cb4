package storage

import "time"

// GameResult is one finished game.
type GameResult struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RoomID      string    `gorm:"size:64;index;not null" json:"roomId"`
	LobbyName   string    `gorm:"size:128" json:"lobbyName,omitempty"`
	Language    string    `gorm:"size:32" json:"language"`
	ScoringMode string    `gorm:"size:16" json:"scoringMode"`
	Rounds      int       `json:"rounds"`
	Winner      string    `gorm:"size:64" json:"winner"`
	WinnerScore int       `json:"winnerScore"`
	FinishedAt  time.Time `gorm:"index;not null" json:"finishedAt"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`

	Players []PlayerResult `gorm:"constraint:OnDelete:CASCADE" json:"players"`
}

// PlayerResult is a player's final placing in a game. Rank starts at 1.
type PlayerResult struct {
	ID           uint   `gorm:"primaryKey" json:"-"`
	GameResultID uint   `gorm:"index;not null" json:"-"`
	Rank         int    `json:"rank"`
	Username     string `gorm:"size:64" json:"username"`
	Score        int    `json:"score"`
}
