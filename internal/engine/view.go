package engine

import "sort"

type PlayerView struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"username"`
	Score     int    `json:"score"`
}

// RoomView is the serialisable snapshot broadcast to every member. It never
// carries the secret word; guessers see it through HintWord only.
type RoomView struct {
	RoomID            string       `json:"roomId"`
	Config            Config       `json:"config"`
	Players           []PlayerView `json:"players"`
	Phase             Phase        `json:"phase"`
	GameRunning       bool         `json:"gameRunning"`
	GameOver          bool         `json:"gameOver"`
	CurrentRound      int          `json:"currentRound"`
	MaxRounds         int          `json:"maxRounds"`
	DrawerIndex       int          `json:"drawerIndex"`
	DrawerSessionID   string       `json:"currentDrawerSessionId,omitempty"`
	RoundTime         int          `json:"roundTime"`
	HintWord          string       `json:"hintWord"`
	GuessedSessionIDs []string     `json:"playersWhoGuessedCorrectly"`
}

func (r *Room) View() RoomView {
	r.mu.Lock()
	defer r.mu.Unlock()

	players := make([]PlayerView, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, PlayerView{SessionID: p.SessionID, Username: p.Username, Score: p.Score})
	}
	guessed := make([]string, 0, len(r.guessed))
	for id := range r.guessed {
		guessed = append(guessed, id)
	}
	sort.Strings(guessed)

	cfg := r.cfg
	// custom words would give the answer away
	cfg.CustomWords = nil

	return RoomView{
		RoomID:            r.id,
		Config:            cfg,
		Players:           players,
		Phase:             r.phase,
		GameRunning:       r.running,
		GameOver:          r.gameOver,
		CurrentRound:      r.round,
		MaxRounds:         r.maxRounds,
		DrawerIndex:       r.drawerIndex,
		DrawerSessionID:   r.drawerID,
		RoundTime:         r.remaining,
		HintWord:          HintWord(r.word, r.revealed),
		GuessedSessionIDs: guessed,
	}
}
