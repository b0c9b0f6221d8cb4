package engine

import (
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

type Phase string

const (
	PhaseLobby        Phase = "LOBBY"
	PhaseChoosingWord Phase = "CHOOSING_WORD"
	PhaseDrawing      Phase = "DRAWING"
	PhaseGameOver     Phase = "GAME_OVER"
)

type ScoringMode string

const (
	ModeChill       ScoringMode = "Chill"
	ModeNormal      ScoringMode = "Normal"
	ModeCompetitive ScoringMode = "Competitive"
)

// Multiplier scales the raw points of a correct guess.
func (m ScoringMode) Multiplier() float64 {
	switch m {
	case ModeChill:
		return 0.5
	case ModeCompetitive:
		return 1.5
	default:
		return 1.0
	}
}

// Config is the immutable set of creation parameters of a room.
type Config struct {
	Language           string      `json:"language"`
	ScoringMode        ScoringMode `json:"scoringMode"`
	DrawingTime        int         `json:"drawingTime"`
	Rounds             int         `json:"rounds"`
	MaxPlayers         int         `json:"maxPlayers"`
	PlayersPerIPLimit  int         `json:"playersPerIpLimit"`
	CustomWordsPerTurn int         `json:"customWordsPerTurn"`
	CustomWords        []string    `json:"customWords"`
	Private            bool        `json:"isPrivate"`
	LobbyName          string      `json:"lobbyName"`
}

type Player struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"username"`
	Score     int    `json:"score"`
	Address   string `json:"-"`
}

const StrokeClear = "CLEAR"

// Stroke is one drawn segment, or a CLEAR control event.
type Stroke struct {
	Type      string  `json:"type"`
	PrevX     float64 `json:"prevX"`
	PrevY     float64 `json:"prevY"`
	CurrX     float64 `json:"currX"`
	CurrY     float64 `json:"currY"`
	Color     string  `json:"color"`
	LineWidth int     `json:"lineWidth"`
}

func (s Stroke) IsClear() bool { return strings.EqualFold(s.Type, StrokeClear) }

// Room holds the players, configuration and live turn state of one game.
// All fields are guarded by mu; Engine methods take the lock for their whole
// duration and never hold it across I/O.
type Room struct {
	mu sync.Mutex

	id      string
	cfg     Config
	players []*Player

	phase    Phase
	running  bool
	gameOver bool
	// retired rooms are out of the registry and refuse joins and starts
	retired  bool

	word          string
	choices       []string
	drawerID      string
	remaining     int
	guessed       map[string]bool
	revealed      map[int]bool
	hintTimes     []int
	hintsRevealed int
	strokes       []Stroke

	round       int
	maxRounds   int
	drawerIndex int

	lastActivity time.Time
}

func newRoom(id string, cfg Config, now time.Time) *Room {
	return &Room{
		id:           id,
		cfg:          cfg,
		phase:        PhaseLobby,
		guessed:      map[string]bool{},
		revealed:     map[int]bool{},
		round:        1,
		maxRounds:    cfg.Rounds,
		drawerIndex:  -1,
		lastActivity: now,
	}
}

func (r *Room) ID() string { return r.id }

func (r *Room) Config() Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg := r.cfg
	cfg.CustomWords = slices.Clone(r.cfg.CustomWords)
	return cfg
}

func (r *Room) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Room) IsGameOver() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gameOver
}

func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

func (r *Room) HasPlayer(session string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playerLocked(session) != nil
}

// Player returns a copy of the member bound to session.
func (r *Room) Player(session string) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.playerLocked(session)
	if p == nil {
		return Player{}, false
	}
	return *p, true
}

func (r *Room) DrawerID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drawerID
}

func (r *Room) LastActivity() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}

// Strokes returns the stroke log since the last clear, oldest first.
func (r *Room) Strokes() []Stroke {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.strokes)
}

// Choices returns the words currently offered to the drawer.
func (r *Room) Choices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.choices)
}

// Standings returns the players ordered by score, highest first.
func (r *Room) Standings() []Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.standingsLocked()
}

// PublicJoinable reports whether the room belongs in the public lobby list.
func (r *Room) PublicJoinable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.cfg.Private && !r.running && !r.gameOver && len(r.players) > 0
}

// Reapable reports whether the room can be evicted at now. A running room is
// never reapable, however long it has been idle.
func (r *Room) Reapable(now time.Time, publicIdle, privateIdle time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reapableLocked(now, publicIdle, privateIdle)
}

// RetireIfReapable retires the room when Reapable holds, in one critical
// section, so a game starting concurrently is never evicted.
func (r *Room) RetireIfReapable(now time.Time, publicIdle, privateIdle time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reapableLocked(now, publicIdle, privateIdle) {
		r.retired = true
	}
	return r.retired
}

// RetireIfEmpty retires the room when nobody is left in it.
func (r *Room) RetireIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.players) == 0 {
		r.retired = true
	}
	return r.retired
}

func (r *Room) reapableLocked(now time.Time, publicIdle, privateIdle time.Duration) bool {
	if r.running {
		return false
	}
	threshold := publicIdle
	if r.cfg.Private {
		threshold = privateIdle
	}
	return len(r.players) == 0 || now.Sub(r.lastActivity) > threshold
}

// removeLocked drops session from the player list and the rotation. The
// guessed set keeps its entry: positions of later guessers must not shift.
func (r *Room) removeLocked(session string) (p Player, wasDrawer, ok bool) {
	idx := slices.IndexFunc(r.players, func(p *Player) bool { return p.SessionID == session })
	if idx < 0 {
		return Player{}, false, false
	}
	p = *r.players[idx]
	wasDrawer = r.running && r.drawerID == session
	r.players = slices.Delete(r.players, idx, idx+1)
	r.removeFromRotationLocked(idx)
	return p, wasDrawer, true
}

func (r *Room) playerLocked(session string) *Player {
	for _, p := range r.players {
		if p.SessionID == session {
			return p
		}
	}
	return nil
}

func (r *Room) standingsLocked() []Player {
	out := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func (r *Room) resetTurnLocked() {
	clear(r.guessed)
	clear(r.revealed)
	r.strokes = nil
	r.hintTimes = nil
	r.hintsRevealed = 0
}

// allGuessedLocked reports whether every non-drawer still in the room has
// guessed the word this turn.
func (r *Room) allGuessedLocked() bool {
	if r.phase != PhaseDrawing {
		return false
	}
	guessers, guessed := 0, 0
	for _, p := range r.players {
		if p.SessionID == r.drawerID {
			continue
		}
		guessers++
		if r.guessed[p.SessionID] {
			guessed++
		}
	}
	return guessers > 0 && guessed >= guessers
}
