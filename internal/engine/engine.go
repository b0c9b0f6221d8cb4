package engine

import (
	"errors"
	"math/rand/v2"
	"slices"
	"time"
)

var ErrRoomNotFound = errors.New("room not found")
var ErrRoomExists = errors.New("room already exists")
var ErrRoomFull = errors.New("room is full")
var ErrAddressLimit = errors.New("players per address limit reached")
var ErrGameRunning = errors.New("game already running")
var ErrGameOver = errors.New("game is over")
var ErrNotEnoughPlayers = errors.New("at least two players required")
var ErrNotRunning = errors.New("game not running")
var ErrWrongPhase = errors.New("action not allowed in current phase")
var ErrNotYourTurn = errors.New("not your turn")
var ErrNotInRoom = errors.New("player not in room")
var ErrDrawerCannotGuess = errors.New("drawer cannot guess")
var ErrAlreadyGuessed = errors.New("already guessed")
var ErrInvalidWordChoice = errors.New("word was not offered")

// WordSource supplies the vocabulary for a language. Implementations must be
// safe for concurrent readers.
type WordSource interface {
	Words(language string) []string
}

// TurnOutcome describes a transition made by StartNewRound or one of the
// operations that end a turn.
type TurnOutcome struct {
	Ended        bool
	PreviousWord string
	Started      bool
	Drawer       Player
	Choices      []string
	Round        int
	GameOver     bool
	Standings    []Player
	Stopped      bool
}

type GuessResult struct {
	Correct  bool
	Close    bool
	Points   int
	Position int
	Turn     TurnOutcome
}

type TickResult struct {
	Active       bool
	Remaining    int
	HintRevealed bool
	AutoPicked   string
	TimedOut     bool
	Turn         TurnOutcome
}

// Engine applies player actions and timer steps to rooms. It is stateless
// apart from its collaborators; all game state lives in Room.
type Engine struct {
	words WordSource
	now   func() time.Time
	intn  func(n int) int
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand replaces the source of randomness for word offers, auto-picks and
// hint positions. intn must be safe for concurrent use.
func WithRand(intn func(n int) int) Option {
	return func(e *Engine) { e.intn = intn }
}

func New(words WordSource, opts ...Option) *Engine {
	e := &Engine{words: words, now: time.Now, intn: rand.IntN}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Now() time.Time { return e.now() }

// NewRoom builds a room in the lobby with host as its only player.
func (e *Engine) NewRoom(id string, cfg Config, host Player) *Room {
	r := newRoom(id, cfg.Normalize(), e.now())
	host.Score = 0
	r.players = append(r.players, &host)
	return r
}

func (e *Engine) Touch(r *Room) {
	r.mu.Lock()
	r.lastActivity = e.now()
	r.mu.Unlock()
}

// Join adds a player. Joining again with a session that is already a member
// leaves the room unchanged.
func (e *Engine) Join(r *Room, name, session, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.retired {
		return ErrRoomNotFound
	}
	if r.gameOver {
		return ErrGameOver
	}
	if r.playerLocked(session) != nil {
		r.lastActivity = e.now()
		return nil
	}
	if len(r.players) >= r.cfg.MaxPlayers {
		return ErrRoomFull
	}
	if address != "" && r.cfg.PlayersPerIPLimit > 0 {
		same := 0
		for _, p := range r.players {
			if p.Address == address {
				same++
			}
		}
		if same >= r.cfg.PlayersPerIPLimit {
			return ErrAddressLimit
		}
	}
	r.players = append(r.players, &Player{SessionID: session, Username: name, Address: address})
	r.lastActivity = e.now()
	return nil
}

// Departure describes what Leave did to a room.
type Departure struct {
	Removed   bool
	Player    Player
	WasDrawer bool
	// Remaining is the player count after the removal.
	Remaining int
	// Turn is the hand-off when the drawer of a live turn left.
	Turn      TurnOutcome
}

// Leave removes session and, when they were drawing, hands the turn on while
// still holding the room lock. A Tick or guess never sees the departed drawer.
func (e *Engine) Leave(r *Room, session string) Departure {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, wasDrawer, ok := r.removeLocked(session)
	if !ok {
		return Departure{}
	}
	d := Departure{Removed: true, Player: p, WasDrawer: wasDrawer}
	if wasDrawer {
		d.Turn = e.drawerLeftLocked(r)
	}
	d.Remaining = len(r.players)
	return d
}

// RemovePlayer drops the member bound to session. wasDrawer reports whether
// they were drawing a live turn; the caller then owes a HandleDrawerDisconnect.
// Leave does both in one step.
func (e *Engine) RemovePlayer(r *Room, session string) (removed, wasDrawer bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, wasDrawer, removed = r.removeLocked(session)
	return removed, wasDrawer
}

// HandleDrawerDisconnect moves a running game past a drawer who left.
func (e *Engine) HandleDrawerDisconnect(r *Room) TurnOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return e.drawerLeftLocked(r)
}

func (e *Engine) drawerLeftLocked(r *Room) TurnOutcome {
	if !r.running {
		return TurnOutcome{}
	}
	switch len(r.players) {
	case 0:
		r.running = false
		r.phase = PhaseLobby
		return TurnOutcome{Stopped: true}
	case 1:
		previous := r.word
		e.finishGameLocked(r)
		return TurnOutcome{Ended: true, PreviousWord: previous, GameOver: true, Standings: r.standingsLocked()}
	}
	return e.endTurnLocked(r)
}

// Start begins the first turn of a game in the lobby.
func (e *Engine) Start(r *Room) (TurnOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.retired:
		return TurnOutcome{}, ErrRoomNotFound
	case r.running:
		return TurnOutcome{}, ErrGameRunning
	case r.gameOver:
		return TurnOutcome{}, ErrGameOver
	case len(r.players) < 2:
		return TurnOutcome{}, ErrNotEnoughPlayers
	}
	r.lastActivity = e.now()
	return e.startNewRoundLocked(r), nil
}

// StartNewRound advances the room to the next turn, or to game over once the
// last round has been played.
func (e *Engine) StartNewRound(r *Room) TurnOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return e.startNewRoundLocked(r)
}

func (e *Engine) startNewRoundLocked(r *Room) TurnOutcome {
	if r.gameOver {
		return TurnOutcome{}
	}
	if len(r.players) == 0 {
		r.running = false
		r.phase = PhaseLobby
		return TurnOutcome{Stopped: true}
	}

	r.advanceDrawerLocked()
	if r.round > r.maxRounds {
		e.finishGameLocked(r)
		return TurnOutcome{GameOver: true, Round: r.maxRounds, Standings: r.standingsLocked()}
	}

	r.resetTurnLocked()
	r.running = true
	r.phase = PhaseChoosingWord
	r.remaining = ChoosingSeconds
	r.word = ""
	r.choices = e.offerWordsLocked(r)
	drawer := r.players[r.drawerIndex]
	r.drawerID = drawer.SessionID

	return TurnOutcome{
		Started: true,
		Drawer:  *drawer,
		Choices: slices.Clone(r.choices),
		Round:   r.round,
	}
}

func (e *Engine) endTurnLocked(r *Room) TurnOutcome {
	previous := r.word
	out := e.startNewRoundLocked(r)
	out.Ended = true
	out.PreviousWord = previous
	return out
}

func (e *Engine) finishGameLocked(r *Room) {
	r.running = false
	r.gameOver = true
	r.phase = PhaseGameOver
	r.word = ""
	r.drawerID = ""
	r.choices = nil
	r.remaining = 0
}

// offerWordsLocked draws the drawer's candidates: without replacement from the
// custom pool when there is one, else with replacement from the vocabulary.
func (e *Engine) offerWordsLocked(r *Room) []string {
	n := r.cfg.CustomWordsPerTurn
	if pool := r.cfg.CustomWords; len(pool) > 0 {
		pool = slices.Clone(pool)
		n = min(n, len(pool))
		for i := 0; i < n; i++ {
			j := i + e.intn(len(pool)-i)
			pool[i], pool[j] = pool[j], pool[i]
		}
		return pool[:n]
	}

	var vocab []string
	if e.words != nil {
		vocab = e.words.Words(r.cfg.Language)
	}
	if len(vocab) == 0 {
		vocab = DefaultWords
	}
	out := make([]string, n)
	for i := range out {
		out[i] = vocab[e.intn(len(vocab))]
	}
	return out
}

// ChooseWord commits one of the offered words for the current drawer.
func (e *Engine) ChooseWord(r *Room, session, word string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case !r.running:
		return ErrNotRunning
	case r.phase != PhaseChoosingWord || r.word != "":
		return ErrWrongPhase
	case session != r.drawerID:
		return ErrNotYourTurn
	case !slices.Contains(r.choices, word):
		return ErrInvalidWordChoice
	}
	r.lastActivity = e.now()
	r.commitWordLocked(word)
	return nil
}

// CurrentWord returns the committed word to its drawer only.
func (e *Engine) CurrentWord(r *Room, session string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.word == "" || session != r.drawerID {
		return "", false
	}
	return r.word, true
}

func (r *Room) commitWordLocked(word string) {
	r.word = word
	r.hintTimes = HintSchedule(r.cfg.DrawingTime)
	r.hintsRevealed = 0
	r.remaining = r.cfg.DrawingTime
	r.choices = nil
	r.phase = PhaseDrawing
}

// ProcessGuess checks a chat line against the committed word and scores it.
// A player scores at most once per turn.
func (e *Engine) ProcessGuess(r *Room, session, guess string) (GuessResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return GuessResult{}, ErrNotRunning
	}
	guesser := r.playerLocked(session)
	switch {
	case guesser == nil:
		return GuessResult{}, ErrNotInRoom
	case session == r.drawerID:
		return GuessResult{}, ErrDrawerCannotGuess
	case r.guessed[session]:
		return GuessResult{}, ErrAlreadyGuessed
	}
	r.lastActivity = e.now()
	if r.phase != PhaseDrawing || r.word == "" {
		return GuessResult{}, nil
	}

	normalized, target := normalizeGuess(guess), normalizeGuess(r.word)
	if normalized != target {
		return GuessResult{Close: isCloseGuess(normalized, target)}, nil
	}

	r.guessed[session] = true
	// guessed keeps players who left, so positions stay stable
	position := len(r.guessed)
	elapsed := r.cfg.DrawingTime - r.remaining
	points := CalculatePoints(elapsed, position, r.cfg.ScoringMode, r.cfg.DrawingTime)
	guesser.Score += points
	if drawer := r.playerLocked(r.drawerID); drawer != nil {
		drawer.Score += DrawerBonus
	}

	res := GuessResult{Correct: true, Points: points, Position: position}
	if r.allGuessedLocked() {
		res.Turn = e.endTurnLocked(r)
	}
	return res, nil
}

// Tick advances the room clock by one second.
func (e *Engine) Tick(r *Room) TickResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return TickResult{}
	}
	if r.remaining > 0 {
		r.remaining--
	}
	res := TickResult{Active: true, Remaining: r.remaining}

	if r.phase == PhaseDrawing && r.hintsRevealed < len(r.hintTimes) && slices.Contains(r.hintTimes, r.remaining) {
		e.revealLetterLocked(r)
		r.hintsRevealed++
		res.HintRevealed = true
	}

	switch {
	case r.allGuessedLocked():
		res.Turn = e.endTurnLocked(r)
	case r.remaining == 0 && r.phase == PhaseChoosingWord && len(r.choices) > 0:
		res.AutoPicked = r.choices[e.intn(len(r.choices))]
		r.commitWordLocked(res.AutoPicked)
		res.Remaining = r.remaining
	case r.remaining == 0:
		res.TimedOut = true
		res.Turn = e.endTurnLocked(r)
	}
	return res
}

func (e *Engine) revealLetterLocked(r *Room) {
	var eligible []int
	i := 0
	for _, c := range r.word {
		if !r.revealed[i] && c != ' ' && c != '-' {
			eligible = append(eligible, i)
		}
		i++
	}
	if len(eligible) == 0 {
		return
	}
	r.revealed[eligible[e.intn(len(eligible))]] = true
}

// AddStroke records a drawn segment, or empties the log on a CLEAR event.
func (e *Engine) AddStroke(r *Room, s Stroke) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActivity = e.now()
	if s.IsClear() {
		r.strokes = nil
		return
	}
	r.strokes = append(r.strokes, s)
}
