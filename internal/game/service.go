// Package game turns player actions and timer steps into engine calls and
// publishes the resulting events to the room's subscribers.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/sketchparty-backend/internal/engine"
	"github.com/DoyleJ11/sketchparty-backend/internal/hub"
	"github.com/DoyleJ11/sketchparty-backend/internal/types"
)

var ErrEmptyRoomID = errors.New("room id required")

const (
	ActionCreate = "create"
	ActionJoin   = "join"

	defaultUsername = "Player"
	recordTimeout   = 5 * time.Second
)

// Publisher delivers events to the clients subscribed to a room.
type Publisher interface {
	Subscribe(roomID, session string, outbox chan types.ServerMessage)
	Unsubscribe(roomID, session string)
	Publish(roomID string, msg types.ServerMessage)
	SendTo(roomID, session string, msg types.ServerMessage)
	Close(roomID string)
}

// GameRecord is the final standing of a finished game.
type GameRecord struct {
	RoomID      string
	LobbyName   string
	Language    string
	ScoringMode string
	Rounds      int
	Standings   []engine.Player
	FinishedAt  time.Time
}

type ResultRecorder interface {
	RecordGame(ctx context.Context, rec GameRecord) error
}

type JoinRequest struct {
	RoomID   string
	Username string
	Action   string
	Config   *types.RoomConfigRequest
	// Outbox, when set, is subscribed to the room before any join event
	// is published.
	Outbox chan types.ServerMessage
}

type Service struct {
	engine  *engine.Engine
	hub     *hub.Hub
	pub     Publisher
	results ResultRecorder
	logger  *zap.Logger

	recording sync.WaitGroup
}

// NewService wires the action layer. results may be nil when finished games
// are not persisted.
func NewService(e *engine.Engine, h *hub.Hub, pub Publisher, results ResultRecorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{engine: e, hub: h, pub: pub, results: results, logger: logger}
}

func (s *Service) Hub() *hub.Hub { return s.hub }

// JoinOrCreate puts session into the requested room, creating it for a
// create action. A session already playing elsewhere leaves that room first.
func (s *Service) JoinOrCreate(session, address string, req JoinRequest) (*engine.Room, error) {
	roomID := strings.TrimSpace(req.RoomID)
	if roomID == "" {
		return nil, ErrEmptyRoomID
	}
	name := strings.TrimSpace(req.Username)
	if name == "" {
		name = defaultUsername
	}
	log := s.logger.With(zap.String("room", roomID), zap.String("session", session))

	if prev, ok := s.hub.RoomFor(session); ok && prev.ID() != roomID {
		s.Disconnect(session)
	}

	var (
		room *engine.Room
		err  error
	)
	rejoin := false
	if req.Action == ActionCreate {
		room, err = s.hub.Create(roomID, name, session, req.Config.ToConfig(), address)
	} else {
		var ok bool
		if room, ok = s.hub.Get(roomID); !ok {
			err = engine.ErrRoomNotFound
		} else {
			// a session's frames are handled one at a time, so this cannot race
			// with its own join
			rejoin = room.HasPlayer(session)
			if err = s.engine.Join(room, name, session, address); err == nil {
				s.hub.Bind(session, roomID)
			}
		}
	}
	if err != nil {
		log.Info("join rejected", zap.String("action", req.Action), zap.Error(err))
		return nil, err
	}

	if req.Outbox != nil {
		s.pub.Subscribe(roomID, session, req.Outbox)
	}
	if rejoin {
		s.pub.SendTo(roomID, session, types.StateMessage(room.View()))
		log.Debug("session re-subscribed")
		return room, nil
	}
	s.pub.Publish(roomID, types.ChatEvent(types.ChatMessage{
		Type:            types.ChatJoin,
		Sender:          name,
		SenderSessionID: session,
		Content:         name + " joined!",
	}))
	s.pub.Publish(roomID, types.StateMessage(room.View()))
	if history := room.Strokes(); len(history) > 0 {
		s.pub.SendTo(roomID, session, types.HistoryEvent(history))
	}
	log.Info("player joined", zap.String("action", req.Action), zap.Int("players", room.PlayerCount()))
	return room, nil
}

// JoinErrorText is the message shown to a client whose join failed.
func JoinErrorText(err error) string {
	switch {
	case errors.Is(err, engine.ErrRoomFull), errors.Is(err, engine.ErrAddressLimit):
		return "Cannot join: Room is full or IP limit reached."
	case errors.Is(err, engine.ErrRoomNotFound):
		return "Cannot join: Room not found."
	case errors.Is(err, engine.ErrRoomExists):
		return "Cannot create: Room already exists."
	case errors.Is(err, engine.ErrGameOver):
		return "Cannot join: Game is over."
	default:
		return fmt.Sprintf("Cannot join: %v", err)
	}
}

func (s *Service) member(session, roomID string) (*engine.Room, engine.Player, error) {
	room, ok := s.hub.Get(roomID)
	if !ok {
		return nil, engine.Player{}, engine.ErrRoomNotFound
	}
	p, ok := room.Player(session)
	if !ok {
		return nil, engine.Player{}, engine.ErrNotInRoom
	}
	return room, p, nil
}

// Draw records a stroke and relays it verbatim. Once a game is running only
// the drawer may draw.
func (s *Service) Draw(session, roomID string, stroke engine.Stroke) error {
	room, _, err := s.member(session, roomID)
	if err != nil {
		return err
	}
	if room.IsRunning() && room.DrawerID() != session {
		return engine.ErrNotYourTurn
	}
	s.engine.AddStroke(room, stroke)
	s.pub.Publish(roomID, types.DrawEvent(stroke))
	return nil
}

// Chat routes a chat line through guess checking. A correct guess is
// announced instead of echoed; anything else is echoed to the room.
func (s *Service) Chat(session, roomID, text string) error {
	room, p, err := s.member(session, roomID)
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	s.engine.Touch(room)

	line := types.ChatMessage{Type: types.ChatPlain, Sender: p.Username, SenderSessionID: session, Content: text}

	res, err := s.engine.ProcessGuess(room, session, text)
	switch {
	case errors.Is(err, engine.ErrDrawerCannotGuess), errors.Is(err, engine.ErrAlreadyGuessed):
		// they know the word; keep their chat among those who do
		view := room.View()
		for _, id := range append(view.GuessedSessionIDs, view.DrawerSessionID) {
			s.pub.SendTo(roomID, id, types.ChatEvent(line))
		}
		return nil
	case err != nil && !errors.Is(err, engine.ErrNotRunning):
		return err
	}

	if !res.Correct {
		s.pub.Publish(roomID, types.ChatEvent(line))
		if res.Close {
			s.pub.SendTo(roomID, session, types.ChatEvent(types.ChatMessage{
				Type:    types.ChatCloseGuess,
				Sender:  "System",
				Content: fmt.Sprintf("'%s' is close!", text),
			}))
		}
		return nil
	}

	s.pub.Publish(roomID, types.ChatEvent(types.ChatMessage{
		Type:            types.ChatGuessCorrect,
		Sender:          "System",
		SenderSessionID: session,
		Content:         p.Username + " guessed it right!",
	}))
	s.logger.Debug("correct guess",
		zap.String("room", roomID),
		zap.String("session", session),
		zap.Int("points", res.Points),
		zap.Int("position", res.Position))

	if res.Turn.Ended || res.Turn.Started || res.Turn.GameOver {
		s.publishTurn(room, res.Turn, false)
		return nil
	}
	s.pub.Publish(roomID, types.StateMessage(room.View()))
	return nil
}

// Start begins the game. Fewer than two players is answered with a system
// chat line; a second start of a running game is ignored.
func (s *Service) Start(session, roomID string) error {
	room, _, err := s.member(session, roomID)
	if err != nil {
		return err
	}
	out, err := s.engine.Start(room)
	switch {
	case errors.Is(err, engine.ErrNotEnoughPlayers):
		s.pub.Publish(roomID, types.SystemChat("Cannot start game: Minimum 2 players required!"))
		return err
	case errors.Is(err, engine.ErrGameRunning):
		return nil
	case err != nil:
		return err
	}

	s.logger.Info("game started", zap.String("room", roomID), zap.Int("players", room.PlayerCount()))
	s.publishTurn(room, out, false)
	s.pub.Publish(roomID, types.SystemChat("Game Started! Drawer is choosing a word..."))
	return nil
}

func (s *Service) ChooseWord(session, roomID, word string) error {
	room, ok := s.hub.Get(roomID)
	if !ok {
		return engine.ErrRoomNotFound
	}
	if err := s.engine.ChooseWord(room, session, word); err != nil {
		return err
	}
	s.announceWord(room, session, word)
	return nil
}

func (s *Service) announceWord(room *engine.Room, drawer, word string) {
	id := room.ID()
	s.pub.SendTo(id, drawer, types.WordEvent(word))
	s.pub.Publish(id, types.StateMessage(room.View()))
	s.pub.Publish(id, types.SystemChat("Word chosen! Start drawing now!"))
}

// Disconnect removes session from its room. An emptied room is deleted; a
// departed drawer hands the turn on.
func (s *Service) Disconnect(session string) {
	room, ok := s.hub.RoomFor(session)
	s.hub.Unbind(session)
	if !ok {
		return
	}
	roomID := room.ID()
	s.pub.Unsubscribe(roomID, session)

	d := s.engine.Leave(room, session)
	if !d.Removed {
		return
	}
	log := s.logger.With(zap.String("room", roomID), zap.String("session", session))

	if d.Remaining == 0 && s.hub.RemoveIf(roomID, (*engine.Room).RetireIfEmpty) {
		s.pub.Close(roomID)
		log.Info("room emptied and removed")
		return
	}

	s.pub.Publish(roomID, types.ChatEvent(types.ChatMessage{
		Type:    types.ChatLeave,
		Sender:  "System",
		Content: d.Player.Username + " left the game",
	}))
	log.Info("player left", zap.Bool("wasDrawer", d.WasDrawer))
	if d.WasDrawer {
		s.publishTurn(room, d.Turn, false)
		return
	}
	s.pub.Publish(roomID, types.StateMessage(room.View()))
}

// publishTurn announces a turn transition: the end of the previous turn, the
// game result, or the new drawer's choices, followed by a fresh snapshot.
func (s *Service) publishTurn(room *engine.Room, out engine.TurnOutcome, timedOut bool) {
	id := room.ID()
	if out.Ended {
		s.pub.Publish(id, types.DrawEvent(engine.Stroke{Type: engine.StrokeClear}))
		if out.PreviousWord != "" {
			text := "The word was: " + out.PreviousWord
			if timedOut {
				text = "Time's up! Word was: " + out.PreviousWord
			}
			s.pub.Publish(id, types.SystemChat(text))
		}
	}
	if out.GameOver {
		s.pub.Publish(id, types.SystemChat("GAME OVER! Winner: "+winner(out.Standings)))
		s.logger.Info("game over", zap.String("room", id), zap.Int("round", out.Round))
		s.record(room, out)
	}
	if out.Started {
		s.pub.SendTo(id, out.Drawer.SessionID, types.ChoicesEvent(out.Choices))
		s.logger.Debug("turn started",
			zap.String("room", id),
			zap.Int("round", out.Round),
			zap.String("drawer", out.Drawer.SessionID))
	}
	s.pub.Publish(id, types.StateMessage(room.View()))
}

func winner(standings []engine.Player) string {
	if len(standings) == 0 {
		return "Nobody"
	}
	w := standings[0]
	return fmt.Sprintf("%s with %d points!", w.Username, w.Score)
}

// record persists the result off the caller's goroutine; Wait blocks until
// pending writes are done.
func (s *Service) record(room *engine.Room, out engine.TurnOutcome) {
	if s.results == nil {
		return
	}
	cfg := room.Config()
	view := room.View()
	rec := GameRecord{
		RoomID:      room.ID(),
		LobbyName:   cfg.LobbyName,
		Language:    cfg.Language,
		ScoringMode: string(cfg.ScoringMode),
		Rounds:      min(view.CurrentRound, view.MaxRounds),
		Standings:   out.Standings,
		FinishedAt:  s.engine.Now(),
	}
	s.recording.Add(1)
	go func() {
		defer s.recording.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := s.results.RecordGame(ctx, rec); err != nil {
			s.logger.Error("record game failed", zap.String("room", rec.RoomID), zap.Error(err))
		}
	}()
}

func (s *Service) Wait() { s.recording.Wait() }
