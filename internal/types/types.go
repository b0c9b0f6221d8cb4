package types

import "github.com/DoyleJ11/sketchparty-backend/internal/engine"

type ClientMessage struct {
	Type     string             `json:"type"` // "join" | "draw" | "chat" | "start" | "chooseWord"
	RoomID   string             `json:"roomId"`
	Username string             `json:"username,omitempty"`
	Action   string             `json:"action,omitempty"` // "create" | "join"
	Config   *RoomConfigRequest `json:"config,omitempty"`
	Stroke   *engine.Stroke     `json:"stroke,omitempty"`
	Content  string             `json:"content,omitempty"`
	Word     string             `json:"word,omitempty"`
}

const (
	MsgState   = "state"
	MsgChat    = "chat"
	MsgDraw    = "draw"
	MsgTime    = "time"
	MsgChoices = "choices"
	MsgWord    = "word"
	MsgError   = "error"
	MsgHistory = "history"
)

type ServerMessage struct {
	Type    string           `json:"type"`
	State   *engine.RoomView `json:"state,omitempty"`
	Chat    *ChatMessage     `json:"chat,omitempty"`
	Stroke  *engine.Stroke   `json:"stroke,omitempty"`
	Strokes []engine.Stroke  `json:"strokes,omitempty"`
	Time    *int             `json:"time,omitempty"`
	Choices []string         `json:"choices,omitempty"`
	Word    string           `json:"word,omitempty"`
	Error   string           `json:"error,omitempty"`
}

type ChatType string

const (
	ChatPlain        ChatType = "CHAT"
	ChatJoin         ChatType = "JOIN"
	ChatLeave        ChatType = "LEAVE"
	ChatSystem       ChatType = "SYSTEM"
	ChatGuessCorrect ChatType = "GUESS_CORRECT"
	ChatCloseGuess   ChatType = "CLOSE_GUESS"
)

type ChatMessage struct {
	Type            ChatType `json:"type"`
	Sender          string   `json:"sender"`
	SenderSessionID string   `json:"senderSessionId,omitempty"`
	Content         string   `json:"content"`
}

// RoomConfigRequest is the optional config sent with a create. Nil fields
// take the engine defaults.
type RoomConfigRequest struct {
	Language           *string  `json:"language,omitempty"`
	ScoringMode        *string  `json:"scoringMode,omitempty"`
	DrawingTime        *int     `json:"drawingTime,omitempty"`
	Rounds             *int     `json:"rounds,omitempty"`
	MaxPlayers         *int     `json:"maxPlayers,omitempty"`
	PlayersPerIPLimit  *int     `json:"playersPerIpLimit,omitempty"`
	CustomWordsPerTurn *int     `json:"customWordsPerTurn,omitempty"`
	CustomWords        []string `json:"customWords,omitempty"`
	Private            *bool    `json:"isPrivate,omitempty"`
	LobbyName          *string  `json:"lobbyName,omitempty"`
}

func (c *RoomConfigRequest) ToConfig() engine.Config {
	cfg := engine.DefaultConfig()
	if c == nil {
		return cfg
	}
	if c.Language != nil {
		cfg.Language = *c.Language
	}
	if c.ScoringMode != nil {
		cfg.ScoringMode = engine.ScoringMode(*c.ScoringMode)
	}
	if c.DrawingTime != nil {
		cfg.DrawingTime = *c.DrawingTime
	}
	if c.Rounds != nil {
		cfg.Rounds = *c.Rounds
	}
	if c.MaxPlayers != nil {
		cfg.MaxPlayers = *c.MaxPlayers
	}
	if c.PlayersPerIPLimit != nil {
		cfg.PlayersPerIPLimit = *c.PlayersPerIPLimit
	}
	if c.CustomWordsPerTurn != nil {
		cfg.CustomWordsPerTurn = *c.CustomWordsPerTurn
	}
	cfg.CustomWords = c.CustomWords
	if c.Private != nil {
		cfg.Private = *c.Private
	}
	if c.LobbyName != nil {
		cfg.LobbyName = *c.LobbyName
	}
	return cfg.Normalize()
}

func StateMessage(v engine.RoomView) ServerMessage {
	return ServerMessage{Type: MsgState, State: &v}
}

func ChatEvent(m ChatMessage) ServerMessage {
	return ServerMessage{Type: MsgChat, Chat: &m}
}

func SystemChat(content string) ServerMessage {
	return ChatEvent(ChatMessage{Type: ChatSystem, Sender: "System", Content: content})
}

func DrawEvent(s engine.Stroke) ServerMessage {
	return ServerMessage{Type: MsgDraw, Stroke: &s}
}

func TimeEvent(remaining int) ServerMessage {
	return ServerMessage{Type: MsgTime, Time: &remaining}
}

// HistoryEvent replays a room's stroke log to one late joiner in a single
// frame, oldest first.
func HistoryEvent(strokes []engine.Stroke) ServerMessage {
	return ServerMessage{Type: MsgHistory, Strokes: strokes}
}

func ChoicesEvent(choices []string) ServerMessage {
	return ServerMessage{Type: MsgChoices, Choices: choices}
}

func WordEvent(word string) ServerMessage {
	return ServerMessage{Type: MsgWord, Word: word}
}

func ErrorEvent(text string) ServerMessage {
	return ServerMessage{Type: MsgError, Error: text}
}
