package lobby

import (
	"context"

	"github.com/DoyleJ11/sketchparty-backend/internal/types"
)

const inboxSize = 256

// Command is anything the room actor accepts on its inbox.
type Command interface{ command() }

// Subscribe attaches an outbox under ClientID. A second Subscribe for the same
// id replaces the old outbox and closes it.
type Subscribe struct {
	ClientID string
	Outbox   chan types.ServerMessage
}

// Unsubscribe detaches and closes the client's outbox.
type Unsubscribe struct{ ClientID string }

// Publish fans one event out to every subscriber.
type Publish struct{ Msg types.ServerMessage }

// Direct delivers an event to a single subscriber only.
type Direct struct {
	ClientID string
	Msg      types.ServerMessage
}

// Stop ends the actor and closes every outbox.
type Stop struct{}

// Inspect asks the actor for its Counters.
type Inspect struct{ Reply chan Counters }

func (Subscribe) command()   {}
func (Unsubscribe) command() {}
func (Publish) command()     {}
func (Direct) command()      {}
func (Stop) command()        {}
func (Inspect) command()     {}

type Counters struct {
	RoomID      string
	Subscribers int
	Published   int
}

// Lobby is the per-room delivery actor. All subscriber bookkeeping happens on
// its own goroutine; events reach each client in the order they were sent.
type Lobby struct {
	roomID    string
	inbox     chan Command
	outboxes  map[string]chan types.ServerMessage
	published int

	ctx    context.Context
	cancel context.CancelFunc
}

func NewLobby(parent context.Context, roomID string) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	l := &Lobby{
		roomID:   roomID,
		inbox:    make(chan Command, inboxSize),
		outboxes: make(map[string]chan types.ServerMessage),
		ctx:      ctx,
		cancel:   cancel,
	}
	go l.run()
	return l
}

func (l *Lobby) run() {
	defer l.closeAll()
	for {
		select {
		case <-l.ctx.Done():
			return
		case cmd := <-l.inbox:
			if !l.apply(cmd) {
				return
			}
		}
	}
}

// apply handles one command and reports whether the actor keeps running.
func (l *Lobby) apply(cmd Command) bool {
	switch c := cmd.(type) {
	case Subscribe:
		if prev, ok := l.outboxes[c.ClientID]; ok && prev != c.Outbox {
			close(prev)
		}
		l.outboxes[c.ClientID] = c.Outbox
	case Unsubscribe:
		l.drop(c.ClientID)
	case Publish:
		l.published++
		for id := range l.outboxes {
			l.push(id, c.Msg)
		}
	case Direct:
		l.push(c.ClientID, c.Msg)
	case Inspect:
		c.Reply <- Counters{RoomID: l.roomID, Subscribers: len(l.outboxes), Published: l.published}
	case Stop:
		return false
	}
	return true
}

// push never blocks the actor. A full outbox means the reader fell behind, so
// that client is cut off.
func (l *Lobby) push(id string, msg types.ServerMessage) {
	out, ok := l.outboxes[id]
	if !ok {
		return
	}
	select {
	case out <- msg:
	default:
		l.drop(id)
	}
}

func (l *Lobby) drop(id string) {
	if out, ok := l.outboxes[id]; ok {
		close(out)
		delete(l.outboxes, id)
	}
}

func (l *Lobby) closeAll() {
	for id := range l.outboxes {
		l.drop(id)
	}
	l.cancel()
}

// Send queues cmd for the actor. It gives up once the lobby has stopped, so
// callers never block on a dead room.
func (l *Lobby) Send(cmd Command) bool {
	select {
	case l.inbox <- cmd:
		return true
	case <-l.ctx.Done():
		return false
	}
}

func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }
