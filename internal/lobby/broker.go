package lobby

import (
	"context"
	"sync"

	"github.com/DoyleJ11/sketchparty-backend/internal/types"
)

// Broker owns one Lobby per room and routes room events to them.
type Broker struct {
	ctx context.Context

	mu      sync.Mutex
	lobbies map[string]*Lobby
}

func NewBroker(ctx context.Context) *Broker {
	return &Broker{ctx: ctx, lobbies: make(map[string]*Lobby)}
}

// ensure returns the live lobby for roomID, starting one if needed.
func (b *Broker) ensure(roomID string) *Lobby {
	b.mu.Lock()
	defer b.mu.Unlock()
	if lb, ok := b.lobbies[roomID]; ok {
		select {
		case <-lb.Done():
		default:
			return lb
		}
	}
	lb := NewLobby(b.ctx, roomID)
	b.lobbies[roomID] = lb
	return lb
}

func (b *Broker) get(roomID string) *Lobby {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lobbies[roomID]
}

// Subscribe registers outbox for the room's events under clientID.
func (b *Broker) Subscribe(roomID, clientID string, outbox chan types.ServerMessage) {
	b.ensure(roomID).Send(Subscribe{ClientID: clientID, Outbox: outbox})
}

func (b *Broker) Unsubscribe(roomID, clientID string) {
	if lb := b.get(roomID); lb != nil {
		lb.Send(Unsubscribe{ClientID: clientID})
	}
}

func (b *Broker) Publish(roomID string, msg types.ServerMessage) {
	if lb := b.get(roomID); lb != nil {
		lb.Send(Publish{Msg: msg})
	}
}

func (b *Broker) SendTo(roomID, clientID string, msg types.ServerMessage) {
	if lb := b.get(roomID); lb != nil {
		lb.Send(Direct{ClientID: clientID, Msg: msg})
	}
}

// Close shuts the room's lobby down, closing every subscriber outbox.
func (b *Broker) Close(roomID string) {
	b.mu.Lock()
	lb := b.lobbies[roomID]
	delete(b.lobbies, roomID)
	b.mu.Unlock()
	if lb != nil {
		lb.Send(Stop{})
	}
}

// Stats reports the lobby's subscriber count, for diagnostics and tests.
func (b *Broker) Stats(roomID string) (Counters, bool) {
	lb := b.get(roomID)
	if lb == nil {
		return Counters{}, false
	}
	reply := make(chan Counters, 1)
	if !lb.Send(Inspect{Reply: reply}) {
		return Counters{}, false
	}
	select {
	case v := <-reply:
		return v, true
	case <-lb.Done():
		return Counters{}, false
	}
}
