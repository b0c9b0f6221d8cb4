package hub

import (
	"sort"
	"sync"

	"github.com/DoyleJ11/sketchparty-backend/internal/engine"
)

// Hub is the registry of live rooms plus the reverse index from session id
// to the room that session plays in.
type Hub struct {
	engine *engine.Engine

	mu       sync.RWMutex
	rooms    map[string]*engine.Room
	sessions map[string]string
}

func NewHub(e *engine.Engine) *Hub {
	return &Hub{
		engine:   e,
		rooms:    make(map[string]*engine.Room),
		sessions: make(map[string]string),
	}
}

// Create registers a new room with its host. It fails with
// engine.ErrRoomExists when the id is taken.
func (h *Hub) Create(roomID, hostName, hostSession string, cfg engine.Config, hostAddress string) (*engine.Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; ok {
		return nil, engine.ErrRoomExists
	}
	r := h.engine.NewRoom(roomID, cfg, engine.Player{
		SessionID: hostSession,
		Username:  hostName,
		Address:   hostAddress,
	})
	h.rooms[roomID] = r
	h.sessions[hostSession] = roomID
	return r, nil
}

func (h *Hub) Get(roomID string) (*engine.Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[roomID]
	return r, ok
}

// Remove drops the room and every session bound to it.
func (h *Hub) Remove(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(roomID)
}

// RemoveIf drops the room only when retire accepts it. retire runs under the
// registry lock, so nothing can look the room up between the check and the
// removal.
func (h *Hub) RemoveIf(roomID string, retire func(*engine.Room) bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[roomID]
	if !ok || !retire(r) {
		return false
	}
	h.removeLocked(roomID)
	return true
}

func (h *Hub) removeLocked(roomID string) {
	delete(h.rooms, roomID)
	for session, id := range h.sessions {
		if id == roomID {
			delete(h.sessions, session)
		}
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// ListAll returns a snapshot of every room, ordered by id. The slice is safe
// to iterate while rooms are created and removed.
func (h *Hub) ListAll() []*engine.Room {
	h.mu.RLock()
	out := make([]*engine.Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		out = append(out, r)
	}
	h.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// ListPublicJoinable returns the rooms shown in the public lobby list.
func (h *Hub) ListPublicJoinable() []*engine.Room {
	all := h.ListAll()
	out := all[:0]
	for _, r := range all {
		if r.PublicJoinable() {
			out = append(out, r)
		}
	}
	return out
}

func (h *Hub) Bind(session, roomID string) {
	h.mu.Lock()
	h.sessions[session] = roomID
	h.mu.Unlock()
}

func (h *Hub) Unbind(session string) {
	h.mu.Lock()
	delete(h.sessions, session)
	h.mu.Unlock()
}

// RoomFor looks up the room a session plays in. The index is only a hint:
// the answer is checked against the room's player list and stale entries are
// dropped.
func (h *Hub) RoomFor(session string) (*engine.Room, bool) {
	h.mu.RLock()
	roomID, ok := h.sessions[session]
	r := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if r != nil && r.HasPlayer(session) {
		return r, true
	}

	h.mu.Lock()
	if h.sessions[session] == roomID {
		delete(h.sessions, session)
	}
	h.mu.Unlock()
	return nil, false
}
