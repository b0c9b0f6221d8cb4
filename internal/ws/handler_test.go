package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/sketchparty-backend/internal/engine"
	"github.com/DoyleJ11/sketchparty-backend/internal/game"
	"github.com/DoyleJ11/sketchparty-backend/internal/types"
)

type call struct {
	op, session, room, arg string
}

// fakeActions records calls. A join for room "full" fails; any other join
// greets the subscriber through its outbox.
type fakeActions struct {
	mu    sync.Mutex
	calls []call
	gone  chan string
}

func newFakeActions() *fakeActions { return &fakeActions{gone: make(chan string, 1)} }

func (f *fakeActions) add(c call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeActions) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeActions) JoinOrCreate(session, address string, req game.JoinRequest) (*engine.Room, error) {
	f.add(call{"join", session, req.RoomID, address})
	if req.RoomID == "full" {
		return nil, engine.ErrRoomFull
	}
	req.Outbox <- types.SystemChat("welcome " + req.Username)
	close(req.Outbox)
	return nil, nil
}

func (f *fakeActions) Draw(session, roomID string, s engine.Stroke) error {
	f.add(call{"draw", session, roomID, s.Color})
	return nil
}

func (f *fakeActions) Chat(session, roomID, text string) error {
	f.add(call{"chat", session, roomID, text})
	return nil
}

func (f *fakeActions) Start(session, roomID string) error {
	f.add(call{"start", session, roomID, ""})
	return nil
}

func (f *fakeActions) ChooseWord(session, roomID, word string) error {
	f.add(call{"chooseWord", session, roomID, word})
	return nil
}

func (f *fakeActions) Disconnect(session string) {
	f.add(call{"disconnect", session, "", ""})
	f.gone <- session
}

func newTestClient(actions Actions) *client {
	return &client{
		ctx:     context.Background(),
		session: "sess-1",
		address: "10.1.1.1",
		actions: actions,
		send:    make(chan types.ServerMessage, 4),
		limiter: rate.NewLimiter(rate.Inf, 1),
		logger:  zap.NewNop(),
	}
}

func TestClientAddress(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.1"}, "10.0.0.2:5555", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:5555", "198.51.100.4"},
		{"forwarded wins over real ip", map[string]string{"X-Forwarded-For": "1.1.1.1", "X-Real-IP": "2.2.2.2"}, "10.0.0.2:5555", "1.1.1.1"},
		{"empty forwarded entry", map[string]string{"X-Forwarded-For": " ,9.9.9.9"}, "10.0.0.2:5555", "10.0.0.2"},
		{"peer address", nil, "192.0.2.10:41000", "192.0.2.10"},
		{"ipv6 peer", nil, "[2001:db8::1]:443", "2001:db8::1"},
		{"unparsable peer", nil, "pipe", "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientAddress(r))
		})
	}
}

func TestAcceptOptions(t *testing.T) {
	opts := acceptOptions([]string{"https://play.example.com", "localhost:5173"})
	assert.Equal(t, []string{"play.example.com", "localhost:5173"}, opts.OriginPatterns)
	assert.False(t, opts.InsecureSkipVerify)

	assert.True(t, acceptOptions([]string{"*"}).InsecureSkipVerify)
	assert.Empty(t, acceptOptions(nil).OriginPatterns)
}

func TestClientHandle_Dispatch(t *testing.T) {
	tests := []struct {
		name string
		msg  types.ClientMessage
		want call
	}{
		{"draw", types.ClientMessage{Type: "draw", RoomID: "r", Stroke: &engine.Stroke{Color: "#123"}}, call{"draw", "sess-1", "r", "#123"}},
		{"chat", types.ClientMessage{Type: "chat", RoomID: "r", Content: "hello"}, call{"chat", "sess-1", "r", "hello"}},
		{"start", types.ClientMessage{Type: "start", RoomID: "r"}, call{"start", "sess-1", "r", ""}},
		{"choose", types.ClientMessage{Type: "chooseWord", RoomID: "r", Word: "kite"}, call{"chooseWord", "sess-1", "r", "kite"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa := newFakeActions()
			require.NoError(t, newTestClient(fa).handle(tt.msg))
			assert.Equal(t, []call{tt.want}, fa.snapshot())
		})
	}
}

func TestClientHandle_Rejections(t *testing.T) {
	fa := newFakeActions()
	c := newTestClient(fa)

	require.ErrorIs(t, c.handle(types.ClientMessage{Type: "draw", RoomID: "r"}), errMissingStroke)
	require.ErrorIs(t, c.handle(types.ClientMessage{Type: "dance"}), errUnknownType)
	require.ErrorIs(t, c.handle(types.ClientMessage{Type: "join", RoomID: "full"}), engine.ErrRoomFull)

	assert.Equal(t, "unknown type", (<-c.send).Error)
	assert.Equal(t, "Cannot join: Room is full or IP limit reached.", (<-c.send).Error)
}

func TestClientHandle_JoinForwardsRoomEvents(t *testing.T) {
	fa := newFakeActions()
	c := newTestClient(fa)

	require.NoError(t, c.handle(types.ClientMessage{Type: "join", RoomID: "r", Username: "ann", Action: "create"}))

	select {
	case msg := <-c.send:
		assert.Equal(t, "welcome ann", msg.Chat.Content)
	case <-time.After(time.Second):
		t.Fatalf("room event was not forwarded")
	}
	assert.Equal(t, []call{{"join", "sess-1", "r", "10.1.1.1"}}, fa.snapshot())
}

func TestHandler_RoundTrip(t *testing.T) {
	fa := newFakeActions()
	srv := httptest.NewServer(Handler(fa, zap.NewNop(), Options{}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), &websocket.DialOptions{
		HTTPHeader: http.Header{"X-Forwarded-For": []string{"203.0.113.9"}},
	})
	require.NoError(t, err)

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{not json`)))
	var got types.ServerMessage
	require.NoError(t, wsjson.Read(ctx, conn, &got))
	assert.Equal(t, types.MsgError, got.Type)
	assert.Equal(t, "bad json", got.Error)

	require.NoError(t, wsjson.Write(ctx, conn, types.ClientMessage{Type: "join", RoomID: "r1", Username: "zed", Action: "join"}))
	require.NoError(t, wsjson.Read(ctx, conn, &got))
	assert.Equal(t, "welcome zed", got.Chat.Content)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))

	var session string
	select {
	case session = <-fa.gone:
	case <-time.After(2 * time.Second):
		t.Fatalf("session was not disconnected")
	}
	calls := fa.snapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, call{"join", session, "r1", "203.0.113.9"}, calls[0])
	assert.Equal(t, "disconnect", calls[1].op)
}
