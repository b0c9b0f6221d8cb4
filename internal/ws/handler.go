package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/sketchparty-backend/internal/engine"
	"github.com/DoyleJ11/sketchparty-backend/internal/game"
	"github.com/DoyleJ11/sketchparty-backend/internal/types"
)

const (
	sendBuffer   = 256
	outboxBuffer = 256
	readLimit    = 64 << 10
	writeTimeout = 5 * time.Second
)

var (
	errUnknownType   = errors.New("unknown message type")
	errMissingStroke = errors.New("draw without stroke")
)

// Actions is the part of the game service a connection drives.
type Actions interface {
	JoinOrCreate(session, address string, req game.JoinRequest) (*engine.Room, error)
	Draw(session, roomID string, stroke engine.Stroke) error
	Chat(session, roomID, text string) error
	Start(session, roomID string) error
	ChooseWord(session, roomID, word string) error
	Disconnect(session string)
}

type Options struct {
	// AllowedOrigins lists the browser origins allowed to connect. Empty
	// means same-origin only; "*" allows any origin.
	AllowedOrigins []string
	MsgRate        float64
	MsgBurst       int
	PingInterval   time.Duration
}

func (o Options) withDefaults() Options {
	if o.MsgRate <= 0 {
		o.MsgRate = 60
	}
	if o.MsgBurst <= 0 {
		o.MsgBurst = 120
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	return o
}

// Handler upgrades the request to a websocket. Every connection is one
// session; closing it removes the session from its room.
func Handler(actions Actions, logger *zap.Logger, opts Options) http.HandlerFunc {
	opts = opts.withDefaults()
	accept := acceptOptions(opts.AllowedOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, accept)
		if err != nil {
			logger.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")
		conn.SetReadLimit(readLimit)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		c := &client{
			ctx:     ctx,
			session: uuid.NewString(),
			address: clientAddress(r),
			actions: actions,
			send:    make(chan types.ServerMessage, sendBuffer),
			limiter: rate.NewLimiter(rate.Limit(opts.MsgRate), opts.MsgBurst),
		}
		c.logger = logger.With(zap.String("session", c.session))
		c.logger.Debug("client connected", zap.String("address", c.address))
		defer actions.Disconnect(c.session)

		go c.writeLoop(conn, cancel, opts.PingInterval)
		c.readLoop(conn)
		c.logger.Debug("client disconnected")
	}
}

type client struct {
	ctx     context.Context
	session string
	address string
	actions Actions
	send    chan types.ServerMessage
	limiter *rate.Limiter
	logger  *zap.Logger
}

func (c *client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(c.ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if c.ctx.Err() == nil {
					c.logger.Debug("read failed", zap.Error(err))
				}
			}
			return
		}
		if !c.limiter.Allow() {
			c.logger.Debug("message dropped by rate limit")
			continue
		}

		var cm types.ClientMessage
		if err := json.Unmarshal(data, &cm); err != nil {
			c.reply(types.ErrorEvent("bad json"))
			continue
		}
		if err := c.handle(cm); err != nil {
			c.logger.Debug("action rejected",
				zap.String("type", cm.Type),
				zap.String("room", cm.RoomID),
				zap.Error(err))
		}
	}
}

// writeLoop is the only writer on conn. A failed write or ping ends the
// connection.
func (c *client) writeLoop(conn *websocket.Conn, cancel context.CancelFunc, pingEvery time.Duration) {
	defer cancel()
	ping := time.NewTicker(pingEvery)
	defer ping.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case msg := <-c.send:
			ctx, done := context.WithTimeout(c.ctx, writeTimeout)
			err := wsjson.Write(ctx, conn, msg)
			done()
			if err != nil {
				c.logger.Debug("write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			ctx, done := context.WithTimeout(c.ctx, writeTimeout)
			err := conn.Ping(ctx)
			done()
			if err != nil {
				c.logger.Debug("ping failed", zap.Error(err))
				return
			}
		}
	}
}

func (c *client) handle(cm types.ClientMessage) error {
	switch cm.Type {
	case "join":
		outbox := make(chan types.ServerMessage, outboxBuffer)
		_, err := c.actions.JoinOrCreate(c.session, c.address, game.JoinRequest{
			RoomID:   cm.RoomID,
			Username: cm.Username,
			Action:   cm.Action,
			Config:   cm.Config,
			Outbox:   outbox,
		})
		if err != nil {
			c.reply(types.ErrorEvent(game.JoinErrorText(err)))
			return err
		}
		go c.forward(outbox)
		return nil
	case "draw":
		if cm.Stroke == nil {
			return errMissingStroke
		}
		return c.actions.Draw(c.session, cm.RoomID, *cm.Stroke)
	case "chat":
		return c.actions.Chat(c.session, cm.RoomID, cm.Content)
	case "start":
		return c.actions.Start(c.session, cm.RoomID)
	case "chooseWord":
		return c.actions.ChooseWord(c.session, cm.RoomID, cm.Word)
	default:
		c.reply(types.ErrorEvent("unknown type"))
		return fmt.Errorf("%w: %q", errUnknownType, cm.Type)
	}
}

// forward copies one room subscription into the connection's send queue
// until the room closes it.
func (c *client) forward(outbox <-chan types.ServerMessage) {
	for msg := range outbox {
		select {
		case c.send <- msg:
		case <-c.ctx.Done():
			return
		}
	}
}

// reply queues a message for this client only, dropping it if the queue is
// full.
func (c *client) reply(msg types.ServerMessage) {
	select {
	case c.send <- msg:
	default:
	}
}

// clientAddress picks the originating address: the first X-Forwarded-For
// entry, then X-Real-IP, then the peer address.
func clientAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func acceptOptions(origins []string) *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{}
	for _, o := range origins {
		if o == "*" {
			opts.InsecureSkipVerify = true
			return opts
		}
		opts.OriginPatterns = append(opts.OriginPatterns, originPattern(o))
	}
	return opts
}

// originPattern reduces a configured origin to the host pattern the
// websocket library matches against.
func originPattern(origin string) string {
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		return u.Host
	}
	return origin
}
