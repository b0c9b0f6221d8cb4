package game

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/sketchparty-backend/internal/engine"
	"github.com/DoyleJ11/sketchparty-backend/internal/types"
)

const TickInterval = time.Second

// Ticker drives every running room's clock once per interval.
type Ticker struct {
	svc      *Service
	interval time.Duration
}

func NewTicker(svc *Service, interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = TickInterval
	}
	return &Ticker{svc: svc, interval: interval}
}

// Run ticks until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) error {
	tk := time.NewTicker(t.interval)
	defer tk.Stop()
	return t.RunWith(ctx, tk.C)
}

// RunWith ticks once per value received on ticks.
func (t *Ticker) RunWith(ctx context.Context, ticks <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ticks:
			if !ok {
				return nil
			}
			t.svc.TickAll()
		}
	}
}

// TickAll steps every running room once. Rooms are independent: a failure in
// one is logged and does not stop the rest.
func (s *Service) TickAll() {
	for _, room := range s.hub.ListAll() {
		if room.IsRunning() {
			s.tickRoom(room)
		}
	}
}

func (s *Service) tickRoom(room *engine.Room) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("room tick panicked",
				zap.String("room", room.ID()),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()

	res := s.engine.Tick(room)
	if !res.Active {
		return
	}
	id := room.ID()
	s.pub.Publish(id, types.TimeEvent(res.Remaining))

	if res.AutoPicked != "" {
		s.announceWord(room, room.DrawerID(), res.AutoPicked)
	}

	turnChanged := res.Turn.Ended || res.Turn.Started || res.Turn.GameOver || res.Turn.Stopped
	switch {
	case turnChanged:
		s.publishTurn(room, res.Turn, res.TimedOut)
	case res.HintRevealed:
		s.pub.Publish(id, types.StateMessage(room.View()))
	}
}
