package game

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/sketchparty-backend/internal/engine"
)

const (
	DefaultReapInterval = 5 * time.Minute
	DefaultPublicIdle   = 15 * time.Minute
	DefaultPrivateIdle  = 60 * time.Minute
)

// Reaper periodically evicts rooms that are empty or idle and not running.
type Reaper struct {
	svc         *Service
	interval    time.Duration
	publicIdle  time.Duration
	privateIdle time.Duration
}

func NewReaper(svc *Service, interval, publicIdle, privateIdle time.Duration) *Reaper {
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	if publicIdle <= 0 {
		publicIdle = DefaultPublicIdle
	}
	if privateIdle <= 0 {
		privateIdle = DefaultPrivateIdle
	}
	return &Reaper{svc: svc, interval: interval, publicIdle: publicIdle, privateIdle: privateIdle}
}

func (r *Reaper) Run(ctx context.Context) error {
	tk := time.NewTicker(r.interval)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tk.C:
			r.Sweep()
		}
	}
}

// Sweep removes every reapable room and returns how many went.
func (r *Reaper) Sweep() int {
	s := r.svc
	now := s.engine.Now()
	removed := 0
	for _, room := range s.hub.ListAll() {
		id := room.ID()
		reaped := s.hub.RemoveIf(id, func(rm *engine.Room) bool {
			return rm.RetireIfReapable(now, r.publicIdle, r.privateIdle)
		})
		if !reaped {
			continue
		}
		s.pub.Close(id)
		removed++
		s.logger.Debug("room reaped",
			zap.String("room", id),
			zap.Int("players", room.PlayerCount()),
			zap.Duration("idle", now.Sub(room.LastActivity())))
	}
	if removed > 0 {
		s.logger.Info("reaper sweep", zap.Int("removed", removed), zap.Int("remaining", s.hub.Len()))
	}
	return removed
}
