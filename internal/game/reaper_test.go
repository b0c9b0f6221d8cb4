package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/DoyleJ11/sketchparty-backend/internal/engine"
	"github.com/DoyleJ11/sketchparty-backend/internal/types"
)

func TestReaper_Sweep(t *testing.T) {
	f := newFixture(t)
	private := true
	public := f.create(t, "public", "s1", nil)
	f.create(t, "private", "s2", &types.RoomConfigRequest{Private: &private})
	f.create(t, "busy", "s3", nil)
	f.join(t, "busy", "s4")
	f.drawing(t, "busy")

	r := NewReaper(f.svc, 0, 15*time.Minute, 60*time.Minute)

	assert.Zero(t, r.Sweep(), "nothing is idle yet")

	f.clock.Advance(16 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	_, ok := f.svc.Hub().Get("public")
	assert.False(t, ok)
	_, bound := f.svc.Hub().RoomFor("s1")
	assert.False(t, bound)
	assert.Equal(t, []string{"public"}, f.pub.closed)
	assert.ErrorIs(t, f.svc.engine.Join(public, "late", "s9", ""), engine.ErrRoomNotFound,
		"a reaped room takes no one in")

	f.clock.Advance(45 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	_, ok = f.svc.Hub().Get("private")
	assert.False(t, ok)

	// a running room is never reaped, however long it sits idle
	f.clock.Advance(24 * time.Hour)
	assert.Zero(t, r.Sweep())
	_, ok = f.svc.Hub().Get("busy")
	assert.True(t, ok)
}

func TestNewReaper_Defaults(t *testing.T) {
	r := NewReaper(nil, 0, 0, 0)
	assert.Equal(t, DefaultReapInterval, r.interval)
	assert.Equal(t, DefaultPublicIdle, r.publicIdle)
	assert.Equal(t, DefaultPrivateIdle, r.privateIdle)
}
