package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/sketchparty-backend/internal/engine"
)

func TestRoomConfigRequest_ToConfig(t *testing.T) {
	t.Run("nil request gives defaults", func(t *testing.T) {
		var req *RoomConfigRequest
		assert.Equal(t, engine.DefaultConfig(), req.ToConfig())
	})

	t.Run("explicit zero disables the address cap", func(t *testing.T) {
		var req RoomConfigRequest
		require.NoError(t, json.Unmarshal([]byte(`{"playersPerIpLimit":0,"scoringMode":"Competitive","isPrivate":true}`), &req))

		cfg := req.ToConfig()
		assert.Equal(t, 0, cfg.PlayersPerIPLimit)
		assert.Equal(t, engine.ModeCompetitive, cfg.ScoringMode)
		assert.True(t, cfg.Private)
		assert.Equal(t, 120, cfg.DrawingTime)
	})

	t.Run("omitted cap keeps the default", func(t *testing.T) {
		var req RoomConfigRequest
		require.NoError(t, json.Unmarshal([]byte(`{"drawingTime":60,"customWords":["a","b"]}`), &req))

		cfg := req.ToConfig()
		assert.Equal(t, 2, cfg.PlayersPerIPLimit)
		assert.Equal(t, 60, cfg.DrawingTime)
		assert.Equal(t, []string{"a", "b"}, cfg.CustomWords)
	})
}

func TestServerMessage_OmitsEmptyParts(t *testing.T) {
	b, err := json.Marshal(TimeEvent(0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"time","time":0}`, string(b))

	b, err = json.Marshal(SystemChat("hello"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"chat","chat":{"type":"SYSTEM","sender":"System","content":"hello"}}`, string(b))
}
