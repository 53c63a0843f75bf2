package matching

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumText(t *testing.T) {
	out, err := json.Marshal(struct {
		P Phase
		B Basis
		T Trigger
	}{PhaseBoth, BasisRotational, TriggerTurnInPlace})
	require.NoError(t, err)
	assert.JSONEq(t, `{"P":"both","B":"rotational","T":"turn_in_place"}`, string(out))

	var p Phase
	require.NoError(t, p.UnmarshalText([]byte("forward")))
	assert.Equal(t, PhaseForward, p)
	require.Error(t, p.UnmarshalText([]byte("sideways")))

	assert.Equal(t, "phase(9)", Phase(9).String())
}

func TestDebugColor(t *testing.T) {
	assert.Equal(t, RGB{0, 255, 0}, PhaseForward.DebugColor())
	assert.Equal(t, RGB{0, 0, 255}, PhaseBackward.DebugColor())
	assert.Equal(t, RGB{169, 7, 228}, PhaseBoth.DebugColor())
	assert.NotEqual(t, PhaseForward.DebugColor(), PhaseBoth.DebugColor())
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	for name, mutate := range map[string]func(*Config){
		"tolerance": func(c *Config) { c.DistanceTolerance = -1 },
		"angle":     func(c *Config) { c.MinPlantDetectionAngle = 190 },
		"speed":     func(c *Config) { c.MinPlantSpeed = -5 },
		"accel":     func(c *Config) { c.MinPlantAccel = -5 },
		"iters":     func(c *Config) { c.MaxIterations = 0 },
	} {
		cfg := DefaultConfig()
		mutate(&cfg)
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig, name)
	}
}
