package movement

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxd309/dm-engine/internal/kinematics"
)

const frame = 1.0 / 60.0

func newCharacter(t *testing.T, mutate func(*Definition)) *Character {
	t.Helper()
	def := DefaultDefinition()
	if mutate != nil {
		mutate(&def)
	}
	c, err := NewCharacter(def)
	require.NoError(t, err)
	return c
}

func TestNewCharacterValidates(t *testing.T) {
	def := DefaultDefinition()
	def.MaxSpeed = -1
	_, err := NewCharacter(def)
	require.Error(t, err)

	c := newCharacter(t, func(d *Definition) { d.Forward = mgl64.Vec3{} })
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, c.Forward())
	assert.True(t, c.Walking())
}

func TestSetInputClampsToUnit(t *testing.T) {
	c := newCharacter(t, nil)
	c.SetInput(mgl64.Vec3{3, 4, 9})
	assert.InDelta(t, 2048, c.Acceleration().Len(), 1e-9)
	assert.Equal(t, 0.0, c.Acceleration().Z())

	c.SetInput(mgl64.Vec3{0.5, 0, 0})
	assert.InDelta(t, 1024, c.Acceleration().X(), 1e-9)
}

func TestAccelerateThenStopMatchesPrediction(t *testing.T) {
	c := newCharacter(t, nil)
	c.SetInput(mgl64.Vec3{1, 0, 0})
	for _i := 0; _i < 60; _i++ {
		c.Step(frame)
	}
	assert.InDelta(t, 600, c.Velocity().Len(), 1e-6)

	c.SetInput(mgl64.Vec3{})
	pred, ok := kinematics.StopLocation(c.Location(), c.Velocity(), c.Acceleration(), c.PhysicalParams(), frame, 100)
	require.True(t, ok)

	for _i := 0; _i < 100; _i++ {
		c.Step(frame)
	}
	assert.Equal(t, mgl64.Vec3{}, c.Velocity())
	assert.InDelta(t, pred.Location.X(), c.Location().X(), 1e-6)
}

func TestTurnIsRateLimited(t *testing.T) {
	c := newCharacter(t, func(d *Definition) { d.RotationRate = 90 })
	c.SetInput(mgl64.Vec3{0, 1, 0})
	c.Step(frame)

	angle := kinematics.AngleDegrees(mgl64.Vec3{1, 0, 0}, c.Forward())
	assert.InDelta(t, 1.5, angle, 1e-9)
}

func TestTurnSnapsWithoutRate(t *testing.T) {
	c := newCharacter(t, func(d *Definition) { d.RotationRate = 0 })
	c.SetInput(mgl64.Vec3{0, -1, 0})
	c.Step(frame)
	assert.InDelta(t, -1, c.Forward().Y(), 1e-9)
}

func TestFallingKeepsMomentum(t *testing.T) {
	c := newCharacter(t, nil)
	c.SetInput(mgl64.Vec3{1, 0, 0})
	for _i := 0; _i < 30; _i++ {
		c.Step(frame)
	}
	v := c.Velocity()

	c.SetMode(ModeFalling)
	c.SetInput(mgl64.Vec3{})
	c.Step(frame)
	assert.Equal(t, v, c.Velocity())
	assert.False(t, c.Walking())

	c.SetMode("")
	assert.Equal(t, ModeWalking, c.Mode())
}
