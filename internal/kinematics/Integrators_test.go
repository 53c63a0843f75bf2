package kinematics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func cosDeg(deg float64) float64 { return math.Cos(mgl64.DegToRad(deg)) }
func sinRad(rad float64) float64 { return math.Sin(rad) }

func TestBrakeNeverReverses(t *testing.T) {
	v := mgl64.Vec3{5, 0, 0}
	got := Brake(v, 0, 2048, frame)
	assert.Equal(t, mgl64.Vec3{}, got)
}

func TestBrakeSubsteps(t *testing.T) {
	// A 0.1s frame with friction is split into steps of at most 1/33s; the result
	// must sit between one coarse Euler step and the exact exponential decay.
	v := mgl64.Vec3{1000, 0, 0}
	got := Brake(v, 8, 0, 0.1)

	coarse := 1000 * (1 - 8*0.1)
	exact := 1000 * math.Exp(-8*0.1)
	assert.Greater(t, got.X(), coarse)
	assert.Less(t, got.X(), exact)
}

func TestBrakeWithoutMechanism(t *testing.T) {
	v := mgl64.Vec3{100, 0, 0}
	assert.Equal(t, v, Brake(v, 0, 0, frame))
}

func TestAccelerate(t *testing.T) {
	t.Run("caps at max speed", func(t *testing.T) {
		v := Accelerate(mgl64.Vec3{590, 0, 0}, mgl64.Vec3{2048, 0, 0}, 8, 600, frame)
		assert.InDelta(t, 600, v.Len(), 1e-9)
	})

	t.Run("friction steers onto input", func(t *testing.T) {
		v := Accelerate(mgl64.Vec3{300, 0, 0}, mgl64.Vec3{0, 2048, 0}, 8, 600, frame)
		assert.Less(t, v.X(), 300.0)
		assert.Greater(t, v.Y(), 0.0)
	})
}

func TestAngleDegrees(t *testing.T) {
	assert.InDelta(t, 90, AngleDegrees(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 3, 0}), 1e-9)
	assert.InDelta(t, 180, AngleDegrees(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{-2, 0, 0}), 1e-9)
	assert.Equal(t, 0.0, AngleDegrees(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}))
}

func TestSafeNormal(t *testing.T) {
	assert.Equal(t, mgl64.Vec3{}, SafeNormal(mgl64.Vec3{}))
	assert.InDelta(t, 1, SafeNormal(mgl64.Vec3{3, 4, 0}).Len(), 1e-12)
}
