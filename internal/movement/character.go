// Package movement simulates a walking character for the distance matching engine:
// input becomes acceleration, velocity is integrated with the same friction and
// braking the predictor assumes, and the facing turns toward the direction of travel.
package movement

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cxd309/dm-engine/internal/kinematics"
)

// Mode is the character's movement mode.
type Mode string

const (
	ModeWalking Mode = "walking"
	ModeFalling Mode = "falling"
	ModeNone    Mode = "none"
)

// facingSpeedSq is the squared speed below which the facing is left alone.
const facingSpeedSq = 1.0

// Definition is the static description of a character.
type Definition struct {
	Location mgl64.Vec3 `json:"location" toml:"location"`
	Forward  mgl64.Vec3 `json:"forward" toml:"forward"`
	MaxSpeed float64    `json:"max_speed" toml:"max_speed"` // units/s
	// RotationRate limits how fast the facing turns toward the velocity, in degrees/s.
	// Zero snaps the facing instantly.
	RotationRate float64                   `json:"rotation_rate" toml:"rotation_rate"`
	Physics      kinematics.PhysicalParams `json:"physics" toml:"physics"`
}

// DefaultDefinition returns a character at the origin facing +X.
func DefaultDefinition() Definition {
	return Definition{
		Forward:      mgl64.Vec3{1, 0, 0},
		MaxSpeed:     600,
		RotationRate: 540,
		Physics:      kinematics.DefaultPhysicalParams(),
	}
}

// Character is a Definition enriched with live simulation state.
type Character struct {
	def          Definition
	location     mgl64.Vec3
	forward      mgl64.Vec3
	velocity     mgl64.Vec3
	acceleration mgl64.Vec3
	mode         Mode
}

// NewCharacter validates def and places the character at rest in walking mode.
func NewCharacter(def Definition) (*Character, error) {
	switch {
	case def.MaxSpeed < 0:
		return nil, fmt.Errorf("character max_speed %v is negative", def.MaxSpeed)
	case def.RotationRate < 0:
		return nil, fmt.Errorf("character rotation_rate %v is negative", def.RotationRate)
	case def.Physics.MaxAcceleration < 0:
		return nil, fmt.Errorf("character max_acceleration %v is negative", def.Physics.MaxAcceleration)
	}

	fwd := kinematics.SafeNormal(kinematics.Flatten(def.Forward))
	if kinematics.SizeSq(fwd) == 0 {
		fwd = mgl64.Vec3{1, 0, 0}
	}
	return &Character{
		def:      def,
		location: def.Location,
		forward:  fwd,
		mode:     ModeWalking,
	}, nil
}

func (c *Character) Location() mgl64.Vec3     { return c.location }
func (c *Character) Forward() mgl64.Vec3      { return c.forward }
func (c *Character) Velocity() mgl64.Vec3     { return c.velocity }
func (c *Character) Acceleration() mgl64.Vec3 { return c.acceleration }
func (c *Character) Mode() Mode               { return c.mode }
func (c *Character) Walking() bool            { return c.mode == ModeWalking }

// PhysicalParams returns the character's movement constants.
func (c *Character) PhysicalParams() kinematics.PhysicalParams { return c.def.Physics }

// SetMode switches the movement mode.
func (c *Character) SetMode(m Mode) {
	if m == "" {
		m = ModeWalking
	}
	c.mode = m
}

// SetInput sets the held input. Its horizontal part, clamped to unit length, scales
// the maximum acceleration.
func (c *Character) SetInput(input mgl64.Vec3) {
	input = kinematics.Flatten(input)
	if l := input.Len(); l > 1 {
		input = input.Mul(1 / l)
	}
	c.acceleration = input.Mul(c.def.Physics.MaxAcceleration)
}

// Step advances the character by dt seconds.
func (c *Character) Step(dt float64) {
	if dt < kinematics.MinTickTime {
		return
	}

	switch c.mode {
	case ModeWalking:
		p := c.def.Physics
		if kinematics.IsNearlyZero(c.acceleration) {
			c.velocity = kinematics.Brake(c.velocity, p.StoppingFriction(), p.BrakingDeceleration, dt)
		} else {
			c.velocity = kinematics.Accelerate(c.velocity, c.acceleration, p.GroundFriction, c.def.MaxSpeed, dt)
		}
		c.velocity = kinematics.Flatten(c.velocity)
	case ModeFalling:
		// Horizontal momentum is kept; no ground to brake against.
	default:
		c.velocity = mgl64.Vec3{}
	}

	c.location = c.location.Add(c.velocity.Mul(dt))
	c.turn(dt)
}

// turn rotates the facing toward the horizontal velocity, limited by the rotation rate.
func (c *Character) turn(dt float64) {
	flat := kinematics.Flatten(c.velocity)
	if kinematics.SizeSq(flat) < facingSpeedSq {
		return
	}
	desired := kinematics.SafeNormal(flat)
	if c.def.RotationRate <= 0 {
		c.forward = desired
		return
	}

	yaw := math.Atan2(c.forward.Y(), c.forward.X())
	delta := math.Remainder(math.Atan2(desired.Y(), desired.X())-yaw, 2*math.Pi)
	limit := mgl64.DegToRad(c.def.RotationRate) * dt
	if math.Abs(delta) <= limit {
		c.forward = desired
		return
	}
	yaw += math.Copysign(limit, delta)
	c.forward = mgl64.Vec3{math.Cos(yaw), math.Sin(yaw), 0}
}

// Log is a point-in-time snapshot of a Character.
type Log struct {
	Location     mgl64.Vec3 `json:"location"`
	Forward      mgl64.Vec3 `json:"forward"`
	Velocity     mgl64.Vec3 `json:"velocity"`
	Acceleration mgl64.Vec3 `json:"acceleration"`
	Mode         Mode       `json:"mode"`
}

// GetLog returns a point-in-time snapshot of the character.
func (c *Character) GetLog() Log {
	return Log{
		Location:     c.location,
		Forward:      c.forward,
		Velocity:     c.velocity,
		Acceleration: c.acceleration,
		Mode:         c.mode,
	}
}
