// Package kinematics predicts where a walking character started accelerating from and
// where it will come to rest, using the same friction and braking integration the
// movement model applies every frame.
//
// Distances are in world units, velocities in units/s, accelerations in units/s² and
// times in seconds. Every loop is bounded by an iteration cap so a prediction always
// fits inside a frame budget and never allocates.
package kinematics

import "math"

// PhysicalParams are the movement-model constants a prediction reads. They are
// sampled from the movement collaborator on the tick the prediction runs and are
// never cached beyond that call.
type PhysicalParams struct {
	MaxAcceleration     float64 `json:"max_acceleration" toml:"max_acceleration"`         // units/s²
	GroundFriction      float64 `json:"ground_friction" toml:"ground_friction"`           // 1/s
	BrakingFriction     float64 `json:"braking_friction" toml:"braking_friction"`         // factor applied to GroundFriction while stopping
	BrakingDeceleration float64 `json:"braking_deceleration" toml:"braking_deceleration"` // units/s², positive
}

// DefaultPhysicalParams returns the constants of a typical walking character.
func DefaultPhysicalParams() PhysicalParams {
	return PhysicalParams{
		MaxAcceleration:     2048,
		GroundFriction:      8,
		BrakingFriction:     2,
		BrakingDeceleration: 2048,
	}
}

// StoppingFriction is the friction applied while no input acceleration is present.
func (p PhysicalParams) StoppingFriction() float64 {
	return math.Max(p.GroundFriction*p.BrakingFriction, 0)
}

// CanDecelerate reports whether the params provide any mechanism to stop without input.
func (p PhysicalParams) CanDecelerate() bool {
	return p.StoppingFriction() >= zeroFrictionEpsilon || p.BrakingDeceleration >= zeroBrakingEpsilon
}
