package kinematics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultMaxIterations caps both predictors when the caller has no better bound.
const DefaultMaxIterations = 50

const (
	// startToleranceSq is how close (in squared speed) the backward integration must
	// come to the target velocity.
	startToleranceSq = 0.1

	// restSpeedSq is the squared speed at which a stop prediction is considered at rest.
	restSpeedSq = 1.0
)

// Prediction is the outcome of a successful StartLocation or StopLocation call.
type Prediction struct {
	Location   mgl64.Vec3
	Time       float64 // predicted seconds between Location and the origin
	Iterations int
}

// StartLocation integrates backward from rest toward velocity to estimate where the
// character began accelerating. The target direction is accelerated at
// p.MaxAcceleration, with ground friction steering the accumulated velocity onto it.
//
// It reports false if dt is below MinTickTime or the velocity is not reached within
// maxIterations steps; callers fall back to the current location.
func StartLocation(origin, velocity mgl64.Vec3, p PhysicalParams, dt float64, maxIterations int) (Prediction, bool) {
	if dt < MinTickTime {
		return Prediction{}, false
	}

	accel := Flatten(SafeNormal(velocity).Mul(p.MaxAcceleration))
	dir := SafeNormal(accel)
	steer := math.Min(dt*math.Max(p.GroundFriction, 0), 1)
	targetSq := velocity.Dot(velocity)

	var last mgl64.Vec3
	loc := origin
	elapsed := 0.0
	for i := 1; i <= maxIterations; i++ {
		total := accel.Sub(last.Sub(dir.Mul(last.Len())).Mul(steer))
		last = last.Add(total.Mul(dt))
		loc = loc.Sub(last.Mul(dt))
		elapsed += dt

		if targetSq-last.Dot(last) < startToleranceSq {
			return Prediction{Location: loc, Time: elapsed, Iterations: i}, true
		}
	}
	return Prediction{}, false
}

// StopLocation integrates forward from the current velocity to predict where and when
// the character comes to rest, or where its velocity reverses against the input.
//
// With no input acceleration the pure braking model runs (ground friction times the
// braking factor plus constant braking deceleration). Otherwise the velocity is
// projected onto the acceleration direction and integrated under that acceleration,
// with friction resisting lateral change.
//
// It reports false if dt is below MinTickTime, if acceleration still points along the
// velocity, if no deceleration mechanism exists, or if maxIterations pass without
// converging.
func StopLocation(origin, velocity, acceleration mgl64.Vec3, p PhysicalParams, dt float64, maxIterations int) (Prediction, bool) {
	if dt < MinTickTime {
		return Prediction{}, false
	}
	if acceleration.Dot(velocity) > 0 {
		return Prediction{}, false
	}

	zeroAccel := IsNearlyZero(acceleration)
	friction := p.StoppingFriction()
	deceleration := math.Max(p.BrakingDeceleration, 0)
	if zeroAccel && !p.CanDecelerate() {
		return Prediction{}, false
	}

	last := velocity
	if !zeroAccel {
		dir := SafeNormal(acceleration)
		last = dir.Mul(velocity.Dot(dir))
	}
	last = Flatten(last)

	input := Flatten(acceleration)
	inputDir := SafeNormal(input)

	loc := origin
	elapsed := 0.0
	for i := 1; i <= maxIterations; i++ {
		old := last

		if zeroAccel {
			last = Brake(last, friction, deceleration, dt)
		} else {
			total := input.Sub(last.Sub(inputDir.Mul(last.Len())).Mul(friction))
			last = last.Add(total.Mul(dt))
		}

		loc = loc.Add(last.Mul(dt))
		elapsed += dt

		if last.Dot(last) <= restSpeedSq || last.Dot(old) <= 0 {
			return Prediction{Location: loc, Time: elapsed, Iterations: i}, true
		}
	}
	return Prediction{}, false
}
