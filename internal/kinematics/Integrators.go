package kinematics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MinTickTime is the smallest timestep that will be integrated.
const MinTickTime = 1e-6

// MaxBrakingSubstep bounds each braking sub-step while friction is non-zero, keeping
// the result stable when the caller ticks at a low frame rate.
const MaxBrakingSubstep = 1.0 / 33.0

// brakingStopSpeedSq is the squared speed under which active braking snaps to rest.
const brakingStopSpeedSq = 10 * 10

// Brake applies friction and constant braking deceleration to v over dt.
// The velocity never reverses: the instant a sub-step would flip it, it is zeroed.
func Brake(v mgl64.Vec3, friction, deceleration, dt float64) mgl64.Vec3 {
	if v.Dot(v) == 0 || dt < MinTickTime {
		return v
	}

	friction = math.Max(friction, 0)
	deceleration = math.Max(deceleration, 0)
	zeroFriction := friction < zeroFrictionEpsilon
	zeroBraking := deceleration < zeroBrakingEpsilon
	if zeroFriction && zeroBraking {
		return v
	}

	old := v
	var brakeDecel mgl64.Vec3
	if !zeroBraking {
		brakeDecel = SafeNormal(v).Mul(-deceleration)
	}

	remaining := dt
	for remaining >= MinTickTime {
		// Zero friction is constant deceleration, so one step is exact.
		step := remaining
		if remaining > MaxBrakingSubstep && !zeroFriction {
			step = math.Min(MaxBrakingSubstep, remaining*0.5)
		}
		remaining -= step

		v = v.Add(v.Mul(-friction).Add(brakeDecel).Mul(step))
		if v.Dot(old) <= 0 {
			return mgl64.Vec3{}
		}
	}

	sq := v.Dot(v)
	if sq <= 1 || (!zeroBraking && sq <= brakingStopSpeedSq) {
		return mgl64.Vec3{}
	}
	return v
}

// Accelerate integrates input acceleration over dt. Friction bleeds off the part of v
// that does not point along the acceleration, then the result is capped at maxSpeed
// (no cap when maxSpeed <= 0).
func Accelerate(v, acceleration mgl64.Vec3, friction, maxSpeed, dt float64) mgl64.Vec3 {
	if dt < MinTickTime {
		return v
	}
	dir := SafeNormal(acceleration)
	steer := math.Min(dt*math.Max(friction, 0), 1)
	v = v.Sub(v.Sub(dir.Mul(v.Len())).Mul(steer))
	v = v.Add(acceleration.Mul(dt))

	if maxSpeed > 0 && v.Dot(v) > maxSpeed*maxSpeed {
		v = SafeNormal(v).Mul(maxSpeed)
	}
	return v
}
