package kinematics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// normalizeEpsilonSq is the squared length below which a vector has no direction.
	normalizeEpsilonSq = 1e-8

	// accelerationEpsilonSq is the squared acceleration treated as "no input".
	accelerationEpsilonSq = 0.0001

	zeroFrictionEpsilon = 0.00001
	zeroBrakingEpsilon  = 0.00001
)

// SizeSq returns the squared length of v.
func SizeSq(v mgl64.Vec3) float64 {
	return v.Dot(v)
}

// SafeNormal returns v scaled to unit length, or the zero vector if v is too short
// to have a direction. mgl64's Normalize divides by zero in that case.
func SafeNormal(v mgl64.Vec3) mgl64.Vec3 {
	sq := v.Dot(v)
	if sq < normalizeEpsilonSq {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / math.Sqrt(sq))
}

// Flatten drops the vertical component of v.
func Flatten(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X(), v.Y(), 0}
}

// IsNearlyZero reports whether v is below the acceleration epsilon.
func IsNearlyZero(v mgl64.Vec3) bool {
	return v.Dot(v) < accelerationEpsilonSq
}

// AngleDegrees returns the unsigned angle between a and b in degrees. Zero-length
// inputs yield 0.
func AngleDegrees(a, b mgl64.Vec3) float64 {
	na, nb := SafeNormal(a), SafeNormal(b)
	if na.Dot(na) == 0 || nb.Dot(nb) == 0 {
		return 0
	}
	cos := mgl64.Clamp(na.Dot(nb), -1, 1)
	return mgl64.RadToDeg(math.Acos(cos))
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b mgl64.Vec3) float64 {
	return a.Sub(b).Len()
}
