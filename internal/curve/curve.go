// Package curve inverts an animation's sampled distance curve: given a desired
// distance to a marker it finds the playback time whose curve value matches.
package curve

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NoMatch is returned by FindMatchingTime when no time can be matched. Callers fall
// back to ordinary playback.
const NoMatch = -1.0

// DefaultCurveName is the distance curve name used when none is configured.
const DefaultCurveName = "MoSymph_Distance"

// valueEpsilon is the smallest value difference that is interpolated across.
const valueEpsilon = 1e-6

var (
	// ErrNoAnimation is returned by Bind when no animation is supplied.
	ErrNoAnimation = errors.New("no animation bound")

	// ErrCurveNotFound is returned by Bind when the animation has no curve of that name.
	ErrCurveNotFound = errors.New("distance curve not found")
)

// Key is one sample of a curve.
type Key struct {
	Time  float64 `json:"time" toml:"time"`   // seconds
	Value float64 `json:"value" toml:"value"` // signed distance; positive while the marker is ahead
}

// Animation is the part of an animation asset the matcher reads.
type Animation struct {
	Name       string           `json:"name" toml:"name"`
	PlayLength float64          `json:"play_length" toml:"play_length"` // seconds
	RateScale  float64          `json:"rate_scale,omitempty" toml:"rate_scale"`
	Curves     map[string][]Key `json:"curves" toml:"curves"`
}

// Curve returns the named curve's keys and whether it exists.
func (a *Animation) Curve(name string) ([]Key, bool) {
	if a == nil {
		return nil, false
	}
	keys, ok := a.Curves[name]
	return keys, ok
}

// EffectiveRateScale returns RateScale, treating an unset scale as 1.
func (a *Animation) EffectiveRateScale() float64 {
	if a == nil || a.RateScale == 0 {
		return 1
	}
	return a.RateScale
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithLogger sets the logger bind warnings are written to.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Matcher) { m.logger = l }
}

// Matcher holds one animation's sampled distance curve and a search cursor.
//
// The cursor only moves forward. Repeated calls whose desired distance moves along
// the curve's direction (the usual approach toward a marker) cost amortized O(1).
// A Matcher is owned by a single evaluation thread.
type Matcher struct {
	keys      []Key
	maxValue  float64
	ascending bool
	cursor    int
	logger    zerolog.Logger
}

// NewMatcher returns an unbound Matcher; every match reports NoMatch until Bind succeeds.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{logger: log.Logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bind copies the named curve of anim into the matcher and resets the cursor.
// On failure the matcher is left empty, a warning is logged and every subsequent
// match reports NoMatch until a later Bind succeeds.
func (m *Matcher) Bind(anim *Animation, curveName string) error {
	m.keys = m.keys[:0]
	m.maxValue = 0
	m.ascending = true
	m.cursor = 0

	if anim == nil {
		m.logger.Warn().Str("curve", curveName).Msg("distance matching has no animation to bind")
		return ErrNoAnimation
	}

	keys, ok := anim.Curve(curveName)
	if !ok {
		m.logger.Warn().
			Str("animation", anim.Name).
			Str("curve", curveName).
			Msg("distance matching curve could not be found, matching disabled")
		return fmt.Errorf("animation %q curve %q: %w", anim.Name, curveName, ErrCurveNotFound)
	}

	m.keys = append(m.keys, keys...)
	for _, k := range m.keys {
		if a := math.Abs(k.Value); a > m.maxValue {
			m.maxValue = a
		}
	}
	if len(m.keys) > 1 {
		m.ascending = m.keys[len(m.keys)-1].Value >= m.keys[0].Value
	}
	return nil
}

// Reset moves the search cursor back to the first key. Call it at the start of
// every play-through.
func (m *Matcher) Reset() {
	m.cursor = 0
}

// Len returns the number of bound keys.
func (m *Matcher) Len() int { return len(m.keys) }

// MaxValue returns the largest absolute value of the bound curve.
func (m *Matcher) MaxValue() float64 { return m.maxValue }

// FindMatchingTime returns the time at which the curve (negated when negate is set)
// equals desired, interpolating linearly between the bracketing keys.
//
// It returns NoMatch when fewer than two keys are bound or |desired| exceeds the
// largest absolute curve value. If every remaining key is still short of desired the
// last key's time is returned.
func (m *Matcher) FindMatchingTime(desired float64, negate bool) float64 {
	if len(m.keys) < 2 || math.Abs(desired) > m.maxValue {
		return NoMatch
	}

	sign := 1.0
	ascending := m.ascending
	if negate {
		sign = -1
		ascending = !ascending
	}

	// ahead: the key has not yet reached the desired distance.
	ahead := func(v float64) bool {
		if ascending {
			return v < desired
		}
		return v > desired
	}

	m.cursor = min(max(m.cursor, 0), len(m.keys)-1)
	prev, next := m.cursor, -1
	for i := m.cursor; i < len(m.keys); i++ {
		if ahead(m.keys[i].Value * sign) {
			prev = i
			continue
		}
		next = i
		break
	}
	m.cursor = prev

	p := m.keys[prev]
	if next < 0 {
		return p.Time
	}
	s := m.keys[next]

	dv := (s.Value - p.Value) * sign
	if math.Abs(dv) < valueEpsilon {
		return p.Time
	}
	return p.Time + (s.Time-p.Time)*(desired-p.Value*sign)/dv
}
