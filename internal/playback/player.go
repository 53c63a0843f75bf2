// Package playback picks animation playback times from live motion data: a
// distance-matched sequence player that inverts a distance curve, and time matching
// against a predicted time to marker.
package playback

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cxd309/dm-engine/internal/curve"
	"github.com/cxd309/dm-engine/internal/matching"
)

// ErrInvalidSettings is wrapped by every Settings validation failure.
var ErrInvalidSettings = errors.New("invalid playback settings")

// Settings tune a distance-matched Player.
type Settings struct {
	CurveName string `json:"curve_name" toml:"curve_name"`

	// NegateCurve flips the curve's sign for assets authored with the opposite
	// convention (positive while the marker is behind).
	NegateCurve bool `json:"negate_curve" toml:"negate_curve"`

	// MovementType is the phase this player serves. A Forward player stops matching
	// once the destination threshold is reached.
	MovementType matching.Phase `json:"movement_type" toml:"movement_type"`

	// DistanceLimit disables matching while the desired distance is at or beyond it.
	// Negative means no limit.
	DistanceLimit float64 `json:"distance_limit" toml:"distance_limit"`

	DestinationReachedThreshold float64 `json:"destination_reached_threshold" toml:"destination_reached_threshold"`

	// SmoothRate lerps toward the matched time when the jump is under
	// SmoothTimeThreshold. Zero or negative disables smoothing.
	SmoothRate          float64 `json:"smooth_rate" toml:"smooth_rate"`
	SmoothTimeThreshold float64 `json:"smooth_time_threshold" toml:"smooth_time_threshold"`

	PlayRate float64 `json:"play_rate" toml:"play_rate"`
	Enabled  bool    `json:"enabled" toml:"enabled"`
}

// DefaultSettings returns an enabled player reading the default curve.
func DefaultSettings() Settings {
	return Settings{
		CurveName:                   curve.DefaultCurveName,
		DistanceLimit:               -1,
		DestinationReachedThreshold: 5,
		SmoothRate:                  -1,
		SmoothTimeThreshold:         0.15,
		PlayRate:                    1,
		Enabled:                     true,
	}
}

// Validate reports the first out-of-range field.
func (s Settings) Validate() error {
	switch {
	case s.CurveName == "":
		return fmt.Errorf("%w: curve_name is empty", ErrInvalidSettings)
	case s.SmoothRate > 1:
		return fmt.Errorf("%w: smooth_rate %v above 1", ErrInvalidSettings, s.SmoothRate)
	case s.SmoothTimeThreshold < 0:
		return fmt.Errorf("%w: smooth_time_threshold %v is negative", ErrInvalidSettings, s.SmoothTimeThreshold)
	case s.DestinationReachedThreshold < 0:
		return fmt.Errorf("%w: destination_reached_threshold %v is negative", ErrInvalidSettings, s.DestinationReachedThreshold)
	}
	return nil
}

// Player is a sequence player whose time follows a distance curve when it can and
// plays normally when it cannot.
type Player struct {
	settings Settings
	matcher  *curve.Matcher
	anim     *curve.Animation
	time     float64
	matched  bool
}

// NewPlayer validates s and returns a Player with no animation.
func NewPlayer(s Settings, opts ...curve.Option) (*Player, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &Player{settings: s, matcher: curve.NewMatcher(opts...)}, nil
}

// Settings returns the player's settings.
func (p *Player) Settings() Settings { return p.settings }

// SetAnimation binds anim if it differs from the bound one. A bind failure leaves the
// player in ordinary playback and is returned for the caller to report.
func (p *Player) SetAnimation(anim *curve.Animation) error {
	if anim == p.anim && anim != nil {
		return nil
	}
	p.anim = anim
	return p.matcher.Bind(anim, p.settings.CurveName)
}

// Initialize starts a new play-through: time rewinds (to the end for reverse
// playback) and the curve cursor resets.
func (p *Player) Initialize() {
	p.matcher.Reset()
	p.matched = false
	p.time = 0
	if p.effectiveRate() < 0 {
		p.time = p.playLength()
	}
}

// Time returns the current playback time.
func (p *Player) Time() float64 { return p.time }

// Matched reports whether the last Update used a matched time.
func (p *Player) Matched() bool { return p.matched }

// MatchingTime returns the time for desired distance given the current time, or
// curve.NoMatch when ordinary playback should be used instead.
func (p *Player) MatchingTime(desired, current float64) float64 {
	s := p.settings
	if !s.Enabled || p.anim == nil {
		return curve.NoMatch
	}
	if s.DistanceLimit >= 0 && desired >= s.DistanceLimit {
		return curve.NoMatch
	}
	if s.MovementType == matching.PhaseForward && desired < s.DestinationReachedThreshold {
		return curve.NoMatch
	}

	t := p.matcher.FindMatchingTime(desired, s.NegateCurve)
	if t < 0 {
		return curve.NoMatch
	}

	t = mgl64.Clamp(t, 0, p.playLength())
	if s.SmoothRate > 0 && math.Abs(t-current) < s.SmoothTimeThreshold {
		return current + (t-current)*s.SmoothRate
	}
	return t
}

// Update advances the player one frame toward the desired distance.
func (p *Player) Update(desired, dt float64) float64 {
	if t := p.MatchingTime(desired, p.time); t >= 0 {
		p.time = t
		p.matched = true
		return p.time
	}
	return p.Advance(dt)
}

// Advance plays normally for dt seconds, clamped to the animation.
func (p *Player) Advance(dt float64) float64 {
	p.matched = false
	p.time = mgl64.Clamp(p.time+dt*p.effectiveRate(), 0, p.playLength())
	return p.time
}

func (p *Player) effectiveRate() float64 {
	return p.settings.PlayRate * p.anim.EffectiveRateScale()
}

func (p *Player) playLength() float64 {
	if p.anim == nil {
		return 0
	}
	return math.Max(p.anim.PlayLength, 0)
}
