package playback

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxd309/dm-engine/internal/curve"
	"github.com/cxd309/dm-engine/internal/matching"
)

func stopAnimation() *curve.Animation {
	return &curve.Animation{
		Name:       "walk_stop",
		PlayLength: 1,
		Curves: map[string][]curve.Key{
			curve.DefaultCurveName: {{Time: 0, Value: 100}, {Time: 0.5, Value: 40}, {Time: 1, Value: 0}},
		},
	}
}

func newPlayer(t *testing.T, mutate func(*Settings)) *Player {
	t.Helper()
	s := DefaultSettings()
	if mutate != nil {
		mutate(&s)
	}
	p, err := NewPlayer(s, curve.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return p
}

func TestPlayerMatches(t *testing.T) {
	p := newPlayer(t, nil)
	require.NoError(t, p.SetAnimation(stopAnimation()))
	p.Initialize()

	assert.InDelta(t, 0.25, p.Update(70, 1.0/60), 1e-12)
	assert.True(t, p.Matched())
	assert.InDelta(t, 0.75, p.Update(20, 1.0/60), 1e-12)
}

func TestPlayerFallsBackOutOfRange(t *testing.T) {
	p := newPlayer(t, nil)
	require.NoError(t, p.SetAnimation(stopAnimation()))
	p.Initialize()

	assert.InDelta(t, 0.1, p.Update(250, 0.1), 1e-12)
	assert.False(t, p.Matched())

	for _i := 0; _i < 20; _i++ {
		p.Update(250, 0.1)
	}
	assert.Equal(t, 1.0, p.Time())
}

func TestPlayerForwardDestinationReached(t *testing.T) {
	p := newPlayer(t, func(s *Settings) { s.MovementType = matching.PhaseForward })
	require.NoError(t, p.SetAnimation(stopAnimation()))
	p.Initialize()

	assert.Equal(t, curve.NoMatch, p.MatchingTime(4, 0))
	assert.InDelta(t, 0.9375, p.MatchingTime(5, 0), 1e-12)
}

func TestPlayerDistanceLimit(t *testing.T) {
	p := newPlayer(t, func(s *Settings) { s.DistanceLimit = 50 })
	require.NoError(t, p.SetAnimation(stopAnimation()))

	assert.Equal(t, curve.NoMatch, p.MatchingTime(50, 0))
	assert.Greater(t, p.MatchingTime(49, 0), 0.0)
}

func TestPlayerDisabled(t *testing.T) {
	p := newPlayer(t, func(s *Settings) { s.Enabled = false })
	require.NoError(t, p.SetAnimation(stopAnimation()))
	assert.Equal(t, curve.NoMatch, p.MatchingTime(70, 0))
}

func TestPlayerSmoothing(t *testing.T) {
	p := newPlayer(t, func(s *Settings) {
		s.SmoothRate = 0.5
		s.SmoothTimeThreshold = 0.15
	})
	require.NoError(t, p.SetAnimation(stopAnimation()))

	// 0.25 is within the threshold of 0.2: halfway there.
	assert.InDelta(t, 0.225, p.MatchingTime(70, 0.2), 1e-12)
	// 0.75 is too far from 0.2: jump.
	assert.InDelta(t, 0.75, p.MatchingTime(20, 0.2), 1e-12)
}

func TestPlayerMissingCurve(t *testing.T) {
	p := newPlayer(t, func(s *Settings) { s.CurveName = "Other" })
	err := p.SetAnimation(stopAnimation())
	require.ErrorIs(t, err, curve.ErrCurveNotFound)

	p.Initialize()
	p.Update(70, 0.2)
	assert.False(t, p.Matched())
	assert.InDelta(t, 0.2, p.Time(), 1e-12)
}

func TestPlayerReverseStartsAtEnd(t *testing.T) {
	p := newPlayer(t, func(s *Settings) { s.PlayRate = -1 })
	require.NoError(t, p.SetAnimation(stopAnimation()))
	p.Initialize()
	assert.Equal(t, 1.0, p.Time())
	assert.InDelta(t, 0.9, p.Advance(0.1), 1e-12)
}

func TestSettingsValidate(t *testing.T) {
	s := DefaultSettings()
	s.SmoothRate = 2
	_, err := NewPlayer(s)
	require.ErrorIs(t, err, ErrInvalidSettings)
}

func TestMatchTime(t *testing.T) {
	assert.InDelta(t, 0.7, MatchTime(1.2, 0.5, 1, 2), 1e-12)
	assert.InDelta(t, 0.2, MatchTime(1.2, 0.5, 2, 2), 1e-12)
	assert.Equal(t, 0.0, MatchTime(0.3, 0.5, 1, 2))
	assert.Equal(t, 2.0, MatchTime(0.3, 0.5, -1, 2))
}
