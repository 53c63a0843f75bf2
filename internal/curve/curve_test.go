package curve

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boundMatcher(t *testing.T, keys ...Key) *Matcher {
	t.Helper()
	m := NewMatcher(WithLogger(zerolog.Nop()))
	anim := &Animation{Name: "test", PlayLength: 2, Curves: map[string][]Key{DefaultCurveName: keys}}
	require.NoError(t, m.Bind(anim, DefaultCurveName))
	return m
}

func linear() []Key {
	return []Key{{0, 0}, {1, 10}, {2, 20}}
}

func TestBindFailures(t *testing.T) {
	m := NewMatcher(WithLogger(zerolog.Nop()))

	err := m.Bind(nil, DefaultCurveName)
	require.ErrorIs(t, err, ErrNoAnimation)
	assert.Equal(t, NoMatch, m.FindMatchingTime(0, false))

	anim := &Animation{Name: "walk_stop", Curves: map[string][]Key{"other": linear()}}
	err = m.Bind(anim, DefaultCurveName)
	require.ErrorIs(t, err, ErrCurveNotFound)
	assert.Contains(t, err.Error(), "walk_stop")
	assert.Equal(t, NoMatch, m.FindMatchingTime(5, false))
}

func TestRebindReplacesKeys(t *testing.T) {
	m := boundMatcher(t, linear()...)
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 20.0, m.MaxValue())

	err := m.Bind(&Animation{Name: "missing"}, DefaultCurveName)
	require.Error(t, err)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0.0, m.MaxValue())
}

func TestBindCopiesKeys(t *testing.T) {
	keys := linear()
	m := boundMatcher(t, keys...)
	keys[2].Value = 1000
	assert.Equal(t, 20.0, m.MaxValue())
	assert.InDelta(t, 1.5, m.FindMatchingTime(15, false), 1e-12)
}

func TestFindMatchingTimeOutOfRange(t *testing.T) {
	m := boundMatcher(t, linear()...)
	for _, d := range []float64{20.0001, -20.5, 100, -1e9} {
		assert.Equal(t, NoMatch, m.FindMatchingTime(d, false), "desired=%v", d)
		assert.Equal(t, NoMatch, m.FindMatchingTime(d, true), "desired=%v", d)
	}
}

func TestFindMatchingTimeTooFewKeys(t *testing.T) {
	m := boundMatcher(t, Key{0, 10})
	assert.Equal(t, NoMatch, m.FindMatchingTime(5, false))
}

func TestFindMatchingTimeInterpolates(t *testing.T) {
	m := boundMatcher(t, linear()...)
	assert.InDelta(t, 1.5, m.FindMatchingTime(15, false), 1e-12)
}

func TestFindMatchingTimeTwoKeyMidpoint(t *testing.T) {
	cases := []struct{ t0, v0, t1, v1 float64 }{
		{0, 0, 1, 10},
		{0.25, 40, 1.25, 0},
		{0, -30, 0.8, 0},
		{1, 5, 3, 9},
	}
	for _, c := range cases {
		m := boundMatcher(t, Key{c.t0, c.v0}, Key{c.t1, c.v1})
		got := m.FindMatchingTime((c.v0+c.v1)/2, false)
		assert.InDelta(t, c.t0+(c.t1-c.t0)*0.5, got, 1e-12, "%+v", c)
	}
}

func TestFindMatchingTimeIdempotent(t *testing.T) {
	m := boundMatcher(t, Key{0, 100}, Key{0.5, 60}, Key{1, 25}, Key{1.5, 0})
	first := m.FindMatchingTime(40, false)
	second := m.FindMatchingTime(40, false)
	assert.Equal(t, first, second)
	assert.InDelta(t, 0.5+0.5*(20.0/35.0), first, 1e-12)
}

func TestFindMatchingTimeNegation(t *testing.T) {
	for _, d := range []float64{0, 3, 10, 15, 19.5, -4, -12} {
		a := boundMatcher(t, linear()...).FindMatchingTime(d, true)
		b := boundMatcher(t, linear()...).FindMatchingTime(-d, false)
		assert.Equal(t, b, a, "desired=%v", d)
	}
}

func TestFindMatchingTimeStopCurve(t *testing.T) {
	// Distance remaining to a stop marker counts down to zero.
	m := boundMatcher(t, Key{0, 200}, Key{0.2, 120}, Key{0.4, 50}, Key{0.6, 10}, Key{0.8, 0})

	prev := -1.0
	for d := 190.0; d >= 0; d -= 10 {
		got := m.FindMatchingTime(d, false)
		require.GreaterOrEqual(t, got, prev, "desired=%v", d)
		prev = got
	}
	assert.InDelta(t, 0.8, prev, 1e-12)

	m.Reset()
	assert.InDelta(t, 0.1, m.FindMatchingTime(160, false), 1e-12)
}

func TestFindMatchingTimeClampsToLastKey(t *testing.T) {
	// A flat tail never reaches the desired distance.
	m := boundMatcher(t, Key{0, -40}, Key{1, -20}, Key{2, -20})
	assert.Equal(t, 2.0, m.FindMatchingTime(-10, false))
}

func TestFindMatchingTimeFlatSegment(t *testing.T) {
	m := boundMatcher(t, Key{0, 0}, Key{1, 10}, Key{2, 10}, Key{3, 20})
	assert.Equal(t, 1.0, m.FindMatchingTime(10, false))
}
