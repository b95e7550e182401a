package effects

import (
	"math"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundbox/graph"
)

// impulse yields a single 1 followed by silence
func impulse() beep.Streamer {
	first := true
	return beep.StreamerFunc(func(s [][2]float64) (int, bool) {
		for i := range s {
			s[i] = [2]float64{}
		}
		if first && len(s) > 0 {
			s[0] = [2]float64{1, 1}
			first = false
		}
		return len(s), true
	})
}

func constant(l, r float64) beep.Streamer {
	return beep.StreamerFunc(func(s [][2]float64) (int, bool) {
		for i := range s {
			s[i] = [2]float64{l, r}
		}
		return len(s), true
	})
}

func pull(s beep.Streamer, n int) [][2]float64 {
	out := make([][2]float64, n)
	s.Stream(out)
	return out
}

func TestDelayEcho(t *testing.T) {
	d, err := NewDelay(10, 300*time.Millisecond, 0.5, 0.5)
	require.NoError(t, err)
	d.Input().Connect(impulse())

	out := pull(d.Output(), 10)
	assert.InDelta(t, 0.5, out[0][0], 1e-9)
	assert.InDelta(t, 0.5, out[3][0], 1e-9)
	assert.InDelta(t, 0.25, out[6][0], 1e-9)
	assert.InDelta(t, 0.125, out[9][1], 1e-9)
	assert.Zero(t, out[1][0])
}

func TestDelayParameters(t *testing.T) {
	tests := []struct {
		name     string
		d        time.Duration
		feedback float64
		mix      float64
	}{
		{name: "zero time", d: 0, feedback: 0.5, mix: 0.5},
		{name: "too long", d: MaxDelay + time.Second, feedback: 0.5, mix: 0.5},
		{name: "runaway feedback", d: time.Second, feedback: 1, mix: 0.5},
		{name: "negative mix", d: time.Second, feedback: 0.5, mix: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDelay(44100, tt.d, tt.feedback, tt.mix)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}

	d, err := NewDelay(44100, time.Second, 0, 1)
	require.NoError(t, err)
	assert.True(t, d.SetTime(time.Millisecond))
	assert.False(t, d.SetTime(0))
	assert.True(t, d.SetFeedback(0.9))
	assert.False(t, d.SetFeedback(1.5))
	assert.True(t, d.SetMix(0))
	assert.False(t, d.SetMix(2))
}

func TestLowPass(t *testing.T) {
	lp, err := NewLowPass(44100, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, lp.Cutoff())
	lp.Input().Connect(constant(1, -1))

	out := pull(lp.Output(), 4096)
	assert.Greater(t, out[0][0], 0.0)
	assert.Less(t, out[0][0], 1.0)
	assert.InDelta(t, 1, out[4095][0], 1e-6)
	assert.InDelta(t, -1, out[4095][1], 1e-6)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i][0], out[i-1][0])
	}

	assert.False(t, lp.SetCutoff(0))
	assert.False(t, lp.SetCutoff(30000))
	assert.False(t, lp.SetCutoff(math.NaN()))
	_, err = NewLowPass(44100, -5)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestPan(t *testing.T) {
	tests := []struct {
		pos         float64
		left, right float64
	}{
		{pos: 0, left: 1, right: 1},
		{pos: 1, left: 0, right: 2},
		{pos: -1, left: 2, right: 0},
		{pos: 0.5, left: 0.5, right: 1.5},
	}

	for _, tt := range tests {
		p := NewPan(tt.pos)
		p.Input().Connect(constant(1, 1))
		out := pull(p.Output(), 1)
		assert.InDelta(t, tt.left, out[0][0], 1e-9, "pan %v", tt.pos)
		assert.InDelta(t, tt.right, out[0][1], 1e-9, "pan %v", tt.pos)
	}

	p := NewPan(3)
	assert.Zero(t, p.Position())
	assert.False(t, p.SetPosition(-2))
	assert.True(t, p.SetPosition(-0.25))
	assert.Equal(t, -0.25, p.Position())
}

func TestTap(t *testing.T) {
	tap := NewTap(4)
	n := 0.0
	tap.Input().Connect(beep.StreamerFunc(func(s [][2]float64) (int, bool) {
		for i := range s {
			n++
			s[i] = [2]float64{n, n}
		}
		return len(s), true
	}))

	out := pull(tap.Output(), 6)
	assert.Equal(t, 6.0, out[5][0])
	assert.Equal(t, []float64{3, 4, 5, 6}, tap.Samples(4))
	assert.Equal(t, []float64{5, 6}, tap.Samples(2))
	assert.Len(t, tap.Samples(10), 4)
	assert.InDelta(t, math.Sqrt((9+16+25+36)/4.0), tap.Level(), 1e-9)
}

func TestEffectsSpliceIntoChain(t *testing.T) {
	c := graph.NewChain()
	c.Input().Connect(constant(1, 1))

	pan := NewPan(1)
	tap := NewTap(8)
	require.NoError(t, c.Add(pan))
	require.NoError(t, c.Add(tap))

	out := pull(c.Output(), 8)
	assert.Zero(t, out[0][0])
	assert.Equal(t, 2.0, out[0][1])
	assert.InDelta(t, 1, tap.Samples(1)[0], 1e-9)

	require.True(t, c.Remove(pan))
	out = pull(c.Output(), 1)
	assert.Equal(t, 1.0, out[0][0])
}
