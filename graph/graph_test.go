package graph

import (
	"slices"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// digitEffect shifts the signal one decimal place left and appends its id, so
// the rendered value spells out the order effects were applied in.
type digitEffect struct {
	in *Inlet
	id float64
}

func newDigit(id int) *digitEffect {
	return &digitEffect{in: NewInlet(), id: float64(id)}
}

func (d *digitEffect) Input() *Inlet         { return d.in }
func (d *digitEffect) Output() beep.Streamer { return d }
func (d *digitEffect) Err() error            { return nil }
func (d *digitEffect) Stream(s [][2]float64) (int, bool) {
	n, ok := d.in.Stream(s)
	for i := range s[:n] {
		s[i][0] = s[i][0]*10 + d.id
		s[i][1] = s[i][1]*10 + d.id
	}
	return n, ok
}

func constant(v float64) beep.Streamer {
	return beep.StreamerFunc(func(s [][2]float64) (int, bool) {
		for i := range s {
			s[i] = [2]float64{v, v}
		}
		return len(s), true
	})
}

func pull(t *testing.T, s beep.Streamer) float64 {
	t.Helper()
	buf := make([][2]float64, 8)
	n, ok := s.Stream(buf)
	require.True(t, ok)
	require.Equal(t, len(buf), n)
	return buf[len(buf)-1][0]
}

func TestInletSilenceWhenDisconnected(t *testing.T) {
	in := NewInlet()
	buf := [][2]float64{{1, 1}, {2, 2}}
	n, ok := in.Stream(buf)

	assert.True(t, ok)
	assert.Equal(t, 2, n)
	assert.Equal(t, [][2]float64{{0, 0}, {0, 0}}, buf)
	assert.False(t, in.Connected())
}

func TestInletDropsDrainedSource(t *testing.T) {
	in := NewInlet()
	calls := 0
	in.Connect(beep.StreamerFunc(func(s [][2]float64) (int, bool) {
		calls++
		if calls > 1 {
			return 0, false
		}
		s[0] = [2]float64{0.5, 0.5}
		return 1, true
	}))

	buf := make([][2]float64, 4)
	_, ok := in.Stream(buf)
	require.True(t, ok)
	assert.Equal(t, [2]float64{0.5, 0.5}, buf[0])
	assert.Equal(t, [2]float64{0, 0}, buf[1])

	_, ok = in.Stream(buf)
	assert.True(t, ok)
	assert.False(t, in.Connected())
}

func TestChainEmptyPassesThrough(t *testing.T) {
	c := NewChain()
	sink := c.Output()
	c.Input().Connect(constant(3))

	assert.Equal(t, 3.0, pull(t, sink))
	assert.Zero(t, c.Len())
}

func TestChainAddRemove(t *testing.T) {
	c := NewChain()
	sink := c.Output()
	c.Input().Connect(constant(0))

	a, b := newDigit(1), newDigit(2)
	require.NoError(t, c.Add(a))
	require.NoError(t, c.Add(b))
	assert.Equal(t, []Effect{a, b}, c.Effects())
	assert.Equal(t, 12.0, pull(t, sink))

	assert.True(t, c.Remove(a))
	assert.Equal(t, []Effect{b}, c.Effects())
	assert.Equal(t, 2.0, pull(t, sink))
	assert.False(t, a.Input().Connected())

	assert.True(t, c.Remove(b))
	assert.Empty(t, c.Effects())
	assert.Equal(t, 0.0, pull(t, sink))
	assert.Same(t, c.Input(), c.sink.Source())
}

func TestChainRoundTripRestoresDirectPath(t *testing.T) {
	c := NewChain()
	before := c.sink.Source()

	e := newDigit(5)
	require.NoError(t, c.Add(e))
	require.True(t, c.Remove(e))

	assert.Same(t, before, c.sink.Source())
	assert.Empty(t, c.Effects())
}

func TestChainRemoveMiddle(t *testing.T) {
	c := NewChain()
	sink := c.Output()
	c.Input().Connect(constant(0))

	a, b, d := newDigit(1), newDigit(2), newDigit(3)
	for _, e := range []Effect{a, b, d} {
		require.NoError(t, c.Add(e))
	}
	require.True(t, c.Remove(b))

	assert.Equal(t, []Effect{a, d}, c.Effects())
	assert.Equal(t, 13.0, pull(t, sink))
}

func TestChainErrors(t *testing.T) {
	c := NewChain()
	e := newDigit(1)

	assert.ErrorIs(t, c.Add(nil), ErrNilEffect)
	require.NoError(t, c.Add(e))
	assert.ErrorIs(t, c.Add(e), ErrDuplicateEffect)
	assert.False(t, c.Remove(newDigit(1)))
	assert.False(t, c.Remove(nil))
	assert.Equal(t, 1, c.Len())
}

func TestChainClear(t *testing.T) {
	c := NewChain()
	sink := c.Output()
	c.Input().Connect(constant(0))
	require.NoError(t, c.Add(newDigit(4)))
	require.NoError(t, c.Add(newDigit(2)))

	c.Clear()
	assert.Zero(t, c.Len())
	assert.Equal(t, 0.0, pull(t, sink))
}

func TestChainOrderProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := NewChain()
		sink := c.Output()
		c.Input().Connect(constant(0))

		pool := make([]*digitEffect, 5)
		for i := range pool {
			pool[i] = newDigit(i + 1)
		}

		var model []*digitEffect
		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			e := pool[rapid.IntRange(0, len(pool)-1).Draw(t, "effect")]
			if slices.Contains(model, e) {
				if !c.Remove(e) {
					t.Fatalf("remove of present effect failed")
				}
				model = slices.DeleteFunc(model, func(x *digitEffect) bool { return x == e })
			} else {
				if err := c.Add(e); err != nil {
					t.Fatalf("add: %v", err)
				}
				model = append(model, e)
			}

			want := 0.0
			for _, m := range model {
				want = want*10 + m.id
			}

			buf := make([][2]float64, 4)
			sink.Stream(buf)
			if buf[0][0] != want {
				t.Fatalf("rendered %v, want %v for order %v", buf[0][0], want, model)
			}
			if c.Len() != len(model) {
				t.Fatalf("chain has %d effects, model %d", c.Len(), len(model))
			}
		}
	})
}

func TestVolume(t *testing.T) {
	tests := []struct {
		name   string
		start  float64
		set    float64
		accept bool
		want   float64
	}{
		{name: "valid", start: 1, set: 0.3, accept: true, want: 0.3},
		{name: "zero", start: 1, set: 0, accept: true, want: 0},
		{name: "one", start: 0.5, set: 1, accept: true, want: 1},
		{name: "too large", start: 1, set: 50, accept: false, want: 1},
		{name: "negative", start: 0.8, set: -0.1, accept: false, want: 0.8},
		{name: "invalid start", start: 2, set: 7, accept: false, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVolume(tt.start)
			assert.Equal(t, tt.accept, v.SetLevel(tt.set))
			assert.InDelta(t, tt.want, v.Level(), 1e-9)

			v.Input().Connect(constant(0.5))
			buf := make([][2]float64, 2)
			v.Stream(buf)
			assert.InDelta(t, 0.5*tt.want, buf[1][0], 1e-9)
		})
	}
}
