package emitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitOrder(t *testing.T) {
	var e Emitter[string]
	var got []int

	e.On("play", func() { got = append(got, 1) })
	e.On("play", func() { got = append(got, 2) })
	e.On("stop", func() { got = append(got, 99) })
	e.On("play", func() { got = append(got, 3) })

	e.Emit("play")
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestEmitWithoutListeners(t *testing.T) {
	var e Emitter[int]
	require.NotPanics(t, func() { e.Emit(7) })
	assert.Equal(t, 0, e.Count(7))
}

func TestDuplicateListeners(t *testing.T) {
	var e Emitter[string]
	calls := 0
	l := func() { calls++ }

	e.On("end", l)
	e.On("end", l)
	e.Emit("end")

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, e.Count("end"))
}

func TestOff(t *testing.T) {
	var e Emitter[string]
	calls := 0
	e.On("pause", func() { calls++ })
	e.Off("pause")
	e.Emit("pause")

	assert.Zero(t, calls)
	assert.Zero(t, e.Count("pause"))
}

func TestNilListenerIgnored(t *testing.T) {
	var e Emitter[string]
	e.On("play", nil)
	assert.Zero(t, e.Count("play"))
}

func TestListenerMayReenter(t *testing.T) {
	var e Emitter[string]
	inner := 0

	e.On("outer", func() {
		e.On("inner", func() { inner++ })
		e.Emit("inner")
	})

	require.NotPanics(t, func() { e.Emit("outer") })
	assert.Equal(t, 1, inner)
}
