package graph

import (
	"math"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

// Volume is the terminal gain stage of a sound.
// The level is linear in [0, 1] and applied without smoothing.
type Volume struct {
	in *Inlet

	mu    sync.Mutex
	level float64
	gain  effects.Gain
}

var _ beep.Streamer = (*Volume)(nil)

// NewVolume creates a volume stage. An invalid level falls back to 1.
func NewVolume(level float64) *Volume {
	v := &Volume{in: NewInlet(), level: 1}
	v.gain.Streamer = v.in
	v.SetLevel(level)
	return v
}

// ValidLevel reports whether v lies in the closed unit interval
func ValidLevel(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

func (v *Volume) Input() *Inlet {
	return v.in
}

// Level returns the last accepted level
func (v *Volume) Level() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.level
}

// SetLevel applies level if it is valid and reports whether it was accepted
func (v *Volume) SetLevel(level float64) bool {
	if !ValidLevel(level) {
		return false
	}

	v.mu.Lock()
	v.level = level
	v.gain.Gain = level - 1
	v.mu.Unlock()
	return true
}

func (v *Volume) Stream(samples [][2]float64) (n int, ok bool) {
	v.mu.Lock()
	g := v.gain
	v.mu.Unlock()

	return g.Stream(samples)
}

func (v *Volume) Err() error {
	return nil
}
