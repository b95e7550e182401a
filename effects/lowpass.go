package effects

import (
	"fmt"
	"math"
	"sync"

	"github.com/gopxl/beep/v2"

	"soundbox/graph"
)

// LowPass is a one-pole low-pass filter applied to each channel
type LowPass struct {
	in   *graph.Inlet
	rate float64

	mu     sync.Mutex
	cutoff float64
	alpha  float64
	prev   [2]float64
}

func NewLowPass(rate beep.SampleRate, cutoff float64) (*LowPass, error) {
	lp := &LowPass{in: graph.NewInlet(), rate: float64(rate)}
	if !lp.SetCutoff(cutoff) {
		return nil, fmt.Errorf("%w: cutoff %v", ErrInvalidParameter, cutoff)
	}
	return lp, nil
}

func (lp *LowPass) Input() *graph.Inlet   { return lp.in }
func (lp *LowPass) Output() beep.Streamer { return lp }

func (lp *LowPass) Cutoff() float64 {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.cutoff
}

// SetCutoff accepts frequencies between 0 and the Nyquist frequency
func (lp *LowPass) SetCutoff(cutoff float64) bool {
	if math.IsNaN(cutoff) || cutoff <= 0 || cutoff > lp.rate/2 {
		return false
	}

	rc := 1.0 / (2 * math.Pi * cutoff)
	dt := 1.0 / lp.rate

	lp.mu.Lock()
	lp.cutoff = cutoff
	lp.alpha = dt / (rc + dt)
	lp.mu.Unlock()
	return true
}

func (lp *LowPass) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = lp.in.Stream(samples)

	lp.mu.Lock()
	defer lp.mu.Unlock()

	for i := range samples[:n] {
		for c := range 2 {
			lp.prev[c] += lp.alpha * (samples[i][c] - lp.prev[c])
			samples[i][c] = lp.prev[c]
		}
	}
	return n, ok
}

func (lp *LowPass) Err() error {
	return nil
}
