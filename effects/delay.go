package effects

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"

	"soundbox/graph"
)

// MaxDelay bounds the delay line
const MaxDelay = 5 * time.Second

// Delay is a feedback echo. Each output sample is the dry input blended
// with the line contents written Time earlier.
type Delay struct {
	in   *graph.Inlet
	rate beep.SampleRate

	mu       sync.Mutex
	line     [][2]float64
	pos      int
	size     int
	feedback float64
	mix      float64
}

// NewDelay creates a delay of d with the given feedback in [0, 1) and
// wet/dry mix in [0, 1].
func NewDelay(rate beep.SampleRate, d time.Duration, feedback, mix float64) (*Delay, error) {
	if d <= 0 || d > MaxDelay {
		return nil, fmt.Errorf("%w: delay time %v", ErrInvalidParameter, d)
	}
	if feedback < 0 || feedback >= 1 {
		return nil, fmt.Errorf("%w: feedback %v", ErrInvalidParameter, feedback)
	}
	if mix < 0 || mix > 1 {
		return nil, fmt.Errorf("%w: mix %v", ErrInvalidParameter, mix)
	}

	return &Delay{
		in:       graph.NewInlet(),
		rate:     rate,
		line:     make([][2]float64, rate.N(MaxDelay)),
		size:     max(1, rate.N(d)),
		feedback: feedback,
		mix:      mix,
	}, nil
}

func (d *Delay) Input() *graph.Inlet   { return d.in }
func (d *Delay) Output() beep.Streamer { return d }

// SetTime changes the delay length; echoes already in the line are kept
func (d *Delay) SetTime(t time.Duration) bool {
	if t <= 0 || t > MaxDelay {
		return false
	}
	d.mu.Lock()
	d.size = max(1, d.rate.N(t))
	d.pos %= d.size
	d.mu.Unlock()
	return true
}

func (d *Delay) SetFeedback(f float64) bool {
	if f < 0 || f >= 1 {
		return false
	}
	d.mu.Lock()
	d.feedback = f
	d.mu.Unlock()
	return true
}

func (d *Delay) SetMix(m float64) bool {
	if m < 0 || m > 1 {
		return false
	}
	d.mu.Lock()
	d.mix = m
	d.mu.Unlock()
	return true
}

func (d *Delay) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = d.in.Stream(samples)

	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range samples[:n] {
		wet := d.line[d.pos]
		for c := range 2 {
			dry := samples[i][c]
			d.line[d.pos][c] = dry + wet[c]*d.feedback
			samples[i][c] = dry*(1-d.mix) + wet[c]*d.mix
		}
		d.pos = (d.pos + 1) % d.size
	}
	return n, ok
}

func (d *Delay) Err() error {
	return nil
}
