package effects

import (
	"math"
	"sync"

	"github.com/gopxl/beep/v2"

	"soundbox/graph"
)

// Tap passes audio through unchanged while keeping a ring buffer of the
// most recent mono mix, for meters and visualisation.
type Tap struct {
	in *graph.Inlet

	mu   sync.Mutex
	buf  []float64
	pos  int
	size int
}

// NewTap creates a tap remembering the last size samples
func NewTap(size int) *Tap {
	size = max(1, size)
	return &Tap{
		in:   graph.NewInlet(),
		buf:  make([]float64, size),
		size: size,
	}
}

func (t *Tap) Input() *graph.Inlet   { return t.in }
func (t *Tap) Output() beep.Streamer { return t }

func (t *Tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.in.Stream(samples)
	t.mu.Lock()
	for i := range n {
		t.buf[t.pos] = (samples[i][0] + samples[i][1]) / 2
		t.pos = (t.pos + 1) % t.size
	}
	t.mu.Unlock()
	return n, ok
}

func (t *Tap) Err() error {
	return nil
}

// Samples returns the last n samples in chronological order
func (t *Tap) Samples(n int) []float64 {
	n = min(max(n, 0), t.size)
	out := make([]float64, n)
	t.mu.Lock()
	start := (t.pos - n + t.size) % t.size
	for i := range n {
		out[i] = t.buf[(start+i)%t.size]
	}
	t.mu.Unlock()
	return out
}

// Level is the RMS of the whole ring buffer
func (t *Tap) Level() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var sum float64
	for _, v := range t.buf {
		sum += v * v
	}
	return math.Sqrt(sum / float64(t.size))
}
