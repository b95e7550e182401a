package effects

import (
	"math"
	"sync"

	"github.com/gopxl/beep/v2"
	fx "github.com/gopxl/beep/v2/effects"

	"soundbox/graph"
)

// Pan moves the stereo image: -1 folds everything left, 1 folds everything
// right. Energy moved off one channel is added to the other.
type Pan struct {
	in *graph.Inlet

	mu  sync.Mutex
	pan fx.Pan
}

// NewPan creates a pan stage. Out of range positions are centred.
func NewPan(pos float64) *Pan {
	p := &Pan{in: graph.NewInlet()}
	p.pan.Streamer = p.in
	p.SetPosition(pos)
	return p
}

func (p *Pan) Input() *graph.Inlet   { return p.in }
func (p *Pan) Output() beep.Streamer { return p }

func (p *Pan) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pan.Pan
}

func (p *Pan) SetPosition(pos float64) bool {
	if math.IsNaN(pos) || pos < -1 || pos > 1 {
		return false
	}
	p.mu.Lock()
	p.pan.Pan = pos
	p.mu.Unlock()
	return true
}

func (p *Pan) Stream(samples [][2]float64) (n int, ok bool) {
	p.mu.Lock()
	pan := p.pan
	p.mu.Unlock()

	return pan.Stream(samples)
}

func (p *Pan) Err() error {
	return nil
}
