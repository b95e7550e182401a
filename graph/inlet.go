// Package graph holds the connection points and the splice protocol used to
// route audio from a source through an ordered chain of effects into a
// terminal volume stage.
package graph

import (
	"sync"

	"github.com/gopxl/beep/v2"
)

// Inlet is a single audio input connection point.
//
// An Inlet is itself a beep.Streamer: pulling from it pulls from whatever is
// connected upstream. It never reports exhaustion. A missing or drained
// upstream renders silence, so the nodes downstream of an Inlet keep running
// across reconnections.
type Inlet struct {
	mu  sync.Mutex
	src beep.Streamer
	gen uint64
}

var _ beep.Streamer = (*Inlet)(nil)

// NewInlet creates a disconnected inlet
func NewInlet() *Inlet {
	return &Inlet{}
}

// Connect atomically replaces the upstream of the inlet
func (in *Inlet) Connect(s beep.Streamer) {
	in.mu.Lock()
	in.src = s
	in.gen++
	in.mu.Unlock()
}

// Disconnect removes the upstream
func (in *Inlet) Disconnect() {
	in.Connect(nil)
}

// Source returns the current upstream, nil when disconnected
func (in *Inlet) Source() beep.Streamer {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.src
}

// Connected reports whether an upstream is attached
func (in *Inlet) Connected() bool {
	return in.Source() != nil
}

func (in *Inlet) Stream(samples [][2]float64) (n int, ok bool) {
	in.mu.Lock()
	src, gen := in.src, in.gen
	in.mu.Unlock()

	if src != nil {
		n, ok = src.Stream(samples)
		if !ok {
			n = 0
			in.mu.Lock()
			// Drop a drained upstream unless it was replaced meanwhile.
			if in.gen == gen {
				in.src = nil
			}
			in.mu.Unlock()
		}
	}

	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	return len(samples), true
}

func (in *Inlet) Err() error {
	return nil
}
