package sound

import (
	"sync/atomic"

	"github.com/gopxl/beep/v2"
)

// source is the closed set of production strategies: *waveSource,
// *scriptSource, *fileSource and *inputSource.
//
// Methods are called with the owning Sound's lock held.
type source interface {
	kind() Kind
	// ready reports whether the source can produce audio yet
	ready() bool
	// node is the current native production node, nil when none exists
	node() beep.Streamer
	// start begins or resumes production and returns the node to connect
	// to the chain input, or nil when nothing needs connecting
	start() beep.Streamer
	pause()
	stop()
	// live sources stay connected regardless of transport state
	live() bool
	close() error
}

var (
	_ source = (*waveSource)(nil)
	_ source = (*scriptSource)(nil)
	_ source = (*fileSource)(nil)
	_ source = (*inputSource)(nil)
)

// haltable is embedded by nodes that can be permanently silenced. A halted
// node reports exhaustion so any inlet still holding it lets go.
type haltable struct {
	halted atomic.Bool
}

func (h *haltable) halt() {
	h.halted.Store(true)
}

func (h *haltable) isHalted() bool {
	return h.halted.Load()
}
