// Package effects provides processing nodes that can be spliced into a
// sound's effect chain. Every node owns one input inlet and is its own
// output streamer.
package effects

import (
	"errors"

	"soundbox/graph"
)

var ErrInvalidParameter = errors.New("invalid effect parameter")

var (
	_ graph.Effect = (*Delay)(nil)
	_ graph.Effect = (*LowPass)(nil)
	_ graph.Effect = (*Pan)(nil)
	_ graph.Effect = (*Tap)(nil)
)
