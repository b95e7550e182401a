package graph

import (
	"errors"
	"slices"
	"sync"

	"github.com/gopxl/beep/v2"
)

var (
	ErrNilEffect       = errors.New("effect is nil")
	ErrDuplicateEffect = errors.New("effect is already in the chain")
)

// Effect is a self-contained processing node with one audio input and one
// audio output. Implementations must be comparable (pointer types), because
// the chain locates effects by identity.
type Effect interface {
	Input() *Inlet
	Output() beep.Streamer
}

// Chain is an ordered sequence of effects spliced between the chain input
// and the chain output. Order in the sequence is the signal-processing order.
type Chain struct {
	mu      sync.Mutex
	input   *Inlet
	sink    *Inlet
	effects []Effect
}

// NewChain creates an empty chain. With no effects the chain input is
// connected straight to the chain output.
func NewChain() *Chain {
	c := &Chain{
		input: NewInlet(),
		sink:  NewInlet(),
	}
	c.sink.Connect(c.input)
	return c
}

// Input is the connection point the source feeds
func (c *Chain) Input() *Inlet {
	return c.input
}

// Output is the end of the chain, to be connected into the next stage
func (c *Chain) Output() beep.Streamer {
	return c.sink
}

// Add appends e to the end of the chain.
//
// The new node is wired to the current tail before the sink is switched over
// to it, so the render path never observes a half-built splice.
func (c *Chain) Add(e Effect) error {
	if e == nil {
		return ErrNilEffect
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOf(e) >= 0 {
		return ErrDuplicateEffect
	}

	e.Input().Connect(c.tail())
	c.sink.Connect(e.Output())
	c.effects = append(c.effects, e)
	return nil
}

// Remove takes e out of the chain and bridges its former neighbours.
// It reports false when e is not in the chain.
func (c *Chain) Remove(e Effect) bool {
	if e == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(e)
	if i < 0 {
		return false
	}

	var pred beep.Streamer = c.input
	if i > 0 {
		pred = c.effects[i-1].Output()
	}
	succ := c.sink
	if i < len(c.effects)-1 {
		succ = c.effects[i+1].Input()
	}

	succ.Connect(pred)
	e.Input().Disconnect()
	c.effects = slices.Delete(c.effects, i, i+1)
	return true
}

// Clear removes every effect and restores the direct input to output path
func (c *Chain) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sink.Connect(c.input)
	for _, e := range c.effects {
		e.Input().Disconnect()
	}
	c.effects = nil
}

// Effects returns a copy of the chain in signal order
func (c *Chain) Effects() []Effect {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.effects)
}

func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.effects)
}

// tail is the output currently feeding the sink
func (c *Chain) tail() beep.Streamer {
	if len(c.effects) == 0 {
		return c.input
	}
	return c.effects[len(c.effects)-1].Output()
}

func (c *Chain) indexOf(e Effect) int {
	for i, x := range c.effects {
		if x == e {
			return i
		}
	}
	return -1
}
