// Package capture acquires live audio input and exposes it as a streamer.
package capture

import (
	"context"
	"errors"

	"github.com/gopxl/beep/v2"
)

var (
	ErrAlreadyClosed = errors.New("already closed")
	// ErrNoAudio reports a capture process that exited before its first frame
	ErrNoAudio = errors.New("capture ended before producing audio")
)

// Stream is a live input. Closing it releases the underlying device.
type Stream interface {
	beep.Streamer
	Close() error
}

// Acquirer grants access to an input device.
// A failed acquisition (missing device, denied access) is reported as an error.
type Acquirer interface {
	Acquire(ctx context.Context) (Stream, beep.Format, error)
}

// AcquirerFunc adapts a function to the Acquirer interface
type AcquirerFunc func(ctx context.Context) (Stream, beep.Format, error)

func (f AcquirerFunc) Acquire(ctx context.Context) (Stream, beep.Format, error) {
	return f(ctx)
}
