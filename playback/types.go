package playback

import (
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

// Playback mixes any number of sound outputs into one device
type Playback struct {
	dev        Device
	mixer      *beep.Mixer
	ctrl       *beep.Ctrl
	volume     *effects.Volume
	mu         sync.RWMutex
	attached   map[Outputter]*track
	closed     bool
	sampleRate beep.SampleRate
}

// Outputter is anything with a terminal output streamer, such as a sound
type Outputter interface {
	Output() beep.Streamer
}

// Device consumes the mixed stream. Lock and Unlock guard state shared
// with the device's render loop.
type Device interface {
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Close()
}

// track wraps an attached output so it can be dropped from the mixer, which
// removes streamers once they report exhaustion
type track struct {
	s       beep.Streamer
	removed atomic.Bool
}

func (t *track) Stream(samples [][2]float64) (int, bool) {
	if t.removed.Load() {
		return 0, false
	}
	return t.s.Stream(samples)
}

func (t *track) Err() error {
	return t.s.Err()
}
