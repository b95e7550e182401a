// Package playback routes sound outputs to an audio device or renders them
// offline.
package playback

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

var ErrClosed = errors.New("playback is closed")

type speakerDevice struct{}

func (speakerDevice) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerDevice) Lock()                { speaker.Lock() }
func (speakerDevice) Unlock()              { speaker.Unlock() }
func (speakerDevice) Close()               { speaker.Close() }

// New initialises the speaker and starts playing an empty mix
func New(sampleRate beep.SampleRate, buffer time.Duration) (*Playback, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(buffer)); err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}
	return NewWithDevice(speakerDevice{}, sampleRate), nil
}

// NewWithDevice starts playing an empty mix on dev
func NewWithDevice(dev Device, sampleRate beep.SampleRate) *Playback {
	mixer := &beep.Mixer{}
	// Keeps the mix alive while nothing is attached.
	mixer.Add(beep.Silence(-1))
	ctrl := &beep.Ctrl{Streamer: mixer}
	volume := &effects.Volume{Streamer: ctrl, Base: 2}

	p := &Playback{
		dev:        dev,
		mixer:      mixer,
		ctrl:       ctrl,
		volume:     volume,
		attached:   make(map[Outputter]*track),
		sampleRate: sampleRate,
	}

	dev.Play(volume)
	return p
}

// Attach adds the output of o to the mix. Attaching twice is a no-op.
func (p *Playback) Attach(o Outputter) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if _, ok := p.attached[o]; ok {
		return nil
	}

	t := &track{s: o.Output()}
	p.attached[o] = t

	p.dev.Lock()
	p.mixer.Add(t)
	p.dev.Unlock()
	return nil
}

// Detach removes o from the mix and reports whether it was attached
func (p *Playback) Detach(o Outputter) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.attached[o]
	if !ok {
		return false
	}
	delete(p.attached, o)
	t.removed.Store(true)
	return true
}

// SetVolume sets the master volume (0.0 to 1.0)
func (p *Playback) SetVolume(volume float64) bool {
	if math.IsNaN(volume) || volume < 0 || volume > 1 {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}

	p.dev.Lock()
	p.volume.Silent = volume == 0
	if volume > 0 {
		p.volume.Volume = math.Log2(volume)
	}
	p.dev.Unlock()
	return true
}

// Pause pauses the playback
func (p *Playback) Pause() {
	p.setPaused(true)
}

// Resume resumes the playback
func (p *Playback) Resume() {
	p.setPaused(false)
}

func (p *Playback) setPaused(paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.dev.Lock()
		p.ctrl.Paused = paused
		p.dev.Unlock()
	}
}

// Close detaches everything and releases the device
func (p *Playback) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	for o, t := range p.attached {
		t.removed.Store(true)
		delete(p.attached, o)
	}

	p.dev.Lock()
	p.mixer.Clear()
	p.dev.Unlock()

	p.dev.Close()
	return nil
}

// IsPlaying returns true if the playback is currently playing
func (p *Playback) IsPlaying() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return false
	}

	p.dev.Lock()
	playing := !p.ctrl.Paused
	p.dev.Unlock()

	return playing
}

// Render writes d of s to w as a wav file
func Render(w io.WriteSeeker, s beep.Streamer, format beep.Format, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("invalid render duration %v", d)
	}
	if err := wav.Encode(w, beep.Take(format.SampleRate.N(d), s), format); err != nil {
		return fmt.Errorf("failed to render wav: %w", err)
	}
	return nil
}
