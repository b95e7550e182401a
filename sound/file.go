package sound

import (
	"sync/atomic"

	"github.com/gopxl/beep/v2"
)

// fileSource plays a decoded buffer. The buffer may be shared with other
// sounds; each play position belongs to one bufferPlayer.
type fileSource struct {
	rate    beep.SampleRate
	quality int
	buf     *beep.Buffer
	loop    atomic.Bool

	player *bufferPlayer
	out    beep.Streamer
	onEnd  func(*bufferPlayer)
}

func (f *fileSource) kind() Kind  { return KindFile }
func (f *fileSource) ready() bool { return f.buf != nil }
func (f *fileSource) live() bool  { return false }

func (f *fileSource) node() beep.Streamer {
	if f.player == nil {
		return nil
	}
	return f.out
}

// start resumes a paused player from its offset or builds a new one at the
// beginning of the buffer
func (f *fileSource) start() beep.Streamer {
	if f.buf == nil {
		return nil
	}
	if f.player != nil && !f.player.ended.Load() {
		return f.out
	}

	f.player = &bufferPlayer{
		s:     f.buf.Streamer(0, f.buf.Len()),
		loop:  &f.loop,
		onEnd: f.onEnd,
	}
	f.out = f.player
	if from := f.buf.Format().SampleRate; from != f.rate {
		f.out = beep.Resample(f.quality, from, f.rate, f.player)
	}
	return f.out
}

// pause keeps the player and its offset; the sound disconnects it
func (f *fileSource) pause() {}

func (f *fileSource) stop() {
	if f.player != nil {
		f.player.ended.Store(true)
	}
	f.player = nil
	f.out = nil
}

func (f *fileSource) close() error {
	f.stop()
	return nil
}

// bufferPlayer streams one pass over a buffer, or loops it. Reaching the
// end of a non-looping pass reports exhaustion and calls onEnd once.
type bufferPlayer struct {
	s     beep.StreamSeeker
	loop  *atomic.Bool
	ended atomic.Bool
	onEnd func(*bufferPlayer)
}

func (p *bufferPlayer) Stream(samples [][2]float64) (n int, ok bool) {
	if p.ended.Load() {
		return 0, false
	}

	for n < len(samples) {
		m, more := p.s.Stream(samples[n:])
		n += m
		if more && m > 0 {
			continue
		}

		if !p.loop.Load() || p.s.Len() == 0 {
			if p.ended.CompareAndSwap(false, true) && p.onEnd != nil {
				p.onEnd(p)
			}
			return n, n > 0
		}
		if err := p.s.Seek(0); err != nil {
			p.ended.Store(true)
			return n, n > 0
		}
	}
	return n, true
}

func (p *bufferPlayer) Err() error {
	return p.s.Err()
}
