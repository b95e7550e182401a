package sound

import "github.com/gopxl/beep/v2"

// scriptSource runs a caller supplied AudioFunc on the render path.
// Like the oscillator, a paused processor is discarded and play starts a
// new one.
type scriptSource struct {
	fn   AudioFunc
	proc *processor
}

func (s *scriptSource) kind() Kind  { return KindScript }
func (s *scriptSource) ready() bool { return true }
func (s *scriptSource) live() bool  { return false }

func (s *scriptSource) node() beep.Streamer {
	if s.proc == nil {
		return nil
	}
	return s.proc
}

func (s *scriptSource) start() beep.Streamer {
	if s.proc != nil {
		s.proc.halt()
	}
	s.proc = &processor{fn: s.fn}
	return s.proc
}

func (s *scriptSource) pause() {
	if s.proc != nil {
		s.proc.halt()
	}
}

func (s *scriptSource) stop() {
	s.pause()
	s.proc = nil
}

func (s *scriptSource) close() error {
	s.stop()
	return nil
}

type processor struct {
	haltable
	fn AudioFunc
}

func (p *processor) Stream(samples [][2]float64) (n int, ok bool) {
	if p.isHalted() {
		return 0, false
	}
	for i := range samples {
		samples[i] = [2]float64{}
	}
	p.fn(samples)
	return len(samples), true
}

func (p *processor) Err() error {
	return nil
}
