package sound

import (
	"math"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
)

func validFrequency(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// waveSource synthesises a periodic waveform. Its oscillator cannot be
// resumed: every start builds a fresh one at phase zero.
type waveSource struct {
	rate beep.SampleRate
	freq atomic.Uint64 // math.Float64bits
	wave atomic.Value  // Waveform
	osc  *oscillator
}

func newWaveSource(rate beep.SampleRate, freq float64, wave Waveform) *waveSource {
	w := &waveSource{rate: rate}
	w.setFrequency(freq)
	w.setWaveform(wave)
	return w
}

func (w *waveSource) kind() Kind  { return KindWave }
func (w *waveSource) ready() bool { return true }
func (w *waveSource) live() bool  { return false }

func (w *waveSource) node() beep.Streamer {
	if w.osc == nil {
		return nil
	}
	return w.osc
}

func (w *waveSource) start() beep.Streamer {
	if w.osc != nil {
		w.osc.halt()
	}
	w.osc = &oscillator{src: w, rate: float64(w.rate)}
	return w.osc
}

// pause halts the oscillator but keeps it as the current node
func (w *waveSource) pause() {
	if w.osc != nil {
		w.osc.halt()
	}
}

func (w *waveSource) stop() {
	w.pause()
	w.osc = nil
}

func (w *waveSource) close() error {
	w.stop()
	return nil
}

func (w *waveSource) frequency() float64 {
	return math.Float64frombits(w.freq.Load())
}

func (w *waveSource) setFrequency(f float64) {
	w.freq.Store(math.Float64bits(f))
}

func (w *waveSource) waveform() Waveform {
	return w.wave.Load().(Waveform)
}

func (w *waveSource) setWaveform(t Waveform) {
	w.wave.Store(t)
}

// oscillator reads frequency and shape from its source on every block so
// parameter changes apply immediately, without portamento.
type oscillator struct {
	haltable
	src   *waveSource
	rate  float64
	phase float64
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	if o.isHalted() {
		return 0, false
	}

	step := o.src.frequency() / o.rate
	wave := o.src.waveform()
	for i := range samples {
		v := shape(wave, o.phase)
		samples[i] = [2]float64{v, v}
		o.phase += step
		o.phase -= math.Floor(o.phase)
	}
	return len(samples), true
}

func (o *oscillator) Err() error {
	return nil
}

// shape evaluates one period of a waveform at phase p in [0, 1)
func shape(w Waveform, p float64) float64 {
	switch w {
	case Square:
		if p < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		return 2*p - 1
	case Triangle:
		switch {
		case p < 0.25:
			return 4 * p
		case p < 0.75:
			return 2 - 4*p
		default:
			return 4*p - 4
		}
	default:
		return math.Sin(2 * math.Pi * p)
	}
}
