// Package sound unifies oscillator synthesis, scripted synthesis, decoded
// file playback and live input behind one Sound type with transport
// control, volume, an ordered effect chain and lifecycle events.
package sound

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gopxl/beep/v2"

	"soundbox/capture"
	"soundbox/emitter"
	"soundbox/graph"
)

// Sound is one logical audio object. Its graph is
//
//	source -> chain input -> effects... -> chain output -> volume
//
// and the volume stage is the terminal output returned by Output.
type Sound struct {
	id      uuid.UUID
	kind    Kind
	log     *slog.Logger
	rate    beep.SampleRate
	quality int

	mu      sync.Mutex
	src     source
	chain   *graph.Chain
	volume  *graph.Volume
	playing bool
	paused  bool
	closed  bool

	events emitter.Emitter[Event]
	cancel context.CancelFunc
}

// New constructs a Sound from a description: nil for a 440 Hz sine wave,
// an AudioFunc for a script sound, a locator string for a file sound, or a
// Description. Invalid descriptions return an error matching
// ErrInvalidDescription.
func New(desc any, opts ...Option) (*Sound, error) {
	d, err := describe(desc)
	if err != nil {
		return nil, err
	}

	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Sound{
		id:      uuid.New(),
		kind:    d.Source,
		rate:    cfg.rate,
		quality: cfg.quality,
	}
	s.log = cfg.logger.With("component", "sound", "id", s.id.String(), "kind", string(d.Source))

	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())

	s.src = s.newSource(d)
	s.chain = graph.NewChain()
	level := 1.0
	if v := d.Options.Volume; v != nil && graph.ValidLevel(*v) {
		level = *v
	}
	s.volume = graph.NewVolume(level)
	s.volume.Input().Connect(s.chain.Output())

	switch src := s.src.(type) {
	case *fileSource:
		if d.Options.Buffer != nil {
			src.buf = d.Options.Buffer
			notify(cfg.onReady, nil)
			break
		}
		go s.load(ctx, src, cfg.loaderOrDefault(), d.Options.Path, cfg.onReady)
	case *inputSource:
		go s.acquire(ctx, src, cfg.acquirerOrDefault(), cfg.onReady)
	default:
		notify(cfg.onReady, nil)
	}

	s.log.Debug("Sound created")
	return s, nil
}

func (s *Sound) newSource(d Description) source {
	o := d.Options
	switch d.Source {
	case KindScript:
		return &scriptSource{fn: o.AudioFunc}
	case KindFile:
		f := &fileSource{rate: s.rate, quality: s.quality}
		f.loop.Store(o.Loop)
		f.onEnd = func(p *bufferPlayer) {
			go s.finish(p)
		}
		return f
	case KindInput:
		return &inputSource{}
	default:
		return newWaveSource(s.rate, o.Frequency, o.Type)
	}
}

func notify(fn func(error), err error) {
	if fn != nil {
		fn(err)
	}
}

func (s *Sound) load(ctx context.Context, src *fileSource, loader Loader, locator string, onReady func(error)) {
	buf, err := loader.Load(ctx, locator)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if err == nil {
		src.buf = buf
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("Failed to load file", "locator", locator, "error", err)
	} else {
		s.log.Debug("File decoded", "locator", locator, "samples", buf.Len())
	}
	notify(onReady, err)
}

func (s *Sound) acquire(ctx context.Context, src *inputSource, acq capture.Acquirer, onReady func(error)) {
	stream, format, err := acq.Acquire(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		if stream != nil {
			_ = stream.Close()
		}
		return
	}
	if err == nil {
		s.chain.Input().Connect(src.attach(stream, format, s.rate, s.quality))
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("Failed to acquire input", "error", err)
	} else {
		s.log.Debug("Input acquired", "sample_rate", int(format.SampleRate))
	}
	notify(onReady, err)
}

// finish handles the natural end of a file pass. The player may have been
// stopped or replaced since it ran dry, in which case nothing happens.
func (s *Sound) finish(p *bufferPlayer) {
	s.mu.Lock()
	src, ok := s.src.(*fileSource)
	if s.closed || !ok || src.player != p {
		s.mu.Unlock()
		return
	}
	src.stop()
	s.chain.Input().Disconnect()
	s.playing, s.paused = false, false
	s.mu.Unlock()

	s.log.Debug("Sound ended")
	s.events.Emit(EventEnd)
}

func (s *Sound) ID() uuid.UUID {
	return s.id
}

func (s *Sound) Kind() Kind {
	return s.kind
}

func (s *Sound) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *Sound) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Ready reports whether the source can produce audio
func (s *Sound) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.src.ready()
}

// Play starts or resumes production and emits EventPlay. Wave and script
// sounds restart from scratch; file sounds resume from the paused offset.
// It does nothing when already playing or when the source is not ready.
func (s *Sound) Play() {
	s.mu.Lock()
	if s.closed || s.playing || !s.src.ready() {
		s.mu.Unlock()
		return
	}
	if n := s.src.start(); n != nil {
		s.chain.Input().Connect(n)
	}
	s.playing, s.paused = true, false
	s.mu.Unlock()

	s.log.Debug("Sound playing")
	s.events.Emit(EventPlay)
}

// Pause halts production and emits EventPause. Input sounds keep flowing.
func (s *Sound) Pause() {
	s.mu.Lock()
	if s.closed || !s.playing || s.src.node() == nil {
		s.mu.Unlock()
		return
	}
	s.src.pause()
	if !s.src.live() {
		s.chain.Input().Disconnect()
	}
	s.playing, s.paused = false, true
	s.mu.Unlock()

	s.log.Debug("Sound paused")
	s.events.Emit(EventPause)
}

// Stop halts production, discards any resumable offset and emits EventStop
func (s *Sound) Stop() {
	s.mu.Lock()
	if s.closed || !(s.playing || s.paused) || s.src.node() == nil {
		s.mu.Unlock()
		return
	}
	s.src.stop()
	if !s.src.live() {
		s.chain.Input().Disconnect()
	}
	s.playing, s.paused = false, false
	s.mu.Unlock()

	s.log.Debug("Sound stopped")
	s.events.Emit(EventStop)
}

func (s *Sound) Volume() float64 {
	return s.volume.Level()
}

// SetVolume applies v when it lies in [0, 1] and reports whether it did.
// Other values leave the level unchanged.
func (s *Sound) SetVolume(v float64) bool {
	ok := s.volume.SetLevel(v)
	if !ok {
		s.log.Debug("Ignoring invalid volume", "volume", v)
	}
	return ok
}

// Frequency returns the oscillator frequency of a wave sound. The second
// result is false for other kinds.
func (s *Sound) Frequency() (float64, bool) {
	w, ok := s.src.(*waveSource)
	if !ok {
		return 0, false
	}
	return w.frequency(), true
}

// SetFrequency changes the oscillator frequency of a wave sound immediately.
// It reports false for other kinds and for non-positive values.
func (s *Sound) SetFrequency(f float64) bool {
	w, ok := s.src.(*waveSource)
	if !ok || !validFrequency(f) {
		return false
	}
	w.setFrequency(f)
	return true
}

func (s *Sound) Waveform() (Waveform, bool) {
	w, ok := s.src.(*waveSource)
	if !ok {
		return "", false
	}
	return w.waveform(), true
}

func (s *Sound) SetWaveform(t Waveform) bool {
	w, ok := s.src.(*waveSource)
	if !ok || !t.valid() {
		return false
	}
	w.setWaveform(t)
	return true
}

// Loop reports whether a file sound restarts at the end of its buffer
func (s *Sound) Loop() bool {
	f, ok := s.src.(*fileSource)
	return ok && f.loop.Load()
}

func (s *Sound) SetLoop(loop bool) bool {
	f, ok := s.src.(*fileSource)
	if !ok {
		return false
	}
	f.loop.Store(loop)
	return true
}

// AddEffect appends e to the effect chain. It is safe while playing and
// returns ErrClosed once the sound is closed.
func (s *Sound) AddEffect(e graph.Effect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.chain.Add(e)
}

// RemoveEffect takes e out of the effect chain. Removing an effect that is
// not in the chain, or from a closed sound, does nothing and reports false.
func (s *Sound) RemoveEffect(e graph.Effect) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	return s.chain.Remove(e)
}

// Effects returns the chain in signal order
func (s *Sound) Effects() []graph.Effect {
	return s.chain.Effects()
}

func (s *Sound) On(e Event, l emitter.Listener) {
	s.events.On(e, l)
}

func (s *Sound) Off(e Event) {
	s.events.Off(e)
}

// Output is the terminal volume stage. It never reports exhaustion.
func (s *Sound) Output() beep.Streamer {
	return s.volume
}

// Format describes Output
func (s *Sound) Format() beep.Format {
	return beep.Format{SampleRate: s.rate, NumChannels: 2, Precision: 2}
}

// Close cancels pending initialisation, releases the production node and
// any input capture, and disconnects the graph. Later calls do nothing.
func (s *Sound) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cancel()
	err := s.src.close()
	s.chain.Input().Disconnect()
	s.chain.Clear()
	s.volume.Input().Disconnect()
	s.playing, s.paused = false, false
	s.mu.Unlock()

	s.log.Debug("Sound closed")
	return err
}
