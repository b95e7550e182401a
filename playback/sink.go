package playback

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"sync"

	"github.com/disgoorg/audio/pcm"
	ffmpeg "github.com/disgoorg/ffmpeg-audio"
	"github.com/gopxl/beep/v2"
)

// frameDivisor gives 20ms frames
const frameDivisor = 50

// SinkConfig selects the ffmpeg output device
type SinkConfig struct {
	// OutputFormat is the ffmpeg muxer for the device, e.g. alsa or pulse
	OutputFormat string
	// Device is the output device name
	Device string
	// Opts configures the executable and sample rate
	Opts   []ffmpeg.ConfigOpt
	Logger *slog.Logger
}

// Sink is a Device that pipes s16le PCM into an ffmpeg process writing to
// an audio output. The pipe applies back pressure, so the render loop runs
// at the device rate.
type Sink struct {
	mu       sync.Mutex
	w        io.WriteCloser
	rate     int
	logger   *slog.Logger
	streamer beep.Streamer
	start    sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
	wait     func() error
}

var _ Device = (*Sink)(nil)

// NewSink starts ffmpeg reading raw stereo PCM from its stdin
func NewSink(ctx context.Context, cfg SinkConfig) (*Sink, error) {
	fc := ffmpeg.DefaultConfig()
	fc.Apply(cfg.Opts)

	format := cfg.OutputFormat
	if format == "" {
		format = "alsa"
	}
	device := cfg.Device
	if device == "" {
		device = "default"
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, fc.Exec,
		"-f", "s16le",
		"-ar", strconv.Itoa(fc.SampleRate),
		"-ac", "2",
		"-i", "pipe:0",
		"-f", format,
		device,
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	s := newSink(stdin, fc.SampleRate, cfg.Logger)
	s.cancel = cancel
	s.wait = cmd.Wait
	return s, nil
}

func newSink(w io.WriteCloser, rate int, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.With("component", "sink")
	}
	return &Sink{
		w:      w,
		rate:   rate,
		logger: logger,
		cancel: func() {},
		done:   make(chan struct{}),
	}
}

// Play starts the render loop on st. Only the first call has an effect.
func (s *Sink) Play(st beep.Streamer) {
	s.start.Do(func() {
		s.streamer = st
		go s.render()
	})
}

func (s *Sink) Lock()   { s.mu.Lock() }
func (s *Sink) Unlock() { s.mu.Unlock() }

func (s *Sink) render() {
	defer close(s.done)

	samples := make([][2]float64, s.rate/frameDivisor)
	packet := &pcm.Packet{PCM: make([]int16, len(samples)*2)}
	buf := make([]byte, len(packet.PCM)*2)

	for {
		s.mu.Lock()
		n, ok := s.streamer.Stream(samples)
		s.mu.Unlock()
		if !ok {
			return
		}

		encodePacket(packet, samples[:n])
		writeFrame(buf, packet.PCM[:n*2])
		if _, err := s.w.Write(buf[:n*4]); err != nil {
			if !errors.Is(err, io.ErrClosedPipe) {
				s.logger.Warn("Output write failed", slog.Any("error", err))
			}
			return
		}
	}
}

// Close stops ffmpeg and waits for the render loop to exit
func (s *Sink) Close() {
	_ = s.w.Close()
	s.cancel()
	s.start.Do(func() { close(s.done) })
	<-s.done
	if s.wait != nil {
		_ = s.wait()
	}
}

// encodePacket converts float samples to interleaved s16
func encodePacket(p *pcm.Packet, samples [][2]float64) {
	for i, v := range samples {
		p.PCM[i*2] = toInt16(v[0])
		p.PCM[i*2+1] = toInt16(v[1])
	}
}

func toInt16(v float64) int16 {
	v = math.Max(-1, math.Min(1, v))
	return int16(math.Round(v * math.MaxInt16))
}

// writeFrame converts PCM data from []int16 to little-endian bytes
func writeFrame(buf []byte, frame []int16) {
	for i, sample := range frame {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(sample))
	}
}
