package sound

import (
	"context"
	"log/slog"

	"github.com/gopxl/beep/v2"

	"soundbox/capture"
	"soundbox/decode"
)

// Loader fetches and decodes the audio behind a file locator
type Loader interface {
	Load(ctx context.Context, locator string) (*beep.Buffer, error)
}

// Option configures a Sound at construction
type Option func(*settings)

type settings struct {
	onReady  func(error)
	loader   Loader
	acquirer capture.Acquirer
	rate     beep.SampleRate
	quality  int
	logger   *slog.Logger
}

func defaultSettings() settings {
	return settings{
		rate:    DefaultRate,
		quality: 4,
		logger:  slog.Default(),
	}
}

// OnReady registers the completion callback. It receives nil once the
// source can produce audio, or the decode or acquisition error.
func OnReady(fn func(err error)) Option {
	return func(s *settings) {
		s.onReady = fn
	}
}

// WithLoader replaces the shared decode cache for file sounds
func WithLoader(l Loader) Option {
	return func(s *settings) {
		s.loader = l
	}
}

// WithAcquirer replaces the ffmpeg capture for input sounds
func WithAcquirer(a capture.Acquirer) Option {
	return func(s *settings) {
		s.acquirer = a
	}
}

// WithSampleRate sets the rate of the sound output. Decoded and captured
// audio at another rate is resampled.
func WithSampleRate(rate beep.SampleRate) Option {
	return func(s *settings) {
		if rate > 0 {
			s.rate = rate
		}
	}
}

// WithResampleQuality sets the resampler quality. Values outside [1, 64]
// are ignored.
func WithResampleQuality(q int) Option {
	return func(s *settings) {
		if q >= 1 && q <= 64 {
			s.quality = q
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

func (s *settings) loaderOrDefault() Loader {
	if s.loader != nil {
		return s.loader
	}
	return decode.Default()
}

func (s *settings) acquirerOrDefault() capture.Acquirer {
	if s.acquirer != nil {
		return s.acquirer
	}
	return &capture.FFmpeg{Logger: s.logger}
}
