package sound

import (
	"errors"
	"fmt"

	"github.com/gopxl/beep/v2"
)

// Kind identifies the production mechanism behind a sound
type Kind string

const (
	KindWave   Kind = "wave"
	KindScript Kind = "script"
	KindFile   Kind = "file"
	KindInput  Kind = "input"
)

// Waveform is the oscillator shape of a wave sound
type Waveform string

const (
	Sine     Waveform = "sine"
	Square   Waveform = "square"
	Sawtooth Waveform = "sawtooth"
	Triangle Waveform = "triangle"
)

func (w Waveform) valid() bool {
	switch w {
	case Sine, Square, Sawtooth, Triangle:
		return true
	}
	return false
}

// Event names a lifecycle notification
type Event string

const (
	EventPlay  Event = "play"
	EventPause Event = "pause"
	EventStop  Event = "stop"
	EventEnd   Event = "end"
)

const (
	DefaultFrequency = 440.0
	DefaultWaveform  = Sine
	DefaultRate      = beep.SampleRate(44100)
)

// AudioFunc fills a zeroed block of stereo samples for a script sound
type AudioFunc func(out [][2]float64)

// Description selects the source of a sound and its options
type Description struct {
	Source  Kind
	Options Options
}

// Options are source specific; fields that do not apply to the selected
// source are ignored.
type Options struct {
	// Wave
	Frequency float64
	Type      Waveform

	// Script
	AudioFunc AudioFunc

	// File; Buffer takes precedence over Path
	Path   string
	Buffer *beep.Buffer
	Loop   bool

	// Volume is the initial level. Nil or an invalid level means 1.
	Volume *float64
}

// Vol returns a pointer to v for Options.Volume
func Vol(v float64) *float64 {
	return &v
}

var (
	ErrInvalidDescription = errors.New("invalid sound description")
	// ErrClosed is returned by operations that cannot apply to a closed sound
	ErrClosed = errors.New("sound is closed")
)

// DescriptionError reports why a description was rejected
type DescriptionError struct {
	Reason string
}

func (e *DescriptionError) Error() string {
	return ErrInvalidDescription.Error() + ": " + e.Reason
}

func (e *DescriptionError) Unwrap() error {
	return ErrInvalidDescription
}

func invalid(format string, args ...any) error {
	return &DescriptionError{Reason: fmt.Sprintf(format, args...)}
}

// describe turns the accepted description shapes into a validated Description
func describe(desc any) (Description, error) {
	var d Description

	switch v := desc.(type) {
	case nil:
		d = Description{Source: KindWave}
	case Description:
		d = v
	case *Description:
		if v == nil {
			d = Description{Source: KindWave}
		} else {
			d = *v
		}
	case AudioFunc:
		d = Description{Source: KindScript, Options: Options{AudioFunc: v}}
	case func([][2]float64):
		d = Description{Source: KindScript, Options: Options{AudioFunc: v}}
	case string:
		d = Description{Source: KindFile, Options: Options{Path: v}}
	default:
		return Description{}, invalid("unsupported description type %T", desc)
	}

	o := &d.Options
	switch d.Source {
	case KindWave:
		if o.Frequency == 0 {
			o.Frequency = DefaultFrequency
		}
		if !validFrequency(o.Frequency) {
			return Description{}, invalid("frequency %v", o.Frequency)
		}
		if o.Type == "" {
			o.Type = DefaultWaveform
		}
		if !o.Type.valid() {
			return Description{}, invalid("waveform %q", o.Type)
		}
	case KindScript:
		if o.AudioFunc == nil {
			return Description{}, invalid("script source without audio function")
		}
	case KindFile:
		if o.Buffer == nil && o.Path == "" {
			return Description{}, invalid("file source without path or buffer")
		}
	case KindInput:
	default:
		return Description{}, invalid("unknown source %q", d.Source)
	}

	return d, nil
}
