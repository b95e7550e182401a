package sound

import (
	"errors"

	"github.com/gopxl/beep/v2"

	"soundbox/capture"
)

// inputSource forwards a live capture stream. Once acquired it stays
// connected to the chain input until the sound is closed; transport calls
// only change state.
type inputSource struct {
	stream capture.Stream
	out    beep.Streamer
}

func (in *inputSource) kind() Kind  { return KindInput }
func (in *inputSource) ready() bool { return in.stream != nil }
func (in *inputSource) live() bool  { return true }

func (in *inputSource) node() beep.Streamer {
	if in.stream == nil {
		return nil
	}
	return in.out
}

func (in *inputSource) start() beep.Streamer { return nil }
func (in *inputSource) pause()               {}
func (in *inputSource) stop()                {}

// attach installs an acquired stream and returns the node to wire
func (in *inputSource) attach(s capture.Stream, format beep.Format, rate beep.SampleRate, quality int) beep.Streamer {
	in.stream = s
	in.out = s
	if format.SampleRate != rate && format.SampleRate > 0 {
		in.out = beep.Resample(quality, format.SampleRate, rate, s)
	}
	return in.out
}

func (in *inputSource) close() error {
	if in.stream == nil {
		return nil
	}
	err := in.stream.Close()
	in.stream = nil
	in.out = nil
	if errors.Is(err, capture.ErrAlreadyClosed) {
		return nil
	}
	return err
}
