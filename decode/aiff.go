package decode

import (
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/gopxl/beep/v2"
)

// aiffReader is the part of aiff.Decoder the streamer needs
type aiffReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// aiffStreamer adapts a go-audio aiff decoder to beep
type aiffStreamer struct {
	dec      aiffReader
	format   *goaudio.Format
	channels int
	scale    float64
	buf      *goaudio.IntBuffer
	err      error
}

func decodeAiff(r io.ReadSeeker) (beep.Streamer, beep.Format, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, beep.Format{}, ErrNotAiffFile
	}
	dec.ReadInfo()

	format := dec.Format()
	if format == nil || format.NumChannels < 1 {
		return nil, beep.Format{}, ErrNotAiffFile
	}

	bitDepth := int(dec.BitDepth)
	s := &aiffStreamer{
		dec:      dec,
		format:   format,
		channels: format.NumChannels,
		scale:    fullScale(bitDepth),
	}

	precision := bitDepth / 8
	if precision < 1 {
		precision = 2
	}
	if precision > 3 {
		precision = 3
	}
	channels := format.NumChannels
	if channels > 2 {
		channels = 2
	}

	return s, beep.Format{
		SampleRate:  beep.SampleRate(format.SampleRate),
		NumChannels: channels,
		Precision:   precision,
	}, nil
}

// fullScale is the magnitude of the most negative sample at a bit depth
func fullScale(bitDepth int) float64 {
	switch bitDepth {
	case 8:
		return 128.0
	case 24:
		return 8388608.0
	case 32:
		return 2147483648.0
	default:
		return 32768.0
	}
}

func (s *aiffStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.err != nil || len(samples) == 0 {
		return 0, false
	}

	want := len(samples) * s.channels
	if s.buf == nil || cap(s.buf.Data) < want {
		s.buf = &goaudio.IntBuffer{
			Data:   make([]int, want),
			Format: s.format,
		}
	} else {
		s.buf.Data = s.buf.Data[:want]
	}

	read, err := s.dec.PCMBuffer(s.buf)
	if err != nil && err != io.EOF {
		s.err = err
	}

	frames := read / s.channels
	for i := 0; i < frames; i++ {
		left := float64(s.buf.Data[i*s.channels]) / s.scale
		right := left
		if s.channels > 1 {
			right = float64(s.buf.Data[i*s.channels+1]) / s.scale
		}
		samples[i] = [2]float64{left, right}
	}

	return frames, frames > 0
}

func (s *aiffStreamer) Err() error {
	return s.err
}
