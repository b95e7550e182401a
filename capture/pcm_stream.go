package capture

import (
	"sync"

	"github.com/disgoorg/audio/pcm"
	"github.com/gopxl/beep/v2"
)

// PCMStream renders interleaved s16 packets arriving on a channel.
//
// Stream never blocks the render path: when no packet is queued the rest of
// the block is filled with silence. A closed packet channel ends the stream.
type PCMStream struct {
	mu       sync.Mutex
	packets  <-chan *pcm.Packet
	pcm      []int16
	pcmIdx   int
	channels int
	closed   bool
	onClose  func()
}

var _ Stream = (*PCMStream)(nil)

// NewPCMStream creates a stream reading packets with the given channel count (1 or 2)
func NewPCMStream(packets <-chan *pcm.Packet, channels int) *PCMStream {
	if channels != 1 {
		channels = 2
	}
	return &PCMStream{
		packets:  packets,
		channels: channels,
	}
}

func (s *PCMStream) Err() error {
	return nil
}

// Close stops the stream and releases the producer
func (s *PCMStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrAlreadyClosed
	}
	s.closed = true
	onClose := s.onClose
	s.mu.Unlock()

	if onClose != nil {
		onClose()
	}
	return nil
}

func (s *PCMStream) Stream(samples [][2]float64) (n int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, false
	}

	for n < len(samples) {
		if s.pcmIdx >= len(s.pcm) {
			select {
			case packet, open := <-s.packets:
				if !open {
					s.closed = true
					return n, n > 0
				}
				if packet == nil {
					continue
				}
				s.pcm = packet.PCM
				s.pcmIdx = 0
			default:
				// Underrun: the device has not delivered yet.
				for ; n < len(samples); n++ {
					samples[n] = [2]float64{}
				}
				return n, true
			}
		}

		for ; n < len(samples) && s.pcmIdx+s.channels <= len(s.pcm); n++ {
			left := float64(s.pcm[s.pcmIdx]) / 32768
			right := left
			if s.channels == 2 {
				right = float64(s.pcm[s.pcmIdx+1]) / 32768
			}
			samples[n] = [2]float64{left, right}
			s.pcmIdx += s.channels
		}
		if s.pcmIdx+s.channels > len(s.pcm) {
			// Drop a trailing partial frame.
			s.pcmIdx = len(s.pcm)
		}
	}

	return n, true
}

// Format returns the format of the stream at the given sample rate
func (s *PCMStream) Format(rate beep.SampleRate) beep.Format {
	return beep.Format{SampleRate: rate, NumChannels: s.channels, Precision: 2}
}
