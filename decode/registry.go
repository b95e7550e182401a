// Package decode turns encoded audio files into shared, read-only sample
// buffers.
package decode

import (
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrEmptyLocator      = errors.New("empty locator")
	ErrNotAiffFile       = errors.New("not a valid aiff file")
)

// Decoder constructs a streamer from encoded audio
type Decoder interface {
	Decode(r io.ReadSeeker) (beep.Streamer, beep.Format, error)
}

// DecoderFunc adapts a function to the Decoder interface
type DecoderFunc func(r io.ReadSeeker) (beep.Streamer, beep.Format, error)

func (f DecoderFunc) Decode(r io.ReadSeeker) (beep.Streamer, beep.Format, error) {
	return f(r)
}

// Registry maps file extensions to decoders
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Decoder
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
	}
}

// DefaultRegistry returns a registry with every built-in format
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("wav", DecoderFunc(decodeWav))
	r.Register("mp3", DecoderFunc(decodeMP3))
	r.Register("ogg", DecoderFunc(decodeVorbis))
	r.Register("oga", DecoderFunc(decodeVorbis))
	r.Register("flac", DecoderFunc(decodeFlac))
	r.Register("aiff", DecoderFunc(decodeAiff))
	r.Register("aif", DecoderFunc(decodeAiff))
	return r
}

// Register binds a decoder to an extension, with or without the leading dot
func (r *Registry) Register(ext string, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.codecs[normalizeExt(ext)] = d
}

// Lookup returns the decoder for an extension
func (r *Registry) Lookup(ext string) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.codecs[normalizeExt(ext)]
	return d, ok
}

// Formats lists the registered extensions
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]string, 0, len(r.codecs))
	for ext := range r.codecs {
		formats = append(formats, ext)
	}
	return formats
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func decodeWav(r io.ReadSeeker) (beep.Streamer, beep.Format, error) {
	return wav.Decode(r)
}

func decodeMP3(r io.ReadSeeker) (beep.Streamer, beep.Format, error) {
	return mp3.Decode(io.NopCloser(r))
}

func decodeVorbis(r io.ReadSeeker) (beep.Streamer, beep.Format, error) {
	return vorbis.Decode(io.NopCloser(r))
}

func decodeFlac(r io.ReadSeeker) (beep.Streamer, beep.Format, error) {
	return flac.Decode(r)
}
