package playback

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/audio/pcm"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundbox/sound"
)

type fakeDevice struct {
	mu     sync.Mutex
	s      beep.Streamer
	closed bool
}

func (d *fakeDevice) Play(s beep.Streamer) { d.s = s }
func (d *fakeDevice) Lock()                { d.mu.Lock() }
func (d *fakeDevice) Unlock()              { d.mu.Unlock() }
func (d *fakeDevice) Close()               { d.closed = true }

func (d *fakeDevice) pull(n int) [][2]float64 {
	out := make([][2]float64, n)
	d.mu.Lock()
	d.s.Stream(out)
	d.mu.Unlock()
	return out
}

type output float64

func (o output) Output() beep.Streamer {
	return beep.StreamerFunc(func(s [][2]float64) (int, bool) {
		for i := range s {
			s[i] = [2]float64{float64(o), float64(o)}
		}
		return len(s), true
	})
}

func TestPlaybackMix(t *testing.T) {
	dev := &fakeDevice{}
	p := NewWithDevice(dev, 44100)
	assert.True(t, p.IsPlaying())

	a, b := output(0.25), output(0.5)
	require.NoError(t, p.Attach(a))
	require.NoError(t, p.Attach(b))
	require.NoError(t, p.Attach(a))
	assert.InDelta(t, 0.75, dev.pull(1)[0][0], 1e-9)

	assert.True(t, p.Detach(a))
	assert.False(t, p.Detach(a))
	assert.InDelta(t, 0.5, dev.pull(1)[0][0], 1e-9)
}

func TestPlaybackVolume(t *testing.T) {
	dev := &fakeDevice{}
	p := NewWithDevice(dev, 44100)
	require.NoError(t, p.Attach(output(0.8)))

	assert.True(t, p.SetVolume(0.5))
	assert.InDelta(t, 0.4, dev.pull(1)[0][0], 1e-9)

	assert.True(t, p.SetVolume(0))
	assert.Zero(t, dev.pull(1)[0][0])

	assert.False(t, p.SetVolume(1.5))
	assert.True(t, p.SetVolume(1))
	assert.InDelta(t, 0.8, dev.pull(1)[0][0], 1e-9)
}

func TestPlaybackPauseResume(t *testing.T) {
	dev := &fakeDevice{}
	p := NewWithDevice(dev, 44100)
	require.NoError(t, p.Attach(output(1)))

	p.Pause()
	assert.False(t, p.IsPlaying())
	assert.Zero(t, dev.pull(1)[0][0])

	p.Resume()
	assert.True(t, p.IsPlaying())
	assert.Equal(t, 1.0, dev.pull(1)[0][0])
}

func TestPlaybackClose(t *testing.T) {
	dev := &fakeDevice{}
	p := NewWithDevice(dev, 44100)
	require.NoError(t, p.Attach(output(1)))

	require.NoError(t, p.Close())
	assert.True(t, dev.closed)
	assert.False(t, p.IsPlaying())
	assert.ErrorIs(t, p.Attach(output(1)), ErrClosed)
	assert.False(t, p.SetVolume(0.5))
	require.NoError(t, p.Close())
}

func TestPlaybackSound(t *testing.T) {
	dev := &fakeDevice{}
	p := NewWithDevice(dev, 44100)

	s, err := sound.New(func(out [][2]float64) {
		for i := range out {
			out[i] = [2]float64{0.5, 0.5}
		}
	})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, p.Attach(s))
	assert.Zero(t, dev.pull(1)[0][0])

	s.Play()
	assert.Equal(t, 0.5, dev.pull(1)[0][0])
}

func TestRender(t *testing.T) {
	s, err := sound.New(nil, sound.WithSampleRate(8000))
	require.NoError(t, err)
	defer s.Close()
	s.Play()

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, Render(f, s.Output(), s.Format(), 250*time.Millisecond))
	require.NoError(t, f.Close())

	f, err = os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	st, format, err := wav.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, beep.SampleRate(8000), format.SampleRate)
	assert.Equal(t, 2000, st.Len())

	assert.Error(t, Render(f, s.Output(), s.Format(), 0))
}

func TestEncodePacket(t *testing.T) {
	p := &pcm.Packet{PCM: make([]int16, 6)}
	encodePacket(p, [][2]float64{{0, 1}, {-1, 0.5}, {2, -3}})
	assert.Equal(t, []int16{0, 32767, -32767, 16384, 32767, -32767}, p.PCM)

	buf := make([]byte, 4)
	writeFrame(buf, []int16{1, -2})
	assert.Equal(t, []byte{1, 0, 0xfe, 0xff}, buf)
}

func TestSinkRendersToPipe(t *testing.T) {
	r, w := io.Pipe()
	sink := newSink(w, 8000, nil)
	p := NewWithDevice(sink, 8000)
	require.NoError(t, p.Attach(output(0.5)))

	// Frames rendered before the attach are silent.
	buf := make([]byte, 4)
	for range 8000 {
		_, err := io.ReadFull(r, buf)
		require.NoError(t, err)
		if buf[1] != 0 {
			break
		}
	}
	assert.Equal(t, []byte{0x00, 0x40, 0x00, 0x40}, buf)

	done := make(chan struct{})
	go func() {
		_ = p.Close()
		close(done)
	}()
	go func() { _, _ = io.Copy(io.Discard, r) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sink did not stop")
	}
}
