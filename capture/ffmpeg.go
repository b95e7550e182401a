package capture

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"

	"github.com/disgoorg/audio/pcm"
	ffmpeg "github.com/disgoorg/ffmpeg-audio"
	"github.com/gopxl/beep/v2"
)

const (
	// packetQueue bounds how much captured audio may wait for the render path
	packetQueue = 10
	// frameDivisor gives 20ms frames
	frameDivisor = 50
)

// FFmpeg acquires input by spawning ffmpeg on a capture device and reading
// raw s16le frames from its stdout.
type FFmpeg struct {
	// InputFormat is the ffmpeg demuxer for the device, e.g. alsa or pulse
	InputFormat string
	// Device is the device name passed to -i
	Device string
	// Opts configures the executable, sample rate and channel count
	Opts   []ffmpeg.ConfigOpt
	Logger *slog.Logger
}

var _ Acquirer = (*FFmpeg)(nil)

// Acquire starts the capture process and waits for its first frame. A
// process that exits before producing audio fails with ErrNoAudio. The
// returned stream owns the process; closing it terminates ffmpeg.
func (f *FFmpeg) Acquire(ctx context.Context) (Stream, beep.Format, error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.With("component", "capture")
	}

	provider, err := newProvider(ctx, f.InputFormat, f.Device, f.Opts...)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to start capture: %w", err)
	}

	packets := make(chan *pcm.Packet, packetQueue)
	first := make(chan error, 1)
	go provider.run(packets, first, logger)

	select {
	case err = <-first:
		if ctxErr := ctx.Err(); ctxErr != nil {
			// The process was killed along with ctx.
			err = ctxErr
		}
		if err != nil {
			provider.Close()
			return nil, beep.Format{}, err
		}
	case <-ctx.Done():
		provider.Close()
		return nil, beep.Format{}, ctx.Err()
	}

	stream := NewPCMStream(packets, provider.channels)
	stream.onClose = provider.Close

	logger.Info("Input capture started",
		slog.String("device", f.Device),
		slog.Int("sample_rate", provider.sampleRate),
		slog.Int("channels", provider.channels))

	return stream, stream.Format(beep.SampleRate(provider.sampleRate)), nil
}

// provider reads PCM frames from an ffmpeg capture process
type provider struct {
	cmd        *exec.Cmd
	pipe       io.Closer
	reader     *bufio.Reader
	channels   int
	sampleRate int
}

func newProvider(ctx context.Context, inputFormat, device string, opts ...ffmpeg.ConfigOpt) (*provider, error) {
	cfg := ffmpeg.DefaultConfig()
	cfg.Apply(opts)

	if inputFormat == "" {
		inputFormat = "alsa"
	}
	if device == "" {
		device = "default"
	}

	cmd := exec.CommandContext(ctx, cfg.Exec,
		"-thread_queue_size", "512",
		"-f", inputFormat,
		"-i", device,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"pipe:1",
	)
	cmd.Stderr = nil

	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	if err = cmd.Start(); err != nil {
		return nil, err
	}

	p := &provider{
		cmd:        cmd,
		pipe:       pipe,
		reader:     bufio.NewReaderSize(pipe, cfg.BufferSize),
		channels:   cfg.Channels,
		sampleRate: cfg.SampleRate,
	}

	return p, nil
}

// run pumps frames into packets until the process ends. first receives nil
// once a frame is queued, or the reason no frame ever arrived.
func (p *provider) run(packets chan<- *pcm.Packet, first chan<- error, logger *slog.Logger) {
	defer close(packets)

	started := false
	for {
		frame, err := p.ProvidePCMFrame()
		if err != nil {
			waitErr := p.Wait()
			if !started {
				first <- noAudio(err, waitErr)
				return
			}
			if !errors.Is(err, io.EOF) {
				logger.Warn("Capture read failed", slog.Any("error", err))
			}
			return
		}

		packet := &pcm.Packet{PCM: frame}
		if !started {
			started = true
			packets <- packet
			first <- nil
			continue
		}
		select {
		case packets <- packet:
		default:
			// Nobody is pulling; drop rather than build latency.
		}
	}
}

func noAudio(readErr, waitErr error) error {
	cause := readErr
	if errors.Is(readErr, io.EOF) {
		cause = waitErr
	}
	if cause == nil {
		return ErrNoAudio
	}
	return fmt.Errorf("%w: %w", ErrNoAudio, cause)
}

// ProvidePCMFrame reads one 20ms frame of interleaved samples
func (p *provider) ProvidePCMFrame() ([]int16, error) {
	frameSize := p.sampleRate / frameDivisor * p.channels * 2
	buf := make([]byte, frameSize)

	_, err := io.ReadFull(p.reader, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, os.ErrClosed) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("error reading PCM data: %w", err)
	}

	return decodeFrame(buf), nil
}

// Close terminates the capture process
func (p *provider) Close() {
	_ = p.pipe.Close()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}

// Wait reaps the process once its output has been drained
func (p *provider) Wait() error {
	return p.cmd.Wait()
}

// decodeFrame converts little-endian s16 bytes to samples
func decodeFrame(buf []byte) []int16 {
	samples := make([]int16, len(buf)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(buf[i*2 : i*2+2]))
	}
	return samples
}
