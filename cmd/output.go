package cmd

import (
	"context"
	"fmt"

	"soundbox/capture"
	"soundbox/config"
	"soundbox/effects"
	"soundbox/logger"
	"soundbox/playback"
	"soundbox/sound"

	ffmpeg "github.com/disgoorg/ffmpeg-audio"
	"github.com/gopxl/beep/v2"
	"github.com/spf13/cobra"
)

// withExec points an ffmpeg config at a specific executable
func withExec(exec string) ffmpeg.ConfigOpt {
	return func(c *ffmpeg.Config) {
		c.Exec = exec
	}
}

// openOutput starts the configured output backend
func openOutput(ctx context.Context, cfg *config.Config) (*playback.Playback, error) {
	rate := beep.SampleRate(cfg.Audio.SampleRate)

	var (
		p   *playback.Playback
		err error
	)
	switch cfg.Output.Backend {
	case "ffmpeg":
		var sink *playback.Sink
		sink, err = playback.NewSink(ctx, playback.SinkConfig{
			OutputFormat: cfg.Output.Format,
			Device:       cfg.Output.Device,
			Opts: []ffmpeg.ConfigOpt{
				withExec(cfg.Capture.Exec),
				ffmpeg.WithSampleRate(cfg.Audio.SampleRate),
			},
			Logger: logger.WithComponent("sink"),
		})
		if err == nil {
			p = playback.NewWithDevice(sink, rate)
		}
	default:
		p, err = playback.New(rate, cfg.Audio.Buffer)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open output: %w", err)
	}

	p.SetVolume(cfg.Audio.Volume)
	return p, nil
}

// soundOptions carries the configured rate, quality and capture device
func soundOptions(cfg *config.Config, extra ...sound.Option) []sound.Option {
	opts := []sound.Option{
		sound.WithSampleRate(beep.SampleRate(cfg.Audio.SampleRate)),
		sound.WithResampleQuality(cfg.Audio.ResampleQuality),
		sound.WithAcquirer(&capture.FFmpeg{
			InputFormat: cfg.Capture.Format,
			Device:      cfg.Capture.Device,
			Opts: []ffmpeg.ConfigOpt{
				withExec(cfg.Capture.Exec),
				ffmpeg.WithChannels(cfg.Capture.Channels),
				ffmpeg.WithSampleRate(cfg.Capture.SampleRate),
			},
			Logger: logger.WithComponent("capture"),
		}),
	}
	return append(opts, extra...)
}

// addEffects builds the chain requested by the effect flags, in a fixed
// order: low-pass, delay, pan
func addEffects(cmd *cobra.Command, s *sound.Sound, rate beep.SampleRate) error {
	flags := cmd.Flags()

	if cutoff, _ := flags.GetFloat64("lowpass"); cutoff > 0 {
		lp, err := effects.NewLowPass(rate, cutoff)
		if err != nil {
			return err
		}
		if err := s.AddEffect(lp); err != nil {
			return err
		}
	}

	if d, _ := flags.GetDuration("delay"); d > 0 {
		feedback, _ := flags.GetFloat64("feedback")
		dl, err := effects.NewDelay(rate, d, feedback, 0.5)
		if err != nil {
			return err
		}
		if err := s.AddEffect(dl); err != nil {
			return err
		}
	}

	if flags.Changed("pan") {
		pos, _ := flags.GetFloat64("pan")
		pan := effects.NewPan(0)
		if !pan.SetPosition(pos) {
			return fmt.Errorf("%w: pan %v", effects.ErrInvalidParameter, pos)
		}
		if err := s.AddEffect(pan); err != nil {
			return err
		}
	}

	return nil
}

func addEffectFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("lowpass", 0, "low-pass cutoff in Hz (0 disables)")
	cmd.Flags().Duration("delay", 0, "echo delay time (0 disables)")
	cmd.Flags().Float64("feedback", 0.5, "echo feedback in [0, 1)")
	cmd.Flags().Float64("pan", 0, "stereo position from -1 (left) to 1 (right)")
}

// waitReady blocks until the OnReady callback reports or ctx ends
func waitReady(ctx context.Context, ready <-chan error) error {
	select {
	case err := <-ready:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
