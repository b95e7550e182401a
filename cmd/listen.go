package cmd

import (
	"fmt"
	"log/slog"

	"soundbox/effects"
	"soundbox/sound"

	"github.com/gopxl/beep/v2"
	"github.com/spf13/cobra"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Monitor the capture device",
	Long:  "Capture live input through ffmpeg and route it to the output until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		volume, _ := cmd.Flags().GetFloat64("volume")
		ready := make(chan error, 1)
		s, err := sound.New(sound.Description{
			Source:  sound.KindInput,
			Options: sound.Options{Volume: sound.Vol(volume)},
		}, soundOptions(cfg, sound.OnReady(func(err error) { ready <- err }))...)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := waitReady(ctx, ready); err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}

		rate := beep.SampleRate(cfg.Audio.SampleRate)
		if err := addEffects(cmd, s, rate); err != nil {
			return err
		}
		meter := effects.NewTap(rate.N(cfg.Audio.Buffer))
		if err := s.AddEffect(meter); err != nil {
			return err
		}

		out, err := openOutput(ctx, cfg)
		if err != nil {
			return err
		}
		defer out.Close()

		if err := out.Attach(s); err != nil {
			return err
		}
		s.Play()
		slog.Info("Listening", slog.String("device", cfg.Capture.Device))

		<-ctx.Done()
		slog.Debug("Input level at exit", slog.Float64("rms", meter.Level()))
		s.Stop()
		return nil
	},
}

func init() {
	listenCmd.Flags().Float64("volume", 1, "volume in [0, 1]")
	addEffectFlags(listenCmd)
	rootCmd.AddCommand(listenCmd)
}
