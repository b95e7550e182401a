package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"soundbox/sound"

	"github.com/gopxl/beep/v2"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play <locator>",
	Short: "Play an audio file or URL",
	Long:  "Decode a wav, mp3, ogg, flac or aiff file (local path or http(s) URL) and play it until it ends.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		loop, _ := cmd.Flags().GetBool("loop")
		volume, _ := cmd.Flags().GetFloat64("volume")

		ready := make(chan error, 1)
		s, err := sound.New(sound.Description{
			Source:  sound.KindFile,
			Options: sound.Options{Path: args[0], Loop: loop, Volume: sound.Vol(volume)},
		}, soundOptions(cfg, sound.OnReady(func(err error) { ready <- err }))...)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := waitReady(ctx, ready); err != nil {
			return fmt.Errorf("failed to load %s: %w", args[0], err)
		}
		if err := addEffects(cmd, s, beep.SampleRate(cfg.Audio.SampleRate)); err != nil {
			return err
		}

		out, err := openOutput(ctx, cfg)
		if err != nil {
			return err
		}
		defer out.Close()

		ended := make(chan struct{})
		s.On(sound.EventEnd, func() { close(ended) })
		if err := out.Attach(s); err != nil {
			return err
		}
		s.Play()
		slog.Info("Playing", slog.String("locator", args[0]), slog.Bool("loop", loop))

		select {
		case <-ended:
			// Let the device drain its buffer.
			time.Sleep(cfg.Audio.Buffer)
		case <-ctx.Done():
			s.Stop()
		}
		return nil
	},
}

func init() {
	playCmd.Flags().Bool("loop", false, "loop until interrupted")
	playCmd.Flags().Float64("volume", 1, "volume in [0, 1]")
	addEffectFlags(playCmd)
	rootCmd.AddCommand(playCmd)
}
