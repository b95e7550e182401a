package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"soundbox/decode"
	"soundbox/playback"
	"soundbox/sound"

	"github.com/gopxl/beep/v2"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <out.wav>",
	Short: "Render a tone or file offline to a wav file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}

		rate := beep.SampleRate(cfg.Audio.SampleRate)
		input, _ := cmd.Flags().GetString("input")
		d, _ := cmd.Flags().GetDuration("duration")

		var s *sound.Sound
		if input != "" {
			buf, err := decode.Default().Load(cmd.Context(), input)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", input, err)
			}
			if d <= 0 {
				d = buf.Format().SampleRate.D(buf.Len())
			}
			volume, _ := cmd.Flags().GetFloat64("volume")
			s, err = sound.New(sound.Description{
				Source:  sound.KindFile,
				Options: sound.Options{Buffer: buf, Volume: sound.Vol(volume)},
			}, sound.WithSampleRate(rate), sound.WithResampleQuality(cfg.Audio.ResampleQuality))
			if err != nil {
				return err
			}
		} else {
			if d <= 0 {
				d = 2 * time.Second
			}
			s, err = newTone(cmd, cfg.Audio.SampleRate)
			if err != nil {
				return err
			}
		}
		defer s.Close()

		if err := addEffects(cmd, s, rate); err != nil {
			return err
		}

		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()

		s.Play()
		if err := playback.Render(f, s.Output(), s.Format(), d); err != nil {
			return err
		}
		slog.Info("Rendered", slog.String("file", args[0]), slog.Duration("duration", d))
		return f.Close()
	},
}

func init() {
	renderCmd.Flags().String("input", "", "file or URL to render instead of a tone")
	renderCmd.Flags().Duration("duration", 0, "length to render (default: whole file, or 2s for tones)")
	addToneFlags(renderCmd)
	addEffectFlags(renderCmd)
	rootCmd.AddCommand(renderCmd)
}
