package cmd

import (
	"context"
	"log/slog"

	"soundbox/sound"

	"github.com/gopxl/beep/v2"
	"github.com/spf13/cobra"
)

var toneCmd = &cobra.Command{
	Use:   "tone",
	Short: "Play a synthesised tone",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		if d, _ := cmd.Flags().GetDuration("duration"); d > 0 {
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}

		s, err := newTone(cmd, cfg.Audio.SampleRate)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := addEffects(cmd, s, beep.SampleRate(cfg.Audio.SampleRate)); err != nil {
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
		f, _ := s.Frequency()
		w, _ := s.Waveform()
		slog.Info("Playing tone", slog.Float64("frequency", f), slog.String("type", string(w)))

		<-ctx.Done()
		s.Stop()
		return nil
	},
}

// newTone builds a wave sound from the tone flags
func newTone(cmd *cobra.Command, rate int) (*sound.Sound, error) {
	freq, _ := cmd.Flags().GetFloat64("frequency")
	wave, _ := cmd.Flags().GetString("type")
	volume, _ := cmd.Flags().GetFloat64("volume")

	return sound.New(sound.Description{
		Source: sound.KindWave,
		Options: sound.Options{
			Frequency: freq,
			Type:      sound.Waveform(wave),
			Volume:    sound.Vol(volume),
		},
	}, sound.WithSampleRate(beep.SampleRate(rate)))
}

func addToneFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("frequency", sound.DefaultFrequency, "frequency in Hz")
	cmd.Flags().String("type", string(sound.DefaultWaveform), "waveform (sine, square, sawtooth, triangle)")
	cmd.Flags().Float64("volume", 1, "volume in [0, 1]")
}

func init() {
	addToneFlags(toneCmd)
	toneCmd.Flags().Duration("duration", 0, "stop after this long (0 plays until interrupted)")
	addEffectFlags(toneCmd)
	rootCmd.AddCommand(toneCmd)
}
