package cmd

import (
	"fmt"
	"runtime"
	"slices"
	"strings"

	"soundbox/decode"
	"soundbox/sound"

	"github.com/spf13/cobra"
)

var (
	// Set with -ldflags "-X soundbox/cmd.Version=..." at release time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the soundbox build and its audio capabilities",
	Long: `Show which soundbox build is running and what it can do with audio:
the file formats play can decode, the output backends and the oscillator
waveforms. Use --short to print only the version string.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if versionShort {
			fmt.Fprintln(out, Version)
			return
		}

		formats := decode.DefaultRegistry().Formats()
		slices.Sort(formats)

		fmt.Fprintf(out, "soundbox %s (commit %s, built %s, %s %s/%s)\n",
			Version, GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "decoders:  %s\n", strings.Join(formats, ", "))
		fmt.Fprintln(out, "backends:  speaker, ffmpeg")
		fmt.Fprintf(out, "waveforms: %s, %s, %s, %s\n", sound.Sine, sound.Square, sound.Sawtooth, sound.Triangle)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version")
	rootCmd.AddCommand(versionCmd)
}
