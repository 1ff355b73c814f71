package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "facesyncd",
		Short: "facesync - real-time facial blend-shape driver",
		Long: `facesyncd drives an animated character's face in real time: it blends
audio-derived viseme scores, a selected expression profile, and an
independent blink cycle into per-frame blend-target intensities, and
keeps producing plausible output when the audio analyzer is degraded
or unavailable.`,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newProbeCmd(),
		newProfilesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the facesyncd version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}
