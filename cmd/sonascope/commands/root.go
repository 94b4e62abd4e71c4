package commands

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	frames    int
	fps       int
	themeName string
	verbose   bool

	tone      bool
	input     string
	leftFreq  float64
	rightFreq float64
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sonascope",
		Short:        "Render audio visualizations to disk",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return nil
		},
	}

	root.PersistentFlags().IntVarP(&frames, "frames", "n", 60, "number of frames to render")
	root.PersistentFlags().IntVar(&fps, "fps", 0, "frame rate (default FRAME_RATE or 60)")
	root.PersistentFlags().StringVar(&themeName, "theme", "dark", "light or dark")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.PersistentFlags().BoolVar(&tone, "tone", false, "use a generated stereo test tone")
	root.PersistentFlags().StringVarP(&input, "input", "i", "", "audio file or URL decoded through ffmpeg")
	root.PersistentFlags().Float64Var(&leftFreq, "left-freq", 440, "test tone left channel frequency (Hz)")
	root.PersistentFlags().Float64Var(&rightFreq, "right-freq", 660, "test tone right channel frequency (Hz)")

	root.AddCommand(renderCmd(), levelsCmd())
	return root
}
