package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RMahshie/sonascope/internal/pipeline"
)

// levels: print the stereo VU reading of every frame.
func levelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "levels",
		Short: "Print per-frame left and right meter levels",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			sink := pipeline.SinkFunc(func(f pipeline.Frame) error {
				_, err := fmt.Fprintf(w, "%6d  L %-9s R %-9s\n", f.Seq, f.Levels.Left.Label, f.Levels.Right.Label)
				return err
			})

			_, err := runSession(cmd.Context(), sink)
			return err
		},
	}
	return cmd
}
