package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RMahshie/sonascope/internal/pipeline"
)

func renderCmd() *cobra.Command {
	var (
		out   string
		views []string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write oscilloscope, spectrum and meter frames as PNG files",
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := make([]pipeline.View, 0, len(views))
			for _, name := range views {
				v, err := pipeline.ParseView(name)
				if err != nil {
					return err
				}
				selected = append(selected, v)
			}

			sink, err := pipeline.NewDirSink(out, selected...)
			if err != nil {
				return err
			}

			n, err := runSession(cmd.Context(), sink)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d frames to %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "frames", "output directory")
	cmd.Flags().StringSliceVar(&views, "view", nil, "views to write: oscilloscope, spectrum, meters (default all)")
	return cmd
}
