// Command fitsview is a small FITS image viewer for checking the output of
// the reduction tools: every image HDU of a file, contrast sliders, a
// movable region of interest and stepping through a folder.
package main

import (
	"github.com/spf13/cobra"

	"naojutils/internal/cli"
)

func main() {
	cli.Execute(newRootCmd(&cli.Env{}))
}

func newRootCmd(env *cli.Env) *cobra.Command {
	var light bool

	cmd := &cobra.Command{
		Use:   "fitsview [flags] [FILE.fits | FOLDER]",
		Short: "View FITS images",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := ""
			if len(args) == 1 {
				start = args[0]
			}
			return runViewer(env, start, light)
		},
	}

	cmd.Flags().BoolVar(&light, "light", false, "use the light theme")
	return cli.Wrap(cmd, env)
}
