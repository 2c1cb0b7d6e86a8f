// Command spcam reduces Suprime-Cam data: packing exposures into
// multi-extension files, building dome flat tiles and flat fielding
// single CCD frames.
package main

import (
	"github.com/spf13/cobra"

	"naojutils/internal/cli"
)

func main() {
	cli.Execute(newRootCmd(&cli.Env{}))
}

func newRootCmd(env *cli.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spcam",
		Short: "Suprime-Cam data reduction",
	}
	cmd.AddCommand(packCmd(env), flatCmd(env), reduceCmd(env))
	return cli.Wrap(cmd, env)
}
