package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"naojutils/internal/cli"
	"naojutils/internal/spcam"
)

func flatCmd(env *cli.Env) *cobra.Command {
	var (
		dataDir string
		outDir  string
		prefix  string
	)

	c := &cobra.Command{
		Use:   "flat [flags] FIRST-FRAME [NUM-EXPOSURES]",
		Short: "Make normalised dome flat tiles, one per CCD",
		Long: `Median combines the overscan subtracted dome flats of NUM-EXPOSURES
consecutive exposures starting at FIRST-FRAME (a frame id such as
SUPA00012340), normalises all CCDs by a common level and writes
<prefix>-<DET-ID>.fits for each CCD.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 1
			if len(args) == 2 {
				var err error
				if n, err = strconv.Atoi(args[1]); err != nil || n < 1 {
					return fmt.Errorf("invalid number of exposures %q", args[1])
				}
			}
			r := spcam.New(&env.Config.SPCAM, env.Log)
			exposures, err := r.ExposureRange(args[0], n)
			if err != nil {
				return err
			}
			tiles, err := r.MakeFlatTiles(cmd.Context(), dataDir, exposures)
			if err != nil {
				return err
			}
			paths, err := r.WriteFlatTiles(tiles, outDir, prefix)
			for _, p := range paths {
				fmt.Fprintln(env.Out, p)
			}
			return err
		},
	}

	c.Flags().StringVarP(&dataDir, "rawdir", "d", ".", "raw data directory")
	c.Flags().StringVar(&outDir, "outdir", ".", "directory for the flat tiles")
	c.Flags().StringVar(&prefix, "prefix", "flat", "file name prefix of the flat tiles")
	return c
}
