package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"naojutils/internal/cli"
	"naojutils/internal/fitsimg"
	"naojutils/internal/spcam"
)

func reduceCmd(env *cli.Env) *cobra.Command {
	var (
		flatDir   string
		output    string
		overwrite bool
	)

	c := &cobra.Command{
		Use:   "reduce [flags] FRAME.fits",
		Short: "Subtract the overscan of a CCD frame and divide by its flat tile",
		Long: `Subtracts the overscan of one CCD frame and divides it by the flat tile
with the same DET-ID from --flats. The output name defaults to
<frame>.red.fits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tiles, err := spcam.LoadFlatTiles(flatDir)
			if err != nil {
				return err
			}
			if len(tiles) == 0 {
				return fmt.Errorf("no flat tiles in %s", flatDir)
			}
			img, err := fitsimg.Load(args[0])
			if err != nil {
				return err
			}

			r := spcam.New(&env.Config.SPCAM, env.Log)
			reduced, err := r.Reduce(img, tiles)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			out := output
			if out == "" {
				base := filepath.Base(args[0])
				out = strings.TrimSuffix(base, filepath.Ext(base)) + ".red.fits"
			}
			if err := fitsimg.Save(out, overwrite, reduced); err != nil {
				return err
			}
			env.Log.Info("reduced frame written", zap.String("file", out))
			fmt.Fprintln(env.Out, out)
			return nil
		},
	}

	c.Flags().StringVar(&flatDir, "flats", ".", "directory holding the flat tiles")
	c.Flags().StringVarP(&output, "output", "o", "", "output file name")
	c.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing output file")
	return c
}
