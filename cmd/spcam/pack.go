package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"naojutils/internal/cli"
	"naojutils/internal/spcam"
)

func packCmd(env *cli.Env) *cobra.Command {
	var (
		output    string
		overwrite bool
	)

	c := &cobra.Command{
		Use:   "pack [flags] FRAME.fits",
		Short: "Pack the CCD frames of an exposure into one multi-extension file",
		Long: `Finds every CCD frame of the exposure that FRAME.fits belongs to and
writes them as one FITS file: a primary HDU with the exposure keywords and
one image extension per CCD in DET-ID order. The output name defaults to
<first frame>.mef.fits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := spcam.New(&env.Config.SPCAM, env.Log)
			out := output
			if out == "" {
				paths, err := r.FileList(args[0])
				if err != nil {
					return err
				}
				base := filepath.Base(paths[0])
				out = strings.TrimSuffix(base, filepath.Ext(base)) + ".mef.fits"
			}
			if err := r.PackExposure(cmd.Context(), args[0], out, overwrite); err != nil {
				return err
			}
			fmt.Fprintln(env.Out, out)
			return nil
		},
	}

	c.Flags().StringVarP(&output, "output", "o", "", "output file name")
	c.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing output file")
	return c
}
