// Command focas-reconstruct turns a FOCAS IFU exposure into a reconstructed
// image with one row per slice.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"naojutils/internal/cli"
	"naojutils/internal/fitsimg"
	"naojutils/internal/focas"
)

func main() {
	cli.Execute(newRootCmd(&cli.Env{}))
}

type options struct {
	output         string
	rawDir         string
	templatePrefix string
	overwrite      bool
	noShift        bool
	focas.Options
}

func newRootCmd(env *cli.Env) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "focas-reconstruct [flags] CH1.fits [CH2.fits]",
		Short: "Reconstruct an IFU image",
		Long: `Bias subtracts both chips of an IFU exposure, integrates the pseudo
slits, optionally divides by a flat shifted for instrument flexure, and
stacks the slices into an image. The output name defaults to
<FRAMEID>.rcn.fits.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(env, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file name")
	cmd.Flags().StringVarP(&opts.rawDir, "rawdir", "d", "", "raw data directory")
	cmd.Flags().StringVar(&opts.templatePrefix, "template-prefix", "", "bias template prefix (default from config)")
	cmd.Flags().StringVar(&opts.RegionFile, "regions", "", "DS9 region file of the pseudo slits (default from config)")
	cmd.Flags().StringVarP(&opts.FlatFile, "flat", "f", "", "flat made by focas-mkflat")
	cmd.Flags().BoolVar(&opts.noShift, "no-shift", false, "do not correct the flat for flexure")
	cmd.Flags().BoolVarP(&opts.Smooth, "smooth", "s", false, "blend neighbouring slices instead of repeating them")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "replace an existing output file")
	return cli.Wrap(cmd, env)
}

func run(env *cli.Env, opts options, args []string) error {
	p := focas.New(&env.Config.FOCAS, env.Log)
	pair, err := focas.LoadExposure(opts.rawDir, args...)
	if err != nil {
		return err
	}

	out := opts.output
	if out == "" {
		if out, err = focas.ReconstructName(pair.Right.Header); err != nil {
			return err
		}
	}
	if focas.IsOutputPresent(out, opts.overwrite) {
		return fmt.Errorf("%s: %w", out, fitsimg.ErrExists)
	}

	ro := opts.Options
	ro.TemplatePrefix = opts.templatePrefix
	if ro.TemplatePrefix == "" {
		ro.TemplatePrefix = env.Config.FOCAS.TemplatePrefix
	}
	ro.Shift = !opts.noShift

	img, err := p.ReconstructExposure(pair, ro)
	if err != nil {
		return err
	}
	if err := fitsimg.Save(out, opts.overwrite, img); err != nil {
		return err
	}
	env.Log.Info("reconstructed image written", zap.String("file", out),
		zap.Int("width", img.Width()), zap.Int("height", img.Height()))
	fmt.Fprintln(env.Out, out)
	return nil
}
