// Command focas-mkflat makes an IFU flat from a dome flat exposure.
package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"naojutils/internal/cli"
	"naojutils/internal/fitsimg"
	"naojutils/internal/focas"
	"naojutils/internal/plotting"
)

func main() {
	cli.Execute(newRootCmd(&cli.Env{}))
}

type options struct {
	output         string
	rawDir         string
	regions        string
	templatePrefix string
	overwrite      bool
	plot           bool
}

func newRootCmd(env *cli.Env) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "focas-mkflat [flags] CH1.fits [CH2.fits]",
		Short: "Make an IFU flat from a dome flat exposure",
		Long: `Bias subtracts both chips of a dome flat exposure and integrates every
pseudo slit. The output name defaults to flat_<binning>_<filters>.fits.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(env, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file name")
	cmd.Flags().StringVarP(&opts.rawDir, "rawdir", "d", "", "raw data directory")
	cmd.Flags().StringVar(&opts.regions, "regions", "", "DS9 region file of the pseudo slits (default from config)")
	cmd.Flags().StringVar(&opts.templatePrefix, "template-prefix", "", "bias template prefix (default from config)")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "replace an existing output file")
	cmd.Flags().BoolVar(&opts.plot, "plot", false, "write a PNG of the slit profiles next to the flat")
	return cli.Wrap(cmd, env)
}

func run(env *cli.Env, opts options, args []string) error {
	p := focas.New(&env.Config.FOCAS, env.Log)
	pair, err := focas.LoadExposure(opts.rawDir, args...)
	if err != nil {
		return err
	}

	prefix := opts.templatePrefix
	if prefix == "" {
		prefix = env.Config.FOCAS.TemplatePrefix
	}
	flat, err := p.MakeFlat(pair, prefix, opts.regions)
	if err != nil {
		return err
	}

	out := opts.output
	if out == "" {
		if out, err = p.FlatName(flat.Header); err != nil {
			return err
		}
	}
	if err := fitsimg.Save(out, opts.overwrite, flat); err != nil {
		return err
	}
	env.Log.Info("flat written", zap.String("file", out), zap.Int("slits", flat.Height()))

	if opts.plot {
		png := strings.TrimSuffix(out, filepath.Ext(out)) + ".png"
		if err := plotting.Rows(png, filepath.Base(out), flat.Width(), flat.Data); err != nil {
			return err
		}
	}
	fmt.Fprintln(env.Out, out)
	return nil
}
