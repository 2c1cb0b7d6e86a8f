// Command focas-biassub removes the bias and overscan from both chips of a
// FOCAS exposure, repairs the bad column and writes the stacked frame.
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
	quick          bool
}

func newRootCmd(env *cli.Env) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "focas-biassub [flags] CH1.fits [CH2.fits]",
		Short: "Bias subtraction, overscan removal and bad pixel correction",
		Long: `Subtracts the bias of both chips of a FOCAS IFU exposure, removes the
overscan regions, repairs the bad column of chip 1 and stacks the chips with
the CCD gap between them. Without CH2 the second chip is the next frame id.
The result is written to <FRAMEID>.ov.fits unless -o is given.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(env, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file name")
	cmd.Flags().StringVarP(&opts.rawDir, "rawdir", "d", "", "raw data directory")
	cmd.Flags().StringVar(&opts.templatePrefix, "template-prefix", "", "bias template prefix (default from config, \"none\" to use the overscan only)")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "replace an existing output file")
	cmd.Flags().BoolVar(&opts.quick, "quick", false, "subtract the row mean of the overscan only, without template, trimming or gain")
	return cli.Wrap(cmd, env)
}

func run(env *cli.Env, opts options, args []string) error {
	log := env.Log
	p := focas.New(&env.Config.FOCAS, log)

	pair, err := focas.LoadExposure(opts.rawDir, args...)
	if err != nil {
		return err
	}

	out := opts.output
	if out == "" {
		if out, err = focas.OverscanName(pair.Right.Header); err != nil {
			return err
		}
	}
	if focas.IsOutputPresent(out, opts.overwrite) {
		log.Info("Bias-subtracted and overscan-removed frame already exists, skipped.", zap.String("file", out))
		return nil
	}

	var result *fitsimg.Image
	if opts.quick {
		result, err = p.QuickSubtract(pair.Right, pair.Left)
	} else {
		prefix := opts.templatePrefix
		switch prefix {
		case "":
			prefix = env.Config.FOCAS.TemplatePrefix
		case "none":
			prefix = ""
		}
		result, err = p.BiasSubtract(pair, prefix)
		if err == nil {
			err = focas.CorrectHeader(result.Header)
		}
	}
	if err != nil {
		return err
	}

	if err := fitsimg.Save(out, opts.overwrite, result); err != nil {
		return err
	}
	log.Info("written", zap.String("file", out), zap.Int("width", result.Width()), zap.Int("height", result.Height()))
	fmt.Fprintln(env.Out, out)
	return nil
}
