// Command focas-mkbiastemplate builds the bias templates of both chips from
// a FOCAS bias exposure.
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

func newRootCmd(env *cli.Env) *cobra.Command {
	var (
		rawDir    string
		outDir    string
		overwrite bool
		plot      bool
	)

	cmd := &cobra.Command{
		Use:   "focas-mkbiastemplate [flags] BIAS.fits",
		Short: "Make bias template files",
		Long: `Makes one bias template per chip from a bias exposure. BIAS.fits is the
first chip; the second chip is the frame with the next frame id. Existing
templates are kept unless --overwrite is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if rawDir != "" && !filepath.IsAbs(path) {
				path = filepath.Join(rawDir, path)
			}
			p := focas.New(&env.Config.FOCAS, env.Log)
			names, err := p.WriteBiasTemplates(path, outDir, overwrite)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(env.Out, name)
				if plot {
					if err := plotTemplate(name); err != nil {
						return err
					}
					env.Log.Debug("plotted", zap.String("template", name))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&rawDir, "rawdir", "d", "", "raw data directory")
	cmd.Flags().StringVar(&outDir, "outdir", ".", "directory for the template files")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing templates")
	cmd.Flags().BoolVar(&plot, "plot", false, "write a PNG profile next to each template")
	return cli.Wrap(cmd, env)
}

func plotTemplate(name string) error {
	tmpl, err := fitsimg.Load(name)
	if err != nil {
		return err
	}
	png := strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
	return plotting.Profile(png, filepath.Base(name), "column", "ADU", tmpl.Data)
}
