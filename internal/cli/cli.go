// Package cli wires the flags and services shared by every command.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"naojutils/internal/config"
	"naojutils/internal/logging"
)

// Env is filled in before a command runs.
type Env struct {
	Config *config.Config
	Log    *zap.Logger
	Out    io.Writer

	verbose    bool
	configPath string
	ownLogger  bool
}

// Wrap adds the persistent --verbose and --config flags to cmd and loads the
// logger and configuration into env before cmd runs. A logger already set
// on env is kept.
func Wrap(cmd *cobra.Command, env *Env) *cobra.Command {
	cmd.SilenceUsage = true
	cmd.PersistentFlags().BoolVarP(&env.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&env.configPath, "config", "", "YAML file overriding the built-in instrument tables")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if env.Log == nil {
			logger, err := logging.New(env.verbose)
			if err != nil {
				return err
			}
			env.Log = logger
			env.ownLogger = true
		}
		cfg, err := config.Load(env.configPath)
		if err != nil {
			return err
		}
		env.Config = cfg
		if env.Out == nil {
			env.Out = cmd.OutOrStdout()
		}
		env.Log.Debug("configuration loaded", zap.String("path", env.configPath))
		return nil
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if env.ownLogger {
			_ = env.Log.Sync()
		}
	}
	return cmd
}

// Execute runs cmd with a context cancelled on SIGINT/SIGTERM and exits
// non-zero on failure.
func Execute(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
