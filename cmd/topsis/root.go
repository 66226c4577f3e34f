package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spboyer/topsis/internal/projectconfig"
	"github.com/spboyer/topsis/internal/webapi"
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topsis",
		Short: "TOPSIS - rank alternatives against weighted criteria",
		Long: `TOPSIS ranks a set of alternatives by their closeness to an ideal
solution across several weighted criteria.

Problems are YAML, JSON or CSV files holding the alternatives, the criteria
(weight and benefit/cost type) and the decision matrix. Defaults for output,
sensitivity analysis and the servers are read from .topsis.yaml.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newRankCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newNewCommand())
	cmd.AddCommand(newSensitivityCommand())
	cmd.AddCommand(newCompareCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newWebCommand())
	cmd.AddCommand(newCacheCommand())
	cmd.AddCommand(newMCPCommand())

	return cmd
}

// loadProjectConfig reads .topsis.yaml from the working directory or its
// parents, falling back to defaults.
func loadProjectConfig() (*projectconfig.ProjectConfig, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := projectconfig.Load(wd)
	if err != nil {
		return nil, err
	}
	slog.Debug("project config loaded", "dir", wd, "format", cfg.Output.Format)
	return cfg, nil
}

func execute() error {
	webapi.Version = version
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCommand().ExecuteContext(ctx)
}
