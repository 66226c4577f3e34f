package main

import (
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spboyer/topsis/internal/mcptools"
	"github.com/spboyer/topsis/internal/statistics"
	"github.com/spf13/cobra"
)

func newMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start a Model Context Protocol server on stdio",
		Long: `Start a Model Context Protocol (MCP) server on stdin/stdout so AI assistants
can rank problems directly.

Tools:
  topsis_rank         Rank a problem (inline YAML/JSON or a file path)
  topsis_validate     Check a problem without ranking it
  topsis_sensitivity  Weight sensitivity report

Sensitivity defaults come from the sensitivity section of .topsis.yaml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProjectConfig()
			if err != nil {
				return err
			}

			opts := statistics.Options{
				Iterations: cfg.Sensitivity.Iterations,
				Spread:     cfg.Sensitivity.Spread,
				Seed:       -1,
				Workers:    cfg.Sensitivity.Workers,
			}
			if cfg.Sensitivity.Seed != nil {
				opts.Seed = *cfg.Sensitivity.Seed
			}

			s := mcptools.NewServer(version, opts)
			stdio := server.NewStdioServer(s)
			stdio.SetErrorLogger(log.New(cmd.ErrOrStderr(), "", log.LstdFlags))

			fmt.Fprintln(cmd.ErrOrStderr(), "MCP server running on stdio")
			return stdio.Listen(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
