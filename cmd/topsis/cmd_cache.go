package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spboyer/topsis/internal/cache"
	"github.com/spf13/cobra"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the sensitivity report cache",
		Long: `Manage the sensitivity report cache.

Reports of seeded sensitivity runs are cached when a cache directory is set
with --cache-dir or sensitivity.cache_dir in .topsis.yaml. Entries are keyed
by the problem and the iterations, spread, seed and confidence level.`,
	}

	cmd.AddCommand(newCacheClearCommand())

	return cmd
}

func newCacheClearCommand() *cobra.Command {
	var cacheDir string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached sensitivity reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("cache-dir") {
				cfg, err := loadProjectConfig()
				if err != nil {
					return err
				}
				cacheDir = cfg.Sensitivity.CacheDir
			}
			if cacheDir == "" {
				return errors.New("no cache directory: pass --cache-dir or set sensitivity.cache_dir")
			}

			absDir, err := filepath.Abs(cacheDir)
			if err != nil {
				return fmt.Errorf("resolving cache directory: %w", err)
			}
			if err := cache.New(absDir).Clear(); err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Cache directory to clear")

	return cmd
}
