package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spboyer/topsis/internal/cache"
	"github.com/spboyer/topsis/internal/models"
	"github.com/spboyer/topsis/internal/reporting"
	"github.com/spboyer/topsis/internal/spinner"
	"github.com/spboyer/topsis/internal/statistics"
	"github.com/spf13/cobra"
)

func newSensitivityCommand() *cobra.Command {
	var (
		iterations int
		spread     float64
		seed       int64
		workers    int
		format     string
		precision  int
		weighting  string
		cacheDir   string
	)

	cmd := &cobra.Command{
		Use:   "sensitivity <problem>",
		Short: "Measure how stable a ranking is when the weights move",
		Long: `Rank a problem many times with randomly perturbed weights.

Each weight is scaled by a factor drawn uniformly from [1-spread, 1+spread].
The report shows, per alternative, the range of ranks reached, how often it
came first and kept its base rank, and a percentile interval of its score.
A fixed --seed makes the report reproducible, and reports of seeded runs
are reused from --cache-dir when one is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProjectConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("iterations") {
				iterations = cfg.Sensitivity.Iterations
			}
			if !flags.Changed("spread") {
				spread = cfg.Sensitivity.Spread
			}
			if !flags.Changed("seed") && cfg.Sensitivity.Seed != nil {
				seed = *cfg.Sensitivity.Seed
			}
			if !flags.Changed("workers") {
				workers = cfg.Sensitivity.Workers
			}
			if !flags.Changed("cache-dir") {
				cacheDir = cfg.Sensitivity.CacheDir
			}
			if !flags.Changed("precision") && cfg.Output.Precision != nil {
				precision = *cfg.Output.Precision
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("unsupported format %q: must be table or json", format)
			}
			if spread < 0 || spread >= 1 {
				return fmt.Errorf("--spread must be in [0, 1), got %g", spread)
			}
			if iterations < 1 || iterations > statistics.MaxIterations {
				return fmt.Errorf("--iterations must be in [1, %d], got %d", statistics.MaxIterations, iterations)
			}

			p, err := loadProblemArg(args[0])
			if err != nil {
				return err
			}
			if weighting != "" {
				if p.Weighting, err = models.ParseWeightingMethod(weighting); err != nil {
					return err
				}
			}

			opts := statistics.Options{
				Iterations: iterations,
				Spread:     spread,
				Seed:       seed,
				Workers:    workers,
			}
			stopSpinner := func() {}
			stderr := cmd.ErrOrStderr()
			if spinner.IsTerminal(stderr) {
				spin := spinner.Start(stderr, "Perturbing weights")
				defer spin.Stop()
				stopSpinner = spin.Stop
				opts.Progress = func(done, total int) {
					if done%max(total/100, 1) == 0 {
						spin.Update(fmt.Sprintf("Perturbing weights %d/%d", done, total))
					}
				}
			}

			report, err := runSensitivity(cmd, p, opts, cache.New(cacheDir))
			stopSpinner()
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			fmt.Fprint(out, reporting.FormatSensitivity(report, precision))
			return nil
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", statistics.DefaultIterations, "Number of perturbed rankings")
	cmd.Flags().Float64Var(&spread, "spread", statistics.DefaultSpread, "Relative weight perturbation, in [0, 1)")
	cmd.Flags().Int64Var(&seed, "seed", -1, "Random seed; negative for a random run")
	cmd.Flags().IntVar(&workers, "workers", statistics.DefaultWorkers, "Rankings computed concurrently")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table or json")
	cmd.Flags().IntVar(&precision, "precision", reporting.DefaultPrecision, "Decimals in printed scores")
	cmd.Flags().StringVar(&weighting, "weighting", "", "Override the weighting method: manual or entropy")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Directory caching reports of seeded runs")

	return cmd
}

// runSensitivity returns a cached report for seeded runs when one exists and
// stores fresh ones. Cache write failures only warn.
func runSensitivity(cmd *cobra.Command, p *models.Problem, opts statistics.Options, c *cache.Cache) (*statistics.Report, error) {
	var key string
	if c.Dir() != "" && cache.Cacheable(opts) {
		// A problem that cannot be hashed fails validation below.
		if k, err := cache.Key(p, opts); err == nil {
			if report, ok := c.Get(k); ok {
				slog.Debug("sensitivity cache hit", "key", k)
				return report, nil
			}
			key = k
		}
	}

	report, err := statistics.WeightSensitivity(cmd.Context(), p, opts)
	if err != nil {
		return nil, err
	}
	if key != "" {
		if err := c.Put(key, report); err != nil {
			slog.Warn("caching sensitivity report", "dir", c.Dir(), "error", err)
		}
	}
	return report, nil
}
