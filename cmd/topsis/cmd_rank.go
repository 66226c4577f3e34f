package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spboyer/topsis/internal/dataset"
	"github.com/spboyer/topsis/internal/models"
	"github.com/spboyer/topsis/internal/reporting"
	"github.com/spboyer/topsis/internal/topsis"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// saveToConfigDir is the --save value used when the flag is given without
// a directory.
const saveToConfigDir = "\x00results_dir"

type rankOptions struct {
	format    string
	output    string
	precision int
	weighting string
	explain   bool
	interpret bool
	save      string
}

// rankedProblem is one problem's outcome, plus its analysis with --explain.
type rankedProblem struct {
	path     string
	outcome  *models.RankingOutcome
	analysis *topsis.Analysis
}

func newRankCommand() *cobra.Command {
	var opts rankOptions

	cmd := &cobra.Command{
		Use:   "rank <problem> [problem ...]",
		Short: "Rank the alternatives of one or more problems",
		Long: `Rank the alternatives of one or more problem files.

Problems may be YAML, JSON or CSV. In a CSV file the first column names the
alternatives and the header names the criteria; optional @type and @weight
rows give each criterion's direction and weight.

Several problems are ranked concurrently and printed in argument order.
Use --output to export a single problem to a file; the format follows the
extension (.txt, .json, .csv, .md, .html, optionally .gz).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(cmd, args, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: table, json, csv, markdown or html (default from .topsis.yaml or table)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the ranking to this file instead of stdout")
	cmd.Flags().IntVar(&opts.precision, "precision", reporting.DefaultPrecision, "Decimals in printed scores")
	cmd.Flags().StringVar(&opts.weighting, "weighting", "", "Override the weighting method: manual or entropy")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Print every intermediate step of the computation")
	cmd.Flags().BoolVar(&opts.interpret, "interpret", false, "Add a plain-language reading of the scores")
	cmd.Flags().StringVar(&opts.save, "save", "", "Save the outcome JSON to this directory (default from .topsis.yaml when given without a value)")
	cmd.Flags().Lookup("save").NoOptDefVal = saveToConfigDir

	return cmd
}

func runRank(cmd *cobra.Command, args []string, opts *rankOptions) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if !flags.Changed("format") {
		opts.format = cfg.Output.Format
	}
	if !flags.Changed("precision") && cfg.Output.Precision != nil {
		opts.precision = *cfg.Output.Precision
	}
	if !flags.Changed("interpret") && cfg.Output.Interpret != nil {
		opts.interpret = *cfg.Output.Interpret
	}
	if opts.save == saveToConfigDir {
		opts.save = cfg.Output.ResultsDir
	}

	format, err := reporting.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if opts.precision < 0 || opts.precision > 15 {
		return fmt.Errorf("precision must be in [0, 15], got %d", opts.precision)
	}
	if opts.output != "" && len(args) > 1 {
		return fmt.Errorf("--output takes a single problem, got %d", len(args))
	}
	var weighting models.WeightingMethod
	if opts.weighting != "" {
		if weighting, err = models.ParseWeightingMethod(opts.weighting); err != nil {
			return err
		}
	}

	ranked := make([]rankedProblem, len(args))
	now := time.Now()
	g, _ := errgroup.WithContext(cmd.Context())
	for i, path := range args {
		g.Go(func() error {
			rp, err := rankProblemFile(path, weighting, opts.explain, now)
			if err != nil {
				return err
			}
			ranked[i] = *rp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	saved := make(map[string]bool)
	for i, rp := range ranked {
		// Identical problems share an ID and an outcome; save them once.
		if opts.save != "" && !saved[rp.outcome.ID] {
			saved[rp.outcome.ID] = true
			dest := filepath.Join(opts.save, rp.outcome.ID+".json")
			if err := rp.outcome.SaveOutcome(dest); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s\n", dest)
		}

		if opts.output != "" {
			if err := reporting.WriteFile(opts.output, rp.outcome, "", opts.precision); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", opts.output)
			continue
		}

		if i > 0 && format != reporting.FormatJSON {
			fmt.Fprintln(out)
		}
		if err := printRanked(out, rp, format, opts); err != nil {
			return err
		}
	}
	return nil
}

func rankProblemFile(path string, weighting models.WeightingMethod, explain bool, now time.Time) (*rankedProblem, error) {
	p, err := loadProblemArg(path)
	if err != nil {
		return nil, err
	}
	if weighting != "" {
		p.Weighting = weighting
	}

	o, err := models.RankProblem(p, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rp := &rankedProblem{path: path, outcome: o}
	if explain {
		if rp.analysis, err = p.Analyze(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	slog.Debug("problem ranked", "path", path, "alternatives", len(o.Results), "top", o.Best().Alternative)
	return rp, nil
}

func printRanked(w io.Writer, rp rankedProblem, format reporting.Format, opts *rankOptions) error {
	if format == reporting.FormatJSON && rp.analysis != nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*models.RankingOutcome
			Analysis *topsis.Analysis `json:"analysis"`
		}{rp.outcome, rp.analysis})
	}

	if err := reporting.Export(w, rp.outcome, format, opts.precision); err != nil {
		return err
	}
	if format != reporting.FormatTable && format != reporting.FormatMarkdown {
		return nil
	}
	if rp.analysis != nil {
		fmt.Fprintln(w)
		p := rp.outcome.Problem
		if err := reporting.WriteAnalysis(w, rp.analysis, p.Alternatives, p.CriterionNames(), opts.precision); err != nil {
			return err
		}
	}
	if opts.interpret {
		fmt.Fprintln(w)
		fmt.Fprint(w, reporting.FormatSummaryReport(rp.outcome, opts.precision))
	}
	return nil
}

// loadProblemArg loads a problem named on the command line. Parse failures
// are input errors; a missing file is not.
func loadProblemArg(path string) (*models.Problem, error) {
	p, err := dataset.LoadProblem(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err != nil {
		return nil, &InputError{Err: err}
	}
	if p.Name == "" {
		p.Name = problemNameFromPath(path)
	}
	return p, nil
}

// problemNameFromPath names an unnamed problem after its file.
func problemNameFromPath(path string) string {
	base := filepath.Base(path)
	for ext := filepath.Ext(base); ext != ""; ext = filepath.Ext(base) {
		base = base[:len(base)-len(ext)]
	}
	return base
}
