package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spboyer/topsis/internal/models"
	"github.com/spf13/cobra"
)

var compareOutputFormat string

func newCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <before.json> <after.json>",
		Short: "Compare two saved ranking outcomes",
		Long: `Compare two outcome files written by "topsis rank --save" or the HTTP API.

Shows, per alternative, its rank and score in each outcome and how they moved.
Alternatives present in only one outcome are marked as added or removed.`,
		Args: cobra.ExactArgs(2),
		RunE: compareCommandE,
	}

	cmd.Flags().StringVarP(&compareOutputFormat, "format", "f", "table", "Output format: table or json")

	return cmd
}

// Alternative presence in a comparison.
const (
	statusKept    = "kept"
	statusAdded   = "added"
	statusRemoved = "removed"
)

// alternativeDelta holds one alternative's movement between two outcomes.
// Ranks are 0 and scores nil where the alternative is absent.
type alternativeDelta struct {
	Alternative string      `json:"alternative"`
	Status      string      `json:"status"`
	Ranks       [2]int      `json:"ranks"`
	Scores      [2]*float64 `json:"scores"`
	// RankChange is positive when the alternative moved up.
	RankChange int     `json:"rank_change"`
	ScoreDelta float64 `json:"score_delta"`
}

// comparisonReport is the full comparison output.
type comparisonReport struct {
	Files        [2]string                 `json:"files"`
	Names        [2]string                 `json:"names"`
	Weightings   [2]models.WeightingMethod `json:"weightings"`
	Top          [2]string                 `json:"top"`
	TopChanged   bool                      `json:"top_changed"`
	Alternatives []alternativeDelta        `json:"alternatives"`
}

func compareCommandE(cmd *cobra.Command, args []string) error {
	if compareOutputFormat != "table" && compareOutputFormat != "json" {
		return fmt.Errorf("unsupported format %q: must be table or json", compareOutputFormat)
	}

	var outcomes [2]*models.RankingOutcome
	for i, path := range args {
		o, err := models.LoadOutcome(path)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		if len(o.Results) == 0 {
			return inputErrorf("%s holds no ranking", path)
		}
		outcomes[i] = o
	}

	report := buildComparisonReport([2]string{args[0], args[1]}, outcomes)

	if compareOutputFormat == "json" {
		return printComparisonJSON(cmd.OutOrStdout(), report)
	}
	printComparisonTable(cmd.OutOrStdout(), report)
	return nil
}

func buildComparisonReport(files [2]string, outcomes [2]*models.RankingOutcome) *comparisonReport {
	report := &comparisonReport{Files: files}

	byName := make(map[string]*alternativeDelta)
	var order []string
	for i, o := range outcomes {
		report.Names[i] = o.Name
		report.Weightings[i] = o.Weighting
		report.Top[i] = o.Best().Alternative
		for _, r := range o.Results {
			d, ok := byName[r.Alternative]
			if !ok {
				d = &alternativeDelta{Alternative: r.Alternative}
				byName[r.Alternative] = d
				order = append(order, r.Alternative)
			}
			score := r.Score
			d.Ranks[i] = r.Rank
			d.Scores[i] = &score
		}
	}
	report.TopChanged = report.Top[0] != report.Top[1]

	for _, name := range order {
		d := byName[name]
		switch {
		case d.Scores[0] == nil:
			d.Status = statusAdded
		case d.Scores[1] == nil:
			d.Status = statusRemoved
		default:
			d.Status = statusKept
			d.RankChange = d.Ranks[0] - d.Ranks[1]
			d.ScoreDelta = *d.Scores[1] - *d.Scores[0]
		}
		report.Alternatives = append(report.Alternatives, *d)
	}

	// Current ranking order first, removed alternatives last in their old order.
	sort.SliceStable(report.Alternatives, func(i, j int) bool {
		a, b := report.Alternatives[i], report.Alternatives[j]
		if (a.Ranks[1] == 0) != (b.Ranks[1] == 0) {
			return b.Ranks[1] == 0
		}
		if a.Ranks[1] != b.Ranks[1] {
			return a.Ranks[1] < b.Ranks[1]
		}
		return a.Ranks[0] < b.Ranks[0]
	})
	return report
}

func printComparisonTable(w io.Writer, r *comparisonReport) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintln(w, " COMPARISON REPORT")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintln(w)

	for i, f := range r.Files {
		fmt.Fprintf(w, "  [%d] %s  (%s, %s weighting)\n", i+1, f, r.Names[i], r.Weightings[i])
	}
	fmt.Fprintln(w)

	if r.TopChanged {
		fmt.Fprintf(w, "  Top alternative changed: %s → %s\n\n", r.Top[0], r.Top[1])
	} else {
		fmt.Fprintf(w, "  Top alternative unchanged: %s\n\n", r.Top[1])
	}

	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintln(w, " PER-ALTERNATIVE DELTAS")
	fmt.Fprintln(w, strings.Repeat("-", 70))

	fmt.Fprintf(w, "  %s  %-6s  %-6s  %-9s  %-9s  %s\n", padCell("Alternative", 22), "[1]", "[2]", "[1] Score", "[2] Score", "Delta")
	for _, d := range r.Alternatives {
		fmt.Fprintf(w, "  %s  %-6s  %-6s  %-9s  %-9s  %s\n",
			padCell(d.Alternative, 22),
			rankCell(d.Ranks[0]), rankCell(d.Ranks[1]),
			scoreCell(d.Scores[0]), scoreCell(d.Scores[1]),
			deltaCell(d))
	}
	fmt.Fprintln(w)
}

func padCell(s string, width int) string {
	s = runewidth.Truncate(s, width, "...")
	return s + strings.Repeat(" ", width-runewidth.StringWidth(s))
}

func rankCell(rank int) string {
	if rank == 0 {
		return "n/a"
	}
	return fmt.Sprintf("#%d", rank)
}

func scoreCell(score *float64) string {
	if score == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *score)
}

func deltaCell(d alternativeDelta) string {
	switch d.Status {
	case statusAdded:
		return "added"
	case statusRemoved:
		return "removed"
	}
	deltaIcon := " "
	if d.RankChange > 0 {
		deltaIcon = "↑"
	} else if d.RankChange < 0 {
		deltaIcon = "↓"
	}
	return fmt.Sprintf("%s%+.4f", deltaIcon, d.ScoreDelta)
}

func printComparisonJSON(w io.Writer, r *comparisonReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal comparison report: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
