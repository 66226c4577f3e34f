package reporting

import (
	"fmt"
	"math"
	"strings"

	"github.com/spboyer/topsis/internal/models"
)

// tieTolerance is the score difference below which two alternatives are
// reported as tied.
const tieTolerance = 1e-12

// InterpretScore returns a plain-language label for a closeness score (0–1).
func InterpretScore(score float64) string {
	pct := score * 100
	switch {
	case pct >= 80:
		return "Near the ideal (≥80%)"
	case pct >= 60:
		return "Closer to the ideal (60-80%)"
	case pct > 40:
		return "Between the ideals (40-60%)"
	case pct > 20:
		return "Closer to the anti-ideal (20-40%)"
	default:
		return "Near the anti-ideal (≤20%)"
	}
}

// InterpretMargin explains how decisive the lead of the best alternative is.
func InterpretMargin(margin float64) string {
	switch {
	case margin < tieTolerance:
		return "The top alternatives are tied."
	case margin < 0.05:
		return "The lead is narrow; small weight changes may reorder the top."
	case margin < 0.15:
		return "The lead is clear."
	default:
		return "The lead is decisive."
	}
}

// FormatSummaryReport produces a plain-language report of a ranking.
func FormatSummaryReport(o *models.RankingOutcome, precision int) string {
	var b strings.Builder

	b.WriteString("=== Interpretation ===\n\n")

	best := o.Best()
	if best == nil {
		b.WriteString("No alternatives were ranked.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Best alternative: %s (score %s, %s)\n",
		best.Alternative, formatScore(best.Score, precision), InterpretScore(best.Score))
	if len(o.Results) > 1 {
		next := o.Results[1]
		margin := best.Score - next.Score
		fmt.Fprintf(&b, "Margin over %s: %s. %s\n", next.Alternative, formatScore(margin, precision), InterpretMargin(margin))
	}

	if ties := tiedGroups(o.Results); len(ties) > 0 {
		b.WriteString("\nTies (listed in input order):\n")
		for _, group := range ties {
			fmt.Fprintf(&b, "  %s share score %s\n", strings.Join(group.names, ", "), formatScore(group.score, precision))
		}
	}

	b.WriteString("\nPer-Alternative Interpretation:\n")
	for _, r := range o.Results {
		fmt.Fprintf(&b, "  %d. %s: %s, %s\n", r.Rank, r.Alternative, formatScore(r.Score, precision), InterpretScore(r.Score))
	}
	return b.String()
}

type tieGroup struct {
	names []string
	score float64
}

// tiedGroups finds runs of adjacent results with equal scores. Results are
// in ranked order, so equal scores are always adjacent.
func tiedGroups(results []models.RankedAlternative) []tieGroup {
	var groups []tieGroup
	for i := 0; i < len(results); {
		j := i + 1
		for j < len(results) && math.Abs(results[j].Score-results[i].Score) < tieTolerance {
			j++
		}
		if j-i > 1 {
			g := tieGroup{score: results[i].Score}
			for _, r := range results[i:j] {
				g.names = append(g.names, r.Alternative)
			}
			groups = append(groups, g)
		}
		i = j
	}
	return groups
}
