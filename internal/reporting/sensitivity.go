package reporting

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spboyer/topsis/internal/statistics"
)

// FormatSensitivity renders a weight sensitivity report as text.
func FormatSensitivity(r *statistics.Report, precision int) string {
	var b strings.Builder

	b.WriteString("=== Weight Sensitivity ===\n\n")
	if r.Name != "" {
		fmt.Fprintf(&b, "Problem:    %s\n", r.Name)
	}
	seed := "random"
	if r.Seed >= 0 {
		seed = strconv.FormatInt(r.Seed, 10)
	}
	fmt.Fprintf(&b, "Iterations: %d\nSpread:     ±%.0f%%\nSeed:       %s\n\n", r.Iterations, r.Spread*100, seed)

	level := statistics.DefaultConfidenceLevel
	if len(r.Alternatives) > 0 {
		level = r.Alternatives[0].Score.ConfidenceLevel
	}
	header := []string{"Alternative", "Base", "Mean", "Min", "Max", "Top", "Stable", fmt.Sprintf("Score (%.0f%%)", level*100)}
	rows := make([][]string, len(r.Alternatives))
	for k, a := range r.Alternatives {
		rows[k] = []string{
			a.Alternative,
			strconv.Itoa(a.BaseRank),
			fmt.Sprintf("%.2f", a.MeanRank),
			strconv.Itoa(a.MinRank),
			strconv.Itoa(a.MaxRank),
			fmt.Sprintf("%.1f%%", a.TopShare*100),
			fmt.Sprintf("%.1f%%", a.StableShare*100),
			fmt.Sprintf("[%s, %s]", formatScore(a.Score.Lower, precision), formatScore(a.Score.Upper, precision)),
		}
	}
	_ = writeGrid(&b, header, rows) // strings.Builder never fails

	if len(r.Alternatives) > 0 {
		top := r.Alternatives[0]
		fmt.Fprintf(&b, "\n%s stays on top in %.1f%% of perturbed rankings. %s\n",
			top.Alternative, top.TopShare*100, interpretStability(top.TopShare))
	}
	return b.String()
}

func interpretStability(share float64) string {
	switch {
	case share >= 0.95:
		return "The choice is robust to the weights."
	case share >= 0.75:
		return "The choice is fairly stable."
	default:
		return "The choice depends on the exact weights."
	}
}
