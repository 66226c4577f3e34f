package reporting

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spboyer/topsis/internal/topsis"
)

// WriteAnalysis prints every intermediate step of a TOPSIS run: column
// norms, the normalized and weighted matrices, both ideal solutions and the
// distances behind each score.
func WriteAnalysis(w io.Writer, a *topsis.Analysis, alternatives, criteria []string, precision int) error {
	num := func(v float64) string { return formatScore(v, precision) }

	vector := func(values []float64) [][]string {
		row := make([]string, len(values)+1)
		for j, v := range values {
			row[j+1] = num(v)
		}
		return [][]string{row}
	}
	matrix := func(m [][]float64) [][]string {
		rows := make([][]string, len(m))
		for i, values := range m {
			row := make([]string, 0, len(values)+1)
			row = append(row, alternatives[i])
			for _, v := range values {
				row = append(row, num(v))
			}
			rows[i] = row
		}
		return rows
	}
	header := append([]string{""}, criteria...)

	sections := []struct {
		title string
		rows  [][]string
	}{
		{"Column norms", vector(a.Norms)},
		{"Normalized matrix", matrix(a.Normalized)},
		{"Weighted normalized matrix", matrix(a.Weighted)},
		{"Positive ideal solution", vector(a.PositiveIdeal)},
		{"Negative ideal solution", vector(a.NegativeIdeal)},
	}
	for _, s := range sections {
		if _, err := fmt.Fprintf(w, "%s\n", s.title); err != nil {
			return err
		}
		if err := writeGrid(w, header, s.rows); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, "Distances and scores"); err != nil {
		return err
	}
	rows := make([][]string, len(a.Ranking))
	for k, r := range a.Ranking {
		i := r.Index
		rows[k] = []string{
			alternatives[i],
			num(a.PositiveDistances[i]),
			num(a.NegativeDistances[i]),
			num(a.Scores[i]),
			strconv.Itoa(r.Rank),
		}
	}
	return writeGrid(w, []string{"", "d+", "d-", "score", "rank"}, rows)
}
