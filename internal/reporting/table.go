package reporting

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spboyer/topsis/internal/models"
)

// WriteTable prints a ranking as an aligned terminal table.
func WriteTable(w io.Writer, o *models.RankingOutcome, precision int) error {
	if o.Name != "" {
		if _, err := fmt.Fprintf(w, "%s\n\n", o.Name); err != nil {
			return err
		}
	}
	rows := make([][]string, len(o.Results))
	for i, r := range o.Results {
		rows[i] = []string{strconv.Itoa(r.Rank), r.Alternative, formatScore(r.Score, precision)}
	}
	return writeGrid(w, []string{"Rank", "Alternative", "Score"}, rows)
}

// writeGrid prints rows under a header with columns padded to their widest
// cell, measured in terminal cells.
func writeGrid(w io.Writer, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	for j, h := range header {
		widths[j] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for j, cell := range row {
			if j < len(widths) {
				widths[j] = max(widths[j], runewidth.StringWidth(cell))
			}
		}
	}

	line := func(cells []string) error {
		var b strings.Builder
		for j, cell := range cells {
			if j == len(cells)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(padRight(cell, widths[j]))
			b.WriteString("  ")
		}
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	if err := line(header); err != nil {
		return err
	}
	rule := make([]string, len(header))
	for j := range header {
		rule[j] = strings.Repeat("-", widths[j])
	}
	if err := line(rule); err != nil {
		return err
	}
	for _, row := range rows {
		if err := line(row); err != nil {
			return err
		}
	}
	return nil
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
