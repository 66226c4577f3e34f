package reporting

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/spboyer/topsis/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.Table))

// Markdown renders a ranking and the criteria it used as a Markdown
// document.
func Markdown(o *models.RankingOutcome, precision int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", escapeCell(outcomeTitle(o)))
	if o.Problem != nil && o.Problem.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", o.Problem.Description)
	}

	b.WriteString("| Rank | Alternative | Score |\n")
	b.WriteString("|---:|---|---:|\n")
	for _, r := range o.Results {
		fmt.Fprintf(&b, "| %d | %s | %s |\n", r.Rank, escapeCell(r.Alternative), formatScore(r.Score, precision))
	}

	if o.Problem != nil && len(o.Problem.Criteria) > 0 {
		weighting := o.Weighting
		if weighting == "" {
			weighting = models.WeightingManual
		}
		fmt.Fprintf(&b, "\n## Criteria (%s weighting)\n\n", weighting)
		b.WriteString("| Criterion | Type | Weight |\n")
		b.WriteString("|---|---|---:|\n")
		for j, c := range o.Problem.Criteria {
			weight := c.Weight
			if j < len(o.Weights) {
				weight = o.Weights[j]
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", escapeCell(c.Name), c.Type, formatScore(weight, precision))
		}
	}
	return b.String()
}

// HTML renders the Markdown report as a standalone HTML page.
func HTML(o *models.RankingOutcome, precision int) (string, error) {
	var body bytes.Buffer
	if err := markdownRenderer.Convert([]byte(Markdown(o, precision)), &body); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(outcomeTitle(o)))
	b.WriteString("</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

func outcomeTitle(o *models.RankingOutcome) string {
	if o.Name != "" {
		return o.Name
	}
	return "TOPSIS ranking"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
