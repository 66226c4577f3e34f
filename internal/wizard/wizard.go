// Package wizard collects a decision problem interactively.
package wizard

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spboyer/topsis/internal/models"
	"github.com/spboyer/topsis/internal/topsis"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Defaults offered in the first step, matching models.DefaultProblem.
const (
	DefaultAlternatives = "A1, A2"
	DefaultCriteria     = "C1, C2, C3"
)

// RunProblemWizard walks through three steps: names and weighting method,
// one weight and type per criterion, then one row of values per
// alternative. If initialName is non-empty, it pre-populates the name field.
// Numbers are validated as they are entered and never coerced.
func RunProblemWizard(in io.Reader, out io.Writer, initialName string) (*models.Problem, error) {
	var (
		name            = initialName
		alternativesRaw = DefaultAlternatives
		criteriaRaw     = DefaultCriteria
		weighting       = string(models.WeightingManual)
	)

	err := runForm(in, out, huh.NewGroup(
		huh.NewInput().
			Title("Problem name").
			Placeholder("Phone purchase").
			Value(&name),
		huh.NewInput().
			Title("Alternatives").
			Description("Comma-separated names of the options being ranked").
			Value(&alternativesRaw).
			Validate(validateNames("alternative")),
		huh.NewInput().
			Title("Criteria").
			Description("Comma-separated names of the criteria").
			Value(&criteriaRaw).
			Validate(validateNames("criterion")),
		huh.NewSelect[string]().
			Title("Weighting").
			Options(
				huh.NewOption("manual (enter a weight per criterion)", string(models.WeightingManual)),
				huh.NewOption("entropy (derive weights from the data)", string(models.WeightingEntropy)),
			).
			Value(&weighting),
	))
	if err != nil {
		return nil, err
	}

	p := models.NewProblem(splitAndTrim(alternativesRaw), splitAndTrim(criteriaRaw))
	p.Name = strings.TrimSpace(name)
	p.Weighting = models.WeightingMethod(weighting)

	weights := make([]string, len(p.Criteria))
	types := make([]string, len(p.Criteria))
	var fields []huh.Field
	for j, c := range p.Criteria {
		weights[j] = strconv.FormatFloat(models.DefaultCriterionWeight, 'g', -1, 64)
		types[j] = string(models.DefaultCriterionType)
		if p.Weighting == models.WeightingManual {
			fields = append(fields, huh.NewInput().
				Title(fmt.Sprintf("Weight of %s", c.Name)).
				Value(&weights[j]).
				Validate(func(s string) error {
					_, err := parseWeight(s)
					return err
				}))
		}
		fields = append(fields, huh.NewSelect[string]().
			Title(fmt.Sprintf("Type of %s", c.Name)).
			Options(
				huh.NewOption("benefit (higher is better)", string(topsis.Benefit)),
				huh.NewOption("cost (lower is better)", string(topsis.Cost)),
			).
			Value(&types[j]))
	}
	if err := runForm(in, out, huh.NewGroup(fields...)); err != nil {
		return nil, err
	}
	for j := range p.Criteria {
		w, err := parseWeight(weights[j])
		if err != nil {
			return nil, err
		}
		p.Criteria[j].Weight = w
		p.Criteria[j].Type = topsis.Direction(types[j])
	}

	rows := make([]string, len(p.Alternatives))
	fields = nil
	columns := strings.Join(p.CriterionNames(), ", ")
	for i, a := range p.Alternatives {
		fields = append(fields, huh.NewInput().
			Title(fmt.Sprintf("Values for %s", a)).
			Description(fmt.Sprintf("Comma-separated: %s", columns)).
			Value(&rows[i]).
			Validate(func(s string) error {
				_, err := parseRow(s, len(p.Criteria))
				return err
			}))
	}
	if err := runForm(in, out, huh.NewGroup(fields...)); err != nil {
		return nil, err
	}
	for i := range p.Alternatives {
		row, err := parseRow(rows[i], len(p.Criteria))
		if err != nil {
			return nil, fmt.Errorf("values for %s: %w", p.Alternatives[i], err)
		}
		p.Matrix[i] = row
	}
	return p, nil
}

func runForm(in io.Reader, out io.Writer, group *huh.Group) error {
	form := huh.NewForm(group).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return fmt.Errorf("wizard failed: %w", err)
	}
	return nil
}

// GenerateProblemYAML renders p as a problem file.
func GenerateProblemYAML(p *models.Problem) (string, error) {
	var buf strings.Builder
	buf.WriteString("# TOPSIS decision problem. Rank it with: topsis rank <file>\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("failed to render problem: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to render problem: %w", err)
	}
	return buf.String(), nil
}

func validateNames(kind string) func(string) error {
	return func(s string) error {
		if len(splitAndTrim(s)) == 0 {
			return fmt.Errorf("at least one %s is required", kind)
		}
		return nil
	}
}

func parseWeight(s string) (float64, error) {
	w, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	if w < 0 {
		return 0, fmt.Errorf("weight must not be negative")
	}
	return w, nil
}

func parseRow(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(parts))
	}
	row := make([]float64, n)
	for j, part := range parts {
		v, err := parseNumber(part)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", j+1, err)
		}
		row[j] = v
	}
	return row, nil
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("a number is required")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
