package models

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spboyer/topsis/internal/topsis"
	"gopkg.in/yaml.v3"
)

// WeightingMethod selects where criterion weights come from.
type WeightingMethod string

const (
	// WeightingManual uses the weight given on each criterion.
	WeightingManual WeightingMethod = "manual"
	// WeightingEntropy derives weights from the decision matrix and ignores
	// the per-criterion weights.
	WeightingEntropy WeightingMethod = "entropy"
)

// ParseWeightingMethod parses a weighting method name. An empty string means
// manual weighting.
func ParseWeightingMethod(s string) (WeightingMethod, error) {
	switch WeightingMethod(strings.ToLower(strings.TrimSpace(s))) {
	case "", WeightingManual:
		return WeightingManual, nil
	case WeightingEntropy:
		return WeightingEntropy, nil
	}
	return "", fmt.Errorf("unknown weighting method %q: must be manual or entropy", s)
}

// Criterion is a named column of the decision matrix.
type Criterion struct {
	Name   string           `yaml:"name" json:"name" mapstructure:"name"`
	Weight float64          `yaml:"weight" json:"weight" mapstructure:"weight"`
	Type   topsis.Direction `yaml:"type" json:"type" mapstructure:"type"`
}

// Problem is a complete multi-criteria decision problem: the alternatives,
// the criteria they are judged on and the decision matrix.
type Problem struct {
	Name         string          `yaml:"name,omitempty" json:"name,omitempty" mapstructure:"name"`
	Description  string          `yaml:"description,omitempty" json:"description,omitempty" mapstructure:"description"`
	Weighting    WeightingMethod `yaml:"weighting,omitempty" json:"weighting,omitempty" mapstructure:"weighting"`
	Alternatives []string        `yaml:"alternatives" json:"alternatives" mapstructure:"alternatives"`
	Criteria     []Criterion     `yaml:"criteria" json:"criteria" mapstructure:"criteria"`
	Matrix       [][]float64     `yaml:"matrix,flow" json:"matrix" mapstructure:"matrix"`
}

// Defaults for newly created problems.
const (
	DefaultCriterionWeight = 1.0
	DefaultCriterionType   = topsis.Benefit
)

// NewProblem returns a problem with a zero-filled matrix for the given
// alternatives and criteria. Every criterion gets weight 1 and type benefit.
func NewProblem(alternatives, criteria []string) *Problem {
	p := &Problem{
		Weighting:    WeightingManual,
		Alternatives: append([]string(nil), alternatives...),
		Criteria:     make([]Criterion, len(criteria)),
		Matrix:       make([][]float64, len(alternatives)),
	}
	for j, name := range criteria {
		p.Criteria[j] = Criterion{Name: name, Weight: DefaultCriterionWeight, Type: DefaultCriterionType}
	}
	for i := range p.Matrix {
		p.Matrix[i] = make([]float64, len(criteria))
	}
	return p
}

// DefaultProblem is the starting template: two alternatives, three criteria.
func DefaultProblem() *Problem {
	return NewProblem([]string{"A1", "A2"}, []string{"C1", "C2", "C3"})
}

// LoadProblem reads a YAML or JSON problem file.
func LoadProblem(path string) (*Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := ParseProblem(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return p, nil
}

// ParseProblem decodes a YAML or JSON problem document. Unknown keys and
// values of the wrong type are errors; nothing is coerced.
func ParseProblem(data []byte) (*Problem, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("problem must be a mapping, got %T", doc)
	}
	return DecodeProblem(m)
}

// DecodeProblem maps a generic document (as produced by a YAML or JSON
// decoder) onto a Problem.
func DecodeProblem(doc map[string]any) (*Problem, error) {
	var p Problem
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &p,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(doc); err != nil {
		return nil, err
	}
	return &p, nil
}

// Labels returns the alternative names.
func (p *Problem) Labels() []string {
	return p.Alternatives
}

// CriterionNames returns the criterion names in column order.
func (p *Problem) CriterionNames() []string {
	names := make([]string, len(p.Criteria))
	for j, c := range p.Criteria {
		names[j] = c.Name
	}
	return names
}

// Directions parses the type of every criterion.
func (p *Problem) Directions() ([]topsis.Direction, error) {
	dirs := make([]topsis.Direction, len(p.Criteria))
	for j, c := range p.Criteria {
		d, err := topsis.ParseDirection(string(c.Type))
		if err != nil {
			return nil, &topsis.InvalidInputError{Field: "criteria", Reason: fmt.Sprintf("criterion %q: %v", c.Name, err)}
		}
		dirs[j] = d
	}
	return dirs, nil
}

// ResolvedWeights returns the weights the ranking uses: the criteria weights
// for manual weighting, or entropy weights computed from the matrix.
func (p *Problem) ResolvedWeights() ([]float64, error) {
	method, err := ParseWeightingMethod(string(p.Weighting))
	if err != nil {
		return nil, &topsis.InvalidInputError{Field: "weighting", Reason: err.Error()}
	}
	if method == WeightingEntropy {
		return topsis.EntropyWeights(p.Matrix)
	}
	weights := make([]float64, len(p.Criteria))
	for j, c := range p.Criteria {
		weights[j] = c.Weight
	}
	return weights, nil
}

// Validate checks the problem's names and shape, the engine's preconditions
// and that every column can be normalized. All failures are
// *topsis.InvalidInputError or *topsis.DegenerateColumnError.
func (p *Problem) Validate() error {
	_, err := p.Analyze()
	return err
}

// Rank runs TOPSIS on the problem.
func (p *Problem) Rank() ([]topsis.Result, error) {
	weights, dirs, err := p.inputs()
	if err != nil {
		return nil, err
	}
	return topsis.ComputeRanking(p.Matrix, weights, dirs, p.Alternatives)
}

// Analyze runs TOPSIS on the problem and keeps the intermediate steps.
func (p *Problem) Analyze() (*topsis.Analysis, error) {
	weights, dirs, err := p.inputs()
	if err != nil {
		return nil, err
	}
	return topsis.Analyze(p.Matrix, weights, dirs, p.Alternatives)
}

func (p *Problem) inputs() ([]float64, []topsis.Direction, error) {
	if len(p.Alternatives) == 0 {
		return nil, nil, &topsis.InvalidInputError{Field: "alternatives", Reason: "at least one alternative is required"}
	}
	for i, a := range p.Alternatives {
		if strings.TrimSpace(a) == "" {
			return nil, nil, &topsis.InvalidInputError{Field: "alternatives", Reason: fmt.Sprintf("alternative %d has an empty name", i)}
		}
	}
	if len(p.Criteria) == 0 {
		return nil, nil, &topsis.InvalidInputError{Field: "criteria", Reason: "at least one criterion is required"}
	}
	for j, c := range p.Criteria {
		if strings.TrimSpace(c.Name) == "" {
			return nil, nil, &topsis.InvalidInputError{Field: "criteria", Reason: fmt.Sprintf("criterion %d has an empty name", j)}
		}
	}
	if len(p.Matrix) != len(p.Alternatives) {
		return nil, nil, &topsis.InvalidInputError{
			Field:  "matrix",
			Reason: fmt.Sprintf("has %d rows for %d alternatives", len(p.Matrix), len(p.Alternatives)),
		}
	}
	for i, row := range p.Matrix {
		if len(row) != len(p.Criteria) {
			return nil, nil, &topsis.InvalidInputError{
				Field:  "matrix",
				Reason: fmt.Sprintf("row %q has %d values for %d criteria", p.Alternatives[i], len(row), len(p.Criteria)),
			}
		}
	}

	dirs, err := p.Directions()
	if err != nil {
		return nil, nil, err
	}
	weights, err := p.ResolvedWeights()
	if err != nil {
		return nil, nil, err
	}
	if err := topsis.Validate(p.Matrix, weights, dirs, p.Alternatives); err != nil {
		return nil, nil, err
	}
	return weights, dirs, nil
}
