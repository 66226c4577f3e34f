// Package topsis implements the Technique for Order of Preference by
// Similarity to Ideal Solution with vector normalization.
//
// Every function in this package is pure: inputs are never modified and no
// state is kept between calls, so concurrent use with independent inputs is
// safe.
package topsis

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Direction says whether larger or smaller raw values are preferred for a
// criterion.
type Direction string

const (
	Benefit Direction = "benefit"
	Cost    Direction = "cost"
)

// ParseDirection parses "benefit" or "cost", ignoring case and surrounding
// whitespace.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Benefit:
		return Benefit, nil
	case Cost:
		return Cost, nil
	}
	return "", fmt.Errorf("unknown criterion type %q: must be benefit or cost", s)
}

// TieScore is the preference score assigned to an alternative whose distances
// to both ideal solutions are zero. This only happens when every alternative
// coincides with both ideals, e.g. a single-alternative problem.
const TieScore = 0.5

// Result is one ranked alternative.
type Result struct {
	Label string  `json:"alternative"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`

	// Index is the alternative's 0-based row in the input matrix.
	Index int `json:"index"`
}

// Analysis holds every intermediate step of a TOPSIS run. Per-row slices are
// in input order; Ranking is sorted best first.
type Analysis struct {
	Norms             []float64   `json:"norms"`
	Normalized        [][]float64 `json:"normalized"`
	Weighted          [][]float64 `json:"weighted"`
	PositiveIdeal     []float64   `json:"positive_ideal"`
	NegativeIdeal     []float64   `json:"negative_ideal"`
	PositiveDistances []float64   `json:"positive_distances"`
	NegativeDistances []float64   `json:"negative_distances"`
	Scores            []float64   `json:"scores"`
	Ranking           []Result    `json:"ranking"`
}

// ComputeRanking ranks the alternatives (rows of matrix) against the criteria
// (columns). Results are returned best first; alternatives with equal scores
// keep their input order.
//
// It fails with *InvalidInputError for malformed input and with
// *DegenerateColumnError when a column is entirely zero.
func ComputeRanking(matrix [][]float64, weights []float64, directions []Direction, labels []string) ([]Result, error) {
	a, err := Analyze(matrix, weights, directions, labels)
	if err != nil {
		return nil, err
	}
	return a.Ranking, nil
}

// Analyze runs the same computation as ComputeRanking and keeps every
// intermediate matrix and vector.
func Analyze(matrix [][]float64, weights []float64, directions []Direction, labels []string) (*Analysis, error) {
	if err := Validate(matrix, weights, directions, labels); err != nil {
		return nil, err
	}

	rows, cols := len(matrix), len(matrix[0])
	a := &Analysis{
		Norms:             make([]float64, cols),
		Normalized:        newMatrix(rows, cols),
		Weighted:          newMatrix(rows, cols),
		PositiveIdeal:     make([]float64, cols),
		NegativeIdeal:     make([]float64, cols),
		PositiveDistances: make([]float64, rows),
		NegativeDistances: make([]float64, rows),
		Scores:            make([]float64, rows),
	}

	// Scores are invariant under a common positive scale of the weights.
	// Distances and scores are computed with weights relative to the
	// largest one so that no sum of squares leaves the float64 range.
	wmax := 0.0
	for _, w := range weights {
		wmax = math.Max(wmax, w)
	}
	unit := newMatrix(rows, cols)

	// 1. normalize, 2. weight
	for j := 0; j < cols; j++ {
		m := 0.0
		for i := 0; i < rows; i++ {
			m = math.Max(m, math.Abs(matrix[i][j]))
		}
		if m == 0 {
			return nil, &DegenerateColumnError{Column: j}
		}
		sum := 0.0
		for i := 0; i < rows; i++ {
			x := matrix[i][j] / m
			sum += x * x
		}
		s := math.Sqrt(sum)
		a.Norms[j] = m * s
		if math.IsInf(a.Norms[j], 0) {
			return nil, invalidf("matrix", "column %d is too large to normalize", j)
		}
		rel := weights[j] / wmax
		for i := 0; i < rows; i++ {
			a.Normalized[i][j] = matrix[i][j] / m / s
			a.Weighted[i][j] = a.Normalized[i][j] * weights[j]
			unit[i][j] = a.Normalized[i][j] * rel
		}
	}

	// 3. ideal solutions
	posUnit := make([]float64, cols)
	negUnit := make([]float64, cols)
	for j := 0; j < cols; j++ {
		hi, lo := 0, 0
		for i := 1; i < rows; i++ {
			if a.Normalized[i][j] > a.Normalized[hi][j] {
				hi = i
			}
			if a.Normalized[i][j] < a.Normalized[lo][j] {
				lo = i
			}
		}
		if directions[j] == Cost {
			hi, lo = lo, hi
		}
		a.PositiveIdeal[j], a.NegativeIdeal[j] = a.Weighted[hi][j], a.Weighted[lo][j]
		posUnit[j], negUnit[j] = unit[hi][j], unit[lo][j]
	}

	// 4. distances, 5. preference scores
	for i := 0; i < rows; i++ {
		dPos := distance(unit[i], posUnit)
		dNeg := distance(unit[i], negUnit)
		a.Scores[i] = score(dPos, dNeg)
		a.PositiveDistances[i] = dPos * wmax
		a.NegativeDistances[i] = dNeg * wmax
		if math.IsInf(a.PositiveDistances[i], 0) || math.IsInf(a.NegativeDistances[i], 0) {
			return nil, invalidf("weights", "weights are too large to compute distances")
		}
		if math.IsNaN(a.Scores[i]) || math.IsInf(a.Scores[i], 0) {
			return nil, invalidf("weights", "score of alternative %d is not a finite number", i)
		}
	}

	// 6. rank
	a.Ranking = rank(a.Scores, labels)
	return a, nil
}

// Validate checks the preconditions of ComputeRanking without computing
// anything.
func Validate(matrix [][]float64, weights []float64, directions []Direction, labels []string) error {
	if len(matrix) == 0 {
		return invalidf("matrix", "must have at least one row")
	}
	cols := len(matrix[0])
	if cols == 0 {
		return invalidf("matrix", "must have at least one column")
	}
	for i, row := range matrix {
		if len(row) != cols {
			return invalidf("matrix", "row %d has %d values, expected %d", i, len(row), cols)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return invalidf("matrix", "value at row %d, column %d is not a finite number", i, j)
			}
		}
	}

	if len(weights) != cols {
		return invalidf("weights", "got %d weights for %d criteria", len(weights), cols)
	}
	if len(directions) != cols {
		return invalidf("directions", "got %d directions for %d criteria", len(directions), cols)
	}
	if len(labels) != len(matrix) {
		return invalidf("labels", "got %d labels for %d alternatives", len(labels), len(matrix))
	}

	positive := false
	for j, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return invalidf("weights", "weight %d is not a finite number", j)
		}
		if w < 0 {
			return invalidf("weights", "weight %d is negative (%g)", j, w)
		}
		if w > 0 {
			positive = true
		}
	}
	if !positive {
		return invalidf("weights", "at least one weight must be greater than zero")
	}

	for j, d := range directions {
		if d != Benefit && d != Cost {
			return invalidf("directions", "direction %d is %q, must be benefit or cost", j, d)
		}
	}
	return nil
}

func distance(row, ideal []float64) float64 {
	sum := 0.0
	for j := range row {
		d := row[j] - ideal[j]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func score(dPos, dNeg float64) float64 {
	total := dPos + dNeg
	if total == 0 {
		return TieScore
	}
	return dNeg / total
}

func rank(scores []float64, labels []string) []Result {
	results := make([]Result, len(scores))
	for i, s := range scores {
		results[i] = Result{Label: labels[i], Score: s, Index: i}
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

func newMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}
