package topsis

import "math"

const entropyEpsilon = 1e-12

// EntropyWeights derives objective criterion weights from the dispersion of
// each column (Shannon entropy method). Columns whose values vary more across
// alternatives carry more information and receive more weight. The returned
// weights sum to 1.
//
// The matrix needs at least two rows and non-negative values. A column that
// sums to zero yields *DegenerateColumnError. When no column carries any
// information (every column is constant) the weights are uniform.
func EntropyWeights(matrix [][]float64) ([]float64, error) {
	if len(matrix) == 0 {
		return nil, invalidf("matrix", "must have at least one row")
	}
	rows, cols := len(matrix), len(matrix[0])
	if rows < 2 {
		return nil, invalidf("matrix", "entropy weighting needs at least two alternatives")
	}
	if cols == 0 {
		return nil, invalidf("matrix", "must have at least one column")
	}
	for i, row := range matrix {
		if len(row) != cols {
			return nil, invalidf("matrix", "row %d has %d values, expected %d", i, len(row), cols)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, invalidf("matrix", "value at row %d, column %d is not a finite number", i, j)
			}
			if v < 0 {
				return nil, invalidf("matrix", "entropy weighting needs non-negative values, got %g at row %d, column %d", v, i, j)
			}
		}
	}

	k := 1 / math.Log(float64(rows))
	divergence := make([]float64, cols)
	total := 0.0
	for j := 0; j < cols; j++ {
		sum := 0.0
		for i := 0; i < rows; i++ {
			sum += matrix[i][j]
		}
		if sum == 0 {
			return nil, &DegenerateColumnError{Column: j}
		}

		entropy := 0.0
		for i := 0; i < rows; i++ {
			p := matrix[i][j] / sum
			if p > 0 {
				entropy -= p * math.Log(p)
			}
		}
		// a constant column has entropy 1 up to rounding
		if d := 1 - k*entropy; d > entropyEpsilon {
			divergence[j] = d
			total += d
		}
	}

	weights := make([]float64, cols)
	for j := range weights {
		if total == 0 {
			weights[j] = 1 / float64(cols)
		} else {
			weights[j] = divergence[j] / total
		}
	}
	return weights, nil
}
