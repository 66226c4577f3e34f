package topsis

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func phoneMatrix() ([][]float64, []float64, []Direction, []string) {
	matrix := [][]float64{
		{250, 16, 12, 5},
		{200, 16, 8, 3},
		{300, 32, 16, 4},
	}
	weights := []float64{0.25, 0.25, 0.25, 0.25}
	directions := []Direction{Cost, Benefit, Benefit, Benefit}
	labels := []string{"A1", "A2", "A3"}
	return matrix, weights, directions, labels
}

func TestComputeRanking_GoldenExample(t *testing.T) {
	matrix, weights, directions, labels := phoneMatrix()

	results, err := ComputeRanking(matrix, weights, directions, labels)
	require.NoError(t, err)
	require.Len(t, results, 3)

	expected := []struct {
		label string
		score float64
		index int
	}{
		{"A3", 0.679901920846948, 2},
		{"A1", 0.43551930488029517, 0},
		{"A2", 0.2687494104861548, 1},
	}
	for i, want := range expected {
		assert.Equal(t, want.label, results[i].Label)
		assert.InDelta(t, want.score, results[i].Score, tolerance, want.label)
		assert.Equal(t, i+1, results[i].Rank)
		assert.Equal(t, want.index, results[i].Index)
	}
}

func TestAnalyze_IntermediateSteps(t *testing.T) {
	matrix, weights, directions, labels := phoneMatrix()

	a, err := Analyze(matrix, weights, directions, labels)
	require.NoError(t, err)

	assert.InDelta(t, 438.7482193696061, a.Norms[0], tolerance)
	assert.InDelta(t, 39.191835884530846, a.Norms[1], tolerance)
	assert.InDelta(t, 21.540659228538015, a.Norms[2], tolerance)
	assert.InDelta(t, math.Sqrt(50), a.Norms[3], tolerance)

	// cost column: the positive ideal is the smallest weighted value
	assert.InDelta(t, a.Weighted[1][0], a.PositiveIdeal[0], tolerance)
	assert.InDelta(t, a.Weighted[2][0], a.NegativeIdeal[0], tolerance)
	// benefit column: the positive ideal is the largest weighted value
	assert.InDelta(t, a.Weighted[2][1], a.PositiveIdeal[1], tolerance)
	assert.InDelta(t, a.Weighted[0][1], a.NegativeIdeal[1], tolerance)

	assert.InDelta(t, 0.11568719631898806, a.PositiveDistances[0], tolerance)
	assert.InDelta(t, 0.08925727267557201, a.NegativeDistances[0], tolerance)
	assert.InDelta(t, 0.06705783508847603, a.PositiveDistances[2], tolerance)
	assert.InDelta(t, 0.1424336909647401, a.NegativeDistances[2], tolerance)

	// per-row scores stay in input order
	assert.InDelta(t, 0.43551930488029517, a.Scores[0], tolerance)
	assert.InDelta(t, 0.2687494104861548, a.Scores[1], tolerance)
	assert.InDelta(t, 0.679901920846948, a.Scores[2], tolerance)
	assert.Equal(t, "A3", a.Ranking[0].Label)
}

func TestAnalyze_NormalizedColumnsHaveUnitLength(t *testing.T) {
	tests := []struct {
		name   string
		matrix [][]float64
	}{
		{"ordinary", [][]float64{
			{7, -3, 0.5},
			{1, 4, 2.25},
			{9, 0, 10},
			{2, -8, 3},
		}},
		{"tiny values", [][]float64{{1e-170, 3e-300}, {2e-170, 4e-300}}},
		{"huge values", [][]float64{{1e200, 1e300}, {2e200, -3e300}}},
		{"mixed magnitudes", [][]float64{{1e-200, 1e200}, {1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := len(tt.matrix[0])
			weights := make([]float64, cols)
			directions := make([]Direction, cols)
			for j := range weights {
				weights[j] = float64(j + 1)
				directions[j] = Benefit
			}
			labels := make([]string, len(tt.matrix))
			for i := range labels {
				labels[i] = string(rune('a' + i))
			}

			a, err := Analyze(tt.matrix, weights, directions, labels)
			require.NoError(t, err)

			for j := 0; j < cols; j++ {
				assert.False(t, math.IsInf(a.Norms[j], 0) || a.Norms[j] == 0, "column %d norm %g", j, a.Norms[j])
				sum := 0.0
				for i := range tt.matrix {
					sum += a.Normalized[i][j] * a.Normalized[i][j]
				}
				assert.InDelta(t, 1.0, sum, tolerance, "column %d", j)
			}
		})
	}
}

func TestComputeRanking_HugeWeightsKeepFiniteScores(t *testing.T) {
	matrix := [][]float64{{1, 2}, {2, 1}, {3, 3}}
	directions := []Direction{Benefit, Benefit}
	labels := []string{"a", "b", "c"}

	want, err := ComputeRanking(matrix, []float64{1, 1}, directions, labels)
	require.NoError(t, err)

	for _, w := range []float64{1e200, 1e-200} {
		got, err := ComputeRanking(matrix, []float64{w, w}, directions, labels)
		require.NoError(t, err, "weight %g", w)
		require.Len(t, got, len(want))
		for i := range got {
			assert.False(t, math.IsNaN(got[i].Score) || math.IsInf(got[i].Score, 0), "weight %g: score %v", w, got[i].Score)
			assert.Equal(t, want[i].Label, got[i].Label, "weight %g", w)
			assert.InDelta(t, want[i].Score, got[i].Score, tolerance, "weight %g", w)
		}
	}

	a, err := Analyze(matrix, []float64{1e200, 1e200}, directions, labels)
	require.NoError(t, err)
	for i := range matrix {
		assert.False(t, math.IsInf(a.PositiveDistances[i], 0))
		assert.False(t, math.IsInf(a.NegativeDistances[i], 0))
	}
}

func TestComputeRanking_DisparateWeights(t *testing.T) {
	matrix := [][]float64{{1, 9}, {2, 1}}
	results, err := ComputeRanking(matrix, []float64{1e300, 1e-300}, []Direction{Benefit, Benefit}, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "b", results[0].Label)
	assert.Equal(t, 1.0, results[0].Score)
}

func TestAnalyze_OutOfRangeMagnitudesAreInvalidInput(t *testing.T) {
	huge := math.MaxFloat64

	_, err := Analyze([][]float64{{huge}, {huge}}, []float64{1}, []Direction{Benefit}, []string{"a", "b"})
	var invalid *InvalidInputError
	require.True(t, errors.As(err, &invalid), "got %v", err)
	assert.Equal(t, "matrix", invalid.Field)

	_, err = Analyze([][]float64{{1, -1}, {-1, 1}}, []float64{huge, huge}, []Direction{Benefit, Benefit}, []string{"a", "b"})
	require.True(t, errors.As(err, &invalid), "got %v", err)
	assert.Equal(t, "weights", invalid.Field)
}

func TestComputeRanking_TinyColumnIsNotDegenerate(t *testing.T) {
	matrix := [][]float64{{1e-170, 1}, {2e-170, 1}}
	results, err := ComputeRanking(matrix, []float64{1, 1}, []Direction{Benefit, Benefit}, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "b", results[0].Label)
}

func TestComputeRanking_ScoresInUnitIntervalAndRanksArePermutation(t *testing.T) {
	matrix := [][]float64{
		{12, 0.4, 300, 7},
		{15, 0.2, 280, 9},
		{9, 0.9, 410, 3},
		{11, 0.5, 350, 6},
		{14, 0.1, 390, 8},
	}
	weights := []float64{3, 1, 0.5, 2}
	directions := []Direction{Benefit, Cost, Cost, Benefit}
	labels := []string{"a", "b", "c", "d", "e"}

	results, err := ComputeRanking(matrix, weights, directions, labels)
	require.NoError(t, err)
	require.Len(t, results, len(matrix))

	seenRanks := make(map[int]bool)
	seenIndexes := make(map[int]bool)
	for i, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
		assert.Equal(t, i+1, r.Rank)
		seenRanks[r.Rank] = true
		seenIndexes[r.Index] = true
		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].Score, r.Score)
		}
	}
	assert.Len(t, seenRanks, len(matrix))
	assert.Len(t, seenIndexes, len(matrix))
}

func TestComputeRanking_Direction(t *testing.T) {
	matrix := [][]float64{{1}, {2}}
	labels := []string{"low", "high"}

	tests := []struct {
		name      string
		direction Direction
		wantFirst string
	}{
		{"benefit prefers larger", Benefit, "high"},
		{"cost prefers smaller", Cost, "low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := ComputeRanking(matrix, []float64{1}, []Direction{tt.direction}, labels)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFirst, results[0].Label)
			assert.Equal(t, 1.0, results[0].Score)
			assert.Equal(t, 0.0, results[1].Score)
		})
	}
}

func TestComputeRanking_StableTies(t *testing.T) {
	matrix := [][]float64{
		{1, 2},
		{3, 4},
		{1, 2},
		{1, 2},
	}
	labels := []string{"first", "best", "second", "third"}

	results, err := ComputeRanking(matrix, []float64{1, 1}, []Direction{Benefit, Benefit}, labels)
	require.NoError(t, err)

	assert.Equal(t, "best", results[0].Label)
	assert.Equal(t, []string{"first", "second", "third"}, []string{results[1].Label, results[2].Label, results[3].Label})
	assert.Equal(t, results[1].Score, results[2].Score)
	assert.Equal(t, results[2].Score, results[3].Score)
	assert.Equal(t, []int{2, 3, 4}, []int{results[1].Rank, results[2].Rank, results[3].Rank})
}

func TestComputeRanking_SingleAlternativeScoresTieScore(t *testing.T) {
	results, err := ComputeRanking([][]float64{{3, 4, 5}}, []float64{1, 1, 1}, []Direction{Benefit, Cost, Benefit}, []string{"only"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, TieScore, results[0].Score)
	assert.Equal(t, 1, results[0].Rank)
	assert.False(t, math.IsNaN(results[0].Score))
}

func TestComputeRanking_IdenticalAlternativesScoreTieScore(t *testing.T) {
	matrix := [][]float64{{2, 5}, {2, 5}, {2, 5}}
	results, err := ComputeRanking(matrix, []float64{1, 1}, []Direction{Benefit, Cost}, []string{"x", "y", "z"})
	require.NoError(t, err)
	for i, r := range results {
		assert.Equal(t, TieScore, r.Score)
		assert.Equal(t, i, r.Index)
	}
}

func TestComputeRanking_Idempotent(t *testing.T) {
	matrix, weights, directions, labels := phoneMatrix()

	first, err := ComputeRanking(matrix, weights, directions, labels)
	require.NoError(t, err)
	second, err := ComputeRanking(matrix, weights, directions, labels)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, math.Float64bits(first[i].Score), math.Float64bits(second[i].Score))
		assert.Equal(t, first[i], second[i])
	}
}

func TestComputeRanking_DoesNotModifyInput(t *testing.T) {
	matrix, weights, directions, labels := phoneMatrix()
	wantMatrix, _, _, _ := phoneMatrix()

	_, err := ComputeRanking(matrix, weights, directions, labels)
	require.NoError(t, err)

	assert.Equal(t, wantMatrix, matrix)
	assert.Equal(t, []float64{0.25, 0.25, 0.25, 0.25}, weights)
	assert.Equal(t, []string{"A1", "A2", "A3"}, labels)
}

func TestComputeRanking_ZeroColumnIsDegenerate(t *testing.T) {
	matrix := [][]float64{
		{1, 0, 3},
		{4, 0, 6},
	}
	results, err := ComputeRanking(matrix, []float64{1, 1, 1}, []Direction{Benefit, Benefit, Cost}, []string{"a", "b"})
	require.Error(t, err)
	assert.Nil(t, results)

	var degenerate *DegenerateColumnError
	require.True(t, errors.As(err, &degenerate))
	assert.Equal(t, 1, degenerate.Column)
	assert.ErrorIs(t, err, ErrDegenerateColumn)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}

func TestComputeRanking_ZeroWeightZeroColumnIsStillDegenerate(t *testing.T) {
	matrix := [][]float64{{0, 1}, {0, 2}}
	_, err := ComputeRanking(matrix, []float64{0, 1}, []Direction{Benefit, Benefit}, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrDegenerateColumn)
}

func TestValidate(t *testing.T) {
	good := [][]float64{{1, 2}, {3, 4}}
	goodWeights := []float64{1, 1}
	goodDirections := []Direction{Benefit, Cost}
	goodLabels := []string{"a", "b"}

	tests := []struct {
		name       string
		matrix     [][]float64
		weights    []float64
		directions []Direction
		labels     []string
		wantField  string
		wantReason string
	}{
		{
			name:       "empty matrix",
			matrix:     [][]float64{},
			weights:    goodWeights,
			directions: goodDirections,
			labels:     goodLabels,
			wantField:  "matrix",
			wantReason: "at least one row",
		},
		{
			name:       "no columns",
			matrix:     [][]float64{{}},
			weights:    nil,
			directions: nil,
			labels:     []string{"a"},
			wantField:  "matrix",
			wantReason: "at least one column",
		},
		{
			name:       "ragged rows",
			matrix:     [][]float64{{1, 2}, {3}},
			weights:    goodWeights,
			directions: goodDirections,
			labels:     goodLabels,
			wantField:  "matrix",
			wantReason: "row 1 has 1 values, expected 2",
		},
		{
			name:       "NaN value",
			matrix:     [][]float64{{1, math.NaN()}, {3, 4}},
			weights:    goodWeights,
			directions: goodDirections,
			labels:     goodLabels,
			wantField:  "matrix",
			wantReason: "not a finite number",
		},
		{
			name:       "infinite value",
			matrix:     [][]float64{{1, 2}, {math.Inf(1), 4}},
			weights:    goodWeights,
			directions: goodDirections,
			labels:     goodLabels,
			wantField:  "matrix",
			wantReason: "not a finite number",
		},
		{
			name:       "weight count mismatch",
			matrix:     good,
			weights:    []float64{1},
			directions: goodDirections,
			labels:     goodLabels,
			wantField:  "weights",
			wantReason: "got 1 weights for 2 criteria",
		},
		{
			name:       "direction count mismatch",
			matrix:     good,
			weights:    goodWeights,
			directions: []Direction{Benefit, Benefit, Cost},
			labels:     goodLabels,
			wantField:  "directions",
			wantReason: "got 3 directions for 2 criteria",
		},
		{
			name:       "label count mismatch",
			matrix:     good,
			weights:    goodWeights,
			directions: goodDirections,
			labels:     []string{"a"},
			wantField:  "labels",
			wantReason: "got 1 labels for 2 alternatives",
		},
		{
			name:       "negative weight",
			matrix:     good,
			weights:    []float64{1, -0.5},
			directions: goodDirections,
			labels:     goodLabels,
			wantField:  "weights",
			wantReason: "weight 1 is negative",
		},
		{
			name:       "NaN weight",
			matrix:     good,
			weights:    []float64{math.NaN(), 1},
			directions: goodDirections,
			labels:     goodLabels,
			wantField:  "weights",
			wantReason: "not a finite number",
		},
		{
			name:       "all weights zero",
			matrix:     good,
			weights:    []float64{0, 0},
			directions: goodDirections,
			labels:     goodLabels,
			wantField:  "weights",
			wantReason: "at least one weight must be greater than zero",
		},
		{
			name:       "unknown direction",
			matrix:     good,
			weights:    goodWeights,
			directions: []Direction{Benefit, "neutral"},
			labels:     goodLabels,
			wantField:  "directions",
			wantReason: `direction 1 is "neutral"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.matrix, tt.weights, tt.directions, tt.labels)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)

			var invalid *InvalidInputError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.wantField, invalid.Field)
			assert.Contains(t, invalid.Reason, tt.wantReason)

			results, err := ComputeRanking(tt.matrix, tt.weights, tt.directions, tt.labels)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Nil(t, results)
		})
	}

	assert.NoError(t, Validate(good, goodWeights, goodDirections, goodLabels))
}

func TestComputeRanking_DuplicateLabelsAllowed(t *testing.T) {
	results, err := ComputeRanking([][]float64{{1}, {2}}, []float64{1}, []Direction{Benefit}, []string{"same", "same"})
	require.NoError(t, err)
	assert.Equal(t, 1, results[0].Index)
	assert.Equal(t, 0, results[1].Index)
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"benefit", Benefit, false},
		{"Cost", Cost, false},
		{"  BENEFIT ", Benefit, false},
		{"max", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "topsis: invalid weights: weight 0 is negative (-1)",
		(&InvalidInputError{Field: "weights", Reason: "weight 0 is negative (-1)"}).Error())
	assert.Equal(t, "topsis: column 2 has zero norm (all values are zero)",
		(&DegenerateColumnError{Column: 2}).Error())
}
