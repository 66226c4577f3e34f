// Package statistics measures how stable a TOPSIS ranking is when the
// criterion weights move.
package statistics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync/atomic"

	"github.com/spboyer/topsis/internal/models"
	"github.com/spboyer/topsis/internal/topsis"
	"golang.org/x/sync/errgroup"
)

// Defaults for Options fields left at zero.
const (
	DefaultIterations      = 1000
	DefaultSpread          = 0.2
	DefaultWorkers         = 4
	DefaultConfidenceLevel = 0.95
)

// MaxIterations bounds Options.Iterations. Every iteration keeps its weights,
// ranks and scores in memory until the report is built.
const MaxIterations = 100_000

// ErrInvalidOptions is wrapped by errors for out-of-range Options.
var ErrInvalidOptions = errors.New("statistics: invalid options")

// Options controls a sensitivity run.
type Options struct {
	// Iterations is the number of perturbed rankings, at most
	// MaxIterations.
	Iterations int
	// Spread scales each weight by a factor drawn uniformly from
	// [1-Spread, 1+Spread]. Must be in [0, 1).
	Spread float64
	// Seed makes a run reproducible. A negative seed uses a
	// non-deterministic source.
	Seed int64
	// Workers bounds the number of concurrent rankings.
	Workers int
	// ConfidenceLevel of the score interval, in (0, 1).
	ConfidenceLevel float64
	// Progress, if set, is called after each iteration from the worker
	// goroutines.
	Progress func(done, total int)
}

func (o Options) withDefaults() Options {
	if o.Iterations == 0 {
		o.Iterations = DefaultIterations
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.ConfidenceLevel <= 0 || o.ConfidenceLevel >= 1 {
		o.ConfidenceLevel = DefaultConfidenceLevel
	}
	return o
}

// Interval is a percentile interval over the perturbed scores.
type Interval struct {
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	Mean            float64 `json:"mean"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

// AlternativeSensitivity summarizes one alternative across all iterations.
type AlternativeSensitivity struct {
	Alternative string  `json:"alternative"`
	BaseRank    int     `json:"base_rank"`
	BaseScore   float64 `json:"base_score"`
	MeanRank    float64 `json:"mean_rank"`
	MinRank     int     `json:"min_rank"`
	MaxRank     int     `json:"max_rank"`
	// TopShare is the fraction of iterations ranking the alternative first.
	TopShare float64 `json:"top_share"`
	// StableShare is the fraction of iterations keeping its base rank.
	StableShare float64  `json:"stable_share"`
	Score       Interval `json:"score"`
}

// Report is the result of WeightSensitivity. Alternatives are in base
// ranking order.
type Report struct {
	Name         string                   `json:"name,omitempty"`
	Iterations   int                      `json:"iterations"`
	Spread       float64                  `json:"spread"`
	Seed         int64                    `json:"seed"`
	BaseWeights  []float64                `json:"base_weights"`
	Alternatives []AlternativeSensitivity `json:"alternatives"`
}

// WeightSensitivity ranks p once with its resolved weights and then
// Iterations more times with randomly perturbed weights. The perturbations
// are drawn up front from a single source, so a fixed seed gives the same
// report for any worker count.
func WeightSensitivity(ctx context.Context, p *models.Problem, opts Options) (*Report, error) {
	opts = opts.withDefaults()
	if opts.Iterations < 0 || opts.Iterations > MaxIterations {
		return nil, fmt.Errorf("%w: iterations must be in [1, %d], got %d", ErrInvalidOptions, MaxIterations, opts.Iterations)
	}
	if opts.Spread < 0 || opts.Spread >= 1 || math.IsNaN(opts.Spread) {
		return nil, fmt.Errorf("%w: spread must be in [0, 1), got %g", ErrInvalidOptions, opts.Spread)
	}

	base, err := p.Rank()
	if err != nil {
		return nil, err
	}
	weights, err := p.ResolvedWeights()
	if err != nil {
		return nil, err
	}
	dirs, err := p.Directions()
	if err != nil {
		return nil, err
	}

	var rng *rand.Rand
	if opts.Seed >= 0 {
		rng = rand.New(rand.NewSource(opts.Seed))
	} else {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	perturbed := make([][]float64, opts.Iterations)
	for it := range perturbed {
		w := make([]float64, len(weights))
		for j, w0 := range weights {
			w[j] = w0 * (1 - opts.Spread + 2*opts.Spread*rng.Float64())
		}
		perturbed[it] = w
	}

	n := len(p.Alternatives)
	ranks := make([][]int, opts.Iterations)
	scores := make([][]float64, opts.Iterations)

	var completed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for it := range perturbed {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results, err := topsis.ComputeRanking(p.Matrix, perturbed[it], dirs, p.Alternatives)
			if err != nil {
				return fmt.Errorf("iteration %d: %w", it, err)
			}
			r := make([]int, n)
			s := make([]float64, n)
			for _, res := range results {
				r[res.Index] = res.Rank
				s[res.Index] = res.Score
			}
			ranks[it] = r
			scores[it] = s
			if opts.Progress != nil {
				opts.Progress(int(completed.Add(1)), opts.Iterations)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		Name:         p.Name,
		Iterations:   opts.Iterations,
		Spread:       opts.Spread,
		Seed:         opts.Seed,
		BaseWeights:  weights,
		Alternatives: make([]AlternativeSensitivity, len(base)),
	}
	iters := float64(opts.Iterations)
	for k, b := range base {
		i := b.Index
		a := AlternativeSensitivity{
			Alternative: b.Label,
			BaseRank:    b.Rank,
			BaseScore:   b.Score,
			MinRank:     n,
			MaxRank:     1,
		}
		sample := make([]float64, opts.Iterations)
		var rankSum, top, stable int
		for it := range ranks {
			r := ranks[it][i]
			rankSum += r
			a.MinRank = min(a.MinRank, r)
			a.MaxRank = max(a.MaxRank, r)
			if r == 1 {
				top++
			}
			if r == b.Rank {
				stable++
			}
			sample[it] = scores[it][i]
		}
		a.MeanRank = float64(rankSum) / iters
		a.TopShare = float64(top) / iters
		a.StableShare = float64(stable) / iters
		a.Score = percentileInterval(sample, opts.ConfidenceLevel)
		report.Alternatives[k] = a
	}
	return report, nil
}

// percentileInterval sorts values in place and returns the central interval
// holding the given fraction of them.
func percentileInterval(values []float64, level float64) Interval {
	n := len(values)
	if n == 0 {
		return Interval{ConfidenceLevel: level}
	}
	m := mean(values)
	sort.Float64s(values)

	alpha := 1.0 - level
	lo := int(math.Floor(alpha / 2.0 * float64(n)))
	hi := int(math.Floor((1.0 - alpha/2.0) * float64(n)))
	if hi >= n {
		hi = n - 1
	}
	return Interval{
		Lower:           values[lo],
		Upper:           values[hi],
		Mean:            m,
		ConfidenceLevel: level,
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
