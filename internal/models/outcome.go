package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spboyer/topsis/internal/topsis"
)

// RankedAlternative is one row of a ranking.
type RankedAlternative struct {
	Rank        int     `json:"rank"`
	Alternative string  `json:"alternative"`
	Score       float64 `json:"score"`
	// Index is the alternative's row in Problem.Matrix.
	Index int `json:"index"`
}

// RankingOutcome is a ranking together with the inputs that produced it.
type RankingOutcome struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Timestamp time.Time           `json:"timestamp"`
	Weighting WeightingMethod     `json:"weighting"`
	Weights   []float64           `json:"weights"`
	Problem   *Problem            `json:"problem"`
	Results   []RankedAlternative `json:"results"`
}

// NewOutcome wraps engine results. weights are the weights actually used,
// which differ from the criteria weights under entropy weighting.
func NewOutcome(p *Problem, weights []float64, results []topsis.Result, now time.Time) *RankingOutcome {
	method, err := ParseWeightingMethod(string(p.Weighting))
	if err != nil {
		method = p.Weighting
	}
	o := &RankingOutcome{
		ID:        OutcomeID(p, now),
		Name:      p.Name,
		Timestamp: now.UTC(),
		Weighting: method,
		Weights:   append([]float64(nil), weights...),
		Problem:   p,
		Results:   make([]RankedAlternative, len(results)),
	}
	for i, r := range results {
		o.Results[i] = RankedAlternative{
			Rank:        r.Rank,
			Alternative: r.Label,
			Score:       r.Score,
			Index:       r.Index,
		}
	}
	return o
}

// RankProblem ranks p and wraps the result in an outcome.
func RankProblem(p *Problem, now time.Time) (*RankingOutcome, error) {
	results, err := p.Rank()
	if err != nil {
		return nil, err
	}
	// Rank already validated the weights, so this cannot fail.
	weights, _ := p.ResolvedWeights()
	return NewOutcome(p, weights, results, now), nil
}

// Best returns the top-ranked alternative, or nil for an empty outcome.
func (o *RankingOutcome) Best() *RankedAlternative {
	if len(o.Results) == 0 {
		return nil
	}
	return &o.Results[0]
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// OutcomeID builds a file-name-safe identifier from the problem name, the
// time and a short hash of the problem, so different problems ranked in the
// same second never share an ID. The same problem at the same time always
// gets the same ID.
func OutcomeID(p *Problem, t time.Time) string {
	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(p.Name), "-"), "-")
	if slug == "" {
		slug = "ranking"
	}
	return fmt.Sprintf("%s-%s-%s", slug, t.UTC().Format("20060102T150405Z"), problemDigest(p))
}

// problemDigest is the first 8 hex digits of the SHA-256 of the problem JSON.
func problemDigest(p *Problem) string {
	data, err := json.Marshal(p)
	if err != nil {
		// Only non-finite values fail to encode, and those never rank.
		data = []byte(fmt.Sprintf("%v", *p))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:4])
}

// LoadOutcome reads an outcome JSON file.
func LoadOutcome(path string) (*RankingOutcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var o RankingOutcome
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &o, nil
}

// SaveOutcome writes o as indented JSON, creating parent directories.
func (o *RankingOutcome) SaveOutcome(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write outcome: %w", err)
	}
	return nil
}
