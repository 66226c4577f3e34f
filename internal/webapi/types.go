package webapi

import (
	"encoding/json"
	"time"

	"github.com/spboyer/topsis/internal/models"
	"github.com/spboyer/topsis/internal/topsis"
)

// ResultSummary is the API response for a single saved outcome in the list.
type ResultSummary struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Timestamp    time.Time              `json:"timestamp"`
	Weighting    models.WeightingMethod `json:"weighting"`
	Alternatives int                    `json:"alternatives"`
	Criteria     int                    `json:"criteria"`
	Top          string                 `json:"top"`
	TopScore     float64                `json:"topScore"`
}

// RankResponse is the response of POST /api/rank.
type RankResponse struct {
	*models.RankingOutcome
	Analysis *topsis.Analysis `json:"analysis,omitempty"`
	// Saved is true when the outcome was written to the result store.
	Saved bool `json:"saved"`
}

// ValidateResponse is the response of POST /api/validate.
type ValidateResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// SensitivityRequest is the body of POST /api/sensitivity. Zero or absent
// fields fall back to the server defaults.
type SensitivityRequest struct {
	Problem    json.RawMessage `json:"problem"`
	Iterations int             `json:"iterations,omitempty"`
	Spread     *float64        `json:"spread,omitempty"`
	Seed       *int64          `json:"seed,omitempty"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Error kinds carried in ErrorResponse.Kind.
const (
	KindBadRequest       = "bad_request"
	KindInvalidInput     = "invalid_input"
	KindDegenerateColumn = "degenerate_column"
	KindNotFound         = "not_found"
	KindRateLimited      = "rate_limited"
	KindInternal         = "internal"
)

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
	Kind  string `json:"kind"`
}
