package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spboyer/topsis/internal/dataset"
	"github.com/spboyer/topsis/internal/models"
	"github.com/spboyer/topsis/internal/statistics"
	"github.com/spboyer/topsis/internal/topsis"
	"github.com/spboyer/topsis/internal/validation"
)

// ProgressMethod is the notification sent while a sensitivity run with
// progress enabled is underway.
const ProgressMethod = "problem.sensitivity.progress"

// HandlerContext provides shared settings for method handlers.
type HandlerContext struct {
	// Sensitivity holds defaults for problem.sensitivity parameters.
	Sensitivity statistics.Options
	// Now stamps ranking outcomes.
	Now func() time.Time
}

// NewHandlerContext creates a handler context with library defaults.
func NewHandlerContext() *HandlerContext {
	return &HandlerContext{
		Sensitivity: statistics.Options{
			Iterations: statistics.DefaultIterations,
			Spread:     statistics.DefaultSpread,
			Seed:       -1,
			Workers:    statistics.DefaultWorkers,
		},
		Now: time.Now,
	}
}

// RegisterHandlers registers all problem methods and rpc.methods.
func RegisterHandlers(registry *MethodRegistry, hctx *HandlerContext) {
	registry.Register("problem.rank", "Rank a problem file or inline problem", hctx.handleRank)
	registry.Register("problem.validate", "Validate a problem against the schema and ranking preconditions", hctx.handleValidate)
	registry.Register("problem.sensitivity", "Measure how stable a ranking is under weight perturbation", hctx.handleSensitivity)
	registry.Register("rpc.methods", "List available methods", func(context.Context, json.RawMessage) (any, *Error) {
		return &MethodsResult{Methods: registry.Methods()}, nil
	})
}

// ProblemParams names the problem a method works on: either a file path
// (YAML, JSON or CSV) or an inline problem document.
type ProblemParams struct {
	Path    string          `json:"path,omitempty"`
	Problem json.RawMessage `json:"problem,omitempty"`
}

func (p *ProblemParams) load() (*models.Problem, *Error) {
	switch {
	case p.Path != "" && len(p.Problem) > 0:
		return nil, ErrInvalidParams("path and problem are mutually exclusive")
	case p.Path != "":
		prob, err := dataset.LoadProblem(p.Path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound(p.Path)
		}
		if err != nil {
			return nil, ErrInvalidParams(err.Error())
		}
		return prob, nil
	case len(p.Problem) > 0:
		prob, err := models.ParseProblem(p.Problem)
		if err != nil {
			return nil, ErrInvalidParams(err.Error())
		}
		return prob, nil
	}
	return nil, ErrInvalidParams("path or problem is required")
}

func decodeParams(params json.RawMessage, v any) *Error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return ErrInvalidParams(err.Error())
	}
	return nil
}

// --- problem.rank ---

type RankParams struct {
	ProblemParams
	// Weighting overrides the problem's weighting method.
	Weighting string `json:"weighting,omitempty"`
	// Explain adds every intermediate step to the result.
	Explain bool `json:"explain,omitempty"`
}

type RankResult struct {
	*models.RankingOutcome
	Analysis *topsis.Analysis `json:"analysis,omitempty"`
}

func (h *HandlerContext) handleRank(_ context.Context, params json.RawMessage) (any, *Error) {
	var p RankParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	prob, rpcErr := p.load()
	if rpcErr != nil {
		return nil, rpcErr
	}
	if p.Weighting != "" {
		method, err := models.ParseWeightingMethod(p.Weighting)
		if err != nil {
			return nil, ErrInvalidParams(err.Error())
		}
		prob.Weighting = method
	}

	outcome, err := models.RankProblem(prob, h.Now())
	if err != nil {
		return nil, ErrFromEngine(err)
	}
	result := &RankResult{RankingOutcome: outcome}
	if p.Explain {
		if result.Analysis, err = prob.Analyze(); err != nil {
			return nil, ErrFromEngine(err)
		}
	}
	return result, nil
}

// --- problem.validate ---

type ValidateResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func (h *HandlerContext) handleValidate(_ context.Context, params json.RawMessage) (any, *Error) {
	var p ProblemParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	var errs []string
	switch {
	case p.Path != "" && len(p.Problem) > 0:
		return nil, ErrInvalidParams("path and problem are mutually exclusive")
	case p.Path != "" && strings.EqualFold(filepath.Ext(p.Path), ".csv"):
		prob, rpcErr := p.load()
		if rpcErr != nil {
			if rpcErr.Code == CodeNotFound {
				return nil, rpcErr
			}
			errs = []string{rpcErr.Data.(string)}
			break
		}
		errs = validation.ValidateProblem(prob)
	case p.Path != "":
		var err error
		errs, err = validation.ValidateProblemFile(p.Path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound(p.Path)
		}
		if err != nil {
			return nil, ErrInternalError(err.Error())
		}
	case len(p.Problem) > 0:
		errs = validation.ValidateProblemBytes(p.Problem)
	default:
		return nil, ErrInvalidParams("path or problem is required")
	}

	if errs == nil {
		errs = []string{}
	}
	return &ValidateResult{Valid: len(errs) == 0, Errors: errs}, nil
}

// --- problem.sensitivity ---

type SensitivityParams struct {
	ProblemParams
	Iterations int      `json:"iterations,omitempty"`
	Spread     *float64 `json:"spread,omitempty"`
	Seed       *int64   `json:"seed,omitempty"`
	// Progress requests problem.sensitivity.progress notifications.
	Progress bool `json:"progress,omitempty"`
}

type ProgressParams struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

func (h *HandlerContext) handleSensitivity(ctx context.Context, params json.RawMessage) (any, *Error) {
	var p SensitivityParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	prob, rpcErr := p.load()
	if rpcErr != nil {
		return nil, rpcErr
	}

	opts := h.Sensitivity
	if p.Iterations != 0 {
		opts.Iterations = p.Iterations
	}
	if p.Spread != nil {
		opts.Spread = *p.Spread
	}
	if p.Seed != nil {
		opts.Seed = *p.Seed
	}
	if opts.Iterations < 1 || opts.Iterations > statistics.MaxIterations {
		return nil, ErrInvalidParams(fmt.Sprintf("iterations must be in [1, %d]", statistics.MaxIterations))
	}
	if opts.Spread < 0 || opts.Spread >= 1 {
		return nil, ErrInvalidParams("spread must be in [0, 1)")
	}
	if p.Progress {
		// Report each tenth of the run.
		opts.Progress = func(done, total int) {
			step := max(total/10, 1)
			if done%step == 0 || done == total {
				Notify(ctx, ProgressMethod, &ProgressParams{Done: done, Total: total})
			}
		}
	}

	report, err := statistics.WeightSensitivity(ctx, prob, opts)
	if err != nil {
		return nil, ErrFromEngine(err)
	}
	return report, nil
}

// --- rpc.methods ---

type MethodsResult struct {
	Methods []MethodInfo `json:"methods"`
}
