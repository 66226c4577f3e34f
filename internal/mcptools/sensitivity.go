package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spboyer/topsis/internal/reporting"
	"github.com/spboyer/topsis/internal/statistics"
)

// SensitivityTool handles the topsis_sensitivity MCP tool.
type SensitivityTool struct {
	defaults statistics.Options
}

// NewSensitivityTool creates a SensitivityTool with the given defaults.
func NewSensitivityTool(defaults statistics.Options) *SensitivityTool {
	return &SensitivityTool{defaults: defaults}
}

// Definition returns the MCP tool definition for topsis_sensitivity.
func (t *SensitivityTool) Definition() mcp.Tool {
	opts := append(problemArgs(),
		mcp.WithDescription("Re-rank a problem many times with randomly perturbed weights and report how "+
			"often each alternative keeps its rank or comes first."),
		mcp.WithNumber("iterations",
			mcp.Description(fmt.Sprintf("Number of perturbed rankings (default %d)", t.defaults.Iterations)),
		),
		mcp.WithNumber("spread",
			mcp.Description("Relative weight perturbation in [0, 1)"),
		),
		mcp.WithNumber("seed",
			mcp.Description("Random seed for a reproducible report; negative for a random run"),
		),
		mcp.WithBoolean("json",
			mcp.Description("Return the report as JSON instead of a table"),
		),
	)
	return mcp.NewTool("topsis_sensitivity", opts...)
}

// Handle processes the topsis_sensitivity tool call.
func (t *SensitivityTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, msg := loadProblem(req)
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}

	opts := t.defaults
	if v, ok := numberArg(req, "iterations"); ok {
		if v < 1 || v > statistics.MaxIterations {
			return mcp.NewToolResultError(fmt.Sprintf("'iterations' must be in [1, %d]", statistics.MaxIterations)), nil
		}
		opts.Iterations = int(v)
	}
	if v, ok := numberArg(req, "spread"); ok {
		opts.Spread = v
	}
	if v, ok := numberArg(req, "seed"); ok {
		opts.Seed = int64(v)
	}
	if opts.Spread < 0 || opts.Spread >= 1 {
		return mcp.NewToolResultError("'spread' must be in [0, 1)"), nil
	}

	report, err := statistics.WeightSensitivity(ctx, p, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sensitivity analysis failed: %v", err)), nil
	}
	if boolArg(req, "json", false) {
		return jsonResult(report)
	}
	return mcp.NewToolResultText(reporting.FormatSensitivity(report, reporting.DefaultPrecision)), nil
}
