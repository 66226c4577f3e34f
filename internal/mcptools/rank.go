package mcptools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spboyer/topsis/internal/models"
	"github.com/spboyer/topsis/internal/reporting"
	"github.com/spboyer/topsis/internal/topsis"
)

// RankTool handles the topsis_rank MCP tool.
type RankTool struct {
	now func() time.Time
}

// NewRankTool creates a RankTool that stamps outcomes with now.
func NewRankTool(now func() time.Time) *RankTool {
	return &RankTool{now: now}
}

// Definition returns the MCP tool definition for topsis_rank.
func (t *RankTool) Definition() mcp.Tool {
	opts := append(problemArgs(),
		mcp.WithDescription("Rank the alternatives of a decision problem with TOPSIS. "+
			"Returns the ranking best first with closeness scores in [0, 1]."),
		mcp.WithString("weighting",
			mcp.Description("Override the problem's weighting method"),
			mcp.Enum(string(models.WeightingManual), string(models.WeightingEntropy)),
		),
		mcp.WithBoolean("explain",
			mcp.Description("Include every intermediate step: norms, weighted matrix, ideals and distances"),
		),
		mcp.WithBoolean("interpret",
			mcp.Description("Return a plain-language summary instead of JSON"),
		),
	)
	return mcp.NewTool("topsis_rank", opts...)
}

type rankResult struct {
	*models.RankingOutcome
	Analysis *topsis.Analysis `json:"analysis,omitempty"`
}

// Handle processes the topsis_rank tool call.
func (t *RankTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, msg := loadProblem(req)
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}
	if w := req.GetString("weighting", ""); w != "" {
		method, err := models.ParseWeightingMethod(w)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		p.Weighting = method
	}

	outcome, err := models.RankProblem(p, t.now())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ranking failed: %v", err)), nil
	}

	if boolArg(req, "interpret", false) {
		var b strings.Builder
		if err := reporting.WriteTable(&b, outcome, reporting.DefaultPrecision); err != nil {
			return nil, err
		}
		b.WriteString("\n")
		b.WriteString(reporting.FormatSummaryReport(outcome, reporting.DefaultPrecision))
		return mcp.NewToolResultText(b.String()), nil
	}

	result := rankResult{RankingOutcome: outcome}
	if boolArg(req, "explain", false) {
		if result.Analysis, err = p.Analyze(); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("ranking failed: %v", err)), nil
		}
	}
	return jsonResult(result)
}
