package mcptools

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spboyer/topsis/internal/dataset"
	"github.com/spboyer/topsis/internal/validation"
)

// ValidateTool handles the topsis_validate MCP tool.
type ValidateTool struct{}

// NewValidateTool creates a ValidateTool.
func NewValidateTool() *ValidateTool {
	return &ValidateTool{}
}

// Definition returns the MCP tool definition for topsis_validate.
func (t *ValidateTool) Definition() mcp.Tool {
	opts := append(problemArgs(),
		mcp.WithDescription("Check a decision problem against the problem file schema and the ranking "+
			"preconditions (shape, finite values, weights, all-zero columns) without ranking it."),
	)
	return mcp.NewTool("topsis_validate", opts...)
}

// Handle processes the topsis_validate tool call. Validation failures are a
// successful call whose text lists the problems.
func (t *ValidateTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inline := req.GetString("problem", "")
	path := req.GetString("path", "")

	var errs []string
	switch {
	case inline != "" && path != "":
		return mcp.NewToolResultError("'problem' and 'path' are mutually exclusive"), nil
	case inline != "":
		errs = validation.ValidateProblemBytes([]byte(inline))
	case strings.EqualFold(filepath.Ext(path), ".csv"):
		p, err := dataset.LoadProblemCSV(path)
		if err != nil {
			errs = []string{err.Error()}
			break
		}
		errs = validation.ValidateProblem(p)
	case path != "":
		var err error
		if errs, err = validation.ValidateProblemFile(path); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read %s: %v", path, err)), nil
		}
	default:
		return mcp.NewToolResultError("'problem' or 'path' is required"), nil
	}

	if len(errs) == 0 {
		return mcp.NewToolResultText("valid: the problem can be ranked"), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "invalid: %d problem(s) found\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(&b, "- %s\n", e)
	}
	return mcp.NewToolResultText(b.String()), nil
}
