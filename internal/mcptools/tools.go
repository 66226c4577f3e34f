// Package mcptools exposes ranking, validation and weight sensitivity as
// Model Context Protocol tools.
//
// Each tool follows the same shape: a struct holding its dependencies,
// Definition() returning the mcp.Tool schema and Handle() serving a call.
// Input problems are either inline YAML/JSON documents or file paths.
package mcptools

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spboyer/topsis/internal/dataset"
	"github.com/spboyer/topsis/internal/models"
	"github.com/spboyer/topsis/internal/statistics"
)

// NewServer creates an MCP server with every topsis tool registered.
// sensitivity holds the defaults for topsis_sensitivity.
func NewServer(version string, sensitivity statistics.Options) *server.MCPServer {
	s := server.NewMCPServer(
		"topsis",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	rank := NewRankTool(time.Now)
	s.AddTool(rank.Definition(), rank.Handle)

	validate := NewValidateTool()
	s.AddTool(validate.Definition(), validate.Handle)

	sens := NewSensitivityTool(sensitivity)
	s.AddTool(sens.Definition(), sens.Handle)

	return s
}

const instructions = `topsis ranks alternatives against weighted benefit and cost criteria.
Pass a problem either inline (YAML or JSON with alternatives, criteria and matrix)
or as a path to a .yaml, .json or .csv file. Run topsis_validate first when a
problem was written by hand.`

// problemArgs are the schema options shared by every tool.
func problemArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("problem",
			mcp.Description("Inline problem document (YAML or JSON) with alternatives, criteria and matrix"),
		),
		mcp.WithString("path",
			mcp.Description("Path to a problem file (.yaml, .json or .csv); used when problem is empty"),
		),
	}
}

// loadProblem reads the problem named by a request. The returned message is
// meant for the caller and is empty on success.
func loadProblem(req mcp.CallToolRequest) (*models.Problem, string) {
	inline := req.GetString("problem", "")
	path := req.GetString("path", "")
	switch {
	case inline != "" && path != "":
		return nil, "'problem' and 'path' are mutually exclusive"
	case inline != "":
		p, err := models.ParseProblem([]byte(inline))
		if err != nil {
			return nil, fmt.Sprintf("invalid problem: %v", err)
		}
		return p, ""
	case path != "":
		p, err := dataset.LoadProblem(path)
		if err != nil {
			return nil, fmt.Sprintf("failed to load %s: %v", path, err)
		}
		return p, ""
	}
	return nil, "'problem' or 'path' is required"
}

// numberArg returns a numeric argument and whether it was given. JSON numbers
// arrive as float64.
func numberArg(req mcp.CallToolRequest, key string) (float64, bool) {
	v, ok := req.GetArguments()[key].(float64)
	return v, ok
}

func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
