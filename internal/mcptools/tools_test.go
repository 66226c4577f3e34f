package mcptools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spboyer/topsis/internal/statistics"
)

const phonesYAML = `name: phones
alternatives: [A1, A2, A3]
criteria:
  - {name: Price, weight: 0.25, type: cost}
  - {name: Storage, weight: 0.25, type: benefit}
  - {name: Camera, weight: 0.25, type: benefit}
  - {name: Looks, weight: 0.25, type: benefit}
matrix:
  - [250, 16, 12, 5]
  - [200, 16, 8, 3]
  - [300, 32, 16, 4]
`

// ─── Test helpers ────────────────────────────────────────────────────────────

func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func defaultOptions() statistics.Options {
	return statistics.Options{
		Iterations: 200,
		Spread:     statistics.DefaultSpread,
		Seed:       -1,
		Workers:    2,
	}
}

// ─── Server ──────────────────────────────────────────────────────────────────

func TestNewServer_ListsTools(t *testing.T) {
	s := NewServer("test", defaultOptions())
	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("encoding response: %v", err)
	}
	for _, name := range []string{"topsis_rank", "topsis_validate", "topsis_sensitivity"} {
		if !strings.Contains(string(data), `"`+name+`"`) {
			t.Errorf("tool %q not listed in %s", name, data)
		}
	}
}

// ─── RankTool ────────────────────────────────────────────────────────────────

func TestRankTool_Definition(t *testing.T) {
	def := NewRankTool(fixedNow).Definition()
	if def.Name != "topsis_rank" {
		t.Errorf("tool name = %q, want %q", def.Name, "topsis_rank")
	}
	for _, p := range []string{"problem", "path", "weighting", "explain", "interpret"} {
		if _, ok := def.InputSchema.Properties[p]; !ok {
			t.Errorf("missing %q parameter", p)
		}
	}
}

func TestRankTool_Inline(t *testing.T) {
	tool := NewRankTool(fixedNow)
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"problem": phonesYAML,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(result))
	}

	var out struct {
		Results []struct {
			Rank        int     `json:"rank"`
			Alternative string  `json:"alternative"`
			Score       float64 `json:"score"`
		} `json:"results"`
		Analysis json.RawMessage `json:"analysis"`
	}
	if err := json.Unmarshal([]byte(resultText(result)), &out); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	want := []string{"A3", "A1", "A2"}
	if len(out.Results) != len(want) {
		t.Fatalf("got %d results, want %d", len(out.Results), len(want))
	}
	for i, r := range out.Results {
		if r.Alternative != want[i] || r.Rank != i+1 {
			t.Errorf("position %d: got %s rank %d, want %s rank %d", i, r.Alternative, r.Rank, want[i], i+1)
		}
	}
	if out.Results[0].Score < 0.6799 || out.Results[0].Score > 0.68 {
		t.Errorf("top score = %f, want ~0.6799", out.Results[0].Score)
	}
	if out.Analysis != nil {
		t.Error("analysis should be omitted without explain")
	}
}

func TestRankTool_PathExplain(t *testing.T) {
	path := writeFile(t, "phones.yaml", phonesYAML)
	result, err := NewRankTool(fixedNow).Handle(context.Background(), makeReq(map[string]interface{}{
		"path":    path,
		"explain": true,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(result)
	for _, key := range []string{`"analysis"`, `"positive_ideal"`, `"negative_distances"`} {
		if !strings.Contains(text, key) {
			t.Errorf("expected %s in result", key)
		}
	}
}

func TestRankTool_CSVEntropy(t *testing.T) {
	path := writeFile(t, "phones.csv", "alternative,Price,Storage\n@type,cost,benefit\nA1,250,16\nA2,200,16\nA3,300,32\n")
	result, err := NewRankTool(fixedNow).Handle(context.Background(), makeReq(map[string]interface{}{
		"path":      path,
		"weighting": "entropy",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(result))
	}
	if !strings.Contains(resultText(result), `"weighting": "entropy"`) {
		t.Errorf("expected entropy weighting in result:\n%s", resultText(result))
	}
}

func TestRankTool_Interpret(t *testing.T) {
	result, err := NewRankTool(fixedNow).Handle(context.Background(), makeReq(map[string]interface{}{
		"problem":   phonesYAML,
		"interpret": true,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(result)
	if !strings.Contains(text, "A3") || strings.HasPrefix(strings.TrimSpace(text), "{") {
		t.Errorf("expected a plain-text report, got:\n%s", text)
	}
}

func TestRankTool_Errors(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"no input", map[string]interface{}{}, "is required"},
		{"both inputs", map[string]interface{}{"problem": phonesYAML, "path": "x.yaml"}, "mutually exclusive"},
		{"missing file", map[string]interface{}{"path": "/nonexistent/p.yaml"}, "failed to load"},
		{"bad weighting", map[string]interface{}{"problem": phonesYAML, "weighting": "magic"}, "magic"},
		{"zero column", map[string]interface{}{"problem": "alternatives: [A, B]\ncriteria: [{name: C, weight: 1, type: benefit}]\nmatrix: [[0], [0]]\n"}, "ranking failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewRankTool(fixedNow).Handle(context.Background(), makeReq(tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.IsError {
				t.Fatalf("expected a tool error, got: %s", resultText(result))
			}
			if !strings.Contains(resultText(result), tt.want) {
				t.Errorf("error %q should contain %q", resultText(result), tt.want)
			}
		})
	}
}

// ─── ValidateTool ────────────────────────────────────────────────────────────

func TestValidateTool_Definition(t *testing.T) {
	def := NewValidateTool().Definition()
	if def.Name != "topsis_validate" {
		t.Errorf("tool name = %q, want %q", def.Name, "topsis_validate")
	}
}

func TestValidateTool_Valid(t *testing.T) {
	for name, args := range map[string]map[string]interface{}{
		"inline": {"problem": phonesYAML},
		"yaml":   {"path": writeFile(t, "p.yaml", phonesYAML)},
		"csv":    {"path": writeFile(t, "p.csv", "alternative,C1\nA1,1\nA2,2\n")},
	} {
		t.Run(name, func(t *testing.T) {
			result, err := NewValidateTool().Handle(context.Background(), makeReq(args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.HasPrefix(resultText(result), "valid") {
				t.Errorf("expected valid, got:\n%s", resultText(result))
			}
		})
	}
}

func TestValidateTool_Invalid(t *testing.T) {
	doc := "alternatives: [A1, A2]\ncriteria: [{name: C1, weight: 1, type: benefit}]\nmatrix: [[0], [0]]\n"
	result, err := NewValidateTool().Handle(context.Background(), makeReq(map[string]interface{}{"problem": doc}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("validation failures should not be tool errors")
	}
	text := resultText(result)
	if !strings.HasPrefix(text, "invalid: 1 problem(s)") || !strings.Contains(text, "zero norm") {
		t.Errorf("unexpected report:\n%s", text)
	}
}

func TestValidateTool_Errors(t *testing.T) {
	for name, args := range map[string]map[string]interface{}{
		"no input":     {},
		"both inputs":  {"problem": phonesYAML, "path": "p.yaml"},
		"missing file": {"path": "/nonexistent/p.yaml"},
	} {
		t.Run(name, func(t *testing.T) {
			result, err := NewValidateTool().Handle(context.Background(), makeReq(args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.IsError {
				t.Errorf("expected a tool error, got: %s", resultText(result))
			}
		})
	}
}

// ─── SensitivityTool ─────────────────────────────────────────────────────────

func TestSensitivityTool_Definition(t *testing.T) {
	def := NewSensitivityTool(defaultOptions()).Definition()
	if def.Name != "topsis_sensitivity" {
		t.Errorf("tool name = %q, want %q", def.Name, "topsis_sensitivity")
	}
	for _, p := range []string{"problem", "path", "iterations", "spread", "seed", "json"} {
		if _, ok := def.InputSchema.Properties[p]; !ok {
			t.Errorf("missing %q parameter", p)
		}
	}
}

func TestSensitivityTool_SeededJSON(t *testing.T) {
	tool := NewSensitivityTool(defaultOptions())
	args := map[string]interface{}{
		"problem":    phonesYAML,
		"iterations": float64(50),
		"spread":     0.1,
		"seed":       float64(7),
		"json":       true,
	}

	first, err := tool.Handle(context.Background(), makeReq(args))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(first))
	}
	var report statistics.Report
	if err := json.Unmarshal([]byte(resultText(first)), &report); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if report.Iterations != 50 || report.Seed != 7 || report.Spread != 0.1 {
		t.Errorf("options not applied: %+v", report)
	}
	if report.Alternatives[0].Alternative != "A3" {
		t.Errorf("expected A3 first, got %s", report.Alternatives[0].Alternative)
	}

	second, err := tool.Handle(context.Background(), makeReq(args))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resultText(first) != resultText(second) {
		t.Error("seeded runs should be reproducible")
	}
}

func TestSensitivityTool_Text(t *testing.T) {
	result, err := NewSensitivityTool(defaultOptions()).Handle(context.Background(), makeReq(map[string]interface{}{
		"problem":    phonesYAML,
		"iterations": float64(20),
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(result)
	if result.IsError || !strings.Contains(text, "A3") || strings.HasPrefix(text, "{") {
		t.Errorf("expected a text report, got:\n%s", text)
	}
}

func TestSensitivityTool_BadOptions(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"zero iterations", map[string]interface{}{"iterations": float64(0)}, "'iterations'"},
		{"too many iterations", map[string]interface{}{"iterations": float64(statistics.MaxIterations + 1)}, "'iterations'"},
		{"negative spread", map[string]interface{}{"spread": -0.5}, "'spread'"},
		{"spread of one", map[string]interface{}{"spread": 1.0}, "'spread'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.args["problem"] = phonesYAML
			result, err := NewSensitivityTool(defaultOptions()).Handle(context.Background(), makeReq(tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.IsError || !strings.Contains(resultText(result), tt.want) {
				t.Errorf("expected error mentioning %s, got: %s", tt.want, resultText(result))
			}
		})
	}
}
