package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spboyer/topsis/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommand_Defaults(t *testing.T) {
	dir := t.TempDir()

	out, _, err := runCLI(t, "", "new", "Laptop choice", "--defaults", "--dir", dir)
	require.NoError(t, err)

	dest := filepath.Join(dir, "Laptop-choice.yaml")
	assert.Contains(t, out, "Created "+dest)

	p, err := dataset.LoadProblem(dest)
	require.NoError(t, err)
	assert.Equal(t, "Laptop choice", p.Name)
	assert.Equal(t, []string{"A1", "A2"}, p.Alternatives)
	assert.Equal(t, []string{"C1", "C2", "C3"}, p.CriterionNames())
}

func TestNewCommand_RefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	existing := writeFile(t, dir, "mine.yaml", "keep me")

	_, _, err := runCLI(t, "", "new", "mine", "--defaults", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))

	_, _, err = runCLI(t, "", "new", "mine", "--defaults", "--dir", dir, "--force")
	require.NoError(t, err)
	data, err = os.ReadFile(existing)
	require.NoError(t, err)
	assert.Contains(t, string(data), "alternatives:")
}

func TestNewCommand_UnnamedDefaults(t *testing.T) {
	dir := t.TempDir()

	_, _, err := runCLI(t, "", "new", "--defaults", "--dir", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "problem.yaml"))
}

func TestProblemFileName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"phones", "phones.yaml"},
		{"Phone purchase", "Phone-purchase.yaml"},
		{"already.yaml", "already.yaml"},
		{"dir/nested.yml", "nested.yml"},
		{"a/b c", "a-b-c.yaml"},
		{"///", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, problemFileName(tt.name))
		})
	}
}
