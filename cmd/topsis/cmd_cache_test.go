package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheClear(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "phones.yaml", phonesYAML)
	cacheDir := filepath.Join(dir, "cache")

	_, _, err := runCLI(t, "", "sensitivity", path, "-n", "10", "--seed", "1", "--cache-dir", cacheDir)
	require.NoError(t, err)
	require.DirExists(t, cacheDir)

	out, _, err := runCLI(t, "", "cache", "clear", "--cache-dir", cacheDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Cache cleared: "+cacheDir)
	assert.NoDirExists(t, cacheDir)
}

func TestCacheClear_RefusesForeignFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "phones.yaml", phonesYAML)

	_, _, err := runCLI(t, "", "cache", "clear", "--cache-dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to delete")
	assert.FileExists(t, filepath.Join(dir, "phones.yaml"))
}

func TestCacheClear_FromProjectConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".topsis.yaml", "sensitivity:\n  cache_dir: reports-cache\n")
	writeFile(t, filepath.Join(dir, "reports-cache"), "abc.json", "{}")
	t.Chdir(dir)

	_, _, err := runCLI(t, "", "cache", "clear")
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(dir, "reports-cache"))
}

func TestCacheClear_NoDirectory(t *testing.T) {
	t.Chdir(t.TempDir())
	_, _, err := runCLI(t, "", "cache", "clear")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cache directory")
}
