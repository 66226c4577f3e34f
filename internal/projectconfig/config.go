// Package projectconfig provides the ProjectConfig struct and loader for
// .topsis.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up by Load.
const FileName = ".topsis.yaml"

// maxSearchDepth bounds how many directories Load walks up.
const maxSearchDepth = 10

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultOutputFormat = "table"
	DefaultPrecision    = 4
	DefaultResultsDir   = "results/"

	DefaultIterations = 1000
	DefaultSpread     = 0.2
	DefaultSeed       = -1
	DefaultWorkers    = 4

	DefaultServerHost      = "127.0.0.1"
	DefaultServerPort      = 3000
	DefaultServerRateLimit = 10.0
	DefaultServerBurst     = 20
	DefaultServerMemoSize  = 64
)

// OutputConfig holds how rankings are printed and where they are saved.
type OutputConfig struct {
	Format     string `yaml:"format,omitempty"`
	Precision  *int   `yaml:"precision,omitempty"`
	ResultsDir string `yaml:"results_dir,omitempty"`
	Interpret  *bool  `yaml:"interpret,omitempty"`
}

// SensitivityConfig holds weight sensitivity defaults.
type SensitivityConfig struct {
	Iterations int     `yaml:"iterations,omitempty"`
	Spread     float64 `yaml:"spread,omitempty"`
	Seed       *int64  `yaml:"seed,omitempty"`
	Workers    int     `yaml:"workers,omitempty"`
	// CacheDir stores reports of seeded runs; empty disables caching.
	CacheDir string `yaml:"cache_dir,omitempty"`
}

// ServerConfig holds HTTP API server settings.
type ServerConfig struct {
	Host           string   `yaml:"host,omitempty"`
	Port           int      `yaml:"port,omitempty"`
	RateLimit      float64  `yaml:"rate_limit,omitempty"`
	Burst          int      `yaml:"burst,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
	// ResultsDB, when set, stores saved outcomes in this SQLite database
	// instead of the results directory.
	ResultsDB string `yaml:"results_db,omitempty"`
	// MemoSize is how many seeded sensitivity reports are kept in memory;
	// 0 disables the memo.
	MemoSize *int `yaml:"memo_size,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .topsis.yaml.
type ProjectConfig struct {
	Output      OutputConfig      `yaml:"output,omitempty"`
	Sensitivity SensitivityConfig `yaml:"sensitivity,omitempty"`
	Server      ServerConfig      `yaml:"server,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Output: OutputConfig{
			Format:     DefaultOutputFormat,
			Precision:  ptr(DefaultPrecision),
			ResultsDir: DefaultResultsDir,
			Interpret:  ptr(false),
		},
		Sensitivity: SensitivityConfig{
			Iterations: DefaultIterations,
			Spread:     DefaultSpread,
			Seed:       ptr(int64(DefaultSeed)),
			Workers:    DefaultWorkers,
		},
		Server: ServerConfig{
			Host:      DefaultServerHost,
			Port:      DefaultServerPort,
			RateLimit: DefaultServerRateLimit,
			Burst:     DefaultServerBurst,
			MemoSize:  ptr(DefaultServerMemoSize),
		},
	}
}

// Load finds .topsis.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	mergeConfig(cfg, &fileCfg)
	return cfg, nil
}

// findConfigFile walks up from dir looking for .topsis.yaml. Returns
// os.ErrNotExist if no config file is found.
func findConfigFile(dir string) ([]byte, error) {
	// Convert to absolute path so filepath.Dir(".") walks correctly.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for range maxSearchDepth {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Output
	if src.Output.Format != "" {
		dst.Output.Format = src.Output.Format
	}
	if src.Output.Precision != nil {
		dst.Output.Precision = src.Output.Precision
	}
	if src.Output.ResultsDir != "" {
		dst.Output.ResultsDir = src.Output.ResultsDir
	}
	if src.Output.Interpret != nil {
		dst.Output.Interpret = src.Output.Interpret
	}

	// Sensitivity
	if src.Sensitivity.Iterations != 0 {
		dst.Sensitivity.Iterations = src.Sensitivity.Iterations
	}
	if src.Sensitivity.Spread != 0 {
		dst.Sensitivity.Spread = src.Sensitivity.Spread
	}
	if src.Sensitivity.Seed != nil {
		dst.Sensitivity.Seed = src.Sensitivity.Seed
	}
	if src.Sensitivity.Workers != 0 {
		dst.Sensitivity.Workers = src.Sensitivity.Workers
	}
	if src.Sensitivity.CacheDir != "" {
		dst.Sensitivity.CacheDir = src.Sensitivity.CacheDir
	}

	// Server
	if src.Server.Host != "" {
		dst.Server.Host = src.Server.Host
	}
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if src.Server.RateLimit != 0 {
		dst.Server.RateLimit = src.Server.RateLimit
	}
	if src.Server.Burst != 0 {
		dst.Server.Burst = src.Server.Burst
	}
	if len(src.Server.AllowedOrigins) > 0 {
		dst.Server.AllowedOrigins = src.Server.AllowedOrigins
	}
	if src.Server.ResultsDB != "" {
		dst.Server.ResultsDB = src.Server.ResultsDB
	}
	if src.Server.MemoSize != nil {
		dst.Server.MemoSize = src.Server.MemoSize
	}
}

func ptr[T any](v T) *T {
	return &v
}
