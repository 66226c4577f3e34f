// Package cache stores sensitivity reports of seeded runs on disk, keyed by
// a hash of the problem and the run options.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/spboyer/topsis/internal/models"
	"github.com/spboyer/topsis/internal/statistics"
)

// Cache is a directory of JSON-encoded sensitivity reports.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New creates a cache rooted at dir. An empty dir disables caching.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Cacheable reports whether a run with opts is reproducible. Unseeded runs
// draw from a random source and are never cached.
func Cacheable(opts statistics.Options) bool {
	return opts.Seed >= 0
}

// Key hashes everything that determines a report: the problem itself and
// the iteration count, spread, seed and confidence level. Workers and the
// progress callback do not change the result and are left out.
func Key(p *models.Problem, opts statistics.Options) (string, error) {
	h := sha256.New()

	problemJSON, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshaling problem: %w", err)
	}
	if _, err := h.Write(problemJSON); err != nil {
		return "", err
	}
	if err := writeString(h, ""); err != nil {
		return "", err
	}

	iterations := opts.Iterations
	if iterations <= 0 {
		iterations = statistics.DefaultIterations
	}
	level := opts.ConfidenceLevel
	if level <= 0 || level >= 1 {
		level = statistics.DefaultConfidenceLevel
	}
	if err := writeInt(h, int64(iterations)); err != nil {
		return "", err
	}
	if err := writeInt(h, opts.Seed); err != nil {
		return "", err
	}
	if err := writeString(h, strconv.FormatFloat(opts.Spread, 'g', -1, 64)); err != nil {
		return "", err
	}
	if err := writeString(h, strconv.FormatFloat(level, 'g', -1, 64)); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns the report stored under key. Unreadable entries are misses.
func (c *Cache) Get(key string) (*statistics.Report, bool) {
	if c.dir == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		return nil, false
	}

	var report statistics.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false
	}
	return &report, true
}

// Put stores report under key, creating the directory if needed.
func (c *Cache) Put(key string, report *statistics.Report) error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	if err := os.WriteFile(c.cachePath(key), data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Clear removes the cache directory. It refuses to touch a directory holding
// anything other than .json files.
func (c *Cache) Clear() error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			return fmt.Errorf("cache directory contains subdirectories - refusing to delete for safety")
		}
		if filepath.Ext(entry.Name()) != ".json" {
			return fmt.Errorf("cache directory contains non-cache files - refusing to delete for safety")
		}
	}

	return os.RemoveAll(c.dir)
}

func (c *Cache) cachePath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Values are null-terminated so adjacent fields cannot run together.

func writeString(w io.Writer, s string) error {
	_, err := w.Write([]byte(s + "\x00"))
	return err
}

func writeInt(w io.Writer, i int64) error {
	_, err := fmt.Fprintf(w, "%d\x00", i)
	return err
}
