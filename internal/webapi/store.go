package webapi

//go:generate go tool mockgen -source=store.go -destination=mock_store.go -package=webapi

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spboyer/topsis/internal/models"
)

// ErrResultNotFound is returned when an ID does not match any stored outcome.
var ErrResultNotFound = errors.New("result not found")

// ErrStoreReadOnly is returned by Save on a store without a directory.
var ErrStoreReadOnly = errors.New("result store has no directory")

// ResultStore provides access to saved ranking outcomes.
type ResultStore interface {
	// List returns all outcomes, sorted by the given field and order.
	List(sortField, order string) ([]ResultSummary, error)
	// Get returns a single outcome.
	Get(id string) (*models.RankingOutcome, error)
	// Save persists an outcome under its ID.
	Save(o *models.RankingOutcome) error
}

// FileStore reads and writes RankingOutcome JSON files in a directory.
type FileStore struct {
	dir string

	mu       sync.RWMutex
	outcomes map[string]*models.RankingOutcome
	loaded   bool
}

// NewFileStore creates a FileStore backed by dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir:      dir,
		outcomes: make(map[string]*models.RankingOutcome),
	}
}

// load reads all outcome JSON files from the configured directory.
// Files that do not parse as outcomes are skipped.
func (fs *FileStore) load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.outcomes = make(map[string]*models.RankingOutcome)

	if fs.dir == "" {
		fs.loaded = true
		return nil
	}

	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		if os.IsNotExist(err) {
			fs.loaded = true
			return nil
		}
		return err
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		o, err := models.LoadOutcome(filepath.Join(fs.dir, e.Name()))
		if err != nil || len(o.Results) == 0 {
			continue
		}
		if o.ID == "" {
			o.ID = strings.TrimSuffix(e.Name(), ".json")
		}
		fs.outcomes[o.ID] = o
	}

	fs.loaded = true
	return nil
}

// ensureLoaded loads data if not already loaded.
func (fs *FileStore) ensureLoaded() error {
	fs.mu.RLock()
	if fs.loaded {
		fs.mu.RUnlock()
		return nil
	}
	fs.mu.RUnlock()
	return fs.load()
}

// Reload forces a fresh reload of all outcome files from disk.
func (fs *FileStore) Reload() error {
	return fs.load()
}

// List returns all outcomes sorted by the given field and order.
func (fs *FileStore) List(sortField, order string) ([]ResultSummary, error) {
	if err := fs.ensureLoaded(); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	results := make([]ResultSummary, 0, len(fs.outcomes))
	for _, o := range fs.outcomes {
		results = append(results, summarize(o))
	}
	sortResults(results, sortField, order)
	return results, nil
}

// Get returns the outcome stored under id.
func (fs *FileStore) Get(id string) (*models.RankingOutcome, error) {
	if err := fs.ensureLoaded(); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	o, ok := fs.outcomes[id]
	if !ok {
		return nil, ErrResultNotFound
	}
	return o, nil
}

// Save writes o to <dir>/<id>.json and makes it visible to List and Get.
func (fs *FileStore) Save(o *models.RankingOutcome) error {
	if fs.dir == "" {
		return ErrStoreReadOnly
	}
	if o.ID == "" || strings.ContainsAny(o.ID, `/\`) {
		return fmt.Errorf("invalid outcome id %q", o.ID)
	}
	if err := fs.ensureLoaded(); err != nil {
		return err
	}
	if err := o.SaveOutcome(filepath.Join(fs.dir, o.ID+".json")); err != nil {
		return err
	}

	fs.mu.Lock()
	fs.outcomes[o.ID] = o
	fs.mu.Unlock()
	return nil
}

func summarize(o *models.RankingOutcome) ResultSummary {
	s := ResultSummary{
		ID:           o.ID,
		Name:         o.Name,
		Timestamp:    o.Timestamp,
		Weighting:    o.Weighting,
		Alternatives: len(o.Results),
	}
	if o.Problem != nil {
		s.Criteria = len(o.Problem.Criteria)
	}
	if best := o.Best(); best != nil {
		s.Top = best.Alternative
		s.TopScore = best.Score
	}
	return s
}

func sortResults(results []ResultSummary, field, order string) {
	less := func(i, j int) bool {
		switch field {
		case "name":
			if results[i].Name != results[j].Name {
				return results[i].Name < results[j].Name
			}
		case "top_score":
			if results[i].TopScore != results[j].TopScore {
				return results[i].TopScore < results[j].TopScore
			}
		default: // "timestamp" or empty
			if !results[i].Timestamp.Equal(results[j].Timestamp) {
				return results[i].Timestamp.Before(results[j].Timestamp)
			}
		}
		return results[i].ID < results[j].ID
	}

	if order == "asc" {
		sort.Slice(results, less)
	} else {
		sort.Slice(results, func(i, j int) bool { return less(j, i) })
	}
}

// Ensure FileStore satisfies ResultStore.
var _ ResultStore = (*FileStore)(nil)
