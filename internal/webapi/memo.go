package webapi

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spboyer/topsis/internal/cache"
	"github.com/spboyer/topsis/internal/models"
	"github.com/spboyer/topsis/internal/statistics"
)

// DefaultMemoSize is the number of sensitivity reports kept in memory.
const DefaultMemoSize = 64

// CacheHeader reports whether a sensitivity response came from memory.
const CacheHeader = "X-Topsis-Cache"

// reportMemo holds recent reports of seeded sensitivity runs, keyed like the
// on-disk cache.
type reportMemo struct {
	reports *lru.Cache[string, *statistics.Report]
}

func newReportMemo(size int) (*reportMemo, error) {
	reports, err := lru.New[string, *statistics.Report](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create report memo: %w", err)
	}
	return &reportMemo{reports: reports}, nil
}

// key returns the memo key for a run, or false when the run is unseeded or
// the problem cannot be hashed.
func (m *reportMemo) key(p *models.Problem, opts statistics.Options) (string, bool) {
	if m == nil || !cache.Cacheable(opts) {
		return "", false
	}
	k, err := cache.Key(p, opts)
	if err != nil {
		return "", false
	}
	return k, true
}

func (m *reportMemo) get(key string) (*statistics.Report, bool) {
	return m.reports.Get(key)
}

func (m *reportMemo) add(key string, report *statistics.Report) {
	m.reports.Add(key, report)
}

// EnableMemo keeps up to size reports of seeded sensitivity runs in memory.
// A size of zero or less disables it.
func (h *Handlers) EnableMemo(size int) error {
	if size <= 0 {
		h.memo = nil
		return nil
	}
	m, err := newReportMemo(size)
	if err != nil {
		return err
	}
	h.memo = m
	return nil
}
