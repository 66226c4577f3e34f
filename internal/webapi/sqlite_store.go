package webapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spboyer/topsis/internal/models"
	_ "modernc.org/sqlite"
)

const createOutcomesSQL = `
CREATE TABLE IF NOT EXISTS outcomes (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	weighting TEXT NOT NULL,
	alternatives INTEGER NOT NULL,
	criteria INTEGER NOT NULL,
	top TEXT NOT NULL,
	top_score REAL NOT NULL,
	body TEXT NOT NULL
);
`

// SQLiteStore keeps ranking outcomes in a SQLite database. Summary columns
// are stored alongside the outcome JSON so List never decodes bodies.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens or creates the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(createOutcomesSQL); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("store: create tables: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// List returns all outcomes sorted by the given field and order.
func (s *SQLiteStore) List(sortField, order string) ([]ResultSummary, error) {
	rows, err := s.db.Query(
		`SELECT id, name, timestamp, weighting, alternatives, criteria, top, top_score FROM outcomes`,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list outcomes: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	results := []ResultSummary{}
	for rows.Next() {
		var (
			r  ResultSummary
			ts string
		)
		if err := rows.Scan(&r.ID, &r.Name, &ts, &r.Weighting, &r.Alternatives, &r.Criteria, &r.Top, &r.TopScore); err != nil {
			return nil, fmt.Errorf("store: scan outcome: %w", err)
		}
		if r.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("store: outcome %s: bad timestamp %q", r.ID, ts)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list outcomes: %w", err)
	}

	sortResults(results, sortField, order)
	return results, nil
}

// Get returns the outcome stored under id.
func (s *SQLiteStore) Get(id string) (*models.RankingOutcome, error) {
	var body string
	err := s.db.QueryRow(`SELECT body FROM outcomes WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get outcome %s: %w", id, err)
	}

	var o models.RankingOutcome
	if err := json.Unmarshal([]byte(body), &o); err != nil {
		return nil, fmt.Errorf("store: decode outcome %s: %w", id, err)
	}
	return &o, nil
}

// Save inserts or replaces o under its ID.
func (s *SQLiteStore) Save(o *models.RankingOutcome) error {
	if o.ID == "" || strings.ContainsAny(o.ID, `/\`) {
		return fmt.Errorf("invalid outcome id %q", o.ID)
	}
	body, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("store: encode outcome %s: %w", o.ID, err)
	}

	sum := summarize(o)
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO outcomes (id, name, timestamp, weighting, alternatives, criteria, top, top_score, body)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.ID, sum.Name, sum.Timestamp.UTC().Format(time.RFC3339Nano), string(sum.Weighting),
		sum.Alternatives, sum.Criteria, sum.Top, sum.TopScore, string(body),
	)
	if err != nil {
		return fmt.Errorf("store: save outcome %s: %w", o.ID, err)
	}
	return nil
}

// Ensure SQLiteStore satisfies ResultStore.
var _ ResultStore = (*SQLiteStore)(nil)
