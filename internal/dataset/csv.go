// Package dataset reads decision matrices from CSV and exports rankings
// together with their inputs.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spboyer/topsis/internal/models"
	"github.com/spboyer/topsis/internal/topsis"
)

// Directive rows may appear between the header and the alternatives.
const (
	TypeDirective   = "@type"
	WeightDirective = "@weight"
)

// LoadProblem reads a problem from path, choosing the decoder by extension:
// .csv files are read as a decision matrix, anything else as YAML or JSON.
func LoadProblem(path string) (*models.Problem, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return LoadProblemCSV(path)
	}
	return models.LoadProblem(path)
}

// LoadProblemCSV reads a decision matrix CSV file. See ReadProblemCSV for
// the layout. The problem is named after the file.
func LoadProblemCSV(path string) (*models.Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	p, err := ReadProblemCSV(f)
	if err != nil {
		return nil, fmt.Errorf("csv: %s: %w", path, err)
	}
	p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return p, nil
}

// ReadProblemCSV parses a decision matrix:
//
//	alternative,Price,Storage
//	@type,cost,benefit
//	@weight,0.5,0.5
//	A1,250,16
//	A2,200,32
//
// The first column holds alternative names and the header names the
// criteria. The @type and @weight rows are optional and default to benefit
// and 1. Every value must parse as a number.
func ReadProblemCSV(r io.Reader) (*models.Problem, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty (no header row)")
	}

	header := records[0]
	if len(header) < 2 {
		return nil, fmt.Errorf("header needs an alternative column and at least one criterion, got %d columns", len(header))
	}

	criteria := make([]string, len(header)-1)
	for j, h := range header[1:] {
		criteria[j] = strings.TrimSpace(h)
	}

	var alternatives []string
	var matrix [][]float64
	p := models.NewProblem(nil, criteria)

	for i, record := range records[1:] {
		line := i + 2
		key := strings.TrimSpace(record[0])
		cells := record[1:]

		switch strings.ToLower(key) {
		case TypeDirective:
			for j, cell := range cells {
				d, err := topsis.ParseDirection(cell)
				if err != nil {
					return nil, fmt.Errorf("row %d, column %q: %w", line, criteria[j], err)
				}
				p.Criteria[j].Type = d
			}
		case WeightDirective:
			for j, cell := range cells {
				w, err := parseNumber(cell)
				if err != nil {
					return nil, fmt.Errorf("row %d, column %q: weight: %w", line, criteria[j], err)
				}
				p.Criteria[j].Weight = w
			}
		default:
			row := make([]float64, len(cells))
			for j, cell := range cells {
				v, err := parseNumber(cell)
				if err != nil {
					return nil, fmt.Errorf("row %d (%s), column %q: %w", line, key, criteria[j], err)
				}
				row[j] = v
			}
			alternatives = append(alternatives, key)
			matrix = append(matrix, row)
		}
	}

	p.Alternatives = alternatives
	p.Matrix = matrix
	return p, nil
}

func parseNumber(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}

// WriteOutcomeCSV exports a ranking with the original criterion values of
// each alternative, best first:
//
//	rank,alternative,score,Price,Storage
func WriteOutcomeCSV(w io.Writer, o *models.RankingOutcome, precision int) error {
	cw := csv.NewWriter(w)

	var criteria []string
	if o.Problem != nil {
		criteria = o.Problem.CriterionNames()
	}
	header := append([]string{"rank", "alternative", "score"}, criteria...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range o.Results {
		record := []string{
			strconv.Itoa(r.Rank),
			r.Alternative,
			strconv.FormatFloat(r.Score, 'f', precision, 64),
		}
		if o.Problem != nil && r.Index >= 0 && r.Index < len(o.Problem.Matrix) {
			for _, v := range o.Problem.Matrix[r.Index] {
				record = append(record, strconv.FormatFloat(v, 'f', -1, 64))
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
