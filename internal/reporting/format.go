// Package reporting renders rankings, analyses and sensitivity reports for
// terminals and files.
package reporting

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is an output format for a ranking.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// DefaultPrecision is the number of decimals scores are printed with.
const DefaultPrecision = 4

// Formats lists every supported format.
var Formats = []Format{FormatTable, FormatJSON, FormatCSV, FormatMarkdown, FormatHTML}

// ParseFormat parses a format name. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatCSV, FormatMarkdown, FormatHTML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unsupported format %q: must be one of table, json, csv, markdown, html", s)
}

// FormatFromPath picks a format from a file extension, ignoring a trailing
// .gz.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".gz" {
		ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(path, filepath.Ext(path))))
	}
	switch ext {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".txt":
		return FormatTable, nil
	}
	return "", fmt.Errorf("cannot infer output format from %q", path)
}

func precisionOrDefault(precision int) int {
	if precision < 0 {
		return DefaultPrecision
	}
	return precision
}

func formatScore(v float64, precision int) string {
	return fmt.Sprintf("%.*f", precisionOrDefault(precision), v)
}
