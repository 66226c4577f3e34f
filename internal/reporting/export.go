package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/spboyer/topsis/internal/dataset"
	"github.com/spboyer/topsis/internal/models"
)

// Export writes o to w in the given format.
func Export(w io.Writer, o *models.RankingOutcome, format Format, precision int) error {
	switch format {
	case FormatTable:
		return WriteTable(w, o, precision)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(o)
	case FormatCSV:
		return dataset.WriteOutcomeCSV(w, o, precisionOrDefault(precision))
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(o, precision))
		return err
	case FormatHTML:
		page, err := HTML(o, precision)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, page)
		return err
	}
	return fmt.Errorf("unsupported format %q", format)
}

// WriteFile exports o to path. An empty format is inferred from the
// extension, and paths ending in .gz are gzip-compressed.
func WriteFile(path string, o *models.RankingOutcome, format Format, precision int) (err error) {
	if format == "" {
		if format, err = FormatFromPath(path); err != nil {
			return err
		}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if !strings.EqualFold(filepath.Ext(path), ".gz") {
		return Export(f, o, format, precision)
	}
	zw := gzip.NewWriter(f)
	if err := Export(zw, o, format, precision); err != nil {
		zw.Close() //nolint:errcheck
		return err
	}
	return zw.Close()
}
