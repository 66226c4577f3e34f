package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spboyer/topsis/internal/dataset"
	"github.com/spboyer/topsis/internal/validation"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <problem> [problem ...]",
		Short: "Check problem files against the schema and ranking rules",
		Long: `Check problem files without ranking them.

YAML and JSON problems are checked against the problem schema first. Every
problem is then checked for the conditions ranking needs: a rectangular
matrix, finite values, non-negative weights with a positive sum and no
all-zero criterion column.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			invalid := 0
			for _, path := range args {
				errs, err := validateProblemFile(path)
				if err != nil {
					return err
				}
				if len(errs) == 0 {
					fmt.Fprintf(out, "✓ %s\n", path)
					continue
				}
				invalid++
				fmt.Fprintf(out, "✗ %s\n", path)
				for _, e := range errs {
					fmt.Fprintf(out, "    - %s\n", e)
				}
			}
			if invalid > 0 {
				return inputErrorf("%d of %d problem(s) failed validation", invalid, len(args))
			}
			return nil
		},
	}
}

// validateProblemFile returns the problems found in the file. The error is
// non-nil only when the file cannot be read.
func validateProblemFile(path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		p, err := dataset.LoadProblemCSV(path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err != nil {
			return []string{err.Error()}, nil
		}
		return validation.ValidateProblem(p), nil
	}
	return validation.ValidateProblemFile(path)
}
