package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spboyer/topsis/internal/models"
	"github.com/spboyer/topsis/internal/wizard"
	"github.com/spf13/cobra"
)

func newNewCommand() *cobra.Command {
	var useDefaults bool
	var outputDir string
	var force bool

	cmd := &cobra.Command{
		Use:   "new [name]",
		Short: "Create a problem file interactively",
		Long: `Create a new problem file.

Runs an interactive form asking for the alternatives, the criteria with their
weights and types, and the decision matrix, then writes <name>.yaml. With
--defaults the form is skipped and a template with two alternatives and three
criteria is written instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}

			var p *models.Problem
			if useDefaults {
				p = models.DefaultProblem()
				p.Name = name
			} else {
				var err error
				p, err = wizard.RunProblemWizard(cmd.InOrStdin(), cmd.OutOrStdout(), name)
				if err != nil {
					return err
				}
			}

			content, err := wizard.GenerateProblemYAML(p)
			if err != nil {
				return err
			}

			fileName := problemFileName(name)
			if fileName == "" {
				fileName = problemFileName(p.Name)
			}
			if fileName == "" {
				fileName = "problem.yaml"
			}
			dest := filepath.Join(outputDir, fileName)

			if !force {
				if _, err := os.Stat(dest); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", dest)
				} else if !errors.Is(err, os.ErrNotExist) {
					return err
				}
			}
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", dest, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", dest)
			return nil
		},
	}

	cmd.Flags().BoolVar(&useDefaults, "defaults", false, "Skip the form and write the default template")
	cmd.Flags().StringVarP(&outputDir, "dir", "d", ".", "Directory to write the problem file to")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}

var fileNameUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// problemFileName turns a problem name into a .yaml file name. Names that
// already end in .yaml or .yml are kept.
func problemFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if ext := strings.ToLower(filepath.Ext(name)); ext == ".yaml" || ext == ".yml" {
		return filepath.Base(name)
	}
	slug := strings.Trim(fileNameUnsafe.ReplaceAllString(name, "-"), "-.")
	if slug == "" {
		return ""
	}
	return slug + ".yaml"
}
