// Package validation checks decision problem files against the embedded JSON
// Schema and the ranking preconditions.
package validation

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spboyer/topsis/internal/models"
	"github.com/spboyer/topsis/schemas"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// problemSchema is the compiled JSON Schema for problem files.
var problemSchema = mustCompileSchema(schemas.ProblemSchemaJSON, "problem.schema.json")

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// ValidateProblemFile validates a YAML or JSON problem file.
// The error is non-nil only when the file cannot be read.
func ValidateProblemFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading problem file: %w", err)
	}
	return ValidateProblemBytes(data), nil
}

// ValidateProblemBytes validates a YAML or JSON problem document. Schema
// violations are reported first; when the document matches the schema it is
// decoded and checked for ranking preconditions (shape, weights, zero
// columns). An empty result means the problem can be ranked.
func ValidateProblemBytes(data []byte) []string {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []string{fmt.Sprintf("YAML parse error: %v", err)}
	}

	if errs := validateAgainstSchema(problemSchema, doc); len(errs) > 0 {
		return errs
	}

	// The schema guarantees a mapping at this point.
	p, err := models.DecodeProblem(doc.(map[string]any))
	if err != nil {
		return []string{fmt.Sprintf("decode: %v", err)}
	}
	return ValidateProblem(p)
}

// ValidateProblem checks an already decoded problem.
func ValidateProblem(p *models.Problem) []string {
	if err := p.Validate(); err != nil {
		return []string{err.Error()}
	}
	return nil
}

func validateAgainstSchema(schema *jsonschema.Schema, instance any) []string {
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}
