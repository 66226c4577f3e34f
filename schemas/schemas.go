// Package schemas embeds the JSON Schemas for topsis input files.
package schemas

import _ "embed"

// ProblemSchemaJSON is the JSON Schema for decision problem files.
//
//go:embed problem.schema.json
var ProblemSchemaJSON string
