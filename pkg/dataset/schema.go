package dataset

import (
	"embed"
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Kind names one of the input datasets.
type Kind string

// Dataset kinds.
const (
	KindCasualties  Kind = "casualties"
	KindBenchmarks  Kind = "benchmarks"
	KindAnnotations Kind = "annotations"
)

// Sentinel errors for schema validation.
var (
	ErrUnknownKind    = errors.New("unknown dataset kind")
	ErrSchemaMismatch = errors.New("dataset does not match schema")
)

// Kinds lists every dataset kind.
func Kinds() []Kind {
	return []Kind{KindCasualties, KindBenchmarks, KindAnnotations}
}

// ParseKind converts a dataset kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Schema returns the embedded JSON schema for kind.
func Schema(kind Kind) ([]byte, error) {
	data, err := schemaFS.ReadFile("schemas/" + string(kind) + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	return data, nil
}

// Issue is one schema violation.
type Issue struct {
	Field       string `json:"field" yaml:"field"`
	Description string `json:"description" yaml:"description"`
}

// ValidationReport is the outcome of validating a dataset.
type ValidationReport struct {
	Kind   Kind    `json:"kind" yaml:"kind"`
	Valid  bool    `json:"valid" yaml:"valid"`
	Issues []Issue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// Err returns nil for a valid report, otherwise an error wrapping
// ErrSchemaMismatch that names the first issue.
func (r *ValidationReport) Err() error {
	if r.Valid {
		return nil
	}

	if len(r.Issues) == 0 {
		return fmt.Errorf("%w: %s", ErrSchemaMismatch, r.Kind)
	}

	first := r.Issues[0]

	return fmt.Errorf("%w: %s: %s: %s (%d issues)",
		ErrSchemaMismatch, r.Kind, first.Field, first.Description, len(r.Issues))
}

// Validate checks data against the embedded schema of kind. Malformed JSON is
// returned as an error; schema violations are reported in the report.
func Validate(kind Kind, data []byte) (*ValidationReport, error) {
	schema, err := Schema(kind)
	if err != nil {
		return nil, err
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", kind, err)
	}

	report := &ValidationReport{Kind: kind, Valid: result.Valid()}

	for _, verr := range result.Errors() {
		report.Issues = append(report.Issues, Issue{Field: verr.Field(), Description: verr.Description()})
	}

	return report, nil
}
