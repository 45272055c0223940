package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "adoption-review/internal/common/errors"
)

// ValidationResult is the outcome of validating one document.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError is one schema violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Err converts an invalid result into a VALIDATION_ERROR.
func (r *ValidationResult) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Field + ": " + e.Message
	}
	return apperrors.NewValidationError(strings.Join(msgs, "; ")).
		WithMetadata("fields", r.fields())
}

func (r *ValidationResult) fields() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Field)
	}
	return out
}

// Schema is a compiled JSON schema.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile compiles a schema given as a Go map.
func Compile(name string, def map[string]interface{}) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, schema: s}, nil
}

// MustCompile is Compile for package-level schemas.
func MustCompile(name string, def map[string]interface{}) *Schema {
	s, err := Compile(name, def)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string {
	return s.name
}

// Validate checks doc, which may be any value encodable as JSON.
func (s *Schema) Validate(doc interface{}) *ValidationResult {
	res, err := s.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   s.name,
			Message: err.Error(),
			Code:    "INVALID_DOCUMENT",
		}}}
	}
	if res.Valid() {
		return &ValidationResult{Valid: true}
	}

	errs := make([]ValidationError, 0, len(res.Errors()))
	for _, desc := range res.Errors() {
		errs = append(errs, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return &ValidationResult{Errors: errs}
}

// ValidateInput validates input against schema and returns a VALIDATION_ERROR
// describing every violation.
func ValidateInput(input interface{}, schema *Schema) error {
	return schema.Validate(input).Err()
}

// ValidateJSON validates raw JSON, such as job variables, against schema.
func ValidateJSON(raw string, schema *Schema) error {
	res, err := schema.schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("invalid JSON: %v", err))
	}
	if res.Valid() {
		return nil
	}
	out := &ValidationResult{}
	for _, desc := range res.Errors() {
		out.Errors = append(out.Errors, ValidationError{Field: desc.Field(), Message: desc.Description(), Code: strings.ToUpper(desc.Type())})
	}
	return out.Err()
}
