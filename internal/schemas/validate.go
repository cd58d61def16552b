// Package schemas validates backend response bodies against embedded JSON Schemas
// before they are decoded into typed values.
package schemas

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed files/*.schema.json
var schemaFS embed.FS

// Schema names bundled with the package.
const (
	ScoreReport        = "score_report"
	VerificationStatus = "verification_status"
)

// ErrInvalidJSON is returned when the document is not JSON at all.
var ErrInvalidJSON = errors.New("document is not valid JSON")

// ValidationError lists every rule the document broke.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

// FieldError is one failed rule at a field path; "(root)" for the top level.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	parts := make([]string, 0, len(ve.Errors))
	for _, e := range ve.Errors {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return fmt.Sprintf("%s does not match schema: %s", ve.Schema, strings.Join(parts, "; "))
}

// Fields returns the failing field paths, in order.
func (ve *ValidationError) Fields() []string {
	fields := make([]string, 0, len(ve.Errors))
	for _, e := range ve.Errors {
		fields = append(fields, e.Field)
	}
	return fields
}

// SchemaLoadError means a bundled schema is missing or does not compile.
type SchemaLoadError struct {
	Schema string
	Cause  error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("load schema %s: %v", e.Schema, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

var (
	mu       sync.Mutex
	compiled = map[string]*gojsonschema.Schema{}
)

// load compiles a bundled schema once and caches it.
func load(name string) (*gojsonschema.Schema, error) {
	mu.Lock()
	defer mu.Unlock()

	if s, ok := compiled[name]; ok {
		return s, nil
	}
	raw, err := schemaFS.ReadFile("files/" + name + ".schema.json")
	if err != nil {
		return nil, &SchemaLoadError{Schema: name, Cause: err}
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &SchemaLoadError{Schema: name, Cause: err}
	}
	compiled[name] = s
	return s, nil
}

// Validate checks a JSON document against one of the bundled schemas. It
// returns ErrInvalidJSON, a *SchemaLoadError or a *ValidationError.
func Validate(name string, document []byte) error {
	schema, err := load(name)
	if err != nil {
		return err
	}
	if !json.Valid(document) {
		return fmt.Errorf("%s: %w", name, ErrInvalidJSON)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Schema: name}
	for _, desc := range result.Errors() {
		ve.Errors = append(ve.Errors, FieldError{Field: desc.Field(), Message: desc.Description()})
	}
	return ve
}
