package validation

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

// Schema names for upstream response envelopes.
const (
	SchemaOrganizations = "organizations"
	SchemaEvents        = "events"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator holds compiled JSON schemas keyed by name.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewValidator compiles every embedded schema.
func NewValidator() (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema)}
	for _, name := range []string{SchemaOrganizations, SchemaEvents} {
		raw, err := schemaFiles.ReadFile("schemas/" + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
		}
		if err := v.Register(name, raw); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Register compiles and stores a schema under name.
func (v *Validator) Register(name string, schemaJSON []byte) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	v.schemas[name] = schema
	return nil
}

// Validate checks a raw JSON document against the named schema.
// Bodies that are not JSON come back as a single INVALID_JSON error.
func (v *Validator) Validate(name string, document []byte) (*ValidationResult, error) {
	schema, ok := v.schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema: %s", name)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "INVALID_JSON"}},
		}, nil
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}, nil
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return &ValidationResult{Valid: false, Errors: errs}, nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// Summary joins the messages, truncated to the first few.
func (vr *ValidationResult) Summary() string {
	msgs := vr.GetErrorMessages()
	if len(msgs) > 3 {
		msgs = append(msgs[:3], fmt.Sprintf("and %d more", len(vr.Errors)-3))
	}
	return strings.Join(msgs, "; ")
}
