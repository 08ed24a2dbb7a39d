package services

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema is a compiled JSON schema guarding one side of a flow.
type Schema struct {
	name     string
	raw      []byte
	compiled *gojsonschema.Schema
}

// ValidationError lists the schema violations of a document.
type ValidationError struct {
	Schema     string
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("document does not match %s schema: %s", e.Schema, strings.Join(e.Violations, "; "))
}

// LoadSchema compiles the embedded schema schemas/<name>.json.
func LoadSchema(name string) (*Schema, error) {
	raw, err := schemaFS.ReadFile("schemas/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
	}
	return NewSchema(name, raw)
}

// NewSchema compiles raw as a JSON schema.
func NewSchema(name string, raw []byte) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	return &Schema{name: name, raw: raw, compiled: compiled}, nil
}

func mustLoadSchema(name string) *Schema {
	s, err := LoadSchema(name)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Name() string { return s.name }

// Raw returns the schema document, used to describe the expected shape to
// the model.
func (s *Schema) Raw() []byte { return s.raw }

// ValidateValue checks a Go value through its JSON encoding.
func (s *Schema) ValidateValue(v any) error {
	return s.validate(gojsonschema.NewGoLoader(v))
}

// ValidateJSON checks a raw JSON document.
func (s *Schema) ValidateJSON(raw []byte) error {
	if !json.Valid(raw) {
		return &ValidationError{Schema: s.name, Violations: []string{"response is not valid JSON"}}
	}
	return s.validate(gojsonschema.NewBytesLoader(raw))
}

func (s *Schema) validate(doc gojsonschema.JSONLoader) error {
	res, err := s.compiled.Validate(doc)
	if err != nil {
		return &ValidationError{Schema: s.name, Violations: []string{err.Error()}}
	}
	if res.Valid() {
		return nil
	}

	violations := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		violations = append(violations, e.String())
	}
	return &ValidationError{Schema: s.name, Violations: violations}
}

// Parse validates raw against s and decodes it into T.
func Parse[T any](s *Schema, raw []byte) (T, error) {
	var out T
	if err := s.ValidateJSON(raw); err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &ValidationError{Schema: s.name, Violations: []string{err.Error()}}
	}
	return out, nil
}
