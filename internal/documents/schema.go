package documents

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var schemaFiles = map[Kind]string{
	KindResume:         "schemas/resume.schema.json",
	KindJobDescription: "schemas/job_description.schema.json",
}

var (
	compileOnce sync.Once
	compiled    map[Kind]*gojsonschema.Schema
	compileErr  error
)

// FieldError is a single schema violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SchemaValidationError lists every field path that violated the schema.
type SchemaValidationError struct {
	Kind   Kind
	Fields []FieldError
}

func (e *SchemaValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s failed schema validation:", e.Kind)
	for _, f := range e.Fields {
		fmt.Fprintf(&sb, " %s: %s;", f.Field, f.Message)
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// Paths returns the offending field paths in report order.
func (e *SchemaValidationError) Paths() []string {
	paths := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		paths = append(paths, f.Field)
	}
	return paths
}

// SchemaLoadError means an embedded schema could not be compiled.
type SchemaLoadError struct {
	Path  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("load schema %s: %v", e.Path, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error { return e.Cause }

func compileSchemas() {
	compiled = make(map[Kind]*gojsonschema.Schema, len(schemaFiles))
	for kind, path := range schemaFiles {
		data, err := schemaFS.ReadFile(path)
		if err != nil {
			compileErr = &SchemaLoadError{Path: path, Cause: err}
			return
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			compileErr = &SchemaLoadError{Path: path, Cause: err}
			return
		}
		compiled[kind] = schema
	}
}

func schemaFor(kind Kind) (*gojsonschema.Schema, error) {
	compileOnce.Do(compileSchemas)
	if compileErr != nil {
		return nil, compileErr
	}
	schema, ok := compiled[kind]
	if !ok {
		return nil, fmt.Errorf("no schema for document kind %q", kind)
	}
	return schema, nil
}

// Schema returns the raw JSON schema for kind. Prompts embed it verbatim.
func Schema(kind Kind) (string, error) {
	path, ok := schemaFiles[kind]
	if !ok {
		return "", fmt.Errorf("no schema for document kind %q", kind)
	}
	data, err := schemaFS.ReadFile(path)
	if err != nil {
		return "", &SchemaLoadError{Path: path, Cause: err}
	}
	return string(data), nil
}

// Validate checks raw JSON against the schema of kind.
func Validate(kind Kind, raw []byte) error {
	schema, err := schemaFor(kind)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validate %s: %w", kind, err)
	}
	if result.Valid() {
		return nil
	}

	verr := &SchemaValidationError{Kind: kind, Fields: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Fields = append(verr.Fields, FieldError{Field: field, Message: desc.Description()})
	}
	sort.SliceStable(verr.Fields, func(i, j int) bool { return verr.Fields[i].Field < verr.Fields[j].Field })

	return verr
}

// ParseResume validates raw and decodes it into a Resume.
func ParseResume(raw []byte) (*Resume, error) {
	if err := Validate(KindResume, raw); err != nil {
		return nil, err
	}
	var resume Resume
	if err := json.Unmarshal(raw, &resume); err != nil {
		return nil, fmt.Errorf("decode resume: %w", err)
	}
	return &resume, nil
}

// ParseJobDescription validates raw and decodes it into a JobDescription.
func ParseJobDescription(raw []byte) (*JobDescription, error) {
	if err := Validate(KindJobDescription, raw); err != nil {
		return nil, err
	}
	var job JobDescription
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("decode job description: %w", err)
	}
	return &job, nil
}
