package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"deal-workers/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// JSONSchema defines the structure for input/output schemas
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties"`
}

type Property struct {
	Type        interface{}         `json:"type,omitempty"` // string or []string, e.g. {"number","null"}
	Description string              `json:"description,omitempty"`
	Format      string              `json:"format,omitempty"`
	Minimum     *float64            `json:"minimum,omitempty"`
	Maximum     *float64            `json:"maximum,omitempty"`
	Enum        []interface{}       `json:"enum,omitempty"`
	Pattern     *string             `json:"pattern,omitempty"`
	MinLength   *int                `json:"minLength,omitempty"`
	MaxLength   *int                `json:"maxLength,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator is a compiled schema, safe for concurrent use.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles schema once for repeated validation.
func NewValidator(schema JSONSchema) (*Validator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// MustValidator panics on an invalid schema. Intended for package-level schemas.
func MustValidator(schema JSONSchema) *Validator {
	v, err := NewValidator(schema)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks any JSON-compatible document.
func (v *Validator) Validate(document interface{}) *ValidationResult {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "INVALID_DOCUMENT"}},
		}
	}
	return toResult(result)
}

// ValidateInput validates job variables against schema.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	v, err := NewValidator(schema)
	if err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "(schema)", Message: err.Error(), Code: "INVALID_SCHEMA"}},
		}
	}
	return v.Validate(input)
}

var errorCodes = map[string]string{
	"required":                        "REQUIRED_FIELD_MISSING",
	"invalid_type":                    "INVALID_TYPE",
	"enum":                            "INVALID_ENUM_VALUE",
	"additional_property_not_allowed": "EXTRA_FIELD",
	"number_gte":                      "MINIMUM_VIOLATION",
	"number_gt":                       "MINIMUM_VIOLATION",
	"number_lte":                      "MAXIMUM_VIOLATION",
	"number_lt":                       "MAXIMUM_VIOLATION",
	"string_gte":                      "MIN_LENGTH_VIOLATION",
	"string_lte":                      "MAX_LENGTH_VIOLATION",
	"pattern":                         "PATTERN_MISMATCH",
	"format":                          "INVALID_FORMAT",
}

func toResult(result *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		code, ok := errorCodes[desc.Type()]
		if !ok {
			code = strings.ToUpper(desc.Type())
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   fieldPath(desc),
			Message: desc.Description(),
			Code:    code,
		})
	}
	return out
}

// fieldPath names the offending property. Required and additional-property
// errors are reported against the parent object, so the property is appended.
func fieldPath(desc gojsonschema.ResultError) string {
	field := desc.Field()
	prop, ok := desc.Details()["property"].(string)
	if !ok || prop == "" {
		return field
	}
	if field == "(root)" || field == "" {
		return prop
	}
	return field + "." + prop
}

// GetSchemaFromJSON parses JSON schema from string
func GetSchemaFromJSON(schemaJSON string) (JSONSchema, error) {
	var schema JSONSchema
	err := json.Unmarshal([]byte(schemaJSON), &schema)
	return schema, err
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a field and its nested children.
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}

// Float is a helper for schema bounds.
func Float(v float64) *float64 { return &v }

// Int is a helper for schema lengths.
func Int(v int) *int { return &v }

// FieldErrors converts the result into the per-field entries of a
// VALIDATION_FAILED error.
func (vr *ValidationResult) FieldErrors() []errors.FieldError {
	fields := make([]errors.FieldError, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		fields = append(fields, errors.FieldError{Field: e.Field, Code: e.Code, Message: e.Message})
	}
	return fields
}

// DateLayout is the calendar-date form used in job variables.
const DateLayout = "2006-01-02"

// ParseDate reads a YYYY-MM-DD value as midnight UTC. Empty yields nil.
func ParseDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("%s: expected YYYY-MM-DD, got %q", field, value)
	}
	return &t, nil
}

// FormatDate is the inverse of ParseDate. Nil yields "".
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
