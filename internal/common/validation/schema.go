// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
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

// ValidateAgainst checks doc against a JSON schema held as a decoded map. An empty schema
// accepts everything. doc may be a Go value or raw JSON bytes.
func ValidateAgainst(schema map[string]interface{}, doc interface{}) (*ValidationResult, error) {
	if len(schema) == 0 {
		return &ValidationResult{Valid: true}, nil
	}

	var documentLoader gojsonschema.JSONLoader
	switch d := doc.(type) {
	case []byte:
		documentLoader = gojsonschema.NewBytesLoader(d)
	case string:
		documentLoader = gojsonschema.NewStringLoader(d)
	default:
		documentLoader = gojsonschema.NewGoLoader(d)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), documentLoader)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fieldName(desc),
			Message: desc.Description(),
			Code:    errorCode(desc.Type()),
		})
	}
	return out, nil
}

// fieldName reports the missing property for "required" errors, whose Field() is the parent.
func fieldName(desc gojsonschema.ResultError) string {
	if desc.Type() == "required" {
		if p, ok := desc.Details()["property"].(string); ok {
			switch {
			case desc.Field() == "(root)":
				return p
			case strings.HasSuffix(desc.Field(), p):
				return desc.Field()
			}
			return desc.Field() + "." + p
		}
	}
	return desc.Field()
}

var errorCodes = map[string]string{
	"required":                        "REQUIRED_FIELD_MISSING",
	"invalid_type":                    "INVALID_TYPE",
	"additional_property_not_allowed": "EXTRA_FIELD",
	"enum":                            "INVALID_ENUM_VALUE",
	"string_gte":                      "MIN_LENGTH_VIOLATION",
	"string_lte":                      "MAX_LENGTH_VIOLATION",
	"pattern":                         "PATTERN_MISMATCH",
	"number_gte":                      "MINIMUM_VIOLATION",
	"number_lte":                      "MAXIMUM_VIOLATION",
}

func errorCode(kind string) string {
	if code, ok := errorCodes[kind]; ok {
		return code
	}
	return strings.ToUpper(kind)
}

var activityNamePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// ValidateActivityNaming enforces kebab-case task types.
func ValidateActivityNaming(activityID string) error {
	if !activityNamePattern.MatchString(activityID) {
		return fmt.Errorf("activity id %q must be kebab-case", activityID)
	}
	return nil
}

func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		if e.Field == "" || e.Field == "(root)" {
			messages = append(messages, e.Message)
			continue
		}
		messages = append(messages, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, e := range vr.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Error joins all messages, for wrapping into an INVALID_REQUEST error.
func (vr *ValidationResult) Error() string {
	return strings.Join(vr.GetErrorMessages(), "; ")
}

// CompileSchema reports whether schema is itself a valid JSON schema.
func CompileSchema(schema map[string]interface{}) error {
	if len(schema) == 0 {
		return nil
	}
	if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema)); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	return nil
}
