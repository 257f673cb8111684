// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var assignmentSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"founderId", "assignedBy"},
	"properties": map[string]interface{}{
		"founderId":  map[string]interface{}{"type": "string", "minLength": 1},
		"assignedBy": map[string]interface{}{"type": "string"},
		"manual":     map[string]interface{}{"type": "boolean"},
	},
}

func TestValidateAgainst(t *testing.T) {
	tests := []struct {
		name      string
		doc       interface{}
		valid     bool
		errorCode string
		field     string
	}{
		{
			name:  "valid map",
			doc:   map[string]interface{}{"founderId": "f-1", "assignedBy": "ops"},
			valid: true,
		},
		{
			name:  "valid raw json",
			doc:   []byte(`{"founderId":"f-1","assignedBy":"ops","manual":true}`),
			valid: true,
		},
		{
			name:      "missing required",
			doc:       map[string]interface{}{"founderId": "f-1"},
			errorCode: "REQUIRED_FIELD_MISSING",
			field:     "assignedBy",
		},
		{
			name:      "wrong type",
			doc:       `{"founderId":"f-1","assignedBy":"ops","manual":"yes"}`,
			errorCode: "INVALID_TYPE",
			field:     "manual",
		},
		{
			name:      "empty string",
			doc:       map[string]interface{}{"founderId": "", "assignedBy": "ops"},
			errorCode: "MIN_LENGTH_VIOLATION",
			field:     "founderId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ValidateAgainst(assignmentSchema, tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.valid {
				assert.Empty(t, res.Errors)
				return
			}
			require.NotEmpty(t, res.Errors)
			assert.Equal(t, tt.errorCode, res.Errors[0].Code)
			assert.True(t, res.HasErrors(tt.field), "errors: %v", res.Errors)
			assert.NotEmpty(t, res.Error())
		})
	}
}

func TestValidateAgainst_EmptySchema(t *testing.T) {
	res, err := ValidateAgainst(nil, map[string]interface{}{"anything": 1})
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidateAgainst_MalformedDocument(t *testing.T) {
	_, err := ValidateAgainst(assignmentSchema, []byte(`{broken`))
	assert.Error(t, err)
}

func TestValidateActivityNaming(t *testing.T) {
	assert.NoError(t, ValidateActivityNaming("calculate-advisor-matches"))
	assert.Error(t, ValidateActivityNaming("CalculateMatches"))
	assert.Error(t, ValidateActivityNaming("calculate_matches"))
	assert.Error(t, ValidateActivityNaming("-leading"))
}

func TestCompileSchema(t *testing.T) {
	assert.NoError(t, CompileSchema(nil))
	assert.NoError(t, CompileSchema(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"founderId"},
	}))
	assert.Error(t, CompileSchema(map[string]interface{}{"type": 42}))
}
