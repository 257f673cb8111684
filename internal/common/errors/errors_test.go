// internal/common/errors/errors_test.go
package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoFounders = Sentinel(ErrCodeNoEligibleFounders)

func TestFromError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      ErrorCode
		retryable bool
	}{
		{
			name: "wrapped sentinel keeps its code",
			err:  fmt.Errorf("batch: %w", errNoFounders),
			code: ErrCodeNoEligibleFounders,
		},
		{
			name:      "retryable storage sentinel",
			err:       fmt.Errorf("upsert f-1: %w: connection reset", Sentinel(ErrCodeMatchUpsertFailed)),
			code:      ErrCodeMatchUpsertFailed,
			retryable: true,
		},
		{
			name: "standard error passes through",
			err:  NewInvalidRequestError("founderId must be a string"),
			code: ErrCodeInvalidRequest,
		},
		{
			name: "plain error is internal",
			err:  fmt.Errorf("something odd"),
			code: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			std := FromError(tt.err)
			require.NotNil(t, std)
			assert.Equal(t, tt.code, std.Code)
			assert.Equal(t, tt.retryable, std.Retryable)
			assert.NotEmpty(t, std.Message)
		})
	}

	assert.Nil(t, FromError(nil))
}

func TestConvertToBPMNError(t *testing.T) {
	bpmn := ConvertToBPMNError(New(ErrCodeProfileQueryFailed, "timeout"))
	assert.Equal(t, "PROFILE_QUERY_FAILED", bpmn.Code)
	assert.Equal(t, 3, bpmn.Retries)
	assert.True(t, bpmn.Retryable)

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "PROFILE_QUERY_FAILED", vars["errorCode"])
	assert.Equal(t, "PROFILE_QUERY_FAILED", vars["originalErrorCode"])

	business := ConvertToBPMNError(New(ErrCodeDuplicateAssignment, "f-1/a-1"))
	assert.Equal(t, 0, business.Retries)
	assert.False(t, business.Retryable)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code   ErrorCode
		status int
	}{
		{ErrCodeMissingIdentifiers, http.StatusBadRequest},
		{ErrCodeInvalidRequest, http.StatusBadRequest},
		{ErrCodeNoEligibleFounders, http.StatusNotFound},
		{ErrCodeNoEligibleAdvisors, http.StatusNotFound},
		{ErrCodeProfileNotFound, http.StatusNotFound},
		{ErrCodeDuplicateAssignment, http.StatusConflict},
		{ErrCodeBatchInProgress, http.StatusConflict},
		{ErrCodeMatchUpsertFailed, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.code))
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeMissingIdentifiers))
	assert.Equal(t, "ELIGIBILITY", GetErrorCategory(ErrCodeNoEligibleAdvisors))
	assert.Equal(t, "SCORING", GetErrorCategory(ErrCodeScoringFailed))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeMatchUpsertFailed))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeAssignmentInsertFailed))
	assert.Equal(t, "ASSIGNMENT", GetErrorCategory(ErrCodeDuplicateAssignment))
}

func TestAs(t *testing.T) {
	sentinel := Sentinel(ErrCodeDuplicateAssignment)

	std, ok := As(fmt.Errorf("pair f-1/a-1: %w", sentinel))
	assert.True(t, ok)
	assert.Equal(t, ErrCodeDuplicateAssignment, std.Code)

	_, ok = As(fmt.Errorf("plain failure"))
	assert.False(t, ok)

	_, ok = As(nil)
	assert.False(t, ok)
}

func TestIsKnownCode(t *testing.T) {
	assert.True(t, IsKnownCode(ErrCodeDuplicateAssignment))
	assert.True(t, IsKnownCode(ErrCodeInternal))
	assert.False(t, IsKnownCode(ErrorCode("SOMETHING_ELSE")))
}
