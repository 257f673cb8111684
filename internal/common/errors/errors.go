// Package errors provides standardized error handling for BPMN workflow and HTTP integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Input errors
const (
	ErrCodeMissingIdentifiers ErrorCode = "MISSING_IDENTIFIERS"
	ErrCodeInvalidRequest     ErrorCode = "INVALID_REQUEST"
)

// Eligibility errors
const (
	ErrCodeNoEligibleFounders ErrorCode = "NO_ELIGIBLE_FOUNDERS"
	ErrCodeNoEligibleAdvisors ErrorCode = "NO_ELIGIBLE_ADVISORS"
	ErrCodeProfileNotFound    ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeProfileMissing     ErrorCode = "PROFILE_MISSING"
)

// Scoring and storage errors
const (
	ErrCodeScoringFailed      ErrorCode = "SCORING_FAILED"
	ErrCodeMatchUpsertFailed  ErrorCode = "MATCH_UPSERT_FAILED"
	ErrCodeProfileQueryFailed ErrorCode = "PROFILE_QUERY_FAILED"
	ErrCodeBatchCancelled     ErrorCode = "BATCH_CANCELLED"
	ErrCodeBatchInProgress    ErrorCode = "BATCH_IN_PROGRESS"
)

// Assignment errors
const (
	ErrCodeDuplicateAssignment    ErrorCode = "DUPLICATE_ASSIGNMENT"
	ErrCodeAssignmentInsertFailed ErrorCode = "ASSIGNMENT_INSERT_FAILED"
)

const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// CodedError is a sentinel carrying an ErrorCode. Packages declare their sentinels with
// Sentinel and wrap them with %w; FromError recovers the code at the edge.
type CodedError struct {
	code ErrorCode
}

func (e *CodedError) Error() string { return string(e.code) }

func (e *CodedError) Code() ErrorCode { return e.code }

func Sentinel(code ErrorCode) *CodedError {
	return &CodedError{code: code}
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

var messages = map[ErrorCode]string{
	ErrCodeMissingIdentifiers:     "founderId is required unless batchMode is set",
	ErrCodeInvalidRequest:         "Request payload is invalid",
	ErrCodeNoEligibleFounders:     "No eligible founders found",
	ErrCodeNoEligibleAdvisors:     "No eligible advisors found",
	ErrCodeProfileNotFound:        "Founder or advisor not found",
	ErrCodeProfileMissing:         "Profile record is missing",
	ErrCodeScoringFailed:          "Match scoring failed",
	ErrCodeMatchUpsertFailed:      "Failed to persist match results",
	ErrCodeProfileQueryFailed:     "Failed to load profiles",
	ErrCodeBatchCancelled:         "Batch run was cancelled",
	ErrCodeBatchInProgress:        "A batch run is already in progress",
	ErrCodeDuplicateAssignment:    "An active assignment already exists for this pair",
	ErrCodeAssignmentInsertFailed: "Failed to create assignment",
	ErrCodeInternal:               "Unexpected error",
}

// New builds a StandardError for code; retryability follows the retry table.
func New(code ErrorCode, details string) *StandardError {
	msg, ok := messages[code]
	if !ok {
		msg = string(code)
	}
	return &StandardError{
		Code:      code,
		Message:   msg,
		Details:   details,
		Retryable: IsRetryableErrorCode(code),
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError creates a non-retryable input validation error.
func NewInvalidRequestError(details string) *StandardError {
	return New(ErrCodeInvalidRequest, details)
}

// NewMissingIdentifiersError creates a non-retryable input error.
func NewMissingIdentifiersError(details string) *StandardError {
	return New(ErrCodeMissingIdentifiers, details)
}

// FromError normalizes any error into a StandardError. Wrapped sentinels keep their
// code; anything else becomes INTERNAL_ERROR.
func FromError(err error) *StandardError {
	if err == nil {
		return nil
	}

	var std *StandardError
	if stderrors.As(err, &std) {
		return std
	}

	var coded *CodedError
	if stderrors.As(err, &coded) {
		return New(coded.Code(), err.Error())
	}

	return New(ErrCodeInternal, err.Error())
}

// As is FromError for callers that only want to act on coded errors.
func As(err error) (*StandardError, bool) {
	if err == nil {
		return nil, false
	}
	var std *StandardError
	var coded *CodedError
	if !stderrors.As(err, &std) && !stderrors.As(err, &coded) {
		return nil, false
	}
	return FromError(err), true
}

// ==========================
// 4. Error Conversion to BPMN / HTTP
// ==========================

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProfileQueryFailed,
		ErrCodeMatchUpsertFailed,
		ErrCodeAssignmentInsertFailed:
		return 3 // Retryable technical errors

	case ErrCodeScoringFailed:
		return 1

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// HTTPStatus maps an error code to the API response status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeMissingIdentifiers, ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeNoEligibleFounders, ErrCodeNoEligibleAdvisors, ErrCodeProfileNotFound, ErrCodeProfileMissing:
		return http.StatusNotFound
	case ErrCodeDuplicateAssignment, ErrCodeBatchInProgress:
		return http.StatusConflict
	case ErrCodeBatchCancelled:
		return http.StatusAccepted
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsKnownCode reports whether code is one of the codes declared above.
func IsKnownCode(code ErrorCode) bool {
	_, ok := messages[code]
	return ok
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "IDENTIFIERS") || strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "ELIGIBLE") || strings.Contains(codeStr, "PROFILE_NOT_FOUND") || strings.Contains(codeStr, "PROFILE_MISSING"):
		return "ELIGIBILITY"
	case strings.Contains(codeStr, "SCORING"):
		return "SCORING"
	case strings.Contains(codeStr, "UPSERT") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "INSERT"):
		return "DATABASE"
	case strings.Contains(codeStr, "ASSIGNMENT"):
		return "ASSIGNMENT"
	default:
		return "OTHER"
	}
}
