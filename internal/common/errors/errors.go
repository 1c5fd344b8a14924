// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"

	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeSetNotFound       ErrorCode = "SET_NOT_FOUND"
	ErrCodeProjectNotFound   ErrorCode = "PROJECT_NOT_FOUND"
	ErrCodeSellerNotFound    ErrorCode = "SELLER_NOT_FOUND"
	ErrCodeNotAuthorized     ErrorCode = "NOT_AUTHORIZED"

	ErrCodeStorageWriteFailed ErrorCode = "STORAGE_WRITE_FAILED"
	ErrCodeStorageReadFailed  ErrorCode = "STORAGE_READ_FAILED"

	ErrCodeEventPublishFailed ErrorCode = "EVENT_PUBLISH_FAILED"
	ErrCodeBrokerUnavailable  ErrorCode = "BROKER_UNAVAILABLE"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// Per-field validation codes carried in Metadata["fields"] of a VALIDATION_FAILED error.
const (
	FieldMissingCustomerName  = "MISSING_CUSTOMER_NAME"
	FieldMissingSystemSize    = "MISSING_SYSTEM_SIZE"
	FieldMissingGrossPPW      = "MISSING_GROSS_PPW"
	FieldMissingSurveyDate    = "MISSING_SURVEY_DATE"
	FieldMissingSurveyTime    = "MISSING_SURVEY_TIME"
	FieldVerificationRequired = "VERIFICATION_REQUIRED"
	FieldSetNotClosed         = "SET_NOT_CLOSED"
	FieldConfirmationRequired = "CONFIRMATION_REQUIRED"
)

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

// FieldError is one entry of a VALIDATION_FAILED error.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Fields returns the per-field failures attached to a validation error.
func (e *StandardError) Fields() []FieldError {
	if e.Metadata == nil {
		return nil
	}
	fields, _ := e.Metadata["fields"].([]FieldError)
	return fields
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

// NewValidationFailedError bundles every failed field into one non-retryable error.
func NewValidationFailedError(fields []FieldError) *StandardError {
	codes := make([]string, 0, len(fields))
	for _, f := range fields {
		codes = append(codes, f.Code)
	}
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Validation failed",
		Details:   strings.Join(codes, ", "),
		Retryable: false,
		Metadata:  map[string]interface{}{"fields": fields},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError creates a non-retryable job input error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid job input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError reports a status edge the state machine does not allow.
func NewInvalidTransitionError(kind, from, to string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   fmt.Sprintf("Cannot move %s from %s to %s", kind, from, to),
		Details:   fmt.Sprintf("kind: %s, from: %s, to: %s", kind, from, to),
		Retryable: false,
		Metadata:  map[string]interface{}{"from": from, "to": to},
		Timestamp: time.Now().UTC(),
	}
}

// NewSetNotFoundError creates a non-retryable lookup error.
func NewSetNotFoundError(setID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSetNotFound,
		Message:   "Set not found",
		Details:   fmt.Sprintf("setId: %s", setID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProjectNotFoundError creates a non-retryable lookup error.
func NewProjectNotFoundError(projectID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProjectNotFound,
		Message:   "Project not found",
		Details:   fmt.Sprintf("projectId: %s", projectID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSellerNotFoundError creates a non-retryable lookup error.
func NewSellerNotFoundError(sellerID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSellerNotFound,
		Message:   "Seller profile not found",
		Details:   fmt.Sprintf("sellerId: %s", sellerID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotAuthorizedError creates a non-retryable authorization error.
func NewNotAuthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotAuthorized,
		Message:   "Not authorized",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageWriteFailedError is returned once the cleanup-and-retry pass has also failed.
func NewStorageWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageWriteFailed,
		Message:   "could not save changes, try again",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageReadFailedError creates a retryable read error.
func NewStorageReadFailedError(collection string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageReadFailed,
		Message:   "Could not load records",
		Details:   fmt.Sprintf("collection: %s, error: %s", collection, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEventPublishFailedError creates a retryable notification error.
func NewEventPublishFailedError(eventType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEventPublishFailed,
		Message:   "Deal event delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", eventType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBrokerUnavailableError wraps a transient Zeebe gateway failure.
func NewBrokerUnavailableError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBrokerUnavailable,
		Message:   "Workflow broker unavailable",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected failure that retrying will not fix.
func NewInternalError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidationFailed:   "VALIDATION_FAILED",
	ErrCodeInvalidInput:       "INVALID_INPUT",
	ErrCodeInvalidTransition:  "INVALID_TRANSITION",
	ErrCodeSetNotFound:        "SET_NOT_FOUND",
	ErrCodeProjectNotFound:    "PROJECT_NOT_FOUND",
	ErrCodeSellerNotFound:     "SELLER_NOT_FOUND",
	ErrCodeNotAuthorized:      "NOT_AUTHORIZED",
	ErrCodeStorageWriteFailed: "STORAGE_WRITE_FAILED",
	ErrCodeStorageReadFailed:  "STORAGE_READ_FAILED",
	ErrCodeEventPublishFailed: "EVENT_PUBLISH_FAILED",
	ErrCodeBrokerUnavailable:  "BROKER_UNAVAILABLE",
	ErrCodeInternal:           "INTERNAL_ERROR",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStorageWriteFailed,
		ErrCodeStorageReadFailed,
		ErrCodeEventPublishFailed,
		ErrCodeBrokerUnavailable:
		return 3

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if fields := stdErr.Fields(); len(fields) > 0 {
		vars["fieldErrors"] = fields
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandard unwraps err to a StandardError, if it is one.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err is a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "STORAGE"):
		return "STORAGE"
	case strings.Contains(codeStr, "TRANSITION") || strings.Contains(codeStr, "NOT_FOUND"):
		return "LIFECYCLE"
	case strings.Contains(codeStr, "AUTHORIZED"):
		return "AUTH"
	case strings.Contains(codeStr, "BROKER"):
		return "INFRASTRUCTURE"
	case strings.Contains(codeStr, "EVENT"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
