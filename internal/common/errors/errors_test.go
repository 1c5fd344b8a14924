package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidationFailedError_CollectsAllFields(t *testing.T) {
	err := NewValidationFailedError([]FieldError{
		{Field: "customerName", Code: FieldMissingCustomerName, Message: "customer name is required"},
		{Field: "surveyTime", Code: FieldMissingSurveyTime, Message: "survey time is required"},
	})

	assert.Equal(t, ErrCodeValidationFailed, err.Code)
	assert.False(t, err.Retryable)
	assert.Equal(t, "MISSING_CUSTOMER_NAME, MISSING_SURVEY_TIME", err.Details)
	require.Len(t, err.Fields(), 2)
	assert.Equal(t, "surveyTime", err.Fields()[1].Field)
}

func TestConvertToBPMNError(t *testing.T) {
	t.Run("storage failure keeps retries", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewStorageWriteFailedError(fmt.Errorf("OOM")))
		assert.Equal(t, "STORAGE_WRITE_FAILED", bpmn.Code)
		assert.Equal(t, 3, bpmn.Retries)
		assert.True(t, bpmn.Retryable)
		assert.Equal(t, "could not save changes, try again", bpmn.Message)
	})

	t.Run("business error has no retries", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewInvalidTransitionError("set", "closed", "active"))
		assert.Equal(t, "INVALID_TRANSITION", bpmn.Code)
		assert.Equal(t, 0, bpmn.Retries)
	})

	t.Run("field errors are exposed as variables", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewValidationFailedError([]FieldError{{Field: "systemSizeKw", Code: FieldMissingSystemSize}}))
		vars := bpmn.ToErrorVariables()
		assert.Equal(t, "VALIDATION_FAILED", vars["errorCode"])
		assert.Contains(t, vars, "fieldErrors")
		assert.Equal(t, "VALIDATION_FAILED", vars["originalErrorCode"])
	})
}

func TestAsStandardAndHasCode(t *testing.T) {
	wrapped := fmt.Errorf("convert: %w", NewSetNotFoundError("s-1"))

	stdErr, ok := AsStandard(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeSetNotFound, stdErr.Code)
	assert.True(t, HasCode(wrapped, ErrCodeSetNotFound))
	assert.False(t, HasCode(fmt.Errorf("plain"), ErrCodeSetNotFound))
}

func TestNormalize(t *testing.T) {
	stdErr := Normalize(fmt.Errorf("boom"))
	assert.Equal(t, ErrCodeInternal, stdErr.Code)
	assert.Equal(t, "boom", stdErr.Details)
}

func TestRemainingRetries(t *testing.T) {
	assert.Equal(t, int32(3), RemainingRetries(5, 3))
	assert.Equal(t, int32(1), RemainingRetries(2, 3))
	assert.Equal(t, int32(0), RemainingRetries(1, 3))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "STORAGE", GetErrorCategory(ErrCodeStorageWriteFailed))
	assert.Equal(t, "LIFECYCLE", GetErrorCategory(ErrCodeInvalidTransition))
	assert.Equal(t, "LIFECYCLE", GetErrorCategory(ErrCodeProjectNotFound))
	assert.Equal(t, "AUTH", GetErrorCategory(ErrCodeNotAuthorized))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeValidationFailed))
	assert.Equal(t, "INFRASTRUCTURE", GetErrorCategory(ErrCodeBrokerUnavailable))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
	assert.True(t, IsRetryableErrorCode(ErrCodeStorageReadFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeNotAuthorized))
}
