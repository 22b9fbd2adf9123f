package errors

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "COMMON_001", ErrCodeInternal.String())
}

func TestHTTPStatusForCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeInternal, 500},
		{ErrCodeBadRequest, 400},
		{ErrCodeNotFound, 404},
		{ErrCodeConflict, 409},
		{ErrCodeValidation, 422},
		{ErrCodeQuizInvalid, 422},
		{ErrCodeEvaluationForbidden, 403},
		{ErrCodeEvaluationNotFound, 404},
		{ErrCodeQuizLoadFailed, 503},
		{ErrorCode("UNKNOWN"), 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, HTTPStatusForCode(tt.code), tt.code)
	}
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "internal server error", DefaultMessageForCode(ErrCodeInternal))
	assert.Equal(t, "evaluation not found", DefaultMessageForCode(ErrCodeEvaluationNotFound))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("UNKNOWN")))
}

func TestIsServerError(t *testing.T) {
	assert.True(t, IsServerError(ErrCodeInternal))
	assert.True(t, IsServerError(ErrCodeDatabaseError))
	assert.False(t, IsServerError(ErrCodeBadRequest))
}

func TestErrorCodeFormat_Convention(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z]+_\d{3}$`)
	for code := range ErrorCodeHTTPStatus {
		assert.Regexp(t, re, string(code))
		_, ok := ErrorCodeMessage[code]
		assert.True(t, ok, "missing default message for %s", code)
	}
}
