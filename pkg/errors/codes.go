package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
// Codes follow the "<MODULE>_<NNN>" convention.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeUnknown            ErrorCode = "COMMON_000"
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Aliases used by call sites that predate the prefixed names.
const (
	CodeUnknown        = ErrCodeUnknown
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeUnauthorized   = ErrCodeUnauthorized
	CodeForbidden      = ErrCodeForbidden
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeRateLimit      = ErrCodeTooManyRequests
	CodeNotImplemented = ErrCodeNotImplemented
	CodeOK             = ErrorCode("OK")
)

// Quiz Module Error Codes
const (
	ErrCodeQuizNotFound        ErrorCode = "QUIZ_001"
	ErrCodeQuizInvalid         ErrorCode = "QUIZ_002"
	ErrCodeQuizSchemaViolation ErrorCode = "QUIZ_003"
	ErrCodeQuizTypeMismatch    ErrorCode = "QUIZ_004"
	ErrCodeQuizLoadFailed      ErrorCode = "QUIZ_005"
)

// Evaluation Module Error Codes
const (
	ErrCodeEvaluationNotFound       ErrorCode = "EVAL_001"
	ErrCodeEvaluationTypeInvalid    ErrorCode = "EVAL_002"
	ErrCodeEvaluationAnswersInvalid ErrorCode = "EVAL_003"
	ErrCodeEvaluationForbidden      ErrorCode = "EVAL_004"
	ErrCodeEvaluationAlreadyExists  ErrorCode = "EVAL_005"
	ErrCodeScoringFailed            ErrorCode = "EVAL_006"
	ErrCodeReportRenderFailed       ErrorCode = "EVAL_007"
)

// Specialist Module Error Codes
const (
	ErrCodeSpecialistNotFound     ErrorCode = "SPEC_001"
	ErrCodeSpecialistNoMatches    ErrorCode = "SPEC_002"
	ErrCodeSpecialistLookupFailed ErrorCode = "SPEC_003"
)

// Infrastructure Error Codes
const (
	ErrCodeDatabaseError     ErrorCode = "INFRA_001"
	ErrCodeCacheError        ErrorCode = "INFRA_002"
	ErrCodeMessageQueueError ErrorCode = "INFRA_003"
	ErrCodeConfigError       ErrorCode = "INFRA_004"
)

// Aliases for infrastructure codes.
const (
	CodeDBConnectionError = ErrCodeDatabaseError
	CodeDatabaseError     = ErrCodeDatabaseError
	CodeDBQueryError      = ErrCodeDatabaseError
	CodeCacheError        = ErrCodeCacheError
	CodeMessageQueueError = ErrCodeMessageQueueError
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeUnknown:            http.StatusInternalServerError,
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeQuizNotFound:        http.StatusNotFound,
	ErrCodeQuizInvalid:         http.StatusUnprocessableEntity,
	ErrCodeQuizSchemaViolation: http.StatusUnprocessableEntity,
	ErrCodeQuizTypeMismatch:    http.StatusBadRequest,
	ErrCodeQuizLoadFailed:      http.StatusServiceUnavailable,

	ErrCodeEvaluationNotFound:       http.StatusNotFound,
	ErrCodeEvaluationTypeInvalid:    http.StatusBadRequest,
	ErrCodeEvaluationAnswersInvalid: http.StatusBadRequest,
	ErrCodeEvaluationForbidden:      http.StatusForbidden,
	ErrCodeEvaluationAlreadyExists:  http.StatusConflict,
	ErrCodeScoringFailed:            http.StatusUnprocessableEntity,
	ErrCodeReportRenderFailed:       http.StatusInternalServerError,

	ErrCodeSpecialistNotFound:     http.StatusNotFound,
	ErrCodeSpecialistNoMatches:    http.StatusNotFound,
	ErrCodeSpecialistLookupFailed: http.StatusInternalServerError,

	ErrCodeDatabaseError:     http.StatusInternalServerError,
	ErrCodeCacheError:        http.StatusInternalServerError,
	ErrCodeMessageQueueError: http.StatusInternalServerError,
	ErrCodeConfigError:       http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeUnknown:            "unknown error",
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeQuizNotFound:        "quiz not found",
	ErrCodeQuizInvalid:         "invalid quiz definition",
	ErrCodeQuizSchemaViolation: "quiz definition does not match schema",
	ErrCodeQuizTypeMismatch:    "quiz type does not match evaluation type",
	ErrCodeQuizLoadFailed:      "failed to load quiz definitions",

	ErrCodeEvaluationNotFound:       "evaluation not found",
	ErrCodeEvaluationTypeInvalid:    "invalid evaluation type",
	ErrCodeEvaluationAnswersInvalid: "invalid answers payload",
	ErrCodeEvaluationForbidden:      "evaluation belongs to another profile",
	ErrCodeEvaluationAlreadyExists:  "evaluation already exists",
	ErrCodeScoringFailed:            "evaluation could not be scored",
	ErrCodeReportRenderFailed:       "failed to render report",

	ErrCodeSpecialistNotFound:     "specialist not found",
	ErrCodeSpecialistNoMatches:    "no specialist matches the weakest categories",
	ErrCodeSpecialistLookupFailed: "specialist lookup failed",

	ErrCodeDatabaseError:     "database error",
	ErrCodeCacheError:        "cache error",
	ErrCodeMessageQueueError: "message queue error",
	ErrCodeConfigError:       "configuration error",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}
