package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
)

// Aliases used by call sites that predate the COMMON_ prefix.
const (
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeRateLimit    = ErrCodeTooManyRequests
)

// Molecule Module Error Codes
const (
	ErrCodeMoleculeInvalidSMILES    ErrorCode = "MOL_001"
	ErrCodeMoleculeInvalidFormat    ErrorCode = "MOL_003"
	ErrCodeMoleculeNotFound         ErrorCode = "MOL_004"
	ErrCodeMoleculeParsingFailed    ErrorCode = "MOL_006"
	ErrCodeMoleculeConversionFailed ErrorCode = "MOL_011"
	ErrCodePropertyPredictionFailed ErrorCode = "MOL_013"
	ErrCodeGNNModelError            ErrorCode = "MOL_014"
	ErrCodeGNNModelNotLoaded        ErrorCode = "MOL_015"
	ErrCodeRenderingFailed          ErrorCode = "MOL_016"
	ErrCodeNameLookupFailed         ErrorCode = "MOL_017"
)

// Assistant (LLM) Error Codes
const (
	ErrCodeLLMRequestFailed  ErrorCode = "LLM_001"
	ErrCodeLLMNotConfigured  ErrorCode = "LLM_002"
	ErrCodeLLMEmptyResponse  ErrorCode = "LLM_003"
	ErrCodeLLMPromptTooLarge ErrorCode = "LLM_004"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusInternalServerError,
	ErrCodeFeatureDisabled:    http.StatusForbidden,

	ErrCodeMoleculeInvalidSMILES:    http.StatusBadRequest,
	ErrCodeMoleculeInvalidFormat:    http.StatusBadRequest,
	ErrCodeMoleculeNotFound:         http.StatusNotFound,
	ErrCodeMoleculeParsingFailed:    http.StatusInternalServerError,
	ErrCodeMoleculeConversionFailed: http.StatusInternalServerError,
	ErrCodePropertyPredictionFailed: http.StatusInternalServerError,
	ErrCodeGNNModelError:            http.StatusInternalServerError,
	ErrCodeGNNModelNotLoaded:        http.StatusServiceUnavailable,
	ErrCodeRenderingFailed:          http.StatusInternalServerError,
	ErrCodeNameLookupFailed:         http.StatusBadGateway,

	ErrCodeLLMRequestFailed:  http.StatusBadGateway,
	ErrCodeLLMNotConfigured:  http.StatusServiceUnavailable,
	ErrCodeLLMEmptyResponse:  http.StatusBadGateway,
	ErrCodeLLMPromptTooLarge: http.StatusBadRequest,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",

	ErrCodeMoleculeInvalidSMILES:    "invalid SMILES string",
	ErrCodeMoleculeInvalidFormat:    "unsupported molecule format",
	ErrCodeMoleculeNotFound:         "molecule not found",
	ErrCodeMoleculeParsingFailed:    "failed to parse molecule",
	ErrCodeMoleculeConversionFailed: "molecule conversion failed",
	ErrCodePropertyPredictionFailed: "property prediction failed",
	ErrCodeGNNModelError:            "toxicity model inference error",
	ErrCodeGNNModelNotLoaded:        "toxicity model not loaded",
	ErrCodeRenderingFailed:          "molecule rendering failed",
	ErrCodeNameLookupFailed:         "compound name lookup failed",

	ErrCodeLLMRequestFailed:  "language model request failed",
	ErrCodeLLMNotConfigured:  "language model not configured",
	ErrCodeLLMEmptyResponse:  "language model returned no text",
	ErrCodeLLMPromptTooLarge: "prompt exceeds maximum length",
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

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

// IsTransientCode reports whether a failure carrying code may succeed when
// the request is repeated.
func IsTransientCode(code ErrorCode) bool {
	switch code {
	case ErrCodeServiceUnavailable, ErrCodeTimeout, ErrCodeExternalService:
		return true
	}
	return false
}

//Personal.AI order the ending
