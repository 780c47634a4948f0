// Package errors provides standardized error handling for the assistant
// command pipeline and its workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Interpreter / collaborator errors.
	ErrCodeLeadLookupFailed      ErrorCode = "LEAD_LOOKUP_FAILED"
	ErrCodeLeadNotFound          ErrorCode = "LEAD_NOT_FOUND"
	ErrCodeExtractionFailed      ErrorCode = "EXTRACTION_FAILED"
	ErrCodeExtractionTimeout     ErrorCode = "EXTRACTION_TIMEOUT"
	ErrCodeConflictCheckFailed   ErrorCode = "CALENDAR_CONFLICT_CHECK_FAILED"
	ErrCodeEventCreateFailed     ErrorCode = "CALENDAR_EVENT_CREATE_FAILED"
	ErrCodeLLMSynthesisFailed    ErrorCode = "LLM_SYNTHESIS_FAILED"
	ErrCodeLLMTimeout            ErrorCode = "LLM_TIMEOUT"
	ErrCodeSessionStoreFailed    ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeEscalationSendFailed  ErrorCode = "ESCALATION_SEND_FAILED"
	ErrCodeCommandInvalid        ErrorCode = "COMMAND_INVALID"
	ErrCodeDatabaseFailed        ErrorCode = "DATABASE_FAILED"
	ErrCodeSearchQueryFailed     ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeNotificationSendError ErrorCode = "NOTIFICATION_SEND_FAILED"
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

// Constructors for the common interpreter failure modes.

func NewLeadLookupFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLeadLookupFailed,
		Message:   "Lead lookup failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewLeadNotFoundError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLeadNotFound,
		Message:   "No matching lead found",
		Details:   fmt.Sprintf("leadName: %s", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExtractionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionFailed,
		Message:   "Date/lead extraction failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewConflictCheckFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeConflictCheckFailed,
		Message:   "Calendar conflict check failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewEventCreateFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEventCreateFailed,
		Message:   "Calendar event creation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewLLMSynthesisFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMSynthesisFailed,
		Message:   "LLM synthesis API error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewSessionStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionStoreFailed,
		Message:   "Conversation state store error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewCommandInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCommandInvalid,
		Message:   "Command payload failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors.

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// GetRetryCount returns the recommended job retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeLeadLookupFailed,
		ErrCodeConflictCheckFailed,
		ErrCodeEventCreateFailed,
		ErrCodeExtractionFailed,
		ErrCodeLLMSynthesisFailed,
		ErrCodeDatabaseFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeSessionStoreFailed:
		return 3

	case ErrCodeExtractionTimeout, ErrCodeLLMTimeout:
		return 1

	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "LEAD"):
		return "LEADS"
	case strings.Contains(codeStr, "CALENDAR"):
		return "CALENDAR"
	case strings.Contains(codeStr, "LLM") || strings.Contains(codeStr, "EXTRACTION"):
		return "AI"
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "ESCALATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
