package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Error codes grouped by concern: E10x input validation, E11x file-store
// policy, E12x remote transports, E13x local storage.
const (
	CodeValidation      = "E100"
	CodeNotFound        = "E101"
	CodeQuotaExceeded   = "E110"
	CodeTooLarge        = "E111"
	CodeNameConflict    = "E112"
	CodeContentRejected = "E113"
	CodeTransport       = "E120"
	CodeStorage         = "E130"
)

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// Is makes two AppErrors equivalent when their codes match, so callers can
// test error categories with errors.Is against a bare constructor value.
func (e *AppError) Is(target error) bool {
	other, ok := target.(*AppError)
	if !ok || e == nil || other == nil {
		return false
	}

	return e.Code == other.Code
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        CodeValidation,
		Message:     msg,
		UserMessage: fmt.Sprintf("❌ Invalid input. %s", msg),
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

func NewNotFoundError(name string) *AppError {
	return &AppError{
		Code:        CodeNotFound,
		Message:     fmt.Sprintf("file not found: %s", name),
		UserMessage: fmt.Sprintf("❌ File `%s` not found in your directory.", name),
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

func NewQuotaExceededError(maxFiles int) *AppError {
	return &AppError{
		Code:        CodeQuotaExceeded,
		Message:     fmt.Sprintf("file quota exceeded: limit %d", maxFiles),
		UserMessage: fmt.Sprintf("⚠️ Upload limit reached. You can have at most %d files. Delete some with /delete first.", maxFiles),
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

func NewTooLargeError(maxSize string) *AppError {
	return &AppError{
		Code:        CodeTooLarge,
		Message:     fmt.Sprintf("file exceeds maximum size %s", maxSize),
		UserMessage: fmt.Sprintf("❌ File too large. Maximum allowed size is %s.", maxSize),
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

func NewNameConflictError(name string) *AppError {
	return &AppError{
		Code:        CodeNameConflict,
		Message:     fmt.Sprintf("file already exists: %s", name),
		UserMessage: fmt.Sprintf("⚠️ A file named `%s` already exists. Delete it first before uploading again.", name),
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

func NewContentRejectedError(findings []string) *AppError {
	return &AppError{
		Code:        CodeContentRejected,
		Message:     fmt.Sprintf("disallowed constructs found: %v", findings),
		UserMessage: fmt.Sprintf("❌ Upload rejected: the script calls disallowed functions: %v.", findings),
		Severity:    SeverityMedium,
		Retryable:   false,
	}
}

func NewTransportError(target string, cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        CodeTransport,
		Message:     fmt.Sprintf("transport error talking to %s: %s", target, underlyingMsg),
		UserMessage: "❌ The Telegram API is unreachable right now. Please try again later.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

func NewStorageError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        CodeStorage,
		Message:     fmt.Sprintf("storage error: %s", underlyingMsg),
		UserMessage: "❌ Failed to store your file. Please try again later.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}
