package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeConfig     = "CONFIG_ERROR"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeVector     = "VECTOR_ERROR"
	ErrCodeAI         = "AI_ERROR"
	ErrCodeUnknown    = "UNKNOWN_ERROR"
)

// Configuration errors
var (
	ErrMissingAPIKey = NewDomainError(ErrCodeConfig, "API key not configured, set SOPHIA_API_KEY")
	ErrInvalidAPIKey = NewDomainError(ErrCodeConfig, "API key appears invalid (should start with 'sk-')")
)

// Validation errors
var (
	ErrEmptyText     = NewDomainError(ErrCodeValidation, "text is empty or contains only whitespace")
	ErrTextTooShort  = NewDomainError(ErrCodeValidation, "text is too short (minimum 100 characters)")
	ErrTextTooLong   = NewDomainError(ErrCodeValidation, "text is too long (maximum 100,000 characters)")
	ErrGoalTooShort  = NewDomainError(ErrCodeValidation, "workflow goal is too short (minimum 20 characters)")
	ErrEmptyDocument = NewDomainError(ErrCodeValidation, "document id is required")
)

// Not found errors
var (
	ErrTemplateNotFound = NewDomainError(ErrCodeNotFound, "template not found")
)

// NewVectorError wraps a vector store failure so the raw driver error never
// escapes as the primary message.
func NewVectorError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeVector, message, err)
}

// NewAIError wraps a model endpoint failure.
func NewAIError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeAI, message, err)
}

// Category classifies an error into one of the coarse failure categories used
// in per-task failure records. The category is informational only; callers
// must not branch retry behavior on it.
func Category(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case ErrCodeAI:
			return ErrCodeAI
		case ErrCodeVector:
			return ErrCodeVector
		}
	}
	return ErrCodeUnknown
}
