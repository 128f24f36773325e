package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Field names the offending input field, if any
	Field string `json:"field,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// Is matches on Code so sentinel comparisons survive field decoration.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewFieldError creates a domain error bound to an input field
func NewFieldError(code, field, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Field:   field,
	}
}

// Error codes used across the service
const (
	CodeValidationRequired = "VALIDATION_REQUIRED"
	CodeValidationFormat   = "VALIDATION_FORMAT"
	CodeValidationRange    = "VALIDATION_RANGE"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidInput       = "INVALID_INPUT"
)

// NewRequiredError reports a missing required field
func NewRequiredError(field string) *DomainError {
	return NewFieldError(CodeValidationRequired, field, "campo obrigatório ausente")
}
