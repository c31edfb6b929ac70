package shared

import "fmt"

// DomainError represents a domain-level error with a stable machine code.
type DomainError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// FieldError carries a field-level validation message for form responses.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// WithField attaches a field-level message and returns the error for chaining.
func (e *DomainError) WithField(field, message string) *DomainError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a VALIDATION_ERROR with a single field message.
func NewValidationError(field, message string) *DomainError {
	return NewDomainError("VALIDATION_ERROR", message).WithField(field, message)
}

// NewNotFoundError creates a NOT_FOUND error for the named resource.
func NewNotFoundError(resource string) *DomainError {
	return NewDomainError("NOT_FOUND", fmt.Sprintf("%s not found", resource))
}

// NewConflictError creates a CONFLICT error.
func NewConflictError(message string) *DomainError {
	return NewDomainError("CONFLICT", message)
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)
