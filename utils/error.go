package utils

import "errors"

var (
	ErrorRecordNotFound     = errors.New("record not found")
	ErrorInvalidCredentials = errors.New("invalid email or password")
	ErrorUserDisabled       = errors.New("account is disabled")
	ErrorForbidden          = errors.New("insufficient permissions")
)

// ConflictError is a business-rule precondition failure (active dependents,
// immutable states, exceeded balances). Handlers map it to HTTP 409, with
// Details carried into the response body.
type ConflictError struct {
	Message string
	Details map[string]interface{}
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func NewConflictErrorWithDetails(message string, details map[string]interface{}) *ConflictError {
	return &ConflictError{Message: message, Details: details}
}

// AsConflictError unwraps err into *ConflictError when possible.
func AsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// ValidationError is a field-level input failure raised past the
// binding layer (enum membership, cross-field rules). Handlers map it
// to HTTP 400 with per-field details.
type ValidationError struct {
	Message string
	Details map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{
		Message: "invalid input",
		Details: map[string]string{field: reason},
	}
}

func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
