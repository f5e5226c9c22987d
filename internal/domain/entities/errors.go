package entities

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotFound          = errors.New("not found")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTerminalState     = errors.New("record is in a terminal state")
	ErrDisconnected      = errors.New("channel is disconnected")
)

// ValidationCode names the rule a field failed.
type ValidationCode string

const (
	CodeContentRequired  ValidationCode = "content-required"
	CodeChannelRequired  ValidationCode = "channel-required"
	CodeTitleRequired    ValidationCode = "title-required"
	CodeSlugRequired     ValidationCode = "slug-required"
	CodeSlugTaken        ValidationCode = "slug-taken"
	CodeNameRequired     ValidationCode = "name-required"
	CodeURLRequired      ValidationCode = "url-required"
	CodeStatusInvalid    ValidationCode = "status-invalid"
	CodeThemeInvalid     ValidationCode = "theme-invalid"
	CodePlatformInvalid  ValidationCode = "platform-invalid"
	CodeScheduleRequired ValidationCode = "schedule-required"
	CodeScheduleInPast   ValidationCode = "schedule-in-past"
	CodeEngagementRange  ValidationCode = "engagement-range"
	CodeFollowersRange   ValidationCode = "followers-range"
)

// ValidationError is returned when a field-presence or format check fails
// before any mutation is applied.
type ValidationError struct {
	Field string         `json:"field"`
	Code  ValidationCode `json:"code"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s (%s)", e.Code, e.Field)
}

// NewValidationError creates a validation error for field.
func NewValidationError(field string, code ValidationCode) *ValidationError {
	return &ValidationError{Field: field, Code: code}
}

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// HasCode reports whether err is a validation error carrying code.
func HasCode(err error, code ValidationCode) bool {
	ve, ok := AsValidationError(err)
	return ok && ve.Code == code
}
