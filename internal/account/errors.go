package account

import (
	"errors"
	"strings"
)

var (
	// ErrValidationFailed is matched by *ValidationError.
	ErrValidationFailed = errors.New("validation failed")

	// ErrDuplicateField is matched by *DuplicateFieldError.
	ErrDuplicateField = errors.New("duplicate field")

	// ErrWrongRole is returned when a profile is saved for an account of
	// the other role.
	ErrWrongRole = errors.New("account has a different role")
)

// ValidationError lists every problem found in a submission.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// Is makes errors.Is(err, ErrValidationFailed) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Duplicate field names.
const (
	FieldUsername     = "username"
	FieldEmail        = "email"
	FieldRollNumber   = "roll_number"
	FieldEmployeeID   = "employee_id"
	FieldContactEmail = "contact_email"
)

// DuplicateFieldError reports a value already held by another account.
type DuplicateFieldError struct {
	Field string
}

func (e *DuplicateFieldError) Error() string {
	return "duplicate " + e.Field
}

// Is makes errors.Is(err, ErrDuplicateField) match.
func (e *DuplicateFieldError) Is(target error) bool {
	return target == ErrDuplicateField
}

// Message returns the user-facing text for the duplicate.
func (e *DuplicateFieldError) Message() string {
	switch e.Field {
	case FieldUsername:
		return "That username is already taken."
	case FieldEmail:
		return "That email is already registered."
	case FieldRollNumber:
		return "That roll number is already registered."
	case FieldEmployeeID:
		return "That employee ID is already registered."
	case FieldContactEmail:
		return "That contact email is already in use."
	default:
		return "A unique field is duplicated. Please check your inputs."
	}
}
