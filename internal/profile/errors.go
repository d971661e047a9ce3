package profile

import "errors"

var (
	// ErrStudentNotFound is returned when no student profile matches.
	ErrStudentNotFound = errors.New("student profile not found")

	// ErrFacultyNotFound is returned when no faculty profile matches.
	ErrFacultyNotFound = errors.New("faculty profile not found")
)
