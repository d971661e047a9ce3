// Package profile stores the role-specific profile attached to each account.
//
// A student account owns at most one StudentProfile and a faculty account at
// most one FacultyProfile. Roll numbers, employee IDs and contact emails are
// unique across profiles of the same kind; the schema enforces this and the
// account service maps violations to user-facing errors.
package profile
