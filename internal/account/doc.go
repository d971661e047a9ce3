// Package account implements registration and profile maintenance.
//
// Registration creates the user and its role profile in a single
// transaction. Uniqueness of username, email, roll number, employee ID and
// contact email is decided by the store's UNIQUE indexes; a violation is
// reported as a *DuplicateFieldError naming the field, so two concurrent
// registrations for the same email yield exactly one success.
package account
