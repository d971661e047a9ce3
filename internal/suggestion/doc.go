// Package suggestion stores improvement suggestions submitted by any
// logged-in user and reviewed by faculty.
//
// A suggestion starts pending; faculty move it to under_review, accepted or
// rejected. Authors see only their own suggestions.
package suggestion
