// Package feedback stores rated feedback that students leave for faculty.
package feedback
