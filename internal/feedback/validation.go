package feedback

import (
	"fmt"
	"strings"
)

// Validate normalises f and checks rating, comment and course code.
func Validate(f *Feedback) error {
	f.Comment = strings.TrimSpace(f.Comment)
	f.CourseCode = strings.TrimSpace(f.CourseCode)

	if f.FacultyID == "" {
		return fmt.Errorf("%w: faculty is required", ErrInvalidFeedback)
	}
	if f.Rating < MinRating || f.Rating > MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidFeedback, MinRating, MaxRating)
	}
	if f.Comment == "" {
		return fmt.Errorf("%w: comment is required", ErrInvalidFeedback)
	}
	if len(f.Comment) > maxCommentLength {
		return fmt.Errorf("%w: comment exceeds %d characters", ErrInvalidFeedback, maxCommentLength)
	}
	if len(f.CourseCode) > maxCourseCodeLength {
		return fmt.Errorf("%w: course code exceeds %d characters", ErrInvalidFeedback, maxCourseCodeLength)
	}
	return nil
}
