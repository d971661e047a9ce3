package feedback

import (
	"errors"
	"time"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Text limits.
const (
	maxCommentLength    = 4000
	maxCourseCodeLength = 32
)

// Feedback is one student's rating of one faculty member.
//
// StudentName and FacultyName are filled by list queries for display and
// are not stored.
type Feedback struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	FacultyID   string    `json:"faculty_id"`
	CourseCode  string    `json:"course_code,omitempty"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	SubmittedAt time.Time `json:"submitted_at"`

	StudentName string `json:"student_name,omitempty"`
	FacultyName string `json:"faculty_name,omitempty"`
}

// Summary aggregates the feedback a faculty member has received.
type Summary struct {
	Count         int     `json:"count"`
	AverageRating float64 `json:"average_rating"`
}

var (
	// ErrInvalidFeedback is returned when a submission fails validation.
	ErrInvalidFeedback = errors.New("invalid feedback")

	// ErrUnknownParty is returned when the student or faculty profile does not exist.
	ErrUnknownParty = errors.New("student or faculty profile not found")
)
