package suggestion

import (
	"errors"
	"time"

	"github.com/campusvoice/portal/internal/auth"
)

// Status is the review state of a suggestion.
type Status string

// Review states.
const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusAccepted    Status = "accepted"
	StatusRejected    Status = "rejected"
)

// ValidStatuses lists every review state in display order.
var ValidStatuses = []Status{StatusPending, StatusUnderReview, StatusAccepted, StatusRejected}

// IsValidStatus returns true if s is a known review state.
func IsValidStatus(s Status) bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Label returns the human-readable form of the status.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusUnderReview:
		return "Under review"
	case StatusAccepted:
		return "Accepted"
	case StatusRejected:
		return "Rejected"
	default:
		return string(s)
	}
}

// Suggestion is a submitted improvement idea.
// AuthorName is filled by list queries and is not stored.
type Suggestion struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	AuthorRole  auth.Role `json:"author_role"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	AuthorName string `json:"author_name,omitempty"`
}

var (
	// ErrSuggestionNotFound is returned when a suggestion ID does not exist.
	ErrSuggestionNotFound = errors.New("suggestion not found")

	// ErrInvalidSuggestion is returned when a submission fails validation.
	ErrInvalidSuggestion = errors.New("invalid suggestion")

	// ErrInvalidStatus is returned for an unknown review state.
	ErrInvalidStatus = errors.New("invalid suggestion status")
)
