package suggestion

import (
	"fmt"
	"strings"
)

const (
	maxSubjectLength     = 200
	maxDescriptionLength = 4000
)

// Validate normalises s and checks the subject and description.
func Validate(s *Suggestion) error {
	s.Subject = strings.TrimSpace(s.Subject)
	s.Description = strings.TrimSpace(s.Description)

	if s.Subject == "" || s.Description == "" {
		return fmt.Errorf("%w: subject and description are required", ErrInvalidSuggestion)
	}
	if len(s.Subject) > maxSubjectLength {
		return fmt.Errorf("%w: subject exceeds %d characters", ErrInvalidSuggestion, maxSubjectLength)
	}
	if len(s.Description) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidSuggestion, maxDescriptionLength)
	}
	return nil
}
