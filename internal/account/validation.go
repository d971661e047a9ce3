package account

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/campusvoice/portal/internal/auth"
	"github.com/campusvoice/portal/internal/profile"
)

const minPasswordLengthDefault = 6

// problems accumulates validation messages in submission order.
type problems []string

func (p *problems) add(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return &ValidationError{Problems: p}
}

// required records one message if any of the values is blank.
func (p *problems) required(values ...string) {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			p.add("Please fill all required fields.")
			return
		}
	}
}

func (p *problems) credentials(c Credentials, minLength int) {
	if c.Username != "" && !auth.IsValidUsername(c.Username) {
		p.add("Username may contain only letters, digits, dots, hyphens and underscores.")
	}
	if c.Email != "" && !isEmail(c.Email) {
		p.add("Please enter a valid email address.")
	}
	if c.Password != c.ConfirmPassword {
		p.add("Passwords do not match.")
	}
	if len(c.Password) < minLength {
		p.add("Password must be at least %d characters.", minLength)
	}
}

func (p *problems) semester(n int) {
	if n < profile.MinSemester || n > profile.MaxSemester {
		p.add("Semester must be between %d and %d.", profile.MinSemester, profile.MaxSemester)
	}
}

func (p *problems) contactEmail(email string) {
	if email != "" && !isEmail(email) {
		p.add("Please enter a valid contact email address.")
	}
}

// isEmail accepts a bare address (no display name).
func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s, "@")
}
