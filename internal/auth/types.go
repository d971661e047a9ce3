package auth

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// usernamePattern: alphanumeric, dots, hyphens, underscores, 1-64 characters.
// '@' is excluded so an identifier containing it is always an email.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

const maxUsernameLength = 64

// IsValidUsername checks if a username meets format requirements.
func IsValidUsername(username string) bool {
	return len(username) <= maxUsernameLength && usernamePattern.MatchString(username)
}

// Role is the account type fixed at registration.
type Role string

const (
	// RoleStudent accounts submit feedback and suggestions.
	RoleStudent Role = "student"

	// RoleFaculty accounts receive feedback and review suggestions.
	RoleFaculty Role = "faculty"
)

// ValidRoles is the set of account roles.
var ValidRoles = []Role{RoleStudent, RoleFaculty}

// IsValidRole returns true if r is a known account role.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Title returns the display form of the role ("Student", "Faculty").
func (r Role) Title() string {
	switch r {
	case RoleStudent:
		return "Student"
	case RoleFaculty:
		return "Faculty"
	default:
		return string(r)
	}
}

// User is a registered account. Role never changes after Create.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialised
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the resolved (user, role) pair attached to a request.
// The zero value is the anonymous identity.
type Identity struct {
	UserID string
	Role   Role
}

// Anonymous is the identity of a request with no valid session.
var Anonymous = Identity{}

// IsAuthenticated reports whether the identity refers to a user.
func (id Identity) IsAuthenticated() bool {
	return id.UserID != ""
}

// Sentinel errors for auth operations.
var (
	// ErrInvalidCredentials covers both unknown identifiers and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrWrongPortal is matched by *WrongPortalError.
	ErrWrongPortal = errors.New("account belongs to a different portal")

	ErrUserNotFound     = errors.New("user not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrWrongRole        = errors.New("insufficient role")

	// ErrStoreUnavailable wraps transient storage failures.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// WrongPortalError reports a correct password presented at the other role's
// login. Role is the account's actual role.
type WrongPortalError struct {
	Role Role
}

func (e *WrongPortalError) Error() string {
	return fmt.Sprintf("account belongs to the %s portal", e.Role)
}

// Is makes errors.Is(err, ErrWrongPortal) match.
func (e *WrongPortalError) Is(target error) bool {
	return target == ErrWrongPortal
}
