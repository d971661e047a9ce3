package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// credentialLookup is the part of UserRepository used for login.
type credentialLookup interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// Authenticator checks login credentials against the credential store.
type Authenticator struct {
	users  credentialLookup
	hasher *PasswordHasher

	// dummyDigest is verified when the identifier is unknown so both
	// failure paths cost one hash computation.
	dummyDigest string
}

// NewAuthenticator creates an authenticator. It hashes a throwaway
// password once with hasher's parameters for timing equalisation.
func NewAuthenticator(users credentialLookup, hasher *PasswordHasher) (*Authenticator, error) {
	if hasher == nil {
		hasher = DefaultPasswordHasher()
	}
	dummy, err := hasher.Hash("campus-portal-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("preparing authenticator: %w", err)
	}
	return &Authenticator{users: users, hasher: hasher, dummyDigest: dummy}, nil
}

// Authenticate verifies identifier and password at the expected portal.
//
// An identifier containing '@' is looked up as an email, anything else as
// a username. Unknown identifiers and wrong passwords both return
// ErrInvalidCredentials. A correct password for an account of another role
// returns *WrongPortalError; the role is only revealed after the password
// has been verified. An empty expected role accepts either role.
func (a *Authenticator) Authenticate(ctx context.Context, identifier, password string, expected Role) (Identity, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		a.hasher.Verify(password, a.dummyDigest)
		return Anonymous, ErrInvalidCredentials
	}

	user, err := a.lookup(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			a.hasher.Verify(password, a.dummyDigest)
			return Anonymous, ErrInvalidCredentials
		}
		return Anonymous, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if !a.hasher.Verify(password, user.PasswordHash) {
		return Anonymous, ErrInvalidCredentials
	}

	if expected != "" && user.Role != expected {
		return Anonymous, &WrongPortalError{Role: user.Role}
	}

	return Identity{UserID: user.ID, Role: user.Role}, nil
}

func (a *Authenticator) lookup(ctx context.Context, identifier string) (*User, error) {
	if strings.Contains(identifier, "@") {
		return a.users.GetByEmail(ctx, identifier)
	}
	return a.users.GetByUsername(ctx, identifier)
}
