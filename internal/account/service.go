package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/campusvoice/portal/internal/auth"
	"github.com/campusvoice/portal/internal/infrastructure/database"
	"github.com/campusvoice/portal/internal/profile"
)

// Credentials are the account fields shared by both registration forms.
type Credentials struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// StudentRegistration is the student sign-up form.
type StudentRegistration struct {
	Credentials
	FirstName  string
	LastName   string
	RollNumber string
	Major      string
	Semester   int
}

// FacultyRegistration is the faculty sign-up form.
type FacultyRegistration struct {
	Credentials
	FirstName   string
	LastName    string
	EmployeeID  string
	Department  string
	Designation string
}

// StudentProfileInput is the student profile edit form.
type StudentProfileInput struct {
	FirstName    string
	LastName     string
	RollNumber   string
	Major        string
	Semester     int
	ContactEmail string
	PhoneNumber  string
}

// FacultyProfileInput is the faculty profile edit form.
type FacultyProfileInput struct {
	FirstName         string
	LastName          string
	EmployeeID        string
	Department        string
	Designation       string
	ContactEmail      string
	PhoneNumber       string
	OfficeLocation    string
	ResearchInterests []string
	OfficeHours       string
}

// Service registers accounts and maintains their profiles.
type Service struct {
	db                *database.DB
	hasher            *auth.PasswordHasher
	minPasswordLength int
}

// NewService creates an account service. A minPasswordLength below 1 uses
// the default of 6.
func NewService(db *database.DB, hasher *auth.PasswordHasher, minPasswordLength int) *Service {
	if hasher == nil {
		hasher = auth.DefaultPasswordHasher()
	}
	if minPasswordLength < 1 {
		minPasswordLength = minPasswordLengthDefault
	}
	return &Service{db: db, hasher: hasher, minPasswordLength: minPasswordLength}
}

// RegisterStudent creates a student account and its profile. The profile's
// contact email is the account email.
func (s *Service) RegisterStudent(ctx context.Context, reg StudentRegistration) (*auth.User, error) {
	reg.Credentials = trimCredentials(reg.Credentials)
	reg.FirstName = strings.TrimSpace(reg.FirstName)
	reg.LastName = strings.TrimSpace(reg.LastName)
	reg.RollNumber = strings.TrimSpace(reg.RollNumber)
	reg.Major = strings.TrimSpace(reg.Major)

	var p problems
	p.required(reg.Username, reg.Email, reg.Password, reg.ConfirmPassword,
		reg.FirstName, reg.LastName, reg.RollNumber, reg.Major)
	p.credentials(reg.Credentials, s.minPasswordLength)
	p.semester(reg.Semester)
	if err := p.err(); err != nil {
		return nil, err
	}

	return s.register(ctx, reg.Credentials, auth.RoleStudent, func(profiles *profile.SQLiteRepository, user *auth.User) error {
		return profiles.SaveStudent(ctx, &profile.StudentProfile{
			UserID:       user.ID,
			FirstName:    reg.FirstName,
			LastName:     reg.LastName,
			RollNumber:   reg.RollNumber,
			Major:        reg.Major,
			Semester:     reg.Semester,
			ContactEmail: user.Email,
		})
	})
}

// RegisterFaculty creates a faculty account and its profile. The profile's
// contact email is the account email.
func (s *Service) RegisterFaculty(ctx context.Context, reg FacultyRegistration) (*auth.User, error) {
	reg.Credentials = trimCredentials(reg.Credentials)
	reg.FirstName = strings.TrimSpace(reg.FirstName)
	reg.LastName = strings.TrimSpace(reg.LastName)
	reg.EmployeeID = strings.TrimSpace(reg.EmployeeID)
	reg.Department = strings.TrimSpace(reg.Department)
	reg.Designation = strings.TrimSpace(reg.Designation)

	var p problems
	p.required(reg.Username, reg.Email, reg.Password, reg.ConfirmPassword,
		reg.FirstName, reg.LastName, reg.EmployeeID, reg.Department, reg.Designation)
	p.credentials(reg.Credentials, s.minPasswordLength)
	if err := p.err(); err != nil {
		return nil, err
	}

	return s.register(ctx, reg.Credentials, auth.RoleFaculty, func(profiles *profile.SQLiteRepository, user *auth.User) error {
		return profiles.SaveFaculty(ctx, &profile.FacultyProfile{
			UserID:       user.ID,
			FirstName:    reg.FirstName,
			LastName:     reg.LastName,
			EmployeeID:   reg.EmployeeID,
			Department:   reg.Department,
			Designation:  reg.Designation,
			ContactEmail: user.Email,
		})
	})
}

// register hashes the password and inserts the user plus its profile in
// one transaction. Nothing is written if either insert fails.
func (s *Service) register(ctx context.Context, c Credentials, role auth.Role,
	createProfile func(*profile.SQLiteRepository, *auth.User) error,
) (*auth.User, error) {
	digest, err := s.hasher.Hash(c.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &auth.User{
		Username:     c.Username,
		Email:        c.Email,
		PasswordHash: digest,
		Role:         role,
	}

	err = s.db.InTx(ctx, func(tx *sql.Tx) error {
		if err := auth.NewUserRepository(tx).Create(ctx, user); err != nil {
			return err
		}
		return createProfile(profile.NewSQLiteRepository(tx), user)
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return user, nil
}

// SaveStudentProfile creates or replaces the student profile of userID.
func (s *Service) SaveStudentProfile(ctx context.Context, userID string, in StudentProfileInput) (*profile.StudentProfile, error) {
	p := &profile.StudentProfile{
		UserID:       userID,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		RollNumber:   strings.TrimSpace(in.RollNumber),
		Major:        strings.TrimSpace(in.Major),
		Semester:     in.Semester,
		ContactEmail: strings.TrimSpace(in.ContactEmail),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
	}

	var v problems
	v.required(p.FirstName, p.LastName, p.RollNumber, p.Major, p.ContactEmail)
	v.semester(p.Semester)
	v.contactEmail(p.ContactEmail)
	if err := v.err(); err != nil {
		return nil, err
	}

	if err := s.requireRole(ctx, userID, auth.RoleStudent); err != nil {
		return nil, err
	}
	if err := profile.NewSQLiteRepository(s.db).SaveStudent(ctx, p); err != nil {
		return nil, mapStoreError(err)
	}
	return p, nil
}

// SaveFacultyProfile creates or replaces the faculty profile of userID.
func (s *Service) SaveFacultyProfile(ctx context.Context, userID string, in FacultyProfileInput) (*profile.FacultyProfile, error) {
	p := &profile.FacultyProfile{
		UserID:            userID,
		FirstName:         strings.TrimSpace(in.FirstName),
		LastName:          strings.TrimSpace(in.LastName),
		EmployeeID:        strings.TrimSpace(in.EmployeeID),
		Department:        strings.TrimSpace(in.Department),
		Designation:       strings.TrimSpace(in.Designation),
		ContactEmail:      strings.TrimSpace(in.ContactEmail),
		PhoneNumber:       strings.TrimSpace(in.PhoneNumber),
		OfficeLocation:    strings.TrimSpace(in.OfficeLocation),
		ResearchInterests: in.ResearchInterests,
		OfficeHours:       strings.TrimSpace(in.OfficeHours),
	}

	var v problems
	v.required(p.FirstName, p.LastName, p.EmployeeID, p.Department, p.Designation, p.ContactEmail)
	v.contactEmail(p.ContactEmail)
	if err := v.err(); err != nil {
		return nil, err
	}

	if err := s.requireRole(ctx, userID, auth.RoleFaculty); err != nil {
		return nil, err
	}
	if err := profile.NewSQLiteRepository(s.db).SaveFaculty(ctx, p); err != nil {
		return nil, mapStoreError(err)
	}
	return p, nil
}

func (s *Service) requireRole(ctx context.Context, userID string, role auth.Role) error {
	user, err := auth.NewUserRepository(s.db).GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != role {
		return ErrWrongRole
	}
	return nil
}

// mapStoreError turns a UNIQUE violation into a *DuplicateFieldError and
// passes anything else through.
func mapStoreError(err error) error {
	v, ok := database.AsUniqueViolation(err)
	if !ok {
		return err
	}
	switch v.Column {
	case "username":
		return &DuplicateFieldError{Field: FieldUsername}
	case "email":
		return &DuplicateFieldError{Field: FieldEmail}
	case "roll_number":
		return &DuplicateFieldError{Field: FieldRollNumber}
	case "employee_id":
		return &DuplicateFieldError{Field: FieldEmployeeID}
	case "contact_email":
		return &DuplicateFieldError{Field: FieldContactEmail}
	default:
		return &DuplicateFieldError{Field: v.Column}
	}
}

func trimCredentials(c Credentials) Credentials {
	c.Username = strings.TrimSpace(c.Username)
	c.Email = strings.TrimSpace(c.Email)
	return c
}

// IsUserFacing reports whether err carries a message safe to show the user.
func IsUserFacing(err error) bool {
	return errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrDuplicateField)
}
