package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campusvoice/portal/internal/infrastructure/database"
)

// Repository defines the interface for profile persistence operations.
type Repository interface {
	GetStudentByUserID(ctx context.Context, userID string) (*StudentProfile, error)
	SaveStudent(ctx context.Context, p *StudentProfile) error
	CountStudents(ctx context.Context) (int, error)

	GetFacultyByUserID(ctx context.Context, userID string) (*FacultyProfile, error)
	GetFaculty(ctx context.Context, id string) (*FacultyProfile, error)
	SaveFaculty(ctx context.Context, p *FacultyProfile) error
	ListFaculty(ctx context.Context) ([]FacultyProfile, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db database.Querier
}

// NewSQLiteRepository creates a profile repository over db, which may be a
// connection or an open transaction.
func NewSQLiteRepository(db database.Querier) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const studentColumns = `id, user_id, first_name, last_name, roll_number, major, semester,
	contact_email, phone_number, created_at, updated_at`

const facultyColumns = `id, user_id, first_name, last_name, employee_id, department, designation,
	contact_email, phone_number, office_location, research_interests, office_hours,
	created_at, updated_at`

// GetStudentByUserID returns the student profile owned by userID.
func (r *SQLiteRepository) GetStudentByUserID(ctx context.Context, userID string) (*StudentProfile, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+studentColumns+" FROM student_profiles WHERE user_id = ?", userID)
	return scanStudent(row)
}

// SaveStudent creates the profile for p.UserID or replaces its fields.
// On return p carries the stored ID and timestamps.
func (r *SQLiteRepository) SaveStudent(ctx context.Context, p *StudentProfile) error {
	now := time.Now().UTC().Format(time.RFC3339)
	p.ContactEmail = normalizeEmail(p.ContactEmail)

	const query = `INSERT INTO student_profiles (id, user_id, first_name, last_name, roll_number,
			major, semester, contact_email, phone_number, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			roll_number = excluded.roll_number,
			major = excluded.major,
			semester = excluded.semester,
			contact_email = excluded.contact_email,
			phone_number = excluded.phone_number,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		"stp-"+uuid.NewString(), p.UserID, p.FirstName, p.LastName, p.RollNumber,
		p.Major, p.Semester, p.ContactEmail, nullStr(p.PhoneNumber), now, now)
	if err != nil {
		return fmt.Errorf("saving student profile for %s: %w", p.UserID, err)
	}

	stored, err := r.GetStudentByUserID(ctx, p.UserID)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// CountStudents returns the number of student profiles.
func (r *SQLiteRepository) CountStudents(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM student_profiles").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting students: %w", err)
	}
	return n, nil
}

// GetFacultyByUserID returns the faculty profile owned by userID.
func (r *SQLiteRepository) GetFacultyByUserID(ctx context.Context, userID string) (*FacultyProfile, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+facultyColumns+" FROM faculty_profiles WHERE user_id = ?", userID)
	return scanFaculty(row)
}

// GetFaculty returns a faculty profile by its profile ID.
func (r *SQLiteRepository) GetFaculty(ctx context.Context, id string) (*FacultyProfile, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+facultyColumns+" FROM faculty_profiles WHERE id = ?", id)
	return scanFaculty(row)
}

// SaveFaculty creates the profile for p.UserID or replaces its fields.
// On return p carries the stored ID and timestamps.
func (r *SQLiteRepository) SaveFaculty(ctx context.Context, p *FacultyProfile) error {
	now := time.Now().UTC().Format(time.RFC3339)
	p.ContactEmail = normalizeEmail(p.ContactEmail)

	interests := "[]"
	if len(p.ResearchInterests) > 0 {
		b, err := json.Marshal(p.ResearchInterests)
		if err != nil {
			return fmt.Errorf("encoding research interests: %w", err)
		}
		interests = string(b)
	}

	const query = `INSERT INTO faculty_profiles (id, user_id, first_name, last_name, employee_id,
			department, designation, contact_email, phone_number, office_location,
			research_interests, office_hours, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			employee_id = excluded.employee_id,
			department = excluded.department,
			designation = excluded.designation,
			contact_email = excluded.contact_email,
			phone_number = excluded.phone_number,
			office_location = excluded.office_location,
			research_interests = excluded.research_interests,
			office_hours = excluded.office_hours,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		"fcp-"+uuid.NewString(), p.UserID, p.FirstName, p.LastName, p.EmployeeID,
		p.Department, p.Designation, p.ContactEmail, nullStr(p.PhoneNumber),
		nullStr(p.OfficeLocation), interests, nullStr(p.OfficeHours), now, now)
	if err != nil {
		return fmt.Errorf("saving faculty profile for %s: %w", p.UserID, err)
	}

	stored, err := r.GetFacultyByUserID(ctx, p.UserID)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// ListFaculty returns all faculty profiles ordered by last then first name.
func (r *SQLiteRepository) ListFaculty(ctx context.Context) ([]FacultyProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+facultyColumns+" FROM faculty_profiles ORDER BY last_name, first_name")
	if err != nil {
		return nil, fmt.Errorf("listing faculty: %w", err)
	}
	defer rows.Close()

	var out []FacultyProfile
	for rows.Next() {
		p, err := scanFaculty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating faculty: %w", err)
	}
	return out, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(s scanner) (*StudentProfile, error) {
	var p StudentProfile
	var phone sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.RollNumber, &p.Major,
		&p.Semester, &p.ContactEmail, &phone, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("scanning student profile: %w", err)
	}

	p.PhoneNumber = phone.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled
	return &p, nil
}

func scanFaculty(s scanner) (*FacultyProfile, error) {
	var p FacultyProfile
	var phone, office, hours sql.NullString
	var interests, createdAt, updatedAt string

	err := s.Scan(&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.EmployeeID, &p.Department,
		&p.Designation, &p.ContactEmail, &phone, &office, &interests, &hours,
		&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFacultyNotFound
		}
		return nil, fmt.Errorf("scanning faculty profile: %w", err)
	}

	p.PhoneNumber = phone.String
	p.OfficeLocation = office.String
	p.OfficeHours = hours.String
	if err := json.Unmarshal([]byte(interests), &p.ResearchInterests); err != nil {
		return nil, fmt.Errorf("decoding research interests: %w", err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled
	return &p, nil
}

// nullStr maps an empty string to NULL for optional columns.
func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
