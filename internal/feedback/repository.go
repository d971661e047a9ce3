package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campusvoice/portal/internal/infrastructure/database"
)

// Repository defines the interface for feedback persistence operations.
type Repository interface {
	Create(ctx context.Context, f *Feedback) error
	ListByStudent(ctx context.Context, studentID string) ([]Feedback, error)
	ListByFaculty(ctx context.Context, facultyID string) ([]Feedback, error)
	SummaryForFaculty(ctx context.Context, facultyID string) (Summary, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db database.Querier
}

// NewSQLiteRepository creates a new SQLite-backed feedback repository.
func NewSQLiteRepository(db database.Querier) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create validates and inserts f. StudentID and FacultyID are profile IDs;
// an unknown one yields ErrUnknownParty.
func (r *SQLiteRepository) Create(ctx context.Context, f *Feedback) error {
	if err := Validate(f); err != nil {
		return err
	}
	if f.ID == "" {
		f.ID = "fbk-" + uuid.NewString()
	}
	f.SubmittedAt = time.Now().UTC()

	const query = `INSERT INTO feedbacks (id, student_id, faculty_id, course_code, rating, comment, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.StudentID, f.FacultyID, nullStr(f.CourseCode), f.Rating, f.Comment,
		f.SubmittedAt.Format(database.TimestampFormat))
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrUnknownParty
		}
		return fmt.Errorf("inserting feedback: %w", err)
	}
	return nil
}

const listQuery = `SELECT f.id, f.student_id, f.faculty_id, f.course_code, f.rating, f.comment,
		f.submitted_at,
		s.first_name || ' ' || s.last_name,
		p.first_name || ' ' || p.last_name
	FROM feedbacks f
	JOIN student_profiles s ON s.id = f.student_id
	JOIN faculty_profiles p ON p.id = f.faculty_id`

// ListByStudent returns feedback written by a student, newest first.
func (r *SQLiteRepository) ListByStudent(ctx context.Context, studentID string) ([]Feedback, error) {
	return r.query(ctx, listQuery+" WHERE f.student_id = ? ORDER BY f.submitted_at DESC", studentID)
}

// ListByFaculty returns feedback received by a faculty member, newest first.
func (r *SQLiteRepository) ListByFaculty(ctx context.Context, facultyID string) ([]Feedback, error) {
	return r.query(ctx, listQuery+" WHERE f.faculty_id = ? ORDER BY f.submitted_at DESC", facultyID)
}

// SummaryForFaculty returns the count and mean rating of a faculty member's feedback.
func (r *SQLiteRepository) SummaryForFaculty(ctx context.Context, facultyID string) (Summary, error) {
	var s Summary
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), AVG(rating) FROM feedbacks WHERE faculty_id = ?", facultyID,
	).Scan(&s.Count, &avg)
	if err != nil {
		return Summary{}, fmt.Errorf("summarising feedback: %w", err)
	}
	s.AverageRating = avg.Float64
	return s, nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]Feedback, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying feedback: %w", err)
	}
	defer rows.Close()

	var out []Feedback
	for rows.Next() {
		var f Feedback
		var course sql.NullString
		var submittedAt string
		if err := rows.Scan(&f.ID, &f.StudentID, &f.FacultyID, &course, &f.Rating, &f.Comment,
			&submittedAt, &f.StudentName, &f.FacultyName); err != nil {
			return nil, fmt.Errorf("scanning feedback: %w", err)
		}
		f.CourseCode = course.String
		f.SubmittedAt, _ = time.Parse(database.TimestampFormat, submittedAt) //nolint:errcheck // format is controlled
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feedback: %w", err)
	}
	return out, nil
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
