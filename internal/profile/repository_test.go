package profile

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/campusvoice/portal/internal/infrastructure/database"
	"github.com/campusvoice/portal/migrations"
)

// setupTestDB creates a migrated SQLite database in a temp directory.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "profile.db"), BusyTimeout: 5})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// insertUser adds a bare users row so profiles have an owner.
func insertUser(t *testing.T, db *database.DB, id, role string) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO users (id, username, email, password_hash, role, created_at) VALUES (?, ?, ?, 'h', ?, ?)`,
		id, id, id+"@campus.test", role, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		t.Fatalf("failed to insert user %s: %v", id, err)
	}
}

func TestSaveStudent_CreateThenUpdate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()
	insertUser(t, db, "usr-alice", "student")

	p := &StudentProfile{
		UserID:       "usr-alice",
		FirstName:    "Alice",
		LastName:     "Liddell",
		RollNumber:   "CS-001",
		Major:        "Computer Science",
		Semester:     3,
		ContactEmail: "Alice@Campus.Test",
	}
	if err := repo.SaveStudent(ctx, p); err != nil {
		t.Fatalf("SaveStudent() error = %v", err)
	}
	if p.ID == "" {
		t.Fatal("SaveStudent() should populate ID")
	}
	firstID := p.ID

	if p.ContactEmail != "alice@campus.test" {
		t.Errorf("ContactEmail = %q, want lower-cased", p.ContactEmail)
	}
	if p.PhoneNumber != "" {
		t.Errorf("PhoneNumber = %q, want empty", p.PhoneNumber)
	}

	update := &StudentProfile{
		UserID:       "usr-alice",
		FirstName:    "Alice",
		LastName:     "Liddell",
		RollNumber:   "CS-001",
		Major:        "Mathematics",
		Semester:     4,
		ContactEmail: "alice@campus.test",
		PhoneNumber:  "555-0100",
	}
	if err := repo.SaveStudent(ctx, update); err != nil {
		t.Fatalf("SaveStudent() update error = %v", err)
	}
	if update.ID != firstID {
		t.Errorf("update ID = %q, want the original %q", update.ID, firstID)
	}

	got, err := repo.GetStudentByUserID(ctx, "usr-alice")
	if err != nil {
		t.Fatalf("GetStudentByUserID() error = %v", err)
	}
	if got.Major != "Mathematics" || got.Semester != 4 || got.PhoneNumber != "555-0100" {
		t.Errorf("stored profile = %+v, want updated fields", got)
	}
	if got.FullName() != "Alice Liddell" {
		t.Errorf("FullName() = %q", got.FullName())
	}

	n, err := repo.CountStudents(ctx)
	if err != nil || n != 1 {
		t.Errorf("CountStudents() = (%d, %v), want (1, nil)", n, err)
	}
}

func TestSaveStudent_DuplicateRollNumber(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()
	insertUser(t, db, "usr-a", "student")
	insertUser(t, db, "usr-b", "student")

	if err := repo.SaveStudent(ctx, &StudentProfile{
		UserID: "usr-a", FirstName: "A", LastName: "A", RollNumber: "R1", Major: "M", Semester: 1, ContactEmail: "a@x.y",
	}); err != nil {
		t.Fatalf("SaveStudent() error = %v", err)
	}

	err := repo.SaveStudent(ctx, &StudentProfile{
		UserID: "usr-b", FirstName: "B", LastName: "B", RollNumber: "R1", Major: "M", Semester: 1, ContactEmail: "b@x.y",
	})
	v, ok := database.AsUniqueViolation(err)
	if !ok || v.Column != "roll_number" {
		t.Errorf("SaveStudent() error = %v, want roll_number unique violation", err)
	}
}

func TestGetStudentByUserID_NotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	if _, err := repo.GetStudentByUserID(context.Background(), "usr-none"); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("error = %v, want ErrStudentNotFound", err)
	}
}

func TestSaveFaculty_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()
	insertUser(t, db, "usr-smith", "faculty")
	insertUser(t, db, "usr-adams", "faculty")

	smith := &FacultyProfile{
		UserID:            "usr-smith",
		FirstName:         "Jane",
		LastName:          "Smith",
		EmployeeID:        "E-100",
		Department:        "Physics",
		Designation:       "Professor",
		ContactEmail:      "smith@campus.test",
		OfficeLocation:    "B-204",
		ResearchInterests: []string{"optics", "lasers"},
		OfficeHours:       "Mon 10-12",
	}
	if err := repo.SaveFaculty(ctx, smith); err != nil {
		t.Fatalf("SaveFaculty() error = %v", err)
	}
	adams := &FacultyProfile{
		UserID: "usr-adams", FirstName: "John", LastName: "Adams", EmployeeID: "E-101",
		Department: "Math", Designation: "Lecturer", ContactEmail: "adams@campus.test",
	}
	if err := repo.SaveFaculty(ctx, adams); err != nil {
		t.Fatalf("SaveFaculty() error = %v", err)
	}

	got, err := repo.GetFaculty(ctx, smith.ID)
	if err != nil {
		t.Fatalf("GetFaculty() error = %v", err)
	}
	if len(got.ResearchInterests) != 2 || got.ResearchInterests[1] != "lasers" {
		t.Errorf("ResearchInterests = %v, want [optics lasers]", got.ResearchInterests)
	}
	if got.OfficeLocation != "B-204" || got.OfficeHours != "Mon 10-12" {
		t.Errorf("optional fields not stored: %+v", got)
	}

	all, err := repo.ListFaculty(ctx)
	if err != nil {
		t.Fatalf("ListFaculty() error = %v", err)
	}
	if len(all) != 2 || all[0].LastName != "Adams" || all[1].LastName != "Smith" {
		t.Errorf("ListFaculty() order = %v, want Adams then Smith", all)
	}
	if all[0].ResearchInterests == nil {
		t.Error("empty research interests should decode as an empty list")
	}
}

func TestGetFaculty_NotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if _, err := repo.GetFaculty(ctx, "fcp-none"); !errors.Is(err, ErrFacultyNotFound) {
		t.Errorf("GetFaculty() error = %v, want ErrFacultyNotFound", err)
	}
	if _, err := repo.GetFacultyByUserID(ctx, "usr-none"); !errors.Is(err, ErrFacultyNotFound) {
		t.Errorf("GetFacultyByUserID() error = %v, want ErrFacultyNotFound", err)
	}
}

func TestParseInterests(t *testing.T) {
	got := ParseInterests(" optics, ,lasers ,")
	if len(got) != 2 || got[0] != "optics" || got[1] != "lasers" {
		t.Errorf("ParseInterests() = %v, want [optics lasers]", got)
	}
	if ParseInterests("") != nil {
		t.Error("ParseInterests(\"\") should be nil")
	}
}
