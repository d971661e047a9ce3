package account

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/campusvoice/portal/internal/auth"
	"github.com/campusvoice/portal/internal/infrastructure/config"
	"github.com/campusvoice/portal/internal/infrastructure/database"
	"github.com/campusvoice/portal/internal/profile"
	"github.com/campusvoice/portal/migrations"
)

func setupService(t *testing.T) (*Service, *database.DB) {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "account.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	hasher := auth.NewPasswordHasher(config.PasswordConfig{MemoryKiB: 1024, Iterations: 1, Threads: 1})
	return NewService(db, hasher, 6), db
}

func aliceRegistration() StudentRegistration {
	return StudentRegistration{
		Credentials: Credentials{
			Username:        "alice",
			Email:           "alice@campus.test",
			Password:        "secret123",
			ConfirmPassword: "secret123",
		},
		FirstName:  "Alice",
		LastName:   "Liddell",
		RollNumber: "CS-001",
		Major:      "Computer Science",
		Semester:   3,
	}
}

func smithRegistration() FacultyRegistration {
	return FacultyRegistration{
		Credentials: Credentials{
			Username:        "drsmith",
			Email:           "smith@campus.test",
			Password:        "lecture42",
			ConfirmPassword: "lecture42",
		},
		FirstName:   "Jane",
		LastName:    "Smith",
		EmployeeID:  "E-100",
		Department:  "Physics",
		Designation: "Professor",
	}
}

func TestRegisterStudent(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	user, err := svc.RegisterStudent(ctx, aliceRegistration())
	if err != nil {
		t.Fatalf("RegisterStudent() error = %v", err)
	}
	if user.Role != auth.RoleStudent {
		t.Errorf("Role = %q, want student", user.Role)
	}

	stored, err := auth.NewUserRepository(db).GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if stored.PasswordHash == "secret123" || !svc.hasher.Verify("secret123", stored.PasswordHash) {
		t.Error("stored password should be a verifiable digest, never the plaintext")
	}

	p, err := profile.NewSQLiteRepository(db).GetStudentByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetStudentByUserID() error = %v", err)
	}
	if p.RollNumber != "CS-001" || p.ContactEmail != "alice@campus.test" || p.Semester != 3 {
		t.Errorf("profile = %+v", p)
	}
}

func TestRegisterFaculty(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	user, err := svc.RegisterFaculty(ctx, smithRegistration())
	if err != nil {
		t.Fatalf("RegisterFaculty() error = %v", err)
	}
	if user.Role != auth.RoleFaculty {
		t.Errorf("Role = %q, want faculty", user.Role)
	}
	if _, err := profile.NewSQLiteRepository(db).GetFacultyByUserID(ctx, user.ID); err != nil {
		t.Errorf("GetFacultyByUserID() error = %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*StudentRegistration)
		want   string
	}{
		{"missing field", func(r *StudentRegistration) { r.Major = " " }, "Please fill all required fields."},
		{"password mismatch", func(r *StudentRegistration) { r.ConfirmPassword = "other123" }, "Passwords do not match."},
		{"short password", func(r *StudentRegistration) { r.Password, r.ConfirmPassword = "abc", "abc" }, "Password must be at least 6 characters."},
		{"bad username", func(r *StudentRegistration) { r.Username = "al ice" }, "Username may contain only letters, digits, dots, hyphens and underscores."},
		{"bad email", func(r *StudentRegistration) { r.Email = "not-an-email" }, "Please enter a valid email address."},
		{"semester low", func(r *StudentRegistration) { r.Semester = 0 }, "Semester must be between 1 and 12."},
		{"semester high", func(r *StudentRegistration) { r.Semester = 13 }, "Semester must be between 1 and 12."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := aliceRegistration()
			tt.mutate(&reg)

			_, err := svc.RegisterStudent(ctx, reg)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("RegisterStudent() error = %v, want *ValidationError", err)
			}
			if !errors.Is(err, ErrValidationFailed) {
				t.Error("ValidationError should match ErrValidationFailed")
			}
			found := false
			for _, p := range ve.Problems {
				if p == tt.want {
					found = true
				}
			}
			if !found {
				t.Errorf("Problems = %v, want to contain %q", ve.Problems, tt.want)
			}
		})
	}
}

func TestRegister_Duplicates(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*StudentRegistration)
		wantField string
	}{
		{"username", func(r *StudentRegistration) { r.Email, r.RollNumber = "other@campus.test", "CS-002" }, FieldUsername},
		{"email", func(r *StudentRegistration) { r.Username, r.RollNumber = "alice2", "CS-002" }, FieldEmail},
		{"roll number", func(r *StudentRegistration) { r.Username, r.Email = "alice2", "other@campus.test" }, FieldRollNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, db := setupService(t)
			ctx := context.Background()

			if _, err := svc.RegisterStudent(ctx, aliceRegistration()); err != nil {
				t.Fatalf("first RegisterStudent() error = %v", err)
			}

			reg := aliceRegistration()
			tt.mutate(&reg)
			_, err := svc.RegisterStudent(ctx, reg)

			var dup *DuplicateFieldError
			if !errors.As(err, &dup) {
				t.Fatalf("RegisterStudent() error = %v, want *DuplicateFieldError", err)
			}
			if dup.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", dup.Field, tt.wantField)
			}
			if !IsUserFacing(err) {
				t.Error("duplicate errors should be user-facing")
			}

			// The failed registration must leave nothing behind.
			n, err := auth.NewUserRepository(db).CountByRole(ctx, auth.RoleStudent)
			if err != nil || n != 1 {
				t.Errorf("CountByRole() = (%d, %v), want 1", n, err)
			}
		})
	}
}

func TestRegisterFaculty_DuplicateEmployeeID(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	if _, err := svc.RegisterFaculty(ctx, smithRegistration()); err != nil {
		t.Fatalf("RegisterFaculty() error = %v", err)
	}
	reg := smithRegistration()
	reg.Username, reg.Email = "drsmith2", "smith2@campus.test"

	_, err := svc.RegisterFaculty(ctx, reg)
	var dup *DuplicateFieldError
	if !errors.As(err, &dup) || dup.Field != FieldEmployeeID {
		t.Fatalf("RegisterFaculty() error = %v, want employee_id duplicate", err)
	}

	// The user row inserted before the profile failed must be rolled back.
	if _, err := auth.NewUserRepository(db).GetByUsername(ctx, "drsmith2"); !errors.Is(err, auth.ErrUserNotFound) {
		t.Errorf("user from failed registration should not exist, got %v", err)
	}
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	regs := []StudentRegistration{aliceRegistration(), aliceRegistration()}
	regs[1].Username = "alice-two"
	regs[1].RollNumber = "CS-777"

	errs := make([]error, len(regs))
	var wg sync.WaitGroup
	for i := range regs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RegisterStudent(ctx, regs[i])
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		var d *DuplicateFieldError
		switch {
		case err == nil:
			ok++
		case errors.As(err, &d) && d.Field == FieldEmail:
			dup++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != 1 {
		t.Errorf("got %d successes and %d email duplicates, want 1 and 1", ok, dup)
	}
}

func TestSaveStudentProfile(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	alice, err := svc.RegisterStudent(ctx, aliceRegistration())
	if err != nil {
		t.Fatalf("RegisterStudent() error = %v", err)
	}
	bob := aliceRegistration()
	bob.Username, bob.Email, bob.RollNumber = "bob", "bob@campus.test", "CS-002"
	if _, err := svc.RegisterStudent(ctx, bob); err != nil {
		t.Fatalf("RegisterStudent(bob) error = %v", err)
	}

	in := StudentProfileInput{
		FirstName: "Alice", LastName: "Liddell", RollNumber: "CS-001", Major: "Maths",
		Semester: 5, ContactEmail: "alice.l@campus.test", PhoneNumber: "555-0100",
	}
	p, err := svc.SaveStudentProfile(ctx, alice.ID, in)
	if err != nil {
		t.Fatalf("SaveStudentProfile() error = %v", err)
	}
	if p.Major != "Maths" || p.Semester != 5 || p.PhoneNumber != "555-0100" {
		t.Errorf("profile = %+v", p)
	}

	in.RollNumber = "CS-002"
	_, err = svc.SaveStudentProfile(ctx, alice.ID, in)
	var dup *DuplicateFieldError
	if !errors.As(err, &dup) || dup.Field != FieldRollNumber {
		t.Errorf("SaveStudentProfile() error = %v, want roll_number duplicate", err)
	}

	in.RollNumber = "CS-001"
	in.Semester = 42
	if _, err := svc.SaveStudentProfile(ctx, alice.ID, in); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("SaveStudentProfile() error = %v, want validation failure", err)
	}
}

func TestSaveFacultyProfile(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	smith, err := svc.RegisterFaculty(ctx, smithRegistration())
	if err != nil {
		t.Fatalf("RegisterFaculty() error = %v", err)
	}
	alice, err := svc.RegisterStudent(ctx, aliceRegistration())
	if err != nil {
		t.Fatalf("RegisterStudent() error = %v", err)
	}

	in := FacultyProfileInput{
		FirstName: "Jane", LastName: "Smith", EmployeeID: "E-100", Department: "Physics",
		Designation: "Professor", ContactEmail: "smith@campus.test",
		OfficeLocation: "B-204", ResearchInterests: []string{"optics"}, OfficeHours: "Mon 10-12",
	}
	p, err := svc.SaveFacultyProfile(ctx, smith.ID, in)
	if err != nil {
		t.Fatalf("SaveFacultyProfile() error = %v", err)
	}
	if p.OfficeLocation != "B-204" || len(p.ResearchInterests) != 1 {
		t.Errorf("profile = %+v", p)
	}

	if _, err := svc.SaveFacultyProfile(ctx, alice.ID, in); !errors.Is(err, ErrWrongRole) {
		t.Errorf("SaveFacultyProfile() for a student error = %v, want ErrWrongRole", err)
	}
}

func TestDuplicateFieldError_Message(t *testing.T) {
	if (&DuplicateFieldError{Field: FieldEmail}).Message() != "That email is already registered." {
		t.Error("unexpected email duplicate message")
	}
	if (&DuplicateFieldError{Field: "other"}).Message() == "" {
		t.Error("unknown fields should still produce a message")
	}
}
