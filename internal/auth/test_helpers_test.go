package auth

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/campusvoice/portal/internal/infrastructure/config"
	"github.com/campusvoice/portal/internal/infrastructure/database"
	"github.com/campusvoice/portal/migrations"
)

// testDB creates a temporary SQLite database with the portal schema applied.
// The database is closed when the test completes.
func testDB(t *testing.T) *database.DB {
	t.Helper()

	// Use a temp file so WAL mode works (in-memory doesn't support it)
	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "auth-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}

// testHasher returns a hasher with minimal Argon2id cost so tests stay fast.
func testHasher() *PasswordHasher {
	return NewPasswordHasher(config.PasswordConfig{MemoryKiB: 1024, Iterations: 1, Threads: 1})
}

// seedTestUser inserts a user with the given password and returns it.
func seedTestUser(t *testing.T, db database.Querier, username string, role Role, password string) *User {
	t.Helper()

	hash, err := testHasher().Hash(password)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	user := &User{
		Username:     username,
		Email:        username + "@campus.test",
		PasswordHash: hash,
		Role:         role,
	}
	if err := NewUserRepository(db).Create(context.Background(), user); err != nil {
		t.Fatalf("seeding user %q: %v", username, err)
	}
	return user
}

// testConcurrentAppendFlash appends from several goroutines to one session
// and checks that every message survived.
func testConcurrentAppendFlash(t *testing.T, store SessionStore) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	s := &Session{ID: HashToken("shared-token"), CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.AppendFlash(ctx, s.ID, Flash{Kind: FlashInfo, Text: fmt.Sprintf("msg-%d", i)}, 50)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("AppendFlash() error = %v", err)
		}
	}

	flash, err := store.TakeFlash(ctx, s.ID)
	if err != nil {
		t.Fatalf("TakeFlash() error = %v", err)
	}
	seen := make(map[string]bool, len(flash))
	for _, f := range flash {
		seen[f.Text] = true
	}
	if len(flash) != writers || len(seen) != writers {
		t.Errorf("TakeFlash() returned %d messages (%d distinct), want %d", len(flash), len(seen), writers)
	}
}
