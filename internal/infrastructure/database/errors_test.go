package database

import (
	"errors"
	"fmt"
	"testing"
)

func TestAsUniqueViolation(t *testing.T) {
	db := openTestDB(t)
	ctx := t.Context()

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE accounts (id TEXT PRIMARY KEY, email TEXT NOT NULL);
		CREATE UNIQUE INDEX idx_accounts_email ON accounts (email);
	`); err != nil {
		t.Fatalf("schema error = %v", err)
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO accounts (id, email) VALUES ('a', 'x@y.z')"); err != nil {
		t.Fatalf("first insert error = %v", err)
	}

	_, err := db.ExecContext(ctx, "INSERT INTO accounts (id, email) VALUES ('b', 'x@y.z')")
	if err == nil {
		t.Fatal("duplicate insert succeeded")
	}

	uv, ok := AsUniqueViolation(fmt.Errorf("creating account: %w", err))
	if !ok {
		t.Fatalf("AsUniqueViolation(%v) ok = false", err)
	}
	if uv.Table != "accounts" || uv.Column != "email" {
		t.Errorf("violation = %+v, want accounts.email", uv)
	}

	_, err = db.ExecContext(ctx, "INSERT INTO accounts (id, email) VALUES ('a', 'new@y.z')")
	uv, ok = AsUniqueViolation(err)
	if !ok || uv.Column != "id" {
		t.Errorf("primary key violation = %+v ok=%v, want column id", uv, ok)
	}
}

func TestAsUniqueViolation_OtherErrors(t *testing.T) {
	if _, ok := AsUniqueViolation(errors.New("UNIQUE constraint failed: users.email")); ok {
		t.Error("plain error matched as unique violation")
	}
	if _, ok := AsUniqueViolation(nil); ok {
		t.Error("nil matched as unique violation")
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	db := openTestDB(t)
	ctx := t.Context()

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE parents (id TEXT PRIMARY KEY);
		CREATE TABLE children (id TEXT PRIMARY KEY, parent_id TEXT NOT NULL REFERENCES parents (id));
	`); err != nil {
		t.Fatalf("schema error = %v", err)
	}

	_, err := db.ExecContext(ctx, "INSERT INTO children (id, parent_id) VALUES ('c', 'missing')")
	if !IsForeignKeyViolation(err) {
		t.Errorf("IsForeignKeyViolation(%v) = false", err)
	}
	if IsForeignKeyViolation(errors.New("other")) {
		t.Error("plain error matched as foreign key violation")
	}
}
