// Package testutil provides shared test helpers for setting up databases and users.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/starford/notas/internal/auth"
	"github.com/starford/notas/internal/models"
	"github.com/starford/notas/internal/store"
)

// Secret is a token secret long enough for auth.NewTokenService.
var Secret = []byte("test-secret-0123456789abcdef")

// TestStore creates a migrated temporary SQLite database that is automatically cleaned up.
func TestStore(t *testing.T) *store.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "notas-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() {
		os.Remove(dbFile.Name())
		os.Remove(dbFile.Name() + "-wal")
		os.Remove(dbFile.Name() + "-shm")
	})

	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{Driver: store.DriverSQLite, DSN: dbFile.Name()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	if err := st.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	return st
}

// Passwords returns a fast bcrypt hasher for tests.
func Passwords() *auth.Passwords {
	return auth.NewPasswords(bcrypt.MinCost)
}

// Tokens returns a token service with a one-hour lifetime.
func Tokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService(Secret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tokens
}

// CreateUser inserts a user with the given email and password.
func CreateUser(t *testing.T, st *store.Store, email, password string) models.User {
	t.Helper()
	hash, err := Passwords().Hash(password)
	if err != nil {
		t.Fatal(err)
	}
	u, err := st.CreateUser(context.Background(), email, hash)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

// CategoryID returns the id of the seeded category called name.
func CategoryID(t *testing.T, st *store.Store, name string) int64 {
	t.Helper()
	c, err := st.CategoryByName(context.Background(), name)
	if err != nil {
		t.Fatal(err)
	}
	return c.ID
}
