// Package integration exercises the full stack end to end: configuration,
// provider, migrations, and the CRUD engine against a real database file.
package integration

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/larderhq/larder/pkg/db"
	"github.com/larderhq/larder/pkg/model"
)

// newProvider opens a file-backed database in an isolated temp directory
// and migrates the application schema. Each test gets its own database.
func newProvider(t *testing.T) *db.Provider {
	t.Helper()

	cfg := db.Default()
	cfg.Environment = db.EnvProduction
	cfg.DatabaseName = filepath.Join(t.TempDir(), "larder.db")

	provider, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = provider.Close() })

	if err := provider.AutoMigrate(&model.User{}); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return provider
}

// newSession yields a fresh unit-of-work session.
func newSession(t *testing.T, provider *db.Provider) *gorm.DB {
	t.Helper()
	return provider.Session(context.Background())
}

// mustUser builds a validated User or fails the test.
func mustUser(t *testing.T, name, email string) *model.User {
	t.Helper()
	u, err := model.NewUser(model.UserCreate{
		Name:           name,
		Email:          email,
		HashedPassword: "argon2id$stub",
	})
	if err != nil {
		t.Fatalf("NewUser(%q, %q): %v", name, email, err)
	}
	return u
}
