package repo

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	sqlite "github.com/glebarez/sqlite"
)

// newTestDB opens a throwaway SQLite database with foreign keys enabled and
// the full schema migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "nope", "sat.db"))
	if err == nil {
		t.Fatal("expected error for missing parent directory")
	}
}

func TestOpenSQLite_CreatesAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sat.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, table := range []string{"sat", "sat_lot", "avt", "users", "attachments"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("table %q missing after migration", table)
		}
	}
}
