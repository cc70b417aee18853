package database

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OpenTestDB returns a migrated, private in-memory SQLite database.
func OpenTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	url := fmt.Sprintf("sqlite:file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := Open(url)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
