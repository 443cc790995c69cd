package database

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tamojuntogames/accounts-api/internal/domain"
	"github.com/tamojuntogames/accounts-api/internal/security"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	// :memory: gives each connection its own database, so the pool must
	// stay on a single connection for the schema to survive.
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestSeed(t *testing.T) {
	t.Run("creates bootstrap user", func(t *testing.T) {
		db := newTestDB(t)
		report, err := Seed(db, "root@example.com", "longenough1", "Bootstrap User", "bootstrap")
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		if !report.CreatedUser || report.Noop {
			t.Fatalf("unexpected report: %+v", report)
		}

		var user domain.User
		if err := db.Where("email = ?", "root@example.com").First(&user).Error; err != nil {
			t.Fatalf("find bootstrap user: %v", err)
		}
		if !security.VerifyPassword(user.PasswordHash, "longenough1") {
			t.Fatal("stored hash must verify against the configured password")
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		db := newTestDB(t)
		if _, err := Seed(db, "root@example.com", "longenough1", "Bootstrap User", "bootstrap"); err != nil {
			t.Fatalf("first seed: %v", err)
		}
		report, err := Seed(db, "root@example.com", "different-password", "Bootstrap User", "bootstrap")
		if err != nil {
			t.Fatalf("second seed: %v", err)
		}
		if report.CreatedUser || !report.Noop {
			t.Fatalf("second seed must be a noop, got %+v", report)
		}

		var user domain.User
		if err := db.Where("email = ?", "root@example.com").First(&user).Error; err != nil {
			t.Fatalf("find bootstrap user: %v", err)
		}
		if !security.VerifyPassword(user.PasswordHash, "longenough1") {
			t.Fatal("existing password must be left untouched")
		}

		var count int64
		db.Model(&domain.User{}).Count(&count)
		if count != 1 {
			t.Fatalf("expected 1 user, got %d", count)
		}
	})

	t.Run("no configured email is a skip", func(t *testing.T) {
		db := newTestDB(t)
		report, err := Seed(db, "   ", "ignored", "Bootstrap User", "bootstrap")
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		if !report.Noop || report.CreatedUser {
			t.Fatalf("unexpected report: %+v", report)
		}
	})

	t.Run("email without password fails", func(t *testing.T) {
		db := newTestDB(t)
		if _, err := Seed(db, "root@example.com", "", "Bootstrap User", "bootstrap"); err == nil {
			t.Fatal("expected error for missing bootstrap password")
		}
	})
}
