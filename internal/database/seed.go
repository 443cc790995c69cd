package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tamojuntogames/accounts-api/internal/domain"
	"github.com/tamojuntogames/accounts-api/internal/observability"
	"github.com/tamojuntogames/accounts-api/internal/security"
)

// SeedReport summarizes what the bootstrap pass changed.
type SeedReport struct {
	CreatedUser bool `json:"created_user"`
	Noop        bool `json:"noop"`
}

// Seed provisions the bootstrap account when one is configured. It is
// idempotent: an existing account with the same email is left untouched,
// including its password.
func Seed(db *gorm.DB, email, password, fullName, nickname string) (*SeedReport, error) {
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(context.Background(), "seed", time.Since(start))
	}()

	report := &SeedReport{}
	email = strings.TrimSpace(email)
	if email == "" {
		report.Noop = true
		observability.RecordDatabaseStartupEvent(context.Background(), "seed", "skipped")
		return report, nil
	}
	if password == "" {
		observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
		return nil, fmt.Errorf("bootstrap user %s configured without a password", email)
	}

	var existing domain.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		report.Noop = true
		observability.RecordDatabaseStartupEvent(context.Background(), "seed", "success")
		return report, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
		return nil, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
		return nil, fmt.Errorf("hash bootstrap password: %w", err)
	}
	user := domain.User{
		FullName:     fullName,
		Nickname:     nickname,
		Email:        email,
		PasswordHash: hash,
	}
	if err := db.Create(&user).Error; err != nil {
		observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
		return nil, fmt.Errorf("create bootstrap user: %w", err)
	}
	report.CreatedUser = true
	observability.RecordDatabaseStartupEvent(context.Background(), "seed", "success")
	return report, nil
}
