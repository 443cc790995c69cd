package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tamojuntogames/accounts-api/internal/domain"
	"github.com/tamojuntogames/accounts-api/internal/observability"
)

func Migrate(db *gorm.DB) error {
	start := time.Now()
	err := db.AutoMigrate(
		&domain.User{},
	)
	observability.RecordDatabaseStartupDuration(context.Background(), "migrate", time.Since(start))
	if err != nil {
		observability.RecordDatabaseStartupEvent(context.Background(), "migrate", "error")
		return err
	}
	observability.RecordDatabaseStartupEvent(context.Background(), "migrate", "success")
	return nil
}
