package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fleetguard/fleetguard/config"
	"github.com/fleetguard/fleetguard/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Info),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate runs AutoMigrate for all entities plus the DDL that gorm tags
// cannot express. Shared with the test setup, which runs it on sqlite.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Worker{},
		&model.Vehicle{},
		&model.Infraction{},
		&model.UsageHistory{},
		&model.PushSubscription{},
		&model.DeadlineAlert{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	// One open interval per vehicle. Partial unique indexes work on both
	// postgres and sqlite.
	ddl := "CREATE UNIQUE INDEX IF NOT EXISTS ux_usage_histories_open_vehicle " +
		"ON usage_histories (vehicle_id) WHERE ended_at IS NULL"
	if err := db.Exec(ddl).Error; err != nil {
		return fmt.Errorf("create open-usage index: %w", err)
	}
	return nil
}
