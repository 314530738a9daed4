package db

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Initialize opens the database connection with WAL mode for concurrency
// and foreign keys enabled (artifact and subject rows cascade with their
// case; legal marks are delete-restricted while referenced).
func Initialize(dbPath string, environment string) (*gorm.DB, error) {
	// Determine log level based on environment
	logLevel := logger.Info
	if environment == "production" {
		logLevel = logger.Warn
	}

	dsn := dbPath + "?_journal_mode=WAL&_foreign_keys=on"

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("[DB] connection established (WAL mode, foreign keys on)")
	return conn, nil
}

// AutoMigrate runs database migrations for the provided models
func AutoMigrate(conn *gorm.DB, models ...interface{}) error {
	if conn == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := conn.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("[DB] migrations completed")
	return nil
}

// Close closes the database connection
func Close(conn *gorm.DB) error {
	if conn == nil {
		return nil
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}
