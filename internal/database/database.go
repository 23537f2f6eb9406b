package database

import (
	"fmt"

	"github.com/Conceptual-Machines/melody-api/internal/logger"
	"github.com/Conceptual-Machines/melody-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens a PostgreSQL connection pool
func Connect(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connected", logger.Fields{})
	return db, nil
}

// Migrate creates or updates the tables for all models
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Composition{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable, used by the health check
func Ping(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not configured")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
