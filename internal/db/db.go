package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"hoslog/internal/config"
	"hoslog/internal/model"
)

// Connect opens a GORM database connection using APP_DATABASE_URL (PostgreSQL URL).
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.DatabaseURL)
	if dsn == "" {
		return nil, errors.New("APP_DATABASE_URL is required (PostgreSQL URL)")
	}
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil, errors.New("APP_DATABASE_URL must be a postgres:// or postgresql:// URL")
	}

	// PrepareStmt: true prevents the GORM postgres migrator from forcing simple protocol
	// for "SELECT * FROM table LIMIT 1", which would otherwise trigger "insufficient arguments".
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{PrepareStmt: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate the core tables.
	if err := db.AutoMigrate(&model.Driver{}, &model.DailyLog{}, &model.DutyEvent{}, &model.HourlySample{}); err != nil {
		return nil, err
	}

	return db, nil
}

// EnsureBootstrapDriver makes sure the bootstrap driver from config exists,
// so the logbook endpoints have a resolvable username on a fresh install.
// If a driver with that username already exists, it is left as-is.
func EnsureBootstrapDriver(db *gorm.DB, cfg *config.Config) error {
	if cfg.BootstrapDriver == "" || cfg.BootstrapDriverPassword == "" {
		return nil
	}

	var count int64
	if err := db.Model(&model.Driver{}).Where("username = ?", cfg.BootstrapDriver).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.BootstrapDriverPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	driver := &model.Driver{
		Username:     cfg.BootstrapDriver,
		PasswordHash: string(hash),
		Status:       "active",
	}

	return db.Create(driver).Error
}
