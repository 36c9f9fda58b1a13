package config

import (
	"fmt"
	"time"

	"github.com/kendall-kelly/bakehouse-api/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDatabase opens the database described by cfg. DB_DRIVER selects postgres or sqlite.
func ConnectDatabase(cfg *Config, log *logrus.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseURL)
	default:
		dialector = postgres.Open(cfg.DatabaseURL)
	}

	logLevel := logger.Warn
	if cfg.IsDevelopment() {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.DBDriver == "sqlite" {
		// an in-memory sqlite database exists per connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	log.WithField("driver", cfg.DBDriver).Info("Database connection established")
	return db, nil
}

// Migrate creates or updates every table the service uses
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.CustomCake{},
		&models.Order{},
		&models.OrderItem{},
		&models.BakerTeam{},
		&models.BakerApplication{},
		&models.ChatMessage{},
		&models.DirectMessage{},
		&models.Review{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// at most one pending application per user
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_baker_applications_one_pending
		ON baker_applications (user_id) WHERE status = 'pending'`).Error; err != nil {
		return fmt.Errorf("failed to create pending application index: %w", err)
	}

	return nil
}
