package testutil

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/kendall-kelly/bakehouse-api/config"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// MustSetTestEnvironment sets GO_ENV to test for suites that load configuration
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}
	if os.Getenv("GO_ENV") != "test" {
		t.Fatal("Failed to verify GO_ENV=test")
	}
}

// TestConfig returns a configuration for an in-memory sqlite database
func TestConfig() *config.Config {
	return &config.Config{
		DatabaseURL:        ":memory:",
		DBDriver:           "sqlite",
		Port:               "8080",
		GoEnv:              "test",
		JWTSecret:          "test-secret",
		JWTIssuer:          "bakehouse-api",
		JWTAudience:        "bakehouse-clients",
		TokenTTL:           time.Hour,
		LoginRatePerMinute: 1000,
		LogLevel:           "error",
	}
}

// NewTestLogger returns a logger that records entries instead of printing them
func NewTestLogger() (*logrus.Logger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}

// NewTestDB opens a migrated in-memory sqlite database that is closed when t ends
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := config.ConnectDatabase(TestConfig(), log)
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
