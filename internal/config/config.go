package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB opens the Postgres connection from env vars. Boot-time failure is
// fatal; there is nothing to serve without a database.
func InitDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		envOr("DB_HOST", "localhost"),
		envOr("DB_PORT", "5432"),
		envOr("DB_USER", "postgres"),
		envOr("DB_PASSWORD", "postgres"),
		envOr("DB_NAME", "ledger"),
		envOr("DB_SSLMODE", "disable"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return db
}

// EngineConfig carries the reconciliation engine's tolerance knobs. All of
// them are externally supplied; none are hard-coded in the engine itself.
type EngineConfig struct {
	DateToleranceDays  int
	AmountTolerance    float64
	MaxEditDistance    int
	MinJaccard         float64
	AutoMatchThreshold float64

	// Window for suppressing near-duplicate rows during CSV import.
	DuplicateWindowDays int
}

func LoadEngineConfig() EngineConfig {
	return EngineConfig{
		DateToleranceDays:   envInt("MATCH_DATE_TOLERANCE_DAYS", 7),
		AmountTolerance:     envFloat("MATCH_AMOUNT_TOLERANCE", 1.00),
		MaxEditDistance:     envInt("MATCH_EDIT_DISTANCE_MAX", 5),
		MinJaccard:          envFloat("MATCH_JACCARD_MIN", 0.5),
		AutoMatchThreshold:  envFloat("MATCH_AUTO_THRESHOLD", 0.85),
		DuplicateWindowDays: envInt("IMPORT_DUPLICATE_WINDOW_DAYS", 3),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
