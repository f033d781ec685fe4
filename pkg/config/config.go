package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// Config holds application configuration. OpeningBalance and Threshold
// are only defaults; requests may override both per call.
type Config struct {
	Port           string
	LogLevel       string
	OpeningBalance decimal.Decimal
	Threshold      decimal.Decimal
	MaxUploadMB    int64
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}

	opening, err := decimal.NewFromString(getEnv("OPENING_BALANCE", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid OPENING_BALANCE: %w", err)
	}
	cfg.OpeningBalance = opening

	threshold, err := decimal.NewFromString(getEnv("THRESHOLD", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid THRESHOLD: %w", err)
	}
	if threshold.IsNegative() {
		return nil, fmt.Errorf("THRESHOLD must not be negative")
	}
	cfg.Threshold = threshold

	maxUpload, err := strconv.ParseInt(getEnv("MAX_UPLOAD_MB", "32"), 10, 64)
	if err != nil || maxUpload <= 0 {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB")
	}
	cfg.MaxUploadMB = maxUpload

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
