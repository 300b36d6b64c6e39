package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	applog "costs/internal/log"
)

type Config struct {
	// Store
	DataBackend  string
	DataDir      string
	StoreName    string
	StoreVersion uint

	// Logging
	LogLevel string

	// Report cache
	ReportCacheSize int
	ReportCacheTTL  time.Duration

	// AMQP change events (disabled when AMQPURL is empty)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// values present in the environment that Load could not parse
	loadErrors []string
}

// Load reads the configuration from the environment. Unparseable values fall
// back to their defaults and are reported by Validate.
func Load() *Config {
	var problems []string
	cfg := &Config{
		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		StoreName:    getEnv("COSTS_DB_NAME", "costsdb"),
		StoreVersion: getEnvUint("COSTS_DB_VERSION", 1, &problems),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		ReportCacheSize: getEnvInt("REPORT_CACHE_SIZE", 32, &problems),
		ReportCacheTTL:  getEnvDuration("REPORT_CACHE_TTL", 5*time.Minute, &problems),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "costs"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "costs_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Report"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
	}
	cfg.loadErrors = problems

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	errors := append([]string(nil), c.loadErrors...)

	validBackends := []string{"sqlite", "memory"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" && strings.TrimSpace(c.DataDir) == "" {
		errors = append(errors, "data directory cannot be empty when using sqlite backend")
	}

	if strings.TrimSpace(c.StoreName) == "" {
		errors = append(errors, "store name cannot be empty")
	} else if strings.ContainsAny(c.StoreName, `/\`) {
		errors = append(errors, fmt.Sprintf("invalid store name '%s': must not contain path separators", c.StoreName))
	}

	if c.StoreVersion < 1 {
		errors = append(errors, fmt.Sprintf("invalid store version %d: must be at least 1", c.StoreVersion))
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.ReportCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid report cache size %d: must be at least 1", c.ReportCacheSize))
	}
	if c.ReportCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid report cache TTL %v: must be positive", c.ReportCacheTTL))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Sheets export is optional; when configured it needs a tab and credentials
	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet ID is provided")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets export")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// SheetsEnabled reports whether a Sheets export target is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, problems *[]string) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
		*problems = append(*problems, fmt.Sprintf("invalid %s '%s': must be an integer", key, value))
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint, problems *[]string) uint {
	if value := os.Getenv(key); value != "" {
		u, err := strconv.ParseUint(value, 10, 32)
		if err == nil {
			return uint(u)
		}
		*problems = append(*problems, fmt.Sprintf("invalid %s '%s': must be a non-negative integer", key, value))
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration, problems *[]string) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
		*problems = append(*problems, fmt.Sprintf("invalid %s '%s': must be a duration like 5m", key, value))
	}
	return defaultValue
}
