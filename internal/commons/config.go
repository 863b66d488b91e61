package commons

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
	StrictExit     bool
	Schedule       string
	PostgresConn   string
}

func (c Config) SymbolsURL() string {
	base := c.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + SymbolsEndpoint
}

func (c Config) LogSinkEnabled() bool {
	return c.PostgresConn != ""
}

func LoadConfig() (Config, error) {
	var config Config
	var errors []string

	// The key is passed through as-is; an empty or bad key is rejected by the API.
	config.APIKey = os.Getenv("API_KEY")

	config.BaseURL = getEnv("EXCHANGE_API_BASE_URL", DefaultBaseURL)
	if !strings.HasPrefix(config.BaseURL, "http://") && !strings.HasPrefix(config.BaseURL, "https://") {
		errors = append(errors, fmt.Sprintf("invalid EXCHANGE_API_BASE_URL: %q must start with http:// or https://", config.BaseURL))
	}

	config.RequestTimeout = DefaultRequestTimeout
	if timeout := os.Getenv("REQUEST_TIMEOUT"); timeout != "" {
		parsed, err := time.ParseDuration(timeout)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid REQUEST_TIMEOUT: %s", err))
		} else if parsed < 0 {
			errors = append(errors, "invalid REQUEST_TIMEOUT: must not be negative")
		} else {
			config.RequestTimeout = parsed
		}
	}

	if strict := os.Getenv("STRICT_EXIT"); strict != "" {
		parsed, err := strconv.ParseBool(strict)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid STRICT_EXIT: %s", err))
		} else {
			config.StrictExit = parsed
		}
	}

	config.Schedule = os.Getenv("SYMBOLS_SCHEDULE")
	if config.Schedule != "" {
		if _, err := cron.ParseStandard(config.Schedule); err != nil {
			errors = append(errors, fmt.Sprintf("invalid SYMBOLS_SCHEDULE: %s", err))
		}
	}

	conn, pgErrors := loadPostgresConn()
	config.PostgresConn = conn
	errors = append(errors, pgErrors...)

	if len(errors) > 0 {
		for _, err := range errors {
			fmt.Fprintln(os.Stderr, "Configuration Error:", err)
		}
		return Config{}, fmt.Errorf("configuration errors occurred")
	}

	return config, nil
}

// loadPostgresConn builds the log sink DSN. The sink is optional, so either
// every POSTGRES_* variable is set or none is.
func loadPostgresConn() (string, []string) {
	keys := []string{"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_NAME"}
	values := make(map[string]string, len(keys))
	var missing []string
	for _, key := range keys {
		values[key] = os.Getenv(key)
		if values[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) == len(keys) {
		return "", nil
	}

	var errors []string
	for _, key := range missing {
		errors = append(errors, fmt.Sprintf("%s is not set", key))
	}
	if len(errors) > 0 {
		return "", errors
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&connect_timeout=%d",
		values["POSTGRES_USER"], values["POSTGRES_PASSWORD"], values["POSTGRES_HOST"],
		values["POSTGRES_PORT"], values["POSTGRES_NAME"], int(LogSinkConnectTimeout.Seconds())), nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
