package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// loads configuration for the dashboard gateway
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	cfg, err := load(StoreSQLite)
	if err != nil {
		return nil, err
	}

	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is required")
	}

	if len(cfg.SessionSecret) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 characters")
	}

	return cfg, nil
}

// loads configuration for the terminal client. nothing is required.
func LoadClientConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // .env is optional
	}

	return load(StoreFile)
}

func load(defaultStore string) (*Config, error) {
	cfg := &Config{
		APIURL:            strings.TrimRight(getEnv("API_URL", DefaultAPIURL), "/"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		Port:              getEnv("PORT", "8080"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		UsageStore:        strings.ToLower(getEnv("USAGE_STORE", defaultStore)),
		DataDir:           getEnv("DATA_DIR", defaultDataDir()),
		RedisURL:          os.Getenv("REDIS_URL"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RateLimit:         getEnv("RATE_LIMIT", "120-M"),
		PruneSchedule:     getEnv("PRUNE_SCHEDULE", "@daily"),
		CORSOrigins:       splitList(os.Getenv("CORS_ORIGINS")),
		PollInterval:      3 * time.Second,
		DemoLockout:       30 * 24 * time.Hour,
		DeviceIdleTimeout: 24 * time.Hour,

		EnterpriseToolUsesPerDay: -1,
	}

	var err error

	if cfg.PollInterval, err = getDuration("POLL_INTERVAL", cfg.PollInterval); err != nil {
		return nil, err
	}

	if cfg.DeviceIdleTimeout, err = getDuration("DEVICE_IDLE_TIMEOUT", cfg.DeviceIdleTimeout); err != nil {
		return nil, err
	}

	if v := os.Getenv("DEMO_LOCKOUT_DAYS"); v != "" {
		days, convErr := strconv.Atoi(v)
		if convErr != nil || days <= 0 {
			return nil, fmt.Errorf("DEMO_LOCKOUT_DAYS must be a positive integer, got %q", v)
		}

		cfg.DemoLockout = time.Duration(days) * 24 * time.Hour
	}

	if v := os.Getenv("ENTERPRISE_TOOL_USES_PER_DAY"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < -1 {
			return nil, fmt.Errorf("ENTERPRISE_TOOL_USES_PER_DAY must be -1 or a non-negative integer, got %q", v)
		}

		cfg.EnterpriseToolUsesPerDay = n
	}

	switch cfg.UsageStore {
	case StoreMemory, StoreFile, StoreSQLite:
	case StoreRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL environment variable is required when USAGE_STORE=redis")
		}
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required when USAGE_STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown USAGE_STORE %q", cfg.UsageStore)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}

	return d, nil
}

func splitList(v string) []string {
	var out []string

	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

// ~/.seoscribe, or the working directory when no home is available
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".seoscribe"
	}

	return filepath.Join(home, ".seoscribe")
}
