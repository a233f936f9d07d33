package config

import "time"

// usage store backends selectable via USAGE_STORE
const (
	StoreMemory   = "memory" // records are lost on restart; development and tests only
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

const DefaultAPIURL = "https://seoscribe.frank-couchman.workers.dev"

type Config struct {
	APIURL      string
	Environment string
	Port        string

	// device cookie signing key (gateway only)
	SessionSecret string

	UsageStore  string
	DataDir     string
	RedisURL    string
	DatabaseURL string

	PollInterval time.Duration
	DemoLockout  time.Duration

	// -1 means unlimited
	EnterpriseToolUsesPerDay int

	CORSOrigins       []string
	RateLimit         string
	DeviceIdleTimeout time.Duration
	PruneSchedule     string
}

// true when running with ENVIRONMENT=production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
