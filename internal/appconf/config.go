package appconf

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // campus time zone without system zoneinfo

	"github.com/joho/godotenv"
)

// Config holds every setting the tracker reads at startup.
type Config struct {
	Port      int
	Env       Environment
	LogLevel  string
	ApiKeys   []string
	AdminKeys []string
	RateLimit int // requests per second per API key
	// CORSOrigins lists origins allowed to call the API from a browser.
	CORSOrigins []string

	DatabaseDriver string
	DatabaseURL    string
	NetworkFile    string

	RedisURL string
	NATSURL  string

	VehiclePositionsURL     string
	RealTimeAuthHeaderKey   string
	RealTimeAuthHeaderValue string
	FeedPollInterval        time.Duration

	Timezone        string
	FreshnessWindow time.Duration
	DefaultSpeedKmh float64
	MinimumMinutes  int
	Tolerance       float64

	RankAtDefaultSpeed bool
}

// Location resolves Timezone, defaulting to UTC when unset.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LoadDotEnv loads .env into the process environment. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

// Parse fills a Config from command-line args. Every flag defaults to the
// matching environment variable read through getenv, then to a built-in value.
func Parse(args []string, getenv func(string) string) (Config, error) {
	var (
		cfg                     Config
		env, apiKeys, adminKeys string
		corsOrigins             string
	)
	env = getenvDefault(getenv, "TRACKER_ENV", "development")

	fs := flag.NewFlagSet("tracker", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", getenvInt(getenv, "PORT", 4000), "API server port")
	fs.StringVar(&env, "env", env, "Environment (development|test|production)")
	fs.StringVar(&cfg.LogLevel, "log-level", getenvDefault(getenv, "LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")
	fs.StringVar(&apiKeys, "api-keys", getenvDefault(getenv, "API_KEYS", "test"), "Comma separated API keys")
	fs.StringVar(&adminKeys, "admin-keys", getenvDefault(getenv, "ADMIN_KEYS", ""), "Comma separated admin API keys")
	fs.IntVar(&cfg.RateLimit, "rate-limit", getenvInt(getenv, "RATE_LIMIT", 100), "Requests per second per API key")
	fs.StringVar(&corsOrigins, "cors-origins", getenvDefault(getenv, "CORS_ORIGINS", "*"), "Comma separated allowed CORS origins")

	fs.StringVar(&cfg.DatabaseDriver, "db-driver", getenvDefault(getenv, "DATABASE_DRIVER", "sqlite"), "Network database driver (sqlite|pgx)")
	fs.StringVar(&cfg.DatabaseURL, "db-url", getenvDefault(getenv, "DATABASE_URL", ""), "Network database DSN; empty keeps the network in memory")
	fs.StringVar(&cfg.NetworkFile, "network-file", getenvDefault(getenv, "NETWORK_FILE", ""), "YAML file seeding stops and routes")

	fs.StringVar(&cfg.RedisURL, "redis-url", getenvDefault(getenv, "REDIS_URL", ""), "Redis URL for vehicle positions; empty keeps them in memory")
	fs.StringVar(&cfg.NATSURL, "nats-url", getenvDefault(getenv, "NATS_URL", ""), "NATS URL for position events; empty disables publishing")

	fs.StringVar(&cfg.VehiclePositionsURL, "vehicle-positions-url", getenvDefault(getenv, "VEHICLE_POSITIONS_URL", ""), "GTFS-realtime vehicle positions feed")
	fs.StringVar(&cfg.RealTimeAuthHeaderKey, "realtime-auth-header-name", getenvDefault(getenv, "REALTIME_AUTH_HEADER_NAME", ""), "Header name sent to the realtime feed")
	fs.StringVar(&cfg.RealTimeAuthHeaderValue, "realtime-auth-header-value", getenvDefault(getenv, "REALTIME_AUTH_HEADER_VALUE", ""), "Header value sent to the realtime feed")
	fs.DurationVar(&cfg.FeedPollInterval, "feed-poll-interval", getenvDuration(getenv, "FEED_POLL_INTERVAL", 30*time.Second), "GTFS-realtime poll interval")

	fs.StringVar(&cfg.Timezone, "timezone", getenvDefault(getenv, "TZ", "America/Los_Angeles"), "Campus time zone used for headways and service hours")
	fs.DurationVar(&cfg.FreshnessWindow, "freshness-window", getenvDuration(getenv, "FRESHNESS_WINDOW", 10*time.Minute), "Maximum age of a usable position report")
	fs.Float64Var(&cfg.DefaultSpeedKmh, "default-speed-kmh", getenvFloat(getenv, "DEFAULT_SPEED_KMH", 25), "Speed assumed when a report has none")
	fs.IntVar(&cfg.MinimumMinutes, "minimum-eta-minutes", getenvInt(getenv, "MINIMUM_ETA_MINUTES", 1), "Smallest real-time ETA reported")
	fs.BoolVar(&cfg.RankAtDefaultSpeed, "rank-default-speed", getenvBool(getenv, "RANK_DEFAULT_SPEED", false), "Rank nearby vehicles at the default speed instead of reported speeds")
	fs.Float64Var(&cfg.Tolerance, "eta-tolerance", getenvFloat(getenv, "ETA_TOLERANCE", 1.5), "Real-time ETA is trusted up to this multiple of the scheduled ETA")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Env = EnvFlagToEnvironment(env)
	cfg.ApiKeys = splitList(apiKeys)
	cfg.AdminKeys = splitList(adminKeys)
	cfg.CORSOrigins = splitList(corsOrigins)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.DatabaseDriver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("invalid database driver %q", c.DatabaseDriver)
	}
	if c.FreshnessWindow <= 0 {
		return fmt.Errorf("freshness window must be positive")
	}
	if c.Tolerance < 1 {
		return fmt.Errorf("eta tolerance must be at least 1, got %v", c.Tolerance)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDefault(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(getenv func(string) string, key string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(getenv(key))); err == nil {
		return n
	}
	return def
}

func getenvFloat(getenv func(string) string, key string, def float64) float64 {
	if f, err := strconv.ParseFloat(strings.TrimSpace(getenv(key)), 64); err == nil {
		return f
	}
	return def
}

func getenvBool(getenv func(string) string, key string, def bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(getenv(key))); err == nil {
		return b
	}
	return def
}

func getenvDuration(getenv func(string) string, key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(getenv(key))); err == nil {
		return d
	}
	return def
}
