package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the notes server.
type Config struct {
	ServerHost    string
	ServerPort    int
	LogLevel      string
	Environment   string
	Debug         bool
	SentryDSN     string
	ShutdownGrace time.Duration

	Database  DatabaseConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

// DatabaseConfig describes how to reach the notes store.
type DatabaseConfig struct {
	Driver      string
	Path        string
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	SSLMode     string
	PoolSize    int
	MaxOverflow int
	PoolRecycle time.Duration
}

// CORSConfig lists the origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowOrigins []string
}

// RateLimitConfig configures the optional per-client token bucket. A zero burst disables it.
type RateLimitConfig struct {
	Burst             int
	RequestsPerSecond float64
	ClientTTL         time.Duration
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	EnvironmentDevelopment = "development"
)

const (
	defaultServerHost    = "0.0.0.0"
	defaultServerPort    = 8080
	defaultLogLevel      = "info"
	defaultEnvironment   = EnvironmentDevelopment
	defaultShutdownGrace = 10 * time.Second

	defaultDBDriver    = DriverSQLite
	defaultDBPath      = "./data/notes.db"
	defaultDBHost      = "localhost"
	defaultDBPort      = 5432
	defaultDBSSLMode   = "disable"
	defaultPoolSize    = 10
	defaultMaxOverflow = 20
	defaultPoolRecycle = time.Hour

	defaultRateLimitRPS = 10
	defaultClientTTL    = 5 * time.Minute
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		ServerHost:    getEnv("SERVER_HOST", defaultServerHost),
		LogLevel:      getEnv("LOG_LEVEL", defaultLogLevel),
		Environment:   strings.ToLower(getEnv("ENV", defaultEnvironment)),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		ShutdownGrace: defaultShutdownGrace,
		Database: DatabaseConfig{
			Driver:   strings.ToLower(getEnv("DB_DRIVER", defaultDBDriver)),
			Path:     getEnv("DB_PATH", defaultDBPath),
			Host:     getEnv("DB_HOST", defaultDBHost),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			SSLMode:  getEnv("DB_SSLMODE", defaultDBSSLMode),
		},
		CORS: CORSConfig{
			AllowOrigins: parseList(getEnv("CORS_ALLOW_ORIGINS", "*")),
		},
		RateLimit: RateLimitConfig{
			ClientTTL: defaultClientTTL,
		},
	}

	var err error

	if cfg.ServerPort, err = getInt("SERVER_PORT", defaultServerPort); err != nil {
		return nil, err
	}
	if cfg.Debug, err = getBool("DEBUG", false); err != nil {
		return nil, err
	}
	if cfg.ShutdownGrace, err = getDuration("SHUTDOWN_GRACE", defaultShutdownGrace); err != nil {
		return nil, err
	}

	if cfg.Database.Port, err = getInt("DB_PORT", defaultDBPort); err != nil {
		return nil, err
	}
	if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
		return nil, eris.Errorf("invalid DB_PORT value: %d is out of range", cfg.Database.Port)
	}
	if cfg.Database.PoolSize, err = getInt("DB_POOL_SIZE", defaultPoolSize); err != nil {
		return nil, err
	}
	if cfg.Database.MaxOverflow, err = getInt("DB_MAX_OVERFLOW", defaultMaxOverflow); err != nil {
		return nil, err
	}
	if cfg.Database.PoolRecycle, err = getDuration("DB_POOL_RECYCLE", defaultPoolRecycle); err != nil {
		return nil, err
	}

	if cfg.RateLimit.Burst, err = getInt("RATE_LIMIT_BURST", 0); err != nil {
		return nil, err
	}
	rps := getEnv("RATE_LIMIT_RPS", strconv.Itoa(defaultRateLimitRPS))
	if cfg.RateLimit.RequestsPerSecond, err = strconv.ParseFloat(rps, 64); err != nil {
		return nil, eris.Wrapf(err, "invalid RATE_LIMIT_RPS value: %s", rps)
	}

	if err := cfg.Database.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + strconv.Itoa(c.ServerPort)
}

// IsDevelopment reports whether the process runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvironmentDevelopment
}

// MaxOpenConns mirrors a pool of PoolSize connections that may grow by MaxOverflow.
func (d DatabaseConfig) MaxOpenConns() int {
	return d.PoolSize + d.MaxOverflow
}

func (d DatabaseConfig) validate() error {
	switch d.Driver {
	case DriverSQLite:
		if d.Path == "" {
			return eris.New("DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if d.User == "" || d.Name == "" {
			return eris.New("DB_USER and DB_NAME are required for the postgres driver")
		}
	default:
		return eris.Errorf("unsupported DB_DRIVER value: %s", d.Driver)
	}

	if d.PoolSize < 1 {
		return eris.Errorf("invalid DB_POOL_SIZE value: %d", d.PoolSize)
	}
	if d.MaxOverflow < 0 {
		return eris.Errorf("invalid DB_MAX_OVERFLOW value: %d", d.MaxOverflow)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	return value, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	return value, nil
}

// getDuration accepts Go duration strings ("90s") or a plain number of seconds.
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	return value, nil
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
