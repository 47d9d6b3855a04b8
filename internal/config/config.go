package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Upstream UpstreamConfig
	Session  SessionConfig
	UI       UIConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port                   string
	Env                    string
	LogLevel               string
	ReadTimeout            time.Duration
	WriteTimeout           time.Duration
	IdleTimeout            time.Duration
	CookieSecure           bool
	LoginRequestsPerMinute int
	TrustedProxies         []string // CIDR ranges allowed to set forwarding headers
}

type UpstreamConfig struct {
	BaseURL string
	// Timeout of zero leaves upstream calls unbounded
	Timeout time.Duration
}

type SessionConfig struct {
	Backend       string // "memory", "sqlite" or "postgres"
	SQLitePath    string
	TabIdleTTL    time.Duration
	SweepInterval time.Duration
}

type UIConfig struct {
	RedirectFallbackDelay time.Duration
	TimeZone              *time.Location
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	baseURL := getEnv("UPSTREAM_BASE_URL", "")
	if baseURL == "" {
		return nil, fmt.Errorf("UPSTREAM_BASE_URL is required")
	}
	if err := validateBaseURL(baseURL); err != nil {
		return nil, err
	}

	tz, err := time.LoadLocation(getEnv("DISPLAY_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "console"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 10)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 1)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:                   getEnv("PORT", "8080"),
			Env:                    env,
			LogLevel:               getEnv("LOG_LEVEL", "info"),
			ReadTimeout:            getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:           getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:            getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			CookieSecure:           getEnvAsBool("COOKIE_SECURE", env == "production"),
			LoginRequestsPerMinute: getEnvAsInt("LOGIN_RATE_LIMIT_PER_MINUTE", 10),
			TrustedProxies:         getEnvAsList("TRUSTED_PROXIES"),
		},
		Upstream: UpstreamConfig{
			BaseURL: strings.TrimRight(baseURL, "/"),
			Timeout: getEnvAsDuration("UPSTREAM_TIMEOUT", 0),
		},
		Session: SessionConfig{
			Backend:       strings.ToLower(getEnv("SESSION_BACKEND", "sqlite")),
			SQLitePath:    getEnv("SESSION_SQLITE_PATH", "console-sessions.db"),
			TabIdleTTL:    getEnvAsDuration("TAB_IDLE_TTL", 30*time.Minute),
			SweepInterval: getEnvAsDuration("TAB_SWEEP_INTERVAL", 5*time.Minute),
		},
		UI: UIConfig{
			RedirectFallbackDelay: getEnvAsDuration("REDIRECT_FALLBACK_DELAY", 300*time.Millisecond),
			TimeZone:              tz,
		},
	}

	switch cfg.Session.Backend {
	case "memory", "sqlite":
	case "postgres":
		if cfg.Database.Password == "" {
			return nil, fmt.Errorf("DB_PASSWORD is required for the postgres session backend")
		}
	default:
		return nil, fmt.Errorf("SESSION_BACKEND must be one of memory, sqlite, postgres (got %q)", cfg.Session.Backend)
	}

	return cfg, nil
}

// validateBaseURL requires an absolute http(s) URL for the upstream API
func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid UPSTREAM_BASE_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("UPSTREAM_BASE_URL must use http or https (got %q)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL must include a host")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
