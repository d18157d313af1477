package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Backend       BackendConfig       `mapstructure:"backend"`
	Security      SecurityConfig      `mapstructure:"security"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig points at the store that keeps per-client portal state
// (stored credentials and the last resolved department).
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	Source          string        `mapstructure:"source" validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// BackendConfig describes the HR REST backend. A zero timeout keeps the transport default.
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SecurityConfig struct {
	// TokenSecret enables HS256 signature verification of presented credentials.
	// Empty means the payload is only decoded.
	TokenSecret  string `mapstructure:"token_secret"`
	ClientCookie string `mapstructure:"client_cookie" validate:"required"`
	CookieSecure bool   `mapstructure:"cookie_secure"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

const DefaultBackendURL = "http://localhost:3004"

// Defaults returns the values used when neither the config file nor the environment
// sets a key. Keys use the viper/mapstructure names.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"http_server.port":                8080,
		"http_server.allowed_origins":     "*",
		"http_server.read_header_timeout": 5 * time.Second,
		"http_server.read_timeout":        15 * time.Second,
		"http_server.idle_timeout":        60 * time.Second,
		"http_server.write_timeout":       15 * time.Second,
		"database.driver":                 "sqlite",
		"database.source":                 "file:hr_portal.db?_foreign_keys=on",
		"database.max_open_conns":         10,
		"database.max_idle_conns":         5,
		"database.conn_max_lifetime":      30 * time.Minute,
		"database.conn_max_idle_time":     5 * time.Minute,
		"backend.base_url":                DefaultBackendURL,
		"backend.timeout":                 time.Duration(0),
		"security.client_cookie":          "hr_portal_client",
		"security.cookie_secure":          false,
		"observability.metrics.enabled":   true,
		"observability.metrics.path":      "/metrics",
		"observability.logging.level":     "info",
		"observability.logging.format":    "text",
	}
}

// LoadConfigFromEnv builds the configuration from HRP_* environment variables only.
// Used for container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("HRP_HTTP_SERVER_PORT", 8080),
			AllowedOrigins:    getEnv("HRP_HTTP_SERVER_ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("HRP_HTTP_SERVER_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("HRP_HTTP_SERVER_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("HRP_HTTP_SERVER_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("HRP_HTTP_SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("HRP_DATABASE_DRIVER", "postgres"),
			Source:          getEnv("HRP_DATABASE_SOURCE", ""),
			MaxOpenConns:    getEnvAsInt("HRP_DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("HRP_DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("HRP_DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("HRP_DATABASE_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Backend: BackendConfig{
			BaseURL: getEnv("HRP_BACKEND_BASE_URL", DefaultBackendURL),
			Timeout: getEnvAsDuration("HRP_BACKEND_TIMEOUT", 0),
		},
		Security: SecurityConfig{
			TokenSecret:  getEnv("HRP_SECURITY_TOKEN_SECRET", ""),
			ClientCookie: getEnv("HRP_SECURITY_CLIENT_COOKIE", "hr_portal_client"),
			CookieSecure: getEnv("HRP_SECURITY_COOKIE_SECURE", "true") == "true",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: getEnv("HRP_OBSERVABILITY_METRICS_ENABLED", "true") == "true",
				Path:    getEnv("HRP_OBSERVABILITY_METRICS_PATH", "/metrics"),
			},
			Logging: LoggingConfig{
				Level:  getEnv("HRP_OBSERVABILITY_LOGGING_LEVEL", "info"),
				Format: getEnv("HRP_OBSERVABILITY_LOGGING_FORMAT", "json"),
			},
		},
	}
}

// ----------------- HELPERS -----------------

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

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

var configValidator = validator.New()

func (c *Config) Validate() error {
	var errs []string

	if err := configValidator.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Backend.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("backend config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	for _, origin := range c.Origins() {
		if origin == "*" {
			continue
		}
		if _, err := url.Parse(origin); err != nil {
			return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

// Origins splits AllowedOrigins into trimmed, non-empty entries.
func (c *ServerConfig) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

// SQLDriverName is the database/sql driver registered for Driver.
func (c *DatabaseConfig) SQLDriverName() string {
	if c.Driver == "postgres" {
		return "pgx"
	}
	return "sqlite3"
}

// GooseDialect is the goose dialect matching Driver.
func (c *DatabaseConfig) GooseDialect() string {
	if c.Driver == "postgres" {
		return "postgres"
	}
	return "sqlite3"
}

func (c *BackendConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("base_url must use http or https")
	}
	if c.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	return nil
}
