package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment names recognised in portal.environment.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Session backends recognised in session.backend.
const (
	SessionBackendSQLite = "sqlite"
	SessionBackendRedis  = "redis"
)

// Config is the root configuration structure for the portal.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Portal   PortalConfig   `yaml:"portal"`
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	Session  SessionConfig  `yaml:"session"`
	Redis    RedisConfig    `yaml:"redis"`
	Security SecurityConfig `yaml:"security"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PortalConfig contains deployment-wide settings.
type PortalConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// HTTPConfig contains web server settings.
type HTTPConfig struct {
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	TLS      TLSConfig         `yaml:"tls"`
	Timeouts HTTPTimeoutConfig `yaml:"timeouts"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// HTTPTimeoutConfig contains HTTP timeout settings in seconds.
type HTTPTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// SessionConfig contains session cookie and lifetime settings.
type SessionConfig struct {
	// Backend selects the session store: "sqlite" or "redis".
	Backend    string `yaml:"backend"`
	CookieName string `yaml:"cookie_name"`
	// TTL is the absolute session lifetime in minutes.
	TTL int `yaml:"ttl"`
	// CookieSecure forces the Secure attribute outside production.
	CookieSecure bool `yaml:"cookie_secure"`
	MaxFlash     int  `yaml:"max_flash"`
}

// RedisConfig contains Redis connection settings, used when session.backend is "redis".
type RedisConfig struct {
	URL       string `yaml:"url"`
	KeyPrefix string `yaml:"key_prefix"`
}

// SecurityConfig contains credential hashing settings.
type SecurityConfig struct {
	Password PasswordConfig `yaml:"password"`
}

// PasswordConfig holds Argon2id cost parameters.
type PasswordConfig struct {
	MemoryKiB  int `yaml:"memory_kib"`
	Iterations int `yaml:"iterations"`
	Threads    int `yaml:"threads"`
	MinLength  int `yaml:"min_length"`
}

// MQTTConfig contains MQTT broker connection settings for event publishing.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. A .env file in the working directory, if present (never overrides variables already set)
//  4. Environment variables (override file values)
//
// Environment variables follow the pattern: PORTAL_SECTION_KEY
// For example: PORTAL_DATABASE_PATH, PORTAL_HTTP_PORT
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv populates the process environment from a dotenv file.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Portal: PortalConfig{
			Name:        "Campus Feedback Portal",
			Environment: EnvDevelopment,
		},
		Database: DatabaseConfig{
			Path:        "./data/portal.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		HTTP: HTTPConfig{
			Host: "0.0.0.0",
			Port: 3000,
			Timeouts: HTTPTimeoutConfig{
				Read:  15,
				Write: 30,
				Idle:  60,
			},
		},
		Session: SessionConfig{
			Backend:    SessionBackendSQLite,
			CookieName: "portal_session",
			TTL:        24 * 60,
			MaxFlash:   10,
		},
		Redis: RedisConfig{
			URL:       "redis://localhost:6379/0",
			KeyPrefix: "portal:session:",
		},
		Security: SecurityConfig{
			Password: PasswordConfig{
				MemoryKiB:  64 * 1024,
				Iterations: 3,
				Threads:    1,
				MinLength:  6,
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "campus-portal",
			},
			QoS:         1,
			TopicPrefix: "portal",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PORTAL_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PORTAL_ENV"); v != "" {
		cfg.Portal.Environment = v
	}

	// Database
	if v := os.Getenv("PORTAL_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// HTTP
	if v := os.Getenv("PORTAL_HTTP_HOST"); v != "" {
		cfg.HTTP.Host = v
	}
	if v := os.Getenv("PORTAL_HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing PORTAL_HTTP_PORT: %w", err)
		}
		cfg.HTTP.Port = port
	}

	// Session
	if v := os.Getenv("PORTAL_SESSION_BACKEND"); v != "" {
		cfg.Session.Backend = v
	}
	if v := os.Getenv("PORTAL_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}

	// MQTT
	if v := os.Getenv("PORTAL_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("PORTAL_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("PORTAL_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("PORTAL_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("PORTAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	switch c.Portal.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, "portal.environment must be development or production")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		errs = append(errs, "http.port must be between 1 and 65535")
	}
	if c.HTTP.TLS.Enabled && (c.HTTP.TLS.CertFile == "" || c.HTTP.TLS.KeyFile == "") {
		errs = append(errs, "http.tls requires cert_file and key_file")
	}

	switch c.Session.Backend {
	case SessionBackendSQLite:
	case SessionBackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, "redis.url is required when session.backend is redis")
		}
	default:
		errs = append(errs, "session.backend must be sqlite or redis")
	}
	if c.Session.CookieName == "" {
		errs = append(errs, "session.cookie_name is required")
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, "session.ttl must be positive")
	}
	if c.Session.MaxFlash <= 0 {
		errs = append(errs, "session.max_flash must be positive")
	}

	p := c.Security.Password
	if p.MemoryKiB < 8 || p.Iterations < 1 || p.Threads < 1 {
		errs = append(errs, "security.password requires memory_kib >= 8, iterations >= 1, threads >= 1")
	}
	if p.MinLength < 1 {
		errs = append(errs, "security.password.min_length must be positive")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsProduction reports whether the portal runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Portal.Environment == EnvProduction
}

// SessionCookieSecure reports whether the session cookie carries the Secure attribute.
// Production always sets it.
func (c *Config) SessionCookieSecure() bool {
	return c.IsProduction() || c.Session.CookieSecure
}

// GetSessionTTL returns the absolute session lifetime as a Duration.
func (c *Config) GetSessionTTL() time.Duration {
	return time.Duration(c.Session.TTL) * time.Minute
}

// GetReadTimeout returns the HTTP read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the HTTP write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the HTTP idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeouts.Idle) * time.Second
}
