package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shelfd/shelfd/pkg/auth"
	"github.com/shelfd/shelfd/pkg/observability"
	"github.com/shelfd/shelfd/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      storage.Config
	Redis         RedisConfig
	Auth          AuthConfig
	OAuth         OAuthConfig
	Cache         CacheConfig
	RateLimit     RateLimitConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string

	// Maximum accepted request body size in bytes
	MaxBodyBytes int64
}

// RedisConfig holds the connection settings for the login rate limiter.
// Redis is optional: with no address configured the limiter is disabled.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig holds token and password hashing settings
type AuthConfig struct {
	// JWTSecret signs tokens. There is no default: startup fails
	// without one.
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	// SweepInterval is how often stored expired tokens are cleared
	SweepInterval time.Duration
}

// OAuthConfig holds the Google sign-in settings. Federation is disabled
// when the client ID is empty.
type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

// CacheConfig holds the in-process book cache settings
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// RateLimitConfig bounds login attempts per client IP per window. Only
// effective when Redis is configured.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string
	MetricsEnabled bool

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from environment variables. When
// SHELFD_CONFIG_FILE points at a YAML file, its values are applied
// first and the environment overrides them.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := getEnv("SHELFD_CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
			MaxBodyBytes:    1 << 20,
		},
		Database: storage.Config{
			Driver:   "postgres",
			MaxConns: 25,
			MinConns: 5,
			Timeout:  10 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL:      auth.DefaultTokenTTL,
			BcryptCost:    auth.DefaultBcryptCost,
			SweepInterval: 5 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     storage.DefaultCacheTTL,
		},
		RateLimit: RateLimitConfig{
			Requests: 10,
			Window:   1 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			MetricsEnabled:     true,
			OTelEnabled:        false,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "shelfd",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

// fileConfig mirrors Config for the YAML overlay. Durations are strings
// in Go duration syntax since yaml.v3 cannot decode them natively, and
// pointers distinguish "absent" from zero values.
type fileConfig struct {
	Server struct {
		Host            *string `yaml:"host"`
		Port            *string `yaml:"port"`
		HealthPort      *string `yaml:"health_port"`
		ReadTimeout     *string `yaml:"read_timeout"`
		WriteTimeout    *string `yaml:"write_timeout"`
		IdleTimeout     *string `yaml:"idle_timeout"`
		ShutdownTimeout *string `yaml:"shutdown_timeout"`
		MaxBodyBytes    *int64  `yaml:"max_body_bytes"`
	} `yaml:"server"`
	Database struct {
		Driver   *string `yaml:"driver"`
		URL      *string `yaml:"url"`
		MaxConns *int    `yaml:"max_conns"`
		MinConns *int    `yaml:"min_conns"`
		Timeout  *string `yaml:"timeout"`
	} `yaml:"database"`
	Redis struct {
		Addr     *string `yaml:"addr"`
		Password *string `yaml:"password"`
		DB       *int    `yaml:"db"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret     *string `yaml:"jwt_secret"`
		TokenTTL      *string `yaml:"token_ttl"`
		BcryptCost    *int    `yaml:"bcrypt_cost"`
		SweepInterval *string `yaml:"sweep_interval"`
	} `yaml:"auth"`
	OAuth struct {
		GoogleClientID     *string `yaml:"google_client_id"`
		GoogleClientSecret *string `yaml:"google_client_secret"`
		GoogleRedirectURL  *string `yaml:"google_redirect_url"`
	} `yaml:"oauth"`
	Cache struct {
		Enabled *bool   `yaml:"enabled"`
		TTL     *string `yaml:"ttl"`
	} `yaml:"cache"`
	RateLimit struct {
		Requests *int    `yaml:"requests"`
		Window   *string `yaml:"window"`
	} `yaml:"rate_limit"`
	Observability struct {
		LogLevel           *string `yaml:"log_level"`
		MetricsEnabled     *bool   `yaml:"metrics_enabled"`
		OTelEnabled        *bool   `yaml:"otel_enabled"`
		OTelEndpoint       *string `yaml:"otel_endpoint"`
		OTelServiceName    *string `yaml:"otel_service_name"`
		OTelServiceVersion *string `yaml:"otel_service_version"`
		OTelInsecure       *bool   `yaml:"otel_insecure"`
	} `yaml:"observability"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	var durErr error
	setDuration := func(dst *time.Duration, src *string) {
		if src == nil {
			return
		}
		parsed, err := time.ParseDuration(*src)
		if err != nil && durErr == nil {
			durErr = fmt.Errorf("invalid duration %q in config file %s: %w", *src, path, err)
			return
		}
		*dst = parsed
	}

	setString(&c.Server.Host, fc.Server.Host)
	setString(&c.Server.Port, fc.Server.Port)
	setString(&c.Server.HealthPort, fc.Server.HealthPort)
	setDuration(&c.Server.ReadTimeout, fc.Server.ReadTimeout)
	setDuration(&c.Server.WriteTimeout, fc.Server.WriteTimeout)
	setDuration(&c.Server.IdleTimeout, fc.Server.IdleTimeout)
	setDuration(&c.Server.ShutdownTimeout, fc.Server.ShutdownTimeout)
	if fc.Server.MaxBodyBytes != nil {
		c.Server.MaxBodyBytes = *fc.Server.MaxBodyBytes
	}

	setString(&c.Database.Driver, fc.Database.Driver)
	setString(&c.Database.URL, fc.Database.URL)
	setInt(&c.Database.MaxConns, fc.Database.MaxConns)
	setInt(&c.Database.MinConns, fc.Database.MinConns)
	setDuration(&c.Database.Timeout, fc.Database.Timeout)

	setString(&c.Redis.Addr, fc.Redis.Addr)
	setString(&c.Redis.Password, fc.Redis.Password)
	setInt(&c.Redis.DB, fc.Redis.DB)

	setString(&c.Auth.JWTSecret, fc.Auth.JWTSecret)
	setDuration(&c.Auth.TokenTTL, fc.Auth.TokenTTL)
	setInt(&c.Auth.BcryptCost, fc.Auth.BcryptCost)
	setDuration(&c.Auth.SweepInterval, fc.Auth.SweepInterval)

	setString(&c.OAuth.GoogleClientID, fc.OAuth.GoogleClientID)
	setString(&c.OAuth.GoogleClientSecret, fc.OAuth.GoogleClientSecret)
	setString(&c.OAuth.GoogleRedirectURL, fc.OAuth.GoogleRedirectURL)

	setBool(&c.Cache.Enabled, fc.Cache.Enabled)
	setDuration(&c.Cache.TTL, fc.Cache.TTL)

	setInt(&c.RateLimit.Requests, fc.RateLimit.Requests)
	setDuration(&c.RateLimit.Window, fc.RateLimit.Window)

	setString(&c.Observability.LogLevel, fc.Observability.LogLevel)
	setBool(&c.Observability.MetricsEnabled, fc.Observability.MetricsEnabled)
	setBool(&c.Observability.OTelEnabled, fc.Observability.OTelEnabled)
	setString(&c.Observability.OTelEndpoint, fc.Observability.OTelEndpoint)
	setString(&c.Observability.OTelServiceName, fc.Observability.OTelServiceName)
	setString(&c.Observability.OTelServiceVersion, fc.Observability.OTelServiceVersion)
	setBool(&c.Observability.OTelInsecure, fc.Observability.OTelInsecure)

	return durErr
}

func (c *Config) applyEnv() {
	// Server
	c.Server.Host = getEnv("SHELFD_HOST", c.Server.Host)
	c.Server.Port = getEnv("SHELFD_PORT", c.Server.Port)
	c.Server.HealthPort = getEnv("SHELFD_HEALTH_PORT", c.Server.HealthPort)
	c.Server.ReadTimeout = getEnvDuration("SHELFD_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("SHELFD_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("SHELFD_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("SHELFD_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.MaxBodyBytes = getEnvInt64("SHELFD_MAX_BODY_BYTES", c.Server.MaxBodyBytes)

	// Database
	c.Database.Driver = getEnv("SHELFD_DB_DRIVER", c.Database.Driver)
	c.Database.URL = getEnv("SHELFD_DB_URL", c.Database.URL)
	c.Database.MaxConns = getEnvInt("SHELFD_DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvInt("SHELFD_DB_MIN_CONNS", c.Database.MinConns)
	c.Database.Timeout = getEnvDuration("SHELFD_DB_TIMEOUT", c.Database.Timeout)

	// Redis
	c.Redis.Addr = getEnv("SHELFD_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("SHELFD_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("SHELFD_REDIS_DB", c.Redis.DB)

	// Auth
	c.Auth.JWTSecret = getEnv("SHELFD_JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.TokenTTL = getEnvDuration("SHELFD_TOKEN_TTL", c.Auth.TokenTTL)
	c.Auth.BcryptCost = getEnvInt("SHELFD_BCRYPT_COST", c.Auth.BcryptCost)
	c.Auth.SweepInterval = getEnvDuration("SHELFD_TOKEN_SWEEP_INTERVAL", c.Auth.SweepInterval)

	// OAuth
	c.OAuth.GoogleClientID = getEnv("SHELFD_GOOGLE_CLIENT_ID", c.OAuth.GoogleClientID)
	c.OAuth.GoogleClientSecret = getEnv("SHELFD_GOOGLE_CLIENT_SECRET", c.OAuth.GoogleClientSecret)
	c.OAuth.GoogleRedirectURL = getEnv("SHELFD_GOOGLE_REDIRECT_URL", c.OAuth.GoogleRedirectURL)

	// Cache
	c.Cache.Enabled = getEnvBool("SHELFD_CACHE_ENABLED", c.Cache.Enabled)
	c.Cache.TTL = getEnvDuration("SHELFD_CACHE_TTL", c.Cache.TTL)

	// Rate limiting
	c.RateLimit.Requests = getEnvInt("SHELFD_RATE_LIMIT_REQUESTS", c.RateLimit.Requests)
	c.RateLimit.Window = getEnvDuration("SHELFD_RATE_LIMIT_WINDOW", c.RateLimit.Window)

	// Observability
	c.Observability.LogLevel = getEnv("SHELFD_LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.MetricsEnabled = getEnvBool("SHELFD_METRICS_ENABLED", c.Observability.MetricsEnabled)
	c.Observability.OTelEnabled = getEnvBool("SHELFD_OTEL_ENABLED", c.Observability.OTelEnabled)
	c.Observability.OTelEndpoint = getEnv("SHELFD_OTEL_ENDPOINT", c.Observability.OTelEndpoint)
	c.Observability.OTelServiceName = getEnv("SHELFD_OTEL_SERVICE_NAME", c.Observability.OTelServiceName)
	c.Observability.OTelServiceVersion = getEnv("SHELFD_OTEL_SERVICE_VERSION", c.Observability.OTelServiceVersion)
	c.Observability.OTelInsecure = getEnvBool("SHELFD_OTEL_INSECURE", c.Observability.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required")
	}

	// No baked-in fallback secret: a guessable signing key would let
	// anyone mint valid tokens.
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("SHELFD_JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}

	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit requests and window must be positive")
	}

	// Google sign-in needs all three settings or none
	oauthSet := 0
	for _, v := range []string{c.OAuth.GoogleClientID, c.OAuth.GoogleClientSecret, c.OAuth.GoogleRedirectURL} {
		if v != "" {
			oauthSet++
		}
	}
	if oauthSet != 0 && oauthSet != 3 {
		return fmt.Errorf("google oauth requires client ID, client secret and redirect URL together")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// OAuthEnabled reports whether Google sign-in is configured.
func (c *Config) OAuthEnabled() bool {
	return c.OAuth.GoogleClientID != ""
}

// LogLevel returns the configured log level parsed into the
// observability type.
func (c *Config) LogLevel() observability.LogLevel {
	return observability.ParseLogLevel(c.Observability.LogLevel)
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt64 returns a 64-bit integer environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
