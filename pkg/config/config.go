package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dilovar-s/protokol/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Auth          AuthConfig          `yaml:"auth"`
	Files         FilesConfig         `yaml:"files"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Janitor       JanitorConfig       `yaml:"janitor"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	URL         string        `yaml:"url"`
	MaxConns    int           `yaml:"max_conns"`
	MinConns    int           `yaml:"min_conns"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxLifetime time.Duration `yaml:"max_lifetime"`
	MaxIdleTime time.Duration `yaml:"max_idle_time"`
}

// AuthConfig holds token and password hashing configuration.
// JWTSecret has no default on purpose: startup fails without one.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

// FilesConfig holds file storage configuration
type FilesConfig struct {
	// Backend is "filesystem" or "s3"
	Backend string `yaml:"backend"`
	// DataDir roots the filesystem backend; uploads and generated
	// documents live in subdirectories beneath it
	DataDir       string `yaml:"data_dir"`
	MaxUploadSize int64  `yaml:"max_upload_size"`

	S3Endpoint     string `yaml:"s3_endpoint"`
	S3Region       string `yaml:"s3_region"`
	S3Bucket       string `yaml:"s3_bucket"`
	S3AccessKey    string `yaml:"s3_access_key"`
	S3SecretKey    string `yaml:"s3_secret_key"`
	S3UsePathStyle bool   `yaml:"s3_use_path_style"`
}

// TranscriptionConfig holds the external transcription service settings
type TranscriptionConfig struct {
	// URL of the transcription service; empty enables the built-in simulator
	URL             string        `yaml:"url"`
	DefaultLanguage string        `yaml:"default_language"`
	Timeout         time.Duration `yaml:"timeout"`
}

// RateLimitConfig holds login throttling configuration
type RateLimitConfig struct {
	LoginAttempts int           `yaml:"login_attempts"`
	LoginWindow   time.Duration `yaml:"login_window"`

	// RedisURL switches the limiter from in-memory to Redis when set
	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// JanitorConfig holds orphaned-file cleanup configuration
type JanitorConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Schedule string        `yaml:"schedule"`
	MinAge   time.Duration `yaml:"min_age"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`

	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"`
}

// ParsedLogLevel returns the configured log level
func (c ObservabilityConfig) ParsedLogLevel() observability.LogLevel {
	return observability.ParseLevel(c.LogLevel)
}

// LoadConfig resolves configuration from defaults, the optional YAML file
// named by PROTOKOL_CONFIG_FILE, and PROTOKOL_* environment variables.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := getEnv("PROTOKOL_CONFIG_FILE", ""); path != "" {
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
			Port:            "5000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
		},
		Database: DatabaseConfig{
			MaxConns:    20,
			MinConns:    2,
			Timeout:     10 * time.Second,
			MaxLifetime: 1 * time.Hour,
			MaxIdleTime: 10 * time.Minute,
		},
		Auth: AuthConfig{
			TokenTTL:   24 * time.Hour,
			BcryptCost: 10,
		},
		Files: FilesConfig{
			Backend:       "filesystem",
			DataDir:       "data",
			MaxUploadSize: 50 * 1024 * 1024,
			S3Region:      "us-east-1",
		},
		Transcription: TranscriptionConfig{
			DefaultLanguage: "ru-RU",
			Timeout:         5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			LoginAttempts: 10,
			LoginWindow:   time.Minute,
		},
		Janitor: JanitorConfig{
			Enabled:  true,
			Schedule: "0 3 * * *",
			MinAge:   24 * time.Hour,
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "protokol-api",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

// applyFile overlays values from a YAML file
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays PROTOKOL_* environment variables; unset variables
// keep the current value.
func (c *Config) applyEnv() {
	c.Server.Host = getEnv("PROTOKOL_HOST", c.Server.Host)
	c.Server.Port = getEnv("PROTOKOL_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("PROTOKOL_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("PROTOKOL_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("PROTOKOL_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("PROTOKOL_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.HealthPort = getEnv("PROTOKOL_HEALTH_PORT", c.Server.HealthPort)

	c.Database.URL = getEnv("PROTOKOL_POSTGRES_URL", c.Database.URL)
	c.Database.MaxConns = getEnvInt("PROTOKOL_POSTGRES_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvInt("PROTOKOL_POSTGRES_MIN_CONNS", c.Database.MinConns)
	c.Database.Timeout = getEnvDuration("PROTOKOL_POSTGRES_TIMEOUT", c.Database.Timeout)
	c.Database.MaxLifetime = getEnvDuration("PROTOKOL_POSTGRES_MAX_LIFETIME", c.Database.MaxLifetime)
	c.Database.MaxIdleTime = getEnvDuration("PROTOKOL_POSTGRES_MAX_IDLE_TIME", c.Database.MaxIdleTime)

	c.Auth.JWTSecret = getEnv("PROTOKOL_JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.TokenTTL = getEnvDuration("PROTOKOL_TOKEN_TTL", c.Auth.TokenTTL)
	c.Auth.BcryptCost = getEnvInt("PROTOKOL_BCRYPT_COST", c.Auth.BcryptCost)

	c.Files.Backend = getEnv("PROTOKOL_FILES_BACKEND", c.Files.Backend)
	c.Files.DataDir = getEnv("PROTOKOL_DATA_DIR", c.Files.DataDir)
	c.Files.MaxUploadSize = getEnvInt64("PROTOKOL_MAX_UPLOAD_SIZE", c.Files.MaxUploadSize)
	c.Files.S3Endpoint = getEnv("PROTOKOL_S3_ENDPOINT", c.Files.S3Endpoint)
	c.Files.S3Region = getEnv("PROTOKOL_S3_REGION", c.Files.S3Region)
	c.Files.S3Bucket = getEnv("PROTOKOL_S3_BUCKET", c.Files.S3Bucket)
	c.Files.S3AccessKey = getEnv("PROTOKOL_S3_ACCESS_KEY", c.Files.S3AccessKey)
	c.Files.S3SecretKey = getEnv("PROTOKOL_S3_SECRET_KEY", c.Files.S3SecretKey)
	c.Files.S3UsePathStyle = getEnvBool("PROTOKOL_S3_USE_PATH_STYLE", c.Files.S3UsePathStyle)

	c.Transcription.URL = getEnv("PROTOKOL_TRANSCRIPTION_URL", c.Transcription.URL)
	c.Transcription.DefaultLanguage = getEnv("PROTOKOL_TRANSCRIPTION_LANGUAGE", c.Transcription.DefaultLanguage)
	c.Transcription.Timeout = getEnvDuration("PROTOKOL_TRANSCRIPTION_TIMEOUT", c.Transcription.Timeout)

	c.RateLimit.LoginAttempts = getEnvInt("PROTOKOL_LOGIN_ATTEMPTS", c.RateLimit.LoginAttempts)
	c.RateLimit.LoginWindow = getEnvDuration("PROTOKOL_LOGIN_WINDOW", c.RateLimit.LoginWindow)
	c.RateLimit.RedisURL = getEnv("PROTOKOL_REDIS_URL", c.RateLimit.RedisURL)
	c.RateLimit.RedisPassword = getEnv("PROTOKOL_REDIS_PASSWORD", c.RateLimit.RedisPassword)
	c.RateLimit.RedisDB = getEnvInt("PROTOKOL_REDIS_DB", c.RateLimit.RedisDB)

	c.Janitor.Enabled = getEnvBool("PROTOKOL_JANITOR_ENABLED", c.Janitor.Enabled)
	c.Janitor.Schedule = getEnv("PROTOKOL_JANITOR_SCHEDULE", c.Janitor.Schedule)
	c.Janitor.MinAge = getEnvDuration("PROTOKOL_JANITOR_MIN_AGE", c.Janitor.MinAge)

	c.Observability.LogLevel = getEnv("PROTOKOL_LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.MetricsEnabled = getEnvBool("PROTOKOL_METRICS_ENABLED", c.Observability.MetricsEnabled)
	c.Observability.OTelEnabled = getEnvBool("PROTOKOL_OTEL_ENABLED", c.Observability.OTelEnabled)
	c.Observability.OTelEndpoint = getEnv("PROTOKOL_OTEL_ENDPOINT", c.Observability.OTelEndpoint)
	c.Observability.OTelServiceName = getEnv("PROTOKOL_OTEL_SERVICE_NAME", c.Observability.OTelServiceName)
	c.Observability.OTelServiceVersion = getEnv("PROTOKOL_OTEL_SERVICE_VERSION", c.Observability.OTelServiceVersion)
	c.Observability.OTelInsecure = getEnvBool("PROTOKOL_OTEL_INSECURE", c.Observability.OTelInsecure)
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
		return fmt.Errorf("postgres URL is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}

	switch c.Files.Backend {
	case "filesystem":
		if c.Files.DataDir == "" {
			return fmt.Errorf("data directory is required for filesystem storage")
		}
	case "s3":
		if c.Files.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("invalid files backend: %s (must be filesystem or s3)", c.Files.Backend)
	}

	if c.Files.MaxUploadSize <= 0 {
		return fmt.Errorf("max upload size must be positive")
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
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
