package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/tenancy/pkg/observability"
	"github.com/platinummonkey/tenancy/pkg/secrets"
	"github.com/platinummonkey/tenancy/pkg/storage"
	"github.com/platinummonkey/tenancy/pkg/storage/postgres"
)

// ConfigFileEnv names the optional YAML file applied beneath the environment
const ConfigFileEnv = "TENANCY_CONFIG_FILE"

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       storage.Config      `yaml:"storage"`
	Webhooks      WebhooksConfig      `yaml:"webhooks"`
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

	// IdentityHeader carries the caller email set by the authenticating gateway
	IdentityHeader string `yaml:"identity_header"`
}

// WebhooksConfig holds secret encryption and dispatch settings
type WebhooksConfig struct {
	// EncryptionKey is 32 raw bytes or their standard base64 encoding
	EncryptionKey string `yaml:"encryption_key"`

	RequestTimeout   time.Duration `yaml:"request_timeout"`
	DispatchDeadline time.Duration `yaml:"dispatch_deadline"`
	MaxConcurrency   int           `yaml:"max_concurrency"`

	PropagationLogSize      int           `yaml:"propagation_log_size"`
	PropagationLogRetention time.Duration `yaml:"propagation_log_retention"`
	PropagationPruneSpec    string        `yaml:"propagation_prune_schedule"`

	HookCacheTTL time.Duration `yaml:"hook_cache_ttl"`
}

// Key decodes EncryptionKey
func (w WebhooksConfig) Key() ([]byte, error) {
	if len(w.EncryptionKey) == secrets.KeySize {
		return []byte(w.EncryptionKey), nil
	}
	key, err := base64.StdEncoding.DecodeString(w.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is neither %d raw bytes nor base64", secrets.KeySize)
	}
	if len(key) != secrets.KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", secrets.KeySize, len(key))
	}
	return key, nil
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`

	// OpenTelemetry
	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"` // Use insecure gRPC connection
}

// Level parses LogLevel
func (o ObservabilityConfig) Level() observability.LogLevel {
	return observability.ParseLevel(o.LogLevel)
}

// OTel converts to the tracer bootstrap config
func (o ObservabilityConfig) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        o.OTelEnabled,
		Endpoint:       o.OTelEndpoint,
		ServiceName:    o.OTelServiceName,
		ServiceVersion: o.OTelServiceVersion,
		Insecure:       o.OTelInsecure,
	}
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
			IdentityHeader:  "X-Tenancy-Email",
		},
		Storage: storage.DefaultConfig(),
		Webhooks: WebhooksConfig{
			RequestTimeout:          10 * time.Second,
			MaxConcurrency:          16,
			PropagationLogSize:      1000,
			PropagationLogRetention: 24 * time.Hour,
			PropagationPruneSpec:    "@every 1h",
			HookCacheTTL:            time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "tenancy",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

// LoadConfig applies the optional YAML file, then the environment, to the defaults
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	s := &c.Server
	s.Host = getEnv("TENANCY_HOST", s.Host)
	s.Port = getEnv("TENANCY_PORT", s.Port)
	s.ReadTimeout = getEnvDuration("TENANCY_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvDuration("TENANCY_WRITE_TIMEOUT", s.WriteTimeout)
	s.IdleTimeout = getEnvDuration("TENANCY_IDLE_TIMEOUT", s.IdleTimeout)
	s.ShutdownTimeout = getEnvDuration("TENANCY_SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.HealthPort = getEnv("TENANCY_HEALTH_PORT", s.HealthPort)
	s.IdentityHeader = getEnv("TENANCY_IDENTITY_HEADER", s.IdentityHeader)

	st := &c.Storage
	st.PostgresURL = getEnv("TENANCY_POSTGRES_URL", st.PostgresURL)
	if replicas := getEnv("TENANCY_POSTGRES_REPLICA_URLS", ""); replicas != "" {
		st.PostgresReplicaURLs = postgres.ParseReplicaURLs(replicas)
	}
	st.PostgresMaxConns = getEnvInt("TENANCY_POSTGRES_MAX_CONNS", st.PostgresMaxConns)
	st.PostgresMinConns = getEnvInt("TENANCY_POSTGRES_MIN_CONNS", st.PostgresMinConns)
	st.PostgresTimeout = getEnvDuration("TENANCY_POSTGRES_TIMEOUT", st.PostgresTimeout)
	st.RunMigrations = getEnvBool("TENANCY_RUN_MIGRATIONS", st.RunMigrations)
	st.RedisURL = getEnv("TENANCY_REDIS_URL", st.RedisURL)
	st.RedisPassword = getEnv("TENANCY_REDIS_PASSWORD", st.RedisPassword)
	st.RedisDB = getEnvInt("TENANCY_REDIS_DB", st.RedisDB)
	st.RedisMaxRetries = getEnvInt("TENANCY_REDIS_MAX_RETRIES", st.RedisMaxRetries)
	st.RedisPoolSize = getEnvInt("TENANCY_REDIS_POOL_SIZE", st.RedisPoolSize)
	st.ProfileCacheTTL = getEnvDuration("TENANCY_PROFILE_CACHE_TTL", st.ProfileCacheTTL)

	w := &c.Webhooks
	w.EncryptionKey = getEnv("TENANCY_ENCRYPTION_KEY", w.EncryptionKey)
	w.RequestTimeout = getEnvDuration("TENANCY_WEBHOOK_TIMEOUT", w.RequestTimeout)
	w.DispatchDeadline = getEnvDuration("TENANCY_WEBHOOK_DEADLINE", w.DispatchDeadline)
	w.MaxConcurrency = getEnvInt("TENANCY_WEBHOOK_MAX_CONCURRENCY", w.MaxConcurrency)
	w.PropagationLogSize = getEnvInt("TENANCY_PROPAGATION_LOG_SIZE", w.PropagationLogSize)
	w.PropagationLogRetention = getEnvDuration("TENANCY_PROPAGATION_LOG_RETENTION", w.PropagationLogRetention)
	w.PropagationPruneSpec = getEnv("TENANCY_PROPAGATION_PRUNE_SCHEDULE", w.PropagationPruneSpec)
	w.HookCacheTTL = getEnvDuration("TENANCY_WEBHOOK_CACHE_TTL", w.HookCacheTTL)

	o := &c.Observability
	o.LogLevel = getEnv("TENANCY_LOG_LEVEL", o.LogLevel)
	o.MetricsEnabled = getEnvBool("TENANCY_METRICS_ENABLED", o.MetricsEnabled)
	o.OTelEnabled = getEnvBool("TENANCY_OTEL_ENABLED", o.OTelEnabled)
	o.OTelEndpoint = getEnv("TENANCY_OTEL_ENDPOINT", o.OTelEndpoint)
	o.OTelServiceName = getEnv("TENANCY_OTEL_SERVICE_NAME", o.OTelServiceName)
	o.OTelServiceVersion = getEnv("TENANCY_OTEL_SERVICE_VERSION", o.OTelServiceVersion)
	o.OTelInsecure = getEnvBool("TENANCY_OTEL_INSECURE", o.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server port is required")
	}
	if c.Server.HealthPort == "" {
		return errors.New("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return errors.New("server port and health port must be different")
	}
	if c.Server.IdentityHeader == "" {
		return errors.New("identity header is required")
	}

	if c.Storage.PostgresURL == "" {
		return errors.New("postgres URL is required")
	}

	if _, err := c.Webhooks.Key(); err != nil {
		return err
	}
	if c.Webhooks.RequestTimeout <= 0 {
		return errors.New("webhook request timeout must be positive")
	}
	if c.Webhooks.DispatchDeadline < 0 {
		return errors.New("webhook dispatch deadline cannot be negative")
	}
	if c.Webhooks.MaxConcurrency < 0 {
		return errors.New("webhook max concurrency cannot be negative")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return errors.New("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return errors.New("OpenTelemetry service name is required when OTel is enabled")
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

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
