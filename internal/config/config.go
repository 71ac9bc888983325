// Package config defines all configuration structures for ToxInsight. No I/O
// or parsing logic lives in this file, only plain data types and validation.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// AnalyzeTimeout bounds /analyze end to end; a late LLM answer becomes an
	// inline error.
	AnalyzeTimeout time.Duration `mapstructure:"analyze_timeout"`
	// RateLimitRPS caps molecule requests per client; 0 disables the limiter.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CORSConfig controls the browser-facing CORS headers.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// ToolkitConfig points at the RDKit sidecar that performs parsing, embedding,
// descriptor calculation and depiction.
type ToolkitConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	ImageWidth  int           `mapstructure:"image_width"`
	ImageHeight int           `mapstructure:"image_height"`
	ForceField  string        `mapstructure:"force_field"` // "UFF" | "MMFF"
	MaxRetries  int           `mapstructure:"max_retries"`
}

// ModelConfig points at the model server hosting the Tox21 GraphConv model.
type ModelConfig struct {
	ServingURL string        `mapstructure:"serving_url"`
	ModelName  string        `mapstructure:"model_name"`
	Version    string        `mapstructure:"version"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Threshold  float64       `mapstructure:"threshold"`
	// GRPCHealthAddr enables a grpc.health.v1 readiness probe when set.
	GRPCHealthAddr string        `mapstructure:"grpc_health_addr"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

// LLMConfig selects and configures the assistant backend.
type LLMConfig struct {
	Provider       string        `mapstructure:"provider"` // "gemini" | "openai"
	Model          string        `mapstructure:"model"`
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxPromptBytes int           `mapstructure:"max_prompt_bytes"`
	Temperature    float32       `mapstructure:"temperature"`
}

// LookupConfig configures the PubChem compound-name resolver.
type LookupConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BaseURL  string        `mapstructure:"base_url"`
	RPS      float64       `mapstructure:"rps"`
	Burst    int           `mapstructure:"burst"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// CacheConfig toggles the Redis-backed result cache.
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	KeyPrefix  string        `mapstructure:"key_prefix"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// StorageConfig configures the optional MinIO/S3 archive for MOL blocks and
// depictions.
type StorageConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	Region          string        `mapstructure:"region"`
	Bucket          string        `mapstructure:"bucket"`
	PresignExpiry   time.Duration `mapstructure:"presign_expiry"`
}

// EventsConfig configures the optional Kafka publisher for request events.
type EventsConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	Acks         string        `mapstructure:"acks"`        // "none" | "leader" | "all"
	Compression  string        `mapstructure:"compression"` // "none" | "gzip" | "snappy" | "lz4" | "zstd"
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// Config is the root configuration object.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Toolkit ToolkitConfig `mapstructure:"toolkit"`
	Model   ModelConfig   `mapstructure:"model"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Lookup  LookupConfig  `mapstructure:"lookup"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Storage StorageConfig `mapstructure:"storage"`
	Events  EventsConfig  `mapstructure:"events"`
}

func validateURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("config: %s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: %s %q is not an absolute URL", field, raw)
	}
	return nil
}

// Validate performs semantic checks on a defaulted Config.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.Server.MaxBodySize <= 0 {
		return fmt.Errorf("config: server.max_body_size must be > 0")
	}
	if c.Server.RateLimitRPS < 0 || c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("config: server.rate_limit_rps and server.rate_limit_burst must be >= 0")
	}

	// CORS
	if len(c.CORS.AllowedOrigins) == 0 {
		return fmt.Errorf("config: cors.allowed_origins must contain at least one origin")
	}

	// Toolkit
	if err := validateURL("toolkit.base_url", c.Toolkit.BaseURL); err != nil {
		return err
	}
	if c.Toolkit.ImageWidth < 1 || c.Toolkit.ImageHeight < 1 {
		return fmt.Errorf("config: toolkit image size must be positive, got %dx%d", c.Toolkit.ImageWidth, c.Toolkit.ImageHeight)
	}
	switch c.Toolkit.ForceField {
	case "UFF", "MMFF":
	default:
		return fmt.Errorf("config: toolkit.force_field %q is invalid; expected UFF|MMFF", c.Toolkit.ForceField)
	}

	// Model
	if err := validateURL("model.serving_url", c.Model.ServingURL); err != nil {
		return err
	}
	if c.Model.ModelName == "" {
		return fmt.Errorf("config: model.model_name is required")
	}
	if c.Model.Threshold <= 0 || c.Model.Threshold >= 1 {
		return fmt.Errorf("config: model.threshold must be in (0, 1), got %v", c.Model.Threshold)
	}

	// LLM
	switch c.LLM.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("config: llm.provider %q is invalid; expected gemini|openai", c.LLM.Provider)
	}
	if c.LLM.BaseURL != "" {
		if err := validateURL("llm.base_url", c.LLM.BaseURL); err != nil {
			return err
		}
	}

	// Lookup
	if c.Lookup.Enabled {
		if err := validateURL("lookup.base_url", c.Lookup.BaseURL); err != nil {
			return err
		}
		if c.Lookup.RPS <= 0 {
			return fmt.Errorf("config: lookup.rps must be > 0, got %v", c.Lookup.RPS)
		}
	}

	// Cache
	if c.Cache.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when cache.enabled is true")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// Storage
	if c.Storage.Enabled {
		if c.Storage.Endpoint == "" {
			return fmt.Errorf("config: storage.endpoint is required when storage.enabled is true")
		}
		if c.Storage.Bucket == "" {
			return fmt.Errorf("config: storage.bucket is required when storage.enabled is true")
		}
	}

	// Events
	if c.Events.Enabled {
		if len(c.Events.Brokers) == 0 {
			return fmt.Errorf("config: events.brokers must not be empty when events.enabled is true")
		}
		if c.Events.Topic == "" {
			return fmt.Errorf("config: events.topic is required when events.enabled is true")
		}
		switch c.Events.Acks {
		case "none", "leader", "all":
		default:
			return fmt.Errorf("config: events.acks %q is invalid; expected none|leader|all", c.Events.Acks)
		}
		switch c.Events.Compression {
		case "none", "gzip", "snappy", "lz4", "zstd":
		default:
			return fmt.Errorf("config: events.compression %q is invalid", c.Events.Compression)
		}
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

//Personal.AI order the ending
