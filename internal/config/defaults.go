package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8000
	DefaultServerMode      = "release"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultMaxBodySize     = 1 << 20
	DefaultShutdownTimeout = 30 * time.Second
	DefaultAnalyzeTimeout  = 90 * time.Second
	DefaultRateLimitBurst  = 20

	DefaultToolkitURL     = "http://localhost:8081"
	DefaultToolkitTimeout = 30 * time.Second
	DefaultImageSize      = 400
	DefaultForceField     = "UFF"
	DefaultToolkitRetries = 2

	DefaultModelServingURL = "http://localhost:8501"
	DefaultModelName       = "tox21_graphconv"
	DefaultModelTimeout    = 10 * time.Second
	DefaultToxicThreshold  = 0.5
	DefaultModelCacheTTL   = time.Hour

	DefaultLLMProvider       = "gemini"
	DefaultGeminiModel       = "gemini-1.5-flash"
	DefaultOpenAIModel       = "gpt-4o-mini"
	DefaultLLMTimeout        = 60 * time.Second
	DefaultLLMMaxPromptBytes = 32 << 10

	DefaultLookupURL      = "https://pubchem.ncbi.nlm.nih.gov"
	DefaultLookupRPS      = 5.0
	DefaultLookupBurst    = 5
	DefaultLookupTimeout  = 10 * time.Second
	DefaultLookupCacheTTL = 24 * time.Hour

	DefaultCacheKeyPrefix = "toxinsight:"
	DefaultCacheTTL       = time.Hour

	DefaultRedisAddr         = "localhost:6379"
	DefaultRedisPoolSize     = 10
	DefaultRedisDialTimeout  = 5 * time.Second
	DefaultRedisReadTimeout  = 3 * time.Second
	DefaultRedisWriteTimeout = 3 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "toxinsight"

	DefaultStorageBucket  = "toxinsight-artifacts"
	DefaultStorageRegion  = "us-east-1"
	DefaultPresignExpiry  = 15 * time.Minute
	DefaultEventsTopic    = "toxinsight.molecule.events"
	DefaultEventsAcks     = "leader"
	DefaultEventsCodec    = "none"
	DefaultEventsBatchDur = 50 * time.Millisecond
)

// DefaultCORSOrigins allows any origin, matching a browser client served from
// a different port during development.
var (
	DefaultCORSOrigins = []string{"*"}
	DefaultCORSMethods = []string{"GET", "POST", "OPTIONS"}
	DefaultCORSHeaders = []string{"Origin", "Content-Type", "Accept", "X-Request-ID"}
)

// registerDefaults seeds v with every known key so that AutomaticEnv can
// resolve TOXI_* variables for keys absent from the config file, and so that
// boolean switches get a non-zero default.
func registerDefaults(v *viper.Viper) {
	v.SetDefault("server.host", DefaultServerHost)
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.mode", DefaultServerMode)
	v.SetDefault("server.read_timeout", DefaultReadTimeout)
	v.SetDefault("server.write_timeout", DefaultWriteTimeout)
	v.SetDefault("server.max_body_size", DefaultMaxBodySize)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("server.analyze_timeout", DefaultAnalyzeTimeout)
	v.SetDefault("server.rate_limit_rps", 0)
	v.SetDefault("server.rate_limit_burst", 0)

	v.SetDefault("cors.allowed_origins", DefaultCORSOrigins)
	v.SetDefault("cors.allowed_methods", DefaultCORSMethods)
	v.SetDefault("cors.allowed_headers", DefaultCORSHeaders)
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 86400)

	v.SetDefault("toolkit.base_url", DefaultToolkitURL)
	v.SetDefault("toolkit.timeout", DefaultToolkitTimeout)
	v.SetDefault("toolkit.image_width", DefaultImageSize)
	v.SetDefault("toolkit.image_height", DefaultImageSize)
	v.SetDefault("toolkit.force_field", DefaultForceField)
	v.SetDefault("toolkit.max_retries", DefaultToolkitRetries)

	v.SetDefault("model.serving_url", DefaultModelServingURL)
	v.SetDefault("model.model_name", DefaultModelName)
	v.SetDefault("model.version", "")
	v.SetDefault("model.timeout", DefaultModelTimeout)
	v.SetDefault("model.threshold", DefaultToxicThreshold)
	v.SetDefault("model.grpc_health_addr", "")
	v.SetDefault("model.cache_ttl", DefaultModelCacheTTL)

	v.SetDefault("llm.provider", DefaultLLMProvider)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", DefaultLLMTimeout)
	v.SetDefault("llm.max_prompt_bytes", DefaultLLMMaxPromptBytes)
	v.SetDefault("llm.temperature", 0)

	v.SetDefault("lookup.enabled", true)
	v.SetDefault("lookup.base_url", DefaultLookupURL)
	v.SetDefault("lookup.rps", DefaultLookupRPS)
	v.SetDefault("lookup.burst", DefaultLookupBurst)
	v.SetDefault("lookup.timeout", DefaultLookupTimeout)
	v.SetDefault("lookup.cache_ttl", DefaultLookupCacheTTL)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.key_prefix", DefaultCacheKeyPrefix)
	v.SetDefault("cache.default_ttl", DefaultCacheTTL)

	v.SetDefault("redis.addr", DefaultRedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", DefaultRedisPoolSize)
	v.SetDefault("redis.min_idle_conns", 0)
	v.SetDefault("redis.dial_timeout", DefaultRedisDialTimeout)
	v.SetDefault("redis.read_timeout", DefaultRedisReadTimeout)
	v.SetDefault("redis.write_timeout", DefaultRedisWriteTimeout)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("log.output_paths", []string{"stdout"})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", DefaultMetricsPath)
	v.SetDefault("metrics.namespace", DefaultMetricsNamespace)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.region", DefaultStorageRegion)
	v.SetDefault("storage.bucket", DefaultStorageBucket)
	v.SetDefault("storage.presign_expiry", DefaultPresignExpiry)

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.brokers", []string{})
	v.SetDefault("events.topic", DefaultEventsTopic)
	v.SetDefault("events.acks", DefaultEventsAcks)
	v.SetDefault("events.compression", DefaultEventsCodec)
	v.SetDefault("events.batch_timeout", DefaultEventsBatchDur)
}

// ApplyDefaults fills every zero-value field in cfg with its default. Fields
// already set by the caller are left unchanged. Booleans are defaulted by
// registerDefaults only, since false is a meaningful explicit value.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// Server
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.AnalyzeTimeout == 0 {
		cfg.Server.AnalyzeTimeout = DefaultAnalyzeTimeout
	}
	if cfg.Server.RateLimitRPS > 0 && cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = DefaultRateLimitBurst
	}

	// CORS
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = append([]string(nil), DefaultCORSOrigins...)
	}
	if len(cfg.CORS.AllowedMethods) == 0 {
		cfg.CORS.AllowedMethods = append([]string(nil), DefaultCORSMethods...)
	}
	if len(cfg.CORS.AllowedHeaders) == 0 {
		cfg.CORS.AllowedHeaders = append([]string(nil), DefaultCORSHeaders...)
	}

	// Toolkit
	if cfg.Toolkit.BaseURL == "" {
		cfg.Toolkit.BaseURL = DefaultToolkitURL
	}
	if cfg.Toolkit.Timeout == 0 {
		cfg.Toolkit.Timeout = DefaultToolkitTimeout
	}
	if cfg.Toolkit.ImageWidth == 0 {
		cfg.Toolkit.ImageWidth = DefaultImageSize
	}
	if cfg.Toolkit.ImageHeight == 0 {
		cfg.Toolkit.ImageHeight = DefaultImageSize
	}
	if cfg.Toolkit.ForceField == "" {
		cfg.Toolkit.ForceField = DefaultForceField
	}

	// Model
	if cfg.Model.ServingURL == "" {
		cfg.Model.ServingURL = DefaultModelServingURL
	}
	if cfg.Model.ModelName == "" {
		cfg.Model.ModelName = DefaultModelName
	}
	if cfg.Model.Timeout == 0 {
		cfg.Model.Timeout = DefaultModelTimeout
	}
	if cfg.Model.Threshold == 0 {
		cfg.Model.Threshold = DefaultToxicThreshold
	}
	if cfg.Model.CacheTTL == 0 {
		cfg.Model.CacheTTL = DefaultModelCacheTTL
	}

	// LLM
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = DefaultLLMProvider
	}
	if cfg.LLM.Model == "" {
		if cfg.LLM.Provider == "openai" {
			cfg.LLM.Model = DefaultOpenAIModel
		} else {
			cfg.LLM.Model = DefaultGeminiModel
		}
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = DefaultLLMTimeout
	}
	if cfg.LLM.MaxPromptBytes == 0 {
		cfg.LLM.MaxPromptBytes = DefaultLLMMaxPromptBytes
	}

	// Lookup
	if cfg.Lookup.BaseURL == "" {
		cfg.Lookup.BaseURL = DefaultLookupURL
	}
	if cfg.Lookup.RPS == 0 {
		cfg.Lookup.RPS = DefaultLookupRPS
	}
	if cfg.Lookup.Burst == 0 {
		cfg.Lookup.Burst = DefaultLookupBurst
	}
	if cfg.Lookup.Timeout == 0 {
		cfg.Lookup.Timeout = DefaultLookupTimeout
	}
	if cfg.Lookup.CacheTTL == 0 {
		cfg.Lookup.CacheTTL = DefaultLookupCacheTTL
	}

	// Cache / Redis
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = DefaultCacheKeyPrefix
	}
	if cfg.Cache.DefaultTTL == 0 {
		cfg.Cache.DefaultTTL = DefaultCacheTTL
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = DefaultRedisDialTimeout
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = DefaultRedisReadTimeout
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = DefaultRedisWriteTimeout
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if len(cfg.Log.OutputPaths) == 0 {
		cfg.Log.OutputPaths = []string{"stdout"}
	}

	// Metrics
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// Storage
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = DefaultStorageRegion
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = DefaultStorageBucket
	}
	if cfg.Storage.PresignExpiry == 0 {
		cfg.Storage.PresignExpiry = DefaultPresignExpiry
	}

	// Events
	if cfg.Events.Topic == "" {
		cfg.Events.Topic = DefaultEventsTopic
	}
	if cfg.Events.Acks == "" {
		cfg.Events.Acks = DefaultEventsAcks
	}
	if cfg.Events.Compression == "" {
		cfg.Events.Compression = DefaultEventsCodec
	}
	if cfg.Events.BatchTimeout == 0 {
		cfg.Events.BatchTimeout = DefaultEventsBatchDur
	}
}

//Personal.AI order the ending
