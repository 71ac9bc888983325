package http

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ToxInsight/internal/interfaces/http/handlers"
	"github.com/turtacn/ToxInsight/internal/interfaces/http/middleware"
)

const defaultMetricsPath = "/metrics"

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the HTTP route tree.
type RouterConfig struct {
	// Handlers
	MoleculeHandler *handlers.MoleculeHandler
	HealthHandler   *handlers.HealthHandler

	// Middleware
	CORS        middleware.CORSConfig
	Logging     middleware.LoggingConfig
	RateLimit   middleware.RateLimitConfig
	MaxBodySize int64

	// Infrastructure
	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string
}

// NewRouter constructs the route tree. Global middleware runs in the order
// RequestID → Recovery → CORS → Logging → Metrics → BodyLimit. Molecule
// routes additionally pass the per-client rate limiter when one is configured.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = defaultMetricsPath
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// --- Global middleware ---
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(cfg.Logger, cfg.Metrics))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging))
	r.Use(middleware.Metrics(cfg.Metrics))
	if cfg.MaxBodySize > 0 {
		r.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	// --- Probes ---
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}
	if cfg.MetricsCollector != nil {
		r.GET(cfg.MetricsPath, gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	// --- Molecule API ---
	if cfg.MoleculeHandler != nil {
		api := r.Group("/")
		if cfg.RateLimit.Enabled() {
			api.Use(middleware.RateLimit(cfg.RateLimit, cfg.Metrics))
		}
		cfg.MoleculeHandler.RegisterRoutes(api)
	}

	return r
}

//Personal.AI order the ending
