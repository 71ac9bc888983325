package main

import (
	"context"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	appMol "github.com/turtacn/ToxInsight/internal/application/molecule"
	"github.com/turtacn/ToxInsight/internal/config"
	"github.com/turtacn/ToxInsight/internal/domain/molecule"
	"github.com/turtacn/ToxInsight/internal/infrastructure/chem/pubchem"
	"github.com/turtacn/ToxInsight/internal/infrastructure/chem/rdkit"
	"github.com/turtacn/ToxInsight/internal/infrastructure/database/redis"
	"github.com/turtacn/ToxInsight/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ToxInsight/internal/infrastructure/storage/minio"
	"github.com/turtacn/ToxInsight/internal/intelligence/assistant"
	"github.com/turtacn/ToxInsight/internal/intelligence/common"
	"github.com/turtacn/ToxInsight/internal/intelligence/toxicity_gcn"
	httpserver "github.com/turtacn/ToxInsight/internal/interfaces/http"
	"github.com/turtacn/ToxInsight/internal/interfaces/http/handlers"
	"github.com/turtacn/ToxInsight/internal/interfaces/http/middleware"
)

// application holds the wired object graph and the resources to release on
// shutdown, in reverse order of acquisition.
type application struct {
	router  *gin.Engine
	closers []io.Closer
	logger  logging.Logger
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("close failed", logging.Err(err))
		}
	}
}

// buildApplication wires every component described by cfg.
func buildApplication(ctx context.Context, cfg *config.Config, logger logging.Logger) (_ *application, err error) {
	app := &application{logger: logger}
	defer func() {
		if err != nil {
			app.close()
		}
	}()

	// --- Metrics ---
	var (
		metrics   *prometheus.AppMetrics
		collector prometheus.MetricsCollector
	)
	if cfg.Metrics.Enabled {
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		metrics = prometheus.NewAppMetrics(collector)
	}

	checkers := []handlers.HealthChecker{}

	// --- Cache ---
	cache := redis.NewNoopCache()
	if cfg.Cache.Enabled {
		rc, err := redis.NewClient(cfg.Redis, logger.Named("redis"))
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		app.closers = append(app.closers, rc)
		checkers = append(checkers, rc)
		cache = redis.NewRedisCache(rc, logger,
			redis.WithPrefix(cfg.Cache.KeyPrefix),
			redis.WithDefaultTTL(cfg.Cache.DefaultTTL),
			redis.WithLoadTimeout(cfg.Server.AnalyzeTimeout))
	}

	// --- Cheminformatics toolkit ---
	toolkit, err := rdkit.NewClient(cfg.Toolkit, logger, rdkit.WithMetrics(metrics))
	if err != nil {
		return nil, fmt.Errorf("toolkit: %w", err)
	}
	checkers = append(checkers, toolkit)

	// --- Toxicity model ---
	backend, err := common.NewHTTPServingClient(cfg.Model.ServingURL, cfg.Model.ModelName, cfg.Model.Timeout, logger)
	if err != nil {
		return nil, fmt.Errorf("model serving: %w", err)
	}
	predictor, err := toxicity_gcn.NewPredictor(backend, toxicity_gcn.ModelConfigFrom(cfg.Model), logger,
		toxicity_gcn.WithCache(cache),
		toxicity_gcn.WithMetrics(metrics))
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("predictor: %w", err)
	}
	app.closers = append(app.closers, predictor)
	checkers = append(checkers, predictor)

	if cfg.Model.GRPCHealthAddr != "" {
		hc, err := common.NewGRPCHealthChecker(cfg.Model.GRPCHealthAddr, logger)
		if err != nil {
			return nil, fmt.Errorf("model grpc health: %w", err)
		}
		app.closers = append(app.closers, hc)
		checkers = append(checkers, hc)
	}

	// --- Name lookup ---
	resolver, err := pubchem.NewResolver(cfg.Lookup, cache, logger, pubchem.WithMetrics(metrics))
	if err != nil {
		return nil, fmt.Errorf("name lookup: %w", err)
	}

	// --- Language model ---
	llm, err := assistant.New(ctx, cfg.LLM, logger, assistant.WithMetrics(metrics))
	if err != nil {
		return nil, fmt.Errorf("assistant: %w", err)
	}
	if llm.Enabled() {
		logger.Info("assistant enabled",
			logging.String("provider", string(llm.Provider())),
			logging.String("model", llm.Model()))
	}

	// --- Artifact archive ---
	var artifacts molecule.ArtifactStore
	if cfg.Storage.Enabled {
		store, err := minio.NewStore(cfg.Storage, logger, minio.WithMetrics(metrics))
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		app.closers = append(app.closers, store)
		checkers = append(checkers, store)
		artifacts = store
	}

	// --- Events ---
	var events molecule.EventPublisher
	if cfg.Events.Enabled {
		producer, err := kafka.NewProducer(kafka.ProducerConfigFrom(cfg.Events), logger, kafka.WithMetrics(metrics))
		if err != nil {
			return nil, fmt.Errorf("events: %w", err)
		}
		app.closers = append(app.closers, producer)
		checkers = append(checkers, producer)
		events = kafka.NewEventPublisher(producer)
	}

	// --- Application service ---
	svc, err := appMol.NewService(appMol.Dependencies{
		Toolkit:   toolkit,
		Predictor: predictor,
		Resolver:  resolver,
		Assistant: llm,
		Artifacts: artifacts,
		Events:    events,
	}, logger,
		appMol.WithAnalyzeTimeout(cfg.Server.AnalyzeTimeout),
		appMol.WithImageSize(cfg.Toolkit.ImageWidth, cfg.Toolkit.ImageHeight))
	if err != nil {
		return nil, fmt.Errorf("molecule service: %w", err)
	}

	// --- HTTP ---
	app.router = httpserver.NewRouter(httpserver.RouterConfig{
		MoleculeHandler: handlers.NewMoleculeHandler(svc, logger),
		HealthHandler:   handlers.NewHealthHandler(version, metrics, checkers...),
		CORS:            middleware.CORSConfigFrom(cfg.CORS),
		Logging:         middleware.DefaultLoggingConfig(),
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimitRPS,
			Burst:             cfg.Server.RateLimitBurst,
		},
		MaxBodySize:      cfg.Server.MaxBodySize,
		Logger:           logger,
		Metrics:          metrics,
		MetricsCollector: collector,
		MetricsPath:      cfg.Metrics.Path,
	})
	return app, nil
}

//Personal.AI order the ending
