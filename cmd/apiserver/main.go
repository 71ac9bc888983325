// API server entry point for ToxInsight.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/ToxInsight/internal/config"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/ToxInsight/internal/interfaces/http"
)

const defaultConfigPath = "configs/config.yaml"

// Build-time variable injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before configuration")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	if err := run(*configPath, *envFile, *port); err != nil {
		fmt.Fprintf(os.Stderr, "toxinsight-apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string, port int) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	logger.Info("starting ToxInsight API server",
		logging.String("version", version),
		logging.String("addr", cfg.Server.Addr()),
		logging.String("toolkit", cfg.Toolkit.BaseURL),
		logging.String("model_server", cfg.Model.ServingURL),
		logging.Bool("cache", cfg.Cache.Enabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, statErr := os.Stat(configPath); statErr == nil {
		watchLogLevel(configPath, logger)
	}

	httpserver.SetMode(cfg.Server.Mode)
	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.close()

	srv := httpserver.NewServer(cfg.Server, app.router, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	if err := srv.Stop(context.Background()); err != nil {
		return err
	}
	return <-errCh
}

// loadConfig reads configPath when it exists and falls back to environment
// variables and defaults otherwise.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

// watchLogLevel applies log.level edits without a restart.
func watchLogLevel(path string, logger logging.Logger) {
	err := config.Watch(path, func(c *config.Config) {
		level, err := logging.ParseLevel(c.Log.Level)
		if err != nil {
			logger.Warn("ignoring invalid log level", logging.String("level", c.Log.Level))
			return
		}
		logging.SetLevel(level)
		logger.Info("log level updated", logging.String("level", level.String()))
	}, func(err error) {
		logger.Warn("config reload rejected", logging.Err(err))
	})
	if err != nil {
		logger.Warn("config watch disabled", logging.Err(err))
	}
}

//Personal.AI order the ending
