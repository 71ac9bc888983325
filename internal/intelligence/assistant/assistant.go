// Package assistant answers free-form questions about an analysed molecule
// through a hosted large language model.
package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/ToxInsight/internal/config"
	"github.com/turtacn/ToxInsight/internal/domain/molecule"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/prometheus"
	errs "github.com/turtacn/ToxInsight/pkg/errors"
)

// Provider selects the LLM backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

const (
	DefaultGeminiModel = config.DefaultGeminiModel
	DefaultOpenAIModel = config.DefaultOpenAIModel

	defaultTimeout        = 60 * time.Second
	defaultMaxPromptBytes = 32 * 1024
)

// generator is a single-turn text completion backend.
type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service implements molecule.Assistant.
type Service struct {
	gen            generator
	provider       Provider
	model          string
	timeout        time.Duration
	maxPromptBytes int
	logger         logging.Logger
	metrics        *prometheus.AppMetrics
}

var _ molecule.Assistant = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithMetrics records LLM call metrics.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// withGenerator replaces the backend; used by tests.
func withGenerator(g generator) Option {
	return func(s *Service) { s.gen = g }
}

// New builds the assistant described by cfg. Without an API key the service
// is returned in disabled mode and every Ask fails with LLM_002.
func New(ctx context.Context, cfg config.LLMConfig, logger logging.Logger, opts ...Option) (*Service, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	provider := Provider(strings.ToLower(cfg.Provider))
	if provider == "" {
		provider = ProviderGemini
	}
	s := &Service{
		provider:       provider,
		model:          cfg.Model,
		timeout:        cfg.Timeout,
		maxPromptBytes: cfg.MaxPromptBytes,
		logger:         logger.Named("assistant"),
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	if s.maxPromptBytes <= 0 {
		s.maxPromptBytes = defaultMaxPromptBytes
	}

	switch provider {
	case ProviderGemini:
		if s.model == "" {
			s.model = DefaultGeminiModel
		}
	case ProviderOpenAI:
		if s.model == "" {
			s.model = DefaultOpenAIModel
		}
	default:
		return nil, errs.New(errs.ErrCodeValidation, "unsupported llm provider").WithDetail(cfg.Provider)
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.gen != nil {
		return s, nil
	}

	if cfg.APIKey == "" {
		s.logger.Warn("no LLM api key configured, assistant disabled",
			logging.String("provider", string(provider)))
		return s, nil
	}

	var err error
	switch provider {
	case ProviderGemini:
		s.gen, err = newGeminiGenerator(ctx, cfg.APIKey, cfg.BaseURL, s.model, cfg.Temperature)
	case ProviderOpenAI:
		s.gen, err = newOpenAIGenerator(cfg.APIKey, cfg.BaseURL, s.model, cfg.Temperature)
	}
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrCodeLLMNotConfigured, "creating llm client")
	}
	return s, nil
}

// Enabled reports whether a backend is configured.
func (s *Service) Enabled() bool { return s.gen != nil }

// Provider returns the configured backend name.
func (s *Service) Provider() Provider { return s.provider }

// Model returns the model identifier sent to the backend.
func (s *Service) Model() string { return s.model }

// Ask sends prompt as a single user turn and returns the response text.
func (s *Service) Ask(ctx context.Context, prompt string) (string, error) {
	if s.gen == nil {
		return "", errs.New(errs.ErrCodeLLMNotConfigured, "LLM API key is not configured")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errs.InvalidParam("prompt is required")
	}
	if len(prompt) > s.maxPromptBytes {
		return "", errs.Newf(errs.ErrCodeLLMPromptTooLarge, "prompt is %d bytes, limit is %d", len(prompt), s.maxPromptBytes)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := s.gen.Generate(ctx, prompt)
	elapsed := time.Since(start)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errs.New(errs.ErrCodeLLMEmptyResponse, "LLM returned an empty response")
	}
	if err != nil && !errs.IsCode(err, errs.ErrCodeLLMEmptyResponse) {
		err = errs.Wrap(err, errs.ErrCodeLLMRequestFailed, "LLM request failed")
	}

	prometheus.RecordLLMCall(s.metrics, string(s.provider), s.model, len(prompt), elapsed, err)
	logging.LogExternalCall(s.logger.WithContext(ctx), string(s.provider), "generate", elapsed, err)
	if err != nil {
		return "", err
	}
	return text, nil
}

//Personal.AI order the ending
