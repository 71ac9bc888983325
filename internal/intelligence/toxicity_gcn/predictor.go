package toxicity_gcn

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/turtacn/ToxInsight/internal/domain/molecule"
	"github.com/turtacn/ToxInsight/internal/infrastructure/database/redis"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ToxInsight/internal/intelligence/common"
	errs "github.com/turtacn/ToxInsight/pkg/errors"
)

const (
	defaultRetries = 2
	retryBaseDelay = 200 * time.Millisecond
	cacheKeyPrefix = "tox21:"
	cacheName      = "toxicity"
)

// Predictor implements molecule.ToxicityPredictor on top of a ModelBackend.
type Predictor struct {
	backend   common.ModelBackend
	cache     redis.Cache
	cfg       *ModelConfig
	logger    logging.Logger
	metrics   *prometheus.AppMetrics
	retryWait time.Duration
}

var _ molecule.ToxicityPredictor = (*Predictor)(nil)

// Option configures a Predictor.
type Option func(*Predictor)

// WithCache stores reports keyed by SMILES.
func WithCache(c redis.Cache) Option {
	return func(p *Predictor) {
		if c != nil {
			p.cache = c
		}
	}
}

// WithMetrics records inference metrics.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(p *Predictor) { p.metrics = m }
}

// WithRetryWait overrides the base retry delay.
func WithRetryWait(d time.Duration) Option {
	return func(p *Predictor) { p.retryWait = d }
}

// NewPredictor wires a Predictor.
func NewPredictor(backend common.ModelBackend, cfg *ModelConfig, logger logging.Logger, opts ...Option) (*Predictor, error) {
	if backend == nil {
		return nil, errs.InvalidParam("model backend is required")
	}
	if cfg == nil {
		cfg = DefaultModelConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	p := &Predictor{
		backend:   backend,
		cache:     redis.NewNoopCache(),
		cfg:       cfg,
		logger:    logger.Named("toxicity"),
		retryWait: retryBaseDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Predict returns the Tox21 report for smiles.
func (p *Predictor) Predict(ctx context.Context, smiles string) (*molecule.ToxicityReport, error) {
	if smiles == "" {
		return nil, errs.New(errs.ErrCodeMoleculeInvalidSMILES, "SMILES is required")
	}

	var loaded atomic.Bool
	var report molecule.ToxicityReport
	err := p.cache.GetOrSet(ctx, cacheKeyPrefix+smiles, &report, p.cfg.CacheTTL, func(ctx context.Context) (interface{}, error) {
		loaded.Store(true)
		return p.infer(ctx, smiles)
	})
	prometheus.RecordCacheAccess(p.metrics, cacheName, !loaded.Load())
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, errs.Wrap(err, errs.ErrCodeTimeout, "inference cancelled")
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (p *Predictor) infer(ctx context.Context, smiles string) (*molecule.ToxicityReport, error) {
	start := time.Now()
	report, err := p.run(ctx, smiles)
	elapsed := time.Since(start)

	prometheus.RecordInference(p.metrics, p.cfg.ModelName, elapsed, report.ToxicEndpoints(), err)
	log := p.logger.WithContext(ctx).With(logging.String(logging.FieldSMILES, smiles))
	if err != nil {
		prometheus.RecordError(p.metrics, "toxicity", errs.GetCode(err).String())
		log.WithError(err).Warn("toxicity inference failed")
		return nil, err
	}
	log.Debug("toxicity inference completed",
		logging.Int64(logging.FieldDurationMS, elapsed.Milliseconds()),
		logging.Int("toxic_endpoints", len(report.ToxicEndpoints())))
	return report, nil
}

func (p *Predictor) run(ctx context.Context, smiles string) (*molecule.ToxicityReport, error) {
	req := &common.PredictRequest{
		ModelName:    p.cfg.ModelName,
		ModelVersion: p.cfg.Version,
		Instances:    []map[string]interface{}{{"smiles": smiles}},
	}
	resp, err := p.predictWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}

	tensor, err := common.DecodeTensor3(resp.Predictions)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrCodeGNNModelError, "decoding model output")
	}
	probs, err := toxicProbabilities(tensor)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrCodeGNNModelError, "unexpected model output shape")
	}
	report, err := molecule.NewToxicityReport(smiles, p.cfg.ModelName, probs, p.cfg.Threshold)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrCodeGNNModelError, "invalid model output")
	}
	return report, nil
}

func (p *Predictor) predictWithRetry(ctx context.Context, req *common.PredictRequest) (*common.PredictResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= defaultRetries; attempt++ {
		resp, err := p.backend.Predict(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isTransient(err) {
			return nil, classify(err)
		}
		if attempt < defaultRetries {
			delay := p.retryWait * time.Duration(1<<uint(attempt))
			select {
			case <-ctx.Done():
				return nil, errs.Wrap(ctx.Err(), errs.ErrCodeTimeout, "inference cancelled")
			case <-time.After(delay):
			}
		}
	}
	return nil, classify(lastErr)
}

func isTransient(err error) bool {
	return errors.Is(err, common.ErrServingUnavailable) ||
		errors.Is(err, common.ErrInferenceTimeout)
}

func classify(err error) error {
	switch {
	case errors.Is(err, common.ErrModelNotDeployed):
		return errs.Wrap(err, errs.ErrCodeGNNModelNotLoaded, "toxicity model not loaded")
	case errors.Is(err, common.ErrInferenceTimeout):
		return errs.Wrap(err, errs.ErrCodeTimeout, "toxicity inference timed out")
	case errors.Is(err, common.ErrInvalidInput):
		return errs.Wrap(err, errs.ErrCodePropertyPredictionFailed, "model rejected input")
	default:
		return errs.Wrap(err, errs.ErrCodeGNNModelError, "toxicity model unavailable")
	}
}

// Name identifies the model in readiness reports.
func (p *Predictor) Name() string { return "model" }

// Check implements the readiness probe.
func (p *Predictor) Check(ctx context.Context) error {
	if err := p.backend.Healthy(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// Close releases the backend.
func (p *Predictor) Close() error { return p.backend.Close() }

//Personal.AI order the ending
