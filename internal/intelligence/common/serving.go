package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
)

const maxServingResponseBytes = 8 << 20

// httpServingClient talks to a TF-Serving style REST endpoint:
//
//	POST {base}/v1/models/{name}[/versions/{v}]:predict
//	GET  {base}/v1/models/{name}
type httpServingClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     logging.Logger
	closed     atomic.Bool
}

// ServingOption configures the HTTP serving client.
type ServingOption func(*httpServingClient)

// WithServingHTTPClient replaces the default http.Client.
func WithServingHTTPClient(hc *http.Client) ServingOption {
	return func(c *httpServingClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewHTTPServingClient creates a REST ModelBackend bound to model. Requests
// without a model name are sent to it and Healthy probes its status.
func NewHTTPServingClient(baseURL, model string, timeout time.Duration, logger logging.Logger, opts ...ServingOption) (ModelBackend, error) {
	if baseURL == "" {
		return nil, errors.New("base URL cannot be empty")
	}
	if model == "" {
		return nil, errors.New("model name cannot be empty")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &httpServingClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("serving"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *httpServingClient) modelURL(name, version string) string {
	u := c.baseURL + "/v1/models/" + url.PathEscape(name)
	if version != "" {
		u += "/versions/" + url.PathEscape(version)
	}
	return u
}

func (c *httpServingClient) Predict(ctx context.Context, req *PredictRequest) (*PredictResponse, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	if req != nil && req.ModelName == "" {
		req.ModelName = c.model
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode predict request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL(req.ModelName, req.ModelVersion)+":predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build predict request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if id := logging.RequestIDFromContext(ctx); id != "" {
		httpReq.Header.Set("X-Request-ID", id)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrServingUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxServingResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrServingUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrModelNotDeployed, req.ModelName)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d: %s", ErrServingUnavailable, resp.StatusCode, servingErrorText(payload))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d: %s", ErrInvalidInput, resp.StatusCode, servingErrorText(payload))
	}

	var out PredictResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode predict response: %w", err)
	}
	out.ModelName = req.ModelName
	out.ModelVersion = req.ModelVersion
	out.InferenceTimeMs = time.Since(start).Milliseconds()
	c.logger.WithContext(ctx).Debug("prediction received",
		logging.String("model", req.ModelName),
		logging.Int("instances", len(req.Instances)),
		logging.Int64(logging.FieldDurationMS, out.InferenceTimeMs))
	return &out, nil
}

type modelStatusResponse struct {
	ModelVersionStatus []struct {
		Version string `json:"version"`
		State   string `json:"state"`
	} `json:"model_version_status"`
}

// Healthy reports nil when some version of the bound model is AVAILABLE.
func (c *httpServingClient) Healthy(ctx context.Context) error {
	return c.modelAvailable(ctx, c.model)
}

func (c *httpServingClient) modelAvailable(ctx context.Context, name string) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.modelURL(name, ""), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServingUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrModelNotDeployed, name)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrServingUnavailable, resp.StatusCode)
	}
	var status modelStatusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&status); err != nil {
		return fmt.Errorf("decode model status: %w", err)
	}
	for _, v := range status.ModelVersionStatus {
		if v.State == "AVAILABLE" {
			return nil
		}
	}
	return fmt.Errorf("%w: %s has no AVAILABLE version", ErrModelNotDeployed, name)
}

func (c *httpServingClient) Close() error {
	c.closed.Store(true)
	c.httpClient.CloseIdleConnections()
	return nil
}

func servingErrorText(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

//Personal.AI order the ending
