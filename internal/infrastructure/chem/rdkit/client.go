// Package rdkit is the HTTP client for the RDKit sidecar that performs SMILES
// parsing, 3D embedding, descriptor calculation and depiction.
package rdkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/turtacn/ToxInsight/internal/config"
	"github.com/turtacn/ToxInsight/internal/domain/molecule"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/prometheus"
	errs "github.com/turtacn/ToxInsight/pkg/errors"
)

const (
	pathValidate    = "/v1/molecules/validate"
	pathConformer   = "/v1/molecules/conformer"
	pathDescriptors = "/v1/molecules/descriptors"
	pathDepict      = "/v1/molecules/depict"
	pathHealth      = "/healthz"

	maxResponseBytes = 16 << 20
)

// Client talks to the sidecar. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
	metrics    *prometheus.AppMetrics
	maxRetries int
	retryWait  time.Duration
	forceField molecule.ForceField
	width      int
	height     int
}

var _ molecule.Toolkit = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMetrics records per-operation toolkit metrics.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithRetryWait sets the base delay between retries.
func WithRetryWait(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.retryWait = d
		}
	}
}

// NewClient builds a Client from configuration.
func NewClient(cfg config.ToolkitConfig, log logging.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errs.New(errs.ErrCodeValidation, "invalid toolkit base URL").WithDetail(cfg.BaseURL)
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ff := molecule.ForceField(strings.ToUpper(cfg.ForceField))
	if ff == "" {
		ff = molecule.ForceFieldUFF
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.Named("rdkit"),
		maxRetries: cfg.MaxRetries,
		retryWait:  200 * time.Millisecond,
		forceField: ff,
		width:      cfg.ImageWidth,
		height:     cfg.ImageHeight,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type smilesRequest struct {
	SMILES string `json:"smiles"`
}

type validateResponse struct {
	Valid           bool   `json:"valid"`
	CanonicalSMILES string `json:"canonical_smiles"`
	Error           string `json:"error,omitempty"`
}

type conformerRequest struct {
	SMILES       string `json:"smiles"`
	AddHydrogens bool   `json:"add_hydrogens"`
	ForceField   string `json:"force_field"`
	RandomSeed   int    `json:"random_seed,omitempty"`
}

type conformerResponse struct {
	MolBlock string `json:"mol_block"`
}

type depictRequest struct {
	SMILES       string `json:"smiles"`
	Format       string `json:"format"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	UseConformer bool   `json:"use_conformer"`
}

type depictResponse struct {
	Format string `json:"format"`
	// Data is base64 in the JSON body.
	Data []byte `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Validate parses smiles and returns its canonical form.
func (c *Client) Validate(ctx context.Context, smiles string) (string, error) {
	var resp validateResponse
	if err := c.post(ctx, "validate", pathValidate, smilesRequest{SMILES: smiles}, &resp); err != nil {
		return "", err
	}
	if !resp.Valid {
		return "", errs.New(errs.ErrCodeMoleculeInvalidSMILES, "Invalid SMILES string").WithDetail(resp.Error)
	}
	return resp.CanonicalSMILES, nil
}

// Conformer returns a hydrogenated, embedded and force-field optimised MOL block.
func (c *Client) Conformer(ctx context.Context, smiles string, opts molecule.ConformerOptions) (*molecule.Conformer, error) {
	ff := opts.ForceField
	if ff == "" {
		ff = c.forceField
	}
	req := conformerRequest{
		SMILES:       smiles,
		AddHydrogens: opts.AddHydrogens,
		ForceField:   string(ff),
		RandomSeed:   opts.RandomSeed,
	}
	var resp conformerResponse
	if err := c.post(ctx, "conformer", pathConformer, req, &resp); err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.MolBlock) == "" {
		return nil, errs.New(errs.ErrCodeMoleculeConversionFailed, "toolkit returned an empty MOL block")
	}
	return &molecule.Conformer{SMILES: smiles, MolBlock: resp.MolBlock}, nil
}

// Descriptors computes the physico-chemical descriptor set.
func (c *Client) Descriptors(ctx context.Context, smiles string) (*molecule.Descriptors, error) {
	var d molecule.Descriptors
	if err := c.post(ctx, "descriptors", pathDescriptors, smilesRequest{SMILES: smiles}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Depict renders smiles. Zero width or height fall back to the configured size.
func (c *Client) Depict(ctx context.Context, smiles string, opts molecule.DepictOptions) (*molecule.Image, error) {
	if opts.Width <= 0 {
		opts.Width = c.width
	}
	if opts.Height <= 0 {
		opts.Height = c.height
	}
	if opts.Format == "" {
		opts.Format = molecule.FormatPNG
	}
	req := depictRequest{
		SMILES:       smiles,
		Format:       string(opts.Format),
		Width:        opts.Width,
		Height:       opts.Height,
		UseConformer: opts.UseConformer,
	}
	var resp depictResponse
	if err := c.post(ctx, "depict_"+string(opts.Format), pathDepict, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errs.New(errs.ErrCodeRenderingFailed, "toolkit returned an empty image")
	}
	format := molecule.ImageFormat(resp.Format)
	if format == "" {
		format = opts.Format
	}
	return &molecule.Image{Format: format, Data: resp.Data}, nil
}

// Healthy probes the sidecar liveness endpoint.
func (c *Client) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathHealth, nil)
	if err != nil {
		return errs.Wrap(err, errs.ErrCodeInternal, "building toolkit health request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.External(err, "toolkit unreachable")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return errs.New(errs.ErrCodeServiceUnavailable, "toolkit unhealthy").
			WithDetail(fmt.Sprintf("status %d", resp.StatusCode))
	}
	return nil
}

// Name identifies the component in readiness reports.
func (c *Client) Name() string { return "toolkit" }

// Check implements the readiness probe.
func (c *Client) Check(ctx context.Context) error { return c.Healthy(ctx) }

func (c *Client) post(ctx context.Context, op, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errs.Wrap(err, errs.ErrCodeSerialization, "encoding toolkit request")
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryWait * time.Duration(1<<uint(attempt-1))):
			case <-ctx.Done():
				lastErr = errs.Wrap(ctx.Err(), errs.ErrCodeTimeout, "toolkit call cancelled")
				c.finish(ctx, op, start, lastErr)
				return lastErr
			}
		}
		var retry bool
		retry, lastErr = c.once(ctx, path, payload, out)
		if lastErr == nil || !retry {
			break
		}
		c.logger.WithContext(ctx).Warn("toolkit call failed, retrying",
			logging.String("operation", op),
			logging.Int("attempt", attempt+1),
			logging.Err(lastErr))
	}
	c.finish(ctx, op, start, lastErr)
	return lastErr
}

func (c *Client) finish(ctx context.Context, op string, start time.Time, err error) {
	elapsed := time.Since(start)
	prometheus.RecordToolkitCall(c.metrics, op, elapsed, err)
	if err != nil && !errs.IsCode(err, errs.ErrCodeMoleculeInvalidSMILES) {
		prometheus.RecordError(c.metrics, "toolkit", errs.GetCode(err).String())
	}
	logging.LogExternalCall(c.logger.WithContext(ctx), "rdkit", op, elapsed, err)
}

// once performs a single request. The bool reports whether the failure is
// transient.
func (c *Client) once(ctx context.Context, path string, payload []byte, out interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return false, errs.Wrap(err, errs.ErrCodeInternal, "building toolkit request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, errs.Wrap(err, errs.ErrCodeTimeout, "toolkit call cancelled")
		}
		return true, errs.External(err, "toolkit request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return true, errs.External(err, "reading toolkit response")
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return false, errs.New(errs.ErrCodeMoleculeInvalidSMILES, "Invalid SMILES string").WithDetail(errorText(body))
	case resp.StatusCode >= 500:
		return true, errs.New(errs.ErrCodeExternalService, "toolkit error").
			WithDetail(fmt.Sprintf("status %d: %s", resp.StatusCode, errorText(body)))
	case resp.StatusCode >= 300:
		return false, errs.New(errs.ErrCodeExternalService, "toolkit error").
			WithDetail(fmt.Sprintf("status %d: %s", resp.StatusCode, errorText(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, errs.Wrap(err, errs.ErrCodeSerialization, "decoding toolkit response")
	}
	return false, nil
}

func errorText(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		return er.Error
	}
	return strings.TrimSpace(string(body))
}

//Personal.AI order the ending
