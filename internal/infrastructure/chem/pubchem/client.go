// Package pubchem resolves compound names through the PubChem PUG REST API.
package pubchem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/turtacn/ToxInsight/internal/config"
	"github.com/turtacn/ToxInsight/internal/domain/molecule"
	"github.com/turtacn/ToxInsight/internal/infrastructure/database/redis"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/prometheus"
	errs "github.com/turtacn/ToxInsight/pkg/errors"
)

const (
	propertyPath = "/rest/pug/compound/smiles/property/Title,IUPACName/JSON"
	cacheKeyPfx  = "pubchem:name:"
	cacheName    = "lookup"
)

// Lookup statuses used as metric labels.
const (
	statusFound    = "found"
	statusNotFound = "not_found"
	statusError    = "error"
	statusDisabled = "disabled"
)

// Resolver implements molecule.NameResolver against PubChem. A disabled
// Resolver never touches the network and always yields UnknownMoleculeName.
type Resolver struct {
	enabled    bool
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      redis.Cache
	cacheTTL   time.Duration
	logger     logging.Logger
	metrics    *prometheus.AppMetrics
}

var _ molecule.NameResolver = (*Resolver)(nil)

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Resolver) {
		if hc != nil {
			r.httpClient = hc
		}
	}
}

// WithMetrics records lookup and cache metrics.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver builds a Resolver. A nil cache disables caching.
func NewResolver(cfg config.LookupConfig, cache redis.Cache, log logging.Logger, opts ...Option) (*Resolver, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if cache == nil {
		cache = redis.NewNoopCache()
	}
	r := &Resolver{
		enabled:  cfg.Enabled,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		cache:    cache,
		cacheTTL: cfg.CacheTTL,
		logger:   log.Named("pubchem"),
	}
	if cfg.Enabled {
		if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
			return nil, errs.New(errs.ErrCodeValidation, "invalid lookup base URL").WithDetail(cfg.BaseURL)
		}
		rps := cfg.RPS
		if rps <= 0 {
			rps = 5
		}
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		r.httpClient = &http.Client{Timeout: timeout}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Enabled reports whether lookups reach PubChem.
func (r *Resolver) Enabled() bool { return r.enabled }

type propertyResponse struct {
	PropertyTable struct {
		Properties []struct {
			CID       int64  `json:"CID"`
			Title     string `json:"Title"`
			IUPACName string `json:"IUPACName"`
		} `json:"Properties"`
	} `json:"PropertyTable"`
}

// cachedName is stored for both hits and misses so repeated unknown
// structures do not hit PubChem again.
type cachedName struct {
	Name  string `json:"name"`
	Found bool   `json:"found"`
}

// ResolveName returns the PubChem title for smiles, falling back to the IUPAC
// name. Structures PubChem does not know yield ErrCodeMoleculeNotFound.
func (r *Resolver) ResolveName(ctx context.Context, smiles string) (string, error) {
	if !r.enabled {
		prometheus.RecordLookup(r.metrics, statusDisabled, 0)
		return molecule.UnknownMoleculeName, nil
	}

	start := time.Now()
	var loaded atomic.Bool
	var entry cachedName
	err := r.cache.GetOrSet(ctx, cacheKeyPfx+smiles, &entry, r.cacheTTL, func(ctx context.Context) (interface{}, error) {
		loaded.Store(true)
		name, found, err := r.fetch(ctx, smiles)
		if err != nil {
			return nil, err
		}
		return cachedName{Name: name, Found: found}, nil
	})
	prometheus.RecordCacheAccess(r.metrics, cacheName, !loaded.Load())

	elapsed := time.Since(start)
	log := r.logger.WithContext(ctx)
	switch {
	case err != nil:
		prometheus.RecordLookup(r.metrics, statusError, elapsed)
		logging.LogExternalCall(log, "pubchem", "resolve_name", elapsed, err)
		return "", err
	case !entry.Found:
		prometheus.RecordLookup(r.metrics, statusNotFound, elapsed)
		log.Debug("compound not found", logging.String(logging.FieldSMILES, smiles))
		return "", errs.New(errs.ErrCodeMoleculeNotFound, "compound not found in PubChem").WithDetail(smiles)
	default:
		prometheus.RecordLookup(r.metrics, statusFound, elapsed)
		return entry.Name, nil
	}
}

func (r *Resolver) fetch(ctx context.Context, smiles string) (string, bool, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", false, errs.RateLimit("lookup rate limit wait aborted").WithCause(err)
	}

	q := url.Values{}
	q.Set("smiles", smiles)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+propertyPath+"?"+q.Encode(), nil)
	if err != nil {
		return "", false, errs.Wrap(err, errs.ErrCodeInternal, "building lookup request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", false, errs.Wrap(err, errs.ErrCodeNameLookupFailed, "compound lookup failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", false, errs.New(errs.ErrCodeNameLookupFailed, "compound lookup failed").
			WithDetail(fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var pr propertyResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return "", false, errs.Wrap(err, errs.ErrCodeSerialization, "decoding lookup response")
	}
	for _, p := range pr.PropertyTable.Properties {
		if name := strings.TrimSpace(p.Title); name != "" {
			return name, true, nil
		}
		if name := strings.TrimSpace(p.IUPACName); name != "" {
			return name, true, nil
		}
	}
	return "", false, nil
}

//Personal.AI order the ending
