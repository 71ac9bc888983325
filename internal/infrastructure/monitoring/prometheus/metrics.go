package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPRequestSize     HistogramVec
	HTTPResponseSize    HistogramVec
	HTTPActiveRequests  GaugeVec

	// Cheminformatics toolkit sidecar
	ToolkitRequestsTotal   CounterVec
	ToolkitRequestDuration HistogramVec

	// Toxicity model
	InferenceRequestsTotal CounterVec
	InferenceDuration      HistogramVec
	ToxicPredictionsTotal  CounterVec

	// Assistant (LLM)
	LLMRequestsTotal   CounterVec
	LLMRequestDuration HistogramVec
	LLMPromptBytes     HistogramVec

	// Compound-name lookup
	LookupRequestsTotal CounterVec
	LookupDuration      HistogramVec

	// Cache
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec

	// System health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Default buckets
var (
	DefaultHTTPDurationBuckets      = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	DefaultToolkitDurationBuckets   = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultInferenceDurationBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	DefaultLLMDurationBuckets       = []float64{.5, 1, 2, 5, 10, 30, 60, 120}
	DefaultSizeBuckets              = []float64{100, 1000, 10000, 100000, 1000000}
)

// NewAppMetrics registers all metrics and returns the AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPRequestSize = collector.RegisterHistogram("http_request_size_bytes", "HTTP request size", DefaultSizeBuckets, "method", "path")
	m.HTTPResponseSize = collector.RegisterHistogram("http_response_size_bytes", "HTTP response size", DefaultSizeBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method", "path")

	m.ToolkitRequestsTotal = collector.RegisterCounter("toolkit_requests_total", "Cheminformatics toolkit requests", "operation", "status")
	m.ToolkitRequestDuration = collector.RegisterHistogram("toolkit_request_duration_seconds", "Cheminformatics toolkit request duration", DefaultToolkitDurationBuckets, "operation")

	m.InferenceRequestsTotal = collector.RegisterCounter("inference_requests_total", "Toxicity model inference requests", "model", "status")
	m.InferenceDuration = collector.RegisterHistogram("inference_duration_seconds", "Toxicity model inference duration", DefaultInferenceDurationBuckets, "model")
	m.ToxicPredictionsTotal = collector.RegisterCounter("toxic_predictions_total", "Endpoints labelled Toxic", "endpoint")

	m.LLMRequestsTotal = collector.RegisterCounter("llm_requests_total", "LLM requests total", "provider", "model", "status")
	m.LLMRequestDuration = collector.RegisterHistogram("llm_request_duration_seconds", "LLM request duration", DefaultLLMDurationBuckets, "provider", "model")
	m.LLMPromptBytes = collector.RegisterHistogram("llm_prompt_bytes", "LLM prompt size", DefaultSizeBuckets, "provider")

	m.LookupRequestsTotal = collector.RegisterCounter("name_lookup_requests_total", "Compound-name lookups", "status")
	m.LookupDuration = collector.RegisterHistogram("name_lookup_duration_seconds", "Compound-name lookup duration", DefaultToolkitDurationBuckets)

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")

	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_code")

	return m
}

func statusLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordHTTPRequest updates the request counter, latency and size histograms.
func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration, reqSize, respSize int64) {
	if metrics == nil {
		return
	}
	status := strconv.Itoa(statusCode)
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	if reqSize >= 0 {
		metrics.HTTPRequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	}
	if respSize >= 0 {
		metrics.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
	}
}

// RecordToolkitCall records one request to the cheminformatics sidecar.
func RecordToolkitCall(metrics *AppMetrics, operation string, duration time.Duration, err error) {
	if metrics == nil {
		return
	}
	metrics.ToolkitRequestsTotal.WithLabelValues(operation, statusLabel(err)).Inc()
	metrics.ToolkitRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordInference records one toxicity-model prediction and, on success, the
// endpoints labelled Toxic.
func RecordInference(metrics *AppMetrics, model string, duration time.Duration, toxicEndpoints []string, err error) {
	if metrics == nil {
		return
	}
	metrics.InferenceRequestsTotal.WithLabelValues(model, statusLabel(err)).Inc()
	metrics.InferenceDuration.WithLabelValues(model).Observe(duration.Seconds())
	for _, ep := range toxicEndpoints {
		metrics.ToxicPredictionsTotal.WithLabelValues(ep).Inc()
	}
}

// RecordLLMCall records one assistant call.
func RecordLLMCall(metrics *AppMetrics, provider, model string, promptBytes int, duration time.Duration, err error) {
	if metrics == nil {
		return
	}
	metrics.LLMRequestsTotal.WithLabelValues(provider, model, statusLabel(err)).Inc()
	metrics.LLMRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	metrics.LLMPromptBytes.WithLabelValues(provider).Observe(float64(promptBytes))
}

// RecordLookup records one compound-name lookup. status is one of "found",
// "not_found", "failure".
func RecordLookup(metrics *AppMetrics, status string, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.LookupRequestsTotal.WithLabelValues(status).Inc()
	metrics.LookupDuration.WithLabelValues().Observe(duration.Seconds())
}

// RecordCacheAccess counts a hit or a miss against the named cache.
func RecordCacheAccess(metrics *AppMetrics, cache string, hit bool) {
	if metrics == nil {
		return
	}
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

// RecordHealth sets the health gauge of component to 1 or 0.
func RecordHealth(metrics *AppMetrics, component string, healthy bool) {
	if metrics == nil {
		return
	}
	v := 0.0
	if healthy {
		v = 1
	}
	metrics.HealthCheckStatus.WithLabelValues(component).Set(v)
}

// RecordError counts an error by component and code.
func RecordError(metrics *AppMetrics, component, code string) {
	if metrics == nil {
		return
	}
	metrics.ErrorsTotal.WithLabelValues(component, code).Inc()
}

//Personal.AI order the ending
