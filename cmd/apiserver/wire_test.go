package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ToxInsight/internal/config"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ToxInsight/internal/testutil"
	dto "github.com/turtacn/ToxInsight/pkg/types/molecule"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, _ := testStack(t)
	return cfg
}

// testStack starts fake toolkit, model and Redis servers and returns a
// config pointing at them.
func testStack(t *testing.T) (*config.Config, *testutil.ModelServer) {
	t.Helper()
	toolkit := testutil.NewToolkitServer(t, "C1CC(")
	model := testutil.NewModelServer(t, config.DefaultModelName, 0.8)
	mr := miniredis.RunT(t)

	cfg := &config.Config{}
	cfg.Toolkit.BaseURL = toolkit.URL
	cfg.Model.ServingURL = model.URL
	cfg.Cache.Enabled = true
	cfg.Redis.Addr = mr.Addr()
	cfg.Metrics.Enabled = true
	cfg.Lookup.Enabled = false
	config.ApplyDefaults(cfg)
	return cfg, model
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)
	return w
}

func TestBuildApplication(t *testing.T) {
	cfg := testConfig(t)
	app, err := buildApplication(context.Background(), cfg, logging.NewNopLogger())
	require.NoError(t, err)
	defer app.close()

	assert.Equal(t, http.StatusOK, get(app.router, "/healthz").Code)

	w := get(app.router, "/readyz")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ready struct {
		Components map[string]struct {
			Status string `json:"status"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ready))
	for _, name := range []string{"redis", "toolkit", "model"} {
		assert.Equal(t, "healthy", ready.Components[name].Status, name)
	}

	w = get(app.router, cfg.Metrics.Path)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "toxinsight_health_check_status")
}

func TestBuildApplication_ServesMolecules(t *testing.T) {
	cfg, model := testStack(t)
	app, err := buildApplication(context.Background(), cfg, logging.NewNopLogger())
	require.NoError(t, err)
	defer app.close()

	w := post(app.router, "/convert", `{"smiles":"CCO"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var conv dto.ConvertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conv))
	assert.Equal(t, testutil.EthanolMolBlock, conv.MolBlock)

	w = post(app.router, "/convert", `{"smiles":"C1CC("}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = post(app.router, "/analyze", `{"smiles":"CCO","prompt":"Is it safe?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var an dto.AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &an))
	assert.Equal(t, "46.04", an.Properties["Molecular Weight"])
	assert.Equal(t, "Unknown Molecule", an.Properties["Molecule Name"])
	assert.Equal(t, "Toxic", an.Toxicity.Predictions["NR-AR"].Prediction)
	require.NotNil(t, an.MoleculeImage)
	assert.True(t, strings.HasPrefix(an.GeminiResponse, "Error: "), "no LLM key is configured")

	w = post(app.router, "/chart", `{"smiles":"CCO"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var chart dto.ChartResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chart))
	require.Len(t, chart.Predictions, 12)
	assert.Equal(t, "NR-AR", chart.Predictions[0].Endpoint)

	// /analyze and /chart share one cached model call.
	assert.Equal(t, int64(1), model.Calls.Load())
}

func TestBuildApplication_InvalidToolkitURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Toolkit.BaseURL = "localhost:8081"

	_, err := buildApplication(context.Background(), cfg, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestBuildApplication_EventsBrokerDown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Events.Enabled = true
	cfg.Events.Brokers = []string{"127.0.0.1:1"}

	app, err := buildApplication(context.Background(), cfg, logging.NewNopLogger())
	require.NoError(t, err, "the producer connects lazily")
	defer app.close()

	w := get(app.router, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var ready struct {
		Components map[string]struct {
			Status string `json:"status"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ready))
	assert.Equal(t, "unhealthy", ready.Components["kafka"].Status)
	assert.Equal(t, "healthy", ready.Components["toolkit"].Status)
}

func TestBuildApplication_StorageDown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Enabled = true
	cfg.Storage.Endpoint = "127.0.0.1:1"

	_, err := buildApplication(context.Background(), cfg, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestBuildApplication_RedisDown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Redis.Addr = "127.0.0.1:1"

	_, err := buildApplication(context.Background(), cfg, logging.NewNopLogger())
	assert.Error(t, err)
}

//Personal.AI order the ending
