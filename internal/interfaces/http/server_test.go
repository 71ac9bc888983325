package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appMol "github.com/turtacn/ToxInsight/internal/application/molecule"
	"github.com/turtacn/ToxInsight/internal/config"
	domainMol "github.com/turtacn/ToxInsight/internal/domain/molecule"
	"github.com/turtacn/ToxInsight/internal/interfaces/http/handlers"
	"github.com/turtacn/ToxInsight/internal/interfaces/http/middleware"
)

func TestNewServer(t *testing.T) {
	cfg := config.ServerConfig{Host: "127.0.0.1", Port: 8000, AnalyzeTimeout: 90 * time.Second}
	s := NewServer(cfg, http.NewServeMux(), nil)

	assert.Equal(t, "127.0.0.1:8000", s.Addr())
	assert.Equal(t, defaultReadTimeout, s.srv.ReadTimeout)
	assert.Equal(t, 100*time.Second, s.srv.WriteTimeout)
	assert.Equal(t, defaultShutdownTimeout, s.shutdownTimeout)
}

func TestWriteTimeout(t *testing.T) {
	assert.Equal(t, 10*time.Second, writeTimeout(config.ServerConfig{WriteTimeout: 10 * time.Second}))
	assert.Equal(t, 2*time.Minute, writeTimeout(config.ServerConfig{WriteTimeout: 2 * time.Minute, AnalyzeTimeout: 30 * time.Second}))
	assert.Equal(t, 30*time.Second+appMol.SideEffectTimeout+writeMargin,
		writeTimeout(config.ServerConfig{WriteTimeout: 15 * time.Second, AnalyzeTimeout: 30 * time.Second}))
}

func TestSetMode(t *testing.T) {
	defer gin.SetMode(gin.TestMode)

	SetMode("debug")
	assert.Equal(t, gin.DebugMode, gin.Mode())
	SetMode("bogus")
	assert.Equal(t, gin.ReleaseMode, gin.Mode())
}

func TestServer_ServeAndStop(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	r, _ := newTestRouter(t)
	s := NewServer(config.ServerConfig{ShutdownTimeout: time.Second}, r, nil)

	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	url := fmt.Sprintf("http://%s/healthz", ln.Addr().String())
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

type stubToolkit struct{}

func (stubToolkit) Validate(_ context.Context, smiles string) (string, error) { return smiles, nil }

func (stubToolkit) Conformer(context.Context, string, domainMol.ConformerOptions) (*domainMol.Conformer, error) {
	return nil, errors.New("not used")
}

func (stubToolkit) Descriptors(_ context.Context, smiles string) (*domainMol.Descriptors, error) {
	return &domainMol.Descriptors{CanonicalSMILES: smiles, ExactMolWt: 46.04}, nil
}

func (stubToolkit) Depict(_ context.Context, _ string, opts domainMol.DepictOptions) (*domainMol.Image, error) {
	return &domainMol.Image{Format: opts.Format, Data: []byte("img")}, nil
}

type stubPredictor struct{}

func (stubPredictor) Predict(_ context.Context, smiles string) (*domainMol.ToxicityReport, error) {
	probs := make([]float64, domainMol.EndpointCount)
	return domainMol.NewToxicityReport(smiles, "stub", probs, domainMol.DefaultToxicThreshold)
}

// stalledAssistant ignores cancellation and answers long after any deadline.
type stalledAssistant struct{}

func (stalledAssistant) Ask(context.Context, string) (string, error) {
	time.Sleep(5 * time.Second)
	return "too late", nil
}

func TestServer_AnalyzeAnswersWhenAssistantStalls(t *testing.T) {
	cfg := config.ServerConfig{ShutdownTimeout: time.Second, AnalyzeTimeout: 200 * time.Millisecond}
	svc, err := appMol.NewService(appMol.Dependencies{
		Toolkit:   stubToolkit{},
		Predictor: stubPredictor{},
		Assistant: stalledAssistant{},
	}, nil, appMol.WithAnalyzeTimeout(cfg.AnalyzeTimeout))
	require.NoError(t, err)

	r := NewRouter(RouterConfig{
		MoleculeHandler: handlers.NewMoleculeHandler(svc, nil),
		HealthHandler:   handlers.NewHealthHandler("test", nil),
		CORS:            middleware.DefaultCORSConfig(),
		Logging:         middleware.DefaultLoggingConfig(),
		MaxBodySize:     1 << 10,
	})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := NewServer(cfg, r, nil)
	go func() { _ = s.Serve(ln) }()
	defer s.Stop(context.Background())

	start := time.Now()
	resp, err := http.Post(fmt.Sprintf("http://%s/analyze", ln.Addr()), "application/json",
		strings.NewReader(`{"smiles":"CCO","prompt":"is it toxic?"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Less(t, time.Since(start), 2*time.Second)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	for _, k := range []string{"properties", "toxicity", "molecule_image", "molecule_image_2d", "gemini_response"} {
		assert.Contains(t, body, k)
	}
	assert.True(t, strings.HasPrefix(body["gemini_response"].(string), "Error: "), body["gemini_response"])
	assert.NotNil(t, body["properties"])
}

//Personal.AI order the ending
