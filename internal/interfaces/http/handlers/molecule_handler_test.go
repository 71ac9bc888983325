package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appMol "github.com/turtacn/ToxInsight/internal/application/molecule"
	"github.com/turtacn/ToxInsight/internal/interfaces/http/middleware"
	errs "github.com/turtacn/ToxInsight/pkg/errors"
	dto "github.com/turtacn/ToxInsight/pkg/types/molecule"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockMoleculeService struct {
	mock.Mock
}

func (m *MockMoleculeService) Convert(ctx context.Context, smiles string) (*appMol.ConvertResult, error) {
	args := m.Called(ctx, smiles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appMol.ConvertResult), args.Error(1)
}

func (m *MockMoleculeService) Analyze(ctx context.Context, input *appMol.AnalyzeInput) *dto.AnalyzeResponse {
	return m.Called(ctx, input).Get(0).(*dto.AnalyzeResponse)
}

func (m *MockMoleculeService) Chart(ctx context.Context, smiles string) (*dto.ChartResponse, error) {
	args := m.Called(ctx, smiles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ChartResponse), args.Error(1)
}

func newMoleculeRouter(svc appMol.Service) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.BodyLimit(1024))
	NewMoleculeHandler(svc, nil).RegisterRoutes(r)
	return r
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func TestConvert_Success(t *testing.T) {
	svc := &MockMoleculeService{}
	svc.On("Convert", mock.Anything, "CCO").Return(&appMol.ConvertResult{
		Message:  appMol.ConvertSuccessMessage,
		MolBlock: "\n     RDKit          3D\n",
	}, nil)

	w := post(newMoleculeRouter(svc), "/convert", `{"smiles":"CCO"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.ConvertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Molecule MOL file created successfully.", resp.Message)
	assert.Contains(t, resp.MolBlock, "RDKit")
}

func TestConvert_MissingSMILES(t *testing.T) {
	svc := &MockMoleculeService{}
	r := newMoleculeRouter(svc)

	for _, body := range []string{`{}`, `{"smiles":""}`, `not json`, ``} {
		w := post(r, "/convert", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "No SMILES string provided", decodeError(t, w).Error)
	}
	svc.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything)
}

func TestConvert_Failure(t *testing.T) {
	svc := &MockMoleculeService{}
	svc.On("Convert", mock.Anything, "C1CC").Return(nil,
		errs.New(errs.ErrCodeMoleculeConversionFailed, "Molecule conversion failed: Invalid SMILES string provided"))

	w := post(newMoleculeRouter(svc), "/convert", `{"smiles":"C1CC"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	e := decodeError(t, w)
	assert.Equal(t, "Molecule conversion failed: Invalid SMILES string provided", e.Error)
	assert.Equal(t, "MOL_011", e.Code)
	assert.NotEmpty(t, e.RequestID)
}

func TestConvert_BodyTooLarge(t *testing.T) {
	svc := &MockMoleculeService{}
	body := `{"smiles":"` + strings.Repeat("C", 2048) + `"}`
	w := post(newMoleculeRouter(svc), "/convert", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestAnalyze_AlwaysOK(t *testing.T) {
	svc := &MockMoleculeService{}
	svc.On("Analyze", mock.Anything, &appMol.AnalyzeInput{SMILES: "CCO", Prompt: "toxic?"}).
		Return(&dto.AnalyzeResponse{
			Properties:     map[string]string{"LogP": "-0.00"},
			Toxicity:       dto.ToxicityResult{Predictions: map[string]dto.PredictionEntry{"NR-AR": {Prediction: "Non-Toxic", Confidence: "0.05"}}},
			GeminiResponse: "No.",
		})
	svc.On("Analyze", mock.Anything, &appMol.AnalyzeInput{}).
		Return(&dto.AnalyzeResponse{
			Toxicity: dto.ToxicityResult{Error: "Prediction error: No SMILES string provided"},
			Error:    "Invalid SMILES string",
		})
	r := newMoleculeRouter(svc)

	w := post(r, "/analyze", `{"smiles":"CCO","prompt":"toxic?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	for _, k := range []string{"properties", "toxicity", "molecule_image", "molecule_image_2d", "gemini_response"} {
		assert.Contains(t, body, k)
	}
	assert.Equal(t, "No.", body["gemini_response"])

	w = post(r, "/analyze", `garbage`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Nil(t, body["properties"])
	assert.Equal(t, map[string]interface{}{"Error": "Prediction error: No SMILES string provided"}, body["toxicity"])
	assert.Equal(t, "", body["gemini_response"])
}

func TestChart(t *testing.T) {
	svc := &MockMoleculeService{}
	points := make([]dto.ChartPoint, 12)
	for i := range points {
		points[i] = dto.ChartPoint{Endpoint: "EP", Value: 0.1}
	}
	svc.On("Chart", mock.Anything, "CCO").Return(&dto.ChartResponse{Predictions: points}, nil)
	svc.On("Chart", mock.Anything, "bad").Return(nil, errs.New(errs.ErrCodeGNNModelError, "toxicity model unavailable"))
	r := newMoleculeRouter(svc)

	w := post(r, "/chart", `{"smiles":"CCO"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.ChartResponse
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&resp))
	assert.Len(t, resp.Predictions, 12)

	w = post(r, "/chart", `{"smiles":"bad"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "toxicity model unavailable", decodeError(t, w).Error)

	w = post(r, "/chart", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

//Personal.AI order the ending
