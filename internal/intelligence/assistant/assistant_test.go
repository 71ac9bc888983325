package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/turtacn/ToxInsight/internal/config"
	errs "github.com/turtacn/ToxInsight/pkg/errors"
)

type stubGenerator struct {
	text   string
	err    error
	prompt string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.text, g.err
}

func newStubService(t *testing.T, g generator, cfg config.LLMConfig) *Service {
	t.Helper()
	s, err := New(context.Background(), cfg, nil, withGenerator(g))
	require.NoError(t, err)
	return s
}

func TestBuildContext(t *testing.T) {
	got := BuildContext("CCO", "Molecular Weight: 46.04 g/mol", "NR-AR: Non-Toxic (confidence: 0.10)", "Is it safe?")

	assert.True(t, strings.HasPrefix(got, "\nAnalysis for molecule with SMILES: CCO\n\nMolecular Weight: 46.04 g/mol\n\nNR-AR"))
	assert.Contains(t, got, "Please consider all the above information when answering the following question.\n        \n\nQuestion: Is it safe?")
	assert.True(t, strings.HasSuffix(got, "Question: Is it safe?"))
}

func TestNew_Defaults(t *testing.T) {
	s, err := New(context.Background(), config.LLMConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, s.Provider())
	assert.Equal(t, DefaultGeminiModel, s.Model())
	assert.False(t, s.Enabled())

	s, err = New(context.Background(), config.LLMConfig{Provider: "OpenAI"}, nil)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, s.Provider())
	assert.Equal(t, DefaultOpenAIModel, s.Model())
}

func TestNew_UnsupportedProvider(t *testing.T) {
	_, err := New(context.Background(), config.LLMConfig{Provider: "llama"}, nil)
	assert.True(t, errs.IsCode(err, errs.ErrCodeValidation))
}

func TestAsk_Disabled(t *testing.T) {
	s, err := New(context.Background(), config.LLMConfig{}, nil)
	require.NoError(t, err)

	_, err = s.Ask(context.Background(), "hello")
	assert.True(t, errs.IsCode(err, errs.ErrCodeLLMNotConfigured))
}

func TestAsk_Success(t *testing.T) {
	g := &stubGenerator{text: "Ethanol is mostly harmless."}
	s := newStubService(t, g, config.LLMConfig{})

	got, err := s.Ask(context.Background(), "what is it?")
	require.NoError(t, err)
	assert.Equal(t, "Ethanol is mostly harmless.", got)
	assert.Equal(t, "what is it?", g.prompt)
}

func TestAsk_Errors(t *testing.T) {
	tests := []struct {
		name   string
		gen    *stubGenerator
		cfg    config.LLMConfig
		prompt string
		code   errs.ErrorCode
	}{
		{"empty prompt", &stubGenerator{text: "x"}, config.LLMConfig{}, "  ", errs.CodeInvalidParam},
		{"too large", &stubGenerator{text: "x"}, config.LLMConfig{MaxPromptBytes: 4}, "hello", errs.ErrCodeLLMPromptTooLarge},
		{"empty response", &stubGenerator{text: " \n"}, config.LLMConfig{}, "hello", errs.ErrCodeLLMEmptyResponse},
		{"backend failure", &stubGenerator{err: errors.New("quota exceeded")}, config.LLMConfig{}, "hello", errs.ErrCodeLLMRequestFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStubService(t, tt.gen, tt.cfg)
			_, err := s.Ask(context.Background(), tt.prompt)
			require.Error(t, err)
			assert.True(t, errs.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestAsk_OpenAICompatibleEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "local-model", body.Model)
		if assert.Len(t, body.Messages, 1) {
			assert.Equal(t, "user", body.Messages[0].Role)
			assert.Equal(t, "hello", body.Messages[0].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"hi there"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	s, err := New(context.Background(), config.LLMConfig{
		Provider: "openai",
		Model:    "local-model",
		APIKey:   "sk-test",
		BaseURL:  srv.URL + "/v1",
		Timeout:  5 * time.Second,
	}, nil)
	require.NoError(t, err)
	require.True(t, s.Enabled())

	got, err := s.Ask(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", got)
}

func TestAsk_OpenAIServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	s, err := New(context.Background(), config.LLMConfig{Provider: "openai", APIKey: "k", BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = s.Ask(context.Background(), "hello")
	assert.True(t, errs.IsCode(err, errs.ErrCodeLLMRequestFailed))
}

type fakeModels struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	return f.resp, f.err
}

func TestGeminiGenerator(t *testing.T) {
	fm := &fakeModels{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: "Benzene "},
				{Text: "is carcinogenic."},
			}},
		}},
	}}
	g := newGeminiWithModels(fm, DefaultGeminiModel, 0.2)

	got, err := g.Generate(context.Background(), "tell me")
	require.NoError(t, err)
	assert.Equal(t, "Benzene is carcinogenic.", got)
	assert.Equal(t, DefaultGeminiModel, fm.model)
	require.Len(t, fm.contents, 1)
	assert.Equal(t, "tell me", fm.contents[0].Parts[0].Text)
	require.NotNil(t, fm.config.Temperature)
	assert.InDelta(t, 0.2, *fm.config.Temperature, 1e-6)
}

func TestGeminiGenerator_EmptyAndError(t *testing.T) {
	g := newGeminiWithModels(&fakeModels{resp: &genai.GenerateContentResponse{}}, DefaultGeminiModel, 0)
	got, err := g.Generate(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, got)

	g = newGeminiWithModels(&fakeModels{err: errors.New("permission denied")}, DefaultGeminiModel, 0)
	_, err = g.Generate(context.Background(), "x")
	assert.ErrorContains(t, err, "permission denied")

	s := newStubService(t, g, config.LLMConfig{})
	_, err = s.Ask(context.Background(), "x")
	assert.True(t, errs.IsCode(err, errs.ErrCodeLLMRequestFailed))
}

//Personal.AI order the ending
