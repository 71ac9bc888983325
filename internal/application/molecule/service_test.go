package molecule

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainMol "github.com/turtacn/ToxInsight/internal/domain/molecule"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ToxInsight/internal/testutil"
	errs "github.com/turtacn/ToxInsight/pkg/errors"
)

// MockToolkit is a mock implementation of domainMol.Toolkit
type MockToolkit struct {
	mock.Mock
}

func (m *MockToolkit) Validate(ctx context.Context, smiles string) (string, error) {
	args := m.Called(ctx, smiles)
	return args.String(0), args.Error(1)
}

func (m *MockToolkit) Conformer(ctx context.Context, smiles string, opts domainMol.ConformerOptions) (*domainMol.Conformer, error) {
	args := m.Called(ctx, smiles, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainMol.Conformer), args.Error(1)
}

func (m *MockToolkit) Descriptors(ctx context.Context, smiles string) (*domainMol.Descriptors, error) {
	args := m.Called(ctx, smiles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainMol.Descriptors), args.Error(1)
}

func (m *MockToolkit) Depict(ctx context.Context, smiles string, opts domainMol.DepictOptions) (*domainMol.Image, error) {
	args := m.Called(ctx, smiles, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainMol.Image), args.Error(1)
}

// MockPredictor is a mock implementation of domainMol.ToxicityPredictor
type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) Predict(ctx context.Context, smiles string) (*domainMol.ToxicityReport, error) {
	args := m.Called(ctx, smiles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainMol.ToxicityReport), args.Error(1)
}

// MockResolver is a mock implementation of domainMol.NameResolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) ResolveName(ctx context.Context, smiles string) (string, error) {
	args := m.Called(ctx, smiles)
	return args.String(0), args.Error(1)
}

// MockAssistant is a mock implementation of domainMol.Assistant
type MockAssistant struct {
	mock.Mock
}

func (m *MockAssistant) Ask(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type fixture struct {
	toolkit   *MockToolkit
	predictor *MockPredictor
	resolver  *MockResolver
	assistant *MockAssistant
	svc       Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		toolkit:   &MockToolkit{},
		predictor: &MockPredictor{},
		resolver:  &MockResolver{},
		assistant: &MockAssistant{},
	}
	svc, err := NewService(Dependencies{
		Toolkit:   f.toolkit,
		Predictor: f.predictor,
		Resolver:  f.resolver,
		Assistant: f.assistant,
	}, logging.NewNopLogger(), WithImageSize(400, 400))
	require.NoError(t, err)
	f.svc = svc
	return f
}

const ethanolMolBlock = `
     RDKit          3D

  3  2  0  0  0  0  0  0  0  0999 V2000
   -0.8883    0.1670   -0.0273 C   0  0  0  0  0  0  0  0  0  0  0  0
    0.4658   -0.5116   -0.0368 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.4311    0.3978    0.4430 O   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  1  0
  2  3  1  0
M  END
`

const flatMolBlock = `
     RDKit          2D

  2  1  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.5000    0.0000    0.0000 O   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  1  0
M  END
`

const sodiumMolBlock = `
     RDKit          3D

  1  0  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 Na  0  3  0  0  0  0  0  0  0  0  0  0
M  END
`

func ethanolDescriptors() *domainMol.Descriptors {
	return &domainMol.Descriptors{
		CanonicalSMILES: "CCO",
		ExactMolWt:      46.041865,
		LogP:            -0.0014,
		HBondDonors:     1,
		HBondAcceptors:  1,
		TPSA:            20.23,
	}
}

func report(t *testing.T, p float64) *domainMol.ToxicityReport {
	t.Helper()
	probs := make([]float64, domainMol.EndpointCount)
	for i := range probs {
		probs[i] = p
	}
	probs[len(probs)-1] = 0.93
	r, err := domainMol.NewToxicityReport("CCO", "tox21_graphconv", probs, domainMol.DefaultToxicThreshold)
	require.NoError(t, err)
	return r
}

func TestNewService_RequiresCollaborators(t *testing.T) {
	_, err := NewService(Dependencies{}, nil)
	assert.Error(t, err)
	_, err = NewService(Dependencies{Toolkit: &MockToolkit{}}, nil)
	assert.Error(t, err)
}

func TestConvert_Success(t *testing.T) {
	f := newFixture(t)
	f.toolkit.On("Conformer", mock.Anything, "CCO", domainMol.ConformerOptions{AddHydrogens: true}).
		Return(&domainMol.Conformer{SMILES: "CCO", MolBlock: ethanolMolBlock}, nil)

	res, err := f.svc.Convert(context.Background(), " CCO ")
	require.NoError(t, err)
	assert.Equal(t, ConvertSuccessMessage, res.Message)
	assert.Equal(t, ethanolMolBlock, res.MolBlock)
	assert.Equal(t, 3, res.AtomCount)
	assert.Equal(t, 2, res.BondCount)
	assert.Equal(t, ethanolMolBlock, res.Response().MolBlock)
}

func TestConvert_EmptySMILES(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Convert(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, errs.IsCode(err, errs.ErrCodeBadRequest))
	assert.Equal(t, "No SMILES string provided", errs.Message(err))
	f.toolkit.AssertNotCalled(t, "Conformer", mock.Anything, mock.Anything, mock.Anything)
}

func TestConvert_InvalidSMILES(t *testing.T) {
	f := newFixture(t)
	f.toolkit.On("Conformer", mock.Anything, "C1CC", mock.Anything).
		Return(nil, errs.New(errs.ErrCodeMoleculeInvalidSMILES, "Invalid SMILES string"))

	_, err := f.svc.Convert(context.Background(), "C1CC")
	require.Error(t, err)
	assert.True(t, errs.IsCode(err, errs.ErrCodeMoleculeConversionFailed))
	assert.Equal(t, "Molecule conversion failed: Invalid SMILES string provided", errs.Message(err))
}

func TestConvert_BadBlocks(t *testing.T) {
	tests := []struct {
		name  string
		block string
	}{
		{"truncated", "\n     RDKit          3D\n\n  3  2  0  0  0  0  0  0  0  0999 V2000\n"},
		{"no atoms", "\n     RDKit          3D\n\n  0  0  0  0  0  0  0  0  0  0999 V2000\nM  END\n"},
		{"not embedded", flatMolBlock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.toolkit.On("Conformer", mock.Anything, "CCO", mock.Anything).
				Return(&domainMol.Conformer{SMILES: "CCO", MolBlock: tt.block}, nil)

			_, err := f.svc.Convert(context.Background(), "CCO")
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(errs.Message(err), "Molecule conversion failed: "))
		})
	}
}

func TestConvert_SingleAtomNeedsNoDepth(t *testing.T) {
	f := newFixture(t)
	f.toolkit.On("Conformer", mock.Anything, "[Na+]", mock.Anything).
		Return(&domainMol.Conformer{SMILES: "[Na+]", MolBlock: sodiumMolBlock}, nil)

	res, err := f.svc.Convert(context.Background(), "[Na+]")
	require.NoError(t, err)
	assert.Equal(t, 1, res.AtomCount)
}

func TestConvert_FlatBlockMessage(t *testing.T) {
	f := newFixture(t)
	f.toolkit.On("Conformer", mock.Anything, "CO", mock.Anything).
		Return(&domainMol.Conformer{SMILES: "CO", MolBlock: flatMolBlock}, nil)

	_, err := f.svc.Convert(context.Background(), "CO")
	require.Error(t, err)
	assert.True(t, errs.IsCode(err, errs.ErrCodeMoleculeConversionFailed))
	assert.Equal(t, "Molecule conversion failed: conformer embedding failed", errs.Message(err))
}

func TestAnalyze_FullSuccess(t *testing.T) {
	f := newFixture(t)
	f.toolkit.On("Descriptors", mock.Anything, "CCO").Return(ethanolDescriptors(), nil)
	f.resolver.On("ResolveName", mock.Anything, "CCO").Return("ethanol", nil)
	f.predictor.On("Predict", mock.Anything, "CCO").Return(report(t, 0.1), nil)
	f.toolkit.On("Depict", mock.Anything, "CCO", domainMol.DepictOptions{Format: domainMol.FormatPNG, Width: 400, Height: 400, UseConformer: true}).
		Return(&domainMol.Image{Format: domainMol.FormatPNG, Data: []byte("png")}, nil)
	f.toolkit.On("Depict", mock.Anything, "CCO", domainMol.DepictOptions{Format: domainMol.FormatSVG, Width: 400, Height: 400}).
		Return(&domainMol.Image{Format: domainMol.FormatSVG, Data: []byte("<svg/>")}, nil)
	f.assistant.On("Ask", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Analysis for molecule with SMILES: CCO") &&
			strings.Contains(p, "Molecular Weight: 46.04 g/mol") &&
			strings.Contains(p, "SR-p53: Toxic (confidence: 0.93)") &&
			strings.HasSuffix(p, "Question: Is it toxic?")
	})).Return("Mostly not.", nil)

	resp := f.svc.Analyze(context.Background(), &AnalyzeInput{SMILES: "CCO", Prompt: "Is it toxic?"})

	assert.Empty(t, resp.Error)
	assert.Equal(t, "46.04", resp.Properties[domainMol.KeyMolecularWeight])
	assert.Equal(t, "ethanol", resp.Properties[domainMol.KeyMoleculeName])
	require.False(t, resp.Toxicity.Failed())
	assert.Len(t, resp.Toxicity.Predictions, domainMol.EndpointCount)
	assert.Equal(t, "Toxic", resp.Toxicity.Predictions["SR-p53"].Prediction)
	assert.Equal(t, "0.10", resp.Toxicity.Predictions["NR-AR"].Confidence)
	require.NotNil(t, resp.MoleculeImage)
	assert.Equal(t, "cG5n", *resp.MoleculeImage)
	require.NotNil(t, resp.MoleculeImage2D)
	assert.Equal(t, "Mostly not.", resp.GeminiResponse)
	f.assistant.AssertExpectations(t)
}

func TestAnalyze_NoPromptSkipsAssistant(t *testing.T) {
	f := newFixture(t)
	f.toolkit.On("Descriptors", mock.Anything, "CCO").Return(ethanolDescriptors(), nil)
	f.resolver.On("ResolveName", mock.Anything, "CCO").Return("", errs.New(errs.ErrCodeMoleculeNotFound, "not found"))
	f.predictor.On("Predict", mock.Anything, "CCO").Return(report(t, 0.2), nil)
	f.toolkit.On("Depict", mock.Anything, "CCO", mock.Anything).Return(nil, errors.New("render crashed"))

	resp := f.svc.Analyze(context.Background(), &AnalyzeInput{SMILES: "CCO"})

	assert.Equal(t, domainMol.UnknownMoleculeName, resp.Properties[domainMol.KeyMoleculeName])
	assert.Nil(t, resp.MoleculeImage)
	assert.Nil(t, resp.MoleculeImage2D)
	assert.Equal(t, "", resp.GeminiResponse)
	f.assistant.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
}

func TestAnalyze_InvalidSMILESFallbacks(t *testing.T) {
	f := newFixture(t)
	invalid := errs.New(errs.ErrCodeMoleculeInvalidSMILES, "Invalid SMILES string")
	f.toolkit.On("Descriptors", mock.Anything, "xyz").Return(nil, invalid)
	f.resolver.On("ResolveName", mock.Anything, "xyz").Return(domainMol.UnknownMoleculeName, nil)
	f.predictor.On("Predict", mock.Anything, "xyz").Return(nil, errs.New(errs.ErrCodeGNNModelError, "featurization failed"))
	f.toolkit.On("Depict", mock.Anything, "xyz", mock.Anything).Return(nil, invalid)
	f.assistant.On("Ask", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "\n\nInvalid SMILES string\n\n")
	})).Return("", errs.New(errs.ErrCodeLLMRequestFailed, "LLM request failed"))

	resp := f.svc.Analyze(context.Background(), &AnalyzeInput{SMILES: "xyz", Prompt: "what?"})

	assert.Nil(t, resp.Properties)
	assert.Equal(t, "Invalid SMILES string", resp.Error)
	assert.Equal(t, "Prediction error: featurization failed", resp.Toxicity.Error)
	assert.Nil(t, resp.MoleculeImage)
	assert.Equal(t, "Error: LLM request failed", resp.GeminiResponse)
}

func TestAnalyze_InlineErrorsKeepCause(t *testing.T) {
	f := newFixture(t)
	refused := errors.New("dial tcp 10.0.0.7:5000: connect: connection refused")
	f.toolkit.On("Descriptors", mock.Anything, "CCO").Return(ethanolDescriptors(), nil)
	f.resolver.On("ResolveName", mock.Anything, "CCO").Return("ethanol", nil)
	f.predictor.On("Predict", mock.Anything, "CCO").Return(nil, errs.External(refused, "toxicity model unreachable"))
	f.toolkit.On("Depict", mock.Anything, "CCO", mock.Anything).Return(nil, errors.New("render crashed"))
	f.assistant.On("Ask", mock.Anything, mock.Anything).
		Return("", errs.New(errs.ErrCodeLLMRequestFailed, "LLM request failed").WithCause(errors.New("429 quota exceeded")))

	resp := f.svc.Analyze(context.Background(), &AnalyzeInput{SMILES: "CCO", Prompt: "why?"})

	assert.Equal(t, "Prediction error: toxicity model unreachable: dial tcp 10.0.0.7:5000: connect: connection refused", resp.Toxicity.Error)
	assert.Equal(t, "Error: LLM request failed: 429 quota exceeded", resp.GeminiResponse)
}

// slowAssistant answers after delay and ignores cancellation.
type slowAssistant struct {
	delay time.Duration
}

func (a slowAssistant) Ask(context.Context, string) (string, error) {
	time.Sleep(a.delay)
	return "late answer", nil
}

func TestAnalyze_AssistantSharesDeadline(t *testing.T) {
	tk, pr := &MockToolkit{}, &MockPredictor{}
	svc, err := NewService(Dependencies{
		Toolkit:   tk,
		Predictor: pr,
		Assistant: slowAssistant{delay: 2 * time.Second},
	}, nil, WithAnalyzeTimeout(100*time.Millisecond))
	require.NoError(t, err)
	tk.On("Descriptors", mock.Anything, "CCO").Return(ethanolDescriptors(), nil)
	tk.On("Depict", mock.Anything, "CCO", mock.Anything).Return(&domainMol.Image{Data: []byte("x")}, nil)
	pr.On("Predict", mock.Anything, "CCO").Return(report(t, 0.3), nil)

	start := time.Now()
	resp := svc.Analyze(context.Background(), &AnalyzeInput{SMILES: "CCO", Prompt: "hi"})

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "Error: LLM request timed out: context deadline exceeded", resp.GeminiResponse)
	assert.Len(t, resp.Toxicity.Predictions, domainMol.EndpointCount)
	assert.NotNil(t, resp.MoleculeImage)
}

func TestAnalyze_EmptySMILES(t *testing.T) {
	f := newFixture(t)
	resp := f.svc.Analyze(context.Background(), &AnalyzeInput{Prompt: "hi"})

	assert.Nil(t, resp.Properties)
	assert.True(t, resp.Toxicity.Failed())
	assert.Equal(t, "Error: No SMILES string provided", resp.GeminiResponse)
	f.toolkit.AssertNotCalled(t, "Descriptors", mock.Anything, mock.Anything)
	f.predictor.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestAnalyze_WithoutAssistant(t *testing.T) {
	tk, pr := &MockToolkit{}, &MockPredictor{}
	svc, err := NewService(Dependencies{Toolkit: tk, Predictor: pr}, nil)
	require.NoError(t, err)
	tk.On("Descriptors", mock.Anything, "C").Return(ethanolDescriptors(), nil)
	tk.On("Depict", mock.Anything, "C", mock.Anything).Return(&domainMol.Image{Data: []byte("x")}, nil)
	pr.On("Predict", mock.Anything, "C").Return(report(t, 0.3), nil)

	resp := svc.Analyze(context.Background(), &AnalyzeInput{SMILES: "C", Prompt: "hi"})
	assert.Equal(t, domainMol.UnknownMoleculeName, resp.Properties[domainMol.KeyMoleculeName])
	assert.True(t, strings.HasPrefix(resp.GeminiResponse, "Error: "))
}

func TestChart(t *testing.T) {
	f := newFixture(t)
	f.toolkit.On("Validate", mock.Anything, "OCC").Return("CCO", nil)
	f.predictor.On("Predict", mock.Anything, "CCO").Return(report(t, 0.25), nil)

	resp, err := f.svc.Chart(context.Background(), "OCC")
	require.NoError(t, err)
	require.Len(t, resp.Predictions, domainMol.EndpointCount)
	for i, ep := range domainMol.Tox21Endpoints {
		assert.Equal(t, ep.String(), resp.Predictions[i].Endpoint)
	}
	assert.Equal(t, 0.25, resp.Predictions[0].Value)
	assert.Equal(t, 0.93, resp.Predictions[11].Value)
}

func TestChart_Errors(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Chart(context.Background(), "")
	assert.True(t, errs.IsCode(err, errs.ErrCodeBadRequest))

	f.toolkit.On("Validate", mock.Anything, "C1CC").Return("", errs.New(errs.ErrCodeMoleculeInvalidSMILES, "Invalid SMILES string"))
	_, err = f.svc.Chart(context.Background(), "C1CC")
	assert.True(t, errs.IsCode(err, errs.ErrCodeMoleculeInvalidSMILES))

	f.toolkit.On("Validate", mock.Anything, "CCN").Return("CCN", nil)
	f.predictor.On("Predict", mock.Anything, "CCN").Return(nil, errs.New(errs.ErrCodeGNNModelNotLoaded, "toxicity model not loaded"))
	_, err = f.svc.Chart(context.Background(), "CCN")
	assert.True(t, errs.IsCode(err, errs.ErrCodeGNNModelNotLoaded))
	f.predictor.AssertNotCalled(t, "Predict", mock.Anything, "C1CC")
}

func TestChart_ToolkitDownUsesInput(t *testing.T) {
	f := newFixture(t)
	f.toolkit.On("Validate", mock.Anything, "OCC").Return("", errs.External(errors.New("connection refused"), "toolkit unreachable"))
	f.predictor.On("Predict", mock.Anything, "OCC").Return(report(t, 0.25), nil)

	resp, err := f.svc.Chart(context.Background(), "OCC")
	require.NoError(t, err)
	assert.Len(t, resp.Predictions, domainMol.EndpointCount)
}

// recordingSink implements both ArtifactStore and EventPublisher.
type recordingSink struct {
	puts     map[string]string
	events   []*domainMol.Event
	putErr   error
	ctxAlive bool
}

func (r *recordingSink) Put(ctx context.Context, key, contentType string, _ []byte) error {
	r.ctxAlive = ctx.Err() == nil
	if r.putErr != nil {
		return r.putErr
	}
	if r.puts == nil {
		r.puts = map[string]string{}
	}
	r.puts[key] = contentType
	return nil
}

func (r *recordingSink) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	if expiry != 0 {
		return "", errors.New("unexpected expiry")
	}
	return "http://minio.local/artifacts/" + key + "?X-Amz-Signature=sig", nil
}

func (r *recordingSink) Publish(_ context.Context, ev *domainMol.Event) error {
	r.events = append(r.events, ev)
	return errors.New("broker down")
}

func newSinkFixture(t *testing.T, sink *recordingSink, logger ...logging.Logger) *fixture {
	t.Helper()
	log := logging.NewNopLogger()
	if len(logger) > 0 {
		log = logger[0]
	}
	f := newFixture(t)
	svc, err := NewService(Dependencies{
		Toolkit:   f.toolkit,
		Predictor: f.predictor,
		Resolver:  f.resolver,
		Assistant: f.assistant,
		Artifacts: sink,
		Events:    sink,
	}, log, WithImageSize(400, 400))
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestConvert_RecordsArtifactAndEvent(t *testing.T) {
	sink := &recordingSink{}
	f := newSinkFixture(t, sink)
	f.toolkit.On("Conformer", mock.Anything, "CCO", mock.Anything).
		Return(&domainMol.Conformer{SMILES: "CCO", MolBlock: ethanolMolBlock}, nil)

	ctx, cancel := context.WithCancel(logging.WithRequestID(context.Background(), "req-1"))
	cancel()
	res, err := f.svc.Convert(ctx, "CCO")
	require.NoError(t, err, "publish failures must not fail the request")
	assert.Equal(t, ConvertSuccessMessage, res.Message)

	key := domainMol.ArtifactKey("CCO", domainMol.ArtifactMolBlock)
	assert.Equal(t, "chemical/x-mdl-molfile", sink.puts[key])
	assert.True(t, sink.ctxAlive)
	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.Equal(t, domainMol.EventMoleculeConverted, ev.Type)
	assert.Equal(t, "req-1", ev.RequestID)
	assert.Equal(t, []string{key}, ev.Artifacts)
	assert.Equal(t, map[string]string{key: "http://minio.local/artifacts/" + key + "?X-Amz-Signature=sig"}, ev.ArtifactURLs)
	assert.Empty(t, ev.Error)
}

func TestConvert_FailureStillPublishes(t *testing.T) {
	sink := &recordingSink{}
	f := newSinkFixture(t, sink)
	f.toolkit.On("Conformer", mock.Anything, "C1CC", mock.Anything).
		Return(nil, errs.New(errs.ErrCodeMoleculeInvalidSMILES, "Invalid SMILES string"))

	_, err := f.svc.Convert(context.Background(), "C1CC")
	require.Error(t, err)
	assert.Empty(t, sink.puts)
	require.Len(t, sink.events, 1)
	assert.Contains(t, sink.events[0].Error, "Invalid SMILES string provided")
}

func TestAnalyze_RecordsDepictionsAndEvent(t *testing.T) {
	sink := &recordingSink{}
	f := newSinkFixture(t, sink)
	f.toolkit.On("Descriptors", mock.Anything, "CCO").Return(ethanolDescriptors(), nil)
	f.resolver.On("ResolveName", mock.Anything, "CCO").Return("ethanol", nil)
	f.predictor.On("Predict", mock.Anything, "CCO").Return(report(t, 0.1), nil)
	f.toolkit.On("Depict", mock.Anything, "CCO", mock.MatchedBy(func(o domainMol.DepictOptions) bool { return o.Format == domainMol.FormatPNG })).
		Return(&domainMol.Image{Format: domainMol.FormatPNG, Data: []byte("png")}, nil)
	f.toolkit.On("Depict", mock.Anything, "CCO", mock.MatchedBy(func(o domainMol.DepictOptions) bool { return o.Format == domainMol.FormatSVG })).
		Return(&domainMol.Image{Format: domainMol.FormatSVG, Data: []byte("<svg/>")}, nil)

	resp := f.svc.Analyze(context.Background(), &AnalyzeInput{SMILES: "CCO"})
	assert.Empty(t, resp.Error)

	assert.Equal(t, "image/png", sink.puts[domainMol.ArtifactKey("CCO", domainMol.ArtifactImage3D)])
	assert.Equal(t, "image/svg+xml", sink.puts[domainMol.ArtifactKey("CCO", domainMol.ArtifactImage2D)])
	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.Equal(t, domainMol.EventMoleculeAnalyzed, ev.Type)
	assert.Equal(t, "ethanol", ev.Name)
	assert.Equal(t, []string{"SR-p53"}, ev.ToxicEndpoints)
	assert.Len(t, ev.Artifacts, 2)
}

func TestAnalyze_ArtifactFailureIsIgnored(t *testing.T) {
	sink := &recordingSink{putErr: errors.New("bucket gone")}
	logger := testutil.NewRecordingLogger()
	f := newSinkFixture(t, sink, logger)
	f.toolkit.On("Descriptors", mock.Anything, "CCO").Return(ethanolDescriptors(), nil)
	f.resolver.On("ResolveName", mock.Anything, "CCO").Return("ethanol", nil)
	f.predictor.On("Predict", mock.Anything, "CCO").Return(report(t, 0.1), nil)
	f.toolkit.On("Depict", mock.Anything, "CCO", mock.Anything).
		Return(&domainMol.Image{Format: domainMol.FormatPNG, Data: []byte("png")}, nil)

	resp := f.svc.Analyze(context.Background(), &AnalyzeInput{SMILES: "CCO"})
	require.NotNil(t, resp.MoleculeImage)
	require.Len(t, sink.events, 1)
	assert.Empty(t, sink.events[0].Artifacts)

	m, ok := logger.Find("warn", "artifact upload failed")
	require.True(t, ok)
	assert.Equal(t, "CCO", m.Field(logging.FieldSMILES))
	assert.True(t, logger.HasMessage("warn", "event publish failed"))
}

//Personal.AI order the ending
