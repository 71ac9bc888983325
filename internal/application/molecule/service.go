// Package molecule provides the application-level service behind the
// /convert, /analyze and /chart endpoints. It orchestrates the toolkit, the
// toxicity model, the name resolver and the assistant and shapes their output
// into the API DTOs.
package molecule

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	domainMol "github.com/turtacn/ToxInsight/internal/domain/molecule"
	"github.com/turtacn/ToxInsight/internal/infrastructure/chem/molfile"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ToxInsight/internal/intelligence/assistant"
	errs "github.com/turtacn/ToxInsight/pkg/errors"
	dto "github.com/turtacn/ToxInsight/pkg/types/molecule"
)

const (
	ConvertSuccessMessage = "Molecule MOL file created successfully."

	msgInvalidSMILES         = "Invalid SMILES string"
	msgInvalidSMILESProvided = "Invalid SMILES string provided"

	defaultAnalyzeTimeout = 30 * time.Second

	// SideEffectTimeout bounds archiving and event publishing after a
	// response has been computed.
	SideEffectTimeout = 5 * time.Second
)

// Service defines the molecule application operations.
type Service interface {
	Convert(ctx context.Context, smiles string) (*ConvertResult, error)
	Analyze(ctx context.Context, input *AnalyzeInput) *dto.AnalyzeResponse
	Chart(ctx context.Context, smiles string) (*dto.ChartResponse, error)
}

// AnalyzeInput contains input for a full analysis.
type AnalyzeInput struct {
	SMILES string
	Prompt string
}

// ConvertResult is the 3D structure produced for a SMILES string.
type ConvertResult struct {
	Message   string
	MolBlock  string
	AtomCount int
	BondCount int
}

// Response renders the result as the /convert body.
func (r *ConvertResult) Response() *dto.ConvertResponse {
	return &dto.ConvertResponse{Message: r.Message, MolBlock: r.MolBlock}
}

// Dependencies groups the collaborators of the service.
type Dependencies struct {
	Toolkit   domainMol.Toolkit
	Predictor domainMol.ToxicityPredictor
	Resolver  domainMol.NameResolver
	Assistant domainMol.Assistant
	// Artifacts and Events are optional sinks. Failures there are logged and
	// never change the response.
	Artifacts domainMol.ArtifactStore
	Events    domainMol.EventPublisher
}

// Option configures the service.
type Option func(*serviceImpl)

// WithAnalyzeTimeout bounds the whole /analyze computation, the assistant
// call included.
func WithAnalyzeTimeout(d time.Duration) Option {
	return func(s *serviceImpl) {
		if d > 0 {
			s.analyzeTimeout = d
		}
	}
}

// WithImageSize overrides the depiction size.
func WithImageSize(width, height int) Option {
	return func(s *serviceImpl) {
		s.width, s.height = width, height
	}
}

// serviceImpl implements the Service interface.
type serviceImpl struct {
	toolkit        domainMol.Toolkit
	predictor      domainMol.ToxicityPredictor
	resolver       domainMol.NameResolver
	assistant      domainMol.Assistant
	artifacts      domainMol.ArtifactStore
	events         domainMol.EventPublisher
	logger         logging.Logger
	analyzeTimeout time.Duration
	width          int
	height         int
}

// NewService creates a new molecule application service. Toolkit and
// Predictor are required; a nil Resolver always yields "Unknown Molecule".
func NewService(deps Dependencies, logger logging.Logger, opts ...Option) (Service, error) {
	if deps.Toolkit == nil {
		return nil, errs.InvalidParam("toolkit is required")
	}
	if deps.Predictor == nil {
		return nil, errs.InvalidParam("toxicity predictor is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &serviceImpl{
		toolkit:        deps.Toolkit,
		predictor:      deps.Predictor,
		resolver:       deps.Resolver,
		assistant:      deps.Assistant,
		artifacts:      deps.Artifacts,
		events:         deps.Events,
		logger:         logger.Named("molecule"),
		analyzeTimeout: defaultAnalyzeTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *serviceImpl) Convert(ctx context.Context, smiles string) (*ConvertResult, error) {
	smiles = domainMol.NormalizeSMILES(smiles)
	if smiles == "" {
		return nil, errs.New(errs.ErrCodeBadRequest, dto.ErrMissingSMILES.Error())
	}

	start := time.Now()
	res, err := s.convert(ctx, smiles)

	ev := domainMol.NewEvent(domainMol.EventMoleculeConverted, smiles, time.Since(start))
	var files []artifact
	if err != nil {
		ev.Error = errs.Message(err)
	} else {
		files = append(files, artifact{domainMol.ArtifactMolBlock, "chemical/x-mdl-molfile", []byte(res.MolBlock)})
	}
	s.record(ctx, ev, files)
	return res, err
}

func (s *serviceImpl) convert(ctx context.Context, smiles string) (*ConvertResult, error) {
	conf, err := s.toolkit.Conformer(ctx, smiles, domainMol.ConformerOptions{AddHydrogens: true})
	if err != nil {
		return nil, s.conversionFailed(ctx, smiles, err)
	}
	mol, err := molfile.Parse(conf.MolBlock)
	if err != nil {
		return nil, s.conversionFailed(ctx, smiles, err)
	}
	if mol.AtomCount() == 0 {
		return nil, s.conversionFailed(ctx, smiles, errs.New(errs.ErrCodeMoleculeConversionFailed, "MOL block has no atoms"))
	}
	// A multi-atom block with every z at zero means embedding failed.
	if mol.AtomCount() > 1 && !mol.Is3D() {
		return nil, s.conversionFailed(ctx, smiles, errs.New(errs.ErrCodeMoleculeConversionFailed, "conformer embedding failed"))
	}

	s.logger.WithContext(ctx).Info("generated MOL block",
		logging.String(logging.FieldSMILES, smiles),
		logging.Int("atoms", mol.AtomCount()),
		logging.Int("bonds", mol.BondCount()))

	return &ConvertResult{
		Message:   ConvertSuccessMessage,
		MolBlock:  conf.MolBlock,
		AtomCount: mol.AtomCount(),
		BondCount: mol.BondCount(),
	}, nil
}

func (s *serviceImpl) conversionFailed(ctx context.Context, smiles string, cause error) error {
	reason := errs.Reason(cause)
	if errs.IsCode(cause, errs.ErrCodeMoleculeInvalidSMILES) {
		reason = msgInvalidSMILESProvided
	}
	s.logger.WithContext(ctx).WithError(cause).Warn("molecule conversion failed",
		logging.String(logging.FieldSMILES, smiles))
	return errs.New(errs.ErrCodeMoleculeConversionFailed, "Molecule conversion failed: "+reason).WithCause(cause)
}

// analysis collects the outcome of each fan-out branch. Each field is
// written by exactly one goroutine.
type analysis struct {
	desc    *domainMol.Descriptors
	descErr error
	name    string
	report  *domainMol.ToxicityReport
	toxErr  error
	png     *domainMol.Image
	svg     *domainMol.Image
}

// Analyze never fails: every branch degrades to its documented fallback.
// The fan-out and the assistant share one deadline.
func (s *serviceImpl) Analyze(ctx context.Context, input *AnalyzeInput) *dto.AnalyzeResponse {
	smiles := domainMol.NormalizeSMILES(input.SMILES)
	prompt := strings.TrimSpace(input.Prompt)
	log := s.logger.WithContext(ctx).With(logging.String(logging.FieldSMILES, smiles))

	if smiles == "" {
		resp := &dto.AnalyzeResponse{
			Toxicity: dto.ToxicityResult{Error: "Prediction error: " + dto.ErrMissingSMILES.Error()},
			Error:    msgInvalidSMILES,
		}
		if prompt != "" {
			resp.GeminiResponse = "Error: " + dto.ErrMissingSMILES.Error()
		}
		return resp
	}

	start := time.Now()
	deadlineCtx, cancel := context.WithTimeout(ctx, s.analyzeTimeout)
	defer cancel()

	var a analysis
	g, gctx := errgroup.WithContext(deadlineCtx)
	g.Go(func() error {
		a.desc, a.descErr = s.toolkit.Descriptors(gctx, smiles)
		return nil
	})
	g.Go(func() error {
		a.name = s.resolveName(gctx, smiles)
		return nil
	})
	g.Go(func() error {
		a.report, a.toxErr = s.predictor.Predict(gctx, smiles)
		return nil
	})
	g.Go(func() error {
		a.png = s.depict(gctx, smiles, domainMol.FormatPNG, true)
		return nil
	})
	g.Go(func() error {
		a.svg = s.depict(gctx, smiles, domainMol.FormatSVG, false)
		return nil
	})
	_ = g.Wait()

	resp := &dto.AnalyzeResponse{}

	var propsExplanation string
	if a.descErr != nil {
		propsExplanation = describeFailure(a.descErr)
		resp.Error = propsExplanation
		log.WithError(a.descErr).Warn("descriptor computation failed")
	} else {
		a.desc.Name = a.name
		resp.Properties = a.desc.WireMap()
		propsExplanation = domainMol.DescribeProperties(a.desc)
	}

	var toxExplanation string
	if a.toxErr != nil {
		resp.Toxicity = dto.ToxicityResult{Error: "Prediction error: " + errs.Reason(a.toxErr)}
		log.WithError(a.toxErr).Warn("toxicity prediction failed")
	} else {
		resp.Toxicity = toxicityResult(a.report)
		toxExplanation = domainMol.DescribeToxicity(a.report)
	}

	if a.png != nil {
		b64 := a.png.Base64()
		resp.MoleculeImage = &b64
	}
	if a.svg != nil {
		b64 := a.svg.Base64()
		resp.MoleculeImage2D = &b64
	}

	if prompt != "" {
		resp.GeminiResponse = s.ask(deadlineCtx, smiles, propsExplanation, toxExplanation, prompt)
	}

	ev := domainMol.NewEvent(domainMol.EventMoleculeAnalyzed, smiles, time.Since(start))
	ev.Name = a.name
	ev.Error = resp.Error
	if a.report != nil {
		ev.ToxicEndpoints = a.report.ToxicEndpoints()
	}
	var files []artifact
	if a.png != nil {
		files = append(files, artifact{domainMol.ArtifactImage3D, a.png.ContentType(), a.png.Data})
	}
	if a.svg != nil {
		files = append(files, artifact{domainMol.ArtifactImage2D, a.svg.ContentType(), a.svg.Data})
	}
	s.record(ctx, ev, files)
	return resp
}

type artifact struct {
	file        string
	contentType string
	data        []byte
}

// record archives files and publishes ev. It runs detached from the request's
// cancellation with its own deadline.
func (s *serviceImpl) record(ctx context.Context, ev *domainMol.Event, files []artifact) {
	if s.artifacts == nil && s.events == nil {
		return
	}
	ev.RequestID = logging.RequestIDFromContext(ctx)
	log := s.logger.WithContext(ctx).With(logging.String(logging.FieldSMILES, ev.SMILES))

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), SideEffectTimeout)
	defer cancel()

	if s.artifacts != nil {
		for _, f := range files {
			key := domainMol.ArtifactKey(ev.SMILES, f.file)
			if err := s.artifacts.Put(sctx, key, f.contentType, f.data); err != nil {
				log.WithError(err).Warn("artifact upload failed", logging.String("key", key))
				continue
			}
			ev.Artifacts = append(ev.Artifacts, key)
			u, err := s.artifacts.PresignGet(sctx, key, 0)
			if err != nil {
				log.WithError(err).Debug("artifact presign failed", logging.String("key", key))
				continue
			}
			if ev.ArtifactURLs == nil {
				ev.ArtifactURLs = make(map[string]string, len(files))
			}
			ev.ArtifactURLs[key] = u
		}
	}
	if s.events != nil {
		if err := s.events.Publish(sctx, ev); err != nil {
			log.WithError(err).Warn("event publish failed", logging.String("event", string(ev.Type)))
		}
	}
}

func describeFailure(err error) string {
	if errs.IsCode(err, errs.ErrCodeMoleculeInvalidSMILES) {
		return msgInvalidSMILES
	}
	return errs.Reason(err)
}

func (s *serviceImpl) resolveName(ctx context.Context, smiles string) string {
	if s.resolver == nil {
		return domainMol.UnknownMoleculeName
	}
	name, err := s.resolver.ResolveName(ctx, smiles)
	if err != nil || strings.TrimSpace(name) == "" {
		if err != nil && !errs.IsNotFound(err) {
			s.logger.WithContext(ctx).WithError(err).Debug("name lookup failed",
				logging.String(logging.FieldSMILES, smiles))
		}
		return domainMol.UnknownMoleculeName
	}
	return name
}

func (s *serviceImpl) depict(ctx context.Context, smiles string, format domainMol.ImageFormat, conformer bool) *domainMol.Image {
	img, err := s.toolkit.Depict(ctx, smiles, domainMol.DepictOptions{
		Format:       format,
		Width:        s.width,
		Height:       s.height,
		UseConformer: conformer,
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Debug("depiction failed",
			logging.String(logging.FieldSMILES, smiles),
			logging.String("format", string(format)))
		return nil
	}
	return img
}

func (s *serviceImpl) ask(ctx context.Context, smiles, props, tox, prompt string) string {
	if s.assistant == nil {
		return "Error: " + errs.DefaultMessageForCode(errs.ErrCodeLLMNotConfigured)
	}
	type answer struct {
		text string
		err  error
	}
	done := make(chan answer, 1)
	go func() {
		text, err := s.assistant.Ask(ctx, assistant.BuildContext(smiles, props, tox, prompt))
		done <- answer{text, err}
	}()

	var res answer
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = errs.New(errs.ErrCodeTimeout, "LLM request timed out").WithCause(ctx.Err())
	}
	if res.err != nil {
		s.logger.WithContext(ctx).WithError(res.err).Warn("assistant request failed")
		return "Error: " + errs.Reason(res.err)
	}
	return res.text
}

// canonical returns the toolkit's canonical form of smiles so equivalent
// spellings share one cached prediction. Only an invalid structure is an
// error; when the toolkit is unavailable the input is used unchanged.
func (s *serviceImpl) canonical(ctx context.Context, smiles string) (string, error) {
	c, err := s.toolkit.Validate(ctx, smiles)
	switch {
	case errs.IsCode(err, errs.ErrCodeMoleculeInvalidSMILES):
		return "", err
	case err != nil:
		s.logger.WithContext(ctx).WithError(err).Debug("canonicalisation skipped",
			logging.String(logging.FieldSMILES, smiles))
		return smiles, nil
	case strings.TrimSpace(c) == "":
		return smiles, nil
	}
	return c, nil
}

func toxicityResult(r *domainMol.ToxicityReport) dto.ToxicityResult {
	wire := r.WireMap()
	out := make(map[string]dto.PredictionEntry, len(wire))
	for k, v := range wire {
		out[k] = dto.PredictionEntry{Prediction: v.Prediction, Confidence: v.Confidence}
	}
	return dto.ToxicityResult{Predictions: out}
}

func (s *serviceImpl) Chart(ctx context.Context, smiles string) (*dto.ChartResponse, error) {
	smiles = domainMol.NormalizeSMILES(smiles)
	if smiles == "" {
		return nil, errs.New(errs.ErrCodeBadRequest, dto.ErrMissingSMILES.Error())
	}
	key, err := s.canonical(ctx, smiles)
	if err != nil {
		return nil, err
	}
	report, err := s.predictor.Predict(ctx, key)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("chart prediction failed",
			logging.String(logging.FieldSMILES, smiles))
		return nil, err
	}
	points := make([]dto.ChartPoint, 0, len(report.Predictions))
	for _, p := range report.Predictions {
		points = append(points, dto.ChartPoint{Endpoint: p.Endpoint.String(), Value: p.Probability})
	}
	return &dto.ChartResponse{Predictions: points}, nil
}

//Personal.AI order the ending
