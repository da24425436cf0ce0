package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/clipfinder/internal/platform/ctxutil"
	"github.com/yungbote/clipfinder/internal/platform/logger"
	"github.com/yungbote/clipfinder/internal/segment"
)

const tracerName = "github.com/yungbote/clipfinder/internal/resolve"

// TerminalPolicy decides what happens when every tier is exhausted without a
// single validated segment.
type TerminalPolicy string

const (
	PolicyFailEmpty             TerminalPolicy = "fail_empty"
	PolicySynthesizePlaceholder TerminalPolicy = "synthesize_placeholder"
)

func ParseTerminalPolicy(s string) (TerminalPolicy, error) {
	switch TerminalPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyFailEmpty:
		return PolicyFailEmpty, nil
	case PolicySynthesizePlaceholder:
		return PolicySynthesizePlaceholder, nil
	default:
		return "", fmt.Errorf("unknown terminal policy %q", s)
	}
}

type Outcome string

const (
	OutcomeDecoded     Outcome = "decoded"
	OutcomeRecovered   Outcome = "recovered"
	OutcomePlaceholder Outcome = "placeholder"
	OutcomeFailed      Outcome = "failed"
)

// State is a step of the resolution state machine, recorded in order on the Result.
type State string

const (
	StateInit           State = "init"
	StateExtracted      State = "extracted"
	StateDecoded        State = "decoded"
	StateParsedFallback State = "parsed_fallback"
	StateValidated      State = "validated"
	StateFailed         State = "failed"
)

// Recorder receives pipeline telemetry. observability.Metrics implements it.
type Recorder interface {
	ObserveResolution(outcome, tier string, dur time.Duration)
	IncReject(tier, reason string)
	IncWarning(code string)
	IncIssue(tier string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveResolution(string, string, time.Duration) {}
func (nopRecorder) IncReject(string, string)                        {}
func (nopRecorder) IncWarning(string)                               {}
func (nopRecorder) IncIssue(string)                                 {}

type Options struct {
	Validation     segment.Policy
	TerminalPolicy TerminalPolicy
	// PlaceholderWindow is the length in seconds of the synthesized segment.
	PlaceholderWindow float64
	Recorder          Recorder
}

func DefaultOptions() Options {
	return Options{
		Validation:        segment.DefaultPolicy(),
		TerminalPolicy:    PolicyFailEmpty,
		PlaceholderWindow: 60,
	}
}

// Attempt records one tier invocation.
type Attempt struct {
	Tier       Tier   `json:"tier"`
	Candidates int    `json:"candidates"`
	Validated  int    `json:"validated"`
	Error      string `json:"error,omitempty"`
}

type Result struct {
	RunID       string                 `json:"run_id"`
	Outcome     Outcome                `json:"outcome"`
	Tier        Tier                   `json:"tier,omitempty"`
	ContentKind ContentKind            `json:"content_kind,omitempty"`
	Fenced      bool                   `json:"fenced"`
	Segments    []segment.Segment      `json:"segments"`
	Rejects     []segment.RejectRecord `json:"rejects"`
	Warnings    []segment.Warning      `json:"warnings"`
	Issues      []Issue                `json:"issues"`
	Attempts    []Attempt              `json:"attempts"`
	// Salvaged is set when a decoded payload validated to nothing and the text
	// tiers were run against the original content.
	Salvaged bool    `json:"salvaged"`
	States   []State `json:"states"`
	Error    string  `json:"error,omitempty"`
}

func (r *Result) enter(s State) { r.States = append(r.States, s) }

// Pipeline resolves one provider response into validated segments. It holds no
// mutable state and is safe for concurrent use.
type Pipeline struct {
	log       *logger.Logger
	opts      Options
	validator *segment.Validator
	decoder   Strategy
	fallback  []Strategy
	tracer    trace.Tracer
}

func New(log *logger.Logger, opts Options) *Pipeline {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.TerminalPolicy == "" {
		opts.TerminalPolicy = PolicyFailEmpty
	}
	if opts.PlaceholderWindow <= 0 {
		opts.PlaceholderWindow = 60
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Validation.TitleMaxLen == 0 && opts.Validation.DurationTolerance == 0 && len(opts.Validation.DefaultPlatforms) == 0 {
		opts.Validation = segment.DefaultPolicy()
	}
	if len(opts.Validation.DefaultPlatforms) == 0 {
		opts.Validation.DefaultPlatforms = segment.SupportedPlatforms()
	}
	return &Pipeline{
		log:       log,
		opts:      opts,
		validator: segment.NewValidator(log, opts.Validation),
		decoder:   StructuredDecoder{},
		fallback:  []Strategy{NewTemplateParser(log), NewLineScanner(log)},
		tracer:    otel.Tracer(tracerName),
	}
}

func (p *Pipeline) Policy() TerminalPolicy { return p.opts.TerminalPolicy }

// ResolveRaw decodes the raw envelope bytes and resolves them.
func (p *Pipeline) ResolveRaw(ctx context.Context, body []byte) (*Result, error) {
	env, err := ParseEnvelope(body)
	if err != nil {
		return p.envelopeFailure(ctx, err), err
	}
	return p.Resolve(ctx, env)
}

func (p *Pipeline) Resolve(ctx context.Context, env Envelope) (*Result, error) {
	text, err := env.Text()
	if err != nil {
		return p.envelopeFailure(ctx, err), err
	}
	return p.ResolveContent(ctx, text)
}

// ResolveContent runs the cascade on assistant text that was already pulled out of an envelope.
func (p *Pipeline) ResolveContent(ctx context.Context, raw string) (*Result, error) {
	if strings.TrimSpace(raw) == "" {
		err := &EnvelopeError{Reason: "content empty"}
		return p.envelopeFailure(ctx, err), err
	}

	start := time.Now()
	res := newResult()
	log := p.log.With("run_id", res.RunID)
	if td := ctxutil.GetTraceData(ctx); td != nil && td.RequestID != "" {
		log = log.With("request_id", td.RequestID, "trace_id", td.TraceID)
	}

	ctx, span := p.tracer.Start(ctx, "resolve.pipeline", trace.WithAttributes(attribute.String("run_id", res.RunID)))
	defer span.End()

	content := ClassifyContent(raw)
	res.enter(StateExtracted)
	res.ContentKind = content.Kind
	res.Fenced = content.Fenced
	span.SetAttributes(
		attribute.String("content.kind", string(content.Kind)),
		attribute.Bool("content.fenced", content.Fenced),
		attribute.Int("content.length", len(raw)),
	)
	log.Debug("content extracted", "kind", content.Kind, "fenced", content.Fenced, "preview", content.Working)

	if content.Kind == ContentJSON {
		report, err := p.runTier(ctx, log, res, p.decoder, content.Working)
		switch {
		case err != nil:
			log.Warn("structured decode failed, falling back to text tiers", "error", err)
		case len(report.Segments) > 0:
			res.enter(StateDecoded)
			res.enter(StateValidated)
			return p.finish(span, res, OutcomeDecoded, TierStructured, start), nil
		default:
			res.enter(StateDecoded)
			res.Salvaged = true
			log.Warn("decoded payload produced no valid segments, running salvage pass", "rejects", len(res.Rejects))
		}
	}

	res.enter(StateParsedFallback)
	for _, s := range p.fallback {
		report, err := p.runTier(ctx, log, res, s, content.Raw)
		if err != nil {
			continue
		}
		// First tier yielding candidates wins even if validation rejects them all.
		if len(report.Segments) > 0 {
			res.enter(StateValidated)
			return p.finish(span, res, OutcomeRecovered, s.Tier(), start), nil
		}
		break
	}

	return p.terminal(span, log, res, start)
}

func (p *Pipeline) runTier(ctx context.Context, log *logger.Logger, res *Result, s Strategy, text string) (segment.Report, error) {
	_, span := p.tracer.Start(ctx, "resolve.tier."+string(s.Tier()))
	defer span.End()

	ext, err := s.Extract(text)
	for _, issue := range ext.Issues {
		p.opts.Recorder.IncIssue(string(issue.Tier))
	}
	res.Issues = append(res.Issues, ext.Issues...)
	attempt := Attempt{Tier: s.Tier(), Candidates: len(ext.Candidates)}
	if err != nil {
		attempt.Error = err.Error()
		res.Attempts = append(res.Attempts, attempt)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Debug("tier produced no candidates", "tier", s.Tier(), "error", err)
		return segment.Report{}, err
	}

	report := p.validator.Validate(string(s.Tier()), ext.Candidates)
	for _, rj := range report.Rejects {
		p.opts.Recorder.IncReject(rj.Tier, string(rj.Reason))
	}
	for _, w := range report.Warnings {
		p.opts.Recorder.IncWarning(string(w.Code))
	}
	res.Rejects = append(res.Rejects, report.Rejects...)
	res.Warnings = append(res.Warnings, report.Warnings...)
	attempt.Validated = len(report.Segments)
	res.Attempts = append(res.Attempts, attempt)
	if len(report.Segments) > 0 {
		res.Segments = report.Segments
	}

	span.SetAttributes(
		attribute.Int("candidates", len(ext.Candidates)),
		attribute.Int("validated", len(report.Segments)),
		attribute.Int("rejects", len(report.Rejects)),
	)
	log.Info("tier validated", "tier", s.Tier(), "candidates", len(ext.Candidates), "validated", len(report.Segments), "rejects", len(report.Rejects))
	return report, nil
}

func (p *Pipeline) terminal(span trace.Span, log *logger.Logger, res *Result, start time.Time) (*Result, error) {
	if p.opts.TerminalPolicy == PolicySynthesizePlaceholder {
		res.Segments = []segment.Segment{p.placeholder()}
		res.enter(StateValidated)
		log.Warn("all tiers exhausted, synthesized placeholder segment", "window", p.opts.PlaceholderWindow, "rejects", len(res.Rejects))
		return p.finish(span, res, OutcomePlaceholder, TierPlaceholder, start), nil
	}

	terr := &TerminalEmptyError{Attempts: len(res.Attempts), Rejects: len(res.Rejects)}
	res.Segments = []segment.Segment{}
	res.Error = terr.Error()
	res.enter(StateFailed)
	span.RecordError(terr)
	span.SetStatus(codes.Error, "terminal empty")
	log.Error("all tiers exhausted without a valid segment", "attempts", terr.Attempts, "rejects", terr.Rejects)
	p.finish(span, res, OutcomeFailed, "", start)
	return res, terr
}

func (p *Pipeline) finish(span trace.Span, res *Result, outcome Outcome, tier Tier, start time.Time) *Result {
	res.Outcome = outcome
	res.Tier = tier
	span.SetAttributes(
		attribute.String("outcome", string(outcome)),
		attribute.String("tier", string(tier)),
		attribute.Int("segments", len(res.Segments)),
	)
	p.opts.Recorder.ObserveResolution(string(outcome), string(tier), time.Since(start))
	return res
}

func (p *Pipeline) envelopeFailure(ctx context.Context, err error) *Result {
	res := newResult()
	res.Outcome = OutcomeFailed
	res.Segments = []segment.Segment{}
	res.Error = err.Error()
	res.enter(StateFailed)

	_, span := p.tracer.Start(ctx, "resolve.pipeline", trace.WithAttributes(attribute.String("run_id", res.RunID)))
	span.RecordError(err)
	span.SetStatus(codes.Error, "envelope error")
	span.End()

	p.log.Error("envelope rejected", "run_id", res.RunID, "error", err)
	p.opts.Recorder.ObserveResolution(string(OutcomeFailed), "", 0)
	return res
}

func (p *Pipeline) placeholder() segment.Segment {
	w := p.opts.PlaceholderWindow
	return segment.Segment{
		StartTime:   0,
		EndTime:     w,
		Duration:    w,
		Title:       "Highlight",
		Hook:        "Watch this moment",
		Description: "Automatically selected segment; no segment could be recovered from the model response.",
		Platforms:   append([]string(nil), p.opts.Validation.DefaultPlatforms...),
		Hashtags:    []string{},
	}
}

func newResult() *Result {
	return &Result{
		RunID:    uuid.New().String(),
		Segments: []segment.Segment{},
		Rejects:  []segment.RejectRecord{},
		Warnings: []segment.Warning{},
		Issues:   []Issue{},
		Attempts: []Attempt{},
		States:   []State{StateInit},
	}
}

// IsTerminal reports whether err means the cascade ran dry rather than the envelope being unusable.
func IsTerminal(err error) bool { return errors.Is(err, ErrTerminalEmpty) }
