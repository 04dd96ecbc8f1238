// Package pipeline sequences the normalization stages over one raw RDAP
// response: schema validation, vCard extraction, field standardization,
// entity resolution, Unicode normalization, redaction, type conversion, and
// the consistency check.
//
// A pipeline run is pure, synchronous computation over caller-owned data —
// no I/O, no shared mutable state — so one Pipeline may serve arbitrarily
// many concurrent Normalize calls without locking.
package pipeline

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/registrylabs/rdapnorm"
	"github.com/registrylabs/rdapnorm/internal/metrics"
	"github.com/registrylabs/rdapnorm/quality"
	"github.com/registrylabs/rdapnorm/redact"
)

// Middleware is a pure transform threaded between the fixed stages (after
// Unicode normalization, before redaction, so redaction still guards whatever
// a transform produces). No dynamic code loading: extensibility is an ordered
// list of functions.
type Middleware func(doc map[string]any, ctx rdapnorm.NormalizationContext) (map[string]any, error)

// Pipeline normalizes raw registry responses. Construct once, share freely.
type Pipeline struct {
	log             zerolog.Logger
	metrics         *metrics.Metrics
	redactionPolicy redact.Policy
	middlewares     []Middleware
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the structured logger. Default is a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithRedactionPolicy overrides the default full-level redaction policy.
func WithRedactionPolicy(policy redact.Policy) Option {
	return func(p *Pipeline) { p.redactionPolicy = policy }
}

// WithMiddleware appends transforms run between the fixed stages, in order.
func WithMiddleware(ms ...Middleware) Option {
	return func(p *Pipeline) { p.middlewares = append(p.middlewares, ms...) }
}

// New creates a Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		log:             zerolog.Nop(),
		redactionPolicy: redact.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Normalize converts one raw registry response into the canonical document.
// raw is never mutated; the pipeline works on its own decoded copy. On stage
// failure it returns a *rdapnorm.StageError naming the stage and path; the
// run's diagnostics are still emitted to the logger and metrics.
func (p *Pipeline) Normalize(raw json.RawMessage, ctx rdapnorm.NormalizationContext) (*rdapnorm.NormalizedDocument, error) {
	start := time.Now()
	if ctx.RequestID == "" {
		ctx.RequestID = uuid.NewString()
	}
	log := p.log.With().
		Str("request_id", ctx.RequestID).
		Str("registry", ctx.RegistryID).
		Logger()

	r := &run{
		ctx:      ctx,
		log:      log,
		pipeline: p,
		timings:  make(map[string]float64),
	}

	doc, err := r.execute(raw)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.metrics.RecordNormalization(ctx.RegistryID, outcome)

	// Diagnostics are emitted regardless of success or failure.
	evt := log.Info()
	if err != nil {
		evt = log.Error().Err(err)
	}
	evt.Str("outcome", outcome).
		Float64("duration_ms", float64(elapsed.Microseconds())/1000).
		Strs("warnings", r.warnings).
		Msg("normalization finished")

	if err != nil {
		return nil, err
	}

	doc.Diagnostics = rdapnorm.Diagnostics{
		DataQuality:         r.report.DataQuality,
		Warnings:            r.warnings,
		MissingFields:       r.report.MissingFields,
		RegistryType:        r.registryType,
		NormalizationTimeMs: float64(elapsed.Microseconds()) / 1000,
		StageTimingsMs:      r.timings,
		RedactionSkipped:    r.redactionSkipped,
	}
	return doc, nil
}

// run is the per-call state: one run per Normalize invocation, discarded
// afterwards, never shared.
type run struct {
	ctx      rdapnorm.NormalizationContext
	log      zerolog.Logger
	pipeline *Pipeline

	warnings         []string
	timings          map[string]float64
	registryType     string
	redactionSkipped bool
	report           quality.Report
}

func (r *run) warn(msgs ...string) {
	r.warnings = append(r.warnings, msgs...)
}

// stage times fn and converts its error into a StageError.
func (r *run) stage(name string, fn func() error) error {
	begin := time.Now()
	err := fn()
	elapsed := time.Since(begin)
	r.timings[name] = float64(elapsed.Microseconds()) / 1000
	r.pipeline.metrics.ObserveStage(name, elapsed.Seconds())
	if err != nil {
		if se, ok := err.(*rdapnorm.StageError); ok {
			return se
		}
		return &rdapnorm.StageError{Stage: name, Err: err}
	}
	return nil
}
