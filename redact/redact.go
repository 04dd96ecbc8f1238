// Package redact applies a redaction policy to detected PII fields and proves
// the result clean by re-running detection over the output.
//
// Full-level redaction deletes the key entirely rather than nulling it:
// a present-but-null field still tells an observer which fields existed, and
// that schema shape is itself information. Partial-level redaction writes a
// fixed sentinel. Either way, the post-condition scan is the system's core
// compliance guarantee — residual PII is a hard failure, never a warning.
package redact

import (
	"strconv"

	"github.com/rs/zerolog"

	"github.com/registrylabs/rdapnorm"
	"github.com/registrylabs/rdapnorm/pii"
)

// Level selects how a matched field is transformed.
type Level string

// Redaction levels.
const (
	// LevelFull removes the key entirely.
	LevelFull Level = "full"
	// LevelPartial replaces the value with a fixed sentinel.
	LevelPartial Level = "partial"
)

// Policy maps PII classes to redaction levels. Classes without an entry
// default to full — the stricter discipline.
type Policy struct {
	Levels map[rdapnorm.PIIType]Level
}

// DefaultPolicy redacts every class at full level.
func DefaultPolicy() Policy { return Policy{} }

// LevelFor returns the effective level for a PII class.
func (p Policy) LevelFor(t rdapnorm.PIIType) Level {
	if l, ok := p.Levels[t]; ok && l == LevelPartial {
		return LevelPartial
	}
	return LevelFull
}

// Eligibility decides whether a detected field is in redaction scope. The
// pipeline derives it from each entity's role classification.
type Eligibility func(path []string, t rdapnorm.PIIType) bool

// Engine applies a policy and verifies its own output.
type Engine struct {
	detector *pii.Detector
	policy   Policy
	log      zerolog.Logger
}

// New creates an Engine. The detector must be the same one that produced the
// field list, or the post-condition scan proves the wrong property.
func New(detector *pii.Detector, policy Policy, log zerolog.Logger) *Engine {
	return &Engine{detector: detector, policy: policy, log: log}
}

// Redact returns a copy of doc with every eligible field transformed per
// policy, then re-detects over the result. Any eligible match remaining in
// the output aborts with *rdapnorm.PIIRedactionFailure; partially redacted
// data is never returned.
func (e *Engine) Redact(doc map[string]any, fields []rdapnorm.PIIField, eligible Eligibility) (map[string]any, error) {
	targets := make(map[string]rdapnorm.PIIType, len(fields))
	for _, f := range fields {
		if eligible == nil || eligible(f.Path, f.Type) {
			targets[rdapnorm.JoinPath(f.Path)] = f.Type
		}
	}

	out, _ := e.transform(doc, nil, targets)
	redacted, _ := out.(map[string]any)
	if redacted == nil {
		redacted = map[string]any{}
	}

	// Post-condition scan: re-apply the detector to the redacted output.
	for _, f := range e.detector.Detect(redacted) {
		if eligible != nil && !eligible(f.Path, f.Type) {
			continue
		}
		e.log.Error().
			Str("path", rdapnorm.JoinPath(f.Path)).
			Str("type", string(f.Type)).
			Msg("redaction post-condition scan found residual PII")
		return nil, &rdapnorm.PIIRedactionFailure{
			Path: rdapnorm.JoinPath(f.Path),
			Type: f.Type,
		}
	}

	e.log.Debug().Int("redacted_fields", len(targets)).Msg("redaction applied")
	return redacted, nil
}

// transform rebuilds the document, dropping or replacing targeted leaves.
// Rebuilding (instead of in-place deletion) sidesteps array index shifts:
// elements are filtered while the new slice is assembled. The bool result is
// false when the node should be dropped from its parent.
func (e *Engine) transform(node any, path []string, targets map[string]rdapnorm.PIIType) (any, bool) {
	joined := rdapnorm.JoinPath(path)
	if t, hit := targets[joined]; hit {
		if e.policy.LevelFor(t) == LevelPartial {
			return sentinelFor(t), true
		}
		return nil, false
	}

	switch val := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			child, keep := e.transform(v, childPath(path, k), targets)
			if keep && !isHusk(child) {
				out[k] = child
			}
		}
		return out, true
	case []any:
		out := make([]any, 0, len(val))
		for i, v := range val {
			child, keep := e.transform(v, childPath(path, strconv.Itoa(i)), targets)
			if keep && !isHusk(child) {
				out = append(out, child)
			}
		}
		return out, true
	default:
		return node, true
	}
}

// isHusk reports whether redaction hollowed a container out: an empty map or
// slice, or a contact method reduced to nothing but its "type" parameter
// ({"type":"work"} after its value was deleted) carries no data and would
// only signal that something was removed.
func isHusk(v any) bool {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 0 {
			return true
		}
		if len(val) == 1 {
			_, onlyType := val["type"]
			return onlyType
		}
	case []any:
		return len(val) == 0
	}
	return false
}

func sentinelFor(t rdapnorm.PIIType) string {
	if t == rdapnorm.PIIEmail {
		return rdapnorm.SentinelEmail
	}
	return rdapnorm.SentinelText
}

func childPath(path []string, seg string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = seg
	return out
}

