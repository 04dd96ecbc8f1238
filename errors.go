package rdapnorm

import "fmt"

// StageError identifies the pipeline stage that failed and the offending
// path. Stage-local recoverable problems become diagnostics warnings instead;
// a StageError always means the run was aborted.
type StageError struct {
	Stage string
	Path  string
	Err   error
}

func (e *StageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("stage %s: %s: %v", e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// SchemaViolation is a missing or malformed input field. Recoverable: the
// pipeline records a warning and continues unless the whole input is
// unusable.
type SchemaViolation struct {
	Path   string
	Detail string
}

func (e *SchemaViolation) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("schema violation at %s: %s", e.Path, e.Detail)
	}
	return "schema violation: " + e.Detail
}

// RegistryFormatError is an unrecognized registry shape. Recoverable: the
// field standardizer falls back to the default mapping table.
type RegistryFormatError struct {
	Registry string
	Detail   string
}

func (e *RegistryFormatError) Error() string {
	return fmt.Sprintf("registry %q: %s", e.Registry, e.Detail)
}

// PIIRedactionFailure means the redaction post-condition scan found residual
// PII in supposedly redacted output. Fatal: partially redacted data is never
// returned. This is the compliance boundary of the whole module.
type PIIRedactionFailure struct {
	Path string
	Type PIIType
}

func (e *PIIRedactionFailure) Error() string {
	return fmt.Sprintf("redaction post-condition violated: residual %s field at %s", e.Type, e.Path)
}
