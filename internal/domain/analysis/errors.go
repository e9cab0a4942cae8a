package analysis

import (
	"errors"
	"fmt"
)

// ErrNoResult marks a run that exists but has not produced a result yet,
// either because it is still running or because it failed.
var ErrNoResult = errors.New("run has no result")

// Warning codes for recoverable conditions surfaced in the result
const (
	WarnMalformedArtifact    = "malformed_artifact"
	WarnUnrecognizedSeverity = "unrecognized_severity"
	WarnDuplicateFinding     = "duplicate_finding"
)

// Warning records a recoverable condition encountered during a run.
// Warnings never abort the pipeline; they travel with the result so a
// downstream renderer can show what was skipped or defaulted.
type Warning struct {
	Stage   string `json:"stage"` // load | extract | aggregate
	Code    string `json:"code"`
	Message string `json:"message"`
}

func warnf(stage, code, format string, args ...any) Warning {
	return Warning{Stage: stage, Code: code, Message: fmt.Sprintf(format, args...)}
}

// MalformedArtifactError marks an artifact that could not be parsed.
// The loader converts it into a warning and skips the artifact.
type MalformedArtifactError struct {
	Artifact string
	Err      error
}

func (e *MalformedArtifactError) Error() string {
	return fmt.Sprintf("malformed artifact %s: %v", e.Artifact, e.Err)
}

func (e *MalformedArtifactError) Unwrap() error { return e.Err }

// InvariantViolationError indicates a programming fault inside the pipeline,
// e.g. a correlation referencing a finding id that does not exist. Unlike the
// recoverable conditions above it always fails the run.
type InvariantViolationError struct {
	Invariant string
	Detail    string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation (%s): %s", e.Invariant, e.Detail)
}
