package resolve

import (
	"errors"
	"fmt"
)

var (
	ErrEnvelope      = errors.New("envelope error")
	ErrDecode        = errors.New("decode error")
	ErrNoCandidates  = errors.New("no candidates")
	ErrTerminalEmpty = errors.New("terminal empty")
)

// EnvelopeError means the provider response carried no usable assistant text.
// It is fatal for the pipeline invocation.
type EnvelopeError struct {
	Reason string
	Err    error
}

func (e *EnvelopeError) Error() string {
	if e == nil {
		return "envelope error"
	}
	if e.Err != nil {
		return fmt.Sprintf("envelope error: %s: %v", e.Reason, e.Err)
	}
	return "envelope error: " + e.Reason
}

func (e *EnvelopeError) Unwrap() error { return e.Err }

func (e *EnvelopeError) Is(target error) bool { return target == ErrEnvelope }

type DecodeKind string

const (
	DecodeSyntax    DecodeKind = "syntax"
	DecodeStructure DecodeKind = "structure"
)

// DecodeError is recoverable: the orchestrator falls through to the text tiers.
type DecodeError struct {
	Kind DecodeKind
	Err  error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "decode error"
	}
	if e.Err != nil {
		return fmt.Sprintf("decode error (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("decode error (%s)", e.Kind)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// TerminalEmptyError reports that every tier was exhausted without a single
// validated segment. The Result returned alongside it holds the reject log.
type TerminalEmptyError struct {
	Attempts int
	Rejects  int
}

func (e *TerminalEmptyError) Error() string {
	if e == nil {
		return "terminal empty"
	}
	return fmt.Sprintf("terminal empty: no valid segments after %d attempt(s), %d rejected candidate(s)", e.Attempts, e.Rejects)
}

func (e *TerminalEmptyError) Is(target error) bool { return target == ErrTerminalEmpty }
