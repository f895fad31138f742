package qa

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure Ask can surface. Transient provider
// errors are retried inside the engine and never reach callers directly;
// what callers see is one of these terminal kinds.
type ErrorKind string

const (
	KindInvalidRequest   ErrorKind = "invalid_request"
	KindUnknownModel     ErrorKind = "unknown_model"
	KindIndexUnavailable ErrorKind = "index_unavailable"
	KindEmbeddingFailed  ErrorKind = "embedding_failed"
	KindPromptTooLarge   ErrorKind = "prompt_too_large"
	KindGenerationFailed ErrorKind = "generation_failed"
)

// Error is a kind-tagged failure. The transport layer maps Kind to a
// user-visible status; Err keeps the cause chain for logs.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// errKind wraps err under the given kind.
func errKind(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the ErrorKind from err, if it carries one.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
