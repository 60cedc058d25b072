package domain

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds exposed on the search API surface.
const (
	KindLanguageMismatch    = "language_mismatch"
	KindRerankerUnavailable = "reranker_unavailable"
	KindRetrievalBackend    = "retrieval_backend"
	KindCancelled           = "cancelled"
	KindTimeout             = "timeout"
	KindInvalidRequest      = "invalid_request"
)

// LanguageMismatchError is returned when the query's dominant language
// conflicts with the corpus's expected language. It is recovered at the edge
// by surfacing a translated hint to the user, never fatal for the service.
type LanguageMismatchError struct {
	Detected string
	Expected string
}

func (e *LanguageMismatchError) Error() string {
	return fmt.Sprintf("query language %q does not match corpus language %q", e.Detected, e.Expected)
}

// Hint returns a user-facing correction hint in the corpus language.
func (e *LanguageMismatchError) Hint() string {
	if e.Expected == "ru" {
		return "Пожалуйста, переведите запрос на русский язык. База знаний содержит только русские документы."
	}
	return fmt.Sprintf("Please translate your query to %q. The knowledge base contains only %q documents.", e.Expected, e.Expected)
}

// RerankerUnavailableError is returned when the Stage-2 model failed to load
// or errored mid-inference. Callers fall back to the Stage-1 fused order.
type RerankerUnavailableError struct {
	Cause error
}

func (e *RerankerUnavailableError) Error() string {
	return fmt.Sprintf("reranker unavailable: %v", e.Cause)
}

func (e *RerankerUnavailableError) Unwrap() error { return e.Cause }

// RetrievalBackendError is returned when an index backend is unreachable or
// errors. Fatal for the current query; no partial results are fabricated.
type RetrievalBackendError struct {
	Branch Branch
	Cause  error
}

func (e *RetrievalBackendError) Error() string {
	return fmt.Sprintf("%s retrieval backend failed: %v", e.Branch, e.Cause)
}

func (e *RetrievalBackendError) Unwrap() error { return e.Cause }

// ErrorKind maps an error to its API error kind.
func ErrorKind(err error) string {
	var lm *LanguageMismatchError
	var ru *RerankerUnavailableError
	var rb *RetrievalBackendError
	switch {
	// Context errors win even when wrapped by a typed error: a cancelled
	// query is cancelled regardless of which stage noticed first.
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.As(err, &lm):
		return KindLanguageMismatch
	case errors.As(err, &ru):
		return KindRerankerUnavailable
	case errors.As(err, &rb):
		return KindRetrievalBackend
	}
	return "internal"
}
