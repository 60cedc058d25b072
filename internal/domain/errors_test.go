package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	tests := map[string]struct {
		err  error
		kind string
	}{
		"language mismatch": {
			err:  &LanguageMismatchError{Detected: "en", Expected: "ru"},
			kind: KindLanguageMismatch,
		},
		"reranker unavailable": {
			err:  &RerankerUnavailableError{Cause: errors.New("model load failed")},
			kind: KindRerankerUnavailable,
		},
		"retrieval backend": {
			err:  &RetrievalBackendError{Branch: BranchVector, Cause: errors.New("db down")},
			kind: KindRetrievalBackend,
		},
		"timeout": {
			err:  context.DeadlineExceeded,
			kind: KindTimeout,
		},
		"cancelled": {
			err:  context.Canceled,
			kind: KindCancelled,
		},
		"cancellation wrapped by a stage error stays cancelled": {
			err:  &RetrievalBackendError{Branch: BranchKeyword, Cause: context.Canceled},
			kind: KindCancelled,
		},
		"deadline wrapped by reranker error stays timeout": {
			err:  &RerankerUnavailableError{Cause: context.DeadlineExceeded},
			kind: KindTimeout,
		},
		"unknown": {
			err:  errors.New("boom"),
			kind: "internal",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.kind, ErrorKind(tc.err))
		})
	}
}

func TestLanguageMismatchHint(t *testing.T) {
	ru := &LanguageMismatchError{Detected: "en", Expected: "ru"}
	assert.Contains(t, ru.Hint(), "русский")

	en := &LanguageMismatchError{Detected: "ru", Expected: "en"}
	assert.Contains(t, en.Hint(), "translate")
}
