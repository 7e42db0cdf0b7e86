package faults

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsCategory(t *testing.T) {
	t.Parallel()

	err := NewTypedError(ValidationError, "invalid payload", nil)
	if !IsCategory(err, ValidationError) {
		t.Fatalf("expected validation category match")
	}
	if IsCategory(err, NotFoundError) {
		t.Fatalf("expected not-found category mismatch")
	}

	wrapped := fmt.Errorf("listing kind: %w", err)
	if !IsCategory(wrapped, ValidationError) {
		t.Fatalf("expected category match through fmt wrapping")
	}

	joined := errors.Join(err, errors.New("other"))
	if !IsCategory(joined, ValidationError) {
		t.Fatalf("expected category match through errors.Join")
	}

	if IsCategory(errors.New("plain"), ValidationError) {
		t.Fatalf("plain error must not match typed category")
	}
}

func TestCategoryOf(t *testing.T) {
	t.Parallel()

	if got := CategoryOf(nil); got != "" {
		t.Fatalf("expected empty category for nil error, got %q", got)
	}
	if got := CategoryOf(errors.New("plain")); got != InternalError {
		t.Fatalf("expected internal category for untyped error, got %q", got)
	}
	if got := CategoryOf(NewTypedError(NotImplementedError, "delete unsupported", nil)); got != NotImplementedError {
		t.Fatalf("expected not-implemented category, got %q", got)
	}
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	if !Retryable(NewTypedError(TransportError, "connection reset", nil)) {
		t.Fatalf("transport errors must be retryable")
	}
	for _, category := range []ErrorCategory{ValidationError, AuthError, ConflictError, NotImplementedError} {
		if Retryable(NewTypedError(category, "", nil)) {
			t.Fatalf("%s must not be retryable", category)
		}
	}
}

func TestTypedErrorMessage(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: refused")
	err := NewTypedError(TransportError, "remote request failed", cause)
	if err.Error() != "remote request failed: dial tcp: refused" {
		t.Fatalf("unexpected error text: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to unwrap")
	}
}
