package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf_WrappedError(t *testing.T) {
	base := Conflict("SLOT_TAKEN", "slot already booked").WithDetail("resourceId", "r1")
	wrapped := fmt.Errorf("create reservation: %w", base)

	if KindOf(wrapped) != KindConflict {
		t.Fatalf("expected conflict kind, got %v", KindOf(wrapped))
	}
	if !IsCode(wrapped, "SLOT_TAKEN") {
		t.Fatalf("expected code SLOT_TAKEN")
	}
	e, ok := As(wrapped)
	if !ok || e.Details["resourceId"] != "r1" {
		t.Fatalf("details lost: %+v", e)
	}
	if base.Details == nil || len(Conflict("X", "y").Details) != 0 {
		t.Fatalf("WithDetail must not mutate other errors")
	}
}

func TestKindOf_PlainError(t *testing.T) {
	if KindOf(errors.New("boom")) != KindInternal {
		t.Fatalf("plain errors are internal")
	}
}

func TestGateway_Unwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Gateway("PROVIDER_UNAVAILABLE", "provider call failed", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause in chain")
	}
	if err.Kind.String() != "gateway" {
		t.Fatalf("unexpected kind string %q", err.Kind.String())
	}
}
