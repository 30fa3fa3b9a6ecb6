package util

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrInvalidIntent, "InvalidIntent"},
		{ErrUnsatisfiable, "Unsatisfiable"},
		{ErrAddressSpaceExhausted, "AddressSpaceExhausted"},
		{ErrStageTimeout, "StageTimeout"},
		{ErrPersistence, "PersistenceError"},
		{ErrCancelled, "Cancelled"},
		{ErrNotFound, "NotFound"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestErrorKind_Wrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", ErrUnsatisfiable)
	if got := ErrorKind(err); got != "Unsatisfiable" {
		t.Errorf("ErrorKind(wrapped) = %q, want Unsatisfiable", got)
	}
}

func TestIntentError_Unwrap(t *testing.T) {
	err := NewIntentError("site_count", 1000, "out of range", "lower site_count")
	if !errors.Is(err, ErrInvalidIntent) {
		t.Error("IntentError should unwrap to ErrInvalidIntent")
	}
	msg := err.Error()
	if msg == "" || !strings.Contains(msg, "site_count") || !strings.Contains(msg, "lower site_count") {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestSynthesisError_Unwrap(t *testing.T) {
	err := NewSynthesisError("hub-spoke", "budget exhausted", "lower redundancy")
	if !errors.Is(err, ErrUnsatisfiable) {
		t.Error("SynthesisError should unwrap to ErrUnsatisfiable")
	}
}

func TestStageError(t *testing.T) {
	err := NewStageError("synthesize", ErrUnsatisfiable)
	if !errors.Is(err, ErrUnsatisfiable) {
		t.Error("StageError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "synthesize") || !strings.Contains(err.Error(), "Unsatisfiable") {
		t.Errorf("message should name stage and kind: %q", err.Error())
	}
}

func TestValidationBuilder(t *testing.T) {
	v := &ValidationBuilder{}
	if v.HasErrors() {
		t.Error("empty builder should have no errors")
	}
	if err := v.Build(); err != nil {
		t.Errorf("empty builder Build() = %v, want nil", err)
	}

	v.Add(true, "not added").Add(false, "added").AddErrorf("formatted %d", 7)
	if !v.HasErrors() {
		t.Error("builder should have errors")
	}
	err := v.Build()
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrValidationFailed) {
		t.Error("validation error should unwrap to ErrValidationFailed")
	}
	ve := err.(*ValidationError)
	if len(ve.Errors) != 2 {
		t.Errorf("error count = %d, want 2", len(ve.Errors))
	}
}

