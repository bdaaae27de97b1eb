package store

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

// TestErrorMessage tests the formatting of the error string
func TestErrorMessage(t *testing.T) {
	cases := []struct {
		code RetCode
		want string
	}{
		{RetCSuccess, "Success"},
		{RetCNotFound, "NotFound"},
		{RetCTypeMismatch, "TypeMismatch"},
		{RetCCapabilityFailure, "CapabilityFailure"},
		{RetCIOFailure, "IOFailure"},
		{RetCInvalidOperation, "InvalidOperation"},
		{RetCode(999), "Unknown"},
	}

	for _, c := range cases {
		msg := NewError(c.code, "boom").Error()
		if !strings.Contains(msg, c.want) {
			t.Errorf("error for code %d = %q, should contain %q", c.code, msg, c.want)
		}
		if !strings.Contains(msg, "boom") {
			t.Errorf("error for code %d = %q, should contain the message", c.code, msg)
		}
	}
}

// TestCodeOf tests return code extraction from plain and wrapped errors
func TestCodeOf(t *testing.T) {
	if got := CodeOf(nil); got != RetCSuccess {
		t.Errorf("CodeOf(nil) = %v, want RetCSuccess", got)
	}

	base := NewError(RetCNotFound, "missing")
	if got := CodeOf(base); got != RetCNotFound {
		t.Errorf("CodeOf(base) = %v, want RetCNotFound", got)
	}

	// wrapped with github.com/pkg/errors (Cause chain)
	wrapped := errors.Wrap(base, "while reading")
	if got := CodeOf(wrapped); got != RetCNotFound {
		t.Errorf("CodeOf(pkg/errors wrap) = %v, want RetCNotFound", got)
	}

	// wrapped with the stdlib %w verb (Unwrap chain)
	stdWrapped := fmt.Errorf("outer: %w", NewError(RetCTypeMismatch, "wrong"))
	if got := CodeOf(stdWrapped); got != RetCTypeMismatch {
		t.Errorf("CodeOf(stdlib wrap) = %v, want RetCTypeMismatch", got)
	}

	// a foreign error maps to IOFailure
	if got := CodeOf(errors.New("disk on fire")); got != RetCIOFailure {
		t.Errorf("CodeOf(foreign) = %v, want RetCIOFailure", got)
	}
}
