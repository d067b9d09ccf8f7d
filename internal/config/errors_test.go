package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := NewValidationError("repo", "missing 'repo' parameter")

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if vErr.Field != "repo" {
		t.Fatalf("Field = %q, want repo", vErr.Field)
	}
	if !strings.Contains(err.Error(), "missing 'repo' parameter") {
		t.Fatalf("error message = %q, want contains %q", err.Error(), "missing 'repo' parameter")
	}
}

func TestConflictError(t *testing.T) {
	t.Parallel()

	err := NewConflictError("--token", "--nickname")

	var cErr *ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("error type = %T, want *ConflictError", err)
	}
	if cErr.Left != "--token" || cErr.Right != "--nickname" {
		t.Fatalf("conflict = (%q,%q), want (%q,%q)", cErr.Left, cErr.Right, "--token", "--nickname")
	}
	if !strings.Contains(err.Error(), "--token") || !strings.Contains(err.Error(), "--nickname") {
		t.Fatalf("error message = %q, want options in message", err.Error())
	}
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	err := WrapError("load file", base)
	if err == nil {
		t.Fatal("WrapError returned nil")
	}
	if !errors.Is(err, base) {
		t.Fatalf("wrapped error does not contain base error: %v", err)
	}
	if !strings.Contains(err.Error(), "load file") {
		t.Fatalf("wrapped message = %q, want contains %q", err.Error(), "load file")
	}
}
