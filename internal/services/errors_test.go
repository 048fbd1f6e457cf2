package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"quill/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "transcribe", "upload", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcribe", "upload", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransientMarker(t *testing.T) {
	err := services.Wrap(nil, "drive", "list", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected nil marker to default to transient, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"source unavailable", services.Wrap(services.ErrSourceUnavailable, "drive", "list", "folder", errors.New("dial tcp")), true},
		{"configuration", services.Wrap(services.ErrConfiguration, "config", "load", "missing key", nil), true},
		{"transient", services.Wrap(services.ErrTransient, "transcribe", "call", "", nil), false},
		{"permanent", services.Wrap(services.ErrPermanent, "transcribe", "call", "bad audio", nil), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		if got := services.IsFatal(tc.err); got != tc.want {
			t.Errorf("%s: IsFatal = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"tagged transient", services.Wrap(services.ErrTransient, "transcribe", "call", "", nil), true},
		{"tagged permanent", services.Wrap(services.ErrPermanent, "transcribe", "call", "unsupported format", nil), false},
		{"deadline", context.DeadlineExceeded, true},
		{"rate limit text", errors.New("server returned 429 Too Many Requests"), true},
		{"gateway text", errors.New("status 503 service unavailable"), true},
		{"plain failure", errors.New("malformed audio header"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		if got := services.IsTransient(tc.err); got != tc.want {
			t.Errorf("%s: IsTransient = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestPermanentWrappingTransientStaysPermanent(t *testing.T) {
	// A permanent classification must win even when the underlying message
	// contains tokens that normally look retryable.
	err := services.Wrap(services.ErrPermanent, "transcribe", "call", "timeout while decoding container", nil)
	if services.IsTransient(err) {
		t.Fatal("permanent error classified as transient")
	}
}
