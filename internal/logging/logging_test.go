package logging

import (
	"context"
	"testing"
)

func TestNew_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		if logger := New(level, "text"); logger == nil {
			t.Errorf("New(%q) returned nil", level)
		}
	}
}

func TestNew_Formats(t *testing.T) {
	if logger := New("info", "json"); logger == nil {
		t.Error("New with json format returned nil")
	}
	if logger := New("info", "text"); logger == nil {
		t.Error("New with text format returned nil")
	}
}

func TestRequestID_RoundTrip(t *testing.T) {
	ctx := context.Background()

	if got := RequestID(ctx); got != "" {
		t.Errorf("Expected empty request ID on fresh context, got %q", got)
	}

	ctx = WithRequestID(ctx, "req-123")
	if got := RequestID(ctx); got != "req-123" {
		t.Errorf("Expected req-123, got %q", got)
	}
}

func TestFromContext_Default(t *testing.T) {
	if logger := FromContext(context.Background()); logger == nil {
		t.Error("FromContext on fresh context returned nil")
	}
}

func TestL_WithRequestID(t *testing.T) {
	logger := New("info", "text")
	ctx := WithLogger(context.Background(), logger)
	ctx = WithRequestID(ctx, "req-456")

	if got := L(ctx); got == nil {
		t.Error("L returned nil")
	}
}
