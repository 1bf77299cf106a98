package utils

import (
	"context"
	"errors"
	"io"
	"testing"
)

func quietLogger() *Logger { return NewLoggerTo(io.Discard, io.Discard, LevelError) }

func TestRetrySucceedsAfterFailures(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, Logger: quietLogger()}
	calls := 0

	err := r.Do(context.Background(), "download", func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestRetryWrapsLastError(t *testing.T) {
	sentinel := errors.New("status 503")
	r := &RetryConfig{MaxAttempts: 2, Logger: quietLogger()}

	err := r.Do(context.Background(), "download", func() error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Errorf("Do error = %v; want wrapped %v", err, sentinel)
	}
}

func TestStageErrorIsFatal(t *testing.T) {
	base := errors.New("no qualifying table")
	err := Fatal("ingest", base)

	if !IsFatal(err) {
		t.Error("Fatal error should report IsFatal")
	}
	if !errors.Is(err, base) {
		t.Error("StageError should unwrap to its cause")
	}
	if IsFatal(base) {
		t.Error("plain error should not be fatal")
	}
	if Fatal("ingest", nil) != nil {
		t.Error("Fatal(nil) should be nil")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want Level
	}{
		{"debug", LevelDebug},
		{"WARN", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.raw); got != tt.want {
			t.Errorf("ParseLevel(%q) = %d; want %d", tt.raw, got, tt.want)
		}
	}
}
