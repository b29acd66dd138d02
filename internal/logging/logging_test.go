package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug")
	ctx := NewContext(context.Background(), l)
	FromContext(ctx).Debug("hello", "plot", 1)
	if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "plot=1") {
		t.Fatalf("unexpected log output: %q", buf.String())
	}
}

func TestFromContextDefault(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Fatal("expected slog.Default for bare context")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn")
	l.Info("dropped")
	l.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Fatalf("level filter not applied: %q", buf.String())
	}
	if ParseLevel("bogus") != slog.LevelInfo {
		t.Error("unknown level should map to info")
	}
}
