package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestInitAndGet(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
	Get().Info(context.Background(), "test message", String("k", "v"))
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithFormat(FormatJSON), WithWriter(&buf), WithSource(false)); err != nil {
		t.Fatalf("init: %v", err)
	}

	Named("replay").Info(context.Background(), "replayed",
		Int("sessions", 3),
		Bool("cached", false),
		Duration("took", 2*time.Millisecond),
		Error(errors.New("boom")),
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "replayed" {
		t.Errorf("msg = %v", rec["msg"])
	}
	if rec["component"] != "replay" {
		t.Errorf("component = %v", rec["component"])
	}
	if rec["sessions"] != float64(3) {
		t.Errorf("sessions = %v", rec["sessions"])
	}
	if _, ok := rec["source"]; ok {
		t.Error("source should be omitted")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf), WithLevel("warn")); err != nil {
		t.Fatalf("init: %v", err)
	}
	ctx := context.Background()

	Get().Info(ctx, "hidden")
	Get().Warn(ctx, "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line leaked at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "source=") {
		t.Errorf("warn line missing or without source: %q", out)
	}

	if err := SetLevelString("debug"); err != nil {
		t.Fatal(err)
	}
	Get().Debug(ctx, "now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("debug line missing after SetLevelString")
	}
}

func TestInvalidOptions(t *testing.T) {
	if err := Init(WithFormat("xml")); err == nil {
		t.Error("expected error for unknown format")
	}
	if err := SetLevelString("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
	// restore a usable global for other tests
	if err := Init(); err != nil {
		t.Fatal(err)
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error(context.Background(), "discarded")
	if l.Named("x") == nil {
		t.Fatal("named nop logger is nil")
	}
}
