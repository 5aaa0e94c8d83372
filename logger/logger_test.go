package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newJSONLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&Config{Level: level, Format: FormatJSON}, "annotpipe", buf)
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected a log line")
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return m
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "invalid-level")
	l.Info("still logs at info")
	if !strings.Contains(buf.String(), "still logs at info") {
		t.Errorf("expected info output, got %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "warn")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn output, got %q", buf.String())
	}
}

func TestWithComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "debug").WithComponent("pipeline")
	l.Info("job submitted", Fields(FieldJobID, "abc", FieldOutstanding, 3))

	m := decodeLine(t, &buf)
	if m[FieldComponent] != "pipeline" {
		t.Errorf("expected component=pipeline, got %v", m[FieldComponent])
	}
	if m[FieldJobID] != "abc" {
		t.Errorf("expected job_id=abc, got %v", m[FieldJobID])
	}
	if m["service"] != "annotpipe" {
		t.Errorf("expected service field, got %v", m["service"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "info").WithError(errors.New("boom"))
	l.Error("failed")
	m := decodeLine(t, &buf)
	if m["error"] != "boom" {
		t.Errorf("expected error=boom, got %v", m["error"])
	}
}

func TestNop(t *testing.T) {
	Nop().Error("nothing happens")
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "skipped", "dangling")
	if len(m) != 2 {
		t.Fatalf("expected 2 fields, got %v", m)
	}
	if m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected fields: %v", m)
	}
}

func TestErrorAndDurationFields(t *testing.T) {
	ef := ErrorFields("decode", errors.New("bad line"))
	if ef[FieldOperation] != "decode" || ef[FieldError] != "bad line" {
		t.Errorf("unexpected error fields: %v", ef)
	}
	df := DurationFields("parse", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", df[FieldDuration])
	}
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != FormatAuto || cfg.Output != "stdout" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	cfg.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid format")
	}
	cfg.Format = FormatJSON
	cfg.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestUseConsole(t *testing.T) {
	var buf bytes.Buffer
	if useConsole(FormatAuto, &buf) {
		t.Error("auto format should not pick console for a non-file writer")
	}
	if !useConsole(FormatConsole, &buf) {
		t.Error("console format should always use console output")
	}
	if useConsole(FormatJSON, &buf) {
		t.Error("json format should never use console output")
	}
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "debug", Format: FormatConsole, NoColor: true}, "annotpipe", &buf)
	l.Warn("queue full", Fields(FieldOutstanding, 8))

	out := buf.String()
	for _, want := range []string{"[ANN][WRN]", "queue full", "outstanding:8"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestGlobalLogger(t *testing.T) {
	if GetGlobalLogger() == nil {
		t.Fatal("expected a default global logger")
	}
	Init(&Config{Level: "error", Format: FormatJSON, Output: "stderr", ServiceName: "annotpipe"})
	if got := GetGlobalLogger().service; got != "annotpipe" {
		t.Fatalf("expected Init to replace the global logger, got service %q", got)
	}
}
