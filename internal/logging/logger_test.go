package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerHeaderAndFields(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger = logger.With(String(FieldComponent, "scheduler"))
	logger.Info("upload started",
		String(FieldItemID, "0f8fad5b-d9cb-469f-a165-70867728950e"),
		String(FieldFileName, "photo.jpg"),
		Int("size_bytes", 2048),
	)

	output := buf.String()
	if !strings.Contains(output, "[scheduler]") {
		t.Fatalf("expected component in header, got %q", output)
	}
	if !strings.Contains(output, "photo.jpg (0f8fad5b)") {
		t.Fatalf("expected subject with short id, got %q", output)
	}
	if !strings.Contains(output, "- size_bytes: 2048") {
		t.Fatalf("expected attribute line, got %q", output)
	}
	if strings.Contains(output, "- component:") {
		t.Fatalf("component should be lifted out of the field list, got %q", output)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info record should be suppressed at warn level, got %q", buf.String())
	}
	logger.Warn("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Fatalf("warn record missing, got %q", buf.String())
	}
}

func TestConsoleHandlerDedupesRepeatedKeys(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar)).With(String("attempt", "1"))

	logger.Info("retrying", String("attempt", "2"))
	output := buf.String()
	if strings.Count(output, "- attempt:") != 1 {
		t.Fatalf("expected one attempt field, got %q", output)
	}
	if !strings.Contains(output, "- attempt: 2") {
		t.Fatalf("later value should win, got %q", output)
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if got := parseLevel(""); got != slog.LevelInfo {
		t.Fatalf("parseLevel(\"\") = %v, want info", got)
	}
	if got := parseLevel("DEBUG"); got != slog.LevelDebug {
		t.Fatalf("parseLevel(DEBUG) = %v, want debug", got)
	}
}
