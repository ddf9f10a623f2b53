package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	regerrors "github.com/YuminosukeSato/regpipe/pkg/errors"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestZerologProvider_Fields(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProviderWithWriter(&buf, LevelDebug)

	logger := provider.GetLoggerWithName("pipeline").With(RunIDKey, "abc")
	logger.Info("stage finished", StageKey, StageSplit, RowsKey, 200)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	got := lines[0]
	if got["message"] != "stage finished" {
		t.Errorf("message = %v", got["message"])
	}
	if got[ComponentKey] != "pipeline" || got[RunIDKey] != "abc" || got[StageKey] != StageSplit {
		t.Errorf("missing context fields: %v", got)
	}
	if got[RowsKey] != 200.0 {
		t.Errorf("rows = %v, want 200", got[RowsKey])
	}
}

func TestZerologProvider_LeadingError(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProviderWithWriter(&buf, LevelInfo)

	err := regerrors.NewConfigError("Transform", "strategy", "unsupported")
	provider.GetLogger().Error("stage failed", err, StageKey, StageTransform)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if !strings.Contains(lines[0][ErrAttrKey].(string), "configuration error") {
		t.Errorf("error attribute = %v", lines[0][ErrAttrKey])
	}
	if lines[0][StageKey] != StageTransform {
		t.Errorf("stage = %v", lines[0][StageKey])
	}
	if lines[0][ErrorTypeKey] != "ConfigError" {
		t.Errorf("error type = %v, want ConfigError", lines[0][ErrorTypeKey])
	}
}

func TestZerologProvider_Levels(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProviderWithWriter(&buf, LevelWarn)
	logger := provider.GetLogger()
	ctx := context.Background()

	if logger.Enabled(ctx, LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !logger.Enabled(ctx, LevelError) {
		t.Error("error should be enabled at warn level")
	}

	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output: %s", buf.String())
	}

	provider.SetLevel(LevelDebug)
	provider.GetLogger().Debug("debug after SetLevel")
	if !strings.Contains(buf.String(), "debug after SetLevel") {
		t.Error("SetLevel should apply to loggers created afterwards")
	}
}

func TestZerologProvider_RouteWarnings(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProviderWithWriter(&buf, LevelInfo)
	provider.RouteWarnings()
	defer regerrors.SetZerologWarnFunc(nil)

	regerrors.Warn(regerrors.NewNoOpWarning("FillStrategy.Handle", "interpolate"))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0]["level"] != "warn" || lines[0][ComponentKey] != "warnings" {
		t.Errorf("unexpected warning record: %v", lines[0])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestToLogLevel_PanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	ToLogLevel("loud")
}
