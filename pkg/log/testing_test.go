package log

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestTestLogger_Levels(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", StageKey, StageIngest)
	testLogger.Warn("warning message", MethodKey, "interpolate")
	testLogger.Error("error message", fmt.Errorf("boom"), StageKey, StageTrain)

	if buffer.String() == "" {
		t.Fatal("Expected log output, got empty string")
	}

	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		if !testLogger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}

	if !testLogger.ContainsField("key1", "value1") {
		t.Error("Expected field key1=value1 not found")
	}
	// JSON unmarshaling converts numbers to float64
	if !testLogger.ContainsField("number", 42.0) {
		t.Error("Expected field number=42 not found")
	}
	if !testLogger.ContainsField(ErrAttrKey, "boom") {
		t.Error("leading error should be recorded under the error key")
	}
	if got := testLogger.CountLevel(LevelWarn); got != 1 {
		t.Errorf("CountLevel(Warn) = %d, want 1", got)
	}
}

func TestTestLogger_With(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	stageLogger := testLogger.With(RunIDKey, "run-1", StageKey, StageClean)
	stageLogger.Info("stage finished", RowsKey, 998)

	if !testLogger.ContainsField(RunIDKey, "run-1") {
		t.Error("run id context not found")
	}
	if !testLogger.ContainsField(StageKey, StageClean) {
		t.Error("stage context not found")
	}
	if !testLogger.ContainsField(RowsKey, 998.0) {
		t.Error("rows field not found")
	}
}

func TestTestLogger_Enabled(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)
	ctx := context.Background()

	if !testLogger.Enabled(ctx, LevelInfo) || !testLogger.Enabled(ctx, LevelError) {
		t.Error("Logger should be enabled for Info and above")
	}
	if testLogger.Enabled(ctx, LevelDebug) {
		t.Error("Logger should not be enabled for Debug level")
	}

	testLogger.Debug("this should not appear")
	testLogger.Info("this should appear")

	if testLogger.ContainsMessage("this should not appear") {
		t.Error("Debug message should not appear when level is Info")
	}
	if !testLogger.ContainsMessage("this should appear") {
		t.Error("Info message should appear when level is Info")
	}
}

func TestTestLoggerProvider(t *testing.T) {
	provider, testLogger := NewTestLoggerProvider(LevelWarn)

	provider.GetLoggerWithName("outlier").Info("dropped")
	provider.GetLoggerWithName("outlier").Warn("unknown method")

	if testLogger.ContainsMessage("dropped") {
		t.Error("info should be filtered at warn level")
	}
	if !testLogger.ContainsField(ComponentKey, "outlier") {
		t.Error("component name not attached")
	}

	provider.SetLevel(LevelDebug)
	provider.GetLogger().Debug("now visible")
	if !testLogger.ContainsMessage("now visible") {
		t.Error("SetLevel should lower the threshold")
	}
}

func TestTestLogger_Concurrent(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			l := testLogger.With("goroutine", id)
			for i := 0; i < 25; i++ {
				l.Info("tick", "i", i)
			}
		}(g)
	}
	wg.Wait()

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatalf("GetLogEntries: %v", err)
	}
	if len(entries) != 200 {
		t.Errorf("got %d entries, want 200", len(entries))
	}
}
