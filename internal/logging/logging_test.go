package logging_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"twinline/internal/logging"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"info", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{" trace ", logging.LevelTrace},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := logging.ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLoggerFiltersAndLabelsTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger("info", &buf)
	logger.Debug("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug record written at info level: %q", buf.String())
	}

	buf.Reset()
	logger = logging.NewLogger("trace", &buf)
	logger.Log(context.Background(), logging.LevelTrace, "payload")
	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Fatalf("trace level not labelled: %q", buf.String())
	}
}

func TestDecisionLoggerInfoLevelIsNil(t *testing.T) {
	dir := t.TempDir()
	dl := logging.NewDecisionLogger(dir, "info")
	if dl != nil {
		t.Fatalf("expected nil decision logger at info level")
	}
	dl.Log("simulate", map[string]any{"horizon": 12})
	if err := dl.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, logging.DecisionFile)); !os.IsNotExist(err) {
		t.Fatalf("decision file should not exist: %v", err)
	}
}

func TestDecisionLoggerWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	dl := logging.NewDecisionLogger(dir, "debug")
	if dl == nil {
		t.Fatal("expected decision logger at debug level")
	}
	dl.Now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	fields := map[string]any{"horizon": 12}
	dl.Log("simulate", fields)
	dl.Log("optimize", map[string]any{"goal": "revenue_growth"})
	if err := dl.Close(); err != nil {
		t.Fatal(err)
	}
	dl.Log("after-close", nil)
	if len(fields) != 1 {
		t.Fatalf("caller map mutated: %v", fields)
	}

	f, err := os.Open(filepath.Join(dir, logging.DecisionFile))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var kinds []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			t.Fatalf("invalid line %q: %v", sc.Text(), err)
		}
		if entry["time"] != "2025-01-01T00:00:00Z" {
			t.Fatalf("time field: %v", entry["time"])
		}
		kinds = append(kinds, entry["decision"].(string))
	}
	if strings.Join(kinds, ",") != "simulate,optimize" {
		t.Fatalf("decisions: %v", kinds)
	}
}
