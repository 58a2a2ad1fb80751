package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"uppercase INFO", "INFO", slog.LevelInfo},
		{"uppercase TRACE", "TRACE", LevelTrace},
		{"unknown defaults to info", "bogus", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("debug", &buf)
	if logger == nil {
		t.Fatal("NewLogger returned nil")
	}

	logger.Debug("chain started", "chain", 0)
	if !bytes.Contains(buf.Bytes(), []byte("chain started")) {
		t.Errorf("debug output missing message, got %q", buf.String())
	}
}

func TestNewLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", &buf)

	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("info-level logger emitted debug output: %q", buf.String())
	}
}

func TestNewTraceLoggerInfoLevelIsNil(t *testing.T) {
	dir := t.TempDir()
	tl := NewTraceLogger(dir, "info")
	if tl != nil {
		t.Fatal("NewTraceLogger at info level should return nil")
	}

	// Nil receiver must be safe.
	tl.Log(Event{Kind: "noop"})
	tl.Close()

	if _, err := os.Stat(filepath.Join(dir, "trace.jsonl")); !os.IsNotExist(err) {
		t.Error("trace.jsonl should not be created at info level")
	}
}

func TestTraceLoggerWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	tl := NewTraceLogger(dir, "debug")
	if tl == nil {
		t.Fatal("NewTraceLogger returned nil at debug level")
	}

	tl.Log(Event{Kind: "adapt", Chain: 1, Iter: 50, Accept: 0.31, Scale: 2.4})
	tl.Log(Event{Kind: "chain_done", Chain: 1, Accept: 0.27})
	tl.Close()

	f, err := os.Open(filepath.Join(dir, "trace.jsonl"))
	if err != nil {
		t.Fatalf("open trace.jsonl: %v", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", len(events)+1, err)
		}
		if ev.Time == "" {
			t.Errorf("line %d missing time stamp", len(events)+1)
		}
		events = append(events, ev)
	}
	if len(events) != 2 {
		t.Fatalf("trace.jsonl has %d lines, want 2", len(events))
	}
	if events[0].Kind != "adapt" || events[0].Iter != 50 || events[0].Scale != 2.4 {
		t.Errorf("adapt event round-trip = %+v", events[0])
	}
	if events[1].Kind != "chain_done" || events[1].Accept != 0.27 {
		t.Errorf("completion event round-trip = %+v", events[1])
	}
}
