package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

type lines struct {
	got []string
}

func (l *lines) WriteLineString(s string) { l.got = append(l.got, s) }
func (l *lines) WriteLineBytes(b []byte)  { l.got = append(l.got, string(b)) }

func TestNewLoggerWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelInfo, "text", &buf)

	logger.Info("task switched", "from", "idle")

	output := buf.String()
	if !strings.Contains(output, "task switched") {
		t.Errorf("expected 'task switched' in output, got: %s", output)
	}
	if !strings.Contains(output, "from=idle") {
		t.Errorf("expected 'from=idle' in output, got: %s", output)
	}
}

func TestNewLoggerWithWriter_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelInfo, "JSON", &buf)

	logger.Info("task switched", "slot", 2)

	output := buf.String()
	if !strings.Contains(output, `"msg":"task switched"`) {
		t.Errorf("expected JSON msg field in output, got: %s", output)
	}
	if !strings.Contains(output, `"slot":2`) {
		t.Errorf("expected JSON slot field in output, got: %s", output)
	}
}

func TestNewLoggerWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelWarn, "text", &buf)

	logger.Debug("activated")
	logger.Warn("deadline missed")

	output := buf.String()
	if strings.Contains(output, "activated") {
		t.Errorf("DEBUG message should be filtered at WARN level, got: %s", output)
	}
	if !strings.Contains(output, "deadline missed") {
		t.Errorf("WARN message should appear at WARN level, got: %s", output)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLineWriterSplitsLines(t *testing.T) {
	out := &lines{}
	w := NewLineWriter(out)

	w.Write([]byte("one\ntw"))
	if len(out.got) != 1 || out.got[0] != "one" {
		t.Fatalf("lines=%q want [one]", out.got)
	}
	w.Write([]byte("o\nthree\n"))
	want := []string{"one", "two", "three"}
	if strings.Join(out.got, ",") != strings.Join(want, ",") {
		t.Fatalf("lines=%q want %q", out.got, want)
	}
}

func TestNewBoardLogger(t *testing.T) {
	out := &lines{}
	logger := NewBoardLogger(out, slog.LevelDebug, "text")
	logger.Debug("tick", "n", 3)
	logger.Info("boot")

	if len(out.got) != 2 {
		t.Fatalf("lines=%q want 2", out.got)
	}
	if !strings.Contains(out.got[0], "n=3") || !strings.Contains(out.got[1], "msg=boot") {
		t.Fatalf("lines=%q", out.got)
	}
}
