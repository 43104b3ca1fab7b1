package logger

import (
	"bytes"
	"strings"
	"testing"
)

func newTestLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(Config{Level: level, Output: &buf})
	return l, &buf
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newTestLogger(WARN)

	l.Debugf("debug %d", 1)
	l.Infof("info %d", 2)
	l.Warnf("warn %d", 3)
	l.Errorf("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("Expected DEBUG and INFO to be filtered, got %q", out)
	}
	if !strings.Contains(out, "[WARN] warn 3") {
		t.Errorf("Expected WARN line, got %q", out)
	}
	if !strings.Contains(out, "[ERROR] error 4") {
		t.Errorf("Expected ERROR line, got %q", out)
	}
}

func TestWithFields(t *testing.T) {
	l, buf := newTestLogger(DEBUG)

	child := l.With("song", "abc").With("score", 0.9)
	child.Infof("matched")
	l.Infof("parent")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[0], "matched song=abc score=0.9") {
		t.Errorf("Expected fields on child line, got %q", lines[0])
	}
	if strings.Contains(lines[1], "song=") {
		t.Errorf("Expected parent line without fields, got %q", lines[1])
	}
}

func TestWithFieldsSorted(t *testing.T) {
	l, buf := newTestLogger(DEBUG)

	l.WithFields(map[string]any{"b": 2, "a": 1}).Info("x")

	if !strings.HasSuffix(strings.TrimSpace(buf.String()), "x a=1 b=2") {
		t.Errorf("Expected sorted fields, got %q", buf.String())
	}
}

func TestNamedAndSharedLevel(t *testing.T) {
	l, buf := newTestLogger(INFO)
	child := l.Named("server").Named("http")

	l.SetLevel(ERROR)
	child.Warnf("dropped")
	child.Errorf("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("Expected child to follow parent level, got %q", out)
	}
	if !strings.Contains(out, "server.http: kept") {
		t.Errorf("Expected prefixed line, got %q", out)
	}
}

func TestFatalExits(t *testing.T) {
	l, buf := newTestLogger(INFO)
	code := -1
	l.exit = func(c int) { code = c }

	l.Fatalf("bye %s", "now")

	if code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "[FATAL] bye now") {
		t.Errorf("Expected FATAL line, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", DEBUG, true},
		{"Info", INFO, true},
		{"warning", WARN, true},
		{" ERROR ", ERROR, true},
		{"fatal", FATAL, true},
		{"loud", INFO, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q): expected (%v, %v), got (%v, %v)", tt.in, tt.want, tt.ok, got, ok)
		}
	}
}
