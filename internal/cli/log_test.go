package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerFiltersByLevel(t *testing.T) {
	tests := []struct {
		level log.Level
		debug bool
	}{
		{LogInfo, false},
		{LogDebug, true},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		l := newLogger(&buf, tt.level)
		l.Debug("moved card")
		if got := buf.Len() > 0; got != tt.debug {
			t.Errorf("level %s: debug written = %v, want %v", tt.level, got, tt.debug)
		}
		l.Info("saved")
		if !strings.Contains(buf.String(), "saved") {
			t.Errorf("level %s: info not written", tt.level)
		}
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.SetLogLevel(LogDebug)
	c.Logger.Debug("verbose")
	if !strings.Contains(buf.String(), "verbose") {
		t.Errorf("debug output missing after SetLogLevel: %q", buf.String())
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, LogInfo)).done("Rendered 2 members")
	out := buf.String()
	if !strings.Contains(out, "Rendered 2 members (") || !strings.Contains(out, "s)") {
		t.Errorf("progress output = %q", out)
	}
}

func TestLoggerContext(t *testing.T) {
	custom := newLogger(&bytes.Buffer{}, LogInfo)

	if got := loggerFromContext(withLogger(context.Background(), custom)); got != custom {
		t.Error("logger not carried by context")
	}
	if got := loggerFromContext(context.Background()); got != log.Default() {
		t.Error("empty context should fall back to log.Default()")
	}
}
