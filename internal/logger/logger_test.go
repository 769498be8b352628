package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPathEnv(t *testing.T) {
	t.Setenv("QVIM_LOG_FILE", "/tmp/x.log")
	if p, _ := Path(); p != "/tmp/x.log" {
		t.Fatalf("Path = %q, want /tmp/x.log", p)
	}
	t.Setenv("QVIM_LOG_FILE", "")
	t.Setenv("QVIM_CONFIG_HOME", "/tmp/cfg")
	if p, _ := Path(); p != "/tmp/cfg/qvim.log" {
		t.Fatalf("Path = %q, want /tmp/cfg/qvim.log", p)
	}
	t.Setenv("QVIM_CONFIG_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if p, _ := Path(); p != "/tmp/xdg/qvim/qvim.log" {
		t.Fatalf("Path = %q, want /tmp/xdg/qvim/qvim.log", p)
	}
}

func TestHelpersBeforeInit(t *testing.T) {
	Close()
	Debug("dropped", "k", 1)
	Error("dropped")
}

func TestInitWriterLevels(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, false)
	defer Close()
	Debug("hidden")
	Info("shown", "mode", "normal")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written at info level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "mode") {
		t.Fatalf("info line missing: %q", out)
	}
}

func TestInitCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "qvim.log")
	t.Setenv("QVIM_LOG_FILE", path)
	if err := Init(true); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	Debug("hello")
	Close()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Fatalf("log = %q, want hello", data)
	}
}

func TestSetDebugTogglesLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, false)
	defer Close()
	SetDebug(true)
	Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Fatalf("debug line missing after SetDebug(true): %q", buf.String())
	}
	if !strings.Contains(buf.String(), "qvim") {
		t.Fatalf("logger name missing: %q", buf.String())
	}
}
