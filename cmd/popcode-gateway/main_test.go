// ABOUTME: Tests for config path resolution and logger setup
// ABOUTME: Covers env var priority and the colorized handler's attribute output

package main

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/2389/popcode-gateway/internal/config"
)

func TestGetConfigPath(t *testing.T) {
	t.Run("env var wins", func(t *testing.T) {
		t.Setenv("POPCODE_CONFIG", "/etc/popcode.toml")
		t.Setenv("XDG_CONFIG_HOME", "/xdg")
		if got := getConfigPath(); got != "/etc/popcode.toml" {
			t.Errorf("getConfigPath() = %q", got)
		}
	})

	t.Run("xdg config home", func(t *testing.T) {
		t.Setenv("POPCODE_CONFIG", "")
		t.Setenv("XDG_CONFIG_HOME", "/xdg")
		want := filepath.Join("/xdg", "popcode", "gateway.yaml")
		if got := getConfigPath(); got != want {
			t.Errorf("getConfigPath() = %q, want %q", got, want)
		}
	})

	t.Run("home fallback", func(t *testing.T) {
		t.Setenv("POPCODE_CONFIG", "")
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("HOME", "/home/tester")
		want := filepath.Join("/home/tester", ".config", "popcode", "gateway.yaml")
		if got := getConfigPath(); got != want {
			t.Errorf("getConfigPath() = %q, want %q", got, want)
		}
	})
}

func TestGetDataPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := getDataPath(); got != filepath.Join("/data", "popcode") {
		t.Errorf("getDataPath() = %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestColorHandler(t *testing.T) {
	color.NoColor = true
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	logger := newLogger(config.LoggingConfig{Level: "info"}, &buf)

	logger.Debug("hidden")
	logger.With("component", "bootstrap").WithGroup("run").Info("bootstrap complete", "action", "create-empty")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level: %q", out)
	}
	for _, want := range []string{"INF ", "bootstrap complete", " component=bootstrap", " run.action=create-empty"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestJSONHandler(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	logger := newLogger(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)
	logger.Debug("visible", "k", "v")

	if !strings.Contains(buf.String(), `"msg":"visible"`) || !strings.Contains(buf.String(), `"k":"v"`) {
		t.Errorf("unexpected JSON output: %q", buf.String())
	}
}
