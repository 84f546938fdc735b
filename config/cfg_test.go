package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rupor-github/gencfg"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Engine.Medium.Type != "print" {
		t.Errorf("Medium type = %q, want print", cfg.Engine.Medium.Type)
	}
	if !cfg.Engine.UserAgent || !cfg.Engine.Embedded {
		t.Error("user agent and embedded stylesheets should be enabled by default")
	}
	if cfg.Output.Format != OutputFormatYaml {
		t.Errorf("Output format = %s, want yaml", cfg.Output.Format)
	}
	if cfg.Logging.ConsoleLogger.Level != "normal" {
		t.Errorf("Console level = %q", cfg.Logging.ConsoleLogger.Level)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	path := writeConfig(t, `version: 1
engine:
  medium:
    type: screen
    width: 800
  stylesheets: ["a.css", "b.css"]
output:
  format: text
  template: "{{ range .Elements }}{{ .Path }}{{ end }}"
  properties: [color]
logging:
  console:
    level: debug
`)
	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	m := cfg.Engine.Medium()
	if m.Type != "screen" || m.Width != 800 {
		t.Errorf("Medium = %+v", m)
	}
	if len(cfg.Engine.Stylesheets) != 2 {
		t.Errorf("Stylesheets = %v", cfg.Engine.Stylesheets)
	}
	if cfg.Output.Format != OutputFormatText {
		t.Errorf("Format = %s, want text", cfg.Output.Format)
	}
	// template field is never expanded by configuration processing
	if !strings.Contains(cfg.Output.Template, "{{ range .Elements }}") {
		t.Errorf("Template = %q", cfg.Output.Template)
	}
	if cfg.Logging.ConsoleLogger.Level != "debug" {
		t.Errorf("Console level = %q", cfg.Logging.ConsoleLogger.Level)
	}
	// defaults survive partial override
	if !cfg.Engine.UserAgent {
		t.Error("UserAgent default was lost")
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "version: 1\nengine:\n  user_agent: true\n  invalid indent\n"},
		{"unknown field", "version: 1\nunknown_field: value\n"},
		{"bad version", "version: 2\n"},
		{"bad format", "version: 1\noutput:\n  format: html\n"},
		{"bad log level", "version: 1\nlogging:\n  console:\n    level: loud\n"},
		{"negative width", "version: 1\nengine:\n  medium:\n    width: -1\n"},
		{"empty medium", "version: 1\nengine:\n  medium:\n    type: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {}
	if _, err := LoadConfiguration("", option); err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err = unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Output.Format = OutputFormatText

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(string(data), "format: text") {
		t.Errorf("format is not dumped as text:\n%s", data)
	}

	loaded, err := unmarshalConfig(data, &Config{}, false)
	if err != nil {
		t.Fatalf("Dumped config cannot be loaded: %v", err)
	}
	if loaded.Version != cfg.Version || loaded.Output.Format != cfg.Output.Format || loaded.Engine.Medium != cfg.Engine.Medium {
		t.Errorf("mismatch after dump/load: %+v", loaded)
	}
}

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		name string
		want OutputFormat
		ok   bool
	}{
		{"yaml", OutputFormatYaml, true},
		{"TEXT", OutputFormatText, true},
		{"html", OutputFormatYaml, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.name)
			if (err == nil) != tt.ok {
				t.Fatalf("ParseOutputFormat(%q) error = %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
	if got := OutputFormat(7).String(); got != "OutputFormat(7)" {
		t.Errorf("String() = %q", got)
	}
	if _, err := OutputFormat(7).MarshalText(); err == nil {
		t.Error("expected error marshaling invalid format")
	}
}
