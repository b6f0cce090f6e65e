package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func noenv(string) string { return "" }

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Build.Go != "go" {
		t.Errorf("expected default go tool 'go', got %q", cfg.Build.Go)
	}
	if !cfg.Build.Cache {
		t.Error("expected build cache to be enabled by default")
	}
	if cfg.Build.Compression != "default" {
		t.Errorf("expected default compression 'default', got %q", cfg.Build.Compression)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level 'info', got %q", cfg.Logging.Level)
	}
	if want := filepath.Join(os.TempDir(), "rc_build", "cache"); cfg.Build.CachePath() != want {
		t.Errorf("expected cache path %q, got %q", want, cfg.Build.CachePath())
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestInterpolateEnv(t *testing.T) {
	getenv := func(key string) string {
		switch key {
		case "RIFF_HOME":
			return "/opt/riff"
		case "LEVEL":
			return "debug"
		default:
			return ""
		}
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple substitution",
			input:    "runtime: ${RIFF_HOME}",
			expected: "runtime: /opt/riff",
		},
		{
			name:     "with default (env set)",
			input:    "level: ${LEVEL:-info}",
			expected: "level: debug",
		},
		{
			name:     "with default (env not set)",
			input:    "go: ${GO_TOOL:-go}",
			expected: "go: go",
		},
		{
			name:     "multiple substitutions",
			input:    "dir: ${RIFF_HOME}/${LEVEL}",
			expected: "dir: /opt/riff/debug",
		},
		{
			name:     "no substitution needed",
			input:    "cache: true",
			expected: "cache: true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := string(interpolateEnv([]byte(tt.input), getenv))
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "riff.yaml")

	configContent := `
build:
  dir: ./build
  output_dir: bin
  runtime: ../riff
  flags: -ldflags=-s
  compression: best

logging:
  level: debug
  json: true

repl:
  history: .history
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, path, err := LoadWithPath(configPath, noenv)
	if err != nil {
		t.Fatalf("LoadWithPath failed: %v", err)
	}

	if path != configPath {
		t.Errorf("expected path %q, got %q", configPath, path)
	}
	if cfg.BaseDir != dir {
		t.Errorf("expected base dir %q, got %q", dir, cfg.BaseDir)
	}
	if cfg.Build.Dir != filepath.Join(dir, "build") {
		t.Errorf("build.dir not resolved: %q", cfg.Build.Dir)
	}
	if cfg.Build.OutputDir != filepath.Join(dir, "bin") {
		t.Errorf("build.output_dir not resolved: %q", cfg.Build.OutputDir)
	}
	if cfg.Build.Runtime != filepath.Join(filepath.Dir(dir), "riff") {
		t.Errorf("build.runtime not resolved: %q", cfg.Build.Runtime)
	}
	if cfg.Build.CachePath() != filepath.Join(dir, "build", "cache") {
		t.Errorf("cache path = %q", cfg.Build.CachePath())
	}
	if !reflect.DeepEqual([]string(cfg.Build.Flags), []string{"-ldflags=-s"}) {
		t.Errorf("flags = %v", cfg.Build.Flags)
	}
	if cfg.Build.Compression != "best" {
		t.Errorf("compression = %q", cfg.Build.Compression)
	}
	if !cfg.Build.Cache || cfg.Build.Go != "go" {
		t.Errorf("defaults lost for unset keys: %+v", cfg.Build)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.JSON {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Repl.History != filepath.Join(dir, ".history") {
		t.Errorf("repl.history not resolved: %q", cfg.Repl.History)
	}
}

func TestLoadFlagsList(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "riff.yaml")
	content := "build:\n  flags:\n    - -race\n    - -ldflags=-w\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath, noenv)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual([]string(cfg.Build.Flags), []string{"-race", "-ldflags=-w"}) {
		t.Errorf("flags = %v", cfg.Build.Flags)
	}
}

func TestLoadWithEnvInterpolation(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "riff.yaml")
	content := "build:\n  go: ${RIFF_GO:-go}\n  version: ${RIFF_VERSION}\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	getenv := func(key string) string {
		if key == "RIFF_VERSION" {
			return "v0.3.0"
		}
		return ""
	}
	cfg, err := Load(configPath, getenv)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Build.Go != "go" {
		t.Errorf("go = %q", cfg.Build.Go)
	}
	if cfg.Build.Version != "v0.3.0" {
		t.Errorf("version = %q", cfg.Build.Version)
	}
}

func TestLoadFromEnvVariable(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(configPath, []byte("logging:\n  level: warning\n"), 0644); err != nil {
		t.Fatal(err)
	}

	getenv := func(key string) string {
		if key == "RIFF_CONFIG" {
			return configPath
		}
		return ""
	}
	cfg, path, err := LoadWithPath("", getenv)
	if err != nil {
		t.Fatalf("LoadWithPath failed: %v", err)
	}
	if path != configPath || cfg.Logging.Level != "warning" {
		t.Errorf("path = %q, level = %q", path, cfg.Logging.Level)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("build: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	invalid := filepath.Join(dir, "invalid.yaml")
	if err := os.WriteFile(invalid, []byte("logging:\n  level: loud\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		getenv  func(string) string
		wantErr string
	}{
		{"missing explicit file", filepath.Join(dir, "nope.yaml"), noenv, "config file not found"},
		{"missing RIFF_CONFIG file", "", func(string) string { return filepath.Join(dir, "gone.yaml") }, "RIFF_CONFIG file not found"},
		{"bad yaml", bad, noenv, "failed to parse config"},
		{"invalid level", invalid, noenv, "invalid log level: loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path, tt.getenv)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"verbose level", func(c *Config) { c.Logging.Level = "verbose" }, ""},
		{"unknown level", func(c *Config) { c.Logging.Level = "trace" }, "invalid log level"},
		{"unknown compression", func(c *Config) { c.Build.Compression = "max" }, "invalid build.compression"},
		{"no compression", func(c *Config) { c.Build.Compression = "none" }, ""},
		{"empty go tool", func(c *Config) { c.Build.Go = " " }, "build.go must name the Go tool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestWarnings(t *testing.T) {
	runtimeDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(runtimeDir, "go.mod"), []byte("module github.com/sambeau/riff\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		modify   func(*Config)
		wantWarn string
	}{
		{"defaults", func(*Config) {}, ""},
		{"runtime with go.mod", func(c *Config) { c.Build.Runtime = runtimeDir }, ""},
		{"runtime without go.mod", func(c *Config) { c.Build.Runtime = t.TempDir() }, "has no go.mod"},
		{"cache dir without cache", func(c *Config) { c.Build.Cache = false; c.Build.CacheDir = "/tmp/x" }, "build.cache is false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(cfg)
			warnings := Warnings(cfg)
			if tt.wantWarn == "" {
				if len(warnings) > 0 {
					t.Errorf("expected no warnings, got %v", warnings)
				}
				return
			}
			found := false
			for _, w := range warnings {
				if strings.Contains(w, tt.wantWarn) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected warning containing %q, got %v", tt.wantWarn, warnings)
			}
		})
	}
}

func TestApplyLogging(t *testing.T) {
	cfg := Defaults()
	if err := ApplyLogging(cfg, true); err != nil {
		t.Errorf("ApplyLogging verbose: %v", err)
	}
	if err := ApplyLogging(cfg, false); err != nil {
		t.Errorf("ApplyLogging info: %v", err)
	}
}
