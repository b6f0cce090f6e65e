package config

import (
	"os"
	"path/filepath"
)

// Config is the configuration shared by the riff and rc commands.
type Config struct {
	BaseDir string        `yaml:"-"` // Directory containing the config file, for resolving relative paths
	Build   BuildConfig   `yaml:"build"`
	Logging LoggingConfig `yaml:"logging"`
	Repl    ReplConfig    `yaml:"repl"`
}

// BuildConfig controls how rc turns a program into an executable.
type BuildConfig struct {
	Dir         string        `yaml:"dir"`         // Scratch directory for generated Go sources (default: $TMPDIR/rc_build)
	OutputDir   string        `yaml:"output_dir"`  // Where executables go when -o is not given (default: ./dist)
	Go          string        `yaml:"go"`          // Go tool to invoke (default: go)
	Runtime     string        `yaml:"runtime"`     // Local checkout of the riff module, added as a replace directive
	Version     string        `yaml:"version"`     // Module version to require when runtime is empty
	Flags       StringOrSlice `yaml:"flags"`       // Extra go build flags
	Cache       bool          `yaml:"cache"`       // Reuse executables built from identical input (default: true)
	CacheDir    string        `yaml:"cache_dir"`   // Cache location (default: <dir>/cache)
	Compression string        `yaml:"compression"` // Cached artifact compression: "fastest", "default", "best", "none"
}

// CachePath returns CacheDir, or the cache directory under Dir when unset.
func (b BuildConfig) CachePath() string {
	if b.CacheDir != "" {
		return b.CacheDir
	}
	return filepath.Join(b.Dir, "cache")
}

// LoggingConfig holds diagnostic logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, verbose, info, warning, error (default: info)
	JSON  bool   `yaml:"json"`  // Structured JSON output
}

// ReplConfig holds interactive session settings.
type ReplConfig struct {
	History string `yaml:"history"` // History file (default: $TMPDIR/.riff_history)
}

// StringOrSlice supports YAML fields that can be either a string or a slice of strings
type StringOrSlice []string

// UnmarshalYAML implements yaml.Unmarshaler to handle both string and []string
func (s *StringOrSlice) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*s = []string{single}
		return nil
	}

	var slice []string
	if err := unmarshal(&slice); err != nil {
		return err
	}
	*s = slice
	return nil
}

// Defaults returns the configuration used when no file is found.
func Defaults() *Config {
	return &Config{
		Build: BuildConfig{
			Dir:         filepath.Join(os.TempDir(), "rc_build"),
			OutputDir:   "./dist",
			Go:          "go",
			Cache:       true,
			Compression: "default",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Repl: ReplConfig{
			History: filepath.Join(os.TempDir(), ".riff_history"),
		},
	}
}
