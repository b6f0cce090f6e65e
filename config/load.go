package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"fortio.org/log"
	"gopkg.in/yaml.v3"
)

// Load reads configuration with ENV interpolation. See LoadWithPath.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	cfg, _, err := LoadWithPath(configPath, getenv)
	return cfg, err
}

// LoadWithPath reads configuration and returns it with the resolved file
// path. When configPath is empty and no file exists in the default locations
// it returns Defaults() and an empty path.
func LoadWithPath(configPath string, getenv func(string) string) (*Config, string, error) {
	path, err := resolveConfigPath(configPath, getenv)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return Defaults(), "", nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	baseDir := filepath.Dir(absPath)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	data = interpolateEnv(data, getenv)

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.BaseDir = baseDir

	for _, p := range []*string{
		&cfg.Build.Dir,
		&cfg.Build.OutputDir,
		&cfg.Build.Runtime,
		&cfg.Build.CacheDir,
		&cfg.Repl.History,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(baseDir, *p)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, "", err
	}

	return cfg, absPath, nil
}

// Validate checks the configuration for errors.
func Validate(cfg *Config) error {
	var errs []string

	validLevels := map[string]bool{"debug": true, "verbose": true, "info": true, "warning": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, verbose, info, warning, or error)", cfg.Logging.Level))
	}

	validCompression := map[string]bool{"fastest": true, "default": true, "best": true, "none": true}
	if !validCompression[cfg.Build.Compression] {
		errs = append(errs, fmt.Sprintf("invalid build.compression: %s (must be fastest, default, best, or none)", cfg.Build.Compression))
	}

	if strings.TrimSpace(cfg.Build.Go) == "" {
		errs = append(errs, "build.go must name the Go tool")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Warnings returns non-fatal configuration issues that should be reported to the user.
func Warnings(cfg *Config) []string {
	var warnings []string

	if cfg.Build.Runtime != "" {
		if _, err := os.Stat(filepath.Join(cfg.Build.Runtime, "go.mod")); err != nil {
			warnings = append(warnings, fmt.Sprintf("build.runtime %s has no go.mod - builds will fail to resolve the riff module", cfg.Build.Runtime))
		}
	}

	if !cfg.Build.Cache && cfg.Build.CacheDir != "" {
		warnings = append(warnings, "build.cache_dir is set but build.cache is false - the cache will not be used")
	}

	return warnings
}

// ApplyLogging configures fortio logging from cfg.Logging. verbose forces
// the verbose level regardless of the configured one.
func ApplyLogging(cfg *Config, verbose bool) error {
	level := cfg.Logging.Level
	if verbose {
		level = "verbose"
	}
	if err := log.SetLogLevelStr(level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	log.Config.JSON = cfg.Logging.JSON
	return nil
}

// resolveConfigPath finds the config file to use.
// Search order: explicit path > RIFF_CONFIG env > ./riff.yaml > ~/.config/riff/riff.yaml
// An empty result with a nil error means no file was found.
func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	if envPath := getenv("RIFF_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("RIFF_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}

	if _, err := os.Stat("riff.yaml"); err == nil {
		return "riff.yaml", nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".config", "riff", "riff.yaml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", nil
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} patterns with environment values.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		value := getenv(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}

		return []byte(value)
	})
}
