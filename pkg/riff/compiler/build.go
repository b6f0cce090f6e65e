package compiler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fortio.org/log"
	"github.com/sambeau/riff/config"
)

// runFunc runs a command in dir and returns its combined output.
type runFunc func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// BuildError reports a failed toolchain step with its output.
type BuildError struct {
	Step   string // "go mod tidy" or "go build"
	Output string
	Err    error
}

func (e *BuildError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", e.Step, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Builder compiles Riff programs into executables.
type Builder struct {
	Go      string   // Go tool
	Dir     string   // Parent of the per-build work directories
	Flags   []string // Extra go build flags
	Runtime string   // Local riff module checkout, or empty
	Version string   // riff module version to require
	Cache   *Cache   // nil disables caching

	run runFunc
	now func() time.Time
}

// NewBuilder creates a Builder from build configuration. The cache, if
// wanted, is attached by the caller.
func NewBuilder(cfg config.BuildConfig) *Builder {
	return &Builder{
		Go:      cfg.Go,
		Dir:     cfg.Dir,
		Flags:   cfg.Flags,
		Runtime: cfg.Runtime,
		Version: cfg.Version,
		run:     execRun,
		now:     time.Now,
	}
}

// Result describes a finished build.
type Result struct {
	Output  string // Absolute path of the executable
	WorkDir string // Generated sources, empty on a cache hit
	Cached  bool
}

// Key returns the cache key for building source with this Builder.
func (b *Builder) Key(source string) string {
	return CacheKey(source, b.Runtime, b.Version, b.Go, strings.Join(b.Flags, "\x00"))
}

// Prepare writes main.go and go.mod for source into a fresh work directory
// named build-<stem>-<unix seconds> under Dir and returns its path.
func (b *Builder) Prepare(name, source string) (string, error) {
	stem := Stem(name)
	workDir := filepath.Join(b.Dir, "build-"+ModuleStem(stem)+"-"+strconv.FormatInt(b.now().Unix(), 10))
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return "", fmt.Errorf("creating build directory: %w", err)
	}

	mainSrc, err := GenerateMain(filepath.Base(name), source)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(workDir, "main.go"), mainSrc, 0644); err != nil {
		return "", fmt.Errorf("writing main.go: %w", err)
	}
	if err := os.WriteFile(filepath.Join(workDir, "go.mod"), GenerateGoMod(stem, b.Version, b.Runtime), 0644); err != nil {
		return "", fmt.Errorf("writing go.mod: %w", err)
	}
	return workDir, nil
}

// Build produces an executable for source at output. The source must
// already have passed validation. A cache hit skips the toolchain.
func (b *Builder) Build(ctx context.Context, name, source, output string) (*Result, error) {
	absOut, err := filepath.Abs(output)
	if err != nil {
		return nil, fmt.Errorf("resolving output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absOut), 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	key := b.Key(source)
	if b.Cache != nil {
		hit, err := b.Cache.Restore(key, absOut)
		if err != nil {
			log.Warnf("rc: build cache unavailable: %v", err)
		}
		if hit {
			return &Result{Output: absOut, Cached: true}, nil
		}
	}

	workDir, err := b.Prepare(name, source)
	if err != nil {
		return nil, err
	}
	log.LogVf("rc: building %s in %s", name, workDir)

	if out, err := b.run(ctx, workDir, b.Go, "mod", "tidy"); err != nil {
		return nil, &BuildError{Step: "go mod tidy", Output: string(out), Err: err}
	}

	args := []string{"build", "-trimpath"}
	args = append(args, b.Flags...)
	args = append(args, "-o", absOut, ".")
	if out, err := b.run(ctx, workDir, b.Go, args...); err != nil {
		return nil, &BuildError{Step: "go build", Output: string(out), Err: err}
	}
	log.Infof("rc: built %s", absOut)

	if b.Cache != nil {
		if err := b.Cache.Store(key, filepath.Base(name), absOut); err != nil {
			log.Warnf("rc: could not cache %s: %v", name, err)
		}
	}
	return &Result{Output: absOut, WorkDir: workDir}, nil
}
