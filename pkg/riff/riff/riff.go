// Package riff is the embedding API for the Riff language: validate a program
// and run it against a fresh environment.
//
// Basic usage:
//
//	env, err := riff.Run(`*3{_ > .}`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// With options:
//
//	out := riff.NewBufferedLogger()
//	_, err := riff.Run(source,
//	    riff.WithFilename("count.riff"),
//	    riff.WithLogger(out),
//	)
package riff

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"fortio.org/log"
	"github.com/sambeau/riff/pkg/riff/errors"
	"github.com/sambeau/riff/pkg/riff/evaluator"
	"github.com/sambeau/riff/pkg/riff/validator"
)

// Version is reported by the riff and rc commands.
const Version = "0.3.0"

// Option configures a Run call.
type Option func(*config)

type config struct {
	filename string
	logger   Logger
	env      *evaluator.Environment
}

func newConfig() *config {
	return &config{}
}

// WithFilename sets the name used in error messages.
func WithFilename(name string) Option {
	return func(c *config) {
		c.filename = name
	}
}

// WithLogger sends printed values to logger instead of stdout.
func WithLogger(logger Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithEnvironment runs against an existing environment, so bindings from
// earlier runs stay visible. The REPL uses this.
func WithEnvironment(env *evaluator.Environment) Option {
	return func(c *config) {
		c.env = env
	}
}

// Check validates source without running it.
func Check(source string, opts ...Option) error {
	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return validator.Validate(source, cfg.filename)
}

// Run validates source and, if it is well formed, executes it as one
// top-level block. It returns the environment the program ran in.
func Run(source string, opts ...Option) (*evaluator.Environment, error) {
	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	env := cfg.env
	if env == nil {
		env = evaluator.NewEnvironment()
	}
	if cfg.filename != "" {
		env.Filename = cfg.filename
	}
	if cfg.logger != nil {
		env.Logger = cfg.logger
	}

	if err := validator.Validate(source, env.Filename); err != nil {
		return env, err
	}

	log.LogVf("riff: running %d bytes from %q", len(source), env.Filename)
	if err := evaluator.Exec(source, env); err != nil {
		return env, err
	}
	return env, nil
}

// Main is the entry point of compiled Riff executables. It runs source with
// output on stdout and exits with status 1 on any error.
func Main(source string) {
	if code := runMain(source, os.Stdout, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

func runMain(source string, stdout, stderr io.Writer) int {
	_, err := Run(source, WithLogger(WriterLogger(stdout)))
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr)
	fmt.Fprintln(stderr, FormatError(err))
	return 1
}

// FormatError renders err the way the riff command prints it: the
// file:line:col form for structural errors and the "Runtime error" block for
// everything else.
func FormatError(err error) string {
	var re *errors.RiffError
	if stderrors.As(err, &re) {
		return re.PrettyString()
	}
	return "Runtime error: " + err.Error()
}
