package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"fortio.org/log"
	"github.com/dustin/go-humanize"
	"github.com/sambeau/riff/config"
	"github.com/sambeau/riff/pkg/riff/compiler"
	"github.com/sambeau/riff/pkg/riff/riff"
)

// Version is set at compile time via -ldflags
var Version = riff.Version

// Exit statuses.
const (
	exitInvalid = 1 // program failed validation
	exitUsage   = 2
	exitBuild   = 3
)

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv)
	cancel()
	if err == nil {
		return
	}
	var ee *exitError
	if stderrors.As(err, &ee) {
		os.Exit(ee.code)
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// options holds the parsed command line.
type options struct {
	input      string
	output     string
	configPath string
	emit       bool
	noCache    bool
	cacheList  bool
	verbose    bool
}

// parseArgs accepts flags before or after the input file.
func parseArgs(args []string, stderr io.Writer) (*options, bool, error) {
	opts := &options{}
	flags := flag.NewFlagSet("rc", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() { printUsage(stderr) }

	flags.StringVar(&opts.output, "o", "", "Output executable path")
	flags.StringVar(&opts.configPath, "config", "", "Path to config file")
	flags.BoolVar(&opts.emit, "emit", false, "Print the generated Go source and stop")
	flags.BoolVar(&opts.noCache, "no-cache", false, "Always invoke the Go toolchain")
	flags.BoolVar(&opts.cacheList, "cache-list", false, "List cached builds and exit")
	flags.BoolVar(&opts.verbose, "v", false, "Verbose build logging")
	showVersion := flags.Bool("version", false, "Show version")
	showHelp := flags.Bool("help", false, "Show help")

	var positional []string
	rest := args
	for {
		if err := flags.Parse(rest); err != nil {
			return nil, false, err
		}
		if flags.NArg() == 0 {
			break
		}
		positional = append(positional, flags.Arg(0))
		rest = flags.Args()[1:]
	}

	if *showHelp {
		return nil, true, nil
	}
	if *showVersion {
		return &options{}, true, nil
	}
	if opts.cacheList && len(positional) == 0 {
		return opts, false, nil
	}
	if len(positional) != 1 {
		return nil, false, fmt.Errorf("expected exactly one input file, got %d", len(positional))
	}
	opts.input = positional[0]
	return opts, false, nil
}

// run is the main entry point, designed for testability (Mat Ryer pattern)
func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	opts, done, err := parseArgs(args, stderr)
	if err != nil {
		if err != flag.ErrHelp {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			printUsage(stderr)
		}
		return &exitError{code: exitUsage}
	}
	if done {
		if opts == nil {
			printUsage(stdout)
		} else {
			fmt.Fprintf(stdout, "rc version %s\n", Version)
		}
		return nil
	}

	cfg, _, err := config.LoadWithPath(opts.configPath, getenv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := config.ApplyLogging(cfg, opts.verbose); err != nil {
		return err
	}
	for _, w := range config.Warnings(cfg) {
		log.Warnf("config: %s", w)
	}

	if opts.cacheList {
		return listCache(cfg.Build, stdout)
	}

	content, err := os.ReadFile(opts.input)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading %s: %v\n", opts.input, err)
		return &exitError{code: exitUsage}
	}
	source := string(content)

	if err := riff.Check(source, riff.WithFilename(opts.input)); err != nil {
		fmt.Fprintln(stderr, riff.FormatError(err))
		return &exitError{code: exitInvalid}
	}

	if opts.emit {
		src, err := compiler.GenerateMain(filepath.Base(opts.input), source)
		if err != nil {
			return err
		}
		stdout.Write(src)
		return nil
	}

	output := opts.output
	if output == "" {
		output = filepath.Join(cfg.Build.OutputDir, compiler.Stem(opts.input))
		if runtime.GOOS == "windows" {
			output += ".exe"
		}
	}

	builder := compiler.NewBuilder(cfg.Build)
	if builder.Version == "" && builder.Runtime == "" {
		builder.Version = "v" + riff.Version
	}
	if cfg.Build.Cache && !opts.noCache {
		cache, err := compiler.OpenCache(cfg.Build.CachePath(), cfg.Build.Compression)
		if err != nil {
			log.Warnf("rc: build cache disabled: %v", err)
		} else {
			defer cache.Close()
			builder.Cache = cache
		}
	}

	fmt.Fprintf(stdout, "[_] rc %s\n", Version)
	fmt.Fprintf(stdout, "[i] Input: %s\n", opts.input)
	fmt.Fprintf(stdout, "[i] Output: %s\n", output)
	fmt.Fprint(stdout, "[i] Compiling...")

	res, err := builder.Build(ctx, opts.input, source, output)
	if err != nil {
		fmt.Fprintln(stdout, " failed.")
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return &exitError{code: exitBuild}
	}
	fmt.Fprintln(stdout, " done.")
	fmt.Fprintf(stdout, "[i] Generated executable at %s\n", res.Output)
	return nil
}

// listCache prints the cached builds, most recent first.
func listCache(build config.BuildConfig, stdout io.Writer) error {
	cache, err := compiler.OpenCache(build.CachePath(), build.Compression)
	if err != nil {
		return err
	}
	defer cache.Close()

	entries, err := cache.Entries()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "(build cache is empty)")
		return nil
	}

	fmt.Fprintf(stdout, "%-12s  %-24s  %9s  %s\n", "KEY", "NAME", "SIZE", "HITS")
	for _, e := range entries {
		key := e.Key
		if len(key) > 12 {
			key = key[:12]
		}
		fmt.Fprintf(stdout, "%-12s  %-24s  %9s  %d\n", key, e.Name, humanize.Bytes(uint64(e.Size)), e.Hits)
	}
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `rc - Riff compiler version %s

Usage:
  rc [options] <file.riff>
  rc --cache-list

Options:
  -o PATH          Output executable (default: <build.output_dir>/<file stem>)
  --emit           Print the generated Go source and stop
  --no-cache       Always invoke the Go toolchain
  --cache-list     List cached builds and exit
  -v               Verbose build logging
  --config PATH    Path to config file (default: auto-detect)
  --version        Show version
  --help           Show this help

Exit status:
  1  the program has structural errors
  2  usage or read error
  3  the Go build failed
`, Version)
}
