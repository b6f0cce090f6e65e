package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"fortio.org/log"
	"github.com/sambeau/riff/config"
	"github.com/sambeau/riff/pkg/riff/errors"
	"github.com/sambeau/riff/pkg/riff/repl"
	"github.com/sambeau/riff/pkg/riff/riff"
)

// Version is set at compile time via -ldflags
var Version = riff.Version

// exitError carries a process exit status. A nil err means the details
// were already printed.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func main() {
	ctx := context.Background()
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv)
	if err == nil {
		return
	}
	var ee *exitError
	if stderrors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", ee.err)
		}
		os.Exit(ee.code)
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// run is the main entry point, designed for testability (Mat Ryer pattern)
func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	flags := flag.NewFlagSet("riff", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() { printUsage(stderr) }

	var (
		evalCode    = flags.String("e", "", "Evaluate code string")
		evalLong    = flags.String("eval", "", "Evaluate code string")
		checkOnly   = flags.Bool("check", false, "Check syntax without executing")
		jsonErrors  = flags.Bool("json", false, "With --check, report errors as JSON lines on stdout")
		watch       = flags.Bool("watch", false, "Rerun the file whenever it changes")
		verbose     = flags.Bool("v", false, "Trace execution")
		trace       = flags.Bool("trace", false, "Trace execution")
		configPath  = flags.String("config", "", "Path to config file")
		showVersion = flags.Bool("version", false, "Show version")
		showHelp    = flags.Bool("help", false, "Show help")
		showHelpS   = flags.Bool("h", false, "Show help")
	)

	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return &exitError{code: 2}
	}

	if *showHelp || *showHelpS {
		printUsage(stdout)
		return nil
	}
	if *showVersion {
		fmt.Fprintf(stdout, "riff version %s\n", Version)
		return nil
	}

	cfg, _, err := config.LoadWithPath(*configPath, getenv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := config.ApplyLogging(cfg, *verbose || *trace); err != nil {
		return err
	}
	for _, w := range config.Warnings(cfg) {
		log.Warnf("config: %s", w)
	}

	code := *evalCode
	if code == "" {
		code = *evalLong
	}

	switch {
	case code != "":
		return runSource("<eval>", code, stdout, stderr)
	case *checkOnly:
		files := flags.Args()
		if len(files) == 0 {
			fmt.Fprintln(stderr, "Error: --check requires at least one file")
			return &exitError{code: 2}
		}
		if status := checkFiles(files, *jsonErrors, stdout, stderr); status != 0 {
			return &exitError{code: status}
		}
		return nil
	case *watch:
		if flags.NArg() != 1 {
			fmt.Fprintln(stderr, "Error: --watch requires exactly one file")
			return &exitError{code: 2}
		}
		ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return watchFile(ctx, flags.Arg(0), stdout, stderr)
	case flags.NArg() > 0:
		return runFile(flags.Arg(0), stdout, stderr)
	default:
		repl.Start(stdout, repl.Options{Version: Version, History: cfg.Repl.History})
		return nil
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `riff - Riff language interpreter version %s

Usage:
  riff [options] <file>
  riff -e "code"
  riff --check <file>...
  riff --watch <file>
  riff                      Start interactive REPL

Options:
  -e, --eval <code>   Run code given on the command line
  --check             Check syntax without executing (exit 1 on errors, 2 on read errors)
  --json              With --check, print each error as a JSON line on stdout
  --watch             Run the file, then run it again every time it is saved
  -v, --trace         Trace execution
  --config PATH       Path to config file (default: auto-detect)
  --version           Show version
  -h, --help          Show this help

Config Resolution:
  1. --config flag
  2. RIFF_CONFIG environment variable
  3. ./riff.yaml
  4. ~/.config/riff/riff.yaml

Examples:
  riff count.riff
  riff -e '*3{_ > .}'
  riff --check *.riff
`, Version)
}

// runFile reads and runs one program.
func runFile(filename string, stdout, stderr io.Writer) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading file '%s': %w", filename, err)
	}
	return runSource(filename, string(content), stdout, stderr)
}

// runSource validates and runs source on a fresh environment, printing any
// error with source context to stderr.
func runSource(name, source string, stdout, stderr io.Writer) error {
	_, err := riff.Run(source, riff.WithFilename(name), riff.WithLogger(riff.WriterLogger(stdout)))
	if err != nil {
		printError(stderr, source, err)
		return &exitError{code: 1}
	}
	return nil
}

// checkFiles validates each file without running it. With asJSON, each
// structural error is written to stdout as one JSON object per line.
func checkFiles(files []string, asJSON bool, stdout, stderr io.Writer) int {
	hasErrors := false

	for _, filename := range files {
		content, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(stderr, "Error reading %s: %v\n", filename, err)
			return 2
		}
		err = riff.Check(string(content), riff.WithFilename(filename))
		if err == nil {
			continue
		}
		hasErrors = true

		var re *errors.RiffError
		if asJSON && stderrors.As(err, &re) {
			data, jsonErr := re.ToJSON()
			if jsonErr != nil {
				fmt.Fprintf(stderr, "Error encoding %s: %v\n", filename, jsonErr)
				return 2
			}
			fmt.Fprintf(stdout, "%s\n", data)
			continue
		}
		printError(stderr, string(content), err)
	}

	if hasErrors {
		return 1
	}
	return 0
}

// printError prints err followed by the offending source line.
func printError(w io.Writer, source string, err error) {
	fmt.Fprintln(w, riff.FormatError(err))

	var re *errors.RiffError
	if stderrors.As(err, &re) && re.Line > 0 {
		printSourceContext(w, strings.Split(source, "\n"), re.Line, re.Column)
	}
}

// printSourceContext prints the source line and error pointer
func printSourceContext(w io.Writer, lines []string, lineNum, colNum int) {
	if lineNum <= 0 || lineNum > len(lines) {
		return
	}

	sourceLine := []rune(lines[lineNum-1])

	trimCount := 0
	for _, r := range sourceLine {
		if r == '\t' {
			trimCount += 8
		} else if r == ' ' {
			trimCount++
		} else {
			break
		}
	}

	fmt.Fprintf(w, "    %s\n", strings.TrimLeft(string(sourceLine), " \t"))

	if colNum > 0 {
		visualCol := 0
		for i := 0; i < colNum-1 && i < len(sourceLine); i++ {
			if sourceLine[i] == '\t' {
				visualCol += 8
			} else {
				visualCol++
			}
		}
		adjustedCol := max(visualCol-trimCount, 0)
		fmt.Fprintf(w, "    %s^\n", strings.Repeat(" ", adjustedCol))
	}
}
