package repl

import (
	"fmt"
	"io"
	"os"
	"strings"

	"fortio.org/log"
	"github.com/mattn/go-runewidth"
	"github.com/peterh/liner"
	"github.com/sambeau/riff/pkg/riff/evaluator"
	"github.com/sambeau/riff/pkg/riff/riff"
)

const PROMPT = "~> "
const CONTINUATION_PROMPT = ".. "

// maxValueWidth caps the terminal columns a value takes in :env output.
const maxValueWidth = 60

const RIFF_LOGO = `
█▀█ █ █▀▀ █▀▀
█▀▄ █ █▀░ █▀░ `

// Sigils and macros offered by tab completion, together with bound names.
var completionWords = []string{
	"$s[", "$l[", ",[", "*?", "!?", "!!", "> .", "+>", "->", "*>", "/>", "%>", "^>",
}

// Options configures a REPL session.
type Options struct {
	Version string
	History string // history file, empty for none
}

type session struct {
	env *evaluator.Environment
	out io.Writer
}

func newSession(out io.Writer) *session {
	s := &session{out: out}
	s.reset()
	return s
}

// reset replaces the environment with an empty one printing to the session.
func (s *session) reset() {
	s.env = evaluator.NewEnvironment()
	s.env.Filename = "<repl>"
	s.env.Logger = riff.WriterLogger(s.out)
}

// eval validates and runs one complete entry against the session
// environment. Errors are printed and the session carries on.
func (s *session) eval(input string) {
	if _, err := riff.Run(input, riff.WithEnvironment(s.env)); err != nil {
		io.WriteString(s.out, riff.FormatError(err))
		io.WriteString(s.out, "\n")
	}
}

// Start runs the REPL on the terminal until exit, quit or Ctrl+D. Program
// state persists between entries.
func Start(out io.Writer, opts Options) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	s := newSession(out)
	line.SetCompleter(func(line string) []string {
		return filterCompletions(line, s.env.Names())
	})

	if opts.History != "" {
		if f, err := os.Open(opts.History); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
		defer func() {
			f, err := os.Create(opts.History)
			if err != nil {
				log.Warnf("repl: cannot save history to %s: %v", opts.History, err)
				return
			}
			line.WriteHistory(f)
			f.Close()
		}()
	}

	fmt.Fprintf(out, "%s", RIFF_LOGO)
	fmt.Fprintln(out, "v", opts.Version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "Use Tab for completion, ↑↓ for history")
	fmt.Fprintln(out, "Type ':help' for REPL commands")
	fmt.Fprintln(out, "")

	var inputBuffer strings.Builder

	for {
		currentPrompt := PROMPT
		if inputBuffer.Len() > 0 {
			currentPrompt = CONTINUATION_PROMPT
		}
		input, err := line.Prompt(currentPrompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				if inputBuffer.Len() > 0 {
					fmt.Fprintln(out, "^C (cleared)")
				} else {
					fmt.Fprintln(out, "^C")
				}
				inputBuffer.Reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		trimmed := strings.TrimSpace(input)
		if inputBuffer.Len() == 0 && (trimmed == "exit" || trimmed == "quit") {
			fmt.Fprintln(out, "Goodbye!")
			return
		}

		if inputBuffer.Len() == 0 && strings.HasPrefix(trimmed, ":") {
			handleReplCommand(trimmed, s)
			continue
		}

		if inputBuffer.Len() == 0 && trimmed == "" {
			continue
		}

		if inputBuffer.Len() > 0 {
			inputBuffer.WriteString("\n")
		}
		inputBuffer.WriteString(input)

		fullInput := inputBuffer.String()
		if needsMoreInput(fullInput) {
			continue
		}

		line.AppendHistory(fullInput)
		s.eval(fullInput)
		inputBuffer.Reset()
	}
}

// handleReplCommand runs a ':' command and reports whether it was known.
func handleReplCommand(cmd string, s *session) bool {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Fprintln(s.out, "REPL Commands:")
		fmt.Fprintln(s.out, "  :help, :h, :?   Show this help")
		fmt.Fprintln(s.out, "  :env            Show bound variables")
		fmt.Fprintln(s.out, "  :clear          Forget all variables")
		fmt.Fprintln(s.out, "  exit, quit      Exit the REPL")
		fmt.Fprintln(s.out, "")
		fmt.Fprintln(s.out, "Entries continue over several lines until every '{' and '[' is closed.")
		return true

	case ":env":
		printEnvironment(s.env, s.out)
		return true

	case ":clear":
		s.reset()
		fmt.Fprintln(s.out, "Environment cleared")
		return true

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type :help for commands)\n", cmd)
		return false
	}
}

// printEnvironment lists the bindings in name order.
func printEnvironment(env *evaluator.Environment, out io.Writer) {
	if env.Len() == 0 {
		fmt.Fprintln(out, "(no variables)")
		return
	}

	for _, name := range env.Names() {
		val, _ := env.Lookup(name)
		value := runewidth.Truncate(val.Inspect(), maxValueWidth, "...")
		fmt.Fprintf(out, "  %s: %s = %s\n", name, val.Type(), value)
	}
}

// filterCompletions returns the sigils and bound names that extend the last
// word of line.
func filterCompletions(line string, names []string) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	if line[len(line)-1] == ' ' || line[len(line)-1] == '\t' {
		return nil
	}

	words := strings.Fields(line)
	lastWord := words[len(words)-1]
	prefix := line[:len(line)-len(lastWord)]

	var matches []string
	for _, word := range append(completionWords, names...) {
		if strings.HasPrefix(word, lastWord) && word != lastWord {
			matches = append(matches, prefix+word)
		}
	}
	return matches
}

// needsMoreInput reports whether input still has an unclosed '{' or '['
// outside quoted text and comments.
func needsMoreInput(input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}

	braceCount := 0
	bracketCount := 0
	inString := false
	inComment := false

	for i := 0; i < len(input); i++ {
		ch := input[i]

		if inComment {
			if ch == '\n' {
				inComment = false
			}
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch ch {
		case '@':
			inComment = true
		case '{':
			braceCount++
		case '}':
			braceCount--
		case '[':
			bracketCount++
		case ']':
			bracketCount--
		}
	}

	return braceCount > 0 || bracketCount > 0
}
