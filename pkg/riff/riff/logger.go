package riff

import (
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/sambeau/riff/pkg/riff/evaluator"
)

// Logger receives the text of every print send, one line per call. A program
// that never prints never touches its Logger.
type Logger = evaluator.Logger

type writerLogger struct {
	w io.Writer
}

func (l *writerLogger) PrintLine(text string) {
	io.WriteString(l.w, text+"\n")
}

// WriterLogger returns a Logger that writes each printed value to w as its
// own newline-terminated line. Write errors are ignored.
func WriterLogger(w io.Writer) Logger {
	return &writerLogger{w: w}
}

// BufferedLogger keeps printed lines in memory, in print order. It is safe for
// concurrent use.
type BufferedLogger struct {
	mu    sync.Mutex
	lines []string
}

// NewBufferedLogger creates an empty BufferedLogger.
func NewBufferedLogger() *BufferedLogger {
	return &BufferedLogger{}
}

func (l *BufferedLogger) PrintLine(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, text)
}

// Lines returns a copy of the printed lines.
func (l *BufferedLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.lines)
}

// String returns the output as a terminal would show it: every line followed
// by a newline.
func (l *BufferedLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var sb strings.Builder
	for _, line := range l.lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
