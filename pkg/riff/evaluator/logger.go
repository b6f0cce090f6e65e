package evaluator

import (
	"fmt"
	"io"
	"os"
)

// Logger receives program output. Each "expr > ." send delivers the printed
// value's text as one line, without the trailing newline.
type Logger interface {
	PrintLine(text string)
}

// lineWriter writes each printed line to w followed by a newline.
type lineWriter struct {
	w io.Writer
}

func (l *lineWriter) PrintLine(text string) {
	fmt.Fprintln(l.w, text)
}

// DefaultLogger prints to stdout. New environments start with it.
var DefaultLogger Logger = &lineWriter{w: os.Stdout}
