package evaluator

import (
	stderrors "errors"
	"sort"
	"strings"
	"unicode/utf8"

	"fortio.org/log"
	"github.com/sambeau/riff/pkg/riff/errors"
)

// Exec runs source as one top-level block against env. Blocks are not parsed
// ahead of time: loop and conditional bodies are byte spans of source that are
// scanned again on every pass. Exec assumes source already passed the
// validator.
func Exec(source string, env *Environment) error {
	ex := &executor{
		src:        source,
		env:        env,
		lineStarts: lineStarts(source),
	}
	return ex.runBlock(0, len(source))
}

type executor struct {
	src        string
	env        *Environment
	lineStarts []int
}

// runBlock executes the statements in src[start:end].
func (ex *executor) runBlock(start, end int) error {
	i := start
	for i < end {
		i = ex.skipSpace(i, end)
		if i >= end {
			break
		}

		var err error
		switch c := ex.src[i]; {
		case c == '@':
			for i < end && ex.src[i] != '\n' {
				i++
			}
		case ex.isClauseOpener(i, end):
			i, err = ex.runIfChain(i, end)
		case c == '"':
			i, err = ex.runTextSend(i, end)
		case c == '*':
			i, err = ex.runLoop(i, end)
		default:
			stmtStart := i
			for i < end && ex.src[i] != ';' {
				i++
			}
			stmt := ex.src[stmtStart:i]
			if i < end {
				i++
			}
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			log.LogVf("riff: send %q", strings.TrimSpace(stmt))
			if err := execSend(stmt, ex.env); err != nil {
				return ex.locate(err, stmtStart)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// runTextSend handles a statement that starts with a quoted literal:
// "text" > . prints it, "text" > a, b assigns it.
func (ex *executor) runTextSend(start, end int) (int, error) {
	lit, i, err := ex.extractString(start, end)
	if err != nil {
		return i, ex.locate(err, start)
	}

	i = ex.skipSpace(i, end)
	if i < end && ex.src[i] == '>' {
		i = ex.skipSpace(i+1, end)
		if i < end && ex.src[i] == '.' {
			log.LogVf("riff: print literal %q", lit)
			ex.env.logger().PrintLine(lit)
			i++
		} else {
			targetStart := i
			for i < end && ex.src[i] != ';' && ex.src[i] != '\n' {
				i++
			}
			for _, target := range splitTargets(ex.src[targetStart:i]) {
				ex.env.Set(target, &Text{Value: lit})
			}
		}
	}

	if i < end && ex.src[i] == ';' {
		i++
	}
	return i, nil
}

// extractString reads the quoted literal starting at src[start] == '"'.
// No escape sequences are recognised.
func (ex *executor) extractString(start, end int) (string, int, error) {
	i := start + 1
	for i < end && ex.src[i] != '"' {
		i++
	}
	if i >= end {
		return "", i, errors.New("FORMAT-0004", nil)
	}
	return ex.src[start+1 : i], i + 1, nil
}

// extractBlock matches the brace at src[open] by depth counting within end
// and returns the body span and the offset just past the closing brace.
func (ex *executor) extractBlock(open, end int) (bodyStart, bodyEnd, next int, err error) {
	depth := 1
	i := open + 1
	for i < end {
		switch ex.src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return open + 1, i, i + 1, nil
			}
		}
		i++
	}

	openLine, _ := ex.position(open)
	currentLine, _ := ex.position(end)
	return 0, 0, end, ex.locate(errors.New("BLOCK-0004", map[string]any{
		"OpenLine":    openLine,
		"CurrentLine": currentLine,
	}), open)
}

// scanToBrace returns the trimmed header text before the next '{' and the
// offset of that brace (end when there is none).
func (ex *executor) scanToBrace(i, end int) (string, int) {
	start := i
	for i < end && ex.src[i] != '{' {
		i++
	}
	return strings.TrimSpace(ex.src[start:i]), i
}

func (ex *executor) isClauseOpener(i, end int) bool {
	switch ex.src[i] {
	case '?':
		return true
	case '!':
		return i+1 < end && (ex.src[i+1] == '?' || ex.src[i+1] == '!')
	}
	return false
}

func (ex *executor) skipSpace(i, end int) int {
	for i < end && isSpace(ex.src[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// locate attaches the source position of offset to err unless it already
// carries one.
func (ex *executor) locate(err error, offset int) error {
	var re *errors.RiffError
	if !stderrors.As(err, &re) {
		return err
	}
	if re.Line == 0 {
		line, col := ex.position(offset)
		re = re.WithPosition(line, col)
	}
	if re.File == "" && ex.env.Filename != "" {
		re = re.WithFile(ex.env.Filename)
	}
	return re
}

// position converts a byte offset to a 1-based line and column.
func (ex *executor) position(offset int) (int, int) {
	line := sort.Search(len(ex.lineStarts), func(i int) bool {
		return ex.lineStarts[i] > offset
	})
	lineStart := ex.lineStarts[line-1]
	if offset > len(ex.src) {
		offset = len(ex.src)
	}
	return line, utf8.RuneCountInString(ex.src[lineStart:offset]) + 1
}

func lineStarts(src string) []int {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}
