// Package validator checks that braces and brackets in Riff source are
// balanced before anything runs.
package validator

import (
	"github.com/sambeau/riff/pkg/riff/errors"
)

type position struct {
	line, column int
}

// Validate makes one pass over source and reports the first structural
// problem as a *errors.RiffError of class syntax. Whitespace and @-comments
// are skipped the way the executor skips them. Quoted text is not treated
// specially, so a brace inside a string still counts.
func Validate(source, filename string) error {
	var braces, brackets []position
	line, column := 1, 1
	inComment := false

	fail := func(err *errors.RiffError) error {
		if filename != "" {
			err = err.WithFile(filename)
		}
		return err
	}

	for _, r := range source {
		here := position{line, column}
		if r == '\n' {
			line++
			column = 1
			inComment = false
			continue
		}
		column++

		if inComment {
			continue
		}
		switch r {
		case '@':
			inComment = true
		case '{':
			braces = append(braces, here)
		case '[':
			brackets = append(brackets, here)
		case '}':
			if len(braces) == 0 {
				return fail(errors.NewWithPosition("SYNTAX-0001", here.line, here.column, nil))
			}
			braces = braces[:len(braces)-1]
		case ']':
			if len(brackets) == 0 {
				return fail(errors.NewWithPosition("SYNTAX-0002", here.line, here.column, nil))
			}
			brackets = brackets[:len(brackets)-1]
		}
	}

	if n := len(braces); n > 0 {
		open := braces[n-1]
		return fail(errors.NewWithPosition("SYNTAX-0003", open.line, open.column,
			map[string]any{"OpenLine": open.line}))
	}
	if n := len(brackets); n > 0 {
		open := brackets[n-1]
		return fail(errors.NewWithPosition("SYNTAX-0004", open.line, open.column,
			map[string]any{"OpenLine": open.line}))
	}
	return nil
}
