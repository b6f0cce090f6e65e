package evaluator

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sambeau/riff/pkg/riff/errors"
)

type tokenKind int

const (
	numberToken tokenKind = iota
	operatorToken
)

// token is a resolved integer or an operator symbol. Variables never survive
// tokenizing: they are replaced by their integer value on the spot.
type token struct {
	kind tokenKind
	num  int64
	op   string
}

func (t token) String() string {
	if t.kind == numberToken {
		return strconv.FormatInt(t.num, 10)
	}
	return t.op
}

var twoCharOperators = []string{"||", "&&", "<=", ">="}

const singleCharOperators = "+-*/^()%<>="

func tokenize(s string, env *Environment) ([]token, *errors.RiffError) {
	var out []token
	i := 0
	for i < len(s) {
		c := s[i]

		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v' {
			i++
			continue
		}

		if isDigit(c) {
			n, next, err := scanNumber(s, i)
			if err != nil {
				return nil, err
			}
			out = append(out, token{kind: numberToken, num: n})
			i = next
			continue
		}

		if r, size := utf8.DecodeRuneInString(s[i:]); unicode.IsLetter(r) || r == '_' {
			start := i
			i += size
			for i < len(s) {
				r, size := utf8.DecodeRuneInString(s[i:])
				if !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '_' {
					break
				}
				i += size
			}
			name := s[start:i]

			if i < len(s) && s[i] == '[' {
				i++
				idxStart := i
				for i < len(s) && s[i] != ']' {
					i++
				}
				if i >= len(s) {
					return nil, errors.New("FORMAT-0006", map[string]any{"Name": name})
				}
				idxText := s[idxStart:i]
				i++
				out = append(out, token{kind: numberToken, num: resolveIndex(env, name, idxText)})
				continue
			}

			var n int64
			if v, ok := env.Lookup(name); ok {
				n = v.AsInteger()
			}
			out = append(out, token{kind: numberToken, num: n})
			continue
		}

		if matched := matchTwoCharOperator(s, i); matched != "" {
			out = append(out, token{kind: operatorToken, op: matched})
			i += 2
			continue
		}

		if strings.IndexByte(singleCharOperators, c) >= 0 {
			out = append(out, token{kind: operatorToken, op: string(c)})
			i++
			continue
		}

		r, _ := utf8.DecodeRuneInString(s[i:])
		return nil, errors.New("FORMAT-0003", map[string]any{"Char": string(r), "Pos": i})
	}
	return out, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func matchTwoCharOperator(s string, i int) string {
	if i+1 >= len(s) {
		return ""
	}
	for _, op := range twoCharOperators {
		if s[i:i+2] == op {
			return op
		}
	}
	return ""
}

// scanNumber reads digits with at most one '.' and one exponent marker
// (optionally signed). Literals with '.' or an exponent are parsed as floats
// and truncated toward zero.
func scanNumber(s string, start int) (int64, int, *errors.RiffError) {
	i := start
	seenE, seenDot := false, false
	for i < len(s) {
		ch := s[i]
		switch {
		case isDigit(ch):
			i++
			continue
		case (ch == 'e' || ch == 'E') && !seenE:
			seenE = true
			i++
			if i < len(s) && (s[i] == '+' || s[i] == '-') {
				i++
			}
			continue
		case ch == '.' && !seenDot && !seenE:
			seenDot = true
			i++
			continue
		}
		break
	}

	literal := s[start:i]
	if seenDot || seenE {
		f, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return 0, i, errors.New("FORMAT-0005", map[string]any{"Literal": literal})
		}
		return truncateFloat(f), i, nil
	}

	n, err := strconv.ParseInt(literal, 10, 64)
	if err != nil {
		return 0, i, errors.New("FORMAT-0005", map[string]any{"Literal": literal})
	}
	return n, i, nil
}

// truncateFloat converts toward zero, saturating at the int64 bounds.
func truncateFloat(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

// resolveIndex reads element idxText of the list bound to name. Negative
// indices count from the end. Unbound names, non-list values, unparseable
// indices and out-of-range positions all resolve to 0.
func resolveIndex(env *Environment, name, idxText string) int64 {
	index, err := strconv.ParseInt(strings.TrimSpace(idxText), 10, 64)
	if err != nil {
		index = 0
	}

	v, ok := env.Lookup(name)
	if !ok {
		return 0
	}
	list, ok := v.(*List)
	if !ok {
		return 0
	}

	if index < 0 {
		index += int64(len(list.Elements))
	}
	if index < 0 || index >= int64(len(list.Elements)) {
		return 0
	}
	return list.Elements[index].AsInteger()
}
