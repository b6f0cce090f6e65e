package evaluator

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/sambeau/riff/pkg/riff/errors"
)

// Evaluate computes the value of an expression. Macro calls, list literals,
// quoted text and a lone variable name are recognised first, in that order;
// anything else is integer arithmetic with variables resolved against env.
func Evaluate(exprText string, env *Environment) (Value, error) {
	expr := strings.TrimSpace(exprText)
	if expr == "" {
		return &Integer{Value: 0}, nil
	}

	switch {
	case strings.HasPrefix(expr, "$"):
		return evalMacro(expr, env)
	case strings.HasPrefix(expr, ","):
		return evalListLiteral(expr)
	case isQuoted(expr):
		return &Text{Value: expr[1 : len(expr)-1]}, nil
	case isIdentifier(expr):
		return env.Get(expr), nil
	}

	tokens, err := tokenize(expr, env)
	if err != nil {
		return nil, err.InExpression(expr)
	}
	postfix := toPostfix(tokens)
	n, err := evalPostfix(postfix)
	if err != nil {
		return nil, err.InExpression(expr)
	}
	return &Integer{Value: n}, nil
}

// isQuoted reports whether s is wrapped in double quotes.
func isQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

// isIdentifier reports whether s is exactly one variable name. A bare name
// keeps the bound value's kind; any other use of it is read as an integer.
func isIdentifier(s string) bool {
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsNumber(r)) {
			continue
		}
		return false
	}
	return s != ""
}

// evalListLiteral parses ,[e1,e2,...] where each element is an integer or a
// quoted text literal.
func evalListLiteral(expr string) (Value, error) {
	rest := strings.TrimSpace(expr[1:])
	if !strings.HasPrefix(rest, "[") || !strings.HasSuffix(rest, "]") || len(rest) < 2 {
		return nil, errors.New("FORMAT-0002", map[string]any{"Expr": expr})
	}

	inner := rest[1 : len(rest)-1]
	elems := []Value{}
	if strings.TrimSpace(inner) == "" {
		return &List{Elements: elems}, nil
	}

	for _, part := range strings.Split(inner, ",") {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		if isQuoted(p) {
			elems = append(elems, &Text{Value: p[1 : len(p)-1]})
			continue
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, errors.New("FORMAT-0001", map[string]any{"Element": p})
		}
		elems = append(elems, &Integer{Value: n})
	}
	return &List{Elements: elems}, nil
}
