package evaluator

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sambeau/riff/pkg/riff/errors"
)

type macro struct {
	description string
	fn          func(val Value) (Value, error)
}

// macros maps $name[...] names to their implementation. The argument is a
// variable name looked up verbatim, never an expression.
var macros = map[string]macro{
	"s": {description: "sum", fn: sumMacro},
	"l": {description: "length", fn: lengthMacro},
}

func macroDescriptions() map[string]string {
	out := make(map[string]string, len(macros))
	for name, m := range macros {
		out[name] = m.description
	}
	return out
}

// evalMacro evaluates $name[arg]. Text after the closing bracket is ignored.
func evalMacro(expr string, env *Environment) (Value, error) {
	open := strings.IndexByte(expr, '[')
	if open < 0 {
		return nil, errors.New("MACRO-0001", map[string]any{"Expr": expr})
	}
	name := expr[1:open]

	closeOff := strings.IndexByte(expr[open:], ']')
	if closeOff < 0 {
		return nil, errors.New("MACRO-0002", map[string]any{"Name": name})
	}
	arg := strings.TrimSpace(expr[open+1 : open+closeOff])

	m, ok := macros[name]
	if !ok {
		return nil, errors.NewUnknownMacro(name, expr, macroDescriptions())
	}
	return m.fn(env.Get(arg))
}

func sumMacro(val Value) (Value, error) {
	switch v := val.(type) {
	case *List:
		return &Integer{Value: v.AsInteger()}, nil
	case *Integer:
		return &Integer{Value: v.Value}, nil
	case *Text:
		n, err := strconv.ParseInt(v.Value, 10, 64)
		if err != nil {
			return nil, errors.New("TYPE-0001", map[string]any{"Value": v.Value})
		}
		return &Integer{Value: n}, nil
	}
	return &Integer{Value: 0}, nil
}

func lengthMacro(val Value) (Value, error) {
	switch v := val.(type) {
	case *List:
		return &Integer{Value: int64(len(v.Elements))}, nil
	case *Text:
		return &Integer{Value: int64(utf8.RuneCountInString(v.Value))}, nil
	case *Integer:
		return nil, errors.New("TYPE-0002", map[string]any{"Value": v.Value})
	}
	return &Integer{Value: 0}, nil
}
