package evaluator

import (
	"strconv"
	"strings"
)

// ValueType names the kind of a runtime value.
type ValueType string

const (
	INTEGER_VAL = "INTEGER"
	TEXT_VAL    = "TEXT"
	LIST_VAL    = "LIST"
)

// Value is the closed set of runtime values: *Integer, *Text and *List.
type Value interface {
	Type() ValueType
	// AsInteger never fails: unparseable text is 0, a list is the sum of
	// its elements.
	AsInteger() int64
	// AsText is the printed form used by "> .".
	AsText() string
	// Inspect renders the value as Riff source would write it.
	Inspect() string
}

// Integer is a 64-bit signed integer value.
type Integer struct {
	Value int64
}

func (i *Integer) Type() ValueType  { return INTEGER_VAL }
func (i *Integer) AsInteger() int64 { return i.Value }
func (i *Integer) AsText() string   { return strconv.FormatInt(i.Value, 10) }
func (i *Integer) Inspect() string  { return i.AsText() }

// Text is a character sequence value.
type Text struct {
	Value string
}

func (t *Text) Type() ValueType { return TEXT_VAL }

func (t *Text) AsInteger() int64 {
	n, err := strconv.ParseInt(t.Value, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func (t *Text) AsText() string  { return t.Value }
func (t *Text) Inspect() string { return `"` + t.Value + `"` }

// List is an ordered, possibly nested, sequence of values.
type List struct {
	Elements []Value
}

func (l *List) Type() ValueType { return LIST_VAL }

func (l *List) AsInteger() int64 {
	var sum int64
	for _, el := range l.Elements {
		sum += el.AsInteger()
	}
	return sum
}

func (l *List) AsText() string {
	parts := make([]string, len(l.Elements))
	for i, el := range l.Elements {
		parts[i] = el.AsText()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (l *List) Inspect() string {
	parts := make([]string, len(l.Elements))
	for i, el := range l.Elements {
		parts[i] = el.Inspect()
	}
	return ",[" + strings.Join(parts, ",") + "]"
}

// CopyValue returns a deep copy of v so that bindings never share list storage.
func CopyValue(v Value) Value {
	switch v := v.(type) {
	case *Integer:
		return &Integer{Value: v.Value}
	case *Text:
		return &Text{Value: v.Value}
	case *List:
		elems := make([]Value, len(v.Elements))
		for i, el := range v.Elements {
			elems[i] = CopyValue(el)
		}
		return &List{Elements: elems}
	default:
		return v
	}
}

// TypeName returns a lowercase type name for error messages.
func TypeName(v Value) string {
	if v == nil {
		return "nothing"
	}
	return strings.ToLower(string(v.Type()))
}
