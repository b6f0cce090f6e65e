package evaluator

import (
	"strconv"
	"strings"

	"github.com/sambeau/riff/pkg/riff/errors"
)

// augmentOperators may appear immediately before '>' to combine the new value
// with each target's current one.
const augmentOperators = "+-*/^%"

// execSend runs one "expr > targets" or "expr > ." statement.
func execSend(stmt string, env *Environment) error {
	s := strings.TrimSpace(stmt)
	if s == "" {
		return nil
	}

	pos := strings.IndexByte(s, '>')
	if pos < 0 {
		return errors.New("STMT-0001", map[string]any{"Statement": s})
	}
	if pos == 0 {
		return errors.New("STMT-0002", map[string]any{"Statement": s})
	}

	left := strings.TrimSpace(s[:pos])
	expr, op := left, ""
	if last := left[len(left)-1]; strings.IndexByte(augmentOperators, last) >= 0 {
		op = string(last)
		expr = strings.TrimSpace(left[:len(left)-1])
	}
	right := strings.TrimSpace(s[pos+1:])

	val, err := Evaluate(expr, env)
	if err != nil {
		return err
	}

	if right == "." {
		env.logger().PrintLine(val.AsText())
		return nil
	}

	for _, target := range splitTargets(right) {
		if op == "" {
			env.Set(target, CopyValue(val))
			continue
		}
		updated, err := augment(op, env.Get(target), val)
		if err != nil {
			return err
		}
		env.Set(target, updated)
	}
	return nil
}

// splitTargets splits a comma-separated target list, dropping empty names.
func splitTargets(raw string) []string {
	var targets []string
	for _, part := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(part); t != "" {
			targets = append(targets, t)
		}
	}
	return targets
}

// augment combines a target's current value with val under op. cur is
// already a private copy.
func augment(op string, cur, val Value) (Value, error) {
	rhs, ok := val.(*Integer)
	if ok {
		switch c := cur.(type) {
		case *Integer:
			n, err := applyOperator(op, c.Value, rhs.Value)
			if err != nil {
				return nil, err
			}
			return &Integer{Value: n}, nil
		case *List:
			if op == "+" {
				return &List{Elements: append(c.Elements, &Integer{Value: rhs.Value})}, nil
			}
		case *Text:
			if op == "+" {
				return &Text{Value: c.Value + strconv.FormatInt(rhs.Value, 10)}, nil
			}
		}
	}

	return nil, errors.New("TYPE-0003", map[string]any{
		"Op":    op,
		"Left":  TypeName(cur),
		"Right": TypeName(val),
	})
}
