package evaluator

import (
	"github.com/sambeau/riff/pkg/riff/errors"
)

// precedence orders operators for the infix to postfix conversion.
// Comparisons share the additive level; parentheses only delimit.
func precedence(op string) int {
	switch op {
	case "^":
		return 4
	case "*", "/", "%":
		return 3
	case "+", "-", "=", "<", ">", "<=", ">=":
		return 2
	case "||", "&&":
		return 1
	case "(", ")":
		return 0
	default:
		return 1
	}
}

// toPostfix is a shunting-yard conversion. "^" is right-associative, every
// other operator is left-associative.
func toPostfix(tokens []token) []token {
	var out []token
	var ops []string

	for _, t := range tokens {
		switch {
		case t.kind == numberToken:
			out = append(out, t)
		case t.op == "(":
			ops = append(ops, t.op)
		case t.op == ")":
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				ops = ops[:len(ops)-1]
				if top == "(" {
					break
				}
				out = append(out, token{kind: operatorToken, op: top})
			}
		default:
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				pt, po := precedence(top), precedence(t.op)
				if pt > po || (pt == po && t.op != "^") {
					out = append(out, token{kind: operatorToken, op: top})
					ops = ops[:len(ops)-1]
					continue
				}
				break
			}
			ops = append(ops, t.op)
		}
	}

	for i := len(ops) - 1; i >= 0; i-- {
		out = append(out, token{kind: operatorToken, op: ops[i]})
	}
	return out
}

// evalPostfix runs the postfix sequence on an integer stack.
func evalPostfix(postfix []token) (int64, *errors.RiffError) {
	var stack []int64

	for _, t := range postfix {
		if t.kind == numberToken {
			stack = append(stack, t.num)
			continue
		}

		if len(stack) < 2 {
			return 0, errors.New("EVAL-0003", map[string]any{"Op": t.op})
		}
		b := stack[len(stack)-1]
		a := stack[len(stack)-2]
		stack = stack[:len(stack)-2]

		res, err := applyOperator(t.op, a, b)
		if err != nil {
			return 0, err
		}
		stack = append(stack, res)
	}

	if len(stack) == 0 {
		return 0, errors.New("EVAL-0004", nil)
	}
	return stack[len(stack)-1], nil
}

// applyOperator computes a op b. It also backs the integer cases of
// augmented sends.
func applyOperator(op string, a, b int64) (int64, *errors.RiffError) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, errors.New("EVAL-0001", nil)
		}
		return a / b, nil
	case "%":
		if b == 0 {
			return 0, errors.New("EVAL-0002", nil)
		}
		return a % b, nil
	case "^":
		return power(a, b), nil
	case "=":
		return boolToInt(a == b), nil
	case "<":
		return boolToInt(a < b), nil
	case ">":
		return boolToInt(a > b), nil
	case "<=":
		return boolToInt(a <= b), nil
	case ">=":
		return boolToInt(a >= b), nil
	case "||":
		return boolToInt(a != 0 || b != 0), nil
	case "&&":
		return boolToInt(a != 0 && b != 0), nil
	default:
		return 0, errors.New("EVAL-0005", map[string]any{"Op": op})
	}
}

// power raises base to exp by squaring with wrapping arithmetic. The exponent
// is taken as an unsigned 32-bit count; negative exponents are not guarded.
func power(base, exp int64) int64 {
	e := uint32(exp)
	result := int64(1)
	for e > 0 {
		if e&1 == 1 {
			result *= base
		}
		base *= base
		e >>= 1
	}
	return result
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
