package tests

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"
)

// refTerm is a left-to-right reference evaluator over a flat token list.
// Precedence: ^ over * / % over + -, with ^ right-associative.
type refParser struct {
	toks []string
	pos  int
	err  string
}

func (p *refParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *refParser) next() string {
	tok := p.peek()
	p.pos++
	return tok
}

func (p *refParser) sum() int64 {
	v := p.product()
	for p.peek() == "+" || p.peek() == "-" {
		op := p.next()
		rhs := p.product()
		if op == "+" {
			v += rhs
		} else {
			v -= rhs
		}
	}
	return v
}

func (p *refParser) product() int64 {
	v := p.power()
	for p.peek() == "*" || p.peek() == "/" || p.peek() == "%" {
		op := p.next()
		rhs := p.power()
		switch op {
		case "*":
			v *= rhs
		case "/":
			if rhs == 0 {
				if p.err == "" {
					p.err = "EVAL-0001"
				}
				return 0
			}
			v /= rhs
		case "%":
			if rhs == 0 {
				if p.err == "" {
					p.err = "EVAL-0002"
				}
				return 0
			}
			v %= rhs
		}
	}
	return v
}

func (p *refParser) power() int64 {
	base, _ := strconv.ParseInt(p.next(), 10, 64)
	if p.peek() != "^" {
		return base
	}
	p.next()
	exp := p.power()
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		result *= base
	}
	return result
}

// randomExpression builds "n op n op n ..." from single digits. A '^' is
// never followed by another '^', so exponents stay single digits.
func randomExpression(r *rand.Rand) []string {
	ops := []string{"+", "-", "*", "/", "%", "^"}
	n := 1 + r.IntN(6)
	toks := []string{strconv.Itoa(r.IntN(10))}
	prev := ""
	for i := 0; i < n; i++ {
		op := ops[r.IntN(len(ops))]
		if op == "^" && prev == "^" {
			op = "+"
		}
		toks = append(toks, op, strconv.Itoa(r.IntN(10)))
		prev = op
	}
	return toks
}

func TestArithmeticMatchesReference(t *testing.T) {
	r := rand.New(rand.NewPCG(2024, 7))

	for i := 0; i < 500; i++ {
		toks := randomExpression(r)
		expr := strings.Join(toks, " ")

		ref := &refParser{toks: toks}
		want := ref.sum()

		lines, err := runProgram(t, expr+" > .")
		if ref.err != "" {
			if got := errorCode(err); got != ref.err {
				t.Errorf("%s: error = %v, want %s", expr, err, ref.err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", expr, err)
			continue
		}
		if len(lines) != 1 || lines[0] != fmt.Sprint(want) {
			t.Errorf("%s = %q, want %d", expr, lines, want)
		}
	}
}
