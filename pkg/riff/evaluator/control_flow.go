package evaluator

import (
	"fortio.org/log"
	"github.com/sambeau/riff/pkg/riff/errors"
)

type clauseKind int

const (
	ifClause     clauseKind = iota // ?cond{...}
	elseIfClause                   // !?cond{...}
	elseClause                     // !!{...}
)

// runIfChain executes the first clause of a ?/!?/!! chain whose condition is
// truthy. Every condition in the chain is evaluated, so a failing condition
// after the matched clause still stops the program; later bodies never run.
// The chain ends at the first character that does not open a clause.
func (ex *executor) runIfChain(start, end int) (int, error) {
	i := start
	matched := false

chain:
	for {
		i = ex.skipSpace(i, end)
		if i >= end {
			break
		}

		clauseStart := i
		var kind clauseKind
		switch {
		case ex.src[i] == '?':
			kind = ifClause
			i++
		case ex.src[i] == '!' && i+1 < end && ex.src[i+1] == '?':
			kind = elseIfClause
			i += 2
		case ex.src[i] == '!' && i+1 < end && ex.src[i+1] == '!':
			kind = elseClause
			i += 2
		default:
			break chain
		}

		i = ex.skipSpace(i, end)
		truth := kind == elseClause
		if kind != elseClause {
			var cond string
			cond, i = ex.scanToBrace(i, end)
			val, err := Evaluate(cond, ex.env)
			if err != nil {
				return i, ex.locate(err, clauseStart)
			}
			truth = val.AsInteger() != 0
			log.LogVf("riff: clause %q -> %v", cond, truth)
		}

		if i >= end || ex.src[i] != '{' {
			return i, ex.locate(errors.New("BLOCK-0003", nil), clauseStart)
		}
		bodyStart, bodyEnd, next, err := ex.extractBlock(i, end)
		if err != nil {
			return next, err
		}
		i = next

		if !matched && truth {
			matched = true
			if err := ex.runBlock(bodyStart, bodyEnd); err != nil {
				return i, err
			}
		}

		peek := ex.skipSpace(i, end)
		if peek >= end || !ex.isClauseOpener(peek, end) {
			break
		}
	}
	return i, nil
}

// runLoop handles *N{...} and *?cond{...}. Both set the loop variable to the
// 0-based iteration count in the shared environment, so nested loops
// overwrite the same binding.
func (ex *executor) runLoop(start, end int) (int, error) {
	i := ex.skipSpace(start+1, end)

	if i < end && ex.src[i] == '?' {
		i = ex.skipSpace(i+1, end)
		condStart := i
		cond, brace := ex.scanToBrace(i, end)
		if brace >= end {
			return brace, ex.locate(errors.New("BLOCK-0002", nil), start)
		}
		bodyStart, bodyEnd, next, err := ex.extractBlock(brace, end)
		if err != nil {
			return next, err
		}

		log.LogVf("riff: while %q", cond)
		for idx := int64(0); ; idx++ {
			ex.env.Set(LoopVariable, &Integer{Value: idx})
			val, err := Evaluate(cond, ex.env)
			if err != nil {
				return next, ex.locate(err, condStart)
			}
			if val.AsInteger() == 0 {
				break
			}
			if err := ex.runBlock(bodyStart, bodyEnd); err != nil {
				return next, err
			}
		}
		return next, nil
	}

	countStart := i
	countExpr, brace := ex.scanToBrace(i, end)
	val, err := Evaluate(countExpr, ex.env)
	if err != nil {
		return brace, ex.locate(err, countStart)
	}
	if brace >= end {
		return brace, ex.locate(errors.New("BLOCK-0001", nil), start)
	}
	bodyStart, bodyEnd, next, err := ex.extractBlock(brace, end)
	if err != nil {
		return next, err
	}

	n := val.AsInteger()
	log.LogVf("riff: loop %q x%d", countExpr, n)
	for idx := int64(0); idx < n; idx++ {
		ex.env.Set(LoopVariable, &Integer{Value: idx})
		if err := ex.runBlock(bodyStart, bodyEnd); err != nil {
			return next, err
		}
	}
	return next, nil
}
