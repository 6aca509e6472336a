package interpreter

import (
	"github.com/mjkstrm/wistful/pkg/ast"
	"github.com/mjkstrm/wistful/pkg/runtime"
)

type branchState int

const (
	stateTestCondition branchState = iota
	stateRunThen
	stateTryNext
	stateDone
)

func (i *Interpreter) evaluateIfExpression(expr *ast.IfExpression) (runtime.Value, error) {
	if err := i.runBranches(stateTestCondition, expr.Condition, expr.ThenBranch, expr.ElseBranch); err != nil {
		return nil, err
	}
	return runtime.EmptyValue{}, nil
}

func (i *Interpreter) evaluateElseExpression(expr *ast.ElseExpression) (runtime.Value, error) {
	start := stateTestCondition
	if expr.IsTerminal() {
		start = stateRunThen
	}
	if err := i.runBranches(start, expr.Condition, expr.ThenBranch, expr.ElseBranch); err != nil {
		return nil, err
	}
	return runtime.EmptyValue{}, nil
}

// runBranches walks the elif/else chain: the first link whose condition holds
// runs its block, a terminal else runs unconditionally.
func (i *Interpreter) runBranches(state branchState, condition ast.Node, body []ast.Node, next *ast.ElseExpression) error {
	for state != stateDone {
		switch state {
		case stateTestCondition:
			holds, err := i.conditionHolds(condition)
			if err != nil {
				return err
			}
			switch {
			case holds:
				state = stateRunThen
			case next != nil:
				state = stateTryNext
			default:
				state = stateDone
			}
		case stateRunThen:
			if err := i.evaluateBlock(body); err != nil {
				return err
			}
			state = stateDone
		case stateTryNext:
			condition, body, next = next.Condition, next.ThenBranch, next.ElseBranch
			if condition == nil {
				state = stateRunThen
			} else {
				state = stateTestCondition
			}
		}
	}
	return nil
}

// evaluateWhileExpression re-tests the condition after every full pass over the
// body. A loop without a condition runs zero times.
func (i *Interpreter) evaluateWhileExpression(loop *ast.WhileExpression) (runtime.Value, error) {
	if loop.Condition == nil {
		return runtime.EmptyValue{}, nil
	}
	for {
		holds, err := i.conditionHolds(loop.Condition)
		if err != nil {
			return nil, err
		}
		if !holds {
			return runtime.EmptyValue{}, nil
		}
		if err := i.evaluateBlock(loop.ThenBranch); err != nil {
			return nil, err
		}
	}
}

// evaluateBlock keeps only the side effects of each statement.
func (i *Interpreter) evaluateBlock(body []ast.Node) error {
	for _, stmt := range body {
		if _, err := i.evaluate(stmt); err != nil {
			return err
		}
	}
	return nil
}

// conditionHolds accepts an equality test or anything evaluating to a boolean.
func (i *Interpreter) conditionHolds(condition ast.Node) (bool, error) {
	switch c := condition.(type) {
	case nil:
		return false, nil
	case *ast.ConditionExpression:
		return i.evaluateCondition(c)
	}
	val, err := i.evaluate(condition)
	if err != nil {
		return false, err
	}
	b, ok := val.(runtime.BooleanValue)
	if !ok {
		return false, evalError(ErrTypeMismatch, condition, "condition evaluated to a %s", val.Kind())
	}
	return b.Val, nil
}
