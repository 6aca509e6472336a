package interpreter

import (
	"errors"
	"fmt"

	"github.com/mjkstrm/wistful/pkg/ast"
)

var (
	// ErrUndefinedVariable: an identifier was read before any assignment.
	ErrUndefinedVariable = errors.New("undefined variable")
	// ErrUnassignableValue: the right-hand side has no storable form.
	ErrUnassignableValue = errors.New("unassignable value")
	// ErrEvaluationUnsupported: the node kind has no evaluation rule.
	ErrEvaluationUnsupported = errors.New("could not evaluate")
	// ErrTypeMismatch: an operand had the wrong dynamic type.
	ErrTypeMismatch = errors.New("type mismatch")
)

// EvalError wraps one of the sentinel errors with the failing construct.
type EvalError struct {
	Err    error
	Node   ast.Node
	Detail string
}

func (e *EvalError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Detail)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

func evalError(err error, node ast.Node, format string, args ...any) *EvalError {
	return &EvalError{Err: err, Node: node, Detail: fmt.Sprintf(format, args...)}
}
