package interpreter

import (
	"math"

	"github.com/mjkstrm/wistful/pkg/ast"
	"github.com/mjkstrm/wistful/pkg/runtime"
	"github.com/mjkstrm/wistful/pkg/token"
)

func (i *Interpreter) evaluate(node ast.Node) (runtime.Value, error) {
	switch n := node.(type) {
	case *ast.NumberExpression, *ast.NegativeNumberExpression, *ast.BinaryExpression:
		f, err := i.evaluateNumeric(n)
		if err != nil {
			return nil, err
		}
		return runtime.NumberValue{Val: f}, nil
	case *ast.AssignmentExpression:
		return i.evaluateAssignment(n)
	case *ast.LiteralExpression:
		return evaluateLiteral(n), nil
	case *ast.IdentifierExpression:
		return i.lookup(n)
	case *ast.ConditionExpression:
		equal, err := i.evaluateCondition(n)
		if err != nil {
			return nil, err
		}
		return runtime.BooleanValue{Val: equal}, nil
	case *ast.IfExpression:
		return i.evaluateIfExpression(n)
	case *ast.ElseExpression:
		return i.evaluateElseExpression(n)
	case *ast.WhileExpression:
		return i.evaluateWhileExpression(n)
	case nil:
		return nil, evalError(ErrEvaluationUnsupported, nil, "nil node")
	default:
		return nil, evalError(ErrEvaluationUnsupported, node, "%s", node.NodeType())
	}
}

func evaluateLiteral(lit *ast.LiteralExpression) runtime.Value {
	switch lit.Keyword {
	case token.True:
		return runtime.BooleanValue{Val: true}
	case token.False:
		return runtime.BooleanValue{Val: false}
	default:
		return runtime.LiteralValue{Val: lit.Text}
	}
}

func (i *Interpreter) lookup(ident *ast.IdentifierExpression) (runtime.Value, error) {
	val, ok := i.env.Get(ident.Name)
	if !ok {
		return nil, evalError(ErrUndefinedVariable, ident, "%q", ident.Name)
	}
	return val, nil
}

// evaluateAssignment replaces the binding wholesale. A right-hand side with no
// storable form is reported as a warning and leaves the environment untouched.
func (i *Interpreter) evaluateAssignment(assign *ast.AssignmentExpression) (runtime.Value, error) {
	if assign.Identifier == nil {
		return nil, evalError(ErrEvaluationUnsupported, assign, "assignment without identifier")
	}
	value, err := i.evaluate(assign.Expr)
	if err != nil {
		return nil, err
	}
	name := assign.Identifier.Name
	if !runtime.IsStorable(value) {
		i.warn(evalError(ErrUnassignableValue, assign, "%q cannot hold a %s result", name, value.Kind()))
		return runtime.EmptyValue{}, nil
	}
	if err := i.env.Define(name, value); err != nil {
		return nil, evalError(ErrUnassignableValue, assign, "%v", err)
	}
	return runtime.AssignmentValue{Identifier: name, Value: value}, nil
}

// evaluateCondition compares both sides by kind and value.
func (i *Interpreter) evaluateCondition(cond *ast.ConditionExpression) (bool, error) {
	left, err := i.evaluate(cond.Left)
	if err != nil {
		return false, err
	}
	right, err := i.evaluate(cond.Right)
	if err != nil {
		return false, err
	}
	return runtime.Equal(left, right), nil
}

// evaluateNumeric follows IEEE-754 rules, so division by zero yields ±Inf or NaN.
func (i *Interpreter) evaluateNumeric(node ast.Node) (float64, error) {
	switch n := node.(type) {
	case *ast.NumberExpression:
		return n.Value, nil
	case *ast.NegativeNumberExpression:
		v, err := i.evaluateNumeric(n.Operand)
		if err != nil {
			return 0, err
		}
		return -v, nil
	case *ast.IdentifierExpression:
		val, err := i.lookup(n)
		if err != nil {
			return 0, err
		}
		num, ok := val.(runtime.NumberValue)
		if !ok {
			return 0, evalError(ErrTypeMismatch, n, "%q holds a %s, not a number", n.Name, val.Kind())
		}
		return num.Val, nil
	case *ast.BinaryExpression:
		left, err := i.evaluateNumeric(n.Left)
		if err != nil {
			return 0, err
		}
		right, err := i.evaluateNumeric(n.Right)
		if err != nil {
			return 0, err
		}
		switch n.Operator {
		case token.KindAdd:
			return left + right, nil
		case token.KindSubtract:
			return left - right, nil
		case token.KindMultiply:
			return left * right, nil
		case token.KindDivide:
			return left / right, nil
		case token.KindPow:
			return math.Pow(left, right), nil
		default:
			return 0, evalError(ErrEvaluationUnsupported, n, "operator %s", n.Operator)
		}
	default:
		val, err := i.evaluate(node)
		if err != nil {
			return 0, err
		}
		num, ok := val.(runtime.NumberValue)
		if !ok {
			return 0, evalError(ErrTypeMismatch, node, "%s operand in arithmetic", val.Kind())
		}
		return num.Val, nil
	}
}
