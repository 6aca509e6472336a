package interpreter

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/mjkstrm/wistful/pkg/ast"
	"github.com/mjkstrm/wistful/pkg/parser"
	"github.com/mjkstrm/wistful/pkg/runtime"
)

func mustEvaluate(t *testing.T, interp *Interpreter, source string) runtime.Value {
	t.Helper()
	nodes, err := parser.ParseSource(source)
	if err != nil {
		t.Fatalf("parse %q: %v", source, err)
	}
	val, err := interp.EvaluateProgram(nodes)
	if err != nil {
		t.Fatalf("evaluate %q: %v", source, err)
	}
	return val
}

func evaluateErr(t *testing.T, interp *Interpreter, source string) error {
	t.Helper()
	nodes, err := parser.ParseSource(source)
	if err != nil {
		t.Fatalf("parse %q: %v", source, err)
	}
	_, err = interp.EvaluateProgram(nodes)
	if err == nil {
		t.Fatalf("expected evaluation of %q to fail", source)
	}
	return err
}

func number(t *testing.T, val runtime.Value) float64 {
	t.Helper()
	num, ok := val.(runtime.NumberValue)
	if !ok {
		t.Fatalf("expected number, got %#v", val)
	}
	return num.Val
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		source string
		want   float64
	}{
		{"2+2*3", 8},
		{"(2+2)*3", 12},
		{"10 / 4", 2.5},
		{"7 - 2 - 1", 4},
		{"2 ^ 10", 1024},
		{"-2 ^ 2", 4},
		{"-(1 + 2) * 2", -6},
	}
	for _, tc := range cases {
		got := number(t, mustEvaluate(t, New(), tc.source))
		if got != tc.want {
			t.Fatalf("%q = %v, want %v", tc.source, got, tc.want)
		}
	}
}

func TestDivisionByZeroFollowsIEEE(t *testing.T) {
	got := number(t, mustEvaluate(t, New(), "1 / 0"))
	if !math.IsInf(got, 1) {
		t.Fatalf("expected +Inf, got %v", got)
	}
	got = number(t, mustEvaluate(t, New(), "0 / 0"))
	if !math.IsNaN(got) {
		t.Fatalf("expected NaN, got %v", got)
	}
}

func TestAssignmentBindsAndReturnsAssignment(t *testing.T) {
	interp := New()
	val := mustEvaluate(t, interp, "x = 5")
	assign, ok := val.(runtime.AssignmentValue)
	if !ok || assign.Identifier != "x" || !runtime.Equal(assign.Value, runtime.NumberValue{Val: 5}) {
		t.Fatalf("unexpected assignment result %#v", val)
	}
	if got := number(t, mustEvaluate(t, interp, "x + 2")); got != 7 {
		t.Fatalf("x + 2 = %v, want 7", got)
	}
}

func TestReassignmentChangesType(t *testing.T) {
	interp := New()
	mustEvaluate(t, interp, "x = 5\nx = true")
	got, ok := interp.Environment().Get("x")
	if !ok || !runtime.Equal(got, runtime.BooleanValue{Val: true}) {
		t.Fatalf("expected x to be Boolean(true), got %#v", got)
	}
	err := evaluateErr(t, interp, "x + 1")
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
}

func TestStringLiteralAssignment(t *testing.T) {
	interp := New()
	mustEvaluate(t, interp, `greeting = "hi there"`)
	got, _ := interp.Environment().Get("greeting")
	if !runtime.Equal(got, runtime.LiteralValue{Val: "hi there"}) {
		t.Fatalf("unexpected binding %#v", got)
	}
}

func TestUndefinedVariable(t *testing.T) {
	err := evaluateErr(t, New(), "y + 1")
	if !errors.Is(err, ErrUndefinedVariable) {
		t.Fatalf("expected undefined variable, got %v", err)
	}
	var evalErr *EvalError
	if !errors.As(err, &evalErr) || !strings.Contains(evalErr.Error(), `"y"`) {
		t.Fatalf("expected EvalError naming y, got %#v", err)
	}
}

func TestUnassignableValueIsWarning(t *testing.T) {
	var logs bytes.Buffer
	interp := New(WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	val := mustEvaluate(t, interp, "x = if 1 == 1 { }")
	if _, ok := val.(runtime.EmptyValue); !ok {
		t.Fatalf("expected Empty result, got %#v", val)
	}
	if _, ok := interp.Environment().Get("x"); ok {
		t.Fatalf("x must not be bound")
	}
	warnings := interp.Warnings()
	if len(warnings) != 1 || !errors.Is(warnings[0], ErrUnassignableValue) {
		t.Fatalf("expected one unassignable warning, got %v", warnings)
	}
	if !strings.Contains(logs.String(), "unassignable value") {
		t.Fatalf("expected warning in log output, got %q", logs.String())
	}
}

func TestIfElifElseSelectsBranch(t *testing.T) {
	const program = `if x == 15 { y = 1 } elif x == 10 { y = 2 } else { y = 3 }`
	cases := []struct {
		x    float64
		want float64
	}{
		{15, 1},
		{10, 2},
		{3, 3},
	}
	for _, tc := range cases {
		interp := New()
		if err := interp.Environment().Define("x", runtime.NumberValue{Val: tc.x}); err != nil {
			t.Fatalf("define x: %v", err)
		}
		val := mustEvaluate(t, interp, program)
		if _, ok := val.(runtime.EmptyValue); !ok {
			t.Fatalf("if should evaluate to Empty, got %#v", val)
		}
		got, _ := interp.Environment().Get("y")
		if !runtime.Equal(got, runtime.NumberValue{Val: tc.want}) {
			t.Fatalf("x = %v: y = %#v, want %v", tc.x, got, tc.want)
		}
	}
}

func TestIfWithoutMatchingBranchRunsNothing(t *testing.T) {
	interp := New()
	mustEvaluate(t, interp, "x = 1\nif x == 2 { y = 1 } elif x == 3 { y = 2 }")
	if _, ok := interp.Environment().Get("y"); ok {
		t.Fatalf("no branch should have run")
	}
}

func TestEqualityIsTypeSensitive(t *testing.T) {
	interp := New()
	mustEvaluate(t, interp, "x = \"1\"\nif x == 1 { y = 1 } else { y = 2 }")
	got, _ := interp.Environment().Get("y")
	if !runtime.Equal(got, runtime.NumberValue{Val: 2}) {
		t.Fatalf("literal \"1\" must not equal number 1, y = %#v", got)
	}
}

func TestConditionStatementIsBoolean(t *testing.T) {
	val := mustEvaluate(t, New(), "1 == 1")
	if !runtime.Equal(val, runtime.BooleanValue{Val: true}) {
		t.Fatalf("expected Boolean(true), got %#v", val)
	}
}

func TestNegatedAndLiteralConditions(t *testing.T) {
	for _, source := range []string{"-1 == -1", `"a" == "a"`} {
		val := mustEvaluate(t, New(), source)
		if !runtime.Equal(val, runtime.BooleanValue{Val: true}) {
			t.Fatalf("%s: expected Boolean(true), got %#v", source, val)
		}
	}
}

func TestWhileRunsUntilConditionFails(t *testing.T) {
	interp := New()
	mustEvaluate(t, interp, "x = 1\ncount = 0\nwhile x == 1 { x = 2\ncount = count + 1 }")
	got, _ := interp.Environment().Get("count")
	if !runtime.Equal(got, runtime.NumberValue{Val: 1}) {
		t.Fatalf("loop should run exactly once, count = %#v", got)
	}
}

func TestWhileCountsWithNestedIf(t *testing.T) {
	interp := New()
	mustEvaluate(t, interp, `n = 0
done = false
while done == false {
  n = n + 1
  if n == 5 { done = true }
}`)
	got, _ := interp.Environment().Get("n")
	if !runtime.Equal(got, runtime.NumberValue{Val: 5}) {
		t.Fatalf("n = %#v, want 5", got)
	}
}

func TestWhileWithBooleanCondition(t *testing.T) {
	interp := New()
	mustEvaluate(t, interp, "go = true\nwhile go { go = false }")
	got, _ := interp.Environment().Get("go")
	if !runtime.Equal(got, runtime.BooleanValue{Val: false}) {
		t.Fatalf("go = %#v", got)
	}
}

func TestWhileWithoutConditionRunsZeroTimes(t *testing.T) {
	interp := New()
	body := []ast.Node{ast.NewAssignmentExpression(ast.NewIdentifierExpression("x"), ast.NewNumberExpression(1))}
	val, err := interp.Evaluate(ast.NewWhileExpression(nil, body))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if _, ok := val.(runtime.EmptyValue); !ok {
		t.Fatalf("expected Empty, got %#v", val)
	}
	if _, ok := interp.Environment().Get("x"); ok {
		t.Fatalf("body must not run")
	}
}

func TestNonBooleanConditionIsTypeMismatch(t *testing.T) {
	err := evaluateErr(t, New(), "x = 5\nif x { y = 1 }")
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
}

func TestTerminalElseEvaluatedDirectly(t *testing.T) {
	interp := New()
	body := []ast.Node{ast.NewAssignmentExpression(ast.NewIdentifierExpression("x"), ast.NewNumberExpression(9))}
	if _, err := interp.Evaluate(ast.NewElseExpression(nil, body, nil)); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	got, _ := interp.Environment().Get("x")
	if !runtime.Equal(got, runtime.NumberValue{Val: 9}) {
		t.Fatalf("x = %#v", got)
	}
}

func TestEvaluateProgramStopsAtFirstError(t *testing.T) {
	interp := New()
	err := evaluateErr(t, interp, "a = 1\nb + 1\nc = 2")
	if !errors.Is(err, ErrUndefinedVariable) {
		t.Fatalf("expected undefined variable, got %v", err)
	}
	if _, ok := interp.Environment().Get("a"); !ok {
		t.Fatalf("earlier statements keep their effects")
	}
	if _, ok := interp.Environment().Get("c"); ok {
		t.Fatalf("later statements must not run")
	}
}

func TestUnsupportedNodes(t *testing.T) {
	interp := New()
	for _, node := range []ast.Node{nil, ast.NewEOF("")} {
		if _, err := interp.Evaluate(node); !errors.Is(err, ErrEvaluationUnsupported) {
			t.Fatalf("expected unsupported for %#v, got %v", node, err)
		}
	}
}

func TestEmptyProgramIsEmpty(t *testing.T) {
	val, err := New().EvaluateProgram(nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if _, ok := val.(runtime.EmptyValue); !ok {
		t.Fatalf("expected Empty, got %#v", val)
	}
}
