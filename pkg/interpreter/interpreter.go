package interpreter

import (
	"context"
	"io"
	"log/slog"

	"github.com/mjkstrm/wistful/pkg/ast"
	"github.com/mjkstrm/wistful/pkg/runtime"
)

// Interpreter walks AST nodes against the environment it owns. It is not safe
// for concurrent use.
type Interpreter struct {
	env      *runtime.Environment
	logger   *slog.Logger
	warnings []error
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger routes statement traces and warnings to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// New returns an interpreter with an empty environment.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		env:    runtime.NewEnvironment(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Environment returns the interpreter's variable store.
func (i *Interpreter) Environment() *runtime.Environment {
	return i.env
}

// Warnings returns the non-fatal problems reported so far, oldest first.
func (i *Interpreter) Warnings() []error {
	return append([]error(nil), i.warnings...)
}

// Evaluate runs one top-level statement.
func (i *Interpreter) Evaluate(node ast.Node) (runtime.Value, error) {
	if node != nil && i.logger.Enabled(context.Background(), slog.LevelDebug) {
		i.logger.Debug("evaluate", "node", node.NodeType(), "source", ast.Format(node))
	}
	return i.evaluate(node)
}

// EvaluateProgram runs statements in order and returns the last result. It
// stops at the first failing statement; earlier side effects remain.
func (i *Interpreter) EvaluateProgram(nodes []ast.Node) (runtime.Value, error) {
	var last runtime.Value = runtime.EmptyValue{}
	for _, node := range nodes {
		val, err := i.Evaluate(node)
		if err != nil {
			return nil, err
		}
		last = val
	}
	return last, nil
}

func (i *Interpreter) warn(err error) {
	i.warnings = append(i.warnings, err)
	i.logger.Warn("statement produced no binding", "error", err)
}
