package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mjkstrm/wistful/pkg/ast"
	"github.com/mjkstrm/wistful/pkg/interpreter"
	"github.com/mjkstrm/wistful/pkg/parser"
	"github.com/mjkstrm/wistful/pkg/runtime"
)

// ErrStatementsFailed is returned under the continue policy when at least one
// statement failed.
var ErrStatementsFailed = errors.New("failed")

// StatementResult is the outcome of one top-level statement.
type StatementResult struct {
	Node  ast.Node
	Value runtime.Value
	Err   error
}

// Result collects the outcome of running one source.
type Result struct {
	Source     string
	Statements []StatementResult
	Failures   int
}

// Runner parses sources and evaluates them, statement by statement, on one
// shared interpreter.
type Runner struct {
	interp   *interpreter.Interpreter
	policy   ErrorPolicy
	maxDepth int
	logger   *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithPolicy sets what happens after a failing statement.
func WithPolicy(policy ErrorPolicy) RunnerOption {
	return func(r *Runner) {
		if policy.IsValid() {
			r.policy = policy
		}
	}
}

// WithMaxDepth bounds parser nesting. Zero means unbounded.
func WithMaxDepth(depth int) RunnerOption {
	return func(r *Runner) { r.maxDepth = depth }
}

// WithLogger sets the logger shared by the runner and its interpreter.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner returns a runner with a fresh interpreter.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		policy: OnErrorStop,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.interp = interpreter.New(interpreter.WithLogger(r.logger))
	return r
}

// Interpreter exposes the shared interpreter, mainly for inspecting bindings.
func (r *Runner) Interpreter() *interpreter.Interpreter {
	return r.interp
}

// RunSource parses src and evaluates every statement. A parse error aborts
// before anything runs. Under the stop policy the first failing statement ends
// the run; under continue every statement runs and ErrStatementsFailed reports
// that some failed.
func (r *Runner) RunSource(src Source) (*Result, error) {
	res := &Result{Source: src.Name}
	nodes, err := parser.ParseSource(src.Text, parser.WithMaxDepth(r.maxDepth))
	if err != nil {
		return res, fmt.Errorf("%s: %w", src.Name, err)
	}
	r.logger.Debug("parsed source", "source", src.Name, "statements", len(nodes))

	for _, node := range nodes {
		val, err := r.interp.Evaluate(node)
		res.Statements = append(res.Statements, StatementResult{Node: node, Value: val, Err: err})
		if err == nil {
			continue
		}
		res.Failures++
		r.logger.Debug("statement failed", "source", src.Name, "statement", ast.Format(node), "error", err)
		if r.policy == OnErrorStop {
			return res, fmt.Errorf("%s: %w", src.Name, err)
		}
	}
	if res.Failures > 0 {
		return res, fmt.Errorf("%s: %d %s %w", src.Name, res.Failures, plural(res.Failures, "statement", "statements"), ErrStatementsFailed)
	}
	return res, nil
}

// RunProject evaluates every prelude and then main on the shared interpreter.
// A failing prelude stops the project under either policy.
func (r *Runner) RunProject(ctx context.Context, loader *Loader) ([]*Result, error) {
	prelude, err := loader.Prelude(ctx)
	if err != nil {
		return nil, err
	}
	mainSrc, err := loader.Main()
	if err != nil {
		return nil, err
	}

	var results []*Result
	for _, src := range prelude {
		r.logger.Info("running prelude", "source", src.Name)
		res, err := r.RunSource(src)
		results = append(results, res)
		if err != nil {
			return results, fmt.Errorf("prelude: %w", err)
		}
	}
	res, err := r.RunSource(mainSrc)
	results = append(results, res)
	return results, err
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
