package parser

import (
	"errors"
	"fmt"

	"github.com/mjkstrm/wistful/pkg/ast"
	"github.com/mjkstrm/wistful/pkg/token"
)

// ErrorKind classifies parse failures.
type ErrorKind int

const (
	// InvalidOperator: an unexpected token where an operator, closing delimiter
	// or primary expression was expected.
	InvalidOperator ErrorKind = iota
	// UnableToParse: a structural violation such as a missing brace, or a
	// scanner failure surfaced while parsing.
	UnableToParse
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidOperator:
		return "InvalidOperator"
	case UnableToParse:
		return "UnableToParse"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ParseError includes a message plus the offending token or partial condition.
type ParseError struct {
	Kind      ErrorKind
	Message   string
	Token     *token.Token
	Condition ast.Node
	Line      int
	// Incomplete is set when the input ended before the construct was closed.
	Incomplete bool
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parser: line %d: %s", e.Line, e.Message)
	}
	return "parser: " + e.Message
}

// IsIncomplete reports whether err is a parse error caused by input ending
// mid-construct, so more input could complete it.
func IsIncomplete(err error) bool {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Incomplete
	}
	return false
}

func invalidOperator(tok token.Token, message string) *ParseError {
	t := tok
	return &ParseError{
		Kind:       InvalidOperator,
		Message:    message,
		Token:      &t,
		Line:       tok.Line,
		Incomplete: tok.Kind == token.KindEOF,
	}
}

func unableToParse(tok token.Token, condition ast.Node, message string) *ParseError {
	t := tok
	return &ParseError{
		Kind:       UnableToParse,
		Message:    message,
		Token:      &t,
		Condition:  condition,
		Line:       tok.Line,
		Incomplete: tok.Kind == token.KindEOF,
	}
}

// describeCondition names a block owner in brace diagnostics.
func describeCondition(condition ast.Node, owner string) string {
	if condition == nil {
		return owner
	}
	return "`" + ast.Format(condition) + "`"
}
