package parser

import (
	"errors"
	"fmt"

	"github.com/mjkstrm/wistful/pkg/ast"
	"github.com/mjkstrm/wistful/pkg/lexer"
	"github.com/mjkstrm/wistful/pkg/token"
)

// Parser builds AST nodes from a token stream using precedence climbing. It
// holds exactly one token of lookahead; whitespace never reaches it.
type Parser struct {
	scanner  *lexer.Scanner
	current  token.Token
	maxDepth int
	depth    int
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxDepth bounds expression and block nesting. Zero means unbounded.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		if depth > 0 {
			p.maxDepth = depth
		}
	}
}

// New primes a parser with the first significant token of source.
func New(source string, opts ...Option) (*Parser, error) {
	p := &Parser{scanner: lexer.NewScanner(source)}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseSource is shorthand for New followed by Parse.
func ParseSource(source string, opts ...Option) ([]ast.Node, error) {
	p, err := New(source, opts...)
	if err != nil {
		return nil, err
	}
	return p.Parse()
}

// Parse returns one node per top-level statement. The first error aborts the
// whole parse and no partial result is returned.
func (p *Parser) Parse() ([]ast.Node, error) {
	var nodes []ast.Node
	for !p.current.Is(token.KindEOF) {
		node, err := p.generateAST(token.Default)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (p *Parser) advance() error {
	for {
		tok, ok := p.scanner.Next()
		if !ok {
			return p.lexFailure()
		}
		if tok.Is(token.KindWhitespace) {
			continue
		}
		p.current = tok
		return nil
	}
}

func (p *Parser) lexFailure() error {
	var lexErr *lexer.Error
	if errors.As(p.scanner.Err(), &lexErr) {
		return &ParseError{
			Kind:    UnableToParse,
			Message: lexErr.Message,
			Line:    lexErr.Line,
		}
	}
	return &ParseError{Kind: UnableToParse, Message: "invalid character", Line: p.current.Line}
}

func (p *Parser) enter() error {
	p.depth++
	if p.maxDepth > 0 && p.depth > p.maxDepth {
		return unableToParse(p.current, nil, fmt.Sprintf("nesting deeper than %d levels", p.maxDepth))
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// generateAST parses a primary expression and folds in every following binary
// operator that binds tighter than minPrecedence.
func (p *Parser) generateAST(minPrecedence token.Precedence) (ast.Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for !p.current.Is(token.KindEOF) && p.current.Precedence() > minPrecedence {
		left, err = p.parseBinary(left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) parsePrimary() (ast.Node, error) {
	tok := p.current
	switch tok.Kind {
	case token.KindSubtract:
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseNegated()
		if err != nil {
			return nil, err
		}
		negative := ast.NewNegativeNumberExpression(operand)
		if p.current.Is(token.KindEquals) {
			return p.parseCondition(negative)
		}
		return negative, nil
	case token.KindNumber:
		if err := p.advance(); err != nil {
			return nil, err
		}
		number := ast.NewNumberExpression(tok.Number)
		if p.current.Is(token.KindEquals) {
			return p.parseCondition(number)
		}
		return number, nil
	case token.KindLeftParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.generateAST(token.Default)
		if err != nil {
			return nil, err
		}
		if !p.current.Is(token.KindRightParen) {
			return nil, invalidOperator(p.current, fmt.Sprintf("expected `)` but found %s", p.current))
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return inner, nil
	case token.KindIdentifier:
		return p.parseIdentifier()
	case token.KindLiteral:
		switch tok.Keyword {
		case token.If:
			return p.parseIf()
		case token.Else, token.Elif:
			return p.parseElse()
		case token.While:
			return p.parseWhile()
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		literal := ast.NewLiteralExpression(tok.Text, tok.Keyword)
		if p.current.Is(token.KindEquals) {
			return p.parseCondition(literal)
		}
		return literal, nil
	case token.KindEOF:
		return nil, invalidOperator(tok, "unexpected end of input")
	default:
		return nil, invalidOperator(tok, fmt.Sprintf("bad start of statement: %s", tok))
	}
}

// parseNegated reads the operand of a unary minus. A bare number or identifier
// is taken alone so a following `==` compares the negated value.
func (p *Parser) parseNegated() (ast.Node, error) {
	tok := p.current
	switch tok.Kind {
	case token.KindNumber:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewNumberExpression(tok.Number), nil
	case token.KindIdentifier:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewIdentifierExpression(tok.Text), nil
	default:
		return p.generateAST(token.NegativeValue)
	}
}

func (p *Parser) parseIdentifier() (ast.Node, error) {
	ident := ast.NewIdentifierExpression(p.current.Text)
	if err := p.advance(); err != nil {
		return nil, err
	}
	switch p.current.Kind {
	case token.KindAssignment:
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.generateAST(token.Default)
		if err != nil {
			return nil, err
		}
		return ast.NewAssignmentExpression(ident, expr), nil
	case token.KindEquals:
		return p.parseCondition(ident)
	default:
		return ident, nil
	}
}

// parseCondition expects the lookahead to be `==`.
func (p *Parser) parseCondition(left ast.Node) (ast.Node, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	right, err := p.generateAST(token.Default)
	if err != nil {
		return nil, err
	}
	return ast.NewConditionExpression(left, right), nil
}

func (p *Parser) parseBinary(left ast.Node) (ast.Node, error) {
	op := p.current
	switch op.Kind {
	case token.KindAdd, token.KindSubtract, token.KindMultiply, token.KindDivide, token.KindPow:
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.generateAST(op.Precedence())
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryExpression(op.Kind, left, right), nil
	default:
		return nil, invalidOperator(op, fmt.Sprintf("bad token %s", op))
	}
}
