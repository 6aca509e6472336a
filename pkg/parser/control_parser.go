package parser

import (
	"fmt"

	"github.com/mjkstrm/wistful/pkg/ast"
	"github.com/mjkstrm/wistful/pkg/token"
)

func (p *Parser) parseIf() (ast.Node, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	condition, err := p.generateAST(token.Default)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock(condition, "If")
	if err != nil {
		return nil, err
	}
	elseBranch, err := p.parseElseChain()
	if err != nil {
		return nil, err
	}
	return ast.NewIfExpression(condition, body, elseBranch), nil
}

func (p *Parser) parseElse() (ast.Node, error) {
	link, err := p.parseElseLink()
	if err != nil {
		return nil, err
	}
	return link, nil
}

// parseElseChain attaches a following elif/else, if the lookahead starts one.
func (p *Parser) parseElseChain() (*ast.ElseExpression, error) {
	if !p.current.IsKeyword(token.Else) && !p.current.IsKeyword(token.Elif) {
		return nil, nil
	}
	return p.parseElseLink()
}

func (p *Parser) parseElseLink() (*ast.ElseExpression, error) {
	isElif := p.current.IsKeyword(token.Elif)
	if err := p.advance(); err != nil {
		return nil, err
	}

	var condition ast.Node
	owner := "Else"
	if isElif {
		cond, err := p.generateAST(token.Default)
		if err != nil {
			return nil, err
		}
		condition = cond
		owner = "Elif"
	}

	body, err := p.parseBlock(condition, owner)
	if err != nil {
		return nil, err
	}

	if condition == nil {
		if p.current.IsKeyword(token.Else) || p.current.IsKeyword(token.Elif) {
			return nil, unableToParse(p.current, nil, fmt.Sprintf("%s after the final else branch", p.current.Text))
		}
		return ast.NewElseExpression(nil, body, nil), nil
	}

	next, err := p.parseElseChain()
	if err != nil {
		return nil, err
	}
	return ast.NewElseExpression(condition, body, next), nil
}

func (p *Parser) parseWhile() (ast.Node, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	var condition ast.Node
	if !p.current.Is(token.KindLeftBrace) {
		cond, err := p.generateAST(token.Default)
		if err != nil {
			return nil, err
		}
		condition = cond
	}
	body, err := p.parseBlock(condition, "While")
	if err != nil {
		return nil, err
	}
	return ast.NewWhileExpression(condition, body), nil
}

// parseBlock consumes `{ statement* }`. The closing brace is checked before
// every statement so an empty block is fine.
func (p *Parser) parseBlock(condition ast.Node, owner string) ([]ast.Node, error) {
	if !p.current.Is(token.KindLeftBrace) {
		return nil, unableToParse(p.current, condition,
			fmt.Sprintf("missing opening brace for %s", describeCondition(condition, owner)))
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	var body []ast.Node
	for {
		switch p.current.Kind {
		case token.KindRightBrace:
			if err := p.advance(); err != nil {
				return nil, err
			}
			return body, nil
		case token.KindEOF:
			return nil, unableToParse(p.current, condition,
				fmt.Sprintf("missing closing brace for %s", describeCondition(condition, owner)))
		}
		stmt, err := p.generateAST(token.Default)
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
}
