package ast

import (
	"strconv"
	"strings"

	"github.com/mjkstrm/wistful/pkg/token"
)

// Format renders a node back into source-like text for diagnostics.
func Format(node Node) string {
	var b strings.Builder
	writeNode(&b, node)
	return b.String()
}

func writeNode(b *strings.Builder, node Node) {
	switch n := node.(type) {
	case nil:
		b.WriteString("<nil>")
	case *NumberExpression:
		b.WriteString(strconv.FormatFloat(n.Value, 'f', -1, 64))
	case *NegativeNumberExpression:
		b.WriteByte('-')
		if _, ok := n.Operand.(*BinaryExpression); ok {
			b.WriteByte('(')
			writeNode(b, n.Operand)
			b.WriteByte(')')
			return
		}
		writeNode(b, n.Operand)
	case *LiteralExpression:
		if n.Keyword == token.None {
			b.WriteString(strconv.Quote(n.Text))
			return
		}
		b.WriteString(n.Text)
	case *IdentifierExpression:
		b.WriteString(n.Name)
	case *BinaryExpression:
		prec := token.Operator(n.Operator).Precedence()
		writeOperand(b, n.Left, prec, false)
		b.WriteString(" " + n.Operator.String() + " ")
		writeOperand(b, n.Right, prec, true)
	case *AssignmentExpression:
		writeNode(b, n.Identifier)
		b.WriteString(" = ")
		writeNode(b, n.Expr)
	case *ConditionExpression:
		writeNode(b, n.Left)
		b.WriteString(" == ")
		writeNode(b, n.Right)
	case *IfExpression:
		b.WriteString("if ")
		writeNode(b, n.Condition)
		writeBlock(b, n.ThenBranch)
		if n.ElseBranch != nil {
			b.WriteByte(' ')
			writeNode(b, n.ElseBranch)
		}
	case *ElseExpression:
		if n.IsTerminal() {
			b.WriteString("else")
		} else {
			b.WriteString("elif ")
			writeNode(b, n.Condition)
		}
		writeBlock(b, n.ThenBranch)
		if n.ElseBranch != nil {
			b.WriteByte(' ')
			writeNode(b, n.ElseBranch)
		}
	case *WhileExpression:
		b.WriteString("while")
		if n.Condition != nil {
			b.WriteByte(' ')
			writeNode(b, n.Condition)
		}
		writeBlock(b, n.ThenBranch)
	case *EOF:
		b.WriteString("EOF")
	default:
		b.WriteString(string(node.NodeType()))
	}
}

func writeOperand(b *strings.Builder, operand Node, parent token.Precedence, right bool) {
	bin, ok := operand.(*BinaryExpression)
	if !ok {
		writeNode(b, operand)
		return
	}
	prec := token.Operator(bin.Operator).Precedence()
	if prec < parent || (right && prec == parent) {
		b.WriteByte('(')
		writeNode(b, operand)
		b.WriteByte(')')
		return
	}
	writeNode(b, operand)
}

func writeBlock(b *strings.Builder, body []Node) {
	if len(body) == 0 {
		b.WriteString(" { }")
		return
	}
	b.WriteString(" { ")
	for i, stmt := range body {
		if i > 0 {
			b.WriteString("; ")
		}
		writeNode(b, stmt)
	}
	b.WriteString(" }")
}
