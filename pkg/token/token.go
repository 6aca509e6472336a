package token

import (
	"fmt"
	"strconv"
)

// Kind identifies the lexical category of a token.
type Kind int

const (
	KindEOF Kind = iota
	KindWhitespace
	KindAdd
	KindSubtract
	KindMultiply
	KindDivide
	KindPow
	KindAssignment
	KindEquals
	KindLeftParen
	KindRightParen
	KindLeftBrace
	KindRightBrace
	KindNumber
	KindIdentifier
	KindLiteral
)

func (k Kind) String() string {
	switch k {
	case KindEOF:
		return "EOF"
	case KindWhitespace:
		return "whitespace"
	case KindAdd:
		return "+"
	case KindSubtract:
		return "-"
	case KindMultiply:
		return "*"
	case KindDivide:
		return "/"
	case KindPow:
		return "^"
	case KindAssignment:
		return "="
	case KindEquals:
		return "=="
	case KindLeftParen:
		return "("
	case KindRightParen:
		return ")"
	case KindLeftBrace:
		return "{"
	case KindRightBrace:
		return "}"
	case KindNumber:
		return "number"
	case KindIdentifier:
		return "identifier"
	case KindLiteral:
		return "literal"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Token is an immutable lexical unit. Only the payload fields matching Kind are set.
type Token struct {
	Kind    Kind
	Number  float64
	Text    string
	Keyword Keyword
	Line    int
}

func EOF() Token { return Token{Kind: KindEOF} }

func Whitespace() Token { return Token{Kind: KindWhitespace} }

func Operator(kind Kind) Token { return Token{Kind: kind} }

func Number(value float64) Token { return Token{Kind: KindNumber, Number: value} }

func Identifier(name string) Token { return Token{Kind: KindIdentifier, Text: name} }

func Literal(text string, keyword Keyword) Token {
	return Token{Kind: KindLiteral, Text: text, Keyword: keyword}
}

// Is reports whether the token has the given kind.
func (t Token) Is(kind Kind) bool { return t.Kind == kind }

// IsKeyword reports whether the token is a reserved-word literal of the given keyword.
func (t Token) IsKeyword(kw Keyword) bool {
	return t.Kind == KindLiteral && t.Keyword == kw
}

// Precedence maps operators to their binding level; everything else is Default.
func (t Token) Precedence() Precedence {
	switch t.Kind {
	case KindAdd, KindSubtract:
		return AddSubtract
	case KindMultiply, KindDivide:
		return MultiplyDivide
	case KindPow:
		return Power
	default:
		return Default
	}
}

// SameAs compares kind and payload, ignoring the source line.
func (t Token) SameAs(other Token) bool {
	t.Line, other.Line = 0, 0
	return t == other
}

func (t Token) String() string {
	switch t.Kind {
	case KindNumber:
		return strconv.FormatFloat(t.Number, 'f', -1, 64)
	case KindIdentifier:
		return t.Text
	case KindLiteral:
		if t.Keyword == None {
			return strconv.Quote(t.Text)
		}
		return t.Text
	default:
		return t.Kind.String()
	}
}
