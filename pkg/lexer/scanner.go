package lexer

import (
	"fmt"
	"strconv"
	"unicode"

	"github.com/mjkstrm/wistful/pkg/token"
)

// Error describes why a scanner stopped before reaching the end of input.
type Error struct {
	Char    rune
	Line    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Scanner turns source text into tokens on demand. It is forward-only: once it
// terminates it stays terminated, and scanning again needs a new Scanner.
type Scanner struct {
	source []rune
	cursor int
	line   int
	done   bool
	err    *Error
}

// NewScanner creates a scanner over the given source.
func NewScanner(source string) *Scanner {
	return &Scanner{
		source: []rune(source),
		line:   1,
	}
}

// Err returns the reason for termination, or nil if the scanner has not
// terminated on bad input.
func (s *Scanner) Err() error {
	if s.err == nil {
		return nil
	}
	return s.err
}

// Next returns the next token. ok is false when the scanner terminates on input
// it cannot tokenize; the end of input is reported as an EOF token instead.
func (s *Scanner) Next() (tok token.Token, ok bool) {
	if s.done {
		return token.Token{}, false
	}
	if s.cursor >= len(s.source) {
		return s.at(token.EOF()), true
	}

	ch := s.source[s.cursor]
	line := s.line
	s.cursor++

	switch {
	case isDigit(ch):
		return s.scanNumber(ch, line)
	case ch >= 'a' && ch <= 'z':
		return s.scanWord(ch, line)
	}

	switch ch {
	case '"':
		return s.scanString(line)
	case '+':
		return s.at(token.Operator(token.KindAdd)), true
	case '-':
		return s.at(token.Operator(token.KindSubtract)), true
	case '*':
		return s.at(token.Operator(token.KindMultiply)), true
	case '/':
		return s.at(token.Operator(token.KindDivide)), true
	case '^':
		return s.at(token.Operator(token.KindPow)), true
	case '(':
		return s.at(token.Operator(token.KindLeftParen)), true
	case ')':
		return s.at(token.Operator(token.KindRightParen)), true
	case '{':
		return s.at(token.Operator(token.KindLeftBrace)), true
	case '}':
		return s.at(token.Operator(token.KindRightBrace)), true
	case '=':
		if s.peek() == '=' {
			s.cursor++
			return s.at(token.Operator(token.KindEquals)), true
		}
		return s.at(token.Operator(token.KindAssignment)), true
	case ' ', '\t', '\r':
		return s.at(token.Whitespace()), true
	case '\n':
		tok := s.at(token.Whitespace())
		s.line++
		return tok, true
	case 0:
		s.cursor = len(s.source)
		return s.at(token.EOF()), true
	default:
		return s.fail(ch, line, fmt.Sprintf("unexpected character %q", ch))
	}
}

func (s *Scanner) scanNumber(first rune, line int) (token.Token, bool) {
	start := s.cursor - 1
	seenPoint := false
	for s.cursor < len(s.source) {
		ch := s.source[s.cursor]
		if isDigit(ch) {
			s.cursor++
			continue
		}
		if ch == '.' && !seenPoint {
			seenPoint = true
			s.cursor++
			continue
		}
		if ch == '(' {
			return s.fail(ch, line, fmt.Sprintf("malformed number %s(", string(s.source[start:s.cursor])))
		}
		break
	}
	text := string(s.source[start:s.cursor])
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return s.fail(first, line, fmt.Sprintf("malformed number %s", text))
	}
	tok := token.Number(value)
	tok.Line = line
	return tok, true
}

// scanWord reads up to the next whitespace, so `x+1` is a single identifier.
func (s *Scanner) scanWord(first rune, line int) (token.Token, bool) {
	start := s.cursor - 1
	for s.cursor < len(s.source) && !unicode.IsSpace(s.source[s.cursor]) {
		s.cursor++
	}
	word := string(s.source[start:s.cursor])
	var tok token.Token
	if kw, ok := token.LookupKeyword(word); ok {
		tok = token.Literal(word, kw)
	} else {
		tok = token.Identifier(word)
	}
	tok.Line = line
	return tok, true
}

func (s *Scanner) scanString(line int) (token.Token, bool) {
	start := s.cursor
	for s.cursor < len(s.source) && s.source[s.cursor] != '"' {
		if s.source[s.cursor] == '\n' {
			s.line++
		}
		s.cursor++
	}
	text := string(s.source[start:s.cursor])
	if s.cursor < len(s.source) {
		s.cursor++ // closing quote
	}
	tok := token.Literal(text, token.None)
	tok.Line = line
	return tok, true
}

func (s *Scanner) at(tok token.Token) token.Token {
	tok.Line = s.line
	return tok
}

func (s *Scanner) fail(ch rune, line int, message string) (token.Token, bool) {
	s.done = true
	s.err = &Error{Char: ch, Line: line, Message: message}
	return token.Token{}, false
}

func (s *Scanner) peek() rune {
	if s.cursor >= len(s.source) {
		return 0
	}
	return s.source[s.cursor]
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
