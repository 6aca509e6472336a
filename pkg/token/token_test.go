package token

import "testing"

func TestPrecedenceLadder(t *testing.T) {
	cases := map[Kind]Precedence{
		KindAdd:        AddSubtract,
		KindSubtract:   AddSubtract,
		KindMultiply:   MultiplyDivide,
		KindDivide:     MultiplyDivide,
		KindPow:        Power,
		KindEquals:     Default,
		KindRightBrace: Default,
		KindEOF:        Default,
	}
	for kind, want := range cases {
		if got := Operator(kind).Precedence(); got != want {
			t.Fatalf("%s precedence = %s, want %s", kind, got, want)
		}
	}
	if !(Default < AddSubtract && AddSubtract < MultiplyDivide && MultiplyDivide < Power && Power < NegativeValue) {
		t.Fatalf("precedence levels out of order")
	}
}

func TestSameAsIgnoresLine(t *testing.T) {
	a := Number(2)
	a.Line = 3
	if !a.SameAs(Number(2)) {
		t.Fatalf("tokens on different lines should compare equal")
	}
	if a.SameAs(Number(3)) {
		t.Fatalf("payload must be compared")
	}
	if Literal("if", If).SameAs(Identifier("if")) {
		t.Fatalf("kind must be compared")
	}
}

func TestLookupKeyword(t *testing.T) {
	if kw, ok := LookupKeyword("elif"); !ok || kw != Elif {
		t.Fatalf("LookupKeyword(elif) = %s, %v", kw, ok)
	}
	if _, ok := LookupKeyword("If"); ok {
		t.Fatalf("keywords are case sensitive")
	}
}

func TestTokenString(t *testing.T) {
	cases := []struct {
		tok  Token
		want string
	}{
		{Number(2.5), "2.5"},
		{Identifier("x"), "x"},
		{Literal("hi", None), `"hi"`},
		{Literal("true", True), "true"},
		{Operator(KindEquals), "=="},
		{EOF(), "EOF"},
	}
	for _, tc := range cases {
		if got := tc.tok.String(); got != tc.want {
			t.Fatalf("String() = %q, want %q", got, tc.want)
		}
	}
}
