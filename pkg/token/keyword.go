package token

// Keyword tags literal tokens. None marks ordinary string literals.
type Keyword int

const (
	None Keyword = iota
	True
	False
	If
	EndIf
	Else
	Elif
	While
	Break
)

// keywords is the reserved-word table. endif and break are reserved but no
// grammar rule consumes them.
var keywords = map[string]Keyword{
	"true":  True,
	"false": False,
	"if":    If,
	"endif": EndIf,
	"else":  Else,
	"elif":  Elif,
	"while": While,
	"break": Break,
}

// LookupKeyword returns the keyword for an exact reserved-word match.
func LookupKeyword(word string) (Keyword, bool) {
	kw, ok := keywords[word]
	return kw, ok
}

func (k Keyword) String() string {
	switch k {
	case None:
		return "None"
	case True:
		return "True"
	case False:
		return "False"
	case If:
		return "If"
	case EndIf:
		return "EndIf"
	case Else:
		return "Else"
	case Elif:
		return "Elif"
	case While:
		return "While"
	case Break:
		return "Break"
	default:
		return "Unknown"
	}
}
