package token

// Precedence orders operator binding strength for precedence climbing.
type Precedence int

const (
	Default Precedence = iota
	AddSubtract
	MultiplyDivide
	Power
	NegativeValue
)

func (p Precedence) String() string {
	switch p {
	case Default:
		return "Default"
	case AddSubtract:
		return "AddSubtract"
	case MultiplyDivide:
		return "MultiplyDivide"
	case Power:
		return "Power"
	case NegativeValue:
		return "NegativeValue"
	default:
		return "Unknown"
	}
}
