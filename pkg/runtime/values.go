package runtime

import (
	"fmt"
	"strconv"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNumber Kind = iota
	KindLiteral
	KindBoolean
	KindAssignment
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindLiteral:
		return "literal"
	case KindBoolean:
		return "boolean"
	case KindAssignment:
		return "assignment"
	case KindEmpty:
		return "empty"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for every evaluation result.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Storable values
//-----------------------------------------------------------------------------

type NumberValue struct {
	Val float64
}

func (v NumberValue) Kind() Kind { return KindNumber }

type LiteralValue struct {
	Val string
}

func (v LiteralValue) Kind() Kind { return KindLiteral }

type BooleanValue struct {
	Val bool
}

func (v BooleanValue) Kind() Kind { return KindBoolean }

//-----------------------------------------------------------------------------
// Statement results
//-----------------------------------------------------------------------------

// AssignmentValue reports a completed binding.
type AssignmentValue struct {
	Identifier string
	Value      Value
}

func (v AssignmentValue) Kind() Kind { return KindAssignment }

// EmptyValue is produced by control-flow statements.
type EmptyValue struct{}

func (EmptyValue) Kind() Kind { return KindEmpty }

// IsStorable reports whether v may be bound to a variable.
func IsStorable(v Value) bool {
	switch v.(type) {
	case NumberValue, LiteralValue, BooleanValue:
		return true
	default:
		return false
	}
}

// Equal compares two values structurally: kind and payload must both match, so
// Number(5) and Literal("5") differ. NaN is never equal to itself.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case NumberValue:
		bv, ok := b.(NumberValue)
		return ok && av.Val == bv.Val
	case LiteralValue:
		bv, ok := b.(LiteralValue)
		return ok && av.Val == bv.Val
	case BooleanValue:
		bv, ok := b.(BooleanValue)
		return ok && av.Val == bv.Val
	case AssignmentValue:
		bv, ok := b.(AssignmentValue)
		return ok && av.Identifier == bv.Identifier && Equal(av.Value, bv.Value)
	case EmptyValue:
		_, ok := b.(EmptyValue)
		return ok
	default:
		return false
	}
}

// Format renders a value the way the REPL prints it.
func Format(v Value) string {
	switch val := v.(type) {
	case NumberValue:
		return strconv.FormatFloat(val.Val, 'f', -1, 64)
	case LiteralValue:
		return val.Val
	case BooleanValue:
		if val.Val {
			return "true"
		}
		return "false"
	case AssignmentValue:
		return fmt.Sprintf("%s = %s", val.Identifier, Format(val.Value))
	case EmptyValue:
		return ""
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("[%s]", v.Kind())
	}
}
