package runtime

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotStorable is returned when binding a value that has no variable form.
var ErrNotStorable = errors.New("value cannot be stored in a variable")

// Environment is the single flat variable namespace of one interpreter.
type Environment struct {
	values map[string]Value
}

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{
		values: make(map[string]Value),
	}
}

// Snapshot returns a copy of the current bindings.
func (e *Environment) Snapshot() map[string]Value {
	out := make(map[string]Value, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

// Define binds name, replacing any previous value and type.
func (e *Environment) Define(name string, value Value) error {
	if !IsStorable(value) {
		return fmt.Errorf("define %q: %w (%s)", name, ErrNotStorable, kindOf(value))
	}
	e.values[name] = value
	return nil
}

// Get retrieves a binding.
func (e *Environment) Get(name string) (Value, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Len reports the number of bindings.
func (e *Environment) Len() int {
	return len(e.values)
}

// Keys returns the bindings in sorted order.
func (e *Environment) Keys() []string {
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func kindOf(v Value) string {
	if v == nil {
		return "nil"
	}
	return v.Kind().String()
}
