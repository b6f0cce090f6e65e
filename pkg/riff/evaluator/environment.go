package evaluator

import (
	"sort"
)

// LoopVariable is the binding set to the iteration count by both loop forms.
const LoopVariable = "_"

// Environment is the single flat name to value mapping of a program run.
// Blocks do not open scopes: every loop and conditional body reads and writes
// this same store, including the loop variable.
type Environment struct {
	store    map[string]Value
	Filename string // Source name used in error positions
	Logger   Logger // Sink for "> ." output
}

// NewEnvironment creates an empty environment printing to stdout.
func NewEnvironment() *Environment {
	return &Environment{
		store:  make(map[string]Value),
		Logger: DefaultLogger,
	}
}

// Get returns a copy of the bound value, or Integer 0 when name is unbound.
func (e *Environment) Get(name string) Value {
	if v, ok := e.store[name]; ok {
		return CopyValue(v)
	}
	return &Integer{Value: 0}
}

// Lookup returns the bound value itself. Callers must not mutate it.
func (e *Environment) Lookup(name string) (Value, bool) {
	v, ok := e.store[name]
	return v, ok
}

// Set binds name to val, replacing any previous binding.
func (e *Environment) Set(name string, val Value) {
	e.store[name] = val
}

// Names returns the bound names in sorted order.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.store))
	for name := range e.store {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of bindings.
func (e *Environment) Len() int {
	return len(e.store)
}

func (e *Environment) logger() Logger {
	if e.Logger == nil {
		return DefaultLogger
	}
	return e.Logger
}
