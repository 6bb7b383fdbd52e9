// Package object defines the puffin runtime value model: the Value
// tagged union, the lexical Environment chain, and the runtime error
// taxonomy.
package object

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	"github.com/rafibayer/puffin/internal/ast"
)

type ValueType string

const (
	NULL_VALUE      = "NULL"
	NUM_VALUE       = "NUM"
	STRING_VALUE    = "STRING"
	ARRAY_VALUE     = "ARRAY"
	STRUCTURE_VALUE = "STRUCTURE"
	CLOSURE_VALUE   = "CLOSURE"
	BUILTIN_VALUE   = "BUILTIN"
)

// circularRef is printed in place of a container that is already being
// rendered higher up the same print call.
const circularRef = "..."

// Value is the single puffin runtime type.
type Value interface {
	Type() ValueType
	Inspect() string
}

var NULL = &Null{}

// Null is the implicit result of statements, blocks and functions
// without an explicit return.
type Null struct{}

func (n *Null) Type() ValueType { return NULL_VALUE }
func (n *Null) Inspect() string { return "null" }

// Num is the sole numeric type. Booleans are numbers: comparisons and
// logical operators yield 0 or 1.
type Num struct {
	Value float64
}

func (n *Num) Type() ValueType { return NUM_VALUE }
func (n *Num) Inspect() string { return strconv.FormatFloat(n.Value, 'f', -1, 64) }

type String struct {
	Value string
}

func (s *String) Type() ValueType { return STRING_VALUE }
func (s *String) Inspect() string { return "'" + s.Value + "'" }

// Text returns the bare string without quotes, used when a string is the
// direct subject of str()/print rather than an element of a container.
func (s *String) Text() string { return s.Value }

// Array is an ordered, mutable sequence of values. Arrays are shared by
// reference: every name bound to the same *Array observes in-place
// mutations made through any other.
type Array struct {
	Elements []Value
}

func (a *Array) Type() ValueType { return ARRAY_VALUE }
func (a *Array) Inspect() string { return a.inspect(map[Value]bool{}) }

func (a *Array) inspect(seen map[Value]bool) string {
	seen[a] = true
	parts := make([]string, 0, len(a.Elements))
	for _, el := range a.Elements {
		parts = append(parts, inspectNested(el, seen))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Structure is a mutable mapping from field name to value, shared by
// reference like Array. It doubles as the receiver for method-style
// dispatch.
type Structure struct {
	Fields map[string]Value
}

func (s *Structure) Type() ValueType { return STRUCTURE_VALUE }
func (s *Structure) Inspect() string { return s.inspect(map[Value]bool{}) }

func (s *Structure) inspect(seen map[Value]bool) string {
	seen[s] = true
	parts := make([]string, 0, len(s.Fields))
	for name, el := range s.Fields {
		parts = append(parts, name+": "+inspectNested(el, seen))
	}
	// deterministic rendering regardless of map iteration order
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}

// inspectNested renders one container element, substituting a fixed
// placeholder for any container already on the current print path.
func inspectNested(v Value, seen map[Value]bool) string {
	switch v := v.(type) {
	case *Array:
		if seen[v] {
			return "[" + circularRef + "]"
		}
		return v.inspect(seen)
	case *Structure:
		if seen[v] {
			return "{" + circularRef + "}"
		}
		return v.inspect(seen)
	default:
		return v.Inspect()
	}
}

// ClosureKind distinguishes how a closure may refer back to itself or to
// an owning structure when called.
type ClosureKind int

const (
	// ClosureAnonymous is a closure literal not (yet) bound to a name.
	ClosureAnonymous ClosureKind = iota
	// ClosureNamed is a closure bound to a name by simple assignment;
	// the name is rebound to the closure inside every call frame,
	// enabling recursion.
	ClosureNamed
	// ClosureReceiver is a closure stored as a structure field whose
	// first declared parameter was `self`; that structure is bound to
	// `self` on every call.
	ClosureReceiver
)

// Closure is a function value capturing its defining environment.
type Closure struct {
	Kind ClosureKind
	// Name is set for ClosureNamed.
	Name string
	// Receiver is set for ClosureReceiver.
	Receiver *Structure
	// Params excludes the implicit self parameter of a receiver closure.
	Params []string
	Body   *ast.Block
	Env    *Environment
}

func (c *Closure) Type() ValueType { return CLOSURE_VALUE }
func (c *Closure) Inspect() string {
	params := strings.Join(c.Params, ", ")
	switch c.Kind {
	case ClosureNamed:
		return "<" + c.Name + " fn(" + params + ")>"
	case ClosureReceiver:
		return "<(self) fn(" + params + ")>"
	default:
		return "<λ fn(" + params + ")>"
	}
}

// BuiltinFunction receives its already-evaluated arguments and performs
// its own arity and type checks.
type BuiltinFunction func(args []Value) (Value, error)

// Builtin is a named, host-implemented function. Builtins are identified
// and compared by name alone.
type Builtin struct {
	Name string
	Fn   BuiltinFunction
}

func (b *Builtin) Type() ValueType { return BUILTIN_VALUE }
func (b *Builtin) Inspect() string {
	var out bytes.Buffer
	out.WriteString("<builtin ")
	out.WriteString(b.Name)
	out.WriteString(">")
	return out.String()
}

// Equals compares two values structurally. Cross-kind comparisons are
// unequal, never an error. Containers compare by contents; a visited-pair
// guard keeps cyclic containers from recursing forever.
func Equals(a, b Value) bool {
	return equals(a, b, map[valuePair]bool{})
}

type valuePair struct {
	a, b Value
}

func equals(a, b Value, seen map[valuePair]bool) bool {
	switch a := a.(type) {
	case *Null:
		_, ok := b.(*Null)
		return ok

	case *Num:
		if b, ok := b.(*Num); ok {
			return a.Value == b.Value
		}

	case *String:
		if b, ok := b.(*String); ok {
			return a.Value == b.Value
		}

	case *Array:
		b, ok := b.(*Array)
		if !ok {
			return false
		}
		if a == b {
			return true
		}
		pair := valuePair{a, b}
		if seen[pair] {
			return true
		}
		seen[pair] = true
		if len(a.Elements) != len(b.Elements) {
			return false
		}
		for i, el := range a.Elements {
			if !equals(el, b.Elements[i], seen) {
				return false
			}
		}
		return true

	case *Structure:
		b, ok := b.(*Structure)
		if !ok {
			return false
		}
		if a == b {
			return true
		}
		pair := valuePair{a, b}
		if seen[pair] {
			return true
		}
		seen[pair] = true
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for name, el := range a.Fields {
			other, ok := b.Fields[name]
			if !ok || !equals(el, other, seen) {
				return false
			}
		}
		return true

	case *Closure:
		b, ok := b.(*Closure)
		if !ok {
			return false
		}
		if a.Kind != b.Kind || a.Name != b.Name || a.Body != b.Body || a.Env != b.Env {
			return false
		}
		if len(a.Params) != len(b.Params) {
			return false
		}
		for i, p := range a.Params {
			if p != b.Params[i] {
				return false
			}
		}
		return true

	case *Builtin:
		if b, ok := b.(*Builtin); ok {
			return a.Name == b.Name
		}
	}

	return false
}
