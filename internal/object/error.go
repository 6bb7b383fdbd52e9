package object

import "fmt"

// ErrorKind discriminates the runtime error taxonomy.
type ErrorKind int

const (
	// ErrUnboundName: usage of an unbound name or missing structure field.
	ErrUnboundName ErrorKind = iota
	// ErrArgMismatch: wrong number of arguments to a closure or builtin.
	ErrArgMismatch
	// ErrUnexpectedType: an operation applied to a value kind it does not support.
	ErrUnexpectedType
	// ErrBuiltinRebinding: attempted to rebind a protected builtin name.
	ErrBuiltinRebinding
	// ErrBounds: array or string index outside [0, size).
	ErrBounds
	// ErrRange: range-array initializer with from > to.
	ErrRange
	// ErrIO: host I/O failure.
	ErrIO
	// ErrUser: explicit failure raised by the `error` builtin.
	ErrUser
)

// RuntimeError is a puffin runtime error. Every evaluator function
// propagates it up the call chain immediately; the shell decides how to
// present it.
type RuntimeError struct {
	Kind ErrorKind

	// Name for ErrUnboundName / ErrBuiltinRebinding.
	Name string
	// Expected/Got for ErrArgMismatch.
	Expected int
	Got      int
	// Description for ErrUnexpectedType, message for ErrIO.
	Message string
	// Index/Size for ErrBounds.
	Index int
	Size  int
	// From/To for ErrRange.
	From int64
	To   int64
}

func (e *RuntimeError) Error() string {
	switch e.Kind {
	case ErrUnboundName:
		return fmt.Sprintf("unbound name: %s", e.Name)
	case ErrArgMismatch:
		return fmt.Sprintf("argument mismatch: expected %d, got %d", e.Expected, e.Got)
	case ErrUnexpectedType:
		return fmt.Sprintf("unexpected type: %s", e.Message)
	case ErrBuiltinRebinding:
		return fmt.Sprintf("cannot rebind builtin: %s", e.Name)
	case ErrBounds:
		return fmt.Sprintf("index out of bounds: index %d, size %d", e.Index, e.Size)
	case ErrRange:
		return fmt.Sprintf("invalid range: [%d:%d]", e.From, e.To)
	case ErrIO:
		return fmt.Sprintf("io error: %s", e.Message)
	case ErrUser:
		return "error"
	}
	return "unknown interpreter error"
}

func NewUnboundName(name string) *RuntimeError {
	return &RuntimeError{Kind: ErrUnboundName, Name: name}
}

func NewArgMismatch(expected, got int) *RuntimeError {
	return &RuntimeError{Kind: ErrArgMismatch, Expected: expected, Got: got}
}

// NewUnexpectedType reports an operation applied to an unsupported value
// kind, rendering the offending value into the error.
func NewUnexpectedType(v Value) *RuntimeError {
	return &RuntimeError{Kind: ErrUnexpectedType, Message: v.Inspect()}
}

func NewBuiltinRebinding(name string) *RuntimeError {
	return &RuntimeError{Kind: ErrBuiltinRebinding, Name: name}
}

func NewBoundsError(index, size int) *RuntimeError {
	return &RuntimeError{Kind: ErrBounds, Index: index, Size: size}
}

func NewRangeError(from, to int64) *RuntimeError {
	return &RuntimeError{Kind: ErrRange, From: from, To: to}
}

func NewIOError(err error) *RuntimeError {
	return &RuntimeError{Kind: ErrIO, Message: err.Error()}
}

func NewIOErrorf(format string, a ...any) *RuntimeError {
	return &RuntimeError{Kind: ErrIO, Message: fmt.Sprintf(format, a...)}
}

func NewUserError() *RuntimeError {
	return &RuntimeError{Kind: ErrUser}
}
