package evaluator

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/rafibayer/puffin/internal/object"
)

// I/O targets for the builtin surface, swappable in tests.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	stdinReader *bufio.Reader
)

var builtins = map[string]*object.Builtin{
	"len": funcLen(),
	"str": funcStr(),

	// I/O
	"print":     funcPrint(),
	"println":   funcPrintLn(),
	"input_str": funcInputStr(),
	"input_num": funcInputNum(),
	"error":     funcError(),

	// math
	"sin":   funcMath1("sin", math.Sin),
	"cos":   funcMath1("cos", math.Cos),
	"tan":   funcMath1("tan", math.Tan),
	"sqrt":  funcMath1("sqrt", math.Sqrt),
	"abs":   funcMath1("abs", math.Abs),
	"round": funcMath1("round", math.Round),
	"pow":   funcPow(),
	"rand":  funcRand(),

	// array mutation
	"push":   funcPush(),
	"pop":    funcPop(),
	"remove": funcArrRemove(),
	"insert": funcInsert(),
}

// builtin constants, seeded alongside the function table
var constants = map[string]*object.Num{
	"PI":      {Value: math.Pi},
	"EPSILON": {Value: Epsilon},
	"true":    {Value: 1},
	"false":   {Value: 0},
}

// NewGlobalEnvironment returns a root frame seeded with every builtin
// function, the database extension table, and the builtin constants, all
// protected against rebinding.
func NewGlobalEnvironment() *object.Environment {
	env := object.NewEnvironment()
	for name, builtin := range builtins {
		env.SeedBuiltin(name, builtin)
	}
	for name, builtin := range dbBuiltins {
		env.SeedBuiltin(name, builtin)
	}
	for name, num := range constants {
		env.SeedBuiltin(name, num)
	}
	return env
}

// text renders a value for print and str: strings render bare, without
// the quotes Inspect adds.
func text(v object.Value) string {
	if s, ok := v.(*object.String); ok {
		return s.Text()
	}
	return v.Inspect()
}

// joined renders arguments separated by single spaces, the shared shape
// of print, println and error output.
func joined(args []object.Value) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, text(arg))
	}
	return strings.Join(parts, " ")
}

// funcLen returns the size of a value: bytes of a string, elements of an
// array, fields of a structure.
func funcLen() *object.Builtin {
	return &object.Builtin{
		Name: "len",
		Fn: func(args []object.Value) (object.Value, error) {
			if len(args) != 1 {
				return nil, object.NewArgMismatch(1, len(args))
			}
			switch arg := args[0].(type) {
			case *object.String:
				return &object.Num{Value: float64(len(arg.Value))}, nil
			case *object.Array:
				return &object.Num{Value: float64(len(arg.Elements))}, nil
			case *object.Structure:
				return &object.Num{Value: float64(len(arg.Fields))}, nil
			}
			return nil, object.NewUnexpectedType(args[0])
		},
	}
}

func funcStr() *object.Builtin {
	return &object.Builtin{
		Name: "str",
		Fn: func(args []object.Value) (object.Value, error) {
			if len(args) != 1 {
				return nil, object.NewArgMismatch(1, len(args))
			}
			return &object.String{Value: text(args[0])}, nil
		},
	}
}

// funcPrint writes its arguments followed by a single space, without a
// trailing newline.
func funcPrint() *object.Builtin {
	return &object.Builtin{
		Name: "print",
		Fn: func(args []object.Value) (object.Value, error) {
			if _, err := fmt.Fprintf(stdout, "%s ", joined(args)); err != nil {
				return nil, object.NewIOError(err)
			}
			return object.NULL, nil
		},
	}
}

func funcPrintLn() *object.Builtin {
	return &object.Builtin{
		Name: "println",
		Fn: func(args []object.Value) (object.Value, error) {
			if _, err := fmt.Fprintln(stdout, joined(args)); err != nil {
				return nil, object.NewIOError(err)
			}
			return object.NULL, nil
		},
	}
}

// funcError prints its arguments to the error stream, then raises a
// user error that unwinds evaluation.
func funcError() *object.Builtin {
	return &object.Builtin{
		Name: "error",
		Fn: func(args []object.Value) (object.Value, error) {
			fmt.Fprintf(stderr, "ERR: %s\n", joined(args))
			return nil, object.NewUserError()
		},
	}
}

// promptAndRead prints any arguments as a prompt, rendered the way
// print renders them, then reads one line.
func promptAndRead(args []object.Value) (string, error) {
	if len(args) > 0 {
		if _, err := fmt.Fprintf(stdout, "%s ", joined(args)); err != nil {
			return "", object.NewIOError(err)
		}
	}
	line, err := readLine()
	if err != nil {
		return "", object.NewIOError(err)
	}
	return line, nil
}

func readLine() (string, error) {
	if stdinReader == nil {
		stdinReader = bufio.NewReader(stdin)
	}
	line, err := stdinReader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	// strip the delimiter, tolerating CRLF and a final unterminated line
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line, nil
}

func funcInputStr() *object.Builtin {
	return &object.Builtin{
		Name: "input_str",
		Fn: func(args []object.Value) (object.Value, error) {
			line, err := promptAndRead(args)
			if err != nil {
				return nil, err
			}
			return &object.String{Value: line}, nil
		},
	}
}

func funcInputNum() *object.Builtin {
	return &object.Builtin{
		Name: "input_num",
		Fn: func(args []object.Value) (object.Value, error) {
			line, err := promptAndRead(args)
			if err != nil {
				return nil, err
			}
			n, err := strconv.ParseFloat(line, 64)
			if err != nil {
				return nil, object.NewIOErrorf("could not parse %q as a number", line)
			}
			return &object.Num{Value: n}, nil
		},
	}
}

// funcMath1 adapts a single-argument float function into a builtin.
func funcMath1(name string, f func(float64) float64) *object.Builtin {
	return &object.Builtin{
		Name: name,
		Fn: func(args []object.Value) (object.Value, error) {
			if len(args) != 1 {
				return nil, object.NewArgMismatch(1, len(args))
			}
			n, err := asNum(args[0])
			if err != nil {
				return nil, err
			}
			return &object.Num{Value: f(n)}, nil
		},
	}
}

func funcPow() *object.Builtin {
	return &object.Builtin{
		Name: "pow",
		Fn: func(args []object.Value) (object.Value, error) {
			if len(args) != 2 {
				return nil, object.NewArgMismatch(2, len(args))
			}
			base, err := asNum(args[0])
			if err != nil {
				return nil, err
			}
			exp, err := asNum(args[1])
			if err != nil {
				return nil, err
			}
			return &object.Num{Value: math.Pow(base, exp)}, nil
		},
	}
}

func funcRand() *object.Builtin {
	return &object.Builtin{
		Name: "rand",
		Fn: func(args []object.Value) (object.Value, error) {
			if len(args) != 0 {
				return nil, object.NewArgMismatch(0, len(args))
			}
			return &object.Num{Value: rand.Float64()}, nil
		},
	}
}

// funcPush appends an element in place and returns the array; every
// alias of the array sees the new element.
func funcPush() *object.Builtin {
	return &object.Builtin{
		Name: "push",
		Fn: func(args []object.Value) (object.Value, error) {
			if len(args) != 2 {
				return nil, object.NewArgMismatch(2, len(args))
			}
			arr, err := asArray(args[0])
			if err != nil {
				return nil, err
			}
			arr.Elements = append(arr.Elements, args[1])
			return arr, nil
		},
	}
}

// funcPop removes and returns the last element; popping an empty array
// is a bounds error.
func funcPop() *object.Builtin {
	return &object.Builtin{
		Name: "pop",
		Fn: func(args []object.Value) (object.Value, error) {
			if len(args) != 1 {
				return nil, object.NewArgMismatch(1, len(args))
			}
			arr, err := asArray(args[0])
			if err != nil {
				return nil, err
			}
			if len(arr.Elements) == 0 {
				return nil, object.NewBoundsError(0, 0)
			}
			last := arr.Elements[len(arr.Elements)-1]
			arr.Elements = arr.Elements[:len(arr.Elements)-1]
			return last, nil
		},
	}
}

// funcArrRemove removes and returns the element at an index, shifting
// later elements down.
func funcArrRemove() *object.Builtin {
	return &object.Builtin{
		Name: "remove",
		Fn: func(args []object.Value) (object.Value, error) {
			if len(args) != 2 {
				return nil, object.NewArgMismatch(2, len(args))
			}
			arr, err := asArray(args[0])
			if err != nil {
				return nil, err
			}
			n, err := asNum(args[1])
			if err != nil {
				return nil, err
			}
			index := int(math.Floor(n))
			if index < 0 || index >= len(arr.Elements) {
				return nil, object.NewBoundsError(index, len(arr.Elements))
			}
			removed := arr.Elements[index]
			arr.Elements = append(arr.Elements[:index], arr.Elements[index+1:]...)
			return removed, nil
		},
	}
}

// funcInsert inserts an element before an index; inserting at len
// appends.
func funcInsert() *object.Builtin {
	return &object.Builtin{
		Name: "insert",
		Fn: func(args []object.Value) (object.Value, error) {
			if len(args) != 3 {
				return nil, object.NewArgMismatch(3, len(args))
			}
			arr, err := asArray(args[0])
			if err != nil {
				return nil, err
			}
			n, err := asNum(args[1])
			if err != nil {
				return nil, err
			}
			index := int(math.Floor(n))
			if index < 0 || index > len(arr.Elements) {
				return nil, object.NewBoundsError(index, len(arr.Elements))
			}
			arr.Elements = append(arr.Elements, nil)
			copy(arr.Elements[index+1:], arr.Elements[index:])
			arr.Elements[index] = args[2]
			return object.NULL, nil
		},
	}
}
