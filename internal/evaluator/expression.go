package evaluator

import (
	"log/slog"

	"github.com/rafibayer/puffin/internal/ast"
	"github.com/rafibayer/puffin/internal/object"
)

// evalExp reduces a flat term list to a single value: the terms are
// reordered into postfix via shunting yard, then evaluated against a
// value stack.
func evalExp(exp *ast.Exp, env *object.Environment) (object.Value, error) {
	stack := make([]object.Value, 0, 4)

	for _, term := range asRPN(exp.Terms) {
		switch term := term.(type) {
		case *ast.UnaryTerm:
			operand := stack[len(stack)-1]
			result, err := evalUnary(term.Op, operand)
			if err != nil {
				return nil, err
			}
			stack[len(stack)-1] = result

		case *ast.InfixTerm:
			right := stack[len(stack)-1]
			left := stack[len(stack)-2]
			stack = stack[:len(stack)-1]
			result, err := evalInfix(term.Op, left, right)
			if err != nil {
				return nil, err
			}
			stack[len(stack)-1] = result

		case *ast.CallTerm:
			base := stack[len(stack)-1]
			result, err := evalCall(base, term.Args, env)
			if err != nil {
				return nil, err
			}
			stack[len(stack)-1] = result

		case *ast.SubscriptTerm:
			base := stack[len(stack)-1]
			result, err := evalSubscript(base, term.Index, env)
			if err != nil {
				return nil, err
			}
			stack[len(stack)-1] = result

		case *ast.DotTerm:
			base := stack[len(stack)-1]
			result, err := evalDot(base, term.Field)
			if err != nil {
				return nil, err
			}
			stack[len(stack)-1] = result

		default:
			val, err := evalValueTerm(term, env)
			if err != nil {
				return nil, err
			}
			stack = append(stack, val)
		}
	}

	// a well-formed term list always reduces to exactly one value
	if len(stack) != 1 {
		panic("malformed expression: residual value stack")
	}
	return stack[0], nil
}

// asRPN reorders terms into postfix. Value terms pass straight through;
// an operator pops every stacked operator that binds at least as tight
// (strictly tighter for right-associative operators) before stacking
// itself.
func asRPN(terms []ast.Term) []ast.Term {
	output := make([]ast.Term, 0, len(terms))
	var operators []ast.OperatorTerm

	for _, term := range terms {
		op, ok := term.(ast.OperatorTerm)
		if !ok {
			output = append(output, term)
			continue
		}
		for len(operators) > 0 {
			top := operators[len(operators)-1]
			if top.Precedence() > op.Precedence() ||
				(top.Precedence() == op.Precedence() && op.Assoc() == ast.AssocLeft) {
				output = append(output, top)
				operators = operators[:len(operators)-1]
				continue
			}
			break
		}
		operators = append(operators, op)
	}

	for i := len(operators) - 1; i >= 0; i-- {
		output = append(output, operators[i])
	}
	return output
}

func evalValueTerm(term ast.Term, env *object.Environment) (object.Value, error) {
	switch term := term.(type) {
	case *ast.NumTerm:
		return &object.Num{Value: term.Value}, nil
	case *ast.StringTerm:
		return &object.String{Value: term.Value}, nil
	case *ast.NullTerm:
		return object.NULL, nil
	case *ast.NameTerm:
		return env.Get(term.Name)
	case *ast.ParenTerm:
		return evalExp(term.Exp, env)
	case *ast.FunctionTerm:
		return &object.Closure{
			Kind:   object.ClosureAnonymous,
			Params: term.Params,
			Body:   term.Body,
			Env:    env,
		}, nil
	case *ast.StructureTerm:
		return evalStructureTerm(term, env)
	case *ast.ArraySizeTerm:
		return evalArraySizeTerm(term, env)
	case *ast.ArrayRangeTerm:
		return evalArrayRangeTerm(term, env)
	}
	panic("unhandled value term kind")
}

// evalStructureTerm allocates a fresh structure. A closure field whose
// first declared parameter is self becomes a receiver closure bound to
// this structure instance; the self parameter leaves the arity-checked
// parameter list.
func evalStructureTerm(term *ast.StructureTerm, env *object.Environment) (object.Value, error) {
	structure := &object.Structure{Fields: make(map[string]object.Value, len(term.Fields))}

	for _, field := range term.Fields {
		val, err := evalExp(field.Value, env)
		if err != nil {
			return nil, err
		}
		if closure, ok := val.(*object.Closure); ok &&
			closure.Kind == object.ClosureAnonymous &&
			len(closure.Params) > 0 && closure.Params[0] == "self" {
			closure.Kind = object.ClosureReceiver
			closure.Receiver = structure
			closure.Params = closure.Params[1:]
		}
		structure.Fields[field.Name] = val
	}

	return structure, nil
}

// evalArraySizeTerm allocates `[n]`: n fresh Null elements. A negative
// size clamps to an empty array.
func evalArraySizeTerm(term *ast.ArraySizeTerm, env *object.Environment) (object.Value, error) {
	val, err := evalExp(term.Size, env)
	if err != nil {
		return nil, err
	}
	n, err := asNum(val)
	if err != nil {
		return nil, err
	}
	size := int(n)
	if size < 0 {
		size = 0
	}

	elements := make([]object.Value, size)
	for i := range elements {
		elements[i] = object.NULL
	}
	return &object.Array{Elements: elements}, nil
}

// evalArrayRangeTerm allocates `[from:to]`: the numbers of the half-open
// interval [from, to).
func evalArrayRangeTerm(term *ast.ArrayRangeTerm, env *object.Environment) (object.Value, error) {
	fromVal, err := evalExp(term.From, env)
	if err != nil {
		return nil, err
	}
	from, err := asNum(fromVal)
	if err != nil {
		return nil, err
	}
	toVal, err := evalExp(term.To, env)
	if err != nil {
		return nil, err
	}
	to, err := asNum(toVal)
	if err != nil {
		return nil, err
	}

	lo, hi := int64(from), int64(to)
	if lo > hi {
		return nil, object.NewRangeError(lo, hi)
	}

	elements := make([]object.Value, 0, hi-lo)
	for i := lo; i < hi; i++ {
		elements = append(elements, &object.Num{Value: float64(i)})
	}
	return &object.Array{Elements: elements}, nil
}

// evalCall applies a postfix argument list to a closure or builtin.
// Arguments are always evaluated in the caller's environment, left to
// right. A closure's arity is checked before any argument is evaluated,
// so argument side effects never run on a mismatched call; builtins do
// their own arity checks against the evaluated list.
func evalCall(base object.Value, argExps []*ast.Exp, env *object.Environment) (object.Value, error) {
	switch base := base.(type) {
	case *object.Closure:
		if len(argExps) != len(base.Params) {
			return nil, object.NewArgMismatch(len(base.Params), len(argExps))
		}
		args, err := evalArgs(argExps, env)
		if err != nil {
			return nil, err
		}
		return applyClosure(base, args)
	case *object.Builtin:
		args, err := evalArgs(argExps, env)
		if err != nil {
			return nil, err
		}
		return base.Fn(args)
	}
	return nil, object.NewUnexpectedType(base)
}

func evalArgs(argExps []*ast.Exp, env *object.Environment) ([]object.Value, error) {
	args := make([]object.Value, 0, len(argExps))
	for _, argExp := range argExps {
		arg, err := evalExp(argExp, env)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func applyClosure(closure *object.Closure, args []object.Value) (object.Value, error) {
	slog.Debug("applying closure",
		slog.String("closure", closure.Inspect()),
		slog.Int("args", len(args)))

	// the frame chains to the closure's defining environment, not the
	// call site's
	frame := object.NewEnclosedEnvironment(closure.Env)
	for i, param := range closure.Params {
		if err := frame.Bind(param, args[i]); err != nil {
			return nil, err
		}
	}
	switch closure.Kind {
	case object.ClosureNamed:
		if err := frame.Bind(closure.Name, closure); err != nil {
			return nil, err
		}
	case object.ClosureReceiver:
		if err := frame.Bind("self", closure.Receiver); err != nil {
			return nil, err
		}
	}

	ret, err := evalBlock(closure.Body, frame)
	if err != nil {
		return nil, err
	}
	if ret != nil {
		return ret, nil
	}
	return object.NULL, nil
}

// evalSubscript indexes an array or a string. String indexing yields a
// one-character string.
func evalSubscript(base object.Value, indexExp *ast.Exp, env *object.Environment) (object.Value, error) {
	switch base := base.(type) {
	case *object.Array:
		index, err := evalIndex(indexExp, len(base.Elements), env)
		if err != nil {
			return nil, err
		}
		return base.Elements[index], nil
	case *object.String:
		index, err := evalIndex(indexExp, len(base.Value), env)
		if err != nil {
			return nil, err
		}
		return &object.String{Value: base.Value[index : index+1]}, nil
	}
	return nil, object.NewUnexpectedType(base)
}

func evalDot(base object.Value, field string) (object.Value, error) {
	structure, ok := base.(*object.Structure)
	if !ok {
		return nil, object.NewUnexpectedType(base)
	}
	val, ok := structure.Fields[field]
	if !ok {
		return nil, object.NewUnboundName(field)
	}
	return val, nil
}
