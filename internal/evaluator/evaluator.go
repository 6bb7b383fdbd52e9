// Package evaluator executes a puffin program tree against an
// environment chain, producing a final value or a runtime error.
package evaluator

import (
	"math"

	"github.com/rafibayer/puffin/internal/ast"
	"github.com/rafibayer/puffin/internal/object"
)

// Eval runs a whole program. An explicit top-level return supplies the
// result; a program that runs off the end yields Null. Bare expression
// statement values are discarded.
func Eval(program *ast.Program, env *object.Environment) (object.Value, error) {
	for _, stmt := range program.Statements {
		ret, err := evalStatement(stmt, env)
		if err != nil {
			return nil, err
		}
		if ret != nil {
			return ret, nil
		}
	}
	return object.NULL, nil
}

// EvalInteractive evaluates a single statement and, unlike program
// evaluation, surfaces the value of a bare expression statement so an
// interactive shell can echo it.
func EvalInteractive(stmt ast.Statement, env *object.Environment) (object.Value, error) {
	if es, ok := stmt.(*ast.ExpStatement); ok {
		return evalExp(es.Value, env)
	}
	ret, err := evalStatement(stmt, env)
	if err != nil {
		return nil, err
	}
	if ret != nil {
		return ret, nil
	}
	return object.NULL, nil
}

// evalStatement executes one statement. A non-nil value signals an
// active return that must propagate upward without executing any further
// sibling statements, until consumed by a call boundary.
func evalStatement(stmt ast.Statement, env *object.Environment) (object.Value, error) {
	switch stmt := stmt.(type) {
	case *ast.ReturnStatement:
		return evalExp(stmt.Value, env)
	case *ast.AssignStatement:
		return nil, evalAssign(stmt, env)
	case *ast.ExpStatement:
		_, err := evalExp(stmt.Value, env)
		return nil, err
	case *ast.IfStatement:
		return evalIf(stmt, env)
	case *ast.WhileStatement:
		return evalWhile(stmt, env)
	case *ast.ForStatement:
		return evalFor(stmt, env)
	case *ast.ForInStatement:
		return evalForIn(stmt, env)
	}
	panic("unhandled statement kind")
}

// evalBlock executes statements in order without introducing a scope.
// Only closure calls push environment frames.
func evalBlock(block *ast.Block, env *object.Environment) (object.Value, error) {
	for _, stmt := range block.Statements {
		ret, err := evalStatement(stmt, env)
		if err != nil {
			return nil, err
		}
		if ret != nil {
			return ret, nil
		}
	}
	return nil, nil
}

func evalIf(stmt *ast.IfStatement, env *object.Environment) (object.Value, error) {
	cond, err := evalCondition(stmt.Cond, env)
	if err != nil {
		return nil, err
	}
	if cond {
		return evalBlock(stmt.Then, env)
	}
	if stmt.Else != nil {
		return evalBlock(stmt.Else, env)
	}
	return nil, nil
}

func evalWhile(stmt *ast.WhileStatement, env *object.Environment) (object.Value, error) {
	for {
		cond, err := evalCondition(stmt.Cond, env)
		if err != nil {
			return nil, err
		}
		if !cond {
			return nil, nil
		}
		ret, err := evalBlock(stmt.Block, env)
		if err != nil || ret != nil {
			return ret, err
		}
	}
}

func evalFor(stmt *ast.ForStatement, env *object.Environment) (object.Value, error) {
	if _, err := evalStatement(stmt.Init, env); err != nil {
		return nil, err
	}
	for {
		cond, err := evalCondition(stmt.Cond, env)
		if err != nil {
			return nil, err
		}
		if !cond {
			return nil, nil
		}
		// a return inside the body skips the advance clause
		ret, err := evalBlock(stmt.Block, env)
		if err != nil || ret != nil {
			return ret, err
		}
		if _, err := evalStatement(stmt.Advance, env); err != nil {
			return nil, err
		}
	}
}

func evalForIn(stmt *ast.ForInStatement, env *object.Environment) (object.Value, error) {
	val, err := evalExp(stmt.Array, env)
	if err != nil {
		return nil, err
	}
	arr, ok := val.(*object.Array)
	if !ok {
		return nil, object.NewUnexpectedType(val)
	}

	// length is re-read every iteration: a body that grows or shrinks
	// the array moves the bound
	for i := 0; i < len(arr.Elements); i++ {
		if err := env.Bind(stmt.Name, arr.Elements[i]); err != nil {
			return nil, err
		}
		ret, err := evalBlock(stmt.Block, env)
		if err != nil || ret != nil {
			return ret, err
		}
	}
	return nil, nil
}

// evalCondition reduces a loop or branch condition to a bool. Conditions
// must be numeric; truth is a nonzero integer part.
func evalCondition(exp *ast.Exp, env *object.Environment) (bool, error) {
	val, err := evalExp(exp, env)
	if err != nil {
		return false, err
	}
	n, err := asNum(val)
	if err != nil {
		return false, err
	}
	return int64(n) != 0, nil
}

func evalAssign(stmt *ast.AssignStatement, env *object.Environment) error {
	if len(stmt.Target.Steps) == 0 {
		val, err := evalExp(stmt.Value, env)
		if err != nil {
			return err
		}
		// a closure literal assigned straight to a name becomes able to
		// call itself through that name
		if closure, ok := val.(*object.Closure); ok && closure.Kind == object.ClosureAnonymous {
			closure.Kind = object.ClosureNamed
			closure.Name = stmt.Target.Name
		}
		return env.Bind(stmt.Target.Name, val)
	}

	current, err := env.Get(stmt.Target.Name)
	if err != nil {
		return err
	}
	rhs, err := evalExp(stmt.Value, env)
	if err != nil {
		return err
	}
	top, err := assignDrilldown(current, stmt.Target.Steps, rhs, env)
	if err != nil {
		return err
	}
	return env.Bind(stmt.Target.Name, top)
}

// assignDrilldown descends through the remaining target steps and
// substitutes rhs at the terminal position, returning the value to write
// back at the current level. Array elements are swapped out for Null
// during the descent instead of removed, so no shifting happens.
func assignDrilldown(current object.Value, steps []ast.AssignStep, rhs object.Value, env *object.Environment) (object.Value, error) {
	if len(steps) == 0 {
		return rhs, nil
	}

	switch step := steps[0].(type) {
	case *ast.IndexStep:
		arr, ok := current.(*object.Array)
		if !ok {
			return nil, object.NewUnexpectedType(current)
		}
		index, err := evalIndex(step.Index, len(arr.Elements), env)
		if err != nil {
			return nil, err
		}
		inner := arr.Elements[index]
		arr.Elements[index] = object.NULL
		result, err := assignDrilldown(inner, steps[1:], rhs, env)
		if err != nil {
			return nil, err
		}
		arr.Elements[index] = result
		return arr, nil

	case *ast.FieldStep:
		structure, ok := current.(*object.Structure)
		if !ok {
			return nil, object.NewUnexpectedType(current)
		}
		inner, ok := structure.Fields[step.Field]
		if !ok {
			// drilling through a missing field materializes it
			inner = &object.Structure{Fields: make(map[string]object.Value)}
		}
		delete(structure.Fields, step.Field)
		result, err := assignDrilldown(inner, steps[1:], rhs, env)
		if err != nil {
			return nil, err
		}
		structure.Fields[step.Field] = result
		return structure, nil
	}

	panic("unhandled assignment step kind")
}

// evalIndex evaluates an index expression against a container of the
// given size, truncating toward negative infinity and bounds-checking
// against [0, size).
func evalIndex(exp *ast.Exp, size int, env *object.Environment) (int, error) {
	val, err := evalExp(exp, env)
	if err != nil {
		return 0, err
	}
	n, err := asNum(val)
	if err != nil {
		return 0, err
	}
	index := int(math.Floor(n))
	if index < 0 || index >= size {
		return 0, object.NewBoundsError(index, size)
	}
	return index, nil
}
