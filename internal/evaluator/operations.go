package evaluator

import (
	"math"

	"github.com/rafibayer/puffin/internal/ast"
	"github.com/rafibayer/puffin/internal/object"
)

// Epsilon is the smallest difference between two distinct float64
// values near 1, used as the truthiness threshold for logical operators.
const Epsilon = 2.220446049250313e-16

// evalUnary applies ! or - to an already-evaluated operand. Both require
// a numeric operand.
func evalUnary(op ast.UnaryOp, operand object.Value) (object.Value, error) {
	n, err := asNum(operand)
	if err != nil {
		return nil, err
	}
	switch op {
	case ast.UnaryNot:
		return boolNum(int32(n) == 0), nil
	case ast.UnaryNeg:
		return &object.Num{Value: -n}, nil
	}
	panic("unhandled unary operator")
}

// evalInfix applies an infix operator to already-evaluated operands.
// Both operands are fully evaluated before this point, so && and || do
// not short-circuit. Division and modulo by zero follow float64
// semantics and produce inf or NaN.
func evalInfix(op ast.InfixOp, left, right object.Value) (object.Value, error) {
	switch op {
	case ast.InfixEq:
		return boolNum(object.Equals(left, right)), nil
	case ast.InfixNe:
		return boolNum(!object.Equals(left, right)), nil
	}

	if op == ast.InfixPlus {
		if l, ok := left.(*object.String); ok {
			r, ok := right.(*object.String)
			if !ok {
				return nil, object.NewUnexpectedType(right)
			}
			return &object.String{Value: l.Value + r.Value}, nil
		}
	}

	l, err := asNum(left)
	if err != nil {
		return nil, err
	}
	r, err := asNum(right)
	if err != nil {
		return nil, err
	}

	switch op {
	case ast.InfixMul:
		return &object.Num{Value: l * r}, nil
	case ast.InfixMod:
		return &object.Num{Value: math.Mod(l, r)}, nil
	case ast.InfixDiv:
		return &object.Num{Value: l / r}, nil
	case ast.InfixPlus:
		return &object.Num{Value: l + r}, nil
	case ast.InfixMinus:
		return &object.Num{Value: l - r}, nil
	case ast.InfixLt:
		return boolNum(l < r), nil
	case ast.InfixGt:
		return boolNum(l > r), nil
	case ast.InfixLe:
		return boolNum(l <= r), nil
	case ast.InfixGe:
		return boolNum(l >= r), nil
	case ast.InfixAnd:
		return boolNum(isTruthy(l) && isTruthy(r)), nil
	case ast.InfixOr:
		return boolNum(isTruthy(l) || isTruthy(r)), nil
	}
	panic("unhandled infix operator")
}

// isTruthy is the logical-operator truth test: magnitude above machine
// epsilon.
func isTruthy(n float64) bool {
	return math.Abs(n) > Epsilon
}

func boolNum(b bool) *object.Num {
	if b {
		return &object.Num{Value: 1}
	}
	return &object.Num{Value: 0}
}

// asNum unwraps a numeric value or reports the offending value's kind.
func asNum(v object.Value) (float64, error) {
	n, ok := v.(*object.Num)
	if !ok {
		return 0, object.NewUnexpectedType(v)
	}
	return n.Value, nil
}

// asString unwraps a string value or reports the offending value's kind.
func asString(v object.Value) (string, error) {
	s, ok := v.(*object.String)
	if !ok {
		return "", object.NewUnexpectedType(v)
	}
	return s.Value, nil
}

// asArray unwraps an array value or reports the offending value's kind.
func asArray(v object.Value) (*object.Array, error) {
	a, ok := v.(*object.Array)
	if !ok {
		return nil, object.NewUnexpectedType(v)
	}
	return a, nil
}
