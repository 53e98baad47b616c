package interp

import (
	"lua/interpreter-go/pkg/ast"
	"lua/interpreter-go/pkg/runtime"
)

// evalExpression evaluates an expression to its full multi-value
// result. Only FunctionCall and VarargsLiteral ever produce more than
// one value; every other expression returns a single-element list.
func (ip *Interp) evalExpression(expr ast.Expression, scope *runtime.Scope) (runtime.Arguments, error) {
	switch e := expr.(type) {
	case *ast.NilLiteral:
		return runtime.Single(runtime.Nil), nil
	case *ast.BoolLiteral:
		return runtime.Single(runtime.Bool(e.Value)), nil
	case *ast.NumberLiteral:
		return runtime.Single(runtime.Number(e.Value)), nil
	case *ast.StringLiteral:
		return runtime.Single(runtime.String(e.Value)), nil
	case *ast.VarargsLiteral:
		return scope.Varargs(), nil
	case *ast.Variable:
		v, err := ip.evalVariable(e, scope)
		if err != nil {
			return nil, err
		}
		return runtime.Single(v), nil
	case *ast.TableAccess:
		target, err := ip.evalExpressionSingle(e.Expr, scope)
		if err != nil {
			return nil, err
		}
		key, err := ip.evalExpressionSingle(e.Index, scope)
		if err != nil {
			return nil, err
		}
		v, err := runtime.Index(ip, target, key)
		if err != nil {
			return nil, err
		}
		return runtime.Single(v), nil
	case *ast.FunctionCall:
		return ip.evalFunctionCall(e, scope)
	case *ast.BinaryExpression:
		v, err := ip.evalBinaryExpression(e, scope)
		if err != nil {
			return nil, err
		}
		return runtime.Single(v), nil
	case *ast.UnaryExpression:
		v, err := ip.evalUnaryExpression(e, scope)
		if err != nil {
			return nil, err
		}
		return runtime.Single(v), nil
	case *ast.FunctionDefinition:
		return runtime.Single(ip.evalFunctionDefinition(e, scope)), nil
	case *ast.TableConstructor:
		v, err := ip.evalTableConstructor(e, scope)
		if err != nil {
			return nil, err
		}
		return runtime.Single(v), nil
	default:
		return nil, unexpectedNode(expr)
	}
}

// evalExpressionSingle evaluates an expression and truncates its
// result to the first value, the context every expression operand
// other than the last element of a list or call evaluates in.
func (ip *Interp) evalExpressionSingle(expr ast.Expression, scope *runtime.Scope) (runtime.Value, error) {
	values, err := ip.evalExpression(expr, scope)
	if err != nil {
		return nil, err
	}
	return values.First(), nil
}

// evalExpressionList implements Lua's argument-list expansion rule:
// every expression but the last truncates to one value; the last
// expands fully if it is a call or varargs.
func (ip *Interp) evalExpressionList(exprs []ast.Expression, scope *runtime.Scope) (runtime.Arguments, error) {
	if len(exprs) == 0 {
		return runtime.None, nil
	}
	out := make(runtime.Arguments, 0, len(exprs))
	for i, expr := range exprs {
		if i == len(exprs)-1 {
			values, err := ip.evalExpression(expr, scope)
			if err != nil {
				return nil, err
			}
			out = append(out, values...)
			continue
		}
		v, err := ip.evalExpressionSingle(expr, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (ip *Interp) evalVariable(v *ast.Variable, scope *runtime.Scope) (runtime.Value, error) {
	if v.Prefix == nil {
		return scope.Get(v.Name), nil
	}
	prefixVal, err := ip.evalExpressionSingle(v.Prefix, scope)
	if err != nil {
		return nil, err
	}
	return runtime.Index(ip, prefixVal, runtime.String(v.Name))
}

func (ip *Interp) evalFunctionCall(call *ast.FunctionCall, scope *runtime.Scope) (runtime.Arguments, error) {
	callee, err := ip.evalExpressionSingle(call.Callee, scope)
	if err != nil {
		return nil, err
	}
	args, err := ip.evalExpressionList(call.Args, scope)
	if err != nil {
		return nil, err
	}
	return runtime.CallValue(ip, callee, args)
}

func (ip *Interp) evalFunctionDefinition(def *ast.FunctionDefinition, scope *runtime.Scope) runtime.Value {
	return &runtime.Function{
		Params:   def.Params,
		IsVararg: def.IsVararg,
		Body:     def.Body,
		Captured: scope,
	}
}

func (ip *Interp) evalTableConstructor(tc *ast.TableConstructor, scope *runtime.Scope) (runtime.Value, error) {
	table := runtime.NewTable()
	nextIndex := 1
	for i, field := range tc.Fields {
		if field.Key != nil {
			key, err := ip.evalExpressionSingle(field.Key, scope)
			if err != nil {
				return nil, err
			}
			value, err := ip.evalExpressionSingle(field.Value, scope)
			if err != nil {
				return nil, err
			}
			table.RawSet(key, value)
			continue
		}
		// A positional field expands to multiple values only when it
		// is the constructor's last field, matching the general
		// list-expansion rule.
		if i == len(tc.Fields)-1 {
			values, err := ip.evalExpression(field.Value, scope)
			if err != nil {
				return nil, err
			}
			for _, v := range values {
				table.RawSet(runtime.Number(float64(nextIndex)), v)
				nextIndex++
			}
			continue
		}
		value, err := ip.evalExpressionSingle(field.Value, scope)
		if err != nil {
			return nil, err
		}
		table.RawSet(runtime.Number(float64(nextIndex)), value)
		nextIndex++
	}
	return table, nil
}

func (ip *Interp) evalBinaryExpression(expr *ast.BinaryExpression, scope *runtime.Scope) (runtime.Value, error) {
	if expr.Operator == ast.OpAnd {
		left, err := ip.evalExpressionSingle(expr.Left, scope)
		if err != nil {
			return nil, err
		}
		if !runtime.Truthy(left) {
			return left, nil
		}
		return ip.evalExpressionSingle(expr.Right, scope)
	}
	if expr.Operator == ast.OpOr {
		left, err := ip.evalExpressionSingle(expr.Left, scope)
		if err != nil {
			return nil, err
		}
		if runtime.Truthy(left) {
			return left, nil
		}
		return ip.evalExpressionSingle(expr.Right, scope)
	}

	left, err := ip.evalExpressionSingle(expr.Left, scope)
	if err != nil {
		return nil, err
	}
	right, err := ip.evalExpressionSingle(expr.Right, scope)
	if err != nil {
		return nil, err
	}

	switch expr.Operator {
	case ast.OpAdd:
		return runtime.Arith(ip, "+", left, right)
	case ast.OpSub:
		return runtime.Arith(ip, "-", left, right)
	case ast.OpMul:
		return runtime.Arith(ip, "*", left, right)
	case ast.OpDiv:
		return runtime.Arith(ip, "/", left, right)
	case ast.OpMod:
		return runtime.Arith(ip, "%", left, right)
	case ast.OpPow:
		return runtime.Arith(ip, "^", left, right)
	case ast.OpConcat:
		return runtime.Concat(ip, left, right)
	case ast.OpEqual:
		return runtime.Equal(ip, left, right)
	case ast.OpDifferent:
		eq, err := runtime.Equal(ip, left, right)
		if err != nil {
			return nil, err
		}
		return runtime.Bool(!runtime.Truthy(eq)), nil
	case ast.OpLessThan:
		return runtime.Less(ip, left, right)
	case ast.OpLessOrEqual:
		return runtime.LessEqual(ip, left, right)
	case ast.OpGreaterThan:
		return runtime.Less(ip, right, left)
	case ast.OpGreaterOrEqual:
		return runtime.LessEqual(ip, right, left)
	default:
		return nil, unexpectedNode(expr)
	}
}

func (ip *Interp) evalUnaryExpression(expr *ast.UnaryExpression, scope *runtime.Scope) (runtime.Value, error) {
	v, err := ip.evalExpressionSingle(expr.Expr, scope)
	if err != nil {
		return nil, err
	}
	switch expr.Operator {
	case ast.OpNegate:
		return runtime.Bool(!runtime.Truthy(v)), nil
	case ast.OpInvert:
		return runtime.Unm(ip, v)
	case ast.OpLength:
		return runtime.Len(ip, v)
	default:
		return nil, unexpectedNode(expr)
	}
}
