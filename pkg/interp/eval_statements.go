package interp

import (
	"fmt"

	"lua/interpreter-go/pkg/ast"
	"lua/interpreter-go/pkg/runtime"
)

// evalBlock opens a child scope, runs each statement in order, and
// stops early on the first non-SignalNone result, matching `break`
// and `return` short-circuiting the rest of the enclosing block.
func (ip *Interp) evalBlock(block *ast.Block, parent *runtime.Scope) (Signal, error) {
	scope := parent.Extend()
	for _, stmt := range block.Stmts {
		sig, err := ip.evalStatement(stmt, scope)
		if err != nil {
			return none, err
		}
		if sig.Kind != SignalNone {
			return sig, nil
		}
	}
	return none, nil
}

func (ip *Interp) evalStatement(stmt ast.Statement, scope *runtime.Scope) (Signal, error) {
	switch s := stmt.(type) {
	case *ast.LocalAssignment:
		return ip.evalLocalAssignment(s, scope)
	case *ast.Assignment:
		return ip.evalAssignment(s, scope)
	case *ast.ReturnStat:
		values, err := ip.evalExpressionList(s.Values, scope)
		if err != nil {
			return none, err
		}
		return returnSignal(values), nil
	case *ast.BreakStat:
		return breakSignal(), nil
	case *ast.IfStat:
		return ip.evalIfStat(s, scope)
	case *ast.WhileStat:
		return ip.evalWhileStat(s, scope)
	case *ast.RepeatStat:
		return ip.evalRepeatStat(s, scope)
	case *ast.NumericFor:
		return ip.evalNumericFor(s, scope)
	case *ast.GenericFor:
		return ip.evalGenericFor(s, scope)
	case *ast.Block:
		return ip.evalBlock(s, scope)
	case *ast.FunctionCall:
		// A call used as a statement discards its results.
		_, err := ip.evalFunctionCall(s, scope)
		return none, err
	default:
		return none, unexpectedNode(stmt)
	}
}

func (ip *Interp) evalLocalAssignment(s *ast.LocalAssignment, scope *runtime.Scope) (Signal, error) {
	values, err := ip.evalExpressionList(s.Values, scope)
	if err != nil {
		return none, err
	}
	values = values.Pad(len(s.Names))
	for i, name := range s.Names {
		scope.DeclareLocal(name, values.Get(i))
	}
	return none, nil
}

// evalAssignment implements `a, b = x, y`, evaluating every target's
// prefix/index expressions and every value expression before any
// write takes effect, matching Lua's rule that the right-hand side is
// fully evaluated first.
func (ip *Interp) evalAssignment(s *ast.Assignment, scope *runtime.Scope) (Signal, error) {
	values, err := ip.evalExpressionList(s.Values, scope)
	if err != nil {
		return none, err
	}
	values = values.Pad(len(s.Targets))

	type pendingWrite struct {
		variable *ast.Variable
		table    *ast.TableAccess
		target   runtime.Value
		key      runtime.Value
	}
	writes := make([]pendingWrite, len(s.Targets))
	for i, target := range s.Targets {
		switch t := target.(type) {
		case *ast.Variable:
			if t.Prefix == nil {
				writes[i] = pendingWrite{variable: t}
				continue
			}
			pv, err := ip.evalExpressionSingle(t.Prefix, scope)
			if err != nil {
				return none, err
			}
			writes[i] = pendingWrite{target: pv, key: runtime.String(t.Name)}
		case *ast.TableAccess:
			tv, err := ip.evalExpressionSingle(t.Expr, scope)
			if err != nil {
				return none, err
			}
			kv, err := ip.evalExpressionSingle(t.Index, scope)
			if err != nil {
				return none, err
			}
			writes[i] = pendingWrite{table: t, target: tv, key: kv}
		default:
			return none, unexpectedNode(target)
		}
	}

	for i, w := range writes {
		value := values.Get(i)
		if w.variable != nil {
			if err := ip.assignVariable(w.variable, value, scope); err != nil {
				return none, err
			}
			continue
		}
		if err := runtime.NewIndex(ip, w.target, w.key, value); err != nil {
			return none, err
		}
	}
	return none, nil
}

func (ip *Interp) assignVariable(v *ast.Variable, value runtime.Value, scope *runtime.Scope) error {
	if v.Prefix == nil {
		scope.Assign(v.Name, value)
		return nil
	}
	prefixVal, err := ip.evalExpressionSingle(v.Prefix, scope)
	if err != nil {
		return err
	}
	return runtime.NewIndex(ip, prefixVal, runtime.String(v.Name), value)
}

func (ip *Interp) evalIfStat(s *ast.IfStat, scope *runtime.Scope) (Signal, error) {
	cond, err := ip.evalExpressionSingle(s.Cond, scope)
	if err != nil {
		return none, err
	}
	if runtime.Truthy(cond) {
		return ip.evalBlock(s.Then, scope)
	}
	for _, arm := range s.ElseIfs {
		cv, err := ip.evalExpressionSingle(arm.Cond, scope)
		if err != nil {
			return none, err
		}
		if runtime.Truthy(cv) {
			return ip.evalBlock(arm.Block, scope)
		}
	}
	if s.ElseBlock != nil {
		return ip.evalBlock(s.ElseBlock, scope)
	}
	return none, nil
}

func (ip *Interp) evalWhileStat(s *ast.WhileStat, scope *runtime.Scope) (Signal, error) {
	for {
		cond, err := ip.evalExpressionSingle(s.Cond, scope)
		if err != nil {
			return none, err
		}
		if !runtime.Truthy(cond) {
			return none, nil
		}
		sig, err := ip.evalBlock(s.Block, scope)
		if err != nil {
			return none, err
		}
		switch sig.Kind {
		case SignalBreak:
			return none, nil
		case SignalReturn:
			return sig, nil
		}
	}
}

func (ip *Interp) evalRepeatStat(s *ast.RepeatStat, scope *runtime.Scope) (Signal, error) {
	for {
		// repeat's condition can see locals declared in the body, so
		// it is evaluated in the same child scope rather than a
		// fresh one per evalBlock's usual contract.
		bodyScope := scope.Extend()
		for _, stmt := range s.Block.Stmts {
			sig, err := ip.evalStatement(stmt, bodyScope)
			if err != nil {
				return none, err
			}
			if sig.Kind == SignalBreak {
				return none, nil
			}
			if sig.Kind == SignalReturn {
				return sig, nil
			}
		}
		cond, err := ip.evalExpressionSingle(s.Cond, bodyScope)
		if err != nil {
			return none, err
		}
		if runtime.Truthy(cond) {
			return none, nil
		}
	}
}

func (ip *Interp) evalNumericFor(s *ast.NumericFor, scope *runtime.Scope) (Signal, error) {
	startV, err := ip.evalExpressionSingle(s.Start, scope)
	if err != nil {
		return none, err
	}
	limitV, err := ip.evalExpressionSingle(s.Limit, scope)
	if err != nil {
		return none, err
	}
	start, ok := startV.(runtime.NumberValue)
	if !ok {
		return none, &runtime.LoopError{Message: fmt.Sprintf("'for' initial value must be a number, got %s", startV.Kind())}
	}
	limit, ok := limitV.(runtime.NumberValue)
	if !ok {
		return none, &runtime.LoopError{Message: fmt.Sprintf("'for' limit must be a number, got %s", limitV.Kind())}
	}

	step := 1.0
	if s.Step != nil {
		stepV, err := ip.evalExpressionSingle(s.Step, scope)
		if err != nil {
			return none, err
		}
		sn, ok := stepV.(runtime.NumberValue)
		if !ok {
			return none, &runtime.LoopError{Message: fmt.Sprintf("'for' step must be a number, got %s", stepV.Kind())}
		}
		step = sn.Val
	}
	if step == 0 {
		return none, &runtime.LoopError{Message: "'for' step is zero"}
	}

	for i := start.Val; (step > 0 && i <= limit.Val) || (step < 0 && i >= limit.Val); i += step {
		loopScope := scope.Extend()
		loopScope.DeclareLocal(s.Var, runtime.Number(i))
		sig, err := ip.evalBlock(s.Block, loopScope)
		if err != nil {
			return none, err
		}
		switch sig.Kind {
		case SignalBreak:
			return none, nil
		case SignalReturn:
			return sig, nil
		}
	}
	return none, nil
}

// evalGenericFor implements `for vars in exprs do ... end`. The
// iterator, state, and initial control value are bound once, left to
// right, before the loop begins: all three control expressions
// evaluate before the first iterator call.
func (ip *Interp) evalGenericFor(s *ast.GenericFor, scope *runtime.Scope) (Signal, error) {
	control, err := ip.evalExpressionList(s.Exprs, scope)
	if err != nil {
		return none, err
	}
	control = control.Pad(3)
	iterator := control.Get(0)
	state := control.Get(1)
	ctrl := control.Get(2)

	for {
		results, err := runtime.CallValue(ip, iterator, runtime.Arguments{state, ctrl})
		if err != nil {
			return none, err
		}
		results = results.Pad(len(s.Vars))
		if _, isNil := results.Get(0).(runtime.NilValue); isNil {
			return none, nil
		}
		ctrl = results.Get(0)

		loopScope := scope.Extend()
		for i, name := range s.Vars {
			loopScope.DeclareLocal(name, results.Get(i))
		}
		sig, err := ip.evalBlock(s.Block, loopScope)
		if err != nil {
			return none, err
		}
		switch sig.Kind {
		case SignalBreak:
			return none, nil
		case SignalReturn:
			return sig, nil
		}
	}
}
