package runtime

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Caller is implemented by the evaluator so pkg/runtime can re-enter
// it when a metamethod fires. pkg/runtime cannot import the
// evaluator package without creating an import cycle (the evaluator
// already imports runtime for its value model), so the dependency
// runs the other way: the evaluator passes itself as the caller
// argument of every dispatch function here.
type Caller interface {
	Call(fn Value, args Arguments) (Arguments, error)
}

// arithMeta names the metamethod consulted for each binary arithmetic
// operator.
var arithMeta = map[string]string{
	"+": "__add",
	"-": "__sub",
	"*": "__mul",
	"/": "__div",
	"%": "__mod",
	"^": "__pow",
}

// metamethod looks up a well-known event name on v's metatable, if
// any. Only tables carry metatables in this runtime; strings and
// other scalars never trigger __index/__newindex/arithmetic
// metamethods directly since there is no string metatable registry
// here.
func metamethod(v Value, event string) Value {
	t, ok := v.(*Table)
	if !ok || t.Metatable == nil {
		return nil
	}
	m := t.Metatable.RawGet(StringValue{Val: event})
	if _, isNil := m.(NilValue); isNil {
		return nil
	}
	return m
}

// Arith evaluates a binary arithmetic operator, coercing both
// operands to Number when possible and falling back to the
// corresponding metamethod otherwise.
func Arith(caller Caller, op string, a, b Value) (Value, error) {
	if an, aok := toNumber(a); aok {
		if bn, bok := toNumber(b); bok {
			return Number(applyArith(op, an, bn)), nil
		}
	}
	event := arithMeta[op]
	if mm := metamethod(a, event); mm != nil {
		return callMeta(caller, mm, a, b)
	}
	if mm := metamethod(b, event); mm != nil {
		return callMeta(caller, mm, a, b)
	}
	bad := a
	if _, ok := toNumber(a); ok {
		bad = b
	}
	if s, ok := bad.(StringValue); ok {
		return nil, &ArithmeticError{Op: op, Message: fmt.Sprintf("attempt to coerce non-numeric string %q", s.Val)}
	}
	return nil, &TypeError{Op: "perform arithmetic on", Got: bad.Kind()}
}

func applyArith(op string, a, b float64) float64 {
	switch op {
	case "+":
		return a + b
	case "-":
		return a - b
	case "*":
		return a * b
	case "/":
		return a / b
	case "%":
		return a - math.Floor(a/b)*b
	case "^":
		return math.Pow(a, b)
	default:
		return 0
	}
}

// Unm evaluates unary negation.
func Unm(caller Caller, v Value) (Value, error) {
	if n, ok := toNumber(v); ok {
		return Number(-n), nil
	}
	if mm := metamethod(v, "__unm"); mm != nil {
		return callMeta(caller, mm, v, v)
	}
	if s, ok := v.(StringValue); ok {
		return nil, &ArithmeticError{Op: "unm", Message: fmt.Sprintf("attempt to coerce non-numeric string %q", s.Val)}
	}
	return nil, &TypeError{Op: "perform arithmetic on", Got: v.Kind()}
}

// Concat evaluates the `..` operator: both sides coerce to string if
// they are strings or numbers, else __concat is consulted.
func Concat(caller Caller, a, b Value) (Value, error) {
	as, aok := toConcatString(a)
	bs, bok := toConcatString(b)
	if aok && bok {
		return String(as + bs), nil
	}
	if mm := metamethod(a, "__concat"); mm != nil {
		return callMeta(caller, mm, a, b)
	}
	if mm := metamethod(b, "__concat"); mm != nil {
		return callMeta(caller, mm, a, b)
	}
	bad := a
	if aok {
		bad = b
	}
	return nil, &TypeError{Op: "concatenate", Got: bad.Kind()}
}

// Len evaluates the `#` operator.
func Len(caller Caller, v Value) (Value, error) {
	if mm := metamethod(v, "__len"); mm != nil {
		return callMeta(caller, mm, v, v)
	}
	switch vv := v.(type) {
	case StringValue:
		return Number(float64(len(vv.Val))), nil
	case *Table:
		return Number(float64(vv.Len())), nil
	default:
		return nil, &TypeError{Op: "get length of", Got: v.Kind()}
	}
}

// Equal evaluates `==`, including the rule that __eq only fires
// between two tables sharing the same metamethod.
func Equal(caller Caller, a, b Value) (Value, error) {
	if RawEqual(a, b) {
		return True, nil
	}
	ta, aok := a.(*Table)
	tb, bok := b.(*Table)
	if aok && bok {
		mm := metamethod(ta, "__eq")
		if mm != nil && mm == metamethod(tb, "__eq") {
			result, err := callMeta(caller, mm, a, b)
			if err != nil {
				return nil, err
			}
			return Bool(Truthy(result)), nil
		}
	}
	return False, nil
}

// Less evaluates `<`.
func Less(caller Caller, a, b Value) (Value, error) {
	if an, aok := a.(NumberValue); aok {
		if bn, bok := b.(NumberValue); bok {
			return Bool(an.Val < bn.Val), nil
		}
	}
	if as, aok := a.(StringValue); aok {
		if bs, bok := b.(StringValue); bok {
			return Bool(as.Val < bs.Val), nil
		}
	}
	if mm := metamethod(a, "__lt"); mm != nil {
		result, err := callMeta(caller, mm, a, b)
		if err != nil {
			return nil, err
		}
		return Bool(Truthy(result)), nil
	}
	if mm := metamethod(b, "__lt"); mm != nil {
		result, err := callMeta(caller, mm, a, b)
		if err != nil {
			return nil, err
		}
		return Bool(Truthy(result)), nil
	}
	return nil, &TypeError{Op: "compare", Got: a.Kind()}
}

// LessEqual evaluates `<=`, falling back to `not (b < a)` when
// neither side nor its metatable defines __le directly.
func LessEqual(caller Caller, a, b Value) (Value, error) {
	if an, aok := a.(NumberValue); aok {
		if bn, bok := b.(NumberValue); bok {
			return Bool(an.Val <= bn.Val), nil
		}
	}
	if as, aok := a.(StringValue); aok {
		if bs, bok := b.(StringValue); bok {
			return Bool(as.Val <= bs.Val), nil
		}
	}
	if mm := metamethod(a, "__le"); mm != nil {
		result, err := callMeta(caller, mm, a, b)
		if err != nil {
			return nil, err
		}
		return Bool(Truthy(result)), nil
	}
	if mm := metamethod(b, "__le"); mm != nil {
		result, err := callMeta(caller, mm, a, b)
		if err != nil {
			return nil, err
		}
		return Bool(Truthy(result)), nil
	}
	lt, err := Less(caller, b, a)
	if err != nil {
		return nil, err
	}
	return Bool(!Truthy(lt)), nil
}

// Index implements indexed read `t[k]`, including the __index
// chain. Lua tolerates __index chains that loop back on
// themselves only insofar as Go's heap-pointer tables never need
// explicit cycle bookkeeping to be collected; an actual __index cycle
// still recurses forever here, matching real Lua's behavior.
func Index(caller Caller, t, key Value) (Value, error) {
	tbl, ok := t.(*Table)
	if !ok {
		mm := metamethod(t, "__index")
		if mm == nil {
			return nil, &TypeError{Op: "index", Got: t.Kind()}
		}
		return indexVia(caller, mm, t, key)
	}
	v := tbl.RawGet(key)
	if _, isNil := v.(NilValue); !isNil {
		return v, nil
	}
	if tbl.Metatable == nil {
		return Nil, nil
	}
	mm := tbl.Metatable.RawGet(StringValue{Val: "__index"})
	if _, isNil := mm.(NilValue); isNil {
		return Nil, nil
	}
	return indexVia(caller, mm, t, key)
}

func indexVia(caller Caller, mm Value, t, key Value) (Value, error) {
	if fn, ok := mm.(*Function); ok {
		result, err := caller.Call(fn, Arguments{t, key})
		if err != nil {
			return nil, err
		}
		return result.First(), nil
	}
	return Index(caller, mm, key)
}

// NewIndex implements indexed write `t[k]=v`, including the
// __newindex chain.
func NewIndex(caller Caller, t, key, value Value) error {
	tbl, ok := t.(*Table)
	if !ok {
		return &TypeError{Op: "index", Got: t.Kind()}
	}
	if isInvalidKey(key) {
		if _, isNilKey := key.(NilValue); isNilKey {
			return &InvalidKeyError{Reason: "nil"}
		}
		return &InvalidKeyError{Reason: "NaN"}
	}
	if _, present := tbl.RawGet(key).(NilValue); !present {
		tbl.RawSet(key, value)
		return nil
	}
	if tbl.Metatable == nil {
		tbl.RawSet(key, value)
		return nil
	}
	mm := tbl.Metatable.RawGet(StringValue{Val: "__newindex"})
	if _, isNil := mm.(NilValue); isNil {
		tbl.RawSet(key, value)
		return nil
	}
	if fn, ok := mm.(*Function); ok {
		_, err := caller.Call(fn, Arguments{t, key, value})
		return err
	}
	return NewIndex(caller, mm, key, value)
}

func isInvalidKey(key Value) bool {
	if _, ok := key.(NilValue); ok {
		return true
	}
	if n, ok := key.(NumberValue); ok {
		return math.IsNaN(n.Val)
	}
	return false
}

// CallValue invokes fn directly if it is callable, otherwise
// consults __call, prepending the callee.
func CallValue(caller Caller, fn Value, args Arguments) (Arguments, error) {
	if f, ok := fn.(*Function); ok {
		return caller.Call(f, args)
	}
	if mm := metamethod(fn, "__call"); mm != nil {
		if mfn, ok := mm.(*Function); ok {
			return caller.Call(mfn, append(Arguments{fn}, args...))
		}
	}
	return nil, &CallError{Got: fn.Kind()}
}

func callMeta(caller Caller, mm Value, a, b Value) (Value, error) {
	fn, ok := mm.(*Function)
	if !ok {
		return nil, &TypeError{Op: "call metamethod on", Got: mm.Kind()}
	}
	result, err := caller.Call(fn, Arguments{a, b})
	if err != nil {
		return nil, err
	}
	return result.First(), nil
}

func toNumber(v Value) (float64, bool) {
	switch vv := v.(type) {
	case NumberValue:
		return vv.Val, true
	case StringValue:
		f, err := strconv.ParseFloat(strings.TrimSpace(vv.Val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toConcatString(v Value) (string, bool) {
	switch vv := v.(type) {
	case StringValue:
		return vv.Val, true
	case NumberValue:
		return formatNumber(vv.Val), true
	default:
		return "", false
	}
}

// formatNumber renders a Lua number the way tostring does, with 14
// significant digits (C's %.14g): integral values print without a
// decimal point.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', 14, 64)
}
