package runtime

import (
	"fmt"

	"lua/interpreter-go/pkg/ast"
)

// Kind identifies the runtime value category, mirroring Lua's type()
// taxonomy.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindTable
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindTable:
		return "table"
	case KindFunction:
		return "function"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all Lua runtime values.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type NilValue struct{}

func (NilValue) Kind() Kind { return KindNil }

// Nil is the single canonical nil value; Lua has no distinct nil
// identities so callers may compare it by value.
var Nil = NilValue{}

type BoolValue struct {
	Val bool
}

func (v BoolValue) Kind() Kind { return KindBool }

var (
	True  = BoolValue{Val: true}
	False = BoolValue{Val: false}
)

func Bool(b bool) BoolValue {
	if b {
		return True
	}
	return False
}

// NumberValue holds Lua's single numeric type. Real Lua distinguishes
// integer and float subtypes; this runtime always stores float64,
// since the evaluator core never needs the subtype distinction.
type NumberValue struct {
	Val float64
}

func (v NumberValue) Kind() Kind { return KindNumber }

func Number(f float64) NumberValue { return NumberValue{Val: f} }

type StringValue struct {
	Val string
}

func (v StringValue) Kind() Kind { return KindString }

func String(s string) StringValue { return StringValue{Val: s} }

//-----------------------------------------------------------------------------
// Truthiness and equality
//-----------------------------------------------------------------------------

// Truthy implements Lua's rule: everything except nil and false is
// truthy, including 0 and the empty string.
func Truthy(v Value) bool {
	switch vv := v.(type) {
	case NilValue:
		return false
	case nil:
		return false
	case BoolValue:
		return vv.Val
	default:
		return true
	}
}

// RawEqual implements primitive equality without consulting __eq:
// nil equals nil, booleans and numbers compare by value, strings by
// content, and tables/functions by identity.
func RawEqual(a, b Value) bool {
	if a == nil {
		a = Nil
	}
	if b == nil {
		b = Nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case NilValue:
		return true
	case BoolValue:
		return av.Val == b.(BoolValue).Val
	case NumberValue:
		return av.Val == b.(NumberValue).Val
	case StringValue:
		return av.Val == b.(StringValue).Val
	case *Table:
		return av == b.(*Table)
	case *Function:
		return av == b.(*Function)
	default:
		return false
	}
}

//-----------------------------------------------------------------------------
// Functions & closures
//-----------------------------------------------------------------------------

// Host is a function implemented in Go and exposed to Lua code, used
// for the standard library surface and host-embedding bindings.
type Host func(args Arguments) (Arguments, error)

// Function is either a closure produced by a FunctionDefinition or a
// Host builtin. A closure sets Body (with Params, IsVararg and
// Captured); a builtin sets HostImpl instead.
type Function struct {
	Name     string
	Params   []string
	IsVararg bool
	Body     *ast.Block
	Captured *Scope

	HostImpl Host
}

func (v *Function) Kind() Kind { return KindFunction }

// IsHost reports whether this function is implemented in Go.
func (v *Function) IsHost() bool { return v.HostImpl != nil }
