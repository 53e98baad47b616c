// Package stdlib provides the minimal host-callable surface a
// script needs to exercise the evaluator core: printing, type
// introspection, metatable control, raw table access, and the
// pcall/xpcall error boundary.
package stdlib

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"lua/interpreter-go/pkg/runtime"
)

// Caller is the subset of *interp.Interp the standard library needs
// to re-enter the evaluator, e.g. to invoke an iterator function or
// the protected call target in pcall.
type Caller interface {
	Call(fn runtime.Value, args runtime.Arguments) (runtime.Arguments, error)
}

// Register installs every builtin onto the global scope.
func Register(caller Caller, global *runtime.Scope) {
	for name, fn := range builtins(caller) {
		global.DeclareLocal(name, fn)
	}
}

func host(name string, impl runtime.Host) *runtime.Function {
	return &runtime.Function{Name: name, HostImpl: impl}
}

func builtins(caller Caller) map[string]*runtime.Function {
	return map[string]*runtime.Function{
		"print":        host("print", printImpl),
		"type":         host("type", typeImpl),
		"tostring":     host("tostring", tostringImpl),
		"tonumber":     host("tonumber", tonumberImpl),
		"pairs":        host("pairs", pairsImpl),
		"ipairs":       host("ipairs", ipairsImpl),
		"next":         host("next", nextImpl),
		"setmetatable": host("setmetatable", setmetatableImpl),
		"getmetatable": host("getmetatable", getmetatableImpl),
		"rawget":       host("rawget", rawgetImpl),
		"rawset":       host("rawset", rawsetImpl),
		"rawequal":     host("rawequal", rawequalImpl),
		"rawlen":       host("rawlen", rawlenImpl),
		"assert":       host("assert", assertImpl),
		"error":        host("error", errorImpl),
		"select":       host("select", selectImpl),
		"pcall":        makePcall(caller),
		"xpcall":       makeXpcall(caller),
	}
}

func printImpl(args runtime.Arguments) (runtime.Arguments, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = ToDisplayString(a)
	}
	fmt.Fprintln(os.Stdout, strings.Join(parts, "\t"))
	return runtime.None, nil
}

func typeImpl(args runtime.Arguments) (runtime.Arguments, error) {
	return runtime.Single(runtime.String(args.Get(0).Kind().String())), nil
}

func tostringImpl(args runtime.Arguments) (runtime.Arguments, error) {
	return runtime.Single(runtime.String(ToDisplayString(args.Get(0)))), nil
}

func tonumberImpl(args runtime.Arguments) (runtime.Arguments, error) {
	v := args.Get(0)
	switch vv := v.(type) {
	case runtime.NumberValue:
		return runtime.Single(vv), nil
	case runtime.StringValue:
		f, err := strconv.ParseFloat(strings.TrimSpace(vv.Val), 64)
		if err != nil {
			return runtime.Single(runtime.Nil), nil
		}
		return runtime.Single(runtime.Number(f)), nil
	default:
		return runtime.Single(runtime.Nil), nil
	}
}

// pairsImpl returns (next, t, nil) so a generic-for loop drives
// Table.Next directly.
func pairsImpl(args runtime.Arguments) (runtime.Arguments, error) {
	t, ok := args.Get(0).(*runtime.Table)
	if !ok {
		return nil, &runtime.TypeError{Op: "iterate over", Got: args.Get(0).Kind()}
	}
	return runtime.Arguments{host("next", nextImpl), t, runtime.Nil}, nil
}

func nextImpl(args runtime.Arguments) (runtime.Arguments, error) {
	t, ok := args.Get(0).(*runtime.Table)
	if !ok {
		return nil, &runtime.TypeError{Op: "iterate over", Got: args.Get(0).Kind()}
	}
	var key runtime.Value
	if len(args) > 1 {
		if _, isNil := args.Get(1).(runtime.NilValue); !isNil {
			key = args.Get(1)
		}
	}
	k, v, ok := t.Next(key)
	if !ok {
		return nil, fmt.Errorf("invalid key to 'next'")
	}
	if k == nil {
		return runtime.Single(runtime.Nil), nil
	}
	return runtime.Arguments{k, v}, nil
}

// ipairsImpl returns an iterator walking the array part in order,
// stopping at the first nil, matching Lua's ipairs contract rather
// than next's full key traversal.
func ipairsImpl(args runtime.Arguments) (runtime.Arguments, error) {
	t, ok := args.Get(0).(*runtime.Table)
	if !ok {
		return nil, &runtime.TypeError{Op: "iterate over", Got: args.Get(0).Kind()}
	}
	iter := host("ipairs_iterator", func(iargs runtime.Arguments) (runtime.Arguments, error) {
		tbl := iargs.Get(0).(*runtime.Table)
		idx := iargs.Get(1).(runtime.NumberValue).Val
		next := idx + 1
		v := tbl.RawGet(runtime.Number(next))
		if _, isNil := v.(runtime.NilValue); isNil {
			return runtime.Single(runtime.Nil), nil
		}
		return runtime.Arguments{runtime.Number(next), v}, nil
	})
	return runtime.Arguments{iter, t, runtime.Number(0)}, nil
}

func setmetatableImpl(args runtime.Arguments) (runtime.Arguments, error) {
	t, ok := args.Get(0).(*runtime.Table)
	if !ok {
		return nil, &runtime.TypeError{Op: "set metatable on", Got: args.Get(0).Kind()}
	}
	switch mt := args.Get(1).(type) {
	case *runtime.Table:
		t.Metatable = mt
	case runtime.NilValue:
		t.Metatable = nil
	default:
		return nil, &runtime.TypeError{Op: "use as metatable", Got: mt.Kind()}
	}
	return runtime.Single(t), nil
}

func getmetatableImpl(args runtime.Arguments) (runtime.Arguments, error) {
	t, ok := args.Get(0).(*runtime.Table)
	if !ok || t.Metatable == nil {
		return runtime.Single(runtime.Nil), nil
	}
	return runtime.Single(t.Metatable), nil
}

func rawgetImpl(args runtime.Arguments) (runtime.Arguments, error) {
	t, ok := args.Get(0).(*runtime.Table)
	if !ok {
		return nil, &runtime.TypeError{Op: "index", Got: args.Get(0).Kind()}
	}
	return runtime.Single(t.RawGet(args.Get(1))), nil
}

func rawsetImpl(args runtime.Arguments) (runtime.Arguments, error) {
	t, ok := args.Get(0).(*runtime.Table)
	if !ok {
		return nil, &runtime.TypeError{Op: "index", Got: args.Get(0).Kind()}
	}
	t.RawSet(args.Get(1), args.Get(2))
	return runtime.Single(t), nil
}

func rawequalImpl(args runtime.Arguments) (runtime.Arguments, error) {
	return runtime.Single(runtime.Bool(runtime.RawEqual(args.Get(0), args.Get(1)))), nil
}

func rawlenImpl(args runtime.Arguments) (runtime.Arguments, error) {
	switch v := args.Get(0).(type) {
	case *runtime.Table:
		return runtime.Single(runtime.Number(float64(v.Len()))), nil
	case runtime.StringValue:
		return runtime.Single(runtime.Number(float64(len(v.Val)))), nil
	default:
		return nil, &runtime.TypeError{Op: "get length of", Got: v.Kind()}
	}
}

func assertImpl(args runtime.Arguments) (runtime.Arguments, error) {
	if runtime.Truthy(args.Get(0)) {
		return args, nil
	}
	msg := args.Get(1)
	if _, isNil := msg.(runtime.NilValue); isNil {
		msg = runtime.String("assertion failed!")
	}
	return nil, &runtime.UserError{Value: msg}
}

// errorImpl raises its first argument as a Lua error. Real Lua's
// second "level" argument prefixes position info onto string
// messages; this runtime has no source-position tracking to draw on,
// so the payload is passed through unmodified.
func errorImpl(args runtime.Arguments) (runtime.Arguments, error) {
	return nil, &runtime.UserError{Value: args.Get(0)}
}

func selectImpl(args runtime.Arguments) (runtime.Arguments, error) {
	sel := args.Get(0)
	rest := args[min(1, len(args)):]
	if s, ok := sel.(runtime.StringValue); ok && s.Val == "#" {
		return runtime.Single(runtime.Number(float64(len(rest)))), nil
	}
	n, ok := sel.(runtime.NumberValue)
	if !ok {
		return nil, &runtime.TypeError{Op: "select with", Got: sel.Kind()}
	}
	idx := int(n.Val)
	if idx < 1 || idx > len(rest) {
		return runtime.None, nil
	}
	return rest[idx-1:], nil
}

// makePcall implements the protected-call boundary: any error raised
// while calling fn is caught and converted to (false, payload) rather
// than propagating further.
func makePcall(caller Caller) *runtime.Function {
	return host("pcall", func(args runtime.Arguments) (runtime.Arguments, error) {
		if len(args) == 0 {
			return nil, &runtime.CallError{Got: runtime.KindNil}
		}
		fn := args[0]
		results, err := caller.Call(fn, args[1:])
		if err != nil {
			return runtime.Arguments{runtime.False, errorPayload(err)}, nil
		}
		return append(runtime.Arguments{runtime.True}, results...), nil
	})
}

// makeXpcall implements pcall's variant that also invokes a message
// handler with the error payload before unwinding.
func makeXpcall(caller Caller) *runtime.Function {
	return host("xpcall", func(args runtime.Arguments) (runtime.Arguments, error) {
		if len(args) < 2 {
			return nil, &runtime.CallError{Got: runtime.KindNil}
		}
		fn := args[0]
		handler := args[1]
		results, err := caller.Call(fn, args[2:])
		if err != nil {
			payload := errorPayload(err)
			handled, herr := caller.Call(handler, runtime.Arguments{payload})
			if herr != nil {
				return runtime.Arguments{runtime.False, errorPayload(herr)}, nil
			}
			return append(runtime.Arguments{runtime.False}, handled...), nil
		}
		return append(runtime.Arguments{runtime.True}, results...), nil
	})
}

// errorPayload extracts the LuaValue carried by a UserError, or
// renders any other runtime error as a plain string message.
func errorPayload(err error) runtime.Value {
	if ue, ok := err.(*runtime.UserError); ok {
		return ue.Value
	}
	return runtime.String(err.Error())
}
