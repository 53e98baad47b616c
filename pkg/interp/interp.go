// Package interp implements the statement and expression evaluator
// that walks a decoded AST block against a runtime scope. It is built
// on an explicit control-signal type rather than threading break/
// return through Go's error interface: errors here always mean a
// real failure the host or a pcall boundary must see.
package interp

import (
	"fmt"

	"lua/interpreter-go/pkg/ast"
	"lua/interpreter-go/pkg/runtime"
)

// maxCallDepth bounds recursive function invocation so runaway Lua
// recursion surfaces as a StackOverflowError instead of crashing the
// host process.
const maxCallDepth = 220

// Interp evaluates decoded AST against a global scope. A single
// Interp is not safe for concurrent use across goroutines; callers
// wanting concurrent execution should construct one Interp per
// goroutine sharing only immutable library tables.
type Interp struct {
	Global *runtime.Scope
	depth  int
}

// New creates an interpreter with an empty global scope. Host
// bindings (the standard library surface) are registered afterward
// with Global.DeclareLocal-equivalent calls against Global directly.
func New() *Interp {
	return &Interp{Global: runtime.NewScope(nil)}
}

// Run evaluates a top-level block in a fresh child of the global
// scope and returns whatever values a `return` statement at the top
// level produced, or none if the block fell off the end.
func (ip *Interp) Run(block *ast.Block) (runtime.Arguments, error) {
	scope := ip.Global.Extend()
	scope.SetVarargs(runtime.None)
	sig, err := ip.evalBlock(block, scope)
	if err != nil {
		return nil, err
	}
	if sig.Kind == SignalReturn {
		return sig.Values, nil
	}
	return runtime.None, nil
}

// Call implements runtime.Caller so metamethod dispatch in pkg/runtime
// can re-enter the evaluator for functions written in Lua, and so
// Lua code can call host functions uniformly.
func (ip *Interp) Call(fn runtime.Value, args runtime.Arguments) (runtime.Arguments, error) {
	f, ok := fn.(*runtime.Function)
	if !ok {
		return nil, &runtime.CallError{Got: fn.Kind()}
	}
	if f.IsHost() {
		return f.HostImpl(args)
	}

	ip.depth++
	defer func() { ip.depth-- }()
	if ip.depth > maxCallDepth {
		return nil, &runtime.StackOverflowError{Depth: ip.depth}
	}

	callScope := f.Captured.Extend()
	for i, name := range f.Params {
		callScope.DeclareLocal(name, args.Get(i))
	}
	// Every call scope owns its own vararg slot, even when empty, so a
	// VarargsLiteral evaluated inside a non-vararg function body never
	// falls through to an enclosing closure's varargs.
	callScope.SetVarargs(runtime.None)
	if f.IsVararg && len(args) > len(f.Params) {
		callScope.SetVarargs(append(runtime.Arguments{}, args[len(f.Params):]...))
	}

	sig, err := ip.evalBlock(f.Body, callScope)
	if err != nil {
		return nil, err
	}
	if sig.Kind == SignalReturn {
		return sig.Values, nil
	}
	return runtime.None, nil
}

func unexpectedNode(n ast.Node) error {
	return fmt.Errorf("interp: unexpected node type %T", n)
}
