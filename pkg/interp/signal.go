package interp

import "lua/interpreter-go/pkg/runtime"

// SignalKind classifies how a block finished executing. The
// evaluator core uses this explicit discriminator instead of
// threading control flow through Go errors, reserving error returns
// for actual failures (the pkg/runtime error taxonomy) rather than
// break/return propagation.
type SignalKind int

const (
	// SignalNone means the block ran to completion with no pending
	// control transfer.
	SignalNone SignalKind = iota
	// SignalBreak means a `break` statement fired and the nearest
	// enclosing loop should stop.
	SignalBreak
	// SignalReturn means a `return` statement fired and the
	// enclosing function call should unwind with its values.
	SignalReturn
)

// Signal carries a SignalKind plus, for SignalReturn, the values
// being returned.
type Signal struct {
	Kind   SignalKind
	Values runtime.Arguments
}

// none is the signal produced by statements with no control effect.
var none = Signal{Kind: SignalNone}

func breakSignal() Signal { return Signal{Kind: SignalBreak} }

func returnSignal(values runtime.Arguments) Signal {
	return Signal{Kind: SignalReturn, Values: values}
}
