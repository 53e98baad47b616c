package runtime

import "testing"

// hostCaller is a minimal Caller for exercising metamethod dispatch
// without pulling in pkg/interp, which would create an import cycle
// back into this package.
type hostCaller struct{}

func (hostCaller) Call(fn Value, args Arguments) (Arguments, error) {
	f := fn.(*Function)
	return f.HostImpl(args)
}

func TestArithMetamethodDispatch(t *testing.T) {
	var caller Caller = hostCaller{}
	mt := NewTable()
	addFn := &Function{HostImpl: func(args Arguments) (Arguments, error) {
		t := args.Get(0).(*Table)
		n := args.Get(1).(NumberValue)
		base := t.RawGet(String("base")).(NumberValue)
		return Single(Number(base.Val + n.Val)), nil
	}}
	mt.RawSet(String("__add"), addFn)

	tbl := NewTable()
	tbl.RawSet(String("base"), Number(10))
	tbl.Metatable = mt

	result, err := Arith(caller, "+", tbl, Number(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, ok := result.(NumberValue)
	if !ok || n.Val != 15 {
		t.Fatalf("expected 15, got %#v", result)
	}
}

func TestIndexFallsThroughToIndexFunction(t *testing.T) {
	var caller Caller = hostCaller{}
	mt := NewTable()
	mt.RawSet(String("__index"), &Function{HostImpl: func(args Arguments) (Arguments, error) {
		key := args.Get(1).(StringValue)
		return Single(String("Z" + key.Val)), nil
	}})
	tbl := NewTable()
	tbl.Metatable = mt

	result, err := Index(caller, tbl, String("foo"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := result.(StringValue)
	if !ok || s.Val != "Zfoo" {
		t.Fatalf("expected Zfoo, got %#v", result)
	}
}

func TestIndexChainThroughParentTable(t *testing.T) {
	var caller Caller = hostCaller{}
	parent := NewTable()
	parent.RawSet(String("shared"), Number(42))
	mt := NewTable()
	mt.RawSet(String("__index"), parent)
	child := NewTable()
	child.Metatable = mt

	result, err := Index(caller, child, String("shared"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, ok := result.(NumberValue)
	if !ok || n.Val != 42 {
		t.Fatalf("expected 42 from parent chain, got %#v", result)
	}
}

func TestNewIndexBypassesIndexButHonorsNewIndex(t *testing.T) {
	var caller Caller = hostCaller{}
	var captured []Value
	mt := NewTable()
	mt.RawSet(String("__newindex"), &Function{HostImpl: func(args Arguments) (Arguments, error) {
		captured = args
		return None, nil
	}})
	tbl := NewTable()
	tbl.Metatable = mt

	if err := NewIndex(caller, tbl, String("k"), Number(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(captured) != 3 {
		t.Fatalf("expected __newindex to be invoked with 3 args, got %d", len(captured))
	}
	if _, present := tbl.RawGet(String("k")).(NumberValue); present {
		t.Fatalf("expected raw write to be bypassed when __newindex fires")
	}
}

func TestNewIndexRejectsNilKey(t *testing.T) {
	var caller Caller = hostCaller{}
	tbl := NewTable()
	err := NewIndex(caller, tbl, Nil, Number(1))
	if _, ok := err.(*InvalidKeyError); !ok {
		t.Fatalf("expected InvalidKeyError, got %#v", err)
	}
}

func TestEqualOnlyFiresWhenBothMetamethodsMatch(t *testing.T) {
	var caller Caller = hostCaller{}
	eqFn := &Function{HostImpl: func(args Arguments) (Arguments, error) {
		return Single(True), nil
	}}
	mtA := NewTable()
	mtA.RawSet(String("__eq"), eqFn)
	mtB := NewTable()
	mtB.RawSet(String("__eq"), eqFn)

	a := NewTable()
	a.Metatable = mtA
	b := NewTable()
	b.Metatable = mtB

	result, err := Equal(caller, a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !Truthy(result) {
		t.Fatalf("expected __eq to report equal")
	}
}

func TestArithNonNumericStringYieldsArithmeticError(t *testing.T) {
	var caller Caller = hostCaller{}
	_, err := Arith(caller, "+", String("abc"), Number(1))
	if _, ok := err.(*ArithmeticError); !ok {
		t.Fatalf("expected ArithmeticError for non-numeric string operand, got %#v", err)
	}
}

func TestArithNonCoercibleKindYieldsTypeError(t *testing.T) {
	var caller Caller = hostCaller{}
	_, err := Arith(caller, "+", NewTable(), Number(1))
	if _, ok := err.(*TypeError); !ok {
		t.Fatalf("expected TypeError for a table operand with no metamethod, got %#v", err)
	}
}

func TestUnmNonNumericStringYieldsArithmeticError(t *testing.T) {
	var caller Caller = hostCaller{}
	_, err := Unm(caller, String("abc"))
	if _, ok := err.(*ArithmeticError); !ok {
		t.Fatalf("expected ArithmeticError for non-numeric string operand, got %#v", err)
	}
}

func TestTruthiness(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Nil, false},
		{False, false},
		{True, true},
		{Number(0), true},
		{String(""), true},
	}
	for _, c := range cases {
		if got := Truthy(c.v); got != c.want {
			t.Fatalf("Truthy(%#v) = %v, want %v", c.v, got, c.want)
		}
	}
}
