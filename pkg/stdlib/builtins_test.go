package stdlib

import (
	"testing"

	"lua/interpreter-go/pkg/runtime"
)

type noopCaller struct{}

func (noopCaller) Call(fn runtime.Value, args runtime.Arguments) (runtime.Arguments, error) {
	f := fn.(*runtime.Function)
	return f.HostImpl(args)
}

func TestTypeReportsKindNames(t *testing.T) {
	result, err := typeImpl(runtime.Single(runtime.Number(1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.First().(runtime.StringValue).Val != "number" {
		t.Fatalf("unexpected type name %#v", result.First())
	}
}

func TestRawsetBypassesMetatable(t *testing.T) {
	tbl := runtime.NewTable()
	mt := runtime.NewTable()
	mt.RawSet(runtime.String("__newindex"), &runtime.Function{HostImpl: func(a runtime.Arguments) (runtime.Arguments, error) {
		t.Fatalf("__newindex should not fire for rawset")
		return runtime.None, nil
	}})
	tbl.Metatable = mt

	if _, err := rawsetImpl(runtime.Arguments{tbl, runtime.String("k"), runtime.Number(1)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := tbl.RawGet(runtime.String("k"))
	if n, ok := v.(runtime.NumberValue); !ok || n.Val != 1 {
		t.Fatalf("expected rawset to write directly, got %#v", v)
	}
}

func TestSelectCount(t *testing.T) {
	result, err := selectImpl(runtime.Arguments{runtime.String("#"), runtime.Number(1), runtime.Number(2), runtime.Number(3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.First().(runtime.NumberValue).Val != 3 {
		t.Fatalf("expected count 3, got %#v", result.First())
	}
}

func TestPcallSuccessPrependsTrue(t *testing.T) {
	pcall := makePcall(noopCaller{})
	fn := &runtime.Function{HostImpl: func(a runtime.Arguments) (runtime.Arguments, error) {
		return runtime.Single(runtime.Number(7)), nil
	}}
	result, err := pcall.HostImpl(runtime.Arguments{fn})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result[0].(runtime.BoolValue).Val {
		t.Fatalf("expected success flag true")
	}
	if result[1].(runtime.NumberValue).Val != 7 {
		t.Fatalf("expected result 7, got %#v", result[1])
	}
}
