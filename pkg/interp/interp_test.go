package interp

import (
	"testing"

	"lua/interpreter-go/pkg/ast"
	"lua/interpreter-go/pkg/runtime"
	"lua/interpreter-go/pkg/stdlib"
)

func newInterp() *Interp {
	ip := New()
	stdlib.Register(ip, ip.Global)
	return ip
}

func varr(name string) *ast.Variable { return ast.NewVariable(nil, name) }

func num(f float64) *ast.NumberLiteral { return ast.NewNumberLiteral(f) }

func TestScenarioNumericForFillsTable(t *testing.T) {
	// local t={}; for i=1,5 do t[i]=i*i end; return t[1],t[2],t[3],t[4],t[5]
	ip := newInterp()
	block := ast.NewBlock([]ast.Statement{
		ast.NewLocalAssignment([]string{"t"}, []ast.Expression{ast.NewTableConstructor(nil)}),
		ast.NewNumericFor("i", num(1), num(5), nil, ast.NewBlock([]ast.Statement{
			ast.NewAssignment(
				[]ast.Assignable{ast.NewTableAccess(varr("t"), varr("i"))},
				[]ast.Expression{ast.NewBinaryExpression(ast.OpMul, varr("i"), varr("i"))},
			),
		})),
		ast.NewReturnStat([]ast.Expression{
			ast.NewTableAccess(varr("t"), num(1)),
			ast.NewTableAccess(varr("t"), num(2)),
			ast.NewTableAccess(varr("t"), num(3)),
			ast.NewTableAccess(varr("t"), num(4)),
			ast.NewTableAccess(varr("t"), num(5)),
		}),
	})
	result, err := ip.Run(block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{1, 4, 9, 16, 25}
	if len(result) != len(want) {
		t.Fatalf("expected %d results, got %d (%#v)", len(want), len(result), result)
	}
	for i, w := range want {
		n, ok := result[i].(runtime.NumberValue)
		if !ok || n.Val != w {
			t.Fatalf("result[%d] = %#v, want %v", i, result[i], w)
		}
	}
}

func TestScenarioOnlyLastCallExpands(t *testing.T) {
	// local function f() return 1,2,3 end; local a,b,c,d = f(),10; return a,b,c,d
	ip := newInterp()
	fnDef := ast.NewFunctionDefinition(nil, false, ast.NewBlock([]ast.Statement{
		ast.NewReturnStat([]ast.Expression{num(1), num(2), num(3)}),
	}))
	block := ast.NewBlock([]ast.Statement{
		ast.NewLocalAssignment([]string{"f"}, []ast.Expression{fnDef}),
		ast.NewLocalAssignment([]string{"a", "b", "c", "d"}, []ast.Expression{
			ast.NewFunctionCall(varr("f"), nil),
			num(10),
		}),
		ast.NewReturnStat([]ast.Expression{varr("a"), varr("b"), varr("c"), varr("d")}),
	})
	result, err := ip.Run(block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 4 {
		t.Fatalf("expected 4 results, got %d", len(result))
	}
	a := result[0].(runtime.NumberValue).Val
	b := result[1].(runtime.NumberValue).Val
	if a != 1 || b != 10 {
		t.Fatalf("expected a=1 b=10, got a=%v b=%v", a, b)
	}
	if _, isNil := result[2].(runtime.NilValue); !isNil {
		t.Fatalf("expected c to be nil, got %#v", result[2])
	}
	if _, isNil := result[3].(runtime.NilValue); !isNil {
		t.Fatalf("expected d to be nil, got %#v", result[3])
	}
}

func TestScenarioTableConstructorExpandsLastField(t *testing.T) {
	// local t={1,2,f()} where f returns 9,8
	ip := newInterp()
	fnDef := ast.NewFunctionDefinition(nil, false, ast.NewBlock([]ast.Statement{
		ast.NewReturnStat([]ast.Expression{num(9), num(8)}),
	}))
	block := ast.NewBlock([]ast.Statement{
		ast.NewLocalAssignment([]string{"f"}, []ast.Expression{fnDef}),
		ast.NewLocalAssignment([]string{"t"}, []ast.Expression{
			ast.NewTableConstructor([]ast.TableField{
				{Value: num(1)},
				{Value: num(2)},
				{Value: ast.NewFunctionCall(varr("f"), nil)},
			}),
		}),
		ast.NewReturnStat([]ast.Expression{
			ast.NewTableAccess(varr("t"), num(1)),
			ast.NewTableAccess(varr("t"), num(2)),
			ast.NewTableAccess(varr("t"), num(3)),
			ast.NewTableAccess(varr("t"), num(4)),
		}),
	})
	result, err := ip.Run(block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{1, 2, 9, 8}
	for i, w := range want {
		n := result[i].(runtime.NumberValue).Val
		if n != w {
			t.Fatalf("t[%d] = %v, want %v", i+1, n, w)
		}
	}
}

func TestScenarioRepeatUntilSeesBodyLocals(t *testing.T) {
	// local i=0; repeat local x=i+1; i=x until x>=3; return i
	ip := newInterp()
	block := ast.NewBlock([]ast.Statement{
		ast.NewLocalAssignment([]string{"i"}, []ast.Expression{num(0)}),
		ast.NewRepeatStat(
			ast.NewBlock([]ast.Statement{
				ast.NewLocalAssignment([]string{"x"}, []ast.Expression{
					ast.NewBinaryExpression(ast.OpAdd, varr("i"), num(1)),
				}),
				ast.NewAssignment([]ast.Assignable{varr("i")}, []ast.Expression{varr("x")}),
			}),
			ast.NewBinaryExpression(ast.OpGreaterOrEqual, varr("x"), num(3)),
		),
		ast.NewReturnStat([]ast.Expression{varr("i")}),
	})
	result, err := ip.Run(block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n := result.First().(runtime.NumberValue).Val
	if n != 3 {
		t.Fatalf("expected 3, got %v", n)
	}
}

func TestScenarioIndexMetamethodChain(t *testing.T) {
	// local mt={__index=function(_,k) return "Z"..k end}; local t=setmetatable({},mt); return t.foo
	ip := newInterp()
	handler := ast.NewFunctionDefinition([]string{"_", "k"}, false, ast.NewBlock([]ast.Statement{
		ast.NewReturnStat([]ast.Expression{
			ast.NewBinaryExpression(ast.OpConcat, ast.NewStringLiteral("Z"), varr("k")),
		}),
	}))
	block := ast.NewBlock([]ast.Statement{
		ast.NewLocalAssignment([]string{"mt"}, []ast.Expression{
			ast.NewTableConstructor([]ast.TableField{
				{Key: ast.NewStringLiteral("__index"), Value: handler},
			}),
		}),
		ast.NewLocalAssignment([]string{"t"}, []ast.Expression{
			ast.NewFunctionCall(varr("setmetatable"), []ast.Expression{
				ast.NewTableConstructor(nil), varr("mt"),
			}),
		}),
		ast.NewReturnStat([]ast.Expression{ast.NewVariable(varr("t"), "foo")}),
	})
	result, err := ip.Run(block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := result.First().(runtime.StringValue).Val
	if s != "Zfoo" {
		t.Fatalf("expected Zfoo, got %q", s)
	}
}

func TestScenarioRecursiveClosureIdentity(t *testing.T) {
	// local function g() return g end; return g()()() == g
	ip := newInterp()
	block := ast.NewBlock([]ast.Statement{
		ast.NewLocalAssignment([]string{"g"}, nil),
		ast.NewAssignment([]ast.Assignable{varr("g")}, []ast.Expression{
			ast.NewFunctionDefinition(nil, false, ast.NewBlock([]ast.Statement{
				ast.NewReturnStat([]ast.Expression{varr("g")}),
			})),
		}),
		ast.NewReturnStat([]ast.Expression{
			ast.NewBinaryExpression(ast.OpEqual,
				ast.NewFunctionCall(ast.NewFunctionCall(ast.NewFunctionCall(varr("g"), nil), nil), nil),
				varr("g"),
			),
		}),
	})
	result, err := ip.Run(block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := result.First().(runtime.BoolValue).Val
	if !b {
		t.Fatalf("expected g()()() == g to be true")
	}
}

func TestAssignmentSwapIsAtomic(t *testing.T) {
	// local a,b = 1,2; a,b = b,a; return a,b
	ip := newInterp()
	block := ast.NewBlock([]ast.Statement{
		ast.NewLocalAssignment([]string{"a", "b"}, []ast.Expression{num(1), num(2)}),
		ast.NewAssignment([]ast.Assignable{varr("a"), varr("b")}, []ast.Expression{varr("b"), varr("a")}),
		ast.NewReturnStat([]ast.Expression{varr("a"), varr("b")}),
	})
	result, err := ip.Run(block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := result[0].(runtime.NumberValue).Val
	b := result[1].(runtime.NumberValue).Val
	if a != 2 || b != 1 {
		t.Fatalf("expected swap to 2,1; got %v,%v", a, b)
	}
}

func TestLocalScopeLeakage(t *testing.T) {
	// do local x = 1 end; return x
	ip := newInterp()
	block := ast.NewBlock([]ast.Statement{
		ast.NewBlock([]ast.Statement{
			ast.NewLocalAssignment([]string{"x"}, []ast.Expression{num(1)}),
		}),
		ast.NewReturnStat([]ast.Expression{varr("x")}),
	})
	result, err := ip.Run(block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, isNil := result.First().(runtime.NilValue); !isNil {
		t.Fatalf("expected x to be invisible outside do-block, got %#v", result.First())
	}
}

func TestClosureCaptureSharedMutation(t *testing.T) {
	// local n=0; local function inc() n=n+1 end; local function get() return n end; inc(); inc(); return get()
	ip := newInterp()
	block := ast.NewBlock([]ast.Statement{
		ast.NewLocalAssignment([]string{"n"}, []ast.Expression{num(0)}),
		ast.NewLocalAssignment([]string{"inc"}, []ast.Expression{
			ast.NewFunctionDefinition(nil, false, ast.NewBlock([]ast.Statement{
				ast.NewAssignment([]ast.Assignable{varr("n")}, []ast.Expression{
					ast.NewBinaryExpression(ast.OpAdd, varr("n"), num(1)),
				}),
			})),
		}),
		ast.NewLocalAssignment([]string{"get"}, []ast.Expression{
			ast.NewFunctionDefinition(nil, false, ast.NewBlock([]ast.Statement{
				ast.NewReturnStat([]ast.Expression{varr("n")}),
			})),
		}),
		ast.NewFunctionCall(varr("inc"), nil),
		ast.NewFunctionCall(varr("inc"), nil),
		ast.NewReturnStat([]ast.Expression{ast.NewFunctionCall(varr("get"), nil)}),
	})
	result, err := ip.Run(block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n := result.First().(runtime.NumberValue).Val
	if n != 2 {
		t.Fatalf("expected shared mutation to reach 2, got %v", n)
	}
}

func TestIfStatExecutesMatchedElseifsOwnBlock(t *testing.T) {
	// local r; if false then r="then" elseif true then r="elseif" else r="else" end; return r
	ip := newInterp()
	block := ast.NewBlock([]ast.Statement{
		ast.NewLocalAssignment([]string{"r"}, nil),
		ast.NewIfStat(
			ast.NewBoolLiteral(false),
			ast.NewBlock([]ast.Statement{
				ast.NewAssignment([]ast.Assignable{varr("r")}, []ast.Expression{ast.NewStringLiteral("then")}),
			}),
			[]ast.CondBlock{
				{
					Cond: ast.NewBoolLiteral(true),
					Block: ast.NewBlock([]ast.Statement{
						ast.NewAssignment([]ast.Assignable{varr("r")}, []ast.Expression{ast.NewStringLiteral("elseif")}),
					}),
				},
			},
			ast.NewBlock([]ast.Statement{
				ast.NewAssignment([]ast.Assignable{varr("r")}, []ast.Expression{ast.NewStringLiteral("else")}),
			}),
		),
		ast.NewReturnStat([]ast.Expression{varr("r")}),
	})
	result, err := ip.Run(block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := result.First().(runtime.StringValue).Val
	if s != "elseif" {
		t.Fatalf("expected the matched elseif's own block to run, got %q", s)
	}
}

func TestGenericForTestsControlBeforeBinding(t *testing.T) {
	// an iterator that returns nil on its first call must never run the
	// body at all: count=0; for k in done_iter,nil do count=count+1 end; return count
	ip := newInterp()
	iter := &runtime.Function{
		Name: "done",
		HostImpl: func(args runtime.Arguments) (runtime.Arguments, error) {
			return runtime.Arguments{runtime.Nil}, nil
		},
	}
	ip.Global.DeclareLocal("done_iter", iter)
	block := ast.NewBlock([]ast.Statement{
		ast.NewLocalAssignment([]string{"count"}, []ast.Expression{num(0)}),
		ast.NewGenericFor([]string{"k"}, []ast.Expression{varr("done_iter"), ast.NewNilLiteral()}, ast.NewBlock([]ast.Statement{
			ast.NewAssignment([]ast.Assignable{varr("count")}, []ast.Expression{
				ast.NewBinaryExpression(ast.OpAdd, varr("count"), num(1)),
			}),
		})),
		ast.NewReturnStat([]ast.Expression{varr("count")}),
	})
	result, err := ip.Run(block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n := result.First().(runtime.NumberValue).Val
	if n != 0 {
		t.Fatalf("body must not run when the iterator's first result is nil, got count=%v", n)
	}
}

func TestNumericForNonNumberLimitYieldsLoopError(t *testing.T) {
	// for i=1,"x" do end
	ip := newInterp()
	block := ast.NewBlock([]ast.Statement{
		ast.NewNumericFor("i", num(1), ast.NewStringLiteral("x"), nil, ast.NewBlock(nil)),
	})
	_, err := ip.Run(block)
	if _, ok := err.(*runtime.LoopError); !ok {
		t.Fatalf("expected LoopError for a non-numeric 'for' limit, got %#v", err)
	}
}

func TestNonVarargCallScopeOwnsEmptyVarargs(t *testing.T) {
	// a hand-built AST can place `...` inside a non-vararg function
	// nested in a vararg one; the inner call must see its own empty
	// vararg list rather than the enclosing call's.
	// local function outer(...)
	//   local function inner() return ... end
	//   return inner()
	// end
	// return outer(1,2,3)
	ip := newInterp()
	inner := ast.NewFunctionDefinition(nil, false, ast.NewBlock([]ast.Statement{
		ast.NewReturnStat([]ast.Expression{ast.NewVarargsLiteral()}),
	}))
	outer := ast.NewFunctionDefinition(nil, true, ast.NewBlock([]ast.Statement{
		ast.NewLocalAssignment([]string{"inner"}, []ast.Expression{inner}),
		ast.NewReturnStat([]ast.Expression{ast.NewFunctionCall(varr("inner"), nil)}),
	}))
	block := ast.NewBlock([]ast.Statement{
		ast.NewLocalAssignment([]string{"outer"}, []ast.Expression{outer}),
		ast.NewReturnStat([]ast.Expression{
			ast.NewFunctionCall(varr("outer"), []ast.Expression{num(1), num(2), num(3)}),
		}),
	})
	result, err := ip.Run(block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 0 {
		t.Fatalf("expected inner's ... to be empty, got %#v", result)
	}
}

func TestPcallCatchesRuntimeError(t *testing.T) {
	// return pcall(function() return nil + 1 end)
	ip := newInterp()
	block := ast.NewBlock([]ast.Statement{
		ast.NewReturnStat([]ast.Expression{
			ast.NewFunctionCall(varr("pcall"), []ast.Expression{
				ast.NewFunctionDefinition(nil, false, ast.NewBlock([]ast.Statement{
					ast.NewReturnStat([]ast.Expression{
						ast.NewBinaryExpression(ast.OpAdd, ast.NewNilLiteral(), num(1)),
					}),
				})),
			}),
		}),
	})
	result, err := ip.Run(block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok := result.First().(runtime.BoolValue).Val
	if ok {
		t.Fatalf("expected pcall to report failure")
	}
}
