package interpreter_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"jss/pkg/ast"
	"jss/pkg/builtins"
	"jss/pkg/bytecode"
	"jss/pkg/compiler"
	"jss/pkg/interpreter"
)

func num(f float64) *ast.NumberLit { return &ast.NumberLit{Value: f} }
func str(s string) *ast.StringLit  { return &ast.StringLit{Value: s} }
func id(name string) *ast.Variable { return &ast.Variable{Name: name} }
func bin(op string, l, r ast.Expr) *ast.BinOp {
	return &ast.BinOp{Op: op, Left: l, Right: r}
}
func set(name string, v ast.Expr) *ast.Assignment { return &ast.Assignment{Target: name, Value: v} }
func ret(v ast.Expr) *ast.Return                  { return &ast.Return{Value: v} }
func call(callee ast.Expr, args ...ast.Expr) *ast.Call {
	return &ast.Call{Callee: callee, Args: args}
}
func fn(params []string, body ...ast.Statement) *ast.FunctionLit {
	return &ast.FunctionLit{Params: params, Body: &ast.Block{Stmts: body}}
}
func block(stmts ...ast.Statement) *ast.Block { return &ast.Block{Stmts: stmts} }

func run(t *testing.T, node ast.Node, opts ...interpreter.Option) (*interpreter.Frame, error) {
	t.Helper()
	unit, err := compiler.Compile(node)
	if err != nil {
		t.Fatalf("compile %s: %v", node, err)
	}
	return interpreter.Interpret(unit, opts...)
}

func mustRun(t *testing.T, node ast.Node, opts ...interpreter.Option) interpreter.Value {
	t.Helper()
	frame, err := run(t, node, opts...)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	return frame.Result()
}

func expectFloat(t *testing.T, v interpreter.Value, want float64) {
	t.Helper()
	if v.Kind != interpreter.KindFloat || v.F64 != want {
		t.Errorf("expected float %v, got %s %v", want, v.Kind, v)
	}
}

func TestLiteralRoundTrip(t *testing.T) {
	for _, n := range []float64{0, 1, -1, 3.25, 1e300, -0.5} {
		expectFloat(t, mustRun(t, num(n)), n)
	}
}

func TestStringLiteral(t *testing.T) {
	v := mustRun(t, str("hi"))
	if v.Kind != interpreter.KindString || v.Str != "hi" {
		t.Errorf("expected string hi, got %v", v)
	}
}

func TestWhileLoop(t *testing.T) {
	// x = 1; while (x < 5) { x = x + 1 }; return x;
	prog := block(
		set("x", num(1)),
		&ast.While{Cond: bin("<", id("x"), num(5)), Body: block(set("x", bin("+", id("x"), num(1))))},
		ret(id("x")),
	)
	expectFloat(t, mustRun(t, prog), 5)
}

func TestBinaryOperandOrder(t *testing.T) {
	tests := []struct {
		op   string
		l, r float64
		want float64
	}{
		{"-", 10, 3, 7},
		{"-", 3, 10, -7},
		{"/", 10, 4, 2.5},
		{"/", 4, 10, 0.4},
		{"%", 10, 3, 1},
		{"%", 3, 10, 3},
		{"+", 2, 3, 5},
		{"*", 2, 3, 6},
	}

	for _, tt := range tests {
		expectFloat(t, mustRun(t, bin(tt.op, num(tt.l), num(tt.r))), tt.want)
	}
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		expr ast.Expr
		want bool
	}{
		{bin("<", num(1), num(2)), true},
		{bin("<", num(2), num(1)), false},
		{bin("==", num(2), num(2)), true},
		{bin("==", bin("<", num(1), num(2)), num(1)), true},
		{bin("<", bin("<", num(2), num(1)), num(1)), true},
	}

	for _, tt := range tests {
		v := mustRun(t, tt.expr)
		if v.Kind != interpreter.KindBool || v.Bool != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.expr, tt.want, v)
		}
	}
}

func TestBooleanPromotion(t *testing.T) {
	expectFloat(t, mustRun(t, bin("+", bin("<", num(1), num(2)), num(1))), 2)
	expectFloat(t, mustRun(t, bin("*", bin("==", num(1), num(2)), num(7))), 0)
}

func TestUnsupportedOperands(t *testing.T) {
	exprs := []ast.Expr{
		bin("+", str("a"), num(1)),
		bin("-", num(1), str("a")),
		bin("==", str("a"), str("a")),
		bin("<", str("a"), num(1)),
		bin("+", call(id("f")), num(1)),
	}

	for _, expr := range exprs {
		prog := block(set("f", fn(nil)), ret(expr))
		_, err := run(t, prog)
		if !errors.Is(err, interpreter.ErrUnsupportedOperation) {
			t.Errorf("%s: expected ErrUnsupportedOperation, got %v", expr, err)
		}
	}
}

func TestIfFalseSkipsBody(t *testing.T) {
	// if (0) { 1 }
	frame, err := run(t, &ast.If{Cond: num(0), Body: block(&ast.Stmt{X: num(1)})})
	if err != nil {
		t.Fatal(err)
	}
	if frame.Depth() != 0 {
		t.Errorf("expected empty operand stack, got depth %d", frame.Depth())
	}
	if frame.Result().Kind != interpreter.KindNone {
		t.Errorf("expected no value, got %v", frame.Result())
	}

	prog := block(
		set("x", num(5)),
		&ast.If{Cond: num(0), Body: block(set("x", num(1)))},
		&ast.If{Cond: str(""), Body: block(set("x", num(2)))},
		ret(id("x")),
	)
	expectFloat(t, mustRun(t, prog), 5)

	prog = block(
		set("x", num(5)),
		&ast.If{Cond: str("yes"), Body: block(set("x", num(1)))},
		ret(id("x")),
	)
	expectFloat(t, mustRun(t, prog), 1)
}

func TestStatementsLeaveStackEmpty(t *testing.T) {
	table := builtins.New(&bytes.Buffer{})
	stmts := []ast.Statement{
		&ast.Stmt{X: num(1)},
		set("x", bin("*", num(2), num(3))),
		&ast.Stmt{X: call(id("print"), num(1), num(2))},
		&ast.If{Cond: num(1), Body: block(&ast.Stmt{X: num(3)})},
		block(set("i", num(0)), &ast.While{Cond: bin("<", id("i"), num(3)), Body: block(set("i", bin("+", id("i"), num(1))))}),
		set("g", fn([]string{"a"}, ret(id("a")))),
	}

	for _, stmt := range stmts {
		frame, err := run(t, stmt, interpreter.WithBuiltins(table))
		if err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
		if frame.Depth() != 0 {
			t.Errorf("%s: expected stack depth 0, got %d", stmt, frame.Depth())
		}
	}
}

func TestClosureCapturesByReference(t *testing.T) {
	// x = 1; f = function() { return x }; x = 2; return f();
	prog := block(
		set("x", num(1)),
		set("f", fn(nil, ret(id("x")))),
		set("x", num(2)),
		ret(call(id("f"))),
	)
	expectFloat(t, mustRun(t, prog), 2)
}

func TestClosureUsesLexicalScope(t *testing.T) {
	// make = function() { y = 10; return function() { return y } }
	// g = make(); h = function() { y = 99; return g() }; return h();
	prog := block(
		set("make", fn(nil,
			set("y", num(10)),
			ret(fn(nil, ret(id("y")))),
		)),
		set("g", call(id("make"))),
		set("h", fn(nil, set("y", num(99)), ret(call(id("g"))))),
		ret(call(id("h"))),
	)
	expectFloat(t, mustRun(t, prog), 10)
}

func TestNestedClosures(t *testing.T) {
	// adder = function(a) { return function(b) { return function(c) { return a + b + c } } }
	prog := block(
		set("adder", fn([]string{"a"},
			ret(fn([]string{"b"},
				ret(fn([]string{"c"}, ret(bin("+", bin("+", id("a"), id("b")), id("c"))))),
			)),
		)),
		ret(call(call(call(id("adder"), num(1)), num(20)), num(300))),
	)
	expectFloat(t, mustRun(t, prog), 321)
}

func TestRecursion(t *testing.T) {
	// fact = function(n) { if (n < 2) { return 1 } return n * fact(n - 1) }
	prog := block(
		set("fact", fn([]string{"n"},
			&ast.If{Cond: bin("<", id("n"), num(2)), Body: block(ret(num(1)))},
			ret(bin("*", id("n"), call(id("fact"), bin("-", id("n"), num(1))))),
		)),
		ret(call(id("fact"), num(5))),
	)
	expectFloat(t, mustRun(t, prog), 120)
}

func TestCallArity(t *testing.T) {
	first := fn([]string{"a", "b"}, ret(id("a")))
	second := fn([]string{"a", "b"}, ret(id("b")))

	expectFloat(t, mustRun(t, block(set("f", first), ret(call(id("f"), num(1), num(2), num(3))))), 1)

	// excess arguments never reach non-parameter locals
	local := fn([]string{"a"}, ret(id("z")))
	_, err := run(t, block(set("f", local), ret(call(id("f"), num(1), num(2)))))
	if !errors.Is(err, interpreter.ErrUndefinedVariable) {
		t.Errorf("expected ErrUndefinedVariable, got %v", err)
	}

	// a missing argument falls back to the enclosing frame
	expectFloat(t, mustRun(t, block(set("b", num(7)), set("f", second), ret(call(id("f"), num(1))))), 7)

	_, err = run(t, block(set("f", second), ret(call(id("f"), num(1)))))
	if !errors.Is(err, interpreter.ErrUndefinedVariable) || !strings.Contains(err.Error(), `"b"`) {
		t.Errorf("expected undefined variable b, got %v", err)
	}
}

func TestBuiltinFallback(t *testing.T) {
	var out bytes.Buffer
	table := builtins.New(&out)

	// print(1) from inside a function resolves past every frame to the builtin
	prog := block(
		set("f", fn(nil, &ast.Stmt{X: call(id("print"), num(1))})),
		&ast.Stmt{X: call(id("f"))},
	)
	mustRun(t, prog, interpreter.WithBuiltins(table))
	if out.String() != "1.0\n" {
		t.Errorf("unexpected output %q", out.String())
	}

	_, err := run(t, ret(id("nope")), interpreter.WithBuiltins(table))
	if !errors.Is(err, interpreter.ErrUndefinedVariable) {
		t.Fatalf("expected ErrUndefinedVariable, got %v", err)
	}
	if !strings.Contains(err.Error(), `"nope"`) {
		t.Errorf("expected error to name the variable, got %v", err)
	}
}

func TestLocalShadowsBuiltin(t *testing.T) {
	table := builtins.New(&bytes.Buffer{})
	prog := block(set("print", num(3)), ret(id("print")))
	expectFloat(t, mustRun(t, prog, interpreter.WithBuiltins(table)), 3)
}

func TestNativeCallReturnsNoValue(t *testing.T) {
	calls := 0
	var got []interpreter.Value
	table := builtins.Table{}
	table.Define("print", func(args []interpreter.Value) (interpreter.Value, error) {
		calls++
		got = args
		return interpreter.Value{}, nil
	})

	prog := block(set("r", call(id("print"), num(1), num(2))), ret(id("r")))
	v := mustRun(t, prog, interpreter.WithBuiltins(table))

	if v.Kind != interpreter.KindNone {
		t.Errorf("expected no value, got %v", v)
	}
	if calls != 1 || len(got) != 2 || got[0].F64 != 1 || got[1].F64 != 2 {
		t.Errorf("expected one call with args [1 2], got %d calls with %v", calls, got)
	}
}

func TestNativeErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	table := builtins.Table{}
	table.Define("fail", func([]interpreter.Value) (interpreter.Value, error) {
		return interpreter.Value{}, boom
	})

	_, err := run(t, call(id("fail")), interpreter.WithBuiltins(table))
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "fail") {
		t.Errorf("expected wrapped boom naming fail, got %v", err)
	}
}

func TestCallNonCallable(t *testing.T) {
	_, err := run(t, block(set("x", num(1)), &ast.Stmt{X: call(id("x"))}))
	if !errors.Is(err, interpreter.ErrUnsupportedOperation) {
		t.Errorf("expected ErrUnsupportedOperation, got %v", err)
	}
}

func TestMalformedBytecode(t *testing.T) {
	units := map[string]*bytecode.Unit{
		"unknown opcode": {Name: "bad", Code: []byte{0xfe, 0}},
		"missing return": {Name: "bad", Code: bytecode.ToCode(int(bytecode.OpJumpAbsolute), 4)},
		"pool index":     {Name: "bad", Code: bytecode.ToCode(int(bytecode.OpLoadConstantFloat), 3, int(bytecode.OpReturn), 1)},
		"slot index":     {Name: "bad", Code: bytecode.ToCode(int(bytecode.OpLoadVar), 0, int(bytecode.OpReturn), 1)},
		"underflow":      {Name: "bad", Code: bytecode.ToCode(int(bytecode.OpDiscardTop), 0, int(bytecode.OpReturn), 0)},
	}

	for name, unit := range units {
		_, err := interpreter.Interpret(unit)
		if !errors.Is(err, interpreter.ErrMalformedBytecode) {
			t.Errorf("%s: expected ErrMalformedBytecode, got %v", name, err)
		}
	}
}

func TestCallArgumentsBindInOrder(t *testing.T) {
	// f = function(a, b) { return a - b }; return f(10, 3);
	prog := block(
		set("f", fn([]string{"a", "b"}, ret(bin("-", id("a"), id("b"))))),
		ret(call(id("f"), num(10), num(3))),
	)
	expectFloat(t, mustRun(t, prog), 7)

	var out bytes.Buffer
	mustRun(t, &ast.Stmt{X: call(id("print"), num(1), str("b"))}, interpreter.WithBuiltins(builtins.New(&out)))
	if out.String() != "1.0 b\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestUnboundedRecursion(t *testing.T) {
	// f = function() { return f() }; f();
	prog := block(
		set("f", fn(nil, ret(call(id("f"))))),
		&ast.Stmt{X: call(id("f"))},
	)

	_, err := run(t, prog)
	if !errors.Is(err, interpreter.ErrCallDepthExceeded) {
		t.Fatalf("expected ErrCallDepthExceeded, got %v", err)
	}
}

func TestMaxDepth(t *testing.T) {
	// down = function(n) { if (n < 1) { return 0 } return down(n - 1) }
	countdown := func(n float64) ast.Node {
		return block(
			set("down", fn([]string{"n"},
				&ast.If{Cond: bin("<", id("n"), num(1)), Body: block(ret(num(0)))},
				ret(call(id("down"), bin("-", id("n"), num(1)))),
			)),
			ret(call(id("down"), num(n))),
		)
	}

	unit, err := compiler.Compile(countdown(9))
	if err != nil {
		t.Fatal(err)
	}
	it := interpreter.New(interpreter.WithMaxDepth(10))
	if _, err := it.Interpret(unit); err != nil {
		t.Fatalf("expected 10 nested calls to fit, got %v", err)
	}
	// the depth unwinds after every call, so the same interpreter runs again
	if _, err := it.Interpret(unit); err != nil {
		t.Fatalf("expected a second run to fit, got %v", err)
	}

	_, err = run(t, countdown(10), interpreter.WithMaxDepth(10))
	if !errors.Is(err, interpreter.ErrCallDepthExceeded) {
		t.Errorf("expected ErrCallDepthExceeded, got %v", err)
	}

	expectFloat(t, mustRun(t, countdown(2000), interpreter.WithMaxDepth(0)), 0)
}

func TestMaxSteps(t *testing.T) {
	unit, err := compiler.Compile(&ast.While{Cond: num(1), Body: block()})
	if err != nil {
		t.Fatal(err)
	}

	it := interpreter.New(interpreter.WithMaxSteps(100))
	_, err = it.Interpret(unit)
	if !errors.Is(err, interpreter.ErrMaxStepsExceeded) {
		t.Fatalf("expected ErrMaxStepsExceeded, got %v", err)
	}
	if it.Steps() != 100 {
		t.Errorf("expected 100 steps, got %d", it.Steps())
	}
}

func TestHostCall(t *testing.T) {
	unit, err := compiler.Compile(block(
		set("k", num(100)),
		set("add", fn([]string{"a", "b"}, ret(bin("+", bin("+", id("a"), id("b")), id("k"))))),
	))
	if err != nil {
		t.Fatal(err)
	}

	it := interpreter.New()
	frame, err := it.Interpret(unit)
	if err != nil {
		t.Fatal(err)
	}

	add, ok := frame.Lookup("add")
	if !ok || add.Kind != interpreter.KindClosure {
		t.Fatalf("expected add to be a closure, got %v", add)
	}

	v, err := it.Call(add, []interpreter.Value{interpreter.NewFloat(1), interpreter.NewFloat(2)})
	if err != nil {
		t.Fatal(err)
	}
	expectFloat(t, v, 103)

	if got := frame.Var(unit.Slot("k")); got.F64 != 100 {
		t.Errorf("expected k = 100, got %v", got)
	}
}

func TestFrameParentIsDefiningFrame(t *testing.T) {
	unit, err := compiler.Compile(block(set("f", fn(nil, ret(num(1))))))
	if err != nil {
		t.Fatal(err)
	}

	frame, err := interpreter.Interpret(unit)
	if err != nil {
		t.Fatal(err)
	}
	if frame.Parent() != nil {
		t.Errorf("expected top-level frame to have no parent")
	}

	f, _ := frame.Lookup("f")
	if f.Closure.Parent != frame {
		t.Errorf("expected closure to capture the top-level frame")
	}
}
