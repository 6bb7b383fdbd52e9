package evaluator

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rafibayer/puffin/internal/lexer"
	"github.com/rafibayer/puffin/internal/object"
	"github.com/rafibayer/puffin/internal/parser"
)

func testEval(t *testing.T, input string) (object.Value, error) {
	t.Helper()
	p := parser.New(lexer.New(input))
	program := p.ParseProgram()
	if len(p.Errors()) != 0 {
		t.Fatalf("parser errors for %q: %v", input, p.Errors())
	}
	return Eval(program, NewGlobalEnvironment())
}

func evalNum(t *testing.T, input string) float64 {
	t.Helper()
	val, err := testEval(t, input)
	if err != nil {
		t.Fatalf("eval error for %q: %v", input, err)
	}
	num, ok := val.(*object.Num)
	if !ok {
		t.Fatalf("result of %q is not Num, got %s (%s)", input, val.Type(), val.Inspect())
	}
	return num.Value
}

func evalErrKind(t *testing.T, input string) object.ErrorKind {
	t.Helper()
	_, err := testEval(t, input)
	if err == nil {
		t.Fatalf("expected error for %q", input)
	}
	var runtimeErr *object.RuntimeError
	if !errors.As(err, &runtimeErr) {
		t.Fatalf("error for %q is not a RuntimeError: %v", input, err)
	}
	return runtimeErr.Kind
}

func TestProgramWithoutReturnIsNull(t *testing.T) {
	val, err := testEval(t, "x = 1; x + 1;")
	if err != nil {
		t.Fatal(err)
	}
	if val != object.NULL {
		t.Fatalf("expected null, got %s", val.Inspect())
	}
}

func TestArithmeticAndPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"return 2 + 3 * 4;", 14},
		{"return (2 + 3) * 4;", 20},
		{"return 10 - 2 - 3;", 5},
		{"return 2 * 3 % 4;", 2},
		{"return 7 / 2;", 3.5},
		{"return -2 * 3;", -6},
		{"return --5;", 5},
		{"return !0;", 1},
		{"return !3;", 0},
		{"return !0.4;", 1},
		{"return 1 + 2 < 4;", 1},
		{"return 1 < 2 == 3 < 4;", 1},
		{"return pow(2, 10);", 1024},
	}
	for _, tt := range tests {
		if got := evalNum(t, tt.input); got != tt.want {
			t.Errorf("%q = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLogicalOperators(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"return 1 && 1;", 1},
		{"return 1 && 0;", 0},
		{"return 0 || 1;", 1},
		{"return 0 || 0;", 0},
		{"return 0.5 && -0.5;", 1},
		// EPSILON itself is not truthy: truth requires magnitude above it
		{"return EPSILON && 1;", 0},
		{"return true && !false;", 1},
	}
	for _, tt := range tests {
		if got := evalNum(t, tt.input); got != tt.want {
			t.Errorf("%q = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestEquality(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"return 1 == 1;", 1},
		{"return 1 != 2;", 1},
		{`return "abc" == "abc";`, 1},
		{`return "abc" == 1;`, 0},
		{"return null == null;", 1},
		{"a = [1:4]; b = [1:4]; return a == b;", 1},
		{"a = [1:4]; b = [1:5]; return a == b;", 0},
		{"a = {x: 1}; b = {x: 1}; return a == b;", 1},
		{"a = {x: 1}; b = {x: 2}; return a != b;", 1},
		{"return len == len;", 1},
	}
	for _, tt := range tests {
		if got := evalNum(t, tt.input); got != tt.want {
			t.Errorf("%q = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestStringConcat(t *testing.T) {
	val, err := testEval(t, `return "foo" + "bar";`)
	if err != nil {
		t.Fatal(err)
	}
	s, ok := val.(*object.String)
	if !ok || s.Value != "foobar" {
		t.Fatalf("got %s", val.Inspect())
	}

	if kind := evalErrKind(t, `return "foo" + 1;`); kind != object.ErrUnexpectedType {
		t.Fatalf("wrong error kind %v", kind)
	}
	if kind := evalErrKind(t, `return null + 1;`); kind != object.ErrUnexpectedType {
		t.Fatalf("wrong error kind %v", kind)
	}
}

func TestNamedRecursion(t *testing.T) {
	input := `
f = fn(n) {
	if (n < 2) { return 1; }
	return n * f(n - 1);
};
return f(6);`
	if got := evalNum(t, input); got != 720 {
		t.Fatalf("f(6) = %v, want 720", got)
	}
}

func TestReceiverBinding(t *testing.T) {
	input := `
obj = {
	k: 2,
	m: fn(self, x) { return self.k + x; },
};
return obj.m(3);`
	if got := evalNum(t, input); got != 5 {
		t.Fatalf("obj.m(3) = %v, want 5", got)
	}

	// arity checking must not count self
	errInput := `
obj = {k: 2, m: fn(self, x) { return self.k + x; }};
return obj.m(3, 4);`
	_, err := testEval(t, errInput)
	var runtimeErr *object.RuntimeError
	if !errors.As(err, &runtimeErr) || runtimeErr.Kind != object.ErrArgMismatch {
		t.Fatalf("expected ArgMismatch, got %v", err)
	}
	if runtimeErr.Expected != 1 || runtimeErr.Got != 2 {
		t.Fatalf("expected 1/2, got %d/%d", runtimeErr.Expected, runtimeErr.Got)
	}
}

func TestReceiverMutation(t *testing.T) {
	input := `
counter = {
	n: 0,
	inc: fn(self) { self.n += 1; return self.n; },
};
counter.inc();
counter.inc();
return counter.n;`
	if got := evalNum(t, input); got != 2 {
		t.Fatalf("counter.n = %v, want 2", got)
	}
}

func TestClosureCapture(t *testing.T) {
	input := `
make = fn(x) { return fn() { return x; }; };
g = make(7);
return g();`
	if got := evalNum(t, input); got != 7 {
		t.Fatalf("g() = %v, want 7", got)
	}
}

func TestAliasing(t *testing.T) {
	// containers share storage across names
	if got := evalNum(t, "a = [3]; b = a; b[0] = 9; return a[0];"); got != 9 {
		t.Fatalf("array aliasing: got %v, want 9", got)
	}
	if got := evalNum(t, "a = {x: 1}; b = a; b.x = 9; return a.x;"); got != 9 {
		t.Fatalf("structure aliasing: got %v, want 9", got)
	}
	// numbers and strings do not
	if got := evalNum(t, "x = 1; y = x; y = 2; return x;"); got != 1 {
		t.Fatalf("num aliasing: got %v, want 1", got)
	}
}

func TestDrilldownAssignment(t *testing.T) {
	input := `
grid = [2];
grid[0] = {rows: [2]};
grid[0].rows[1] = 7;
return grid[0].rows[1];`
	if got := evalNum(t, input); got != 7 {
		t.Fatalf("got %v, want 7", got)
	}

	// drilling through a missing structure field materializes it
	if got := evalNum(t, "s = {}; s.a.b = 1; return s.a.b;"); got != 1 {
		t.Fatalf("got %v, want 1", got)
	}
}

func TestDrilldownIdempotence(t *testing.T) {
	input := `
a = [1:4];
a[1] = 9;
a[1] = 9;
return str(a);`
	val, err := testEval(t, input)
	if err != nil {
		t.Fatal(err)
	}
	if s := val.(*object.String).Value; s != "[1, 9, 3]" {
		t.Fatalf("got %q, want %q", s, "[1, 9, 3]")
	}
}

func TestArrayInitializers(t *testing.T) {
	val, err := testEval(t, "return [3];")
	if err != nil {
		t.Fatal(err)
	}
	arr := val.(*object.Array)
	if len(arr.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(arr.Elements))
	}
	for _, el := range arr.Elements {
		if el != object.NULL {
			t.Fatalf("sized array element is %s, want null", el.Inspect())
		}
	}

	if got := evalNum(t, "a = [2:6]; return a[0] + a[3];"); got != 7 {
		t.Fatalf("range array: got %v, want 7", got)
	}
	if got := evalNum(t, "return len([5:5]);"); got != 0 {
		t.Fatalf("empty range: got %v, want 0", got)
	}
	if kind := evalErrKind(t, "return [5:2];"); kind != object.ErrRange {
		t.Fatalf("wrong error kind %v", kind)
	}
}

func TestForInProduct(t *testing.T) {
	input := `
prod = 1;
for (i in [1:25]) {
	prod *= i;
}
return prod;`
	want := 1.0
	for i := 1; i < 25; i++ {
		want *= float64(i)
	}
	if got := evalNum(t, input); got != want {
		t.Fatalf("got %v, want %v (24!)", got, want)
	}
}

func TestForInReReadsLength(t *testing.T) {
	input := `
a = [1:4];
count = 0;
for (e in a) {
	count += 1;
	if (count == 1) { pop(a); pop(a); }
}
return count;`
	if got := evalNum(t, input); got != 1 {
		t.Fatalf("got %v, want 1", got)
	}
}

func TestLoops(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"n = 5; total = 0; while (n > 0) { total += n; n -= 1; } return total;", 15},
		{"total = 0; for (i = 0; i < 10; i += 1) { total += i; } return total;", 45},
		// a return stops the loop before the advance clause runs
		{"f = fn() { for (i = 0; i < 10; i += 1) { return i; } }; return f();", 0},
		{"f = fn() { while (1) { return 5; } }; return f();", 5},
	}
	for _, tt := range tests {
		if got := evalNum(t, tt.input); got != tt.want {
			t.Errorf("%q = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIfElseChains(t *testing.T) {
	input := `
grade = fn(score) {
	if (score >= 90) { return "A"; }
	else if (score >= 80) { return "B"; }
	else { return "F"; }
};
return grade(85);`
	val, err := testEval(t, input)
	if err != nil {
		t.Fatal(err)
	}
	if s := val.(*object.String).Value; s != "B" {
		t.Fatalf("got %q, want B", s)
	}
}

func TestImplicitFunctionResultIsNull(t *testing.T) {
	val, err := testEval(t, "f = fn() { 1 + 1; }; return f();")
	if err != nil {
		t.Fatal(err)
	}
	if val != object.NULL {
		t.Fatalf("got %s, want null", val.Inspect())
	}
}

func TestBuiltinProtection(t *testing.T) {
	if kind := evalErrKind(t, "PI = 4;"); kind != object.ErrBuiltinRebinding {
		t.Fatalf("wrong error kind %v", kind)
	}
	// a call frame owns no builtins, so shadowing there is allowed
	if got := evalNum(t, "f = fn(len) { return len + 1; }; return f(2);"); got != 3 {
		t.Fatalf("got %v, want 3", got)
	}
}

func TestBoundsErrors(t *testing.T) {
	_, err := testEval(t, "a = [3]; return a[3];")
	var runtimeErr *object.RuntimeError
	if !errors.As(err, &runtimeErr) || runtimeErr.Kind != object.ErrBounds {
		t.Fatalf("expected BoundsError, got %v", err)
	}
	if runtimeErr.Index != 3 || runtimeErr.Size != 3 {
		t.Fatalf("expected index 3 size 3, got %d/%d", runtimeErr.Index, runtimeErr.Size)
	}

	if kind := evalErrKind(t, "a = [3]; return a[0-1];"); kind != object.ErrBounds {
		t.Fatalf("wrong error kind %v", kind)
	}
	if kind := evalErrKind(t, `s = "abc"; return s[3];`); kind != object.ErrBounds {
		t.Fatalf("wrong error kind %v", kind)
	}
}

func TestStringSubscript(t *testing.T) {
	val, err := testEval(t, `s = "abc"; return s[1];`)
	if err != nil {
		t.Fatal(err)
	}
	if s := val.(*object.String).Value; s != "b" {
		t.Fatalf("got %q, want b", s)
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		input string
		kind  object.ErrorKind
	}{
		{"return missing;", object.ErrUnboundName},
		{"s = {x: 1}; return s.y;", object.ErrUnboundName},
		{"f = fn(a) { return a; }; return f();", object.ErrArgMismatch},
		{"return 1();", object.ErrUnexpectedType},
		{"return null[0];", object.ErrUnexpectedType},
		{"return (1).x;", object.ErrUnexpectedType},
		{`if ("no") { x = 1; }`, object.ErrUnexpectedType},
		{`for (e in 5) { x = 1; }`, object.ErrUnexpectedType},
		{"a = [0]; pop(a);", object.ErrBounds},
		{"len(1, 2);", object.ErrArgMismatch},
		{"len(null);", object.ErrUnexpectedType},
	}
	for _, tt := range tests {
		if kind := evalErrKind(t, tt.input); kind != tt.kind {
			t.Errorf("%q: wrong error kind %v, want %v", tt.input, kind, tt.kind)
		}
	}
}

func TestCycleSafePrinting(t *testing.T) {
	val, err := testEval(t, "a = [1]; a[0] = a; return a;")
	if err != nil {
		t.Fatal(err)
	}
	if got := val.Inspect(); got != "[[...]]" {
		t.Fatalf("got %q, want [[...]]", got)
	}

	val, err = testEval(t, "s = {x: 1}; s.me = s; return str(s);")
	if err != nil {
		t.Fatal(err)
	}
	if got := val.(*object.String).Value; !strings.Contains(got, "{...}") {
		t.Fatalf("got %q, want a cycle placeholder", got)
	}
}

func TestLen(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{`return len("hello");`, 5},
		{"return len([4]);", 4},
		{"return len({a: 1, b: 2});", 2},
	}
	for _, tt := range tests {
		if got := evalNum(t, tt.input); got != tt.want {
			t.Errorf("%q = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestStr(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"return str(1.5);", "1.5"},
		{`return str("x");`, "x"},
		{"return str(null);", "null"},
		{"return str([1:3]);", "[1, 2]"},
		{"f = fn(a, b) { return a; }; return str(f);", "<f fn(a, b)>"},
	}
	for _, tt := range tests {
		val, err := testEval(t, tt.input)
		if err != nil {
			t.Fatal(err)
		}
		if got := val.(*object.String).Value; got != tt.want {
			t.Errorf("%q = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestArrayMutationBuiltins(t *testing.T) {
	input := `
a = [0];
push(a, 1);
push(a, 2);
insert(a, 1, 9);
popped = pop(a);
removed = remove(a, 0);
return str(a) + " " + str(popped) + " " + str(removed);`
	val, err := testEval(t, input)
	if err != nil {
		t.Fatal(err)
	}
	if got := val.(*object.String).Value; got != "[9] 2 1" {
		t.Fatalf("got %q, want %q", got, "[9] 2 1")
	}
}

func TestRandRange(t *testing.T) {
	for i := 0; i < 10; i++ {
		if got := evalNum(t, "return rand();"); got < 0 || got >= 1 {
			t.Fatalf("rand() = %v, want [0, 1)", got)
		}
	}
}

func TestPrintOutput(t *testing.T) {
	var buf bytes.Buffer
	orig := stdout
	stdout = &buf
	defer func() { stdout = orig }()

	if _, err := testEval(t, `print("a", 1); println("b");`); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "a 1 b\n" {
		t.Fatalf("got %q, want %q", got, "a 1 b\n")
	}
}

func TestErrorBuiltin(t *testing.T) {
	var buf bytes.Buffer
	orig := stderr
	stderr = &buf
	defer func() { stderr = orig }()

	if kind := evalErrKind(t, `error("boom", 42);`); kind != object.ErrUser {
		t.Fatalf("wrong error kind %v", kind)
	}
	if got := buf.String(); got != "ERR: boom 42\n" {
		t.Fatalf("got %q, want %q", got, "ERR: boom 42\n")
	}
}

func TestInputBuiltins(t *testing.T) {
	orig := stdin
	defer func() { stdin = orig; stdinReader = nil }()

	stdin = strings.NewReader("hello\n12.5\n")
	stdinReader = nil

	val, err := testEval(t, "return input_str();")
	if err != nil {
		t.Fatal(err)
	}
	if s := val.(*object.String).Value; s != "hello" {
		t.Fatalf("input_str() = %q, want hello", s)
	}

	if got := evalNum(t, "return input_num();"); got != 12.5 {
		t.Fatalf("input_num() = %v, want 12.5", got)
	}

	stdin = strings.NewReader("not a number\n")
	stdinReader = nil
	if kind := evalErrKind(t, "return input_num();"); kind != object.ErrIO {
		t.Fatalf("wrong error kind %v", kind)
	}
}

func TestInputPrompt(t *testing.T) {
	origIn, origOut := stdin, stdout
	var buf bytes.Buffer
	stdout = &buf
	defer func() { stdin = origIn; stdout = origOut; stdinReader = nil }()

	stdin = strings.NewReader("rex\n3\n")
	stdinReader = nil

	val, err := testEval(t, `return input_str("name:");`)
	if err != nil {
		t.Fatal(err)
	}
	if s := val.(*object.String).Value; s != "rex" {
		t.Fatalf("input_str = %q, want rex", s)
	}
	if got := buf.String(); got != "name: " {
		t.Fatalf("prompt = %q, want %q", got, "name: ")
	}

	buf.Reset()
	if got := evalNum(t, `return input_num("age", "?");`); got != 3 {
		t.Fatalf("input_num = %v, want 3", got)
	}
	if got := buf.String(); got != "age ? " {
		t.Fatalf("prompt = %q, want %q", got, "age ? ")
	}
}

func TestArityCheckedBeforeArguments(t *testing.T) {
	var buf bytes.Buffer
	orig := stdout
	stdout = &buf
	defer func() { stdout = orig }()

	_, err := testEval(t, `f = fn(a, b) { return a; }; f(print("x"));`)
	var runtimeErr *object.RuntimeError
	if !errors.As(err, &runtimeErr) || runtimeErr.Kind != object.ErrArgMismatch {
		t.Fatalf("expected ArgMismatch, got %v", err)
	}
	if runtimeErr.Expected != 2 || runtimeErr.Got != 1 {
		t.Fatalf("expected 2/1, got %d/%d", runtimeErr.Expected, runtimeErr.Got)
	}
	// the mismatched call must not evaluate its arguments
	if got := buf.String(); got != "" {
		t.Fatalf("argument side effect ran: %q", got)
	}
}

func TestDivisionByZeroFollowsFloatSemantics(t *testing.T) {
	if got := evalNum(t, "return 1 / 0;"); got <= 0 {
		t.Fatalf("1/0 = %v, want +inf", got)
	}
	val, err := testEval(t, "n = 0 / 0; return n != n;")
	if err != nil {
		t.Fatal(err)
	}
	// NaN compares unequal to itself through ==
	if val.(*object.Num).Value != 1 {
		t.Fatal("0/0 should be NaN")
	}
}

func TestEvalInteractive(t *testing.T) {
	env := NewGlobalEnvironment()

	run := func(input string) object.Value {
		t.Helper()
		p := parser.New(lexer.New(input))
		program := p.ParseProgram()
		if len(p.Errors()) != 0 {
			t.Fatalf("parser errors: %v", p.Errors())
		}
		var last object.Value = object.NULL
		for _, stmt := range program.Statements {
			val, err := EvalInteractive(stmt, env)
			if err != nil {
				t.Fatal(err)
			}
			last = val
		}
		return last
	}

	if val := run("x = 2;"); val != object.NULL {
		t.Fatalf("assignment echoed %s", val.Inspect())
	}
	val := run("x * 21;")
	if num, ok := val.(*object.Num); !ok || num.Value != 42 {
		t.Fatalf("expression statement echoed %s, want 42", val.Inspect())
	}
}
