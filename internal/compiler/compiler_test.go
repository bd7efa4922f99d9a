package compiler

import (
	"strings"
	"testing"

	"glox/internal/chunk"
	"glox/internal/object"
)

func TestCompileNumberLiteralEndsInReturn(t *testing.T) {
	fn, err := Compile("42;")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	code := fn.Chunk.Code
	if len(code) == 0 || chunk.Opcode(code[len(code)-1]) != chunk.OpReturn {
		t.Fatalf("expected chunk to end with OpReturn, got %v", code)
	}
	if chunk.Opcode(code[0]) != chunk.OpConstant {
		t.Errorf("expected first instruction OpConstant, got %v", chunk.Opcode(code[0]))
	}
}

func TestCompileLinesStayParallel(t *testing.T) {
	fn, err := Compile("print 1 +\n2;")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(fn.Chunk.Lines) != len(fn.Chunk.Code) {
		t.Fatalf("len(Lines)=%d != len(Code)=%d", len(fn.Chunk.Lines), len(fn.Chunk.Code))
	}
}

func TestCompileArithmeticPrecedence(t *testing.T) {
	fn, err := Compile("print 1 + 2 * 3;")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	var ops []chunk.Opcode
	code := fn.Chunk.Code
	i := 0
	for i < len(code) {
		op := chunk.Opcode(code[i])
		ops = append(ops, op)
		switch op {
		case chunk.OpConstant:
			i += 2
		case chunk.OpAdd, chunk.OpMultiply, chunk.OpPrint, chunk.OpPop, chunk.OpNil, chunk.OpReturn:
			i++
		default:
			i++
		}
	}

	want := []chunk.Opcode{
		chunk.OpConstant, chunk.OpConstant, chunk.OpConstant,
		chunk.OpMultiply, chunk.OpAdd, chunk.OpPrint,
		chunk.OpNil, chunk.OpReturn,
	}
	if len(ops) != len(want) {
		t.Fatalf("opcode sequence = %v, want %v", ops, want)
	}
	for i, op := range ops {
		if op != want[i] {
			t.Errorf("opcode[%d] = %v, want %v", i, op, want[i])
		}
	}
}

func TestCompileReportsUndefinedLocalInInitializer(t *testing.T) {
	_, err := Compile("{ var a = a; }")
	if err == nil {
		t.Fatalf("expected a compile error")
	}
	if !strings.Contains(err.Error(), "own initializer") {
		t.Errorf("expected 'own initializer' diagnostic, got: %v", err)
	}
}

func TestCompileReportsInvalidAssignmentTarget(t *testing.T) {
	_, err := Compile("1 + 2 = 3;")
	if err == nil {
		t.Fatalf("expected a compile error")
	}
	if !strings.Contains(err.Error(), "Invalid assignment target") {
		t.Errorf("expected invalid assignment diagnostic, got: %v", err)
	}
}

func TestCompileAccumulatesMultipleErrorsAcrossStatements(t *testing.T) {
	_, err := Compile("var ;\nvar ;\n")
	if err == nil {
		t.Fatalf("expected a compile error")
	}
	lines := strings.Split(err.Error(), "\n")
	if len(lines) < 2 {
		t.Errorf("expected at least 2 diagnostics from panic-mode recovery, got %d: %v", len(lines), err)
	}
}

func TestCompileThisOutsideClassIsError(t *testing.T) {
	_, err := Compile("print this;")
	if err == nil {
		t.Fatalf("expected a compile error")
	}
	if !strings.Contains(err.Error(), "'this' outside of a class") {
		t.Errorf("expected this-outside-class diagnostic, got: %v", err)
	}
}

func TestCompileSuperOutsideClassIsError(t *testing.T) {
	_, err := Compile("print super.x;")
	if err == nil {
		t.Fatalf("expected a compile error")
	}
	if !strings.Contains(err.Error(), "'super' outside of a class") {
		t.Errorf("expected super-outside-class diagnostic, got: %v", err)
	}
}

func TestCompileClassWithSelfInheritanceIsError(t *testing.T) {
	_, err := Compile("class Oops < Oops {}")
	if err == nil {
		t.Fatalf("expected a compile error")
	}
	if !strings.Contains(err.Error(), "inherit from itself") {
		t.Errorf("expected self-inheritance diagnostic, got: %v", err)
	}
}

func TestCompileReturnValueFromInitializerIsError(t *testing.T) {
	_, err := Compile("class A { init() { return 1; } }")
	if err == nil {
		t.Fatalf("expected a compile error")
	}
	if !strings.Contains(err.Error(), "return a value from an initializer") {
		t.Errorf("expected initializer-return diagnostic, got: %v", err)
	}
}

func TestCompileFunctionClosesOverUpvalue(t *testing.T) {
	fn, err := Compile(`
		fun makeCounter() {
			var i = 0;
			fun counter() {
				i = i + 1;
				return i;
			}
			return counter;
		}
	`)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	var makeCounter, counter *object.Function
	for _, k := range fn.Chunk.Constants {
		if f, ok := k.(*object.Function); ok && f.Name == "makeCounter" {
			makeCounter = f
		}
	}
	if makeCounter == nil {
		t.Fatalf("expected the script's constant pool to hold makeCounter")
	}
	for _, k := range makeCounter.Chunk.Constants {
		if f, ok := k.(*object.Function); ok && f.Name == "counter" {
			counter = f
		}
	}
	if counter == nil {
		t.Fatalf("expected makeCounter's constant pool to hold counter")
	}

	found := false
	code := makeCounter.Chunk.Code
	for i := 0; i < len(code); i++ {
		if chunk.Opcode(code[i]) == chunk.OpClosure {
			found = true
		}
	}
	if !found {
		t.Errorf("expected makeCounter's chunk to contain an OpClosure for the nested function")
	}
	if counter.UpvalueCount != 1 {
		t.Errorf("counter.UpvalueCount = %d, want 1 (it captures i)", counter.UpvalueCount)
	}
}

func TestCompileValidProgramHasNoError(t *testing.T) {
	src := `
		class Animal {
			init(name) {
				this.name = name;
			}
			speak() {
				print this.name;
			}
		}
		class Dog < Animal {
			speak() {
				super.speak();
				print "Woof";
			}
		}
		var d = Dog("Rex");
		d.speak();
	`
	if _, err := Compile(src); err != nil {
		t.Fatalf("expected valid program to compile cleanly, got: %v", err)
	}
}
