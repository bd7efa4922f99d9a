package object

import (
	"testing"

	"glox/internal/value"
)

func TestUpvalueOpenAliasesStackSlot(t *testing.T) {
	stack := []value.Value{float64(1), float64(2), float64(3)}
	up := NewOpenUpvalue(&stack[1], 1)

	if !up.IsOpen() {
		t.Fatalf("expected a freshly captured upvalue to be open")
	}
	if up.Get() != float64(2) {
		t.Errorf("Get() = %v, want 2", up.Get())
	}

	stack[1] = float64(42)
	if up.Get() != float64(42) {
		t.Errorf("expected open cell to alias live stack slot, got %v", up.Get())
	}

	up.Set(float64(99))
	if stack[1] != float64(99) {
		t.Errorf("expected Set through open cell to write back to stack, got %v", stack[1])
	}
}

func TestUpvalueCloseSeversFromStack(t *testing.T) {
	stack := []value.Value{"a", "b"}
	up := NewOpenUpvalue(&stack[0], 0)

	up.Close()
	if up.IsOpen() {
		t.Fatalf("expected cell to report closed after Close")
	}
	if up.Get() != "a" {
		t.Errorf("expected closed cell to retain captured value, got %v", up.Get())
	}

	stack[0] = "changed"
	if up.Get() != "a" {
		t.Errorf("expected closed cell to be insulated from further stack writes, got %v", up.Get())
	}

	up.Set("b")
	if up.Get() != "b" {
		t.Errorf("expected Set on a closed cell to still work, got %v", up.Get())
	}
}

func TestFunctionString(t *testing.T) {
	script := NewFunction("")
	if script.String() != "<script>" {
		t.Errorf("expected unnamed function to print as <script>, got %q", script.String())
	}
	named := NewFunction("add")
	if named.String() != "<fn add>" {
		t.Errorf("expected named function to print as <fn add>, got %q", named.String())
	}
}

func TestClosureStringDelegatesToFunction(t *testing.T) {
	fn := NewFunction("greet")
	cl := NewClosure(fn)
	if cl.String() != "<fn greet>" {
		t.Errorf("Closure.String() = %q, want %q", cl.String(), "<fn greet>")
	}
}

func TestClassAndInstanceString(t *testing.T) {
	class := NewClass("Bagel")
	if class.String() != "Bagel" {
		t.Errorf("Class.String() = %q, want %q", class.String(), "Bagel")
	}
	inst := NewInstance(class)
	if inst.String() != "Bagel instance" {
		t.Errorf("Instance.String() = %q, want %q", inst.String(), "Bagel instance")
	}
}

func TestBoundMethodString(t *testing.T) {
	class := NewClass("Bagel")
	fn := NewFunction("eat")
	method := NewClosure(fn)
	class.Methods["eat"] = method
	inst := NewInstance(class)

	bound := NewBoundMethod(inst, method)
	if bound.String() != "<fn eat>" {
		t.Errorf("BoundMethod.String() = %q, want %q", bound.String(), "<fn eat>")
	}
}

func TestClosureUpvaluesSizedToFunction(t *testing.T) {
	fn := NewFunction("counter")
	fn.UpvalueCount = 2
	cl := NewClosure(fn)
	if len(cl.Upvalues) != 2 {
		t.Errorf("expected 2 upvalue slots, got %d", len(cl.Upvalues))
	}
}
