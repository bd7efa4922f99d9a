// Package object defines glox's heap-allocated runtime objects: compiled
// functions, closures, upvalue cells, classes, instances, bound methods,
// and natives.
//
// These are the object variants of value.Value. Each concrete type here
// is always held behind a pointer, so comparing two value.Value holding
// these types with Go's `==` is exactly the identity comparison Lox's
// object equality wants — no bespoke equality method is needed on any
// of them.
//
// Lifecycle:
//   - Function is built and sealed by package compiler.
//   - Closure is allocated by the VM's OpClosure handler.
//   - Upvalue cells are allocated on OpClosure when capturing a newly
//     captured local, or shared with an enclosing closure's cell
//     otherwise; they are closed on OpCloseUpvalue or when their owning
//     frame returns.
//   - Instance is allocated when OpCall invokes a Class.
//   - BoundMethod is allocated by OpGetProperty and OpGetSuper. OpInvoke
//     and OpSuperInvoke call the method directly and allocate none.
package object

import (
	"fmt"

	"glox/internal/chunk"
	"glox/internal/value"
)

// Function is an immutable compiled function body: its name, arity, the
// chunk holding its bytecode, and how many upvalues its closures need.
// Once the compiler's endCompilerState seals it, nothing mutates it
// again — every Closure built from it shares the same Function.
type Function struct {
	Name         string
	Arity        int
	UpvalueCount int
	Chunk        *chunk.Chunk
}

// NewFunction creates an empty Function ready for the compiler to emit
// bytecode into via Chunk.
func NewFunction(name string) *Function {
	return &Function{Name: name, Chunk: chunk.New()}
}

// String renders the function the way `print` does: "<fn name>", or
// "<script>" for the unnamed top-level function.
func (f *Function) String() string {
	if f.Name == "" {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name)
}

// NativeFn is the Go function a Native wraps. It receives a slice over the
// VM's own argument stack slots — not a copy — matching the calling
// convention original_source/vm.rs uses for natives.
type NativeFn func(args []value.Value) (value.Value, error)

// Native is a VM built-in, such as clock(). Arity is checked by the
// native itself (the VM does not enforce it), again matching
// original_source/vm.rs.
type Native struct {
	Name  string
	Arity int
	Fn    NativeFn
}

// String renders every native the same way `print` renders any
// unreflectable builtin.
func (n *Native) String() string {
	return "<native fn>"
}

// Upvalue is a runtime cell that lets a closure read and write a variable
// declared in an enclosing function after that function's frame has
// returned.
//
// While open, Location points directly at the captured stack slot, so
// reads and writes through the cell alias the live local. On Close,
// the current value is copied into Closed and Location is repointed at
// Closed itself — callers never need to branch on open/closed state,
// they just dereference Location.
//
// StackIndex only has meaning while the cell is open: it's what the VM's
// captureUpvalue uses to find and reuse an existing cell for the same
// slot, and what Return uses to decide which open cells to close.
type Upvalue struct {
	Location   *value.Value
	Closed     value.Value
	StackIndex int
	Next       *Upvalue // VM-maintained open-upvalue list; see vm.captureUpvalue
}

// NewOpenUpvalue creates a cell aliasing the stack slot at index,
// pointed to by slot.
func NewOpenUpvalue(slot *value.Value, index int) *Upvalue {
	return &Upvalue{Location: slot, StackIndex: index}
}

// IsOpen reports whether the cell still aliases a live stack slot.
func (u *Upvalue) IsOpen() bool {
	return u.Location != &u.Closed
}

// Close seals the cell: it copies the current value out of the stack
// slot it aliased and becomes the sole owner of that value from then on.
func (u *Upvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
	u.Next = nil
}

// Get returns the cell's current value, open or closed.
func (u *Upvalue) Get() value.Value {
	return *u.Location
}

// Set stores v into the cell, open or closed.
func (u *Upvalue) Set(v value.Value) {
	*u.Location = v
}

// Closure pairs an immutable Function with the upvalue cells its body
// captured from enclosing scopes. Closures are the only objects the VM
// pushes a CallFrame for (Function values never appear on the value
// stack on their own).
type Closure struct {
	Function *Function
	Upvalues []*Upvalue
}

// NewClosure allocates a Closure over fn with upvalue_count empty
// upvalue slots, ready for OpClosure to fill in.
func NewClosure(fn *Function) *Closure {
	return &Closure{Function: fn, Upvalues: make([]*Upvalue, fn.UpvalueCount)}
}

// String renders a closure exactly as its underlying function prints.
func (c *Closure) String() string {
	return c.Function.String()
}

// InitName is the reserved method name that marks a class's initializer.
const InitName = "init"

// Class is a class descriptor: its name and its method table, keyed by
// method name. Methods are Closures so each one can still capture
// upvalues from the class body's enclosing scope (rare, but not
// forbidden).
type Class struct {
	Name    string
	Methods map[string]*Closure
}

// NewClass creates an empty class with the given name.
func NewClass(name string) *Class {
	return &Class{Name: name, Methods: make(map[string]*Closure)}
}

// String renders a class as its own name.
func (c *Class) String() string {
	return c.Name
}

// Instance is a live object: a reference to the class that created it
// plus its own field map. Fields and methods are resolved separately
// (GetProperty checks fields first, then the class's method table) so a
// field can shadow a method of the same name.
type Instance struct {
	Class  *Class
	Fields map[string]value.Value
}

// NewInstance allocates a field-less instance of class.
func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Fields: make(map[string]value.Value)}
}

// String renders an instance as "<ClassName> instance".
func (i *Instance) String() string {
	return fmt.Sprintf("%s instance", i.Class.Name)
}

// BoundMethod pairs a receiver (always an Instance) with a method
// Closure, produced when a method is read as a value rather than
// called directly.
type BoundMethod struct {
	Receiver value.Value
	Method   *Closure
}

// NewBoundMethod binds method to receiver.
func NewBoundMethod(receiver value.Value, method *Closure) *BoundMethod {
	return &BoundMethod{Receiver: receiver, Method: method}
}

// String renders a bound method as its underlying function prints.
func (b *BoundMethod) String() string {
	return b.Method.Function.String()
}
