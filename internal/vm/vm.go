// Package vm implements glox's stack-based bytecode virtual machine.
//
// The VM is the final stage of the pipeline: source text goes through
// package scanner and package compiler to produce a Function, which
// Interpret wraps in a Closure and executes.
//
// Virtual Machine Architecture:
//
//   1. Value stack: holds intermediate results, call arguments, and
//      locals for every in-progress call, all in one contiguous array.
//   2. Frame stack: one CallFrame per in-progress function call, each
//      tracking its own instruction pointer and the base slot its
//      locals start at within the shared value stack.
//   3. Globals: a single flat name -> Value map, shared across every
//      frame.
//   4. Open upvalues: a singly linked list of cells still aliasing live
//      stack slots, kept sorted by descending stack index so closing
//      and capturing are both simple linear scans.
//
// Both the value stack and the frame stack are preallocated to their
// maximum size up front and never reallocated — appends always stay
// within the reserved capacity. This matters beyond performance: an open
// Upvalue holds a raw pointer into a stack slot (*value.Value), and that
// pointer would dangle the moment a `append` past capacity moved the
// backing array.
//
// Example Execution:
//
//   Source:   print 1 + 2;
//
//   (slot 0 holds the script's own Closure, pushed by Interpret)
//   IP=0 OpConstant 0   -> stack=[<script>, 1]
//   IP=2 OpConstant 1   -> stack=[<script>, 1, 2]
//   IP=4 OpAdd          -> stack=[<script>, 3]
//   IP=5 OpPrint        -> stack=[<script>]    ; prints "3"
//   IP=6 OpNil          -> stack=[<script>, nil]
//   IP=7 OpReturn       -> stack=[]; halts (no more frames)
package vm

import (
	"fmt"
	"io"

	"glox/internal/chunk"
	"glox/internal/object"
	"glox/internal/value"
)

const (
	framesMax = 64
	stackMax  = framesMax * 256
)

// CallFrame is the runtime record for one in-progress call: which
// closure is executing, where its instruction pointer is within that
// closure's chunk, and where its locals begin in the shared value stack.
type CallFrame struct {
	closure  *object.Closure
	ip       int
	slotBase int
}

// VM is a single bytecode interpreter instance. Its value stack, frame
// stack, globals, and open-upvalue list are owned exclusively by it and
// mutated only by the dispatch loop in run — there is no concurrent
// access and so no locking.
type VM struct {
	stack    []value.Value
	stackTop int

	frames []CallFrame

	globals      map[string]value.Value
	openUpvalues *object.Upvalue

	out io.Writer
}

// New creates a VM ready to Interpret one or more compiled Functions in
// sequence. Globals persist across calls to Interpret on the same VM;
// the value stack and frame stack are reset at the start of each call.
// out receives everything a Lox `print` statement writes.
func New(out io.Writer) *VM {
	vm := &VM{
		stack:   make([]value.Value, stackMax),
		frames:  make([]CallFrame, 0, framesMax),
		globals: make(map[string]value.Value),
		out:     out,
	}
	vm.defineNatives()
	return vm
}

// Interpret runs fn (the top-level script Function produced by
// package compiler) to completion. It returns a *RuntimeError if the
// program raised one; compile errors are reported before Interpret is
// ever called.
func (vm *VM) Interpret(fn *object.Function) error {
	vm.resetStack()
	closure := object.NewClosure(fn)
	vm.push(closure)
	if err := vm.call(closure, 0); err != nil {
		return err
	}
	return vm.run()
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frames = vm.frames[:0]
	vm.openUpvalues = nil
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) currentFrame() *CallFrame {
	return &vm.frames[len(vm.frames)-1]
}

func (vm *VM) readByte(frame *CallFrame) byte {
	b := frame.closure.Function.Chunk.Read(frame.ip)
	frame.ip++
	return b
}

func (vm *VM) readShort(frame *CallFrame) int {
	hi := vm.readByte(frame)
	lo := vm.readByte(frame)
	return int(hi)<<8 | int(lo)
}

func (vm *VM) readConstant(frame *CallFrame) value.Value {
	return frame.closure.Function.Chunk.Constants[vm.readByte(frame)]
}

// run is the dispatch loop: fetch a byte via the current frame's ip,
// advance ip, branch on it. Every opcode handler applies exactly the
// stack effect documented on its Opcode constant in package chunk.
func (vm *VM) run() error {
	frame := vm.currentFrame()

	for {
		op := chunk.Opcode(vm.readByte(frame))

		switch op {
		case chunk.OpConstant:
			vm.push(vm.readConstant(frame))
		case chunk.OpNil:
			vm.push(nil)
		case chunk.OpTrue:
			vm.push(true)
		case chunk.OpFalse:
			vm.push(false)
		case chunk.OpPop:
			vm.pop()

		case chunk.OpGetLocal:
			slot := int(vm.readByte(frame))
			vm.push(vm.stack[frame.slotBase+slot])
		case chunk.OpSetLocal:
			slot := int(vm.readByte(frame))
			vm.stack[frame.slotBase+slot] = vm.peek(0)

		case chunk.OpGetGlobal:
			name := vm.readConstant(frame).(string)
			v, ok := vm.globals[name]
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name)
			}
			vm.push(v)
		case chunk.OpDefineGlobal:
			name := vm.readConstant(frame).(string)
			vm.globals[name] = vm.pop()
		case chunk.OpSetGlobal:
			name := vm.readConstant(frame).(string)
			if _, ok := vm.globals[name]; !ok {
				return vm.runtimeError("Undefined variable '%s'.", name)
			}
			vm.globals[name] = vm.peek(0)

		case chunk.OpGetUpvalue:
			slot := vm.readByte(frame)
			vm.push(frame.closure.Upvalues[slot].Get())
		case chunk.OpSetUpvalue:
			slot := vm.readByte(frame)
			frame.closure.Upvalues[slot].Set(vm.peek(0))

		case chunk.OpGetProperty:
			name := vm.readConstant(frame).(string)
			if err := vm.getProperty(name); err != nil {
				return err
			}
		case chunk.OpSetProperty:
			name := vm.readConstant(frame).(string)
			if err := vm.setProperty(name); err != nil {
				return err
			}
		case chunk.OpGetSuper:
			name := vm.readConstant(frame).(string)
			superclass := vm.pop().(*object.Class)
			receiver := vm.peek(0)
			if err := vm.bindMethod(superclass, name, receiver); err != nil {
				return err
			}

		case chunk.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Equal(a, b))
		case chunk.OpGreater:
			if err := vm.numericBinary(func(a, b float64) value.Value { return a > b }); err != nil {
				return err
			}
		case chunk.OpLess:
			if err := vm.numericBinary(func(a, b float64) value.Value { return a < b }); err != nil {
				return err
			}
		case chunk.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case chunk.OpSubtract:
			if err := vm.numericBinary(func(a, b float64) value.Value { return a - b }); err != nil {
				return err
			}
		case chunk.OpMultiply:
			if err := vm.numericBinary(func(a, b float64) value.Value { return a * b }); err != nil {
				return err
			}
		case chunk.OpDivide:
			if err := vm.numericBinary(func(a, b float64) value.Value { return a / b }); err != nil {
				return err
			}
		case chunk.OpNot:
			vm.push(!value.IsTruthy(vm.pop()))
		case chunk.OpNegate:
			if !value.IsNumber(vm.peek(0)) {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(-vm.pop().(float64))
		case chunk.OpPrint:
			fmt.Fprintln(vm.out, value.Print(vm.pop()))

		case chunk.OpJump:
			offset := vm.readShort(frame)
			frame.ip += offset
		case chunk.OpJumpIfFalse:
			offset := vm.readShort(frame)
			if !value.IsTruthy(vm.peek(0)) {
				frame.ip += offset
			}
		case chunk.OpLoop:
			offset := vm.readShort(frame)
			frame.ip -= offset

		case chunk.OpCall:
			argc := int(vm.readByte(frame))
			if err := vm.callValue(vm.peek(argc), argc); err != nil {
				return err
			}
			frame = vm.currentFrame()
		case chunk.OpInvoke:
			name := vm.readConstant(frame).(string)
			argc := int(vm.readByte(frame))
			if err := vm.invoke(name, argc); err != nil {
				return err
			}
			frame = vm.currentFrame()
		case chunk.OpSuperInvoke:
			name := vm.readConstant(frame).(string)
			argc := int(vm.readByte(frame))
			superclass := vm.pop().(*object.Class)
			if err := vm.invokeFromClass(superclass, name, argc); err != nil {
				return err
			}
			frame = vm.currentFrame()

		case chunk.OpClosure:
			fn := vm.readConstant(frame).(*object.Function)
			closure := object.NewClosure(fn)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := vm.readByte(frame)
				index := int(vm.readByte(frame))
				if isLocal == 1 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.slotBase + index)
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}
			vm.push(closure)
		case chunk.OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case chunk.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.slotBase)
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				vm.pop()
				return nil
			}
			vm.stackTop = frame.slotBase
			vm.push(result)
			frame = vm.currentFrame()

		case chunk.OpClass:
			name := vm.readConstant(frame).(string)
			vm.push(object.NewClass(name))
		case chunk.OpInherit:
			superclass, ok := vm.peek(1).(*object.Class)
			if !ok {
				return vm.runtimeError("Superclass must be a class.")
			}
			subclass := vm.peek(0).(*object.Class)
			for name, method := range superclass.Methods {
				subclass.Methods[name] = method
			}
			vm.pop()
		case chunk.OpMethod:
			name := vm.readConstant(frame).(string)
			method := vm.peek(0).(*object.Closure)
			class := vm.peek(1).(*object.Class)
			class.Methods[name] = method
			vm.pop()

		default:
			return vm.runtimeError("Unknown opcode %d.", op)
		}
	}
}
