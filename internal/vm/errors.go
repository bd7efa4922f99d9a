package vm

import (
	"fmt"
	"strings"
)

// StackFrame is a single rendered line of a runtime error's trace: the
// source line the call was at and the name of the function running
// there ("script" for the top-level frame).
type StackFrame struct {
	Line int
	Name string
}

// RuntimeError is returned by Interpret when a running program hits an
// unrecoverable runtime condition (arity mismatch, bad operand types,
// undefined variable, stack overflow, and so on).
type RuntimeError struct {
	Message string
	Frames  []StackFrame
}

// Error renders the message, then one "[line L] in <name>" line per
// frame, innermost first.
func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, f := range e.Frames {
		fmt.Fprintf(&b, "\n[line %d] in %s", f.Line, f.Name)
	}
	return b.String()
}

// runtimeError builds a RuntimeError from the current frame stack
// (innermost first) and resets the VM's stacks, since a runtime error
// always aborts the in-progress interpret call. The current frame's ip
// has already been advanced past the failing instruction, so ip-1 maps
// back to the line that raised the error.
func (vm *VM) runtimeError(format string, args ...any) error {
	message := fmt.Sprintf(format, args...)

	frames := make([]StackFrame, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		fr := vm.frames[i]
		fn := fr.closure.Function
		name := "script"
		if fn.Name != "" {
			name = fn.Name
		}
		line := 0
		if fr.ip-1 >= 0 && fr.ip-1 < len(fn.Chunk.Lines) {
			line = fn.Chunk.Line(fr.ip - 1)
		}
		frames = append(frames, StackFrame{Line: line, Name: name})
	}

	vm.resetStack()
	return &RuntimeError{Message: message, Frames: frames}
}
