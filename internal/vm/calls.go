package vm

import (
	"glox/internal/object"
	"glox/internal/value"
)

// callValue dispatches `Call argc`: the semantics depend on what kind
// of callable sits at peek(argc).
func (vm *VM) callValue(callee value.Value, argc int) error {
	switch c := callee.(type) {
	case *object.Closure:
		return vm.call(c, argc)
	case *object.Native:
		args := vm.stack[vm.stackTop-argc : vm.stackTop]
		result, err := c.Fn(args)
		if err != nil {
			return vm.runtimeError("%s", err.Error())
		}
		vm.stackTop -= argc + 1
		vm.push(result)
		return nil
	case *object.Class:
		vm.stack[vm.stackTop-argc-1] = object.NewInstance(c)
		if initializer, ok := c.Methods[object.InitName]; ok {
			return vm.call(initializer, argc)
		}
		if argc != 0 {
			return vm.runtimeError("Expected 0 arguments but got %d.", argc)
		}
		return nil
	case *object.BoundMethod:
		vm.stack[vm.stackTop-argc-1] = c.Receiver
		return vm.call(c.Method, argc)
	default:
		return vm.runtimeError("Can only call functions and classes.")
	}
}

// call pushes a new CallFrame for closure, checking arity and the call
// depth limit.
func (vm *VM) call(closure *object.Closure, argc int) error {
	if argc != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argc)
	}
	if len(vm.frames) >= framesMax {
		return vm.runtimeError("Stack overflow.")
	}

	vm.frames = append(vm.frames, CallFrame{
		closure:  closure,
		slotBase: vm.stackTop - argc - 1,
	})
	return nil
}

// invoke is the fused GetProperty+Call fast path for `receiver.name(args)`
// on an instance: a callable field shadows a method of the same name.
func (vm *VM) invoke(name string, argc int) error {
	receiver := vm.peek(argc)
	inst, ok := receiver.(*object.Instance)
	if !ok {
		return vm.runtimeError("Only instances have methods.")
	}

	if field, ok := inst.Fields[name]; ok {
		vm.stack[vm.stackTop-argc-1] = field
		return vm.callValue(field, argc)
	}
	return vm.invokeFromClass(inst.Class, name, argc)
}

func (vm *VM) invokeFromClass(class *object.Class, name string, argc int) error {
	method, ok := class.Methods[name]
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name)
	}
	return vm.call(method, argc)
}

// getProperty implements OpGetProperty: fields shadow methods of the
// same name, so a field named the same as a method is always read,
// never the method.
func (vm *VM) getProperty(name string) error {
	instVal := vm.peek(0)
	inst, ok := instVal.(*object.Instance)
	if !ok {
		return vm.runtimeError("Only instances have properties.")
	}

	if field, ok := inst.Fields[name]; ok {
		vm.pop()
		vm.push(field)
		return nil
	}
	return vm.bindMethod(inst.Class, name, instVal)
}

func (vm *VM) setProperty(name string) error {
	instVal := vm.peek(1)
	inst, ok := instVal.(*object.Instance)
	if !ok {
		return vm.runtimeError("Only instances have fields.")
	}

	val := vm.pop()
	inst.Fields[name] = val
	vm.pop()
	vm.push(val)
	return nil
}

// bindMethod looks up name in class's method table, pops whatever
// receiver-shaped value is on top of the stack, and pushes a
// BoundMethod in its place. Used by both OpGetProperty (receiver is an
// Instance) and OpGetSuper (receiver was already loaded as "this").
func (vm *VM) bindMethod(class *object.Class, name string, receiver value.Value) error {
	method, ok := class.Methods[name]
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name)
	}
	bound := object.NewBoundMethod(receiver, method)
	vm.pop()
	vm.push(bound)
	return nil
}

// add implements OpAdd: numbers sum, strings concatenate, anything else
// is a type error.
func (vm *VM) add() error {
	if value.IsString(vm.peek(0)) && value.IsString(vm.peek(1)) {
		b := vm.pop().(string)
		a := vm.pop().(string)
		vm.push(a + b)
		return nil
	}
	if value.IsNumber(vm.peek(0)) && value.IsNumber(vm.peek(1)) {
		b := vm.pop().(float64)
		a := vm.pop().(float64)
		vm.push(a + b)
		return nil
	}
	return vm.runtimeError("Operands must be two numbers or two strings.")
}

// numericBinary implements every other binary arithmetic and comparison
// opcode: both operands must be numbers.
func (vm *VM) numericBinary(op func(a, b float64) value.Value) error {
	if !value.IsNumber(vm.peek(0)) || !value.IsNumber(vm.peek(1)) {
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
	b := vm.pop().(float64)
	a := vm.pop().(float64)
	vm.push(op(a, b))
	return nil
}
