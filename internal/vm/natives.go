package vm

import (
	"fmt"
	"time"

	"glox/internal/object"
	"glox/internal/value"
)

// defineNatives registers every built-in native function in globals.
// glox predefines exactly one: clock().
func (vm *VM) defineNatives() {
	vm.defineNative("clock", 0, clockNative)
}

func (vm *VM) defineNative(name string, arity int, fn object.NativeFn) {
	vm.globals[name] = &object.Native{Name: name, Arity: arity, Fn: fn}
}

func clockNative(args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("Expected 0 arguments but got %d.", len(args))
	}
	return float64(time.Now().UnixNano()) / 1e9, nil
}
