package vm

import "glox/internal/object"

// captureUpvalue returns the open Upvalue cell for the stack slot at
// stackIndex, reusing an existing cell if one already aliases that slot
// (essential so two closures capturing the same variable share one
// cell) or creating and inserting a new one in descending order if not.
func (vm *VM) captureUpvalue(stackIndex int) *object.Upvalue {
	var prev *object.Upvalue
	cur := vm.openUpvalues
	for cur != nil && cur.StackIndex > stackIndex {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.StackIndex == stackIndex {
		return cur
	}

	created := object.NewOpenUpvalue(&vm.stack[stackIndex], stackIndex)
	created.Next = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open cell whose stack index is at or above
// last, copying each cell's value out of the stack before the slots it
// aliased are reclaimed.
func (vm *VM) closeUpvalues(last int) {
	for vm.openUpvalues != nil && vm.openUpvalues.StackIndex >= last {
		up := vm.openUpvalues
		up.Close()
		vm.openUpvalues = up.Next
	}
}
