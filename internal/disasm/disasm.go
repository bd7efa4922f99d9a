// Package disasm renders a chunk.Chunk as human-readable text: a header
// line followed by one line per instruction, showing its offset, source
// line, opcode mnemonic, and decoded operands. The constant pool is not
// listed on its own; a constant appears only beside an instruction that
// references it.
//
// This is an external collaborator kept outside the VM/compiler core,
// used by cmd/glox's `disassemble` subcommand and by anyone debugging a
// compiled .gbc file.
package disasm

import (
	"fmt"
	"io"

	"glox/internal/chunk"
	"glox/internal/object"
	"glox/internal/value"
)

// Chunk writes name as a header followed by every instruction in c,
// one per line, to w.
func Chunk(c *chunk.Chunk, name string, w io.Writer) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < c.Count(); {
		offset = Instruction(c, offset, w)
	}
}

// Instruction writes the single instruction at offset to w and returns
// the offset of the next instruction.
func Instruction(c *chunk.Chunk, offset int, w io.Writer) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && c.Line(offset) == c.Line(offset-1) {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", c.Line(offset))
	}

	op := chunk.Opcode(c.Read(offset))
	switch op {
	case chunk.OpConstant, chunk.OpGetGlobal, chunk.OpDefineGlobal, chunk.OpSetGlobal,
		chunk.OpGetProperty, chunk.OpSetProperty, chunk.OpGetSuper, chunk.OpClass, chunk.OpMethod:
		return constantInstruction(op, c, offset, w)
	case chunk.OpGetLocal, chunk.OpSetLocal, chunk.OpGetUpvalue, chunk.OpSetUpvalue, chunk.OpCall:
		return byteInstruction(op, c, offset, w)
	case chunk.OpInvoke, chunk.OpSuperInvoke:
		return invokeInstruction(op, c, offset, w)
	case chunk.OpJump, chunk.OpJumpIfFalse:
		return jumpInstruction(op, 1, c, offset, w)
	case chunk.OpLoop:
		return jumpInstruction(op, -1, c, offset, w)
	case chunk.OpClosure:
		return closureInstruction(c, offset, w)
	default:
		fmt.Fprintln(w, op)
		return offset + 1
	}
}

func constantInstruction(op chunk.Opcode, c *chunk.Chunk, offset int, w io.Writer) int {
	idx := c.Read(offset + 1)
	fmt.Fprintf(w, "%-16s %4d '%s'\n", op, idx, formatConstant(c.Constants[idx]))
	return offset + 2
}

func byteInstruction(op chunk.Opcode, c *chunk.Chunk, offset int, w io.Writer) int {
	slot := c.Read(offset + 1)
	fmt.Fprintf(w, "%-16s %4d\n", op, slot)
	return offset + 2
}

func invokeInstruction(op chunk.Opcode, c *chunk.Chunk, offset int, w io.Writer) int {
	idx := c.Read(offset + 1)
	argc := c.Read(offset + 2)
	fmt.Fprintf(w, "%-16s (%d args) %4d '%s'\n", op, argc, idx, formatConstant(c.Constants[idx]))
	return offset + 3
}

func jumpInstruction(op chunk.Opcode, sign int, c *chunk.Chunk, offset int, w io.Writer) int {
	jump := int(c.Read(offset+1))<<8 | int(c.Read(offset+2))
	fmt.Fprintf(w, "%-16s %4d -> %d\n", op, offset, offset+3+sign*jump)
	return offset + 3
}

func closureInstruction(c *chunk.Chunk, offset int, w io.Writer) int {
	idx := c.Read(offset + 1)
	fn, _ := c.Constants[idx].(*object.Function)
	fmt.Fprintf(w, "%-16s %4d '%s'\n", chunk.OpClosure, idx, formatConstant(c.Constants[idx]))
	next := offset + 2
	if fn == nil {
		return next
	}
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := c.Read(next)
		index := c.Read(next + 1)
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(w, "%04d      |                     %s %d\n", next, kind, index)
		next += 2
	}
	return next
}

// formatConstant renders a constant pool entry for disassembly output:
// strings are quoted, functions and classes show their own String().
func formatConstant(v value.Value) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return value.Print(v)
}
