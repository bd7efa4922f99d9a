package disasm

import (
	"bytes"
	"strings"
	"testing"

	"glox/internal/chunk"
)

func TestChunkHeaderAndSimpleOp(t *testing.T) {
	c := chunk.New()
	c.WriteOp(chunk.OpReturn, 3)

	var buf bytes.Buffer
	Chunk(c, "test chunk", &buf)
	out := buf.String()

	if !strings.HasPrefix(out, "== test chunk ==\n") {
		t.Errorf("missing header, got %q", out)
	}
	if !strings.Contains(out, "0000") || !strings.Contains(out, "OpReturn") {
		t.Errorf("expected offset and mnemonic, got %q", out)
	}
}

func TestConstantInstructionShowsValue(t *testing.T) {
	c := chunk.New()
	idx, _ := c.AddConstant(3.25)
	c.WriteOp(chunk.OpConstant, 1)
	c.Write(byte(idx), 1)

	var buf bytes.Buffer
	Chunk(c, "consts", &buf)
	out := buf.String()

	if !strings.Contains(out, "OpConstant") || !strings.Contains(out, "3.25") {
		t.Errorf("expected constant operand rendered, got %q", out)
	}
}

func TestRepeatedLineCollapsesToPipe(t *testing.T) {
	c := chunk.New()
	c.WriteOp(chunk.OpNil, 1)
	c.WriteOp(chunk.OpPop, 1)

	var buf bytes.Buffer
	Chunk(c, "lines", &buf)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 { // header + 2 instructions
		t.Fatalf("got %d lines, want 3: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[2], "   | ") {
		t.Errorf("expected second instruction to collapse its repeated line, got %q", lines[2])
	}
}

func TestJumpInstructionShowsTarget(t *testing.T) {
	c := chunk.New()
	c.WriteOp(chunk.OpJumpIfFalse, 1)
	c.Write(0, 1)
	c.Write(2, 1)
	c.WriteOp(chunk.OpPop, 1)

	var buf bytes.Buffer
	Chunk(c, "jump", &buf)
	if !strings.Contains(buf.String(), "-> 5") {
		t.Errorf("expected jump target 5, got %q", buf.String())
	}
}
