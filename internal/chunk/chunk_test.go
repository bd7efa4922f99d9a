package chunk

import "testing"

func TestWriteKeepsLinesParallel(t *testing.T) {
	c := New()
	c.WriteOp(OpNil, 1)
	c.WriteOp(OpTrue, 1)
	c.WriteOp(OpPop, 2)

	if len(c.Lines) != len(c.Code) {
		t.Fatalf("len(Lines)=%d != len(Code)=%d", len(c.Lines), len(c.Code))
	}
	if c.Line(2) != 2 {
		t.Errorf("expected line 2 at offset 2, got %d", c.Line(2))
	}
}

func TestPatchOverwritesByte(t *testing.T) {
	c := New()
	c.WriteOp(OpJump, 1)
	placeholder := c.Count()
	c.Write(0xFF, 1)
	c.Write(0xFF, 1)

	c.Patch(placeholder, 0x00)
	c.Patch(placeholder+1, 0x05)

	if c.Read(placeholder) != 0x00 || c.Read(placeholder+1) != 0x05 {
		t.Errorf("patch did not take effect: got %x %x", c.Read(placeholder), c.Read(placeholder+1))
	}
}

func TestAddConstantFailsWhenFull(t *testing.T) {
	c := New()
	for i := 0; i < MaxConstants; i++ {
		if _, ok := c.AddConstant(float64(i)); !ok {
			t.Fatalf("expected constant %d to fit", i)
		}
	}
	if _, ok := c.AddConstant(float64(999)); ok {
		t.Errorf("expected 257th constant to be rejected")
	}
}

func TestAddConstantReturnsIndex(t *testing.T) {
	c := New()
	idx0, _ := c.AddConstant("a")
	idx1, _ := c.AddConstant("b")
	if idx0 != 0 || idx1 != 1 {
		t.Errorf("expected sequential indices 0,1, got %d,%d", idx0, idx1)
	}
}
