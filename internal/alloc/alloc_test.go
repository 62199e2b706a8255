package alloc

import "testing"

func TestAlloc(t *testing.T) {
	a := New(96)
	if got := a.Alloc(100, "header"); got != 96 {
		t.Errorf("first block at %d, want 96", got)
	}
	// 196 is 100 past the base, rounded up to 104.
	if got := a.Alloc(16, "heap"); got != 200 {
		t.Errorf("second block at %d, want 200", got)
	}
	if a.EOF() != 216 {
		t.Errorf("EOF = %d, want 216", a.EOF())
	}
	if err := a.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestAllocZeroSize(t *testing.T) {
	a := New(0)
	a.Alloc(3, "x")
	if got := a.Alloc(0, "empty"); got != 8 {
		t.Errorf("zero-size block at %d, want 8", got)
	}
	if n := len(a.Blocks()); n != 1 {
		t.Errorf("%d blocks recorded, want 1", n)
	}
}

func TestValidateOverlap(t *testing.T) {
	a := New(0)
	a.Alloc(64, "a")
	a.blocks = append(a.blocks, Block{Addr: 32, Size: 8, Tag: "b"})
	if err := a.Validate(); err == nil {
		t.Error("overlap not detected")
	}

	a = New(100)
	a.blocks = append(a.blocks, Block{Addr: 50, Size: 8, Tag: "c"})
	if err := a.Validate(); err == nil {
		t.Error("block before base not detected")
	}
}

func TestBlocksSorted(t *testing.T) {
	a := New(0)
	a.Alloc(8, "a")
	a.Alloc(8, "b")
	a.blocks[0], a.blocks[1] = a.blocks[1], a.blocks[0]
	blocks := a.Blocks()
	if blocks[0].Tag != "a" || blocks[1].Tag != "b" {
		t.Errorf("blocks not sorted: %+v", blocks)
	}
}
