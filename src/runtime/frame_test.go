/*
 * CapivaraVM - A Java bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package runtime

import "testing"

func TestFrameIntPushPop(t *testing.T) {
	f, err := NewFrame(2, 4)
	if err != nil {
		t.Fatalf("NewFrame failed: %v", err)
	}
	if err := f.PushInt(42); err != nil {
		t.Fatalf("PushInt failed: %v", err)
	}
	v, err := f.PopInt()
	if err != nil || v != 42 {
		t.Fatalf("PopInt() = %d, %v, want 42", v, err)
	}
}

func TestFrameStackOverflow(t *testing.T) {
	f, _ := NewFrame(0, 1)
	if err := f.PushInt(1); err != nil {
		t.Fatalf("first push failed: %v", err)
	}
	if err := f.PushInt(2); err == nil {
		t.Error("expected stack overflow on second push")
	}
}

func TestFrameStackUnderflow(t *testing.T) {
	f, _ := NewFrame(0, 1)
	if _, err := f.PopInt(); err == nil {
		t.Error("expected underflow popping an empty stack")
	}
}

func TestFramePopWrongTag(t *testing.T) {
	f, _ := NewFrame(0, 1)
	if err := f.PushRef(5); err != nil {
		t.Fatalf("PushRef failed: %v", err)
	}
	if _, err := f.PopInt(); err == nil {
		t.Error("expected error popping a ref as an int")
	}
}

func TestFrameLongOccupiesTwoSlots(t *testing.T) {
	f, _ := NewFrame(0, 2)
	if err := f.PushLong(123456789012); err != nil {
		t.Fatalf("PushLong failed: %v", err)
	}
	if f.StackDepth() != 2 {
		t.Fatalf("StackDepth() = %d, want 2 for a pushed long", f.StackDepth())
	}
	v, err := f.PopLong()
	if err != nil || v != 123456789012 {
		t.Fatalf("PopLong() = %d, %v", v, err)
	}
}

// TestFramePopAlsoPopsTop checks the slot layout the interpreter's POP
// relies on when it drops both slots of a wide value: PopSlot on a pushed
// long returns the TOP placeholder first, and the long's value slot is
// still poppable beneath it. The POP opcode itself is not run here.
func TestFramePopAlsoPopsTop(t *testing.T) {
	f, _ := NewFrame(0, 2)
	if err := f.PushLong(99); err != nil {
		t.Fatalf("PushLong failed: %v", err)
	}
	top, err := f.PopSlot()
	if err != nil {
		t.Fatalf("PopSlot failed: %v", err)
	}
	if top.Tag != TagTop {
		t.Fatalf("top slot tag = %v, want TagTop", top.Tag)
	}
	if _, err := f.PopSlot(); err != nil {
		t.Fatalf("expected the long's value slot still poppable: %v", err)
	}
	if f.StackDepth() != 0 {
		t.Errorf("StackDepth() = %d, want 0", f.StackDepth())
	}
}

func TestFrameDup(t *testing.T) {
	f, _ := NewFrame(0, 2)
	if err := f.PushInt(7); err != nil {
		t.Fatalf("PushInt failed: %v", err)
	}
	top, err := f.PopSlot()
	if err != nil {
		t.Fatalf("PopSlot failed: %v", err)
	}
	f.PushSlot(top)
	f.PushSlot(top)
	if f.StackDepth() != 2 {
		t.Fatalf("StackDepth() = %d, want 2 after dup", f.StackDepth())
	}
	a, _ := f.PopInt()
	b, _ := f.PopInt()
	if a != 7 || b != 7 {
		t.Errorf("got %d, %d, want 7, 7", a, b)
	}
}

func TestFrameLocalsIntAndRef(t *testing.T) {
	f, _ := NewFrame(2, 1)
	if err := f.SetLocalInt(0, 10); err != nil {
		t.Fatalf("SetLocalInt failed: %v", err)
	}
	if err := f.SetLocalRef(1, 3); err != nil {
		t.Fatalf("SetLocalRef failed: %v", err)
	}
	v, err := f.GetLocalInt(0)
	if err != nil || v != 10 {
		t.Errorf("GetLocalInt(0) = %d, %v", v, err)
	}
	r, err := f.GetLocalRef(1)
	if err != nil || r != 3 {
		t.Errorf("GetLocalRef(1) = %d, %v", r, err)
	}
}

func TestFrameLocalIndexOutOfRange(t *testing.T) {
	f, _ := NewFrame(1, 1)
	if err := f.SetLocalInt(1, 1); err == nil {
		t.Error("expected error setting an out-of-range local")
	}
}

func TestFrameLocalLongTakesTwoSlots(t *testing.T) {
	f, _ := NewFrame(2, 1)
	if err := f.SetLocalLong(0, 555); err != nil {
		t.Fatalf("SetLocalLong failed: %v", err)
	}
	v, err := f.GetLocalLong(0)
	if err != nil || v != 555 {
		t.Errorf("GetLocalLong(0) = %d, %v", v, err)
	}
}

func TestNewFrameRejectsZeroMaxStack(t *testing.T) {
	if _, err := NewFrame(1, 0); err == nil {
		t.Error("expected error for max_stack=0")
	}
}
