/*
 * CapivaraVM - A Java bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import "testing"

func TestConstantPoolGetUtf8AndClassName(t *testing.T) {
	cp := NewConstantPool(3)
	cp.Set(1, CpUtf8{Value: "java/lang/Object"})
	cp.Set(2, CpClass{NameIndex: 1})

	s, err := cp.GetUtf8(1)
	if err != nil || s != "java/lang/Object" {
		t.Fatalf("GetUtf8(1) = %q, %v", s, err)
	}

	name, err := cp.ClassName(2)
	if err != nil || name != "java/lang/Object" {
		t.Fatalf("ClassName(2) = %q, %v", name, err)
	}
}

func TestConstantPoolIndexZeroReserved(t *testing.T) {
	cp := NewConstantPool(2)
	if _, err := cp.Get(0); err == nil {
		t.Error("expected error reading reserved index 0")
	}
}

func TestConstantPoolPlaceholderSlot(t *testing.T) {
	cp := NewConstantPool(3)
	cp.Set(1, CpLong{Value: 42})
	cp.Set(2, CpPlaceholder{})

	if _, err := cp.Get(2); err == nil {
		t.Error("expected error reading a long/double placeholder slot")
	}
}

func TestConstantPoolOutOfRange(t *testing.T) {
	cp := NewConstantPool(2)
	if _, err := cp.Get(5); err == nil {
		t.Error("expected out-of-range error")
	}
}

func TestConstantPoolWrongEntryType(t *testing.T) {
	cp := NewConstantPool(2)
	cp.Set(1, CpInteger{Value: 1})
	if _, err := cp.GetUtf8(1); err == nil {
		t.Error("expected error fetching Utf8 from an Integer entry")
	}
}
