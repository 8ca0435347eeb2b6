/*
 * CapivaraVM - A Java bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package runtime

import (
	"fmt"
	"testing"

	"github.com/Mathweuzz/CapivaraVM/src/classfile"
)

// fakeClassSource is a minimal ClassSource backed by a static map, standing
// in for a classloader.Classloader in tests that only need super-chain
// walking and never touch the real parser.
type fakeClassSource struct {
	classes map[string]*Class
}

func (f *fakeClassSource) Load(name string) (*Class, error) {
	c, ok := f.classes[name]
	if !ok {
		return nil, fmt.Errorf("fakeClassSource: no such class %q", name)
	}
	return c, nil
}

func classWithOneIntField(name, superName, fieldName string) *Class {
	cp := classfile.NewConstantPool(3)
	cp.Set(1, classfile.CpUtf8{Value: fieldName})
	cp.Set(2, classfile.CpUtf8{Value: "I"})
	cf := &classfile.ClassFile{
		ConstantPool: cp,
		Fields: []classfile.FieldInfo{
			{NameIndex: 1, DescriptorIndex: 2},
		},
	}
	return NewClass(name, superName, cf)
}

func TestHeapNewPopulatesOwnFields(t *testing.T) {
	h := NewHeap()
	rc := classWithOneIntField("Point", "java/lang/Object", "x")
	src := &fakeClassSource{classes: map[string]*Class{}}

	id, err := h.New(rc, src)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if id == NullRef {
		t.Fatal("allocated object got NullRef id")
	}

	obj, ok := h.Get(id)
	if !ok {
		t.Fatal("Get did not find the allocated object")
	}
	key := FieldKey{DeclaringClass: "Point", Name: "x", Descriptor: "I"}
	v, ok := obj.Fields[key]
	if !ok || v.Tag != TagInt || v.I != 0 {
		t.Errorf("field x = %+v, ok=%v, want default int 0", v, ok)
	}
}

func TestHeapNewWalksSuperChainWithoutFieldCollision(t *testing.T) {
	h := NewHeap()
	base := classWithOneIntField("Base", "java/lang/Object", "x")
	derived := classWithOneIntField("Derived", "Base", "x")
	src := &fakeClassSource{classes: map[string]*Class{"Base": base}}

	id, err := h.New(derived, src)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	obj, _ := h.Get(id)

	derivedKey := FieldKey{DeclaringClass: "Derived", Name: "x", Descriptor: "I"}
	baseKey := FieldKey{DeclaringClass: "Base", Name: "x", Descriptor: "I"}
	if _, ok := obj.Fields[derivedKey]; !ok {
		t.Error("missing Derived's own x field")
	}
	if _, ok := obj.Fields[baseKey]; !ok {
		t.Error("missing Base's shadowed x field -- collapsed by name+descriptor alone")
	}
	if len(obj.Fields) != 2 {
		t.Errorf("got %d fields, want 2 (one per declaring class)", len(obj.Fields))
	}
}

func TestHeapNewAssignsIncreasingIds(t *testing.T) {
	h := NewHeap()
	rc := classWithOneIntField("Point", "java/lang/Object", "x")
	src := &fakeClassSource{classes: map[string]*Class{}}

	first, err := h.New(rc, src)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	second, err := h.New(rc, src)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if second <= first {
		t.Errorf("ids did not increase: first=%d second=%d", first, second)
	}
}
