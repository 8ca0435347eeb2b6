/*
 * CapivaraVM - A Java bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package runtime

import (
	"testing"

	"github.com/Mathweuzz/CapivaraVM/src/classfile"
)

// buildLinkableClassFile assembles a classfile.ClassFile directly (rather
// than through the parser) with:
//   - a plain static int field COUNT, no ConstantValue (gets the JVM default)
//   - a static final int field LIMIT with a ConstantValue of 10
//   - a static final String NAME with a ConstantValue string literal
//   - a <clinit>()V method with no attributes (no Code attribute)
func buildLinkableClassFile() *classfile.ClassFile {
	cp := classfile.NewConstantPool(11)
	cp.Set(1, classfile.CpUtf8{Value: "COUNT"})
	cp.Set(2, classfile.CpUtf8{Value: "I"})
	cp.Set(3, classfile.CpUtf8{Value: "LIMIT"})
	cp.Set(4, classfile.CpInteger{Value: 10})
	cp.Set(5, classfile.CpUtf8{Value: "NAME"})
	cp.Set(6, classfile.CpUtf8{Value: "Ljava/lang/String;"})
	cp.Set(7, classfile.CpUtf8{Value: "hello"})
	cp.Set(8, classfile.CpString{StringIndex: 7})
	cp.Set(9, classfile.CpUtf8{Value: "<clinit>"})

	fields := []classfile.FieldInfo{
		{
			AccessFlags: classfile.AccStatic,
			NameIndex:   1,
			DescriptorIndex: 2,
		},
		{
			AccessFlags:     classfile.AccStatic | classfile.AccFinal,
			NameIndex:       3,
			DescriptorIndex: 2,
			Attributes: []classfile.Attribute{
				classfile.ConstantValueAttribute{ConstantValueIndex: 4},
			},
		},
		{
			AccessFlags:     classfile.AccStatic | classfile.AccFinal,
			NameIndex:       5,
			DescriptorIndex: 6,
			Attributes: []classfile.Attribute{
				classfile.ConstantValueAttribute{ConstantValueIndex: 8},
			},
		},
	}

	cp.Set(10, classfile.CpUtf8{Value: "()V"})
	methods := []classfile.MethodInfo{
		{
			AccessFlags:     classfile.AccStatic,
			NameIndex:       9,
			DescriptorIndex: 10,
		},
	}

	return &classfile.ClassFile{
		ConstantPool: cp,
		Fields:       fields,
		Methods:      methods,
	}
}

func TestClassLinkDefaultsAndConstantValues(t *testing.T) {
	c := NewClass("Config", "java/lang/Object", buildLinkableClassFile())
	sp := NewStringPool()

	if err := c.Link(sp); err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	count, ok := c.Statics[StaticKey{Name: "COUNT", Descriptor: "I"}]
	if !ok || count.Tag != TagInt || count.I != 0 {
		t.Errorf("COUNT = %+v, ok=%v, want int 0", count, ok)
	}

	limit, ok := c.Statics[StaticKey{Name: "LIMIT", Descriptor: "I"}]
	if !ok || limit.Tag != TagInt || limit.I != 10 {
		t.Errorf("LIMIT = %+v, ok=%v, want int 10", limit, ok)
	}

	name, ok := c.Statics[StaticKey{Name: "NAME", Descriptor: "Ljava/lang/String;"}]
	if !ok || name.Tag != TagRef {
		t.Fatalf("NAME = %+v, ok=%v, want a ref", name, ok)
	}
	s, found := sp.Get(StringID(name.Ref))
	if !found || s != "hello" {
		t.Errorf("interned string = %q, found=%v, want \"hello\"", s, found)
	}
}

func TestClassLinkDetectsClinitWithoutRunningIt(t *testing.T) {
	c := NewClass("Config", "java/lang/Object", buildLinkableClassFile())
	sp := NewStringPool()
	if err := c.Link(sp); err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if !c.HasClinit {
		t.Error("expected HasClinit=true")
	}
}

func TestClassLinkIsIdempotent(t *testing.T) {
	c := NewClass("Config", "java/lang/Object", buildLinkableClassFile())
	sp := NewStringPool()
	if err := c.Link(sp); err != nil {
		t.Fatalf("first Link failed: %v", err)
	}
	c.Statics[StaticKey{Name: "COUNT", Descriptor: "I"}] = IntVal(99)
	if err := c.Link(sp); err != nil {
		t.Fatalf("second Link failed: %v", err)
	}
	if v := c.Statics[StaticKey{Name: "COUNT", Descriptor: "I"}]; v.I != 99 {
		t.Error("a second Link call should be a no-op, not re-default already-linked statics")
	}
}

func TestDefaultValueForDescriptorRejectsVoid(t *testing.T) {
	if _, err := DefaultValueForDescriptor("V"); err == nil {
		t.Error("expected error for void field descriptor")
	}
}
