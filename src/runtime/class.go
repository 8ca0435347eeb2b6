/*
 * CapivaraVM - A Java bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package runtime

import (
	"fmt"

	"github.com/Mathweuzz/CapivaraVM/src/classfile"
)

// StaticKey identifies a static field slot by name and descriptor within
// one class (statics are never shared across a hierarchy: each class that
// declares a static field owns its own slot).
type StaticKey struct {
	Name       string
	Descriptor string
}

// Class is the linked, executable form of a parsed classfile.ClassFile:
// it carries the class's static variable area and clinit detection on top
// of the raw parse.
type Class struct {
	Name      string
	SuperName string
	File      *classfile.ClassFile

	Statics map[StaticKey]Value

	ClinitMethod classfile.MethodInfo
	ClinitCode   classfile.CodeAttribute
	HasClinit    bool

	linked bool
}

// NewClass wraps a parsed class file with its resolved this/super names.
// The returned Class is not yet linked; call Link before executing any of
// its methods or reading its statics.
func NewClass(name, superName string, cf *classfile.ClassFile) *Class {
	return &Class{
		Name:      name,
		SuperName: superName,
		File:      cf,
		Statics:   make(map[StaticKey]Value),
	}
}

// DefaultValueForDescriptor returns the JVM-mandated default value for a
// field of the given descriptor: zero for primitives, null for references.
func DefaultValueForDescriptor(desc string) (Value, error) {
	t, err := classfile.ParseFieldDescriptor(desc)
	if err != nil {
		return Value{}, err
	}
	if t.Kind == classfile.KindBase {
		switch t.Code {
		case 'I', 'B', 'C', 'S', 'Z':
			return IntVal(0), nil
		case 'J':
			return LongVal(0), nil
		case 'F':
			return FloatVal(0), nil
		case 'D':
			return DoubleVal(0), nil
		case 'V':
			return Value{}, fmt.Errorf("runtime: a field cannot have descriptor V")
		}
	}
	return RefVal(NullRef), nil
}

// Link prepares this class's static variable area: every static field
// gets its JVM default, then every static final field carrying a
// ConstantValue attribute is overwritten with that constant. String
// constants are interned into sp and stored as a ref into the shared
// string/object handle space. <clinit>()V, if present, is located but
// never executed (see package-level Non-goals).
func (c *Class) Link(sp *StringPool) error {
	if c.linked {
		return nil
	}
	cp := c.File.ConstantPool

	for _, f := range c.File.Fields {
		if f.AccessFlags&classfile.AccStatic == 0 {
			continue
		}
		name, err := cp.GetUtf8(int(f.NameIndex))
		if err != nil {
			return err
		}
		desc, err := cp.GetUtf8(int(f.DescriptorIndex))
		if err != nil {
			return err
		}
		dv, err := DefaultValueForDescriptor(desc)
		if err != nil {
			return err
		}
		c.Statics[StaticKey{name, desc}] = dv
	}

	for _, f := range c.File.Fields {
		isStatic := f.AccessFlags&classfile.AccStatic != 0
		isFinal := f.AccessFlags&classfile.AccFinal != 0
		if !isStatic || !isFinal {
			continue
		}
		cv, ok := classfile.FindConstantValue(f.Attributes)
		if !ok {
			continue
		}
		name, err := cp.GetUtf8(int(f.NameIndex))
		if err != nil {
			return err
		}
		desc, err := cp.GetUtf8(int(f.DescriptorIndex))
		if err != nil {
			return err
		}
		val, err := resolveConstantValue(cp, int(cv.ConstantValueIndex), sp)
		if err != nil {
			return err
		}
		c.Statics[StaticKey{name, desc}] = val
	}

	m, found, err := c.File.FindMethod("<clinit>", "()V")
	if err != nil {
		return err
	}
	if found {
		c.ClinitMethod = m
		if code, ok := classfile.FindCode(m.Attributes); ok {
			c.ClinitCode = code
		}
		c.HasClinit = true
	}

	c.linked = true
	return nil
}

func resolveConstantValue(cp *classfile.ConstantPool, idx int, sp *StringPool) (Value, error) {
	e, err := cp.Get(idx)
	if err != nil {
		return Value{}, err
	}
	switch ent := e.(type) {
	case classfile.CpInteger:
		return IntVal(ent.Value), nil
	case classfile.CpFloat:
		return FloatVal(ent.Value), nil
	case classfile.CpLong:
		return LongVal(ent.Value), nil
	case classfile.CpDouble:
		return DoubleVal(ent.Value), nil
	case classfile.CpString:
		s, err := cp.GetUtf8(int(ent.StringIndex))
		if err != nil {
			return Value{}, err
		}
		sid := sp.Intern(s)
		return RefVal(ObjectID(sid)), nil
	default:
		return Value{}, fmt.Errorf("runtime: unsupported ConstantValue entry tag %d", e.Tag())
	}
}

// FindMethod performs a linear, non-inheriting scan of this class's own
// methods (spec.md's find_method contract: no inheritance).
func (c *Class) FindMethod(name, desc string) (classfile.MethodInfo, bool, error) {
	return c.File.FindMethod(name, desc)
}
