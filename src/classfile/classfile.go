/*
 * CapivaraVM - A Java bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classfile parses the Java .class binary format (major version 52,
// the Java 8 class file format) into Go structures, without interpreting
// any bytecode. See runtime and classloader for what happens to a parsed
// ClassFile afterward.
package classfile

import "fmt"

const magic = 0xCAFEBABE

// SupportedMajorVersion is the only class file major version this parser
// accepts. Older or newer class files are rejected outright rather than
// best-effort parsed, since descriptor/attribute shape can change across
// versions.
const SupportedMajorVersion = 52

// ClassFile is the fully parsed structural contents of a .class file.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool *ConstantPool

	AccessFlags uint16
	ThisClass   uint16
	SuperClass  uint16
	Interfaces  []uint16

	Fields     []FieldInfo
	Methods    []MethodInfo
	Attributes []Attribute
}

func readCpEntry(r *ByteReader) (uint8, CpEntry, error) {
	tag, err := r.U1()
	if err != nil {
		return 0, nil, err
	}
	switch tag {
	case TagUtf8:
		length, err := r.U2()
		if err != nil {
			return 0, nil, err
		}
		raw, err := r.Bytes(int(length))
		if err != nil {
			return 0, nil, err
		}
		return tag, CpUtf8{Value: string(raw)}, nil
	case TagInteger:
		v, err := r.U4()
		if err != nil {
			return 0, nil, err
		}
		return tag, CpInteger{Value: int32(v)}, nil
	case TagFloat:
		v, err := r.F4()
		if err != nil {
			return 0, nil, err
		}
		return tag, CpFloat{Value: v}, nil
	case TagLong:
		v, err := r.U8()
		if err != nil {
			return 0, nil, err
		}
		return tag, CpLong{Value: int64(v)}, nil
	case TagDouble:
		v, err := r.F8()
		if err != nil {
			return 0, nil, err
		}
		return tag, CpDouble{Value: v}, nil
	case TagClass:
		idx, err := r.U2()
		if err != nil {
			return 0, nil, err
		}
		return tag, CpClass{NameIndex: idx}, nil
	case TagString:
		idx, err := r.U2()
		if err != nil {
			return 0, nil, err
		}
		return tag, CpString{StringIndex: idx}, nil
	case TagNameAndType:
		nameIdx, err := r.U2()
		if err != nil {
			return 0, nil, err
		}
		descIdx, err := r.U2()
		if err != nil {
			return 0, nil, err
		}
		return tag, CpNameAndType{NameIndex: nameIdx, DescriptorIndex: descIdx}, nil
	case TagFieldref:
		ci, err := r.U2()
		if err != nil {
			return 0, nil, err
		}
		nt, err := r.U2()
		if err != nil {
			return 0, nil, err
		}
		return tag, CpFieldref{ClassIndex: ci, NameAndTypeIndex: nt}, nil
	case TagMethodref:
		ci, err := r.U2()
		if err != nil {
			return 0, nil, err
		}
		nt, err := r.U2()
		if err != nil {
			return 0, nil, err
		}
		return tag, CpMethodref{ClassIndex: ci, NameAndTypeIndex: nt}, nil
	case TagInterfaceMethodref:
		ci, err := r.U2()
		if err != nil {
			return 0, nil, err
		}
		nt, err := r.U2()
		if err != nil {
			return 0, nil, err
		}
		return tag, CpInterfaceMethodref{ClassIndex: ci, NameAndTypeIndex: nt}, nil
	default:
		return 0, nil, fmt.Errorf("classfile: unsupported constant pool tag %d", tag)
	}
}

// Parse reads a complete .class file from data.
func Parse(data []byte) (*ClassFile, error) {
	r := NewByteReader(data)

	m, err := r.U4()
	if err != nil {
		return nil, err
	}
	if m != magic {
		return nil, fmt.Errorf("classfile: invalid magic 0x%08X (want 0xCAFEBABE)", m)
	}

	minor, err := r.U2()
	if err != nil {
		return nil, err
	}
	major, err := r.U2()
	if err != nil {
		return nil, err
	}
	if major != SupportedMajorVersion {
		return nil, fmt.Errorf("classfile: unsupported major version %d (want %d)", major, SupportedMajorVersion)
	}

	cpCount, err := r.U2()
	if err != nil {
		return nil, err
	}
	cp := NewConstantPool(int(cpCount))
	for i := 1; i <= int(cpCount)-1; i++ {
		tag, entry, err := readCpEntry(r)
		if err != nil {
			return nil, fmt.Errorf("classfile: constant pool entry #%d: %w", i, err)
		}
		cp.Set(i, entry)
		if tag == TagLong || tag == TagDouble {
			i++
			cp.Set(i, CpPlaceholder{})
		}
	}

	accessFlags, err := r.U2()
	if err != nil {
		return nil, err
	}
	thisClass, err := r.U2()
	if err != nil {
		return nil, err
	}
	superClass, err := r.U2()
	if err != nil {
		return nil, err
	}

	ifaceCount, err := r.U2()
	if err != nil {
		return nil, err
	}
	interfaces := make([]uint16, 0, ifaceCount)
	for i := 0; i < int(ifaceCount); i++ {
		idx, err := r.U2()
		if err != nil {
			return nil, err
		}
		interfaces = append(interfaces, idx)
	}

	fieldCount, err := r.U2()
	if err != nil {
		return nil, err
	}
	fields, err := parseFields(r, cp, int(fieldCount))
	if err != nil {
		return nil, fmt.Errorf("classfile: fields: %w", err)
	}

	methodCount, err := r.U2()
	if err != nil {
		return nil, err
	}
	methods, err := parseMethods(r, cp, int(methodCount))
	if err != nil {
		return nil, fmt.Errorf("classfile: methods: %w", err)
	}

	attrCount, err := r.U2()
	if err != nil {
		return nil, err
	}
	attrs, err := parseAttributes(r, cp, int(attrCount))
	if err != nil {
		return nil, fmt.Errorf("classfile: class attributes: %w", err)
	}

	return &ClassFile{
		MinorVersion: minor,
		MajorVersion: major,
		ConstantPool: cp,
		AccessFlags:  accessFlags,
		ThisClass:    thisClass,
		SuperClass:   superClass,
		Interfaces:   interfaces,
		Fields:       fields,
		Methods:      methods,
		Attributes:   attrs,
	}, nil
}

// ThisClassName resolves the binary name of the class this file defines.
func (cf *ClassFile) ThisClassName() (string, error) {
	return cf.ConstantPool.ClassName(int(cf.ThisClass))
}

// SuperClassName resolves the binary name of the superclass, or "" if
// SuperClass is 0 (only java/lang/Object has no superclass).
func (cf *ClassFile) SuperClassName() (string, error) {
	if cf.SuperClass == 0 {
		return "", nil
	}
	return cf.ConstantPool.ClassName(int(cf.SuperClass))
}

// FindMethod performs a linear, non-inheriting scan of this class's own
// methods for an exact name+descriptor match.
func (cf *ClassFile) FindMethod(name, desc string) (MethodInfo, bool, error) {
	for _, m := range cf.Methods {
		n, err := cf.ConstantPool.GetUtf8(int(m.NameIndex))
		if err != nil {
			return MethodInfo{}, false, err
		}
		d, err := cf.ConstantPool.GetUtf8(int(m.DescriptorIndex))
		if err != nil {
			return MethodInfo{}, false, err
		}
		if n == name && d == desc {
			return m, true, nil
		}
	}
	return MethodInfo{}, false, nil
}
