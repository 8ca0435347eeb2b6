/*
 * CapivaraVM - A Java bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import "fmt"

// Attribute is implemented by every attribute_info variant this parser
// recognizes, plus UnknownAttribute for passthrough of everything else.
type Attribute interface {
	AttrNameIndex() uint16
}

type attrBase struct {
	NameIndex uint16
	Length    uint32
}

func (a attrBase) AttrNameIndex() uint16 { return a.NameIndex }

// ExceptionTableEntry is one row of a Code attribute's exception table.
// This project never executes exception handlers (see runtime Non-goals),
// but the table is still parsed so Code attributes round-trip structurally.
type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16 // 0 means catch-all (finally)
}

// CodeAttribute holds a method's bytecode and sizing metadata.
type CodeAttribute struct {
	attrBase
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionTableEntry
	Attributes     []Attribute
}

type LineNumberEntry struct {
	StartPC    uint16
	LineNumber uint16
}

type LineNumberTableAttribute struct {
	attrBase
	Entries []LineNumberEntry
}

type SourceFileAttribute struct {
	attrBase
	SourceFileIndex uint16
}

type ConstantValueAttribute struct {
	attrBase
	ConstantValueIndex uint16
}

// UnknownAttribute preserves any attribute this parser doesn't specifically
// model, so class files carrying attributes outside spec.md's list (e.g.
// Exceptions, Deprecated, Signature) still parse instead of failing.
type UnknownAttribute struct {
	attrBase
	Info []byte
}

func parseAttribute(r *ByteReader, cp *ConstantPool) (Attribute, error) {
	nameIndex, err := r.U2()
	if err != nil {
		return nil, err
	}
	length, err := r.U4()
	if err != nil {
		return nil, err
	}
	name, err := cp.GetUtf8(int(nameIndex))
	if err != nil {
		return nil, fmt.Errorf("classfile: attribute name: %w", err)
	}
	base := attrBase{NameIndex: nameIndex, Length: length}

	switch name {
	case "Code":
		return parseCodeAttribute(r, cp, base)
	case "LineNumberTable":
		return parseLineNumberTable(r, base)
	case "SourceFile":
		idx, err := r.U2()
		if err != nil {
			return nil, err
		}
		return SourceFileAttribute{attrBase: base, SourceFileIndex: idx}, nil
	case "ConstantValue":
		idx, err := r.U2()
		if err != nil {
			return nil, err
		}
		return ConstantValueAttribute{attrBase: base, ConstantValueIndex: idx}, nil
	default:
		info, err := r.Bytes(int(length))
		if err != nil {
			return nil, err
		}
		return UnknownAttribute{attrBase: base, Info: info}, nil
	}
}

func parseCodeAttribute(r *ByteReader, cp *ConstantPool, base attrBase) (Attribute, error) {
	maxStack, err := r.U2()
	if err != nil {
		return nil, err
	}
	maxLocals, err := r.U2()
	if err != nil {
		return nil, err
	}
	codeLen, err := r.U4()
	if err != nil {
		return nil, err
	}
	code, err := r.Bytes(int(codeLen))
	if err != nil {
		return nil, err
	}

	exLen, err := r.U2()
	if err != nil {
		return nil, err
	}
	exTable := make([]ExceptionTableEntry, 0, exLen)
	for i := 0; i < int(exLen); i++ {
		startPC, err := r.U2()
		if err != nil {
			return nil, err
		}
		endPC, err := r.U2()
		if err != nil {
			return nil, err
		}
		handlerPC, err := r.U2()
		if err != nil {
			return nil, err
		}
		catchType, err := r.U2()
		if err != nil {
			return nil, err
		}
		exTable = append(exTable, ExceptionTableEntry{startPC, endPC, handlerPC, catchType})
	}

	attrCount, err := r.U2()
	if err != nil {
		return nil, err
	}
	nested := make([]Attribute, 0, attrCount)
	for i := 0; i < int(attrCount); i++ {
		a, err := parseAttribute(r, cp)
		if err != nil {
			return nil, err
		}
		nested = append(nested, a)
	}

	return CodeAttribute{
		attrBase:       base,
		MaxStack:       maxStack,
		MaxLocals:      maxLocals,
		Code:           code,
		ExceptionTable: exTable,
		Attributes:     nested,
	}, nil
}

func parseLineNumberTable(r *ByteReader, base attrBase) (Attribute, error) {
	tableLen, err := r.U2()
	if err != nil {
		return nil, err
	}
	entries := make([]LineNumberEntry, 0, tableLen)
	for i := 0; i < int(tableLen); i++ {
		startPC, err := r.U2()
		if err != nil {
			return nil, err
		}
		line, err := r.U2()
		if err != nil {
			return nil, err
		}
		entries = append(entries, LineNumberEntry{startPC, line})
	}
	return LineNumberTableAttribute{attrBase: base, Entries: entries}, nil
}

func parseAttributes(r *ByteReader, cp *ConstantPool, count int) ([]Attribute, error) {
	out := make([]Attribute, 0, count)
	for i := 0; i < count; i++ {
		a, err := parseAttribute(r, cp)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// FindCode returns the Code attribute among attrs, if any.
func FindCode(attrs []Attribute) (CodeAttribute, bool) {
	for _, a := range attrs {
		if c, ok := a.(CodeAttribute); ok {
			return c, true
		}
	}
	return CodeAttribute{}, false
}

// FindConstantValue returns the ConstantValue attribute among attrs, if any.
func FindConstantValue(attrs []Attribute) (ConstantValueAttribute, bool) {
	for _, a := range attrs {
		if c, ok := a.(ConstantValueAttribute); ok {
			return c, true
		}
	}
	return ConstantValueAttribute{}, false
}
