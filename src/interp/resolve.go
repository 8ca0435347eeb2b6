/*
 * CapivaraVM - A Java bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"github.com/Mathweuzz/CapivaraVM/src/classfile"
	"github.com/Mathweuzz/CapivaraVM/src/runtime"
)

// refParts is the (owner, name, descriptor) triple a Fieldref or Methodref
// CP entry resolves to, before any hierarchy walk happens.
type refParts struct {
	Owner string
	Name  string
	Desc  string
}

func resolveMethodref(cp *classfile.ConstantPool, index int) (refParts, error) {
	e, err := cp.Get(index)
	if err != nil {
		return refParts{}, err
	}
	mr, ok := e.(classfile.CpMethodref)
	if !ok {
		return refParts{}, resolutionErrorf("constant pool index %d is not a Methodref", index)
	}
	owner, err := cp.ClassName(int(mr.ClassIndex))
	if err != nil {
		return refParts{}, err
	}
	nt, err := cp.Get(int(mr.NameAndTypeIndex))
	if err != nil {
		return refParts{}, err
	}
	natEntry, ok := nt.(classfile.CpNameAndType)
	if !ok {
		return refParts{}, resolutionErrorf("methodref name_and_type index %d is not NameAndType", mr.NameAndTypeIndex)
	}
	name, err := cp.GetUtf8(int(natEntry.NameIndex))
	if err != nil {
		return refParts{}, err
	}
	desc, err := cp.GetUtf8(int(natEntry.DescriptorIndex))
	if err != nil {
		return refParts{}, err
	}
	return refParts{owner, name, desc}, nil
}

func resolveFieldref(cp *classfile.ConstantPool, index int) (refParts, error) {
	e, err := cp.Get(index)
	if err != nil {
		return refParts{}, err
	}
	fr, ok := e.(classfile.CpFieldref)
	if !ok {
		return refParts{}, resolutionErrorf("constant pool index %d is not a Fieldref", index)
	}
	owner, err := cp.ClassName(int(fr.ClassIndex))
	if err != nil {
		return refParts{}, err
	}
	nt, err := cp.Get(int(fr.NameAndTypeIndex))
	if err != nil {
		return refParts{}, err
	}
	natEntry, ok := nt.(classfile.CpNameAndType)
	if !ok {
		return refParts{}, resolutionErrorf("fieldref name_and_type index %d is not NameAndType", fr.NameAndTypeIndex)
	}
	name, err := cp.GetUtf8(int(natEntry.NameIndex))
	if err != nil {
		return refParts{}, err
	}
	desc, err := cp.GetUtf8(int(natEntry.DescriptorIndex))
	if err != nil {
		return refParts{}, err
	}
	return refParts{owner, name, desc}, nil
}

// lookupStaticInHierarchy walks ownerName and its superclasses (the
// interpreter's own "static" resolution algorithm: start at the referenced
// class, walk up) for a static method with the given name+descriptor.
func (in *Interpreter) lookupStaticInHierarchy(ownerName, name, desc string) (*runtime.Class, classfile.CodeAttribute, error) {
	rc, err := in.Loader.Load(ownerName)
	if err != nil {
		return nil, classfile.CodeAttribute{}, err
	}
	for {
		m, found, err := rc.FindMethod(name, desc)
		if err != nil {
			return nil, classfile.CodeAttribute{}, err
		}
		if found && m.AccessFlags&classfile.AccStatic != 0 {
			code, ok := classfile.FindCode(m.Attributes)
			if !ok {
				return nil, classfile.CodeAttribute{}, resolutionErrorf("method %s.%s%s has no Code attribute", ownerName, name, desc)
			}
			return rc, code, nil
		}
		if rc.SuperName == "" || rc.SuperName == "java/lang/Object" {
			break
		}
		rc, err = in.Loader.Load(rc.SuperName)
		if err != nil {
			return nil, classfile.CodeAttribute{}, err
		}
	}
	return nil, classfile.CodeAttribute{}, resolutionErrorf("method not found (static): %s.%s%s", ownerName, name, desc)
}

// lookupInstanceInHierarchy walks starting at rc (the interpreter's
// "virtual"/"special" resolution algorithm: caller picks the starting
// class -- dynamic receiver class for invokevirtual, referenced class for
// invokespecial -- and this walks up from there) for an instance method.
func (in *Interpreter) lookupInstanceInHierarchy(rc *runtime.Class, name, desc string) (*runtime.Class, classfile.CodeAttribute, error) {
	cur := rc
	for {
		m, found, err := cur.FindMethod(name, desc)
		if err != nil {
			return nil, classfile.CodeAttribute{}, err
		}
		if found && m.AccessFlags&classfile.AccStatic == 0 {
			code, ok := classfile.FindCode(m.Attributes)
			if !ok {
				return nil, classfile.CodeAttribute{}, resolutionErrorf("method %s.%s%s has no Code attribute", cur.Name, name, desc)
			}
			return cur, code, nil
		}
		if cur.SuperName == "" || cur.SuperName == "java/lang/Object" {
			break
		}
		cur, err = in.Loader.Load(cur.SuperName)
		if err != nil {
			return nil, classfile.CodeAttribute{}, err
		}
	}
	return nil, classfile.CodeAttribute{}, resolutionErrorf("method not found (instance): %s.%s%s", rc.Name, name, desc)
}

// lookupFieldInHierarchy walks ownerName and its superclasses looking for
// a declared field (not just a static slot: this inspects the class file's
// own FieldInfo list, since instance fields keyed by declaring class need
// to know exactly which class in the chain declared the field).
func (in *Interpreter) lookupFieldInHierarchy(ownerName, name, desc string, expectStatic bool) (*runtime.Class, error) {
	rc, err := in.Loader.Load(ownerName)
	if err != nil {
		return nil, err
	}
	for {
		cp := rc.File.ConstantPool
		for _, f := range rc.File.Fields {
			isStatic := f.AccessFlags&classfile.AccStatic != 0
			if isStatic != expectStatic {
				continue
			}
			fn, err := cp.GetUtf8(int(f.NameIndex))
			if err != nil {
				return nil, err
			}
			fd, err := cp.GetUtf8(int(f.DescriptorIndex))
			if err != nil {
				return nil, err
			}
			if fn == name && fd == desc {
				return rc, nil
			}
		}
		if rc.SuperName == "" || rc.SuperName == "java/lang/Object" {
			break
		}
		rc, err = in.Loader.Load(rc.SuperName)
		if err != nil {
			return nil, err
		}
	}
	kind := "instance"
	if expectStatic {
		kind = "static"
	}
	return nil, resolutionErrorf("field not found (%s): %s.%s%s", kind, ownerName, name, desc)
}
