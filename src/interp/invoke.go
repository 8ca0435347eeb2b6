/*
 * CapivaraVM - A Java bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"github.com/Mathweuzz/CapivaraVM/src/classfile"
	"github.com/Mathweuzz/CapivaraVM/src/runtime"
)

func (in *Interpreter) execGetstatic(cp *classfile.ConstantPool, index int, frame *runtime.Frame) error {
	ref, err := resolveFieldref(cp, index)
	if err != nil {
		return err
	}
	declRc, err := in.lookupFieldInHierarchy(ref.Owner, ref.Name, ref.Desc, true)
	if err != nil {
		return err
	}
	val, ok := declRc.Statics[runtime.StaticKey{Name: ref.Name, Descriptor: ref.Desc}]
	if !ok {
		return resolutionErrorf("static field %s.%s%s has no value", declRc.Name, ref.Name, ref.Desc)
	}
	isInt, err := isIntDescriptor(ref.Desc)
	if err != nil {
		return err
	}
	if isInt {
		return frame.PushInt(val.I)
	}
	return frame.PushRef(val.Ref)
}

func (in *Interpreter) execPutstatic(cp *classfile.ConstantPool, index int, frame *runtime.Frame) error {
	ref, err := resolveFieldref(cp, index)
	if err != nil {
		return err
	}
	declRc, err := in.lookupFieldInHierarchy(ref.Owner, ref.Name, ref.Desc, true)
	if err != nil {
		return err
	}
	isInt, err := isIntDescriptor(ref.Desc)
	if err != nil {
		return err
	}
	var val runtime.Value
	if isInt {
		v, err := frame.PopInt()
		if err != nil {
			return err
		}
		val = runtime.IntVal(v)
	} else {
		v, err := frame.PopRef()
		if err != nil {
			return err
		}
		val = runtime.RefVal(v)
	}
	declRc.Statics[runtime.StaticKey{Name: ref.Name, Descriptor: ref.Desc}] = val
	return nil
}

func (in *Interpreter) execGetfield(cp *classfile.ConstantPool, index int, frame *runtime.Frame) error {
	ref, err := resolveFieldref(cp, index)
	if err != nil {
		return err
	}
	objRef, err := frame.PopRef()
	if err != nil {
		return err
	}
	if objRef == runtime.NullRef {
		return &NullPointerError{op: "getfield"}
	}
	obj, ok := in.Loader.Heap.Get(objRef)
	if !ok {
		return resolutionErrorf("dangling object reference %d", objRef)
	}
	declRc, err := in.lookupFieldInHierarchy(ref.Owner, ref.Name, ref.Desc, false)
	if err != nil {
		return err
	}
	val, ok := obj.Fields[runtime.FieldKey{DeclaringClass: declRc.Name, Name: ref.Name, Descriptor: ref.Desc}]
	if !ok {
		return resolutionErrorf("instance field %s.%s%s missing on object", declRc.Name, ref.Name, ref.Desc)
	}
	isInt, err := isIntDescriptor(ref.Desc)
	if err != nil {
		return err
	}
	if isInt {
		return frame.PushInt(val.I)
	}
	return frame.PushRef(val.Ref)
}

func (in *Interpreter) execPutfield(cp *classfile.ConstantPool, index int, frame *runtime.Frame) error {
	ref, err := resolveFieldref(cp, index)
	if err != nil {
		return err
	}
	isInt, err := isIntDescriptor(ref.Desc)
	if err != nil {
		return err
	}
	var val runtime.Value
	if isInt {
		v, err := frame.PopInt()
		if err != nil {
			return err
		}
		val = runtime.IntVal(v)
	} else {
		v, err := frame.PopRef()
		if err != nil {
			return err
		}
		val = runtime.RefVal(v)
	}
	objRef, err := frame.PopRef()
	if err != nil {
		return err
	}
	if objRef == runtime.NullRef {
		return &NullPointerError{op: "putfield"}
	}
	obj, ok := in.Loader.Heap.Get(objRef)
	if !ok {
		return resolutionErrorf("dangling object reference %d", objRef)
	}
	declRc, err := in.lookupFieldInHierarchy(ref.Owner, ref.Name, ref.Desc, false)
	if err != nil {
		return err
	}
	obj.Fields[runtime.FieldKey{DeclaringClass: declRc.Name, Name: ref.Name, Descriptor: ref.Desc}] = val
	return nil
}

// popIntArgs pops len(params) int arguments in right-to-left order (the
// order they sit on the stack) and returns them restored to left-to-right
// (declaration) order, ready to install into a callee's locals starting at
// the given base index. Every parameter must be int-width; this
// interpreter never marshals any other parameter type (see Non-goals).
func popIntArgs(frame *runtime.Frame, params []classfile.FieldType) ([]int32, error) {
	args := make([]int32, len(params))
	for i := len(params) - 1; i >= 0; i-- {
		p := params[i]
		if p.Kind != classfile.KindBase || p.Code != 'I' {
			return nil, resolutionErrorf("unsupported non-int parameter type %q", p.String())
		}
		v, err := frame.PopInt()
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func pushIntReturn(frame *runtime.Frame, ret classfile.FieldType, res ExecResult) error {
	if ret.Kind == classfile.KindBase && ret.Code == 'I' {
		return frame.PushInt(res.IntValue)
	}
	if ret.Kind == classfile.KindBase && ret.Code == 'V' {
		return nil
	}
	return resolutionErrorf("unsupported non-int/void return type %q", ret.String())
}

func (in *Interpreter) execInvokestatic(cp *classfile.ConstantPool, index int, frame *runtime.Frame) error {
	ref, err := resolveMethodref(cp, index)
	if err != nil {
		return err
	}
	targetRc, code, err := in.lookupStaticInHierarchy(ref.Owner, ref.Name, ref.Desc)
	if err != nil {
		return err
	}
	params, ret, err := classfile.ParseMethodDescriptor(ref.Desc)
	if err != nil {
		return err
	}
	args, err := popIntArgs(frame, params)
	if err != nil {
		return err
	}
	callee, err := runtime.NewFrame(int(code.MaxLocals), int(code.MaxStack))
	if err != nil {
		return err
	}
	callee.ClassName, callee.MethodName = targetRc.Name, ref.Name
	for i, v := range args {
		if err := callee.SetLocalInt(i, v); err != nil {
			return err
		}
	}
	res, err := in.runFrame(targetRc, code, callee)
	if err != nil {
		return err
	}
	return pushIntReturn(frame, ret, res)
}

// execInvokespecial resolves and runs a constructor or super call. Return
// values are pushed exactly as invokestatic/invokevirtual do for int-
// returning methods, for consistency with this interpreter's uniform
// invocation convention -- most invokespecial targets are void
// constructors, where this is a no-op.
func (in *Interpreter) execInvokespecial(cp *classfile.ConstantPool, index int, frame *runtime.Frame) error {
	ref, err := resolveMethodref(cp, index)
	if err != nil {
		return err
	}
	targetRc, err := in.Loader.Load(ref.Owner)
	if err != nil {
		return err
	}
	params, ret, err := classfile.ParseMethodDescriptor(ref.Desc)
	if err != nil {
		return err
	}
	args, err := popIntArgs(frame, params)
	if err != nil {
		return err
	}
	thisRef, err := frame.PopRef()
	if err != nil {
		return err
	}
	if thisRef == runtime.NullRef {
		return &NullPointerError{op: "invokespecial"}
	}

	_, code, err := in.lookupInstanceInHierarchy(targetRc, ref.Name, ref.Desc)
	if err != nil {
		return err
	}
	callee, err := runtime.NewFrame(int(code.MaxLocals), int(code.MaxStack))
	if err != nil {
		return err
	}
	callee.ClassName, callee.MethodName = targetRc.Name, ref.Name
	if err := callee.SetLocalRef(0, thisRef); err != nil {
		return err
	}
	for i, v := range args {
		if err := callee.SetLocalInt(i+1, v); err != nil {
			return err
		}
	}
	res, err := in.runFrame(targetRc, code, callee)
	if err != nil {
		return err
	}
	return pushIntReturn(frame, ret, res)
}

func (in *Interpreter) execInvokevirtual(cp *classfile.ConstantPool, index int, frame *runtime.Frame) error {
	ref, err := resolveMethodref(cp, index)
	if err != nil {
		return err
	}
	params, ret, err := classfile.ParseMethodDescriptor(ref.Desc)
	if err != nil {
		return err
	}
	args, err := popIntArgs(frame, params)
	if err != nil {
		return err
	}
	thisRef, err := frame.PopRef()
	if err != nil {
		return err
	}
	if thisRef == runtime.NullRef {
		return &NullPointerError{op: "invokevirtual"}
	}
	obj, ok := in.Loader.Heap.Get(thisRef)
	if !ok {
		return resolutionErrorf("dangling object reference %d", thisRef)
	}
	dynRc, err := in.Loader.Load(obj.ClassName)
	if err != nil {
		return err
	}

	_, code, err := in.lookupInstanceInHierarchy(dynRc, ref.Name, ref.Desc)
	if err != nil {
		return err
	}
	callee, err := runtime.NewFrame(int(code.MaxLocals), int(code.MaxStack))
	if err != nil {
		return err
	}
	callee.ClassName, callee.MethodName = dynRc.Name, ref.Name
	if err := callee.SetLocalRef(0, thisRef); err != nil {
		return err
	}
	for i, v := range args {
		if err := callee.SetLocalInt(i+1, v); err != nil {
			return err
		}
	}
	res, err := in.runFrame(dynRc, code, callee)
	if err != nil {
		return err
	}
	return pushIntReturn(frame, ret, res)
}
