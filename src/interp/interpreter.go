/*
 * CapivaraVM - A Java bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package interp executes the Code attribute of a linked method: a linear
// program-counter loop over a fixed opcode subset (spec.md section 4.11),
// driving a runtime.Frame's operand stack and locals and resolving
// field/method references through the owning classloader.
package interp

import (
	"strconv"

	"github.com/Mathweuzz/CapivaraVM/src/classfile"
	"github.com/Mathweuzz/CapivaraVM/src/classloader"
	"github.com/Mathweuzz/CapivaraVM/src/runtime"
	"github.com/Mathweuzz/CapivaraVM/src/trace"
)

// ExecResult is what running a method produced: either nothing (a void
// return) or a single int (an ireturn). This interpreter never executes a
// method with any other return shape (see Non-goals).
type ExecResult struct {
	IsInt    bool
	IntValue int32
}

// Interpreter runs bytecode against classes obtained from a single
// Classloader, so that every NEW/INVOKE*/GET*/PUT* in a run shares one
// loaded-class cache, heap, and string pool.
type Interpreter struct {
	Loader *classloader.Classloader

	// Step, when set, pauses execution before every opcode and hands the
	// current frame state to whoever is driving the StepController --
	// the `step` CLI's bytecode walker.
	Step *StepController
}

// New returns an Interpreter backed by loader.
func New(loader *classloader.Classloader) *Interpreter {
	return &Interpreter{Loader: loader}
}

func s1(b byte) int32 {
	v := int32(b)
	if v >= 128 {
		v -= 256
	}
	return v
}

func s2(hi, lo byte) int32 {
	v := int32(hi)<<8 | int32(lo)
	if v >= 32768 {
		v -= 65536
	}
	return v
}

func idiv(a, b int32) (int32, error) {
	if b == 0 {
		return 0, &DivisionByZeroError{op: "idiv"}
	}
	return a / b, nil
}

func irem(a, b int32) (int32, error) {
	if b == 0 {
		return 0, &DivisionByZeroError{op: "irem"}
	}
	return a % b, nil
}

// isIntDescriptor reports whether a field/parameter descriptor denotes an
// int-width base type that this interpreter pushes/pops as a plain int32
// (as opposed to a ref, which is how every object/array type is handled
// since no other primitive is executed).
func isIntDescriptor(desc string) (bool, error) {
	t, err := classfile.ParseFieldDescriptor(desc)
	if err != nil {
		return false, err
	}
	if t.Kind != classfile.KindBase {
		return false, nil
	}
	switch t.Code {
	case 'I', 'B', 'C', 'S', 'Z':
		return true, nil
	}
	return false, nil
}

// runFrame executes code within frame, owned by class rc, until a return
// opcode or an error ends it.
func (in *Interpreter) runFrame(rc *runtime.Class, code classfile.CodeAttribute, frame *runtime.Frame) (ExecResult, error) {
	cp := rc.File.ConstantPool
	bc := code.Code
	pc := 0
	n := len(bc)

	for pc < n {
		op := bc[pc]
		frame.PC = pc
		if in.Step != nil {
			in.Step.before(frame, op)
		}
		pc++
		trace.Trace(classTraceLine(rc.Name, pc-1, op))

		switch int(op) {
		case opNop:
			// no-op

		case opAconstNull:
			if err := frame.PushRef(runtime.NullRef); err != nil {
				return ExecResult{}, err
			}

		case opIconstM1, 0x03, 0x04, 0x05, 0x06, 0x07, opIconst5:
			v := int32(-1)
			if op != opIconstM1 {
				v = int32(op) - 0x03
			}
			if err := frame.PushInt(v); err != nil {
				return ExecResult{}, err
			}

		case opBipush:
			b := bc[pc]
			pc++
			if err := frame.PushInt(s1(b)); err != nil {
				return ExecResult{}, err
			}

		case opSipush:
			hi, lo := bc[pc], bc[pc+1]
			pc += 2
			if err := frame.PushInt(s2(hi, lo)); err != nil {
				return ExecResult{}, err
			}

		case opIload:
			idx := int(bc[pc])
			pc++
			v, err := frame.GetLocalInt(idx)
			if err != nil {
				return ExecResult{}, err
			}
			if err := frame.PushInt(v); err != nil {
				return ExecResult{}, err
			}

		case 0x1a, 0x1b, 0x1c, opIload3:
			idx := int(op) - opIload0
			v, err := frame.GetLocalInt(idx)
			if err != nil {
				return ExecResult{}, err
			}
			if err := frame.PushInt(v); err != nil {
				return ExecResult{}, err
			}

		case opIstore:
			idx := int(bc[pc])
			pc++
			v, err := frame.PopInt()
			if err != nil {
				return ExecResult{}, err
			}
			if err := frame.SetLocalInt(idx, v); err != nil {
				return ExecResult{}, err
			}

		case 0x3b, 0x3c, 0x3d, opIstore3:
			idx := int(op) - opIstore0
			v, err := frame.PopInt()
			if err != nil {
				return ExecResult{}, err
			}
			if err := frame.SetLocalInt(idx, v); err != nil {
				return ExecResult{}, err
			}

		case opAload:
			idx := int(bc[pc])
			pc++
			v, err := frame.GetLocalRef(idx)
			if err != nil {
				return ExecResult{}, err
			}
			if err := frame.PushRef(v); err != nil {
				return ExecResult{}, err
			}

		case 0x2a, 0x2b, 0x2c, opAload3:
			idx := int(op) - opAload0
			v, err := frame.GetLocalRef(idx)
			if err != nil {
				return ExecResult{}, err
			}
			if err := frame.PushRef(v); err != nil {
				return ExecResult{}, err
			}

		case opAstore:
			idx := int(bc[pc])
			pc++
			v, err := frame.PopRef()
			if err != nil {
				return ExecResult{}, err
			}
			if err := frame.SetLocalRef(idx, v); err != nil {
				return ExecResult{}, err
			}

		case 0x4b, 0x4c, 0x4d, opAstore3:
			idx := int(op) - opAstore0
			v, err := frame.PopRef()
			if err != nil {
				return ExecResult{}, err
			}
			if err := frame.SetLocalRef(idx, v); err != nil {
				return ExecResult{}, err
			}

		case opDup:
			top, err := frame.PopSlot()
			if err != nil {
				return ExecResult{}, err
			}
			if err := frame.PushSlot(top); err != nil {
				return ExecResult{}, err
			}
			if err := frame.PushSlot(top); err != nil {
				return ExecResult{}, err
			}

		case opPop:
			top, err := frame.PopSlot()
			if err != nil {
				return ExecResult{}, err
			}
			if top.Tag == runtime.TagTop {
				// top was mistakenly over a 2-slot value; drop the value too.
				if _, err := frame.PopSlot(); err != nil {
					return ExecResult{}, err
				}
			}

		case opIadd:
			b, err := frame.PopInt()
			if err != nil {
				return ExecResult{}, err
			}
			a, err := frame.PopInt()
			if err != nil {
				return ExecResult{}, err
			}
			if err := frame.PushInt(a + b); err != nil {
				return ExecResult{}, err
			}

		case opIsub:
			b, err := frame.PopInt()
			if err != nil {
				return ExecResult{}, err
			}
			a, err := frame.PopInt()
			if err != nil {
				return ExecResult{}, err
			}
			if err := frame.PushInt(a - b); err != nil {
				return ExecResult{}, err
			}

		case opImul:
			b, err := frame.PopInt()
			if err != nil {
				return ExecResult{}, err
			}
			a, err := frame.PopInt()
			if err != nil {
				return ExecResult{}, err
			}
			if err := frame.PushInt(a * b); err != nil {
				return ExecResult{}, err
			}

		case opIdiv:
			b, err := frame.PopInt()
			if err != nil {
				return ExecResult{}, err
			}
			a, err := frame.PopInt()
			if err != nil {
				return ExecResult{}, err
			}
			res, err := idiv(a, b)
			if err != nil {
				return ExecResult{}, err
			}
			if err := frame.PushInt(res); err != nil {
				return ExecResult{}, err
			}

		case opIrem:
			b, err := frame.PopInt()
			if err != nil {
				return ExecResult{}, err
			}
			a, err := frame.PopInt()
			if err != nil {
				return ExecResult{}, err
			}
			res, err := irem(a, b)
			if err != nil {
				return ExecResult{}, err
			}
			if err := frame.PushInt(res); err != nil {
				return ExecResult{}, err
			}

		case opIinc:
			idx := int(bc[pc])
			delta := s1(bc[pc+1])
			pc += 2
			cur, err := frame.GetLocalInt(idx)
			if err != nil {
				return ExecResult{}, err
			}
			if err := frame.SetLocalInt(idx, cur+delta); err != nil {
				return ExecResult{}, err
			}

		case opIneg:
			v, err := frame.PopInt()
			if err != nil {
				return ExecResult{}, err
			}
			if err := frame.PushInt(-v); err != nil {
				return ExecResult{}, err
			}

		case opIfeq, opIfne, opIflt, opIfge, opIfgt, opIfle:
			hi, lo := bc[pc], bc[pc+1]
			pc += 2
			off := s2(hi, lo)
			v, err := frame.PopInt()
			if err != nil {
				return ExecResult{}, err
			}
			cond := (op == opIfeq && v == 0) ||
				(op == opIfne && v != 0) ||
				(op == opIflt && v < 0) ||
				(op == opIfge && v >= 0) ||
				(op == opIfgt && v > 0) ||
				(op == opIfle && v <= 0)
			if cond {
				pc = pc + int(off) - 3
			}

		case opIfIcmpeq, opIfIcmpne, opIfIcmplt, opIfIcmpge, opIfIcmpgt, opIfIcmple:
			hi, lo := bc[pc], bc[pc+1]
			pc += 2
			off := s2(hi, lo)
			b, err := frame.PopInt()
			if err != nil {
				return ExecResult{}, err
			}
			a, err := frame.PopInt()
			if err != nil {
				return ExecResult{}, err
			}
			cond := (op == opIfIcmpeq && a == b) ||
				(op == opIfIcmpne && a != b) ||
				(op == opIfIcmplt && a < b) ||
				(op == opIfIcmpge && a >= b) ||
				(op == opIfIcmpgt && a > b) ||
				(op == opIfIcmple && a <= b)
			if cond {
				pc = pc + int(off) - 3
			}

		case opGoto:
			hi, lo := bc[pc], bc[pc+1]
			pc += 2
			off := s2(hi, lo)
			pc = pc + int(off) - 3

		case opGetstatic:
			index := int(bc[pc])<<8 | int(bc[pc+1])
			pc += 2
			if err := in.execGetstatic(cp, index, frame); err != nil {
				return ExecResult{}, err
			}

		case opPutstatic:
			index := int(bc[pc])<<8 | int(bc[pc+1])
			pc += 2
			if err := in.execPutstatic(cp, index, frame); err != nil {
				return ExecResult{}, err
			}

		case opGetfield:
			index := int(bc[pc])<<8 | int(bc[pc+1])
			pc += 2
			if err := in.execGetfield(cp, index, frame); err != nil {
				return ExecResult{}, err
			}

		case opPutfield:
			index := int(bc[pc])<<8 | int(bc[pc+1])
			pc += 2
			if err := in.execPutfield(cp, index, frame); err != nil {
				return ExecResult{}, err
			}

		case opInvokestat:
			index := int(bc[pc])<<8 | int(bc[pc+1])
			pc += 2
			if err := in.execInvokestatic(cp, index, frame); err != nil {
				return ExecResult{}, err
			}

		case opInvokespec:
			index := int(bc[pc])<<8 | int(bc[pc+1])
			pc += 2
			if err := in.execInvokespecial(cp, index, frame); err != nil {
				return ExecResult{}, err
			}

		case opInvokevirt:
			index := int(bc[pc])<<8 | int(bc[pc+1])
			pc += 2
			if err := in.execInvokevirtual(cp, index, frame); err != nil {
				return ExecResult{}, err
			}

		case opNew:
			index := int(bc[pc])<<8 | int(bc[pc+1])
			pc += 2
			className, err := cp.ClassName(index)
			if err != nil {
				return ExecResult{}, err
			}
			newRc, err := in.Loader.Load(className)
			if err != nil {
				return ExecResult{}, err
			}
			oid, err := in.Loader.Heap.New(newRc, in.Loader)
			if err != nil {
				return ExecResult{}, err
			}
			if err := frame.PushRef(oid); err != nil {
				return ExecResult{}, err
			}

		case opIreturn:
			v, err := frame.PopInt()
			if err != nil {
				return ExecResult{}, err
			}
			return ExecResult{IsInt: true, IntValue: v}, nil

		case opReturn:
			return ExecResult{}, nil

		default:
			return ExecResult{}, &UnsupportedOpcodeError{Opcode: op}
		}
	}

	return ExecResult{}, nil
}

// ExecuteMethod runs name+desc on rc from a fresh frame.
func (in *Interpreter) ExecuteMethod(rc *runtime.Class, name, desc string) (ExecResult, error) {
	m, found, err := rc.FindMethod(name, desc)
	if err != nil {
		return ExecResult{}, err
	}
	if !found {
		return ExecResult{}, resolutionErrorf("method not found: %s.%s%s", rc.Name, name, desc)
	}
	code, ok := classfile.FindCode(m.Attributes)
	if !ok {
		return ExecResult{}, resolutionErrorf("method %s.%s%s has no Code attribute", rc.Name, name, desc)
	}
	frame, err := runtime.NewFrame(int(code.MaxLocals), int(code.MaxStack))
	if err != nil {
		return ExecResult{}, err
	}
	frame.ClassName, frame.MethodName = rc.Name, name
	return in.runFrame(rc, code, frame)
}

// ExecuteStaticEntry loads mainBinaryName and runs name+desc on it -- the
// CLI's `run` entry point.
func (in *Interpreter) ExecuteStaticEntry(mainBinaryName, name, desc string) (ExecResult, error) {
	rc, err := in.Loader.Load(mainBinaryName)
	if err != nil {
		return ExecResult{}, err
	}
	return in.ExecuteMethod(rc, name, desc)
}

func classTraceLine(className string, pc int, op byte) string {
	return "interp: " + className + " pc=" + strconv.Itoa(pc) + " op=" + OpcodeName(op)
}
