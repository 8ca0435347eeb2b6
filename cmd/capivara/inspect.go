/*
 * CapivaraVM - A Java bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	parser "github.com/wreulicke/classfile-parser"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.class>",
	Short: "Dump the structure of a class file (javap-like)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		os.Exit(inspectMain(args[0]))
		return nil
	},
}

var majorVersionNames = map[uint16]string{
	45: "1.1", 46: "1.2", 47: "1.3", 48: "1.4",
	49: "5", 50: "6", 51: "7", 52: "8",
}

func inspectMain(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "capivara: %v\n", err)
		return exNoInput
	}

	p := parser.New(bytes.NewReader(data))
	cf, err := p.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "capivara: failed to parse class file: %v\n", err)
		return exUnavailable
	}
	cp := cf.ConstantPool

	className, err := cf.ThisClassName()
	if err != nil {
		className = "?"
	}
	versionName := majorVersionNames[cf.MajorVersion]
	if versionName == "" {
		versionName = fmt.Sprintf("unknown (%d)", cf.MajorVersion)
	}

	fmt.Printf("class %s\n", className)
	fmt.Printf("  major/minor version: %d.%d (Java %s)\n", cf.MajorVersion, cf.MinorVersion, versionName)
	fmt.Printf("  access flags: %s\n", strings.Join(classAccessFlagNames(cf.AccessFlags), " "))
	if cf.SuperClass != 0 {
		if sc, err := cf.SuperClassName(); err == nil {
			fmt.Printf("  super class: %s\n", sc)
		}
	}
	if len(cf.Interfaces) > 0 {
		names := make([]string, 0, len(cf.Interfaces))
		for _, idx := range cf.Interfaces {
			if n, err := cp.GetClassName(idx); err == nil {
				names = append(names, n)
			}
		}
		fmt.Printf("  interfaces: %s\n", strings.Join(names, ", "))
	}
	if sf := cf.SourceFile(); sf != nil {
		if utf8 := cp.LookupUtf8(sf.SourcefileIndex); utf8 != nil {
			fmt.Printf("  source file: %s\n", utf8.String())
		}
	}
	if cf.Deprecated() != nil {
		fmt.Println("  deprecated: true")
	}

	fmt.Println()
	fmt.Printf("  fields (%d):\n", len(cf.Fields))
	for _, f := range cf.Fields {
		name, _ := f.Name(cp)
		desc, _ := f.Descriptor(cp)
		fmt.Printf("    %s %s %s\n", strings.Join(fieldAccessFlagNames(f.AccessFlags), " "), desc, name)
	}

	fmt.Println()
	fmt.Printf("  methods (%d):\n", len(cf.Methods))
	for _, m := range cf.Methods {
		name, _ := m.Name(cp)
		desc, _ := m.Descriptor(cp)
		fmt.Printf("    %s %s%s\n", strings.Join(methodAccessFlagNames(m.AccessFlags), " "), name, desc)
		if exc := m.Exceptions(); exc != nil && len(exc.ExceptionIndexes) > 0 {
			names := make([]string, 0, len(exc.ExceptionIndexes))
			for _, idx := range exc.ExceptionIndexes {
				if n, err := cp.GetClassName(idx); err == nil {
					names = append(names, n)
				}
			}
			fmt.Printf("      throws %s\n", strings.Join(names, ", "))
		}
		if code := m.Code(); code != nil {
			fmt.Printf("      max_stack=%d max_locals=%d\n", code.MaxStack, code.MaxLocals)
			fmt.Print(disassemble(code.Codes, cp))
		}
	}
	return exOK
}

func classAccessFlagNames(flags parser.AccessFlags) []string {
	var out []string
	if flags.Is(parser.ACC_PUBLIC) {
		out = append(out, "public")
	}
	if flags.Is(parser.ACC_FINAL) {
		out = append(out, "final")
	}
	if flags.Is(parser.ACC_ABSTRACT) {
		out = append(out, "abstract")
	}
	if flags.Is(parser.ACC_SYNTHETIC) {
		out = append(out, "synthetic")
	}
	out = append(out, "class")
	return out
}

func fieldAccessFlagNames(flags parser.AccessFlags) []string {
	var out []string
	if flags.Is(parser.ACC_PUBLIC) {
		out = append(out, "public")
	}
	if flags.Is(parser.ACC_PRIVATE) {
		out = append(out, "private")
	}
	if flags.Is(parser.ACC_PROTECTED) {
		out = append(out, "protected")
	}
	if flags.Is(parser.ACC_STATIC) {
		out = append(out, "static")
	}
	if flags.Is(parser.ACC_FINAL) {
		out = append(out, "final")
	}
	return out
}

func methodAccessFlagNames(flags parser.AccessFlags) []string {
	var out []string
	if flags.Is(parser.ACC_PUBLIC) {
		out = append(out, "public")
	}
	if flags.Is(parser.ACC_PRIVATE) {
		out = append(out, "private")
	}
	if flags.Is(parser.ACC_PROTECTED) {
		out = append(out, "protected")
	}
	if flags.Is(parser.ACC_STATIC) {
		out = append(out, "static")
	}
	if flags.Is(parser.ACC_FINAL) {
		out = append(out, "final")
	}
	if flags.Is(parser.ACC_ABSTRACT) {
		out = append(out, "abstract")
	}
	return out
}

// resolveConstantRef renders a constant pool entry as a javap-style comment.
func resolveConstantRef(cp *parser.ConstantPool, index uint16) string {
	if int(index) < 1 || int(index) > len(cp.Constants) {
		return fmt.Sprintf("#%d", index)
	}
	c := cp.Constants[index-1]
	if c == nil {
		return fmt.Sprintf("#%d", index)
	}
	switch v := c.(type) {
	case *parser.ConstantClass:
		if name := cp.LookupUtf8(v.NameIndex); name != nil {
			return name.String()
		}
	case *parser.ConstantString:
		if s := cp.LookupUtf8(v.StringIndex); s != nil {
			return fmt.Sprintf("%q", s.String())
		}
	case *parser.ConstantFieldref:
		return resolveRef(cp, v.ClassIndex, v.NameAndTypeIndex)
	case *parser.ConstantMethodref:
		return resolveRef(cp, v.ClassIndex, v.NameAndTypeIndex)
	case *parser.ConstantInterfaceMethodref:
		return resolveRef(cp, v.ClassIndex, v.NameAndTypeIndex)
	case *parser.ConstantNameAndType:
		name := cp.LookupUtf8(v.NameIndex)
		desc := cp.LookupUtf8(v.DescriptorIndex)
		if name != nil && desc != nil {
			return name.String() + ":" + desc.String()
		}
	case *parser.ConstantInteger:
		return fmt.Sprintf("%d", int32(v.Bytes))
	case *parser.ConstantUtf8:
		return v.String()
	}
	return fmt.Sprintf("#%d", index)
}

func resolveRef(cp *parser.ConstantPool, classIndex, natIndex uint16) string {
	className, err := cp.GetClassName(classIndex)
	if err != nil {
		className = fmt.Sprintf("#%d", classIndex)
	}
	natConst := cp.Constants[natIndex-1]
	nat, ok := natConst.(*parser.ConstantNameAndType)
	if !ok {
		return className + ".#" + fmt.Sprintf("%d", natIndex)
	}
	name := cp.LookupUtf8(nat.NameIndex)
	desc := cp.LookupUtf8(nat.DescriptorIndex)
	if name != nil && desc != nil {
		return className + "." + name.String() + ":" + desc.String()
	}
	return className + ".?"
}

// disassemble renders raw bytecode as javap-like text. It names more
// opcodes than this interpreter executes, but not the full JVM table:
// opcodes missing from fullOpcodeNames print as hex, and opcodes without a
// case below (e.g. tableswitch, invokeinterface, wide) are treated as
// having no operands.
func disassemble(code []byte, cp *parser.ConstantPool) string {
	var sb strings.Builder
	i := 0
	for i < len(code) {
		op := code[i]
		name := fullOpcodeNames[op]
		if name == "" {
			name = fmt.Sprintf("0x%02x", op)
		}
		switch op {
		case 18: // ldc
			if i+1 < len(code) {
				idx := uint16(code[i+1])
				fmt.Fprintf(&sb, "      %4d: %-16s #%d // %s\n", i, name, idx, resolveConstantRef(cp, idx))
			}
			i += 2
		case 19, 20, 178, 179, 180, 181, 182, 183, 184, 187, 189, 192, 193:
			if i+2 < len(code) {
				idx := binary.BigEndian.Uint16(code[i+1 : i+3])
				fmt.Fprintf(&sb, "      %4d: %-16s #%d // %s\n", i, name, idx, resolveConstantRef(cp, idx))
			}
			i += 3
		case 153, 154, 155, 156, 157, 158, 159, 160, 161, 162, 163, 164,
			165, 166, 167, 198, 199:
			if i+2 < len(code) {
				off := int16(binary.BigEndian.Uint16(code[i+1 : i+3]))
				fmt.Fprintf(&sb, "      %4d: %-16s %d\n", i, name, i+int(off))
			}
			i += 3
		case 16, 21, 22, 23, 24, 25, 54, 55, 56, 57, 58, 169, 188:
			if i+1 < len(code) {
				fmt.Fprintf(&sb, "      %4d: %-16s %d\n", i, name, int8(code[i+1]))
			}
			i += 2
		case 17:
			if i+2 < len(code) {
				fmt.Fprintf(&sb, "      %4d: %-16s %d\n", i, name, int16(binary.BigEndian.Uint16(code[i+1:i+3])))
			}
			i += 3
		case 132:
			if i+2 < len(code) {
				fmt.Fprintf(&sb, "      %4d: %-16s %d, %d\n", i, name, code[i+1], int8(code[i+2]))
			}
			i += 3
		default:
			fmt.Fprintf(&sb, "      %4d: %s\n", i, name)
			i++
		}
	}
	return sb.String()
}

var fullOpcodeNames = [256]string{
	0: "nop", 1: "aconst_null", 2: "iconst_m1", 3: "iconst_0",
	4: "iconst_1", 5: "iconst_2", 6: "iconst_3", 7: "iconst_4",
	8: "iconst_5", 9: "lconst_0", 10: "lconst_1", 11: "fconst_0",
	12: "fconst_1", 13: "fconst_2", 14: "dconst_0", 15: "dconst_1",
	16: "bipush", 17: "sipush", 18: "ldc", 19: "ldc_w",
	20: "ldc2_w", 21: "iload", 22: "lload", 23: "fload",
	24: "dload", 25: "aload", 26: "iload_0", 27: "iload_1",
	28: "iload_2", 29: "iload_3", 42: "aload_0", 43: "aload_1",
	44: "aload_2", 45: "aload_3", 54: "istore", 58: "astore",
	59: "istore_0", 60: "istore_1", 61: "istore_2", 62: "istore_3",
	75: "astore_0", 76: "astore_1", 77: "astore_2", 78: "astore_3",
	87: "pop", 88: "pop2", 89: "dup", 96: "iadd", 100: "isub",
	104: "imul", 108: "idiv", 112: "irem", 116: "ineg", 132: "iinc",
	153: "ifeq", 154: "ifne", 155: "iflt", 156: "ifge", 157: "ifgt",
	158: "ifle", 159: "if_icmpeq", 160: "if_icmpne", 161: "if_icmplt",
	162: "if_icmpge", 163: "if_icmpgt", 164: "if_icmple", 167: "goto",
	172: "ireturn", 177: "return", 178: "getstatic", 179: "putstatic",
	180: "getfield", 181: "putfield", 182: "invokevirtual",
	183: "invokespecial", 184: "invokestatic", 187: "new",
	190: "arraylength", 191: "athrow", 198: "ifnull", 199: "ifnonnull",
}
