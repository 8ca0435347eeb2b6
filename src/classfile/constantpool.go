/*
 * CapivaraVM - A Java bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import "fmt"

// Constant pool tag values, JVM spec section 4.4.
const (
	TagUtf8              = 1
	TagInteger           = 3
	TagFloat             = 4
	TagLong              = 5
	TagDouble            = 6
	TagClass             = 7
	TagString            = 8
	TagFieldref          = 9
	TagMethodref         = 10
	TagInterfaceMethodref = 11
	TagNameAndType       = 12
)

// CpEntry is implemented by every constant pool entry type this parser
// understands. The tag is duplicated on each entry so callers that only
// have the interface value can still discriminate without a type switch.
type CpEntry interface {
	Tag() uint8
}

type CpUtf8 struct{ Value string }
type CpInteger struct{ Value int32 }
type CpFloat struct{ Value float32 }
type CpLong struct{ Value int64 }
type CpDouble struct{ Value float64 }
type CpClass struct{ NameIndex uint16 }
type CpString struct{ StringIndex uint16 }
type CpNameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}
type CpFieldref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}
type CpMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}
type CpInterfaceMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

// CpPlaceholder occupies the second slot of a Long or Double entry; the JVM
// spec reserves that index but no entry is ever stored there.
type CpPlaceholder struct{}

func (CpUtf8) Tag() uint8                 { return TagUtf8 }
func (CpInteger) Tag() uint8              { return TagInteger }
func (CpFloat) Tag() uint8                { return TagFloat }
func (CpLong) Tag() uint8                 { return TagLong }
func (CpDouble) Tag() uint8               { return TagDouble }
func (CpClass) Tag() uint8                { return TagClass }
func (CpString) Tag() uint8               { return TagString }
func (CpNameAndType) Tag() uint8          { return TagNameAndType }
func (CpFieldref) Tag() uint8             { return TagFieldref }
func (CpMethodref) Tag() uint8            { return TagMethodref }
func (CpInterfaceMethodref) Tag() uint8   { return TagInterfaceMethodref }
func (CpPlaceholder) Tag() uint8          { return 0 }

// ConstantPool is the 1-based constant pool of a parsed class file. Index 0
// is never populated, matching the JVM spec's reservation of that slot.
type ConstantPool struct {
	entries []CpEntry
}

// NewConstantPool allocates a pool sized for constant_pool_count entries
// (the count itself, not count-1 -- entry 0 stays nil).
func NewConstantPool(count int) *ConstantPool {
	return &ConstantPool{entries: make([]CpEntry, count)}
}

// Count returns constant_pool_count, i.e. len(entries).
func (cp *ConstantPool) Count() int { return len(cp.entries) }

// Set stores an entry at index i.
func (cp *ConstantPool) Set(i int, e CpEntry) { cp.entries[i] = e }

// Get returns the entry at index i, or an error if i is out of range or
// refers to an unpopulated (placeholder/index-0) slot.
func (cp *ConstantPool) Get(i int) (CpEntry, error) {
	if i <= 0 || i >= len(cp.entries) {
		return nil, fmt.Errorf("classfile: constant pool index %d out of range [1, %d)", i, len(cp.entries))
	}
	e := cp.entries[i]
	if e == nil {
		return nil, fmt.Errorf("classfile: constant pool index %d is empty", i)
	}
	if _, ok := e.(CpPlaceholder); ok {
		return nil, fmt.Errorf("classfile: constant pool index %d is a long/double placeholder slot", i)
	}
	return e, nil
}

// GetUtf8 fetches the entry at index i and requires it to be a Utf8 entry.
func (cp *ConstantPool) GetUtf8(i int) (string, error) {
	e, err := cp.Get(i)
	if err != nil {
		return "", err
	}
	u, ok := e.(CpUtf8)
	if !ok {
		return "", fmt.Errorf("classfile: constant pool index %d is not Utf8 (tag=%d)", i, e.Tag())
	}
	return u.Value, nil
}

// ClassName resolves a CONSTANT_Class_info at index i to its binary name.
func (cp *ConstantPool) ClassName(i int) (string, error) {
	e, err := cp.Get(i)
	if err != nil {
		return "", err
	}
	c, ok := e.(CpClass)
	if !ok {
		return "", fmt.Errorf("classfile: constant pool index %d is not a Class entry (tag=%d)", i, e.Tag())
	}
	return cp.GetUtf8(int(c.NameIndex))
}
