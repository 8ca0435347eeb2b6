/*
 * CapivaraVM - A Java bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// buildClass assembles a minimal class file naming thisClass/superClass as
// plain (already-dotted-to-slash) binary names, with no fields or methods --
// just enough structure for the loader to parse and link.
func buildClass(t *testing.T, thisClass, superClass string) []byte {
	t.Helper()
	var buf bytes.Buffer
	u2 := func(v uint16) { binary.Write(&buf, binary.BigEndian, v) }
	u4 := func(v uint32) { binary.Write(&buf, binary.BigEndian, v) }
	utf8 := func(s string) {
		buf.WriteByte(1) // TagUtf8
		u2(uint16(len(s)))
		buf.WriteString(s)
	}
	class := func(nameIdx uint16) {
		buf.WriteByte(7) // TagClass
		u2(nameIdx)
	}

	u4(0xCAFEBABE)
	u2(0)
	u2(52)

	u2(5) // constant_pool_count: indices 1..4
	utf8(thisClass)
	class(1)
	utf8(superClass)
	class(3)

	u2(0x0021) // access_flags: public, super
	u2(2)      // this_class
	u2(4)      // super_class
	u2(0)      // interfaces_count
	u2(0)      // fields_count
	u2(0)      // methods_count
	u2(0)      // attributes_count

	return buf.Bytes()
}

func writeClassFile(t *testing.T, dir, binaryName string, data []byte) {
	t.Helper()
	path := filepath.Join(dir, binaryName+".class")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoaderLoadsSuperHierarchy(t *testing.T) {
	dir := t.TempDir()
	writeClassFile(t, dir, "Base", buildClass(t, "Base", "java/lang/Object"))
	writeClassFile(t, dir, "Derived", buildClass(t, "Derived", "Base"))

	cl := New(NewClassPath([]string{dir}))
	rc, err := cl.Load("Derived")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rc.Name != "Derived" || rc.SuperName != "Base" {
		t.Errorf("got Name=%s SuperName=%s", rc.Name, rc.SuperName)
	}

	base, ok := cl.Lookup("Base")
	if !ok {
		t.Fatal("expected Base to be loaded as a side effect of loading Derived")
	}
	if base.Name != "Base" {
		t.Errorf("got Base.Name = %s", base.Name)
	}
}

func TestLoaderCachesAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	writeClassFile(t, dir, "Standalone", buildClass(t, "Standalone", "java/lang/Object"))

	cl := New(NewClassPath([]string{dir}))
	first, err := cl.Load("Standalone")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	second, err := cl.Load("Standalone")
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if first != second {
		t.Error("expected the same *runtime.Class pointer on repeat loads")
	}
}

func TestLoaderClassNotFound(t *testing.T) {
	cl := New(NewClassPath([]string{t.TempDir()}))
	if _, err := cl.Load("Nope"); err == nil {
		t.Error("expected ClassNotFoundError loading a missing class")
	}
}

func TestLoaderMalformedClass(t *testing.T) {
	dir := t.TempDir()
	writeClassFile(t, dir, "Bad", []byte{0, 1, 2, 3})

	cl := New(NewClassPath([]string{dir}))
	if _, err := cl.Load("Bad"); err == nil {
		t.Error("expected MalformedClassError loading a truncated class")
	}
}

func TestLoaderLookupWithoutLoad(t *testing.T) {
	cl := New(NewClassPath([]string{t.TempDir()}))
	if _, ok := cl.Lookup("Anything"); ok {
		t.Error("Lookup should report false before any Load call")
	}
}
