/*
 * CapivaraVM - A Java bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classloader turns binary class names into linked runtime
// classes, reading .class bytes off a directory classpath, parsing them,
// and caching the result so that a super-hierarchy is only ever read and
// linked once.
package classloader

import (
	"fmt"
	goruntime "runtime"

	"github.com/Mathweuzz/CapivaraVM/src/classfile"
	vmruntime "github.com/Mathweuzz/CapivaraVM/src/runtime"
	"github.com/Mathweuzz/CapivaraVM/src/trace"
)

// ClassNotFoundError is returned when a binary name cannot be located on
// the classpath at all -- distinct from a file that was found but failed
// to parse (MalformedClassError), so callers and error messages can tell
// the two apart.
type ClassNotFoundError struct {
	Name string
	file string
	line int
}

func (e *ClassNotFoundError) Error() string {
	return fmt.Sprintf("class not found on classpath: %s (%s:%d)", e.Name, e.file, e.line)
}

// MalformedClassError wraps a classfile parse failure with the binary
// name that was being loaded.
type MalformedClassError struct {
	Name string
	Err  error
	file string
	line int
}

func (e *MalformedClassError) Error() string {
	return fmt.Sprintf("malformed class %s: %v (%s:%d)", e.Name, e.Err, e.file, e.line)
}

func (e *MalformedClassError) Unwrap() error { return e.Err }

func cfe(format string, args ...any) error {
	_, file, line, _ := goruntime.Caller(2)
	msg := fmt.Sprintf(format, args...)
	trace.Error(fmt.Sprintf("%s (%s:%d)", msg, file, line))
	return fmt.Errorf("%s (%s:%d)", msg, file, line)
}

func classNotFound(name string) error {
	_, file, line, _ := goruntime.Caller(1)
	err := &ClassNotFoundError{Name: name, file: file, line: line}
	trace.Error(err.Error())
	return err
}

func malformedClass(name string, cause error) error {
	_, file, line, _ := goruntime.Caller(1)
	err := &MalformedClassError{Name: name, Err: cause, file: file, line: line}
	trace.Error(err.Error())
	return err
}

// Classloader is a cache-on-first-load, directory-backed class loader.
// Loading a class eagerly loads and caches its entire super-hierarchy
// (except java/lang/Object, which this interpreter never reads), caching
// the class itself before recursing into its superclass so that a cyclic
// or self-referential hierarchy in malformed input cannot recurse forever.
type Classloader struct {
	Path    *ClassPath
	Strings *vmruntime.StringPool
	Heap    *vmruntime.Heap

	loaded map[string]*vmruntime.Class
}

// New returns a Classloader reading from the given classpath entries.
func New(path *ClassPath) *Classloader {
	return &Classloader{
		Path:    path,
		Strings: vmruntime.NewStringPool(),
		Heap:    vmruntime.NewHeap(),
		loaded:  make(map[string]*vmruntime.Class),
	}
}

// Load returns the linked runtime class for binaryName, loading it (and
// its entire super-hierarchy) from the classpath on first request and
// returning the cached result on every subsequent request.
func (cl *Classloader) Load(binaryName string) (*vmruntime.Class, error) {
	if rc, ok := cl.loaded[binaryName]; ok {
		return rc, nil
	}

	data, err := cl.Path.ReadClassBytes(binaryName)
	if err != nil {
		return nil, cfe("classloader: reading %s: %v", binaryName, err)
	}
	if data == nil {
		return nil, classNotFound(binaryName)
	}

	cf, err := classfile.Parse(data)
	if err != nil {
		return nil, malformedClass(binaryName, err)
	}

	thisName, err := cf.ThisClassName()
	if err != nil {
		return nil, malformedClass(binaryName, err)
	}
	superName, err := cf.SuperClassName()
	if err != nil {
		return nil, malformedClass(binaryName, err)
	}

	rc := vmruntime.NewClass(thisName, superName, cf)
	// Cache before recursing into the superclass so a cyclic hierarchy in
	// malformed input cannot recurse forever.
	cl.loaded[thisName] = rc
	trace.Info(fmt.Sprintf("classloader: loaded %s (super=%s)", thisName, superName))

	if superName != "" && superName != "java/lang/Object" {
		if _, err := cl.Load(superName); err != nil {
			return nil, err
		}
	}

	if err := rc.Link(cl.Strings); err != nil {
		return nil, cfe("classloader: linking %s: %v", thisName, err)
	}

	return rc, nil
}

// Lookup returns an already-loaded class without triggering a load.
func (cl *Classloader) Lookup(binaryName string) (*vmruntime.Class, bool) {
	rc, ok := cl.loaded[binaryName]
	return rc, ok
}
