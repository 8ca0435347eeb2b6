/*
 * CapivaraVM - A Java bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package runtime

import "github.com/Mathweuzz/CapivaraVM/src/classfile"

// FieldKey identifies one instance field slot by the class that declared
// it plus its name and descriptor. Keying on the declaring class (rather
// than just name+descriptor) keeps a subclass field from colliding with a
// same-named field declared by its superclass.
type FieldKey struct {
	DeclaringClass string
	Name           string
	Descriptor     string
}

// Object is a heap-allocated instance of some loaded class.
type Object struct {
	ClassName string
	Fields    map[FieldKey]Value
}

// ClassSource is the subset of classloader behavior Heap needs to walk a
// super-chain while allocating instance fields, without heap.go importing
// the classloader package (which would create an import cycle).
type ClassSource interface {
	Load(name string) (*Class, error)
}

// Heap allocates and owns every Object this interpreter ever creates.
// Object IDs are assigned in increasing order starting at 1 and are never
// reused.
type Heap struct {
	next    ObjectID
	objects map[ObjectID]*Object
}

// NewHeap returns an empty heap.
func NewHeap() *Heap {
	return &Heap{next: 1, objects: make(map[ObjectID]*Object)}
}

// Get returns the object with the given id.
func (h *Heap) Get(id ObjectID) (*Object, bool) {
	o, ok := h.objects[id]
	return o, ok
}

// New allocates a fresh instance of class rc, populating every instance
// field declared by rc and its superclasses (up to but not including
// java/lang/Object, which this interpreter never loads) with its default
// value. Superclasses not already loaded are loaded lazily via loader.
func (h *Heap) New(rc *Class, loader ClassSource) (ObjectID, error) {
	id := h.next
	h.next++
	obj := &Object{ClassName: rc.Name, Fields: make(map[FieldKey]Value)}

	cur := rc
	for cur != nil {
		for _, f := range cur.File.Fields {
			if f.AccessFlags&classfile.AccStatic != 0 { // handled by class statics, not instance fields
				continue
			}
			name, err := cur.File.ConstantPool.GetUtf8(int(f.NameIndex))
			if err != nil {
				return 0, err
			}
			desc, err := cur.File.ConstantPool.GetUtf8(int(f.DescriptorIndex))
			if err != nil {
				return 0, err
			}
			dv, err := DefaultValueForDescriptor(desc)
			if err != nil {
				return 0, err
			}
			obj.Fields[FieldKey{cur.Name, name, desc}] = dv
		}

		if cur.SuperName == "" || cur.SuperName == "java/lang/Object" {
			break
		}
		next, err := loader.Load(cur.SuperName)
		if err != nil {
			return 0, err
		}
		cur = next
	}

	h.objects[id] = obj
	return id, nil
}
