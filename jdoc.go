// Package jdoc builds ordered JSON documents in memory and renders them as
// compact JSON into caller-supplied buffers.
//
//	doc := jdoc.New()
//	pin := doc.Promote("pin1")
//	pin.SetInt("value", 1500)
//	pin.SetInt("pin", 32)
//
//	buf := make([]byte, 256)
//	n, err := doc.Serialize(buf) // {"pin1":{"value":1500,"pin":32}}
//
// Objects keep their keys in insertion order and are held by pointer, so the
// *Object returned by Promote or ObjectAt is a live view into the document.
package jdoc

import "iter"

// Document is the root of a JSON document: an ordered collection of key-value
// pairs that owns all nested content. The zero Document is empty and ready to
// use.
type Document struct {
	Object
}

// New returns an empty document.
func New() *Document {
	return &Document{}
}

// Entry is a single key-value pair in an Object.
type Entry struct {
	Key   string
	Value Value
}

// Object is an ordered collection of entries with unique keys. Setting an
// existing key replaces its value in place, keeping the key's position.
type Object struct {
	entries []Entry
}

// NewObject returns an empty detached object. Attach it with Set and
// ObjectValue.
func NewObject() *Object {
	return &Object{}
}

func (o *Object) index(key string) int {
	for i := range o.entries {
		if o.entries[i].Key == key {
			return i
		}
	}
	return -1
}

// Len returns the number of entries.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.entries)
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	if i := o.index(key); i >= 0 {
		return o.entries[i].Value, true
	}
	return Value{}, false
}

func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.Len())
	for k := range o.All() {
		keys = append(keys, k)
	}
	return keys
}

// Entries returns a copy of the entries in insertion order. Nested objects
// are shared with o.
func (o *Object) Entries() []Entry {
	if o == nil {
		return nil
	}
	out := make([]Entry, len(o.entries))
	copy(out, o.entries)
	return out
}

// All iterates over the entries in insertion order.
func (o *Object) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if o == nil {
			return
		}
		for _, e := range o.entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Set stores v under key, overwriting any previous value.
func (o *Object) Set(key string, v Value) {
	if i := o.index(key); i >= 0 {
		o.entries[i].Value = v
		return
	}
	o.entries = append(o.entries, Entry{Key: key, Value: v})
}

func (o *Object) SetNull(key string) { o.Set(key, Null()) }

func (o *Object) SetBool(key string, b bool) { o.Set(key, Bool(b)) }

// SetInt stores an integer under key, overwriting any previous value.
func (o *Object) SetInt(key string, i int64) { o.Set(key, Int(i)) }

func (o *Object) SetFloat(key string, f float64) { o.Set(key, Float(f)) }

func (o *Object) SetString(key, s string) { o.Set(key, String(s)) }

// Delete removes key and reports whether it was present. The remaining
// entries keep their order.
func (o *Object) Delete(key string) bool {
	i := o.index(key)
	if i < 0 {
		return false
	}
	o.entries = append(o.entries[:i], o.entries[i+1:]...)
	return true
}

// ObjectAt returns the object stored under key, creating it if the key is
// missing. A key holding any other kind of value is overwritten with a new
// empty object. An existing object is returned as is.
func (o *Object) ObjectAt(key string) *Object {
	if v, ok := o.Get(key); ok {
		if child, ok := v.AsObject(); ok {
			return child
		}
	}
	return o.Promote(key)
}

// Promote stores a new empty object under key and returns it, discarding
// whatever the key held before, including an existing object. Views onto the
// discarded object stay usable but are no longer part of o.
func (o *Object) Promote(key string) *Object {
	child := NewObject()
	o.Set(key, ObjectValue(child))
	return child
}

// Equal reports whether o and other hold the same entries in the same order.
// A nil object equals an empty one. Objects that contain themselves are
// compared without looping forever.
func (o *Object) Equal(other *Object) bool {
	return o.equal(other, nil)
}

func (o *Object) equal(other *Object, visiting map[objectPair]struct{}) bool {
	if o == other {
		return true
	}
	if o.Len() != other.Len() {
		return false
	}
	pair := objectPair{o, other}
	if _, ok := visiting[pair]; ok {
		return true
	}
	if visiting == nil {
		visiting = make(map[objectPair]struct{})
	}
	visiting[pair] = struct{}{}
	defer delete(visiting, pair)

	for i := 0; i < o.Len(); i++ {
		a, b := o.entries[i], other.entries[i]
		if a.Key != b.Key || !a.Value.equal(b.Value, visiting) {
			return false
		}
	}
	return true
}
