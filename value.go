package jdoc

import (
	"fmt"
	"math"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Array is an ordered sequence of values.
type Array []Value

// Value is a tagged union over the JSON value kinds. The zero Value is null.
//
// Values are built with the constructor functions (Null, Bool, Int, Float,
// String, ArrayOf, ObjectValue) and read back with the As* accessors, which
// report false when the value holds a different kind. The only implicit
// conversion is AsFloat, which widens an Int.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  Array
	obj  *Object
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Int(i int64) Value { return Value{kind: KindInt, i: i} }

func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

func String(s string) Value { return Value{kind: KindString, s: s} }

func ArrayOf(vs ...Value) Value { return Value{kind: KindArray, arr: Array(vs)} }

// ObjectValue wraps o so it can be stored under a key or inside an array. The
// object is shared, not copied. A nil o yields a new empty object.
func ObjectValue(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, obj: o}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInt
}

// AsFloat returns the numeric value of a Float or Int.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

func (v Value) AsArray() (Array, bool) {
	return v.arr, v.kind == KindArray
}

// AsObject returns the live object held by v. Mutations through the returned
// pointer are visible to every container holding v.
func (v Value) AsObject() (*Object, bool) {
	return v.obj, v.kind == KindObject
}

// Equal reports whether v and other hold the same kind and content. Objects
// compare entry by entry in order. NaN floats are equal to each other since
// both render as null.
func (v Value) Equal(other Value) bool {
	return v.equal(other, nil)
}

// objectPair is a comparison in progress. Meeting it again means the objects
// reference themselves and the rest of the walk decides the result.
type objectPair struct{ a, b *Object }

func (v Value) equal(other Value, visiting map[objectPair]struct{}) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		if math.IsNaN(v.f) && math.IsNaN(other.f) {
			return true
		}
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].equal(other.arr[i], visiting) {
				return false
			}
		}
		return true
	case KindObject:
		return v.obj.equal(other.obj, visiting)
	}
	return false
}
