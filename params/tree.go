// Package params builds the flat, sorted query representation that MWS query
// calls are signed over.
//
// Callers describe a call as a Tree of named Values. A Value is exactly one of
// a scalar string, a list, or a nested Tree; Flatten turns that into a Query of
// dotted keys sorted in byte order.
package params

import (
	"fmt"
	"strconv"
)

type kind uint8

const (
	kindAbsent kind = iota
	kindScalar
	kindList
	kindObject
)

// Value is a single node of a parameter Tree. The zero Value is "absent" and
// is skipped when flattening, which lets callers set optional parameters
// unconditionally.
type Value struct {
	kind   kind
	scalar string
	list   []Value
	object *Tree
}

// String returns a scalar Value.
func String(s string) Value {
	return Value{kind: kindScalar, scalar: s}
}

// OptionalString returns String(s), or the absent Value when s is empty.
func OptionalString(s string) Value {
	if s == "" {
		return Value{}
	}
	return String(s)
}

func Bool(b bool) Value {
	return String(strconv.FormatBool(b))
}

func Int(i int64) Value {
	return String(strconv.FormatInt(i, 10))
}

// Float formats f with the minimal number of digits that round-trips, never
// using an exponent.
func Float(f float64) Value {
	return String(strconv.FormatFloat(f, 'f', -1, 64))
}

// Object wraps a nested Tree. Its entries flatten to "<parent>.<child>".
func Object(t *Tree) Value {
	if t == nil {
		return Value{}
	}
	return Value{kind: kindObject, object: t}
}

// List returns an ordered list Value. Scalar members flatten to "<key>.<n>",
// object members to "<key>.member.<n>.<subkey>", n being 1-based.
//
// List panics if a member is itself a list, or if scalar and object members
// are mixed: neither shape has a wire encoding. Absent members are dropped.
func List(members ...Value) Value {
	var (
		out   = make([]Value, 0, len(members))
		first kind
	)
	for i, m := range members {
		switch m.kind {
		case kindAbsent:
			continue
		case kindList:
			panic(fmt.Sprintf("params: list member %d is a list", i))
		}

		if first == kindAbsent {
			first = m.kind
		} else if m.kind != first {
			panic(fmt.Sprintf("params: list member %d mixes scalars and objects", i))
		}

		out = append(out, m)
	}

	return Value{kind: kindList, list: out}
}

// Strings is a convenience for a List of scalars.
func Strings(ss ...string) Value {
	members := make([]Value, len(ss))
	for i, s := range ss {
		members[i] = String(s)
	}
	return List(members...)
}

// IsAbsent reports whether v is the zero Value.
func (v Value) IsAbsent() bool {
	return v.kind == kindAbsent
}

// Tree is an insertion-ordered mapping from parameter names to Values.
type Tree struct {
	keys   []string
	values map[string]Value
}

// NewTree returns an empty Tree.
func NewTree() *Tree {
	return &Tree{values: make(map[string]Value)}
}

// Set stores v under key, replacing any previous value while keeping the
// original insertion position. It returns t so calls can be chained.
//
// Set panics on an empty key.
func (t *Tree) Set(key string, v Value) *Tree {
	if key == "" {
		panic("params: empty key")
	}

	if t.values == nil {
		t.values = make(map[string]Value)
	}

	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = v

	return t
}

// SetString is shorthand for Set(key, String(s)).
func (t *Tree) SetString(key, s string) *Tree {
	return t.Set(key, String(s))
}

// Get returns the value stored under key.
func (t *Tree) Get(key string) (Value, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Has reports whether key holds a non-absent value.
func (t *Tree) Has(key string) bool {
	v, ok := t.values[key]
	return ok && !v.IsAbsent()
}

// Keys returns the keys in insertion order.
func (t *Tree) Keys() []string {
	return append([]string(nil), t.keys...)
}

func (t *Tree) Len() int {
	return len(t.keys)
}

// Clone returns a shallow copy of t; nested Trees are shared.
func (t *Tree) Clone() *Tree {
	c := NewTree()
	for _, k := range t.keys {
		c.Set(k, t.values[k])
	}
	return c
}
