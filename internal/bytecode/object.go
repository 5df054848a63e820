package bytecode

import (
	"fmt"
	"strings"
)

// ObjectType tags the concrete variant held by an Object.
type ObjectType string

const (
	IntegerObj          ObjectType = "INTEGER"
	BooleanObj          ObjectType = "BOOLEAN"
	NullObj             ObjectType = "NULL"
	StringObj           ObjectType = "STRING"
	ArrayObj            ObjectType = "ARRAY"
	HashObj             ObjectType = "HASH"
	CompiledFunctionObj ObjectType = "COMPILED_FUNCTION"
	ClosureObj          ObjectType = "CLOSURE"
	BuiltinObj          ObjectType = "BUILTIN"
)

// Object is the runtime value every VM operation pushes, pops, stores and
// indexes. Every Object on the stack, in globals, in constants and in the
// caches is shared: multiple references may point at the same instance.
type Object interface {
	Type() ObjectType
	Inspect() string
}

// Integer is a two's-complement 64-bit signed integer.
type Integer struct {
	Value int64
}

func (i *Integer) Type() ObjectType { return IntegerObj }
func (i *Integer) Inspect() string  { return fmt.Sprintf("%d", i.Value) }

// Boolean wraps a bool. Only two instances of Boolean ever exist at
// runtime (see TrueObject/FalseObject in caches.go).
type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BooleanObj }
func (b *Boolean) Inspect() string  { return fmt.Sprintf("%t", b.Value) }

// Null is the absence of a value. Exactly one instance ever exists at
// runtime (see NullObject in caches.go).
type Null struct{}

func (n *Null) Type() ObjectType { return NullObj }
func (n *Null) Inspect() string  { return "null" }

// String is an immutable UTF-8 byte sequence.
type String struct {
	Value string
}

func (s *String) Type() ObjectType { return StringObj }
func (s *String) Inspect() string  { return s.Value }

// Array is an interior-mutable, ordered sequence of Objects. Two references
// to the same *Array share the same backing slice header; mutating one is
// visible through both because Elements itself is swapped in place, never
// copied on assignment.
type Array struct {
	Elements []Object
}

func (a *Array) Type() ObjectType { return ArrayObj }
func (a *Array) Inspect() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// HashKey is a canonical hashable projection of a primitive Object, usable
// as a Go map key. Only Integer, Boolean and String derive a HashKey.
type HashKey struct {
	Type  ObjectType
	Value uint64
}

// HashPair keeps the original key Object alongside its value so Inspect can
// render the source key rather than its hashed projection.
type HashPair struct {
	Key   Object
	Value Object
}

// Hash is an interior-mutable mapping from HashKey to HashPair.
type Hash struct {
	Pairs map[HashKey]HashPair
}

func (h *Hash) Type() ObjectType { return HashObj }
func (h *Hash) Inspect() string {
	parts := make([]string, 0, len(h.Pairs))
	for _, pair := range h.Pairs {
		parts = append(parts, fmt.Sprintf("%s: %s", pair.Key.Inspect(), pair.Value.Inspect()))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Hashable is implemented by every Object that can derive a HashKey.
type Hashable interface {
	HashKey() (HashKey, error)
}

// ErrUnsupportedHashKey describes a non-primitive Object used as a hash key.
// Non-primitive Objects have no HashKey method, so none of the HashKey
// methods in this package return it; the VM reports that case as an
// UnsupportedHashKey RuntimeError.
type ErrUnsupportedHashKey struct {
	Value Object
}

func (e *ErrUnsupportedHashKey) Error() string {
	return fmt.Sprintf("unusable as hash key: %s", e.Value.Type())
}

func (i *Integer) HashKey() (HashKey, error) {
	return HashKey{Type: IntegerObj, Value: uint64(i.Value)}, nil
}

func (b *Boolean) HashKey() (HashKey, error) {
	var v uint64
	if b.Value {
		v = 1
	}
	return HashKey{Type: BooleanObj, Value: v}, nil
}

func (s *String) HashKey() (HashKey, error) {
	h := fnv64a(s.Value)
	return HashKey{Type: StringObj, Value: h}, nil
}

// fnv64a is the FNV-1a hash, used to fold a string's bytes into the uint64
// slot of a HashKey. A Hash compares keys by HashKey alone, so two distinct
// strings whose FNV-1a values collide address the same Hash entry.
func fnv64a(s string) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}

// CompiledFunction is a compiled function body: bytecode plus the local and
// parameter counts the VM needs to set up its frame.
type CompiledFunction struct {
	Instructions  Instructions
	NumLocals     int
	NumParameters int
	Name          string
}

func (cf *CompiledFunction) Type() ObjectType { return CompiledFunctionObj }
func (cf *CompiledFunction) Inspect() string {
	name := cf.Name
	if name == "" {
		name = "anonymous"
	}
	return fmt.Sprintf("CompiledFunction[%s]", name)
}

// Closure pairs a CompiledFunction with the free variables it captured by
// value at creation time. There is no upvalue cell sharing: Free holds
// plain Object references snapshotted when OpClosure ran.
type Closure struct {
	Fn   *CompiledFunction
	Free []Object
}

func (c *Closure) Type() ObjectType { return ClosureObj }
func (c *Closure) Inspect() string  { return fmt.Sprintf("Closure[%s]", c.Fn.Inspect()) }

// BuiltinFunction is a host function addressable from bytecode via
// OpGetBuiltin. It receives already-evaluated arguments and returns an
// Object or an error that becomes a RuntimeError.
type BuiltinFunction func(args []Object) (Object, error)

// Builtin is the runtime handle pushed for OpGetBuiltin; it carries the
// function's registry index so equality/printing stay stable without
// comparing func values (which Go forbids).
type Builtin struct {
	Index int
	Name  string
	Fn    BuiltinFunction
}

func (b *Builtin) Type() ObjectType { return BuiltinObj }
func (b *Builtin) Inspect() string  { return fmt.Sprintf("builtin[%s]", b.Name) }

// Truthy implements the spec's truthiness rule: False and Null are falsy,
// everything else — including Integer(0) — is truthy.
func Truthy(obj Object) bool {
	switch o := obj.(type) {
	case *Boolean:
		return o.Value
	case *Null:
		return false
	default:
		return true
	}
}

// Equal implements structural equality, defined pointwise on variant
// payloads. Cross-variant comparisons are always false.
func Equal(a, b Object) bool {
	if a.Type() != b.Type() {
		return false
	}
	switch av := a.(type) {
	case *Integer:
		return av.Value == b.(*Integer).Value
	case *Boolean:
		return av.Value == b.(*Boolean).Value
	case *Null:
		return true
	case *String:
		return av.Value == b.(*String).Value
	default:
		// Arrays, hashes, functions, closures and builtins compare by
		// identity only; the VM never needs deep structural equality for
		// them because Equal/NotEqual on them falls back to this branch
		// via the shared-reference rule (same Object -> same pointer).
		return a == b
	}
}
