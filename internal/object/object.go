// Package object implements the heap object variants of the saynaa
// runtime: String, List, Map, Range, Buffer, Module, Function, Closure,
// Upvalue, MethodBind, Class, Instance and Fiber. Every variant embeds
// Base, which holds a value.Header, so the collector in internal/gc can
// walk them uniformly through the value.Obj interface.
package object

import "github.com/kristofer/saynaa/internal/value"

// Kind distinguishes the concrete object variant, mirroring the
// specification's heap object kind tag.
type Kind uint8

const (
	KindString Kind = iota
	KindList
	KindMap
	KindRange
	KindBuffer
	KindModule
	KindFunction
	KindClosure
	KindUpvalue
	KindMethodBind
	KindFiber
	KindClass
	KindInstance
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindList:
		return "List"
	case KindMap:
		return "Map"
	case KindRange:
		return "Range"
	case KindBuffer:
		return "Buffer"
	case KindModule:
		return "Module"
	case KindFunction:
		return "Function"
	case KindClosure:
		return "Closure"
	case KindUpvalue:
		return "Upvalue"
	case KindMethodBind:
		return "MethodBind"
	case KindFiber:
		return "Fiber"
	case KindClass:
		return "Class"
	case KindInstance:
		return "Instance"
	default:
		return "?"
	}
}

// Base is embedded by every object variant defined in this package. It
// carries the GC header plus the variant tag, and satisfies value.Obj
// on its own.
type Base struct {
	hdr  value.Header
	Kind Kind
	// Class is the runtime class assigned to this object. Instances get
	// their class here at construction and the Fiber builtin sets it on
	// fibers; other builtin kinds leave it nil, and the VM resolves their
	// class from the Go type instead.
	Class *Class
}

// Header returns the object's GC header.
func (b *Base) Header() *value.Header { return &b.hdr }

func (b *Base) TypeName() string { return b.Kind.String() }
