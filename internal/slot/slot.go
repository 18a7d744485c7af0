// Package slot implements the saynaa embedding API: the zero-indexed
// stack window a native (Go) function sees when called from a script,
// and the handle-based lifecycle a host uses to keep values alive
// across native calls. Grounded on the calling convention implicit in
// the teacher's native function glue (pkg/vm/primitives.go), made
// explicit here as a dedicated Slots type per the specification's
// embedding API.
package slot

import (
	"fmt"

	"github.com/kristofer/saynaa/internal/gc"
	"github.com/kristofer/saynaa/internal/object"
	"github.com/kristofer/saynaa/internal/value"
)

// NativeFn is the signature every native (Go-implemented) function or
// method exposes to the VM.
type NativeFn func(s *Slots) error

// Slots is the view a native function gets over its call window: slot 0
// is the return slot (and, for a native method, also where the
// receiver is read from before the call completes), slots 1..argc are
// the arguments.
type Slots struct {
	fiber *object.Fiber
	heap  *gc.Heap
	base  int // absolute stack index of slot 0
	count int // number of slots reserved (including slot 0)
}

// New constructs a Slots view over fiber's stack starting at base,
// covering count slots.
func New(fiber *object.Fiber, heap *gc.Heap, base, count int) *Slots {
	return &Slots{fiber: fiber, heap: heap, base: base, count: count}
}

// Count returns how many slots are reserved.
func (s *Slots) Count() int { return s.count }

// ReserveSlots grows the fiber's stack (if needed) so at least n slots
// are available from base, per the specification's reserve_slots
// operation — native functions that build up temporaries beyond their
// declared arity call this before using slot indices past their initial
// count.
func (s *Slots) ReserveSlots(n int) {
	needed := s.base + n
	if needed > len(s.fiber.Stack) {
		size := len(s.fiber.Stack)
		if size == 0 {
			size = 1
		}
		for size < needed {
			size *= 2
		}
		grown := make([]value.Var, size)
		copy(grown, s.fiber.Stack)
		s.fiber.Stack = grown
	}
	if n > s.count {
		s.count = n
	}
}

func (s *Slots) abs(i int) int { return s.base + i }

// Get returns the value at slot i.
func (s *Slots) Get(i int) value.Var {
	return s.fiber.Stack[s.abs(i)]
}

// Set writes v into slot i.
func (s *Slots) Set(i int, v value.Var) {
	s.fiber.Stack[s.abs(i)] = v
}

// SetReturn writes v into slot 0, the return slot.
func (s *Slots) SetReturn(v value.Var) { s.Set(0, v) }

// validationError formats the message exactly as the reference
// implementation's slot validation does: "Expected %s but got %s."
func validationError(expected, gotKind string) error {
	return fmt.Errorf("Expected %s but got %s.", expected, gotKind)
}

func kindName(v value.Var) string {
	if v.IsObj() {
		return v.AsObj().TypeName()
	}
	return v.Kind().String()
}

// ValidateNumber checks slot i holds a number.
func (s *Slots) ValidateNumber(i int) (float64, error) {
	v := s.Get(i)
	if !v.IsNumber() {
		return 0, validationError("number", kindName(v))
	}
	return v.AsNumber(), nil
}

// ValidateBool checks slot i holds a bool.
func (s *Slots) ValidateBool(i int) (bool, error) {
	v := s.Get(i)
	if !v.IsBool() {
		return false, validationError("bool", kindName(v))
	}
	return v.AsBool(), nil
}

// ValidateString checks slot i holds a String object.
func (s *Slots) ValidateString(i int) (*object.String, error) {
	v := s.Get(i)
	if v.IsObj() {
		if str, ok := v.AsObj().(*object.String); ok {
			return str, nil
		}
	}
	return nil, validationError("String", kindName(v))
}

// ValidateList checks slot i holds a List object.
func (s *Slots) ValidateList(i int) (*object.List, error) {
	v := s.Get(i)
	if v.IsObj() {
		if l, ok := v.AsObj().(*object.List); ok {
			return l, nil
		}
	}
	return nil, validationError("List", kindName(v))
}

// ValidateMap checks slot i holds a Map object.
func (s *Slots) ValidateMap(i int) (*object.Map, error) {
	v := s.Get(i)
	if v.IsObj() {
		if m, ok := v.AsObj().(*object.Map); ok {
			return m, nil
		}
	}
	return nil, validationError("Map", kindName(v))
}

// ValidateInstance checks slot i holds an Instance of exactly cls.
func (s *Slots) ValidateInstance(i int, cls *object.Class) (*object.Instance, error) {
	v := s.Get(i)
	if v.IsObj() {
		if inst, ok := v.AsObj().(*object.Instance); ok && inst.Class == cls {
			return inst, nil
		}
	}
	return nil, validationError(cls.Name, kindName(v))
}

// NewHandle wraps a value living in slot i as a host-visible GC root.
// The handle holds a copy of the Var in slot i at the time of the call;
// later writes to that slot (including SetReturn on slot 0) do not
// change the handle's Value.
func (s *Slots) NewHandle(i int) *gc.Handle {
	return s.heap.NewHandle(s.Get(i))
}

// ReleaseHandle releases a previously created handle.
func (s *Slots) ReleaseHandle(h *gc.Handle) {
	s.heap.ReleaseHandle(h)
}
