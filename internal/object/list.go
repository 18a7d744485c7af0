package object

import (
	"fmt"

	"github.com/kristofer/saynaa/internal/value"
)

// List is a growable, indexable sequence, grounded on the reference
// implementation's power-of-two capacity growth (doubling, starting at a
// small minimum) rather than Go's append-driven growth factor, so that
// capacity after N inserts is deterministic (Cap reports it).
type List struct {
	Base
	elems []value.Var
}

const listMinCapacity = 8

// NewList constructs an empty list.
func NewList() *List {
	return &List{Base: Base{Kind: KindList}, elems: nil}
}

func (l *List) Len() int { return len(l.elems) }

func (l *List) Cap() int { return cap(l.elems) }

// Get returns the element at index i. Callers must bounds-check first
// (via Len); Get panics on an out-of-range index, matching the
// convention that bounds checks are the caller's (VM opcode handler's)
// responsibility, not the container's.
func (l *List) Get(i int) value.Var { return l.elems[i] }

func (l *List) Set(i int, v value.Var) { l.elems[i] = v }

// Add appends v, growing capacity by doubling (from listMinCapacity) when
// the backing array is full, rather than relying on append's own growth
// heuristic, so capacity is deterministic and inspectable.
func (l *List) Add(v value.Var) {
	if len(l.elems) == cap(l.elems) {
		l.grow(len(l.elems) + 1)
	}
	l.elems = append(l.elems, v)
}

func (l *List) grow(minLen int) {
	newCap := cap(l.elems)
	if newCap == 0 {
		newCap = listMinCapacity
	}
	for newCap < minLen {
		newCap *= 2
	}
	next := make([]value.Var, len(l.elems), newCap)
	copy(next, l.elems)
	l.elems = next
}

// InsertAt inserts v before index i, shifting later elements up by one.
// A negative i is treated as len+i+1 (so -1 means "append"); bounds are
// 0 <= i <= len.
func (l *List) InsertAt(i int, v value.Var) error {
	if i < 0 {
		i += l.Len() + 1
	}
	if i < 0 || i > l.Len() {
		return fmt.Errorf("insert index out of range")
	}
	l.elems = append(l.elems, value.Null)
	copy(l.elems[i+1:], l.elems[i:])
	l.elems[i] = v
	return nil
}

// RemoveAt removes and returns the element at index i, shifting later
// elements down by one. A negative i is treated as len+i; bounds are
// 0 <= i < len.
func (l *List) RemoveAt(i int) (value.Var, error) {
	if i < 0 {
		i += l.Len()
	}
	if i < 0 || i >= l.Len() {
		return value.Null, fmt.Errorf("remove_at index out of range")
	}
	v := l.elems[i]
	copy(l.elems[i:], l.elems[i+1:])
	l.elems[len(l.elems)-1] = value.Null
	l.elems = l.elems[:len(l.elems)-1]
	return v, nil
}

// Each invokes fn for every element in order; fn returning false stops
// iteration early.
func (l *List) Each(fn func(i int, v value.Var) bool) {
	for i, v := range l.elems {
		if !fn(i, v) {
			return
		}
	}
}
