// Package gc implements the saynaa runtime's manual mark-and-sweep
// collector over value.Obj-satisfying heap objects. Go's own garbage
// collector still reclaims the Go-level memory backing these objects
// once nothing references them, but the VM's object graph follows its
// own mark/sweep discipline so that object lifetime, handle semantics,
// and collection heuristics match the specification rather than Go's.
package gc

import (
	"github.com/google/uuid"
	mapset "github.com/deckarep/golang-set"
	"github.com/kristofer/saynaa/internal/value"
)

// Heap owns every object allocated through it, running mark-sweep
// collection when bytesAllocated crosses nextGC. The allocation list is
// the intrusive Header.Next chain threaded through every live object,
// walked in full during sweep; there is no separate "all objects"
// container.
type Heap struct {
	head value.Obj // head of the allocation list

	bytesAllocated int64
	nextGC         int64
	minHeapSize    int64
	heapFillPct    int64 // e.g. 50 means next_gc grows by 50% over live bytes

	// tempRefs protects objects that are fully constructed on the Go
	// heap but not yet reachable from any root (e.g. a List being
	// filled in before it is stored into a local slot); pushing here
	// keeps a collection triggered by a nested allocation from
	// reclaiming it.
	tempRefs []value.Obj

	// handles is the doubly-linked list of host-visible GC roots.
	handles *Handle

	collecting bool

	// roots is called to mark everything directly reachable from VM
	// state (fiber stacks, globals, current module) that isn't a
	// Handle. Set by the owning VM at construction time.
	roots func(mark func(value.Obj))
}

// NewHeap constructs a heap with the given sizing parameters. roots is
// invoked at the start of every mark phase to mark VM-owned GC roots
// beyond the Handle list and temp-reference stack.
func NewHeap(minHeapSize int64, heapFillPct int64, roots func(mark func(value.Obj))) *Heap {
	if minHeapSize <= 0 {
		minHeapSize = 1 << 20 // 1 MiB
	}
	if heapFillPct <= 0 {
		heapFillPct = 100
	}
	h := &Heap{
		minHeapSize: minHeapSize,
		heapFillPct: heapFillPct,
		roots:       roots,
	}
	h.nextGC = minHeapSize
	return h
}

// sizer is implemented by objects that know their own approximate byte
// footprint; objects that don't implement it are charged a flat
// estimate, matching the reference allocator's "size is whatever the
// allocating function says it is" accounting.
type sizer interface {
	ByteSize() int64
}

const defaultObjSize = 32

// Track registers a freshly allocated object with the heap, charging its
// estimated size against bytesAllocated and linking it into the
// allocation list. Callers allocate via `obj := object.NewXxx(...)` and
// immediately call Track before letting the object escape further,
// pushing it onto the temp-reference stack first if it is not yet
// reachable from a GC root.
func (h *Heap) Track(o value.Obj) {
	hdr := o.Header()
	hdr.Next = h.head
	h.head = o

	var sz int64 = defaultObjSize
	if s, ok := o.(sizer); ok {
		sz = s.ByteSize()
	}
	h.bytesAllocated += sz
}

// ShouldCollect reports whether bytesAllocated has crossed nextGC.
func (h *Heap) ShouldCollect() bool {
	return !h.collecting && h.bytesAllocated >= h.nextGC
}

// PushTemp protects o from collection until the matching PopTemp,
// guarding objects under construction that are not yet reachable from
// any root.
func (h *Heap) PushTemp(o value.Obj) {
	h.tempRefs = append(h.tempRefs, o)
}

// PopTemp releases the most recently pushed temp reference.
func (h *Heap) PopTemp() {
	h.tempRefs = h.tempRefs[:len(h.tempRefs)-1]
}

// Handle is a host-visible, GC-rooted reference to a value, returned by
// the slot API's new_handle operation and released via release_handle.
// Handles form a doubly-linked list so release is O(1) without a scan.
type Handle struct {
	ID    uuid.UUID
	Value value.Var
	prev  *Handle
	next  *Handle
}

// NewHandle wraps v in a handle and links it into the heap's handle
// list as a GC root.
func (h *Heap) NewHandle(v value.Var) *Handle {
	hd := &Handle{ID: uuid.New(), Value: v}
	hd.next = h.handles
	if h.handles != nil {
		h.handles.prev = hd
	}
	h.handles = hd
	return hd
}

// ReleaseHandle unlinks hd from the handle list; after this call hd no
// longer roots its value.
func (h *Heap) ReleaseHandle(hd *Handle) {
	if hd.prev != nil {
		hd.prev.next = hd.next
	} else {
		h.handles = hd.next
	}
	if hd.next != nil {
		hd.next.prev = hd.prev
	}
	hd.prev = nil
	hd.next = nil
}

// Marker is implemented by heap object kinds that hold references to
// other heap objects; Collect calls MarkChildren to push each reachable
// child onto the worklist. Leaf kinds (String, Range) need not
// implement it.
type Marker interface {
	MarkChildren(mark func(value.Obj))
}

// Collect runs one full mark-sweep cycle: mark every Handle, every
// temp-protected object, and every VM-registered root, transitively
// through Marker.MarkChildren using a worklist set (so an object
// reachable by two paths is only scanned once); then sweep the
// allocation list, unlinking and dropping anything left unmarked.
// Reentrant calls (a Collect made while one is already running, e.g.
// from within the roots callback) are ignored, guarded by the
// collecting flag.
func (h *Heap) Collect() {
	if h.collecting {
		return
	}
	h.collecting = true
	defer func() { h.collecting = false }()

	gray := mapset.NewSet()
	var worklist []value.Obj

	push := func(o value.Obj) {
		if o == nil {
			return
		}
		hdr := o.Header()
		if hdr.Marked {
			return
		}
		if gray.Contains(o) {
			return
		}
		hdr.Marked = true
		gray.Add(o)
		worklist = append(worklist, o)
	}

	for _, t := range h.tempRefs {
		push(t)
	}
	for hd := h.handles; hd != nil; hd = hd.next {
		if hd.Value.IsObj() {
			push(hd.Value.AsObj())
		}
	}
	if h.roots != nil {
		h.roots(push)
	}

	for len(worklist) > 0 {
		n := len(worklist) - 1
		o := worklist[n]
		worklist = worklist[:n]
		if m, ok := o.(Marker); ok {
			m.MarkChildren(push)
		}
	}

	h.sweep()
	h.nextGC = h.bytesAllocated * (100 + h.heapFillPct) / 100
	if h.nextGC < h.minHeapSize {
		h.nextGC = h.minHeapSize
	}
}

func (h *Heap) sweep() {
	var prevLive value.Obj
	var newHead value.Obj
	var freed int64

	cur := h.head
	for cur != nil {
		hdr := cur.Header()
		next := hdr.Next
		if hdr.Marked {
			hdr.Marked = false
			if prevLive == nil {
				newHead = cur
			} else {
				prevLive.Header().Next = cur
			}
			prevLive = cur
		} else {
			var sz int64 = defaultObjSize
			if s, ok := cur.(sizer); ok {
				sz = s.ByteSize()
			}
			freed += sz
		}
		cur = next
	}
	if prevLive != nil {
		prevLive.Header().Next = nil
	}
	h.head = newHead
	h.bytesAllocated -= freed
	if h.bytesAllocated < 0 {
		h.bytesAllocated = 0
	}
}

// BytesAllocated reports the heap's current live-byte estimate, exposed
// for diagnostics and tests.
func (h *Heap) BytesAllocated() int64 { return h.bytesAllocated }

// NextGC reports the threshold that triggers the next collection.
func (h *Heap) NextGC() int64 { return h.nextGC }
