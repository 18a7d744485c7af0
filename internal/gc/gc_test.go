package gc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kristofer/saynaa/internal/object"
	"github.com/kristofer/saynaa/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// varComparer lets cmp.Diff compare value.Var slices despite Var's
// unexported fields, delegating to value.Equal so the comparison matches
// the runtime's own notion of equality (bit-identical numbers, pointer
// identity for objects).
var varComparer = cmp.Comparer(value.Equal)

func TestCollectSweepsUnreachable(t *testing.T) {
	heap := NewHeap(1, 100, nil)

	kept := object.NewString("kept")
	heap.Track(kept)
	hd := heap.NewHandle(value.FromObj(kept))
	defer heap.ReleaseHandle(hd)

	garbage := object.NewString("garbage")
	heap.Track(garbage)

	before := heap.BytesAllocated()
	heap.Collect()
	after := heap.BytesAllocated()

	assert.Less(t, after, before, "collecting unreachable garbage should shrink bytesAllocated")
}

func TestTempRefProtectsDuringConstruction(t *testing.T) {
	heap := NewHeap(1, 100, nil)

	l := object.NewList()
	heap.Track(l)
	heap.PushTemp(l)

	s := object.NewString("child")
	heap.Track(s)
	l.Add(value.FromObj(s))

	heap.Collect() // must not reclaim l even though nothing else roots it yet
	heap.PopTemp()

	require.Equal(t, 1, l.Len())
	assert.Equal(t, "child", l.Get(0).AsObj().(*object.String).Text)
}

func TestHandleReleaseUnlinksFromList(t *testing.T) {
	heap := NewHeap(1, 100, nil)
	s := object.NewString("x")
	heap.Track(s)
	hd := heap.NewHandle(value.FromObj(s))
	heap.ReleaseHandle(hd)

	heap.Collect()
	// after releasing the only root, this collect reclaims it; this
	// just exercises the unlink path without panicking on a stale link.
}

func TestCollectPreservesReachableListContents(t *testing.T) {
	heap := NewHeap(1, 100, nil)

	l := object.NewList()
	heap.Track(l)
	hd := heap.NewHandle(value.FromObj(l))
	defer heap.ReleaseHandle(hd)

	want := []value.Var{value.Num(1), value.Num(2), value.Num(3)}
	for _, v := range want {
		l.Add(v)
	}

	heap.Collect()

	got := make([]value.Var, l.Len())
	l.Each(func(i int, v value.Var) bool { got[i] = v; return true })

	if diff := cmp.Diff(want, got, varComparer); diff != "" {
		t.Errorf("list contents changed across collection (-want +got):\n%s", diff)
	}
}

func TestReentrantCollectIsNoOp(t *testing.T) {
	var reentered bool
	var heap *Heap
	heap = NewHeap(1, 100, func(mark func(value.Obj)) {
		reentered = true
		heap.Collect() // must be ignored; heap.collecting is already true
	})
	heap.Collect()
	assert.True(t, reentered)
}
