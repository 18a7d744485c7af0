package slot_test

import (
	"testing"

	"github.com/kristofer/saynaa/internal/gc"
	"github.com/kristofer/saynaa/internal/object"
	"github.com/kristofer/saynaa/internal/slot"
	"github.com/kristofer/saynaa/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHeap() *gc.Heap {
	return gc.NewHeap(1<<20, 100, func(mark func(value.Obj)) {})
}

func TestSlotsGetSetAndReturn(t *testing.T) {
	f := object.NewFiber(8)
	f.Push(value.Null)  // slot 0: return
	f.Push(value.Num(1)) // slot 1: arg

	s := slot.New(f, newHeap(), 0, 2)
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, 1.0, s.Get(1).AsNumber())

	s.Set(1, value.Num(42))
	assert.Equal(t, 42.0, s.Get(1).AsNumber())

	s.SetReturn(value.Num(7))
	assert.Equal(t, 7.0, f.Stack[0].AsNumber())
}

func TestValidateNumber(t *testing.T) {
	f := object.NewFiber(4)
	f.Push(value.Null)
	f.Push(value.Num(3.5))
	f.Push(value.True)

	s := slot.New(f, newHeap(), 0, 3)

	n, err := s.ValidateNumber(1)
	require.NoError(t, err)
	assert.Equal(t, 3.5, n)

	_, err = s.ValidateNumber(2)
	require.Error(t, err)
	assert.Equal(t, "Expected number but got bool.", err.Error())
}

func TestValidateString(t *testing.T) {
	f := object.NewFiber(4)
	f.Push(value.Null)
	f.Push(value.FromObj(object.NewString("hi")))

	s := slot.New(f, newHeap(), 0, 2)
	str, err := s.ValidateString(1)
	require.NoError(t, err)
	assert.Equal(t, "hi", str.Text)

	_, err = s.ValidateString(0)
	require.Error(t, err)
}

func TestValidateList(t *testing.T) {
	f := object.NewFiber(4)
	f.Push(value.Null)
	list := object.NewList()
	list.Add(value.Num(1))
	f.Push(value.FromObj(list))

	s := slot.New(f, newHeap(), 0, 2)
	got, err := s.ValidateList(1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}

func TestValidateInstanceRejectsOtherClasses(t *testing.T) {
	f := object.NewFiber(4)
	a := object.NewClass("A", nil)
	b := object.NewClass("B", nil)
	inst := object.NewInstance(a, 0)

	f.Push(value.Null)
	f.Push(value.FromObj(inst))
	s := slot.New(f, newHeap(), 0, 2)

	got, err := s.ValidateInstance(1, a)
	require.NoError(t, err)
	assert.Same(t, inst, got)

	_, err = s.ValidateInstance(1, b)
	require.Error(t, err)
}

func TestReserveSlotsGrowsStack(t *testing.T) {
	f := object.NewFiber(2)
	f.Push(value.Null)

	s := slot.New(f, newHeap(), 0, 1)
	s.ReserveSlots(16)
	assert.GreaterOrEqual(t, len(f.Stack), 16)
	assert.Equal(t, 16, s.Count())
}

func TestNewHandleAndReleaseHandle(t *testing.T) {
	h := newHeap()
	f := object.NewFiber(4)
	str := object.NewString("handled")
	f.Push(value.FromObj(str))

	s := slot.New(f, h, 0, 1)
	handle := s.NewHandle(0)
	require.NotNil(t, handle)
	assert.Equal(t, str, handle.Value.AsObj())

	s.ReleaseHandle(handle)
}
