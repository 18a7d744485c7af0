package vm

import (
	"fmt"

	"github.com/kristofer/saynaa/internal/object"
	"github.com/kristofer/saynaa/internal/value"
)

// PrepareFiber constructs a new fiber ready to run closure with args
// already pushed as its initial locals: slot 0 is reserved as the return
// slot, args occupy slots 1..N, and the remaining local slots up to the
// function's LocalCount start as null.
func (vm *VM) PrepareFiber(closure *object.Closure, args []value.Var) *object.Fiber {
	f := vm.NewFiber(64)
	f.Push(value.Null) // return slot
	for _, a := range args {
		f.Push(a)
	}
	for i := len(args); i < closure.Fn.LocalCount; i++ {
		f.Push(value.Null)
	}
	f.PushFrame(object.CallFrame{
		Closure: closure,
		IP:      0,
		Rbp:     1,
		Ret:     0,
	})
	f.This = value.Null
	return f
}

// SwitchFiber transfers control to next, recording cur as its caller so
// a later yield/return on next resumes cur.
func (vm *VM) SwitchFiber(next *object.Fiber) error {
	if next.State == object.FiberDone {
		return fmt.Errorf("vm: cannot switch into a finished fiber")
	}
	next.Caller = vm.current
	next.State = object.FiberRunning
	if vm.current != nil {
		vm.current.State = object.FiberYielded
	}
	vm.current = next
	return nil
}

// YieldFiber suspends the current fiber, leaving v as the value its
// resumer's run_fiber/switch_fiber call observes, and transfers control
// back to its caller. v is also stashed in slot 0 so a caller that
// invoked RunFiber directly (rather than through SwitchFiber) can still
// retrieve it once dispatch unwinds back out of RunFiber.
func (vm *VM) YieldFiber(v value.Var) {
	f := vm.current
	f.State = object.FiberYielded
	f.Stack[0] = v
	caller := f.Caller
	f.Caller = nil
	vm.current = caller
	if caller != nil {
		caller.Push(v)
	}
}

// RunFiber runs f to completion or until it yields, driving the dispatch
// loop directly rather than through SwitchFiber; used both by the
// top-level script entry point (run to completion) and by fiber.resume
// (run until the next yield or return). dispatch returning cleanly with
// frames still on f means f yielded mid-execution, not that it finished,
// so FiberDone is only set once f's frame stack is actually empty.
func (vm *VM) RunFiber(f *object.Fiber) (value.Var, error) {
	prevCurrent := vm.current
	vm.current = f
	f.State = object.FiberRunning
	defer func() { vm.current = prevCurrent }()

	if err := vm.dispatch(f); err != nil {
		f.State = object.FiberDone
		return value.Null, err
	}
	if len(f.Frames) == 0 {
		f.State = object.FiberDone
	}
	if f.Sp > 0 {
		return f.Stack[0], nil
	}
	return value.Null, nil
}

// CloseUpvaluesFrom closes every open upvalue on f whose StackIndex is
// >= floor, capturing each one's current stack value before the frame
// that owns that slot is popped. Since OpenUpvalues is ordered by
// descending StackIndex, this is a single forward walk that stops at the
// first upvalue below floor.
func (vm *VM) CloseUpvaluesFrom(f *object.Fiber, floor int) {
	for f.OpenUpvalues != nil && f.OpenUpvalues.StackIndex >= floor {
		uv := f.OpenUpvalues
		uv.Close(f.Stack[uv.StackIndex])
		f.OpenUpvalues = uv.Next
		uv.Next = nil
	}
}

// FindOrCreateUpvalue returns the open upvalue over stack slot idx on f,
// creating and linking a new one (in descending-StackIndex order) if
// none exists yet.
func (vm *VM) FindOrCreateUpvalue(f *object.Fiber, idx int) *object.Upvalue {
	var prev *object.Upvalue
	cur := f.OpenUpvalues
	for cur != nil && cur.StackIndex > idx {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.StackIndex == idx {
		return cur
	}
	uv := object.NewOpenUpvalue(idx)
	vm.Heap.Track(uv)
	uv.Next = cur
	if prev == nil {
		f.OpenUpvalues = uv
	} else {
		prev.Next = uv
	}
	return uv
}

// Stack growth note: object.Fiber.Push doubles the backing array when
// full. Callers holding absolute indices derived from before growth
// (frame Rbp/Ret, open upvalue StackIndex) need no rebasing, unlike the
// reference implementation's raw-pointer stack — growth here only
// reallocates the backing array, it never changes what index a logical
// slot lives at, since Var slots are addressed by index rather than by
// pointer.
