package vm

import (
	"fmt"

	"github.com/kristofer/saynaa/internal/object"
	"github.com/kristofer/saynaa/internal/value"
)

// callValue implements OpCall: the stack holds [callee, arg1..argN] with
// argc args; callee may be a Closure, a MethodBind (bound method value),
// a NativeFn, or a Class (which constructs an instance), falling back to
// `_call` for anything else.
func (vm *VM) callValue(f *object.Fiber, argc int) error {
	calleeIdx := f.Sp - argc - 1
	callee := f.Stack[calleeIdx]

	switch c := calleeVal(callee).(type) {
	case *object.Closure:
		return vm.pushCallFrame(f, c, value.Null, calleeIdx, argc)
	case *object.MethodBind:
		return vm.pushCallFrame(f, c.Method, c.Receiver, calleeIdx, argc)
	case *object.NativeFn:
		args := make([]value.Var, argc)
		copy(args, f.Stack[calleeIdx+1:calleeIdx+1+argc])
		result, err := c.Fn(vm, args)
		if err != nil {
			return vm.runtimeError(f, err.Error())
		}
		f.Sp = calleeIdx
		f.Push(result)
		return nil
	case *object.Class:
		// A class in the callable slot constructs (and `_init`s) an
		// instance: `Point(1, 2)` is sugar for `new Point(1, 2)`.
		args := make([]value.Var, argc)
		copy(args, f.Stack[calleeIdx+1:calleeIdx+1+argc])
		inst, err := vm.NewInstance(c, totalFieldCount(c), args)
		if err != nil {
			return vm.runtimeError(f, err.Error())
		}
		f.Sp = calleeIdx
		f.Push(value.FromObj(inst))
		return nil
	default:
		cls := vm.classOf(callee)
		fn := cls.LookupMagic(object.MagicCall)
		if fn == nil {
			return vm.runtimeError(f, fmt.Sprintf("%s is not callable", cls.Name))
		}
		return vm.pushCallFrame(f, fn, callee, calleeIdx, argc)
	}
}

func calleeVal(v value.Var) interface{} {
	if v.IsObj() {
		return v.AsObj()
	}
	return nil
}

// invokeMethod implements OpInvoke: the stack holds [receiver,
// arg1..argN]; method resolution happens against the receiver's class,
// mirroring the teacher's send()/executeMethod pair (pkg/vm/vm.go).
func (vm *VM) invokeMethod(f *object.Fiber, selector string, argc int) error {
	recvIdx := f.Sp - argc - 1
	recv := f.Stack[recvIdx]
	cls := vm.classOf(recv)

	fn := cls.Lookup(selector)
	if fn == nil && argc == 0 {
		// No ordinary method, so try `_getter`, then a plain instance
		// attribute read, for bracket-free property access compiled as
		// a 0-arg invoke.
		if getter := cls.LookupMagic(object.MagicGetter); getter != nil {
			fn = getter
		} else if recv.IsObj() {
			if inst, ok := recv.AsObj().(*object.Instance); ok {
				if v, ok := inst.GetAttrib(selector); ok {
					f.Sp = recvIdx
					f.Push(v)
					return nil
				}
			}
		}
	}
	if fn == nil {
		return vm.runtimeError(f, fmt.Sprintf("%s has no method '%s'", cls.Name, selector))
	}
	return vm.pushCallFrame(f, fn, recv, recvIdx, argc)
}

// invokeSuperMethod implements `super.foo(...)`: resolution starts one
// level above the currently executing method's own defining class
// (cf.Closure.Fn.OwnerClass), not above the receiver's dynamic class,
// so an overriding subclass can still reach its parent's implementation
// through its own receiver.
func (vm *VM) invokeSuperMethod(f *object.Fiber, cf *object.CallFrame, selector string, argc int) error {
	owner := cf.Closure.Fn.OwnerClass
	if owner == nil {
		return vm.runtimeError(f, "super call outside a method body")
	}
	fn := SuperLookupMethod(owner, selector)
	if fn == nil {
		return vm.runtimeError(f, fmt.Sprintf("no super method '%s'", selector))
	}
	recvIdx := f.Sp - argc - 1
	recv := f.Stack[recvIdx]
	return vm.pushCallFrame(f, fn, recv, recvIdx, argc)
}

// pushCallFrame sets up a new call frame for fn, already-pushed argc
// arguments, and receiver this, reusing the stack slots that held the
// callee/receiver and its arguments as the new frame's return slot and
// locals — the same calling convention the slot API (internal/slot)
// exposes to native code.
//
// A native (Go-implemented) fn never reaches the bytecode dispatch loop:
// it is invoked directly here and its result written straight into the
// return slot, since its Function has no Code for a CallFrame's IP to
// walk.
func (vm *VM) pushCallFrame(f *object.Fiber, fn *object.Closure, this value.Var, retSlot int, argc int) error {
	if fn.Fn.Arity >= 0 && argc != fn.Fn.Arity {
		return vm.runtimeError(f, fmt.Sprintf("expected %d arguments but got %d", fn.Fn.Arity, argc))
	}
	if fn.Fn.Native != nil {
		args := make([]value.Var, argc)
		copy(args, f.Stack[retSlot+1:retSlot+1+argc])
		result, err := fn.Fn.Native(vm, this, args)
		if err != nil {
			return vm.runtimeError(f, err.Error())
		}
		f.Sp = retSlot
		f.Push(result)
		return nil
	}
	rbp := retSlot + 1
	for i := argc; i < fn.Fn.LocalCount; i++ {
		f.Push(value.Null)
	}
	callerThis := f.This
	f.This = this
	f.PushFrame(object.CallFrame{Closure: fn, IP: 0, Rbp: rbp, Ret: retSlot, This: callerThis})
	f.CurrentFrame().Selector = fn.Fn.Name
	return nil
}

// doReturn pops the active frame, closes any upvalues captured from its
// locals, writes the return value into the caller's return slot, and
// truncates the stack back down to just past that slot.
func (vm *VM) doReturn(f *object.Fiber) error {
	retVal := f.Pop()
	cf := f.PopFrame()
	vm.CloseUpvaluesFrom(f, cf.Rbp)

	f.Sp = cf.Ret
	f.Stack[cf.Ret] = retVal
	f.Sp = cf.Ret + 1

	f.This = cf.This
	return nil
}

// InvokeClosure runs fn synchronously to completion, used by
// operator/magic-method dispatch (operators.go) where a plain Go
// function call is needed instead of a bytecode-level OpCall.
//
// A native fn is called directly: PrepareFiber/RunFiber assume a
// bytecode body to drive through the dispatch loop, which a native
// Function has none of.
func (vm *VM) InvokeClosure(fn *object.Closure, this value.Var, args []value.Var) (value.Var, error) {
	if fn.Fn.Native != nil {
		return fn.Fn.Native(vm, this, args)
	}
	sub := vm.PrepareFiber(fn, args)
	sub.This = this
	return vm.RunFiber(sub)
}

// GetSubscript implements `recv[idx]` for the builtin container kinds,
// falling back to the `[]` magic method for instances.
func (vm *VM) GetSubscript(recv, idx value.Var) (value.Var, error) {
	if recv.IsObj() {
		switch r := recv.AsObj().(type) {
		case *object.List:
			i, err := indexOf(idx, r.Len())
			if err != nil {
				return value.Null, err
			}
			return r.Get(i), nil
		case *object.Map:
			v, ok := r.Get(idx)
			if !ok {
				return value.Null, fmt.Errorf("key not found")
			}
			return v, nil
		case *object.Instance:
			fn := r.Class.LookupMagic(object.MagicSubscriptGet)
			if fn == nil {
				return value.Null, fmt.Errorf("%s does not support indexing", r.Class.Name)
			}
			return vm.InvokeClosure(fn, recv, []value.Var{idx})
		}
	}
	return value.Null, fmt.Errorf("value does not support indexing")
}

// SetSubscript implements `recv[idx] = val`.
func (vm *VM) SetSubscript(recv, idx, val value.Var) error {
	if recv.IsObj() {
		switch r := recv.AsObj().(type) {
		case *object.List:
			i, err := indexOf(idx, r.Len())
			if err != nil {
				return err
			}
			r.Set(i, val)
			return nil
		case *object.Map:
			r.Set(idx, val)
			return nil
		case *object.Instance:
			fn := r.Class.LookupMagic(object.MagicSubscriptSet)
			if fn == nil {
				return fmt.Errorf("%s does not support indexed assignment", r.Class.Name)
			}
			_, err := vm.InvokeClosure(fn, recv, []value.Var{idx, val})
			return err
		}
	}
	return fmt.Errorf("value does not support indexed assignment")
}

func indexOf(idx value.Var, length int) (int, error) {
	if !idx.IsNumber() {
		return 0, fmt.Errorf("index must be a number")
	}
	i := int(idx.AsNumber())
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, fmt.Errorf("index out of range")
	}
	return i, nil
}
