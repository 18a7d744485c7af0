package vm

import (
	"fmt"

	"github.com/kristofer/saynaa/internal/object"
	"github.com/kristofer/saynaa/internal/value"
)

// installBuiltinMethods registers the native (Go-implemented) methods
// builtin classes expose to scripts, wired through the same
// Class.Methods/Closure path user-defined bytecode methods use (see
// object.Function's native/bytecode union).
func (vm *VM) installBuiltinMethods() {
	str := vm.Builtins.String
	str.AddMethod("lower", object.NewNativeClosure("lower", 0, vm.stringMethod(func(v *VM, s *object.String, _ []value.Var) (value.Var, error) {
		return v.newString(s.Lower()), nil
	})))
	str.AddMethod("upper", object.NewNativeClosure("upper", 0, vm.stringMethod(func(v *VM, s *object.String, _ []value.Var) (value.Var, error) {
		return v.newString(s.Upper()), nil
	})))
	str.AddMethod("strip", object.NewNativeClosure("strip", 0, vm.stringMethod(func(v *VM, s *object.String, _ []value.Var) (value.Var, error) {
		return v.newString(s.Strip()), nil
	})))
	str.AddMethod("replace", object.NewNativeClosure("replace", -1, vm.stringMethod(stringReplace)))
	str.AddMethod("split", object.NewNativeClosure("split", 1, vm.stringMethod(stringSplit)))
	str.AddMethod("join", object.NewNativeClosure("join", 1, vm.stringMethod(stringJoin)))

	list := vm.Builtins.List
	list.AddMethod("insert", object.NewNativeClosure("insert", 2, listMethod(listInsert)))
	list.AddMethod("remove_at", object.NewNativeClosure("remove_at", 1, listMethod(listRemoveAt)))
	list.AddMethod("add", object.NewNativeClosure("add", 1, listMethod(listAdd)))

	fiber := vm.Builtins.Fiber
	fiber.AddMethod("resume", object.NewNativeClosure("resume", 0, fiberResume))
}

// stringMethod adapts a (vm, *object.String, args) body into a
// NativeBody, validating the receiver's dynamic type once for every
// String method.
func (vm *VM) stringMethod(body func(v *VM, s *object.String, args []value.Var) (value.Var, error)) object.NativeBody {
	return func(caller interface{}, this value.Var, args []value.Var) (value.Var, error) {
		s, ok := stringArg(this)
		if !ok {
			return value.Null, fmt.Errorf("receiver is not a String")
		}
		return body(caller.(*VM), s, args)
	}
}

func listMethod(body func(vm *VM, l *object.List, args []value.Var) (value.Var, error)) object.NativeBody {
	return func(caller interface{}, this value.Var, args []value.Var) (value.Var, error) {
		v := caller.(*VM)
		l, ok := listArg(this)
		if !ok {
			return value.Null, fmt.Errorf("receiver is not a List")
		}
		return body(v, l, args)
	}
}

func stringArg(v value.Var) (*object.String, bool) {
	if !v.IsObj() {
		return nil, false
	}
	s, ok := v.AsObj().(*object.String)
	return s, ok
}

func listArg(v value.Var) (*object.List, bool) {
	if !v.IsObj() {
		return nil, false
	}
	l, ok := v.AsObj().(*object.List)
	return l, ok
}

func (vm *VM) newString(text string) value.Var {
	s := object.NewString(text)
	vm.Heap.Track(s)
	return value.FromObj(s)
}

func stringReplace(vm *VM, s *object.String, args []value.Var) (value.Var, error) {
	if len(args) < 2 {
		return value.Null, fmt.Errorf("replace expects (old, new, count=-1)")
	}
	old, ok := stringArg(args[0])
	if !ok {
		return value.Null, fmt.Errorf("replace: old must be a String")
	}
	repl, ok := stringArg(args[1])
	if !ok {
		return value.Null, fmt.Errorf("replace: new must be a String")
	}
	count := -1
	if len(args) >= 3 {
		if !args[2].IsNumber() {
			return value.Null, fmt.Errorf("replace: count must be a number")
		}
		count = int(args[2].AsNumber())
	}
	return vm.newString(s.Replace(old.Text, repl.Text, count)), nil
}

func stringSplit(vm *VM, s *object.String, args []value.Var) (value.Var, error) {
	sep, ok := stringArg(args[0])
	if !ok {
		return value.Null, fmt.Errorf("split: sep must be a String")
	}
	parts := s.Split(sep.Text)
	l := object.NewList()
	vm.Heap.Track(l)
	vm.Heap.PushTemp(l)
	for _, p := range parts {
		l.Add(vm.newString(p))
	}
	vm.Heap.PopTemp()
	return value.FromObj(l), nil
}

func stringJoin(vm *VM, s *object.String, args []value.Var) (value.Var, error) {
	l, ok := listArg(args[0])
	if !ok {
		return value.Null, fmt.Errorf("join: argument must be a List")
	}
	parts := make([]string, l.Len())
	for i := 0; i < l.Len(); i++ {
		item, ok := stringArg(l.Get(i))
		if !ok {
			return value.Null, fmt.Errorf("join: every element must be a String")
		}
		parts[i] = item.Text
	}
	return vm.newString(s.Join(parts)), nil
}

func listInsert(vm *VM, l *object.List, args []value.Var) (value.Var, error) {
	if len(args) != 2 || !args[0].IsNumber() {
		return value.Null, fmt.Errorf("insert expects (index, value)")
	}
	if err := l.InsertAt(int(args[0].AsNumber()), args[1]); err != nil {
		return value.Null, err
	}
	return value.Null, nil
}

func listRemoveAt(vm *VM, l *object.List, args []value.Var) (value.Var, error) {
	if len(args) != 1 || !args[0].IsNumber() {
		return value.Null, fmt.Errorf("remove_at expects an index")
	}
	return l.RemoveAt(int(args[0].AsNumber()))
}

func listAdd(vm *VM, l *object.List, args []value.Var) (value.Var, error) {
	if len(args) != 1 {
		return value.Null, fmt.Errorf("add expects a value")
	}
	l.Add(args[0])
	return value.Null, nil
}

// fiberResume implements `fiber.resume()`, continuing a yielded fiber
// (or starting a fresh one) and returning the value it next yields or
// returns.
func fiberResume(caller interface{}, this value.Var, args []value.Var) (value.Var, error) {
	vm := caller.(*VM)
	target, ok := this.AsObj().(*object.Fiber)
	if !ok {
		return value.Null, fmt.Errorf("receiver is not a Fiber")
	}
	if target.State == object.FiberDone {
		return value.Null, fmt.Errorf("cannot resume a finished fiber")
	}
	target.Caller = vm.current
	return vm.RunFiber(target)
}
