package vm

import (
	"fmt"

	"github.com/kristofer/saynaa/internal/object"
	"github.com/kristofer/saynaa/internal/value"
)

// installModuleBuiltins seeds mod's global namespace with the small set
// of always-available native functions (print, len, Fiber) every script can
// call without an explicit import, the Go analogue of the reference
// implementation's always-linked core builtins.
func (vm *VM) installModuleBuiltins(mod *object.Module) {
	register := func(name string, fn func(caller interface{}, args []value.Var) (value.Var, error)) {
		nf := object.NewNativeFn(name, fn)
		vm.Heap.Track(nf)
		mod.AddGlobal(name, value.FromObj(nf))
	}

	register("print", func(caller interface{}, args []value.Var) (value.Var, error) {
		vm := caller.(*VM)
		s := ""
		for i, a := range args {
			if i > 0 {
				s += " "
			}
			s += vm.Stringify(a)
		}
		if vm.hostCfg != nil {
			vm.hostCfg.WriteStdout(s + "\n")
		} else {
			fmt.Println(s)
		}
		return value.Null, nil
	})

	register("len", func(caller interface{}, args []value.Var) (value.Var, error) {
		if len(args) != 1 {
			return value.Null, fmt.Errorf("len expects 1 argument")
		}
		return lengthOf(args[0])
	})

	register("Fiber", func(caller interface{}, args []value.Var) (value.Var, error) {
		vm := caller.(*VM)
		if len(args) != 1 || !args[0].IsObj() {
			return value.Null, fmt.Errorf("Fiber expects a function argument")
		}
		closure, ok := args[0].AsObj().(*object.Closure)
		if !ok {
			return value.Null, fmt.Errorf("Fiber expects a function argument")
		}
		f := vm.PrepareFiber(closure, nil)
		f.Class = vm.Builtins.Fiber
		vm.Heap.Track(f)
		return value.FromObj(f), nil
	})
}

func lengthOf(v value.Var) (value.Var, error) {
	if v.IsObj() {
		switch o := v.AsObj().(type) {
		case *object.String:
			return value.Num(float64(o.Len())), nil
		case *object.List:
			return value.Num(float64(o.Len())), nil
		case *object.Map:
			return value.Num(float64(o.Len())), nil
		case *object.ByteBuffer:
			return value.Num(float64(o.Len())), nil
		}
	}
	return value.Null, fmt.Errorf("len() not supported for this type")
}

// Stringify implements the `_str` magic method fallback used by print
// and string interpolation: builtin kinds get a direct textual
// rendering; instances defer to their `_str` override if present.
func (vm *VM) Stringify(v value.Var) string {
	if v.IsObj() {
		if inst, ok := v.AsObj().(*object.Instance); ok {
			fn := inst.Class.LookupMagic(object.MagicStr)
			if fn != nil {
				res, err := vm.InvokeClosure(fn, v, nil)
				if err == nil {
					return vm.Stringify(res)
				}
			}
			return inst.Class.Name + " instance"
		}
		if s, ok := v.AsObj().(*object.String); ok {
			return s.Text
		}
	}
	return v.String()
}
