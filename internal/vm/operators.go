package vm

import (
	"fmt"

	"github.com/kristofer/saynaa/internal/object"
	"github.com/kristofer/saynaa/internal/value"
)

// classOf returns the runtime class of any Var, builtin or user-defined,
// the single dispatch point every operator and `is` check goes through.
func (vm *VM) classOf(v value.Var) *object.Class {
	switch {
	case v.IsNull():
		return vm.Builtins.Null
	case v.IsBool():
		return vm.Builtins.Bool
	case v.IsNumber():
		return vm.Builtins.Number
	case v.IsObj():
		switch o := v.AsObj().(type) {
		case *object.Instance:
			return o.Class
		case *object.String:
			return vm.Builtins.String
		case *object.List:
			return vm.Builtins.List
		case *object.Map:
			return vm.Builtins.Map
		case *object.Range:
			return vm.Builtins.Range
		case *object.ByteBuffer:
			return vm.Builtins.Buffer
		case *object.Fiber:
			return vm.Builtins.Fiber
		case *object.Class:
			return vm.Builtins.Class
		default:
			return vm.Builtins.Object
		}
	default:
		return vm.Builtins.Object
	}
}

// IsType implements the `is` operator: v is type cls if v's own class is
// cls or a transitive subclass of cls.
func (vm *VM) IsType(v value.Var, cls *object.Class) bool {
	return vm.classOf(v).IsSubclassOf(cls)
}

// binOp is a single arithmetic/comparison primitive, tried before
// falling back to a magic-method dispatch on operand classes.
type binOp func(a, b float64) (value.Var, error)

var numericOps = map[object.Magic]binOp{
	object.MagicAdd: func(a, b float64) (value.Var, error) { return value.Num(a + b), nil },
	object.MagicSub: func(a, b float64) (value.Var, error) { return value.Num(a - b), nil },
	object.MagicMul: func(a, b float64) (value.Var, error) { return value.Num(a * b), nil },
	object.MagicDiv: func(a, b float64) (value.Var, error) {
		if b == 0 {
			return value.Null, fmt.Errorf("division by zero")
		}
		return value.Num(a / b), nil
	},
	object.MagicMod: func(a, b float64) (value.Var, error) {
		if b == 0 {
			return value.Null, fmt.Errorf("modulo by zero")
		}
		m := a - b*float64(int64(a/b))
		return value.Num(m), nil
	},
}

// BinaryOp evaluates magic against (a, b): numbers go straight through
// the fast numeric path; otherwise it looks up the magic method on a's
// class and invokes it, matching the specification's operator-overload
// contract (only the left operand's class is consulted).
func (vm *VM) BinaryOp(magic object.Magic, a, b value.Var) (value.Var, error) {
	if a.IsNumber() && b.IsNumber() {
		if op, ok := numericOps[magic]; ok {
			return op(a.AsNumber(), b.AsNumber())
		}
	}
	cls := vm.classOf(a)
	fn := cls.LookupMagic(magic)
	if fn == nil {
		return value.Null, fmt.Errorf("%s has no operator for this message", cls.Name)
	}
	return vm.InvokeClosure(fn, a, []value.Var{b})
}

// Equals implements `==`: bit/structural equality for value kinds, a
// content check for Strings and Lists, and a magic `==`
// dispatch for instances — matching how the reference implementation
// lets classes define custom equality while keeping built-in value
// equality bit-exact.
func (vm *VM) Equals(a, b value.Var) (bool, error) {
	if value.Equal(a, b) {
		return true, nil
	}
	if a.IsObj() && b.IsObj() {
		if inst, ok := a.AsObj().(*object.Instance); ok {
			fn := inst.Class.LookupMagic(object.MagicEq)
			if fn != nil {
				res, err := vm.InvokeClosure(fn, a, []value.Var{b})
				if err != nil {
					return false, err
				}
				return res.Truthy(), nil
			}
		}
		return vm.deepEqualObjs(a.AsObj(), b.AsObj()), nil
	}
	return false, nil
}

func (vm *VM) deepEqualObjs(a, b value.Obj) bool {
	as, aok := a.(*object.String)
	bs, bok := b.(*object.String)
	if aok && bok {
		return as.Text == bs.Text
	}
	al, aok := a.(*object.List)
	bl, bok := b.(*object.List)
	if aok && bok {
		if al.Len() != bl.Len() {
			return false
		}
		for i := 0; i < al.Len(); i++ {
			eq, err := vm.Equals(al.Get(i), bl.Get(i))
			if err != nil || !eq {
				return false
			}
		}
		return true
	}
	return false
}

// Contains implements the `in` operator for the builtin containers it
// is defined on (List membership, Map key presence, Range membership,
// String substring); any other haystack is an error.
func (vm *VM) Contains(needle, haystack value.Var) (bool, error) {
	if haystack.IsObj() {
		switch h := haystack.AsObj().(type) {
		case *object.List:
			found := false
			h.Each(func(_ int, v value.Var) bool {
				if eq, _ := vm.Equals(needle, v); eq {
					found = true
					return false
				}
				return true
			})
			return found, nil
		case *object.Map:
			_, ok := h.Get(needle)
			return ok, nil
		case *object.Range:
			if needle.IsNumber() {
				return h.Contains(needle.AsNumber()), nil
			}
			return false, nil
		case *object.String:
			if needle.IsObj() {
				if ns, ok := needle.AsObj().(*object.String); ok {
					return containsSubstr(h.Text, ns.Text), nil
				}
			}
			return false, nil
		}
	}
	return false, fmt.Errorf("'in' not supported for this type")
}

func containsSubstr(haystack, needle string) bool {
	if len(needle) == 0 {
		return true
	}
	if len(needle) > len(haystack) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

// MakeRange constructs a Range object from two numbers, tracking it on
// the heap, implementing the `..`/`...` operators.
func (vm *VM) MakeRange(from, to value.Var, inclusive bool) (value.Var, error) {
	if !from.IsNumber() || !to.IsNumber() {
		return value.Null, fmt.Errorf("range bounds must be numbers")
	}
	r := object.NewRange(from.AsNumber(), to.AsNumber(), inclusive)
	vm.Heap.Track(r)
	return value.FromObj(r), nil
}
