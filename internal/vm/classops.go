package vm

import (
	"github.com/kristofer/saynaa/internal/object"
	"github.com/kristofer/saynaa/internal/value"
)

// installBuiltins creates the native class hierarchy every value's
// `class` resolves to. All builtin classes ultimately chain to Object,
// matching the single-inheritance model's requirement that every class
// have a root ancestor for universal methods (`_str`, `==`, ...).
func (vm *VM) installBuiltins() {
	obj := object.NewClass("Object", nil)
	vm.Builtins = BuiltinClasses{
		Object: obj,
		Number: object.NewClass("Number", obj),
		Bool:   object.NewClass("Bool", obj),
		String: object.NewClass("String", obj),
		List:   object.NewClass("List", obj),
		Map:    object.NewClass("Map", obj),
		Range:  object.NewClass("Range", obj),
		Buffer: object.NewClass("Buffer", obj),
		Fiber:  object.NewClass("Fiber", obj),
		Class:  object.NewClass("Class", obj),
		Null:   object.NewClass("Null", obj),
	}
	vm.Heap.Track(obj)
	vm.Heap.Track(vm.Builtins.Number)
	vm.Heap.Track(vm.Builtins.Bool)
	vm.Heap.Track(vm.Builtins.String)
	vm.Heap.Track(vm.Builtins.List)
	vm.Heap.Track(vm.Builtins.Map)
	vm.Heap.Track(vm.Builtins.Range)
	vm.Heap.Track(vm.Builtins.Buffer)
	vm.Heap.Track(vm.Builtins.Fiber)
	vm.Heap.Track(vm.Builtins.Class)
	vm.Heap.Track(vm.Builtins.Null)

	vm.installBuiltinMethods()
}

// totalFieldCount counts instance variables across cls and its whole
// super chain by summing each class's own DeclaredFields. Ground truth:
// the teacher's VM.countAllFields (pkg/vm/vm.go), generalized from a
// field-name-list class definition to an explicit DeclaredFields count
// stored directly on each Class.
func totalFieldCount(cls *object.Class) int {
	total := 0
	for c := cls; c != nil; c = c.Super {
		total += c.DeclaredFields
	}
	return total
}

func superChain(cls *object.Class) []*object.Class {
	var chain []*object.Class
	for c := cls; c != nil; c = c.Super {
		chain = append(chain, c)
	}
	return chain
}

// NewInstance allocates fieldCount fields (already summed across the
// super chain by the caller/compiler), tracked on the heap via cls's
// native NewFn hook if present (otherwise the default zero-instance
// path), then invokes `_init` with args if the class or a superclass
// defines it. The
// instance stays heap-tracked (a GC root via the heap's temp-ref stack
// while InvokeClosure runs) so an error mid-`_init` still leaves it
// collectible rather than leaked or double-freed.
func (vm *VM) NewInstance(cls *object.Class, fieldCount int, args []value.Var) (*object.Instance, error) {
	var inst *object.Instance
	if cls.NewFn != nil {
		native, err := cls.NewFn(vm)
		if err != nil {
			return nil, err
		}
		inst = native
	} else {
		inst = object.NewInstance(cls, fieldCount)
	}
	vm.Heap.Track(inst)
	vm.Heap.PushTemp(inst)
	defer vm.Heap.PopTemp()

	if initFn := cls.LookupMagic(object.MagicInit); initFn != nil {
		if _, err := vm.InvokeClosure(initFn, value.FromObj(inst), args); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// ConstructInstance adapts NewInstance to internal/slot.Caller, summing
// cls's field count internally so native extension code (going through
// slot.NewInstance) doesn't need to know about the super chain.
func (vm *VM) ConstructInstance(cls *object.Class, args []value.Var) (*object.Instance, error) {
	return vm.NewInstance(cls, totalFieldCount(cls), args)
}

// DestroyInstance runs the native DeleteFn hook of inst's class, if any.
// Nothing in the VM or the collector calls it: the sweep phase drops
// unmarked instances without running DeleteFn.
func (vm *VM) DestroyInstance(inst *object.Instance) {
	if inst.Class != nil && inst.Class.DeleteFn != nil {
		inst.Class.DeleteFn(vm, inst)
	}
}

// LookupMethod resolves name on cls, walking the super chain. Grounded
// on the teacher's lookupMethod (pkg/vm/vm.go).
func LookupMethod(cls *object.Class, name string) *object.Closure {
	return cls.Lookup(name)
}

// SuperLookupMethod resolves name starting one level above cls in the
// chain, implementing `super.foo(...)` sends. Grounded on the teacher's
// superSend (pkg/vm/vm.go).
func SuperLookupMethod(cls *object.Class, name string) *object.Closure {
	if cls.Super == nil {
		return nil
	}
	return cls.Super.Lookup(name)
}
