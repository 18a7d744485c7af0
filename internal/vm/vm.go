// Package vm implements the saynaa bytecode interpreter: the fiber
// execution loop, operator and method dispatch, class/instance
// lifecycle, and the runtime error model. It is the direct analogue of
// the teacher's pkg/vm, generalized from a single implicit call stack
// to first-class fibers operating on NaN-box-semantics Vars instead of
// interface{}.
package vm

import (
	"github.com/kristofer/saynaa/internal/gc"
	"github.com/kristofer/saynaa/internal/host"
	"github.com/kristofer/saynaa/internal/object"
	"github.com/kristofer/saynaa/internal/value"
)

// BuiltinClasses holds the runtime's native class objects, looked up by
// the dispatch loop when resolving magic methods and `is` checks on
// values that are never Instances (numbers, strings, lists, ...).
type BuiltinClasses struct {
	Object *object.Class
	Number *object.Class
	Bool   *object.Class
	String *object.Class
	List   *object.Class
	Map    *object.Class
	Range  *object.Class
	Buffer *object.Class
	Fiber  *object.Class
	Class  *object.Class
	Null   *object.Class
}

// VM is the top-level runtime: the object heap, the module registry,
// the builtin class table, and the fiber currently executing. Mirrors
// the teacher's VM struct-of-fields shape (pkg/vm/vm.go), generalized
// to own a Heap and a module map instead of a single globals map.
type VM struct {
	Heap *gc.Heap

	Modules     map[string]*object.Module
	SearchPaths []string
	Builtins    BuiltinClasses

	current *object.Fiber

	debugger *Debugger

	hostCfg     *host.Configuration
	moduleCache *host.ModuleCache
	compiler    Compiler
}

// New constructs a VM with an empty module registry and a fresh heap.
// Builtin classes are installed by installBuiltins (classops.go) so
// that `is Number`, `is String`, etc. resolve against real Class
// objects from the start.
func New() *VM {
	vm := &VM{
		Modules: make(map[string]*object.Module),
	}
	vm.Heap = gc.NewHeap(1<<20, 100, vm.markRoots)
	vm.installBuiltins()
	return vm
}

// markRoots is passed to gc.NewHeap as the VM-owned root marker: beyond
// handles and temp refs (which the heap already tracks itself), the VM
// must mark every fiber reachable via the current-fiber caller chain
// and every loaded module's globals.
func (vm *VM) markRoots(mark func(o value.Obj)) {
	for f := vm.current; f != nil; f = f.Caller {
		mark(f)
	}
	for _, m := range vm.Modules {
		mark(m)
	}
	markClass := func(c *object.Class) {
		if c != nil {
			mark(c)
		}
	}
	markClass(vm.Builtins.Object)
	markClass(vm.Builtins.Number)
	markClass(vm.Builtins.Bool)
	markClass(vm.Builtins.String)
	markClass(vm.Builtins.List)
	markClass(vm.Builtins.Map)
	markClass(vm.Builtins.Range)
	markClass(vm.Builtins.Buffer)
	markClass(vm.Builtins.Fiber)
	markClass(vm.Builtins.Class)
	markClass(vm.Builtins.Null)
}

// CurrentFiber returns the fiber presently executing, or nil if the VM
// is idle.
func (vm *VM) CurrentFiber() *object.Fiber { return vm.current }

// EnableDebugger installs an interactive debugger on the VM, mirroring
// the teacher's EnableDebugger/GetDebugger pair (pkg/vm/vm.go).
func (vm *VM) EnableDebugger() *Debugger {
	vm.debugger = NewDebugger(vm)
	vm.debugger.Enable()
	return vm.debugger
}

// GetDebugger returns the installed debugger, or nil if none.
func (vm *VM) GetDebugger() *Debugger { return vm.debugger }

// NewFiber allocates a fiber and tracks it on the heap.
func (vm *VM) NewFiber(initialStackSize int) *object.Fiber {
	f := object.NewFiber(initialStackSize)
	vm.Heap.Track(f)
	return f
}
