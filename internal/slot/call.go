package slot

import (
	"github.com/kristofer/saynaa/internal/object"
	"github.com/kristofer/saynaa/internal/value"
)

// Caller is implemented by internal/vm.VM. It is defined here, rather
// than slot importing vm directly, so vm can import slot (for native
// function registration) without a package cycle.
type Caller interface {
	InvokeClosure(fn *object.Closure, this value.Var, args []value.Var) (value.Var, error)
	ImportModule(path string) (*object.Module, error)
	ConstructInstance(cls *object.Class, args []value.Var) (*object.Instance, error)
}

// CallFunction invokes closure with args, ignoring any `this` binding.
func CallFunction(c Caller, closure *object.Closure, args []value.Var) (value.Var, error) {
	return c.InvokeClosure(closure, value.Null, args)
}

// CallMethod invokes closure bound to receiver.
func CallMethod(c Caller, receiver value.Var, closure *object.Closure, args []value.Var) (value.Var, error) {
	return c.InvokeClosure(closure, receiver, args)
}

// ImportModule delegates to the VM's host-backed module loader.
func ImportModule(c Caller, path string) (*object.Module, error) {
	return c.ImportModule(path)
}

// NewInstance constructs cls from native extension code, exactly as a
// class in the callable slot does from bytecode: allocate its fields and
// invoke `_init` with args if present.
func NewInstance(c Caller, cls *object.Class, args []value.Var) (*object.Instance, error) {
	return c.ConstructInstance(cls, args)
}
