package object

import "github.com/kristofer/saynaa/internal/value"

// NativeFn is a Go-implemented callable exposed to scripts as an
// ordinary value, the mechanism builtins (print, len, ...) and
// host-registered extension functions use. This is a thinner path than
// the full slot.Slots embedding API: it is how the VM's own builtin
// globals are implemented, while slot.Slots remains the contract for
// host native-extension modules that need reserve_slots/validate_*.
type NativeFn struct {
	Base
	Name string
	Fn   func(caller interface{}, args []value.Var) (value.Var, error)
}

// NewNativeFn wraps fn as a callable value under name.
func NewNativeFn(name string, fn func(caller interface{}, args []value.Var) (value.Var, error)) *NativeFn {
	return &NativeFn{Base: Base{Kind: KindFunction}, Name: name, Fn: fn}
}
