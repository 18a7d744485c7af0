package object

import (
	"github.com/kristofer/saynaa/internal/bytecode"
	"github.com/kristofer/saynaa/internal/value"
)

// Module is a compiled translation unit: its global variable slots, the
// functions defined at module scope, and the name it was loaded under.
// Grounded on the reference implementation's module-as-compilation-unit
// model; the teacher VM has no analogous type since it treats a whole
// program as one compiled Bytecode blob.
type Module struct {
	Base
	Name string
	// Path is the import path (or filesystem path) the module was
	// loaded from, used by import_module to dedup repeated imports of
	// the same module and by host-side diagnostics.
	Path    string
	Globals []value.Var
	// GlobalNames maps a global's name to its slot index, used by the
	// compiler and by host-side lookups (e.g. import_module resolving a
	// symbol by name).
	GlobalNames map[string]int
	// Constants is a module-level constant pool; AddConstant dedups by
	// value identity so the same value added twice reuses one slot. The
	// frontend compiler and the dispatch loop use each Function's own
	// Constants instead of this pool.
	Constants []value.Var
	// Main is the module's top-level body, the `@main` closure run to
	// execute the module once compiled/loaded.
	Main *Closure
	// initialized is set once Main has run to completion, so a second
	// import of the same module skips re-running its top-level body.
	initialized bool
	// Native is an opaque host-owned handle attached to modules loaded
	// from a native (Go) extension rather than compiled source, e.g. a
	// dynamically-loaded library's module instance.
	Native interface{}
}

// NewModule constructs an empty module.
func NewModule(name string) *Module {
	return &Module{
		Base:        Base{Kind: KindModule},
		Name:        name,
		GlobalNames: make(map[string]int),
	}
}

// Get looks up a global by name.
func (m *Module) Get(name string) (value.Var, bool) {
	idx, ok := m.GlobalNames[name]
	if !ok {
		return value.Null, false
	}
	return m.Globals[idx], true
}

// AddGlobal reserves a new global slot, returning its index.
func (m *Module) AddGlobal(name string, initial value.Var) int {
	idx := len(m.Globals)
	m.Globals = append(m.Globals, initial)
	m.GlobalNames[name] = idx
	return idx
}

// AddConstant interns v into the module's constant pool, returning its
// index. A constant already present (by identity for objects, by value
// for numbers/bools) reuses its existing slot rather than duplicating
// it.
func (m *Module) AddConstant(v value.Var) int {
	for i, c := range m.Constants {
		if constantsIdentical(c, v) {
			return i
		}
	}
	m.Constants = append(m.Constants, v)
	return len(m.Constants) - 1
}

func constantsIdentical(a, b value.Var) bool {
	if a.IsObj() && b.IsObj() {
		return a.AsObj() == b.AsObj()
	}
	return value.Equal(a, b)
}

// Initialized reports whether the module's top-level body has already
// run to completion.
func (m *Module) Initialized() bool { return m.initialized }

// MarkInitialized records that the module's top-level body has run,
// called once Main returns so a later import of the same path is a
// no-op re-fetch of the cached module rather than a re-run.
func (m *Module) MarkInitialized() { m.initialized = true }

// NativeBody is a Go-implemented function body: a builtin-class method
// or a free global (print, len, ...) that the VM invokes directly
// instead of stepping bytecode. caller is always the *vm.VM, typed as
// interface{} here to avoid internal/object importing internal/vm.
type NativeBody func(caller interface{}, this value.Var, args []value.Var) (value.Var, error)

// Function is compiled code: its bytecode, constant pool, and metadata
// needed to set up a call frame (arity, local slot count, upvalue
// descriptors). It is not itself callable as a first-class value until
// wrapped in a Closure, keeping code (Function) separate from code plus
// captured environment (Closure).
//
// A Function holds exactly one of Native or Code: Native is set for a
// Go-implemented method (either a native-fn-pointer or a bytecode body,
// never both), letting builtin classes register methods through the
// same Closure/Class.Methods path user-defined methods use instead of a
// wholly separate callable type.
type Function struct {
	Base
	Name       string
	Module     *Module
	Arity      int
	LocalCount int
	// UpvalDescs describes, for each upvalue a closure over this
	// function must capture, whether it comes from the immediately
	// enclosing function's locals (Local=true, Index is a stack slot)
	// or from that function's own upvalue list (Local=false, Index is
	// an upvalue index), the standard flattened-upvalue-capture scheme.
	UpvalDescs []UpvalDesc
	Code       []bytecode.Instruction
	Constants  []value.Var

	// Native is non-nil for a Go-implemented function body; when set,
	// Code/Constants/UpvalDescs are unused and the VM invokes Native
	// directly instead of pushing a bytecode call frame.
	Native NativeBody

	// OwnerClass is the class a method Function was defined on, used to
	// resolve `super` sends: a super call starts its lookup one level
	// above OwnerClass, not above the receiver's dynamic class. Nil for
	// free functions and module bodies.
	OwnerClass *Class
}

// UpvalDesc describes one upvalue a closure captures when created.
type UpvalDesc struct {
	Local bool
	Index int
}

// NewFunction constructs a Function with no code yet; the compiler (or
// frontend test harness) fills Code/Constants in afterward.
func NewFunction(name string, module *Module, arity int) *Function {
	return &Function{Base: Base{Kind: KindFunction}, Name: name, Module: module, Arity: arity}
}

// NewNativeFunction constructs a Function whose body is a Go closure,
// for wiring a builtin-class method (String.lower, List.insert, ...)
// through the same Class.Methods/Closure path bytecode methods use.
func NewNativeFunction(name string, arity int, body NativeBody) *Function {
	return &Function{Base: Base{Kind: KindFunction}, Name: name, Arity: arity, Native: body}
}

// Closure pairs a Function with the Upvalues it captured at creation
// time. This is the value actually invoked by the VM's call opcodes.
type Closure struct {
	Base
	Fn       *Function
	Upvalues []*Upvalue
}

// NewClosure constructs a closure over fn with the given captured
// upvalues (already resolved by the VM at OpClosure time).
func NewClosure(fn *Function, upvalues []*Upvalue) *Closure {
	return &Closure{Base: Base{Kind: KindClosure}, Fn: fn, Upvalues: upvalues}
}

// NewNativeClosure wraps a Go-implemented method body as a Closure with
// no captured upvalues, ready to register via Class.AddMethod.
func NewNativeClosure(name string, arity int, body NativeBody) *Closure {
	return NewClosure(NewNativeFunction(name, arity, body), nil)
}

// Upvalue is either open (StackIndex names a live fiber stack slot) or
// closed (Closed is true and Value holds the value). Open upvalues for one
// fiber are chained through Next in descending stack-address order so
// the VM can find-or-create them in a single pass and close a suffix of
// the chain in one walk when a frame returns.
type Upvalue struct {
	Base
	// StackIndex is the absolute stack slot this upvalue refers to
	// while open; meaningless once Closed is true.
	StackIndex int
	Closed     bool
	Value      value.Var
	Next       *Upvalue
}

// NewOpenUpvalue constructs an upvalue open over the given fiber stack
// slot.
func NewOpenUpvalue(stackIndex int) *Upvalue {
	return &Upvalue{Base: Base{Kind: KindUpvalue}, StackIndex: stackIndex}
}

// Close captures v as the upvalue's own storage, detaching it from the
// stack slot it used to track.
func (u *Upvalue) Close(v value.Var) {
	u.Value = v
	u.Closed = true
}

// MethodBind is the bound-method value produced by `obj.method` when
// used as a first-class value rather than immediately called: it pairs
// a receiver with an unbound method closure.
type MethodBind struct {
	Base
	Receiver value.Var
	Method   *Closure
}

// NewMethodBind constructs a bound method value.
func NewMethodBind(receiver value.Var, method *Closure) *MethodBind {
	return &MethodBind{Base: Base{Kind: KindMethodBind}, Receiver: receiver, Method: method}
}
