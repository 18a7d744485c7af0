package object

import "github.com/kristofer/saynaa/internal/value"

// FiberState tracks where a fiber sits in its new -> running <-> yielded
// -> done lifecycle.
type FiberState int

const (
	FiberNew FiberState = iota
	FiberRunning
	FiberYielded
	FiberDone
)

func (s FiberState) String() string {
	switch s {
	case FiberNew:
		return "new"
	case FiberRunning:
		return "running"
	case FiberYielded:
		return "yielded"
	case FiberDone:
		return "done"
	default:
		return "?"
	}
}

// CallFrame is one activation record on a fiber's frame stack: the
// closure being executed, the instruction pointer into its bytecode,
// and rbp, the base stack slot this frame's locals start at (used both
// for local-variable addressing and as the watermark upvalue-closing
// walks against on return).
type CallFrame struct {
	Closure *Closure
	IP      int
	// Rbp is the absolute index into the fiber's value stack where
	// this frame's locals begin.
	Rbp int
	// Ret is the absolute stack slot the call result is written to
	// and where the native/script caller finds its return value,
	// matching the specification's "slot 0 is the return slot"
	// convention for the embedding API.
	Ret int
	// This is the receiver active during this frame, saved here so it
	// can be restored on the enclosing frame when this one returns.
	This value.Var
	// Selector/SourceLine/SourceCol mirror what the reference
	// implementation's error reporting needs per frame; kept here so
	// internal/vm/errors.go can build a StackFrame without walking
	// back into the closure's debug info separately.
	Selector   string
	SourceLine int
	SourceCol  int
}

// Fiber is a first-class, heap-allocated, independently GC-visible call
// stack: its value stack, frame stack, and open-upvalue chain. Multiple
// fibers may exist at once (cooperative, never concurrent — only one
// fiber is ever "running" at a time, per the specification's Non-goal
// ruling out true parallel fiber execution).
type Fiber struct {
	Base
	State FiberState

	Stack []value.Var
	// Sp is the number of live slots in Stack (the next free index).
	Sp int

	Frames []CallFrame

	// OpenUpvalues is the head of this fiber's open-upvalue chain,
	// ordered by descending StackIndex, so closing a suffix on return
	// is a single forward walk while StackIndex >= some rbp.
	OpenUpvalues *Upvalue

	// Caller is the fiber that invoked this one via a fiber call (the
	// fiber this one yields/returns back to); nil for the root fiber.
	Caller *Fiber

	// This is the receiver of the currently executing method, or Null
	// at module scope.
	This value.Var

	// Error holds the most recent RuntimeError raised on this fiber,
	// recorded by internal/vm when the error is raised.
	Error error
}

// NewFiber constructs a fresh fiber with a pre-sized value stack.
func NewFiber(initialStackSize int) *Fiber {
	if initialStackSize <= 0 {
		initialStackSize = 64
	}
	return &Fiber{
		Base:  Base{Kind: KindFiber},
		State: FiberNew,
		Stack: make([]value.Var, initialStackSize),
		This:  value.Null,
	}
}

// Push pushes v onto the value stack, growing it if the stack is full.
// Indices into the stack held elsewhere are absolute and stay valid
// across growth (see the note in internal/vm/fiberops.go).
func (f *Fiber) Push(v value.Var) {
	if f.Sp == len(f.Stack) {
		f.growStack()
	}
	f.Stack[f.Sp] = v
	f.Sp++
}

func (f *Fiber) growStack() {
	next := make([]value.Var, len(f.Stack)*2)
	copy(next, f.Stack)
	f.Stack = next
}

// Pop removes and returns the top value stack slot.
func (f *Fiber) Pop() value.Var {
	f.Sp--
	v := f.Stack[f.Sp]
	f.Stack[f.Sp] = value.Null
	return v
}

// Top returns the top value stack slot without removing it.
func (f *Fiber) Top() value.Var { return f.Stack[f.Sp-1] }

// PushFrame pushes a new call frame.
func (f *Fiber) PushFrame(cf CallFrame) {
	f.Frames = append(f.Frames, cf)
}

// PopFrame pops and returns the innermost call frame.
func (f *Fiber) PopFrame() CallFrame {
	n := len(f.Frames) - 1
	cf := f.Frames[n]
	f.Frames = f.Frames[:n]
	return cf
}

// CurrentFrame returns a pointer to the innermost call frame, or nil if
// none is active.
func (f *Fiber) CurrentFrame() *CallFrame {
	if len(f.Frames) == 0 {
		return nil
	}
	return &f.Frames[len(f.Frames)-1]
}
