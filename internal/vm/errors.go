package vm

import (
	"fmt"
	"strings"

	gostack "github.com/go-stack/stack"
	"github.com/kristofer/saynaa/internal/object"
)

// StackFrame is one user-facing frame in a RuntimeError's trace,
// generalized from the teacher's StackFrame (pkg/vm/errors.go) to
// describe a fiber call frame instead of the teacher's single implicit
// call stack.
type StackFrame struct {
	Name       string
	Selector   string
	IP         int
	SourceLine int
	SourceCol  int
}

// RuntimeError is a script-level error with a captured fiber call
// stack, the direct analogue of the teacher's RuntimeError
// (pkg/vm/errors.go).
type RuntimeError struct {
	Message    string
	StackTrace []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.StackTrace) > 0 {
		b.WriteString("\n\nStack trace:")
		for i := len(e.StackTrace) - 1; i >= 0; i-- {
			fr := e.StackTrace[i]
			b.WriteString(fmt.Sprintf("\n  at %s", fr.Name))
			if fr.Selector != "" {
				b.WriteString(fmt.Sprintf(" (selector: %s)", fr.Selector))
			}
			if fr.SourceLine > 0 {
				b.WriteString(fmt.Sprintf(" [line %d:%d]", fr.SourceLine, fr.SourceCol))
			}
			b.WriteString(fmt.Sprintf(" [IP: %d]", fr.IP))
		}
	}
	return b.String()
}

// newRuntimeError builds a RuntimeError from the frames currently on f.
func newRuntimeError(message string, f *object.Fiber) *RuntimeError {
	frames := make([]StackFrame, len(f.Frames))
	for i, cf := range f.Frames {
		name := "<fiber>"
		if cf.Closure != nil && cf.Closure.Fn != nil {
			name = cf.Closure.Fn.Name
		}
		frames[i] = StackFrame{
			Name:       name,
			Selector:   cf.Selector,
			IP:         cf.IP,
			SourceLine: cf.SourceLine,
			SourceCol:  cf.SourceCol,
		}
	}
	return &RuntimeError{Message: message, StackTrace: frames}
}

// InvariantError reports a programmer-error contract violation (a VM or
// native-extension bug, never a reachable script-level condition), with
// a captured Go call stack rather than a fiber trace, so a developer can
// tell "the interpreter itself is broken here" apart from "the script
// raised an error".
type InvariantError struct {
	Message string
	Stack   gostack.CallStack
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("saynaa: invariant violated: %s\n%+v", e.Message, e.Stack)
}

func newInvariantError(format string, args ...interface{}) *InvariantError {
	return &InvariantError{
		Message: fmt.Sprintf(format, args...),
		Stack:   gostack.Trace().TrimBelow(gostack.Caller(1)),
	}
}
