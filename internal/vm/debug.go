package vm

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/kristofer/saynaa/internal/object"
)

// Debugger provides interactive debugging over a running fiber,
// adapted from the teacher's pkg/vm/debugger.go: breakpoints keyed by
// instruction position, a step mode that pauses after every
// instruction, and an interactive prompt loop. Generalized from the
// teacher's single VM.ip/VM.stack to the active fiber's current frame.
type Debugger struct {
	vm          *VM
	breakpoints map[int]bool
	stepMode    bool
	enabled     bool

	spewConf *spew.ConfigState
}

// NewDebugger constructs a disabled debugger attached to vm.
func NewDebugger(vm *VM) *Debugger {
	return &Debugger{
		vm:          vm,
		breakpoints: make(map[int]bool),
		spewConf: &spew.ConfigState{
			Indent:                  "  ",
			DisableMethods:          true,
			DisablePointerAddresses: true,
		},
	}
}

func (d *Debugger) Enable()             { d.enabled = true }
func (d *Debugger) Disable()            { d.enabled = false }
func (d *Debugger) SetStepMode(on bool) { d.stepMode = on }
func (d *Debugger) AddBreakpoint(ip int)    { d.breakpoints[ip] = true }
func (d *Debugger) RemoveBreakpoint(ip int) { delete(d.breakpoints, ip) }
func (d *Debugger) ClearBreakpoints()       { d.breakpoints = make(map[int]bool) }

// ShouldPause reports whether execution should stop before the next
// instruction of the currently running fiber's top frame.
func (d *Debugger) ShouldPause() bool {
	if !d.enabled {
		return false
	}
	if d.stepMode {
		return true
	}
	f := d.vm.current
	if f == nil {
		return false
	}
	cf := f.CurrentFrame()
	if cf == nil {
		return false
	}
	return d.breakpoints[cf.IP]
}

// ShowCurrentInstruction prints the instruction about to execute in f's
// active frame.
func (d *Debugger) ShowCurrentInstruction(f *object.Fiber) {
	cf := f.CurrentFrame()
	if cf == nil {
		fmt.Println("<no active frame>")
		return
	}
	fn := cf.Closure.Fn
	if cf.IP >= len(fn.Code) {
		fmt.Println("<IP past end of function>")
		return
	}
	ins := fn.Code[cf.IP]
	fmt.Printf("[%04d] %s %d\n", cf.IP, ins.Op, ins.Operand)
}

// ShowStack dumps f's value stack using go-spew for a readable,
// recursive rendering of any Var holding an object payload.
func (d *Debugger) ShowStack(f *object.Fiber) {
	fmt.Println("Stack:")
	for i := 0; i < f.Sp; i++ {
		fmt.Printf("  [%d] ", i)
		d.spewConf.Dump(f.Stack[i])
	}
}

// ShowLocals dumps the active frame's local slots.
func (d *Debugger) ShowLocals(f *object.Fiber) {
	cf := f.CurrentFrame()
	if cf == nil {
		return
	}
	fmt.Println("Locals:")
	for i := cf.Rbp; i < f.Sp; i++ {
		fmt.Printf("  local[%d] = ", i-cf.Rbp)
		d.spewConf.Dump(f.Stack[i])
	}
}

// ShowGlobals dumps every global in the module the active frame belongs
// to.
func (d *Debugger) ShowGlobals(f *object.Fiber) {
	cf := f.CurrentFrame()
	if cf == nil {
		return
	}
	mod := cf.Closure.Fn.Module
	fmt.Printf("Globals (module %s):\n", mod.Name)
	for name, idx := range mod.GlobalNames {
		fmt.Printf("  %s = ", name)
		d.spewConf.Dump(mod.Globals[idx])
	}
}

// ShowCallStack prints f's frame stack, innermost first.
func (d *Debugger) ShowCallStack(f *object.Fiber) {
	fmt.Println("Call stack:")
	for i := len(f.Frames) - 1; i >= 0; i-- {
		cf := f.Frames[i]
		fmt.Printf("  #%d %s (ip=%d)\n", len(f.Frames)-1-i, cf.Closure.Fn.Name, cf.IP)
	}
}

// InteractivePrompt reads debug commands from stdin until `continue` or
// `quit`. Returns false if the user chose to quit.
func (d *Debugger) InteractivePrompt(f *object.Fiber) bool {
	reader := bufio.NewReader(os.Stdin)
	for {
		d.ShowCurrentInstruction(f)
		fmt.Print("debug> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		line = strings.TrimSpace(line)
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "continue", "c":
			d.stepMode = false
			return true
		case "step", "s":
			d.stepMode = true
			return true
		case "stack":
			d.ShowStack(f)
		case "locals":
			d.ShowLocals(f)
		case "globals":
			d.ShowGlobals(f)
		case "backtrace", "bt":
			d.ShowCallStack(f)
		case "break", "b":
			if len(parts) == 2 {
				if ip, err := strconv.Atoi(parts[1]); err == nil {
					d.AddBreakpoint(ip)
				}
			}
		case "quit", "q":
			return false
		default:
			fmt.Println("commands: continue|step|stack|locals|globals|backtrace|break <ip>|quit")
		}
	}
}
