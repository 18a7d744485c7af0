package vm

import (
	"fmt"

	"github.com/kristofer/saynaa/internal/bytecode"
	"github.com/kristofer/saynaa/internal/object"
	"github.com/kristofer/saynaa/internal/value"
)

// dispatch runs f's frame stack until it empties (normal return of the
// outermost frame) or a runtime error propagates out of it. Grounded on
// the teacher's VM.Run main loop (pkg/vm/vm.go): an instruction-pointer
// driven switch over Opcode, reading/writing a single active frame at a
// time, generalized here to read the active frame from f.Frames instead
// of from a singleton vm.ip/vm.stack pair.
func (vm *VM) dispatch(f *object.Fiber) error {
	for len(f.Frames) > 0 {
		cf := f.CurrentFrame()
		fn := cf.Closure.Fn

		if vm.debugger != nil && vm.debugger.ShouldPause() {
			if !vm.debugger.InteractivePrompt(f) {
				return fmt.Errorf("debugging session terminated")
			}
		}

		if cf.IP >= len(fn.Code) {
			return vm.runtimeError(f, "instruction pointer ran off the end of the function")
		}
		ins := fn.Code[cf.IP]
		cf.IP++

		switch ins.Op {
		case bytecode.OpNop:
			// no-op

		case bytecode.OpConst:
			if ins.Operand < 0 || ins.Operand >= len(fn.Constants) {
				return vm.runtimeError(f, "constant index out of bounds")
			}
			f.Push(fn.Constants[ins.Operand])

		case bytecode.OpNull:
			f.Push(value.Null)
		case bytecode.OpUndef:
			f.Push(value.Undef)
		case bytecode.OpTrue:
			f.Push(value.True)
		case bytecode.OpFalse:
			f.Push(value.False)

		case bytecode.OpPop:
			f.Pop()
		case bytecode.OpDup:
			f.Push(f.Top())

		case bytecode.OpLoadLocal:
			idx := cf.Rbp + ins.Operand
			f.Push(f.Stack[idx])
		case bytecode.OpStoreLocal:
			idx := cf.Rbp + ins.Operand
			f.Stack[idx] = f.Top()

		case bytecode.OpLoadUpval:
			uv := cf.Closure.Upvalues[ins.Operand]
			f.Push(vm.readUpvalue(f, uv))
		case bytecode.OpStoreUpval:
			uv := cf.Closure.Upvalues[ins.Operand]
			vm.writeUpvalue(f, uv, f.Top())

		case bytecode.OpLoadGlobal:
			name := fn.Constants[ins.Operand].AsObj().(*object.String).Text
			idx, ok := fn.Module.GlobalNames[name]
			if !ok {
				return vm.runtimeError(f, "undefined global: "+name)
			}
			f.Push(fn.Module.Globals[idx])
		case bytecode.OpStoreGlobal:
			name := fn.Constants[ins.Operand].AsObj().(*object.String).Text
			idx, ok := fn.Module.GlobalNames[name]
			if !ok {
				idx = fn.Module.AddGlobal(name, value.Null)
			}
			fn.Module.Globals[idx] = f.Top()

		case bytecode.OpLoadThis:
			f.Push(f.This)

		case bytecode.OpLoadField:
			inst := f.This.AsObj().(*object.Instance)
			f.Push(inst.Field(ins.Operand))
		case bytecode.OpStoreField:
			inst := f.This.AsObj().(*object.Instance)
			inst.SetField(ins.Operand, f.Top())

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod:
			b := f.Pop()
			a := f.Pop()
			res, err := vm.BinaryOp(opToMagic[ins.Op], a, b)
			if err != nil {
				return vm.runtimeError(f, err.Error())
			}
			f.Push(res)

		case bytecode.OpNeg:
			a := f.Pop()
			if !a.IsNumber() {
				return vm.runtimeError(f, "unary '-' requires a number")
			}
			f.Push(value.Num(-a.AsNumber()))

		case bytecode.OpNot:
			a := f.Pop()
			f.Push(value.Bool(!a.Truthy()))

		case bytecode.OpEq, bytecode.OpNeq:
			b := f.Pop()
			a := f.Pop()
			eq, err := vm.Equals(a, b)
			if err != nil {
				return vm.runtimeError(f, err.Error())
			}
			if ins.Op == bytecode.OpNeq {
				eq = !eq
			}
			f.Push(value.Bool(eq))

		case bytecode.OpLt, bytecode.OpLte, bytecode.OpGt, bytecode.OpGte:
			b := f.Pop()
			a := f.Pop()
			res, err := vm.compareValues(ins.Op, a, b)
			if err != nil {
				return vm.runtimeError(f, err.Error())
			}
			f.Push(value.Bool(res))

		case bytecode.OpIn:
			haystack := f.Pop()
			needle := f.Pop()
			ok, err := vm.Contains(needle, haystack)
			if err != nil {
				return vm.runtimeError(f, err.Error())
			}
			f.Push(value.Bool(ok))

		case bytecode.OpIsType:
			clsVal := f.Pop()
			v := f.Pop()
			clsObj, ok := clsVal.AsObj().(*object.Class)
			if !ok {
				return vm.runtimeError(f, "right-hand side of 'is' must be a class")
			}
			f.Push(value.Bool(vm.IsType(v, clsObj)))

		case bytecode.OpRange, bytecode.OpRangeIncl:
			to := f.Pop()
			from := f.Pop()
			r, err := vm.MakeRange(from, to, ins.Op == bytecode.OpRangeIncl)
			if err != nil {
				return vm.runtimeError(f, err.Error())
			}
			f.Push(r)

		case bytecode.OpGetSubscript:
			idx := f.Pop()
			recv := f.Pop()
			res, err := vm.GetSubscript(recv, idx)
			if err != nil {
				return vm.runtimeError(f, err.Error())
			}
			f.Push(res)

		case bytecode.OpSetSubscript:
			val := f.Pop()
			idx := f.Pop()
			recv := f.Pop()
			if err := vm.SetSubscript(recv, idx, val); err != nil {
				return vm.runtimeError(f, err.Error())
			}
			f.Push(val)

		case bytecode.OpJump:
			cf.IP = ins.Operand
		case bytecode.OpJumpIfFalse:
			if !f.Pop().Truthy() {
				cf.IP = ins.Operand
			}
		case bytecode.OpJumpIfTrue:
			if f.Pop().Truthy() {
				cf.IP = ins.Operand
			}
		case bytecode.OpLoop:
			cf.IP = ins.Operand

		case bytecode.OpClosure:
			closure := vm.buildClosure(f, fn, ins.Operand)
			f.Push(value.FromObj(closure))

		case bytecode.OpCloseUpval:
			vm.CloseUpvaluesFrom(f, f.Sp-1)
			f.Pop()

		case bytecode.OpCall:
			argc := ins.Operand
			if err := vm.callValue(f, argc); err != nil {
				return err
			}

		case bytecode.OpInvoke:
			selIdx, argc := bytecode.UnpackInvoke(ins.Operand)
			selector := fn.Constants[selIdx].AsObj().(*object.String).Text
			if err := vm.invokeMethod(f, selector, argc); err != nil {
				return err
			}

		case bytecode.OpReturn:
			if err := vm.doReturn(f); err != nil {
				return err
			}
			if len(f.Frames) == 0 {
				return nil
			}

		case bytecode.OpNewList:
			l := object.NewList()
			vm.Heap.Track(l)
			vm.Heap.PushTemp(l)
			n := ins.Operand
			items := make([]value.Var, n)
			for i := n - 1; i >= 0; i-- {
				items[i] = f.Pop()
			}
			for _, it := range items {
				l.Add(it)
			}
			vm.Heap.PopTemp()
			f.Push(value.FromObj(l))

		case bytecode.OpNewMap:
			m := object.NewMap()
			vm.Heap.Track(m)
			vm.Heap.PushTemp(m)
			n := ins.Operand
			for i := 0; i < n; i++ {
				val := f.Pop()
				key := f.Pop()
				m.Set(key, val)
			}
			vm.Heap.PopTemp()
			f.Push(value.FromObj(m))

		case bytecode.OpNewInstance:
			fieldCount, argc := bytecode.UnpackNewInstance(ins.Operand)
			args := make([]value.Var, argc)
			for i := argc - 1; i >= 0; i-- {
				args[i] = f.Pop()
			}
			clsVal := f.Pop()
			cls, ok := clsVal.AsObj().(*object.Class)
			if !ok {
				return vm.runtimeError(f, "'new' requires a class")
			}
			inst, err := vm.NewInstance(cls, fieldCount, args)
			if err != nil {
				return vm.runtimeError(f, err.Error())
			}
			f.Push(value.FromObj(inst))

		case bytecode.OpSuperInvoke:
			selIdx, argc := bytecode.UnpackInvoke(ins.Operand)
			selector := fn.Constants[selIdx].AsObj().(*object.String).Text
			if err := vm.invokeSuperMethod(f, cf, selector, argc); err != nil {
				return err
			}

		case bytecode.OpYield:
			v := f.Pop()
			vm.YieldFiber(v)
			return nil

		case bytecode.OpImport:
			return vm.runtimeError(f, "import must be resolved by the host before execution")

		default:
			return vm.runtimeError(f, fmt.Sprintf("unimplemented opcode: %s", ins.Op))
		}
	}
	return nil
}

var opToMagic = map[bytecode.Opcode]object.Magic{
	bytecode.OpAdd: object.MagicAdd,
	bytecode.OpSub: object.MagicSub,
	bytecode.OpMul: object.MagicMul,
	bytecode.OpDiv: object.MagicDiv,
	bytecode.OpMod: object.MagicMod,
}

// compareValues evaluates a relational operator: numbers go straight
// through the fast numeric path; otherwise it dispatches through the
// left operand's class magic method (`<` or `>`), deriving `<=`/`>=`
// by negating the opposite strict comparison (`a <= b` is `!(a > b)`,
// `a >= b` is `!(a < b)`) the way
// a class only needs to define `<` and `>` to get all four operators,
// mirroring BinaryOp's numeric-fast-path-then-magic-fallback pattern.
func (vm *VM) compareValues(op bytecode.Opcode, a, b value.Var) (bool, error) {
	if a.IsNumber() && b.IsNumber() {
		x, y := a.AsNumber(), b.AsNumber()
		switch op {
		case bytecode.OpLt:
			return x < y, nil
		case bytecode.OpLte:
			return x <= y, nil
		case bytecode.OpGt:
			return x > y, nil
		case bytecode.OpGte:
			return x >= y, nil
		}
	}
	switch op {
	case bytecode.OpLt:
		res, err := vm.BinaryOp(object.MagicLt, a, b)
		if err != nil {
			return false, err
		}
		return res.Truthy(), nil
	case bytecode.OpGt:
		res, err := vm.BinaryOp(object.MagicGt, a, b)
		if err != nil {
			return false, err
		}
		return res.Truthy(), nil
	case bytecode.OpLte:
		res, err := vm.BinaryOp(object.MagicGt, a, b)
		if err != nil {
			return false, err
		}
		return !res.Truthy(), nil
	case bytecode.OpGte:
		res, err := vm.BinaryOp(object.MagicLt, a, b)
		if err != nil {
			return false, err
		}
		return !res.Truthy(), nil
	default:
		return false, fmt.Errorf("not a comparison opcode")
	}
}

// runtimeError wraps message in a RuntimeError carrying f's current call
// stack, the generalized form of the teacher's vm.runtimeError
// (pkg/vm/vm.go).
func (vm *VM) runtimeError(f *object.Fiber, message string) error {
	err := newRuntimeError(message, f)
	f.Error = err
	return err
}

func (vm *VM) readUpvalue(f *object.Fiber, uv *object.Upvalue) value.Var {
	if uv.Closed {
		return uv.Value
	}
	return f.Stack[uv.StackIndex]
}

func (vm *VM) writeUpvalue(f *object.Fiber, uv *object.Upvalue, v value.Var) {
	if uv.Closed {
		uv.Value = v
		return
	}
	f.Stack[uv.StackIndex] = v
}

// buildClosure resolves every upvalue a target function's UpvalDescs
// call for and wraps it in a Closure. constIdx indexes into enclosing's
// constant pool for the Function value being closed over, the way
// OpClosure's operand is emitted by the compiler.
func (vm *VM) buildClosure(f *object.Fiber, enclosing *object.Function, constIdx int) *object.Closure {
	targetVar := enclosing.Constants[constIdx]
	target := targetVar.AsObj().(*object.Function)
	cf := f.CurrentFrame()

	upvals := make([]*object.Upvalue, len(target.UpvalDescs))
	for i, desc := range target.UpvalDescs {
		if desc.Local {
			upvals[i] = vm.FindOrCreateUpvalue(f, cf.Rbp+desc.Index)
		} else {
			upvals[i] = cf.Closure.Upvalues[desc.Index]
		}
	}
	closure := object.NewClosure(target, upvals)
	vm.Heap.Track(closure)
	return closure
}
