package frontend

import (
	"fmt"

	"github.com/kristofer/saynaa/internal/bytecode"
	"github.com/kristofer/saynaa/internal/object"
	"github.com/kristofer/saynaa/internal/value"
)

// Compiler turns a Program into a callable top-level Function inside a
// Module, resolving identifiers to either a local slot (inside the
// current block-scope chain) or a module global. It does not support
// nested function literals or closures — that machinery lives in
// internal/vm/dispatch.go and internal/object, ready for a fuller
// frontend; this stand-in only needs to exercise globals, locals,
// control flow and the builtin container/operator set.
type Compiler struct {
	mod    *object.Module
	fn     *object.Function
	scopes []map[string]int
	nextSlot int
}

// NewCompiler constructs a Compiler targeting a fresh module named name.
func NewCompiler(name string) *Compiler {
	mod := object.NewModule(name)
	fn := object.NewFunction("main", mod, 0)
	return &Compiler{mod: mod, fn: fn, scopes: []map[string]int{{}}}
}

// CompileModule parses source and compiles it into mod's top-level
// Function, returning the module ready to run. Implements
// internal/vm.Compiler so a VM can use *Compiler directly via
// Configure.
func (c *Compiler) CompileModule(name, source string) (*object.Module, error) {
	cc := NewCompiler(name)
	p := NewParser(source)
	prog := p.Parse()
	if len(p.Errors()) > 0 {
		return nil, fmt.Errorf("parse errors: %v", p.Errors())
	}
	if err := cc.compileProgram(prog); err != nil {
		return nil, err
	}
	return cc.mod, nil
}

func (c *Compiler) compileProgram(prog *Program) error {
	for _, stmt := range prog.Stmts {
		if err := c.compileStmt(stmt); err != nil {
			return err
		}
	}
	c.emit(bytecode.OpNull, 0)
	c.emit(bytecode.OpReturn, 0)
	c.fn.LocalCount = c.nextSlot
	c.mod.AddGlobal("main", value.Null)
	mainClosure := object.NewClosure(c.fn, nil)
	idx := c.mod.GlobalNames["main"]
	c.mod.Globals[idx] = value.FromObj(mainClosure)
	return nil
}

func (c *Compiler) emit(op bytecode.Opcode, operand int) int {
	c.fn.Code = append(c.fn.Code, bytecode.Instruction{Op: op, Operand: operand})
	return len(c.fn.Code) - 1
}

func (c *Compiler) patchJump(at int, target int) {
	c.fn.Code[at].Operand = target
}

func (c *Compiler) addConst(v value.Var) int {
	c.fn.Constants = append(c.fn.Constants, v)
	return len(c.fn.Constants) - 1
}

func (c *Compiler) pushScope()    { c.scopes = append(c.scopes, map[string]int{}) }
func (c *Compiler) popScope()     { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *Compiler) declareLocal(name string) int {
	slot := c.nextSlot
	c.nextSlot++
	c.scopes[len(c.scopes)-1][name] = slot
	return slot
}

func (c *Compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if slot, ok := c.scopes[i][name]; ok {
			return slot, true
		}
	}
	return 0, false
}

func (c *Compiler) compileStmt(n Node) error {
	switch s := n.(type) {
	case VarDecl:
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
		slot := c.declareLocal(s.Name)
		c.emit(bytecode.OpStoreLocal, slot)
		c.emit(bytecode.OpPop, 0)
		return nil
	case ExprStmt:
		if err := c.compileExpr(s.Expr); err != nil {
			return err
		}
		c.emit(bytecode.OpPop, 0)
		return nil
	case *Block:
		c.pushScope()
		for _, st := range s.Stmts {
			if err := c.compileStmt(st); err != nil {
				return err
			}
		}
		c.popScope()
		return nil
	case IfStmt:
		return c.compileIf(s)
	case WhileStmt:
		return c.compileWhile(s)
	case ReturnStmt:
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
		c.emit(bytecode.OpReturn, 0)
		return nil
	default:
		return fmt.Errorf("frontend: cannot compile statement %T", n)
	}
}

func (c *Compiler) compileIf(s IfStmt) error {
	if err := c.compileExpr(s.Cond); err != nil {
		return err
	}
	jmpFalse := c.emit(bytecode.OpJumpIfFalse, -1)
	if err := c.compileStmt(s.Then); err != nil {
		return err
	}
	jmpEnd := c.emit(bytecode.OpJump, -1)
	c.patchJump(jmpFalse, len(c.fn.Code))
	if s.Else != nil {
		if err := c.compileStmt(s.Else); err != nil {
			return err
		}
	}
	c.patchJump(jmpEnd, len(c.fn.Code))
	return nil
}

func (c *Compiler) compileWhile(s WhileStmt) error {
	loopStart := len(c.fn.Code)
	if err := c.compileExpr(s.Cond); err != nil {
		return err
	}
	jmpEnd := c.emit(bytecode.OpJumpIfFalse, -1)
	if err := c.compileStmt(s.Body); err != nil {
		return err
	}
	c.emit(bytecode.OpLoop, loopStart)
	c.patchJump(jmpEnd, len(c.fn.Code))
	return nil
}

func (c *Compiler) compileExpr(n Node) error {
	switch e := n.(type) {
	case NumberLit:
		c.emit(bytecode.OpConst, c.addConst(value.Num(e.Value)))
	case StringLit:
		c.emit(bytecode.OpConst, c.addConst(value.FromObj(object.NewString(e.Value))))
	case BoolLit:
		if e.Value {
			c.emit(bytecode.OpTrue, 0)
		} else {
			c.emit(bytecode.OpFalse, 0)
		}
	case NullLit:
		c.emit(bytecode.OpNull, 0)
	case Ident:
		if slot, ok := c.resolveLocal(e.Name); ok {
			c.emit(bytecode.OpLoadLocal, slot)
		} else {
			idx := c.addConst(value.FromObj(object.NewString(e.Name)))
			c.emit(bytecode.OpLoadGlobal, idx)
		}
	case AssignExpr:
		if err := c.compileExpr(e.Value); err != nil {
			return err
		}
		if slot, ok := c.resolveLocal(e.Name); ok {
			c.emit(bytecode.OpStoreLocal, slot)
		} else {
			idx := c.addConst(value.FromObj(object.NewString(e.Name)))
			c.emit(bytecode.OpStoreGlobal, idx)
		}
	case UnaryExpr:
		if err := c.compileExpr(e.Operand); err != nil {
			return err
		}
		switch e.Op {
		case TokMinus:
			c.emit(bytecode.OpNeg, 0)
		case TokNot:
			c.emit(bytecode.OpNot, 0)
		default:
			return fmt.Errorf("frontend: unsupported unary operator")
		}
	case BinaryExpr:
		if err := c.compileExpr(e.Left); err != nil {
			return err
		}
		if err := c.compileExpr(e.Right); err != nil {
			return err
		}
		op, ok := binOpcodes[e.Op]
		if !ok {
			return fmt.Errorf("frontend: unsupported binary operator")
		}
		c.emit(op, 0)
	case ListLit:
		for _, el := range e.Elems {
			if err := c.compileExpr(el); err != nil {
				return err
			}
		}
		c.emit(bytecode.OpNewList, len(e.Elems))
	case IndexExpr:
		if err := c.compileExpr(e.Recv); err != nil {
			return err
		}
		if err := c.compileExpr(e.Index); err != nil {
			return err
		}
		c.emit(bytecode.OpGetSubscript, 0)
	case CallExpr:
		ident, ok := e.Callee.(Ident)
		if !ok {
			return fmt.Errorf("frontend: only calling a named function is supported")
		}
		idx := c.addConst(value.FromObj(object.NewString(ident.Name)))
		c.emit(bytecode.OpLoadGlobal, idx)
		for _, a := range e.Args {
			if err := c.compileExpr(a); err != nil {
				return err
			}
		}
		c.emit(bytecode.OpCall, len(e.Args))
	default:
		return fmt.Errorf("frontend: cannot compile expression %T", n)
	}
	return nil
}

var binOpcodes = map[TokenType]bytecode.Opcode{
	TokPlus:    bytecode.OpAdd,
	TokMinus:   bytecode.OpSub,
	TokStar:    bytecode.OpMul,
	TokSlash:   bytecode.OpDiv,
	TokPercent: bytecode.OpMod,
	TokEqEq:    bytecode.OpEq,
	TokNotEq:   bytecode.OpNeq,
	TokLt:      bytecode.OpLt,
	TokLte:     bytecode.OpLte,
	TokGt:      bytecode.OpGt,
	TokGte:     bytecode.OpGte,
}
