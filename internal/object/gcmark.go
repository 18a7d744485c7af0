package object

import "github.com/kristofer/saynaa/internal/value"

// MarkChildren implementations let internal/gc's collector walk the
// object graph without object importing gc (the collector only needs
// the structural "has a MarkChildren(func(value.Obj))" shape). Leaf
// kinds (String, Range, Upvalue once closed) need none.

func (l *List) MarkChildren(mark func(value.Obj)) {
	l.Each(func(_ int, v value.Var) bool {
		if v.IsObj() {
			mark(v.AsObj())
		}
		return true
	})
}

func (m *Map) MarkChildren(mark func(value.Obj)) {
	m.Each(func(k, v value.Var) bool {
		if k.IsObj() {
			mark(k.AsObj())
		}
		if v.IsObj() {
			mark(v.AsObj())
		}
		return true
	})
}

func (b *ByteBuffer) MarkChildren(mark func(value.Obj)) {}

func (m *Module) MarkChildren(mark func(value.Obj)) {
	for _, g := range m.Globals {
		if g.IsObj() {
			mark(g.AsObj())
		}
	}
	for _, c := range m.Constants {
		if c.IsObj() {
			mark(c.AsObj())
		}
	}
	if m.Main != nil {
		mark(m.Main)
	}
}

func (fn *Function) MarkChildren(mark func(value.Obj)) {
	if fn.Module != nil {
		mark(fn.Module)
	}
	for _, c := range fn.Constants {
		if c.IsObj() {
			mark(c.AsObj())
		}
	}
}

func (c *Closure) MarkChildren(mark func(value.Obj)) {
	if c.Fn != nil {
		mark(c.Fn)
	}
	for _, uv := range c.Upvalues {
		if uv != nil {
			mark(uv)
		}
	}
}

func (u *Upvalue) MarkChildren(mark func(value.Obj)) {
	if u.Closed && u.Value.IsObj() {
		mark(u.Value.AsObj())
	}
}

func (mb *MethodBind) MarkChildren(mark func(value.Obj)) {
	if mb.Receiver.IsObj() {
		mark(mb.Receiver.AsObj())
	}
	if mb.Method != nil {
		mark(mb.Method)
	}
}

func (c *Class) MarkChildren(mark func(value.Obj)) {
	if c.Super != nil {
		mark(c.Super)
	}
	for _, fn := range c.Methods {
		if fn != nil {
			mark(fn)
		}
	}
	if c.StaticAttribs != nil {
		mark(c.StaticAttribs)
	}
}

func (i *Instance) MarkChildren(mark func(value.Obj)) {
	if i.Class != nil {
		mark(i.Class)
	}
	for _, f := range i.fields {
		if f.IsObj() {
			mark(f.AsObj())
		}
	}
	if i.Attribs != nil {
		mark(i.Attribs)
	}
}

func (f *Fiber) MarkChildren(mark func(value.Obj)) {
	for i := 0; i < f.Sp; i++ {
		if f.Stack[i].IsObj() {
			mark(f.Stack[i].AsObj())
		}
	}
	for _, fr := range f.Frames {
		if fr.Closure != nil {
			mark(fr.Closure)
		}
	}
	for uv := f.OpenUpvalues; uv != nil; uv = uv.Next {
		mark(uv)
	}
	if f.This.IsObj() {
		mark(f.This.AsObj())
	}
	if f.Caller != nil {
		mark(f.Caller)
	}
}
