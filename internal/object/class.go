package object

import "github.com/kristofer/saynaa/internal/value"

// Magic identifies one of the fixed set of magic methods a class may
// override, each given a dedicated cache slot on Class for O(1) lookup
// instead of a string-keyed map probe on every operator dispatch.
type Magic int

const (
	MagicInit Magic = iota
	MagicStr
	MagicRepr
	MagicGetter
	MagicSetter
	MagicCall
	MagicNext
	MagicValue
	MagicAdd
	MagicSub
	MagicMul
	MagicDiv
	MagicMod
	MagicEq
	MagicLt
	MagicGt
	MagicSubscriptGet
	MagicSubscriptSet
	magicCount
)

// magicUnresolved marks a cache slot that has not been looked up
// yet; magicAbsent marks a slot that was looked up and found
// nowhere in the super-chain, so a repeat lookup can skip the walk
// entirely. These are distinct from "found, value is nil" — a Closure
// pointer is never nil for a resolved slot.
type magicCacheState uint8

const (
	magicUnresolved magicCacheState = iota
	magicAbsent
	magicResolved
)

// Class is a single-inheritance class object: a name, an optional
// superclass, a string-keyed method table for ordinary methods, and a
// fixed-size cache of magic methods resolved lazily via the super
// chain. Native classes (String, List, Map, ...) also use Class, with
// NewFn/DeleteFn left nil since they are not user-constructible via
// `new`.
type Class struct {
	Base
	Name    string
	Super   *Class
	Methods map[string]*Closure
	// DeclaredFields is the number of instance fields this class itself
	// declares (not counting inherited ones); totalFieldCount
	// (internal/vm/classops.go) sums this across the super chain to get
	// an instance's full field count.
	DeclaredFields int
	// NewFn and DeleteFn back a native-construction hook: when set,
	// `new` allocates via NewFn instead of the default zero-Instance
	// path. DeleteFn is run only by vm.DestroyInstance; the collector's
	// sweep does not call it. Neither hook is looked up on superclasses.
	NewFn    func(vm interface{}) (*Instance, error)
	DeleteFn func(vm interface{}, inst *Instance)

	// StaticAttribs holds class-level (shared, not per-instance) named
	// attributes. Lazily allocated since most classes never use it.
	StaticAttribs *Map

	magicCache [magicCount]magicCacheState
	magicFn    [magicCount]*Closure
}

// NewClass constructs a class with no methods, optionally inheriting
// from super.
func NewClass(name string, super *Class) *Class {
	return &Class{
		Base:    Base{Kind: KindClass},
		Name:    name,
		Super:   super,
		Methods: make(map[string]*Closure),
	}
}

// AddMethod registers an ordinary (non-magic) method under name, and
// (for a bytecode method) records c as the method's owner so a later
// `super` send inside its body resolves starting one level above c
// rather than above the receiver's dynamic class.
func (c *Class) AddMethod(name string, fn *Closure) {
	if fn.Fn != nil && fn.Fn.Native == nil {
		fn.Fn.OwnerClass = c
	}
	c.Methods[name] = fn
}

// SetStaticAttrib sets a class-level attribute, lazily allocating the
// backing map on first use.
func (c *Class) SetStaticAttrib(name string, v value.Var) {
	if c.StaticAttribs == nil {
		c.StaticAttribs = NewMap()
	}
	c.StaticAttribs.Set(value.FromObj(NewString(name)), v)
}

// GetStaticAttrib looks up a class-level attribute.
func (c *Class) GetStaticAttrib(name string) (value.Var, bool) {
	if c.StaticAttribs == nil {
		return value.Null, false
	}
	return c.StaticAttribs.Get(value.FromObj(NewString(name)))
}

// Lookup walks the super chain looking for name, returning nil if no
// class in the chain defines it. Unlike LookupMagic, it caches neither
// hits nor misses.
func (c *Class) Lookup(name string) *Closure {
	for cls := c; cls != nil; cls = cls.Super {
		if fn, ok := cls.Methods[name]; ok {
			return fn
		}
	}
	return nil
}

// LookupMagic resolves magic method m via the class's cache, walking
// the super chain only on first access and remembering "not present"
// so repeat dispatches (e.g. every `+` on instances of a class with no
// `_add` override) are O(1).
func (c *Class) LookupMagic(m Magic) *Closure {
	switch c.magicCache[m] {
	case magicResolved:
		return c.magicFn[m]
	case magicAbsent:
		return nil
	}
	name := magicNames[m]
	for cls := c; cls != nil; cls = cls.Super {
		if fn, ok := cls.Methods[name]; ok {
			c.magicCache[m] = magicResolved
			c.magicFn[m] = fn
			return fn
		}
	}
	c.magicCache[m] = magicAbsent
	return nil
}

var magicNames = [magicCount]string{
	MagicInit:          "_init",
	MagicStr:           "_str",
	MagicRepr:          "_repr",
	MagicGetter:        "_getter",
	MagicSetter:        "_setter",
	MagicCall:          "_call",
	MagicNext:          "_next",
	MagicValue:         "_value",
	MagicAdd:           "+",
	MagicSub:           "-",
	MagicMul:           "*",
	MagicDiv:           "/",
	MagicMod:           "%",
	MagicEq:            "==",
	MagicLt:            "<",
	MagicGt:            ">",
	MagicSubscriptGet:  "[]",
	MagicSubscriptSet:  "[]=",
}

// IsSubclassOf reports whether c is super, or a transitive subclass of
// super, implementing the `is` operator's type-check semantics.
func (c *Class) IsSubclassOf(super *Class) bool {
	for cls := c; cls != nil; cls = cls.Super {
		if cls == super {
			return true
		}
	}
	return false
}

// Instance is a user-defined object: its class plus a flat field-value
// array, laid out superclass-fields-first then subclass-fields, matching
// the field offset convention the teacher's countAllFields/
// getFieldOffset helpers establish for single inheritance.
type Instance struct {
	Base
	fields []value.Var
	// Attribs holds dynamically-named instance attributes not backed by
	// a compiler-assigned field offset: get_method's final fallback
	// after method and `_getter` resolution fail. Lazily allocated
	// since most instances only ever use compiler-assigned fields.
	Attribs *Map
}

// NewInstance constructs an instance of cls with fieldCount zeroed
// (null) fields.
func NewInstance(cls *Class, fieldCount int) *Instance {
	inst := &Instance{Base: Base{Kind: KindInstance, Class: cls}, fields: make([]value.Var, fieldCount)}
	return inst
}

func (i *Instance) Field(offset int) value.Var       { return i.fields[offset] }
func (i *Instance) SetField(offset int, v value.Var) { i.fields[offset] = v }
func (i *Instance) FieldCount() int                  { return len(i.fields) }

// GetAttrib reads a dynamic instance attribute by name.
func (i *Instance) GetAttrib(name string) (value.Var, bool) {
	if i.Attribs == nil {
		return value.Null, false
	}
	return i.Attribs.Get(value.FromObj(NewString(name)))
}

// SetAttrib writes a dynamic instance attribute by name, lazily
// allocating the backing map on first use.
func (i *Instance) SetAttrib(name string, v value.Var) {
	if i.Attribs == nil {
		i.Attribs = NewMap()
	}
	i.Attribs.Set(value.FromObj(NewString(name)), v)
}
