package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMagicCacheAbsentIsSticky(t *testing.T) {
	base := NewClass("Base", nil)
	assert.Nil(t, base.LookupMagic(MagicAdd))
	// second lookup should hit the cached "absent" state, not re-walk.
	assert.Nil(t, base.LookupMagic(MagicAdd))
}

func TestMagicCacheResolvesThroughSuper(t *testing.T) {
	super := NewClass("Super", nil)
	super.AddMethod("+", &Closure{})
	sub := NewClass("Sub", super)

	fn := sub.LookupMagic(MagicAdd)
	assert.NotNil(t, fn)
	assert.Same(t, super.Methods["+"], fn)
}

func TestIsSubclassOf(t *testing.T) {
	obj := NewClass("Object", nil)
	animal := NewClass("Animal", obj)
	dog := NewClass("Dog", animal)

	assert.True(t, dog.IsSubclassOf(animal))
	assert.True(t, dog.IsSubclassOf(obj))
	assert.False(t, obj.IsSubclassOf(dog))
}

func TestInstanceFields(t *testing.T) {
	cls := NewClass("Point", nil)
	inst := NewInstance(cls, 2)
	assert.Equal(t, 2, inst.FieldCount())
}
