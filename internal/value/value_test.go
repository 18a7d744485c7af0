package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruthy(t *testing.T) {
	assert.False(t, Null.Truthy())
	assert.False(t, Undef.Truthy())
	assert.False(t, False.Truthy())
	assert.True(t, True.Truthy())
	assert.True(t, Num(0).Truthy())
	assert.True(t, Num(-1).Truthy())
}

func TestEqualZeroSign(t *testing.T) {
	pos := Num(0)
	neg := Num(math.Copysign(0, -1))
	assert.True(t, Equal(pos, neg), "+0.0 must equal -0.0")
}

func TestEqualNaN(t *testing.T) {
	n := Num(math.NaN())
	assert.True(t, Equal(n, n), "a NaN equals itself: Equal compares number bits")
}

func TestEqualDifferentKinds(t *testing.T) {
	assert.False(t, Equal(Null, Undef))
	assert.False(t, Equal(False, Null))
	assert.False(t, Equal(Num(0), False))
}

func TestFromObjNilPanics(t *testing.T) {
	assert.Panics(t, func() { FromObj(nil) })
}

func TestNumberString(t *testing.T) {
	assert.Equal(t, "3", Num(3).String())
	assert.Equal(t, "3.5", Num(3.5).String())
	assert.Equal(t, "-1", Num(-1).String())
	assert.Equal(t, "nan", Num(math.NaN()).String())
}
