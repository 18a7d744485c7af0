package object

import (
	"testing"

	"github.com/kristofer/saynaa/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAddAndGrow(t *testing.T) {
	l := NewList()
	for i := 0; i < 20; i++ {
		l.Add(value.Num(float64(i)))
	}
	assert.Equal(t, 20, l.Len())
	assert.True(t, l.Cap() >= 20)
	for i := 0; i < 20; i++ {
		assert.Equal(t, float64(i), l.Get(i).AsNumber())
	}
}

func TestListInsertRemove(t *testing.T) {
	l := NewList()
	l.Add(value.Num(1))
	l.Add(value.Num(2))
	l.Add(value.Num(3))
	require.NoError(t, l.InsertAt(1, value.Num(99)))
	assert.Equal(t, []float64{1, 99, 2, 3}, listNums(l))

	removed, err := l.RemoveAt(1)
	require.NoError(t, err)
	assert.Equal(t, 99.0, removed.AsNumber())
	assert.Equal(t, []float64{1, 2, 3}, listNums(l))
}

func TestListInsertNegativeIndex(t *testing.T) {
	l := NewList()
	l.Add(value.Num(1))
	l.Add(value.Num(2))
	l.Add(value.Num(3))

	require.NoError(t, l.InsertAt(-1, value.Num(4)))
	assert.Equal(t, []float64{1, 2, 3, 4}, listNums(l))
}

func listNums(l *List) []float64 {
	out := make([]float64, l.Len())
	l.Each(func(i int, v value.Var) bool {
		out[i] = v.AsNumber()
		return true
	})
	return out
}
