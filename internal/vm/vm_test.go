package vm_test

import (
	"testing"

	"github.com/kristofer/saynaa/internal/frontend"
	"github.com/kristofer/saynaa/internal/host"
	"github.com/kristofer/saynaa/internal/object"
	"github.com/kristofer/saynaa/internal/vm"
	"github.com/stretchr/testify/require"
)

func newTestVM(t *testing.T) *vm.VM {
	t.Helper()
	v := vm.New()
	v.Configure(host.Default(), host.NewModuleCache(8), frontend.NewCompiler("main"))
	return v
}

func mainClosure(t *testing.T, mod *object.Module) *object.Closure {
	t.Helper()
	v, ok := mod.Get("main")
	require.True(t, ok)
	closure, ok := v.AsObj().(*object.Closure)
	require.True(t, ok)
	return closure
}

func TestArithmeticEndToEnd(t *testing.T) {
	v := newTestVM(t)
	compiler := frontend.NewCompiler("main")
	mod, err := compiler.CompileModule("main", "var x = 1 + 2 * 3; return x;")
	require.NoError(t, err)

	fiber := v.PrepareFiber(mainClosure(t, mod), nil)
	result, err := v.RunFiber(fiber)
	require.NoError(t, err)
	require.True(t, result.IsNumber())
	require.Equal(t, 7.0, result.AsNumber())
}

func TestIfElseEndToEnd(t *testing.T) {
	compiler := frontend.NewCompiler("main")
	mod, err := compiler.CompileModule("main", `
		var x = 10;
		if (x > 5) {
			x = 1;
		} else {
			x = 2;
		}
		return x;
	`)
	require.NoError(t, err)
	v := newTestVM(t)
	fiber := v.PrepareFiber(mainClosure(t, mod), nil)
	result, err := v.RunFiber(fiber)
	require.NoError(t, err)
	require.Equal(t, 1.0, result.AsNumber())
}

func TestWhileLoopEndToEnd(t *testing.T) {
	compiler := frontend.NewCompiler("main")
	mod, err := compiler.CompileModule("main", `
		var i = 0;
		var sum = 0;
		while (i < 5) {
			sum = sum + i;
			i = i + 1;
		}
		return sum;
	`)
	require.NoError(t, err)
	v := newTestVM(t)
	fiber := v.PrepareFiber(mainClosure(t, mod), nil)
	result, err := v.RunFiber(fiber)
	require.NoError(t, err)
	require.Equal(t, 10.0, result.AsNumber())
}
