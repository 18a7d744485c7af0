package vm

import (
	"testing"

	"github.com/kristofer/saynaa/internal/frontend"
	"github.com/kristofer/saynaa/internal/host"
	"github.com/kristofer/saynaa/internal/object"
	"github.com/stretchr/testify/require"
)

func TestPrintBuiltinWritesToHost(t *testing.T) {
	var out string
	cfg := host.Default()
	cfg.WriteStdout = func(s string) { out += s }

	v := New()
	v.Configure(cfg, host.NewModuleCache(8), frontend.NewCompiler("main"))

	compiler := frontend.NewCompiler("main")
	mod, err := compiler.CompileModule("main", `print("hello"); return null;`)
	require.NoError(t, err)
	v.installModuleBuiltins(mod)

	mv, ok := mod.Get("main")
	require.True(t, ok)
	closure, ok := mv.AsObj().(*object.Closure)
	require.True(t, ok)

	f := v.PrepareFiber(closure, nil)
	_, err = v.RunFiber(f)
	require.NoError(t, err)
	require.Equal(t, "hello\n", out)
}

func TestLenBuiltin(t *testing.T) {
	v := New()
	v.Configure(host.Default(), host.NewModuleCache(8), frontend.NewCompiler("main"))

	compiler := frontend.NewCompiler("main")
	mod, err := compiler.CompileModule("main", `return len([1, 2, 3]);`)
	require.NoError(t, err)
	v.installModuleBuiltins(mod)

	mv, _ := mod.Get("main")
	closure := mv.AsObj().(*object.Closure)
	f := v.PrepareFiber(closure, nil)
	result, err := v.RunFiber(f)
	require.NoError(t, err)
	require.Equal(t, 3.0, result.AsNumber())
}
