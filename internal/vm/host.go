package vm

import (
	"fmt"

	"github.com/kristofer/saynaa/internal/host"
	"github.com/kristofer/saynaa/internal/object"
)

// Compiler is implemented by internal/frontend.Compiler. Declared here
// (rather than vm importing frontend directly) so the VM's import
// mechanism stays decoupled from exactly one frontend implementation —
// an embedder could swap in a different compiler satisfying this
// interface.
type Compiler interface {
	CompileModule(name, source string) (*object.Module, error)
}

// Configure installs the host configuration, module cache, and
// compiler this VM uses for script loading via `import`. Must be called
// before the first Import.
func (vm *VM) Configure(cfg *host.Configuration, cache *host.ModuleCache, compiler Compiler) {
	vm.hostCfg = host.New(cfg)
	vm.moduleCache = cache
	if vm.moduleCache == nil {
		vm.moduleCache = host.NewModuleCache(64)
	}
	vm.compiler = compiler
}

// ImportModule resolves, loads, compiles (on first import) and caches
// the module at path, satisfying internal/slot.Caller.
func (vm *VM) ImportModule(path string) (*object.Module, error) {
	if mod, ok := vm.Modules[path]; ok {
		return mod, nil
	}
	if vm.hostCfg == nil || vm.compiler == nil {
		return nil, fmt.Errorf("vm: import requires Configure to have been called with a compiler")
	}
	src, err := vm.moduleCache.Load(vm.hostCfg, path)
	if err != nil {
		return nil, fmt.Errorf("vm: cannot load module %q: %w", path, err)
	}
	mod, err := vm.compileAndRegister(path, src)
	if err != nil {
		return nil, fmt.Errorf("vm: cannot compile module %q: %w", path, err)
	}
	return mod, nil
}

// CompileSource compiles source directly (bypassing the host's
// LoadScript/module cache), the entry point a CLI front end uses to run
// a file it already read itself or a `-c` inline string. The resulting
// module is registered under name exactly as ImportModule would register
// a file-backed module, so subsequent `import name` calls see it too.
func (vm *VM) CompileSource(name, source string) (*object.Module, error) {
	if vm.compiler == nil {
		return nil, fmt.Errorf("vm: CompileSource requires Configure to have been called with a compiler")
	}
	return vm.compileAndRegister(name, source)
}

func (vm *VM) compileAndRegister(name, source string) (*object.Module, error) {
	mod, err := vm.compiler.CompileModule(name, source)
	if err != nil {
		return nil, err
	}
	mod.Path = name
	if entry, ok := mod.Get("main"); ok {
		if closure, ok := entry.AsObj().(*object.Closure); ok {
			mod.Main = closure
		}
	}
	vm.installModuleBuiltins(mod)
	vm.Heap.Track(mod)
	vm.Modules[name] = mod
	return mod, nil
}
