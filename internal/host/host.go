// Package host defines the embedding boundary between the VM core and
// whatever environment it runs in: memory allocation, stdio, path
// resolution, script loading, and native extension lifecycle. The
// reference main.go inlines these responsibilities as direct os/fmt
// calls; this package promotes that into an explicit, swappable
// Configuration instead.
package host

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"plugin"

	lru "github.com/hashicorp/golang-lru"
)

// Configuration is the full set of host callbacks the VM relies on.
// A nil field means "use the Default* behavior for this callback";
// every field is optional.
type Configuration struct {
	// WriteStdout/WriteStderr receive already-formatted output text.
	WriteStdout func(s string)
	WriteStderr func(s string)
	// ReadStdin reads a single line (without trailing newline) from the
	// host's input stream.
	ReadStdin func() (string, error)
	// ResolvePath resolves a relative import path against the
	// importing module's own path, returning an absolute path.
	ResolvePath func(importingPath, path string) (string, error)
	// LoadScript reads the full source of the script at path.
	LoadScript func(path string) (string, error)
	// Realloc resizes buf to newSize, preserving its existing content,
	// the Go-GC-backed stand-in for a host's raw realloc callback.
	Realloc func(buf []byte, newSize int) []byte
	// LoadDL opens a native extension shared object at path.
	LoadDL func(path string) (*plugin.Plugin, error)
	// ImportDL resolves a named symbol out of a loaded extension.
	ImportDL func(p *plugin.Plugin, symbol string) (plugin.Symbol, error)
	// UnloadDL releases a loaded extension. Go's plugin package has no
	// unload primitive, so the default is a no-op that lives for the
	// rest of the process; a host embedding on a platform with a real
	// dlclose can override it.
	UnloadDL func(p *plugin.Plugin) error
}

// Default returns a Configuration backed by the OS: stdout/stderr,
// stdin, and the filesystem, matching how the teacher's cmd/smog/main.go
// talks to the outside world directly through those same packages.
func Default() *Configuration {
	return &Configuration{
		WriteStdout: func(s string) { fmt.Fprint(os.Stdout, s) },
		WriteStderr: func(s string) { fmt.Fprint(os.Stderr, s) },
		ReadStdin: func() (string, error) {
			var line []byte
			b := make([]byte, 1)
			for {
				n, err := os.Stdin.Read(b)
				if n == 1 && b[0] == '\n' {
					return string(line), nil
				}
				line = append(line, b[:n]...)
				if err != nil {
					return string(line), err
				}
			}
		},
		ResolvePath: func(importingPath, path string) (string, error) {
			if filepath.IsAbs(path) {
				return path, nil
			}
			return filepath.Join(filepath.Dir(importingPath), path), nil
		},
		LoadScript: func(path string) (string, error) {
			b, err := os.ReadFile(path)
			if err != nil {
				return "", err
			}
			return string(b), nil
		},
		Realloc: func(buf []byte, newSize int) []byte {
			if newSize <= cap(buf) {
				return buf[:newSize]
			}
			next := make([]byte, newSize)
			copy(next, buf)
			return next
		},
		LoadDL: func(path string) (*plugin.Plugin, error) {
			return plugin.Open(path)
		},
		ImportDL: func(p *plugin.Plugin, symbol string) (plugin.Symbol, error) {
			return p.Lookup(symbol)
		},
		UnloadDL: func(p *plugin.Plugin) error {
			return nil
		},
	}
}

// fill replaces any nil callback in cfg with the Default implementation,
// so a host only needs to override the callbacks it cares about.
func (cfg *Configuration) fill() {
	def := Default()
	if cfg.WriteStdout == nil {
		cfg.WriteStdout = def.WriteStdout
	}
	if cfg.WriteStderr == nil {
		cfg.WriteStderr = def.WriteStderr
	}
	if cfg.ReadStdin == nil {
		cfg.ReadStdin = def.ReadStdin
	}
	if cfg.ResolvePath == nil {
		cfg.ResolvePath = def.ResolvePath
	}
	if cfg.LoadScript == nil {
		cfg.LoadScript = def.LoadScript
	}
	if cfg.Realloc == nil {
		cfg.Realloc = def.Realloc
	}
	if cfg.LoadDL == nil {
		cfg.LoadDL = def.LoadDL
	}
	if cfg.ImportDL == nil {
		cfg.ImportDL = def.ImportDL
	}
	if cfg.UnloadDL == nil {
		cfg.UnloadDL = def.UnloadDL
	}
}

// New normalizes cfg (filling unset callbacks with the OS-backed
// defaults) and returns it ready to use. Passing nil returns a fully
// OS-backed Configuration.
func New(cfg *Configuration) *Configuration {
	if cfg == nil {
		return Default()
	}
	cfg.fill()
	return cfg
}

// ModuleSource is raw compiled-or-source module content fetched via
// LoadScript, cached by ModuleCache so a long-running embedding host
// importing the same path repeatedly (e.g. a standard-library module
// imported by many user scripts) doesn't re-read and re-parse it.
type ModuleSource struct {
	Path   string
	Source string
}

// ModuleCache bounds the set of loaded-module sources kept in memory,
// backed by an LRU so a host that imports many distinct paths over a
// long process lifetime doesn't grow its cache without bound.
type ModuleCache struct {
	cache *lru.Cache
}

// NewModuleCache constructs a cache holding up to capacity entries.
func NewModuleCache(capacity int) *ModuleCache {
	if capacity <= 0 {
		capacity = 64
	}
	c, _ := lru.New(capacity)
	return &ModuleCache{cache: c}
}

// Get returns a previously cached source for path, if present.
func (mc *ModuleCache) Get(path string) (*ModuleSource, bool) {
	v, ok := mc.cache.Get(path)
	if !ok {
		return nil, false
	}
	return v.(*ModuleSource), true
}

// Put stores src under its own path.
func (mc *ModuleCache) Put(src *ModuleSource) {
	mc.cache.Add(src.Path, src)
}

// Load fetches path's source, preferring the cache, falling back to
// cfg.LoadScript on a miss and populating the cache with the result.
func (mc *ModuleCache) Load(cfg *Configuration, path string) (string, error) {
	if cached, ok := mc.Get(path); ok {
		return cached.Source, nil
	}
	src, err := cfg.LoadScript(path)
	if err != nil {
		return "", err
	}
	mc.Put(&ModuleSource{Path: path, Source: src})
	return src, nil
}

var _ io.Writer = (*stdoutWriter)(nil)

// stdoutWriter adapts a Configuration write callback (WriteStdout or
// WriteStderr) to io.Writer.
type stdoutWriter struct {
	write func(string)
}

func (w *stdoutWriter) Write(p []byte) (int, error) {
	w.write(string(p))
	return len(p), nil
}

// Stdout wraps cfg's WriteStdout callback as an io.Writer.
func (cfg *Configuration) Stdout() io.Writer { return &stdoutWriter{write: cfg.WriteStdout} }

// Stderr wraps cfg's WriteStderr callback as an io.Writer.
func (cfg *Configuration) Stderr() io.Writer { return &stdoutWriter{write: cfg.WriteStderr} }
