package host_test

import (
	"fmt"
	"testing"

	"github.com/kristofer/saynaa/internal/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFillsNilCallbacks(t *testing.T) {
	cfg := host.New(nil)
	require.NotNil(t, cfg.WriteStdout)
	require.NotNil(t, cfg.WriteStderr)
	require.NotNil(t, cfg.ReadStdin)
	require.NotNil(t, cfg.ResolvePath)
	require.NotNil(t, cfg.LoadScript)
}

func TestNewLeavesProvidedCallbacksIntact(t *testing.T) {
	called := false
	cfg := host.New(&host.Configuration{
		WriteStdout: func(s string) { called = true },
	})
	cfg.WriteStdout("x")
	assert.True(t, called)
	// unset callbacks were still filled in.
	require.NotNil(t, cfg.LoadScript)
}

func TestResolvePathDefault(t *testing.T) {
	cfg := host.Default()
	abs, err := cfg.ResolvePath("/scripts/main.say", "util.say")
	require.NoError(t, err)
	assert.Equal(t, "/scripts/util.say", abs)
}

func TestModuleCacheLoadHitsCacheOnSecondCall(t *testing.T) {
	loads := 0
	cfg := &host.Configuration{
		LoadScript: func(path string) (string, error) {
			loads++
			return fmt.Sprintf("source for %s", path), nil
		},
	}
	cfg = host.New(cfg)
	cache := host.NewModuleCache(4)

	src, err := cache.Load(cfg, "a.say")
	require.NoError(t, err)
	assert.Equal(t, "source for a.say", src)

	src2, err := cache.Load(cfg, "a.say")
	require.NoError(t, err)
	assert.Equal(t, src, src2)
	assert.Equal(t, 1, loads, "second load should hit the cache, not call LoadScript again")
}

func TestModuleCacheLoadPropagatesError(t *testing.T) {
	cfg := host.New(&host.Configuration{
		LoadScript: func(path string) (string, error) {
			return "", fmt.Errorf("not found: %s", path)
		},
	})
	cache := host.NewModuleCache(4)

	_, err := cache.Load(cfg, "missing.say")
	require.Error(t, err)
}

func TestStdoutStderrWriters(t *testing.T) {
	var out, errOut string
	cfg := host.New(&host.Configuration{
		WriteStdout: func(s string) { out += s },
		WriteStderr: func(s string) { errOut += s },
	})
	fmt.Fprint(cfg.Stdout(), "hi")
	fmt.Fprint(cfg.Stderr(), "bye")
	assert.Equal(t, "hi", out)
	assert.Equal(t, "bye", errOut)
}
