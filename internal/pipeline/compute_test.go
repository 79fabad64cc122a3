package pipeline

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/require"
)

func TestCompileAndCacheShaderModuleAllowFailureKeepsCachedModule(t *testing.T) {
	c := &Compute{Label: "test", SourcePath: "missing.wgsl"}
	prev := &wgpu.ShaderModule{}
	c.module = prev

	calls := 0
	c.compileShader = func(device *wgpu.Device, path string) (*wgpu.ShaderModule, error) {
		calls++
		return nil, errors.New("boom")
	}

	ok, err := c.CompileAndCacheShaderModule(true)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 1, calls)
	require.Same(t, prev, c.module)
}

func TestCompileAndCacheShaderModuleFatalWhenDisallowed(t *testing.T) {
	c := &Compute{Label: "test", SourcePath: "missing.wgsl"}
	c.compileShader = func(device *wgpu.Device, path string) (*wgpu.ShaderModule, error) {
		return nil, errors.New("syntax error at line 4")
	}

	_, err := c.CompileAndCacheShaderModule(false)
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	require.Equal(t, "missing.wgsl", compileErr.Path)
}

func TestGroupCountRoundsUp(t *testing.T) {
	require.Equal(t, uint32(1), groupCount(1, 8))
	require.Equal(t, uint32(1), groupCount(8, 8))
	require.Equal(t, uint32(2), groupCount(9, 8))
	require.Equal(t, uint32(0), groupCount(100, 0))
}
