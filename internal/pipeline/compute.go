// Package pipeline implements the Compute Pipeline: one shader stage
// plus one descriptor bundle plus a workgroup size, with a cached
// shader module that can be recompiled on request. It follows the
// CreateEditPipeline/FlushEdits dispatch pattern in
// rt/gpu/manager_edit.go, generalized from a single hard-coded edit
// shader to any (sourcePath, workgroup size, bundle) triple, and adds
// the hot-reload-aware recompilation spec.md §4.3/§7 require.
package pipeline

import (
	"fmt"
	"os"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/svoray/internal/descriptor"
)

// WorkGroupSize is the local_size_x/y/z declared by the shader.
type WorkGroupSize struct {
	X, Y, Z uint32
}

// CompileError reports a shader compilation failure. During startup
// this is fatal (spec.md §7); during hot-reload it is logged and the
// previous module is kept.
type CompileError struct {
	Path    string
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("shader compile error in %s: %s", e.Path, e.Message)
}

// Compute is a single concrete compute-pipeline type (spec.md §9: no
// runtime virtual dispatch is required by the design).
type Compute struct {
	Label         string
	SourcePath    string
	WorkGroupSize WorkGroupSize
	Bundle        *descriptor.Bundle

	device *wgpu.Device
	module *wgpu.ShaderModule
	layout *wgpu.PipelineLayout
	handle *wgpu.ComputePipeline

	// compileShader reads and compiles shader source. Overridden in
	// tests to avoid needing a real shader compiler.
	compileShader func(device *wgpu.Device, path string) (*wgpu.ShaderModule, error)
}

// New constructs a compute pipeline description. Build() must be
// called after CompileAndCacheShaderModule succeeds.
func New(device *wgpu.Device, label, sourcePath string, wg WorkGroupSize, bundle *descriptor.Bundle) *Compute {
	return &Compute{
		Label:         label,
		SourcePath:    sourcePath,
		WorkGroupSize: wg,
		Bundle:        bundle,
		device:        device,
		compileShader: defaultCompileShader,
	}
}

func defaultCompileShader(device *wgpu.Device, path string) (*wgpu.ShaderModule, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          path,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: string(src)},
	})
}

// CompileAndCacheShaderModule reads SourcePath and compiles it. On
// success the cached module is replaced and true is returned. On
// failure, if allowFailure is true the previous module (if any) is
// kept and false is returned; if allowFailure is false, a *CompileError
// is returned instead.
func (c *Compute) CompileAndCacheShaderModule(allowFailure bool) (bool, error) {
	mod, err := c.compileShader(c.device, c.SourcePath)
	if err != nil {
		if allowFailure {
			return false, nil
		}
		return false, &CompileError{Path: c.SourcePath, Message: err.Error()}
	}
	if c.module != nil {
		c.module.Release()
	}
	c.module = mod
	return true, nil
}

// Build creates the pipeline layout from the bundle's layout and the
// pipeline from the cached shader module.
func (c *Compute) Build() error {
	if c.module == nil {
		return fmt.Errorf("pipeline %q: no cached shader module, call CompileAndCacheShaderModule first", c.Label)
	}

	layout, err := c.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            c.Label,
		BindGroupLayouts: []*wgpu.BindGroupLayout{c.Bundle.Layout},
	})
	if err != nil {
		return fmt.Errorf("pipeline %q: create layout: %w", c.Label, err)
	}
	if c.layout != nil {
		c.layout.Release()
	}
	c.layout = layout

	handle, err := c.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  c.Label,
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     c.module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return fmt.Errorf("pipeline %q: create pipeline: %w", c.Label, err)
	}
	if c.handle != nil {
		c.handle.Release()
	}
	c.handle = handle
	return nil
}

func groupCount(extent, wg uint32) uint32 {
	if wg == 0 {
		return 0
	}
	return (extent + wg - 1) / wg
}

// RecordCommand binds the bundle's set for frame, binds the pipeline,
// and dispatches ceil(nx/wgx) x ceil(ny/wgy) x ceil(nz/wgz) groups.
func (c *Compute) RecordCommand(pass *wgpu.ComputePassEncoder, frame int, nx, ny, nz uint32) {
	pass.SetBindGroup(0, c.Bundle.Set(frame), nil)
	pass.SetPipeline(c.handle)
	pass.DispatchWorkgroups(
		groupCount(nx, c.WorkGroupSize.X),
		groupCount(ny, c.WorkGroupSize.Y),
		groupCount(nz, c.WorkGroupSize.Z),
	)
}

// RecordIndirectCommand binds the same way but dispatches from a
// device-resident VkDispatchIndirectCommand-equivalent buffer
// (DispatchWorkgroupsIndirect), for passes whose group counts are
// produced by a previous GPU pass. No stage in this repository calls it.
func (c *Compute) RecordIndirectCommand(pass *wgpu.ComputePassEncoder, frame int, indirectBuffer *wgpu.Buffer, offset uint64) {
	pass.SetBindGroup(0, c.Bundle.Set(frame), nil)
	pass.SetPipeline(c.handle)
	pass.DispatchWorkgroupsIndirect(indirectBuffer, offset)
}

// Release destroys the cached module, layout and pipeline.
func (c *Compute) Release() {
	if c.handle != nil {
		c.handle.Release()
		c.handle = nil
	}
	if c.layout != nil {
		c.layout.Release()
		c.layout = nil
	}
	if c.module != nil {
		c.module.Release()
		c.module = nil
	}
}
