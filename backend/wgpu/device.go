// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/wgpu/hal"
	types "github.com/gogpu/gputypes"

	"github.com/gogpu/hotsort"
	"github.com/gogpu/hotsort/gpucore"
)

// sortLayoutID is the single pipeline layout a Device owns. hotsort
// requires every pipeline of an instance to share one layout, so the
// device creates it once and hands out this fixed handle.
const sortLayoutID gpucore.PipelineLayoutID = 1

// pipelineEntry pairs a compiled pipeline with its shader module so both
// can be destroyed together.
type pipelineEntry struct {
	pipeline hal.ComputePipeline
	module   hal.ShaderModule
}

// Device implements gpucore.Device on a HAL device. It owns the shared
// bind group layout and pipeline layout of the sort descriptor-set
// contract: the output storage array at binding 0, the input storage
// array at binding 1, and the per-dispatch parameter block at binding 2.
type Device struct {
	mu sync.Mutex

	device hal.Device
	queue  hal.Queue

	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout

	pipelines map[gpucore.PipelineID]pipelineEntry
	nextID    uint64
}

// NewDevice wraps a HAL device and queue for sorting.
func NewDevice(device hal.Device, queue hal.Queue) (*Device, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("wgpu: device and queue are required")
	}

	d := &Device{
		device:    device,
		queue:     queue,
		pipelines: make(map[gpucore.PipelineID]pipelineEntry),
	}
	if err := d.createLayouts(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// createLayouts creates the shared bind group and pipeline layouts.
func (d *Device) createLayouts() error {
	bindLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "hotsort_bind_layout",
		Entries: []types.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: types.ShaderStageCompute,
				Buffer: &types.BufferBindingLayout{
					Type: types.BufferBindingTypeStorage,
				},
			},
			{
				Binding:    1,
				Visibility: types.ShaderStageCompute,
				Buffer: &types.BufferBindingLayout{
					Type: types.BufferBindingTypeStorage,
				},
			},
			{
				Binding:    2,
				Visibility: types.ShaderStageCompute,
				Buffer: &types.BufferBindingLayout{
					Type:             types.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   paramsSlotBytes,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: failed to create bind group layout: %w", err)
	}
	d.bindLayout = bindLayout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "hotsort_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{d.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("wgpu: failed to create pipeline layout: %w", err)
	}
	d.pipeLayout = pipeLayout
	return nil
}

// PipelineLayout returns the handle hotsort.New expects for this device.
func (d *Device) PipelineLayout() gpucore.PipelineLayoutID { return sortLayoutID }

// SupportsCompute reports true; a HAL device without compute support
// fails at NewDevice or pipeline creation instead.
func (d *Device) SupportsCompute() bool { return true }

// SubgroupSizeControl reports false: the WebGPU HAL has no subgroup size
// control yet, so targets requesting it fall back to the driver default.
func (d *Device) SubgroupSizeControl() bool { return false }

// CreateComputePipeline compiles one target program module.
func (d *Device) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.PipelineID, error) {
	spirv, err := ensureSPIRV(desc.Code)
	if err != nil {
		return gpucore.InvalidID, err
	}

	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: desc.Label,
		Source: hal.ShaderSource{
			SPIRV: spirv,
		},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: failed to create shader module: %w", err)
	}

	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  desc.Label,
		Layout: d.pipeLayout,
		Compute: hal.ComputeState{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		d.device.DestroyShaderModule(module)
		return gpucore.InvalidID, fmt.Errorf("wgpu: failed to create pipeline: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := gpucore.PipelineID(d.nextID)
	d.pipelines[id] = pipelineEntry{pipeline: pipeline, module: module}
	hotsort.Logger().Debug("wgpu: pipeline created", "label", desc.Label, "id", uint64(id))
	return id, nil
}

// DestroyPipeline releases a pipeline and its shader module.
func (d *Device) DestroyPipeline(id gpucore.PipelineID) error {
	d.mu.Lock()
	entry, ok := d.pipelines[id]
	if ok {
		delete(d.pipelines, id)
	}
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("wgpu: unknown pipeline %d", id)
	}
	d.device.DestroyComputePipeline(entry.pipeline)
	d.device.DestroyShaderModule(entry.module)
	return nil
}

// Close destroys any remaining pipelines and the shared layouts.
// The HAL device and queue stay owned by the caller.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, entry := range d.pipelines {
		d.device.DestroyComputePipeline(entry.pipeline)
		d.device.DestroyShaderModule(entry.module)
		delete(d.pipelines, id)
	}
	if d.pipeLayout != nil {
		d.device.DestroyPipelineLayout(d.pipeLayout)
		d.pipeLayout = nil
	}
	if d.bindLayout != nil {
		d.device.DestroyBindGroupLayout(d.bindLayout)
		d.bindLayout = nil
	}
}
