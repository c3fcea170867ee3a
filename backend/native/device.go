// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/hotsort/gpucore"
)

// buffer is a CPU-resident key-value buffer.
type buffer struct {
	label string
	words []uint32
}

// Device is a pure Go gpucore.Device. It holds decoded kernel pipelines
// and CPU-resident buffers; encoders created from it execute recorded
// command streams at Submit.
//
// Device is safe for concurrent use.
type Device struct {
	mu        sync.Mutex
	nextID    uint64
	pipelines map[gpucore.PipelineID]kernelDesc
	buffers   map[gpucore.BufferID]*buffer
}

// NewDevice creates an empty native device.
func NewDevice() *Device {
	return &Device{
		pipelines: make(map[gpucore.PipelineID]kernelDesc),
		buffers:   make(map[gpucore.BufferID]*buffer),
	}
}

// SupportsCompute reports true: the native device always executes.
func (d *Device) SupportsCompute() bool { return true }

// SubgroupSizeControl reports false: native kernels have no subgroups.
func (d *Device) SubgroupSizeControl() bool { return false }

// CreateComputePipeline decodes a native kernel descriptor module.
// The pipeline layout is ignored; native kernels bind their buffers
// through the encoder.
func (d *Device) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.PipelineID, error) {
	kd, err := decodeKernel(desc.Code)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("%w (%s)", err, desc.Label)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := gpucore.PipelineID(d.nextID)
	d.pipelines[id] = kd
	return id, nil
}

// DestroyPipeline releases a pipeline.
func (d *Device) DestroyPipeline(id gpucore.PipelineID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pipelines[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPipeline, id)
	}
	delete(d.pipelines, id)
	return nil
}

// PipelineCount returns the number of live pipelines.
func (d *Device) PipelineCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pipelines)
}

// CreateBuffer allocates a zeroed buffer of the given size in 32-bit
// words.
func (d *Device) CreateBuffer(label string, words uint32) gpucore.BufferID {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := gpucore.BufferID(d.nextID)
	d.buffers[id] = &buffer{label: label, words: make([]uint32, words)}
	return id
}

// DestroyBuffer releases a buffer.
func (d *Device) DestroyBuffer(id gpucore.BufferID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.buffers[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
	}
	delete(d.buffers, id)
	return nil
}

// WriteBuffer copies data into a buffer at a word offset.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint32, data []uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
	}
	if int(offset)+len(data) > len(b.words) {
		return fmt.Errorf("native: write of %d words at %d exceeds %q (%d words)",
			len(data), offset, b.label, len(b.words))
	}
	copy(b.words[offset:], data)
	return nil
}

// ReadBuffer returns a copy of a buffer's contents.
func (d *Device) ReadBuffer(id gpucore.BufferID) ([]uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
	}
	out := make([]uint32, len(b.words))
	copy(out, b.words)
	return out, nil
}

// lookup returns the pipeline and buffers an executing dispatch needs.
func (d *Device) lookup(pipeline gpucore.PipelineID, in, out gpucore.BufferID) (kernelDesc, *buffer, *buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	kd, ok := d.pipelines[pipeline]
	if !ok {
		return kd, nil, nil, fmt.Errorf("%w: %d", ErrUnknownPipeline, pipeline)
	}
	bin, ok := d.buffers[in]
	if !ok {
		return kd, nil, nil, fmt.Errorf("%w: %d", ErrUnknownBuffer, in)
	}
	bout, ok := d.buffers[out]
	if !ok {
		return kd, nil, nil, fmt.Errorf("%w: %d", ErrUnknownBuffer, out)
	}
	return kd, bin, bout, nil
}
