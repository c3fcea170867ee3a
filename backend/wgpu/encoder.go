// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/hotsort/gpucore"
)

// paramsSlotBytes is the stride of one per-dispatch parameter slot in the
// params uniform buffer: the 12-byte push-constant block, the 12-byte
// dispatch base, and padding to the required uniform offset alignment
// granule. WebGPU has neither push constants nor base workgroup IDs, so
// both ride in a uniform slot bound at a dynamic offset per dispatch.
const paramsSlotBytes = 32

// paramsSlot is one dispatch's parameter block.
type paramsSlot struct {
	constants gpucore.PushConstants
	base      [3]uint32
}

func (s *paramsSlot) encode(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:], s.constants.OffsetIn)
	binary.LittleEndian.PutUint32(dst[4:], s.constants.OffsetOut)
	binary.LittleEndian.PutUint32(dst[8:], s.constants.Count)
	binary.LittleEndian.PutUint32(dst[12:], s.base[0])
	binary.LittleEndian.PutUint32(dst[16:], s.base[1])
	binary.LittleEndian.PutUint32(dst[20:], s.base[2])
}

// dispatchOp is one recorded dispatch with its parameter slot index.
type dispatchOp struct {
	pipeline gpucore.PipelineID
	slot     uint32
	grid     [3]uint32
}

// PassRecorder receives the replayed command stream. The host implements
// it over its compute pass encoder. Barriers are not part of the
// interface: WebGPU orders storage writes between dispatches of one
// compute pass, so the recorded barriers are already satisfied.
type PassRecorder interface {
	// SetPipeline binds a compiled pipeline.
	SetPipeline(p hal.ComputePipeline)

	// SetParamsOffset rebinds the sort bind group with the params buffer
	// at the given dynamic byte offset.
	SetParamsOffset(offset uint32)

	// Dispatch launches a workgroup grid.
	Dispatch(x, y, z uint32)
}

// Encoder implements gpucore.ComputeEncoder by recording the sort
// command stream for later replay into a compute pass. Recording is
// allocation-light; nothing touches the GPU until Replay.
type Encoder struct {
	dev *Device

	pipeline  gpucore.PipelineID
	constants gpucore.PushConstants

	ops   []dispatchOp
	slots []paramsSlot
}

// NewEncoder creates an encoder recording against dev's pipelines.
func NewEncoder(dev *Device) *Encoder {
	return &Encoder{dev: dev}
}

// SetPipeline binds the pipeline used by subsequent dispatches.
func (e *Encoder) SetPipeline(id gpucore.PipelineID) { e.pipeline = id }

// PushConstants sets the parameter block for subsequent dispatches.
func (e *Encoder) PushConstants(pc gpucore.PushConstants) { e.constants = pc }

// Dispatch records a grid launch.
func (e *Encoder) Dispatch(x, y, z uint32) {
	e.DispatchBase(0, 0, 0, x, y, z)
}

// DispatchBase records a grid launch with a base workgroup ID. The base
// is delivered through the dispatch's parameter slot.
func (e *Encoder) DispatchBase(baseX, baseY, baseZ, x, y, z uint32) {
	slot := uint32(len(e.slots))
	e.slots = append(e.slots, paramsSlot{
		constants: e.constants,
		base:      [3]uint32{baseX, baseY, baseZ},
	})
	e.ops = append(e.ops, dispatchOp{
		pipeline: e.pipeline,
		slot:     slot,
		grid:     [3]uint32{x, y, z},
	})
}

// Barrier is a no-op at replay time; see PassRecorder.
func (e *Encoder) Barrier() {}

// ParamsData returns the packed parameter slots, one paramsSlotBytes
// stride per recorded dispatch, for upload into the params uniform
// buffer before the pass executes.
func (e *Encoder) ParamsData() []byte {
	data := make([]byte, len(e.slots)*paramsSlotBytes)
	for i := range e.slots {
		e.slots[i].encode(data[i*paramsSlotBytes:])
	}
	return data
}

// CreateParamsBuffer creates a uniform buffer sized for the recorded
// dispatches. The caller uploads ParamsData into it and binds it at
// binding 2 with the dynamic offsets Replay supplies.
func (e *Encoder) CreateParamsBuffer(label string) (hal.Buffer, error) {
	size := uint64(len(e.slots)) * paramsSlotBytes
	if size == 0 {
		size = paramsSlotBytes
	}
	buf, err := e.dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: failed to create params buffer: %w", err)
	}
	return buf, nil
}

// Replay feeds the recorded dispatches to a compute pass in order.
func (e *Encoder) Replay(pass PassRecorder) error {
	e.dev.mu.Lock()
	defer e.dev.mu.Unlock()

	for _, op := range e.ops {
		entry, ok := e.dev.pipelines[op.pipeline]
		if !ok {
			return fmt.Errorf("wgpu: replay of unknown pipeline %d", op.pipeline)
		}
		pass.SetPipeline(entry.pipeline)
		pass.SetParamsOffset(op.slot * paramsSlotBytes)
		pass.Dispatch(op.grid[0], op.grid[1], op.grid[2])
	}
	return nil
}

// DispatchCount returns the number of recorded dispatches.
func (e *Encoder) DispatchCount() int { return len(e.ops) }
