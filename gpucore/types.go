// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

// PipelineID is an opaque handle to a compiled compute pipeline.
// The zero value is never a valid handle.
type PipelineID uint64

// PipelineLayoutID is an opaque handle to a pipeline layout. The layout is
// created and owned by the caller; hotsort only references it when
// compiling pipelines. The zero value means "backend default layout" for
// backends that do not distinguish layouts (backend/native).
type PipelineLayoutID uint64

// BufferID is an opaque handle to a GPU buffer holding key-value data.
// The zero value is never a valid handle.
type BufferID uint64

// InvalidID is the zero resource handle.
const InvalidID = 0

// PushConstants is the 12-byte parameter block made visible to every sort
// program. Offsets are in key-value units, not bytes.
type PushConstants struct {
	// OffsetIn is the offset of the input key-value array.
	OffsetIn uint32

	// OffsetOut is the offset of the output key-value array.
	OffsetOut uint32

	// Count is the number of valid keys. Positions at or beyond Count hold
	// max-valued sentinel keys.
	Count uint32
}

// ComputePipelineDesc describes one compute pipeline to compile.
type ComputePipelineDesc struct {
	// Label is a debug name for the pipeline.
	Label string

	// Layout is the caller-owned pipeline layout the pipeline binds to.
	Layout PipelineLayoutID

	// Code holds the program module words exactly as stored in the target
	// descriptor. Backends interpret the words themselves: SPIR-V binaries
	// carry the standard 0x07230203 magic, backend/native uses its own
	// kernel descriptor encoding.
	Code []uint32

	// SubgroupSizeLog2 requests an explicit subgroup size when nonzero.
	// Only honored by devices reporting SubgroupSizeControl.
	SubgroupSizeLog2 uint32
}
