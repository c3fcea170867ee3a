// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

// Device compiles and destroys compute pipelines. Implementations must be
// safe for concurrent use.
type Device interface {
	// SupportsCompute reports whether the device can run compute work at
	// all. Pipeline creation on a device without compute support fails.
	SupportsCompute() bool

	// SubgroupSizeControl reports whether the device honors
	// ComputePipelineDesc.SubgroupSizeLog2.
	SubgroupSizeControl() bool

	// CreateComputePipeline compiles one program module into a pipeline.
	CreateComputePipeline(desc *ComputePipelineDesc) (PipelineID, error)

	// DestroyPipeline releases a pipeline created by this device.
	DestroyPipeline(id PipelineID) error
}

// ComputeEncoder records compute commands into a caller-owned command
// stream. Commands execute on the GPU in recording order except that
// dispatches between two barriers may run concurrently; a Barrier is
// required between any dispatch that writes key-value data and a later
// dispatch that reads it.
//
// An encoder is owned by a single goroutine for the duration of recording.
// None of the methods return errors: recording is an allocation-light hot
// path and every failure mode at this level is a caller bug surfaced by
// the backend at submit time.
type ComputeEncoder interface {
	// SetPipeline binds the pipeline used by subsequent dispatches.
	SetPipeline(id PipelineID)

	// PushConstants sets the parameter block visible to subsequent
	// dispatches.
	PushConstants(pc PushConstants)

	// Dispatch records a workgroup grid launch.
	Dispatch(x, y, z uint32)

	// DispatchBase records a grid launch whose workgroup IDs start at the
	// given base instead of zero.
	DispatchBase(baseX, baseY, baseZ, x, y, z uint32)

	// Barrier records a compute-to-compute memory barrier ordering all
	// prior dispatches before all later ones.
	Barrier()
}
