// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"github.com/gogpu/hotsort/gpucore"
)

// CommandKind discriminates recorded commands.
type CommandKind uint8

const (
	// CommandDispatch is a workgroup grid launch.
	CommandDispatch CommandKind = iota

	// CommandBarrier is a compute-to-compute memory barrier.
	CommandBarrier
)

// Command is one recorded encoder command. Dispatch commands carry a
// snapshot of the pipeline and push constants bound at recording time.
type Command struct {
	Kind      CommandKind
	Pipeline  gpucore.PipelineID
	Constants gpucore.PushConstants
	Base      [3]uint32
	Grid      [3]uint32
}

// encoderState tracks the encoder lifecycle.
//
// State machine:
//
//	Recording -> (Submit) -> Consumed
type encoderState uint8

const (
	stateRecording encoderState = iota
	stateConsumed
)

// Encoder records compute commands against a pair of bound buffers and
// executes them on Submit. It implements gpucore.ComputeEncoder.
//
// An encoder is single-use and owned by one goroutine.
type Encoder struct {
	dev *Device
	in  gpucore.BufferID
	out gpucore.BufferID

	pipeline  gpucore.PipelineID
	constants gpucore.PushConstants
	cmds      []Command
	state     encoderState
}

// NewEncoder creates an encoder with the input and output key-value
// buffers bound. For in-place sorts pass the same buffer twice.
func NewEncoder(dev *Device, in, out gpucore.BufferID) *Encoder {
	return &Encoder{dev: dev, in: in, out: out}
}

// SetPipeline binds the pipeline used by subsequent dispatches.
func (e *Encoder) SetPipeline(id gpucore.PipelineID) {
	e.pipeline = id
}

// PushConstants sets the parameter block for subsequent dispatches.
func (e *Encoder) PushConstants(pc gpucore.PushConstants) {
	e.constants = pc
}

// Dispatch records a grid launch with workgroup IDs starting at zero.
func (e *Encoder) Dispatch(x, y, z uint32) {
	e.DispatchBase(0, 0, 0, x, y, z)
}

// DispatchBase records a grid launch with the given base workgroup ID.
func (e *Encoder) DispatchBase(baseX, baseY, baseZ, x, y, z uint32) {
	e.cmds = append(e.cmds, Command{
		Kind:      CommandDispatch,
		Pipeline:  e.pipeline,
		Constants: e.constants,
		Base:      [3]uint32{baseX, baseY, baseZ},
		Grid:      [3]uint32{x, y, z},
	})
}

// Barrier records a compute-to-compute memory barrier.
func (e *Encoder) Barrier() {
	e.cmds = append(e.cmds, Command{Kind: CommandBarrier})
}

// Commands returns a copy of the recorded command stream, for inspection
// in tests and diagnostics.
func (e *Encoder) Commands() []Command {
	out := make([]Command, len(e.cmds))
	copy(out, e.cmds)
	return out
}

// Submit executes the recorded commands in order and consumes the
// encoder. Dispatches between two barriers are checked for unsynchronized
// access to data written since the last barrier; a violation fails with
// ErrHazard, mirroring what would be a GPU memory race.
func (e *Encoder) Submit() error {
	if e.state != stateRecording {
		return ErrEncoderConsumed
	}
	e.state = stateConsumed

	x := newExecutor(e.dev, e.in, e.out)
	for i := range e.cmds {
		if err := x.run(&e.cmds[i]); err != nil {
			return err
		}
	}
	return nil
}
