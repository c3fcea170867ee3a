// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"

	"github.com/gogpu/hotsort/gpucore"
)

// binding pairs a bound buffer with its write-tracking bitmaps, at 32-bit
// word granularity. pending marks words written by dispatches since the
// last barrier; current marks writes of the dispatch now executing.
type binding struct {
	buf     *buffer
	pending []bool
	current []bool
}

func newBinding(buf *buffer) *binding {
	return &binding{
		buf:     buf,
		pending: make([]bool, len(buf.words)),
		current: make([]bool, len(buf.words)),
	}
}

// commit folds the executing dispatch's writes into pending.
func (b *binding) commit() {
	for i, c := range b.current {
		if c {
			b.pending[i] = true
			b.current[i] = false
		}
	}
}

// barrier clears the write tracking: everything before the barrier is
// now visible.
func (b *binding) barrier() {
	clear(b.pending)
}

// executor runs one encoder's command stream on the CPU.
//
// When the input and output buffer IDs are equal the encoder is in-place
// and both bindings are the same object.
type executor struct {
	dev    *Device
	inID   gpucore.BufferID
	outID  gpucore.BufferID
	bin    *binding
	bout   *binding
	inited bool
}

func newExecutor(dev *Device, in, out gpucore.BufferID) *executor {
	return &executor{dev: dev, inID: in, outID: out}
}

// run executes a single recorded command.
func (x *executor) run(cmd *Command) error {
	if cmd.Kind == CommandBarrier {
		if x.inited {
			x.bin.barrier()
			if x.bout != x.bin {
				x.bout.barrier()
			}
		}
		return nil
	}

	if cmd.Pipeline == gpucore.InvalidID {
		return ErrNoPipeline
	}
	desc, bufIn, bufOut, err := x.dev.lookup(cmd.Pipeline, x.inID, x.outID)
	if err != nil {
		return err
	}
	if !x.inited {
		x.bin = newBinding(bufIn)
		if x.outID == x.inID {
			x.bout = x.bin
		} else {
			x.bout = newBinding(bufOut)
		}
		x.inited = true
	}

	io := kernelIO{x: x, d: desc, pc: cmd.Constants}
	switch desc.kind {
	case KernelFill:
		io.runFill(cmd)
	case KernelBlockSort:
		io.runBlockSort(cmd)
	case KernelFlipMerge:
		io.runFlipMerge(cmd)
	case KernelHalfMerge:
		io.runHalfMerge(cmd)
	case KernelBlockClean:
		io.runBlockClean(cmd)
	case KernelTranspose:
		io.runTranspose(cmd)
	}
	if io.err != nil {
		return io.err
	}

	x.bin.commit()
	if x.bout != x.bin {
		x.bout.commit()
	}
	return nil
}

// kvPair is a decoded key-value pair. Keys compare as unsigned integers
// regardless of dword count.
type kvPair struct {
	key uint64
	val uint64
}

// kernelIO gives an executing kernel bounds-checked, hazard-checked
// access to the bound buffers. Indices are in key-value units and include
// the push-constant offsets. Accesses outside the buffer behave as a
// max-valued sentinel region: loads return the sentinel, stores are
// dropped. That mirrors the padded power-of-two geometry the GPU programs
// assume without requiring callers to allocate it.
type kernelIO struct {
	x   *executor
	d   kernelDesc
	pc  gpucore.PushConstants
	err error
}

// sentinel returns the max-valued key-value pair for this key width.
func (io *kernelIO) sentinel() kvPair {
	if io.d.keyDwords == 1 {
		return kvPair{key: 0xFFFFFFFF, val: ^uint64(0)}
	}
	return kvPair{key: ^uint64(0), val: ^uint64(0)}
}

// hazardCheck flags any touched word written by an earlier dispatch with
// no barrier in between. A dispatch's own writes are exempt.
func (io *kernelIO) hazardCheck(b *binding, base, n uint64) {
	if io.err != nil {
		return
	}
	for w := base; w < base+n; w++ {
		if b.pending[w] && !b.current[w] {
			io.err = fmt.Errorf("%w: %s kernel touches word %d written before the last barrier",
				ErrHazard, io.d.kind, w)
			return
		}
	}
}

// load reads the key-value pair at idx from b.
func (io *kernelIO) load(b *binding, idx uint32) kvPair {
	kvw := uint64(io.d.kvDwords())
	base := uint64(idx) * kvw
	if base+kvw > uint64(len(b.buf.words)) {
		return io.sentinel()
	}
	io.hazardCheck(b, base, kvw)

	w := b.buf.words
	var p kvPair
	p.key = uint64(w[base])
	if io.d.keyDwords == 2 {
		p.key |= uint64(w[base+1]) << 32
	}
	vb := base + uint64(io.d.keyDwords)
	if io.d.valDwords >= 1 {
		p.val = uint64(w[vb])
	}
	if io.d.valDwords == 2 {
		p.val |= uint64(w[vb+1]) << 32
	}
	return p
}

// store writes the key-value pair at idx into b. Stores into the virtual
// sentinel region beyond the buffer are dropped.
func (io *kernelIO) store(b *binding, idx uint32, p kvPair) {
	kvw := uint64(io.d.kvDwords())
	base := uint64(idx) * kvw
	if base+kvw > uint64(len(b.buf.words)) {
		return
	}
	io.hazardCheck(b, base, kvw)

	w := b.buf.words
	w[base] = uint32(p.key)
	if io.d.keyDwords == 2 {
		w[base+1] = uint32(p.key >> 32)
	}
	vb := base + uint64(io.d.keyDwords)
	if io.d.valDwords >= 1 {
		w[vb] = uint32(p.val)
	}
	if io.d.valDwords == 2 {
		w[vb+1] = uint32(p.val >> 32)
	}
	for i := base; i < base+kvw; i++ {
		b.current[i] = true
	}
}
