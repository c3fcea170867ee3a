// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import "fmt"

// KernelKind identifies one of the native sort kernels.
type KernelKind uint32

const (
	// KernelFill writes max-valued sentinel keys at every position at or
	// beyond the key count within the dispatched slab range. Param0
	// selects the buffer: 0 input, 1 output.
	KernelFill KernelKind = iota

	// KernelBlockSort sorts windows of 2^param0 slabs, reading linear
	// input and writing slab-major output.
	KernelBlockSort

	// KernelFlipMerge merges two sorted arms of a span by a mirrored
	// compare-exchange around the span center and cleans both arms down
	// to the cleanup granularity. Param0 is the merge scale, param1 the
	// variant (log2 of the right arm in cleanup-span units).
	KernelFlipMerge

	// KernelHalfMerge applies param0 half-clean levels to each dispatched
	// bitonic span.
	KernelHalfMerge

	// KernelBlockClean fully sorts each bitonic span of 2^param0 slabs.
	KernelBlockClean

	// KernelTranspose rewrites each slab from slab-major rank order to
	// linear key order.
	KernelTranspose

	kernelKindCount
)

var kernelKindNames = [kernelKindCount]string{
	"fill", "block_sort", "flip_merge", "half_merge", "block_clean", "transpose",
}

// String returns the kernel kind name.
func (k KernelKind) String() string {
	if k >= kernelKindCount {
		return "unknown"
	}
	return kernelKindNames[k]
}

// kernelMagic marks a module word stream as a native kernel descriptor.
const kernelMagic = 0x4B4E5348 // "HSNK"

// kernelWords is the fixed descriptor length in 32-bit words.
const kernelWords = 9

// kernelDesc is the decoded form of a native kernel module.
type kernelDesc struct {
	kind       KernelKind
	widthLog2  uint32
	height     uint32
	blockSlabs uint32
	keyDwords  uint32
	valDwords  uint32
	param0     uint32
	param1     uint32
}

// slabKeys returns the keys per slab for this kernel's geometry.
func (d *kernelDesc) slabKeys() uint32 { return d.height << d.widthLog2 }

// kvDwords returns the 32-bit words per key-value pair.
func (d *kernelDesc) kvDwords() uint32 { return d.keyDwords + d.valDwords }

// EncodeKernel builds the module words for one native kernel. Targets for
// the native device store these words, length-prefixed, in their module
// stream; the native device decodes them in CreateComputePipeline.
func EncodeKernel(kind KernelKind, widthLog2, height, blockSlabs, keyDwords, valDwords, param0, param1 uint32) []uint32 {
	return []uint32{
		kernelMagic,
		uint32(kind),
		widthLog2,
		height,
		blockSlabs,
		keyDwords,
		valDwords,
		param0,
		param1,
	}
}

// decodeKernel parses and checks a kernel descriptor.
func decodeKernel(code []uint32) (kernelDesc, error) {
	var d kernelDesc
	if len(code) != kernelWords || code[0] != kernelMagic {
		return d, fmt.Errorf("%w: %d words", ErrInvalidModule, len(code))
	}
	d = kernelDesc{
		kind:       KernelKind(code[1]),
		widthLog2:  code[2],
		height:     code[3],
		blockSlabs: code[4],
		keyDwords:  code[5],
		valDwords:  code[6],
		param0:     code[7],
		param1:     code[8],
	}
	if d.kind >= kernelKindCount {
		return d, fmt.Errorf("%w: kind %d", ErrInvalidModule, code[1])
	}
	if d.height == 0 || d.blockSlabs == 0 {
		return d, fmt.Errorf("%w: empty geometry", ErrInvalidModule)
	}
	if d.keyDwords == 0 || d.keyDwords > 2 || d.valDwords > 2 {
		return d, fmt.Errorf("%w: key/value dwords %d/%d", ErrInvalidModule, d.keyDwords, d.valDwords)
	}
	return d, nil
}
