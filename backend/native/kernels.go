// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"math/bits"
	"sort"
)

// The kernels operate on the same geometry the GPU programs do. A slab
// holds height rows by 1<<widthLog2 columns; rank q of a slab lives at
// physical position (q % height) * width + q / height within the slab.
// Merge kernels address keys by logical rank, so a region whose slabs are
// individually in slab-major order reads as one ascending sequence when
// every slab holds its ranks in order.

// phys maps a logical rank within the sorted region to its physical
// key-value index.
func (io *kernelIO) phys(l uint32) uint32 {
	k := io.d.slabKeys()
	slab := l / k
	q := l % k
	return slab*k + (q%io.d.height)<<io.d.widthLog2 + q/io.d.height
}

// loadRank and storeRank access the merge region (the output buffer) by
// logical rank.
func (io *kernelIO) loadRank(l uint32) kvPair {
	return io.load(io.x.bout, io.pc.OffsetOut+io.phys(l))
}

func (io *kernelIO) storeRank(l uint32, p kvPair) {
	io.store(io.x.bout, io.pc.OffsetOut+io.phys(l), p)
}

// ce compare-exchanges the keys at logical ranks a and b so that the
// smaller key ends up at a.
func (io *kernelIO) ce(a, b uint32) {
	va := io.loadRank(a)
	vb := io.loadRank(b)
	if vb.key < va.key {
		io.storeRank(a, vb)
		io.storeRank(b, va)
	}
}

// cleanSpan applies successive half-clean levels to the bitonic span of
// size keys starting at start, halving the bitonic granularity each level
// until it reaches toSize keys. With toSize == 1 the span ends fully
// sorted.
func (io *kernelIO) cleanSpan(start, size, toSize uint32) {
	for ln := size; ln > toSize; ln >>= 1 {
		half := ln >> 1
		for sub := start; sub < start+size; sub += ln {
			for i := uint32(0); i < half; i++ {
				io.ce(sub+i, sub+i+half)
			}
		}
	}
}

// runFill writes sentinels at every position at or beyond the key count
// within the dispatched slab range. Fill targets linear physical
// positions: the pre-sort input is linear, and the merge region padding
// it writes is constant, so layout does not matter there.
func (io *kernelIO) runFill(cmd *Command) {
	k := io.d.slabKeys()
	b, off := io.x.bin, io.pc.OffsetIn
	if io.d.param0 == 1 {
		b, off = io.x.bout, io.pc.OffsetOut
	}
	sent := io.sentinel()
	for g := uint32(0); g < cmd.Grid[0]; g++ {
		slab := cmd.Base[0] + g
		for p := slab * k; p < (slab+1)*k; p++ {
			if p >= io.pc.Count {
				io.store(b, off+p, sent)
			}
		}
	}
}

// runBlockSort sorts each dispatched window of 2^param0 slabs: keys are
// read from the linear input region and written back in slab-major rank
// order. The full-block variant runs one window per workgroup; the
// fractional variant is dispatched with a base offset in window units.
func (io *kernelIO) runBlockSort(cmd *Command) {
	winLog2 := io.d.param0
	k := io.d.slabKeys()
	n := (uint32(1) << winLog2) * k

	kvs := make([]kvPair, n)
	for g := uint32(0); g < cmd.Grid[0]; g++ {
		winSlab := (cmd.Base[0] + g) << winLog2
		for i := uint32(0); i < n; i++ {
			kvs[i] = io.load(io.x.bin, io.pc.OffsetIn+winSlab*k+i)
		}
		sort.Slice(kvs, func(a, b int) bool { return kvs[a].key < kvs[b].key })
		for r := uint32(0); r < n; r++ {
			io.storeRank(winSlab*k+r, kvs[r])
		}
	}
}

// runFlipMerge merges the two sorted arms of each dispatched span. The
// span geometry is recovered from the dispatch: the grid x dimension is
// height << clean, the kernel's scale gives up = clean + scale, and the
// variant gives the right arm extent. The mirrored compare-exchange
// around the span center is exactly the sentinel-padded full flip, after
// which both arms are bitonic and are cleaned down to the cleanup
// granularity.
func (io *kernelIO) runFlipMerge(cmd *Command) {
	clean := uint32(bits.Len32(cmd.Grid[0]/io.d.height)) - 1
	scale := io.d.param0
	up := clean + scale

	k := io.d.slabKeys()
	fullSpan := io.d.blockSlabs << up
	half := fullSpan >> 1
	right := (uint32(1) << io.d.param1) << clean
	cleanKeys := (uint32(1) << clean) * k

	for zi := uint32(0); zi < cmd.Grid[2]; zi++ {
		z := cmd.Base[2] + zi
		spanStart := z * fullSpan
		center := (spanStart + half) * k
		for j := uint32(0); j < right*k; j++ {
			io.ce(center-1-j, center+j)
		}
		io.cleanSpan(spanStart*k, half*k, cleanKeys)
		io.cleanSpan((spanStart+half)*k, half*k, cleanKeys)
	}
}

// runHalfMerge applies the kernel's scale worth of half-clean levels to
// each dispatched bitonic span, shrinking the granularity from
// 1<<(newClean+scale) slabs to 1<<newClean slabs.
func (io *kernelIO) runHalfMerge(cmd *Command) {
	newClean := uint32(bits.Len32(cmd.Grid[0]/io.d.height)) - 1
	pre := newClean + io.d.param0

	k := io.d.slabKeys()
	spanKeys := (uint32(1) << pre) * k
	toKeys := (uint32(1) << newClean) * k

	for zi := uint32(0); zi < cmd.Grid[2]; zi++ {
		start := (cmd.Base[2] + zi) * spanKeys
		io.cleanSpan(start, spanKeys, toKeys)
	}
}

// runBlockClean fully sorts each dispatched bitonic span of 2^param0
// slabs.
func (io *kernelIO) runBlockClean(cmd *Command) {
	spanKeys := (uint32(1) << io.d.param0) * io.d.slabKeys()
	for xi := uint32(0); xi < cmd.Grid[0]; xi++ {
		start := (cmd.Base[0] + xi) * spanKeys
		io.cleanSpan(start, spanKeys, 1)
	}
}

// runTranspose rewrites each dispatched slab from slab-major rank order
// to linear key order. The permutation is within a single slab, so the
// kernel buffers one slab and writes it back.
func (io *kernelIO) runTranspose(cmd *Command) {
	k := io.d.slabKeys()
	tmp := make([]kvPair, k)
	for g := uint32(0); g < cmd.Grid[0]; g++ {
		slab := cmd.Base[0] + g
		for i := uint32(0); i < k; i++ {
			tmp[i] = io.loadRank(slab*k + i)
		}
		for i := uint32(0); i < k; i++ {
			io.store(io.x.bout, io.pc.OffsetOut+slab*k+i, tmp[i])
		}
	}
}
