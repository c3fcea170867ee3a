// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package targets

import (
	"math/bits"

	"github.com/gogpu/hotsort"
	"github.com/gogpu/hotsort/backend/native"
)

// nativeConfig is the common geometry of the built-in native targets:
// 32-key slabs (4 rows by 8 columns) and 8-slab blocks, merging at scale
// 1. Block sizes are powers of two so the fractional block-sort dispatch
// always lands on a power-of-two boundary.
func nativeConfig(keyDwords, valDwords uint32) hotsort.Config {
	return hotsort.Config{
		InPlace: true,
		Slab: hotsort.Slab{
			ThreadsLog2: 5,
			WidthLog2:   3,
			Height:      4,
		},
		Dwords: hotsort.Dwords{Key: keyDwords, Val: valDwords},
		Block:  hotsort.Block{Slabs: 8},
		Merge: hotsort.Merge{
			FM: hotsort.ScaleRange{Min: 1, Max: 1},
			HM: hotsort.ScaleRange{Min: 1, Max: 1},
		},
	}
}

// Native32 returns a target sorting single-dword keys on backend/native.
func Native32() *hotsort.Target {
	cfg := nativeConfig(1, 0)
	return &hotsort.Target{Config: cfg, Modules: nativeModules(cfg)}
}

// Native32Val returns a target sorting single-dword keys with one
// attached value dword on backend/native.
func Native32Val() *hotsort.Target {
	cfg := nativeConfig(1, 1)
	return &hotsort.Target{Config: cfg, Modules: nativeModules(cfg)}
}

// Native64 returns a target sorting two-dword keys on backend/native.
func Native64() *hotsort.Target {
	cfg := nativeConfig(2, 0)
	return &hotsort.Target{Config: cfg, Modules: nativeModules(cfg)}
}

// nativeModules builds the length-prefixed module stream for a native
// target, in the fixed group order bs, bc, fm[0..2], hm[0..2], fill_in,
// fill_out, transpose.
func nativeModules(cfg hotsort.Config) []uint32 {
	bsRu := ceilLog2(cfg.Block.Slabs)
	bcMax := uint32(bits.Len32(cfg.Block.Slabs)) - 1

	var stream []uint32
	add := func(kind native.KernelKind, p0, p1 uint32) {
		words := native.EncodeKernel(kind,
			cfg.Slab.WidthLog2, cfg.Slab.Height, cfg.Block.Slabs,
			cfg.Dwords.Key, cfg.Dwords.Val, p0, p1)
		stream = append(stream, uint32(len(words)))
		stream = append(stream, words...)
	}

	for k := uint32(0); k <= bsRu; k++ {
		add(native.KernelBlockSort, k, 0)
	}
	for k := uint32(0); k <= bcMax; k++ {
		add(native.KernelBlockClean, k, 0)
	}
	for s := cfg.Merge.FM.Min; s <= cfg.Merge.FM.Max; s++ {
		count := ceilLog2((cfg.Block.Slabs/2)<<s) + 1
		for v := uint32(0); v < count; v++ {
			add(native.KernelFlipMerge, s, v)
		}
	}
	for s := cfg.Merge.HM.Min; s <= cfg.Merge.HM.Max; s++ {
		add(native.KernelHalfMerge, s, 0)
	}
	add(native.KernelFill, 0, 0)
	add(native.KernelFill, 1, 0)
	add(native.KernelTranspose, 0, 0)
	return stream
}

func ceilLog2(v uint32) uint32 {
	if v <= 1 {
		return 0
	}
	return uint32(bits.Len32(v - 1))
}
