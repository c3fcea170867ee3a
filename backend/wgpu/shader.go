// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/naga"
)

// spirvMagic is the first word of every SPIR-V binary.
const spirvMagic = 0x07230203

// PackWGSL packs WGSL source text into module words for a target
// descriptor. The bytes are stored little-endian, NUL-padded to a word
// boundary, so descriptors stay a flat uint32 stream regardless of the
// shading language they carry.
func PackWGSL(src string) []uint32 {
	b := []byte(src)
	words := make([]uint32, (len(b)+3)/4)
	for i, c := range b {
		words[i/4] |= uint32(c) << (8 * (i % 4))
	}
	return words
}

// unpackWGSL is the inverse of PackWGSL.
func unpackWGSL(words []uint32) string {
	b := make([]byte, 0, len(words)*4)
	for _, w := range words {
		b = append(b, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return string(b)
}

// ensureSPIRV returns SPIR-V words for a target module: SPIR-V binaries
// pass through untouched, WGSL text is compiled with naga.
func ensureSPIRV(code []uint32) ([]uint32, error) {
	if len(code) == 0 {
		return nil, fmt.Errorf("wgpu: empty program module")
	}
	if code[0] == spirvMagic {
		return code, nil
	}

	spirvBytes, err := naga.Compile(unpackWGSL(code))
	if err != nil {
		return nil, fmt.Errorf("wgpu: failed to compile shader: %w", err)
	}

	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirv, nil
}
