package hotsort

import "math/bits"

// ceilDiv returns ceil(n / d) for d > 0.
func ceilDiv(n, d uint32) uint32 {
	return uint32((uint64(n) + uint64(d) - 1) / uint64(d))
}

// floorLog2 returns floor(log2(v)) for v > 0.
func floorLog2(v uint32) uint32 {
	return uint32(bits.Len32(v)) - 1
}

// ceilLog2 returns ceil(log2(v)) for v > 0.
func ceilLog2(v uint32) uint32 {
	if v == 1 {
		return 0
	}
	return uint32(bits.Len32(v - 1))
}

// floorPow2 returns the largest power of two <= v, for v > 0.
func floorPow2(v uint32) uint32 {
	return 1 << floorLog2(v)
}

// ceilPow2 returns the smallest power of two >= v, for v > 0.
func ceilPow2(v uint32) uint32 {
	return 1 << ceilLog2(v)
}
