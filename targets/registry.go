// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package targets

import (
	"strings"

	"github.com/gogpu/hotsort"
)

// Well-known PCI vendor IDs.
const (
	// VendorSoftware selects the built-in native targets.
	VendorSoftware uint32 = 0

	VendorAMD    uint32 = 0x1002
	VendorNVIDIA uint32 = 0x10DE
	VendorIntel  uint32 = 0x8086
)

// targetKey matches a target to a device and key width.
type targetKey struct {
	vendor    uint32
	keyDwords uint32
}

// registry holds the built-in targets. GPU vendor entries are registered
// by the packages that embed their binary descriptors; the software
// entries are always present.
var registry = map[targetKey]func() *hotsort.Target{
	{VendorSoftware, 1}: Native32,
	{VendorSoftware, 2}: Native64,
}

// Register adds or replaces the target for a (vendor, key width) pair.
// It is intended to be called from init functions of packages shipping
// vendor-specific binary descriptors.
func Register(vendor, keyDwords uint32, build func() *hotsort.Target) {
	registry[targetKey{vendor, keyDwords}] = build
}

// Find returns the target matched to a device vendor and key width, or
// false when none is registered. Callers with no vendor match should fall
// back to VendorSoftware and backend/native.
func Find(vendor, keyDwords uint32) (*hotsort.Target, bool) {
	build, ok := registry[targetKey{vendor, keyDwords}]
	if !ok {
		return nil, false
	}
	return build(), true
}

// VendorFromName maps an adapter vendor string, as reported by adapter
// info, to a PCI vendor ID. Unknown vendors map to VendorSoftware.
func VendorFromName(name string) uint32 {
	switch n := strings.ToLower(name); {
	case strings.Contains(n, "nvidia"):
		return VendorNVIDIA
	case strings.Contains(n, "amd"), strings.Contains(n, "ati"):
		return VendorAMD
	case strings.Contains(n, "intel"):
		return VendorIntel
	default:
		return VendorSoftware
	}
}
