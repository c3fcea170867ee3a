// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package targets provides built-in hotsort target descriptors and a
// vendor lookup table.
//
// The native targets run on backend/native and double as the reference
// targets for tests and benchmarks. GPU targets are matched to a device
// by vendor ID and key width through Find; they are precompiled per
// (vendor, architecture, key width) and ship as binary descriptors
// decodable with hotsort.DecodeBinary.
package targets
