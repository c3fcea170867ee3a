// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements hotsort's gpucore interfaces on gogpu/wgpu's
// hardware abstraction layer.
//
// The device compiles target program modules into HAL compute pipelines:
// SPIR-V modules are passed through, WGSL modules are translated with
// gogpu/naga first. The encoder records the sort command stream and
// replays it into a caller-owned compute pass; push constants and
// dispatch bases, which WebGPU lacks, are emulated through a per-dispatch
// parameter slot in a uniform buffer bound at a dynamic offset.
//
// Device and queue acquisition follows the gogpu conventions: either
// bring up a dedicated Backend, or share the host application's device
// through a gpucontext.DeviceProvider.
package wgpu
