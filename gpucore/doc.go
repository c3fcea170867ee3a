// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpucore defines the backend-agnostic GPU abstractions used by
// hotsort.
//
// The sort core never talks to a GPU API directly. It compiles its program
// modules through a [Device] and records dispatch commands through a
// [ComputeEncoder]. Concrete implementations live under backend/:
//
//   - backend/native: a pure Go device that executes the recorded commands
//     on the CPU, used as the reference implementation and for tests.
//   - backend/wgpu: a device backed by gogpu/wgpu's HAL.
//
// All resource handles are opaque uint64 IDs, never pointers. This keeps
// the core free of backend types and makes accidental cross-backend use a
// visible bug instead of a silent one.
package gpucore
