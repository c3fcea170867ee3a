// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package native implements hotsort's gpucore interfaces in pure Go.
//
// The native device compiles kernel descriptor modules (see EncodeKernel)
// instead of GPU binaries, and the native encoder executes the recorded
// command stream on the CPU at Submit. The kernels mirror the semantics of
// the GPU programs phase by phase: the block sort really block-sorts, the
// flip merge really flip-merges, and sentinel padding behaves exactly as
// it does on a device.
//
// Merge kernels treat positions beyond the end of a bound buffer as a
// virtual max-valued sentinel region: loads return the sentinel and
// stores are dropped. Key-value buffers must therefore end exactly at the
// padded bound computed by hotsort's padding calculator, the same
// allocation contract GPU targets impose.
//
// Submit also enforces the command stream's synchronization contract:
// any access to a key-value index written by an earlier dispatch without
// an intervening barrier fails with ErrHazard. A scheduler that omits a
// required barrier therefore fails loudly here instead of racing silently
// on a GPU.
package native
