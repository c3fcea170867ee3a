// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import "errors"

var (
	// ErrInvalidModule indicates a program module that is not a native
	// kernel descriptor.
	ErrInvalidModule = errors.New("native: invalid kernel module")

	// ErrUnknownPipeline indicates a pipeline ID not created by this
	// device (or already destroyed).
	ErrUnknownPipeline = errors.New("native: unknown pipeline")

	// ErrUnknownBuffer indicates a buffer ID not created by this device.
	ErrUnknownBuffer = errors.New("native: unknown buffer")

	// ErrNoPipeline indicates a dispatch recorded before any SetPipeline.
	ErrNoPipeline = errors.New("native: dispatch without a bound pipeline")

	// ErrEncoderConsumed indicates reuse of an encoder after Submit.
	ErrEncoderConsumed = errors.New("native: encoder already submitted")

	// ErrHazard indicates a dispatch that touched data written by an
	// earlier dispatch with no barrier in between.
	ErrHazard = errors.New("native: unsynchronized buffer access")
)
