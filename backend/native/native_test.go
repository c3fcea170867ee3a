// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"errors"
	"testing"

	"github.com/gogpu/hotsort/gpucore"
)

// testKernel encodes a kernel with the default native geometry: 32-key
// slabs (4 rows by 8 columns), 8-slab blocks, bare single-dword keys.
func testKernel(kind KernelKind, p0, p1 uint32) []uint32 {
	return EncodeKernel(kind, 3, 4, 8, 1, 0, p0, p1)
}

func mustPipeline(t *testing.T, dev *Device, code []uint32) gpucore.PipelineID {
	t.Helper()
	id, err := dev.CreateComputePipeline(&gpucore.ComputePipelineDesc{Label: "test", Code: code})
	if err != nil {
		t.Fatalf("CreateComputePipeline: %v", err)
	}
	return id
}

func TestKernelCodec(t *testing.T) {
	code := EncodeKernel(KernelFlipMerge, 3, 4, 8, 2, 1, 1, 3)
	d, err := decodeKernel(code)
	if err != nil {
		t.Fatalf("decodeKernel: %v", err)
	}
	if d.kind != KernelFlipMerge || d.param0 != 1 || d.param1 != 3 {
		t.Fatalf("decoded %+v", d)
	}
	if d.slabKeys() != 32 || d.kvDwords() != 3 {
		t.Fatalf("slabKeys %d kvDwords %d", d.slabKeys(), d.kvDwords())
	}
}

func TestCreatePipelineRejects(t *testing.T) {
	tests := []struct {
		name string
		code []uint32
	}{
		{"empty", nil},
		{"short", []uint32{kernelMagic, 0}},
		{"bad magic", func() []uint32 {
			c := testKernel(KernelFill, 0, 0)
			c[0] = 0
			return c
		}()},
		{"bad kind", EncodeKernel(kernelKindCount, 3, 4, 8, 1, 0, 0, 0)},
		{"zero height", EncodeKernel(KernelFill, 3, 0, 8, 1, 0, 0, 0)},
		{"zero block", EncodeKernel(KernelFill, 3, 4, 0, 1, 0, 0, 0)},
		{"zero key dwords", EncodeKernel(KernelFill, 3, 4, 8, 0, 0, 0, 0)},
		{"wide value", EncodeKernel(KernelFill, 3, 4, 8, 1, 3, 0, 0)},
	}
	dev := NewDevice()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dev.CreateComputePipeline(&gpucore.ComputePipelineDesc{Code: tt.code})
			if !errors.Is(err, ErrInvalidModule) {
				t.Fatalf("CreateComputePipeline = %v, want ErrInvalidModule", err)
			}
		})
	}
}

func TestDeviceLifecycles(t *testing.T) {
	dev := NewDevice()

	id := mustPipeline(t, dev, testKernel(KernelFill, 0, 0))
	if dev.PipelineCount() != 1 {
		t.Fatalf("PipelineCount = %d", dev.PipelineCount())
	}
	if err := dev.DestroyPipeline(id); err != nil {
		t.Fatalf("DestroyPipeline: %v", err)
	}
	if err := dev.DestroyPipeline(id); !errors.Is(err, ErrUnknownPipeline) {
		t.Fatalf("double destroy = %v, want ErrUnknownPipeline", err)
	}

	buf := dev.CreateBuffer("b", 8)
	if err := dev.WriteBuffer(buf, 4, []uint32{1, 2, 3, 4}); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	if err := dev.WriteBuffer(buf, 6, []uint32{0, 0, 0}); err == nil {
		t.Fatal("out-of-bounds write succeeded")
	}
	data, err := dev.ReadBuffer(buf)
	if err != nil || len(data) != 8 || data[4] != 1 {
		t.Fatalf("ReadBuffer = %v, %v", data, err)
	}
	if err := dev.DestroyBuffer(buf); err != nil {
		t.Fatalf("DestroyBuffer: %v", err)
	}
	if _, err := dev.ReadBuffer(buf); !errors.Is(err, ErrUnknownBuffer) {
		t.Fatalf("read after destroy = %v, want ErrUnknownBuffer", err)
	}
}

func TestEncoderSingleUse(t *testing.T) {
	dev := NewDevice()
	buf := dev.CreateBuffer("kv", 32)
	enc := NewEncoder(dev, buf, buf)
	if err := enc.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := enc.Submit(); !errors.Is(err, ErrEncoderConsumed) {
		t.Fatalf("second Submit = %v, want ErrEncoderConsumed", err)
	}
}

func TestDispatchWithoutPipeline(t *testing.T) {
	dev := NewDevice()
	buf := dev.CreateBuffer("kv", 32)
	enc := NewEncoder(dev, buf, buf)
	enc.Dispatch(1, 1, 1)
	if err := enc.Submit(); !errors.Is(err, ErrNoPipeline) {
		t.Fatalf("Submit = %v, want ErrNoPipeline", err)
	}
}

func TestHazardDetection(t *testing.T) {
	record := func(withBarrier bool) *Encoder {
		dev := NewDevice()
		fill := mustPipeline(t, dev, testKernel(KernelFill, 0, 0))
		bs := mustPipeline(t, dev, testKernel(KernelBlockSort, 1, 0))
		buf := dev.CreateBuffer("kv", 64)

		enc := NewEncoder(dev, buf, buf)
		enc.PushConstants(gpucore.PushConstants{Count: 0})
		enc.SetPipeline(fill)
		enc.Dispatch(2, 1, 1)
		if withBarrier {
			enc.Barrier()
		}
		enc.SetPipeline(bs)
		enc.Dispatch(1, 1, 1)
		return enc
	}

	if err := record(false).Submit(); !errors.Is(err, ErrHazard) {
		t.Fatalf("unsynchronized read-after-write = %v, want ErrHazard", err)
	}
	if err := record(true).Submit(); err != nil {
		t.Fatalf("Submit with barrier: %v", err)
	}
}

func TestFillWritesSentinels(t *testing.T) {
	dev := NewDevice()
	fill := mustPipeline(t, dev, testKernel(KernelFill, 0, 0))
	buf := dev.CreateBuffer("kv", 64)

	enc := NewEncoder(dev, buf, buf)
	enc.PushConstants(gpucore.PushConstants{Count: 40})
	enc.SetPipeline(fill)
	enc.DispatchBase(1, 0, 0, 1, 1, 1) // slab 1 only
	if err := enc.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	data, err := dev.ReadBuffer(buf)
	if err != nil {
		t.Fatalf("ReadBuffer: %v", err)
	}
	for i, w := range data {
		want := uint32(0)
		if i >= 40 {
			want = 0xFFFFFFFF
		}
		if w != want {
			t.Fatalf("word %d = %#x, want %#x", i, w, want)
		}
	}
}
