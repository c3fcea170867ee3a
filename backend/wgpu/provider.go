// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
)

// halProvider is the optional surface of a gpucontext.DeviceProvider that
// exposes the underlying HAL handles. Providers backed by wgpu implement
// it; providers for other APIs do not, and cannot share a device with
// this backend.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// NewDeviceFromProvider builds a sorting Device on a device shared by the
// host application instead of a dedicated bring-up. The provider must
// expose HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue values.
func NewDeviceFromProvider(p gpucontext.DeviceProvider) (*Device, error) {
	if p == nil {
		return nil, fmt.Errorf("wgpu: nil device provider")
	}
	hp, ok := p.(halProvider)
	if !ok {
		return nil, fmt.Errorf("wgpu: device provider %T does not expose HAL handles", p)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("wgpu: device provider returned no HAL device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("wgpu: device provider returned no HAL queue")
	}
	return NewDevice(device, queue)
}
