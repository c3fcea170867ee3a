// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
	types "github.com/gogpu/gputypes"

	"github.com/gogpu/hotsort"
)

// ErrNoGPU is returned when no usable GPU adapter is available.
var ErrNoGPU = errors.New("wgpu: no GPU adapter available")

// Backend owns a dedicated GPU bring-up: instance, adapter, device, and
// queue. Applications already holding a device should use
// NewDeviceFromProvider instead of creating a second one.
type Backend struct {
	mu sync.RWMutex

	instance *core.Instance
	adapter  core.AdapterID
	device   core.DeviceID
	queue    core.QueueID

	initialized bool
}

// NewBackend creates an uninitialized backend. Call Init before use.
func NewBackend() *Backend {
	return &Backend{}
}

// Init creates the GPU resources: instance, adapter (preferring the high
// performance GPU), device, and queue.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}

	b.instance = core.NewInstance(&gputypes.InstanceDescriptor{
		Backends: gputypes.BackendsPrimary,
		Flags:    0,
	})

	adapterID, err := b.instance.RequestAdapter(&gputypes.RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoGPU, err)
	}
	b.adapter = adapterID

	if info, ierr := core.GetAdapterInfo(adapterID); ierr == nil {
		hotsort.Logger().Info("wgpu: adapter selected",
			"name", info.Name, "backend", info.Backend)
	}

	deviceID, err := core.RequestDevice(adapterID, &types.DeviceDescriptor{
		Label:            "hotsort-device",
		RequiredFeatures: nil,
		RequiredLimits:   types.DefaultLimits(),
	})
	if err != nil {
		return fmt.Errorf("wgpu: device creation failed: %w", err)
	}
	b.device = deviceID

	queueID, err := core.GetDeviceQueue(deviceID)
	if err != nil {
		_ = core.DeviceDrop(deviceID)
		return fmt.Errorf("wgpu: queue retrieval failed: %w", err)
	}
	b.queue = queueID

	b.initialized = true
	return nil
}

// Device returns the core device ID. Valid only after Init.
func (b *Backend) Device() core.DeviceID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.device
}

// Queue returns the core queue ID. Valid only after Init.
func (b *Backend) Queue() core.QueueID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.queue
}

// AdapterVendor returns the adapter's vendor string, for target matching
// through targets.VendorFromName. Valid only after Init.
func (b *Backend) AdapterVendor() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.initialized {
		return "", ErrNoGPU
	}
	info, err := core.GetAdapterInfo(b.adapter)
	if err != nil {
		return "", fmt.Errorf("wgpu: failed to get adapter info: %w", err)
	}
	return info.Vendor, nil
}

// Close releases the backend's GPU resources in reverse creation order.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return
	}
	// The queue is released with its device.
	if err := core.DeviceDrop(b.device); err != nil {
		hotsort.Logger().Warn("wgpu: device release failed", "error", err)
	}
	if err := core.AdapterDrop(b.adapter); err != nil {
		hotsort.Logger().Warn("wgpu: adapter release failed", "error", err)
	}
	b.instance = nil
	b.initialized = false
}
