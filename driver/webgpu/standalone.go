// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rvm/internal/rlog"
)

// OpenBackend creates a device on a new HAL device of the registered
// backend variant. Discrete and integrated GPUs are preferred over other
// adapters. Close releases the HAL device.
func OpenBackend(variant gputypes.Backend, cfg Config) (*Device, error) {
	backend, ok := hal.GetBackend(variant)
	if !ok {
		return nil, fmt.Errorf("webgpu: %v backend not available", variant)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("webgpu: no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("webgpu: open device: %w", err)
	}
	release := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}

	d, err := New(openDev.Device, openDev.Queue, cfg)
	if err != nil {
		release()
		return nil, err
	}
	d.release = release
	rlog.Logger().Info("webgpu: GPU initialized (standalone)", "adapter", selected.Info.Name)
	return d, nil
}
