// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package webgpu

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rvm/driver"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

func init() {
	driver.Register("webgpu", func() (driver.Device, error) {
		return Open(DefaultConfig())
	})
}

// Open creates a device on a standalone Vulkan device.
func Open(cfg Config) (*Device, error) {
	return OpenBackend(gputypes.BackendVulkan, cfg)
}
