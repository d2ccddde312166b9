// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package native holds HAL helpers shared by the GPU drivers.
package native

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// CompileShaderToSPIRV compiles WGSL source to SPIR-V words.
func CompileShaderToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("failed to compile shader: SPIR-V size %d is not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return spirvCode, nil
}

// CreateShaderModule compiles wgslSource and creates a HAL shader module
// from the result.
func CreateShaderModule(device hal.Device, label, wgslSource string) (hal.ShaderModule, error) {
	spirvCode, err := CompileShaderToSPIRV(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: label,
		Source: hal.ShaderSource{
			SPIRV: spirvCode,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: create shader module: %w", label, err)
	}
	return module, nil
}
