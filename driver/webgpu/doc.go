// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package webgpu implements driver.Device and driver.View on top of the
// wgpu HAL.
//
// Shaders are WGSL. Each program stage is compiled to SPIR-V with naga once
// per feature set; the compiler sees a prefix of module constants ahead of
// the stage source:
//
//	const FEATURES_LO: u32 = ...;  // low 32 feature bits
//	const FEATURES_HI: u32 = ...;  // high 32 feature bits
//	const ALPHA_FUNC: u32 = ...;   // gputypes.CompareFunction, 0 when disabled
//	const ALPHA_REF: f32 = ...;
//
// Every program uses a single bind group:
//
//	@group(0) @binding(0..2)  uniform buffers: global, pass, instance
//	@group(0) @binding(3..5)  textures for samplers 0..2
//	@group(0) @binding(6..8)  samplers for samplers 0..2
//
// Unbound slots are filled with a zeroed uniform buffer and a 1x1 white
// texture. Vertex attributes use fixed locations: position 0, color 1,
// normal 2, uv0 3, uv1 4.
//
// A device renders into an offscreen color and depth target sized by
// Config unless SetOutputView installs an external view. ReadPixels reads
// the offscreen target back to host memory.
//
// Importing this package registers the "webgpu" driver, which opens a
// standalone Vulkan device. Build with the nogpu tag to leave it out.
package webgpu
