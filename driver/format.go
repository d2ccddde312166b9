// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
)

// BytesPerPixel returns the storage size of one texel of format.
func BytesPerPixel(format gputypes.TextureFormat) (uint32, error) {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return 1, nil
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm,
		gputypes.TextureFormatR32Float, gputypes.TextureFormatDepth24PlusStencil8:
		return 4, nil
	case gputypes.TextureFormatRGBA32Float:
		return 16, nil
	}
	return 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
}

// MipLevelCount returns the number of levels of a full mip chain for a
// width x height texture.
func MipLevelCount(width, height uint32) uint32 {
	levels := uint32(1)
	for width > 1 || height > 1 {
		width = max(width/2, 1)
		height = max(height/2, 1)
		levels++
	}
	return levels
}

// BytesPerMipChain returns the size of mips levels of a width x height
// texture of format, each level half the size of the previous one.
func BytesPerMipChain(format gputypes.TextureFormat, width, height, mips uint32) (int, error) {
	bpp, err := BytesPerPixel(format)
	if err != nil {
		return 0, err
	}
	mips = max(mips, 1)
	total := 0
	for range mips {
		total += int(width) * int(height) * int(bpp)
		width = max(width/2, 1)
		height = max(height/2, 1)
	}
	return total, nil
}

// TextureDataSize returns the number of bytes CreateTexture expects for desc.
// Cube maps store six faces, each a full mip chain.
func TextureDataSize(desc TextureDescriptor) (int, error) {
	size, err := BytesPerMipChain(desc.Format, desc.Width, desc.Height, desc.MipLevels)
	if err != nil {
		return 0, err
	}
	if desc.Type == TextureCube {
		size *= 6
	}
	return size, nil
}

var formatNames = map[string]gputypes.TextureFormat{
	"r8unorm":              gputypes.TextureFormatR8Unorm,
	"rgba8unorm":           gputypes.TextureFormatRGBA8Unorm,
	"bgra8unorm":           gputypes.TextureFormatBGRA8Unorm,
	"r32float":             gputypes.TextureFormatR32Float,
	"rgba32float":          gputypes.TextureFormatRGBA32Float,
	"depth24plus-stencil8": gputypes.TextureFormatDepth24PlusStencil8,
}

// ParseTextureFormat parses a WebGPU texture format name such as
// "rgba8unorm". Only formats BytesPerPixel knows are accepted.
func ParseTextureFormat(name string) (gputypes.TextureFormat, error) {
	if f, ok := formatNames[strings.ToLower(name)]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}
