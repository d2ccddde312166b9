// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rvm

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/resource"
)

// RequestTexture2D creates a 2D texture. With FilterMipLinear data holds a
// full mip chain, largest level first; otherwise a single level. Nil data
// creates an uninitialised texture.
func (c *Context) RequestTexture2D(data []byte, width, height uint32, format gputypes.TextureFormat, filter driver.TextureFilter) (resource.ID, error) {
	mips := uint32(1)
	if filter == driver.FilterMipLinear {
		mips = driver.MipLevelCount(width, height)
	}
	return c.requestTexture(driver.TextureDescriptor{
		Type:      driver.Texture2D,
		Width:     width,
		Height:    height,
		MipLevels: mips,
		Format:    format,
		Filter:    filter,
	}, data)
}

// RequestTextureCube creates a cube map. data holds six faces in +X, -X,
// +Y, -Y, +Z, -Z order, each a chain of mips levels starting at size x size.
func (c *Context) RequestTextureCube(data []byte, size, mips uint32, format gputypes.TextureFormat, filter driver.TextureFilter) (resource.ID, error) {
	return c.requestTexture(driver.TextureDescriptor{
		Type:      driver.TextureCube,
		Width:     size,
		Height:    size,
		MipLevels: max(mips, 1),
		Format:    format,
		Filter:    filter,
	}, data)
}

// RequestTextureImage creates an RGBA8 texture from img. With
// FilterMipLinear the mip chain is generated by bilinear downscaling.
func (c *Context) RequestTextureImage(img image.Image, filter driver.TextureFilter) (resource.ID, error) {
	b := img.Bounds()
	if b.Empty() {
		return resource.Invalid, fmt.Errorf("%w: empty image", ErrInvalidData)
	}
	data := ImageData(img, filter == driver.FilterMipLinear)
	return c.RequestTexture2D(data, uint32(b.Dx()), uint32(b.Dy()), gputypes.TextureFormatRGBA8Unorm, filter)
}

// ImageData returns the RGBA8 pixels of img, followed by its downscaled mip
// levels when mips is set.
func ImageData(img image.Image, mips bool) []byte {
	b := img.Bounds()
	level := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(level, level.Bounds(), img, b.Min, xdraw.Src)
	if !mips {
		return level.Pix
	}

	w, h := b.Dx(), b.Dy()
	size, _ := driver.BytesPerMipChain(gputypes.TextureFormatRGBA8Unorm, uint32(w), uint32(h),
		driver.MipLevelCount(uint32(w), uint32(h)))
	data := make([]byte, 0, size)
	data = append(data, level.Pix...)
	for w > 1 || h > 1 {
		w, h = max(w/2, 1), max(h/2, 1)
		next := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.BiLinear.Scale(next, next.Bounds(), level, level.Bounds(), xdraw.Src, nil)
		data = append(data, next.Pix...)
		level = next
	}
	return data
}

func (c *Context) requestTexture(desc driver.TextureDescriptor, data []byte) (resource.ID, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return resource.Invalid, fmt.Errorf("%w: texture size %dx%d", ErrInvalidData, desc.Width, desc.Height)
	}
	want, err := driver.TextureDataSize(desc)
	if err != nil {
		return resource.Invalid, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	if data != nil && len(data) != want {
		return resource.Invalid, fmt.Errorf("%w: texture data has %d bytes, want %d", ErrInvalidData, len(data), want)
	}

	id := c.pools.Allocate(resource.TypeTexture)
	c.construction.CreateTexture(id, desc, data)
	return id, nil
}
