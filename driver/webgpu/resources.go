// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/resource"
)

// uniformAlign is the size granularity of uniform buffers.
const uniformAlign = 16

// zeroUniformSize is the size of the buffer bound to empty constant slots.
const zeroUniformSize = 256

const (
	samplerNearest = iota
	samplerLinear
	samplerMipLinear
	// samplerClamp samples render targets.
	samplerClamp

	samplerCount
)

func alignUp(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}

func (d *Device) createBuffer(label string, data []byte, align uint64, usage gputypes.BufferUsage) (*buffer, error) {
	size := alignUp(max(uint64(len(data)), 4), 4)
	if align > 0 {
		size = alignUp(size, align)
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create %s: %w", label, err)
	}
	if len(data) > 0 {
		if err := d.writeBuffer(buf, data); err != nil {
			d.device.DestroyBuffer(buf)
			return nil, fmt.Errorf("webgpu: write %s: %w", label, err)
		}
	}
	return &buffer{buf: buf, size: size}, nil
}

// writeBuffer writes data at offset 0, padding it to a multiple of four
// bytes.
func (d *Device) writeBuffer(buf hal.Buffer, data []byte) error {
	if rem := len(data) % 4; rem != 0 {
		padded := make([]byte, len(data)+4-rem)
		copy(padded, data)
		data = padded
	}
	return d.queue.WriteBuffer(buf, 0, data)
}

// destroyBuffer removes buffer id from m and buries it.
func (d *Device) destroyBuffer(m map[resource.ID]*buffer, id resource.ID) {
	b, ok := m[id]
	if !ok {
		return
	}
	delete(m, id)
	if d.frame.vertexBuffer == b.buf || d.frame.indexBuffer == b.buf {
		d.frame.vertexBuffer, d.frame.indexBuffer = nil, nil
	}
	// Bind groups may reference the buffer.
	d.bindGroups.Purge()
	d.bury(func() { d.device.DestroyBuffer(b.buf) })
}

func (d *Device) createTexture(label string, desc driver.TextureDescriptor, data []byte) (*texture, error) {
	bpp, err := driver.BytesPerPixel(desc.Format)
	if err != nil {
		return nil, fmt.Errorf("webgpu: %s: %w", label, err)
	}
	mips := max(desc.MipLevels, 1)
	layers := uint32(1)
	viewDim := gputypes.TextureViewDimension2D
	if desc.Type == driver.TextureCube {
		layers = 6
		viewDim = gputypes.TextureViewDimensionCube
	}

	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: layers},
		MipLevelCount: mips,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create %s: %w", label, err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           label + "-view",
		Format:          desc.Format,
		Dimension:       viewDim,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   mips,
		ArrayLayerCount: layers,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, fmt.Errorf("webgpu: create %s view: %w", label, err)
	}
	t := &texture{
		tex:     tex,
		view:    view,
		cube:    desc.Type == driver.TextureCube,
		sampler: samplerIndex(desc.Filter),
	}
	if data == nil {
		return t, nil
	}

	// Faces are stored one after another, each a full mip chain.
	offset := 0
	for face := range layers {
		w, h := desc.Width, desc.Height
		for level := range mips {
			n := int(w * h * bpp)
			err := d.queue.WriteTexture(
				&hal.ImageCopyTexture{
					Texture:  tex,
					MipLevel: level,
					Origin:   hal.Origin3D{Z: face},
					Aspect:   gputypes.TextureAspectAll,
				},
				data[offset:offset+n],
				&hal.ImageDataLayout{BytesPerRow: w * bpp, RowsPerImage: h},
				&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
			)
			if err != nil {
				d.destroyTexture(t)
				return nil, fmt.Errorf("webgpu: upload %s face %d level %d: %w", label, face, level, err)
			}
			offset += n
			w, h = max(w/2, 1), max(h/2, 1)
		}
	}
	return t, nil
}

func samplerIndex(f driver.TextureFilter) int {
	switch f {
	case driver.FilterNearest:
		return samplerNearest
	case driver.FilterMipLinear:
		return samplerMipLinear
	}
	return samplerLinear
}

func (d *Device) destroyTexture(t *texture) {
	view, tex := t.view, t.tex
	d.bury(func() {
		d.device.DestroyTextureView(view)
		d.device.DestroyTexture(tex)
	})
}

// createTarget allocates the color and depth attachments of rt.
func (d *Device) createTarget(rt *renderTarget, label string, width, height uint32, format gputypes.TextureFormat) error {
	*rt = renderTarget{width: width, height: height, format: format}
	size := hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}

	var err error
	rt.color, err = d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label + "-color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage: gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding |
			gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("webgpu: create %s color: %w", label, err)
	}
	rt.colorView, err = d.device.CreateTextureView(rt.color, &hal.TextureViewDescriptor{
		Label:         label + "-color-view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.destroyTarget(rt)
		return fmt.Errorf("webgpu: create %s color view: %w", label, err)
	}
	rt.depth, err = d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label + "-depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		d.destroyTarget(rt)
		return fmt.Errorf("webgpu: create %s depth: %w", label, err)
	}
	rt.depthView, err = d.device.CreateTextureView(rt.depth, &hal.TextureViewDescriptor{
		Label:         label + "-depth-view",
		Format:        DepthFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.destroyTarget(rt)
		return fmt.Errorf("webgpu: create %s depth view: %w", label, err)
	}
	return nil
}

func (d *Device) destroyTarget(rt *renderTarget) {
	colorView, color, depthView, depth := rt.colorView, rt.color, rt.depthView, rt.depth
	*rt = renderTarget{}
	d.bury(func() {
		if colorView != nil {
			d.device.DestroyTextureView(colorView)
		}
		if color != nil {
			d.device.DestroyTexture(color)
		}
		if depthView != nil {
			d.device.DestroyTextureView(depthView)
		}
		if depth != nil {
			d.device.DestroyTexture(depth)
		}
	})
}

// createDefaults creates the samplers and the placeholders bound to empty
// slots.
func (d *Device) createDefaults() error {
	descs := [samplerCount]hal.SamplerDescriptor{
		samplerNearest: {
			Label:        "rvm-sampler-nearest",
			AddressModeU: gputypes.AddressModeRepeat,
			AddressModeV: gputypes.AddressModeRepeat,
			AddressModeW: gputypes.AddressModeRepeat,
			MagFilter:    gputypes.FilterModeNearest,
			MinFilter:    gputypes.FilterModeNearest,
			MipmapFilter: gputypes.FilterModeNearest,
		},
		samplerLinear: {
			Label:        "rvm-sampler-linear",
			AddressModeU: gputypes.AddressModeRepeat,
			AddressModeV: gputypes.AddressModeRepeat,
			AddressModeW: gputypes.AddressModeRepeat,
			MagFilter:    gputypes.FilterModeLinear,
			MinFilter:    gputypes.FilterModeLinear,
			MipmapFilter: gputypes.FilterModeNearest,
		},
		samplerMipLinear: {
			Label:        "rvm-sampler-mip-linear",
			AddressModeU: gputypes.AddressModeRepeat,
			AddressModeV: gputypes.AddressModeRepeat,
			AddressModeW: gputypes.AddressModeRepeat,
			MagFilter:    gputypes.FilterModeLinear,
			MinFilter:    gputypes.FilterModeLinear,
			MipmapFilter: gputypes.FilterModeLinear,
			LodMaxClamp:  32,
		},
		samplerClamp: {
			Label:        "rvm-sampler-clamp",
			AddressModeU: gputypes.AddressModeClampToEdge,
			AddressModeV: gputypes.AddressModeClampToEdge,
			AddressModeW: gputypes.AddressModeClampToEdge,
			MagFilter:    gputypes.FilterModeLinear,
			MinFilter:    gputypes.FilterModeLinear,
			MipmapFilter: gputypes.FilterModeNearest,
		},
	}
	for i := range descs {
		s, err := d.device.CreateSampler(&descs[i])
		if err != nil {
			return fmt.Errorf("webgpu: create %s: %w", descs[i].Label, err)
		}
		d.samplers[i] = s
	}

	white, err := d.createTexture("rvm-white", driver.TextureDescriptor{
		Width:  1,
		Height: 1,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Filter: driver.FilterNearest,
	}, []byte{0xff, 0xff, 0xff, 0xff})
	if err != nil {
		return err
	}
	d.white = white

	zero, err := d.createBuffer("rvm-zero-constants", make([]byte, zeroUniformSize), uniformAlign,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	d.zeroUniform = zero.buf
	return nil
}

func (d *Device) destroyDefaults() {
	for i, s := range d.samplers {
		if s != nil {
			d.device.DestroySampler(s)
			d.samplers[i] = nil
		}
	}
	if d.white != nil {
		d.device.DestroyTextureView(d.white.view)
		d.device.DestroyTexture(d.white.tex)
		d.white = nil
	}
	if d.zeroUniform != nil {
		d.device.DestroyBuffer(d.zeroUniform)
		d.zeroUniform = nil
	}
	for i, l := range d.layouts {
		if l != nil {
			d.device.DestroyPipelineLayout(l.pipeline)
			d.device.DestroyBindGroupLayout(l.group)
			d.layouts[i] = nil
		}
	}
}
