// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rvm/driver"
)

// copyRowAlign is the row pitch alignment of texture to buffer copies.
const copyRowAlign = 256

// ReadPixels copies the offscreen output into an RGBA image. It must be
// called between frames and waits for the GPU.
func (d *Device) ReadPixels() (*image.RGBA, error) {
	if d.closed {
		return nil, errors.New("webgpu: read pixels: device closed")
	}
	if d.frame.encoder != nil {
		return nil, errors.New("webgpu: read pixels: frame in progress")
	}
	rt := &d.output
	format := rt.format
	if format != gputypes.TextureFormatRGBA8Unorm && format != gputypes.TextureFormatBGRA8Unorm {
		return nil, fmt.Errorf("webgpu: read pixels: %w: %v", driver.ErrUnsupportedFormat, format)
	}

	width, height := rt.width, rt.height
	rowBytes := width * 4
	pitch := uint32(alignUp(uint64(rowBytes), copyRowAlign))
	size := uint64(pitch) * uint64(height)

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "rvm-readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create readback buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "rvm-readback"})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create readback encoder: %w", err)
	}
	defer encoder.Destroy()
	if err := encoder.BeginEncoding("rvm-readback"); err != nil {
		return nil, fmt.Errorf("webgpu: begin readback encoding: %w", err)
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: rt.color,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(rt.color, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{BytesPerRow: pitch, RowsPerImage: height},
		TextureBase:  hal.ImageCopyTexture{Texture: rt.color, Aspect: gputypes.TextureAspectAll},
		Size:         hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: rt.color,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	cmd, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("webgpu: end readback encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmd)

	index, err := d.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		return nil, fmt.Errorf("webgpu: submit readback: %w", err)
	}
	d.submitted = index
	if err := d.waitFor(index); err != nil {
		return nil, err
	}

	mapping, err := d.device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("webgpu: map readback buffer: %w", err)
	}
	src := unsafe.Slice((*byte)(mapping.Ptr), size)
	img := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	for y := range height {
		row := src[uint64(y)*uint64(pitch):][:rowBytes]
		dst := img.Pix[y*uint32(img.Stride):][:rowBytes]
		copy(dst, row)
		if format == gputypes.TextureFormatBGRA8Unorm {
			for i := 0; i < len(dst); i += 4 {
				dst[i], dst[i+2] = dst[i+2], dst[i]
			}
		}
	}
	if err := d.device.UnmapBuffer(staging); err != nil {
		return nil, fmt.Errorf("webgpu: unmap readback buffer: %w", err)
	}
	return img, nil
}
