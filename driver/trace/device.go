// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package trace

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/resource"
	"github.com/gogpu/rvm/state"
)

// Device is a driver.Device and driver.View that records its calls.
type Device struct {
	calls      []Call
	failures   map[string]error
	stateCalls bool

	width, height uint32
	inFrame       bool
	frames        int

	live [resource.TotalTypes]map[resource.ID]struct{}
}

var (
	_ driver.Device = (*Device)(nil)
	_ driver.View   = (*Device)(nil)
)

// New creates a trace device.
func New(opts ...Option) *Device {
	d := &Device{
		failures:   make(map[string]error),
		stateCalls: true,
		width:      640,
		height:     480,
	}
	for i := range d.live {
		d.live[i] = make(map[resource.ID]struct{})
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Live reports whether a resource of type t named id exists.
func (d *Device) Live(t resource.Type, id resource.ID) bool {
	_, ok := d.live[t][id]
	return ok
}

func (d *Device) create(t resource.Type, id resource.ID) error {
	if id == resource.Invalid {
		return fmt.Errorf("trace: create %s: %w: invalid identifier", t, driver.ErrUnknownResource)
	}
	if d.Live(t, id) {
		return fmt.Errorf("trace: create %s %d: %w", t, id, driver.ErrResourceExists)
	}
	d.live[t][id] = struct{}{}
	return nil
}

func (d *Device) require(t resource.Type, id resource.ID) error {
	if !d.Live(t, id) {
		return fmt.Errorf("trace: %s %d: %w", t, id, driver.ErrUnknownResource)
	}
	return nil
}

func (d *Device) CreateInputLayout(id resource.ID, format driver.VertexFormat) error {
	if err := d.record("CreateInputLayout", id, format); err != nil {
		return err
	}
	if !format.IsValid() {
		return fmt.Errorf("trace: %w: %d", driver.ErrInvalidVertexFormat, format)
	}
	return d.create(resource.TypeInputLayout, id)
}

func (d *Device) CreateVertexBuffer(id resource.ID, data []byte) error {
	if err := d.record("CreateVertexBuffer", id, len(data)); err != nil {
		return err
	}
	return d.create(resource.TypeVertexBuffer, id)
}

func (d *Device) CreateIndexBuffer(id resource.ID, data []byte) error {
	if err := d.record("CreateIndexBuffer", id, len(data)); err != nil {
		return err
	}
	if len(data)%2 != 0 {
		return fmt.Errorf("trace: index buffer %d: %w: %d bytes is not a whole number of uint16 indices",
			id, driver.ErrDataSize, len(data))
	}
	return d.create(resource.TypeIndexBuffer, id)
}

func (d *Device) CreateConstantBuffer(id resource.ID, data []byte, layout []driver.UniformElement) error {
	if err := d.record("CreateConstantBuffer", id, len(data)); err != nil {
		return err
	}
	if need := driver.UniformLayoutSize(layout); uint32(len(data)) < need {
		return fmt.Errorf("trace: constant buffer %d: %w: %d bytes, layout needs %d",
			id, driver.ErrDataSize, len(data), need)
	}
	return d.create(resource.TypeConstantBuffer, id)
}

func (d *Device) CreateTexture(id resource.ID, desc driver.TextureDescriptor, data []byte) error {
	if err := d.record("CreateTexture", id, desc.Width, desc.Height, desc.Format); err != nil {
		return err
	}
	if data != nil {
		want, err := driver.TextureDataSize(desc)
		if err != nil {
			return fmt.Errorf("trace: texture %d: %w", id, err)
		}
		if len(data) != want {
			return fmt.Errorf("trace: texture %d: %w: %d bytes, want %d", id, driver.ErrDataSize, len(data), want)
		}
	}
	return d.create(resource.TypeTexture, id)
}

func (d *Device) CreateProgram(id resource.ID, desc driver.ProgramDescriptor) error {
	if err := d.record("CreateProgram", id, desc.Name); err != nil {
		return err
	}
	return d.create(resource.TypeProgram, id)
}

func (d *Device) CreateRenderTarget(id resource.ID, desc driver.RenderTargetDescriptor) error {
	if err := d.record("CreateRenderTarget", id, desc.Width, desc.Height, desc.Format); err != nil {
		return err
	}
	return d.create(resource.TypeRenderTarget, id)
}

func (d *Device) UploadVertexBuffer(id resource.ID, data []byte) error {
	if err := d.record("UploadVertexBuffer", id, len(data)); err != nil {
		return err
	}
	return d.require(resource.TypeVertexBuffer, id)
}

func (d *Device) UploadConstantBuffer(id resource.ID, data []byte) error {
	if err := d.record("UploadConstantBuffer", id, len(data)); err != nil {
		return err
	}
	return d.require(resource.TypeConstantBuffer, id)
}

func (d *Device) Delete(t resource.Type, id resource.ID) error {
	if err := d.record("Delete", t, id); err != nil {
		return err
	}
	if err := d.require(t, id); err != nil {
		return err
	}
	delete(d.live[t], id)
	return nil
}

func (d *Device) SetRenderTarget(id resource.ID) error {
	if err := d.record("SetRenderTarget", id); err != nil {
		return err
	}
	if id == resource.Invalid {
		return nil
	}
	return d.require(resource.TypeRenderTarget, id)
}

func (d *Device) SetViewport(viewport state.Rect) {
	d.recordState("SetViewport", viewport.X, viewport.Y, viewport.Width, viewport.Height)
}

// SetVertexBuffer is always recorded.
func (d *Device) SetVertexBuffer(id resource.ID) { d.record("SetVertexBuffer", id) }

// SetIndexBuffer is always recorded.
func (d *Device) SetIndexBuffer(id resource.ID) { d.record("SetIndexBuffer", id) }

func (d *Device) SetInputLayout(id resource.ID) { d.recordState("SetInputLayout", id) }

func (d *Device) SetConstantBuffer(typ state.ConstantBufferType, id resource.ID) {
	d.recordState("SetConstantBuffer", typ, id)
}

func (d *Device) SetProgram(id resource.ID, features state.Features) {
	d.recordState("SetProgram", id, features)
}

func (d *Device) SetTexture(sampler state.Sampler, id resource.ID) {
	d.recordState("SetTexture", sampler, id)
}

func (d *Device) SetRenderedTexture(sampler state.Sampler, id resource.ID) {
	d.recordState("SetRenderedTexture", sampler, id)
}

func (d *Device) SetBlendFactors(src, dst gputypes.BlendFactor) {
	d.recordState("SetBlendFactors", src, dst)
}

func (d *Device) SetDepthTest(write bool, compare gputypes.CompareFunction) {
	d.recordState("SetDepthTest", write, compare)
}

func (d *Device) SetAlphaTest(compare gputypes.CompareFunction, ref float32) {
	d.recordState("SetAlphaTest", compare, ref)
}

func (d *Device) SetCulling(mode gputypes.CullMode) { d.recordState("SetCulling", mode) }

func (d *Device) SetColorMask(mask gputypes.ColorWriteMask) { d.recordState("SetColorMask", mask) }

func (d *Device) Clear(color gputypes.Color, depth float32, stencil uint32, mask driver.ClearMask) error {
	return d.record("Clear", color, depth, stencil, mask)
}

func (d *Device) RenderPrimitives(prim gputypes.PrimitiveTopology, first, count uint32) error {
	return d.record("RenderPrimitives", prim, first, count)
}

func (d *Device) RenderIndexed(prim gputypes.PrimitiveTopology, indexBuffer resource.ID, first, count uint32) error {
	if err := d.record("RenderIndexed", prim, indexBuffer, first, count); err != nil {
		return err
	}
	return d.require(resource.TypeIndexBuffer, indexBuffer)
}

// BeginFrame starts a frame. Nested frames are an error.
func (d *Device) BeginFrame() error {
	if err := d.record("BeginFrame"); err != nil {
		return err
	}
	if d.inFrame {
		return fmt.Errorf("trace: BeginFrame inside a frame")
	}
	d.inFrame = true
	return nil
}

// EndFrame finishes the frame started by BeginFrame.
func (d *Device) EndFrame(wait bool) error {
	if err := d.record("EndFrame", wait); err != nil {
		return err
	}
	if !d.inFrame {
		return fmt.Errorf("trace: EndFrame: %w", driver.ErrNotInFrame)
	}
	d.inFrame = false
	d.frames++
	return nil
}

// Size returns the configured view size.
func (d *Device) Size() (width, height uint32) { return d.width, d.height }
