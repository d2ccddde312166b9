// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/internal/rlog"
	"github.com/gogpu/rvm/resource"
	"github.com/gogpu/rvm/state"
)

type textureBinding struct {
	id       resource.ID
	rendered bool
}

// drawState is the pipeline state recorded by the setters.
type drawState struct {
	target   resource.ID
	viewport state.Rect

	vertexBuffer resource.ID
	indexBuffer  resource.ID
	inputLayout  resource.ID
	constants    [state.MaxConstantBuffers]resource.ID
	textures     [state.MaxTextureSamplers]textureBinding

	program  resource.ID
	features state.Features

	blendSrc, blendDst gputypes.BlendFactor
	depthWrite         bool
	depthCompare       gputypes.CompareFunction
	alphaCompare       gputypes.CompareFunction
	alphaRef           float32
	cull               gputypes.CullMode
	colorMask          gputypes.ColorWriteMask
}

func (d *Device) resetState() {
	d.st = drawState{
		blendSrc:     gputypes.BlendFactorOne,
		blendDst:     gputypes.BlendFactorZero,
		depthWrite:   true,
		depthCompare: gputypes.CompareFunctionLessEqual,
		cull:         gputypes.CullModeBack,
		colorMask:    gputypes.ColorWriteMaskAll,
	}
}

// frameState is the encoder of the frame being recorded and the render
// pass currently open on it.
type frameState struct {
	encoder hal.CommandEncoder
	pass    hal.RenderPassEncoder

	// Bindings already set on pass.
	pipeline     hal.RenderPipeline
	bindGroup    hal.BindGroup
	vertexBuffer hal.Buffer
	indexBuffer  hal.Buffer
	viewport     [4]float32

	passes, draws int
}

func (f *frameState) endPass() {
	if f.pass == nil {
		return
	}
	f.pass.End()
	f.pass = nil
	f.pipeline, f.bindGroup = nil, nil
	f.vertexBuffer, f.indexBuffer = nil, nil
}

// BeginFrame starts recording a frame and resets the pipeline state.
func (d *Device) BeginFrame() error {
	if d.closed {
		return errors.New("webgpu: begin frame: device closed")
	}
	if d.frame.encoder != nil {
		return errors.New("webgpu: begin frame: previous frame not ended")
	}
	d.collect()

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "rvm-frame"})
	if err != nil {
		return fmt.Errorf("webgpu: create frame encoder: %w", err)
	}
	if err := encoder.BeginEncoding("rvm-frame"); err != nil {
		encoder.Destroy()
		return fmt.Errorf("webgpu: begin frame encoding: %w", err)
	}
	d.frame = frameState{encoder: encoder}
	d.resetState()
	return nil
}

// EndFrame submits the recorded frame. When wait is true it blocks until
// the GPU has finished or Config.WaitTimeout elapses.
func (d *Device) EndFrame(wait bool) error {
	if d.frame.encoder == nil {
		return fmt.Errorf("webgpu: end frame: %w", driver.ErrNotInFrame)
	}
	d.frame.endPass()
	encoder := d.frame.encoder
	passes, draws := d.frame.passes, d.frame.draws
	d.frame = frameState{}

	cmd, err := encoder.EndEncoding()
	if err != nil {
		encoder.Destroy()
		return fmt.Errorf("webgpu: end frame encoding: %w", err)
	}
	index, err := d.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		d.device.FreeCommandBuffer(cmd)
		encoder.Destroy()
		return fmt.Errorf("webgpu: submit frame: %w", err)
	}
	d.submitted = index
	d.graves.Bury(index, func() {
		d.device.FreeCommandBuffer(cmd)
		encoder.Destroy()
	})
	rlog.Logger().Debug("webgpu: frame submitted", "submission", index, "passes", passes, "draws", draws)

	if wait {
		if err := d.waitFor(index); err != nil {
			return err
		}
	}
	d.collect()
	return nil
}

// waitFor polls the queue until submission index completes.
func (d *Device) waitFor(index uint64) error {
	deadline := time.Now().Add(d.cfg.WaitTimeout)
	for d.queue.PollCompleted() < index {
		if time.Now().After(deadline) {
			return fmt.Errorf("webgpu: submission %d not complete after %v", index, d.cfg.WaitTimeout)
		}
		time.Sleep(100 * time.Microsecond)
	}
	return nil
}

// SetRenderTarget ends the open render pass and directs following draws to
// target id, or to the output when id is 0.
func (d *Device) SetRenderTarget(id resource.ID) error {
	if id != resource.Invalid {
		if _, ok := d.targets[id]; !ok {
			return d.unknown(resource.TypeRenderTarget, id)
		}
	}
	if id != d.st.target {
		d.frame.endPass()
	}
	d.st.target = id
	return nil
}

// attachments returns the views and format of the current render target.
func (d *Device) attachments() (color, depth hal.TextureView, format gputypes.TextureFormat, w, h uint32, err error) {
	rt := &d.output
	if d.st.target != resource.Invalid {
		var ok bool
		if rt, ok = d.targets[d.st.target]; !ok {
			return nil, nil, 0, 0, 0, d.unknown(resource.TypeRenderTarget, d.st.target)
		}
	}
	color = rt.colorView
	if rt == &d.output && d.external != nil {
		color = d.external
	}
	return color, rt.depthView, rt.format, rt.width, rt.height, nil
}

func (d *Device) beginPass(clear gputypes.Color, depth float32, stencil uint32, mask driver.ClearMask) error {
	color, depthView, _, _, _, err := d.attachments()
	if err != nil {
		return err
	}
	loadOp := func(bit driver.ClearMask) gputypes.LoadOp {
		if mask&bit != 0 {
			return gputypes.LoadOpClear
		}
		return gputypes.LoadOpLoad
	}
	d.frame.pass = d.frame.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "rvm-pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       color,
			LoadOp:     loadOp(driver.ClearColor),
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: clear,
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              depthView,
			DepthLoadOp:       loadOp(driver.ClearDepth),
			DepthStoreOp:      gputypes.StoreOpStore,
			DepthClearValue:   depth,
			StencilLoadOp:     loadOp(driver.ClearStencil),
			StencilStoreOp:    gputypes.StoreOpStore,
			StencilClearValue: stencil,
		},
	})
	d.frame.passes++
	d.frame.viewport = [4]float32{}
	return nil
}

// Clear starts a new render pass on the current target that clears the
// attachments selected by mask.
func (d *Device) Clear(color gputypes.Color, depth float32, stencil uint32, mask driver.ClearMask) error {
	if d.frame.encoder == nil {
		return fmt.Errorf("webgpu: clear: %w", driver.ErrNotInFrame)
	}
	d.frame.endPass()
	return d.beginPass(color, depth, stencil, mask)
}

func (d *Device) RenderPrimitives(prim gputypes.PrimitiveTopology, first, count uint32) error {
	if err := d.prepareDraw(prim, false); err != nil {
		return err
	}
	d.frame.pass.Draw(count, 1, first, 0)
	d.frame.draws++
	return nil
}

func (d *Device) RenderIndexed(prim gputypes.PrimitiveTopology, indexBuffer resource.ID, first, count uint32) error {
	if indexBuffer != resource.Invalid {
		d.st.indexBuffer = indexBuffer
	}
	if err := d.prepareDraw(prim, true); err != nil {
		return err
	}
	d.frame.pass.DrawIndexed(count, 1, first, 0, 0)
	d.frame.draws++
	return nil
}

// prepareDraw resolves the recorded state into pass bindings.
func (d *Device) prepareDraw(prim gputypes.PrimitiveTopology, indexed bool) error {
	if d.frame.encoder == nil {
		return fmt.Errorf("webgpu: draw: %w", driver.ErrNotInFrame)
	}
	st := &d.st

	p, ok := d.programs[st.program]
	if !ok {
		return fmt.Errorf("webgpu: draw: program %d: %w", st.program, driver.ErrUnknownResource)
	}
	format, ok := d.inputLayouts[st.inputLayout]
	if !ok {
		return fmt.Errorf("webgpu: draw: input layout %d: %w", st.inputLayout, driver.ErrUnknownResource)
	}
	vb, ok := d.vertexBuffers[st.vertexBuffer]
	if !ok {
		return fmt.Errorf("webgpu: draw: vertex buffer %d: %w", st.vertexBuffer, driver.ErrUnknownResource)
	}
	var ib *buffer
	if indexed {
		if ib, ok = d.indexBuffers[st.indexBuffer]; !ok {
			return fmt.Errorf("webgpu: draw: index buffer %d: %w", st.indexBuffer, driver.ErrUnknownResource)
		}
	}

	bind, cubeMask, err := d.bindings()
	if err != nil {
		return err
	}
	l, err := d.layout(cubeMask)
	if err != nil {
		return err
	}
	bind.layout = l

	v, err := d.variant(p, variantKey{features: st.features, alpha: st.alphaCompare, alphaRef: st.alphaRef})
	if err != nil {
		return fmt.Errorf("webgpu: draw: program %d: %w", st.program, err)
	}
	_, _, targetFormat, width, height, err := d.attachments()
	if err != nil {
		return err
	}
	depthCompare := st.depthCompare
	if depthCompare == gputypes.CompareFunctionUndefined {
		depthCompare = gputypes.CompareFunctionAlways
	}
	pipeline, err := d.pipeline(pipelineKey{
		variant:      v,
		format:       format,
		target:       targetFormat,
		cubeMask:     cubeMask,
		topology:     prim,
		blendSrc:     st.blendSrc,
		blendDst:     st.blendDst,
		depthWrite:   st.depthWrite,
		depthCompare: depthCompare,
		cull:         st.cull,
		colorMask:    st.colorMask,
	})
	if err != nil {
		return err
	}
	group, err := d.bindGroup(bind)
	if err != nil {
		return err
	}

	if d.frame.pass == nil {
		if err := d.beginPass(gputypes.Color{}, 1, 0, 0); err != nil {
			return err
		}
	}
	pass := &d.frame
	if pass.pipeline != pipeline {
		pass.pass.SetPipeline(pipeline)
		pass.pipeline = pipeline
	}
	if pass.bindGroup != group {
		pass.pass.SetBindGroup(0, group, nil)
		pass.bindGroup = group
	}
	if pass.vertexBuffer != vb.buf {
		pass.pass.SetVertexBuffer(0, vb.buf, 0)
		pass.vertexBuffer = vb.buf
	}
	if indexed && pass.indexBuffer != ib.buf {
		pass.pass.SetIndexBuffer(ib.buf, gputypes.IndexFormatUint16, 0)
		pass.indexBuffer = ib.buf
	}
	if vp := viewportRect(st.viewport, width, height); vp != pass.viewport {
		pass.pass.SetViewport(vp[0], vp[1], vp[2], vp[3], 0, 1)
		pass.viewport = vp
	}
	return nil
}

// viewportRect converts a normalized viewport to pixels. The zero rectangle
// covers the whole target.
func viewportRect(r state.Rect, width, height uint32) [4]float32 {
	if r.IsZero() {
		r = state.FullRect
	}
	w, h := float32(width), float32(height)
	return [4]float32{r.X * w, r.Y * h, r.Width * w, r.Height * h}
}

// bindings resolves bound constant buffers and textures, substituting the
// placeholders for empty slots.
func (d *Device) bindings() (bindKey, uint8, error) {
	var (
		key      bindKey
		cubeMask uint8
	)
	for i, id := range d.st.constants {
		key.buffers[i], key.sizes[i] = d.zeroUniform, zeroUniformSize
		if id == resource.Invalid {
			continue
		}
		b, ok := d.constants[id]
		if !ok {
			return bindKey{}, 0, fmt.Errorf("webgpu: draw: constant buffer %d: %w", id, driver.ErrUnknownResource)
		}
		key.buffers[i], key.sizes[i] = b.buf, b.size
	}
	for i, tb := range d.st.textures {
		key.views[i], key.samplers[i] = d.white.view, d.samplers[samplerNearest]
		switch {
		case tb.id == resource.Invalid:
		case tb.rendered:
			rt, ok := d.targets[tb.id]
			if !ok {
				return bindKey{}, 0, fmt.Errorf("webgpu: draw: rendered texture %d: %w", tb.id, driver.ErrUnknownResource)
			}
			if tb.id == d.st.target {
				return bindKey{}, 0, fmt.Errorf("webgpu: draw: render target %d is bound as a texture while rendering into it", tb.id)
			}
			key.views[i], key.samplers[i] = rt.colorView, d.samplers[samplerClamp]
		default:
			t, ok := d.textures[tb.id]
			if !ok {
				return bindKey{}, 0, fmt.Errorf("webgpu: draw: texture %d: %w", tb.id, driver.ErrUnknownResource)
			}
			key.views[i], key.samplers[i] = t.view, d.samplers[t.sampler]
			if t.cube {
				cubeMask |= 1 << i
			}
		}
	}
	return key, cubeMask, nil
}
