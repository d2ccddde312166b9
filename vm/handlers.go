// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package vm

import (
	"github.com/gogpu/rvm/command"
	"github.com/gogpu/rvm/internal/rlog"
	"github.com/gogpu/rvm/resource"
	"github.com/gogpu/rvm/state"
)

func defaultHandlers() [command.TotalOpTypes]Handler {
	return [command.TotalOpTypes]Handler{
		command.OpDrawIndexed:          drawIndexed,
		command.OpDrawPrimitives:       drawPrimitives,
		command.OpClear:                clearTarget,
		command.OpExecute:              executeNested,
		command.OpPushRenderTarget:     pushRenderTarget,
		command.OpPopRenderTarget:      popRenderTarget,
		command.OpAcquireRenderTarget:  acquireRenderTarget,
		command.OpReleaseRenderTarget:  releaseRenderTarget,
		command.OpUploadConstantBuffer: uploadConstantBuffer,
		command.OpUploadVertexBuffer:   uploadVertexBuffer,
		command.OpCreateInputLayout:    createInputLayout,
		command.OpCreateVertexBuffer:   createVertexBuffer,
		command.OpCreateIndexBuffer:    createIndexBuffer,
		command.OpCreateConstantBuffer: createConstantBuffer,
		command.OpCreateTexture:        createTexture,
		command.OpCreateProgram:        createProgram,
		command.OpDeleteResource:       deleteResource,
	}
}

// prepareDraw merges the draw's state stack and applies what changed.
func (m *Machine) prepareDraw(d *command.Draw) error {
	n, features := state.MergeStack(&d.States, m.merged[:], m.precedence)
	if err := m.apply(m.merged[:n]); err != nil {
		return err
	}
	m.selectFeatures(features)
	m.flushProgram()
	return nil
}

func drawIndexed(m *Machine, op *command.OpCode) error {
	d := &op.Draw
	if err := m.prepareDraw(d); err != nil {
		return err
	}
	m.stats.Draws++
	ib := m.bound[state.SlotIndexBuffer].ID
	if m.boundMask&state.SlotIndexBuffer.Bit() == 0 {
		ib = resource.Invalid
	}
	return m.device.RenderIndexed(d.Primitive, ib, d.First, d.Count)
}

func drawPrimitives(m *Machine, op *command.OpCode) error {
	d := &op.Draw
	if err := m.prepareDraw(d); err != nil {
		return err
	}
	m.stats.Draws++
	return m.device.RenderPrimitives(d.Primitive, d.First, d.Count)
}

func clearTarget(m *Machine, op *command.OpCode) error {
	c := &op.Clear
	retarget := c.Target != 0
	if retarget {
		if err := m.device.SetRenderTarget(m.transients.Get(c.Target)); err != nil {
			return err
		}
		m.invalidate(state.SlotRenderTarget)
	}
	if !c.Viewport.IsZero() {
		m.device.SetViewport(c.Viewport)
	}
	if err := m.device.Clear(c.Color, c.Depth, c.Stencil, c.Mask); err != nil {
		return err
	}
	if retarget || !c.Viewport.IsZero() {
		return m.restoreTarget()
	}
	return nil
}

func executeNested(m *Machine, op *command.OpCode) error {
	return m.ExecuteNested(op.Commands)
}

func uploadConstantBuffer(m *Machine, op *command.OpCode) error {
	return m.device.UploadConstantBuffer(op.Resource.ID, op.Resource.Data)
}

func uploadVertexBuffer(m *Machine, op *command.OpCode) error {
	return m.device.UploadVertexBuffer(op.Resource.ID, op.Resource.Data)
}

func createInputLayout(m *Machine, op *command.OpCode) error {
	return m.device.CreateInputLayout(op.Resource.ID, op.Resource.VertexFormat)
}

func createVertexBuffer(m *Machine, op *command.OpCode) error {
	return m.device.CreateVertexBuffer(op.Resource.ID, op.Resource.Data)
}

func createIndexBuffer(m *Machine, op *command.OpCode) error {
	return m.device.CreateIndexBuffer(op.Resource.ID, op.Resource.Data)
}

func createConstantBuffer(m *Machine, op *command.OpCode) error {
	r := &op.Resource
	return m.device.CreateConstantBuffer(r.ID, r.Data, r.Layout)
}

func createTexture(m *Machine, op *command.OpCode) error {
	r := &op.Resource
	return m.device.CreateTexture(r.ID, r.Texture, r.Data)
}

func createProgram(m *Machine, op *command.OpCode) error {
	return m.device.CreateProgram(op.Resource.ID, op.Resource.Program)
}

func deleteResource(m *Machine, op *command.OpCode) error {
	r := &op.Resource
	m.forget(r.Type, r.ID)
	if err := m.device.Delete(r.Type, r.ID); err != nil {
		return err
	}
	rlog.Logger().Debug("vm: resource deleted", "type", r.Type, "id", r.ID)
	return nil
}
