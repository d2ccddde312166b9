// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/resource"
	"github.com/gogpu/rvm/state"
)

// Buffer is an append-only list of opcodes.
type Buffer struct {
	ops      []OpCode
	sequence uint32
	segment  uint32
	drawing  bool // the current segment holds draws

	// transient slots handed out by AcquireRenderTarget, bit i for slot i+1
	transients uint16
}

// NewBuffer creates an empty command buffer.
func NewBuffer() *Buffer {
	return &Buffer{ops: make([]OpCode, 0, 64)}
}

// Size returns the number of recorded opcodes.
func (b *Buffer) Size() int { return len(b.ops) }

// OpCodeAt returns the i-th opcode in recording order. The pointer is valid
// until the buffer is modified.
func (b *Buffer) OpCodeAt(i int) *OpCode { return &b.ops[i] }

// Reset discards every opcode so the buffer can be recorded again.
func (b *Buffer) Reset() {
	clear(b.ops)
	b.ops = b.ops[:0]
	b.sequence = 0
	b.segment = 0
	b.drawing = false
	b.transients = 0
}

// Sorted returns the opcodes in execution order. Each run of consecutive
// draws is ordered by its sort value, equal values keeping their recording
// order. Structural opcodes keep their position. The buffer itself is not
// modified.
func (b *Buffer) Sorted() []*OpCode {
	out := make([]*OpCode, len(b.ops))
	for i := range b.ops {
		out[i] = &b.ops[i]
	}
	for i := 0; i < len(out); {
		if !out[i].Type.IsDraw() {
			i++
			continue
		}
		j := i + 1
		for j < len(out) && out[j].Type.IsDraw() {
			j++
		}
		slices.SortStableFunc(out[i:j], func(x, y *OpCode) int {
			return cmp.Compare(x.Sorting.Sort(), y.Sorting.Sort())
		})
		i = j
	}
	return out
}

// DrawIndexed records an indexed draw of count indices starting at first,
// using the index buffer bound by states.
func (b *Buffer) DrawIndexed(sort uint32, prim gputypes.PrimitiveTopology, states state.Stack, first, count uint32) {
	b.draw(OpDrawIndexed, sort, Draw{Primitive: prim, States: states, First: first, Count: count})
}

// DrawPrimitives records a non-indexed draw of count vertices starting at
// first.
func (b *Buffer) DrawPrimitives(sort uint32, prim gputypes.PrimitiveTopology, states state.Stack, first, count uint32) {
	b.draw(OpDrawPrimitives, sort, Draw{Primitive: prim, States: states, First: first, Count: count})
}

// Clear records a clear of target to color, depth 1 and stencil 0.
// A zero target clears the current render target.
func (b *Buffer) Clear(target resource.TransientID, color gputypes.Color, viewport state.Rect, mask driver.ClearMask) {
	b.ClearWith(Clear{Target: target, Color: color, Depth: 1, Viewport: viewport, Mask: mask})
}

// ClearWith records a clear with explicit depth and stencil values.
func (b *Buffer) ClearWith(c Clear) {
	b.structural(OpCode{Type: OpClear, Clear: c})
}

// Execute records a nested buffer. It runs in its own transient frame when
// this buffer is executed.
func (b *Buffer) Execute(commands *Buffer) {
	if commands == nil {
		panic("command: Execute of nil buffer")
	}
	b.structural(OpCode{Type: OpExecute, Commands: commands})
}

// PushRenderTarget begins rendering into the target loaded into slot.
func (b *Buffer) PushRenderTarget(slot resource.TransientID, viewport state.Rect) {
	b.structural(OpCode{Type: OpPushRenderTarget, Target: RenderTarget{Slot: slot, Viewport: viewport}})
}

// PopRenderTarget restores the render target active before the matching push.
func (b *Buffer) PopRenderTarget() {
	b.structural(OpCode{Type: OpPopRenderTarget})
}

// RenderToTarget records a pass into the target loaded into slot and
// returns the buffer that receives the pass commands.
func (b *Buffer) RenderToTarget(slot resource.TransientID, viewport state.Rect) *Buffer {
	nested := NewBuffer()
	b.PushRenderTarget(slot, viewport)
	b.Execute(nested)
	b.PopRenderTarget()
	return nested
}

// AcquireRenderTarget records the acquisition of an intermediate render
// target and returns the transient slot it will be loaded into.
// It panics when every slot of the buffer's frame is taken.
func (b *Buffer) AcquireRenderTarget(width, height uint32, format gputypes.TextureFormat) resource.TransientID {
	slot := resource.TransientID(0)
	for i := range resource.StackFrameSize {
		if b.transients&(1<<i) == 0 {
			b.transients |= 1 << i
			slot = resource.TransientID(i + 1)
			break
		}
	}
	if slot == 0 {
		panic(fmt.Sprintf("command: more than %d transient render targets", resource.StackFrameSize))
	}
	b.structural(OpCode{Type: OpAcquireRenderTarget, Target: RenderTarget{
		Slot: slot,
		Desc: driver.RenderTargetDescriptor{Width: width, Height: height, Format: format},
	}})
	return slot
}

// ReleaseRenderTarget records the release of an acquired render target.
func (b *Buffer) ReleaseRenderTarget(slot resource.TransientID) {
	if !slot.IsValid() || b.transients&(1<<(slot-1)) == 0 {
		panic(fmt.Sprintf("command: release of unacquired transient render target %d", slot))
	}
	b.transients &^= 1 << (slot - 1)
	b.structural(OpCode{Type: OpReleaseRenderTarget, Target: RenderTarget{Slot: slot}})
}

// UploadConstantBuffer records a replacement of the constant buffer contents.
func (b *Buffer) UploadConstantBuffer(id resource.ID, data []byte) {
	b.structural(OpCode{Type: OpUploadConstantBuffer, Resource: Resource{
		Type: resource.TypeConstantBuffer, ID: id, Data: slices.Clone(data),
	}})
}

// UploadVertexBuffer records a replacement of the vertex buffer contents.
func (b *Buffer) UploadVertexBuffer(id resource.ID, data []byte) {
	b.structural(OpCode{Type: OpUploadVertexBuffer, Resource: Resource{
		Type: resource.TypeVertexBuffer, ID: id, Data: slices.Clone(data),
	}})
}

// CreateInputLayout records the construction of an input layout.
func (b *Buffer) CreateInputLayout(id resource.ID, format driver.VertexFormat) {
	b.structural(OpCode{Type: OpCreateInputLayout, Resource: Resource{
		Type: resource.TypeInputLayout, ID: id, VertexFormat: format,
	}})
}

// CreateVertexBuffer records the construction of a vertex buffer from a
// copy of data.
func (b *Buffer) CreateVertexBuffer(id resource.ID, data []byte) {
	b.structural(OpCode{Type: OpCreateVertexBuffer, Resource: Resource{
		Type: resource.TypeVertexBuffer, ID: id, Data: slices.Clone(data),
	}})
}

// CreateIndexBuffer records the construction of an index buffer from a copy
// of data.
func (b *Buffer) CreateIndexBuffer(id resource.ID, data []byte) {
	b.structural(OpCode{Type: OpCreateIndexBuffer, Resource: Resource{
		Type: resource.TypeIndexBuffer, ID: id, Data: slices.Clone(data),
	}})
}

// CreateConstantBuffer records the construction of a constant buffer.
func (b *Buffer) CreateConstantBuffer(id resource.ID, data []byte, layout []driver.UniformElement) {
	b.structural(OpCode{Type: OpCreateConstantBuffer, Resource: Resource{
		Type: resource.TypeConstantBuffer, ID: id, Data: slices.Clone(data), Layout: slices.Clone(layout),
	}})
}

// CreateTexture records the construction of a texture.
func (b *Buffer) CreateTexture(id resource.ID, desc driver.TextureDescriptor, data []byte) {
	b.structural(OpCode{Type: OpCreateTexture, Resource: Resource{
		Type: resource.TypeTexture, ID: id, Texture: desc, Data: slices.Clone(data),
	}})
}

// CreateProgram records the construction of a shader program.
func (b *Buffer) CreateProgram(id resource.ID, desc driver.ProgramDescriptor) {
	b.structural(OpCode{Type: OpCreateProgram, Resource: Resource{
		Type: resource.TypeProgram, ID: id, Program: desc,
	}})
}

// DeleteResource records the destruction of a resource.
func (b *Buffer) DeleteResource(typ resource.Type, id resource.ID) {
	b.structural(OpCode{Type: OpDeleteResource, Resource: Resource{Type: typ, ID: id}})
}

func (b *Buffer) draw(typ OpType, sort uint32, d Draw) {
	if !b.drawing {
		if len(b.ops) > 0 {
			b.nextSegment()
		}
		b.drawing = true
	}
	b.push(OpCode{Type: typ, Draw: d}, sort)
}

// structural records op after every draw recorded so far and before every
// draw recorded later. Consecutive structural opcodes share a segment and
// keep their recording order.
func (b *Buffer) structural(op OpCode) {
	if b.drawing {
		b.nextSegment()
		b.drawing = false
	}
	b.push(op, 0)
}

// nextSegment opens a new segment. Past MaxSegment the number saturates;
// Sorted never orders opcodes across a draw run, so execution order holds.
func (b *Buffer) nextSegment() {
	if b.segment < MaxSegment {
		b.segment++
	}
}

func (b *Buffer) push(op OpCode, sort uint32) {
	if b.sequence > MaxSequence {
		panic(fmt.Sprintf("command: more than %d opcodes in one buffer", MaxSequence+1))
	}
	op.Sorting = MakeKey(b.segment, sort, b.sequence)
	b.sequence++
	b.ops = append(b.ops, op)
}
