// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package state

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rvm/resource"
)

// State is a single pipeline state change.
//
// Kind selects which fields are meaningful:
//
//	VertexBuffer, IndexBuffer, InputLayout, Program: ID
//	ConstantBuffer: ID, ConstantBuffer
//	RenderTarget:   ID or Transient, Viewport
//	Blending:       Src, Dst
//	DepthState:     Compare, DepthWrite
//	AlphaTest:      Compare, AlphaRef
//	CullFace:       Cull
//	ColorMask:      ColorMask
//	Texture:        ID or Transient, Sampler
//
// States are comparable; the executor compares them to skip redundant
// changes.
type State struct {
	Kind Kind

	ID        resource.ID
	Transient resource.TransientID

	ConstantBuffer ConstantBufferType
	Sampler        Sampler
	Viewport       Rect

	Src, Dst gputypes.BlendFactor

	Compare    gputypes.CompareFunction
	DepthWrite bool
	AlphaRef   float32

	Cull      gputypes.CullMode
	ColorMask gputypes.ColorWriteMask
}

// Slot returns the mask slot this state occupies.
func (s State) Slot() Slot {
	switch s.Kind {
	case KindVertexBuffer:
		return SlotVertexBuffer
	case KindIndexBuffer:
		return SlotIndexBuffer
	case KindInputLayout:
		return SlotInputLayout
	case KindConstantBuffer:
		return SlotConstantBuffer + Slot(s.ConstantBuffer)
	case KindProgram:
		return SlotProgram
	case KindRenderTarget:
		return SlotRenderTarget
	case KindBlending:
		return SlotBlending
	case KindDepthState:
		return SlotDepthState
	case KindAlphaTest:
		return SlotAlphaTest
	case KindCullFace:
		return SlotCullFace
	case KindColorMask:
		return SlotColorMask
	case KindTexture:
		return SlotTexture + Slot(s.Sampler)
	}
	panic(fmt.Sprintf("state: unknown state kind %d", s.Kind))
}

// IsTransient reports whether the state refers to a transient slot that must
// be resolved through the transient stack before it is applied.
func (s State) IsTransient() bool { return s.Transient != 0 }

// String returns a compact description used in diagnostics.
func (s State) String() string {
	switch s.Kind {
	case KindConstantBuffer:
		return fmt.Sprintf("%s[%d](%d)", s.Kind, s.ConstantBuffer, s.ID)
	case KindTexture:
		if s.IsTransient() {
			return fmt.Sprintf("%s[%d](transient %d)", s.Kind, s.Sampler, s.Transient)
		}
		return fmt.Sprintf("%s[%d](%d)", s.Kind, s.Sampler, s.ID)
	case KindRenderTarget:
		if s.IsTransient() {
			return fmt.Sprintf("%s(transient %d, %v)", s.Kind, s.Transient, s.Viewport)
		}
		return fmt.Sprintf("%s(%d, %v)", s.Kind, s.ID, s.Viewport)
	case KindBlending:
		return fmt.Sprintf("%s(%v, %v)", s.Kind, s.Src, s.Dst)
	case KindDepthState:
		return fmt.Sprintf("%s(%v, write=%t)", s.Kind, s.Compare, s.DepthWrite)
	case KindAlphaTest:
		return fmt.Sprintf("%s(%v, %g)", s.Kind, s.Compare, s.AlphaRef)
	case KindCullFace:
		return fmt.Sprintf("%s(%v)", s.Kind, s.Cull)
	case KindColorMask:
		return fmt.Sprintf("%s(%v)", s.Kind, s.ColorMask)
	}
	return fmt.Sprintf("%s(%d)", s.Kind, s.ID)
}
