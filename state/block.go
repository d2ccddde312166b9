// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package state

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rvm/resource"
)

// Block is an ordered set of state changes, at most one per slot.
//
// The zero value is an empty block that enables no features and masks none.
type Block struct {
	states   [TotalSlots]State
	bits     [TotalSlots]uint32
	count    int
	mask     uint32
	features Features
	disabled Features
}

// NewBlock returns an empty state block.
func NewBlock() *Block { return &Block{} }

// Len returns the number of states in the block.
func (b *Block) Len() int { return b.count }

// Mask returns the OR of the slot bits occupied by the block.
func (b *Block) Mask() uint32 { return b.mask }

// State returns the i-th state in insertion order.
func (b *Block) State(i int) State {
	b.check(i)
	return b.states[i]
}

// StateBit returns the single slot bit set by the i-th state.
func (b *Block) StateBit(i int) uint32 {
	b.check(i)
	return b.bits[i]
}

// Features returns the feature bits the block enables.
func (b *Block) Features() Features { return b.features }

// FeatureMask returns the feature bits the block keeps. Bits cleared here are
// removed from the merged feature set.
func (b *Block) FeatureMask() Features { return ^b.disabled }

// EnableFeatures adds bits to the features the block enables.
func (b *Block) EnableFeatures(f Features) { b.features |= f }

// DisableFeatures masks bits out of the merged feature set.
func (b *Block) DisableFeatures(f Features) { b.disabled |= f }

// Reset empties the block.
func (b *Block) Reset() { *b = Block{} }

// Set appends s. It panics if the block already has a state in the same slot.
func (b *Block) Set(s State) {
	bit := s.Slot().Bit()
	if b.mask&bit != 0 {
		panic(fmt.Sprintf("state: slot %s already set in block", s.Kind))
	}
	b.states[b.count] = s
	b.bits[b.count] = bit
	b.count++
	b.mask |= bit
}

// BindVertexBuffer binds the vertex buffer id.
func (b *Block) BindVertexBuffer(id resource.ID) {
	b.Set(State{Kind: KindVertexBuffer, ID: id})
}

// BindIndexBuffer binds the index buffer id.
func (b *Block) BindIndexBuffer(id resource.ID) {
	b.Set(State{Kind: KindIndexBuffer, ID: id})
}

// BindInputLayout binds the input layout id.
func (b *Block) BindInputLayout(id resource.ID) {
	b.Set(State{Kind: KindInputLayout, ID: id})
}

// BindConstantBuffer binds the constant buffer id to slot typ.
func (b *Block) BindConstantBuffer(id resource.ID, typ ConstantBufferType) {
	if typ >= MaxConstantBuffers {
		panic(fmt.Sprintf("state: invalid constant buffer type %d", typ))
	}
	b.Set(State{Kind: KindConstantBuffer, ID: id, ConstantBuffer: typ})
}

// BindProgram binds the program id.
func (b *Block) BindProgram(id resource.ID) {
	b.Set(State{Kind: KindProgram, ID: id})
}

// BindTexture binds the texture id to sampler.
func (b *Block) BindTexture(id resource.ID, sampler Sampler) {
	checkSampler(sampler)
	b.Set(State{Kind: KindTexture, ID: id, Sampler: sampler})
}

// BindTransientTexture binds the color attachment of the render target
// loaded into transient slot id.
func (b *Block) BindTransientTexture(id resource.TransientID, sampler Sampler) {
	checkSampler(sampler)
	b.Set(State{Kind: KindTexture, Transient: id, Sampler: sampler})
}

// SetRenderTarget renders into target id using viewport.
// A zero id selects the output view.
func (b *Block) SetRenderTarget(id resource.ID, viewport Rect) {
	b.Set(State{Kind: KindRenderTarget, ID: id, Viewport: viewport})
}

// SetTransientRenderTarget renders into the target loaded into transient
// slot id.
func (b *Block) SetTransientRenderTarget(id resource.TransientID, viewport Rect) {
	b.Set(State{Kind: KindRenderTarget, Transient: id, Viewport: viewport})
}

// SetBlend sets the source and destination blend factors.
func (b *Block) SetBlend(src, dst gputypes.BlendFactor) {
	b.Set(State{Kind: KindBlending, Src: src, Dst: dst})
}

// DisableBlending replaces the destination with the source color.
func (b *Block) DisableBlending() {
	b.SetBlend(gputypes.BlendFactorOne, gputypes.BlendFactorZero)
}

// SetDepthState sets the depth comparison and depth write flag.
func (b *Block) SetDepthState(compare gputypes.CompareFunction, write bool) {
	b.Set(State{Kind: KindDepthState, Compare: compare, DepthWrite: write})
}

// SetAlphaTest discards fragments whose alpha fails compare against ref.
func (b *Block) SetAlphaTest(compare gputypes.CompareFunction, ref float32) {
	b.Set(State{Kind: KindAlphaTest, Compare: compare, AlphaRef: ref})
}

// DisableAlphaTest lets every fragment pass the alpha test.
func (b *Block) DisableAlphaTest() {
	b.SetAlphaTest(gputypes.CompareFunctionAlways, 0)
}

// SetCullFace selects which faces are culled.
func (b *Block) SetCullFace(mode gputypes.CullMode) {
	b.Set(State{Kind: KindCullFace, Cull: mode})
}

// SetColorMask selects the color channels that are written.
func (b *Block) SetColorMask(mask gputypes.ColorWriteMask) {
	b.Set(State{Kind: KindColorMask, ColorMask: mask})
}

func (b *Block) check(i int) {
	if i < 0 || i >= b.count {
		panic(fmt.Sprintf("state: index %d out of range [0, %d)", i, b.count))
	}
}

func checkSampler(s Sampler) {
	if s >= MaxTextureSamplers {
		panic(fmt.Sprintf("state: invalid texture sampler %d", s))
	}
}

// Default returns the state block restored after every frame: back-face
// culling, depth test LessEqual with writes, no alpha test, no blending and
// all color channels written.
func Default() *Block {
	b := NewBlock()
	b.SetCullFace(gputypes.CullModeBack)
	b.SetDepthState(gputypes.CompareFunctionLessEqual, true)
	b.DisableAlphaTest()
	b.DisableBlending()
	b.SetColorMask(gputypes.ColorWriteMaskAll)
	return b
}
