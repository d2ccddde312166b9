// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rvm/resource"
	"github.com/gogpu/rvm/state"
)

// ClearMask selects the attachments a clear touches.
type ClearMask uint8

const (
	ClearColor ClearMask = 1 << iota
	ClearDepth
	ClearStencil

	ClearAll = ClearColor | ClearDepth | ClearStencil
)

// TextureType distinguishes 2D textures from cube maps.
type TextureType uint8

const (
	Texture2D TextureType = iota
	TextureCube
)

// TextureFilter selects texture sampling.
type TextureFilter uint8

const (
	FilterNearest TextureFilter = iota
	FilterLinear
	FilterMipLinear
)

// TextureDescriptor describes a sampled texture.
type TextureDescriptor struct {
	Type      TextureType
	Width     uint32
	Height    uint32
	MipLevels uint32
	Format    gputypes.TextureFormat
	Filter    TextureFilter
}

// ProgramDescriptor holds the WGSL sources of a shader program.
// The vertex stage entry point is vs_main and the fragment stage fs_main.
type ProgramDescriptor struct {
	Name     string
	Vertex   string
	Fragment string
}

// RenderTargetDescriptor describes an intermediate render target with a
// sampled color attachment and a depth attachment.
type RenderTargetDescriptor struct {
	Width  uint32
	Height uint32
	Format gputypes.TextureFormat
}

// Device is the capability surface of a graphics backend.
//
// Resources are created under identifiers allocated by the caller. State
// setters record pipeline state and never fail; errors surface from the
// call that consumes the state. Identifier 0 passed to a binding method
// unbinds the slot, and to SetRenderTarget selects the output view.
//
// Implementations are used from a single goroutine.
type Device interface {
	CreateInputLayout(id resource.ID, format VertexFormat) error
	CreateVertexBuffer(id resource.ID, data []byte) error
	CreateIndexBuffer(id resource.ID, data []byte) error
	CreateConstantBuffer(id resource.ID, data []byte, layout []UniformElement) error
	CreateTexture(id resource.ID, desc TextureDescriptor, data []byte) error
	CreateProgram(id resource.ID, desc ProgramDescriptor) error
	CreateRenderTarget(id resource.ID, desc RenderTargetDescriptor) error

	UploadVertexBuffer(id resource.ID, data []byte) error
	UploadConstantBuffer(id resource.ID, data []byte) error

	// Delete destroys the resource of type t named id.
	Delete(t resource.Type, id resource.ID) error

	SetRenderTarget(id resource.ID) error
	SetViewport(viewport state.Rect)
	SetVertexBuffer(id resource.ID)
	SetIndexBuffer(id resource.ID)
	SetInputLayout(id resource.ID)
	SetConstantBuffer(typ state.ConstantBufferType, id resource.ID)
	SetProgram(id resource.ID, features state.Features)
	SetTexture(sampler state.Sampler, id resource.ID)
	// SetRenderedTexture binds the color attachment of render target id.
	SetRenderedTexture(sampler state.Sampler, id resource.ID)
	SetBlendFactors(src, dst gputypes.BlendFactor)
	SetDepthTest(write bool, compare gputypes.CompareFunction)
	SetAlphaTest(compare gputypes.CompareFunction, ref float32)
	SetCulling(mode gputypes.CullMode)
	SetColorMask(mask gputypes.ColorWriteMask)

	Clear(color gputypes.Color, depth float32, stencil uint32, mask ClearMask) error
	RenderPrimitives(prim gputypes.PrimitiveTopology, first, count uint32) error
	RenderIndexed(prim gputypes.PrimitiveTopology, indexBuffer resource.ID, first, count uint32) error
}

// View is the output surface a frame is presented to.
type View interface {
	// BeginFrame prepares the view for rendering a frame.
	BeginFrame() error

	// EndFrame submits the frame. When wait is true it blocks until the
	// GPU has finished executing it.
	EndFrame(wait bool) error

	// Size returns the view dimensions in pixels.
	Size() (width, height uint32)
}
