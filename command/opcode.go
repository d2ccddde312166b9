// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/resource"
	"github.com/gogpu/rvm/state"
)

// OpType identifies the operation an OpCode performs.
type OpType uint8

const (
	// Draw operations
	OpDrawIndexed    OpType = iota // Draw indexed primitives
	OpDrawPrimitives               // Draw non-indexed primitives

	// Structural operations
	OpClear               // Clear the current or a transient render target
	OpExecute             // Execute a nested buffer in its own transient frame
	OpPushRenderTarget    // Begin rendering into a transient target
	OpPopRenderTarget     // Restore the previous render target
	OpAcquireRenderTarget // Load a pooled intermediate target into a transient slot
	OpReleaseRenderTarget // Return a transient target to the pool

	// Upload operations
	OpUploadConstantBuffer // Replace constant buffer contents
	OpUploadVertexBuffer   // Replace vertex buffer contents

	// Construction operations
	OpCreateInputLayout    // Create an input layout
	OpCreateVertexBuffer   // Create a vertex buffer
	OpCreateIndexBuffer    // Create an index buffer
	OpCreateConstantBuffer // Create a constant buffer
	OpCreateTexture        // Create a texture
	OpCreateProgram        // Create a shader program
	OpDeleteResource       // Destroy a resource

	// TotalOpTypes is the number of opcode types.
	TotalOpTypes
)

var opTypeNames = [...]string{
	OpDrawIndexed:          "DrawIndexed",
	OpDrawPrimitives:       "DrawPrimitives",
	OpClear:                "Clear",
	OpExecute:              "Execute",
	OpPushRenderTarget:     "PushRenderTarget",
	OpPopRenderTarget:      "PopRenderTarget",
	OpAcquireRenderTarget:  "AcquireRenderTarget",
	OpReleaseRenderTarget:  "ReleaseRenderTarget",
	OpUploadConstantBuffer: "UploadConstantBuffer",
	OpUploadVertexBuffer:   "UploadVertexBuffer",
	OpCreateInputLayout:    "CreateInputLayout",
	OpCreateVertexBuffer:   "CreateVertexBuffer",
	OpCreateIndexBuffer:    "CreateIndexBuffer",
	OpCreateConstantBuffer: "CreateConstantBuffer",
	OpCreateTexture:        "CreateTexture",
	OpCreateProgram:        "CreateProgram",
	OpDeleteResource:       "DeleteResource",
}

// String returns a human-readable name for the opcode type.
func (t OpType) String() string {
	if int(t) < len(opTypeNames) {
		return opTypeNames[t]
	}
	return "Unknown"
}

// IsDraw reports whether t is a draw operation.
func (t OpType) IsDraw() bool {
	return t == OpDrawIndexed || t == OpDrawPrimitives
}

// IsCreate reports whether t constructs a resource.
func (t OpType) IsCreate() bool {
	return t >= OpCreateInputLayout && t <= OpCreateProgram
}

// OpCode is one recorded operation. Type selects which payload is set.
type OpCode struct {
	Type    OpType
	Sorting Key

	// Draw payload.
	Draw Draw

	// Clear payload.
	Clear Clear

	// Nested buffer for OpExecute.
	Commands *Buffer

	// Render target payload for push, acquire and release.
	Target RenderTarget

	// Resource payload for uploads, construction and deletion.
	Resource Resource
}

// Draw describes a draw call.
type Draw struct {
	Primitive gputypes.PrimitiveTopology
	States    state.Stack
	First     uint32
	Count     uint32
}

// Clear describes a clear of a render target.
// A zero Target clears the current render target.
type Clear struct {
	Target   resource.TransientID
	Color    gputypes.Color
	Depth    float32
	Stencil  uint32
	Viewport state.Rect
	Mask     driver.ClearMask
}

// RenderTarget describes a transient render target operation.
type RenderTarget struct {
	Slot     resource.TransientID
	Viewport state.Rect
	Desc     driver.RenderTargetDescriptor
}

// Resource describes a resource upload, construction or deletion.
// Data is owned by the opcode.
type Resource struct {
	Type         resource.Type
	ID           resource.ID
	Data         []byte
	VertexFormat driver.VertexFormat
	Texture      driver.TextureDescriptor
	Program      driver.ProgramDescriptor
	Layout       []driver.UniformElement
}
