// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

// ID is a persistent resource identifier, unique within one resource type.
type ID uint32

// Invalid is the zero identifier. It never names a live resource.
const Invalid ID = 0

// IsValid reports whether id names a resource.
func (id ID) IsValid() bool { return id != Invalid }

// TransientID is a 1-based slot in the active transient stack frame.
type TransientID uint8

// IsValid reports whether id is inside [1, StackFrameSize].
func (id TransientID) IsValid() bool { return id != 0 && int(id) <= StackFrameSize }

// Type identifies which pool an identifier belongs to.
type Type uint8

const (
	TypeVertexBuffer Type = iota
	TypeIndexBuffer
	TypeConstantBuffer
	TypeTexture
	TypeProgram
	TypeInputLayout
	TypeUniformLayout
	TypeFeatureLayout
	TypeRenderTarget

	// TotalTypes is the number of resource types.
	TotalTypes
)

var typeNames = [...]string{
	TypeVertexBuffer:   "VertexBuffer",
	TypeIndexBuffer:    "IndexBuffer",
	TypeConstantBuffer: "ConstantBuffer",
	TypeTexture:        "Texture",
	TypeProgram:        "Program",
	TypeInputLayout:    "InputLayout",
	TypeUniformLayout:  "UniformLayout",
	TypeFeatureLayout:  "FeatureLayout",
	TypeRenderTarget:   "RenderTarget",
}

// String returns a human-readable name for the resource type.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}
