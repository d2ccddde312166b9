// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package state

// Kind is the discriminator of a State.
type Kind uint8

const (
	KindVertexBuffer Kind = iota
	KindIndexBuffer
	KindInputLayout
	KindConstantBuffer
	KindProgram
	KindRenderTarget
	KindBlending
	KindDepthState
	KindAlphaTest
	KindCullFace
	KindColorMask
	KindTexture

	// TotalKinds is the number of state kinds.
	TotalKinds
)

var kindNames = [...]string{
	KindVertexBuffer:   "VertexBuffer",
	KindIndexBuffer:    "IndexBuffer",
	KindInputLayout:    "InputLayout",
	KindConstantBuffer: "ConstantBuffer",
	KindProgram:        "Program",
	KindRenderTarget:   "RenderTarget",
	KindBlending:       "Blending",
	KindDepthState:     "DepthState",
	KindAlphaTest:      "AlphaTest",
	KindCullFace:       "CullFace",
	KindColorMask:      "ColorMask",
	KindTexture:        "Texture",
}

// String returns a human-readable name for the state kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// ConstantBufferType selects one of the constant buffer slots.
type ConstantBufferType uint8

const (
	GlobalConstants ConstantBufferType = iota
	PassConstants
	InstanceConstants

	// MaxConstantBuffers is the number of constant buffer slots.
	MaxConstantBuffers
)

// Sampler selects one of the texture sampler slots.
type Sampler uint8

const (
	Texture0 Sampler = iota
	Texture1
	Texture2

	// MaxTextureSamplers is the number of texture sampler slots.
	MaxTextureSamplers
)

// Slot is a bit position in a state mask.
// Constant buffers and textures occupy one slot per buffer type or sampler.
type Slot uint8

const (
	SlotVertexBuffer   Slot = 0
	SlotIndexBuffer    Slot = 1
	SlotInputLayout    Slot = 2
	SlotConstantBuffer Slot = 3
	SlotProgram        Slot = SlotConstantBuffer + Slot(MaxConstantBuffers)
	SlotRenderTarget   Slot = SlotProgram + 1
	SlotBlending       Slot = SlotRenderTarget + 1
	SlotDepthState     Slot = SlotBlending + 1
	SlotAlphaTest      Slot = SlotDepthState + 1
	SlotCullFace       Slot = SlotAlphaTest + 1
	SlotColorMask      Slot = SlotCullFace + 1
	SlotTexture        Slot = SlotColorMask + 1

	// TotalSlots is the number of distinct state slots.
	TotalSlots = int(SlotTexture) + int(MaxTextureSamplers)
)

// Bit returns the mask bit of the slot.
func (s Slot) Bit() uint32 { return 1 << s }

// Features is a set of pipeline feature bits used to select shader
// permutations.
type Features uint64

// AllFeatures has every feature bit set.
const AllFeatures = ^Features(0)

// Rect is a viewport in normalized target coordinates.
type Rect struct {
	X, Y, Width, Height float32
}

// FullRect covers the whole render target.
var FullRect = Rect{Width: 1, Height: 1}

// IsZero reports whether r is the zero rectangle.
func (r Rect) IsZero() bool { return r == Rect{} }
