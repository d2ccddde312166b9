// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
)

// VertexFormat is a set of interleaved vertex attributes.
// Attributes are laid out in declaration order: position, color, normal,
// texture coordinate 0, texture coordinate 1.
type VertexFormat uint8

const (
	VertexPosition  VertexFormat = 1 << iota // 3 x float32
	VertexColor                              // 4 x float32
	VertexNormal                             // 3 x float32
	VertexTexCoord0                          // 2 x float32
	VertexTexCoord1                          // 2 x float32

	vertexAttributeCount = iota
)

// MaxVertexFormats is the number of distinct vertex formats.
const MaxVertexFormats = 1 << vertexAttributeCount

// VertexAttribute describes one attribute of an interleaved vertex.
// Location is fixed per attribute so shaders can rely on it.
type VertexAttribute struct {
	Attribute VertexFormat
	Format    gputypes.VertexFormat
	Offset    uint32
	Location  uint32
}

type attributeInfo struct {
	name   string
	format gputypes.VertexFormat
	size   uint32
}

var attributes = [vertexAttributeCount]attributeInfo{
	{"position", gputypes.VertexFormatFloat32x3, 12},
	{"color", gputypes.VertexFormatFloat32x4, 16},
	{"normal", gputypes.VertexFormatFloat32x3, 12},
	{"uv0", gputypes.VertexFormatFloat32x2, 8},
	{"uv1", gputypes.VertexFormatFloat32x2, 8},
}

// Has reports whether f contains attribute a.
func (f VertexFormat) Has(a VertexFormat) bool { return f&a == a }

// IsValid reports whether f has at least one attribute and no unknown bits.
func (f VertexFormat) IsValid() bool { return f != 0 && int(f) < MaxVertexFormats }

// Size returns the stride of one vertex in bytes.
func (f VertexFormat) Size() uint32 {
	var size uint32
	for i, a := range attributes {
		if f&(1<<i) != 0 {
			size += a.size
		}
	}
	return size
}

// Attributes returns the attribute layout of f.
func (f VertexFormat) Attributes() []VertexAttribute {
	var (
		out    []VertexAttribute
		offset uint32
	)
	for i, a := range attributes {
		bit := VertexFormat(1 << i)
		if f&bit == 0 {
			continue
		}
		out = append(out, VertexAttribute{
			Attribute: bit,
			Format:    a.format,
			Offset:    offset,
			Location:  uint32(i),
		})
		offset += a.size
	}
	return out
}

// String returns the attribute names joined by ':', the form accepted by
// ParseVertexFormat.
func (f VertexFormat) String() string {
	var names []string
	for i, a := range attributes {
		if f&(1<<i) != 0 {
			names = append(names, a.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ":")
}

// ParseVertexFormat parses a ':'-separated attribute list such as
// "position:normal:uv0".
func ParseVertexFormat(s string) (VertexFormat, error) {
	var f VertexFormat
	for _, field := range strings.Split(s, ":") {
		name := strings.TrimSpace(strings.ToLower(field))
		bit, ok := attributeByName(name)
		if !ok {
			return 0, fmt.Errorf("%w: unknown attribute %q in %q", ErrInvalidVertexFormat, field, s)
		}
		if f&bit != 0 {
			return 0, fmt.Errorf("%w: duplicate attribute %q in %q", ErrInvalidVertexFormat, name, s)
		}
		f |= bit
	}
	return f, nil
}

func attributeByName(name string) (VertexFormat, bool) {
	switch name {
	case "uv", "texcoord", "texcoord0":
		name = "uv0"
	case "texcoord1":
		name = "uv1"
	}
	for i, a := range attributes {
		if a.name == name {
			return VertexFormat(1 << i), true
		}
	}
	return 0, false
}
