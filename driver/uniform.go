// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

// UniformType is the data type of a uniform element.
type UniformType uint8

const (
	UniformInt UniformType = iota
	UniformFloat
	UniformVec2
	UniformVec3
	UniformVec4
	UniformMat4
)

var uniformSizes = [...]uint32{
	UniformInt:   4,
	UniformFloat: 4,
	UniformVec2:  8,
	UniformVec3:  12,
	UniformVec4:  16,
	UniformMat4:  64,
}

// Size returns the size of the type in bytes.
func (t UniformType) Size() uint32 {
	if int(t) < len(uniformSizes) {
		return uniformSizes[t]
	}
	return 0
}

// UniformElement is one named field of a constant buffer.
type UniformElement struct {
	Name   string
	Type   UniformType
	Offset uint32
}

// UniformLayoutSize returns the number of bytes a layout spans.
func UniformLayoutSize(layout []UniformElement) uint32 {
	var size uint32
	for _, e := range layout {
		size = max(size, e.Offset+e.Type.Size())
	}
	return size
}
