// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rvm

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/resource"
)

// RequestUniformLayout registers a named constant-buffer layout.
// Elements are taken up to the first one with an empty name and sorted by
// offset. Registering the same name twice is an error.
func (c *Context) RequestUniformLayout(name string, elements []driver.UniformElement) (resource.ID, error) {
	if name == "" {
		return resource.Invalid, fmt.Errorf("%w: uniform layout without a name", ErrInvalidData)
	}
	if _, ok := c.uniformNames[name]; ok {
		return resource.Invalid, fmt.Errorf("%w: %q", ErrUniformLayoutExists, name)
	}
	id, err := c.registerUniformLayout(elements)
	if err != nil {
		return resource.Invalid, fmt.Errorf("uniform layout %q: %w", name, err)
	}
	c.uniformNames[name] = id
	return id, nil
}

// FindUniformLayout returns the layout registered under name.
func (c *Context) FindUniformLayout(name string) (resource.ID, bool) {
	id, ok := c.uniformNames[name]
	return id, ok
}

// UniformLayout returns the elements of a layout sorted by offset.
func (c *Context) UniformLayout(id resource.ID) ([]driver.UniformElement, bool) {
	l, ok := c.uniformLayouts[id]
	return l, ok
}

// DeleteUniformLayout forgets a layout. Constant buffers created with it
// keep their copy of the elements.
func (c *Context) DeleteUniformLayout(id resource.ID) {
	if _, ok := c.uniformLayouts[id]; !ok {
		panic(fmt.Sprintf("rvm: delete of unknown uniform layout %d", id))
	}
	for name, l := range c.uniformNames {
		if l == id {
			delete(c.uniformNames, name)
		}
	}
	delete(c.uniformLayouts, id)
	c.pools.Release(resource.TypeUniformLayout, id)
}

func (c *Context) registerUniformLayout(elements []driver.UniformElement) (resource.ID, error) {
	n := slices.IndexFunc(elements, func(e driver.UniformElement) bool { return e.Name == "" })
	if n < 0 {
		n = len(elements)
	}
	layout := slices.Clone(elements[:n])
	for _, e := range layout {
		if e.Type.Size() == 0 {
			return resource.Invalid, fmt.Errorf("%w: element %q has unknown type %d", ErrInvalidData, e.Name, e.Type)
		}
	}
	slices.SortStableFunc(layout, func(a, b driver.UniformElement) int {
		return cmp.Compare(a.Offset, b.Offset)
	})

	id := c.pools.Allocate(resource.TypeUniformLayout)
	c.uniformLayouts[id] = layout
	return id, nil
}

// RequestConstantBuffer creates a constant buffer initialised with data and
// described by a registered layout. layout may be resource.Invalid for a
// buffer without named elements. data must cover the whole layout.
func (c *Context) RequestConstantBuffer(data []byte, layout resource.ID) (resource.ID, error) {
	var elements []driver.UniformElement
	if layout != resource.Invalid {
		l, ok := c.uniformLayouts[layout]
		if !ok {
			return resource.Invalid, fmt.Errorf("%w: %d", ErrUnknownUniformLayout, layout)
		}
		elements = l
	}
	if len(data) == 0 {
		return resource.Invalid, fmt.Errorf("%w: empty constant buffer", ErrInvalidData)
	}
	if need := driver.UniformLayoutSize(elements); uint32(len(data)) < need {
		return resource.Invalid, fmt.Errorf("%w: constant buffer has %d bytes, layout needs %d",
			ErrInvalidData, len(data), need)
	}

	id := c.pools.Allocate(resource.TypeConstantBuffer)
	c.construction.CreateConstantBuffer(id, data, elements)
	return id, nil
}

// RequestConstantBufferElements creates a constant buffer with an inline
// layout. The layout is released together with the buffer.
func (c *Context) RequestConstantBufferElements(data []byte, elements []driver.UniformElement) (resource.ID, error) {
	layout, err := c.registerUniformLayout(elements)
	if err != nil {
		return resource.Invalid, err
	}
	id, err := c.RequestConstantBuffer(data, layout)
	if err != nil {
		c.DeleteUniformLayout(layout)
		return resource.Invalid, err
	}
	c.inlineLayouts[id] = layout
	return id, nil
}
