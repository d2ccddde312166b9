// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rvm

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"

	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/resource"
)

// Section markers of a combined shader source.
const (
	VertexShaderMarker   = "[VertexShader]"
	FragmentShaderMarker = "[FragmentShader]"
)

// ShaderSource holds the WGSL code of both program stages.
type ShaderSource struct {
	Vertex   string
	Fragment string
}

// ParseShaderSource splits a combined source into its vertex and fragment
// sections. A section runs from its marker to the other marker or the end
// of the text; text before the first marker is ignored. A source with no
// marker at all is an error. A missing section is left empty.
func ParseShaderSource(source string) (ShaderSource, error) {
	vs := strings.Index(source, VertexShaderMarker)
	fs := strings.Index(source, FragmentShaderMarker)
	if vs < 0 && fs < 0 {
		return ShaderSource{}, fmt.Errorf("%w: no %s or %s section",
			ErrShaderSource, VertexShaderMarker, FragmentShaderMarker)
	}

	var out ShaderSource
	if vs >= 0 {
		out.Vertex = section(source, vs+len(VertexShaderMarker), fs)
	}
	if fs >= 0 {
		out.Fragment = section(source, fs+len(FragmentShaderMarker), vs)
	}
	return out, nil
}

// section returns source[start:] cut at next when next follows start.
func section(source string, start, next int) string {
	if next >= start {
		return strings.TrimSpace(source[start:next])
	}
	return strings.TrimSpace(source[start:])
}

// RequestShader creates a program from a combined source.
func (c *Context) RequestShader(source string) (resource.ID, error) {
	s, err := ParseShaderSource(source)
	if err != nil {
		return resource.Invalid, err
	}
	return c.RequestProgramSource(s.Vertex, s.Fragment)
}

// RequestProgramSource creates a program from vertex and fragment WGSL.
func (c *Context) RequestProgramSource(vertex, fragment string) (resource.ID, error) {
	return c.RequestProgram(driver.ProgramDescriptor{Vertex: vertex, Fragment: fragment})
}

// RequestProgram creates a program. Both stages are required. With
// WithShaderValidation each stage is parsed, lowered and validated first.
func (c *Context) RequestProgram(desc driver.ProgramDescriptor) (resource.ID, error) {
	if strings.TrimSpace(desc.Vertex) == "" {
		return resource.Invalid, fmt.Errorf("%w: program %q has no vertex stage", ErrShaderSource, desc.Name)
	}
	if strings.TrimSpace(desc.Fragment) == "" {
		return resource.Invalid, fmt.Errorf("%w: program %q has no fragment stage", ErrShaderSource, desc.Name)
	}
	if c.validateShaders {
		if err := validateWGSL(desc.Vertex); err != nil {
			return resource.Invalid, fmt.Errorf("%w: program %q vertex stage: %w", ErrShaderSource, desc.Name, err)
		}
		if err := validateWGSL(desc.Fragment); err != nil {
			return resource.Invalid, fmt.Errorf("%w: program %q fragment stage: %w", ErrShaderSource, desc.Name, err)
		}
	}

	id := c.pools.Allocate(resource.TypeProgram)
	c.programs[id] = desc
	c.construction.CreateProgram(id, desc)
	return id, nil
}

// Program returns the descriptor a program was created from.
func (c *Context) Program(id resource.ID) (driver.ProgramDescriptor, bool) {
	desc, ok := c.programs[id]
	return desc, ok
}

// validateWGSL runs the front half of the naga pipeline on source.
// The driver constant prefix is prepended so stages may reference it.
func validateWGSL(source string) error {
	source = driver.ShaderPrefix(0, gputypes.CompareFunctionUndefined, 0) + source
	ast, err := naga.Parse(source)
	if err != nil {
		return err
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return err
	}
	errs, err := naga.Validate(module)
	if err != nil {
		return err
	}
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("validation: %s", errs[0].Message)
	}
	return fmt.Errorf("validation: %s (and %d more)", errs[0].Message, len(errs)-1)
}
