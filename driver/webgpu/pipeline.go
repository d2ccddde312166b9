// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/internal/rlog"
	"github.com/gogpu/rvm/state"
)

const (
	constantBinding = 0
	textureBinding0 = constantBinding + uint32(state.MaxConstantBuffers)
	samplerBinding0 = textureBinding0 + uint32(state.MaxTextureSamplers)
)

// layoutCount is the number of bind group layouts: one per combination of
// cube map texture slots.
const layoutCount = 1 << state.MaxTextureSamplers

type bindLayout struct {
	group    hal.BindGroupLayout
	pipeline hal.PipelineLayout
}

// layout returns the bind group layout whose texture slots in cubeMask are
// cube maps.
func (d *Device) layout(cubeMask uint8) (*bindLayout, error) {
	if l := d.layouts[cubeMask]; l != nil {
		return l, nil
	}

	var entries []gputypes.BindGroupLayoutEntry
	for i := range uint32(state.MaxConstantBuffers) {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    constantBinding + i,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		})
	}
	for i := range uint32(state.MaxTextureSamplers) {
		dim := gputypes.TextureViewDimension2D
		if cubeMask&(1<<i) != 0 {
			dim = gputypes.TextureViewDimensionCube
		}
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    textureBinding0 + i,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: dim,
			},
		})
	}
	for i := range uint32(state.MaxTextureSamplers) {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    samplerBinding0 + i,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
		})
	}

	label := fmt.Sprintf("rvm-bind-layout-%d", cubeMask)
	group, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create %s: %w", label, err)
	}
	pl, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "-pipeline",
		BindGroupLayouts: []hal.BindGroupLayout{group},
	})
	if err != nil {
		d.device.DestroyBindGroupLayout(group)
		return nil, fmt.Errorf("webgpu: create %s pipeline layout: %w", label, err)
	}
	l := &bindLayout{group: group, pipeline: pl}
	d.layouts[cubeMask] = l
	return l, nil
}

// pipelineKey is everything a render pipeline is built from.
type pipelineKey struct {
	variant  *variant
	format   driver.VertexFormat
	target   gputypes.TextureFormat
	cubeMask uint8

	topology     gputypes.PrimitiveTopology
	blendSrc     gputypes.BlendFactor
	blendDst     gputypes.BlendFactor
	depthWrite   bool
	depthCompare gputypes.CompareFunction
	cull         gputypes.CullMode
	colorMask    gputypes.ColorWriteMask
}

// pipeline returns the cached render pipeline for key, creating it on a
// miss.
func (d *Device) pipeline(key pipelineKey) (hal.RenderPipeline, error) {
	if p, ok := d.pipelines.Get(key); ok {
		return p, nil
	}
	l, err := d.layout(key.cubeMask)
	if err != nil {
		return nil, err
	}

	attrs := key.format.Attributes()
	vertexAttrs := make([]gputypes.VertexAttribute, len(attrs))
	for i, a := range attrs {
		vertexAttrs[i] = gputypes.VertexAttribute{
			Format:         a.Format,
			Offset:         uint64(a.Offset),
			ShaderLocation: a.Location,
		}
	}

	var blend *gputypes.BlendState
	if key.blendSrc != gputypes.BlendFactorOne || key.blendDst != gputypes.BlendFactorZero {
		component := gputypes.BlendComponent{
			SrcFactor: key.blendSrc,
			DstFactor: key.blendDst,
			Operation: gputypes.BlendOperationAdd,
		}
		blend = &gputypes.BlendState{Color: component, Alpha: component}
	}

	primitive := gputypes.PrimitiveState{
		Topology:  key.topology,
		FrontFace: gputypes.FrontFaceCCW,
		CullMode:  key.cull,
	}
	if key.topology == gputypes.PrimitiveTopologyTriangleStrip || key.topology == gputypes.PrimitiveTopologyLineStrip {
		format := gputypes.IndexFormatUint16
		primitive.StripIndexFormat = &format
	}

	stencil := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}

	p, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "rvm-pipeline",
		Layout: l.pipeline,
		Vertex: hal.VertexState{
			Module:     key.variant.vertex,
			EntryPoint: vertexEntryPoint,
			Buffers: []gputypes.VertexBufferLayout{{
				ArrayStride: uint64(key.format.Size()),
				StepMode:    gputypes.VertexStepModeVertex,
				Attributes:  vertexAttrs,
			}},
		},
		Primitive: primitive,
		DepthStencil: &hal.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: key.depthWrite,
			DepthCompare:      key.depthCompare,
			StencilFront:      stencil,
			StencilBack:       stencil,
			StencilReadMask:   0xFF,
			StencilWriteMask:  0xFF,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		Fragment: &hal.FragmentState{
			Module:     key.variant.fragment,
			EntryPoint: fragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{{
				Format:    key.target,
				Blend:     blend,
				WriteMask: key.colorMask,
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create render pipeline: %w", err)
	}
	d.pipelines.Add(key, p)
	rlog.Logger().Debug("webgpu: render pipeline created",
		"format", key.format, "topology", key.topology, "cached", d.pipelines.Len())
	return p, nil
}

// bindKey is everything a bind group is built from.
type bindKey struct {
	layout   *bindLayout
	buffers  [state.MaxConstantBuffers]hal.Buffer
	sizes    [state.MaxConstantBuffers]uint64
	views    [state.MaxTextureSamplers]hal.TextureView
	samplers [state.MaxTextureSamplers]hal.Sampler
}

func (d *Device) bindGroup(key bindKey) (hal.BindGroup, error) {
	if g, ok := d.bindGroups.Get(key); ok {
		return g, nil
	}
	entries := make([]gputypes.BindGroupEntry, 0, len(key.buffers)+2*len(key.views))
	for i, buf := range key.buffers {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  constantBinding + uint32(i),
			Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Size: key.sizes[i]},
		})
	}
	for i, view := range key.views {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  textureBinding0 + uint32(i),
			Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()},
		})
	}
	for i, s := range key.samplers {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  samplerBinding0 + uint32(i),
			Resource: gputypes.SamplerBinding{Sampler: s.NativeHandle()},
		})
	}
	g, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "rvm-bind-group",
		Layout:  key.layout.group,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create bind group: %w", err)
	}
	d.bindGroups.Add(key, g)
	return g, nil
}
