// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rvm"
	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/resource"
	"github.com/gogpu/rvm/state"
)

// shadowMapSize is the edge length of the shadow map render target.
const shadowMapSize = 256

const shadowShader = `
[VertexShader]
struct Globals {
    view_proj: mat4x4<f32>,
    light_view_proj: mat4x4<f32>,
    light_dir: vec4<f32>,
}

struct Instance {
    model: mat4x4<f32>,
    color: vec4<f32>,
}

@group(0) @binding(0) var<uniform> globals: Globals;
@group(0) @binding(2) var<uniform> instance: Instance;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) depth: f32,
}

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(2) normal: vec3<f32>) -> VertexOutput {
    var out: VertexOutput;
    let clip = globals.light_view_proj * instance.model * vec4<f32>(position, 1.0);
    out.position = clip;
    out.depth = clip.z / clip.w;
    return out;
}

[FragmentShader]
@fragment
fn fs_main(@location(0) depth: f32) -> @location(0) vec4<f32> {
    return vec4<f32>(depth, depth, depth, 1.0);
}
`

const litShader = `
[VertexShader]
struct Globals {
    view_proj: mat4x4<f32>,
    light_view_proj: mat4x4<f32>,
    light_dir: vec4<f32>,
}

struct Instance {
    model: mat4x4<f32>,
    color: vec4<f32>,
}

@group(0) @binding(0) var<uniform> globals: Globals;
@group(0) @binding(2) var<uniform> instance: Instance;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) world: vec3<f32>,
    @location(1) normal: vec3<f32>,
}

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(2) normal: vec3<f32>) -> VertexOutput {
    var out: VertexOutput;
    let world = instance.model * vec4<f32>(position, 1.0);
    out.position = globals.view_proj * world;
    out.world = world.xyz;
    out.normal = (instance.model * vec4<f32>(normal, 0.0)).xyz;
    return out;
}

[FragmentShader]
struct Globals {
    view_proj: mat4x4<f32>,
    light_view_proj: mat4x4<f32>,
    light_dir: vec4<f32>,
}

struct Instance {
    model: mat4x4<f32>,
    color: vec4<f32>,
}

@group(0) @binding(0) var<uniform> globals: Globals;
@group(0) @binding(2) var<uniform> instance: Instance;
@group(0) @binding(3) var shadow_map: texture_2d<f32>;
@group(0) @binding(6) var shadow_sampler: sampler;

@fragment
fn fs_main(@location(0) world: vec3<f32>, @location(1) normal: vec3<f32>) -> @location(0) vec4<f32> {
    let diffuse = max(dot(normalize(normal), -globals.light_dir.xyz), 0.0);
    let light = globals.light_view_proj * vec4<f32>(world, 1.0);
    let uv = vec2<f32>(light.x * 0.5 + 0.5, 0.5 - light.y * 0.5);
    let occluder = textureSampleLevel(shadow_map, shadow_sampler, uv, 0.0).r;
    let lit = select(1.0, 0.35, light.z - 0.02 > occluder);
    let shadowed = f32(FEATURES_LO & 1u);
    let visibility = mix(1.0, lit, shadowed);
    let shade = 0.2 + 0.8 * diffuse * visibility;
    return vec4<f32>(instance.color.rgb * shade, instance.color.a);
}
`

// meshFormat is the vertex format of every mesh in the scene.
const meshFormat = driver.VertexPosition | driver.VertexNormal

var (
	globalElements = []driver.UniformElement{
		{Name: "view_proj", Type: driver.UniformMat4, Offset: 0},
		{Name: "light_view_proj", Type: driver.UniformMat4, Offset: 64},
		{Name: "light_dir", Type: driver.UniformVec4, Offset: 128},
	}
	instanceElements = []driver.UniformElement{
		{Name: "model", Type: driver.UniformMat4, Offset: 0},
		{Name: "color", Type: driver.UniformVec4, Offset: 64},
	}
)

// scene holds the resources of the demo: a ground plane and a spinning
// square casting a shadow onto it.
type scene struct {
	width, height uint32

	shadowProgram resource.ID
	litProgram    resource.ID
	layout        resource.ID
	vertices      resource.ID
	indices       resource.ID
	globals       resource.ID
	ground        resource.ID
	occluder      resource.ID
	shadowed      state.Features
}

// newScene requests the scene resources from ctx. They are created on the
// device by the first Display.
func newScene(ctx *rvm.Context) (*scene, error) {
	s := &scene{}
	s.width, s.height = ctx.View().Size()

	var err error
	if s.shadowProgram, err = ctx.RequestShader(shadowShader); err != nil {
		return nil, fmt.Errorf("shadow program: %w", err)
	}
	if s.litProgram, err = ctx.RequestShader(litShader); err != nil {
		return nil, fmt.Errorf("lit program: %w", err)
	}

	features, err := ctx.RequestFeatureLayout([]rvm.PipelineFeature{{Name: "shadowed", Bits: 1}})
	if err != nil {
		return nil, err
	}
	fl, _ := ctx.FeatureLayout(features)
	if s.shadowed, err = fl.Bits("shadowed"); err != nil {
		return nil, err
	}

	if s.layout, err = ctx.RequestInputLayout(meshFormat); err != nil {
		return nil, err
	}
	if s.vertices, err = ctx.RequestVertexBuffer(quadVertices()); err != nil {
		return nil, err
	}
	if s.indices, err = ctx.RequestIndexBuffer(quadIndices()); err != nil {
		return nil, err
	}

	globalLayout, err := ctx.RequestUniformLayout("globals", globalElements)
	if err != nil {
		return nil, err
	}
	instanceLayout, err := ctx.RequestUniformLayout("instance", instanceElements)
	if err != nil {
		return nil, err
	}
	if s.globals, err = ctx.RequestConstantBuffer(s.globalData(), globalLayout); err != nil {
		return nil, err
	}
	ground := instanceData(scale(2), [4]float32{0.45, 0.7, 0.4, 1})
	if s.ground, err = ctx.RequestConstantBuffer(ground, instanceLayout); err != nil {
		return nil, err
	}
	if s.occluder, err = ctx.RequestConstantBuffer(s.occluderData(0), instanceLayout); err != nil {
		return nil, err
	}
	return s, nil
}

// record fills frame with the commands of frame number n: a shadow pass
// into an intermediate target followed by the lit pass into the view.
func (s *scene) record(frame *rvm.Frame, n int) {
	entry := frame.EntryPoint()
	entry.UploadConstantBuffer(s.occluder, s.occluderData(n))

	mesh := frame.CreateStateBlock()
	mesh.BindInputLayout(s.layout)
	mesh.BindVertexBuffer(s.vertices)
	mesh.BindIndexBuffer(s.indices)

	ground := frame.CreateStateBlock()
	ground.BindConstantBuffer(s.ground, state.InstanceConstants)
	occluder := frame.CreateStateBlock()
	occluder.BindConstantBuffer(s.occluder, state.InstanceConstants)

	shadowMap := entry.AcquireRenderTarget(shadowMapSize, shadowMapSize, gputypes.TextureFormatRGBA8Unorm)

	shadowPass := frame.CreateStateBlock()
	shadowPass.BindProgram(s.shadowProgram)
	shadowPass.BindConstantBuffer(s.globals, state.GlobalConstants)
	shadowPass.SetCullFace(gputypes.CullModeNone)

	pass := entry.RenderToTarget(shadowMap, state.FullRect)
	pass.Clear(0, gputypes.Color{R: 1, G: 1, B: 1, A: 1}, state.FullRect, driver.ClearAll)
	pass.DrawIndexed(0, gputypes.PrimitiveTopologyTriangleList,
		state.Stack{shadowPass, mesh, occluder}, 0, quadIndexCount)

	litPass := frame.CreateStateBlock()
	litPass.BindProgram(s.litProgram)
	litPass.BindConstantBuffer(s.globals, state.GlobalConstants)
	litPass.SetCullFace(gputypes.CullModeNone)

	receiver := frame.CreateStateBlock()
	receiver.EnableFeatures(s.shadowed)
	receiver.BindTransientTexture(shadowMap, state.Texture0)

	entry.Clear(0, gputypes.Color{R: 0.1, G: 0.12, B: 0.18, A: 1}, state.FullRect, driver.ClearAll)
	lit := frame.CreateCommandBuffer()
	lit.DrawIndexed(1, gputypes.PrimitiveTopologyTriangleList,
		state.Stack{litPass, mesh, ground, receiver}, 0, quadIndexCount)
	lit.DrawIndexed(0, gputypes.PrimitiveTopologyTriangleList,
		state.Stack{litPass, mesh, occluder}, 0, quadIndexCount)
	entry.Execute(lit)

	entry.ReleaseRenderTarget(shadowMap)
}

// release records the deletion of the scene resources.
func (s *scene) release(ctx *rvm.Context) {
	ctx.DeleteConstantBuffer(s.occluder)
	ctx.DeleteConstantBuffer(s.ground)
	ctx.DeleteConstantBuffer(s.globals)
	ctx.DeleteIndexBuffer(s.indices)
	ctx.DeleteVertexBuffer(s.vertices)
	ctx.DeleteProgram(s.litProgram)
	ctx.DeleteProgram(s.shadowProgram)
}

func (s *scene) globalData() []byte {
	aspect := float32(s.width) / float32(max(s.height, 1))
	view := lookAt([3]float32{0, 3, 4}, [3]float32{0, 0, 0}, [3]float32{0, 1, 0})
	viewProj := perspective(math.Pi/4, aspect, 0.1, 20).mul(view)
	light := lightViewProj()

	data := make([]byte, 144)
	putFloats(data[0:], viewProj[:]...)
	putFloats(data[64:], light[:]...)
	putFloats(data[128:], 0, -1, 0, 0)
	return data
}

func (s *scene) occluderData(n int) []byte {
	angle := float32(n) * math.Pi / 90
	model := translate(0, 1, 0).mul(rotateY(angle)).mul(scale(0.6))
	return instanceData(model, [4]float32{0.85, 0.35, 0.3, 1})
}

func instanceData(model mat4, color [4]float32) []byte {
	data := make([]byte, 80)
	putFloats(data[0:], model[:]...)
	putFloats(data[64:], color[:]...)
	return data
}

const quadIndexCount = 6

// quadVertices returns a unit square in the XZ plane facing +Y.
func quadVertices() []byte {
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	data := make([]byte, 0, len(corners)*int(meshFormat.Size()))
	for _, c := range corners {
		data = appendFloats(data, c[0], 0, c[1], 0, 1, 0)
	}
	return data
}

func quadIndices() []byte {
	var data []byte
	for _, i := range []uint16{0, 1, 2, 0, 2, 3} {
		data = binary.LittleEndian.AppendUint16(data, i)
	}
	return data
}

// lightViewProj projects the scene straight down the Y axis onto the
// shadow map. Points higher up get smaller depths.
func lightViewProj() mat4 {
	return mat4{
		0.5, 0, 0, 0,
		0, 0, -0.25, 0,
		0, 0.5, 0, 0,
		0, 0, 0.75, 1,
	}
}

func putFloats(dst []byte, v ...float32) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(f))
	}
}

func appendFloats(dst []byte, v ...float32) []byte {
	for _, f := range v {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}
