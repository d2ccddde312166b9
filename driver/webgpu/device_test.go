// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/resource"
	"github.com/gogpu/rvm/state"
)

const testVertexShader = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
}

@vertex
fn vs_main(@location(0) position: vec3<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(position, 1.0);
    return out;
}
`

const testFragmentShader = `
@fragment
fn fs_main() -> @location(0) vec4<f32> {
    let red = f32(FEATURES_LO & 1u);
    return vec4<f32>(red, 0.0, 0.0, 1.0);
}
`

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 64, 32
	cfg.Format = gputypes.TextureFormatRGBA8Unorm
	return cfg
}

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	d, err := New(device, queue, testConfig())
	if err != nil {
		cleanup()
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
		cleanup()
	})
	return d
}

func triangle() []byte {
	coords := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	data := make([]byte, 4*len(coords))
	for i, c := range coords {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(c))
	}
	return data
}

// scene creates the resources of a single textured draw.
func scene(t *testing.T, d *Device) {
	t.Helper()
	must := func(what string, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("%s: %v", what, err)
		}
	}
	must("CreateInputLayout", d.CreateInputLayout(1, driver.VertexPosition))
	must("CreateVertexBuffer", d.CreateVertexBuffer(1, triangle()))
	must("CreateIndexBuffer", d.CreateIndexBuffer(1, []byte{0, 0, 1, 0, 2, 0}))
	must("CreateConstantBuffer", d.CreateConstantBuffer(1, make([]byte, 64),
		[]driver.UniformElement{{Name: "transform", Type: driver.UniformMat4}}))
	must("CreateTexture", d.CreateTexture(1, driver.TextureDescriptor{
		Width: 2, Height: 2, Format: gputypes.TextureFormatRGBA8Unorm, Filter: driver.FilterLinear,
	}, make([]byte, 16)))
	must("CreateProgram", d.CreateProgram(1, driver.ProgramDescriptor{
		Name: "test", Vertex: testVertexShader, Fragment: testFragmentShader,
	}))
	must("CreateRenderTarget", d.CreateRenderTarget(1, driver.RenderTargetDescriptor{
		Width: 16, Height: 16, Format: gputypes.TextureFormatRGBA8Unorm,
	}))
}

func bindScene(d *Device) {
	d.SetInputLayout(1)
	d.SetVertexBuffer(1)
	d.SetConstantBuffer(state.GlobalConstants, 1)
	d.SetProgram(1, 0)
}

func TestNewValidatesConfig(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	cfg := testConfig()
	cfg.Width = 0
	if _, err := New(device, queue, cfg); err == nil {
		t.Error("New accepted an empty output")
	}
	cfg = testConfig()
	cfg.Format = gputypes.TextureFormatDepth24PlusStencil8
	if _, err := New(device, queue, cfg); !errors.Is(err, driver.ErrUnsupportedFormat) {
		t.Errorf("depth output format error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := New(nil, queue, testConfig()); err == nil {
		t.Error("New accepted a nil device")
	}
}

func TestSize(t *testing.T) {
	d := newTestDevice(t)
	if w, h := d.Size(); w != 64 || h != 32 {
		t.Errorf("Size() = %dx%d, want 64x32", w, h)
	}
}

func TestCreateErrors(t *testing.T) {
	d := newTestDevice(t)

	if err := d.CreateVertexBuffer(resource.Invalid, triangle()); !errors.Is(err, driver.ErrUnknownResource) {
		t.Errorf("invalid id error = %v, want ErrUnknownResource", err)
	}
	if err := d.CreateVertexBuffer(1, triangle()); err != nil {
		t.Fatalf("CreateVertexBuffer: %v", err)
	}
	if err := d.CreateVertexBuffer(1, triangle()); !errors.Is(err, driver.ErrResourceExists) {
		t.Errorf("duplicate error = %v, want ErrResourceExists", err)
	}
	if err := d.CreateIndexBuffer(1, []byte{1, 2, 3}); !errors.Is(err, driver.ErrDataSize) {
		t.Errorf("odd index buffer error = %v, want ErrDataSize", err)
	}
	if err := d.CreateInputLayout(1, 0); !errors.Is(err, driver.ErrInvalidVertexFormat) {
		t.Errorf("empty input layout error = %v, want ErrInvalidVertexFormat", err)
	}
	err := d.CreateConstantBuffer(1, make([]byte, 8), []driver.UniformElement{{Name: "m", Type: driver.UniformMat4}})
	if !errors.Is(err, driver.ErrDataSize) {
		t.Errorf("short constant buffer error = %v, want ErrDataSize", err)
	}
	err = d.CreateTexture(1, driver.TextureDescriptor{Width: 2, Height: 2, Format: gputypes.TextureFormatRGBA8Unorm},
		make([]byte, 3))
	if !errors.Is(err, driver.ErrDataSize) {
		t.Errorf("short texture error = %v, want ErrDataSize", err)
	}
	if err := d.CreateProgram(1, driver.ProgramDescriptor{Name: "half", Vertex: testVertexShader}); err == nil {
		t.Error("CreateProgram accepted a missing fragment stage")
	}
	if err := d.Delete(resource.TypeTexture, 9); !errors.Is(err, driver.ErrUnknownResource) {
		t.Errorf("Delete unknown error = %v, want ErrUnknownResource", err)
	}
}

func TestCreateProgramCompileError(t *testing.T) {
	d := newTestDevice(t)
	err := d.CreateProgram(1, driver.ProgramDescriptor{
		Name: "broken", Vertex: "fn vs_main( {", Fragment: testFragmentShader,
	})
	if err == nil {
		t.Fatal("CreateProgram accepted broken WGSL")
	}
	if !strings.Contains(err.Error(), "broken-vs") {
		t.Errorf("error %q does not name the stage", err)
	}
	if _, ok := d.programs[1]; ok {
		t.Error("failed program was registered")
	}
}

func TestCubeTexture(t *testing.T) {
	d := newTestDevice(t)
	desc := driver.TextureDescriptor{
		Type: driver.TextureCube, Width: 4, Height: 4, MipLevels: 3,
		Format: gputypes.TextureFormatRGBA8Unorm, Filter: driver.FilterMipLinear,
	}
	size, err := driver.TextureDataSize(desc)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.CreateTexture(1, desc, make([]byte, size)); err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	tex := d.textures[1]
	if !tex.cube || tex.sampler != samplerMipLinear {
		t.Errorf("texture = %+v, want cube with mip-linear sampler", tex)
	}
}

func TestDrawOutsideFrame(t *testing.T) {
	d := newTestDevice(t)
	scene(t, d)
	bindScene(d)
	if err := d.RenderPrimitives(gputypes.PrimitiveTopologyTriangleList, 0, 3); !errors.Is(err, driver.ErrNotInFrame) {
		t.Errorf("draw error = %v, want ErrNotInFrame", err)
	}
	if err := d.Clear(gputypes.Color{}, 1, 0, driver.ClearAll); !errors.Is(err, driver.ErrNotInFrame) {
		t.Errorf("clear error = %v, want ErrNotInFrame", err)
	}
	if err := d.EndFrame(false); !errors.Is(err, driver.ErrNotInFrame) {
		t.Errorf("EndFrame error = %v, want ErrNotInFrame", err)
	}
}

func TestFrame(t *testing.T) {
	d := newTestDevice(t)
	scene(t, d)

	if err := d.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	if err := d.BeginFrame(); err == nil {
		t.Error("nested BeginFrame succeeded")
	}
	bindScene(d)

	// Render into the intermediate target.
	if err := d.SetRenderTarget(1); err != nil {
		t.Fatalf("SetRenderTarget: %v", err)
	}
	if err := d.Clear(gputypes.Color{A: 1}, 1, 0, driver.ClearAll); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := d.RenderPrimitives(gputypes.PrimitiveTopologyTriangleList, 0, 3); err != nil {
		t.Fatalf("RenderPrimitives: %v", err)
	}

	// Sample it while drawing to the output.
	if err := d.SetRenderTarget(resource.Invalid); err != nil {
		t.Fatalf("SetRenderTarget(0): %v", err)
	}
	d.SetRenderedTexture(state.Texture0, 1)
	d.SetTexture(state.Texture1, 1)
	if err := d.RenderIndexed(gputypes.PrimitiveTopologyTriangleList, 1, 0, 3); err != nil {
		t.Fatalf("RenderIndexed: %v", err)
	}

	if got := d.frame.passes; got != 2 {
		t.Errorf("passes = %d, want 2", got)
	}
	if got := d.frame.draws; got != 2 {
		t.Errorf("draws = %d, want 2", got)
	}
	if got := d.pipelines.Len(); got != 1 {
		t.Errorf("pipelines = %d, want 1 shared by both targets", got)
	}
	if got := d.bindGroups.Len(); got != 2 {
		t.Errorf("bind groups = %d, want 2", got)
	}
	if err := d.EndFrame(true); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	if d.graves.Len() != 0 {
		t.Errorf("%d retired objects left after a completed frame", d.graves.Len())
	}
}

func TestPipelineState(t *testing.T) {
	d := newTestDevice(t)
	scene(t, d)
	if err := d.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	bindScene(d)
	draw := func() {
		t.Helper()
		if err := d.RenderPrimitives(gputypes.PrimitiveTopologyTriangleList, 0, 3); err != nil {
			t.Fatalf("RenderPrimitives: %v", err)
		}
	}

	draw()
	draw()
	if got := d.pipelines.Len(); got != 1 {
		t.Fatalf("pipelines = %d, want 1", got)
	}
	d.SetBlendFactors(gputypes.BlendFactorSrcAlpha, gputypes.BlendFactorOneMinusSrcAlpha)
	draw()
	d.SetCulling(gputypes.CullModeNone)
	draw()
	if got := d.pipelines.Len(); got != 3 {
		t.Errorf("pipelines = %d, want 3", got)
	}

	// Features and alpha test select shader variants.
	d.SetProgram(1, 1)
	draw()
	d.SetAlphaTest(gputypes.CompareFunctionGreater, 0.5)
	draw()
	d.SetAlphaTest(gputypes.CompareFunctionAlways, 0)
	draw()
	if got := len(d.programs[1].variants); got != 3 {
		t.Errorf("variants = %d, want 3", got)
	}
	if err := d.EndFrame(false); err != nil {
		t.Fatal(err)
	}
}

func TestDrawErrors(t *testing.T) {
	d := newTestDevice(t)
	scene(t, d)
	if err := d.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	defer d.EndFrame(false)

	bindScene(d)
	d.SetProgram(7, 0)
	if err := d.RenderPrimitives(gputypes.PrimitiveTopologyTriangleList, 0, 3); !errors.Is(err, driver.ErrUnknownResource) {
		t.Errorf("unknown program error = %v, want ErrUnknownResource", err)
	}
	bindScene(d)
	if err := d.RenderIndexed(gputypes.PrimitiveTopologyTriangleList, 5, 0, 3); !errors.Is(err, driver.ErrUnknownResource) {
		t.Errorf("unknown index buffer error = %v, want ErrUnknownResource", err)
	}
	if err := d.SetRenderTarget(3); !errors.Is(err, driver.ErrUnknownResource) {
		t.Errorf("unknown target error = %v, want ErrUnknownResource", err)
	}

	// Sampling the target being rendered into.
	if err := d.SetRenderTarget(1); err != nil {
		t.Fatal(err)
	}
	d.SetRenderedTexture(state.Texture0, 1)
	if err := d.RenderPrimitives(gputypes.PrimitiveTopologyTriangleList, 0, 3); err == nil {
		t.Error("draw sampled its own render target")
	}
}

func TestUploadGrowsBuffer(t *testing.T) {
	d := newTestDevice(t)
	if err := d.CreateVertexBuffer(1, triangle()); err != nil {
		t.Fatal(err)
	}
	old := d.vertexBuffers[1]
	if err := d.UploadVertexBuffer(1, triangle()[:12]); err != nil {
		t.Fatalf("UploadVertexBuffer: %v", err)
	}
	if d.vertexBuffers[1] != old {
		t.Error("smaller upload replaced the buffer")
	}

	big := append(triangle(), triangle()...)
	if err := d.UploadVertexBuffer(1, big); err != nil {
		t.Fatalf("UploadVertexBuffer: %v", err)
	}
	if got := d.vertexBuffers[1].size; got < uint64(len(big)) {
		t.Errorf("grown size = %d, want at least %d", got, len(big))
	}
	if err := d.UploadConstantBuffer(4, nil); !errors.Is(err, driver.ErrUnknownResource) {
		t.Errorf("upload unknown error = %v, want ErrUnknownResource", err)
	}
}

func TestDeleteRetiresObjects(t *testing.T) {
	d := newTestDevice(t)
	scene(t, d)
	for _, typ := range []resource.Type{
		resource.TypeInputLayout, resource.TypeVertexBuffer, resource.TypeIndexBuffer,
		resource.TypeConstantBuffer, resource.TypeTexture, resource.TypeProgram, resource.TypeRenderTarget,
	} {
		if err := d.Delete(typ, 1); err != nil {
			t.Errorf("Delete(%s): %v", typ, err)
		}
		if err := d.Delete(typ, 1); !errors.Is(err, driver.ErrUnknownResource) {
			t.Errorf("second Delete(%s) = %v, want ErrUnknownResource", typ, err)
		}
	}
	if err := d.Delete(resource.TypeUniformLayout, 1); err == nil {
		t.Error("Delete accepted a type the device does not store")
	}

	// Nothing was submitted, so the next frame releases everything.
	if err := d.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if n := d.graves.Len(); n != 0 {
		t.Errorf("%d objects still retired", n)
	}
	if err := d.EndFrame(false); err != nil {
		t.Fatal(err)
	}
}

func TestViewportRect(t *testing.T) {
	if got, want := viewportRect(state.Rect{}, 64, 32), [4]float32{0, 0, 64, 32}; got != want {
		t.Errorf("zero viewport = %v, want %v", got, want)
	}
	got := viewportRect(state.Rect{X: 0.5, Y: 0.25, Width: 0.5, Height: 0.5}, 64, 32)
	if want := [4]float32{32, 8, 32, 16}; got != want {
		t.Errorf("viewport = %v, want %v", got, want)
	}
}

func TestReadPixels(t *testing.T) {
	d := newTestDevice(t)
	img, err := d.ReadPixels()
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Errorf("bounds = %v, want 64x32", b)
	}

	if err := d.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if _, err := d.ReadPixels(); err == nil {
		t.Error("ReadPixels succeeded during a frame")
	}
	if err := d.EndFrame(false); err != nil {
		t.Fatal(err)
	}
}

func TestClose(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	d, err := New(device, queue, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	scene(t, d)
	if err := d.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := d.BeginFrame(); err == nil {
		t.Error("BeginFrame succeeded after Close")
	}
	if err := d.CreateVertexBuffer(2, triangle()); err == nil {
		t.Error("CreateVertexBuffer succeeded after Close")
	}
}

func TestOpenBackend(t *testing.T) {
	d, err := OpenBackend(gputypes.BackendEmpty, testConfig())
	if err != nil {
		t.Fatalf("OpenBackend: %v", err)
	}
	if d.release == nil {
		t.Error("standalone device does not own its HAL device")
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

type halProvider struct {
	gpucontext.DeviceProvider
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat
}

func (p *halProvider) HalDevice() any                        { return p.device }
func (p *halProvider) HalQueue() any                         { return p.queue }
func (p *halProvider) SurfaceFormat() gputypes.TextureFormat { return p.format }
func (p *halProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "test"}
}

type plainProvider struct {
	gpucontext.DeviceProvider
}

func TestNewFromProvider(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p := &halProvider{device: device, queue: queue, format: gputypes.TextureFormatBGRA8Unorm}
	d, err := NewFromProvider(p, testConfig())
	if err != nil {
		t.Fatalf("NewFromProvider: %v", err)
	}
	if d.Config().Format != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("format = %v, want the surface format", d.Config().Format)
	}
	if d.release != nil {
		t.Error("shared device must not be released by Close")
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFromProvider(plainProvider{}, testConfig()); err == nil {
		t.Error("NewFromProvider accepted a provider without HAL access")
	}
}
