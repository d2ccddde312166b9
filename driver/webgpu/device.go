// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/internal/native"
	"github.com/gogpu/rvm/internal/rlog"
	"github.com/gogpu/rvm/resource"
	"github.com/gogpu/rvm/state"
)

// DepthFormat is the depth attachment format of every render target.
const DepthFormat = gputypes.TextureFormatDepth24PlusStencil8

type buffer struct {
	buf  hal.Buffer
	size uint64
}

type texture struct {
	tex  hal.Texture
	view hal.TextureView
	cube bool
	// sampler indexes Device.samplers.
	sampler int
}

type renderTarget struct {
	width, height uint32
	format        gputypes.TextureFormat

	color     hal.Texture
	colorView hal.TextureView
	depth     hal.Texture
	depthView hal.TextureView
}

// Device is a driver.Device and driver.View backed by a HAL device.
//
// A Device is not safe for concurrent use.
type Device struct {
	device hal.Device
	queue  hal.Queue
	cfg    Config

	// release tears down a device opened by Open.
	release func()

	inputLayouts  map[resource.ID]driver.VertexFormat
	vertexBuffers map[resource.ID]*buffer
	indexBuffers  map[resource.ID]*buffer
	constants     map[resource.ID]*buffer
	textures      map[resource.ID]*texture
	programs      map[resource.ID]*program
	targets       map[resource.ID]*renderTarget

	samplers    [samplerCount]hal.Sampler
	white       *texture
	zeroUniform hal.Buffer
	layouts     [layoutCount]*bindLayout

	pipelines  *lru.Cache[pipelineKey, hal.RenderPipeline]
	bindGroups *lru.Cache[bindKey, hal.BindGroup]

	output   renderTarget
	external hal.TextureView

	st    drawState
	frame frameState

	graves    native.Graveyard
	submitted uint64
	closed    bool
}

var (
	_ driver.Device = (*Device)(nil)
	_ driver.View   = (*Device)(nil)
)

// New creates a device that renders with the given HAL device and queue.
// The caller keeps ownership of device and queue.
func New(device hal.Device, queue hal.Queue, cfg Config) (*Device, error) {
	if device == nil || queue == nil {
		return nil, errors.New("webgpu: nil HAL device or queue")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := checkColorFormat(cfg.Format); err != nil {
		return nil, fmt.Errorf("webgpu: output format: %w", err)
	}

	d := &Device{
		device:        device,
		queue:         queue,
		cfg:           cfg,
		inputLayouts:  make(map[resource.ID]driver.VertexFormat),
		vertexBuffers: make(map[resource.ID]*buffer),
		indexBuffers:  make(map[resource.ID]*buffer),
		constants:     make(map[resource.ID]*buffer),
		textures:      make(map[resource.ID]*texture),
		programs:      make(map[resource.ID]*program),
		targets:       make(map[resource.ID]*renderTarget),
	}
	d.resetState()

	var err error
	d.pipelines, err = lru.NewWithEvict[pipelineKey, hal.RenderPipeline](cfg.PipelineCacheSize,
		func(_ pipelineKey, p hal.RenderPipeline) {
			d.bury(func() { d.device.DestroyRenderPipeline(p) })
		})
	if err != nil {
		return nil, fmt.Errorf("webgpu: pipeline cache: %w", err)
	}
	d.bindGroups, err = lru.NewWithEvict[bindKey, hal.BindGroup](cfg.BindGroupCacheSize,
		func(_ bindKey, g hal.BindGroup) {
			d.bury(func() { d.device.DestroyBindGroup(g) })
		})
	if err != nil {
		return nil, fmt.Errorf("webgpu: bind group cache: %w", err)
	}

	if err := d.createDefaults(); err != nil {
		d.destroyAll()
		return nil, err
	}
	if err := d.createTarget(&d.output, "rvm-output", cfg.Width, cfg.Height, cfg.Format); err != nil {
		d.destroyAll()
		return nil, err
	}

	rlog.Logger().Info("webgpu: device created",
		"width", cfg.Width, "height", cfg.Height, "format", cfg.Format)
	return d, nil
}

// NewFromProvider creates a device sharing the HAL device of provider.
// The provider must expose HalDevice() and HalQueue() returning hal.Device
// and hal.Queue. A defined surface format overrides cfg.Format.
func NewFromProvider(provider gpucontext.DeviceProvider, cfg Config) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, errors.New("webgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return nil, fmt.Errorf("webgpu: HalDevice returned %T, want hal.Device", hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("webgpu: HalQueue returned %T, want hal.Queue", hp.HalQueue())
	}
	if f := provider.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
		cfg.Format = f
	}
	rlog.Logger().Debug("webgpu: using shared device", "adapter", provider.AdapterInfo().Name)
	return New(device, queue, cfg)
}

// Config returns the configuration the device was created with.
func (d *Device) Config() Config { return d.cfg }

// Size returns the output size in pixels.
func (d *Device) Size() (width, height uint32) { return d.output.width, d.output.height }

// SetOutputView renders frames into view instead of the offscreen output.
// view must have the configured format and size. A nil view restores the
// offscreen output.
func (d *Device) SetOutputView(view hal.TextureView) { d.external = view }

// Close waits for the GPU and destroys every resource. Close is idempotent.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.frame.encoder != nil {
		d.frame.endPass()
		d.frame.encoder.DiscardEncoding()
		d.frame.encoder.Destroy()
		d.frame = frameState{}
	}
	err := d.device.WaitIdle()
	d.destroyAll()
	if d.release != nil {
		d.release()
		d.release = nil
	}
	rlog.Logger().Debug("webgpu: device closed")
	return err
}

func (d *Device) destroyAll() {
	if d.pipelines != nil {
		d.pipelines.Purge()
	}
	if d.bindGroups != nil {
		d.bindGroups.Purge()
	}
	for id := range d.vertexBuffers {
		d.destroyBuffer(d.vertexBuffers, id)
	}
	for id := range d.indexBuffers {
		d.destroyBuffer(d.indexBuffers, id)
	}
	for id := range d.constants {
		d.destroyBuffer(d.constants, id)
	}
	for id, t := range d.textures {
		d.destroyTexture(t)
		delete(d.textures, id)
	}
	for id, p := range d.programs {
		d.destroyProgram(p)
		delete(d.programs, id)
	}
	for id, rt := range d.targets {
		d.destroyTarget(rt)
		delete(d.targets, id)
	}
	d.destroyTarget(&d.output)
	d.destroyDefaults()
	d.graves.Flush()
}

// bury destroys an object once the work recorded so far has completed.
func (d *Device) bury(destroy func()) {
	after := d.submitted
	if d.frame.encoder != nil {
		after++
	}
	d.graves.Bury(after, destroy)
}

func (d *Device) collect() {
	if n := d.graves.Collect(d.queue.PollCompleted()); n > 0 {
		rlog.Logger().Debug("webgpu: released retired objects", "count", n)
	}
}

func (d *Device) CreateInputLayout(id resource.ID, format driver.VertexFormat) error {
	if err := d.fresh(resource.TypeInputLayout, id, d.hasInputLayout(id)); err != nil {
		return err
	}
	if !format.IsValid() {
		return fmt.Errorf("webgpu: input layout %d: %w: %d", id, driver.ErrInvalidVertexFormat, format)
	}
	d.inputLayouts[id] = format
	return nil
}

func (d *Device) hasInputLayout(id resource.ID) bool {
	_, ok := d.inputLayouts[id]
	return ok
}

func (d *Device) CreateVertexBuffer(id resource.ID, data []byte) error {
	_, exists := d.vertexBuffers[id]
	if err := d.fresh(resource.TypeVertexBuffer, id, exists); err != nil {
		return err
	}
	b, err := d.createBuffer(fmt.Sprintf("rvm-vertex-%d", id), data, 0,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	d.vertexBuffers[id] = b
	return nil
}

func (d *Device) CreateIndexBuffer(id resource.ID, data []byte) error {
	_, exists := d.indexBuffers[id]
	if err := d.fresh(resource.TypeIndexBuffer, id, exists); err != nil {
		return err
	}
	if len(data)%2 != 0 {
		return fmt.Errorf("webgpu: index buffer %d: %w: %d bytes is not a whole number of uint16 indices",
			id, driver.ErrDataSize, len(data))
	}
	b, err := d.createBuffer(fmt.Sprintf("rvm-index-%d", id), data, 0,
		gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	d.indexBuffers[id] = b
	return nil
}

func (d *Device) CreateConstantBuffer(id resource.ID, data []byte, layout []driver.UniformElement) error {
	_, exists := d.constants[id]
	if err := d.fresh(resource.TypeConstantBuffer, id, exists); err != nil {
		return err
	}
	need := driver.UniformLayoutSize(layout)
	if uint32(len(data)) < need {
		return fmt.Errorf("webgpu: constant buffer %d: %w: %d bytes, layout needs %d",
			id, driver.ErrDataSize, len(data), need)
	}
	b, err := d.createBuffer(fmt.Sprintf("rvm-constants-%d", id), data, uniformAlign,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	d.constants[id] = b
	return nil
}

func (d *Device) CreateTexture(id resource.ID, desc driver.TextureDescriptor, data []byte) error {
	_, exists := d.textures[id]
	if err := d.fresh(resource.TypeTexture, id, exists); err != nil {
		return err
	}
	if desc.Width == 0 || desc.Height == 0 {
		return fmt.Errorf("webgpu: texture %d: %w: empty size %dx%d", id, driver.ErrDataSize, desc.Width, desc.Height)
	}
	want, err := driver.TextureDataSize(desc)
	if err != nil {
		return fmt.Errorf("webgpu: texture %d: %w", id, err)
	}
	if data != nil && len(data) != want {
		return fmt.Errorf("webgpu: texture %d: %w: %d bytes, want %d", id, driver.ErrDataSize, len(data), want)
	}
	t, err := d.createTexture(fmt.Sprintf("rvm-texture-%d", id), desc, data)
	if err != nil {
		return err
	}
	d.textures[id] = t
	return nil
}

func (d *Device) CreateProgram(id resource.ID, desc driver.ProgramDescriptor) error {
	_, exists := d.programs[id]
	if err := d.fresh(resource.TypeProgram, id, exists); err != nil {
		return err
	}
	if desc.Vertex == "" || desc.Fragment == "" {
		return fmt.Errorf("webgpu: program %d %q: missing shader stage", id, desc.Name)
	}
	p := &program{desc: desc, variants: make(map[variantKey]*variant)}
	// Compile the base variant now so broken sources fail here.
	if _, err := d.variant(p, variantKey{}); err != nil {
		return fmt.Errorf("webgpu: program %d: %w", id, err)
	}
	d.programs[id] = p
	return nil
}

func (d *Device) CreateRenderTarget(id resource.ID, desc driver.RenderTargetDescriptor) error {
	_, exists := d.targets[id]
	if err := d.fresh(resource.TypeRenderTarget, id, exists); err != nil {
		return err
	}
	if desc.Width == 0 || desc.Height == 0 {
		return fmt.Errorf("webgpu: render target %d: empty size %dx%d", id, desc.Width, desc.Height)
	}
	if err := checkColorFormat(desc.Format); err != nil {
		return fmt.Errorf("webgpu: render target %d: %w", id, err)
	}
	rt := &renderTarget{}
	if err := d.createTarget(rt, fmt.Sprintf("rvm-target-%d", id), desc.Width, desc.Height, desc.Format); err != nil {
		return err
	}
	d.targets[id] = rt
	return nil
}

func (d *Device) UploadVertexBuffer(id resource.ID, data []byte) error {
	return d.upload(d.vertexBuffers, resource.TypeVertexBuffer, id, data, 0,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
}

func (d *Device) UploadConstantBuffer(id resource.ID, data []byte) error {
	return d.upload(d.constants, resource.TypeConstantBuffer, id, data, uniformAlign,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
}

// upload writes data into buffer id, growing it when data does not fit.
func (d *Device) upload(m map[resource.ID]*buffer, t resource.Type, id resource.ID, data []byte,
	align uint64, usage gputypes.BufferUsage) error {
	b, ok := m[id]
	if !ok {
		return fmt.Errorf("webgpu: %s %d: %w", t, id, driver.ErrUnknownResource)
	}
	if uint64(len(data)) <= b.size {
		return d.writeBuffer(b.buf, data)
	}
	grown, err := d.createBuffer(fmt.Sprintf("rvm-%s-%d", t, id), data, align, usage)
	if err != nil {
		return err
	}
	d.destroyBuffer(m, id)
	m[id] = grown
	return nil
}

func (d *Device) Delete(t resource.Type, id resource.ID) error {
	switch t {
	case resource.TypeInputLayout:
		if !d.hasInputLayout(id) {
			return d.unknown(t, id)
		}
		delete(d.inputLayouts, id)
	case resource.TypeVertexBuffer:
		return d.deleteBuffer(d.vertexBuffers, t, id)
	case resource.TypeIndexBuffer:
		return d.deleteBuffer(d.indexBuffers, t, id)
	case resource.TypeConstantBuffer:
		return d.deleteBuffer(d.constants, t, id)
	case resource.TypeTexture:
		tex, ok := d.textures[id]
		if !ok {
			return d.unknown(t, id)
		}
		d.bindGroups.Purge()
		d.destroyTexture(tex)
		delete(d.textures, id)
	case resource.TypeProgram:
		p, ok := d.programs[id]
		if !ok {
			return d.unknown(t, id)
		}
		d.pipelines.Purge()
		d.destroyProgram(p)
		delete(d.programs, id)
	case resource.TypeRenderTarget:
		rt, ok := d.targets[id]
		if !ok {
			return d.unknown(t, id)
		}
		if d.st.target == id {
			d.frame.endPass()
			d.st.target = resource.Invalid
		}
		d.bindGroups.Purge()
		d.destroyTarget(rt)
		delete(d.targets, id)
	default:
		return fmt.Errorf("webgpu: delete of unsupported resource type %s", t)
	}
	return nil
}

func (d *Device) deleteBuffer(m map[resource.ID]*buffer, t resource.Type, id resource.ID) error {
	if _, ok := m[id]; !ok {
		return d.unknown(t, id)
	}
	d.destroyBuffer(m, id)
	return nil
}

// checkColorFormat reports whether format can be a color attachment.
func checkColorFormat(format gputypes.TextureFormat) error {
	if format == DepthFormat {
		return fmt.Errorf("%w: %v is not a color format", driver.ErrUnsupportedFormat, format)
	}
	_, err := driver.BytesPerPixel(format)
	return err
}

func (d *Device) fresh(t resource.Type, id resource.ID, exists bool) error {
	if d.closed {
		return fmt.Errorf("webgpu: create %s %d: device closed", t, id)
	}
	if id == resource.Invalid {
		return fmt.Errorf("webgpu: create %s: %w: invalid identifier", t, driver.ErrUnknownResource)
	}
	if exists {
		return fmt.Errorf("webgpu: create %s %d: %w", t, id, driver.ErrResourceExists)
	}
	return nil
}

func (d *Device) unknown(t resource.Type, id resource.ID) error {
	return fmt.Errorf("webgpu: %s %d: %w", t, id, driver.ErrUnknownResource)
}

// State setters record the binding. Unknown identifiers surface as errors
// from the next draw.

func (d *Device) SetViewport(viewport state.Rect) { d.st.viewport = viewport }

func (d *Device) SetVertexBuffer(id resource.ID) { d.st.vertexBuffer = id }

func (d *Device) SetIndexBuffer(id resource.ID) { d.st.indexBuffer = id }

func (d *Device) SetInputLayout(id resource.ID) { d.st.inputLayout = id }

func (d *Device) SetConstantBuffer(typ state.ConstantBufferType, id resource.ID) {
	if typ < state.MaxConstantBuffers {
		d.st.constants[typ] = id
	}
}

func (d *Device) SetProgram(id resource.ID, features state.Features) {
	d.st.program = id
	d.st.features = features
}

func (d *Device) SetTexture(sampler state.Sampler, id resource.ID) {
	if sampler < state.MaxTextureSamplers {
		d.st.textures[sampler] = textureBinding{id: id}
	}
}

func (d *Device) SetRenderedTexture(sampler state.Sampler, id resource.ID) {
	if sampler < state.MaxTextureSamplers {
		d.st.textures[sampler] = textureBinding{id: id, rendered: true}
	}
}

func (d *Device) SetBlendFactors(src, dst gputypes.BlendFactor) {
	d.st.blendSrc, d.st.blendDst = src, dst
}

func (d *Device) SetDepthTest(write bool, compare gputypes.CompareFunction) {
	d.st.depthWrite, d.st.depthCompare = write, compare
}

// SetAlphaTest selects the shader variant compiled with ALPHA_FUNC and
// ALPHA_REF set to compare and ref.
func (d *Device) SetAlphaTest(compare gputypes.CompareFunction, ref float32) {
	if compare == gputypes.CompareFunctionAlways {
		compare, ref = gputypes.CompareFunctionUndefined, 0
	}
	d.st.alphaCompare, d.st.alphaRef = compare, ref
}

func (d *Device) SetCulling(mode gputypes.CullMode) { d.st.cull = mode }

func (d *Device) SetColorMask(mask gputypes.ColorWriteMask) { d.st.colorMask = mask }
