// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rvm

import (
	"errors"
	"fmt"

	"github.com/gogpu/rvm/command"
	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/resource"
	"github.com/gogpu/rvm/state"
	"github.com/gogpu/rvm/vm"
)

// MaxInputLayouts is the size of the input layout table, one entry per
// vertex format.
const MaxInputLayouts = driver.MaxVertexFormats

// Context is the entry point of the pipeline. It allocates resource
// identifiers, records their construction, and displays frames by running
// their command buffers through the rendering virtual machine.
//
// Resources requested from a Context are created on the device when the
// next frame is displayed, or earlier by calling Construct.
//
// A Context is used from the goroutine that owns the device.
type Context struct {
	device driver.Device
	view   driver.View

	pools        *resource.Pools
	construction *command.Buffer
	transients   *resource.TransientStack
	machine      *vm.Machine

	defaultBlock    *state.Block
	defaultProgram  resource.ID
	validateShaders bool

	inputLayouts   [MaxInputLayouts]resource.ID
	uniformLayouts map[resource.ID][]driver.UniformElement
	uniformNames   map[string]resource.ID
	inlineLayouts  map[resource.ID]resource.ID // constant buffer -> inline layout
	featureLayouts map[resource.ID]*FeatureLayout
	programs       map[resource.ID]driver.ProgramDescriptor

	frames int
	closed bool
}

// NewContext creates a rendering context for device.
//
// Frames are presented to the view given by WithView, or to device itself
// when it implements driver.View.
func NewContext(device driver.Device, opts ...ContextOption) (*Context, error) {
	if device == nil {
		return nil, errors.New("rvm: nil device")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	view := o.view
	if view == nil {
		v, ok := device.(driver.View)
		if !ok {
			return nil, ErrNoView
		}
		view = v
	}

	c := &Context{
		device:          device,
		view:            view,
		pools:           resource.NewPools(o.poolCapacity, o.poolLimit),
		construction:    command.NewBuffer(),
		transients:      resource.NewTransientStack(),
		validateShaders: o.validateShaders,
		uniformLayouts:  make(map[resource.ID][]driver.UniformElement),
		uniformNames:    make(map[string]resource.ID),
		inlineLayouts:   make(map[resource.ID]resource.ID),
		featureLayouts:  make(map[resource.ID]*FeatureLayout),
		programs:        make(map[resource.ID]driver.ProgramDescriptor),
	}
	c.machine = vm.New(device, c.transients, c.pools, vm.WithPrecedence(o.precedence))

	if o.defaultBlock != nil {
		b := *o.defaultBlock
		c.defaultBlock = &b
	} else {
		c.defaultBlock = state.Default()
	}

	if o.defaultProgram != nil {
		id, err := c.RequestProgram(*o.defaultProgram)
		if err != nil {
			return nil, fmt.Errorf("rvm: default program: %w", err)
		}
		c.defaultProgram = id
		if c.defaultBlock.Mask()&state.SlotProgram.Bit() == 0 {
			c.defaultBlock.BindProgram(id)
		}
	}

	w, h := view.Size()
	Logger().Info("rvm: context created", "width", w, "height", h, "precedence", o.precedence)
	return c, nil
}

// Device returns the device the context renders with.
func (c *Context) Device() driver.Device { return c.device }

// View returns the view frames are presented to.
func (c *Context) View() driver.View { return c.view }

// Machine returns the rendering virtual machine.
func (c *Context) Machine() *vm.Machine { return c.machine }

// Pools returns the identifier pools.
func (c *Context) Pools() *resource.Pools { return c.pools }

// Transients returns the transient resource stack.
func (c *Context) Transients() *resource.TransientStack { return c.transients }

// ConstructionBuffer returns the buffer that receives resource construction
// commands until the next Construct.
func (c *Context) ConstructionBuffer() *command.Buffer { return c.construction }

// DefaultStateBlock returns the block applied after every frame.
func (c *Context) DefaultStateBlock() *state.Block { return c.defaultBlock }

// DefaultProgram returns the program created by WithDefaultProgram, or
// resource.Invalid.
func (c *Context) DefaultProgram() resource.ID { return c.defaultProgram }

// Frames returns the number of frames displayed.
func (c *Context) Frames() int { return c.frames }

// RequestInputLayout returns the input layout for format, creating it the
// first time format is requested.
func (c *Context) RequestInputLayout(format driver.VertexFormat) (resource.ID, error) {
	if !format.IsValid() {
		return resource.Invalid, fmt.Errorf("%w: %w: %d", ErrInvalidData, driver.ErrInvalidVertexFormat, format)
	}
	if id := c.inputLayouts[format]; id != resource.Invalid {
		return id, nil
	}
	id := c.pools.Allocate(resource.TypeInputLayout)
	c.construction.CreateInputLayout(id, format)
	c.inputLayouts[format] = id
	return id, nil
}

// RequestVertexBuffer creates a vertex buffer initialised with a copy of
// data.
func (c *Context) RequestVertexBuffer(data []byte) (resource.ID, error) {
	if len(data) == 0 {
		return resource.Invalid, fmt.Errorf("%w: empty vertex buffer", ErrInvalidData)
	}
	id := c.pools.Allocate(resource.TypeVertexBuffer)
	c.construction.CreateVertexBuffer(id, data)
	return id, nil
}

// RequestIndexBuffer creates an index buffer of uint16 indices initialised
// with a copy of data.
func (c *Context) RequestIndexBuffer(data []byte) (resource.ID, error) {
	if len(data) == 0 || len(data)%2 != 0 {
		return resource.Invalid, fmt.Errorf("%w: index buffer of %d bytes", ErrInvalidData, len(data))
	}
	id := c.pools.Allocate(resource.TypeIndexBuffer)
	c.construction.CreateIndexBuffer(id, data)
	return id, nil
}

// DeleteVertexBuffer destroys a vertex buffer.
func (c *Context) DeleteVertexBuffer(id resource.ID) { c.deleteResource(resource.TypeVertexBuffer, id) }

// DeleteIndexBuffer destroys an index buffer.
func (c *Context) DeleteIndexBuffer(id resource.ID) { c.deleteResource(resource.TypeIndexBuffer, id) }

// DeleteTexture destroys a texture.
func (c *Context) DeleteTexture(id resource.ID) { c.deleteResource(resource.TypeTexture, id) }

// DeleteConstantBuffer destroys a constant buffer and its inline layout.
func (c *Context) DeleteConstantBuffer(id resource.ID) {
	c.deleteResource(resource.TypeConstantBuffer, id)
	if layout, ok := c.inlineLayouts[id]; ok {
		delete(c.inlineLayouts, id)
		c.DeleteUniformLayout(layout)
	}
}

// DeleteProgram destroys a program.
func (c *Context) DeleteProgram(id resource.ID) {
	c.deleteResource(resource.TypeProgram, id)
	delete(c.programs, id)
}

// deleteResource records the destruction of id. The identifier returns to
// its pool once the delete has been constructed.
func (c *Context) deleteResource(t resource.Type, id resource.ID) {
	if !c.pools.Pool(t).InUse(id) {
		panic(fmt.Sprintf("rvm: delete of unallocated %s %d", t, id))
	}
	c.construction.DeleteResource(t, id)
}

// Construct executes and resets the construction buffer, creating and
// deleting the resources requested since the last call.
//
// Construct stops at the first failing command and resets the buffer all
// the same. Identifiers of resources whose creation did not complete are
// released and have to be requested again. Resources whose deletion did
// not complete stay allocated.
func (c *Context) Construct() error {
	if c.closed {
		return ErrClosed
	}
	defer c.construction.Reset()

	ops := c.construction.Sorted()
	for i, op := range ops {
		if err := c.machine.Run(op); err != nil {
			c.abandon(ops[i:])
			return fmt.Errorf("rvm: construct: %w", err)
		}
		if op.Type == command.OpDeleteResource {
			c.pools.Release(op.Resource.Type, op.Resource.ID)
		}
	}
	if len(ops) > 0 {
		Logger().Debug("rvm: resources constructed", "commands", len(ops))
	}
	return nil
}

// abandon undoes the bookkeeping of construction commands that did not
// complete, the failed one first.
func (c *Context) abandon(ops []*command.OpCode) {
	type name struct {
		typ resource.Type
		id  resource.ID
	}
	released := make(map[name]bool)
	for _, op := range ops {
		r := op.Resource
		switch {
		case op.Type.IsCreate():
			c.forget(r.Type, r.ID)
			c.pools.Release(r.Type, r.ID)
			released[name{r.Type, r.ID}] = true
		case op.Type == command.OpDeleteResource && !released[name{r.Type, r.ID}]:
			Logger().Warn("rvm: resource not deleted", "type", r.Type, "id", r.ID)
		}
	}
	Logger().Warn("rvm: construction abandoned", "commands", len(ops))
}

// forget drops what the context caches about a resource that was never
// created.
func (c *Context) forget(t resource.Type, id resource.ID) {
	switch t {
	case resource.TypeInputLayout:
		for f, l := range c.inputLayouts {
			if l == id {
				c.inputLayouts[f] = resource.Invalid
			}
		}
	case resource.TypeProgram:
		delete(c.programs, id)
	case resource.TypeConstantBuffer:
		if layout, ok := c.inlineLayouts[id]; ok {
			delete(c.inlineLayouts, id)
			c.DeleteUniformLayout(layout)
		}
	}
}

// Display renders frame and presents it. It begins a frame on the view,
// constructs pending resources, executes the frame's entry point inside a
// fresh transient frame, restores the default state block and ends the
// frame, waiting for the GPU when wait is set. The frame is reset
// afterwards, even on error.
func (c *Context) Display(frame *Frame, wait bool) error {
	if c.closed {
		return ErrClosed
	}
	defer frame.Reset()

	if err := c.view.BeginFrame(); err != nil {
		return fmt.Errorf("rvm: begin frame: %w", err)
	}
	c.machine.Reset()
	c.machine.ResetStats()

	err := c.render(frame)
	if endErr := c.view.EndFrame(wait); endErr != nil && err == nil {
		err = fmt.Errorf("rvm: end frame: %w", endErr)
	}
	if err != nil {
		return err
	}

	c.frames++
	s := c.machine.Stats()
	Logger().Debug("rvm: frame displayed",
		"frame", c.frames,
		"opcodes", s.Opcodes,
		"draws", s.Draws,
		"applied", s.AppliedStates,
		"skipped", s.SkippedStates,
		"programs", s.ProgramSwitches)
	return nil
}

func (c *Context) render(frame *Frame) error {
	if err := c.Construct(); err != nil {
		return err
	}

	c.transients.Push()
	err := c.machine.Execute(frame.EntryPoint())
	c.transients.Pop()
	if err != nil {
		return fmt.Errorf("rvm: execute: %w", err)
	}

	if err := c.machine.ApplyStates(c.defaultBlock); err != nil {
		return fmt.Errorf("rvm: default state: %w", err)
	}
	return nil
}

// Close constructs what is pending and destroys the intermediate render
// targets owned by the machine. Resources requested by the caller are left
// to the caller.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	err := c.Construct()
	c.closed = true
	return errors.Join(err, c.machine.ReleaseRenderTargets())
}
