// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package vm

import (
	"fmt"

	"github.com/gogpu/rvm/command"
	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/resource"
	"github.com/gogpu/rvm/state"
)

// Transients resolves transient slots of the active frame.
// *resource.TransientStack implements it.
type Transients interface {
	Push()
	Pop() int
	Load(index resource.TransientID, id resource.ID)
	Unload(index resource.TransientID)
	Get(index resource.TransientID) resource.ID
}

// Allocator hands out identifiers for resources the machine creates itself.
// *resource.Pools implements it.
type Allocator interface {
	Allocate(t resource.Type) resource.ID
	Release(t resource.Type, id resource.ID)
}

// Handler executes one opcode.
type Handler func(m *Machine, op *command.OpCode) error

// StateSwitch applies one state to the driver. Transient references are
// resolved before the switch is called.
type StateSwitch func(m *Machine, s *state.State) error

// Stats counts the work done by a Machine.
type Stats struct {
	Opcodes         int // opcodes dispatched
	Draws           int // draw calls issued
	AppliedStates   int // state switches sent to the driver
	SkippedStates   int // merged states already bound
	ProgramSwitches int // SetProgram calls
	RenderTargets   int // intermediate render targets created
}

// Option configures a Machine.
type Option func(*Machine)

// WithPrecedence selects how layered state blocks override each other.
// The default is state.OuterWins.
func WithPrecedence(p state.Precedence) Option {
	return func(m *Machine) {
		m.precedence = p
	}
}

// Machine is the rendering virtual machine.
type Machine struct {
	device     driver.Device
	transients Transients
	alloc      Allocator
	precedence state.Precedence

	ops      [command.TotalOpTypes]Handler
	switches [state.TotalKinds]StateSwitch

	// bound holds the last state applied to each slot whose bit is set
	// in boundMask.
	bound     [state.TotalSlots]state.State
	boundMask uint32

	program      resource.ID
	features     state.Features
	programDirty bool

	targets []target
	pooled  []pooledTarget
	merged  [state.TotalSlots]state.State

	stats Stats
}

// New creates a Machine that drives device. Transient slots are resolved
// through transients and intermediate render targets are named by
// identifiers from alloc.
func New(device driver.Device, transients Transients, alloc Allocator, opts ...Option) *Machine {
	m := &Machine{
		device:     device,
		transients: transients,
		alloc:      alloc,
		ops:        defaultHandlers(),
		switches:   defaultSwitches(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Device returns the driver the machine executes against.
func (m *Machine) Device() driver.Device { return m.device }

// Transients returns the transient stack the machine resolves slots with.
func (m *Machine) Transients() Transients { return m.transients }

// Precedence returns the merge precedence.
func (m *Machine) Precedence() state.Precedence { return m.precedence }

// Handle replaces the handler of opcode type t. A nil handler makes t
// unexecutable.
func (m *Machine) Handle(t command.OpType, h Handler) {
	m.ops[t] = h
}

// HandleState replaces the switch of state kind k. A nil switch makes k
// unapplicable.
func (m *Machine) HandleState(k state.Kind, s StateSwitch) {
	m.switches[k] = s
}

// Stats returns the counters accumulated since the last ResetStats.
func (m *Machine) Stats() Stats { return m.stats }

// ResetStats zeroes the counters.
func (m *Machine) ResetStats() { m.stats = Stats{} }

// Reset forgets everything the machine believes is bound, so the next
// draw re-applies its full state. The render-target stack is emptied.
func (m *Machine) Reset() {
	m.boundMask = 0
	m.program = resource.Invalid
	m.features = 0
	m.programDirty = false
	m.targets = m.targets[:0]
}

// Execute sorts commands and runs them, stopping at the first error.
// It panics on an opcode without a handler.
func (m *Machine) Execute(commands *command.Buffer) error {
	for _, op := range commands.Sorted() {
		if err := m.Run(op); err != nil {
			return err
		}
	}
	return nil
}

// Run dispatches a single opcode to its handler.
// It panics on an opcode without a handler.
func (m *Machine) Run(op *command.OpCode) error {
	var h Handler
	if op.Type < command.TotalOpTypes {
		h = m.ops[op.Type]
	}
	if h == nil {
		panic(fmt.Sprintf("vm: unhandled opcode %s", op.Type))
	}
	m.stats.Opcodes++
	if err := h(m, op); err != nil {
		return fmt.Errorf("vm: %s: %w", op.Type, err)
	}
	return nil
}

// ExecuteNested runs commands inside a freshly pushed transient frame.
func (m *Machine) ExecuteNested(commands *command.Buffer) error {
	m.transients.Push()
	err := m.Execute(commands)
	m.transients.Pop()
	return err
}

// ApplyStates merges blocks and applies the result outside of a draw call.
func (m *Machine) ApplyStates(blocks ...*state.Block) error {
	n, features := state.Merge(blocks, m.merged[:], m.precedence)
	if err := m.apply(m.merged[:n]); err != nil {
		return err
	}
	m.selectFeatures(features)
	m.flushProgram()
	return nil
}

// apply sends every state that differs from the bound one to the driver.
func (m *Machine) apply(states []state.State) error {
	for i := range states {
		s := states[i]
		if s.IsTransient() {
			s.ID = m.transients.Get(s.Transient)
		}
		slot := s.Slot()
		bit := slot.Bit()
		if m.boundMask&bit != 0 && m.bound[slot] == s {
			m.stats.SkippedStates++
			continue
		}
		sw := m.switches[s.Kind]
		if sw == nil {
			panic(fmt.Sprintf("vm: unhandled render state type %s", s.Kind))
		}
		if err := sw(m, &s); err != nil {
			return err
		}
		m.bound[slot] = s
		m.boundMask |= bit
		m.stats.AppliedStates++
	}
	return nil
}

// Bound returns the state last applied to slot, if any.
func (m *Machine) Bound(slot state.Slot) (state.State, bool) {
	if m.boundMask&slot.Bit() == 0 {
		return state.State{}, false
	}
	return m.bound[slot], true
}

func (m *Machine) selectFeatures(f state.Features) {
	if f != m.features {
		m.features = f
		m.programDirty = true
	}
}

func (m *Machine) flushProgram() {
	if !m.programDirty || m.program == resource.Invalid {
		return
	}
	m.device.SetProgram(m.program, m.features)
	m.programDirty = false
	m.stats.ProgramSwitches++
}

// invalidate forgets the bound state of slot.
func (m *Machine) invalidate(slot state.Slot) {
	m.boundMask &^= slot.Bit()
}

// forget drops every bound state that refers to resource id of type t.
func (m *Machine) forget(t resource.Type, id resource.ID) {
	for slot := range state.TotalSlots {
		if m.boundMask&(1<<slot) == 0 {
			continue
		}
		if s := m.bound[slot]; s.ID == id && resourceType(s) == t {
			m.boundMask &^= 1 << slot
		}
	}
	if t == resource.TypeProgram && m.program == id {
		m.program = resource.Invalid
		m.programDirty = false
	}
}

// resourceType returns the type of the resource a state binds, or
// TotalTypes for fixed-function states.
func resourceType(s state.State) resource.Type {
	switch s.Kind {
	case state.KindVertexBuffer:
		return resource.TypeVertexBuffer
	case state.KindIndexBuffer:
		return resource.TypeIndexBuffer
	case state.KindInputLayout:
		return resource.TypeInputLayout
	case state.KindConstantBuffer:
		return resource.TypeConstantBuffer
	case state.KindProgram:
		return resource.TypeProgram
	case state.KindTexture:
		if s.IsTransient() {
			return resource.TypeRenderTarget
		}
		return resource.TypeTexture
	case state.KindRenderTarget:
		return resource.TypeRenderTarget
	}
	return resource.TotalTypes
}
