// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package vm

import (
	"errors"
	"fmt"

	"github.com/gogpu/rvm/command"
	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/internal/rlog"
	"github.com/gogpu/rvm/resource"
	"github.com/gogpu/rvm/state"
)

// target is an entry of the render-target stack.
type target struct {
	id       resource.ID
	viewport state.Rect
}

// pooledTarget is an intermediate render target owned by the machine.
type pooledTarget struct {
	id    resource.ID
	desc  driver.RenderTargetDescriptor
	inUse bool
}

// RenderTargetDepth returns the number of pushed render targets.
func (m *Machine) RenderTargetDepth() int { return len(m.targets) }

// PooledRenderTargets returns the number of intermediate render targets
// created so far and how many of them are acquired.
func (m *Machine) PooledRenderTargets() (total, inUse int) {
	for _, t := range m.pooled {
		if t.inUse {
			inUse++
		}
	}
	return len(m.pooled), inUse
}

func pushRenderTarget(m *Machine, op *command.OpCode) error {
	t := target{id: m.transients.Get(op.Target.Slot), viewport: op.Target.Viewport}
	if t.viewport.IsZero() {
		t.viewport = state.FullRect
	}
	m.targets = append(m.targets, t)
	rlog.Logger().Debug("vm: begin render target", "id", t.id, "depth", len(m.targets))
	return m.bindTarget(t)
}

func popRenderTarget(m *Machine, _ *command.OpCode) error {
	if len(m.targets) == 0 {
		panic("vm: render target stack underflow")
	}
	m.targets = m.targets[:len(m.targets)-1]
	rlog.Logger().Debug("vm: end render target", "depth", len(m.targets))
	return m.restoreTarget()
}

// restoreTarget rebinds the top of the render-target stack, or the output
// view when the stack is empty.
func (m *Machine) restoreTarget() error {
	t := target{viewport: state.FullRect}
	if n := len(m.targets); n > 0 {
		t = m.targets[n-1]
	}
	return m.bindTarget(t)
}

func (m *Machine) bindTarget(t target) error {
	m.invalidate(state.SlotRenderTarget)
	if err := m.device.SetRenderTarget(t.id); err != nil {
		return err
	}
	m.device.SetViewport(t.viewport)
	return nil
}

func acquireRenderTarget(m *Machine, op *command.OpCode) error {
	desc := op.Target.Desc
	for i := range m.pooled {
		t := &m.pooled[i]
		if !t.inUse && t.desc == desc {
			t.inUse = true
			m.transients.Load(op.Target.Slot, t.id)
			return nil
		}
	}

	id := m.alloc.Allocate(resource.TypeRenderTarget)
	if err := m.device.CreateRenderTarget(id, desc); err != nil {
		m.alloc.Release(resource.TypeRenderTarget, id)
		return err
	}
	m.pooled = append(m.pooled, pooledTarget{id: id, desc: desc, inUse: true})
	m.stats.RenderTargets++
	rlog.Logger().Debug("vm: render target created",
		"id", id, "width", desc.Width, "height", desc.Height, "format", desc.Format)
	m.transients.Load(op.Target.Slot, id)
	return nil
}

func releaseRenderTarget(m *Machine, op *command.OpCode) error {
	id := m.transients.Get(op.Target.Slot)
	for i := range m.pooled {
		if m.pooled[i].id == id {
			m.pooled[i].inUse = false
			m.transients.Unload(op.Target.Slot)
			return nil
		}
	}
	return fmt.Errorf("transient slot %d holds %d: %w", op.Target.Slot, id, driver.ErrUnknownResource)
}

// ReleaseRenderTargets destroys the pooled render targets that are not
// acquired and returns their identifiers to the allocator.
func (m *Machine) ReleaseRenderTargets() error {
	var errs []error
	kept := m.pooled[:0]
	for _, t := range m.pooled {
		if t.inUse {
			kept = append(kept, t)
			continue
		}
		m.forget(resource.TypeRenderTarget, t.id)
		if err := m.device.Delete(resource.TypeRenderTarget, t.id); err != nil {
			rlog.Logger().Warn("vm: render target release failed", "id", t.id, "err", err)
			errs = append(errs, err)
			continue
		}
		m.alloc.Release(resource.TypeRenderTarget, t.id)
	}
	m.pooled = kept
	return errors.Join(errs...)
}
