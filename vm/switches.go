// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package vm

import (
	"github.com/gogpu/rvm/state"
)

func defaultSwitches() [state.TotalKinds]StateSwitch {
	return [state.TotalKinds]StateSwitch{
		state.KindVertexBuffer:   switchVertexBuffer,
		state.KindIndexBuffer:    switchIndexBuffer,
		state.KindInputLayout:    switchInputLayout,
		state.KindConstantBuffer: switchConstantBuffer,
		state.KindProgram:        switchProgram,
		state.KindRenderTarget:   switchRenderTarget,
		state.KindBlending:       switchBlending,
		state.KindDepthState:     switchDepthState,
		state.KindAlphaTest:      switchAlphaTest,
		state.KindCullFace:       switchCullFace,
		state.KindColorMask:      switchColorMask,
		state.KindTexture:        switchTexture,
	}
}

func switchVertexBuffer(m *Machine, s *state.State) error {
	m.device.SetVertexBuffer(s.ID)
	return nil
}

func switchIndexBuffer(m *Machine, s *state.State) error {
	m.device.SetIndexBuffer(s.ID)
	return nil
}

func switchInputLayout(m *Machine, s *state.State) error {
	m.device.SetInputLayout(s.ID)
	return nil
}

func switchConstantBuffer(m *Machine, s *state.State) error {
	m.device.SetConstantBuffer(s.ConstantBuffer, s.ID)
	return nil
}

// switchProgram defers the driver call until the draw's feature set is
// known.
func switchProgram(m *Machine, s *state.State) error {
	if s.ID != m.program {
		m.program = s.ID
		m.programDirty = true
	}
	return nil
}

func switchRenderTarget(m *Machine, s *state.State) error {
	if err := m.device.SetRenderTarget(s.ID); err != nil {
		return err
	}
	vp := s.Viewport
	if vp.IsZero() {
		vp = state.FullRect
	}
	m.device.SetViewport(vp)
	return nil
}

func switchBlending(m *Machine, s *state.State) error {
	m.device.SetBlendFactors(s.Src, s.Dst)
	return nil
}

func switchDepthState(m *Machine, s *state.State) error {
	m.device.SetDepthTest(s.DepthWrite, s.Compare)
	return nil
}

func switchAlphaTest(m *Machine, s *state.State) error {
	m.device.SetAlphaTest(s.Compare, s.AlphaRef)
	return nil
}

func switchCullFace(m *Machine, s *state.State) error {
	m.device.SetCulling(s.Cull)
	return nil
}

func switchColorMask(m *Machine, s *state.State) error {
	m.device.SetColorMask(s.ColorMask)
	return nil
}

func switchTexture(m *Machine, s *state.State) error {
	if s.IsTransient() {
		m.device.SetRenderedTexture(s.Sampler, s.ID)
		return nil
	}
	m.device.SetTexture(s.Sampler, s.ID)
	return nil
}
