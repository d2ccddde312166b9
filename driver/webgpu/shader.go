// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/internal/native"
	"github.com/gogpu/rvm/internal/rlog"
	"github.com/gogpu/rvm/state"
)

const (
	vertexEntryPoint   = "vs_main"
	fragmentEntryPoint = "fs_main"
)

type program struct {
	desc     driver.ProgramDescriptor
	variants map[variantKey]*variant
}

// variantKey selects one compiled permutation of a program.
type variantKey struct {
	features state.Features
	alpha    gputypes.CompareFunction
	alphaRef float32
}

type variant struct {
	vertex   hal.ShaderModule
	fragment hal.ShaderModule
}

// variant returns the modules of p compiled for k, compiling them on first
// use.
func (d *Device) variant(p *program, k variantKey) (*variant, error) {
	if v, ok := p.variants[k]; ok {
		return v, nil
	}
	prefix := driver.ShaderPrefix(k.features, k.alpha, k.alphaRef)
	label := p.desc.Name
	if label == "" {
		label = "program"
	}

	vs, err := native.CreateShaderModule(d.device, label+"-vs", prefix+p.desc.Vertex)
	if err != nil {
		return nil, err
	}
	fs, err := native.CreateShaderModule(d.device, label+"-fs", prefix+p.desc.Fragment)
	if err != nil {
		d.device.DestroyShaderModule(vs)
		return nil, err
	}
	v := &variant{vertex: vs, fragment: fs}
	p.variants[k] = v
	rlog.Logger().Debug("webgpu: compiled program variant",
		"program", label, "features", fmt.Sprintf("%#x", uint64(k.features)), "variants", len(p.variants))
	return v, nil
}

func (d *Device) destroyProgram(p *program) {
	for k, v := range p.variants {
		delete(p.variants, k)
		d.bury(func() {
			d.device.DestroyShaderModule(v.vertex)
			d.device.DestroyShaderModule(v.fragment)
		})
	}
}
