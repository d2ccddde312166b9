// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package rvm provides a deferred rendering pipeline built around a
// rendering virtual machine.
//
// # Overview
//
// Rendering is recorded, not executed. A scene records draw calls into
// command buffers, each draw carrying a stack of state blocks and a sort
// key. When a frame is displayed the virtual machine sorts the draws,
// merges their state blocks, skips states that are already bound and
// issues the remaining work to a driver.Device.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/rvm"
//	    "github.com/gogpu/rvm/driver/trace"
//	    "github.com/gogpu/rvm/state"
//	)
//
//	ctx, err := rvm.NewContext(trace.New())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vb, _ := ctx.RequestVertexBuffer(vertices)
//	layout, _ := ctx.RequestInputLayout(driver.VertexPosition)
//
//	frame := rvm.NewFrame()
//	block := frame.CreateStateBlock()
//	block.BindVertexBuffer(vb)
//	block.BindInputLayout(layout)
//	frame.EntryPoint().DrawPrimitives(0, gputypes.PrimitiveTopologyTriangleList,
//	    state.Stack{block}, 0, 3)
//	err = ctx.Display(frame, true)
//
// # Architecture
//
// The module is organized into:
//   - rvm: Context (resource requests, Display), Frame, Config
//   - resource: identifier pools and the transient resource stack
//   - state: state blocks, stacks and the merge algorithm
//   - command: command buffers, opcodes and the 64-bit sort key
//   - vm: the machine executing command buffers against a device
//   - driver: the device interface and its registry
//   - driver/trace: a recording device for tests and diagnostics
//   - driver/webgpu: a device on gogpu/wgpu
//
// # Resources
//
// Request* methods allocate an identifier immediately and record the
// creation in the construction buffer. The device sees the resource when
// the next frame is displayed or when Construct is called. Delete* methods
// work the same way; the identifier is reused only after the delete has
// been constructed.
//
// # State precedence
//
// A draw layers up to state.MaxStackDepth blocks, outermost first. By
// default the outer block wins when two blocks set the same slot;
// WithPrecedence(state.InnerWins) reverses that.
package rvm
