// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rvm

import (
	"github.com/gogpu/rvm/command"
	"github.com/gogpu/rvm/state"
)

// minScratch is the smallest scratch chunk a Frame allocates.
const minScratch = 4 << 10

// Frame owns everything recorded for one Display call: the entry-point
// command buffer, nested command buffers, state blocks and scratch bytes.
// All of it is recycled by Reset, which Display calls once the frame has
// been executed. Nothing obtained from a Frame may be kept past Display.
type Frame struct {
	entry *command.Buffer

	buffers     []*command.Buffer
	usedBuffers int

	blocks     []*state.Block
	usedBlocks int

	scratch []byte
}

// NewFrame creates an empty frame.
func NewFrame() *Frame {
	return &Frame{entry: command.NewBuffer()}
}

// EntryPoint returns the root command buffer executed by Display.
func (f *Frame) EntryPoint() *command.Buffer { return f.entry }

// CreateCommandBuffer returns an empty command buffer owned by the frame,
// typically recorded into the entry point with Execute.
func (f *Frame) CreateCommandBuffer() *command.Buffer {
	if f.usedBuffers == len(f.buffers) {
		f.buffers = append(f.buffers, command.NewBuffer())
	}
	b := f.buffers[f.usedBuffers]
	f.usedBuffers++
	return b
}

// CreateStateBlock returns an empty state block owned by the frame.
func (f *Frame) CreateStateBlock() *state.Block {
	if f.usedBlocks == len(f.blocks) {
		f.blocks = append(f.blocks, state.NewBlock())
	}
	b := f.blocks[f.usedBlocks]
	f.usedBlocks++
	return b
}

// Bytes returns n zeroed bytes that live until Reset, for per-draw
// constant data.
func (f *Frame) Bytes(n int) []byte {
	if len(f.scratch)+n > cap(f.scratch) {
		f.scratch = make([]byte, 0, max(2*cap(f.scratch), n, minScratch))
	}
	start := len(f.scratch)
	f.scratch = f.scratch[:start+n]
	b := f.scratch[start : start+n : start+n]
	clear(b)
	return b
}

// Reset recycles everything the frame handed out.
func (f *Frame) Reset() {
	f.entry.Reset()
	for _, b := range f.buffers[:f.usedBuffers] {
		b.Reset()
	}
	f.usedBuffers = 0
	for _, b := range f.blocks[:f.usedBlocks] {
		b.Reset()
	}
	f.usedBlocks = 0
	f.scratch = f.scratch[:0]
}
