// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import (
	"fmt"

	"github.com/gogpu/rvm/internal/rlog"
)

const (
	// StackFrameSize is the number of transient slots in one stack frame.
	StackFrameSize = 8

	// MaxStackFrames bounds the nesting depth of transient frames.
	MaxStackFrames = 8

	// MaxStackSize is the total number of transient slots.
	MaxStackSize = MaxStackFrames * StackFrameSize
)

// TransientStack maps transient slots of the active frame to persistent
// identifiers. Frames are pushed for every nested pass.
//
// The zero value has no active frame; call Push before Load.
type TransientStack struct {
	slots [MaxStackSize]ID
	depth int
}

// NewTransientStack returns an empty transient stack.
func NewTransientStack() *TransientStack {
	return &TransientStack{}
}

// Depth returns the number of pushed frames.
func (s *TransientStack) Depth() int { return s.depth }

// Push activates a new, empty stack frame.
// It panics when MaxStackFrames frames are already active.
func (s *TransientStack) Push() {
	if s.depth >= MaxStackFrames {
		panic("resource: transient frame stack overflow")
	}
	s.depth++
	clear(s.frame())
}

// Pop discards the active frame and returns how many of its slots were
// still loaded. Each loaded slot is reported as a warning; the slot leaks
// for the rest of its owner's lifetime but the stack stays consistent.
// It panics when no frame is active.
func (s *TransientStack) Pop() int {
	if s.depth == 0 {
		panic("resource: transient frame stack underflow")
	}
	leaked := 0
	for i, id := range s.frame() {
		if id == Invalid {
			continue
		}
		leaked++
		rlog.Logger().Warn("resource: transient resource was not released before popping a stack frame",
			"frame", s.depth, "slot", i+1, "id", id)
	}
	clear(s.frame())
	s.depth--
	return leaked
}

// Load binds slot index of the active frame to id.
func (s *TransientStack) Load(index TransientID, id ID) {
	s.frame()[s.slot(index)] = id
}

// Unload clears slot index of the active frame.
func (s *TransientStack) Unload(index TransientID) {
	s.frame()[s.slot(index)] = Invalid
}

// Get returns the identifier loaded into slot index of the active frame,
// or Invalid if the slot is empty.
func (s *TransientStack) Get(index TransientID) ID {
	return s.frame()[s.slot(index)]
}

// Reset pops every frame without reporting leaks.
func (s *TransientStack) Reset() {
	clear(s.slots[:])
	s.depth = 0
}

// frame returns the slots of the active frame.
func (s *TransientStack) frame() []ID {
	if s.depth == 0 {
		return nil
	}
	off := (s.depth - 1) * StackFrameSize
	return s.slots[off : off+StackFrameSize]
}

func (s *TransientStack) slot(index TransientID) int {
	if !index.IsValid() {
		panic(fmt.Sprintf("resource: invalid transient resource index %d", index))
	}
	if s.depth == 0 {
		panic("resource: no active transient frame")
	}
	return int(index) - 1
}
