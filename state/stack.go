// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package state

// MaxStackDepth is the number of blocks a draw call can layer.
const MaxStackDepth = 4

// Stack is a snapshot of layered blocks, outermost first.
// A nil entry ends the stack early.
type Stack [MaxStackDepth]*Block

// Len returns the number of blocks before the first nil entry.
func (s *Stack) Len() int {
	for i, b := range s {
		if b == nil {
			return i
		}
	}
	return MaxStackDepth
}

// StateStack records layered blocks while a scene is traversed.
// Push a block when entering a scope and Pop it when leaving; Snapshot
// captures the current layering for a draw call.
type StateStack struct {
	blocks Stack
	size   int
}

// Push adds b as the innermost block. It panics when the stack is full.
func (s *StateStack) Push(b *Block) {
	if s.size >= MaxStackDepth {
		panic("state: state stack overflow")
	}
	s.blocks[s.size] = b
	s.size++
}

// Pop removes the innermost block. It panics when the stack is empty.
func (s *StateStack) Pop() {
	if s.size == 0 {
		panic("state: state stack underflow")
	}
	s.size--
	s.blocks[s.size] = nil
}

// Top returns the innermost block, or nil if the stack is empty.
func (s *StateStack) Top() *Block {
	if s.size == 0 {
		return nil
	}
	return s.blocks[s.size-1]
}

// Size returns the number of pushed blocks.
func (s *StateStack) Size() int { return s.size }

// Snapshot returns a copy of the current layering.
func (s *StateStack) Snapshot() Stack { return s.blocks }

// Scope pushes b and returns a function that pops it.
//
//	defer stack.Scope(passBlock)()
func (s *StateStack) Scope(b *Block) func() {
	s.Push(b)
	return s.Pop
}
