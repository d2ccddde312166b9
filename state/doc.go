// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package state describes pipeline state changes and merges them.
//
// A [State] is a tagged union: exactly one of a buffer, program, texture or
// render-target binding, or a fixed-function setting (blending, depth test,
// alpha test, culling, color mask). Each state maps to one [Slot], a bit
// position in a uint32 mask.
//
// A [Block] is a sparse, ordered set of states plus the mask of slots it
// occupies. Blocks are layered in a [Stack] (global settings outermost,
// instance settings innermost) and collapsed by [Merge] into the minimal
// sequence of state changes a draw call needs.
//
// Merge precedence is explicit. With [OuterWins] the outermost block that
// sets a slot decides its value; with [InnerWins] the innermost does.
package state
