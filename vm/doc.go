// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package vm executes command buffers against a driver.
//
// A [Machine] sorts a buffer by key and dispatches every opcode through a
// table of handlers indexed by opcode type. Draws merge their state stack,
// apply only the states that differ from what is already bound (through a
// second table of switches indexed by state kind) and then call the driver.
// Structural opcodes maintain a render-target stack, a pool of intermediate
// render targets and the transient frames of nested buffers.
//
// An opcode or state kind without a table entry is a programming error and
// panics. Driver errors abort the run and are returned.
//
// A Machine is owned by the rendering goroutine and takes no locks.
package vm
