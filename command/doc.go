// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package command records rendering work into replayable buffers.
//
// A [Buffer] is an append-only list of [OpCode] values: draws, clears,
// nested buffers, render-target scopes, uploads and resource construction.
// Every opcode carries a 64-bit sort [Key]. The executor sorts the draws of
// a buffer by key before replaying it, so draws can be recorded in any
// order and still be batched by material or depth.
//
// # Sort key
//
//	| segment (14 bits) | user sort (32 bits) | sequence (18 bits) |
//
// The segment advances wherever the buffer switches between draws and
// structural opcodes (everything except draws), so structural opcodes keep
// their recorded position relative to the draws around them. A run of
// structural opcodes shares one segment. Within a run of draws the caller's
// sort value decides, and the sequence number keeps equal values in
// recording order. The segment saturates at [MaxSegment]; the executor only
// reorders draws inside a run, so long buffers still replay correctly.
//
// Buffers are write-once, read-many-until-reset. They are not safe for
// concurrent use.
package command
