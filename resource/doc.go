// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package resource manages the integer handles that name GPU resources.
//
// Every resource type has its own identifier pool. Identifiers are small
// integers starting at 1; zero is [Invalid] and means "none". Pools hand out
// the smallest free identifier and grow on demand up to a configured limit.
//
// Intermediate render targets are addressed through a [TransientStack]: a
// fixed stack of frames that maps per-pass local slots (1..[StackFrameSize])
// to pooled identifiers. Each nested pass pushes a frame, so passes never see
// each other's slots.
//
// Contract violations (invalid indices, exhaustion, double release, stack
// overflow) panic. They indicate a bug in the calling code, not a runtime
// condition to recover from.
package resource
