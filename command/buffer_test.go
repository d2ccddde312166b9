// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/resource"
	"github.com/gogpu/rvm/state"
)

func TestKeyPacking(t *testing.T) {
	k := MakeKey(3, 0xDEADBEEF, 77)
	if k.Segment() != 3 {
		t.Errorf("Segment() = %d, want 3", k.Segment())
	}
	if k.Sort() != 0xDEADBEEF {
		t.Errorf("Sort() = %#x, want 0xDEADBEEF", k.Sort())
	}
	if k.Sequence() != 77 {
		t.Errorf("Sequence() = %d, want 77", k.Sequence())
	}
	// Segment dominates sort, sort dominates sequence.
	if !(MakeKey(1, 0, 0) > MakeKey(0, ^uint32(0), MaxSequence)) {
		t.Error("segment does not dominate sort value")
	}
	if !(MakeKey(0, 1, 0) > MakeKey(0, 0, MaxSequence)) {
		t.Error("sort value does not dominate sequence")
	}
}

func TestOpTypeString(t *testing.T) {
	if got := OpDrawIndexed.String(); got != "DrawIndexed" {
		t.Errorf("OpDrawIndexed.String() = %q", got)
	}
	if got := TotalOpTypes.String(); got != "Unknown" {
		t.Errorf("TotalOpTypes.String() = %q, want Unknown", got)
	}
	for typ := OpType(0); typ < TotalOpTypes; typ++ {
		if typ.String() == "" {
			t.Errorf("OpType(%d) has no name", typ)
		}
	}
	if !OpCreateProgram.IsCreate() || OpDeleteResource.IsCreate() || OpUploadVertexBuffer.IsCreate() {
		t.Error("IsCreate misclassifies construction opcodes")
	}
}

func TestSortedOrdersDrawsByKey(t *testing.T) {
	b := NewBuffer()
	var none state.Stack
	// Recorded out of order; two draws share sort value 20.
	b.DrawPrimitives(30, gputypes.PrimitiveTopologyTriangleList, none, 3, 1)
	b.DrawPrimitives(10, gputypes.PrimitiveTopologyTriangleList, none, 1, 1)
	b.DrawPrimitives(20, gputypes.PrimitiveTopologyTriangleList, none, 2, 1)
	b.DrawPrimitives(20, gputypes.PrimitiveTopologyTriangleList, none, 22, 1)

	var got []uint32
	for _, op := range b.Sorted() {
		got = append(got, op.Draw.First)
	}
	want := []uint32{1, 2, 22, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sorted draw order = %v, want %v", got, want)
		}
	}
	// Recording order is untouched.
	if b.OpCodeAt(0).Draw.First != 3 {
		t.Error("Sorted() modified the buffer")
	}
}

func TestStructuralCommandsKeepPosition(t *testing.T) {
	b := NewBuffer()
	var none state.Stack
	b.DrawPrimitives(100, gputypes.PrimitiveTopologyTriangleList, none, 1, 1)
	b.Clear(0, gputypes.Color{}, state.FullRect, driver.ClearAll)
	b.DrawPrimitives(0, gputypes.PrimitiveTopologyTriangleList, none, 2, 1)

	ops := b.Sorted()
	want := []OpType{OpDrawPrimitives, OpClear, OpDrawPrimitives}
	for i, op := range ops {
		if op.Type != want[i] {
			t.Errorf("ops[%d] = %s, want %s", i, op.Type, want[i])
		}
	}
	if ops[0].Draw.First != 1 || ops[2].Draw.First != 2 {
		t.Error("draws moved across a structural command")
	}
}

func TestManyStructuralCommands(t *testing.T) {
	b := NewBuffer()
	const n = 10000
	for i := range n {
		id := resource.ID(i/2 + 1)
		if i%2 == 0 {
			b.CreateVertexBuffer(id, []byte{1, 2, 3})
		} else {
			b.UploadVertexBuffer(id, []byte{4, 5, 6})
		}
	}
	if b.Size() != n {
		t.Fatalf("Size() = %d, want %d", b.Size(), n)
	}
	for i, op := range b.Sorted() {
		if want := resource.ID(i/2 + 1); op.Resource.ID != want {
			t.Fatalf("ops[%d] names resource %d, want %d", i, op.Resource.ID, want)
		}
		if op.Sorting.Segment() != 0 {
			t.Fatalf("ops[%d] in segment %d, want 0", i, op.Sorting.Segment())
		}
	}
}

func TestSegmentsFollowDrawRuns(t *testing.T) {
	b := NewBuffer()
	var none state.Stack
	b.UploadConstantBuffer(1, []byte{1})
	b.UploadConstantBuffer(2, []byte{2})
	b.DrawPrimitives(5, gputypes.PrimitiveTopologyTriangleList, none, 0, 1)
	b.DrawPrimitives(1, gputypes.PrimitiveTopologyTriangleList, none, 0, 1)
	b.Clear(0, gputypes.Color{}, state.FullRect, driver.ClearAll)
	b.Clear(0, gputypes.Color{}, state.FullRect, driver.ClearAll)
	b.DrawPrimitives(0, gputypes.PrimitiveTopologyTriangleList, none, 0, 1)

	want := []uint32{0, 0, 1, 1, 2, 2, 3}
	for i, w := range want {
		if got := b.OpCodeAt(i).Sorting.Segment(); got != w {
			t.Errorf("ops[%d] segment = %d, want %d", i, got, w)
		}
	}
}

func TestSortedPastSegmentLimit(t *testing.T) {
	b := NewBuffer()
	var none state.Stack
	// Every draw/clear pair opens two segments.
	const pairs = MaxSegment
	for i := range pairs {
		b.DrawPrimitives(uint32(pairs-i), gputypes.PrimitiveTopologyTriangleList, none, uint32(i), 1)
		b.Clear(0, gputypes.Color{}, state.FullRect, driver.ClearAll)
	}
	b.DrawPrimitives(9, gputypes.PrimitiveTopologyTriangleList, none, pairs+1, 1)
	b.DrawPrimitives(1, gputypes.PrimitiveTopologyTriangleList, none, pairs, 1)

	if got := b.OpCodeAt(b.Size() - 1).Sorting.Segment(); got != MaxSegment {
		t.Errorf("last segment = %d, want %d", got, MaxSegment)
	}
	ops := b.Sorted()
	for i := range pairs {
		if ops[2*i].Type != OpDrawPrimitives || ops[2*i].Draw.First != uint32(i) {
			t.Fatalf("ops[%d] = %s first %d, want draw %d", 2*i, ops[2*i].Type, ops[2*i].Draw.First, i)
		}
		if ops[2*i+1].Type != OpClear {
			t.Fatalf("ops[%d] = %s, want Clear", 2*i+1, ops[2*i+1].Type)
		}
	}
	tail := ops[len(ops)-2:]
	if tail[0].Draw.First != pairs || tail[1].Draw.First != pairs+1 {
		t.Errorf("last draw run = %d, %d; want sorted %d, %d", tail[0].Draw.First, tail[1].Draw.First, pairs, pairs+1)
	}
}

func TestRenderToTarget(t *testing.T) {
	b := NewBuffer()
	slot := b.AcquireRenderTarget(512, 512, gputypes.TextureFormatRGBA8Unorm)
	if slot != 1 {
		t.Fatalf("AcquireRenderTarget() = %d, want 1", slot)
	}
	nested := b.RenderToTarget(slot, state.FullRect)
	if nested == nil {
		t.Fatal("RenderToTarget returned nil")
	}
	b.ReleaseRenderTarget(slot)

	want := []OpType{OpAcquireRenderTarget, OpPushRenderTarget, OpExecute, OpPopRenderTarget, OpReleaseRenderTarget}
	if b.Size() != len(want) {
		t.Fatalf("Size() = %d, want %d", b.Size(), len(want))
	}
	for i, op := range b.Sorted() {
		if op.Type != want[i] {
			t.Errorf("ops[%d] = %s, want %s", i, op.Type, want[i])
		}
	}
	if b.OpCodeAt(2).Commands != nested {
		t.Error("Execute opcode does not reference the nested buffer")
	}
}

func TestAcquireRenderTargetSlots(t *testing.T) {
	b := NewBuffer()
	for want := resource.TransientID(1); want <= resource.StackFrameSize; want++ {
		if got := b.AcquireRenderTarget(1, 1, gputypes.TextureFormatRGBA8Unorm); got != want {
			t.Fatalf("AcquireRenderTarget() = %d, want %d", got, want)
		}
	}
	b.ReleaseRenderTarget(3)
	if got := b.AcquireRenderTarget(1, 1, gputypes.TextureFormatRGBA8Unorm); got != 3 {
		t.Errorf("AcquireRenderTarget() after release = %d, want 3", got)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("acquiring a ninth target did not panic")
			}
		}()
		b.AcquireRenderTarget(1, 1, gputypes.TextureFormatRGBA8Unorm)
	}()
	func() {
		defer func() {
			if recover() == nil {
				t.Error("releasing an unacquired slot did not panic")
			}
		}()
		NewBuffer().ReleaseRenderTarget(1)
	}()
}

func TestDataIsCopied(t *testing.T) {
	b := NewBuffer()
	data := []byte{1, 2, 3}
	b.CreateVertexBuffer(1, data)
	b.UploadConstantBuffer(2, data)
	data[0] = 9

	for i := range b.Size() {
		if got := b.OpCodeAt(i).Resource.Data[0]; got != 1 {
			t.Errorf("op %d data[0] = %d, want 1", i, got)
		}
	}
}

func TestResetClearsBuffer(t *testing.T) {
	b := NewBuffer()
	b.CreateIndexBuffer(1, []byte{0, 0})
	b.AcquireRenderTarget(1, 1, gputypes.TextureFormatRGBA8Unorm)
	b.Reset()

	if b.Size() != 0 {
		t.Errorf("Size() after Reset = %d, want 0", b.Size())
	}
	if got := b.AcquireRenderTarget(1, 1, gputypes.TextureFormatRGBA8Unorm); got != 1 {
		t.Errorf("AcquireRenderTarget() after Reset = %d, want 1", got)
	}
	if k := b.OpCodeAt(0).Sorting; k.Sequence() != 0 {
		t.Errorf("first key after Reset has sequence %d, want 0", k.Sequence())
	}
}

func TestExecuteNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Execute(nil) did not panic")
		}
	}()
	NewBuffer().Execute(nil)
}
