// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package state

import (
	"testing"

	"github.com/gogpu/gputypes"
)

// twoBlocks builds B1 = {A: vertex buffer 1, B: program 10} and
// B2 = {B: program 20, C: index buffer 2}.
func twoBlocks() (*Block, *Block) {
	b1 := NewBlock()
	b1.BindVertexBuffer(1)
	b1.BindProgram(10)

	b2 := NewBlock()
	b2.BindProgram(20)
	b2.BindIndexBuffer(2)
	return b1, b2
}

func TestMergeOuterWins(t *testing.T) {
	b1, b2 := twoBlocks()
	out := make([]State, TotalSlots)

	n, _ := Merge([]*Block{b1, b2}, out, OuterWins)
	want := []State{
		{Kind: KindVertexBuffer, ID: 1},
		{Kind: KindProgram, ID: 10},
		{Kind: KindIndexBuffer, ID: 2},
	}
	if n != len(want) {
		t.Fatalf("Merge() wrote %d states, want %d", n, len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestMergeInnerWins(t *testing.T) {
	b1, b2 := twoBlocks()
	out := make([]State, TotalSlots)

	n, _ := Merge([]*Block{b1, b2}, out, InnerWins)
	want := []State{
		{Kind: KindProgram, ID: 20},
		{Kind: KindIndexBuffer, ID: 2},
		{Kind: KindVertexBuffer, ID: 1},
	}
	if n != len(want) {
		t.Fatalf("Merge() wrote %d states, want %d", n, len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestMergeSkipsRedundantBlock(t *testing.T) {
	b := NewBlock()
	b.BindVertexBuffer(1)
	b.SetBlend(gputypes.BlendFactorSrcAlpha, gputypes.BlendFactorOneMinusSrcAlpha)
	out := make([]State, TotalSlots)

	n1, _ := Merge([]*Block{b}, out, OuterWins)
	n2, _ := Merge([]*Block{b, b}, out, OuterWins)
	if n2 != n1 {
		t.Errorf("Merge() of repeated block wrote %d states, want %d", n2, n1)
	}

	// A block covered by the union of earlier blocks adds nothing.
	cover := NewBlock()
	cover.BindVertexBuffer(5)
	n3, _ := Merge([]*Block{b, cover}, out, OuterWins)
	if n3 != n1 {
		t.Errorf("Merge() with covered block wrote %d states, want %d", n3, n1)
	}
	if out[0].ID != 1 {
		t.Errorf("out[0].ID = %d, want 1", out[0].ID)
	}
}

func TestMergeStopsAtNil(t *testing.T) {
	b1, b2 := twoBlocks()
	stack := Stack{b1, nil, b2}
	out := make([]State, TotalSlots)

	n, _ := MergeStack(&stack, out, OuterWins)
	if n != 2 {
		t.Errorf("MergeStack() wrote %d states, want 2", n)
	}
}

func TestMergeFeatures(t *testing.T) {
	tests := []struct {
		name     string
		enable   []Features
		disable  []Features
		expected Features
	}{
		{"union", []Features{0b001, 0b010}, []Features{0, 0}, 0b011},
		{"masked by inner", []Features{0b011, 0}, []Features{0, 0b001}, 0b010},
		{"masked by outer", []Features{0b100, 0b001}, []Features{0b001, 0}, 0b100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var blocks []*Block
			for i := range tt.enable {
				b := NewBlock()
				b.EnableFeatures(tt.enable[i])
				b.DisableFeatures(tt.disable[i])
				blocks = append(blocks, b)
			}
			for _, p := range []Precedence{OuterWins, InnerWins} {
				_, got := Merge(blocks, make([]State, TotalSlots), p)
				if got != tt.expected {
					t.Errorf("Merge(%s) features = %#b, want %#b", p, got, tt.expected)
				}
			}
		})
	}
}

func TestMergeOverflowPanics(t *testing.T) {
	b1, b2 := twoBlocks()
	expectPanic(t, "too many render states", func() {
		Merge([]*Block{b1, b2}, make([]State, 2), OuterWins)
	})
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		in      string
		want    Precedence
		wantErr bool
	}{
		{"outer", OuterWins, false},
		{"", OuterWins, false},
		{"inner", InnerWins, false},
		{"middle", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePrecedence(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePrecedence(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePrecedence(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
