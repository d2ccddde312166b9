// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package state

import "fmt"

// Precedence selects which block wins when several blocks of a stack set
// the same slot.
type Precedence uint8

const (
	// OuterWins processes blocks outermost first; the least specific block
	// that sets a slot decides its value.
	OuterWins Precedence = iota

	// InnerWins processes blocks innermost first; the most specific block
	// that sets a slot decides its value.
	InnerWins
)

// String returns "outer" or "inner".
func (p Precedence) String() string {
	switch p {
	case OuterWins:
		return "outer"
	case InnerWins:
		return "inner"
	}
	return "Unknown"
}

// ParsePrecedence parses the names returned by Precedence.String.
func ParsePrecedence(s string) (Precedence, error) {
	switch s {
	case "outer", "":
		return OuterWins, nil
	case "inner":
		return InnerWins, nil
	}
	return 0, fmt.Errorf("state: unknown precedence %q", s)
}

// Merge collapses blocks into the ordered list of states a draw call needs
// and writes it to out. blocks is ordered outermost first and ends at the
// first nil entry.
//
// Blocks are visited in the order selected by p. A block whose mask is
// already covered by the states written so far is skipped entirely; inside
// a block, states whose slot is already written are skipped. Merge panics
// if out cannot hold the result.
//
// The returned features are the union of the blocks' enabled features
// intersected with every block's feature mask.
func Merge(blocks []*Block, out []State, p Precedence) (int, Features) {
	n := len(blocks)
	for i, b := range blocks {
		if b == nil {
			n = i
			break
		}
	}

	var (
		active   uint32
		features Features
		mask     = AllFeatures
		written  int
	)
	for k := range n {
		b := blocks[k]
		if p == InnerWins {
			b = blocks[n-1-k]
		}

		features |= b.features
		mask &= b.FeatureMask()

		// Nothing new in this block.
		if b.mask&^active == 0 {
			continue
		}

		for i := range b.count {
			bit := b.bits[i]
			if active&bit != 0 {
				continue
			}
			if written >= len(out) {
				panic(fmt.Sprintf("state: too many render states (limit %d)", len(out)))
			}
			out[written] = b.states[i]
			written++
			active |= bit
		}
	}
	return written, features & mask
}

// MergeStack is Merge over a stack snapshot.
func MergeStack(s *Stack, out []State, p Precedence) (int, Features) {
	return Merge(s[:], out, p)
}
