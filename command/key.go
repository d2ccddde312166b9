// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

const (
	sequenceBits = 18
	sortBits     = 32
	segmentBits  = 64 - sortBits - sequenceBits

	sortShift    = sequenceBits
	segmentShift = sequenceBits + sortBits

	// MaxSequence is the number of opcodes a buffer can hold.
	MaxSequence = 1<<sequenceBits - 1

	// MaxSegment is the highest segment number; later segments share it.
	MaxSegment = 1<<segmentBits - 1
)

// Key is a packed 64-bit sort key.
type Key uint64

// MakeKey packs a segment, a user sort value and a sequence number.
// Out-of-range segment or sequence values are truncated.
func MakeKey(segment uint32, sort uint32, sequence uint32) Key {
	return Key(uint64(segment&MaxSegment)<<segmentShift |
		uint64(sort)<<sortShift |
		uint64(sequence&MaxSequence))
}

// Segment returns the segment number.
func (k Key) Segment() uint32 { return uint32(k >> segmentShift) }

// Sort returns the user sort value.
func (k Key) Sort() uint32 { return uint32(k >> sortShift) }

// Sequence returns the sequence number.
func (k Key) Sequence() uint32 { return uint32(k & MaxSequence) }
