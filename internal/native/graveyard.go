// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

// Graveyard defers the destruction of GPU objects until the submission
// that may still reference them has completed.
//
// Submission indices are the values returned by hal.Queue.Submit.
type Graveyard struct {
	entries []grave
}

type grave struct {
	after   uint64
	destroy func()
}

// Bury schedules destroy to run once submission after has completed.
// An index of 0 runs at the next Collect.
func (g *Graveyard) Bury(after uint64, destroy func()) {
	g.entries = append(g.entries, grave{after: after, destroy: destroy})
}

// Collect runs every entry whose submission is at or below completed and
// returns how many ran. Entries run in the order they were buried.
func (g *Graveyard) Collect(completed uint64) int {
	kept := g.entries[:0]
	n := 0
	for _, e := range g.entries {
		if e.after <= completed {
			e.destroy()
			n++
			continue
		}
		kept = append(kept, e)
	}
	clear(g.entries[len(kept):])
	g.entries = kept
	return n
}

// Flush runs every entry regardless of submission. The caller must have
// waited for the device to go idle.
func (g *Graveyard) Flush() int {
	n := len(g.entries)
	for _, e := range g.entries {
		e.destroy()
	}
	clear(g.entries)
	g.entries = g.entries[:0]
	return n
}

// Len returns the number of pending entries.
func (g *Graveyard) Len() int { return len(g.entries) }
