// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import (
	"fmt"
	"math/bits"
)

const (
	// DefaultPoolCapacity is the number of identifiers a pool reserves up front.
	DefaultPoolCapacity = 32

	// DefaultPoolLimit bounds how far a pool may grow.
	DefaultPoolLimit = 1<<16 - 1
)

// Pool allocates identifiers of a single resource type.
//
// Allocate always returns the smallest free identifier. Identifier 0 is
// reserved at construction so it is never handed out.
//
// Pool is not safe for concurrent use.
type Pool struct {
	typ   Type
	used  []uint64 // bit i set when identifier i is allocated
	size  int      // identifiers currently addressable
	limit int
	count int
	hint  int // no free identifier below hint
}

// NewPool creates a pool of identifiers for typ. capacity is the initial
// size and limit the largest size the pool may grow to. Non-positive values
// select DefaultPoolCapacity and DefaultPoolLimit.
func NewPool(typ Type, capacity, limit int) *Pool {
	if capacity <= 0 {
		capacity = DefaultPoolCapacity
	}
	if limit <= 0 {
		limit = DefaultPoolLimit
	}
	if capacity > limit {
		capacity = limit
	}
	p := &Pool{typ: typ, limit: limit}
	p.resize(capacity)
	// Reserve the invalid identifier.
	p.used[0] |= 1
	p.hint = 1
	return p
}

// Type returns the resource type this pool serves.
func (p *Pool) Type() Type { return p.typ }

// Len returns the number of allocated identifiers.
func (p *Pool) Len() int { return p.count }

// Cap returns the number of identifiers addressable without growing.
func (p *Pool) Cap() int { return p.size }

// Allocate returns the smallest free identifier.
// It panics if the pool is exhausted and cannot grow.
func (p *Pool) Allocate() ID {
	id, ok := p.findFree()
	if !ok {
		if p.size >= p.limit {
			panic(fmt.Sprintf("resource: %s pool exhausted (%d identifiers)", p.typ, p.limit))
		}
		p.resize(min(p.size*2, p.limit))
		id, _ = p.findFree()
	}
	p.used[id/64] |= 1 << (id % 64)
	p.count++
	p.hint = id + 1
	return ID(id)
}

// Release returns id to the pool.
// It panics on the invalid identifier, an identifier outside the pool or
// an identifier that is not allocated.
func (p *Pool) Release(id ID) {
	if !p.InUse(id) {
		panic(fmt.Sprintf("resource: release of unallocated %s identifier %d", p.typ, id))
	}
	i := int(id)
	p.used[i/64] &^= 1 << (i % 64)
	p.count--
	if i < p.hint {
		p.hint = i
	}
}

// InUse reports whether id is currently allocated.
func (p *Pool) InUse(id ID) bool {
	i := int(id)
	if id == Invalid || i >= p.size {
		return false
	}
	return p.used[i/64]&(1<<(i%64)) != 0
}

func (p *Pool) findFree() (int, bool) {
	for w := p.hint / 64; w < len(p.used); w++ {
		word := p.used[w]
		if w == p.hint/64 {
			// Ignore bits below the hint.
			word |= 1<<(p.hint%64) - 1
		}
		if word == ^uint64(0) {
			continue
		}
		i := w*64 + bits.TrailingZeros64(^word)
		if i >= p.size {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func (p *Pool) resize(size int) {
	words := (size + 63) / 64
	if words > len(p.used) {
		used := make([]uint64, words)
		copy(used, p.used)
		p.used = used
	}
	p.size = size
}

// Pools holds one identifier pool per resource type.
type Pools [TotalTypes]*Pool

// NewPools creates a pool for every resource type.
func NewPools(capacity, limit int) *Pools {
	var ps Pools
	for t := range ps {
		ps[t] = NewPool(Type(t), capacity, limit)
	}
	return &ps
}

// Allocate returns the smallest free identifier of type t.
func (ps *Pools) Allocate(t Type) ID { return ps.pool(t).Allocate() }

// Release returns id to the pool of type t.
func (ps *Pools) Release(t Type, id ID) { ps.pool(t).Release(id) }

// Pool returns the pool serving type t.
func (ps *Pools) Pool(t Type) *Pool { return ps.pool(t) }

func (ps *Pools) pool(t Type) *Pool {
	if t >= TotalTypes {
		panic(fmt.Sprintf("resource: invalid resource type %d", t))
	}
	return ps[t]
}
