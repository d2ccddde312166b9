// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rvm

import (
	"fmt"
	"math/bits"

	"github.com/gogpu/rvm/resource"
	"github.com/gogpu/rvm/state"
)

// PipelineFeature names a set of feature bits, such as "shadowed" for a
// program permutation that samples a shadow map.
type PipelineFeature struct {
	Name string
	Bits state.Features
}

// FeatureLayout maps pipeline feature names to bits.
type FeatureLayout struct {
	features []PipelineFeature
}

// Bits returns the union of the bits of the named features.
func (l *FeatureLayout) Bits(names ...string) (state.Features, error) {
	var f state.Features
	for _, name := range names {
		i := l.index(name)
		if i < 0 {
			return 0, fmt.Errorf("%w: %q", ErrUnknownFeature, name)
		}
		f |= l.features[i].Bits
	}
	return f, nil
}

// Names returns the features fully contained in f, in layout order.
func (l *FeatureLayout) Names(f state.Features) []string {
	var names []string
	for _, p := range l.features {
		if f&p.Bits == p.Bits {
			names = append(names, p.Name)
		}
	}
	return names
}

// Len returns the number of features in the layout.
func (l *FeatureLayout) Len() int { return len(l.features) }

func (l *FeatureLayout) index(name string) int {
	for i, p := range l.features {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// RequestFeatureLayout registers a feature layout. Features are taken up to
// the first one with an empty name. Every feature needs at least one bit and
// a unique name.
func (c *Context) RequestFeatureLayout(features []PipelineFeature) (resource.ID, error) {
	l := &FeatureLayout{}
	for _, p := range features {
		if p.Name == "" {
			break
		}
		if p.Bits == 0 {
			return resource.Invalid, fmt.Errorf("%w: feature %q has no bits", ErrInvalidData, p.Name)
		}
		if l.index(p.Name) >= 0 {
			return resource.Invalid, fmt.Errorf("%w: feature %q listed twice", ErrInvalidData, p.Name)
		}
		l.features = append(l.features, p)
	}

	id := c.pools.Allocate(resource.TypeFeatureLayout)
	c.featureLayouts[id] = l
	Logger().Debug("rvm: feature layout created", "id", id, "features", len(l.features),
		"bits", bits.OnesCount64(uint64(l.union())))
	return id, nil
}

// FeatureLayout returns a registered feature layout.
func (c *Context) FeatureLayout(id resource.ID) (*FeatureLayout, bool) {
	l, ok := c.featureLayouts[id]
	return l, ok
}

func (l *FeatureLayout) union() state.Features {
	var f state.Features
	for _, p := range l.features {
		f |= p.Bits
	}
	return f
}
