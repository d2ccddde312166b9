// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rvm

import (
	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/resource"
	"github.com/gogpu/rvm/state"
)

// ContextOption configures a Context during creation.
//
// Example:
//
//	dev := trace.New()
//	ctx, err := rvm.NewContext(dev,
//	    rvm.WithPrecedence(state.InnerWins),
//	    rvm.WithPoolCapacity(256))
type ContextOption func(*contextOptions)

// contextOptions holds optional configuration for Context creation.
type contextOptions struct {
	view            driver.View
	precedence      state.Precedence
	poolCapacity    int
	poolLimit       int
	defaultBlock    *state.Block
	defaultProgram  *driver.ProgramDescriptor
	validateShaders bool
}

// defaultOptions returns the default context options.
func defaultOptions() contextOptions {
	return contextOptions{
		precedence:   state.OuterWins,
		poolCapacity: resource.DefaultPoolCapacity,
		poolLimit:    resource.DefaultPoolLimit,
	}
}

// WithView sets the view frames are presented to. Without it the device
// itself must implement driver.View.
func WithView(v driver.View) ContextOption {
	return func(o *contextOptions) {
		o.view = v
	}
}

// WithPrecedence selects whether outer or inner state blocks win when
// they set the same slot. The default is state.OuterWins.
func WithPrecedence(p state.Precedence) ContextOption {
	return func(o *contextOptions) {
		o.precedence = p
	}
}

// WithPoolCapacity sets the initial number of identifiers per resource type.
func WithPoolCapacity(n int) ContextOption {
	return func(o *contextOptions) {
		o.poolCapacity = n
	}
}

// WithPoolLimit caps the number of identifiers per resource type.
// Allocating past the limit panics.
func WithPoolLimit(n int) ContextOption {
	return func(o *contextOptions) {
		o.poolLimit = n
	}
}

// WithDefaultStateBlock replaces the block applied after every frame.
// The block is copied; later changes to b have no effect.
// The default is state.Default().
func WithDefaultStateBlock(b *state.Block) ContextOption {
	return func(o *contextOptions) {
		o.defaultBlock = b
	}
}

// WithDefaultProgram creates a program from the given WGSL sources and binds
// it in the default state block, unless that block binds a program itself.
func WithDefaultProgram(vertex, fragment string) ContextOption {
	return func(o *contextOptions) {
		o.defaultProgram = &driver.ProgramDescriptor{
			Name:     "default",
			Vertex:   vertex,
			Fragment: fragment,
		}
	}
}

// WithShaderValidation makes program requests parse and validate their WGSL
// sources with naga before anything is recorded.
func WithShaderValidation(enabled bool) ContextOption {
	return func(o *contextOptions) {
		o.validateShaders = enabled
	}
}
