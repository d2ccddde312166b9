// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rvm

import "errors"

// Sentinel errors returned by Context. Wrapped errors carry the details;
// test them with errors.Is.
var (
	// ErrInvalidData is returned when resource data does not match its
	// description.
	ErrInvalidData = errors.New("rvm: invalid resource data")

	// ErrShaderSource is returned for shader sources that are empty,
	// malformed or rejected by validation.
	ErrShaderSource = errors.New("rvm: invalid shader source")

	// ErrUniformLayoutExists is returned when a uniform layout name is
	// registered twice.
	ErrUniformLayoutExists = errors.New("rvm: uniform layout already exists")

	// ErrUnknownUniformLayout is returned for uniform layout identifiers or
	// names that were never registered.
	ErrUnknownUniformLayout = errors.New("rvm: unknown uniform layout")

	// ErrUnknownFeature is returned when a pipeline feature name is not part
	// of a feature layout.
	ErrUnknownFeature = errors.New("rvm: unknown pipeline feature")

	// ErrNoView is returned by NewContext when neither WithView nor the
	// device provides a driver.View.
	ErrNoView = errors.New("rvm: no view to present frames to")

	// ErrClosed is returned by operations on a closed Context.
	ErrClosed = errors.New("rvm: context closed")
)
