// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import "errors"

var (
	// ErrInvalidVertexFormat is returned for empty or malformed vertex formats.
	ErrInvalidVertexFormat = errors.New("driver: invalid vertex format")

	// ErrUnsupportedFormat is returned for pixel formats a device cannot store.
	ErrUnsupportedFormat = errors.New("driver: unsupported pixel format")

	// ErrDataSize is returned when resource data does not match its descriptor.
	ErrDataSize = errors.New("driver: data size does not match descriptor")

	// ErrUnknownResource is returned when an identifier names no resource.
	ErrUnknownResource = errors.New("driver: unknown resource")

	// ErrResourceExists is returned when an identifier is created twice.
	ErrResourceExists = errors.New("driver: resource already exists")

	// ErrNotInFrame is returned for draws issued outside BeginFrame/EndFrame.
	ErrNotInFrame = errors.New("driver: not inside a frame")
)
