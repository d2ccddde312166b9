// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build nogpu

package webgpu

import "errors"

// Open reports that the standalone GPU backend was left out of the build.
// Devices can still be created from a host with New or NewFromProvider.
func Open(Config) (*Device, error) {
	return nil, errors.New("webgpu: built with the nogpu tag")
}
