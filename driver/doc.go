// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package driver defines the hardware abstraction layer the rendering
// virtual machine drives.
//
// A [Device] is a flat capability surface addressed by resource identifiers:
// resources are created under an identifier chosen by the caller, pipeline
// state is set one piece at a time, and draws are dispatched against
// whatever is currently bound. A [View] brackets a frame.
//
// Implementations register themselves by name following the database/sql
// driver pattern:
//
//	import _ "github.com/gogpu/rvm/driver/trace"
//
//	dev, err := driver.Open("trace")
package driver
