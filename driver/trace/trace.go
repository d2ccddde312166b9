// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package trace provides a driver that records every call it receives.
//
// The trace driver serves multiple purposes:
//   - Reference implementation of driver.Device and driver.View
//   - Asserting the exact call sequence the executor produces
//   - Running the pipeline without a GPU (the demo's default driver)
//
// It validates what it can without a GPU: identifiers are created once and
// deleted once, texture data matches its descriptor, vertex formats are
// valid and draws bind existing resources. Injected failures let tests
// exercise error paths.
//
// # Example
//
//	// Import to register the driver
//	import _ "github.com/gogpu/rvm/driver/trace"
//
//	// Create via registry
//	dev, _ := driver.Open("trace")
//
//	// Or create directly
//	dev := trace.New(trace.WithSize(800, 600))
//
//	// Inspect
//	for _, c := range dev.Calls() {
//	    fmt.Println(c)
//	}
package trace

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/rvm/driver"
)

func init() {
	driver.Register("trace", func() (driver.Device, error) {
		return New(), nil
	})
}

// Call is one recorded driver call.
type Call struct {
	Name string
	Args []any
}

// String formats the call as Name(arg, arg).
func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = fmt.Sprint(a)
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

// Option configures a Device.
type Option func(*Device)

// WithSize sets the view size reported by Size. The default is 640x480.
func WithSize(width, height uint32) Option {
	return func(d *Device) {
		d.width, d.height = width, height
	}
}

// WithStateCalls records state setters as well as resource and draw calls.
// It is enabled by default; pass false to keep traces short.
func WithStateCalls(enabled bool) Option {
	return func(d *Device) {
		d.stateCalls = enabled
	}
}

// Calls returns a copy of the recorded calls.
func (d *Device) Calls() []Call { return slices.Clone(d.calls) }

// Names returns the names of the recorded calls in order.
func (d *Device) Names() []string {
	names := make([]string, len(d.calls))
	for i, c := range d.calls {
		names[i] = c.Name
	}
	return names
}

// Filter returns the recorded calls whose name is one of names.
func (d *Device) Filter(names ...string) []Call {
	var out []Call
	for _, c := range d.calls {
		if slices.Contains(names, c.Name) {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many calls named name were recorded.
func (d *Device) Count(name string) int {
	n := 0
	for _, c := range d.calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Reset forgets the recorded calls. Created resources are kept.
func (d *Device) Reset() { d.calls = d.calls[:0] }

// FailOn makes the next calls of method return err. A nil err clears the
// failure.
func (d *Device) FailOn(method string, err error) {
	if err == nil {
		delete(d.failures, method)
		return
	}
	d.failures[method] = err
}

// Frames returns the number of completed frames.
func (d *Device) Frames() int { return d.frames }

func (d *Device) record(name string, args ...any) error {
	d.calls = append(d.calls, Call{Name: name, Args: args})
	return d.failures[name]
}

func (d *Device) recordState(name string, args ...any) {
	if d.stateCalls {
		d.calls = append(d.calls, Call{Name: name, Args: args})
	}
}
