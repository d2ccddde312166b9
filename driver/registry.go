// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"fmt"
	"sort"
	"sync"
)

// Factory opens a Device with the driver's default settings, such as the
// trace device at 640x480 or a standalone GPU device.
type Factory func() (Device, error)

// Drivers by name. Backend packages register from init, possibly while
// other goroutines open devices.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
)

// Register makes a backend available to Open under name. The trace and
// webgpu packages register themselves as "trace" and "webgpu", so a blank
// import is enough to select them from a configuration file:
//
//	import _ "github.com/gogpu/rvm/driver/webgpu"
//
//	dev, err := driver.Open(cfg.Driver)
//
// Register panics on a nil factory or a name that is already taken.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("driver: Register factory is nil")
	}
	if _, dup := factories[name]; dup {
		panic("driver: Register called twice for " + name)
	}
	factories[name] = factory
}

// Unregister forgets the backend registered under name, if any.
// Tests use it to install stand-in devices.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Open opens a device with the backend registered under name. An unknown
// name usually means the backend package was never imported.
func Open(name string) (Device, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("driver: unknown driver %q (forgotten import?)", name)
	}
	dev, err := factory()
	if err != nil {
		return nil, fmt.Errorf("driver: open %q: %w", name, err)
	}
	return dev, nil
}

// MustOpen opens a device and panics when Open fails.
func MustOpen(name string) Device {
	dev, err := Open(name)
	if err != nil {
		panic(err)
	}
	return dev
}

// Drivers lists the registered backend names in sorted order.
func Drivers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether Open would find a backend for name.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}
