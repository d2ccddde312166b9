// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"errors"
	"strings"
	"testing"
)

// nilDevice satisfies Device by embedding it; tests never call its methods.
type nilDevice struct{ Device }

// resetRegistry clears all registered drivers for test isolation.
func resetRegistry(t *testing.T) {
	t.Helper()
	registryMu.Lock()
	saved := factories
	factories = make(map[string]Factory)
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		factories = saved
		registryMu.Unlock()
	})
}

func TestRegisterAndOpen(t *testing.T) {
	resetRegistry(t)

	Register("test", func() (Device, error) { return nilDevice{}, nil })

	dev, err := Open("test")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := dev.(nilDevice); !ok {
		t.Errorf("Open returned %T, want nilDevice", dev)
	}
	if !IsRegistered("test") {
		t.Error("IsRegistered(test) = false, want true")
	}
}

func TestOpenUnknown(t *testing.T) {
	resetRegistry(t)

	_, err := Open("missing")
	if err == nil {
		t.Fatal("Open(missing) succeeded")
	}
	if !strings.Contains(err.Error(), "forgotten import?") {
		t.Errorf("error = %q, want import hint", err)
	}
}

func TestOpenFactoryError(t *testing.T) {
	resetRegistry(t)
	errBoom := errors.New("boom")
	Register("broken", func() (Device, error) { return nil, errBoom })

	if _, err := Open("broken"); !errors.Is(err, errBoom) {
		t.Errorf("Open(broken) error = %v, want wrapped %v", err, errBoom)
	}
	defer func() {
		if recover() == nil {
			t.Error("MustOpen(broken) did not panic")
		}
	}()
	MustOpen("broken")
}

func TestRegisterPanics(t *testing.T) {
	resetRegistry(t)

	t.Run("nil factory", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("Register(nil) did not panic")
			}
		}()
		Register("nil", nil)
	})

	t.Run("duplicate", func(t *testing.T) {
		Register("dup", func() (Device, error) { return nilDevice{}, nil })
		defer func() {
			if recover() == nil {
				t.Error("duplicate Register did not panic")
			}
		}()
		Register("dup", func() (Device, error) { return nilDevice{}, nil })
	})
}

func TestDriversSorted(t *testing.T) {
	resetRegistry(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		Register(name, func() (Device, error) { return nilDevice{}, nil })
	}
	got := strings.Join(Drivers(), ",")
	if got != "alpha,mid,zeta" {
		t.Errorf("Drivers() = %s, want alpha,mid,zeta", got)
	}
	Unregister("mid")
	if IsRegistered("mid") {
		t.Error("mid still registered after Unregister")
	}
}
