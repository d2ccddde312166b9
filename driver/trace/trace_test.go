// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package trace

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/resource"
)

func TestRegistered(t *testing.T) {
	dev, err := driver.Open("trace")
	if err != nil {
		t.Fatalf("Open(trace) failed: %v", err)
	}
	if _, ok := dev.(*Device); !ok {
		t.Errorf("Open(trace) returned %T, want *Device", dev)
	}
}

func TestCallString(t *testing.T) {
	c := Call{Name: "SetVertexBuffer", Args: []any{resource.ID(1)}}
	if got := c.String(); got != "SetVertexBuffer(1)" {
		t.Errorf("String() = %q, want SetVertexBuffer(1)", got)
	}
	c = Call{Name: "BeginFrame"}
	if got := c.String(); got != "BeginFrame()" {
		t.Errorf("String() = %q, want BeginFrame()", got)
	}
}

func TestResourceLifecycle(t *testing.T) {
	d := New()
	if err := d.CreateVertexBuffer(1, make([]byte, 12)); err != nil {
		t.Fatalf("CreateVertexBuffer failed: %v", err)
	}
	if err := d.CreateVertexBuffer(1, nil); !errors.Is(err, driver.ErrResourceExists) {
		t.Errorf("second CreateVertexBuffer error = %v, want ErrResourceExists", err)
	}
	if err := d.UploadVertexBuffer(1, make([]byte, 12)); err != nil {
		t.Errorf("UploadVertexBuffer failed: %v", err)
	}
	if err := d.Delete(resource.TypeVertexBuffer, 1); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if d.Live(resource.TypeVertexBuffer, 1) {
		t.Error("vertex buffer 1 still live after Delete")
	}
	if err := d.Delete(resource.TypeVertexBuffer, 1); !errors.Is(err, driver.ErrUnknownResource) {
		t.Errorf("second Delete error = %v, want ErrUnknownResource", err)
	}
}

func TestValidation(t *testing.T) {
	d := New()
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"input layout", d.CreateInputLayout(1, 0), driver.ErrInvalidVertexFormat},
		{"index buffer", d.CreateIndexBuffer(1, make([]byte, 3)), driver.ErrDataSize},
		{"texture", d.CreateTexture(1, driver.TextureDescriptor{
			Width: 2, Height: 2, MipLevels: 1, Format: gputypes.TextureFormatRGBA8Unorm,
		}, make([]byte, 15)), driver.ErrDataSize},
		{"constant buffer", d.CreateConstantBuffer(1, make([]byte, 4), []driver.UniformElement{
			{Name: "m", Type: driver.UniformMat4},
		}), driver.ErrDataSize},
		{"render indexed", d.RenderIndexed(gputypes.PrimitiveTopologyTriangleList, 7, 0, 3), driver.ErrUnknownResource},
		{"render target", d.SetRenderTarget(4), driver.ErrUnknownResource},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, tt.err, tt.want)
		}
	}
	if err := d.SetRenderTarget(0); err != nil {
		t.Errorf("SetRenderTarget(0) error = %v, want nil", err)
	}
}

func TestFailOn(t *testing.T) {
	d := New()
	errBoom := errors.New("boom")
	d.FailOn("CreateProgram", errBoom)
	if err := d.CreateProgram(1, driver.ProgramDescriptor{}); !errors.Is(err, errBoom) {
		t.Errorf("CreateProgram error = %v, want %v", err, errBoom)
	}
	d.FailOn("CreateProgram", nil)
	if err := d.CreateProgram(1, driver.ProgramDescriptor{}); err != nil {
		t.Errorf("CreateProgram after clearing failure: %v", err)
	}
}

func TestFrames(t *testing.T) {
	d := New(WithSize(320, 200))
	if w, h := d.Size(); w != 320 || h != 200 {
		t.Errorf("Size() = %dx%d, want 320x200", w, h)
	}
	if err := d.EndFrame(false); !errors.Is(err, driver.ErrNotInFrame) {
		t.Errorf("EndFrame outside frame error = %v, want ErrNotInFrame", err)
	}
	if err := d.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := d.BeginFrame(); err == nil {
		t.Error("nested BeginFrame succeeded")
	}
	if err := d.EndFrame(true); err != nil {
		t.Fatal(err)
	}
	if d.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", d.Frames())
	}
}

func TestStateCallsOption(t *testing.T) {
	d := New(WithStateCalls(false))
	d.SetCulling(gputypes.CullModeNone)
	d.SetVertexBuffer(3)
	if got := d.Names(); len(got) != 1 || got[0] != "SetVertexBuffer" {
		t.Errorf("Names() = %v, want [SetVertexBuffer]", got)
	}
	if d.Count("SetVertexBuffer") != 1 {
		t.Errorf("Count(SetVertexBuffer) = %d, want 1", d.Count("SetVertexBuffer"))
	}
	d.Reset()
	if len(d.Calls()) != 0 {
		t.Error("Reset() kept calls")
	}
}
