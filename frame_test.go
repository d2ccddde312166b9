// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rvm

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/state"
)

func TestFrameRecycles(t *testing.T) {
	f := NewFrame()
	b1 := f.CreateCommandBuffer()
	s1 := f.CreateStateBlock()
	s1.BindVertexBuffer(3)
	b1.DrawPrimitives(0, triangles, state.Stack{s1}, 0, 3)
	f.EntryPoint().Execute(b1)

	f.Reset()
	if f.EntryPoint().Size() != 0 || b1.Size() != 0 || s1.Len() != 0 {
		t.Error("Reset left recorded data behind")
	}
	if b2 := f.CreateCommandBuffer(); b2 != b1 {
		t.Error("command buffer not reused after Reset")
	}
	if s2 := f.CreateStateBlock(); s2 != s1 {
		t.Error("state block not reused after Reset")
	}
}

func TestFrameBytes(t *testing.T) {
	f := NewFrame()
	a := f.Bytes(16)
	a[0] = 0xff
	b := f.Bytes(8)
	if len(a) != 16 || len(b) != 8 {
		t.Fatalf("lengths = %d, %d", len(a), len(b))
	}
	b = append(b, 1)
	if a[0] != 0xff {
		t.Error("append to one scratch slice overwrote another")
	}
	big := f.Bytes(10 << 10)
	if len(big) != 10<<10 {
		t.Errorf("len = %d", len(big))
	}

	f.Reset()
	c := f.Bytes(16)
	for i, v := range c {
		if v != 0 {
			t.Fatalf("byte %d = %d after Reset, want 0", i, v)
		}
	}
}

func TestImageData(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 10, 14, 12))
	for y := 10; y < 12; y++ {
		for x := 10; x < 14; x++ {
			img.Set(x, y, color.NRGBA{R: 255, A: 255})
		}
	}

	data := ImageData(img, false)
	if len(data) != 4*2*4 {
		t.Fatalf("len = %d, want 32", len(data))
	}
	if data[0] != 255 || data[1] != 0 || data[3] != 255 {
		t.Errorf("first pixel = %v, want opaque red", data[:4])
	}

	chain := ImageData(img, true)
	want, _ := driver.BytesPerMipChain(gputypes.TextureFormatRGBA8Unorm, 4, 2, driver.MipLevelCount(4, 2))
	if len(chain) != want {
		t.Errorf("mip chain len = %d, want %d", len(chain), want)
	}

	ctx, dev := newTestContext(t)
	if _, err := ctx.RequestTextureImage(img, driver.FilterMipLinear); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Construct(); err != nil {
		t.Fatal(err)
	}
	if dev.Count("CreateTexture") != 1 {
		t.Error("texture not created")
	}
}
