// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rvm/state"
)

func TestVertexFormatLayout(t *testing.T) {
	f := VertexPosition | VertexNormal | VertexTexCoord0
	if got := f.Size(); got != 32 {
		t.Errorf("Size() = %d, want 32", got)
	}
	attrs := f.Attributes()
	want := []VertexAttribute{
		{VertexPosition, gputypes.VertexFormatFloat32x3, 0, 0},
		{VertexNormal, gputypes.VertexFormatFloat32x3, 12, 2},
		{VertexTexCoord0, gputypes.VertexFormatFloat32x2, 24, 3},
	}
	if len(attrs) != len(want) {
		t.Fatalf("len(Attributes()) = %d, want %d", len(attrs), len(want))
	}
	for i := range want {
		if attrs[i] != want[i] {
			t.Errorf("Attributes()[%d] = %+v, want %+v", i, attrs[i], want[i])
		}
	}
}

func TestParseVertexFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    VertexFormat
		wantErr bool
	}{
		{"position", VertexPosition, false},
		{"position:normal:uv0", VertexPosition | VertexNormal | VertexTexCoord0, false},
		{"Position : Color", VertexPosition | VertexColor, false},
		{"position:texcoord:texcoord1", VertexPosition | VertexTexCoord0 | VertexTexCoord1, false},
		{"", 0, true},
		{"position:tangent", 0, true},
		{"position:position", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseVertexFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseVertexFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidVertexFormat) {
			t.Errorf("ParseVertexFormat(%q) error = %v, want ErrInvalidVertexFormat", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseVertexFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVertexFormatStringRoundTrip(t *testing.T) {
	for f := VertexFormat(1); int(f) < MaxVertexFormats; f++ {
		got, err := ParseVertexFormat(f.String())
		if err != nil || got != f {
			t.Errorf("ParseVertexFormat(%q) = %v, %v; want %v", f.String(), got, err, f)
		}
	}
}

func TestBytesPerMipChain(t *testing.T) {
	tests := []struct {
		name   string
		format gputypes.TextureFormat
		w, h   uint32
		mips   uint32
		want   int
	}{
		{"single level rgba", gputypes.TextureFormatRGBA8Unorm, 4, 4, 1, 64},
		{"zero mips means one", gputypes.TextureFormatR8Unorm, 8, 2, 0, 16},
		{"full chain", gputypes.TextureFormatRGBA8Unorm, 4, 4, 3, (16 + 4 + 1) * 4},
		{"non square", gputypes.TextureFormatR8Unorm, 4, 1, 3, 4 + 2 + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BytesPerMipChain(tt.format, tt.w, tt.h, tt.mips)
			if err != nil {
				t.Fatalf("BytesPerMipChain error: %v", err)
			}
			if got != tt.want {
				t.Errorf("BytesPerMipChain() = %d, want %d", got, tt.want)
			}
		})
	}
	if _, err := BytesPerPixel(gputypes.TextureFormatUndefined); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("BytesPerPixel(Undefined) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestTextureDataSizeCube(t *testing.T) {
	desc := TextureDescriptor{Type: TextureCube, Width: 2, Height: 2, MipLevels: 2, Format: gputypes.TextureFormatRGBA8Unorm}
	got, err := TextureDataSize(desc)
	if err != nil {
		t.Fatal(err)
	}
	if want := (4 + 1) * 4 * 6; got != want {
		t.Errorf("TextureDataSize() = %d, want %d", got, want)
	}
}

func TestMipLevelCount(t *testing.T) {
	tests := []struct{ w, h, want uint32 }{
		{1, 1, 1},
		{2, 2, 2},
		{256, 256, 9},
		{256, 1, 9},
		{5, 3, 3},
	}
	for _, tt := range tests {
		if got := MipLevelCount(tt.w, tt.h); got != tt.want {
			t.Errorf("MipLevelCount(%d, %d) = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestUniformLayoutSize(t *testing.T) {
	layout := []UniformElement{
		{Name: "transform", Type: UniformMat4, Offset: 0},
		{Name: "color", Type: UniformVec4, Offset: 64},
	}
	if got := UniformLayoutSize(layout); got != 80 {
		t.Errorf("UniformLayoutSize() = %d, want 80", got)
	}
}

func TestParseTextureFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    gputypes.TextureFormat
		wantErr bool
	}{
		{"rgba8unorm", gputypes.TextureFormatRGBA8Unorm, false},
		{"BGRA8Unorm", gputypes.TextureFormatBGRA8Unorm, false},
		{"depth24plus-stencil8", gputypes.TextureFormatDepth24PlusStencil8, false},
		{"astc-4x4", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTextureFormat(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("ParseTextureFormat(%q) error = %v, want ErrUnsupportedFormat", tt.name, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTextureFormat(%q) failed: %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("ParseTextureFormat(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestShaderPrefix(t *testing.T) {
	got := ShaderPrefix(state.Features(1<<33|5), gputypes.CompareFunctionGreater, 0.5)
	for _, want := range []string{
		"const FEATURES_LO: u32 = 0x5u;",
		"const FEATURES_HI: u32 = 0x2u;",
		"const ALPHA_FUNC: u32 = 5u;",
		"const ALPHA_REF: f32 = 0.5;",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prefix missing %q:\n%s", want, got)
		}
	}
	if got := ShaderPrefix(0, gputypes.CompareFunctionUndefined, 1); !strings.Contains(got, "ALPHA_REF: f32 = 1.0;") {
		t.Errorf("integral reference not written as a float:\n%s", got)
	}
}
