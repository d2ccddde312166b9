// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rvm

import (
	"errors"
	"testing"

	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/resource"
)

func TestUniformLayout(t *testing.T) {
	ctx, _ := newTestContext(t)
	id, err := ctx.RequestUniformLayout("Instance", []driver.UniformElement{
		{Name: "color", Type: driver.UniformVec4, Offset: 64},
		{Name: "transform", Type: driver.UniformMat4, Offset: 0},
		{},
		{Name: "ignored", Type: driver.UniformFloat, Offset: 80},
	})
	if err != nil {
		t.Fatal(err)
	}

	layout, ok := ctx.UniformLayout(id)
	if !ok || len(layout) != 2 {
		t.Fatalf("UniformLayout(%d) = %v, %v; want 2 elements", id, layout, ok)
	}
	if layout[0].Name != "transform" || layout[1].Name != "color" {
		t.Errorf("elements not sorted by offset: %v", layout)
	}
	if found, ok := ctx.FindUniformLayout("Instance"); !ok || found != id {
		t.Errorf("FindUniformLayout = %d, %v; want %d", found, ok, id)
	}

	if _, err := ctx.RequestUniformLayout("Instance", nil); !errors.Is(err, ErrUniformLayoutExists) {
		t.Errorf("duplicate name error = %v, want ErrUniformLayoutExists", err)
	}

	ctx.DeleteUniformLayout(id)
	if _, ok := ctx.FindUniformLayout("Instance"); ok {
		t.Error("layout name still registered after delete")
	}
	if _, err := ctx.RequestUniformLayout("Instance", nil); err != nil {
		t.Errorf("name not reusable after delete: %v", err)
	}
}

func TestConstantBuffer(t *testing.T) {
	ctx, dev := newTestContext(t)
	layout, err := ctx.RequestUniformLayout("Pass", []driver.UniformElement{
		{Name: "viewProjection", Type: driver.UniformMat4},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ctx.RequestConstantBuffer(make([]byte, 16), layout); !errors.Is(err, ErrInvalidData) {
		t.Errorf("short buffer error = %v, want ErrInvalidData", err)
	}
	if _, err := ctx.RequestConstantBuffer(make([]byte, 64), 99); !errors.Is(err, ErrUnknownUniformLayout) {
		t.Errorf("unknown layout error = %v, want ErrUnknownUniformLayout", err)
	}
	cb, err := ctx.RequestConstantBuffer(make([]byte, 64), layout)
	if err != nil {
		t.Fatal(err)
	}
	if err := ctx.Construct(); err != nil {
		t.Fatal(err)
	}
	if !dev.Live(resource.TypeConstantBuffer, cb) {
		t.Error("constant buffer not created")
	}
}

func TestConstantBufferInlineLayout(t *testing.T) {
	ctx, _ := newTestContext(t)
	layouts := ctx.Pools().Pool(resource.TypeUniformLayout)

	cb, err := ctx.RequestConstantBufferElements(make([]byte, 16), []driver.UniformElement{
		{Name: "tint", Type: driver.UniformVec4},
	})
	if err != nil {
		t.Fatal(err)
	}
	if layouts.Len() != 1 {
		t.Errorf("uniform layouts in use = %d, want 1", layouts.Len())
	}

	if _, err := ctx.RequestConstantBufferElements(make([]byte, 4), []driver.UniformElement{
		{Name: "tint", Type: driver.UniformVec4},
	}); !errors.Is(err, ErrInvalidData) {
		t.Errorf("short inline buffer error = %v, want ErrInvalidData", err)
	}
	if layouts.Len() != 1 {
		t.Errorf("failed request leaked a layout: %d in use", layouts.Len())
	}

	if err := ctx.Construct(); err != nil {
		t.Fatal(err)
	}
	ctx.DeleteConstantBuffer(cb)
	if layouts.Len() != 0 {
		t.Errorf("inline layout not released with its buffer: %d in use", layouts.Len())
	}
}

func TestFeatureLayout(t *testing.T) {
	ctx, _ := newTestContext(t)
	id, err := ctx.RequestFeatureLayout([]PipelineFeature{
		{Name: "lit", Bits: 1 << 0},
		{Name: "shadowed", Bits: 1 << 1},
		{Name: "textured", Bits: 1<<2 | 1<<3},
		{},
		{Name: "after", Bits: 1 << 4},
	})
	if err != nil {
		t.Fatal(err)
	}
	l, ok := ctx.FeatureLayout(id)
	if !ok || l.Len() != 3 {
		t.Fatalf("FeatureLayout(%d) = %v, %v; want 3 features", id, l, ok)
	}

	bits, err := l.Bits("lit", "textured")
	if err != nil || bits != 0b1101 {
		t.Errorf("Bits(lit, textured) = %b, %v; want 1101", bits, err)
	}
	if _, err := l.Bits("after"); !errors.Is(err, ErrUnknownFeature) {
		t.Errorf("Bits(after) error = %v, want ErrUnknownFeature", err)
	}
	if names := l.Names(0b0110); len(names) != 1 || names[0] != "shadowed" {
		t.Errorf("Names(0110) = %v, want [shadowed]", names)
	}

	if _, err := ctx.RequestFeatureLayout([]PipelineFeature{{Name: "x"}}); !errors.Is(err, ErrInvalidData) {
		t.Errorf("feature without bits error = %v, want ErrInvalidData", err)
	}
	if _, err := ctx.RequestFeatureLayout([]PipelineFeature{{Name: "x", Bits: 1}, {Name: "x", Bits: 2}}); !errors.Is(err, ErrInvalidData) {
		t.Errorf("duplicate feature error = %v, want ErrInvalidData", err)
	}
}
