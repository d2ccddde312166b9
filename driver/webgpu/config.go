// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
)

// Config configures a Device.
type Config struct {
	// Width and Height size the offscreen output target.
	Width, Height uint32

	// Format is the color format of the output target.
	Format gputypes.TextureFormat

	// PipelineCacheSize bounds the number of render pipelines kept alive.
	PipelineCacheSize int

	// BindGroupCacheSize bounds the number of bind groups kept alive.
	BindGroupCacheSize int

	// WaitTimeout bounds EndFrame(true) and ReadPixels.
	WaitTimeout time.Duration
}

// DefaultConfig returns a 640x480 BGRA8 configuration.
func DefaultConfig() Config {
	return Config{
		Width:              640,
		Height:             480,
		Format:             gputypes.TextureFormatBGRA8Unorm,
		PipelineCacheSize:  64,
		BindGroupCacheSize: 256,
		WaitTimeout:        5 * time.Second,
	}
}

func (c Config) validate() error {
	if c.Width == 0 || c.Height == 0 {
		return fmt.Errorf("webgpu: output size %dx%d is empty", c.Width, c.Height)
	}
	if c.Format == gputypes.TextureFormatUndefined {
		return fmt.Errorf("webgpu: output format is undefined")
	}
	if c.PipelineCacheSize <= 0 || c.BindGroupCacheSize <= 0 {
		return fmt.Errorf("webgpu: cache sizes must be positive")
	}
	return nil
}
