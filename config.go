// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rvm

import (
	"bytes"
	"fmt"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/resource"
	"github.com/gogpu/rvm/state"
)

// Config is the file form of the context options.
//
//	driver = "webgpu"
//	precedence = "inner"
//	pool_capacity = 128
//	validate_shaders = true
//
//	[view]
//	width = 1280
//	height = 720
//	format = "bgra8unorm"
type Config struct {
	Driver          string     `toml:"driver"`
	Precedence      string     `toml:"precedence"`
	PoolCapacity    int        `toml:"pool_capacity"`
	PoolLimit       int        `toml:"pool_limit"`
	ValidateShaders bool       `toml:"validate_shaders"`
	View            ViewConfig `toml:"view"`
}

// ViewConfig describes the output view.
type ViewConfig struct {
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
	Format string `toml:"format"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Driver:       "trace",
		Precedence:   state.OuterWins.String(),
		PoolCapacity: resource.DefaultPoolCapacity,
		PoolLimit:    resource.DefaultPoolLimit,
		View: ViewConfig{
			Width:  640,
			Height: 480,
			Format: "bgra8unorm",
		},
	}
}

// LoadConfig reads a TOML configuration file. Keys missing from the file
// keep their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("rvm: load config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes TOML data on top of DefaultConfig. Unknown keys and
// invalid values are errors.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("rvm: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that have a fixed set of spellings or ranges.
func (c Config) Validate() error {
	if _, err := state.ParsePrecedence(c.Precedence); err != nil {
		return fmt.Errorf("rvm: config: %w", err)
	}
	if _, err := c.View.TextureFormat(); err != nil {
		return fmt.Errorf("rvm: config: view: %w", err)
	}
	if c.PoolCapacity < 0 || c.PoolLimit < 0 || c.PoolLimit > resource.DefaultPoolLimit {
		return fmt.Errorf("rvm: config: pool_capacity %d / pool_limit %d out of range",
			c.PoolCapacity, c.PoolLimit)
	}
	if c.View.Width == 0 || c.View.Height == 0 {
		return fmt.Errorf("rvm: config: view size %dx%d is empty", c.View.Width, c.View.Height)
	}
	return nil
}

// TextureFormat parses the view format name.
func (v ViewConfig) TextureFormat() (gputypes.TextureFormat, error) {
	return driver.ParseTextureFormat(v.Format)
}

// Options converts the configuration into context options.
func (c Config) Options() ([]ContextOption, error) {
	p, err := state.ParsePrecedence(c.Precedence)
	if err != nil {
		return nil, fmt.Errorf("rvm: config: %w", err)
	}
	return []ContextOption{
		WithPrecedence(p),
		WithPoolCapacity(c.PoolCapacity),
		WithPoolLimit(c.PoolLimit),
		WithShaderValidation(c.ValidateShaders),
	}, nil
}
