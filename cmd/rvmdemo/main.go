// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command rvmdemo renders a small shadow-mapped scene through the rendering
// virtual machine.
//
// With the trace driver (the default) it prints the driver calls of the
// rendered frames. With the webgpu driver it renders offscreen on the GPU
// and saves the last frame as a PNG.
//
//	rvmdemo -frames 3 -dump
//	rvmdemo -driver webgpu -output demo.png
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/rvm"
	"github.com/gogpu/rvm/driver"
	"github.com/gogpu/rvm/driver/trace"
	"github.com/gogpu/rvm/driver/webgpu"
)

// options holds the command line. Zero values keep the configuration file
// settings.
type options struct {
	config     string
	driver     string
	precedence string
	width      uint
	height     uint
	frames     int
	wait       bool
	dump       bool
	output     string
}

func main() {
	var (
		opts    options
		verbose bool
	)
	flag.StringVar(&opts.config, "config", "", "TOML configuration file")
	flag.StringVar(&opts.driver, "driver", "", "driver name (trace or webgpu)")
	flag.StringVar(&opts.precedence, "precedence", "", "state precedence (outer or inner)")
	flag.UintVar(&opts.width, "width", 0, "view width")
	flag.UintVar(&opts.height, "height", 0, "view height")
	flag.IntVar(&opts.frames, "frames", 1, "number of frames to render")
	flag.BoolVar(&opts.wait, "wait", true, "wait for the GPU after each frame")
	flag.BoolVar(&opts.dump, "dump", false, "print the recorded driver calls (trace driver)")
	flag.StringVar(&opts.output, "output", "", "PNG file for the last frame (webgpu driver)")
	flag.BoolVar(&verbose, "v", false, "debug logging")
	flag.Parse()

	if verbose {
		rvm.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	if err := run(opts, os.Stdout); err != nil {
		log.Fatalf("rvmdemo: %v", err)
	}
}

func run(opts options, out io.Writer) (err error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	dev, err := openDevice(cfg)
	if err != nil {
		return err
	}
	if c, ok := dev.(io.Closer); ok {
		defer func() { err = errors.Join(err, c.Close()) }()
	}

	ctxOpts, err := cfg.Options()
	if err != nil {
		return err
	}
	ctx, err := rvm.NewContext(dev, ctxOpts...)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, ctx.Close()) }()

	sc, err := newScene(ctx)
	if err != nil {
		return err
	}

	frame := rvm.NewFrame()
	for n := range opts.frames {
		sc.record(frame, n)
		if err := ctx.Display(frame, opts.wait); err != nil {
			return fmt.Errorf("frame %d: %w", n, err)
		}
		s := ctx.Machine().Stats()
		log.Printf("frame %d: %d opcodes, %d draws, %d state changes (%d skipped)",
			n, s.Opcodes, s.Draws, s.AppliedStates, s.SkippedStates)
	}

	if opts.output != "" {
		if err := savePNG(dev, opts.output); err != nil {
			return err
		}
		log.Printf("last frame saved to %s", opts.output)
	}

	sc.release(ctx)
	if err := ctx.Construct(); err != nil {
		return err
	}

	if tr, ok := dev.(*trace.Device); ok && opts.dump {
		for _, c := range tr.Calls() {
			fmt.Fprintln(out, c)
		}
	}
	return nil
}

// loadConfig reads the configuration file, if any, and applies the command
// line on top of it.
func loadConfig(opts options) (rvm.Config, error) {
	cfg := rvm.DefaultConfig()
	if opts.config != "" {
		var err error
		if cfg, err = rvm.LoadConfig(opts.config); err != nil {
			return rvm.Config{}, err
		}
	}
	if opts.driver != "" {
		cfg.Driver = opts.driver
	}
	if opts.precedence != "" {
		cfg.Precedence = opts.precedence
	}
	if opts.width > 0 {
		cfg.View.Width = uint32(opts.width)
	}
	if opts.height > 0 {
		cfg.View.Height = uint32(opts.height)
	}
	if err := cfg.Validate(); err != nil {
		return rvm.Config{}, err
	}
	return cfg, nil
}

// openDevice creates the configured driver sized to the view.
// Other registered drivers are opened with their defaults.
func openDevice(cfg rvm.Config) (driver.Device, error) {
	switch cfg.Driver {
	case "trace":
		return trace.New(trace.WithSize(cfg.View.Width, cfg.View.Height), trace.WithStateCalls(false)), nil
	case "webgpu":
		format, err := cfg.View.TextureFormat()
		if err != nil {
			return nil, err
		}
		wc := webgpu.DefaultConfig()
		wc.Width, wc.Height, wc.Format = cfg.View.Width, cfg.View.Height, format
		return webgpu.Open(wc)
	default:
		return driver.Open(cfg.Driver)
	}
}

// savePNG writes the view of a device that supports readback.
func savePNG(dev driver.Device, path string) error {
	rb, ok := dev.(interface{ ReadPixels() (*image.RGBA, error) })
	if !ok {
		return fmt.Errorf("driver %T cannot read pixels back", dev)
	}
	img, err := rb.ReadPixels()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
