// SPDX-License-Identifier: Unlicense OR MIT

// Package headless implements headless windows for rendering frames to
// an offscreen target and reading them back.
package headless

import (
	"errors"
	"image"
	"runtime"

	"kosmic.dev/gpu/driver"
	"kosmic.dev/target"
)

// Window is a headless window. Its device may only be used inside Do.
type Window struct {
	size   image.Point
	ctx    context
	dev    driver.Device
	target *target.Target
}

type context interface {
	API() driver.API
	MakeCurrent() error
	ReleaseCurrent()
	// Do runs f on the thread owning the context.
	Do(f func() error) error
	Release()
}

var newContextPrimary func() (context, error)

func newContext() (context, error) {
	if newContextPrimary == nil {
		return nil, errors.New("headless: no available GPU backends")
	}
	return newContextPrimary()
}

// NewWindow creates a new headless window with a width×height render
// target.
func NewWindow(width, height int) (*Window, error) {
	ctx, err := newContext()
	if err != nil {
		return nil, err
	}
	w := &Window{
		size: image.Point{X: width, Y: height},
		ctx:  ctx,
	}
	err = contextDo(ctx, func() error {
		dev, err := driver.NewDevice(ctx.API())
		if err != nil {
			return err
		}
		if err := dev.Init(); err != nil {
			dev.Release()
			return err
		}
		tg, err := target.New(dev, width, height)
		if err != nil {
			dev.Release()
			return err
		}
		w.dev = dev
		w.target = tg
		return nil
	})
	if err != nil {
		ctx.Release()
		return nil, err
	}
	return w, nil
}

// Release resources associated with the window.
func (w *Window) Release() {
	if w.ctx == nil {
		return
	}
	contextDo(w.ctx, func() error {
		if w.target != nil {
			w.target.Release()
			w.target = nil
		}
		if w.dev != nil {
			w.dev.Release()
			w.dev = nil
		}
		return nil
	})
	w.ctx.Release()
	w.ctx = nil
}

// Size returns the window size, which follows resizes of the target.
func (w *Window) Size() image.Point {
	if w.target != nil {
		return w.target.Size()
	}
	return w.size
}

// Target returns the render target frames should be drawn into.
func (w *Window) Target() *target.Target {
	return w.target
}

// Do runs f with the window context current.
func (w *Window) Do(f func(d driver.Device) error) error {
	return contextDo(w.ctx, func() error {
		return f(w.dev)
	})
}

// Screenshot returns the content of the window target.
func (w *Window) Screenshot() (*image.RGBA, error) {
	var img *image.RGBA
	err := contextDo(w.ctx, func() error {
		var err error
		img, err = w.target.Screenshot()
		return err
	})
	return img, err
}

func contextDo(ctx context, f func() error) error {
	return ctx.Do(func() error {
		if err := ctx.MakeCurrent(); err != nil {
			return err
		}
		defer ctx.ReleaseCurrent()
		return f()
	})
}

// thread runs functions on a single locked OS thread.
type thread struct {
	funcs chan func()
}

func newThread() *thread {
	t := &thread{funcs: make(chan func())}
	go func() {
		runtime.LockOSThread()
		for f := range t.funcs {
			f()
		}
	}()
	return t
}

func (t *thread) do(f func() error) error {
	errCh := make(chan error)
	t.funcs <- func() {
		errCh <- f()
	}
	return <-errCh
}

func (t *thread) stop() {
	close(t.funcs)
}
