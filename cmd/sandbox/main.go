// SPDX-License-Identifier: Unlicense OR MIT

// Command sandbox renders a configurable scene in a window or
// headlessly.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"kosmic.dev"
	"kosmic.dev/gpu/driver"
	"kosmic.dev/gpu/headless"
	_ "kosmic.dev/gpu/opengl"
	"kosmic.dev/target"
)

func init() {
	// GLFW event handling must run on the main thread.
	runtime.LockOSThread()
}

func main() {
	fs := flag.CommandLine
	f := registerFlags(fs)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, mainUsage)
		fs.PrintDefaults()
	}
	flag.Parse()
	if err := mainErr(f, fs); err != nil {
		fmt.Fprintf(os.Stderr, "sandbox: %v\n", err)
		os.Exit(1)
	}
}

func mainErr(f *flags, fs *flag.FlagSet) error {
	level := slog.LevelInfo
	if *f.verbose {
		level = slog.LevelDebug
	}
	kosmic.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := loadConfig(*f.config)
	if err != nil {
		return err
	}
	if err := f.apply(cfg, fs); err != nil {
		return err
	}
	if *f.frames > 0 {
		return runHeadless(cfg, *f.frames, *f.output)
	}
	if *f.output != "" {
		return errors.New("-o requires -frames")
	}
	return runWindow(cfg)
}

func runHeadless(cfg *Config, frames int, output string) error {
	w, err := headless.NewWindow(cfg.Window.Width, cfg.Window.Height)
	if err != nil {
		return err
	}
	defer w.Release()
	err = w.Do(func(d driver.Device) error {
		s, err := newScene(d, cfg, w.Size(), w.Target())
		if err != nil {
			return err
		}
		defer s.Release()
		var bar *progressbar.ProgressBar
		if term.IsTerminal(int(os.Stderr.Fd())) {
			bar = progressbar.Default(int64(frames), "render")
			defer bar.Close()
		}
		const dt = 1.0 / 60
		for i := 0; i < frames; i++ {
			s.update(dt)
			if err := s.r.Render(); err != nil {
				return err
			}
			if bar != nil {
				bar.Add(1)
			}
		}
		kosmic.Logger().Info("headless frames rendered", "frames", frames, "gpu", s.r.LastGPUTime())
		return nil
	})
	if err != nil {
		return err
	}
	if output == "" {
		return nil
	}
	img, err := w.Screenshot()
	if err != nil {
		return err
	}
	return saveImage(output, img)
}

func runWindow(cfg *Config) error {
	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	win, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		return err
	}
	defer win.Destroy()
	win.MakeContextCurrent()
	if cfg.Window.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	dev, err := driver.NewDevice(driver.OpenGL{GetProcAddress: glfw.GetProcAddress})
	if err != nil {
		return err
	}
	defer dev.Release()

	fbw, fbh := win.GetFramebufferSize()
	size := image.Pt(fbw, fbh)
	var tg *target.Target
	if cfg.Offscreen {
		if tg, err = target.New(dev, fbw, fbh); err != nil {
			return err
		}
		defer tg.Release()
	}
	s, err := newScene(dev, cfg, size, tg)
	if err != nil {
		return err
	}
	defer s.Release()

	fc := &flycam{cam: s.cam, speed: cfg.Camera.Speed, sensitivity: cfg.Camera.Sensitivity}
	resized := false
	screenshot := false
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, w, h int) {
		size = image.Pt(w, h)
		resized = true
	})
	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		fc.zoom(float32(yoff))
	})
	win.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeyO:
			fc.toggleOrthographic()
		case glfw.KeyF12:
			screenshot = true
		}
	})
	win.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	lastX, lastY := win.GetCursorPos()

	last := time.Now()
	lastReport := last
	nframes := 0
	for !win.ShouldClose() {
		glfw.PollEvents()
		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now

		if resized && size.X > 0 && size.Y > 0 {
			resized = false
			if tg != nil {
				if err := tg.Resize(size.X, size.Y); err != nil {
					return err
				}
			}
			s.resize(size)
		}

		fc.move(pollMovement(win), dt)
		x, y := win.GetCursorPos()
		fc.turn(float32(x-lastX), float32(y-lastY))
		lastX, lastY = x, y
		const turnRate = 90 // degrees per second
		if fc.sensitivity > 0 {
			yaw := axis(win, glfw.KeyRight, glfw.KeyLeft)
			pitch := axis(win, glfw.KeyDown, glfw.KeyUp)
			fc.turn(yaw*turnRate*dt/fc.sensitivity, pitch*turnRate*dt/fc.sensitivity)
		}

		s.update(dt)
		if err := s.render(); err != nil {
			return err
		}
		if screenshot {
			screenshot = false
			saveScreenshot(tg)
		}
		win.SwapBuffers()

		nframes++
		if now.Sub(lastReport) >= 5*time.Second {
			fps := float64(nframes) / now.Sub(lastReport).Seconds()
			kosmic.Logger().Info("frame stats", "fps", fmt.Sprintf("%.1f", fps), "gpu", s.r.LastGPUTime())
			lastReport, nframes = now, 0
		}
	}
	return nil
}

func pollMovement(win *glfw.Window) movement {
	return movement{
		forward: axis(win, glfw.KeyW, glfw.KeyS),
		right:   axis(win, glfw.KeyD, glfw.KeyA),
		up:      axis(win, glfw.KeySpace, glfw.KeyLeftShift),
	}
}

// axis returns 1 if pos is held, -1 if neg is held and 0 otherwise.
func axis(win *glfw.Window, pos, neg glfw.Key) float32 {
	var v float32
	if win.GetKey(pos) == glfw.Press {
		v++
	}
	if win.GetKey(neg) == glfw.Press {
		v--
	}
	return v
}

func saveScreenshot(tg *target.Target) {
	if tg == nil {
		kosmic.Logger().Warn("screenshots need -offscreen")
		return
	}
	img, err := tg.Screenshot()
	if err != nil {
		kosmic.Logger().Error("screenshot", "err", err)
		return
	}
	name := time.Now().Format("sandbox-20060102-150405.png")
	if err := saveImage(name, img); err != nil {
		kosmic.Logger().Error("screenshot", "err", err)
		return
	}
	kosmic.Logger().Info("screenshot saved", "file", name)
}

func saveImage(file string, img image.Image) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
