// SPDX-License-Identifier: Unlicense OR MIT

package headless

import (
	"fmt"
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"

	"kosmic.dev/gpu/driver"
	// Register the OpenGL backend.
	_ "kosmic.dev/gpu/opengl"
)

// glfwContext is an OpenGL 4.1 core context of an invisible GLFW
// window.
type glfwContext struct {
	thread *thread
	win    *glfw.Window
}

var glfwState struct {
	mu   sync.Mutex
	refs int
}

func init() {
	newContextPrimary = newGLFWContext
}

func newGLFWContext() (context, error) {
	c := &glfwContext{thread: newThread()}
	err := c.thread.do(func() error {
		glfwState.mu.Lock()
		defer glfwState.mu.Unlock()
		if glfwState.refs == 0 {
			if err := glfw.Init(); err != nil {
				return fmt.Errorf("headless: glfw: %w", err)
			}
		}
		glfw.DefaultWindowHints()
		glfw.WindowHint(glfw.Visible, glfw.False)
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 1)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
		win, err := glfw.CreateWindow(1, 1, "headless", nil, nil)
		if err != nil {
			if glfwState.refs == 0 {
				glfw.Terminate()
			}
			return fmt.Errorf("headless: glfw window: %w", err)
		}
		glfwState.refs++
		c.win = win
		return nil
	})
	if err != nil {
		c.thread.stop()
		return nil, err
	}
	return c, nil
}

func (c *glfwContext) API() driver.API {
	return driver.OpenGL{GetProcAddress: glfw.GetProcAddress}
}

func (c *glfwContext) MakeCurrent() error {
	c.win.MakeContextCurrent()
	return nil
}

func (c *glfwContext) ReleaseCurrent() {
	glfw.DetachCurrentContext()
}

func (c *glfwContext) Do(f func() error) error {
	return c.thread.do(f)
}

func (c *glfwContext) Release() {
	c.thread.do(func() error {
		// Destroy under the lock so no other context can Terminate glfw
		// while this window is still alive.
		glfwState.mu.Lock()
		defer glfwState.mu.Unlock()
		c.win.Destroy()
		c.win = nil
		glfwState.refs--
		if glfwState.refs == 0 {
			glfw.Terminate()
		}
		return nil
	})
	c.thread.stop()
}
