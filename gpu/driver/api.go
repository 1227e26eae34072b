// SPDX-License-Identifier: Unlicense OR MIT

package driver

import (
	"fmt"
	"unsafe"
)

type API interface {
	implementsAPI()
}

// OpenGL selects the OpenGL 4.1 core backend. A context must be
// current on the calling thread when NewDevice is called.
type OpenGL struct {
	// GetProcAddress resolves GL entry points. If nil, the backend
	// uses the platform default loader.
	GetProcAddress func(name string) unsafe.Pointer
}

// API specific device constructors, set by the backend packages.
var (
	NewOpenGLDevice func(api OpenGL) (Device, error)
)

// NewDevice creates a new Device given the api.
//
// Note that the device does not assume ownership of the context described
// by api; the caller must ensure it stays current and valid until the
// device is released.
func NewDevice(api API) (Device, error) {
	switch api := api.(type) {
	case OpenGL:
		if NewOpenGLDevice != nil {
			return NewOpenGLDevice(api)
		}
	}
	return nil, fmt.Errorf("driver: %w for the API %T", ErrNoDriver, api)
}

func (OpenGL) implementsAPI() {}
