// SPDX-License-Identifier: Unlicense OR MIT

package driver_test

import (
	"testing"

	"kosmic.dev/gpu/driver"
	"kosmic.dev/internal/gputest"
)

func TestSetDepthTest(t *testing.T) {
	d := new(gputest.Device)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	for _, enable := range []bool{false, false, true, true, false} {
		driver.SetDepthTest(d, enable)
		if d.State.DepthTest != enable {
			t.Fatalf("after SetDepthTest(%v): depth test %v", enable, d.State.DepthTest)
		}
	}
	if n := d.Count("SetDepthTest(false)"); n != 3 {
		t.Errorf("%d SetDepthTest(false) calls reached the device, want 3", n)
	}
	// The toggle touches nothing but the depth test.
	if !d.State.CullFace || !d.State.DepthMask {
		t.Errorf("state changed: %+v", d.State)
	}
}

func TestSetCullFace(t *testing.T) {
	d := new(gputest.Device)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	for _, enable := range []bool{true, false, false, true} {
		driver.SetCullFace(d, enable)
		if d.State.CullFace != enable {
			t.Fatalf("after SetCullFace(%v): culling %v", enable, d.State.CullFace)
		}
	}
	if !d.State.DepthTest || d.State.CullMode != driver.FaceBack {
		t.Errorf("state changed: %+v", d.State)
	}
}
