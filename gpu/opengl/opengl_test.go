// SPDX-License-Identifier: Unlicense OR MIT

package opengl

import (
	"testing"

	"github.com/go-gl/gl/v4.1-core/gl"

	"kosmic.dev/gpu/driver"
)

func TestParseGLVersion(t *testing.T) {
	tests := []struct {
		in   string
		want [2]int
	}{
		{"4.1 Metal - 83.1", [2]int{4, 1}},
		{"4.6.0 NVIDIA 535.54.03", [2]int{4, 6}},
		{"4.5 (Core Profile) Mesa 23.2.1", [2]int{4, 5}},
	}
	for _, tc := range tests {
		got, err := parseGLVersion(tc.in)
		if err != nil {
			t.Errorf("parseGLVersion(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseGLVersion(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := parseGLVersion("OpenGL ES"); err == nil {
		t.Error("expected an error for a version string without numbers")
	}
}

func TestToTexFilter(t *testing.T) {
	tests := []struct {
		in   driver.TextureFilter
		want int32
	}{
		{driver.FilterNearest, gl.NEAREST},
		{driver.FilterLinear, gl.LINEAR},
		{driver.FilterLinearMipmapLinear, gl.LINEAR_MIPMAP_LINEAR},
	}
	for _, tc := range tests {
		if got := toTexFilter(tc.in); got != tc.want {
			t.Errorf("toTexFilter(%v) = %#x, want %#x", tc.in, got, tc.want)
		}
	}
	if got := toTexWrap(driver.WrapRepeat); got != gl.REPEAT {
		t.Errorf("toTexWrap(WrapRepeat) = %#x", got)
	}
}

func TestRegistered(t *testing.T) {
	if driver.NewOpenGLDevice == nil {
		t.Fatal("importing opengl did not register the backend")
	}
}
