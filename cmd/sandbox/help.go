// SPDX-License-Identifier: Unlicense OR MIT

package main

const mainUsage = `The sandbox command renders a scene with the kosmic renderer.

Usage:

	sandbox [flags]

The scene is described by a YAML file given with -config. Without one, a lit
cube under a sky dome is shown. Flags override the corresponding settings of
the scene file.

The -mesh flag selects the scene mesh: cube, sphere, quad or triangle.

The -shaders flag names a directory holding basic.vert, basic.frag, sky.vert
and sky.frag to use instead of the built-in shaders.

The -offscreen flag renders into an offscreen target that is copied to the
window after every frame.

The -frames flag renders the given number of frames without a visible window
and exits. Combined with -o, the last frame is written to a PNG file.

Controls: W, A, S, D, Space and Left Shift move the camera, the mouse or the
arrow keys turn it, the scroll wheel zooms, O toggles the orthographic
projection, F12 saves a screenshot (with -offscreen) and Escape quits.

Flags:

`
