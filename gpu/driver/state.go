// SPDX-License-Identifier: Unlicense OR MIT

package driver

// SetCullFace enables or disables face culling on d. Redundant calls
// are harmless.
func SetCullFace(d Device, enable bool) {
	d.SetCullFace(enable)
}

// SetDepthTest enables or disables depth testing on d. Redundant calls
// are harmless.
func SetDepthTest(d Device, enable bool) {
	d.SetDepthTest(enable)
}
