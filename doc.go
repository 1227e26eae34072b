// SPDX-License-Identifier: Unlicense OR MIT

/*
Package kosmic is the root of the Kosmic rendering core.

The core is split into small packages:

	gpu/driver   the API-agnostic graphics device
	gpu/opengl   the OpenGL 4.1 core implementation of driver.Device
	gpu/headless hidden-window contexts for offline rendering and tests
	camera       view and projection derivation
	mesh         GPU vertex/index buffers and procedural shapes
	program      linked GPU programs and their uniforms
	target       offscreen render targets
	texture      sampled 2D textures
	lighting     ambient, directional, point and spot lights
	material     surface reflection terms and maps
	pass         the user pass graph
	renderer     the per-frame orchestrator

A typical host creates a GL context, constructs a device with driver.NewDevice,
hands it to renderer.New and calls Render once per frame.

The root package only holds the logger shared by every sub-package.
*/
package kosmic
